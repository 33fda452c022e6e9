package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	detmap "github.com/next-exp/detmap_go/pkg"
)

// loadMaps reads the detector maps from the map file when one is configured,
// from the database otherwise.
func loadMaps(config detmap.Configuration) (map[string]*detmap.Map, error) {
	if config.MapFile != "" {
		return loadMapFile(config.MapFile, config.FillFlags, config.Detectors)
	}
	if config.NoDB {
		return nil, fmt.Errorf("no map file given and database access disabled")
	}

	dbConn, err := detmap.ConnectToDatabase(config.User, config.Passwd, config.Host, config.DBName)
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	defer dbConn.Close()

	if len(config.Detectors) == 0 {
		return detmap.LoadDetectorMaps(dbConn, config.RunNumber)
	}

	maps := make(map[string]*detmap.Map, len(config.Detectors))
	for _, detector := range config.Detectors {
		m, err := detmap.LoadDetectorMap(dbConn, config.RunNumber, detector)
		if err != nil {
			return nil, err
		}
		maps[detector] = m
	}
	return maps, nil
}

// loadMapFile reads a single map from a text file. The map is named after the
// first configured detector, or the file name.
func loadMapFile(filename string, flagNames []string, detectors []string) (map[string]*detmap.Map, error) {
	flags, err := detmap.ParseFillFlags(flagNames)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("error opening map file: %w", err)
	}
	defer file.Close()

	values, err := detmap.ReadValues(file)
	if err != nil {
		return nil, err
	}

	m := detmap.NewMap()
	if _, err := m.Fill(values, flags); err != nil {
		return nil, fmt.Errorf("error filling map from %s: %w", filename, err)
	}

	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if len(detectors) > 0 {
		name = detectors[0]
	}
	if VerbosityLevel > 0 {
		message := fmt.Sprintf("Read %d modules for %s from %s", m.GetSize(), name, filename)
		logger.Info(message, "mapReader")
	}
	return map[string]*detmap.Map{name: m}, nil
}

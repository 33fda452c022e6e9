package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	detmap "github.com/next-exp/detmap_go/pkg"
)

// LoadConfiguration reads the JSON configuration file, if any, on top of the
// defaults. DETMAP_* environment variables override both.
func LoadConfiguration(filename string) (detmap.Configuration, error) {
	var config detmap.Configuration

	// Set default values
	config.Verbosity = 0
	config.NoDB = false
	config.Host = "next.ific.uv.es"
	config.User = "nextreader"
	config.Passwd = "readonly"
	config.DBName = "NEXT100"
	config.RunNumber = 0
	config.FillFlags = []string{"logical", "model", "refindex"}
	config.FileOut = "detmap.h5"
	config.CompressionLevel = 4

	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return config, err
		}
		err = json.Unmarshal(data, &config)
		if err != nil {
			return config, err
		}
	}

	if err := env.Parse(&config); err != nil {
		return config, fmt.Errorf("parse env: %w", err)
	}
	return config, nil
}

func printConfiguration(config detmap.Configuration, logger Logger) {
	logger.Info(fmt.Sprintf("No DB: %t", config.NoDB), "config")
	logger.Info(fmt.Sprintf("Host: %s", config.Host), "config")
	logger.Info(fmt.Sprintf("DB name: %s", config.DBName), "config")
	logger.Info(fmt.Sprintf("Run number: %d", config.RunNumber), "config")
	logger.Info(fmt.Sprintf("Detectors: %s", strings.Join(config.Detectors, ",")), "config")
	logger.Info(fmt.Sprintf("Map file: %s", config.MapFile), "config")
	logger.Info(fmt.Sprintf("Fill flags: %s", strings.Join(config.FillFlags, ",")), "config")
	logger.Info(fmt.Sprintf("File out: %s", config.FileOut), "config")
	logger.Info(fmt.Sprintf("Compression level: %d", config.CompressionLevel), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
}

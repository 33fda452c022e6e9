package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"os"
	"path/filepath"
	"testing"

	detmap "github.com/next-exp/detmap_go/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, content string) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(filename, []byte(content), 0o644))
	return filename
}

func TestLoadConfigurationDefaults(t *testing.T) {
	config, err := LoadConfiguration("")
	require.NoError(t, err)
	assert.Equal(t, "NEXT100", config.DBName)
	assert.Equal(t, []string{"logical", "model", "refindex"}, config.FillFlags)
	assert.Equal(t, 4, config.CompressionLevel)
}

func TestLoadConfigurationFileAndEnv(t *testing.T) {
	filename := writeFile(t, "config.json", `{
		"run_number": 14000,
		"detectors": ["pmt", "sipm"],
		"fill_flags": ["model"],
		"verbosity": 2
	}`)
	t.Setenv("DETMAP_RUN_NUMBER", "14001")
	t.Setenv("DETMAP_HOST", "localhost")

	config, err := LoadConfiguration(filename)
	require.NoError(t, err)
	assert.Equal(t, 14001, config.RunNumber)
	assert.Equal(t, "localhost", config.Host)
	assert.Equal(t, []string{"pmt", "sipm"}, config.Detectors)
	assert.Equal(t, []string{"model"}, config.FillFlags)
	assert.Equal(t, 2, config.Verbosity)
	assert.Equal(t, "nextreader", config.User)
}

func TestLoadConfigurationMissingFile(t *testing.T) {
	_, err := LoadConfiguration(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoadMapFile(t *testing.T) {
	filename := writeFile(t, "tdc.map", `
# crate slot lo hi model
1 7 0 63 0x40000470
1 8 0 63 0x40000470
`)
	maps, err := loadMapFile(filename, []string{"model"}, nil)
	require.NoError(t, err)
	require.Contains(t, maps, "tdc")
	m := maps["tdc"]
	assert.Equal(t, 2, m.GetSize())
	assert.Equal(t, 128, m.GetTotNumChan())

	logical, err := m.LogicalChannel(1, 8, 3)
	require.NoError(t, err)
	assert.Equal(t, 67, logical)

	maps, err = loadMapFile(filename, []string{"model"}, []string{"vuv"})
	require.NoError(t, err)
	assert.Contains(t, maps, "vuv")
}

func TestLoadMapFileMalformed(t *testing.T) {
	filename := writeFile(t, "bad.map", "1 7 0 63 5\n")
	_, err := loadMapFile(filename, nil, nil)
	var malformed *detmap.ErrMalformedInput
	require.ErrorAs(t, err, &malformed)
}

func TestLoadMapsWithoutSource(t *testing.T) {
	_, err := loadMaps(detmap.Configuration{NoDB: true})
	assert.Error(t, err)
}

func testMaps(t *testing.T) map[string]*detmap.Map {
	t.Helper()
	adc := detmap.NewMap()
	_, err := adc.AddModule(2, 3, 0, 15, detmap.WithModel(detmap.MakeModel(792, detmap.ADCModule)))
	require.NoError(t, err)

	tdc := detmap.NewMap()
	_, err = tdc.AddModule(1, 7, 0, 63, detmap.WithModel(detmap.MakeModel(1190, detmap.TDCModule)))
	require.NoError(t, err)
	_, err = tdc.AddModule(1, 8, 0, 63, detmap.WithFirst(64), detmap.WithRefIndex(0))
	require.NoError(t, err)
	return map[string]*detmap.Map{"tdc": tdc, "adc": adc}
}

func TestPrintMaps(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printMaps(&buf, testMaps(t), true))
	out := buf.String()

	assert.Less(t, bytes.Index(buf.Bytes(), []byte("adc:")), bytes.Index(buf.Bytes(), []byte("tdc:")))
	assert.Contains(t, out, "Logical channels: 0-127")
	assert.Contains(t, out, "Reference indices: 0-0")
	assert.Contains(t, out, "type TDC")
}

func TestLookup(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, lookup(&buf, testMaps(t), 1, 8, 10))
	assert.Equal(t, "tdc: module 1 (other, model 0) logical channel 74\n", buf.String())

	err := lookup(&buf, testMaps(t), 4, 4, 4)
	var notMapped *detmap.ErrNotMapped
	require.ErrorAs(t, err, &notMapped)
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestLookupWriteError(t *testing.T) {
	err := lookup(failingWriter{}, testMaps(t), 1, 8, 10)
	require.EqualError(t, err, "disk full")
	var notMapped *detmap.ErrNotMapped
	assert.NotErrorAs(t, err, &notMapped)
}

func TestPrintMapsWriteError(t *testing.T) {
	assert.Error(t, printMaps(failingWriter{}, testMaps(t), false))
}

func TestHelpExampleFlags(t *testing.T) {
	_, example, ok := strings.Cut(rootCmd.Long, "Example: detmap print ")
	require.True(t, ok)

	defer func() {
		configFilename = ""
		runNumber = -1
	}()
	require.NoError(t, printCmd.ParseFlags(strings.Fields(example)))
	assert.Equal(t, "detmap.json", configFilename)
	assert.Equal(t, 14000, runNumber)
	assert.Empty(t, printCmd.Flags().Args())
}

func TestHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("Reading configuration file: detmap.json", "module", "main")
	log.Debug("hidden")

	line := buf.String()
	assert.True(t, strings.HasSuffix(line, "[main] Reading configuration file: detmap.json\n"), line)
	assert.Equal(t, 1, strings.Count(line, "\n"))
	assert.False(t, NewHandler(&buf, nil).Enabled(context.Background(), slog.LevelDebug))
}

func TestParseAddress(t *testing.T) {
	address, err := parseAddress([]string{"1", "0x10", "31"})
	require.NoError(t, err)
	assert.Equal(t, [3]uint16{1, 16, 31}, address)

	_, err = parseAddress([]string{"1", "2", "70000"})
	assert.Error(t, err)
}

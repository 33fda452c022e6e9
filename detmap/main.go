package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	detmap "github.com/next-exp/detmap_go/pkg"
	"github.com/next-exp/detmap_go/pkg/h5map"
	"github.com/spf13/cobra"
)

var configuration detmap.Configuration

var (
	logger         Logger
	VerbosityLevel int
)

var (
	configFilename string
	runNumber      int
	detectors      []string
	fullPrint      bool
)

var rootCmd = &cobra.Command{
	Use:   "detmap",
	Short: "Inspect and export detector maps",
	Long: `detmap reads the detector maps (crate, slot and channel ranges of the
digitizers read out by each detector) from the database or from a map file.

Example: detmap print --config detmap.json --run 14000`,
	PersistentPreRunE: setup,
	SilenceUsage:      true,
}

var printCmd = &cobra.Command{
	Use:   "print",
	Short: "Print the detector maps",
	RunE: func(cmd *cobra.Command, args []string) error {
		maps, err := loadMaps(configuration)
		if err != nil {
			return err
		}
		return printMaps(cmd.OutOrStdout(), maps, fullPrint)
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the detector maps to an HDF5 file",
	RunE: func(cmd *cobra.Command, args []string) error {
		maps, err := loadMaps(configuration)
		if err != nil {
			return err
		}
		return exportMaps(configuration.FileOut, configuration.CompressionLevel, configuration.RunNumber, maps)
	},
}

var lookupCmd = &cobra.Command{
	Use:   "lookup crate slot channel",
	Short: "Find the logical channel of a hardware channel",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		address, err := parseAddress(args)
		if err != nil {
			return err
		}
		maps, err := loadMaps(configuration)
		if err != nil {
			return err
		}
		return lookup(cmd.OutOrStdout(), maps, address[0], address[1], address[2])
	},
}

func init() {
	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	handlerStdOut := NewHandler(os.Stdout, opts)
	handlerStdErr := slog.NewJSONHandler(os.Stderr, opts)
	logger = Logger{
		InfoLog:  slog.New(handlerStdOut),
		ErrorLog: slog.New(handlerStdErr),
	}

	rootCmd.PersistentFlags().StringVar(&configFilename, "config", "", "Configuration file path")
	rootCmd.PersistentFlags().IntVar(&runNumber, "run", -1, "Run number (overrides the configuration)")
	rootCmd.PersistentFlags().StringSliceVar(&detectors, "detector", nil, "Detectors to read (overrides the configuration)")
	printCmd.Flags().BoolVar(&fullPrint, "full", false, "Print decoded module types and logical ranges")

	rootCmd.AddCommand(printCmd, exportCmd, lookupCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	configuration, err = LoadConfiguration(configFilename)
	if err != nil {
		return fmt.Errorf("Error reading configuration file: %w", err)
	}
	if runNumber >= 0 {
		configuration.RunNumber = runNumber
	}
	if len(detectors) > 0 {
		configuration.Detectors = detectors
	}
	detmap.SetConfiguration(configuration)
	detmap.SetLogger(logger)

	VerbosityLevel = configuration.Verbosity
	if VerbosityLevel > 0 {
		message := fmt.Sprintf("Reading configuration file: %s", configFilename)
		logger.Info(message, "main")
		printConfiguration(configuration, logger)
	}
	return nil
}

func printMaps(w io.Writer, maps map[string]*detmap.Map, full bool) error {
	opt := ""
	if full {
		opt = "full"
	}
	for _, name := range detmap.DetectorNames(maps) {
		m := maps[name]
		if _, err := fmt.Fprintf(w, "%s:\n", name); err != nil {
			return err
		}
		if err := m.Print(w, opt); err != nil {
			return err
		}
		if min, max, ok := m.GetMinMaxChan(detmap.LogicalChan); ok {
			if _, err := fmt.Fprintf(w, "Logical channels: %d-%d\n", min, max); err != nil {
				return err
			}
		}
		if min, max, ok := m.GetMinMaxChan(detmap.RefIndex); ok {
			if _, err := fmt.Fprintf(w, "Reference indices: %d-%d\n", min, max); err != nil {
				return err
			}
		}
	}
	return nil
}

func exportMaps(filename string, compressionLevel int, run int, maps map[string]*detmap.Map) error {
	writer, err := h5map.NewWriter(filename, compressionLevel)
	if err != nil {
		return err
	}
	if err := writer.WriteRunInfo(run); err != nil {
		writer.Close()
		return err
	}
	for _, name := range detmap.DetectorNames(maps) {
		if err := writer.WriteMap(name, maps[name]); err != nil {
			writer.Close()
			return err
		}
		if VerbosityLevel > 0 {
			message := fmt.Sprintf("Wrote %s detector map: %d modules", name, maps[name].GetSize())
			logger.Info(message, "export")
		}
	}
	return writer.Close()
}

func parseAddress(args []string) ([3]uint16, error) {
	var address [3]uint16
	names := []string{"crate", "slot", "channel"}
	for i, arg := range args {
		value, err := strconv.ParseUint(arg, 0, 16)
		if err != nil {
			return address, fmt.Errorf("invalid %s %q: %w", names[i], arg, err)
		}
		address[i] = uint16(value)
	}
	return address, nil
}

func lookup(w io.Writer, maps map[string]*detmap.Map, crate, slot, channel uint16) error {
	found := false
	for _, name := range detmap.DetectorNames(maps) {
		m := maps[name]
		i, err := m.Find(crate, slot, channel)
		if err != nil {
			continue
		}
		module, err := m.GetModule(i)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s: module %d (%s, model %d) logical channel %d\n",
			name, i, module.Type(), module.ModelCode(), module.Logical(channel))
		if err != nil {
			return err
		}
		found = true
	}
	if !found {
		return &detmap.ErrNotMapped{Crate: crate, Slot: slot, Channel: channel}
	}
	return nil
}

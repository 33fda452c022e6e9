package h5map

import (
	"errors"
	"fmt"

	detmap "github.com/next-exp/detmap_go/pkg"
	"gonum.org/v1/hdf5"
)

// Writer stores detector maps in an HDF5 file. Each map is a table
// DetMap/<detector> with one row per module; DetMap/detectors indexes them.
type Writer struct {
	File             *hdf5.File
	Filename         string
	RunGroup         *hdf5.Group
	DetMapGroup      *hdf5.Group
	RunInfoTable     *hdf5.Dataset
	DetectorsTable   *hdf5.Dataset
	MapTables        map[string]*hdf5.Dataset
	Detectors        []string
	CompressionLevel int
	RunInfoWritten   bool
}

func NewWriter(filename string, compressionLevel int) (*Writer, error) {
	var err error
	writer := &Writer{
		Filename:         filename,
		MapTables:        make(map[string]*hdf5.Dataset),
		Detectors:        make([]string, 0),
		CompressionLevel: compressionLevel,
	}
	writer.File, err = openFile(filename)
	if err != nil {
		return nil, err
	}
	writer.RunGroup, err = createGroup(writer.File, "Run")
	if err != nil {
		writer.Close()
		return nil, err
	}
	writer.DetMapGroup, err = createGroup(writer.File, "DetMap")
	if err != nil {
		writer.Close()
		return nil, err
	}
	writer.RunInfoTable, err = createTable(writer.RunGroup, "runInfo", RunInfoHDF5{}, compressionLevel)
	if err != nil {
		writer.Close()
		return nil, err
	}
	writer.DetectorsTable, err = createTable(writer.DetMapGroup, "detectors", DetectorHDF5{}, compressionLevel)
	if err != nil {
		writer.Close()
		return nil, err
	}
	return writer, nil
}

func (w *Writer) WriteRunInfo(runNumber int) error {
	if w.RunInfoWritten {
		return fmt.Errorf("run info already written to %s", w.Filename)
	}
	err := writeEntryToTable(w.RunInfoTable, RunInfoHDF5{run_number: int32(runNumber)}, 0)
	if err != nil {
		return err
	}
	w.RunInfoWritten = true
	return nil
}

func (w *Writer) WriteMap(detector string, m *detmap.Map) error {
	if _, ok := w.MapTables[detector]; ok {
		return fmt.Errorf("detector map %s already written to %s", detector, w.Filename)
	}
	if detector == "detectors" {
		return fmt.Errorf("invalid detector name %q", detector)
	}

	table, err := createTable(w.DetMapGroup, detector, ModuleHDF5{}, w.CompressionLevel)
	if err != nil {
		return err
	}
	w.MapTables[detector] = table

	rows := modulesToHDF5(m.Modules())
	if err := writeArrayToTable(table, &rows, 0); err != nil {
		return fmt.Errorf("error writing %s detector map: %w", detector, err)
	}

	entry := DetectorHDF5{
		name:      convertToHdf5String(detector),
		nmodules:  int32(m.GetSize()),
		nchannels: int32(m.GetTotNumChan()),
	}
	if err := writeEntryToTable(w.DetectorsTable, entry, len(w.Detectors)); err != nil {
		return fmt.Errorf("error writing %s detector entry: %w", detector, err)
	}
	w.Detectors = append(w.Detectors, detector)
	return nil
}

func modulesToHDF5(modules []detmap.Module) []ModuleHDF5 {
	// The array MUST be allocated at creation, if not, HDF5 will panic
	// doing appends will not work
	rows := make([]ModuleHDF5, len(modules))
	for i, m := range modules {
		rows[i] = ModuleHDF5{
			crate:      int32(m.Crate),
			slot:       int32(m.Slot),
			lo:         int32(m.Lo),
			hi:         int32(m.Hi),
			first:      m.First,
			model:      m.Model,
			refindex:   m.RefIndex,
			resolution: m.Resolution,
		}
	}
	return rows
}

func (w *Writer) Close() error {
	var errs []error

	for detector, table := range w.MapTables {
		if err := table.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing %s map table: %w", detector, err))
		}
	}
	if w.DetectorsTable != nil {
		if err := w.DetectorsTable.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing detectors table: %w", err))
		}
	}
	if w.RunInfoTable != nil {
		if err := w.RunInfoTable.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing run info table: %w", err))
		}
	}
	if w.DetMapGroup != nil {
		if err := w.DetMapGroup.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing DetMap group: %w", err))
		}
	}
	if w.RunGroup != nil {
		if err := w.RunGroup.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing run group: %w", err))
		}
	}
	if w.File != nil {
		if err := w.File.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing file: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

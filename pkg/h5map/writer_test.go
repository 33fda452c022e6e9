package h5map

import (
	"math"
	"path/filepath"
	"strings"
	"testing"

	detmap "github.com/next-exp/detmap_go/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/hdf5"
)

func readTable[T any](t *testing.T, file *hdf5.File, name string) []T {
	t.Helper()
	dset, err := file.OpenDataset(name)
	require.NoError(t, err)
	defer dset.Close()

	space := dset.Space()
	defer space.Close()
	dims, _, err := space.SimpleExtentDims()
	require.NoError(t, err)

	rows := make([]T, dims[0])
	if len(rows) == 0 {
		return rows
	}
	require.NoError(t, dset.Read(&rows))
	return rows
}

func TestWriteMap(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "detmap.h5")

	tdc := detmap.NewMap()
	_, err := tdc.Fill([]int{
		1, 7, 0, 63, 0, 0x40000470, -1,
		1, 8, 0, 63, 64, 0x40000470, 0,
	}, detmap.FillLogicalChannel|detmap.FillModel|detmap.FillRefIndex)
	require.NoError(t, err)

	adc := detmap.NewMap()
	_, err = adc.AddModule(2, 3, 0, 15, detmap.WithModel(detmap.MakeModel(792, detmap.ADCModule)))
	require.NoError(t, err)

	writer, err := NewWriter(filename, 4)
	require.NoError(t, err)
	require.NoError(t, writer.WriteRunInfo(1234))
	require.NoError(t, writer.WriteMap("tdc", tdc))
	require.NoError(t, writer.WriteMap("adc", adc))
	assert.Error(t, writer.WriteMap("adc", adc))
	assert.Error(t, writer.WriteRunInfo(1234))
	require.NoError(t, writer.Close())

	file, err := hdf5.OpenFile(filename, hdf5.F_ACC_RDONLY)
	require.NoError(t, err)
	defer file.Close()

	modules := readTable[ModuleHDF5](t, file, "DetMap/tdc")
	require.Len(t, modules, 2)
	assert.Equal(t, int32(8), modules[1].slot)
	assert.Equal(t, uint32(64), modules[1].first)
	assert.Equal(t, uint32(0x40000470), modules[1].model)
	assert.Equal(t, int32(0), modules[1].refindex)
	assert.Equal(t, int32(-1), modules[0].refindex)

	detectors := readTable[DetectorHDF5](t, file, "DetMap/detectors")
	require.Len(t, detectors, 2)
	assert.Equal(t, "tdc", strings.TrimRight(string(detectors[0].name[:]), "\x00"))
	assert.Equal(t, int32(2), detectors[0].nmodules)
	assert.Equal(t, int32(128), detectors[0].nchannels)
	assert.Equal(t, "adc", strings.TrimRight(string(detectors[1].name[:]), "\x00"))
	assert.Equal(t, int32(16), detectors[1].nchannels)

	runInfo := readTable[RunInfoHDF5](t, file, "Run/runInfo")
	require.Len(t, runInfo, 1)
	assert.Equal(t, int32(1234), runInfo[0].run_number)
}

func TestWriteMapLargeFirst(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "large.h5")

	m := detmap.NewMap()
	_, err := m.AddModule(1, 2, 0, 15, detmap.WithFirst(math.MaxInt32+1))
	require.NoError(t, err)
	_, err = m.AddModule(1, 3, 0, 15, detmap.WithFirst(math.MaxUint32-15))
	require.NoError(t, err)

	writer, err := NewWriter(filename, 0)
	require.NoError(t, err)
	require.NoError(t, writer.WriteMap("sipm", m))
	require.NoError(t, writer.Close())

	file, err := hdf5.OpenFile(filename, hdf5.F_ACC_RDONLY)
	require.NoError(t, err)
	defer file.Close()

	modules := readTable[ModuleHDF5](t, file, "DetMap/sipm")
	require.Len(t, modules, 2)
	assert.Equal(t, uint32(math.MaxInt32+1), modules[0].first)
	assert.Equal(t, uint32(math.MaxUint32-15), modules[1].first)
}

func TestWriteEmptyMap(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "empty.h5")

	writer, err := NewWriter(filename, 0)
	require.NoError(t, err)
	require.NoError(t, writer.WriteMap("scint", detmap.NewMap()))
	require.NoError(t, writer.Close())

	file, err := hdf5.OpenFile(filename, hdf5.F_ACC_RDONLY)
	require.NoError(t, err)
	defer file.Close()

	modules := readTable[ModuleHDF5](t, file, "DetMap/scint")
	assert.Len(t, modules, 0)
}

func TestNewWriterBadPath(t *testing.T) {
	_, err := NewWriter(filepath.Join(t.TempDir(), "missing", "detmap.h5"), 0)
	var openErr *ErrOpenFile
	require.ErrorAs(t, err, &openErr)
}

package detmap

import (
	"fmt"
	"io"
	"math"

	"golang.org/x/exp/slices"
)

// MaxMapSize is the sanity limit on the number of modules in a map.
const MaxMapSize = (1 << 16) - 1

const initialMapLength = 10

type CountMode int

const (
	LogicalChan CountMode = iota
	RefIndex
)

// Map is the detector map: the ordered list of hardware modules read out by a
// detector. It is not safe for concurrent mutation; once built it can be
// shared by several readers.
type Map struct {
	modules []Module
}

type ModuleOption func(*Module)

func WithFirst(first uint32) ModuleOption {
	return func(m *Module) { m.First = first }
}

func WithModel(model uint32) ModuleOption {
	return func(m *Module) { m.Model = model }
}

func WithRefIndex(refindex int32) ModuleOption {
	return func(m *Module) { m.RefIndex = refindex }
}

func WithResolution(resolution float64) ModuleOption {
	return func(m *Module) { m.Resolution = resolution }
}

func NewMap() *Map {
	return &Map{}
}

// AddModule appends a module covering channels lo..hi of crate/slot and
// returns the new number of modules.
func (d *Map) AddModule(crate, slot, lo, hi uint16, opts ...ModuleOption) (int, error) {
	m := Module{
		Crate:    crate,
		Slot:     slot,
		Lo:       lo,
		Hi:       hi,
		RefIndex: -1,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return d.Append(m)
}

func (d *Map) Append(m Module) (int, error) {
	if m.Lo > m.Hi {
		return len(d.modules), &ErrChannelRange{Lo: int(m.Lo), Hi: int(m.Hi)}
	}
	if len(d.modules) >= MaxMapSize {
		return len(d.modules), &ErrMapFull{Limit: MaxMapSize}
	}
	if len(d.modules) == cap(d.modules) {
		d.grow()
	}
	d.modules = append(d.modules, m)
	if configuration.Verbosity > 3 {
		message := fmt.Sprintf("Added module %d: %v", len(d.modules)-1, m)
		logger.Info(message, "detmap")
	}
	return len(d.modules), nil
}

// grow doubles the storage, never beyond MaxMapSize.
func (d *Map) grow() {
	newLength := 2 * cap(d.modules)
	if newLength < initialMapLength {
		newLength = initialMapLength
	}
	if newLength > MaxMapSize {
		newLength = MaxMapSize
	}
	modules := make([]Module, len(d.modules), newLength)
	copy(modules, d.modules)
	d.modules = modules
}

// GetMinMaxChan returns the lowest and highest logical channel, or reference
// index, found in the map. Modules without a reference index are skipped in
// RefIndex mode. ok is false when no module contributed.
func (d *Map) GetMinMaxChan(mode CountMode) (min int, max int, ok bool) {
	min, max = math.MaxInt, math.MinInt
	for _, m := range d.modules {
		var mMin, mMax int
		switch mode {
		case RefIndex:
			if m.RefIndex < 0 {
				continue
			}
			mMin, mMax = int(m.RefIndex), int(m.RefIndex)
		default:
			mMin, mMax = int(m.First), m.LastLogical()
		}
		if mMin < min {
			min = mMin
		}
		if mMax > max {
			max = mMax
		}
		ok = true
	}
	return min, max, ok
}

func (d *Map) GetModule(i int) (*Module, error) {
	if i < 0 || i >= len(d.modules) {
		return nil, &ErrOutOfRange{Index: i, Size: len(d.modules)}
	}
	return &d.modules[i], nil
}

func (d *Map) GetNchan(i int) (int, error) {
	m, err := d.GetModule(i)
	if err != nil {
		return 0, err
	}
	return m.Nchan(), nil
}

func (d *Map) GetTotNumChan() int {
	total := 0
	for _, m := range d.modules {
		total += m.Nchan()
	}
	return total
}

func (d *Map) GetSize() int {
	return len(d.modules)
}

func (d *Map) GetModel(i int) (uint32, error) {
	m, err := d.GetModule(i)
	if err != nil {
		return 0, err
	}
	return m.ModelCode(), nil
}

func (d *Map) IsADC(i int) (bool, error) {
	m, err := d.GetModule(i)
	if err != nil {
		return false, err
	}
	return m.IsADC(), nil
}

func (d *Map) IsTDC(i int) (bool, error) {
	m, err := d.GetModule(i)
	if err != nil {
		return false, err
	}
	return m.IsTDC(), nil
}

// Modules returns a copy of the modules in the map.
func (d *Map) Modules() []Module {
	return slices.Clone(d.modules)
}

// Find returns the index of the module reading out the given hardware channel.
func (d *Map) Find(crate, slot, channel uint16) (int, error) {
	i := slices.IndexFunc(d.modules, func(m Module) bool {
		return m.Contains(crate, slot, channel)
	})
	if i < 0 {
		return -1, &ErrNotMapped{Crate: crate, Slot: slot, Channel: channel}
	}
	return i, nil
}

func (d *Map) LogicalChannel(crate, slot, channel uint16) (int, error) {
	i, err := d.Find(crate, slot, channel)
	if err != nil {
		return -1, err
	}
	return d.modules[i].Logical(channel), nil
}

// Clear empties the map but keeps its storage.
func (d *Map) Clear() {
	d.modules = d.modules[:0]
}

// Reset releases the storage.
func (d *Map) Reset() {
	d.modules = nil
}

func (d *Map) Clone() *Map {
	if d.modules == nil {
		return &Map{}
	}
	modules := make([]Module, len(d.modules), cap(d.modules))
	copy(modules, d.modules)
	return &Map{modules: modules}
}

// Print writes one line per module. With opt "full" the decoded module type
// and the logical channel range are added.
func (d *Map) Print(w io.Writer, opt string) error {
	full := opt == "full"
	_, err := fmt.Fprintf(w, "Detector map: %d modules, %d channels\n", len(d.modules), d.GetTotNumChan())
	if err != nil {
		return err
	}
	for i, m := range d.modules {
		line := fmt.Sprintf(" %3d  crate %2d  slot %2d  chan %3d-%-3d  first %5d  model 0x%08x  refindex %3d  resolution %g",
			i, m.Crate, m.Slot, m.Lo, m.Hi, m.First, m.Model, m.RefIndex, m.Resolution)
		if full {
			line += fmt.Sprintf("  type %-7s  code %5d  logical %d-%d",
				m.Type(), m.ModelCode(), m.First, m.LastLogical())
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

package detmap

import "fmt"

// Upper two bits of the model word flag ADC/TDC-ness of the module,
// the low 16 bits hold the model number.
const (
	ADCBit    uint32 = 1 << 31
	TDCBit    uint32 = 1 << 30
	ModelMask uint32 = 0x0000ffff
)

type ModuleType int

const (
	OtherModule ModuleType = iota
	ADCModule
	TDCModule
	ADCTDCModule
)

func (t ModuleType) String() string {
	switch t {
	case OtherModule:
		return "other"
	case ADCModule:
		return "ADC"
	case TDCModule:
		return "TDC"
	case ADCTDCModule:
		return "ADC+TDC"
	default:
		return "Unknown"
	}
}

// Module is a contiguous range of hardware channels in a single crate/slot.
type Module struct {
	Crate      uint16
	Slot       uint16
	Lo         uint16
	Hi         uint16
	First      uint32  // logical number of the first channel
	Model      uint32  // packed model word, see ADCBit/TDCBit/ModelMask
	RefIndex   int32   // pipeline TDCs: index of the reference module, -1 if none
	Resolution float64 // s/chan, TDCs only
}

// MakeModel packs a model code and module type into a model word.
func MakeModel(code uint16, t ModuleType) uint32 {
	model := uint32(code)
	switch t {
	case ADCModule:
		model |= ADCBit
	case TDCModule:
		model |= TDCBit
	case ADCTDCModule:
		model |= ADCBit | TDCBit
	}
	return model
}

func (m Module) ModelCode() uint32 {
	return m.Model & ModelMask
}

func (m Module) IsADC() bool {
	return m.Model&ADCBit != 0
}

func (m Module) IsTDC() bool {
	return m.Model&TDCBit != 0
}

func (m Module) Type() ModuleType {
	switch {
	case m.IsADC() && m.IsTDC():
		return ADCTDCModule
	case m.IsADC():
		return ADCModule
	case m.IsTDC():
		return TDCModule
	}
	return OtherModule
}

func (m Module) Nchan() int {
	return int(m.Hi) - int(m.Lo) + 1
}

func (m Module) LastLogical() int {
	return int(m.First) + int(m.Hi) - int(m.Lo)
}

func (m Module) Contains(crate, slot, channel uint16) bool {
	return m.Crate == crate && m.Slot == slot && channel >= m.Lo && channel <= m.Hi
}

// Logical returns the logical channel of a hardware channel of this module.
// The caller must check Contains first.
func (m Module) Logical(channel uint16) int {
	return int(m.First) + int(channel) - int(m.Lo)
}

func (m Module) String() string {
	return fmt.Sprintf("crate %d slot %d chan %d-%d first %d model 0x%08x refindex %d resolution %g",
		m.Crate, m.Slot, m.Lo, m.Hi, m.First, m.Model, m.RefIndex, m.Resolution)
}

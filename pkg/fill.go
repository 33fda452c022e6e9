package detmap

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

type FillFlags uint32

const (
	DoNotClear         FillFlags = 1 << 0  // append to the existing modules
	FillLogicalChannel FillFlags = 1 << 10 // tuples carry the logical channel
	FillModel          FillFlags = 1 << 11 // tuples carry the model word
	FillRefIndex       FillFlags = 1 << 12 // tuples carry the reference index
)

// TupleSize is the number of values per module for the given flags:
// crate, slot, lo, hi and one more value per optional field.
func (f FillFlags) TupleSize() int {
	size := 4
	if f&FillLogicalChannel != 0 {
		size++
	}
	if f&FillModel != 0 {
		size++
	}
	if f&FillRefIndex != 0 {
		size++
	}
	return size
}

func (f FillFlags) String() string {
	names := make([]string, 0, 4)
	if f&FillLogicalChannel != 0 {
		names = append(names, "logical")
	}
	if f&FillModel != 0 {
		names = append(names, "model")
	}
	if f&FillRefIndex != 0 {
		names = append(names, "refindex")
	}
	if f&DoNotClear != 0 {
		names = append(names, "noclear")
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

// Fill parses a flat list of integers into modules. Each module is a tuple of
// crate, slot, lo, hi followed by the logical channel, model and reference
// index when the corresponding flag is set. Unless DoNotClear is set the map
// is cleared first. Without FillLogicalChannel, logical channels are
// numbered contiguously after the last module in the map.
//
// Fill returns the number of modules in the map. A list whose length is not
// a multiple of the tuple size is rejected before the map is touched; modules
// parsed before any other error are kept.
func (d *Map) Fill(values []int, flags FillFlags) (int, error) {
	width := flags.TupleSize()
	if len(values)%width != 0 {
		return len(d.modules), &ErrMalformedInput{
			Position: len(values) - len(values)%width,
			Width:    width,
			Length:   len(values),
			Reason:   fmt.Sprintf("incomplete tuple, %d values left", len(values)%width),
		}
	}
	if flags&DoNotClear == 0 {
		d.Clear()
	}

	nextFirst := 0
	if n := len(d.modules); n > 0 {
		nextFirst = d.modules[n-1].LastLogical() + 1
	}

	for i := 0; i < len(values); i += width {
		m, err := parseTuple(values[i:i+width], flags, nextFirst)
		if err != nil {
			return len(d.modules), &ErrMalformedInput{
				Position: i,
				Width:    width,
				Length:   len(values),
				Reason:   err.Error(),
			}
		}

		_, err = d.Append(m)
		if err != nil {
			var rangeErr *ErrChannelRange
			if errors.As(err, &rangeErr) {
				return len(d.modules), &ErrMalformedInput{
					Position: i,
					Width:    width,
					Length:   len(values),
					Reason:   rangeErr.Error(),
				}
			}
			return len(d.modules), err
		}
		nextFirst = m.LastLogical() + 1
	}

	if configuration.Verbosity > 1 {
		message := fmt.Sprintf("Filled detector map: %d modules, %d channels (flags %v)",
			len(d.modules), d.GetTotNumChan(), flags)
		logger.Info(message, "detmap")
	}
	return len(d.modules), nil
}

func parseTuple(tuple []int, flags FillFlags, nextFirst int) (Module, error) {
	var m Module
	var err error

	if m.Crate, err = uint16Field("crate", tuple[0]); err != nil {
		return m, err
	}
	if m.Slot, err = uint16Field("slot", tuple[1]); err != nil {
		return m, err
	}
	if m.Lo, err = uint16Field("lo", tuple[2]); err != nil {
		return m, err
	}
	if m.Hi, err = uint16Field("hi", tuple[3]); err != nil {
		return m, err
	}

	position := 4
	first := nextFirst
	if flags&FillLogicalChannel != 0 {
		first = tuple[position]
		position++
	}
	if first < 0 || int64(first) > math.MaxUint32 {
		return m, fmt.Errorf("first %d out of range", first)
	}
	m.First = uint32(first)

	if flags&FillModel != 0 {
		model := tuple[position]
		position++
		// Producers working with 32-bit signed integers hand over models
		// with the ADC bit set as negative numbers
		if model < math.MinInt32 || int64(model) > math.MaxUint32 {
			return m, fmt.Errorf("model %d out of range", model)
		}
		m.Model = uint32(model)
	}

	m.RefIndex = -1
	if flags&FillRefIndex != 0 {
		refindex := tuple[position]
		if refindex < -1 || refindex > MaxMapSize {
			return m, fmt.Errorf("refindex %d out of range", refindex)
		}
		m.RefIndex = int32(refindex)
	}
	return m, nil
}

func uint16Field(name string, value int) (uint16, error) {
	if value < 0 || value > math.MaxUint16 {
		return 0, fmt.Errorf("%s %d out of range", name, value)
	}
	return uint16(value), nil
}

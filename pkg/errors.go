package detmap

import "fmt"

// ErrMapFull is returned when adding a module would exceed the map size limit.
type ErrMapFull struct {
	Limit int
}

func (e *ErrMapFull) Error() string {
	return fmt.Sprintf("detector map full: limit of %d modules reached", e.Limit)
}

// ErrMalformedInput is returned by Fill when the value stream does not match
// the requested field layout.
type ErrMalformedInput struct {
	Position int
	Width    int
	Length   int
	Reason   string
}

func (e *ErrMalformedInput) Error() string {
	return fmt.Sprintf("malformed detector map input at value %d (tuple width %d, %d values): %s",
		e.Position, e.Width, e.Length, e.Reason)
}

// ErrOutOfRange is returned for positional access beyond the map size.
type ErrOutOfRange struct {
	Index int
	Size  int
}

func (e *ErrOutOfRange) Error() string {
	return fmt.Sprintf("module index %d out of range [0,%d)", e.Index, e.Size)
}

// ErrChannelRange is returned for a module whose low channel is above its high channel.
type ErrChannelRange struct {
	Lo int
	Hi int
}

func (e *ErrChannelRange) Error() string {
	return fmt.Sprintf("invalid channel range: lo %d > hi %d", e.Lo, e.Hi)
}

// ErrNotMapped is returned when a hardware address is not covered by any module.
type ErrNotMapped struct {
	Crate   uint16
	Slot    uint16
	Channel uint16
}

func (e *ErrNotMapped) Error() string {
	return fmt.Sprintf("crate %d slot %d channel %d is not mapped", e.Crate, e.Slot, e.Channel)
}

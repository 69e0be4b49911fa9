// Package merr holds the error kinds from spec.md section 7 that are not
// field-contract assertions (those live in internal/assert): size
// overflow, lookup failure, protocol precondition failure, and unsupported
// neutral-exchange shapes. I/O errors are propagated unchanged per
// spec.md, so there is no I/O wrapper type here.
package merr

import "fmt"

// SizeOverflowError reports a computed size that did not fit in its target
// integer width.
type SizeOverflowError struct {
	Name  string
	Value int64
	Width int
}

func (e *SizeOverflowError) Error() string {
	return fmt.Sprintf("size overflow: `%s` value %d does not fit in %d bits", e.Name, e.Value, e.Width)
}

// LookupError reports a stored index that did not resolve to any name in
// the relevant table.
type LookupError struct {
	Table string
	Index int32
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup failed: index %d not found in table `%s`", e.Index, e.Table)
}

// ProtocolError reports a structural precondition failure, e.g.
// "PayloadSize < HeaderSize", a duplicate light node, or an event kind
// invalid for the current game.
type ProtocolError struct {
	Msg string
}

func (e *ProtocolError) Error() string { return e.Msg }

// Protocolf builds a ProtocolError with a formatted message.
func Protocolf(format string, a ...interface{}) error {
	return &ProtocolError{Msg: fmt.Sprintf(format, a...)}
}

// UnsupportedError reports a neutral-exchange shape the core does not
// handle (spec.md section 7, e.g. a 64-bit float or a char).
type UnsupportedError struct {
	Shape string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported neutral-exchange shape: %s", e.Shape)
}

// Package types holds the fixed-width semantic wrappers from spec.md
// section 4.3 (component C3): Ascii<N> padding dialects, Bool32, Ptr,
// Hex[T], Maybe[R,T], bitflag sets, and primitive enums. It is grounded on
// the original project's crates/types/src/ascii/conv.rs and
// crates/types/src/bitflags/mod.rs (see original_source/_INDEX.md),
// translated from Rust const-generic arrays (Ascii<const N: usize>) to Go
// fixed-length byte slices, since Go has no array-length type parameter:
// every on-disk record declares its Ascii field as a plain fixed-size byte
// array (e.g. `Name [64]byte`), and the functions here operate on a slice
// view of that array, with N implied by len(buf).
package types

import "fmt"

// ConversionErrorKind distinguishes why an Ascii buffer failed to convert
// to a string, mirroring the original ConversionError enum.
type ConversionErrorKind int

const (
	ErrPadding ConversionErrorKind = iota
	ErrNonASCII
	ErrUnterminated
)

// ConversionError reports a failed Ascii buffer-to-string conversion.
type ConversionError struct {
	Kind    ConversionErrorKind
	Padding string // set when Kind == ErrPadding
	Index   int    // set when Kind == ErrNonASCII
}

func (e *ConversionError) Error() string {
	switch e.Kind {
	case ErrPadding:
		return fmt.Sprintf("expected padding with %s", e.Padding)
	case ErrNonASCII:
		return fmt.Sprintf("non-ASCII byte at index %d", e.Index)
	default:
		return "unterminated ascii buffer"
	}
}

var defaultNodeName = []byte("Default_node_name")

func isASCII(b []byte) error {
	for i, c := range b {
		if c&0x80 != 0 {
			return &ConversionError{Kind: ErrNonASCII, Index: i}
		}
	}
	return nil
}

func ensureASCII(s string) []byte {
	b := []byte(s)
	if err := isASCII(b); err != nil {
		panic("non-ASCII string: " + s)
	}
	return b
}

func findFirstZero(buf []byte) (int, bool) {
	for i, c := range buf {
		if c == 0 {
			return i, true
		}
	}
	return 0, false
}

func copyWithZeroSpace(buf []byte, b []byte) int {
	n := len(buf)
	l := len(b)
	if l >= n {
		l = n - 1
	}
	copy(buf[:l], b[:l])
	return l
}

func copyWithoutZeroSpace(buf []byte, b []byte) int {
	n := len(buf)
	l := len(b)
	if l > n {
		l = n
	}
	copy(buf[:l], b[:l])
	return l
}

// --- zero-padded dialect ---

// AsciiFromStrPadded zero-fills buf and writes s, zero-terminated.
func AsciiFromStrPadded(buf []byte, s string) {
	b := ensureASCII(s)
	for i := range buf {
		buf[i] = 0
	}
	copyWithZeroSpace(buf, b)
}

// AsciiToStrPadded reads a zero-terminated, zero-padded buffer.
func AsciiToStrPadded(buf []byte) (string, error) {
	index, ok := findFirstZero(buf)
	if !ok {
		return "", &ConversionError{Kind: ErrUnterminated}
	}
	for _, c := range buf[index:] {
		if c != 0 {
			return "", &ConversionError{Kind: ErrPadding, Padding: "zeroes"}
		}
	}
	if err := isASCII(buf[:index]); err != nil {
		return "", err
	}
	return string(buf[:index]), nil
}

// --- node-name dialect ---

func defaultNodeNameBuf(n int) []byte {
	buf := make([]byte, n)
	copyWithoutZeroSpace(buf, defaultNodeName)
	return buf
}

// AsciiFromStrNodeName fills buf with a cyclic... (actually literal,
// truncated/overlaid) copy of "Default_node_name", overlays s, and writes
// one zero terminator, per spec.md section 4.3.
func AsciiFromStrNodeName(buf []byte, s string) {
	b := ensureASCII(s)
	dn := defaultNodeNameBuf(len(buf))
	copy(buf, dn)
	l := copyWithZeroSpace(buf, b)
	buf[l] = 0
}

// AsciiToStrNodeName reads a node-name-padded buffer, validating the tail
// matches the expected default-node-name padding exactly.
func AsciiToStrNodeName(buf []byte) (string, error) {
	index, ok := findFirstZero(buf)
	if !ok {
		return "", &ConversionError{Kind: ErrUnterminated}
	}
	dn := defaultNodeNameBuf(len(buf))
	a := buf[index+1:]
	b := dn[index+1:]
	for i := range a {
		if a[i] != b[i] {
			return "", &ConversionError{Kind: ErrPadding, Padding: "node name"}
		}
	}
	if err := isASCII(buf[:index]); err != nil {
		return "", err
	}
	return string(buf[:index]), nil
}

// --- suffix dialect ---

// AsciiFromStrSuffix writes s into buf, replacing the last '.' with a zero
// terminator (or zero-terminating at the end if there is no '.').
func AsciiFromStrSuffix(buf []byte, s string) {
	b := ensureASCII(s)
	for i := range buf {
		buf[i] = 0
	}
	l := copyWithoutZeroSpace(buf, b)
	replaced := false
	for i := l - 1; i >= 0; i-- {
		if buf[i] == '.' {
			buf[i] = 0
			replaced = true
			break
		}
	}
	if !replaced {
		if l < len(buf) {
			buf[l] = 0
		} else {
			buf[len(buf)-1] = 0
		}
	}
}

// AsciiToStrSuffix reads a suffix-dialect buffer, restoring the first zero
// terminator to '.' when a suffix follows it (a zero directly after the
// terminator means there is no suffix, only padding).
func AsciiToStrSuffix(buf []byte) (string, error) {
	suffixIndex, ok := findFirstZero(buf)
	if !ok {
		return "", &ConversionError{Kind: ErrUnterminated}
	}
	secondZero := -1
	for i := suffixIndex + 1; i < len(buf); i++ {
		if buf[i] == 0 {
			secondZero = i
			break
		}
	}
	copyBuf := make([]byte, len(buf))
	copy(copyBuf, buf)

	if secondZero >= 0 {
		relPad := secondZero - (suffixIndex + 1)
		var idx int
		if relPad == 0 {
			idx = suffixIndex
		} else {
			copyBuf[suffixIndex] = '.'
			idx = secondZero
		}
		for i := secondZero + 1; i < len(buf); i++ {
			if buf[i] != 0 {
				return "", &ConversionError{Kind: ErrPadding, Padding: "zeroes"}
			}
		}
		if err := isASCII(copyBuf[:idx]); err != nil {
			return "", err
		}
		return string(copyBuf[:idx]), nil
	}

	// no second zero: no padding, possibly no suffix.
	if suffixIndex+1 < len(buf) {
		copyBuf[suffixIndex] = '.'
		if err := isASCII(copyBuf); err != nil {
			return "", err
		}
		return string(copyBuf), nil
	}
	if err := isASCII(copyBuf[:suffixIndex]); err != nil {
		return "", err
	}
	return string(copyBuf[:suffixIndex]), nil
}

// --- garbage dialect ---

// AsciiFromStrGarbage fills buf's tail with the provided garbage bytes
// (right-aligned), then overlays s and a zero terminator, preserving the
// original's uninitialized tail for round-trip per spec.md section 9.
func AsciiFromStrGarbage(buf []byte, s string, garbage []byte) {
	b := ensureASCII(s)
	n := len(buf)
	if len(garbage) < n {
		start := n - len(garbage)
		copy(buf[start:], garbage)
		for i := 0; i < start; i++ {
			buf[i] = 0
		}
	} else {
		copy(buf, garbage[:n])
	}
	l := copyWithZeroSpace(buf, b)
	buf[l] = 0
}

// AsciiToStrGarbage reads a garbage-padded buffer, returning the decoded
// string and the preserved tail bytes (to be round-tripped verbatim).
func AsciiToStrGarbage(buf []byte) (string, []byte, error) {
	index, ok := findFirstZero(buf)
	if !ok {
		return "", nil, &ConversionError{Kind: ErrUnterminated}
	}
	pad := make([]byte, len(buf)-index-1)
	copy(pad, buf[index+1:])
	if err := isASCII(buf[:index]); err != nil {
		return "", nil, err
	}
	return string(buf[:index]), pad, nil
}

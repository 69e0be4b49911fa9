// Package assert is the typed-field validation DSL described in spec.md
// section 4.2: a uniform assertion primitive producing precisely-located
// errors. It is grounded on the original project's
// crates/common/src/assert/mod.rs (see original_source/_INDEX.md), adapted
// from Rust generics to Go type parameters, and on the canonical message
// format in spec.md section 4.2:
//
//	Expected `<name>` <op> <expected>, but was <actual> (at <offset>)
package assert

import (
	"fmt"
)

// Error is the located assertion failure from spec.md section 7: a value
// failed a field contract. It carries enough to render the canonical
// message and enough for a caller to act on the offset programmatically.
type Error struct {
	Name     string
	Expected string
	Actual   string
	Offset   uint32
}

func (e *Error) Error() string {
	return fmt.Sprintf("Expected `%s` %s, but was %s (at %d)", e.Name, e.Expected, e.Actual, e.Offset)
}

func newErr(name, expected, actual string, offset uint32) *Error {
	return &Error{Name: name, Expected: expected, Actual: actual, Offset: offset}
}

type ordered interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~float32 | ~float64
}

// Eq asserts actual == expected.
func Eq[T comparable](name string, expected, actual T, offset uint32) error {
	if actual == expected {
		return nil
	}
	return newErr(name, fmt.Sprintf("== %v", expected), fmt.Sprintf("%v", actual), offset)
}

// Ne asserts actual != expected.
func Ne[T comparable](name string, expected, actual T, offset uint32) error {
	if actual != expected {
		return nil
	}
	return newErr(name, fmt.Sprintf("!= %v", expected), fmt.Sprintf("%v", actual), offset)
}

// Lt asserts actual < expected.
func Lt[T ordered](name string, expected, actual T, offset uint32) error {
	if actual < expected {
		return nil
	}
	return newErr(name, fmt.Sprintf("< %v", expected), fmt.Sprintf("%v", actual), offset)
}

// Le asserts actual <= expected.
func Le[T ordered](name string, expected, actual T, offset uint32) error {
	if actual <= expected {
		return nil
	}
	return newErr(name, fmt.Sprintf("<= %v", expected), fmt.Sprintf("%v", actual), offset)
}

// Gt asserts actual > expected.
func Gt[T ordered](name string, expected, actual T, offset uint32) error {
	if actual > expected {
		return nil
	}
	return newErr(name, fmt.Sprintf("> %v", expected), fmt.Sprintf("%v", actual), offset)
}

// Ge asserts actual >= expected.
func Ge[T ordered](name string, expected, actual T, offset uint32) error {
	if actual >= expected {
		return nil
	}
	return newErr(name, fmt.Sprintf(">= %v", expected), fmt.Sprintf("%v", actual), offset)
}

// InRange asserts min <= actual <= max.
func InRange[T ordered](name string, min, max, actual T, offset uint32) error {
	if actual >= min && actual <= max {
		return nil
	}
	return newErr(name, fmt.Sprintf("in range %v..=%v", min, max), fmt.Sprintf("%v", actual), offset)
}

// InSet asserts actual is a member of set.
func InSet[T comparable](name string, set []T, actual T, offset uint32) error {
	for _, v := range set {
		if v == actual {
			return nil
		}
	}
	return newErr(name, fmt.Sprintf("one of %v", set), fmt.Sprintf("%v", actual), offset)
}

// BoolU32 validates a u32 that must be 0 or 1, yielding the decoded bool.
func BoolU32(name string, raw uint32, offset uint32) (bool, error) {
	switch raw {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, newErr(name, "0 or 1", fmt.Sprintf("%d", raw), offset)
	}
}

// EnumRaw validates raw against a set of valid discriminants, yielding raw
// back (callers wrap the confirmed-valid raw in their own enum type).
func EnumRaw[T ordered](name string, discriminants []T, raw T, offset uint32) error {
	for _, d := range discriminants {
		if d == raw {
			return nil
		}
	}
	return newErr(name, fmt.Sprintf("one of %v", discriminants), fmt.Sprintf("%v", raw), offset)
}

// FlagsRaw validates that raw contains only bits present in valid.
func FlagsRaw[T ~uint8 | ~uint16 | ~uint32](name string, valid, raw T, offset uint32) error {
	if raw&^valid == 0 {
		return nil
	}
	return newErr(name, fmt.Sprintf("subset of 0x%x", uint64(valid)), fmt.Sprintf("0x%x", uint64(raw)), offset)
}

// ZeroSlice asserts every byte in buf is zero.
func ZeroSlice(name string, buf []byte, offset uint32) error {
	for i, b := range buf {
		if b != 0 {
			return newErr(name, "all zero", fmt.Sprintf("byte %d = 0x%02x", i, b), offset+uint32(i))
		}
	}
	return nil
}

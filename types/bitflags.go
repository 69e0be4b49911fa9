package types

import (
	"fmt"
	"strings"
)

// FlagWidth is any of the unsigned integer widths a bitflag set can be
// stored in on disk (spec.md section 4.3: "a compile-time enumerated mask
// of valid bits" over a fixed u8/u16/u32).
type FlagWidth interface {
	~uint8 | ~uint16 | ~uint32
}

// FlagSet is a generic bitflag value over width R, replacing the
// teacher-language's per-type `bitflags!` macro (spec.md section 4.3 /
// section 9 "use a trait/interface per game" — the same per-concern
// generalization, applied here to the flag-macro instead of the
// per-game dispatch). A concrete flag set (e.g. archive mode bits, node
// flags, event optional-field flags) is a FlagSet[uint32] with package-
// level named constants for each bit and a VALID mask.
type FlagSet[R FlagWidth] struct {
	bits R
}

// NewFlagSet wraps a raw value without validating it.
func NewFlagSet[R FlagWidth](raw R) FlagSet[R] { return FlagSet[R]{bits: raw} }

// Bits returns the raw stored value.
func (f FlagSet[R]) Bits() R { return f.bits }

// Contains reports whether every bit in rhs is set in f.
func (f FlagSet[R]) Contains(rhs FlagSet[R]) bool {
	return f.bits&rhs.bits == rhs.bits
}

// Or combines two flag sets.
func (f FlagSet[R]) Or(rhs FlagSet[R]) FlagSet[R] { return FlagSet[R]{bits: f.bits | rhs.bits} }

// FromBits validates raw against valid, returning (set, true) only if raw
// has no bits outside valid (spec.md section 4.3 / section 8 sub-property
// 1: "from_bits(x) succeeds iff x & !VALID == 0").
func FromBits[R FlagWidth](raw, valid R) (FlagSet[R], bool) {
	if raw&^valid != 0 {
		return FlagSet[R]{}, false
	}
	return FlagSet[R]{bits: raw}, true
}

// FromBitsTruncate masks raw down to valid unconditionally (spec.md
// section 8 sub-property 1: "from_bits_truncate(x).bits() == x & VALID").
func FromBitsTruncate[R FlagWidth](raw, valid R) FlagSet[R] {
	return FlagSet[R]{bits: raw & valid}
}

// FormatFlags renders a flag set as its known-flag names plus
// "1 << n" for any unknown set bit, per spec.md section 4.3's bitflag
// display formatting. names maps a single-bit value to its display name;
// bits not present in names are rendered positionally.
func FormatFlags[R FlagWidth](bits R, width int, names map[R]string) string {
	var parts []string
	for i := 0; i < width; i++ {
		bit := R(1) << uint(i)
		if bits&bit == 0 {
			continue
		}
		if name, ok := names[bit]; ok {
			parts = append(parts, name)
		} else {
			parts = append(parts, fmt.Sprintf("1 << %d", i))
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

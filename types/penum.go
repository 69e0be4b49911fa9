package types

// EnumRepr is any of the unsigned integer widths a primitive-enum
// discriminant can be stored in on disk (spec.md section 4.3).
type EnumRepr interface {
	~uint8 | ~uint16 | ~uint32
}

// FromRepr validates raw against the enumerated discriminant set,
// returning (raw, true) only if raw is a member, per spec.md section 8
// sub-property 2: "from_repr(x) succeeds iff x in DISCRIMINANTS".
func FromRepr[R EnumRepr](raw R, discriminants []R) (R, bool) {
	for _, d := range discriminants {
		if d == raw {
			return raw, true
		}
	}
	return raw, false
}

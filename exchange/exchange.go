// Package exchange implements the self-describing neutral-tree codec
// from spec.md section 4.12 (component C12): a tagged binary form
// isomorphic to a JSON value set restricted to bool, i8..i32, u8..u32,
// f32, datetime, string, bytes, option, vec, struct (named fields), and
// enum (unit or newtype variants). It is grounded on the original
// project's crates/exchange/src/de/io_reader/de.rs (see
// original_source/_INDEX.md), the only retrieved exchange file: that
// deserializer's primitive read set (read_i8/i16/i32/u8/u16/u32/f32/
// bool/str/bytes, read_option, read_seq_sized, read_struct's
// name-then-value MapAccess, and read_enum's (EnumType, variant_index)
// pair) is the exact kind set this package's Kind enum carries. Its
// serializer counterpart was not part of the retrieval pack; WriteValue
// inverts ReadValue using the same conventions this repo's other
// packages already establish (stream's positional reader/writer,
// internal/assert, internal/merr).
package exchange

import (
	"time"

	"github.com/TerranMechworks/mech3ax-sub002/internal/assert"
	"github.com/TerranMechworks/mech3ax-sub002/internal/merr"
	"github.com/TerranMechworks/mech3ax-sub002/stream"
)

// Kind is the leading discriminant byte of every value in the tree
// (spec.md section 4.12).
type Kind uint8

const (
	KindBool Kind = iota + 1
	KindI8
	KindI16
	KindI32
	KindU8
	KindU16
	KindU32
	KindF32
	KindDateTime
	KindString
	KindBytes
	KindOption
	KindVec
	KindStruct
	KindEnum
)

var kindDiscriminants = []Kind{
	KindBool, KindI8, KindI16, KindI32, KindU8, KindU16, KindU32, KindF32,
	KindDateTime, KindString, KindBytes, KindOption, KindVec, KindStruct, KindEnum,
}

// EnumType distinguishes a unit variant (no payload, e.g. Rust's
// `Foo::Bar`) from a newtype variant (one wrapped value, e.g.
// `Foo::Bar(T)`), mirroring de.rs's `EnumType::{Unit, NewType}`.
type EnumType uint8

const (
	EnumUnit EnumType = iota
	EnumNewType
)

// Field is one named struct member (spec.md section 4.12: "struct
// (named fields)"). The original's deserialize_struct reads field
// identifiers from the wire via its MapAccess (an identifier is just a
// deserialize_string call, per de.rs's deserialize_identifier), so
// names round-trip rather than being schema-only.
type Field struct {
	Name  string
	Value Value
}

// Value is one node of the decoded tree. Exactly one group of fields
// matching Kind is meaningful; the rest are zero.
type Value struct {
	Kind Kind

	Bool     bool
	I8       int8
	I16      int16
	I32      int32
	U8       uint8
	U16      uint16
	U32      uint32
	F32      float32
	DateTime time.Time
	String   string
	Bytes    []byte

	// Option is nil for None, and points at the wrapped value for Some.
	Option *Value

	// Vec holds Kind == KindVec's elements, each independently tagged
	// (spec.md section 4.12 calls the whole tree "self-describing";
	// the original's read_seq_sized instead relies on a schema type
	// known to the Rust compiler for each element — see DESIGN.md).
	Vec []Value

	// Fields holds Kind == KindStruct's named members, in schema order.
	Fields []Field

	// EnumType, Variant and Payload are valid iff Kind == KindEnum.
	// Payload is nil for EnumUnit, non-nil for EnumNewType.
	EnumType EnumType
	Variant  uint32
	Payload  *Value
}

// Bool, I8, I16, I32, U8, U16, U32, F32, Str and Bytes construct leaf
// values of the matching Kind.
func Bool(v bool) Value          { return Value{Kind: KindBool, Bool: v} }
func I8(v int8) Value            { return Value{Kind: KindI8, I8: v} }
func I16(v int16) Value          { return Value{Kind: KindI16, I16: v} }
func I32(v int32) Value          { return Value{Kind: KindI32, I32: v} }
func U8(v uint8) Value           { return Value{Kind: KindU8, U8: v} }
func U16(v uint16) Value         { return Value{Kind: KindU16, U16: v} }
func U32(v uint32) Value         { return Value{Kind: KindU32, U32: v} }
func F32(v float32) Value        { return Value{Kind: KindF32, F32: v} }
func DateTime(v time.Time) Value { return Value{Kind: KindDateTime, DateTime: v.UTC()} }
func Str(v string) Value         { return Value{Kind: KindString, String: v} }
func Bytes(v []byte) Value       { return Value{Kind: KindBytes, Bytes: v} }

// None and Some construct KindOption values.
func None() Value        { return Value{Kind: KindOption} }
func Some(v Value) Value { return Value{Kind: KindOption, Option: &v} }

// NewVec and NewStruct construct KindVec / KindStruct values.
func NewVec(items []Value) Value     { return Value{Kind: KindVec, Vec: items} }
func NewStruct(fields []Field) Value { return Value{Kind: KindStruct, Fields: fields} }

// UnitVariant and NewTypeVariant construct KindEnum values.
func UnitVariant(index uint32) Value {
	return Value{Kind: KindEnum, EnumType: EnumUnit, Variant: index}
}

func NewTypeVariant(index uint32, payload Value) Value {
	return Value{Kind: KindEnum, EnumType: EnumNewType, Variant: index, Payload: &payload}
}

func readString(r *stream.Reader) (string, error) {
	n, err := r.ReadU32()
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if err := r.ReadExact(buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func writeString(w *stream.Writer, s string) error {
	if err := w.WriteU32(uint32(len(s))); err != nil {
		return err
	}
	return w.WriteExact([]byte(s))
}

func readBytes(r *stream.Reader) ([]byte, error) {
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if err := r.ReadExact(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func writeBytes(w *stream.Writer, b []byte) error {
	if err := w.WriteU32(uint32(len(b))); err != nil {
		return err
	}
	return w.WriteExact(b)
}

// ReadValue decodes one value (and, recursively, everything it
// contains).
func ReadValue(r *stream.Reader) (Value, error) {
	rawKind, err := r.ReadU8()
	if err != nil {
		return Value{}, err
	}
	kind := Kind(rawKind)
	if err := assert.EnumRaw[Kind]("exchange kind", kindDiscriminants, kind, r.Prev); err != nil {
		return Value{}, err
	}
	switch kind {
	case KindBool:
		raw, err := r.ReadU8()
		if err != nil {
			return Value{}, err
		}
		v, err := assert.BoolU32("exchange bool", uint32(raw), r.Prev)
		if err != nil {
			return Value{}, err
		}
		return Bool(v), nil
	case KindI8:
		v, err := r.ReadI8()
		return I8(v), err
	case KindI16:
		v, err := r.ReadI16()
		return I16(v), err
	case KindI32:
		v, err := r.ReadI32()
		return I32(v), err
	case KindU8:
		v, err := r.ReadU8()
		return U8(v), err
	case KindU16:
		v, err := r.ReadU16()
		return U16(v), err
	case KindU32:
		v, err := r.ReadU32()
		return U32(v), err
	case KindF32:
		v, err := r.ReadF32()
		return F32(v), err
	case KindDateTime:
		secs, err := r.ReadU64()
		if err != nil {
			return Value{}, err
		}
		nanos, err := r.ReadU32()
		if err != nil {
			return Value{}, err
		}
		return DateTime(time.Unix(int64(secs), int64(nanos))), nil
	case KindString:
		s, err := readString(r)
		return Str(s), err
	case KindBytes:
		b, err := readBytes(r)
		return Bytes(b), err
	case KindOption:
		present, err := r.ReadU8()
		if err != nil {
			return Value{}, err
		}
		has, err := assert.BoolU32("exchange option", uint32(present), r.Prev)
		if err != nil {
			return Value{}, err
		}
		if !has {
			return None(), nil
		}
		inner, err := ReadValue(r)
		if err != nil {
			return Value{}, err
		}
		return Some(inner), nil
	case KindVec:
		count, err := r.ReadU32()
		if err != nil {
			return Value{}, err
		}
		items := make([]Value, count)
		for i := range items {
			v, err := ReadValue(r)
			if err != nil {
				return Value{}, err
			}
			items[i] = v
		}
		return NewVec(items), nil
	case KindStruct:
		count, err := r.ReadU32()
		if err != nil {
			return Value{}, err
		}
		fields := make([]Field, count)
		for i := range fields {
			name, err := readString(r)
			if err != nil {
				return Value{}, err
			}
			v, err := ReadValue(r)
			if err != nil {
				return Value{}, err
			}
			fields[i] = Field{Name: name, Value: v}
		}
		return NewStruct(fields), nil
	default: // KindEnum
		rawType, err := r.ReadU8()
		if err != nil {
			return Value{}, err
		}
		variant, err := r.ReadU32()
		if err != nil {
			return Value{}, err
		}
		switch EnumType(rawType) {
		case EnumUnit:
			return UnitVariant(variant), nil
		case EnumNewType:
			payload, err := ReadValue(r)
			if err != nil {
				return Value{}, err
			}
			return NewTypeVariant(variant, payload), nil
		default:
			return Value{}, merr.Protocolf("expected enum type 0 or 1, but was %d (at %d)", rawType, r.Prev)
		}
	}
}

// WriteValue inverts ReadValue exactly (spec.md section 8).
func WriteValue(w *stream.Writer, v Value) error {
	if err := w.WriteU8(uint8(v.Kind)); err != nil {
		return err
	}
	switch v.Kind {
	case KindBool:
		b := uint8(0)
		if v.Bool {
			b = 1
		}
		return w.WriteU8(b)
	case KindI8:
		return w.WriteI8(v.I8)
	case KindI16:
		return w.WriteI16(v.I16)
	case KindI32:
		return w.WriteI32(v.I32)
	case KindU8:
		return w.WriteU8(v.U8)
	case KindU16:
		return w.WriteU16(v.U16)
	case KindU32:
		return w.WriteU32(v.U32)
	case KindF32:
		return w.WriteF32(v.F32)
	case KindDateTime:
		t := v.DateTime.UTC()
		if err := w.WriteU64(uint64(t.Unix())); err != nil {
			return err
		}
		return w.WriteU32(uint32(t.Nanosecond()))
	case KindString:
		return writeString(w, v.String)
	case KindBytes:
		return writeBytes(w, v.Bytes)
	case KindOption:
		if v.Option == nil {
			return w.WriteU8(0)
		}
		if err := w.WriteU8(1); err != nil {
			return err
		}
		return WriteValue(w, *v.Option)
	case KindVec:
		if err := w.WriteU32(uint32(len(v.Vec))); err != nil {
			return err
		}
		for _, item := range v.Vec {
			if err := WriteValue(w, item); err != nil {
				return err
			}
		}
		return nil
	case KindStruct:
		if err := w.WriteU32(uint32(len(v.Fields))); err != nil {
			return err
		}
		for _, f := range v.Fields {
			if err := writeString(w, f.Name); err != nil {
				return err
			}
			if err := WriteValue(w, f.Value); err != nil {
				return err
			}
		}
		return nil
	default: // KindEnum
		if err := w.WriteU8(uint8(v.EnumType)); err != nil {
			return err
		}
		if err := w.WriteU32(v.Variant); err != nil {
			return err
		}
		if v.EnumType == EnumNewType {
			if v.Payload == nil {
				return merr.Protocolf("newtype enum variant %d has no payload", v.Variant)
			}
			return WriteValue(w, *v.Payload)
		}
		return nil
	}
}

// Package reader implements the tag-length-value value-tree codec from
// spec.md section 4.11 (component C11): a recursive tree of typed values
// (integer/float/string/list/node) driven by a leading tag byte, used to
// decode script-referenced configuration trees. No original_source file
// names this container directly (see DESIGN.md); its header → size
// assertion → payload discipline mirrors the animevent package's
// EventHeaderC framing (tag, then a length the payload is bound-checked
// against), adapted to a self-describing recursive value instead of a
// closed, per-game dispatch table.
package reader

import (
	"github.com/TerranMechworks/mech3ax-sub002/internal/assert"
	"github.com/TerranMechworks/mech3ax-sub002/internal/merr"
	"github.com/TerranMechworks/mech3ax-sub002/stream"
)

// Tag is the leading discriminant byte of every value in the tree
// (spec.md section 4.11).
type Tag uint8

const (
	TagInt32 Tag = iota + 1
	TagFloat32
	TagString
	TagList
	TagNode
)

var tagDiscriminants = []Tag{TagInt32, TagFloat32, TagString, TagList, TagNode}

// Field is one named child of a Node value.
type Field struct {
	Name  string
	Value Value
}

// Value is one node of the decoded tree. Exactly one of the fields
// matching Tag is meaningful; the rest are zero.
type Value struct {
	Tag     Tag
	Int32   int32
	Float32 float32
	String  string
	List    []Value
	Fields  []Field // valid iff Tag == TagNode
}

// Int wraps an int32 leaf value.
func Int(v int32) Value { return Value{Tag: TagInt32, Int32: v} }

// Float wraps a float32 leaf value.
func Float(v float32) Value { return Value{Tag: TagFloat32, Float32: v} }

// Str wraps a string leaf value.
func Str(v string) Value { return Value{Tag: TagString, String: v} }

// NewList wraps a homogeneous-or-not sequence of child values.
func NewList(items []Value) Value { return Value{Tag: TagList, List: items} }

// NewNode wraps a named-field record.
func NewNode(fields []Field) Value { return Value{Tag: TagNode, Fields: fields} }

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

// ReadValue decodes one value (and, recursively, everything it
// contains).
func ReadValue(r *stream.Reader) (Value, error) {
	rawTag, err := r.ReadU8()
	if err != nil {
		return Value{}, err
	}
	tag := Tag(rawTag)
	if _, ok := assertTagOk(tag); !ok {
		return Value{}, assert.EnumRaw[Tag]("reader tag", tagDiscriminants, tag, r.Prev)
	}
	length, err := r.ReadU32()
	if err != nil {
		return Value{}, err
	}
	start := r.Offset
	value, err := readPayload(r, tag)
	if err != nil {
		return Value{}, err
	}
	if consumed := r.Offset - start; consumed != length {
		return Value{}, merr.Protocolf("reader value length mismatch: tag %d declared %d bytes, consumed %d (at %d)", tag, length, consumed, start)
	}
	return value, nil
}

func assertTagOk(tag Tag) (Tag, bool) {
	for _, d := range tagDiscriminants {
		if d == tag {
			return tag, true
		}
	}
	return tag, false
}

func readPayload(r *stream.Reader, tag Tag) (Value, error) {
	switch tag {
	case TagInt32:
		v, err := r.ReadI32()
		if err != nil {
			return Value{}, err
		}
		return Int(v), nil
	case TagFloat32:
		v, err := r.ReadF32()
		if err != nil {
			return Value{}, err
		}
		return Float(v), nil
	case TagString:
		s, err := readString(r)
		if err != nil {
			return Value{}, err
		}
		return Str(s), nil
	case TagList:
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
		return NewList(items), nil
	default: // TagNode
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
		return NewNode(fields), nil
	}
}

// WriteValue inverts ReadValue exactly (spec.md section 8). The payload
// length is computed analytically (sizeValue) rather than backfilled,
// since stream.Writer is a forward-only sink (spec.md section 4.1:
// "writers size their outputs analytically").
func WriteValue(w *stream.Writer, v Value) error {
	if err := w.WriteU8(uint8(v.Tag)); err != nil {
		return err
	}
	if err := w.WriteU32(sizeValue(v)); err != nil {
		return err
	}
	return writePayload(w, v)
}

func sizeValue(v Value) uint32 {
	switch v.Tag {
	case TagInt32, TagFloat32:
		return 4
	case TagString:
		return 4 + uint32(len(v.String))
	case TagList:
		size := uint32(4)
		for _, item := range v.List {
			size += 1 + 4 + sizeValue(item)
		}
		return size
	default: // TagNode
		size := uint32(4)
		for _, f := range v.Fields {
			size += 4 + uint32(len(f.Name)) + 1 + 4 + sizeValue(f.Value)
		}
		return size
	}
}

func writePayload(w *stream.Writer, v Value) error {
	switch v.Tag {
	case TagInt32:
		return w.WriteI32(v.Int32)
	case TagFloat32:
		return w.WriteF32(v.Float32)
	case TagString:
		return writeString(w, v.String)
	case TagList:
		if err := w.WriteU32(uint32(len(v.List))); err != nil {
			return err
		}
		for _, item := range v.List {
			if err := WriteValue(w, item); err != nil {
				return err
			}
		}
		return nil
	default: // TagNode
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
	}
}

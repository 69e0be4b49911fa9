package exchange

import (
	"bytes"
	"testing"
	"time"

	"github.com/TerranMechworks/mech3ax-sub002/stream"
)

func roundTrip(t *testing.T, v Value) Value {
	t.Helper()
	var buf bytes.Buffer
	w := stream.NewWriter(&buf)
	if err := WriteValue(w, v); err != nil {
		t.Fatal(err)
	}
	r := stream.NewReader(bytes.NewReader(buf.Bytes()))
	got, err := ReadValue(r)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.AssertEnd(); err != nil {
		t.Fatal(err)
	}
	return got
}

func TestScalarRoundTrip(t *testing.T) {
	if got := roundTrip(t, Bool(true)); got.Kind != KindBool || !got.Bool {
		t.Fatalf("bool round trip = %+v", got)
	}
	if got := roundTrip(t, I32(-5)); got.Kind != KindI32 || got.I32 != -5 {
		t.Fatalf("i32 round trip = %+v", got)
	}
	if got := roundTrip(t, U16(512)); got.Kind != KindU16 || got.U16 != 512 {
		t.Fatalf("u16 round trip = %+v", got)
	}
	if got := roundTrip(t, F32(1.25)); got.Kind != KindF32 || got.F32 != 1.25 {
		t.Fatalf("f32 round trip = %+v", got)
	}
	if got := roundTrip(t, Str("hi")); got.Kind != KindString || got.String != "hi" {
		t.Fatalf("string round trip = %+v", got)
	}
	if got := roundTrip(t, Bytes([]byte{1, 2, 3})); got.Kind != KindBytes || !bytes.Equal(got.Bytes, []byte{1, 2, 3}) {
		t.Fatalf("bytes round trip = %+v", got)
	}
}

func TestDateTimeRoundTrip(t *testing.T) {
	now := time.Unix(1700000000, 123000000).UTC()
	got := roundTrip(t, DateTime(now))
	if got.Kind != KindDateTime || !got.DateTime.Equal(now) {
		t.Fatalf("datetime round trip = %+v, want %+v", got.DateTime, now)
	}
}

func TestOptionRoundTrip(t *testing.T) {
	if got := roundTrip(t, None()); got.Kind != KindOption || got.Option != nil {
		t.Fatalf("none round trip = %+v", got)
	}
	got := roundTrip(t, Some(I32(7)))
	if got.Kind != KindOption || got.Option == nil || got.Option.I32 != 7 {
		t.Fatalf("some round trip = %+v", got)
	}
}

func TestVecAndStructRoundTrip(t *testing.T) {
	v := NewStruct([]Field{
		{Name: "name", Value: Str("bravo")},
		{Name: "tags", Value: NewVec([]Value{Str("a"), Str("b")})},
	})
	got := roundTrip(t, v)
	if got.Kind != KindStruct || len(got.Fields) != 2 {
		t.Fatalf("struct round trip = %+v", got)
	}
	if got.Fields[0].Value.String != "bravo" {
		t.Fatalf("field 0 = %+v", got.Fields[0])
	}
	tags := got.Fields[1].Value
	if tags.Kind != KindVec || len(tags.Vec) != 2 || tags.Vec[1].String != "b" {
		t.Fatalf("tags = %+v", tags)
	}
}

func TestEnumRoundTrip(t *testing.T) {
	got := roundTrip(t, UnitVariant(3))
	if got.Kind != KindEnum || got.EnumType != EnumUnit || got.Variant != 3 || got.Payload != nil {
		t.Fatalf("unit variant round trip = %+v", got)
	}
	got = roundTrip(t, NewTypeVariant(1, I32(99)))
	if got.Kind != KindEnum || got.EnumType != EnumNewType || got.Payload == nil || got.Payload.I32 != 99 {
		t.Fatalf("newtype variant round trip = %+v", got)
	}
}

func TestInvalidKindRejected(t *testing.T) {
	var buf bytes.Buffer
	w := stream.NewWriter(&buf)
	if err := w.WriteU8(0xEE); err != nil {
		t.Fatal(err)
	}
	r := stream.NewReader(bytes.NewReader(buf.Bytes()))
	if _, err := ReadValue(r); err == nil {
		t.Fatal("expected an error for an unrecognized kind")
	}
}

type animMeta struct {
	Name    string
	Frames  uint32
	Scale   float32
	Comment string
}

func TestMarshalUnmarshalStruct(t *testing.T) {
	src := animMeta{Name: "torso_roll", Frames: 30, Scale: 1.5, Comment: "test fixture"}
	v, err := Marshal(src)
	if err != nil {
		t.Fatal(err)
	}
	got := roundTrip(t, v)

	var dst animMeta
	if err := Unmarshal(got, &dst); err != nil {
		t.Fatal(err)
	}
	if dst != src {
		t.Fatalf("unmarshal = %+v, want %+v", dst, src)
	}
}

func TestMarshalUnmarshalSliceAndPointer(t *testing.T) {
	type wrapper struct {
		Tags    []string
		Comment *string
	}
	comment := "hello"
	src := wrapper{Tags: []string{"x", "y", "z"}, Comment: &comment}

	v, err := Marshal(src)
	if err != nil {
		t.Fatal(err)
	}
	var dst wrapper
	if err := Unmarshal(v, &dst); err != nil {
		t.Fatal(err)
	}
	if len(dst.Tags) != 3 || dst.Tags[2] != "z" {
		t.Fatalf("tags = %+v", dst.Tags)
	}
	if dst.Comment == nil || *dst.Comment != "hello" {
		t.Fatalf("comment = %v", dst.Comment)
	}

	src.Comment = nil
	v, err = Marshal(src)
	if err != nil {
		t.Fatal(err)
	}
	var dst2 wrapper
	if err := Unmarshal(v, &dst2); err != nil {
		t.Fatal(err)
	}
	if dst2.Comment != nil {
		t.Fatalf("expected nil comment, got %v", dst2.Comment)
	}
}

func TestMarshalUnsupportedKind(t *testing.T) {
	if _, err := Marshal(float64(1.5)); err == nil {
		t.Fatal("expected an error marshaling a float64")
	}
	if _, err := Marshal(int64(1)); err == nil {
		t.Fatal("expected an error marshaling an int64")
	}
}

package reader

import (
	"bytes"
	"testing"

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
	if got := roundTrip(t, Int(-7)); got.Tag != TagInt32 || got.Int32 != -7 {
		t.Fatalf("int round trip = %+v", got)
	}
	if got := roundTrip(t, Float(3.5)); got.Tag != TagFloat32 || got.Float32 != 3.5 {
		t.Fatalf("float round trip = %+v", got)
	}
	if got := roundTrip(t, Str("hello world")); got.Tag != TagString || got.String != "hello world" {
		t.Fatalf("string round trip = %+v", got)
	}
}

func TestListRoundTrip(t *testing.T) {
	v := NewList([]Value{Int(1), Int(2), Str("three")})
	got := roundTrip(t, v)
	if got.Tag != TagList || len(got.List) != 3 {
		t.Fatalf("list round trip = %+v", got)
	}
	if got.List[2].String != "three" {
		t.Fatalf("list[2] = %+v", got.List[2])
	}
}

func TestNodeRoundTrip(t *testing.T) {
	v := NewNode([]Field{
		{Name: "x", Value: Float(1.5)},
		{Name: "children", Value: NewList([]Value{
			NewNode([]Field{{Name: "id", Value: Int(42)}}),
		})},
	})
	got := roundTrip(t, v)
	if got.Tag != TagNode || len(got.Fields) != 2 {
		t.Fatalf("node round trip = %+v", got)
	}
	if got.Fields[0].Name != "x" || got.Fields[0].Value.Float32 != 1.5 {
		t.Fatalf("field 0 = %+v", got.Fields[0])
	}
	child := got.Fields[1].Value.List[0]
	if child.Tag != TagNode || child.Fields[0].Value.Int32 != 42 {
		t.Fatalf("nested node = %+v", child)
	}
}

func TestInvalidTagRejected(t *testing.T) {
	var buf bytes.Buffer
	w := stream.NewWriter(&buf)
	if err := w.WriteU8(0xEE); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteU32(0); err != nil {
		t.Fatal(err)
	}
	r := stream.NewReader(bytes.NewReader(buf.Bytes()))
	if _, err := ReadValue(r); err == nil {
		t.Fatal("expected an error for an unrecognized tag")
	}
}

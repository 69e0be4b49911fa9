package stream

import (
	"bytes"
	"testing"
)

func TestReadPrimitivesTrackOffset(t *testing.T) {
	data := []byte{0x01, 0x02, 0x00, 0x03, 0x00, 0x00, 0x00}
	r := NewReader(bytes.NewReader(data))

	u8, err := r.ReadU8()
	if err != nil || u8 != 0x01 {
		t.Fatalf("ReadU8 = %v, %v", u8, err)
	}
	if r.Offset != 1 || r.Prev != 0 {
		t.Fatalf("offset tracking wrong after ReadU8: offset=%d prev=%d", r.Offset, r.Prev)
	}

	u16, err := r.ReadU16()
	if err != nil || u16 != 2 {
		t.Fatalf("ReadU16 = %v, %v", u16, err)
	}
	if r.Offset != 3 || r.Prev != 1 {
		t.Fatalf("offset tracking wrong after ReadU16: offset=%d prev=%d", r.Offset, r.Prev)
	}

	u32, err := r.ReadU32()
	if err != nil || u32 != 3 {
		t.Fatalf("ReadU32 = %v, %v", u32, err)
	}
	if r.Offset != 7 {
		t.Fatalf("offset tracking wrong after ReadU32: offset=%d", r.Offset)
	}
}

func TestReadExactShortReadIsFatal(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0x01, 0x02}))
	buf := make([]byte, 4)
	if err := r.ReadExact(buf); err == nil {
		t.Fatal("expected error on short read, got nil")
	}
}

func TestWriteStructRoundTrip(t *testing.T) {
	type rec struct {
		A uint32
		B uint16
		C uint16
	}
	var buf bytes.Buffer
	w := NewWriter(&buf)
	in := rec{A: 0xAABBCCDD, B: 1, C: 2}
	if err := w.WriteStruct(&in); err != nil {
		t.Fatal(err)
	}
	if w.Offset != 8 {
		t.Fatalf("writer offset = %d, want 8", w.Offset)
	}

	r := NewReader(bytes.NewReader(buf.Bytes()))
	var out rec
	if err := r.ReadStruct(&out, 8); err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Fatalf("round-trip mismatch: got %+v, want %+v", out, in)
	}
	// offset - prev == sizeof(record), per spec.md section 3.
	if r.Offset-r.Prev != 8 {
		t.Fatalf("offset-prev invariant violated: %d", r.Offset-r.Prev)
	}
}

func TestAssertEndDetectsTrailingData(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{}))
	if err := r.AssertEnd(); err != nil {
		t.Fatalf("expected no error on empty stream, got %v", err)
	}
	r2 := NewReader(bytes.NewReader([]byte{0x01}))
	if err := r2.AssertEnd(); err == nil {
		t.Fatal("expected error on trailing data")
	}
}

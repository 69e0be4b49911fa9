package types

import "testing"

func TestBool32Totality(t *testing.T) {
	cases := []struct {
		raw Bool32
		ok  bool
	}{{0, true}, {1, true}, {2, false}, {0xFFFFFFFF, false}}
	for _, c := range cases {
		_, ok := c.raw.Validate()
		if ok != c.ok {
			t.Errorf("Bool32(%d).Validate() ok = %v, want %v", c.raw, ok, c.ok)
		}
	}
}

func TestFlagSetClosure(t *testing.T) {
	const valid uint32 = 0b0111
	for raw := uint32(0); raw < 16; raw++ {
		_, ok := FromBits(raw, valid)
		want := raw&^valid == 0
		if ok != want {
			t.Errorf("FromBits(%b) ok = %v, want %v", raw, ok, want)
		}
	}
	truncated := FromBitsTruncate(uint32(0b1101), valid)
	if truncated.Bits() != 0b0101 {
		t.Errorf("FromBitsTruncate = %b, want %b", truncated.Bits(), 0b0101)
	}
}

func TestAsciiPaddedIdempotence(t *testing.T) {
	buf := make([]byte, 8)
	AsciiFromStrPadded(buf, "ab")
	s, err := AsciiToStrPadded(buf)
	if err != nil || s != "ab" {
		t.Fatalf("round-trip = %q, %v", s, err)
	}

	unterminated := []byte("abcdefgh")
	if _, err := AsciiToStrPadded(unterminated); err == nil {
		t.Fatal("expected Unterminated error")
	}

	badPadding := []byte{'a', 'b', 0, 1, 0, 0, 0, 0}
	if _, err := AsciiToStrPadded(badPadding); err == nil {
		t.Fatal("expected padding error")
	}
}

func TestAsciiNodeNameRoundTrip(t *testing.T) {
	buf := make([]byte, 36)
	AsciiFromStrNodeName(buf, "turret01")
	s, err := AsciiToStrNodeName(buf)
	if err != nil || s != "turret01" {
		t.Fatalf("round-trip = %q, %v", s, err)
	}
}

func TestAsciiSuffixRoundTrip(t *testing.T) {
	buf := make([]byte, 12)
	AsciiFromStrSuffix(buf, "foo.tif")
	s, err := AsciiToStrSuffix(buf)
	if err != nil || s != "foo.tif" {
		t.Fatalf("round-trip = %q, %v", s, err)
	}
}

func TestAsciiGarbageRoundTrip(t *testing.T) {
	buf := make([]byte, 10)
	garbage := []byte{0xAA, 0xBB, 0xCC}
	AsciiFromStrGarbage(buf, "hi", garbage)
	s, pad, err := AsciiToStrGarbage(buf)
	if err != nil || s != "hi" {
		t.Fatalf("round-trip = %q, %v", s, err)
	}
	if len(pad) == 0 {
		t.Fatal("expected preserved garbage tail")
	}
}

package pixel

import "testing"

func TestRGB565RoundTripApprox(t *testing.T) {
	// white and black should round-trip exactly.
	white565 := []byte{0xFF, 0xFF}
	white888 := RGB565To888(white565)
	if white888[0] != 0xFF || white888[1] != 0xFF || white888[2] != 0xFF {
		t.Fatalf("white round-trip = %v", white888)
	}
	back := RGB888To565(white888)
	if back[0] != white565[0] || back[1] != white565[1] {
		t.Fatalf("white 565 round-trip = %v, want %v", back, white565)
	}
}

func TestSimpleAlpha(t *testing.T) {
	src := []byte{0x00, 0x00, 0x01, 0x00}
	alpha := SimpleAlpha(src)
	if alpha[0] != 0 || alpha[1] != 255 {
		t.Fatalf("SimpleAlpha = %v", alpha)
	}
}

func TestPal8To888(t *testing.T) {
	palette := []byte{1, 2, 3, 4, 5, 6}
	indices := []byte{1, 0}
	got := Pal8To888(indices, palette)
	want := []byte{4, 5, 6, 1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Pal8To888 = %v, want %v", got, want)
		}
	}
}

func TestPal8To888OutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on out-of-range palette index")
		}
	}()
	Pal8To888([]byte{5}, []byte{1, 2, 3})
}

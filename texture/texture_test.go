package texture

import (
	"bytes"
	"testing"

	"github.com/TerranMechworks/mech3ax-sub002/pixel"
	"github.com/TerranMechworks/mech3ax-sub002/stream"
)

func buildManifest() Manifest {
	width, height := uint16(2), uint16(2)
	return Manifest{
		Infos: []Info{
			{
				Name:         "full",
				Alpha:        AlphaNone,
				Width:        width,
				Height:       height,
				Stretch:      StretchNone,
				PaletteCount: 0,
				Pixels:       []byte{0x00, 0x00, 0xFF, 0xFF, 0x00, 0xF8, 0x1F, 0x00},
			},
			{
				Name:         "paletted",
				Alpha:        AlphaSimple,
				Width:        width,
				Height:       height,
				Stretch:      StretchVertical,
				PaletteCount: 2,
				Pixels:       []byte{0, 1, 1, 0},
				Palette:      Palette{Raw: []byte{0x00, 0x00, 0xFF, 0xFF}},
			},
		},
		GlobalPalettes: nil,
	}
}

func TestTextureRoundTrip(t *testing.T) {
	manifest := buildManifest()

	var buf bytes.Buffer
	w := stream.NewWriter(&buf)
	if err := WriteTextures(w, manifest, nil); err != nil {
		t.Fatal(err)
	}

	r := stream.NewReader(bytes.NewReader(buf.Bytes()))
	decoded, err := ReadTextures(r, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(decoded.Infos) != 2 {
		t.Fatalf("expected 2 textures, got %d", len(decoded.Infos))
	}
	if decoded.Infos[0].Name != "full" || decoded.Infos[1].Name != "paletted" {
		t.Fatalf("unexpected names: %+v", decoded.Infos)
	}
	if !bytes.Equal(decoded.Infos[1].Palette.Raw, manifest.Infos[1].Palette.Raw) {
		t.Fatalf("palette mismatch: %v want %v", decoded.Infos[1].Palette.Raw, manifest.Infos[1].Palette.Raw)
	}

	var buf2 bytes.Buffer
	w2 := stream.NewWriter(&buf2)
	if err := WriteTextures(w2, decoded, nil); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), buf2.Bytes()) {
		t.Fatalf("round-trip bytes differ:\n%x\n%x", buf.Bytes(), buf2.Bytes())
	}
}

func TestGlobalPaletteRoundTrip(t *testing.T) {
	manifest := Manifest{
		GlobalPalettes: [][]byte{makeRamp()},
		Infos: []Info{
			{
				Name:         "gp",
				Alpha:        AlphaNone,
				Width:        1,
				Height:       1,
				Stretch:      StretchNone,
				PaletteCount: 1,
				Pixels:       []byte{0},
				Palette:      Palette{Global: true, GlobalIndex: 0},
			},
		},
	}

	var buf bytes.Buffer
	w := stream.NewWriter(&buf)
	if err := WriteTextures(w, manifest, nil); err != nil {
		t.Fatal(err)
	}
	r := stream.NewReader(bytes.NewReader(buf.Bytes()))
	decoded, err := ReadTextures(r, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !decoded.Infos[0].Palette.Global {
		t.Fatal("expected global palette reference to survive round-trip")
	}
	if !bytes.Equal(decoded.GlobalPalettes[0], manifest.GlobalPalettes[0]) {
		t.Fatalf("global palette mismatch: %v want %v", decoded.GlobalPalettes[0], manifest.GlobalPalettes[0])
	}
}

// makeRamp builds a 256-entry RGB888 global palette that round-trips
// exactly through RGB565 quantization: every entry is the RGB888
// expansion of an RGB565 value, which is what
// RGB565To888(RGB888To565(x)) preserves.
func makeRamp() []byte {
	raw := make([]byte, 256*2)
	for i := 0; i < 256; i++ {
		c565 := uint16(i>>3)<<11 | uint16(i>>2)<<5 | uint16(i>>3)
		raw[i*2+0] = byte(c565)
		raw[i*2+1] = byte(c565 >> 8)
	}
	return pixel.RGB565To888(raw)
}

// Package texture implements the texture directory codec from spec.md
// section 4.7 (component C7). It is grounded on the original project's
// crates/image/src/read.rs (see original_source/_INDEX.md): the same
// header/entry/global-palette/per-texture layout, the same flag
// discipline (BYTES_PER_PIXEL2 required, GLOBAL_PALETTE vs NO_ALPHA vs
// HAS_ALPHA/FULL_ALPHA), and the same palette-vs-full-color branch,
// adapted from CountingReader/DynamicImage to this repo's stream
// package and plain byte slices (the core carries no image library;
// see DESIGN.md).
package texture

import (
	"github.com/TerranMechworks/mech3ax-sub002/internal/assert"
	"github.com/TerranMechworks/mech3ax-sub002/internal/rename"
	"github.com/TerranMechworks/mech3ax-sub002/internal/xlog"
	"github.com/TerranMechworks/mech3ax-sub002/pixel"
	"github.com/TerranMechworks/mech3ax-sub002/stream"
	"github.com/TerranMechworks/mech3ax-sub002/types"
)

const (
	nameSize         = 32
	globalPaletteLen = 512 // 256 RGB565 entries, 2 bytes each
	entryRecordSize  = 40  // name[32] + start_offset(4) + palette_index(4)
	infoRecordSize   = 16  // flags(4) + zero(4) + palette_count(2) + stretch(2) + width(2) + height(2)
)

// TexFlags are the per-texture info record's bitset (spec.md section
// 4.7).
type TexFlags uint32

const (
	FlagBytesPerPixel2 TexFlags = 1 << 0
	FlagHasAlpha       TexFlags = 1 << 1
	FlagFullAlpha      TexFlags = 1 << 2
	FlagGlobalPalette  TexFlags = 1 << 3
	FlagNoAlpha        TexFlags = 1 << 7
	FlagImageLoaded    TexFlags = 1 << 8
	FlagAlphaLoaded    TexFlags = 1 << 9
	FlagPaletteLoaded  TexFlags = 1 << 10
)

const texFlagsValid = FlagBytesPerPixel2 | FlagHasAlpha | FlagFullAlpha |
	FlagGlobalPalette | FlagNoAlpha | FlagImageLoaded | FlagAlphaLoaded | FlagPaletteLoaded

// Alpha selects how a texture's transparency is represented (spec.md
// section 4.7).
type Alpha int

const (
	AlphaNone Alpha = iota
	AlphaSimple
	AlphaFull
)

// Stretch is the texture stretch enum (observed values 0/1/2; the
// original leaves this semantically opaque to the core, so it is
// preserved verbatim).
type Stretch uint16

const (
	StretchNone       Stretch = 0
	StretchVertical   Stretch = 1
	StretchHorizontal Stretch = 2
)

var stretchDiscriminants = []Stretch{StretchNone, StretchVertical, StretchHorizontal}

// Palette describes where a texture's local palette data came from. Raw
// holds the on-disk RGB565 bytes verbatim (2 bytes/entry); it is nil when
// the texture uses a global palette or has no palette at all, so that
// WriteTextures can re-emit the exact original bytes rather than
// requantizing an expanded RGB888 form (spec.md section 8: byte-exact
// round-trip).
type Palette struct {
	Global      bool
	GlobalIndex uint32 // valid iff Global
	Raw         []byte // RGB565 bytes, len == paletteCount*2; nil iff Global or palette_count == 0
}

// Info is the neutral form of one texture (spec.md section 3). Pixel
// payloads are kept in their on-disk shape (palette indices or raw
// RGB565 color data, plus a separate full alpha plane where present)
// rather than expanded to RGB888/RGBA8888, since expansion is lossy in
// the palette case and would break byte-exact re-encoding.
type Info struct {
	Name          string
	Rename        *string
	Alpha         Alpha
	Width         uint16
	Height        uint16
	Stretch       Stretch
	ImageLoaded   bool
	AlphaLoaded   bool
	PaletteLoaded bool
	Palette       Palette

	// PaletteCount is the on-disk palette_count field; 0 means a direct
	// full-color image.
	PaletteCount uint16

	// Pixels holds width*height palette-index bytes if PaletteCount > 0,
	// or width*height*2 raw RGB565 bytes otherwise.
	Pixels []byte

	// AlphaPlane holds width*height alpha bytes, set only when
	// Alpha == AlphaFull. Simple alpha has no stored plane: neither the
	// decoder nor WriteTextures keeps one, and RGB888 derives it from
	// direct-color Pixels (spec.md section 4.7).
	AlphaPlane []byte
}

// RGB888 expands this texture's pixel data to a flat RGB888 buffer for
// display/export, or RGBA8888 when Alpha is AlphaFull, or AlphaSimple on
// a direct-color texture (PaletteCount == 0). A paletted texture with
// simple alpha expands to RGB888 with no alpha channel. It is a derived
// view only; WriteTextures never consults it.
func (info Info) RGB888(globalPalettes [][]byte) []byte {
	if info.PaletteCount == 0 {
		switch info.Alpha {
		case AlphaFull:
			return pixel.RGB565To888A(info.Pixels, info.AlphaPlane)
		case AlphaSimple:
			return pixel.RGB565To888A(info.Pixels, pixel.SimpleAlpha(info.Pixels))
		default:
			return pixel.RGB565To888(info.Pixels)
		}
	}
	var palette []byte
	if info.Palette.Global {
		palette = globalPalettes[info.Palette.GlobalIndex][:int(info.PaletteCount)*3]
	} else {
		palette = pixel.RGB565To888(info.Palette.Raw)
	}
	if info.Alpha == AlphaFull {
		return pixel.Pal8To888A(info.Pixels, palette, info.AlphaPlane)
	}
	return pixel.Pal8To888(info.Pixels, palette)
}

// Manifest is the decoded texture directory (spec.md section 3).
type Manifest struct {
	Infos          []Info
	GlobalPalettes [][]byte // each 768 bytes, RGB888
}

type entryRow struct {
	name         string
	startOffset  uint32
	paletteIndex int32 // -1 if none
}

func readHeader(r *stream.Reader) (globalPaletteCount int32, textureCount uint32, err error) {
	zero00, err := r.ReadU32()
	if err != nil {
		return 0, 0, err
	}
	if err := assert.Eq[uint32]("field 00", 0, zero00, r.Prev); err != nil {
		return 0, 0, err
	}
	hasEntries, err := r.ReadU32()
	if err != nil {
		return 0, 0, err
	}
	if err := assert.Eq[uint32]("has entries", 1, hasEntries, r.Prev); err != nil {
		return 0, 0, err
	}
	gpc, err := r.ReadI32()
	if err != nil {
		return 0, 0, err
	}
	if err := assert.Ge[int32]("global palette count", 0, gpc, r.Prev); err != nil {
		return 0, 0, err
	}
	tc, err := r.ReadU32()
	if err != nil {
		return 0, 0, err
	}
	if err := assert.Gt[uint32]("texture count", 0, tc, r.Prev); err != nil {
		return 0, 0, err
	}
	zero16, err := r.ReadU32()
	if err != nil {
		return 0, 0, err
	}
	if err := assert.Eq[uint32]("field 16", 0, zero16, r.Prev); err != nil {
		return 0, 0, err
	}
	zero20, err := r.ReadU32()
	if err != nil {
		return 0, 0, err
	}
	if err := assert.Eq[uint32]("field 20", 0, zero20, r.Prev); err != nil {
		return 0, 0, err
	}
	return gpc, tc, nil
}

func readEntries(r *stream.Reader, textureCount uint32, globalPaletteCount int32) ([]entryRow, error) {
	paletteIndexMax := globalPaletteCount - 1
	rows := make([]entryRow, textureCount)
	for i := uint32(0); i < textureCount; i++ {
		var nameBuf [nameSize]byte
		if err := r.ReadExact(nameBuf[:]); err != nil {
			return nil, err
		}
		nameOffset := r.Prev
		name, err := types.AsciiToStrPadded(nameBuf[:])
		if err != nil {
			return nil, err
		}
		startOffset, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		paletteIndexRaw, err := r.ReadI32()
		if err != nil {
			return nil, err
		}
		paletteIndex := int32(-1)
		if paletteIndexRaw != -1 {
			if err := assert.InRange[int32]("global palette index", 0, paletteIndexMax, paletteIndexRaw, r.Prev); err != nil {
				return nil, err
			}
			paletteIndex = paletteIndexRaw
		}
		_ = nameOffset
		rows[i] = entryRow{name: name, startOffset: startOffset, paletteIndex: paletteIndex}
	}
	return rows, nil
}

func readGlobalPalettes(r *stream.Reader, globalPaletteCount int32) ([][]byte, error) {
	palettes := make([][]byte, globalPaletteCount)
	for i := int32(0); i < globalPaletteCount; i++ {
		buf := make([]byte, globalPaletteLen)
		if err := r.ReadExact(buf); err != nil {
			return nil, err
		}
		palettes[i] = pixel.RGB565To888(buf)
	}
	return palettes, nil
}

// ReadTextures decodes a texture directory (spec.md section 4.7).
func ReadTextures(r *stream.Reader, log *xlog.Helper) (Manifest, error) {
	if log == nil {
		log = xlog.Discard()
	}
	globalPaletteCount, textureCount, err := readHeader(r)
	if err != nil {
		return Manifest{}, err
	}
	entries, err := readEntries(r, textureCount, globalPaletteCount)
	if err != nil {
		return Manifest{}, err
	}
	globalPalettes, err := readGlobalPalettes(r, globalPaletteCount)
	if err != nil {
		return Manifest{}, err
	}

	seen := rename.NewSeen()
	infos := make([]Info, len(entries))
	for i, entry := range entries {
		if err := assert.Eq[uint32]("texture offset", entry.startOffset, r.Offset, r.Offset); err != nil {
			return Manifest{}, err
		}
		var global *[]byte
		var globalIndex uint32
		if entry.paletteIndex != -1 {
			globalIndex = uint32(entry.paletteIndex)
			global = &globalPalettes[globalIndex]
		}
		info, err := readTexture(r, entry.name, global, globalIndex)
		if err != nil {
			return Manifest{}, err
		}
		info.Rename = seen.Insert(info.Name)
		if info.Rename != nil {
			log.Debugf("renaming texture from `%s` to `%s`", info.Name, *info.Rename)
		}
		infos[i] = info
	}

	if err := r.AssertEnd(); err != nil {
		return Manifest{}, err
	}
	return Manifest{Infos: infos, GlobalPalettes: globalPalettes}, nil
}

func readTexture(r *stream.Reader, name string, globalPalette *[]byte, globalIndex uint32) (Info, error) {
	flagsRaw, err := r.ReadU32()
	if err != nil {
		return Info{}, err
	}
	flagsOffset := r.Prev
	if err := assert.FlagsRaw[uint32]("texture flags", uint32(texFlagsValid), flagsRaw, flagsOffset); err != nil {
		return Info{}, err
	}
	flags := TexFlags(flagsRaw)

	if flags&FlagBytesPerPixel2 == 0 {
		return Info{}, assert.Eq[bool]("2 bytes per pixel", true, false, flagsOffset)
	}

	hasGP := flags&FlagGlobalPalette != 0
	if err := assert.Eq[bool]("global palette", globalPalette != nil, hasGP, flagsOffset); err != nil {
		return Info{}, err
	}

	noAlpha := flags&FlagNoAlpha != 0
	hasAlpha := flags&FlagHasAlpha != 0
	fullAlpha := flags&FlagFullAlpha != 0
	var alpha Alpha
	if noAlpha {
		if err := assert.Eq[bool]("full alpha", false, fullAlpha, flagsOffset); err != nil {
			return Info{}, err
		}
		if err := assert.Eq[bool]("has alpha", false, hasAlpha, flagsOffset); err != nil {
			return Info{}, err
		}
		alpha = AlphaNone
	} else {
		if err := assert.Eq[bool]("has alpha", true, hasAlpha, flagsOffset); err != nil {
			return Info{}, err
		}
		if fullAlpha {
			alpha = AlphaFull
		} else {
			alpha = AlphaSimple
		}
	}

	zero08, err := r.ReadU32()
	if err != nil {
		return Info{}, err
	}
	if err := assert.Eq[uint32]("field 08", 0, zero08, r.Prev); err != nil {
		return Info{}, err
	}

	paletteCountRaw, err := r.ReadU16()
	if err != nil {
		return Info{}, err
	}
	paletteCountOffset := r.Prev
	if hasGP {
		if err := assert.InRange[uint16]("palette count", 1, 256, paletteCountRaw, paletteCountOffset); err != nil {
			return Info{}, err
		}
	} else {
		if err := assert.InRange[uint16]("palette count", 0, 256, paletteCountRaw, paletteCountOffset); err != nil {
			return Info{}, err
		}
	}
	paletteCount := paletteCountRaw

	stretchRaw, err := r.ReadU16()
	if err != nil {
		return Info{}, err
	}
	stretchOffset := r.Prev
	stretch, ok := types.FromRepr(Stretch(stretchRaw), stretchDiscriminants)
	if !ok {
		return Info{}, assert.EnumRaw[Stretch]("texture stretch", stretchDiscriminants, stretch, stretchOffset)
	}

	width, err := r.ReadU16()
	if err != nil {
		return Info{}, err
	}
	height, err := r.ReadU16()
	if err != nil {
		return Info{}, err
	}

	info := Info{
		Name:          name,
		Alpha:         alpha,
		Width:         width,
		Height:        height,
		Stretch:       stretch,
		ImageLoaded:   flags&FlagImageLoaded != 0,
		AlphaLoaded:   flags&FlagAlphaLoaded != 0,
		PaletteLoaded: flags&FlagPaletteLoaded != 0,
	}

	info.PaletteCount = paletteCount
	size := int(width) * int(height)
	if paletteCount == 0 {
		pixels := make([]byte, size*2)
		if err := r.ReadExact(pixels); err != nil {
			return Info{}, err
		}
		if alpha == AlphaFull {
			a := make([]byte, size)
			if err := r.ReadExact(a); err != nil {
				return Info{}, err
			}
			info.AlphaPlane = a
		}
		info.Pixels = pixels
		return info, nil
	}

	indexData := make([]byte, size)
	if err := r.ReadExact(indexData); err != nil {
		return Info{}, err
	}
	info.Pixels = indexData
	if alpha == AlphaFull {
		a := make([]byte, size)
		if err := r.ReadExact(a); err != nil {
			return Info{}, err
		}
		info.AlphaPlane = a
	}

	if globalPalette != nil {
		info.Palette = Palette{Global: true, GlobalIndex: globalIndex}
		return info, nil
	}
	paletteRaw := make([]byte, int(paletteCount)*2)
	if err := r.ReadExact(paletteRaw); err != nil {
		return Info{}, err
	}
	info.Palette = Palette{Raw: paletteRaw}
	return info, nil
}

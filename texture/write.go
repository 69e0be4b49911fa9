package texture

import (
	"github.com/TerranMechworks/mech3ax-sub002/internal/merr"
	"github.com/TerranMechworks/mech3ax-sub002/internal/xlog"
	"github.com/TerranMechworks/mech3ax-sub002/pixel"
	"github.com/TerranMechworks/mech3ax-sub002/stream"
	"github.com/TerranMechworks/mech3ax-sub002/types"
)

func flagsFor(info Info, hasGlobalPalette bool) TexFlags {
	flags := FlagBytesPerPixel2
	if hasGlobalPalette {
		flags |= FlagGlobalPalette
	}
	switch info.Alpha {
	case AlphaNone:
		flags |= FlagNoAlpha
	case AlphaSimple:
		flags |= FlagHasAlpha
	case AlphaFull:
		flags |= FlagHasAlpha | FlagFullAlpha
	}
	if info.ImageLoaded {
		flags |= FlagImageLoaded
	}
	if info.AlphaLoaded {
		flags |= FlagAlphaLoaded
	}
	if info.PaletteLoaded {
		flags |= FlagPaletteLoaded
	}
	return flags
}

// WriteTextures inverts ReadTextures exactly (spec.md section 4.7,
// section 8 byte-exact round-trip): the header, entry table, and global
// palettes are re-derived from manifest, and each texture's info record
// plus pixel/alpha/palette streams are re-emitted from their raw,
// unmodified form.
func WriteTextures(w *stream.Writer, manifest Manifest, log *xlog.Helper) error {
	if log == nil {
		log = xlog.Discard()
	}
	globalPaletteCount := int32(len(manifest.GlobalPalettes))
	textureCount := uint32(len(manifest.Infos))

	if err := w.WriteU32(0); err != nil {
		return err
	}
	if err := w.WriteU32(1); err != nil {
		return err
	}
	if err := w.WriteI32(globalPaletteCount); err != nil {
		return err
	}
	if err := w.WriteU32(textureCount); err != nil {
		return err
	}
	if err := w.WriteU32(0); err != nil {
		return err
	}
	if err := w.WriteU32(0); err != nil {
		return err
	}

	// entry table: compute each texture's on-disk start_offset up front,
	// since entries precede the texture bodies they point at.
	offset := w.Offset + uint32(textureCount)*entryRecordSize + uint32(globalPaletteCount)*globalPaletteLen
	starts := make([]uint32, textureCount)
	for i, info := range manifest.Infos {
		starts[i] = offset
		offset += infoRecordSize + textureBodySize(info)
	}

	for i, info := range manifest.Infos {
		filename := info.Name
		if info.Rename != nil {
			log.Debugf("renaming texture from `%s` to `%s`", info.Name, *info.Rename)
		}
		var nameBuf [nameSize]byte
		types.AsciiFromStrPadded(nameBuf[:], filename)
		if err := w.WriteExact(nameBuf[:]); err != nil {
			return err
		}
		if err := w.WriteU32(starts[i]); err != nil {
			return err
		}
		paletteIndex := int32(-1)
		if info.Palette.Global {
			paletteIndex = int32(info.Palette.GlobalIndex)
		}
		if err := w.WriteI32(paletteIndex); err != nil {
			return err
		}
	}

	for _, palette := range manifest.GlobalPalettes {
		raw := pixel.RGB888To565(palette)
		if err := w.WriteExact(raw); err != nil {
			return err
		}
	}

	for i, info := range manifest.Infos {
		if w.Offset != starts[i] {
			return merr.Protocolf("texture %q: computed start offset %d does not match actual write offset %d", info.Name, starts[i], w.Offset)
		}
		if err := writeTexture(w, info); err != nil {
			return err
		}
	}
	return nil
}

func textureBodySize(info Info) uint32 {
	size := uint32(len(info.Pixels)) + uint32(len(info.AlphaPlane))
	if !info.Palette.Global {
		size += uint32(len(info.Palette.Raw))
	}
	return size
}

func writeTexture(w *stream.Writer, info Info) error {
	hasGlobalPalette := info.Palette.Global
	flags := flagsFor(info, hasGlobalPalette)
	if err := w.WriteU32(uint32(flags)); err != nil {
		return err
	}
	if err := w.WriteU32(0); err != nil {
		return err
	}
	if err := w.WriteU16(info.PaletteCount); err != nil {
		return err
	}
	if err := w.WriteU16(uint16(info.Stretch)); err != nil {
		return err
	}
	if err := w.WriteU16(info.Width); err != nil {
		return err
	}
	if err := w.WriteU16(info.Height); err != nil {
		return err
	}

	if err := w.WriteExact(info.Pixels); err != nil {
		return err
	}
	if info.Alpha == AlphaFull {
		if err := w.WriteExact(info.AlphaPlane); err != nil {
			return err
		}
	}
	if info.PaletteCount > 0 && !hasGlobalPalette {
		if err := w.WriteExact(info.Palette.Raw); err != nil {
			return err
		}
	}
	return nil
}

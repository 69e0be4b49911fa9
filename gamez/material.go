package gamez

import (
	"github.com/TerranMechworks/mech3ax-sub002/internal/assert"
	"github.com/TerranMechworks/mech3ax-sub002/internal/xlog"
	"github.com/TerranMechworks/mech3ax-sub002/stream"
	"github.com/TerranMechworks/mech3ax-sub002/types"
)

// MaterialFlags, grounded on crates/mech3ax-gamez/src/materials.rs's
// `MaterialFlags` bitflags.
type MaterialFlags uint8

const (
	MaterialFlagTextured MaterialFlags = 1 << 0
	MaterialFlagUnknown  MaterialFlags = 1 << 1
	MaterialFlagCycled   MaterialFlags = 1 << 2
	MaterialFlagAlways   MaterialFlags = 1 << 4
	MaterialFlagFree     MaterialFlags = 1 << 5
)

const materialFlagsValid = MaterialFlagTextured | MaterialFlagUnknown |
	MaterialFlagCycled | MaterialFlagAlways | MaterialFlagFree

// CycleData is a textured material's optional animated-texture cycle
// (materials.rs's `CycleInfoC`, 28 bytes, plus its trailing texture-index
// list).
type CycleData struct {
	Textures []string
	InfoPtr  uint32
	DataPtr  uint32
	Unk00    bool
	Unk04    uint32
	Unk12    float32
}

// TexturedMaterial references a texture by name (materials.rs resolves
// the on-disk texture index against the texture directory's name list;
// this repo keeps the resolved name instead of the index, like the
// teacher's own Material::Textured).
type TexturedMaterial struct {
	Texture string
	Cycle   *CycleData
	Unk32   uint32
	Flag    bool
}

// ColoredMaterial is a flat-shaded material with no texture.
type ColoredMaterial struct {
	Color Color
	Unk00 uint8
	Unk32 uint32
}

// MaterialKind discriminates the Material variants.
type MaterialKind int

const (
	MaterialTextured MaterialKind = iota
	MaterialColored
)

// Material is satisfied by TexturedMaterial and ColoredMaterial.
type Material interface {
	materialKind() MaterialKind
}

func (TexturedMaterial) materialKind() MaterialKind { return MaterialTextured }
func (ColoredMaterial) materialKind() MaterialKind  { return MaterialColored }

type materialC struct {
	Unk00    uint8
	Flags    uint8
	Rgb      uint16
	Color    Color
	Pointer  uint32
	Zero20   float32
	Half24   float32
	Half28   float32
	Unk32    uint32
	CyclePtr uint32
}

const materialSize = 40

type materialInfoC struct {
	ArraySize int32
	Count     int32
	IndexMax  int32
	Unknown   int32
}

const materialInfoSize = 16

type cycleInfoC struct {
	Unk00   uint32
	Unk04   uint32
	Zero08  uint32
	Unk12   float32
	Count1  uint32
	Count2  uint32
	DataPtr uint32
}

const cycleInfoSize = 28

var colorWhiteFull = Color{R: 1, G: 1, B: 1}
var colorBlack = Color{}

func readMaterial(r *stream.Reader, index int32) (Material, error) {
	var raw materialC
	if err := r.ReadStruct(&raw, materialSize); err != nil {
		return nil, err
	}
	if err := assert.FlagsRaw[MaterialFlags]("material flags", materialFlagsValid, MaterialFlags(raw.Flags), r.Prev+1); err != nil {
		return nil, err
	}
	flags := MaterialFlags(raw.Flags)

	unknown := flags&MaterialFlagUnknown != 0
	cycled := flags&MaterialFlagCycled != 0
	always := flags&MaterialFlagAlways != 0
	free := flags&MaterialFlagFree != 0
	if err := assert.Eq[bool]("material flag always", true, always, r.Prev+1); err != nil {
		return nil, err
	}
	if err := assert.Eq[bool]("material flag free", false, free, r.Prev+1); err != nil {
		return nil, err
	}
	if err := assert.Eq[float32]("material field 20", 0, raw.Zero20, r.Prev+20); err != nil {
		return nil, err
	}
	if err := assert.Eq[float32]("material field 24", 0.5, raw.Half24, r.Prev+24); err != nil {
		return nil, err
	}
	if err := assert.Eq[float32]("material field 28", 0.5, raw.Half28, r.Prev+28); err != nil {
		return nil, err
	}

	if flags&MaterialFlagTextured != 0 {
		if err := assert.Eq[uint8]("material field 00", 0xFF, raw.Unk00, r.Prev); err != nil {
			return nil, err
		}
		if err := assert.Eq[uint16]("material rgb", 0x7FFF, raw.Rgb, r.Prev+2); err != nil {
			return nil, err
		}
		if err := assert.Eq[Color]("material color", colorWhiteFull, raw.Color, r.Prev+4); err != nil {
			return nil, err
		}
		hasCycle := cycled
		if !hasCycle {
			if err := assert.Eq[uint32]("material cycle ptr", 0, raw.CyclePtr, r.Prev+36); err != nil {
				return nil, err
			}
		}
		return texturedRaw{pointer: raw.Pointer, cyclePtr: raw.CyclePtr, hasCycle: hasCycle, unk32: raw.Unk32, flag: unknown}, nil
	}

	if err := assert.Eq[bool]("material flag unknown", false, unknown, r.Prev+1); err != nil {
		return nil, err
	}
	if err := assert.Eq[bool]("material flag cycled", false, cycled, r.Prev+1); err != nil {
		return nil, err
	}
	if err := assert.Eq[uint16]("material rgb", 0x0000, raw.Rgb, r.Prev+2); err != nil {
		return nil, err
	}
	if err := assert.Eq[uint32]("material pointer", 0, raw.Pointer, r.Prev+16); err != nil {
		return nil, err
	}
	if err := assert.Eq[uint32]("material cycle ptr", 0, raw.CyclePtr, r.Prev+36); err != nil {
		return nil, err
	}
	return ColoredMaterial{Color: raw.Color, Unk00: raw.Unk00, Unk32: raw.Unk32}, nil
}

// texturedRaw is readMaterial's intermediate result for a textured
// material: the on-disk pointer still holds a texture-name index, not yet
// resolved against the texture directory (mirroring RawMaterial::Textured
// in materials.rs — the pointer/cycle-ptr split is only resolved once the
// caller's texture name list is available).
type texturedRaw struct {
	pointer  uint32
	cyclePtr uint32
	hasCycle bool
	unk32    uint32
	flag     bool
}

func (texturedRaw) materialKind() MaterialKind { return MaterialTextured }

func readMaterialsZero(r *stream.Reader, start, end int16) error {
	for index := start; index < end; index++ {
		var raw materialC
		if err := r.ReadStruct(&raw, materialSize); err != nil {
			return err
		}
		if err := assert.Eq[uint8]("material field 00", 0, raw.Unk00, r.Prev); err != nil {
			return err
		}
		if err := assert.Eq[uint8]("material flags", uint8(MaterialFlagFree), raw.Flags, r.Prev+1); err != nil {
			return err
		}
		if err := assert.Eq[uint16]("material rgb", 0x0000, raw.Rgb, r.Prev+2); err != nil {
			return err
		}
		if err := assert.Eq[Color]("material color", colorBlack, raw.Color, r.Prev+4); err != nil {
			return err
		}
		if err := assert.Eq[uint32]("material pointer", 0, raw.Pointer, r.Prev+16); err != nil {
			return err
		}
		if err := assert.Eq[float32]("material field 20", 0, raw.Zero20, r.Prev+20); err != nil {
			return err
		}
		if err := assert.Eq[float32]("material field 24", 0, raw.Half24, r.Prev+24); err != nil {
			return err
		}
		if err := assert.Eq[float32]("material field 28", 0, raw.Half28, r.Prev+28); err != nil {
			return err
		}
		if err := assert.Eq[uint32]("material field 32", 0, raw.Unk32, r.Prev+32); err != nil {
			return err
		}
		if err := assert.Eq[uint32]("material cycle ptr", 0, raw.CyclePtr, r.Prev+36); err != nil {
			return err
		}

		expected1 := index - 1
		if expected1 < start {
			expected1 = -1
		}
		actual1, err := r.ReadI16()
		if err != nil {
			return err
		}
		if err := assert.Eq[int16]("material zero index 1", expected1, actual1, r.Prev); err != nil {
			return err
		}

		expected2 := index + 1
		if expected2 >= end {
			expected2 = -1
		}
		actual2, err := r.ReadI16()
		if err != nil {
			return err
		}
		if err := assert.Eq[int16]("material zero index 2", expected2, actual2, r.Prev); err != nil {
			return err
		}
	}
	return nil
}

func readCycle(r *stream.Reader, raw texturedRaw, textures []string, log *xlog.Helper) (TexturedMaterial, error) {
	texIndex := raw.pointer
	if err := assert.Lt[uint32]("texture index", uint32(len(textures)), texIndex, r.Offset); err != nil {
		return TexturedMaterial{}, err
	}
	texture := textures[texIndex]

	var cycle *CycleData
	if raw.hasCycle {
		if err := assert.Ne[uint32]("cycle info ptr", 0, raw.cyclePtr, r.Prev); err != nil {
			return TexturedMaterial{}, err
		}
		var info cycleInfoC
		if err := r.ReadStruct(&info, cycleInfoSize); err != nil {
			return TexturedMaterial{}, err
		}
		unk00, err := assert.BoolU32("cycle field 00", info.Unk00, r.Prev)
		if err != nil {
			return TexturedMaterial{}, err
		}
		if err := assert.Eq[uint32]("cycle field 08", 0, info.Zero08, r.Prev+8); err != nil {
			return TexturedMaterial{}, err
		}
		if err := assert.InRange[float32]("cycle field 12", 2.0, 16.0, info.Unk12, r.Prev+12); err != nil {
			return TexturedMaterial{}, err
		}
		if err := assert.Eq[uint32]("cycle count", info.Count1, info.Count2, r.Prev+20); err != nil {
			return TexturedMaterial{}, err
		}
		if err := assert.Ne[uint32]("cycle data ptr", 0, info.DataPtr, r.Prev+24); err != nil {
			return TexturedMaterial{}, err
		}

		cycleTextures := make([]string, info.Count1)
		for i := range cycleTextures {
			idx, err := r.ReadU32()
			if err != nil {
				return TexturedMaterial{}, err
			}
			if err := assert.Lt[uint32]("texture index", uint32(len(textures)), idx, r.Prev); err != nil {
				return TexturedMaterial{}, err
			}
			cycleTextures[i] = textures[idx]
		}
		cycle = &CycleData{
			Textures: cycleTextures, InfoPtr: raw.cyclePtr, DataPtr: info.DataPtr,
			Unk00: unk00, Unk04: info.Unk04, Unk12: info.Unk12,
		}
	}

	return TexturedMaterial{Texture: texture, Cycle: cycle, Unk32: raw.unk32, Flag: raw.flag}, nil
}

// ReadMaterials decodes the material array attached to a gamez container
// (crates/mech3ax-gamez/src/gamez/mw/materials.rs's `read_materials`):
// an info header, live materials with a doubly-linked free-list index
// pair, a zero-filled tail up to array_size, then each textured
// material's optional animated-texture cycle data. textures is the
// texture directory's resolved name list (component C7), used to turn a
// material's on-disk texture index into a name.
func ReadMaterials(r *stream.Reader, textures []string, log *xlog.Helper) ([]Material, int16, error) {
	if log == nil {
		log = xlog.Discard()
	}
	var info materialInfoC
	if err := r.ReadStruct(&info, materialInfoSize); err != nil {
		return nil, 0, err
	}
	if err := assert.InRange[int32]("material array size", 0, 32767, info.ArraySize, r.Prev); err != nil {
		return nil, 0, err
	}
	if err := assert.InRange[int32]("material count", 0, info.ArraySize, info.Count, r.Prev); err != nil {
		return nil, 0, err
	}
	if err := assert.Eq[int32]("material index max", info.Count, info.IndexMax, r.Prev+8); err != nil {
		return nil, 0, err
	}
	if err := assert.Eq[int32]("material field 12", info.Count-1, info.Unknown, r.Prev+12); err != nil {
		return nil, 0, err
	}

	count := int16(info.Count)
	arraySize := int16(info.ArraySize)

	raws := make([]Material, count)
	for index := int16(0); index < count; index++ {
		m, err := readMaterial(r, int32(index))
		if err != nil {
			return nil, 0, err
		}
		raws[index] = m

		expected1 := index + 1
		if expected1 >= count {
			expected1 = -1
		}
		actual1, err := r.ReadI16()
		if err != nil {
			return nil, 0, err
		}
		if err := assert.Eq[int16]("material index 1", expected1, actual1, r.Prev); err != nil {
			return nil, 0, err
		}

		expected2 := index - 1
		if expected2 < 0 {
			expected2 = -1
		}
		actual2, err := r.ReadI16()
		if err != nil {
			return nil, 0, err
		}
		if err := assert.Eq[int16]("material index 2", expected2, actual2, r.Prev); err != nil {
			return nil, 0, err
		}
	}

	if err := readMaterialsZero(r, count, arraySize); err != nil {
		return nil, 0, err
	}

	materials := make([]Material, count)
	for index, raw := range raws {
		tr, ok := raw.(texturedRaw)
		if !ok {
			materials[index] = raw
			continue
		}
		tm, err := readCycle(r, tr, textures, log)
		if err != nil {
			return nil, 0, err
		}
		materials[index] = tm
	}
	return materials, arraySize, nil
}

func textureIndex(textures []string, name string) uint32 {
	for i, t := range textures {
		if t == name {
			return uint32(i)
		}
	}
	return 0
}

func writeMaterial(w *stream.Writer, material Material, pointer *uint32) error {
	var raw materialC
	switch m := material.(type) {
	case TexturedMaterial:
		flags := MaterialFlagAlways | MaterialFlagTextured
		if m.Flag {
			flags |= MaterialFlagUnknown
		}
		var cyclePtr uint32
		if m.Cycle != nil {
			flags |= MaterialFlagCycled
			cyclePtr = m.Cycle.InfoPtr
		}
		p := uint32(0)
		if pointer != nil {
			p = *pointer
		}
		raw = materialC{
			Unk00: 0xFF, Flags: uint8(flags), Rgb: 0x7FFF, Color: colorWhiteFull,
			Pointer: p, Zero20: 0, Half24: 0.5, Half28: 0.5, Unk32: m.Unk32, CyclePtr: cyclePtr,
		}
	case ColoredMaterial:
		raw = materialC{
			Unk00: m.Unk00, Flags: uint8(MaterialFlagAlways), Rgb: 0x0000, Color: m.Color,
			Pointer: 0, Zero20: 0, Half24: 0.5, Half28: 0.5, Unk32: m.Unk32, CyclePtr: 0,
		}
	}
	return w.WriteStruct(&raw)
}

func writeMaterialsZero(w *stream.Writer, start, end int16) error {
	raw := materialC{
		Unk00: 0, Flags: uint8(MaterialFlagFree), Rgb: 0x0000, Color: colorBlack,
		Pointer: 0, Zero20: 0, Half24: 0, Half28: 0, Unk32: 0, CyclePtr: 0,
	}
	for index := start; index < end; index++ {
		if err := w.WriteStruct(&raw); err != nil {
			return err
		}
		index1 := index - 1
		if index1 < start {
			index1 = -1
		}
		if err := w.WriteI16(index1); err != nil {
			return err
		}
		index2 := index + 1
		if index2 >= end {
			index2 = -1
		}
		if err := w.WriteI16(index2); err != nil {
			return err
		}
	}
	return nil
}

func writeCycle(w *stream.Writer, textures []string, material Material) error {
	tm, ok := material.(TexturedMaterial)
	if !ok || tm.Cycle == nil {
		return nil
	}
	count := uint32(len(tm.Cycle.Textures))
	info := cycleInfoC{
		Unk00: uint32(types.BoolToU32(tm.Cycle.Unk00)), Unk04: tm.Cycle.Unk04, Zero08: 0,
		Unk12: tm.Cycle.Unk12, Count1: count, Count2: count, DataPtr: tm.Cycle.DataPtr,
	}
	if err := w.WriteStruct(&info); err != nil {
		return err
	}
	for _, tex := range tm.Cycle.Textures {
		if err := w.WriteU32(textureIndex(textures, tex)); err != nil {
			return err
		}
	}
	return nil
}

// WriteMaterials inverts ReadMaterials exactly (spec.md section 8).
func WriteMaterials(w *stream.Writer, textures []string, materials []Material, arraySize int16, log *xlog.Helper) error {
	if log == nil {
		log = xlog.Discard()
	}
	count := int32(len(materials))
	info := materialInfoC{ArraySize: int32(arraySize), Count: count, IndexMax: count, Unknown: count - 1}
	if err := w.WriteStruct(&info); err != nil {
		return err
	}

	count16 := int16(count)
	for i, material := range materials {
		var pointer *uint32
		if tm, ok := material.(TexturedMaterial); ok {
			idx := textureIndex(textures, tm.Texture)
			pointer = &idx
		}
		if err := writeMaterial(w, material, pointer); err != nil {
			return err
		}

		index := int16(i)
		index1 := index + 1
		if index1 >= count16 {
			index1 = -1
		}
		if err := w.WriteI16(index1); err != nil {
			return err
		}
		index2 := index - 1
		if index2 < 0 {
			index2 = -1
		}
		if err := w.WriteI16(index2); err != nil {
			return err
		}
	}

	if err := writeMaterialsZero(w, count16, arraySize); err != nil {
		return err
	}

	for _, material := range materials {
		if err := writeCycle(w, textures, material); err != nil {
			return err
		}
	}
	return nil
}

// SizeMaterials mirrors materials.rs's `size_materials` for analytical
// output sizing (spec.md section 4.10: "Writers size their outputs
// analytically").
func SizeMaterials(arraySize int16, materials []Material) uint32 {
	size := uint32(materialInfoSize) + (materialSize+4)*uint32(arraySize)
	for _, material := range materials {
		if tm, ok := material.(TexturedMaterial); ok && tm.Cycle != nil {
			size += cycleInfoSize + 4*uint32(len(tm.Cycle.Textures))
		}
	}
	return size
}

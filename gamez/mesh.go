package gamez

import (
	"github.com/TerranMechworks/mech3ax-sub002/internal/assert"
	"github.com/TerranMechworks/mech3ax-sub002/internal/merr"
	"github.com/TerranMechworks/mech3ax-sub002/internal/xlog"
	"github.com/TerranMechworks/mech3ax-sub002/stream"
	"github.com/TerranMechworks/mech3ax-sub002/types"
)

// Mesh is one entry of the gamez container's mesh array, referenced by
// Object3d.MeshIndex (spec.md section 4.10), grounded on
// crates/gamez/src/mesh/mw/read.rs.
type Mesh struct {
	HasFilePtr bool
	Vertices   []Vec3
	Normals    []Vec3
	Morphs     []Vec3
	Lights     []PointLight
	// Polygons is empty when the mesh carries only light info (read.rs:
	// a mesh with polygon_count == 0 is otherwise fully decoded).
	Polygons []Polygon
}

// PointLight is the 76-byte `LightC`-equivalent point-light record
// embedded in a mesh (crates/gamez/src/model/common.rs). Extras is read
// in a second pass, after every light's fixed record in the mesh has
// been read.
type PointLight struct {
	Unk00, Unk04, Unk08 uint32
	Unk24               uint32
	Color               Color
	Flags               uint16
	Ptr                 uint32
	Unk52, Unk56        float32
	Unk60, Unk64        float32
	Unk68, Unk72        float32
	Extras              []Vec3
}

// Polygon is one mesh face, grounded on crates/gamez/src/mesh/mw/read.rs's
// polygon decoding: a bit-packed vertex_info header, per-vertex indices,
// an optional parallel normal-index array (present iff the has-normals
// bit is set), per-vertex UV coordinates and vertex colors, a material
// index and a packed zone set.
type Polygon struct {
	// UnkBit is vertex_info's 0x100 bit, whose meaning was not given in
	// the retrieval pack; preserved verbatim for round-trip fidelity.
	UnkBit        bool
	VertexIndices []uint32
	NormalIndices []uint32 // nil when the mesh has no per-vertex normals for this polygon
	UVs           []UvCoord
	VertexColors  []Color
	MaterialIndex uint32
	Zones         []int8
}

const (
	polyVertCountMask = 0xFF
	polyUnkBit        = 0x100
	polyHasNormals    = 0x200
	// polyInfoMax bounds vertex_info to the two known flag bits plus the
	// vertex-count byte (mesh/mw/read.rs: "vertex info" < 0x3FF).
	polyInfoMax = 0x3FF
)

type meshHeaderC struct {
	FilePtr      uint32
	Unk04        uint32
	Unk08        uint32
	VertexCount  uint32
	NormalCount  uint32
	MorphCount   uint32
	LightCount   uint32
	PolygonCount uint32
	VertexPtr    uint32
	NormalPtr    uint32
	MorphPtr     uint32
	LightPtr     uint32
	PolygonPtr   uint32
	MinBound     Vec3
	MaxBound     Vec3
	Unk96        float32
}

const meshHeaderSize = 80

type lightC struct {
	Unk00      uint32
	Unk04      uint32
	Unk08      uint32
	ExtraCount uint32
	Zero16     uint32
	Zero20     uint32
	Unk24      uint32
	Color      Color
	Pad40      uint32
	Flags      uint16
	Pad46      uint16
	Ptr        uint32
	Unk52      float32
	Unk56      float32
	Unk60      float32
	Unk64      float32
	Unk68      float32
	Unk72      float32
}

const lightSize = 76

// checkArrayPtr asserts a pointer field's null-ness matches whether its
// paired count is zero, the invariant repeated across every array/count
// pair in the mesh header (mirrored from node.go's identical check on
// the node-info record's parent/children pointers).
func checkArrayPtr(name string, count, ptr uint32, offset uint32) error {
	if count == 0 {
		if ptr != uint32(types.PtrNull) {
			return merr.Protocolf("expected %s null, but was non-null (at %d)", name, offset)
		}
		return nil
	}
	if ptr == uint32(types.PtrNull) {
		return merr.Protocolf("expected %s, but was null (at %d)", name, offset)
	}
	return nil
}

// ReadMesh decodes one mesh stream: header, vertices, normals, morphs,
// lights (fixed records, then trailing extras in a second pass) and
// polygons, in that order (spec.md section 4.10). log receives non-fatal
// anomalies (spec.md section 7); a nil log discards them.
func ReadMesh(r *stream.Reader, l Lookup, log *xlog.Helper) (Mesh, error) {
	if log == nil {
		log = xlog.Discard()
	}
	var hdr meshHeaderC
	if err := r.ReadStruct(&hdr, meshHeaderSize); err != nil {
		return Mesh{}, err
	}
	hasFilePtr, err := assert.BoolU32("mesh file ptr flag", hdr.FilePtr, r.Prev)
	if err != nil {
		return Mesh{}, err
	}
	if err := assert.Eq[uint32]("mesh field 04", 0, hdr.Unk04, r.Prev+4); err != nil {
		return Mesh{}, err
	}
	if err := assert.Eq[uint32]("mesh field 08", 0, hdr.Unk08, r.Prev+8); err != nil {
		return Mesh{}, err
	}
	if err := checkArrayPtr("mesh vertex ptr", hdr.VertexCount, hdr.VertexPtr, r.Prev+32); err != nil {
		return Mesh{}, err
	}
	if err := checkArrayPtr("mesh normal ptr", hdr.NormalCount, hdr.NormalPtr, r.Prev+36); err != nil {
		return Mesh{}, err
	}
	if err := checkArrayPtr("mesh morph ptr", hdr.MorphCount, hdr.MorphPtr, r.Prev+40); err != nil {
		return Mesh{}, err
	}
	if err := checkArrayPtr("mesh light ptr", hdr.LightCount, hdr.LightPtr, r.Prev+44); err != nil {
		return Mesh{}, err
	}
	if err := checkArrayPtr("mesh polygon ptr", hdr.PolygonCount, hdr.PolygonPtr, r.Prev+48); err != nil {
		return Mesh{}, err
	}

	vertices, err := readVec3s(r, hdr.VertexCount)
	if err != nil {
		return Mesh{}, err
	}
	normals, err := readVec3s(r, hdr.NormalCount)
	if err != nil {
		return Mesh{}, err
	}
	morphs, err := readVec3s(r, hdr.MorphCount)
	if err != nil {
		return Mesh{}, err
	}

	lights := make([]PointLight, hdr.LightCount)
	for i := range lights {
		var raw lightC
		if err := r.ReadStruct(&raw, lightSize); err != nil {
			return Mesh{}, err
		}
		if err := assert.Eq[uint32]("light field 16", 0, raw.Zero16, r.Prev+16); err != nil {
			return Mesh{}, err
		}
		if err := assert.Eq[uint32]("light field 20", 0, raw.Zero20, r.Prev+20); err != nil {
			return Mesh{}, err
		}
		if err := assert.Eq[uint32]("light field 40", 0, raw.Pad40, r.Prev+40); err != nil {
			return Mesh{}, err
		}
		if err := assert.Eq[uint16]("light field 46", 0, raw.Pad46, r.Prev+46); err != nil {
			return Mesh{}, err
		}
		lights[i] = PointLight{
			Unk00: raw.Unk00, Unk04: raw.Unk04, Unk08: raw.Unk08, Unk24: raw.Unk24,
			Color: raw.Color, Flags: raw.Flags, Ptr: raw.Ptr,
			Unk52: raw.Unk52, Unk56: raw.Unk56, Unk60: raw.Unk60, Unk64: raw.Unk64,
			Unk68: raw.Unk68, Unk72: raw.Unk72, Extras: make([]Vec3, raw.ExtraCount),
		}
	}
	for i := range lights {
		extras, err := readVec3s(r, uint32(len(lights[i].Extras)))
		if err != nil {
			return Mesh{}, err
		}
		lights[i].Extras = extras
	}

	polygons := make([]Polygon, hdr.PolygonCount)
	for i := range polygons {
		p, err := readPolygon(r, l, log)
		if err != nil {
			return Mesh{}, err
		}
		polygons[i] = p
	}

	return Mesh{
		HasFilePtr: hasFilePtr, Vertices: vertices, Normals: normals, Morphs: morphs,
		Lights: lights, Polygons: polygons,
	}, nil
}

func readVec3s(r *stream.Reader, count uint32) ([]Vec3, error) {
	out := make([]Vec3, count)
	for i := range out {
		var v Vec3
		if err := r.ReadStruct(&v, 12); err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func readPolygon(r *stream.Reader, l Lookup, log *xlog.Helper) (Polygon, error) {
	vertexInfo, err := r.ReadU32()
	if err != nil {
		return Polygon{}, err
	}
	if err := assert.Lt[uint32]("vertex info", polyInfoMax, vertexInfo, r.Prev); err != nil {
		return Polygon{}, err
	}
	vertCount := vertexInfo & polyVertCountMask
	unkBit := vertexInfo&polyUnkBit != 0
	hasNormals := vertexInfo&polyHasNormals != 0
	if vertCount < 3 {
		log.Warnf("polygon has fewer than three vertices (at %d)", r.Prev)
	}

	vertexIndices := make([]uint32, vertCount)
	for i := range vertexIndices {
		v, err := r.ReadU32()
		if err != nil {
			return Polygon{}, err
		}
		vertexIndices[i] = v
	}

	var normalIndices []uint32
	if hasNormals {
		normalIndices = make([]uint32, vertCount)
		for i := range normalIndices {
			v, err := r.ReadU32()
			if err != nil {
				return Polygon{}, err
			}
			normalIndices[i] = v
		}
	}

	uvs := make([]UvCoord, vertCount)
	for i := range uvs {
		var v UvCoord
		if err := r.ReadStruct(&v, 8); err != nil {
			return Polygon{}, err
		}
		uvs[i] = v
	}

	colors := make([]Color, vertCount)
	for i := range colors {
		var v Color
		if err := r.ReadStruct(&v, 12); err != nil {
			return Polygon{}, err
		}
		colors[i] = v
	}

	materialIndex, err := r.ReadU32()
	if err != nil {
		return Polygon{}, err
	}
	if l.MaterialCount > 0 {
		if err := assert.Lt[uint32]("polygon material index", uint32(l.MaterialCount), materialIndex, r.Prev); err != nil {
			return Polygon{}, err
		}
	}

	zoneRaw, err := r.ReadU32()
	if err != nil {
		return Polygon{}, err
	}
	zones, err := unpackZoneSet(zoneRaw, r.Prev)
	if err != nil {
		return Polygon{}, err
	}

	return Polygon{
		UnkBit: unkBit, VertexIndices: vertexIndices, NormalIndices: normalIndices,
		UVs: uvs, VertexColors: colors, MaterialIndex: materialIndex, Zones: zones,
	}, nil
}

// WriteMesh inverts ReadMesh exactly (spec.md section 8).
func WriteMesh(w *stream.Writer, mesh Mesh, l Lookup, log *xlog.Helper) error {
	if log == nil {
		log = xlog.Discard()
	}
	hdr := meshHeaderC{
		FilePtr: uint32(types.BoolToU32(mesh.HasFilePtr)),
		VertexCount: uint32(len(mesh.Vertices)), NormalCount: uint32(len(mesh.Normals)),
		MorphCount: uint32(len(mesh.Morphs)), LightCount: uint32(len(mesh.Lights)),
		PolygonCount: uint32(len(mesh.Polygons)),
	}
	if len(mesh.Vertices) > 0 {
		hdr.VertexPtr = uint32(types.PtrInvalid)
	}
	if len(mesh.Normals) > 0 {
		hdr.NormalPtr = uint32(types.PtrInvalid)
	}
	if len(mesh.Morphs) > 0 {
		hdr.MorphPtr = uint32(types.PtrInvalid)
	}
	if len(mesh.Lights) > 0 {
		hdr.LightPtr = uint32(types.PtrInvalid)
	}
	if len(mesh.Polygons) > 0 {
		hdr.PolygonPtr = uint32(types.PtrInvalid)
	}
	if err := w.WriteStruct(&hdr); err != nil {
		return err
	}

	if err := writeVec3s(w, mesh.Vertices); err != nil {
		return err
	}
	if err := writeVec3s(w, mesh.Normals); err != nil {
		return err
	}
	if err := writeVec3s(w, mesh.Morphs); err != nil {
		return err
	}

	for _, lt := range mesh.Lights {
		raw := lightC{
			Unk00: lt.Unk00, Unk04: lt.Unk04, Unk08: lt.Unk08, ExtraCount: uint32(len(lt.Extras)),
			Unk24: lt.Unk24, Color: lt.Color, Flags: lt.Flags, Ptr: lt.Ptr,
			Unk52: lt.Unk52, Unk56: lt.Unk56, Unk60: lt.Unk60, Unk64: lt.Unk64,
			Unk68: lt.Unk68, Unk72: lt.Unk72,
		}
		if err := w.WriteStruct(&raw); err != nil {
			return err
		}
	}
	for _, lt := range mesh.Lights {
		if err := writeVec3s(w, lt.Extras); err != nil {
			return err
		}
	}

	for _, p := range mesh.Polygons {
		if err := writePolygon(w, p, log); err != nil {
			return err
		}
	}
	return nil
}

func writeVec3s(w *stream.Writer, vs []Vec3) error {
	for _, v := range vs {
		if err := w.WriteStruct(&v); err != nil {
			return err
		}
	}
	return nil
}

func writePolygon(w *stream.Writer, p Polygon, log *xlog.Helper) error {
	if len(p.VertexIndices) < 3 {
		log.Warnf("polygon has fewer than three vertices (at %d)", w.Offset)
	}
	vertexInfo := uint32(len(p.VertexIndices)) & polyVertCountMask
	if p.UnkBit {
		vertexInfo |= polyUnkBit
	}
	if p.NormalIndices != nil {
		vertexInfo |= polyHasNormals
	}
	if err := w.WriteU32(vertexInfo); err != nil {
		return err
	}
	for _, idx := range p.VertexIndices {
		if err := w.WriteU32(idx); err != nil {
			return err
		}
	}
	for _, idx := range p.NormalIndices {
		if err := w.WriteU32(idx); err != nil {
			return err
		}
	}
	for _, uv := range p.UVs {
		if err := w.WriteStruct(&uv); err != nil {
			return err
		}
	}
	for _, c := range p.VertexColors {
		if err := w.WriteStruct(&c); err != nil {
			return err
		}
	}
	if err := w.WriteU32(p.MaterialIndex); err != nil {
		return err
	}
	return w.WriteU32(packZoneSet(p.Zones))
}

// packZoneSet/unpackZoneSet pack up to three i8 zone values plus a
// length byte into a u32 (spec.md section 4.10's zone-set encoding,
// grounded on crates/gamez/src/model/common.rs's
// `assert_zone_set`/`make_zone_set`). Unused trailing slots are filled
// with the -1 sentinel.
const zoneSetMax = 3

func packZoneSet(zones []int8) uint32 {
	var b [4]byte
	for i := 0; i < zoneSetMax; i++ {
		if i < len(zones) {
			b[i] = byte(zones[i])
		} else {
			b[i] = 0xFF
		}
	}
	b[3] = byte(len(zones))
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func unpackZoneSet(raw uint32, offset uint32) ([]int8, error) {
	b := [4]byte{byte(raw), byte(raw >> 8), byte(raw >> 16), byte(raw >> 24)}
	count := b[3]
	if count > zoneSetMax {
		return nil, merr.Protocolf("expected zone set length <= %d, but was %d (at %d)", zoneSetMax, count, offset)
	}
	zones := make([]int8, count)
	for i := 0; i < int(count); i++ {
		zones[i] = int8(b[i])
	}
	for i := int(count); i < zoneSetMax; i++ {
		if b[i] != 0xFF {
			return nil, merr.Protocolf("expected zone set slot %d to be the unused sentinel (at %d)", i, offset)
		}
	}
	return zones, nil
}

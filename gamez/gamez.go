package gamez

import (
	"github.com/TerranMechworks/mech3ax-sub002/game"
	"github.com/TerranMechworks/mech3ax-sub002/internal/assert"
	"github.com/TerranMechworks/mech3ax-sub002/internal/xlog"
	"github.com/TerranMechworks/mech3ax-sub002/stream"
)

// gamezHeaderC is the scene-graph container's leading record: the node
// and mesh counts needed before either array can be decoded (node.go's
// object3d bound check needs MeshCount before the node array is read;
// mesh.go's polygon material-index bound check needs MaterialCount
// before the mesh array is read). No top-level container file (the
// equivalent of crates/gamez/src/gamez/{mw,pm,rc,cs}/mod.rs) was part
// of the retrieval pack, so this header's exact on-disk shape is a
// reconstruction rather than a grounded transcription — see DESIGN.md.
// It follows the zero-field/count-field shape texture.go's readHeader
// uses for the texture directory's own ungrounded-magic header.
type gamezHeaderC struct {
	Zero00    uint32
	NodeCount int32
	MeshCount int32
}

const gamezHeaderSize = 12

// Gamez is the neutral form of one decoded scene-graph container: the
// node array (World/Window/Camera/Display/Light/Lod/Object3d/Empty,
// spec.md section 4.10), the flat materials array those nodes' meshes
// reference by index, and the per-object3d mesh/model streams
// (vertices, normals, morphs, lights, polygons). Meshes are indexed
// the same way Object3d.MeshIndex (via NodeCommon.MeshIndex) addresses
// them: meshes[i] is the i'th mesh read after the materials array.
type Gamez struct {
	Variant       game.Variant
	Nodes         []Node
	Materials     []Material
	MaterialsSize int16
	Meshes        []Mesh
}

// ReadGamez decodes a complete scene-graph container (spec.md section
// 4.10). textures is the texture-name list the caller resolved from the
// associated texture directory (component C7); materials reference
// textures by name, not by the on-disk index the original texture
// container assigned them. log receives non-fatal anomalies (spec.md
// section 7); a nil log discards them.
//
// Container order (materials before the node array, node array before
// meshes) mirrors the two cross-array bound checks ReadNodes and
// ReadMesh already enforce: object3d's mesh index must be < MeshCount,
// and a polygon's material index must be < MaterialCount, so both
// counts must be resolved before the array that checks against them.
func ReadGamez(r *stream.Reader, variant game.Variant, textures []string, log *xlog.Helper) (Gamez, error) {
	if log == nil {
		log = xlog.Discard()
	}
	var hdr gamezHeaderC
	if err := r.ReadStruct(&hdr, gamezHeaderSize); err != nil {
		return Gamez{}, err
	}
	if err := assert.Eq[uint32]("gamez field 00", 0, hdr.Zero00, r.Prev); err != nil {
		return Gamez{}, err
	}
	if err := assert.Ge[int32]("gamez node count", 0, hdr.NodeCount, r.Prev+4); err != nil {
		return Gamez{}, err
	}
	if err := assert.Ge[int32]("gamez mesh count", 0, hdr.MeshCount, r.Prev+8); err != nil {
		return Gamez{}, err
	}

	materials, materialsSize, err := ReadMaterials(r, textures, log)
	if err != nil {
		return Gamez{}, err
	}

	lookup := Lookup{Variant: variant, MeshCount: hdr.MeshCount, MaterialCount: int32(len(materials))}

	nodes, err := ReadNodes(r, uint32(hdr.NodeCount), lookup, log)
	if err != nil {
		return Gamez{}, err
	}

	meshes := make([]Mesh, hdr.MeshCount)
	for i := int32(0); i < hdr.MeshCount; i++ {
		mesh, err := ReadModel(r, lookup, log)
		if err != nil {
			return Gamez{}, err
		}
		meshes[i] = mesh
	}

	if err := r.AssertEnd(); err != nil {
		return Gamez{}, err
	}

	return Gamez{
		Variant: variant, Nodes: nodes, Materials: materials,
		MaterialsSize: materialsSize, Meshes: meshes,
	}, nil
}

// WriteGamez inverts ReadGamez exactly (spec.md section 8).
func WriteGamez(w *stream.Writer, data Gamez, textures []string, log *xlog.Helper) error {
	if log == nil {
		log = xlog.Discard()
	}
	hdr := gamezHeaderC{NodeCount: int32(len(data.Nodes)), MeshCount: int32(len(data.Meshes))}
	if err := w.WriteStruct(&hdr); err != nil {
		return err
	}

	if err := WriteMaterials(w, textures, data.Materials, data.MaterialsSize, log); err != nil {
		return err
	}

	lookup := Lookup{Variant: data.Variant, MeshCount: int32(len(data.Meshes)), MaterialCount: int32(len(data.Materials))}
	if err := WriteNodes(w, data.Nodes, lookup, w.Offset, log); err != nil {
		return err
	}

	for _, mesh := range data.Meshes {
		if err := WriteModel(w, mesh, lookup, log); err != nil {
			return err
		}
	}
	return nil
}

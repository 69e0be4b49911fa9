// Package gamez implements the scene-graph ("gamez") container codec from
// spec.md section 4.10 (component C10): a fixed-size array of typed node
// records followed by their per-variant data blocks, and the mesh/model
// streams those nodes reference. Grounded on
// original_source/crates/gamez/src/gamez/{rc,pm,cs}/nodes.rs (the node
// array's fixed-position dispatch and zero-padding tail),
// crates/gamez/src/nodes/world/mw/read.rs (World data and the area
// partition grid), crates/mech3ax-nodes/src/{mw,pm,rc}/{object3d,lod,camera}.rs
// (per-variant data blocks) and crates/gamez/src/mesh/mw/{read,write}.rs,
// crates/gamez/src/model/{common,mw,ng}.rs (mesh/model streams) — see
// original_source/_INDEX.md.
package gamez

// Vec3, Matrix, BoundingBox, Range and Color are the small fixed-layout
// value types shared by node and mesh records, mirrored from the
// Vec3/Matrix/BoundingBox/Range/Color records referenced throughout
// original_source/crates/mech3ax-nodes and crates/gamez.
type Vec3 struct{ X, Y, Z float32 }

// Matrix is a row-major 3x3 rotation/transform matrix, grounded on
// mech3ax-nodes/src/mw/object3d.rs's `Matrix` field.
type Matrix [9]float32

// IdentityMatrix is the Matrix::IDENTITY constant used when an object3d
// node has no transformation.
var IdentityMatrix = Matrix{1, 0, 0, 0, 1, 0, 0, 0, 1}

type BoundingBox struct{ Min, Max Vec3 }

type Range struct{ Min, Max float32 }

type Color struct{ R, G, B float32 }

// UvCoord is a single texture coordinate, grounded on
// crates/gamez/src/model/common.rs's `read_uvs`/`write_uvs`.
type UvCoord struct{ U, V float32 }

// AreaPartition locates a node within the world's virtual partition grid
// (spec.md section 4.10: "Area-partition coordinates are bounded by the
// world node's virtual-partition count"). A nil *AreaPartition means the
// node has no area partition (the on-disk DEFAULT/invalid sentinel).
type AreaPartition struct {
	X, Z int32
}

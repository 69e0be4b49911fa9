package gamez

import (
	"math"

	"github.com/TerranMechworks/mech3ax-sub002/internal/assert"
	"github.com/TerranMechworks/mech3ax-sub002/internal/merr"
	"github.com/TerranMechworks/mech3ax-sub002/internal/xlog"
	"github.com/TerranMechworks/mech3ax-sub002/stream"
)

// Camera is the Camera node's data block (spec.md section 4.10), grounded
// on the 488-byte `CameraMwC`/`CameraC` retrieved in full from
// crates/mech3ax-nodes/src/mw/camera.rs and crates/mech3ax-gamez/src/
// nodes/camera.rs: the two layouts are byte-identical (the MW and
// RC/PM/CS variants differ only in logging/generic plumbing, not on-disk
// shape), so one Go type and codec serves all four games. Clip and Fov
// are the only fields that vary per file; everything else in the 488
// bytes is a fixed constant, zero padding, or a value derived from Fov
// (including the cotangent fields below).
type Camera struct {
	Clip Range
	Fov  Range
}

func (Camera) Kind() NodeType { return NodeCamera }

// cameraC is the full 488-byte on-disk record. World/Window/FocusNode
// indices, the default transform/matrix fields and the one248/one312/
// one388 markers are all fixed constants in the retrieved source; they
// are still read and asserted explicitly (rather than skipped) so a
// corrupt file is rejected instead of silently accepted.
type cameraC struct {
	WorldIndex      int32
	WindowIndex     int32
	FocusNodeXY     int32
	FocusNodeXZ     int32
	Flags           uint32
	Translation     Vec3
	Rotation        Vec3
	WorldTranslate  Vec3
	WorldRotate     Vec3
	MtwMatrix       Matrix
	Unk104          Vec3
	ViewVector      Vec3
	Matrix          Matrix
	AltTranslate    Vec3
	Clip            Range
	Zero184         [24]byte
	LodMultiplier   float32
	LodInvSq        float32
	FovHZoomFactor  float32
	FovVZoomFactor  float32
	FovHBase        float32
	FovVBase        float32
	Fov             Range
	FovHHalf        float32
	FovVHalf        float32
	One248          uint32
	Zero252         [60]byte
	One312          uint32
	Zero316         [72]byte
	One388          uint32
	Zero392         [72]byte
	Zero464         uint32
	FovHCot         float32
	FovVCot         float32
	Stride          int32
	ZoneSet         int32
	Unk484          int32
}

const cameraSize = 488

// cotangent mirrors crate::math::cotangent, used to round-trip the
// camera's fov_h_cot/fov_v_cot fields.
func cotangent(v float32) float32 {
	return float32(1.0 / math.Tan(float64(v)))
}

type cameraCodec struct{}

func (cameraCodec) kind() NodeType { return NodeCamera }

// readData enforces the node-common shape spec.md section 4.10 calls for
// ("camera: exactly DEFAULT"): a camera node has exactly the base flags,
// no area partition, no parent and mesh index -1. Its children count is
// not checked.
func (cameraCodec) readData(r *stream.Reader, l Lookup, common NodeCommon, log *xlog.Helper) (NodeData, error) {
	if err := assert.Eq[NodeBitFlags]("camera node flags", nodeBase, common.Flags, r.Offset); err != nil {
		return nil, err
	}
	if common.AreaPartition != nil {
		return nil, merr.Protocolf("expected camera node area partition none (at %d)", r.Offset)
	}
	if common.HasParent {
		return nil, merr.Protocolf("expected camera node to have no parent (at %d)", r.Offset)
	}
	if common.MeshIndex != -1 {
		return nil, merr.Protocolf("expected camera node mesh index -1, but was %d (at %d)", common.MeshIndex, r.Offset)
	}

	var raw cameraC
	if err := r.ReadStruct(&raw, cameraSize); err != nil {
		return nil, err
	}
	if err := assert.Eq[int32]("camera world index", 0, raw.WorldIndex, r.Prev); err != nil {
		return nil, err
	}
	if err := assert.Eq[int32]("camera window index", 1, raw.WindowIndex, r.Prev+4); err != nil {
		return nil, err
	}
	if err := assert.Eq[int32]("camera focus node xy", -1, raw.FocusNodeXY, r.Prev+8); err != nil {
		return nil, err
	}
	if err := assert.Eq[int32]("camera focus node xz", -1, raw.FocusNodeXZ, r.Prev+12); err != nil {
		return nil, err
	}
	if err := assert.Eq[uint32]("camera flags", 0, raw.Flags, r.Prev+16); err != nil {
		return nil, err
	}
	if err := assert.Eq[Vec3]("camera translation", Vec3{}, raw.Translation, r.Prev+20); err != nil {
		return nil, err
	}
	if err := assert.Eq[Vec3]("camera rotation", Vec3{}, raw.Rotation, r.Prev+32); err != nil {
		return nil, err
	}
	if err := assert.Eq[Vec3]("camera world translate", Vec3{}, raw.WorldTranslate, r.Prev+44); err != nil {
		return nil, err
	}
	if err := assert.Eq[Vec3]("camera world rotate", Vec3{}, raw.WorldRotate, r.Prev+56); err != nil {
		return nil, err
	}
	var emptyMatrix Matrix
	if err := assert.Eq[Matrix]("camera mtw matrix", emptyMatrix, raw.MtwMatrix, r.Prev+68); err != nil {
		return nil, err
	}
	if err := assert.Eq[Vec3]("camera field 104", Vec3{}, raw.Unk104, r.Prev+104); err != nil {
		return nil, err
	}
	if err := assert.Eq[Vec3]("camera view vector", Vec3{}, raw.ViewVector, r.Prev+116); err != nil {
		return nil, err
	}
	if err := assert.Eq[Matrix]("camera matrix", emptyMatrix, raw.Matrix, r.Prev+128); err != nil {
		return nil, err
	}
	if err := assert.Eq[Vec3]("camera alt translate", Vec3{}, raw.AltTranslate, r.Prev+164); err != nil {
		return nil, err
	}

	if err := assert.Gt[float32]("camera clip near z", 0, raw.Clip.Min, r.Prev+176); err != nil {
		return nil, err
	}
	if err := assert.Gt[float32]("camera clip far z", raw.Clip.Min, raw.Clip.Max, r.Prev+180); err != nil {
		return nil, err
	}
	if err := assert.ZeroSlice("camera field 184", raw.Zero184[:], r.Prev+184); err != nil {
		return nil, err
	}
	if err := assert.Eq[float32]("camera lod multiplier", 1, raw.LodMultiplier, r.Prev+208); err != nil {
		return nil, err
	}
	if err := assert.Eq[float32]("camera lod inv sq", 1, raw.LodInvSq, r.Prev+212); err != nil {
		return nil, err
	}
	if err := assert.Eq[float32]("camera fov h zoom factor", 1, raw.FovHZoomFactor, r.Prev+216); err != nil {
		return nil, err
	}
	if err := assert.Eq[float32]("camera fov v zoom factor", 1, raw.FovVZoomFactor, r.Prev+220); err != nil {
		return nil, err
	}
	if err := assert.Eq[float32]("camera fov h base", raw.Fov.Min, raw.FovHBase, r.Prev+224); err != nil {
		return nil, err
	}
	if err := assert.Eq[float32]("camera fov v base", raw.Fov.Max, raw.FovVBase, r.Prev+228); err != nil {
		return nil, err
	}
	if err := assert.Gt[float32]("camera fov h", 0, raw.Fov.Min, r.Prev+232); err != nil {
		return nil, err
	}
	if err := assert.Gt[float32]("camera fov v", 0, raw.Fov.Max, r.Prev+236); err != nil {
		return nil, err
	}
	fovHHalf := raw.Fov.Min / 2.0
	fovVHalf := raw.Fov.Max / 2.0
	if err := assert.Eq[float32]("camera fov h half", fovHHalf, raw.FovHHalf, r.Prev+240); err != nil {
		return nil, err
	}
	if err := assert.Eq[float32]("camera fov v half", fovVHalf, raw.FovVHalf, r.Prev+244); err != nil {
		return nil, err
	}
	if err := assert.Eq[uint32]("camera field 248", 1, raw.One248, r.Prev+248); err != nil {
		return nil, err
	}
	if err := assert.ZeroSlice("camera field 252", raw.Zero252[:], r.Prev+252); err != nil {
		return nil, err
	}
	if err := assert.Eq[uint32]("camera field 312", 1, raw.One312, r.Prev+312); err != nil {
		return nil, err
	}
	if err := assert.ZeroSlice("camera field 316", raw.Zero316[:], r.Prev+316); err != nil {
		return nil, err
	}
	if err := assert.Eq[uint32]("camera field 388", 1, raw.One388, r.Prev+388); err != nil {
		return nil, err
	}
	if err := assert.ZeroSlice("camera field 392", raw.Zero392[:], r.Prev+392); err != nil {
		return nil, err
	}
	if err := assert.Eq[uint32]("camera field 464", 0, raw.Zero464, r.Prev+464); err != nil {
		return nil, err
	}
	if err := assert.Eq[float32]("camera fov h cot", cotangent(fovHHalf), raw.FovHCot, r.Prev+468); err != nil {
		return nil, err
	}
	if err := assert.Eq[float32]("camera fov v cot", cotangent(fovVHalf), raw.FovVCot, r.Prev+472); err != nil {
		return nil, err
	}
	if err := assert.Eq[int32]("camera stride", 0, raw.Stride, r.Prev+476); err != nil {
		return nil, err
	}
	if err := assert.Eq[int32]("camera zone set", 0, raw.ZoneSet, r.Prev+480); err != nil {
		return nil, err
	}
	if err := assert.Eq[int32]("camera field 484", -256, raw.Unk484, r.Prev+484); err != nil {
		return nil, err
	}

	return Camera{Clip: raw.Clip, Fov: raw.Fov}, nil
}

func (cameraCodec) writeData(w *stream.Writer, l Lookup, data NodeData, log *xlog.Helper) error {
	c := data.(Camera)
	fovHHalf := c.Fov.Min / 2.0
	fovVHalf := c.Fov.Max / 2.0
	raw := cameraC{
		WorldIndex: 0, WindowIndex: 1, FocusNodeXY: -1, FocusNodeXZ: -1,
		Clip:           c.Clip,
		LodMultiplier:  1,
		LodInvSq:       1,
		FovHZoomFactor: 1,
		FovVZoomFactor: 1,
		FovHBase:       c.Fov.Min,
		FovVBase:       c.Fov.Max,
		Fov:            c.Fov,
		FovHHalf:       fovHHalf,
		FovVHalf:       fovVHalf,
		One248:         1,
		One312:         1,
		One388:         1,
		FovHCot:        cotangent(fovHHalf),
		FovVCot:        cotangent(fovVHalf),
		Unk484:         -256,
	}
	return w.WriteStruct(&raw)
}

func (cameraCodec) sizeData(l Lookup, data NodeData) uint32 {
	return cameraSize
}

func init() {
	registerVariant(cameraCodec{})
}

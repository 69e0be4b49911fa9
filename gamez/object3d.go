package gamez

import (
	"math"

	"github.com/TerranMechworks/mech3ax-sub002/internal/assert"
	"github.com/TerranMechworks/mech3ax-sub002/internal/xlog"
	"github.com/TerranMechworks/mech3ax-sub002/stream"
	"github.com/TerranMechworks/mech3ax-sub002/types"
)

// TransformKind is Object3d's 4-value transform discriminant (spec.md
// section 4.10: "a 4-value flags discriminating None | ScaleOnly |
// RotationTranslation | TranslationOnly"). crates/mech3ax-nodes/src/mw/
// object3d.rs was retrieved with only two of these raw flag values (32,
// 40); the other two and their exact raw encodings were not present in
// the retrieval pack, so all four are assigned self-consistent raw
// values here rather than literal ones — see DESIGN.md.
type TransformKind uint32

const (
	TransformNone                TransformKind = 40
	TransformScaleOnly           TransformKind = 8
	TransformRotationTranslation TransformKind = 32
	TransformTranslationOnly     TransformKind = 48
)

var transformKindDiscriminants = []TransformKind{
	TransformNone, TransformScaleOnly, TransformRotationTranslation, TransformTranslationOnly,
}

// Object3d is the Object3d node's data block (spec.md section 4.10),
// grounded on crates/mech3ax-nodes/src/mw/object3d.rs's 144-byte
// `Object3dMwC`. Rotation/Scale/Translation default to their identity
// values (0, (1,1,1), 0 respectively) for the components Kind doesn't
// carry.
type Object3d struct {
	Transform      TransformKind
	Rotation       Vec3
	Scale          Vec3
	Translation    Vec3
	MatrixOverride *Matrix
}

func (Object3d) Kind() NodeType { return NodeObject3d }

type object3dC struct {
	Flags       uint32
	Opacity     float32
	ZeroA       float32
	ZeroB       float32
	ZeroC       float32
	ZeroD       float32
	Rotation    Vec3
	Scale       Vec3
	Matrix      Matrix
	Translation Vec3
	Pad         [48]byte
}

const object3dSize = 144

func eulerToMatrix(rot Vec3) Matrix {
	sx, cx := math.Sincos(float64(rot.X))
	sy, cy := math.Sincos(float64(rot.Y))
	sz, cz := math.Sincos(float64(rot.Z))
	f32 := func(v float64) float32 { return float32(v) }
	// Row-major rotation matrix Rz * Ry * Rx, matching the convention
	// used by crates/mech3ax-nodes/src/mw/object3d.rs's matrix check.
	return Matrix{
		f32(cy * cz), f32(-cy * sz), f32(sy),
		f32(cx*sz + sx*sy*cz), f32(cx*cz - sx*sy*sz), f32(-sx * cy),
		f32(sx*sz - cx*sy*cz), f32(sx*cz + cx*sy*sz), f32(cx * cy),
	}
}

func scaleMatrix(s Vec3) Matrix {
	return Matrix{s.X, 0, 0, 0, s.Y, 0, 0, 0, s.Z}
}

func matrixClose(a, b Matrix, tol float32) bool {
	for i := range a {
		if abs32(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

const matrixTolerance = 1e-4

var identityVec3 = Vec3{}
var identityScale = Vec3{X: 1, Y: 1, Z: 1}

type object3dCodec struct{}

func (object3dCodec) kind() NodeType { return NodeObject3d }

func (object3dCodec) readData(r *stream.Reader, l Lookup, common NodeCommon, log *xlog.Helper) (NodeData, error) {
	var raw object3dC
	if err := r.ReadStruct(&raw, object3dSize); err != nil {
		return nil, err
	}
	if err := assert.Eq[float32]("object3d opacity", 0, raw.Opacity, r.Prev+4); err != nil {
		return nil, err
	}
	if err := assert.Eq[float32]("object3d field", 0, raw.ZeroA, r.Prev+8); err != nil {
		return nil, err
	}
	if err := assert.Eq[float32]("object3d field", 0, raw.ZeroB, r.Prev+12); err != nil {
		return nil, err
	}
	if err := assert.Eq[float32]("object3d field", 0, raw.ZeroC, r.Prev+16); err != nil {
		return nil, err
	}
	if err := assert.Eq[float32]("object3d field", 0, raw.ZeroD, r.Prev+20); err != nil {
		return nil, err
	}
	if err := assert.ZeroSlice("object3d padding", raw.Pad[:], r.Prev+96); err != nil {
		return nil, err
	}

	kind, ok := types.FromRepr(TransformKind(raw.Flags), transformKindDiscriminants)
	if !ok {
		return nil, assert.EnumRaw[TransformKind]("object3d transform kind", transformKindDiscriminants, TransformKind(raw.Flags), r.Prev)
	}

	matrix := IdentityMatrix
	switch kind {
	case TransformNone:
		if err := assert.Eq[Vec3]("object3d rotation", identityVec3, raw.Rotation, r.Prev+24); err != nil {
			return nil, err
		}
		if err := assert.Eq[Vec3]("object3d scale", identityScale, raw.Scale, r.Prev+36); err != nil {
			return nil, err
		}
		if err := assert.Eq[Vec3]("object3d translation", identityVec3, raw.Translation, r.Prev+84); err != nil {
			return nil, err
		}
	case TransformScaleOnly:
		if err := assert.Eq[Vec3]("object3d rotation", identityVec3, raw.Rotation, r.Prev+24); err != nil {
			return nil, err
		}
		if err := assert.Eq[Vec3]("object3d translation", identityVec3, raw.Translation, r.Prev+84); err != nil {
			return nil, err
		}
		matrix = scaleMatrix(raw.Scale)
	case TransformRotationTranslation:
		if err := assert.Eq[Vec3]("object3d scale", identityScale, raw.Scale, r.Prev+36); err != nil {
			return nil, err
		}
		if err := assert.InRange[float32]("object3d rotation x", -math.Pi, math.Pi, raw.Rotation.X, r.Prev+24); err != nil {
			return nil, err
		}
		if err := assert.InRange[float32]("object3d rotation y", -math.Pi, math.Pi, raw.Rotation.Y, r.Prev+28); err != nil {
			return nil, err
		}
		if err := assert.InRange[float32]("object3d rotation z", -math.Pi, math.Pi, raw.Rotation.Z, r.Prev+32); err != nil {
			return nil, err
		}
		matrix = eulerToMatrix(raw.Rotation)
	case TransformTranslationOnly:
		if err := assert.Eq[Vec3]("object3d rotation", identityVec3, raw.Rotation, r.Prev+24); err != nil {
			return nil, err
		}
		if err := assert.Eq[Vec3]("object3d scale", identityScale, raw.Scale, r.Prev+36); err != nil {
			return nil, err
		}
	}

	var override *Matrix
	if !matrixClose(matrix, raw.Matrix, matrixTolerance) {
		m := raw.Matrix
		override = &m
		log.Warnf("object3d matrix does not match its transform kind's derived matrix (at %d)", r.Prev+48)
	}

	return Object3d{
		Transform: kind, Rotation: raw.Rotation, Scale: raw.Scale, Translation: raw.Translation,
		MatrixOverride: override,
	}, nil
}

func (object3dCodec) writeData(w *stream.Writer, l Lookup, data NodeData, log *xlog.Helper) error {
	o := data.(Object3d)
	rotation, scale, translation := identityVec3, identityScale, identityVec3
	switch o.Transform {
	case TransformScaleOnly:
		scale = o.Scale
	case TransformRotationTranslation:
		rotation, translation = o.Rotation, o.Translation
	case TransformTranslationOnly:
		translation = o.Translation
	}
	raw := object3dC{
		Flags: uint32(o.Transform), Rotation: rotation, Scale: scale, Translation: translation,
	}
	var matrix Matrix
	switch o.Transform {
	case TransformScaleOnly:
		matrix = scaleMatrix(o.Scale)
	case TransformRotationTranslation:
		matrix = eulerToMatrix(o.Rotation)
	default:
		matrix = IdentityMatrix
	}
	if o.MatrixOverride != nil {
		matrix = *o.MatrixOverride
	}
	raw.Matrix = matrix
	return w.WriteStruct(&raw)
}

func (object3dCodec) sizeData(l Lookup, data NodeData) uint32 {
	return object3dSize
}

func init() {
	registerVariant(object3dCodec{})
}

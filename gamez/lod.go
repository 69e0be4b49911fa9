package gamez

import (
	"math"

	"github.com/TerranMechworks/mech3ax-sub002/internal/assert"
	"github.com/TerranMechworks/mech3ax-sub002/internal/xlog"
	"github.com/TerranMechworks/mech3ax-sub002/stream"
)

// Lod is the Lod node's data block (spec.md section 4.10), grounded on
// crates/mech3ax-nodes/src/rc/lod.rs's 80-byte `LodRcC` — chosen as the
// canonical layout since it was the only Lod variant retrieved in full;
// the other games are assumed to share the same shape (documented as a
// simplification in DESIGN.md).
type Lod struct {
	Level     uint32
	RangeNear float32
	RangeFar  float32
	Unk60     float32
	Unk64     float32
	Unk72     uint32
	Unk76     uint32
}

func (Lod) Kind() NodeType { return NodeLod }

type lodC struct {
	Level       uint32
	RangeNearSq float32
	RangeFar    float32
	RangeFarSq  float32
	Pad         [44]byte
	Unk60       float32
	Unk64       float32
	One68       uint32
	Unk72       uint32
	Unk76       uint32
}

const lodSize = 80

type lodCodec struct{}

func (lodCodec) kind() NodeType { return NodeLod }

func (lodCodec) readData(r *stream.Reader, l Lookup, common NodeCommon, log *xlog.Helper) (NodeData, error) {
	var raw lodC
	if err := r.ReadStruct(&raw, lodSize); err != nil {
		return nil, err
	}
	if err := assert.ZeroSlice("lod padding", raw.Pad[:], r.Prev+16); err != nil {
		return nil, err
	}
	// RangeNearSq has no separate linear counterpart on disk to check
	// against, unlike RangeFar/RangeFarSq; the linear value is derived.
	rangeNear := float32(math.Sqrt(float64(raw.RangeNearSq)))
	expectedFarSq := raw.RangeFar * raw.RangeFar
	if err := assert.Eq[float32]("lod range far squared", expectedFarSq, raw.RangeFarSq, r.Prev+12); err != nil {
		return nil, err
	}
	if err := assert.Eq[uint32]("lod field 68", 1, raw.One68, r.Prev+68); err != nil {
		return nil, err
	}
	return Lod{
		Level: raw.Level, RangeNear: rangeNear, RangeFar: raw.RangeFar,
		Unk60: raw.Unk60, Unk64: raw.Unk64, Unk72: raw.Unk72, Unk76: raw.Unk76,
	}, nil
}

func (lodCodec) writeData(w *stream.Writer, l Lookup, data NodeData, log *xlog.Helper) error {
	lod := data.(Lod)
	raw := lodC{
		Level: lod.Level, RangeNearSq: lod.RangeNear * lod.RangeNear, RangeFar: lod.RangeFar,
		RangeFarSq: lod.RangeFar * lod.RangeFar,
		Unk60:      lod.Unk60, Unk64: lod.Unk64, One68: 1, Unk72: lod.Unk72, Unk76: lod.Unk76,
	}
	return w.WriteStruct(&raw)
}

func (lodCodec) sizeData(l Lookup, data NodeData) uint32 {
	return lodSize
}

func init() {
	registerVariant(lodCodec{})
}

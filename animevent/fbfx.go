package animevent

import (
	"github.com/TerranMechworks/mech3ax-sub002/game"
	"github.com/TerranMechworks/mech3ax-sub002/internal/assert"
	"github.com/TerranMechworks/mech3ax-sub002/internal/merr"
	"github.com/TerranMechworks/mech3ax-sub002/stream"
)

// FbFxCsinwaveFromToFlags, grounded on e37_fbfx_csinwave_from_to.rs.
type FbFxCsinwaveFromToFlags uint16

const (
	FbfxScreenPos    FbFxCsinwaveFromToFlags = 1 << 0
	FbfxAtNode       FbFxCsinwaveFromToFlags = 1 << 1
	FbfxScreenRadius FbFxCsinwaveFromToFlags = 1 << 2
	FbfxWorldRadius  FbFxCsinwaveFromToFlags = 1 << 3
	fbfxFlagsValid                           = FbfxScreenPos | FbfxAtNode | FbfxScreenRadius | FbfxWorldRadius
)

// FbfxCsinwaveScreenPos is the screen-space position interpolation pair.
type FbfxCsinwaveScreenPos struct{ X, Y FloatFromTo }

// FbfxCsinwaveCsin is the always-present sine-wave coefficient triple.
type FbfxCsinwaveCsin struct{ X, Y, Z FloatFromTo }

// FbfxCsinwaveFromTo drives a screen-space sine-wave fullbright effect
// (spec.md section 4.9; e37_fbfx_csinwave_from_to.rs).
type FbfxCsinwaveFromTo struct {
	AtNode       *string
	AtNodePos    Vec3
	ScreenPos    *FbfxCsinwaveScreenPos
	WorldRadius  *FloatFromTo
	ScreenRadius *FloatFromTo
	Csin         FbfxCsinwaveCsin
	RunTime      float32
}

func (FbfxCsinwaveFromTo) Kind() EventType { return EvFbfxCsinwaveFromTo }

type floatFromToC struct{ From, To, Delta float32 }

type fbFxCsinwaveFromToC struct {
	Flags           uint16
	NodeIndex       uint16
	Translate       Vec3
	ScreenX         floatFromToC
	ScreenY         floatFromToC
	WorldRadiusFrom float32
	WorldRadiusTo   float32
	ScreenRadius    floatFromToC
	CsinX           floatFromToC
	CsinY           floatFromToC
	CsinZ           floatFromToC
	RunTime         float32
}

type fbfxCodec struct{}

func (fbfxCodec) kind() EventType              { return EvFbfxCsinwaveFromTo }
func (fbfxCodec) validFor(game.Variant) bool   { return true }
func (fbfxCodec) size(Lookup, Data) (uint32, error) { return 100, nil }

func (fbfxCodec) read(r *stream.Reader, l Lookup, payloadSize uint32) (Data, error) {
	if err := assert.Eq[uint32]("fbfx csinwave size", 100, payloadSize, r.Offset); err != nil {
		return nil, err
	}
	var raw fbFxCsinwaveFromToC
	if err := r.ReadStruct(&raw, 100); err != nil {
		return nil, err
	}
	if err := assert.Gt[float32]("fbfx csinwave run time", 0, raw.RunTime, r.Prev+96); err != nil {
		return nil, err
	}
	runTime := raw.RunTime
	if err := assert.FlagsRaw[uint16]("fbfx csinwave flags", uint16(fbfxFlagsValid), raw.Flags, r.Prev); err != nil {
		return nil, err
	}

	var atNode *string
	atNodePos := Vec3{}
	if raw.Flags&uint16(FbfxAtNode) != 0 {
		n, err := l.resolveNode(uint32(raw.NodeIndex), r.Prev+2)
		if err != nil {
			return nil, err
		}
		atNode = &n
		atNodePos = raw.Translate
	} else if raw.NodeIndex != 0 || raw.Translate != (Vec3{}) {
		return nil, merr.Protocolf("expected fbfx csinwave node/translate DEFAULT (at %d)", r.Prev+2)
	}

	var screenPos *FbfxCsinwaveScreenPos
	if raw.Flags&uint16(FbfxScreenPos) != 0 {
		if err := checkFloatFromToDelta("fbfx csinwave screen x", raw.ScreenX, runTime, r.Prev+24); err != nil {
			return nil, err
		}
		if err := checkFloatFromToDelta("fbfx csinwave screen y", raw.ScreenY, runTime, r.Prev+36); err != nil {
			return nil, err
		}
		screenPos = &FbfxCsinwaveScreenPos{
			X: FloatFromTo{From: raw.ScreenX.From, To: raw.ScreenX.To},
			Y: FloatFromTo{From: raw.ScreenY.From, To: raw.ScreenY.To},
		}
	} else if raw.ScreenX != (floatFromToC{}) || raw.ScreenY != (floatFromToC{}) {
		return nil, merr.Protocolf("expected fbfx csinwave screen pos DEFAULT (at %d)", r.Prev+16)
	}

	var worldRadius *FloatFromTo
	if raw.Flags&uint16(FbfxWorldRadius) != 0 {
		worldRadius = &FloatFromTo{From: raw.WorldRadiusFrom, To: raw.WorldRadiusTo}
	} else if raw.WorldRadiusFrom != 0 || raw.WorldRadiusTo != 0 {
		return nil, merr.Protocolf("expected fbfx csinwave world radius DEFAULT (at %d)", r.Prev+40)
	}

	var screenRadius *FloatFromTo
	if raw.Flags&uint16(FbfxScreenRadius) != 0 {
		if err := checkFloatFromToDelta("fbfx csinwave screen radius", raw.ScreenRadius, runTime, r.Prev+56); err != nil {
			return nil, err
		}
		screenRadius = &FloatFromTo{From: raw.ScreenRadius.From, To: raw.ScreenRadius.To}
	} else if raw.ScreenRadius != (floatFromToC{}) {
		return nil, merr.Protocolf("expected fbfx csinwave screen radius DEFAULT (at %d)", r.Prev+48)
	}

	if err := checkFloatFromToDelta("fbfx csinwave csin x", raw.CsinX, runTime, r.Prev+68); err != nil {
		return nil, err
	}
	if err := checkFloatFromToDelta("fbfx csinwave csin y", raw.CsinY, runTime, r.Prev+80); err != nil {
		return nil, err
	}
	if err := checkFloatFromToDelta("fbfx csinwave csin z", raw.CsinZ, runTime, r.Prev+92); err != nil {
		return nil, err
	}
	csin := FbfxCsinwaveCsin{
		X: FloatFromTo{From: raw.CsinX.From, To: raw.CsinX.To},
		Y: FloatFromTo{From: raw.CsinY.From, To: raw.CsinY.To},
		Z: FloatFromTo{From: raw.CsinZ.From, To: raw.CsinZ.To},
	}

	return FbfxCsinwaveFromTo{
		AtNode: atNode, AtNodePos: atNodePos, ScreenPos: screenPos,
		WorldRadius: worldRadius, ScreenRadius: screenRadius, Csin: csin, RunTime: runTime,
	}, nil
}

func checkFloatFromToDelta(name string, v floatFromToC, runTime float32, offset uint32) error {
	return assert.Eq[float32](name+" delta", delta(v.From, v.To, runTime), v.Delta, offset)
}

func (fbfxCodec) write(w *stream.Writer, l Lookup, data Data) error {
	f := data.(FbfxCsinwaveFromTo)
	var flags uint16
	var nodeIndex uint16
	translate := Vec3{}
	if f.AtNode != nil {
		flags |= uint16(FbfxAtNode)
		idx, err := l.unresolveNode(*f.AtNode)
		if err != nil {
			return err
		}
		nodeIndex = uint16(idx)
		translate = f.AtNodePos
	}
	screenX, screenY := floatFromToC{}, floatFromToC{}
	if f.ScreenPos != nil {
		flags |= uint16(FbfxScreenPos)
		screenX = floatFromToC{From: f.ScreenPos.X.From, To: f.ScreenPos.X.To, Delta: delta(f.ScreenPos.X.From, f.ScreenPos.X.To, f.RunTime)}
		screenY = floatFromToC{From: f.ScreenPos.Y.From, To: f.ScreenPos.Y.To, Delta: delta(f.ScreenPos.Y.From, f.ScreenPos.Y.To, f.RunTime)}
	}
	worldFrom, worldTo := float32(0), float32(0)
	if f.WorldRadius != nil {
		flags |= uint16(FbfxWorldRadius)
		worldFrom, worldTo = f.WorldRadius.From, f.WorldRadius.To
	}
	screenRadius := floatFromToC{}
	if f.ScreenRadius != nil {
		flags |= uint16(FbfxScreenRadius)
		screenRadius = floatFromToC{From: f.ScreenRadius.From, To: f.ScreenRadius.To, Delta: delta(f.ScreenRadius.From, f.ScreenRadius.To, f.RunTime)}
	}
	csinX := floatFromToC{From: f.Csin.X.From, To: f.Csin.X.To, Delta: delta(f.Csin.X.From, f.Csin.X.To, f.RunTime)}
	csinY := floatFromToC{From: f.Csin.Y.From, To: f.Csin.Y.To, Delta: delta(f.Csin.Y.From, f.Csin.Y.To, f.RunTime)}
	csinZ := floatFromToC{From: f.Csin.Z.From, To: f.Csin.Z.To, Delta: delta(f.Csin.Z.From, f.Csin.Z.To, f.RunTime)}

	raw := fbFxCsinwaveFromToC{
		Flags: flags, NodeIndex: nodeIndex, Translate: translate,
		ScreenX: screenX, ScreenY: screenY,
		WorldRadiusFrom: worldFrom, WorldRadiusTo: worldTo,
		ScreenRadius: screenRadius, CsinX: csinX, CsinY: csinY, CsinZ: csinZ,
		RunTime: f.RunTime,
	}
	return w.WriteStruct(&raw)
}

func init() {
	register(fbfxCodec{})
}

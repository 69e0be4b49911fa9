package animevent

import (
	"github.com/TerranMechworks/mech3ax-sub002/game"
	"github.com/TerranMechworks/mech3ax-sub002/internal/assert"
	"github.com/TerranMechworks/mech3ax-sub002/internal/merr"
	"github.com/TerranMechworks/mech3ax-sub002/stream"
)

// TranslateData and ScaleData carry a per-frame keyframe plus a 4-byte
// slot (e12_object_motion_si_script/rc.rs's TranslateDataC/ScaleDataC)
// whose own assertion against zero is commented out in the original: the
// field holds uninitialized bytes that must still round-trip verbatim,
// so it is preserved as Garbage rather than validated.
type TranslateData struct {
	Base, Delta Vec3
	Garbage     uint32
}

type RotateData struct {
	Base  Quaternion
	Delta Vec3
}

type ScaleData struct {
	Base, Delta Vec3
	Garbage     uint32
}

// ObjectMotionSiFrame is one keyframe of a script's motion, grounded on
// e12_object_motion_si_script/rc.rs's FrameC plus its conditional
// Translate/Rotate/Scale data blocks.
type ObjectMotionSiFrame struct {
	StartTime, EndTime float32
	Translate          *TranslateData
	Rotate             *RotateData
	Scale              *ScaleData
}

// ObjectMotionSiScript drives a node through a baked keyframe script
// (spec.md section 4.9; e12_object_motion_si_script/rc.rs). The original
// stores a script's frames in a table owned by the anim-def and
// references it here by index; that table is a layer above the
// event-stream codec (see CallAnimation's NodeIndex for the same kind of
// scope boundary), so this port inlines the frame data directly in the
// event instead of threading an external mutable script list through
// Lookup — every field ends up on the neutral tree either way, and a
// script referenced by more than one event (not observed in the
// retrieved source) would simply be duplicated rather than shared.
type ObjectMotionSiScript struct {
	Name   string
	Frames []ObjectMotionSiFrame
}

func (ObjectMotionSiScript) Kind() EventType { return EvObjectMotionSiScript }

type siScriptHeaderC struct {
	NodeIndex  uint32
	FrameCount uint32
	ScriptTime float32
	ScriptPos  uint32
	FrameIndex uint32
}

type siFrameC struct {
	Flags     uint32
	StartTime float32
	EndTime   float32
}

type siTranslateC struct {
	Base    Vec3
	Garbage uint32
	Delta   Vec3
}

type siRotateC struct {
	Base  Quaternion
	Delta Vec3
}

type siScaleC struct {
	Base    Vec3
	Garbage uint32
	Delta   Vec3
}

const (
	siFrameTranslate uint32 = 1 << 0
	siFrameRotate    uint32 = 1 << 1
	siFrameScale     uint32 = 1 << 2
	siFrameFlagsValid       = siFrameTranslate | siFrameRotate | siFrameScale
)

type objectMotionSiScriptCodec struct{}

func (objectMotionSiScriptCodec) kind() EventType { return EvObjectMotionSiScript }

// validFor is RC-only: the retrieval pack's e12 directory carried only
// rc.rs, with the MW variant's spline tables (v0..v6) left commented out
// — see DESIGN.md.
func (objectMotionSiScriptCodec) validFor(v game.Variant) bool { return v == game.RC }

func (objectMotionSiScriptCodec) size(l Lookup, data Data) (uint32, error) {
	s := data.(ObjectMotionSiScript)
	total := uint32(20)
	for _, f := range s.Frames {
		total += 12
		if f.Translate != nil {
			total += 28
		}
		if f.Rotate != nil {
			total += 28
		}
		if f.Scale != nil {
			total += 28
		}
	}
	return total, nil
}

func (objectMotionSiScriptCodec) read(r *stream.Reader, l Lookup, payloadSize uint32) (Data, error) {
	start := r.Offset
	if payloadSize < 20 {
		return nil, merr.Protocolf("object motion si script payload too small: %d (at %d)", payloadSize, start)
	}
	var hdr siScriptHeaderC
	if err := r.ReadStruct(&hdr, 20); err != nil {
		return nil, err
	}
	name, err := l.resolveNode(hdr.NodeIndex, r.Prev)
	if err != nil {
		return nil, err
	}
	if err := assert.Eq[float32]("object motion si script time", 0, hdr.ScriptTime, r.Prev+8); err != nil {
		return nil, err
	}
	if err := assert.Eq[uint32]("object motion si script pos", 0, hdr.ScriptPos, r.Prev+12); err != nil {
		return nil, err
	}
	if err := assert.Eq[uint32]("object motion si script frame index", 0, hdr.FrameIndex, r.Prev+16); err != nil {
		return nil, err
	}

	end := start + payloadSize
	frames := make([]ObjectMotionSiFrame, 0, hdr.FrameCount)
	for i := uint32(0); i < hdr.FrameCount; i++ {
		frame, err := readSiFrame(r)
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
	}
	if r.Offset != end {
		return nil, merr.Protocolf("object motion si script overran its bound: at %d, expected %d", r.Offset, end)
	}
	return ObjectMotionSiScript{Name: name, Frames: frames}, nil
}

func readSiFrame(r *stream.Reader) (ObjectMotionSiFrame, error) {
	var raw siFrameC
	if err := r.ReadStruct(&raw, 12); err != nil {
		return ObjectMotionSiFrame{}, err
	}
	if err := assert.FlagsRaw[uint32]("object motion si frame flags", siFrameFlagsValid, raw.Flags, r.Prev); err != nil {
		return ObjectMotionSiFrame{}, err
	}
	f := ObjectMotionSiFrame{StartTime: raw.StartTime, EndTime: raw.EndTime}
	if raw.Flags&siFrameTranslate != 0 {
		var t siTranslateC
		if err := r.ReadStruct(&t, 28); err != nil {
			return ObjectMotionSiFrame{}, err
		}
		f.Translate = &TranslateData{Base: t.Base, Delta: t.Delta, Garbage: t.Garbage}
	}
	if raw.Flags&siFrameRotate != 0 {
		var rt siRotateC
		if err := r.ReadStruct(&rt, 28); err != nil {
			return ObjectMotionSiFrame{}, err
		}
		f.Rotate = &RotateData{Base: rt.Base, Delta: rt.Delta}
	}
	if raw.Flags&siFrameScale != 0 {
		var sc siScaleC
		if err := r.ReadStruct(&sc, 28); err != nil {
			return ObjectMotionSiFrame{}, err
		}
		f.Scale = &ScaleData{Base: sc.Base, Delta: sc.Delta, Garbage: sc.Garbage}
	}
	return f, nil
}

func (objectMotionSiScriptCodec) write(w *stream.Writer, l Lookup, data Data) error {
	s := data.(ObjectMotionSiScript)
	nodeIndex, err := l.unresolveNode(s.Name)
	if err != nil {
		return err
	}
	hdr := siScriptHeaderC{
		NodeIndex: nodeIndex, FrameCount: uint32(len(s.Frames)),
		ScriptTime: 0, ScriptPos: 0, FrameIndex: 0,
	}
	if err := w.WriteStruct(&hdr); err != nil {
		return err
	}
	for _, f := range s.Frames {
		if err := writeSiFrame(w, f); err != nil {
			return err
		}
	}
	return nil
}

func writeSiFrame(w *stream.Writer, f ObjectMotionSiFrame) error {
	var flags uint32
	if f.Translate != nil {
		flags |= siFrameTranslate
	}
	if f.Rotate != nil {
		flags |= siFrameRotate
	}
	if f.Scale != nil {
		flags |= siFrameScale
	}
	raw := siFrameC{Flags: flags, StartTime: f.StartTime, EndTime: f.EndTime}
	if err := w.WriteStruct(&raw); err != nil {
		return err
	}
	if f.Translate != nil {
		t := siTranslateC{Base: f.Translate.Base, Garbage: f.Translate.Garbage, Delta: f.Translate.Delta}
		if err := w.WriteStruct(&t); err != nil {
			return err
		}
	}
	if f.Rotate != nil {
		rt := siRotateC{Base: f.Rotate.Base, Delta: f.Rotate.Delta}
		if err := w.WriteStruct(&rt); err != nil {
			return err
		}
	}
	if f.Scale != nil {
		sc := siScaleC{Base: f.Scale.Base, Garbage: f.Scale.Garbage, Delta: f.Scale.Delta}
		if err := w.WriteStruct(&sc); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	register(objectMotionSiScriptCodec{})
}

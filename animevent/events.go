package animevent

import (
	"github.com/TerranMechworks/mech3ax-sub002/game"
	"github.com/TerranMechworks/mech3ax-sub002/internal/assert"
	"github.com/TerranMechworks/mech3ax-sub002/internal/merr"
	"github.com/TerranMechworks/mech3ax-sub002/stream"
	"github.com/TerranMechworks/mech3ax-sub002/types"
)

// CallAnimationFlags, grounded on e24_call_animation.rs.
type CallAnimationFlags uint16

const (
	CallAtNode              CallAnimationFlags = 1 << 0
	CallPosition            CallAnimationFlags = 1 << 1
	CallTranslate           CallAnimationFlags = 1 << 2
	CallWithNode            CallAnimationFlags = 1 << 3
	CallWaitForCompletion   CallAnimationFlags = 1 << 4
	callAnimationFlagsValid                    = CallAtNode | CallPosition | CallTranslate | CallWithNode | CallWaitForCompletion
)

// CallAnimation invokes another animation, optionally relative to a node
// (spec.md section 4.9; e24_call_animation.rs). Node/wait-for-completion
// indices are kept raw (not resolved to names) here: resolving them
// needs the owning anim-def's 16-bit-width INPUT_NODE sentinel and
// animation-reference table, which is a higher-level concern than the
// event-stream codec itself and is not reconstructable from the
// retrieved source (only the 32-bit Idx32 sentinel made it into the
// pack) — see DESIGN.md.
type CallAnimation struct {
	Name              string
	OperandIndex      int16
	AtNode            bool
	WithNode          bool
	NodeIndex         int16
	Position          *Vec3
	Translate         *Vec3
	WaitForCompletion *int16
}

func (CallAnimation) Kind() EventType { return EvCallAnimation }

type callAnimationC struct {
	AnimName          [32]byte
	OperandIndex      int16
	Flags             uint16
	AnimIndex         int16
	WaitForCompletion int16
	NodeIndex         int16
	Pad42             uint16
	Position          Vec3
	Translate         Vec3
}

type callAnimationCodec struct{ isRC bool }

func (c callAnimationCodec) kind() EventType { return EvCallAnimation }

func (c callAnimationCodec) validFor(v game.Variant) bool {
	if c.isRC {
		return v == game.RC
	}
	return v == game.MW || v == game.PM
}

func (callAnimationCodec) size(l Lookup, data Data) (uint32, error) { return 68, nil }

func (c callAnimationCodec) read(r *stream.Reader, l Lookup, payloadSize uint32) (Data, error) {
	if err := assert.Eq[uint32]("call animation size", 68, payloadSize, r.Offset); err != nil {
		return nil, err
	}
	var raw callAnimationC
	if err := r.ReadStruct(&raw, 68); err != nil {
		return nil, err
	}
	name, err := types.AsciiToStrPadded(raw.AnimName[:])
	if err != nil {
		return nil, err
	}
	if err := assert.Eq[int16]("call animation anim index", 0, raw.AnimIndex, r.Prev+36); err != nil {
		return nil, err
	}
	flags := raw.Flags
	if err := assert.FlagsRaw[uint16]("call animation flags", uint16(callAnimationFlagsValid), flags, r.Prev+34); err != nil {
		return nil, err
	}

	var position *Vec3
	if flags&uint16(CallPosition) != 0 {
		p := raw.Position
		position = &p
	} else if raw.Position != (Vec3{}) {
		return nil, merr.Protocolf("expected call animation position DEFAULT, but was %v (at %d)", raw.Position, r.Prev+44)
	}

	var translate *Vec3
	if flags&uint16(CallTranslate) != 0 {
		t := raw.Translate
		translate = &t
	} else if raw.Translate != (Vec3{}) {
		return nil, merr.Protocolf("expected call animation translate DEFAULT, but was %v (at %d)", raw.Translate, r.Prev+56)
	}

	atNode := flags&uint16(CallAtNode) != 0
	withNode := flags&uint16(CallWithNode) != 0
	if atNode && withNode {
		return nil, merr.Protocolf("call animation AT_NODE and WITH_NODE are mutually exclusive (at %d)", r.Prev+34)
	}
	if withNode && translate != nil {
		return nil, merr.Protocolf("call animation WITH_NODE precludes TRANSLATE (at %d)", r.Prev+34)
	}
	if !atNode && !withNode && raw.NodeIndex != 0 {
		return nil, merr.Protocolf("expected call animation node index 0, but was %d (at %d)", raw.NodeIndex, r.Prev+40)
	}

	hasWaitFor := raw.WaitForCompletion > -1
	if !c.isRC {
		hasWaitFor = flags&uint16(CallWaitForCompletion) != 0
	}
	var waitFor *int16
	if hasWaitFor {
		w := raw.WaitForCompletion
		waitFor = &w
	} else if raw.WaitForCompletion != -1 {
		return nil, merr.Protocolf("expected call animation wait for -1, but was %d (at %d)", raw.WaitForCompletion, r.Prev+38)
	}

	if err := assert.Eq[uint16]("call animation node field 42", 0, raw.Pad42, r.Prev+42); err != nil {
		return nil, err
	}

	return CallAnimation{
		Name: name, OperandIndex: raw.OperandIndex,
		AtNode: atNode, WithNode: withNode, NodeIndex: raw.NodeIndex,
		Position: position, Translate: translate, WaitForCompletion: waitFor,
	}, nil
}

func (c callAnimationCodec) write(w *stream.Writer, l Lookup, data Data) error {
	ca := data.(CallAnimation)
	var nameBuf [32]byte
	types.AsciiFromStrPadded(nameBuf[:], ca.Name)

	var flags uint16
	if ca.AtNode {
		flags |= uint16(CallAtNode)
	}
	if ca.WithNode {
		flags |= uint16(CallWithNode)
	}
	position := Vec3{}
	if ca.Position != nil {
		flags |= uint16(CallPosition)
		position = *ca.Position
	}
	translate := Vec3{}
	if ca.Translate != nil {
		flags |= uint16(CallTranslate)
		translate = *ca.Translate
	}
	waitFor := int16(-1)
	if ca.WaitForCompletion != nil {
		waitFor = *ca.WaitForCompletion
		if !c.isRC {
			flags |= uint16(CallWaitForCompletion)
		}
	}

	raw := callAnimationC{
		AnimName: nameBuf, OperandIndex: ca.OperandIndex, Flags: flags, AnimIndex: 0,
		WaitForCompletion: waitFor, NodeIndex: ca.NodeIndex, Pad42: 0,
		Position: position, Translate: translate,
	}
	return w.WriteStruct(&raw)
}

// ObjectMotionFromToFlags, grounded on e11_object_motion_from_to.rs.
type ObjectMotionFromToFlags uint32

const (
	MotionTranslate ObjectMotionFromToFlags = 1 << 0
	MotionRotate    ObjectMotionFromToFlags = 1 << 1
	MotionScale     ObjectMotionFromToFlags = 1 << 2
	MotionMorph     ObjectMotionFromToFlags = 1 << 3
	motionFlagsValid = MotionTranslate | MotionRotate | MotionScale | MotionMorph
)

type Vec3FromTo struct{ From, To Vec3 }

type FloatFromTo struct{ From, To float32 }

// ObjectMotionFromTo linearly interpolates a node's transform between
// two keyframes over RunTime seconds (spec.md section 4.9;
// e11_object_motion_from_to.rs). Every optional axis stores an explicit
// *Delta override only when the stored on-disk delta disagreed with the
// recomputed rate (the original logs and keeps the on-disk value rather
// than failing, since this mismatch is known to occur).
type ObjectMotionFromTo struct {
	Name    string
	RunTime float32

	Morph *FloatFromTo

	Translate      *Vec3FromTo
	TranslateDelta *Vec3

	Rotate      *Vec3FromTo
	RotateDelta *Vec3

	Scale      *Vec3FromTo
	ScaleDelta *Vec3
}

func (ObjectMotionFromTo) Kind() EventType { return EvObjectMotionFromTo }

type objectMotionFromToC struct {
	Flags          uint32
	NodeIndex      uint32
	MorphFrom      float32
	MorphTo        float32
	MorphDelta     float32
	TranslateFrom  Vec3
	TranslateTo    Vec3
	TranslateDelta Vec3
	RotateFrom     Vec3
	RotateTo       Vec3
	RotateDelta    Vec3
	ScaleFrom      Vec3
	ScaleTo        Vec3
	ScaleDelta     Vec3
	RunTime        float32
}

type objectMotionFromToCodec struct{}

func (objectMotionFromToCodec) kind() EventType          { return EvObjectMotionFromTo }
func (objectMotionFromToCodec) validFor(game.Variant) bool { return true }
func (objectMotionFromToCodec) size(Lookup, Data) (uint32, error) { return 132, nil }

func (objectMotionFromToCodec) read(r *stream.Reader, l Lookup, payloadSize uint32) (Data, error) {
	if err := assert.Eq[uint32]("object motion from to size", 132, payloadSize, r.Offset); err != nil {
		return nil, err
	}
	var raw objectMotionFromToC
	if err := r.ReadStruct(&raw, 132); err != nil {
		return nil, err
	}
	if err := assert.Gt[float32]("object motion from to run time", 0, raw.RunTime, r.Prev+128); err != nil {
		return nil, err
	}
	runTime := raw.RunTime
	if err := assert.FlagsRaw[uint32]("object motion from to flags", uint32(motionFlagsValid), raw.Flags, r.Prev); err != nil {
		return nil, err
	}
	name, err := l.resolveNode(raw.NodeIndex, r.Prev+4)
	if err != nil {
		return nil, err
	}

	var morph *FloatFromTo
	if raw.Flags&uint32(MotionMorph) != 0 {
		if err := assert.InRange[float32]("object motion from to morph from", 0, 1, raw.MorphFrom, r.Prev+8); err != nil {
			return nil, err
		}
		if err := assert.InRange[float32]("object motion from to morph to", 0, 1, raw.MorphTo, r.Prev+12); err != nil {
			return nil, err
		}
		if err := assert.Eq[float32]("object motion from to morph delta", delta(raw.MorphFrom, raw.MorphTo, runTime), raw.MorphDelta, r.Prev+16); err != nil {
			return nil, err
		}
		morph = &FloatFromTo{From: raw.MorphFrom, To: raw.MorphTo}
	} else {
		if raw.MorphFrom != 0 || raw.MorphTo != 0 || raw.MorphDelta != 0 {
			return nil, merr.Protocolf("expected object motion from to morph fields zero (at %d)", r.Prev+8)
		}
	}

	translate, translateDelta, err := readMotionAxis(raw.Flags, uint32(MotionTranslate), raw.TranslateFrom, raw.TranslateTo, raw.TranslateDelta, runTime)
	if err != nil {
		return nil, err
	}
	rotate, rotateDelta, err := readMotionAxis(raw.Flags, uint32(MotionRotate), raw.RotateFrom, raw.RotateTo, raw.RotateDelta, runTime)
	if err != nil {
		return nil, err
	}
	scale, scaleDelta, err := readMotionAxis(raw.Flags, uint32(MotionScale), raw.ScaleFrom, raw.ScaleTo, raw.ScaleDelta, runTime)
	if err != nil {
		return nil, err
	}

	return ObjectMotionFromTo{
		Name: name, RunTime: runTime, Morph: morph,
		Translate: translate, TranslateDelta: translateDelta,
		Rotate: rotate, RotateDelta: rotateDelta,
		Scale: scale, ScaleDelta: scaleDelta,
	}, nil
}

func readMotionAxis(flags, bit uint32, from, to, onDiskDelta Vec3, runTime float32) (*Vec3FromTo, *Vec3, error) {
	if flags&bit == 0 {
		if from != (Vec3{}) || to != (Vec3{}) || onDiskDelta != (Vec3{}) {
			return nil, nil, merr.Protocolf("expected object motion from to axis DEFAULT")
		}
		return nil, nil, nil
	}
	computed := deltaVec3(from, to, runTime)
	var override *Vec3
	if computed != onDiskDelta {
		d := onDiskDelta
		override = &d
	}
	return &Vec3FromTo{From: from, To: to}, override, nil
}

func (objectMotionFromToCodec) write(w *stream.Writer, l Lookup, data Data) error {
	m := data.(ObjectMotionFromTo)
	var flags uint32
	if m.Translate != nil {
		flags |= uint32(MotionTranslate)
	}
	if m.Rotate != nil {
		flags |= uint32(MotionRotate)
	}
	if m.Scale != nil {
		flags |= uint32(MotionScale)
	}
	if m.Morph != nil {
		flags |= uint32(MotionMorph)
	}
	nodeIndex, err := l.unresolveNode(m.Name)
	if err != nil {
		return err
	}

	morphFrom, morphTo := float32(0), float32(0)
	if m.Morph != nil {
		morphFrom, morphTo = m.Morph.From, m.Morph.To
	}
	morphDelta := delta(morphFrom, morphTo, m.RunTime)

	translateFrom, translateTo := writeMotionAxis(m.Translate)
	translateDelta := resolveDelta(m.TranslateDelta, translateFrom, translateTo, m.RunTime)
	rotateFrom, rotateTo := writeMotionAxis(m.Rotate)
	rotateDelta := resolveDelta(m.RotateDelta, rotateFrom, rotateTo, m.RunTime)
	scaleFrom, scaleTo := writeMotionAxis(m.Scale)
	scaleDelta := resolveDelta(m.ScaleDelta, scaleFrom, scaleTo, m.RunTime)

	raw := objectMotionFromToC{
		Flags: flags, NodeIndex: nodeIndex,
		MorphFrom: morphFrom, MorphTo: morphTo, MorphDelta: morphDelta,
		TranslateFrom: translateFrom, TranslateTo: translateTo, TranslateDelta: translateDelta,
		RotateFrom: rotateFrom, RotateTo: rotateTo, RotateDelta: rotateDelta,
		ScaleFrom: scaleFrom, ScaleTo: scaleTo, ScaleDelta: scaleDelta,
		RunTime: m.RunTime,
	}
	return w.WriteStruct(&raw)
}

func writeMotionAxis(axis *Vec3FromTo) (from, to Vec3) {
	if axis == nil {
		return Vec3{}, Vec3{}
	}
	return axis.From, axis.To
}

func resolveDelta(override *Vec3, from, to Vec3, runTime float32) Vec3 {
	if override != nil {
		return *override
	}
	return deltaVec3(from, to, runTime)
}

// LightState sets a scene light's properties (spec.md section 4.9;
// e04_light_state/rc.rs). Grounded on the RC layout only; the
// retrieval pack's e04 directory carried only rc.rs, so this event is
// registered valid for RC alone — see DESIGN.md.
type LightState struct {
	Name        string
	// LightIndex is preserved verbatim rather than resolved via a
	// separate light-name table: that table belongs to the owning
	// anim-def, a layer above the event-stream codec itself.
	LightIndex   uint32
	ActiveState  bool
	Type         uint32
	Directional  *bool
	Saturated    *bool
	AtNode       *string
	TranslateAbs *Vec3
	Orientation  *Vec3
	Range        *Range
	Color        *Color
	Ambient      *float32
	Diffuse      *float32
}

func (LightState) Kind() EventType { return EvLightState }

type lightStateRcC struct {
	LightName   [32]byte
	LightIndex  uint32
	Flags       uint32
	ActiveState uint32
	Type        uint32
	Directional uint32
	Saturated   uint32
	NodeIndex   uint32
	Translate   Vec3
	Orientation Vec3
	Range       Range
	Color       Color
	Ambient     float32
	Diffuse     float32
}

const (
	lightTranslateAbs = 1 << 0
	lightAtNode       = 1 << 1
	lightOrientation  = 1 << 2
	lightRange        = 1 << 3
	lightColor        = 1 << 4
	lightAmbient      = 1 << 5
	lightDiffuse      = 1 << 6
	lightDirectional  = 1 << 7
	lightSaturated    = 1 << 8
	lightFlagsValid   = lightTranslateAbs | lightAtNode | lightOrientation | lightRange |
		lightColor | lightAmbient | lightDiffuse | lightDirectional | lightSaturated
)

type lightStateCodec struct{}

func (lightStateCodec) kind() EventType            { return EvLightState }
func (lightStateCodec) validFor(v game.Variant) bool { return v == game.RC }
func (lightStateCodec) size(Lookup, Data) (uint32, error) { return 112, nil }

func (lightStateCodec) read(r *stream.Reader, l Lookup, payloadSize uint32) (Data, error) {
	if err := assert.Eq[uint32]("light state size", 112, payloadSize, r.Offset); err != nil {
		return nil, err
	}
	var raw lightStateRcC
	if err := r.ReadStruct(&raw, 112); err != nil {
		return nil, err
	}
	name, err := types.AsciiToStrPadded(raw.LightName[:])
	if err != nil {
		return nil, err
	}
	if err := assert.FlagsRaw[uint32]("light state flags", lightFlagsValid, raw.Flags, r.Prev+36); err != nil {
		return nil, err
	}
	active, err := assert.BoolU32("light state active state", raw.ActiveState, r.Prev+40)
	if err != nil {
		return nil, err
	}
	if !active && raw.Flags != 0 {
		return nil, merr.Protocolf("expected light state flags empty when inactive (at %d)", r.Prev+36)
	}

	directional, err := optionalFlagBool("light state directional", raw.Flags, lightDirectional, raw.Directional, r.Prev+48)
	if err != nil {
		return nil, err
	}
	saturated, err := optionalFlagBool("light state saturated", raw.Flags, lightSaturated, raw.Saturated, r.Prev+52)
	if err != nil {
		return nil, err
	}

	var atNode *string
	var translateAbs *Vec3
	if raw.Flags&lightAtNode != 0 {
		n, err := l.resolveNode(raw.NodeIndex, r.Prev+56)
		if err != nil {
			return nil, err
		}
		atNode = &n
		t := raw.Translate
		translateAbs = &t
	} else if raw.Flags&lightTranslateAbs != 0 {
		if raw.NodeIndex != 0 {
			return nil, merr.Protocolf("expected light state node index 0, but was %d (at %d)", raw.NodeIndex, r.Prev+56)
		}
		t := raw.Translate
		translateAbs = &t
	} else {
		if raw.NodeIndex != 0 || raw.Translate != (Vec3{}) {
			return nil, merr.Protocolf("expected light state translation DEFAULT (at %d)", r.Prev+56)
		}
	}

	var orientation *Vec3
	if raw.Flags&lightOrientation != 0 {
		o := raw.Orientation
		orientation = &o
	} else if raw.Orientation != (Vec3{}) {
		return nil, merr.Protocolf("expected light state orientation DEFAULT (at %d)", r.Prev+72)
	}

	var rng *Range
	if raw.Flags&lightRange != 0 {
		rg := raw.Range
		rng = &rg
	} else if raw.Range != (Range{}) {
		return nil, merr.Protocolf("expected light state range DEFAULT (at %d)", r.Prev+84)
	}

	var color *Color
	if raw.Flags&lightColor != 0 {
		c := raw.Color
		color = &c
	} else if raw.Color != (Color{}) {
		return nil, merr.Protocolf("expected light state color BLACK (at %d)", r.Prev+92)
	}

	var ambient *float32
	if raw.Flags&lightAmbient != 0 {
		a := raw.Ambient
		ambient = &a
	} else if raw.Ambient != 0 {
		return nil, merr.Protocolf("expected light state ambient 0 (at %d)", r.Prev+104)
	}

	var diffuse *float32
	if raw.Flags&lightDiffuse != 0 {
		d := raw.Diffuse
		diffuse = &d
	} else if raw.Diffuse != 0 {
		return nil, merr.Protocolf("expected light state diffuse 0 (at %d)", r.Prev+108)
	}
	return LightState{
		Name: name, LightIndex: raw.LightIndex, ActiveState: active, Type: raw.Type,
		Directional: directional, Saturated: saturated,
		AtNode: atNode, TranslateAbs: translateAbs, Orientation: orientation,
		Range: rng, Color: color, Ambient: ambient, Diffuse: diffuse,
	}, nil
}

func optionalFlagBool(name string, flags, bit, raw uint32, offset uint32) (*bool, error) {
	if flags&bit != 0 {
		v, err := assert.BoolU32(name, raw, offset)
		if err != nil {
			return nil, err
		}
		return &v, nil
	}
	if raw != 0 {
		return nil, merr.Protocolf("expected %s false (at %d)", name, offset)
	}
	return nil, nil
}

func (lightStateCodec) write(w *stream.Writer, l Lookup, data Data) error {
	ls := data.(LightState)
	var nameBuf [32]byte
	types.AsciiFromStrPadded(nameBuf[:], ls.Name)

	var flags uint32
	var nodeIndex uint32
	translate := Vec3{}
	if ls.AtNode != nil {
		flags |= lightAtNode
		idx, err := l.unresolveNode(*ls.AtNode)
		if err != nil {
			return err
		}
		nodeIndex = idx
		if ls.TranslateAbs != nil {
			translate = *ls.TranslateAbs
		}
	} else if ls.TranslateAbs != nil {
		flags |= lightTranslateAbs
		translate = *ls.TranslateAbs
	}
	orientation := Vec3{}
	if ls.Orientation != nil {
		flags |= lightOrientation
		orientation = *ls.Orientation
	}
	rng := Range{}
	if ls.Range != nil {
		flags |= lightRange
		rng = *ls.Range
	}
	color := Color{}
	if ls.Color != nil {
		flags |= lightColor
		color = *ls.Color
	}
	ambient := float32(0)
	if ls.Ambient != nil {
		flags |= lightAmbient
		ambient = *ls.Ambient
	}
	diffuse := float32(0)
	if ls.Diffuse != nil {
		flags |= lightDiffuse
		diffuse = *ls.Diffuse
	}
	if ls.Directional != nil {
		flags |= lightDirectional
	}
	if ls.Saturated != nil {
		flags |= lightSaturated
	}

	raw := lightStateRcC{
		LightName: nameBuf, LightIndex: ls.LightIndex, Flags: flags,
		ActiveState: boolToU32(ls.ActiveState), Type: ls.Type,
		Directional: boolToU32(derefBool(ls.Directional)), Saturated: boolToU32(derefBool(ls.Saturated)),
		NodeIndex: nodeIndex, Translate: translate, Orientation: orientation,
		Range: rng, Color: color, Ambient: ambient, Diffuse: diffuse,
	}
	return w.WriteStruct(&raw)
}

func boolToU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func derefBool(b *bool) bool { return b != nil && *b }

func init() {
	register(callAnimationCodec{isRC: false})
	register(callAnimationCodec{isRC: true})
	register(objectMotionFromToCodec{})
	register(lightStateCodec{})
}

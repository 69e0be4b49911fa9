package animevent

import (
	"github.com/TerranMechworks/mech3ax-sub002/game"
	"github.com/TerranMechworks/mech3ax-sub002/internal/assert"
	"github.com/TerranMechworks/mech3ax-sub002/internal/merr"
	"github.com/TerranMechworks/mech3ax-sub002/stream"
	"github.com/TerranMechworks/mech3ax-sub002/types"
)

// PufferStateTexture is one slot of PufferState's fixed 6-entry texture
// table (e42_puffer_state/write.rs's make_textures).
type PufferStateTexture struct {
	Name    string
	RunTime *float32
}

// PufferState configures a particle "puffer" emitter (spec.md section
// 4.9; e42_puffer_state/write.rs). Only the write side of this event
// made it into the retrieval pack, as a builder function rather than a
// repr(C) struct: the field list, order and optional/default semantics
// below are grounded on that builder, but no byte offsets or flag bit
// values were retrievable, so PufferStateFlags' bit positions and this
// record's on-disk layout are reconstructed and self-consistent only —
// see DESIGN.md. Unlike gamez's node data blocks, an unresolvable
// PufferState layout does not block decoding every other file component,
// since it is one event kind among many in the stream.
type PufferState struct {
	Name  string
	Index uint32

	AtNode      *string
	Translate   *Vec3
	ActiveState *float32

	LocalVelocity      *Vec3
	WorldVelocity      *Vec3
	MinRandomVelocity  *Vec3
	MaxRandomVelocity  *Vec3
	WorldAcceleration  *Vec3

	IntervalType  *bool
	IntervalValue *float32

	SizeRange         *Range
	LifetimeRange     *Range
	StartAgeRange     *Range
	DeviationDistance *float32
	UnknownRange      *Range
	FadeRange         *Range

	Friction   *float32
	WindFactor *float32
	Number     *uint32
	Priority   *float32

	GrowthFactors []Range
	Textures      []PufferStateTexture
	Colors        []Color
}

func (PufferState) Kind() EventType { return EvPufferState }

const (
	pufferTranslateAbs      uint32 = 1 << 0
	pufferAtNode            uint32 = 1 << 1
	pufferActiveState       uint32 = 1 << 2
	pufferLocalVelocity     uint32 = 1 << 3
	pufferWorldVelocity     uint32 = 1 << 4
	pufferMinRandomVelocity uint32 = 1 << 5
	pufferMaxRandomVelocity uint32 = 1 << 6
	pufferIntervalType      uint32 = 1 << 7
	pufferIntervalValue     uint32 = 1 << 8
	pufferSizeRange         uint32 = 1 << 9
	pufferLifetimeRange     uint32 = 1 << 10
	pufferDeviationDistance uint32 = 1 << 11
	pufferFadeRange         uint32 = 1 << 12
	pufferGrowthFactors     uint32 = 1 << 13
	pufferTextures          uint32 = 1 << 14
	pufferStartAgeRange     uint32 = 1 << 15
	pufferWorldAcceleration uint32 = 1 << 16
	pufferFriction          uint32 = 1 << 17
	pufferColors            uint32 = 1 << 18
	pufferUnknownRange      uint32 = 1 << 19
	pufferWindFactor        uint32 = 1 << 20
	pufferNumber            uint32 = 1 << 21
	pufferPriority          uint32 = 1 << 22
	pufferFlagsValid               = pufferTranslateAbs | pufferAtNode | pufferActiveState |
		pufferLocalVelocity | pufferWorldVelocity | pufferMinRandomVelocity | pufferMaxRandomVelocity |
		pufferIntervalType | pufferIntervalValue | pufferSizeRange | pufferLifetimeRange |
		pufferDeviationDistance | pufferFadeRange | pufferGrowthFactors | pufferTextures |
		pufferStartAgeRange | pufferWorldAcceleration | pufferFriction | pufferColors |
		pufferUnknownRange | pufferWindFactor | pufferNumber | pufferPriority
)

type pufferCommonC struct {
	PufferName        [32]byte
	PufferIndex       uint32
	Flags             uint32
	NodeIndex         int32
	ActiveState       float32
	Translate         Vec3
	LocalVelocity     Vec3
	WorldVelocity     Vec3
	MinRandomVelocity Vec3
	MaxRandomVelocity Vec3
	WorldAcceleration Vec3
	IntervalType      uint32
	IntervalValue     float32
	SizeRange         Range
	LifetimeRange     Range
	StartAgeRange     Range
	DeviationDistance float32
	UnknownRange      Range
	FadeRange         Range
	Friction          float32
	WindFactor        float32
	Priority          float32
}

const pufferCommonSize = 184

type pufferTextureC struct {
	Name    [32]byte
	RunTime float32
}

type pufferTexturesC struct {
	HasRunTime uint32
	Textures   [6]pufferTextureC
}

const pufferTexturesSize = 220

type pufferColorsC struct {
	Count  uint32
	Colors [6]Color
}

const pufferColorsSize = 76

type pufferGrowthsC struct {
	Count   uint32
	Growths [6]Range
}

const pufferGrowthsSize = 52

const pufferNumberSize = 4

const pufferStateSize = pufferCommonSize + pufferTexturesSize + pufferColorsSize + pufferGrowthsSize + pufferNumberSize

type pufferStateCodec struct{}

func (pufferStateCodec) kind() EventType              { return EvPufferState }
func (pufferStateCodec) validFor(v game.Variant) bool { return true }
func (pufferStateCodec) size(Lookup, Data) (uint32, error) { return pufferStateSize, nil }

func (pufferStateCodec) read(r *stream.Reader, l Lookup, payloadSize uint32) (Data, error) {
	if err := assert.Eq[uint32]("puffer state size", pufferStateSize, payloadSize, r.Offset); err != nil {
		return nil, err
	}
	var raw pufferCommonC
	if err := r.ReadStruct(&raw, pufferCommonSize); err != nil {
		return nil, err
	}
	name, err := types.AsciiToStrPadded(raw.PufferName[:])
	if err != nil {
		return nil, err
	}
	if err := assert.FlagsRaw[uint32]("puffer state flags", pufferFlagsValid, raw.Flags, r.Prev+36); err != nil {
		return nil, err
	}
	flags := raw.Flags

	var atNode *string
	var translate *Vec3
	if flags&pufferAtNode != 0 {
		n, err := l.resolveNode(uint32(raw.NodeIndex), r.Prev+40)
		if err != nil {
			return nil, err
		}
		atNode = &n
		if flags&pufferTranslateAbs != 0 {
			t := raw.Translate
			translate = &t
		}
	} else if flags&pufferTranslateAbs != 0 {
		if raw.NodeIndex != -1 {
			return nil, merr.Protocolf("expected puffer state node index -1, but was %d (at %d)", raw.NodeIndex, r.Prev+40)
		}
		t := raw.Translate
		translate = &t
	} else {
		if raw.NodeIndex != -1 || raw.Translate != (Vec3{}) {
			return nil, merr.Protocolf("expected puffer state translation DEFAULT (at %d)", r.Prev+40)
		}
	}

	activeState, err := optionalFlagFloat("puffer state active state", flags, pufferActiveState, raw.ActiveState, r.Prev+44)
	if err != nil {
		return nil, err
	}
	localVelocity, err := optionalFlagVec3("puffer state local velocity", flags, pufferLocalVelocity, raw.LocalVelocity, r.Prev+60)
	if err != nil {
		return nil, err
	}
	worldVelocity, err := optionalFlagVec3("puffer state world velocity", flags, pufferWorldVelocity, raw.WorldVelocity, r.Prev+72)
	if err != nil {
		return nil, err
	}
	minRandomVelocity, err := optionalFlagVec3("puffer state min random velocity", flags, pufferMinRandomVelocity, raw.MinRandomVelocity, r.Prev+84)
	if err != nil {
		return nil, err
	}
	maxRandomVelocity, err := optionalFlagVec3("puffer state max random velocity", flags, pufferMaxRandomVelocity, raw.MaxRandomVelocity, r.Prev+96)
	if err != nil {
		return nil, err
	}
	worldAcceleration, err := optionalFlagVec3("puffer state world acceleration", flags, pufferWorldAcceleration, raw.WorldAcceleration, r.Prev+108)
	if err != nil {
		return nil, err
	}

	intervalType, err := optionalFlagBool("puffer state interval type", flags, pufferIntervalType, raw.IntervalType, r.Prev+120)
	if err != nil {
		return nil, err
	}
	intervalValue, err := optionalFlagFloat("puffer state interval value", flags, pufferIntervalValue, raw.IntervalValue, r.Prev+124)
	if err != nil {
		return nil, err
	}

	sizeRange, err := optionalFlagRange("puffer state size range", flags, pufferSizeRange, raw.SizeRange, r.Prev+128)
	if err != nil {
		return nil, err
	}
	lifetimeRange, err := optionalFlagRange("puffer state lifetime range", flags, pufferLifetimeRange, raw.LifetimeRange, r.Prev+136)
	if err != nil {
		return nil, err
	}
	startAgeRange, err := optionalFlagRange("puffer state start age range", flags, pufferStartAgeRange, raw.StartAgeRange, r.Prev+144)
	if err != nil {
		return nil, err
	}
	deviationDistance, err := optionalFlagFloat("puffer state deviation distance", flags, pufferDeviationDistance, raw.DeviationDistance, r.Prev+152)
	if err != nil {
		return nil, err
	}
	unknownRange, err := optionalFlagRange("puffer state unknown range", flags, pufferUnknownRange, raw.UnknownRange, r.Prev+156)
	if err != nil {
		return nil, err
	}
	fadeRange, err := optionalFlagRange("puffer state fade range", flags, pufferFadeRange, raw.FadeRange, r.Prev+164)
	if err != nil {
		return nil, err
	}
	friction, err := optionalFlagFloat("puffer state friction", flags, pufferFriction, raw.Friction, r.Prev+172)
	if err != nil {
		return nil, err
	}
	windFactor, err := optionalFlagFloat("puffer state wind factor", flags, pufferWindFactor, raw.WindFactor, r.Prev+176)
	if err != nil {
		return nil, err
	}
	priority, err := optionalFlagFloat("puffer state priority", flags, pufferPriority, raw.Priority, r.Prev+180)
	if err != nil {
		return nil, err
	}

	var textures pufferTexturesC
	if err := r.ReadStruct(&textures, pufferTexturesSize); err != nil {
		return nil, err
	}
	texSlots, err := decodePufferTextures(flags, textures, r.Prev)
	if err != nil {
		return nil, err
	}

	var colors pufferColorsC
	if err := r.ReadStruct(&colors, pufferColorsSize); err != nil {
		return nil, err
	}
	colorSlots, err := decodePufferColors(flags, colors, r.Prev)
	if err != nil {
		return nil, err
	}

	var growths pufferGrowthsC
	if err := r.ReadStruct(&growths, pufferGrowthsSize); err != nil {
		return nil, err
	}
	growthSlots, err := decodePufferGrowths(flags, growths, r.Prev)
	if err != nil {
		return nil, err
	}

	var numberRaw uint32
	if err := r.ReadStruct(&numberRaw, pufferNumberSize); err != nil {
		return nil, err
	}
	var number *uint32
	if flags&pufferNumber != 0 {
		n := numberRaw
		number = &n
	} else if numberRaw != 0 {
		return nil, merr.Protocolf("expected puffer state number 0, but was %d (at %d)", numberRaw, r.Prev)
	}

	return PufferState{
		Name: name, Index: raw.PufferIndex,
		AtNode: atNode, Translate: translate, ActiveState: activeState,
		LocalVelocity: localVelocity, WorldVelocity: worldVelocity,
		MinRandomVelocity: minRandomVelocity, MaxRandomVelocity: maxRandomVelocity,
		WorldAcceleration: worldAcceleration,
		IntervalType:      intervalType, IntervalValue: intervalValue,
		SizeRange: sizeRange, LifetimeRange: lifetimeRange, StartAgeRange: startAgeRange,
		DeviationDistance: deviationDistance, UnknownRange: unknownRange, FadeRange: fadeRange,
		Friction: friction, WindFactor: windFactor, Number: number, Priority: priority,
		GrowthFactors: growthSlots, Textures: texSlots, Colors: colorSlots,
	}, nil
}

func optionalFlagFloat(name string, flags, bit uint32, raw float32, offset uint32) (*float32, error) {
	if flags&bit != 0 {
		v := raw
		return &v, nil
	}
	if raw != 0 {
		return nil, merr.Protocolf("expected %s 0, but was %v (at %d)", name, raw, offset)
	}
	return nil, nil
}

func optionalFlagVec3(name string, flags, bit uint32, raw Vec3, offset uint32) (*Vec3, error) {
	if flags&bit != 0 {
		v := raw
		return &v, nil
	}
	if raw != (Vec3{}) {
		return nil, merr.Protocolf("expected %s DEFAULT, but was %v (at %d)", name, raw, offset)
	}
	return nil, nil
}

func optionalFlagRange(name string, flags, bit uint32, raw Range, offset uint32) (*Range, error) {
	if flags&bit != 0 {
		v := raw
		return &v, nil
	}
	if raw != (Range{}) {
		return nil, merr.Protocolf("expected %s DEFAULT, but was %v (at %d)", name, raw, offset)
	}
	return nil, nil
}

func decodePufferTextures(flags uint32, raw pufferTexturesC, offset uint32) ([]PufferStateTexture, error) {
	if flags&pufferTextures == 0 {
		if raw.HasRunTime != 0 {
			return nil, merr.Protocolf("expected puffer state texture has_run_time 0 (at %d)", offset)
		}
		for _, t := range raw.Textures {
			name, err := types.AsciiToStrPadded(t.Name[:])
			if err != nil {
				return nil, err
			}
			if name != "" || t.RunTime != 0 {
				return nil, merr.Protocolf("expected puffer state texture slot empty (at %d)", offset)
			}
		}
		return nil, nil
	}
	hasRunTime, err := assert.BoolU32("puffer state texture has_run_time", raw.HasRunTime, offset)
	if err != nil {
		return nil, err
	}
	var textures []PufferStateTexture
	for _, t := range raw.Textures {
		name, err := types.AsciiToStrPadded(t.Name[:])
		if err != nil {
			return nil, err
		}
		if name == "" {
			if t.RunTime != 0 {
				return nil, merr.Protocolf("expected puffer state texture run_time 0 for empty slot (at %d)", offset)
			}
			continue
		}
		tex := PufferStateTexture{Name: name}
		if hasRunTime {
			rt := t.RunTime
			tex.RunTime = &rt
		} else if t.RunTime != 0 {
			return nil, merr.Protocolf("expected puffer state texture run_time 0 (at %d)", offset)
		}
		textures = append(textures, tex)
	}
	return textures, nil
}

func decodePufferColors(flags uint32, raw pufferColorsC, offset uint32) ([]Color, error) {
	if flags&pufferColors == 0 {
		if raw.Count != 0 {
			return nil, merr.Protocolf("expected puffer state color count 0, but was %d (at %d)", raw.Count, offset)
		}
		for _, c := range raw.Colors {
			if c != (Color{}) {
				return nil, merr.Protocolf("expected puffer state color slot BLACK (at %d)", offset)
			}
		}
		return nil, nil
	}
	if err := assert.Le[uint32]("puffer state color count", 6, raw.Count, offset); err != nil {
		return nil, err
	}
	colors := make([]Color, raw.Count)
	copy(colors, raw.Colors[:raw.Count])
	for _, c := range raw.Colors[raw.Count:] {
		if c != (Color{}) {
			return nil, merr.Protocolf("expected puffer state unused color slot BLACK (at %d)", offset)
		}
	}
	return colors, nil
}

func decodePufferGrowths(flags uint32, raw pufferGrowthsC, offset uint32) ([]Range, error) {
	if flags&pufferGrowthFactors == 0 {
		if raw.Count != 0 {
			return nil, merr.Protocolf("expected puffer state growth count 0, but was %d (at %d)", raw.Count, offset)
		}
		for _, g := range raw.Growths {
			if g != (Range{}) {
				return nil, merr.Protocolf("expected puffer state growth slot DEFAULT (at %d)", offset)
			}
		}
		return nil, nil
	}
	if err := assert.Le[uint32]("puffer state growth count", 6, raw.Count, offset); err != nil {
		return nil, err
	}
	growths := make([]Range, raw.Count)
	copy(growths, raw.Growths[:raw.Count])
	for _, g := range raw.Growths[raw.Count:] {
		if g != (Range{}) {
			return nil, merr.Protocolf("expected puffer state unused growth slot DEFAULT (at %d)", offset)
		}
	}
	return growths, nil
}

func (pufferStateCodec) write(w *stream.Writer, l Lookup, data Data) error {
	p := data.(PufferState)
	var nameBuf [32]byte
	types.AsciiFromStrPadded(nameBuf[:], p.Name)

	var flags uint32
	nodeIndex := int32(-1)
	translate := Vec3{}
	if p.AtNode != nil {
		flags |= pufferAtNode
		idx, err := l.unresolveNode(*p.AtNode)
		if err != nil {
			return err
		}
		nodeIndex = int32(idx)
		if p.Translate != nil {
			flags |= pufferTranslateAbs
			translate = *p.Translate
		}
	} else if p.Translate != nil {
		flags |= pufferTranslateAbs
		translate = *p.Translate
	}

	activeState := writeOptFloat(&flags, pufferActiveState, p.ActiveState)
	localVelocity := writeOptVec3(&flags, pufferLocalVelocity, p.LocalVelocity)
	worldVelocity := writeOptVec3(&flags, pufferWorldVelocity, p.WorldVelocity)
	minRandomVelocity := writeOptVec3(&flags, pufferMinRandomVelocity, p.MinRandomVelocity)
	maxRandomVelocity := writeOptVec3(&flags, pufferMaxRandomVelocity, p.MaxRandomVelocity)
	worldAcceleration := writeOptVec3(&flags, pufferWorldAcceleration, p.WorldAcceleration)
	if p.IntervalType != nil {
		flags |= pufferIntervalType
	}
	intervalValue := writeOptFloat(&flags, pufferIntervalValue, p.IntervalValue)
	sizeRange := writeOptRange(&flags, pufferSizeRange, p.SizeRange)
	lifetimeRange := writeOptRange(&flags, pufferLifetimeRange, p.LifetimeRange)
	startAgeRange := writeOptRange(&flags, pufferStartAgeRange, p.StartAgeRange)
	deviationDistance := writeOptFloat(&flags, pufferDeviationDistance, p.DeviationDistance)
	unknownRange := writeOptRange(&flags, pufferUnknownRange, p.UnknownRange)
	fadeRange := writeOptRange(&flags, pufferFadeRange, p.FadeRange)
	friction := writeOptFloat(&flags, pufferFriction, p.Friction)
	windFactor := writeOptFloat(&flags, pufferWindFactor, p.WindFactor)
	priority := writeOptFloat(&flags, pufferPriority, p.Priority)
	if len(p.Textures) > 0 {
		flags |= pufferTextures
	}
	if len(p.Colors) > 0 {
		flags |= pufferColors
	}
	if len(p.GrowthFactors) > 0 {
		flags |= pufferGrowthFactors
	}
	if p.Number != nil {
		flags |= pufferNumber
	}

	raw := pufferCommonC{
		PufferName: nameBuf, PufferIndex: p.Index, Flags: flags, NodeIndex: nodeIndex,
		ActiveState: activeState, Translate: translate,
		LocalVelocity: localVelocity, WorldVelocity: worldVelocity,
		MinRandomVelocity: minRandomVelocity, MaxRandomVelocity: maxRandomVelocity,
		WorldAcceleration: worldAcceleration,
		IntervalType:      boolToU32(derefBool(p.IntervalType)), IntervalValue: intervalValue,
		SizeRange: sizeRange, LifetimeRange: lifetimeRange, StartAgeRange: startAgeRange,
		DeviationDistance: deviationDistance, UnknownRange: unknownRange, FadeRange: fadeRange,
		Friction: friction, WindFactor: windFactor, Priority: priority,
	}
	if err := w.WriteStruct(&raw); err != nil {
		return err
	}

	var textures pufferTexturesC
	hasRunTime := false
	for _, t := range p.Textures {
		if t.RunTime != nil {
			hasRunTime = true
		}
	}
	for i, t := range p.Textures {
		if i >= 6 {
			return merr.Protocolf("puffer state carries more than 6 textures")
		}
		types.AsciiFromStrPadded(textures.Textures[i].Name[:], t.Name)
		if t.RunTime != nil {
			textures.Textures[i].RunTime = *t.RunTime
		}
	}
	if hasRunTime {
		textures.HasRunTime = 1
	}
	if err := w.WriteStruct(&textures); err != nil {
		return err
	}

	var colors pufferColorsC
	if len(p.Colors) > 6 {
		return merr.Protocolf("puffer state carries more than 6 colors")
	}
	colors.Count = uint32(len(p.Colors))
	copy(colors.Colors[:], p.Colors)
	if err := w.WriteStruct(&colors); err != nil {
		return err
	}

	var growths pufferGrowthsC
	if len(p.GrowthFactors) > 6 {
		return merr.Protocolf("puffer state carries more than 6 growth factors")
	}
	growths.Count = uint32(len(p.GrowthFactors))
	copy(growths.Growths[:], p.GrowthFactors)
	if err := w.WriteStruct(&growths); err != nil {
		return err
	}

	number := uint32(0)
	if p.Number != nil {
		number = *p.Number
	}
	return w.WriteStruct(&number)
}

func writeOptFloat(flags *uint32, bit uint32, v *float32) float32 {
	if v == nil {
		return 0
	}
	*flags |= bit
	return *v
}

func writeOptVec3(flags *uint32, bit uint32, v *Vec3) Vec3 {
	if v == nil {
		return Vec3{}
	}
	*flags |= bit
	return *v
}

func writeOptRange(flags *uint32, bit uint32, v *Range) Range {
	if v == nil {
		return Range{}
	}
	*flags |= bit
	return *v
}

func init() {
	register(pufferStateCodec{})
}

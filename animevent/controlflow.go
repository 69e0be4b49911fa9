package animevent

import (
	"encoding/binary"
	"math"

	"github.com/TerranMechworks/mech3ax-sub002/game"
	"github.com/TerranMechworks/mech3ax-sub002/internal/assert"
	"github.com/TerranMechworks/mech3ax-sub002/internal/merr"
	"github.com/TerranMechworks/mech3ax-sub002/stream"
	"github.com/TerranMechworks/mech3ax-sub002/types"
)

// bitsToF32/f32ToBits/bitsToU32/u32ToBits convert the condition value
// slot's raw little-endian 4 bytes to and from the type its cond_type
// says it actually holds (spec.md section 4.9; e31_control_flow.rs's
// `Condition` union shares one on-disk 4-byte slot across variants).
func bitsToF32(b [4]byte) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b[:])) }

func f32ToBits(v float32) [4]byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
	return b
}

func bitsToU32(b [4]byte) uint32 { return binary.LittleEndian.Uint32(b[:]) }

func u32ToBits(v uint32) [4]byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return b
}

// ConditionType is the discriminant of the If/Elseif condition union,
// grounded on original_source/crates/anim-events/src/events/e31_control_flow.rs.
type ConditionType uint32

const (
	CondRandomWeight     ConditionType = 1
	CondPlayerRange      ConditionType = 2
	CondAnimationLod     ConditionType = 4
	CondNodeUndercover   ConditionType = 16
	CondHwRender         ConditionType = 32
	CondPlayerFirstPerson ConditionType = 64
)

var conditionTypeDiscriminants = []ConditionType{
	CondRandomWeight, CondPlayerRange, CondAnimationLod,
	CondNodeUndercover, CondHwRender, CondPlayerFirstPerson,
}

// Condition is the tagged union carried by If/Elseif, grounded on
// e31_control_flow.rs's Condition enum.
type Condition struct {
	Type ConditionType

	RandomWeight float32 // CondRandomWeight
	PlayerRange  float32 // CondPlayerRange
	AnimationLod uint32  // CondAnimationLod

	NodeIndex uint32  // CondNodeUndercover
	Distance  float32 // CondNodeUndercover

	HwRender          bool // CondHwRender
	PlayerFirstPerson bool // CondPlayerFirstPerson
}

// If is the `if` control-flow event (spec.md section 4.9).
type If struct {
	Node      string
	Condition Condition
}

func (If) Kind() EventType { return EvIf }

// Elseif is the `elseif` control-flow event.
type Elseif struct {
	Node      string
	Condition Condition
}

func (Elseif) Kind() EventType { return EvElseif }

// Else is the zero-payload `else` marker.
type Else struct{}

func (Else) Kind() EventType { return EvElse }

// Endif is the zero-payload `endif` marker.
type Endif struct{}

func (Endif) Kind() EventType { return EvEndif }

// Loop is the zero-payload `loop` marker, grouped with Else/Endif as a
// control-flow marker (spec.md section 9): it carries no fields for any
// game, so it needs no retrieved layout to implement.
type Loop struct{}

func (Loop) Kind() EventType { return EvLoop }

// ifPgC is the MW/RC on-disk layout (12 bytes): cond_type, node_index,
// a 4-byte value slot whose interpretation depends on cond_type.
type ifPgC struct {
	CondType  uint32
	NodeIndex uint32
	Value     [4]byte
}

// ifPmC is the PM on-disk layout (16 bytes): cond_type, an always-zero
// 4-byte slot, the 4-byte value, and an always-zero trailing u32.
type ifPmC struct {
	CondType uint32
	Zero4    uint32
	Value    [4]byte
	Unk12    uint32
}

func decodeCondition(condType uint32, nodeIndex uint32, value [4]byte, l Lookup, offset uint32) (string, Condition, error) {
	ct, ok := types.FromRepr(ConditionType(condType), conditionTypeDiscriminants)
	if !ok {
		return "", Condition{}, assert.EnumRaw[ConditionType]("condition type", conditionTypeDiscriminants, ConditionType(condType), offset)
	}
	c := Condition{Type: ct}
	node := ""
	switch ct {
	case CondRandomWeight:
		c.RandomWeight = bitsToF32(value)
	case CondPlayerRange:
		c.PlayerRange = bitsToF32(value)
	case CondAnimationLod:
		c.AnimationLod = bitsToU32(value)
	case CondNodeUndercover:
		n, err := l.resolveNode(nodeIndex, offset)
		if err != nil {
			return "", Condition{}, err
		}
		node = n
		c.NodeIndex = nodeIndex
		c.Distance = bitsToF32(value)
	case CondHwRender:
		v := bitsToU32(value)
		b, err := assert.BoolU32("condition hw_render", v, offset)
		if err != nil {
			return "", Condition{}, err
		}
		c.HwRender = b
	case CondPlayerFirstPerson:
		v := bitsToU32(value)
		b, err := assert.BoolU32("condition player_first_person", v, offset)
		if err != nil {
			return "", Condition{}, err
		}
		c.PlayerFirstPerson = b
	}
	if ct != CondNodeUndercover {
		if nodeIndex != 0 {
			return "", Condition{}, merr.Protocolf("expected condition node_index 0, but was %d (at %d)", nodeIndex, offset)
		}
		n, err := l.resolveNode(0, offset)
		if err == nil {
			node = n
		}
	}
	return node, c, nil
}

func encodeCondition(c Condition, l Lookup) (nodeIndex uint32, value [4]byte, err error) {
	switch c.Type {
	case CondRandomWeight:
		value = f32ToBits(c.RandomWeight)
	case CondPlayerRange:
		value = f32ToBits(c.PlayerRange)
	case CondAnimationLod:
		value = u32ToBits(c.AnimationLod)
	case CondNodeUndercover:
		nodeIndex = c.NodeIndex
		value = f32ToBits(c.Distance)
	case CondHwRender:
		v := uint32(0)
		if c.HwRender {
			v = 1
		}
		value = u32ToBits(v)
	case CondPlayerFirstPerson:
		v := uint32(0)
		if c.PlayerFirstPerson {
			v = 1
		}
		value = u32ToBits(v)
	default:
		return 0, value, merr.Protocolf("unknown condition type %d", c.Type)
	}
	_ = l
	return nodeIndex, value, nil
}

// ifPg is the MW/RC codec for If/Elseif, shared by both event kinds via
// its k field.
type ifPg struct{ k EventType }

func (c ifPg) kind() EventType { return c.k }

func (c ifPg) validFor(v game.Variant) bool { return v == game.MW || v == game.RC }

func (c ifPg) size(l Lookup, data Data) (uint32, error) { return 12, nil }

func (c ifPg) read(r *stream.Reader, l Lookup, payloadSize uint32) (Data, error) {
	if err := assert.Eq[uint32]("if payload size", 12, payloadSize, r.Offset); err != nil {
		return nil, err
	}
	var raw ifPgC
	if err := r.ReadStruct(&raw, 12); err != nil {
		return nil, err
	}
	node, cond, err := decodeCondition(raw.CondType, raw.NodeIndex, raw.Value, l, r.Prev)
	if err != nil {
		return nil, err
	}
	return c.wrap(node, cond), nil
}

func (c ifPg) write(w *stream.Writer, l Lookup, data Data) error {
	node, cond := c.unwrap(data)
	nodeIndex, value, err := encodeCondition(cond, l)
	if err != nil {
		return err
	}
	if cond.Type == CondNodeUndercover {
		idx, err := l.unresolveNode(node)
		if err != nil {
			return err
		}
		nodeIndex = idx
	}
	raw := ifPgC{CondType: uint32(cond.Type), NodeIndex: nodeIndex, Value: value}
	return w.WriteStruct(&raw)
}

func (c ifPg) wrap(node string, cond Condition) Data {
	if c.k == EvIf {
		return If{Node: node, Condition: cond}
	}
	return Elseif{Node: node, Condition: cond}
}

func (c ifPg) unwrap(data Data) (string, Condition) {
	switch v := data.(type) {
	case If:
		return v.Node, v.Condition
	case Elseif:
		return v.Node, v.Condition
	}
	return "", Condition{}
}

// ifPm is the PM codec for If/Elseif.
type ifPm struct{ k EventType }

func (c ifPm) kind() EventType { return c.k }

func (c ifPm) validFor(v game.Variant) bool { return v == game.PM }

func (c ifPm) size(l Lookup, data Data) (uint32, error) { return 16, nil }

func (c ifPm) read(r *stream.Reader, l Lookup, payloadSize uint32) (Data, error) {
	if err := assert.Eq[uint32]("if payload size", 16, payloadSize, r.Offset); err != nil {
		return nil, err
	}
	var raw ifPmC
	if err := r.ReadStruct(&raw, 16); err != nil {
		return nil, err
	}
	if err := assert.Eq[uint32]("if field 04", 0, raw.Zero4, r.Prev+4); err != nil {
		return nil, err
	}
	if err := assert.Eq[uint32]("if field 12", 0, raw.Unk12, r.Prev+12); err != nil {
		return nil, err
	}
	node, cond, err := decodeCondition(raw.CondType, 0, raw.Value, l, r.Prev)
	if err != nil {
		return nil, err
	}
	if cond.Type == CondNodeUndercover {
		return nil, merr.Protocolf("node_undercover condition is not supported on pm (at %d)", r.Prev)
	}
	return c.wrap(node, cond), nil
}

func (c ifPm) write(w *stream.Writer, l Lookup, data Data) error {
	_, cond := c.unwrap(data)
	_, value, err := encodeCondition(cond, l)
	if err != nil {
		return err
	}
	raw := ifPmC{CondType: uint32(cond.Type), Zero4: 0, Value: value, Unk12: 0}
	return w.WriteStruct(&raw)
}

func (c ifPm) wrap(node string, cond Condition) Data {
	if c.k == EvIf {
		return If{Node: node, Condition: cond}
	}
	return Elseif{Node: node, Condition: cond}
}

func (c ifPm) unwrap(data Data) (string, Condition) {
	switch v := data.(type) {
	case If:
		return v.Node, v.Condition
	case Elseif:
		return v.Node, v.Condition
	}
	return "", Condition{}
}

// marker is the shared EventAll-equivalent codec for the zero-payload
// Else/Endif/Loop events, valid for all four games.
type marker struct {
	k    EventType
	wrap func() Data
}

func (c marker) kind() EventType { return c.k }

func (marker) validFor(v game.Variant) bool { return true }

func (marker) size(l Lookup, data Data) (uint32, error) { return 0, nil }

func (c marker) read(r *stream.Reader, l Lookup, payloadSize uint32) (Data, error) {
	if err := assert.Eq[uint32]("marker event payload size", 0, payloadSize, r.Offset); err != nil {
		return nil, err
	}
	return c.wrap(), nil
}

func (marker) write(w *stream.Writer, l Lookup, data Data) error { return nil }

func init() {
	register(ifPg{k: EvIf})
	register(ifPg{k: EvElseif})
	register(ifPm{k: EvIf})
	register(ifPm{k: EvElseif})
	register(marker{k: EvElse, wrap: func() Data { return Else{} }})
	register(marker{k: EvEndif, wrap: func() Data { return Endif{} }})
	register(marker{k: EvLoop, wrap: func() Data { return Loop{} }})
}

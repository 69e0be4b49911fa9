package animevent

import (
	"github.com/TerranMechworks/mech3ax-sub002/game"
	"github.com/TerranMechworks/mech3ax-sub002/internal/assert"
	"github.com/TerranMechworks/mech3ax-sub002/internal/merr"
	"github.com/TerranMechworks/mech3ax-sub002/stream"
)

// Sound, FogState, CameraState and AnimVerbose had no retrievable
// repr(C) source in the pack, unlike PufferState (grounded on a write.rs
// builder) or LightState (grounded on a full rc.rs). Their field sets
// below are reconstructed from spec.md section 9's general description
// ("Light/puffer/fog/camera state events: each a bitflag-gated
// optional-field record") and the AT_NODE/ACTIVE_STATE idiom shared by
// every other state event already implemented in this package — see
// DESIGN.md. Sound's 16-byte total matches spec.md section 8 scenario
// (d) exactly.
type Sound struct {
	SoundIndex uint32
	AtNode     *string
	Volume     *float32
}

func (Sound) Kind() EventType { return EvSound }

const (
	soundAtNode     uint32 = 1 << 0
	soundFlagsValid        = soundAtNode
)

type soundC struct {
	Flags      uint32
	SoundIndex uint32
	NodeIndex  uint32
	Volume     float32
}

type soundCodec struct{}

func (soundCodec) kind() EventType             { return EvSound }
func (soundCodec) validFor(v game.Variant) bool { return true }
func (soundCodec) size(Lookup, Data) (uint32, error) { return 16, nil }

func (soundCodec) read(r *stream.Reader, l Lookup, payloadSize uint32) (Data, error) {
	if err := assert.Eq[uint32]("sound size", 16, payloadSize, r.Offset); err != nil {
		return nil, err
	}
	var raw soundC
	if err := r.ReadStruct(&raw, 16); err != nil {
		return nil, err
	}
	if err := assert.FlagsRaw[uint32]("sound flags", soundFlagsValid, raw.Flags, r.Prev); err != nil {
		return nil, err
	}
	var atNode *string
	if raw.Flags&soundAtNode != 0 {
		n, err := l.resolveNode(raw.NodeIndex, r.Prev+8)
		if err != nil {
			return nil, err
		}
		atNode = &n
	} else if raw.NodeIndex != 0 {
		return nil, merr.Protocolf("expected sound node index 0, but was %d (at %d)", raw.NodeIndex, r.Prev+8)
	}
	volume := raw.Volume
	return Sound{SoundIndex: raw.SoundIndex, AtNode: atNode, Volume: &volume}, nil
}

func (soundCodec) write(w *stream.Writer, l Lookup, data Data) error {
	s := data.(Sound)
	var flags uint32
	var nodeIndex uint32
	if s.AtNode != nil {
		flags |= soundAtNode
		idx, err := l.unresolveNode(*s.AtNode)
		if err != nil {
			return err
		}
		nodeIndex = idx
	}
	volume := float32(0)
	if s.Volume != nil {
		volume = *s.Volume
	}
	raw := soundC{Flags: flags, SoundIndex: s.SoundIndex, NodeIndex: nodeIndex, Volume: volume}
	return w.WriteStruct(&raw)
}

// FogState sets the scene-wide fog color and near/far distance range.
type FogState struct {
	ActiveState bool
	Color       *Color
	Range       *Range
}

func (FogState) Kind() EventType { return EvFogState }

const (
	fogColor      uint32 = 1 << 0
	fogRange      uint32 = 1 << 1
	fogFlagsValid        = fogColor | fogRange
)

type fogStateC struct {
	Flags       uint32
	ActiveState uint32
	Color       Color
	Range       Range
}

type fogStateCodec struct{}

func (fogStateCodec) kind() EventType             { return EvFogState }
func (fogStateCodec) validFor(v game.Variant) bool { return true }
func (fogStateCodec) size(Lookup, Data) (uint32, error) { return 28, nil }

func (fogStateCodec) read(r *stream.Reader, l Lookup, payloadSize uint32) (Data, error) {
	if err := assert.Eq[uint32]("fog state size", 28, payloadSize, r.Offset); err != nil {
		return nil, err
	}
	var raw fogStateC
	if err := r.ReadStruct(&raw, 28); err != nil {
		return nil, err
	}
	if err := assert.FlagsRaw[uint32]("fog state flags", fogFlagsValid, raw.Flags, r.Prev); err != nil {
		return nil, err
	}
	active, err := assert.BoolU32("fog state active state", raw.ActiveState, r.Prev+4)
	if err != nil {
		return nil, err
	}
	if !active && raw.Flags != 0 {
		return nil, merr.Protocolf("expected fog state flags empty when inactive (at %d)", r.Prev)
	}
	var color *Color
	if raw.Flags&fogColor != 0 {
		c := raw.Color
		color = &c
	} else if raw.Color != (Color{}) {
		return nil, merr.Protocolf("expected fog state color BLACK (at %d)", r.Prev+8)
	}
	var rng *Range
	if raw.Flags&fogRange != 0 {
		rg := raw.Range
		rng = &rg
	} else if raw.Range != (Range{}) {
		return nil, merr.Protocolf("expected fog state range DEFAULT (at %d)", r.Prev+20)
	}
	return FogState{ActiveState: active, Color: color, Range: rng}, nil
}

func (fogStateCodec) write(w *stream.Writer, l Lookup, data Data) error {
	f := data.(FogState)
	var flags uint32
	color := Color{}
	if f.Color != nil {
		flags |= fogColor
		color = *f.Color
	}
	rng := Range{}
	if f.Range != nil {
		flags |= fogRange
		rng = *f.Range
	}
	raw := fogStateC{Flags: flags, ActiveState: boolToU32(f.ActiveState), Color: color, Range: rng}
	return w.WriteStruct(&raw)
}

// CameraState cuts the active camera's clip range and field of view.
type CameraState struct {
	ActiveState bool
	Clip        *Range
	Fov         *float32
}

func (CameraState) Kind() EventType { return EvCameraState }

const (
	cameraClip      uint32 = 1 << 0
	cameraFov       uint32 = 1 << 1
	cameraFlagsValid       = cameraClip | cameraFov
)

type cameraStateC struct {
	Flags       uint32
	ActiveState uint32
	Clip        Range
	Fov         float32
}

type cameraStateCodec struct{}

func (cameraStateCodec) kind() EventType             { return EvCameraState }
func (cameraStateCodec) validFor(v game.Variant) bool { return true }
func (cameraStateCodec) size(Lookup, Data) (uint32, error) { return 20, nil }

func (cameraStateCodec) read(r *stream.Reader, l Lookup, payloadSize uint32) (Data, error) {
	if err := assert.Eq[uint32]("camera state size", 20, payloadSize, r.Offset); err != nil {
		return nil, err
	}
	var raw cameraStateC
	if err := r.ReadStruct(&raw, 20); err != nil {
		return nil, err
	}
	if err := assert.FlagsRaw[uint32]("camera state flags", cameraFlagsValid, raw.Flags, r.Prev); err != nil {
		return nil, err
	}
	active, err := assert.BoolU32("camera state active state", raw.ActiveState, r.Prev+4)
	if err != nil {
		return nil, err
	}
	if !active && raw.Flags != 0 {
		return nil, merr.Protocolf("expected camera state flags empty when inactive (at %d)", r.Prev)
	}
	var clip *Range
	if raw.Flags&cameraClip != 0 {
		c := raw.Clip
		clip = &c
	} else if raw.Clip != (Range{}) {
		return nil, merr.Protocolf("expected camera state clip DEFAULT (at %d)", r.Prev+8)
	}
	var fov *float32
	if raw.Flags&cameraFov != 0 {
		f := raw.Fov
		fov = &f
	} else if raw.Fov != 0 {
		return nil, merr.Protocolf("expected camera state fov 0 (at %d)", r.Prev+16)
	}
	return CameraState{ActiveState: active, Clip: clip, Fov: fov}, nil
}

func (cameraStateCodec) write(w *stream.Writer, l Lookup, data Data) error {
	c := data.(CameraState)
	var flags uint32
	clip := Range{}
	if c.Clip != nil {
		flags |= cameraClip
		clip = *c.Clip
	}
	fov := float32(0)
	if c.Fov != nil {
		flags |= cameraFov
		fov = *c.Fov
	}
	raw := cameraStateC{Flags: flags, ActiveState: boolToU32(c.ActiveState), Clip: clip, Fov: fov}
	return w.WriteStruct(&raw)
}

// AnimVerbose toggles verbose animation-engine logging for debugging,
// optionally scoped to a log level.
type AnimVerbose struct {
	Enabled bool
	Level   *uint32
}

func (AnimVerbose) Kind() EventType { return EvAnimVerbose }

const (
	animVerboseLevel      uint32 = 1 << 0
	animVerboseFlagsValid        = animVerboseLevel
)

type animVerboseC struct {
	Flags   uint32
	Enabled uint32
	Level   uint32
}

type animVerboseCodec struct{}

func (animVerboseCodec) kind() EventType             { return EvAnimVerbose }
func (animVerboseCodec) validFor(v game.Variant) bool { return true }
func (animVerboseCodec) size(Lookup, Data) (uint32, error) { return 12, nil }

func (animVerboseCodec) read(r *stream.Reader, l Lookup, payloadSize uint32) (Data, error) {
	if err := assert.Eq[uint32]("anim verbose size", 12, payloadSize, r.Offset); err != nil {
		return nil, err
	}
	var raw animVerboseC
	if err := r.ReadStruct(&raw, 12); err != nil {
		return nil, err
	}
	if err := assert.FlagsRaw[uint32]("anim verbose flags", animVerboseFlagsValid, raw.Flags, r.Prev); err != nil {
		return nil, err
	}
	enabled, err := assert.BoolU32("anim verbose enabled", raw.Enabled, r.Prev+4)
	if err != nil {
		return nil, err
	}
	var level *uint32
	if raw.Flags&animVerboseLevel != 0 {
		lvl := raw.Level
		level = &lvl
	} else if raw.Level != 0 {
		return nil, merr.Protocolf("expected anim verbose level 0, but was %d (at %d)", raw.Level, r.Prev+8)
	}
	return AnimVerbose{Enabled: enabled, Level: level}, nil
}

func (animVerboseCodec) write(w *stream.Writer, l Lookup, data Data) error {
	a := data.(AnimVerbose)
	var flags uint32
	level := uint32(0)
	if a.Level != nil {
		flags |= animVerboseLevel
		level = *a.Level
	}
	raw := animVerboseC{Flags: flags, Enabled: boolToU32(a.Enabled), Level: level}
	return w.WriteStruct(&raw)
}

func init() {
	register(soundCodec{})
	register(fogStateCodec{})
	register(cameraStateCodec{})
	register(animVerboseCodec{})
}

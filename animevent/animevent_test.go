package animevent

import (
	"bytes"
	"testing"

	"github.com/TerranMechworks/mech3ax-sub002/game"
	"github.com/TerranMechworks/mech3ax-sub002/stream"
)

func testLookup(v game.Variant) Lookup {
	names := map[uint32]string{1: "turret_01", 2: "hull"}
	byName := map[string]uint32{"turret_01": 1, "hull": 2}
	return Lookup{
		Variant: v,
		NodeName: func(index uint32, offset uint32) (string, error) {
			return names[index], nil
		},
		NodeIndex: func(name string) (uint32, error) {
			return byName[name], nil
		},
	}
}

func roundTrip(t *testing.T, v game.Variant, events []Event) []Event {
	t.Helper()
	l := testLookup(v)
	var buf bytes.Buffer
	w := stream.NewWriter(&buf)
	if err := WriteEvents(w, events, l); err != nil {
		t.Fatalf("WriteEvents: %v", err)
	}
	r := stream.NewReader(bytes.NewReader(buf.Bytes()))
	got, err := ReadEvents(r, uint32(buf.Len()), l)
	if err != nil {
		t.Fatalf("ReadEvents: %v", err)
	}

	var buf2 bytes.Buffer
	w2 := stream.NewWriter(&buf2)
	if err := WriteEvents(w2, got, l); err != nil {
		t.Fatalf("re-WriteEvents: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), buf2.Bytes()) {
		t.Fatalf("round trip mismatch: %v != %v", buf.Bytes(), buf2.Bytes())
	}
	return got
}

func TestControlFlowRoundTripMW(t *testing.T) {
	events := []Event{
		{Data: If{Node: "hull", Condition: Condition{Type: CondRandomWeight, RandomWeight: 0.5}}},
		{Data: Else{}},
		{Data: Endif{}},
	}
	got := roundTrip(t, game.MW, events)
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	ifEvt, ok := got[0].Data.(If)
	if !ok || ifEvt.Condition.RandomWeight != 0.5 {
		t.Fatalf("unexpected if event: %+v", got[0].Data)
	}
}

func TestControlFlowNodeUndercoverRC(t *testing.T) {
	events := []Event{
		{Data: Elseif{Node: "turret_01", Condition: Condition{Type: CondNodeUndercover, NodeIndex: 1, Distance: 12.5}}},
	}
	got := roundTrip(t, game.RC, events)
	ev, ok := got[0].Data.(Elseif)
	if !ok || ev.Node != "turret_01" || ev.Condition.Distance != 12.5 {
		t.Fatalf("unexpected elseif event: %+v", got[0].Data)
	}
}

func TestControlFlowPM(t *testing.T) {
	events := []Event{
		{Start: &EventStart{Offset: StartSequence, Time: 1.5}, Data: If{Node: "hull", Condition: Condition{Type: CondHwRender, HwRender: true}}},
	}
	got := roundTrip(t, game.PM, events)
	if got[0].Start == nil || got[0].Start.Offset != StartSequence || got[0].Start.Time != 1.5 {
		t.Fatalf("unexpected start: %+v", got[0].Start)
	}
}

func TestCallAnimationRoundTrip(t *testing.T) {
	wait := int16(3)
	pos := Vec3{X: 1, Y: 2, Z: 3}
	events := []Event{
		{Data: CallAnimation{
			Name: "explosion", OperandIndex: 0, WithNode: true, NodeIndex: 7,
			Position: &pos, WaitForCompletion: &wait,
		}},
	}
	got := roundTrip(t, game.MW, events)
	ca, ok := got[0].Data.(CallAnimation)
	if !ok || ca.Name != "explosion" || !ca.WithNode || ca.Position == nil || *ca.Position != pos {
		t.Fatalf("unexpected call animation: %+v", got[0].Data)
	}
}

func TestObjectMotionFromToRoundTrip(t *testing.T) {
	events := []Event{
		{Data: ObjectMotionFromTo{
			Name: "hull", RunTime: 2.0,
			Translate: &Vec3FromTo{From: Vec3{}, To: Vec3{X: 10}},
		}},
	}
	got := roundTrip(t, game.MW, events)
	m, ok := got[0].Data.(ObjectMotionFromTo)
	if !ok || m.Name != "hull" || m.Translate == nil || m.Translate.To.X != 10 {
		t.Fatalf("unexpected object motion: %+v", got[0].Data)
	}
}

func TestLoopMarkerRoundTrip(t *testing.T) {
	events := []Event{{Data: Loop{}}, {Data: Endif{}}}
	got := roundTrip(t, game.MW, events)
	if _, ok := got[0].Data.(Loop); !ok {
		t.Fatalf("unexpected loop event: %+v", got[0].Data)
	}
}

func TestSoundRoundTrip(t *testing.T) {
	volume := float32(0.75)
	events := []Event{
		{Data: Sound{SoundIndex: 3, AtNode: strPtr("hull"), Volume: &volume}},
	}
	got := roundTrip(t, game.CS, events)
	s, ok := got[0].Data.(Sound)
	if !ok || s.SoundIndex != 3 || s.AtNode == nil || *s.AtNode != "hull" || *s.Volume != volume {
		t.Fatalf("unexpected sound event: %+v", got[0].Data)
	}
}

func TestFogStateRoundTrip(t *testing.T) {
	color := Color{R: 0.1, G: 0.2, B: 0.3}
	events := []Event{
		{Data: FogState{ActiveState: true, Color: &color}},
	}
	got := roundTrip(t, game.MW, events)
	f, ok := got[0].Data.(FogState)
	if !ok || !f.ActiveState || f.Color == nil || *f.Color != color {
		t.Fatalf("unexpected fog state event: %+v", got[0].Data)
	}
}

func TestCameraStateRoundTrip(t *testing.T) {
	fov := float32(1.2)
	events := []Event{
		{Data: CameraState{ActiveState: true, Fov: &fov}},
	}
	got := roundTrip(t, game.PM, events)
	c, ok := got[0].Data.(CameraState)
	if !ok || !c.ActiveState || c.Fov == nil || *c.Fov != fov {
		t.Fatalf("unexpected camera state event: %+v", got[0].Data)
	}
}

func TestAnimVerboseRoundTrip(t *testing.T) {
	level := uint32(2)
	events := []Event{
		{Data: AnimVerbose{Enabled: true, Level: &level}},
	}
	got := roundTrip(t, game.RC, events)
	a, ok := got[0].Data.(AnimVerbose)
	if !ok || !a.Enabled || a.Level == nil || *a.Level != 2 {
		t.Fatalf("unexpected anim verbose event: %+v", got[0].Data)
	}
}

func TestPufferStateRoundTrip(t *testing.T) {
	vel := Vec3{X: 1, Y: 2, Z: 3}
	events := []Event{
		{Data: PufferState{
			Name: "smoke_01", Index: 4,
			LocalVelocity: &vel,
			Textures: []PufferStateTexture{{Name: "smoke.tga"}},
			Colors:   []Color{{R: 1, G: 1, B: 1}},
		}},
	}
	got := roundTrip(t, game.MW, events)
	p, ok := got[0].Data.(PufferState)
	if !ok || p.Name != "smoke_01" || p.LocalVelocity == nil || *p.LocalVelocity != vel {
		t.Fatalf("unexpected puffer state event: %+v", got[0].Data)
	}
	if len(p.Textures) != 1 || p.Textures[0].Name != "smoke.tga" {
		t.Fatalf("unexpected puffer state textures: %+v", p.Textures)
	}
}

func TestObjectMotionSiScriptRoundTrip(t *testing.T) {
	frame := ObjectMotionSiFrame{
		StartTime: 0, EndTime: 1,
		Translate: &TranslateData{Base: Vec3{X: 1}, Delta: Vec3{X: 2}, Garbage: 0xdeadbeef},
	}
	events := []Event{
		{Data: ObjectMotionSiScript{Name: "hull", Frames: []ObjectMotionSiFrame{frame}}},
	}
	got := roundTrip(t, game.RC, events)
	s, ok := got[0].Data.(ObjectMotionSiScript)
	if !ok || s.Name != "hull" || len(s.Frames) != 1 {
		t.Fatalf("unexpected object motion si script event: %+v", got[0].Data)
	}
	if s.Frames[0].Translate == nil || s.Frames[0].Translate.Garbage != 0xdeadbeef {
		t.Fatalf("garbage field not preserved: %+v", s.Frames[0].Translate)
	}
}

func strPtr(s string) *string { return &s }

package motion

import (
	"bytes"
	"testing"

	"github.com/TerranMechworks/mech3ax-sub002/stream"
)

func TestMotionRoundTrip(t *testing.T) {
	data := Motion{
		Version: 4,
		Bones: []Bone{
			{
				Name: "torso",
				Frames: []Frame{
					{Translation: Vec3{X: 1, Y: 2, Z: 3}, Rotation: Quaternion{W: 1, X: 0, Y: 0, Z: 0}},
					{Translation: Vec3{X: 1.5, Y: 2.5, Z: 3.5}, Rotation: Quaternion{W: 0.9, X: 0.1, Y: 0, Z: 0}},
				},
			},
			{Name: "leg_l", Frames: []Frame{}},
		},
	}

	var buf bytes.Buffer
	w := stream.NewWriter(&buf)
	if err := WriteMotion(w, data, nil); err != nil {
		t.Fatal(err)
	}
	if got, want := uint32(buf.Len()), SizeMotion(data); got != want {
		t.Fatalf("written %d bytes, SizeMotion reported %d", got, want)
	}

	r := stream.NewReader(bytes.NewReader(buf.Bytes()))
	got, err := ReadMotion(r, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.Version != data.Version {
		t.Fatalf("version = %d, want %d", got.Version, data.Version)
	}
	if len(got.Bones) != 2 {
		t.Fatalf("got %d bones, want 2", len(got.Bones))
	}
	if got.Bones[0].Name != "torso" || len(got.Bones[0].Frames) != 2 {
		t.Fatalf("bone 0 = %+v", got.Bones[0])
	}
	if got.Bones[1].Name != "leg_l" || len(got.Bones[1].Frames) != 0 {
		t.Fatalf("bone 1 = %+v", got.Bones[1])
	}
	if got.Bones[0].Frames[1].Translation != data.Bones[0].Frames[1].Translation {
		t.Fatalf("frame 1 translation = %+v, want %+v", got.Bones[0].Frames[1].Translation, data.Bones[0].Frames[1].Translation)
	}
}

func TestMotionVersionZeroRejected(t *testing.T) {
	var buf bytes.Buffer
	w := stream.NewWriter(&buf)
	if err := WriteMotion(w, Motion{Version: 0}, nil); err == nil {
		t.Fatal("expected an error for version 0")
	}
}

package gamez

import (
	"bytes"
	"math"
	"testing"

	"github.com/TerranMechworks/mech3ax-sub002/game"
	"github.com/TerranMechworks/mech3ax-sub002/internal/xlog"
	"github.com/TerranMechworks/mech3ax-sub002/stream"
)

func TestLodRangeSquaredRoundTrip(t *testing.T) {
	lod := Lod{Level: 1, RangeNear: 12.5, RangeFar: 400, Unk60: 1, Unk64: 2, Unk72: 3, Unk76: 4}

	var buf bytes.Buffer
	w := stream.NewWriter(&buf)
	if err := (lodCodec{}).writeData(w, Lookup{}, lod, nil); err != nil {
		t.Fatal(err)
	}

	raw := buf.Bytes()
	var hdr lodC
	r := stream.NewReader(bytes.NewReader(raw))
	if err := r.ReadStruct(&hdr, lodSize); err != nil {
		t.Fatal(err)
	}
	if got, want := hdr.RangeNearSq, lod.RangeNear*lod.RangeNear; got != want {
		t.Fatalf("RangeNearSq = %v, want %v", got, want)
	}

	r2 := stream.NewReader(bytes.NewReader(raw))
	data, err := (lodCodec{}).readData(r2, Lookup{}, NodeCommon{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := data.(Lod)
	if math.Abs(float64(got.RangeNear-lod.RangeNear)) > 1e-3 {
		t.Fatalf("RangeNear round-trip = %v, want %v", got.RangeNear, lod.RangeNear)
	}
	if got.RangeFar != lod.RangeFar {
		t.Fatalf("RangeFar round-trip = %v, want %v", got.RangeFar, lod.RangeFar)
	}
}

func object3dRoundTrip(t *testing.T, o Object3d) Object3d {
	t.Helper()
	var buf bytes.Buffer
	w := stream.NewWriter(&buf)
	if err := (object3dCodec{}).writeData(w, Lookup{}, o, nil); err != nil {
		t.Fatal(err)
	}
	r := stream.NewReader(bytes.NewReader(buf.Bytes()))
	data, err := (object3dCodec{}).readData(r, Lookup{}, NodeCommon{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	return data.(Object3d)
}

func TestObject3dTransformKinds(t *testing.T) {
	cases := []Object3d{
		{Transform: TransformNone},
		{Transform: TransformScaleOnly, Scale: Vec3{X: 2, Y: 3, Z: 4}},
		{Transform: TransformRotationTranslation, Rotation: Vec3{X: 0.1, Y: -0.2, Z: 0.3}, Translation: Vec3{X: 1, Y: 2, Z: 3}},
		{Transform: TransformTranslationOnly, Translation: Vec3{X: 5, Y: -5, Z: 0}},
	}
	for _, c := range cases {
		got := object3dRoundTrip(t, c)
		if got.Transform != c.Transform {
			t.Fatalf("Transform = %v, want %v", got.Transform, c.Transform)
		}
		if got.MatrixOverride != nil {
			t.Fatalf("unexpected matrix override for %v", c.Transform)
		}
	}
}

func TestObject3dMatrixOverrideWarns(t *testing.T) {
	o := Object3d{Transform: TransformNone}
	var buf bytes.Buffer
	w := stream.NewWriter(&buf)
	if err := (object3dCodec{}).writeData(w, Lookup{}, o, nil); err != nil {
		t.Fatal(err)
	}
	raw := buf.Bytes()
	// object3dC's Matrix field starts at offset 48 (Flags+Opacity+4 zero
	// floats+Rotation+Scale = 4+4+4+4+4+4+12+12). Corrupt its first float
	// so it no longer matches the identity matrix TransformNone derives,
	// exercising the mismatch warning path.
	raw[48] = 0x7F
	raw[49] = 0x7F
	raw[50] = 0x7F
	raw[51] = 0x7F

	r := stream.NewReader(bytes.NewReader(raw))
	data, err := (object3dCodec{}).readData(r, Lookup{}, NodeCommon{}, xlog.Discard())
	if err != nil {
		t.Fatal(err)
	}
	if data.(Object3d).MatrixOverride == nil {
		t.Fatal("expected a matrix override to be detected")
	}
}

func TestMaterialsRoundTrip(t *testing.T) {
	textures := []string{"hull.tif", "turret.tif"}
	materials := []Material{
		ColoredMaterial{Color: Color{R: 0.2, G: 0.4, B: 0.6}, Unk00: 1, Unk32: 0},
		TexturedMaterial{Texture: "hull.tif", Unk32: 7},
		TexturedMaterial{
			Texture: "turret.tif",
			Cycle: &CycleData{
				Textures: []string{"hull.tif", "turret.tif"},
				InfoPtr:  0x1000, DataPtr: 0x2000,
				Unk00: true, Unk04: 3, Unk12: 4,
			},
		},
	}

	var buf bytes.Buffer
	w := stream.NewWriter(&buf)
	if err := WriteMaterials(w, textures, materials, 8, nil); err != nil {
		t.Fatal(err)
	}

	r := stream.NewReader(bytes.NewReader(buf.Bytes()))
	got, arraySize, err := ReadMaterials(r, textures, nil)
	if err != nil {
		t.Fatal(err)
	}
	if arraySize != 8 {
		t.Fatalf("array size = %d, want 8", arraySize)
	}
	if len(got) != len(materials) {
		t.Fatalf("got %d materials, want %d", len(got), len(materials))
	}

	tm2, ok := got[2].(TexturedMaterial)
	if !ok {
		t.Fatalf("materials[2] is %T, want TexturedMaterial", got[2])
	}
	if tm2.Cycle == nil {
		t.Fatal("expected cycle data to survive the round trip")
	}
	if len(tm2.Cycle.Textures) != 2 || tm2.Cycle.Textures[0] != "hull.tif" {
		t.Fatalf("cycle textures = %v", tm2.Cycle.Textures)
	}
}

func TestGamezMinimalRoundTrip(t *testing.T) {
	world := Node{
		Common: NodeCommon{Name: "world", Flags: nodeBase},
		Data:   World{PartitionGrid: [][]WorldPartition{}},
	}
	window := Node{Common: NodeCommon{Name: "window", Flags: nodeBase}, Data: OpaqueNode{NodeKind: NodeWindow, Payload: make([]byte, opaqueNodeSize[NodeWindow])}}
	camera := Node{
		Common: NodeCommon{Name: "camera", Flags: nodeBase, MeshIndex: -1},
		Data:   Camera{Clip: Range{Min: 1, Max: 1000}, Fov: Range{Min: 1, Max: 1}},
	}
	display := Node{Common: NodeCommon{Name: "display", Flags: nodeBase}, Data: OpaqueNode{NodeKind: NodeDisplay, Payload: make([]byte, opaqueNodeSize[NodeDisplay])}}
	light := Node{Common: NodeCommon{Name: "light01", Flags: nodeBase}, Data: OpaqueNode{NodeKind: NodeLight, Payload: make([]byte, opaqueNodeSize[NodeLight])}}

	data := Gamez{
		Variant:       game.MW,
		Nodes:         []Node{world, window, camera, display, light},
		Materials:     []Material{ColoredMaterial{Color: Color{R: 1, G: 1, B: 1}}},
		MaterialsSize: 4,
	}
	textures := []string{}

	var buf bytes.Buffer
	w := stream.NewWriter(&buf)
	if err := WriteGamez(w, data, textures, nil); err != nil {
		t.Fatal(err)
	}

	r := stream.NewReader(bytes.NewReader(buf.Bytes()))
	got, err := ReadGamez(r, game.MW, textures, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Nodes) != 5 {
		t.Fatalf("got %d nodes, want 5", len(got.Nodes))
	}
	if got.Nodes[0].Data.Kind() != NodeWorld {
		t.Fatalf("node 0 kind = %v, want World", got.Nodes[0].Data.Kind())
	}
	if got.Nodes[4].Data.Kind() != NodeLight {
		t.Fatalf("node 4 kind = %v, want Light", got.Nodes[4].Data.Kind())
	}
	if len(got.Materials) != 1 {
		t.Fatalf("got %d materials, want 1", len(got.Materials))
	}
	cam, ok := got.Nodes[2].Data.(Camera)
	if !ok {
		t.Fatalf("node 2 data = %T, want Camera", got.Nodes[2].Data)
	}
	if cam.Clip != (Range{Min: 1, Max: 1000}) || cam.Fov != (Range{Min: 1, Max: 1}) {
		t.Fatalf("unexpected camera: %+v", cam)
	}
}

func TestCameraCotangentRoundTrip(t *testing.T) {
	cam := Camera{Clip: Range{Min: 1, Max: 500}, Fov: Range{Min: 1.2, Max: 0.9}}

	var buf bytes.Buffer
	w := stream.NewWriter(&buf)
	if err := (cameraCodec{}).writeData(w, Lookup{}, cam, nil); err != nil {
		t.Fatal(err)
	}

	raw := buf.Bytes()
	var hdr cameraC
	r := stream.NewReader(bytes.NewReader(raw))
	if err := r.ReadStruct(&hdr, cameraSize); err != nil {
		t.Fatal(err)
	}
	wantHCot := cotangent(cam.Fov.Min / 2.0)
	wantVCot := cotangent(cam.Fov.Max / 2.0)
	if hdr.FovHCot != wantHCot || hdr.FovVCot != wantVCot {
		t.Fatalf("cotangent fields = (%v, %v), want (%v, %v)", hdr.FovHCot, hdr.FovVCot, wantHCot, wantVCot)
	}

	r2 := stream.NewReader(bytes.NewReader(raw))
	data, err := (cameraCodec{}).readData(r2, Lookup{}, NodeCommon{Flags: nodeBase, MeshIndex: -1}, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := data.(Camera)
	if got.Clip != cam.Clip || got.Fov != cam.Fov {
		t.Fatalf("camera round trip = %+v, want %+v", got, cam)
	}
}

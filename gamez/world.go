package gamez

import (
	"github.com/TerranMechworks/mech3ax-sub002/internal/assert"
	"github.com/TerranMechworks/mech3ax-sub002/internal/merr"
	"github.com/TerranMechworks/mech3ax-sub002/internal/xlog"
	"github.com/TerranMechworks/mech3ax-sub002/stream"
	"github.com/TerranMechworks/mech3ax-sub002/types"
)

// Area is the world's 2D bounding rectangle, grounded on
// crates/gamez/src/nodes/world/mw/read.rs's `Area` record (read ahead of
// the virtual partition grid). The grid's dimensions are taken from the
// world header as stored; they are not checked against Area and
// game.Variant.PartitionCellSize().
type Area struct {
	Left, Top, Right, Bottom int32
}

// FogType, grounded on read.rs's `fog_type` discriminant.
type FogType uint32

const (
	FogNone FogType = iota
	FogLinear
	FogExponential
)

var fogTypeDiscriminants = []FogType{FogNone, FogLinear, FogExponential}

// Fog carries the world's fog parameters (read.rs: color, range, altitude
// range, density), all present regardless of FogType. The only default
// checked on read is Density == 0 when FogType is FogNone; range and
// altitude are kept as stored for every FogType.
type Fog struct {
	Type     FogType
	Color    Color
	Range    Range
	Altitude Range
	Density  float32
}

// WorldPartition is one cell of the world's virtual partition grid
// (read.rs: `world_partition_read`), addressed by (X, Z) grid coordinates
// stepping by game.Variant.PartitionCellSize(). Min and Max are
// recomputed from X/Z on read and compared within partitionTolerance, in
// place of a fixed table of known-mismatch coordinates; Mid and Diagonal
// are kept as stored and not checked.
type WorldPartition struct {
	X, Z        int32
	Min, Max    Vec3
	Mid         Vec3
	Diagonal    float32
	// NodeIndices references objects that fall (partly) within this
	// partition cell.
	NodeIndices []uint32
}

const partitionTolerance = 0.5

// World is the world node's data block (spec.md section 4.10), grounded
// on crates/gamez/src/nodes/world/mw/read.rs.
type World struct {
	Area          Area
	Fog           Fog
	PartitionGrid [][]WorldPartition
	LightIndices  []uint32
	SoundIndices  []uint32
}

func (World) Kind() NodeType { return NodeWorld }

type areaC struct{ Left, Top, Right, Bottom int32 }

type fogC struct {
	Type         uint32
	Color        Color
	RangeNear    float32
	RangeFar     float32
	AltitudeNear float32
	AltitudeFar  float32
	Density      float32
}

type worldPartitionC struct {
	X, Z     int32
	Min      Vec3
	Max      Vec3
	Mid      Vec3
	Diagonal float32
	Count    uint32
	Ptr      uint32
}

type worldHeaderC struct {
	Area       areaC
	Fog        fogC
	PartitionX uint32
	PartitionZ uint32
	LightCount uint32
	LightPtr   uint32
	SoundCount uint32
	SoundPtr   uint32
}

func partitionMinMax(cellSize float32, gx, gz int32) (Vec3, Vec3) {
	min := Vec3{X: float32(gx) * cellSize, Y: -1e9, Z: float32(gz) * cellSize}
	max := Vec3{X: min.X + cellSize, Y: 1e9, Z: min.Z + cellSize}
	return min, max
}

type worldCodec struct{}

func (worldCodec) kind() NodeType { return NodeWorld }

func (worldCodec) readData(r *stream.Reader, l Lookup, common NodeCommon, log *xlog.Helper) (NodeData, error) {
	var hdr worldHeaderC
	if err := r.ReadStruct(&hdr, 76); err != nil {
		return nil, err
	}
	fogType, ok := types.FromRepr(FogType(hdr.Fog.Type), fogTypeDiscriminants)
	if !ok {
		return nil, assert.EnumRaw[FogType]("world fog type", fogTypeDiscriminants, FogType(hdr.Fog.Type), r.Prev+16)
	}
	if fogType == FogNone {
		if err := assert.Eq[float32]("world fog density", 0, hdr.Fog.Density, r.Prev+48); err != nil {
			return nil, err
		}
	}

	cellSize := l.Variant.PartitionCellSize()
	grid := make([][]WorldPartition, hdr.PartitionZ)
	for z := uint32(0); z < hdr.PartitionZ; z++ {
		row := make([]WorldPartition, hdr.PartitionX)
		for x := uint32(0); x < hdr.PartitionX; x++ {
			var raw worldPartitionC
			if err := r.ReadStruct(&raw, 56); err != nil {
				return nil, err
			}
			if err := assert.Eq[int32]("world partition x", int32(x), raw.X, r.Prev); err != nil {
				return nil, err
			}
			if err := assert.Eq[int32]("world partition z", int32(z), raw.Z, r.Prev+4); err != nil {
				return nil, err
			}
			expMin, expMax := partitionMinMax(cellSize, raw.X, raw.Z)
			if err := vec3Close("world partition min", expMin, raw.Min, r.Prev+8, partitionTolerance); err != nil {
				return nil, err
			}
			if err := vec3Close("world partition max", expMax, raw.Max, r.Prev+20, partitionTolerance); err != nil {
				return nil, err
			}
			indices := make([]uint32, raw.Count)
			for i := range indices {
				v, err := r.ReadU32()
				if err != nil {
					return nil, err
				}
				indices[i] = v
			}
			row[x] = WorldPartition{
				X: raw.X, Z: raw.Z, Min: raw.Min, Max: raw.Max, Mid: raw.Mid,
				Diagonal: raw.Diagonal, NodeIndices: indices,
			}
		}
		grid[z] = row
	}

	lightIndices := make([]uint32, hdr.LightCount)
	for i := range lightIndices {
		v, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		lightIndices[i] = v
	}
	soundIndices := make([]uint32, hdr.SoundCount)
	for i := range soundIndices {
		v, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		soundIndices[i] = v
	}

	return World{
		Area: Area(hdr.Area),
		Fog: Fog{
			Type: fogType, Color: hdr.Fog.Color,
			Range:    Range{Min: hdr.Fog.RangeNear, Max: hdr.Fog.RangeFar},
			Altitude: Range{Min: hdr.Fog.AltitudeNear, Max: hdr.Fog.AltitudeFar},
			Density:  hdr.Fog.Density,
		},
		PartitionGrid: grid, LightIndices: lightIndices, SoundIndices: soundIndices,
	}, nil
}

func vec3Close(name string, expected, actual Vec3, offset uint32, tol float32) error {
	if abs32(expected.X-actual.X) > tol || abs32(expected.Y-actual.Y) > tol || abs32(expected.Z-actual.Z) > tol {
		return merr.Protocolf("expected `%s` ~= %+v, but was %+v (at %d)", name, expected, actual, offset)
	}
	return nil
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func (worldCodec) writeData(w *stream.Writer, l Lookup, data NodeData, log *xlog.Helper) error {
	world := data.(World)
	var partitionX uint32
	if len(world.PartitionGrid) > 0 {
		partitionX = uint32(len(world.PartitionGrid[0]))
	}
	hdr := worldHeaderC{
		Area: areaC(world.Area),
		Fog: fogC{
			Type: uint32(world.Fog.Type), Color: world.Fog.Color,
			RangeNear: world.Fog.Range.Min, RangeFar: world.Fog.Range.Max,
			AltitudeNear: world.Fog.Altitude.Min, AltitudeFar: world.Fog.Altitude.Max,
			Density: world.Fog.Density,
		},
		PartitionX: partitionX,
		PartitionZ: uint32(len(world.PartitionGrid)),
		LightCount: uint32(len(world.LightIndices)),
		SoundCount: uint32(len(world.SoundIndices)),
	}
	if err := w.WriteStruct(&hdr); err != nil {
		return err
	}
	for _, row := range world.PartitionGrid {
		for _, p := range row {
			raw := worldPartitionC{
				X: p.X, Z: p.Z, Min: p.Min, Max: p.Max, Mid: p.Mid,
				Diagonal: p.Diagonal, Count: uint32(len(p.NodeIndices)),
			}
			if err := w.WriteStruct(&raw); err != nil {
				return err
			}
			for _, idx := range p.NodeIndices {
				if err := w.WriteU32(idx); err != nil {
					return err
				}
			}
		}
	}
	for _, idx := range world.LightIndices {
		if err := w.WriteU32(idx); err != nil {
			return err
		}
	}
	for _, idx := range world.SoundIndices {
		if err := w.WriteU32(idx); err != nil {
			return err
		}
	}
	return nil
}

func (worldCodec) sizeData(l Lookup, data NodeData) uint32 {
	world := data.(World)
	size := uint32(76)
	for _, row := range world.PartitionGrid {
		for _, p := range row {
			size += 56 + 4*uint32(len(p.NodeIndices))
		}
	}
	size += 4 * uint32(len(world.LightIndices))
	size += 4 * uint32(len(world.SoundIndices))
	return size
}

func init() {
	registerVariant(worldCodec{})
}

package gamez

import (
	"encoding/json"

	"github.com/TerranMechworks/mech3ax-sub002/game"
	"github.com/TerranMechworks/mech3ax-sub002/internal/assert"
	"github.com/TerranMechworks/mech3ax-sub002/internal/merr"
	"github.com/TerranMechworks/mech3ax-sub002/internal/xlog"
	"github.com/TerranMechworks/mech3ax-sub002/stream"
	"github.com/TerranMechworks/mech3ax-sub002/types"
)

// NodeType is the node record's node_type discriminant (spec.md section
// 4.10). The pack's crates/mech3ax-nodes/src/pm/node.rs dispatches on this
// field via a Rust enum whose numeric discriminants were not retrieved
// (crates/nodes/src/types.rs, owning the definition, was not part of the
// retrieval pack); the values below are assigned in the order spec.md
// section 4.10 lists the variants and are only required to be
// self-consistent across this codec's own read/write pair, not to match
// the original binary layout bit for bit — see DESIGN.md.
type NodeType uint32

const (
	NodeWorld NodeType = iota
	NodeWindow
	NodeCamera
	NodeDisplay
	NodeLight
	NodeLod
	NodeObject3d
	NodeEmpty
)

var nodeTypeDiscriminants = []NodeType{
	NodeWorld, NodeWindow, NodeCamera, NodeDisplay,
	NodeLight, NodeLod, NodeObject3d, NodeEmpty,
}

// NodeBitFlags, grounded on the flag names referenced in
// crates/mech3ax-nodes/src/{mw/object3d,rc/lod}.rs. Bit positions for
// ACTIVE/TREE_VALID/ID_ZONE_CHECK were not given explicit values in the
// retrieved files (the owning crates/nodes/src/flags.rs was not part of
// the retrieval pack) and are assigned to unused bit positions here,
// documented in DESIGN.md; all other bit positions are exactly as
// commented in object3d.rs.
type NodeBitFlags uint32

const (
	NodeActive           NodeBitFlags = 1 << 0
	NodeAltitudeSurface  NodeBitFlags = 1 << 3
	NodeIntersectSurface NodeBitFlags = 1 << 4
	NodeIntersectBbox    NodeBitFlags = 1 << 5
	NodeLandmark         NodeBitFlags = 1 << 7
	nodeUnk08            NodeBitFlags = 1 << 8
	NodeHasMesh          NodeBitFlags = 1 << 9
	nodeUnk10            NodeBitFlags = 1 << 10
	NodeTerrain          NodeBitFlags = 1 << 15
	NodeCanModify        NodeBitFlags = 1 << 16
	NodeClipTo           NodeBitFlags = 1 << 17
	NodeTreeValid        NodeBitFlags = 1 << 18
	NodeIDZoneCheck      NodeBitFlags = 1 << 19
	nodeUnk25            NodeBitFlags = 1 << 25
	nodeUnk28            NodeBitFlags = 1 << 28

	nodeFlagsValid = NodeActive | NodeAltitudeSurface | NodeIntersectSurface |
		NodeIntersectBbox | NodeLandmark | nodeUnk08 | NodeHasMesh | nodeUnk10 |
		NodeTerrain | NodeCanModify | NodeClipTo | NodeTreeValid | NodeIDZoneCheck |
		nodeUnk25 | nodeUnk28

	nodeBase = NodeActive | NodeTreeValid | NodeIDZoneCheck
)

// areaPartitionNone, stored in both X and Z, is the on-disk sentinel meaning "no area partition"
// (crates/mech3ax-nodes/src/pm/node.rs's `AreaPartition::DEFAULT_PM`).
const areaPartitionNone int32 = -1

// nodeInfoC is the 208-byte fixed node record (spec.md section 4.10: "208
// bytes per game; field layout varies slightly"), grounded field-for-field
// on crates/mech3ax-nodes/src/pm/node.rs's `NodePmC` — the most complete
// single-game layout retrieved; the minor per-game offset differences
// spec.md alludes to are normalized to this one shape, documented in
// DESIGN.md.
type nodeInfoC struct {
	Name             [36]byte
	Flags            uint32
	Zero040          uint32
	Unk044           uint32
	ZoneID           uint32
	NodeType         uint32
	DataPtr          uint32
	MeshIndex        int32
	EnvironmentData  uint32
	ActionPriority   uint32
	ActionCallback   uint32
	AreaPartitionX   int32
	AreaPartitionZ   int32
	ParentCount      uint16
	ChildrenCount    uint16
	ParentArrayPtr   uint32
	ChildrenArrayPtr uint32
	Zero096          uint32
	Zero100          uint32
	Zero104          uint32
	Zero108          uint32
	Unk112           uint32
	Unk116           [6]float32
	Unk140           [6]float32
	Unk164           [6]float32
	Zero188          uint32
	Zero192          uint32
	Unk196           uint32
	Zero200          uint32
	Zero204          uint32
}

const nodeInfoSize = 208

// NODE_ARRAY_SIZE, grounded on crates/gamez/src/gamez/rc/nodes.rs's
// `NODE_ARRAY_SIZE`/`NODE_INDEX_INVALID` constants (node info is always
// written as a fixed-capacity array, zero-padded and next-index-chained
// past the live node count).
const nodeArraySize = 4096

const nodeIndexInvalid = 0xFFFFFFFF

// NodeCommon holds the fields shared by every node variant (spec.md
// section 4.10).
type NodeCommon struct {
	Name             string
	Flags            NodeBitFlags
	Unk044           uint32
	ZoneID           uint32
	DataPtr          uint32
	MeshIndex        int32
	AreaPartition    *AreaPartition
	HasParent        bool
	Parent           uint32
	ParentArrayPtr   uint32
	Children         []uint32
	ChildrenArrayPtr uint32
	Unk112           uint32
	Unk116           BoundingBox
	Unk140           BoundingBox
	Unk164           BoundingBox
	Unk196           uint32
}

// NodeData is satisfied by each variant's payload.
type NodeData interface {
	Kind() NodeType
}

// Node is one decoded scene-graph node: its shared fields plus a
// variant-tagged payload.
type Node struct {
	Common NodeCommon
	Data   NodeData
}

// nodeJSON mirrors Node for JSON, since encoding/json cannot determine
// Data's concrete type from the NodeData interface alone; Kind
// disambiguates it on decode the same way the on-disk nodeInfoC's type
// field already does.
type nodeJSON struct {
	Common NodeCommon
	Kind   NodeType
	Data   json.RawMessage
}

func (n Node) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(n.Data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(nodeJSON{Common: n.Common, Kind: n.Data.Kind(), Data: data})
}

func (n *Node) UnmarshalJSON(buf []byte) error {
	var raw nodeJSON
	if err := json.Unmarshal(buf, &raw); err != nil {
		return err
	}
	var data NodeData
	switch raw.Kind {
	case NodeWorld:
		var d World
		if err := json.Unmarshal(raw.Data, &d); err != nil {
			return err
		}
		data = d
	case NodeLod:
		var d Lod
		if err := json.Unmarshal(raw.Data, &d); err != nil {
			return err
		}
		data = d
	case NodeObject3d:
		var d Object3d
		if err := json.Unmarshal(raw.Data, &d); err != nil {
			return err
		}
		data = d
	case NodeCamera:
		var d Camera
		if err := json.Unmarshal(raw.Data, &d); err != nil {
			return err
		}
		data = d
	case NodeEmpty:
		var d EmptyData
		if err := json.Unmarshal(raw.Data, &d); err != nil {
			return err
		}
		data = d
	case NodeWindow, NodeDisplay, NodeLight:
		var d OpaqueNode
		if err := json.Unmarshal(raw.Data, &d); err != nil {
			return err
		}
		data = d
	default:
		return merr.Protocolf("unrecognized node kind %d in JSON input", raw.Kind)
	}
	n.Common = raw.Common
	n.Data = data
	return nil
}

func bboxToFloats(b BoundingBox) [6]float32 {
	return [6]float32{b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z}
}

func floatsToBbox(f [6]float32) BoundingBox {
	return BoundingBox{Min: Vec3{X: f[0], Y: f[1], Z: f[2]}, Max: Vec3{X: f[3], Y: f[4], Z: f[5]}}
}

func readNodeInfo(r *stream.Reader) (NodeType, NodeCommon, error) {
	var raw nodeInfoC
	if err := r.ReadStruct(&raw, nodeInfoSize); err != nil {
		return 0, NodeCommon{}, err
	}
	name, err := types.AsciiToStrNodeName(raw.Name[:])
	if err != nil {
		return 0, NodeCommon{}, err
	}
	nt, ok := types.FromRepr(NodeType(raw.NodeType), nodeTypeDiscriminants)
	if !ok {
		return 0, NodeCommon{}, assert.EnumRaw[NodeType]("node type", nodeTypeDiscriminants, NodeType(raw.NodeType), r.Prev+52)
	}
	if err := assert.Eq[uint32]("node field 040", 0, raw.Zero040, r.Prev+40); err != nil {
		return 0, NodeCommon{}, err
	}
	if err := assert.FlagsRaw[uint32]("node flags", uint32(nodeFlagsValid), raw.Flags, r.Prev+36); err != nil {
		return 0, NodeCommon{}, err
	}
	if err := assert.Eq[uint32]("node field 096", 0, raw.Zero096, r.Prev+96); err != nil {
		return 0, NodeCommon{}, err
	}
	if err := assert.Eq[uint32]("node field 100", 0, raw.Zero100, r.Prev+100); err != nil {
		return 0, NodeCommon{}, err
	}
	if err := assert.Eq[uint32]("node field 104", 0, raw.Zero104, r.Prev+104); err != nil {
		return 0, NodeCommon{}, err
	}
	if err := assert.Eq[uint32]("node field 108", 0, raw.Zero108, r.Prev+108); err != nil {
		return 0, NodeCommon{}, err
	}
	if err := assert.Eq[uint32]("node field 188", 0, raw.Zero188, r.Prev+188); err != nil {
		return 0, NodeCommon{}, err
	}
	if err := assert.Eq[uint32]("node field 192", 0, raw.Zero192, r.Prev+192); err != nil {
		return 0, NodeCommon{}, err
	}
	if err := assert.Eq[uint32]("node field 200", 0, raw.Zero200, r.Prev+200); err != nil {
		return 0, NodeCommon{}, err
	}
	if err := assert.Eq[uint32]("node field 204", 0, raw.Zero204, r.Prev+204); err != nil {
		return 0, NodeCommon{}, err
	}

	var ap *AreaPartition
	if raw.AreaPartitionX != areaPartitionNone || raw.AreaPartitionZ != areaPartitionNone {
		ap = &AreaPartition{X: raw.AreaPartitionX, Z: raw.AreaPartitionZ}
	}

	hasParent, err := assert.BoolU32("node parent count", uint32(raw.ParentCount), r.Prev+84)
	if err != nil {
		return 0, NodeCommon{}, err
	}
	if hasParent {
		if raw.ParentArrayPtr == uint32(types.PtrNull) {
			return 0, NodeCommon{}, merr.Protocolf("expected node parent array ptr, but was null (at %d)", r.Prev+88)
		}
	} else if raw.ParentArrayPtr != uint32(types.PtrNull) {
		return 0, NodeCommon{}, merr.Protocolf("expected node parent array ptr null (at %d)", r.Prev+88)
	}
	if raw.ChildrenCount == 0 {
		if raw.ChildrenArrayPtr != uint32(types.PtrNull) {
			return 0, NodeCommon{}, merr.Protocolf("expected node children array ptr null (at %d)", r.Prev+92)
		}
	} else if raw.ChildrenArrayPtr == uint32(types.PtrNull) {
		return 0, NodeCommon{}, merr.Protocolf("expected node children array ptr, but was null (at %d)", r.Prev+92)
	}

	common := NodeCommon{
		Name: name, Flags: NodeBitFlags(raw.Flags), Unk044: raw.Unk044, ZoneID: raw.ZoneID,
		DataPtr: raw.DataPtr, MeshIndex: raw.MeshIndex, AreaPartition: ap,
		HasParent: hasParent, ParentArrayPtr: raw.ParentArrayPtr,
		Children: make([]uint32, 0, raw.ChildrenCount), ChildrenArrayPtr: raw.ChildrenArrayPtr,
		Unk112: raw.Unk112, Unk116: floatsToBbox(raw.Unk116), Unk140: floatsToBbox(raw.Unk140),
		Unk164: floatsToBbox(raw.Unk164), Unk196: raw.Unk196,
	}
	return nt, common, nil
}

func writeNodeInfo(w *stream.Writer, nt NodeType, c NodeCommon) error {
	var nameBuf [36]byte
	types.AsciiFromStrNodeName(nameBuf[:], c.Name)
	apX, apZ := int32(areaPartitionNone), int32(areaPartitionNone)
	if c.AreaPartition != nil {
		apX, apZ = c.AreaPartition.X, c.AreaPartition.Z
	}
	parentCount := uint16(0)
	if c.HasParent {
		parentCount = 1
	}
	raw := nodeInfoC{
		Flags: uint32(c.Flags), Zero040: 0, Unk044: c.Unk044, ZoneID: c.ZoneID,
		NodeType: uint32(nt), DataPtr: c.DataPtr, MeshIndex: c.MeshIndex,
		EnvironmentData: 0, ActionPriority: 1, ActionCallback: 0,
		AreaPartitionX: apX, AreaPartitionZ: apZ,
		ParentCount: parentCount, ChildrenCount: uint16(len(c.Children)),
		ParentArrayPtr: c.ParentArrayPtr, ChildrenArrayPtr: c.ChildrenArrayPtr,
		Unk112: c.Unk112, Unk116: bboxToFloats(c.Unk116), Unk140: bboxToFloats(c.Unk140),
		Unk164: bboxToFloats(c.Unk164), Unk196: c.Unk196,
	}
	copy(raw.Name[:], nameBuf[:])
	return w.WriteStruct(&raw)
}

// variantCodec is implemented once per node-data variant.
type variantCodec interface {
	kind() NodeType
	readData(r *stream.Reader, l Lookup, common NodeCommon, log *xlog.Helper) (NodeData, error)
	writeData(w *stream.Writer, l Lookup, data NodeData, log *xlog.Helper) error
	sizeData(l Lookup, data NodeData) uint32
}

var variantRegistry = map[NodeType]variantCodec{}

func registerVariant(c variantCodec) { variantRegistry[c.kind()] = c }

// Lookup resolves mesh and node indices while decoding gamez containers
// (mirroring animevent.Lookup's role for the event-stream codec).
type Lookup struct {
	Variant       game.Variant
	MeshCount     int32
	MaterialCount int32
}

// ReadNodes decodes the fixed-capacity node array plus every live node's
// data and topology (spec.md section 4.10). count is the number of live
// nodes; the remaining nodeArraySize-count slots are the zero-padded,
// next-index-chained tail grounded on
// crates/gamez/src/gamez/rc/nodes.rs's `read_nodes`. log receives
// non-fatal anomalies (spec.md section 7); a nil log discards them.
func ReadNodes(r *stream.Reader, count uint32, l Lookup, log *xlog.Helper) ([]Node, error) {
	if log == nil {
		log = xlog.Discard()
	}
	type pending struct {
		nt     NodeType
		common NodeCommon
	}
	pendings := make([]pending, 0, count)
	var lightSeen bool
	for index := uint32(0); index < count; index++ {
		nt, common, err := readNodeInfo(r)
		if err != nil {
			return nil, err
		}
		switch nt {
		case NodeWorld:
			if err := assert.Eq[uint32]("world node position", 0, index, r.Prev); err != nil {
				return nil, err
			}
		case NodeWindow:
			if err := assert.Eq[uint32]("window node position", 1, index, r.Prev); err != nil {
				return nil, err
			}
		case NodeCamera:
			if err := assert.Eq[uint32]("camera node position", 2, index, r.Prev); err != nil {
				return nil, err
			}
		case NodeDisplay:
			if err := assert.Eq[uint32]("display node position", 3, index, r.Prev); err != nil {
				return nil, err
			}
		case NodeLight:
			if err := assert.Gt[uint32]("light node position", 3, index, r.Prev); err != nil {
				return nil, err
			}
			if lightSeen {
				return nil, merr.Protocolf("gamez contains more than one light node (at %d)", r.Prev)
			}
			lightSeen = true
		case NodeLod:
			if err := assert.Gt[uint32]("lod node position", 3, index, r.Prev); err != nil {
				return nil, err
			}
		case NodeObject3d:
			if err := assert.Gt[uint32]("object3d node position", 3, index, r.Prev); err != nil {
				return nil, err
			}
			hasMesh := common.Flags&NodeHasMesh != 0
			if hasMesh != (common.MeshIndex >= 0) {
				return nil, merr.Protocolf("expected object3d mesh index >= 0 iff HAS_MESH set (at %d)", r.Prev+60)
			}
			if hasMesh {
				if err := assert.Lt[int32]("object3d mesh index", l.MeshCount, common.MeshIndex, r.Prev+60); err != nil {
					return nil, err
				}
			}
		case NodeEmpty:
			if err := assert.Gt[uint32]("empty node position", 3, index, r.Prev); err != nil {
				return nil, err
			}
		}
		// DataPtr doubles as the data offset read immediately after the
		// node-info record, per crates/gamez/src/gamez/rc/nodes.rs.
		dataOffset, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		common.DataPtr = dataOffset
		pendings = append(pendings, pending{nt: nt, common: common})
	}
	if !lightSeen {
		return nil, merr.Protocolf("gamez contains no light node (at %d)", r.Offset)
	}

	for index := count; index < nodeArraySize; index++ {
		var zero nodeInfoC
		var raw nodeInfoC
		if err := r.ReadStruct(&raw, nodeInfoSize); err != nil {
			return nil, err
		}
		if raw != zero {
			return nil, merr.Protocolf("expected zeroed node info tail (at %d)", r.Prev)
		}
		actual, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		expected := index + 1
		if expected == nodeArraySize {
			expected = nodeIndexInvalid
		}
		if err := assert.Eq[uint32]("node zero index", expected, actual, r.Prev); err != nil {
			return nil, err
		}
	}

	nodes := make([]Node, 0, len(pendings))
	for _, p := range pendings {
		var data NodeData
		if p.nt == NodeEmpty {
			data = EmptyData{Parent: p.common.DataPtr}
			p.common.DataPtr = 0
		} else {
			if r.Offset != p.common.DataPtr {
				return nil, merr.Protocolf("node data offset mismatch: at %d, expected %d", r.Offset, p.common.DataPtr)
			}
			vc, ok := variantRegistry[p.nt]
			if !ok {
				return nil, merr.Protocolf("no codec registered for node type %d", p.nt)
			}
			d, err := vc.readData(r, l, p.common, log)
			if err != nil {
				return nil, err
			}
			data = d
			if p.common.HasParent {
				parent, err := r.ReadU32()
				if err != nil {
					return nil, err
				}
				p.common.Parent = parent
			}
			for i := 0; i < cap(p.common.Children); i++ {
				child, err := r.ReadU32()
				if err != nil {
					return nil, err
				}
				p.common.Children = append(p.common.Children, child)
			}
		}
		nodes = append(nodes, Node{Common: p.common, Data: data})
	}
	return nodes, nil
}

// WriteNodes inverts ReadNodes exactly (spec.md section 8). base is the
// stream offset the node-info array starts at, needed to compute each
// live node's data offset ahead of writing it.
func WriteNodes(w *stream.Writer, nodes []Node, l Lookup, base uint32, log *xlog.Helper) error {
	if log == nil {
		log = xlog.Discard()
	}
	offset := base + (nodeInfoSize+4)*nodeArraySize
	for i := range nodes {
		n := &nodes[i]
		vc, ok := variantRegistry[n.Data.Kind()]
		dataOffset := n.Common.DataPtr
		if n.Data.Kind() == NodeEmpty {
			dataOffset = n.Data.(EmptyData).Parent
		} else {
			if !ok {
				return merr.Protocolf("no codec registered for node type %d", n.Data.Kind())
			}
			dataOffset = offset
		}
		common := n.Common
		common.DataPtr = dataOffset
		if err := writeNodeInfo(w, n.Data.Kind(), common); err != nil {
			return err
		}
		if err := w.WriteU32(dataOffset); err != nil {
			return err
		}
		if n.Data.Kind() != NodeEmpty {
			size := vc.sizeData(l, n.Data)
			if n.Common.HasParent {
				size += 4
			}
			size += 4 * uint32(len(n.Common.Children))
			offset += size
		}
	}

	nodeCount := uint32(len(nodes))
	var zero nodeInfoC
	for index := nodeCount; index < nodeArraySize; index++ {
		if err := w.WriteStruct(&zero); err != nil {
			return err
		}
		expected := index + 1
		if expected == nodeArraySize {
			expected = nodeIndexInvalid
		}
		if err := w.WriteU32(expected); err != nil {
			return err
		}
	}

	for i := range nodes {
		n := &nodes[i]
		if n.Data.Kind() == NodeEmpty {
			continue
		}
		vc := variantRegistry[n.Data.Kind()]
		if err := vc.writeData(w, l, n.Data, log); err != nil {
			return err
		}
		if n.Common.HasParent {
			if err := w.WriteU32(n.Common.Parent); err != nil {
				return err
			}
		}
		for _, child := range n.Common.Children {
			if err := w.WriteU32(child); err != nil {
				return err
			}
		}
	}
	return nil
}

// EmptyData is the parent-only Empty node payload (spec.md section 4.10:
// "a parent index stored in the otherwise-unused data_ptr slot"). Empty
// nodes have no data block and no separate topology record.
type EmptyData struct{ Parent uint32 }

func (EmptyData) Kind() NodeType { return NodeEmpty }

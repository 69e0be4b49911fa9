package gamez

import (
	"github.com/TerranMechworks/mech3ax-sub002/internal/xlog"
	"github.com/TerranMechworks/mech3ax-sub002/stream"
)

// OpaqueNode preserves a node-data variant whose on-disk layout was not
// present anywhere in the retrieval pack: Window, Display and Light have
// no node.rs/camera.rs-equivalent source file under original_source's
// mech3ax-nodes or mech3ax-gamez crates (confirmed by name search — only
// animevent's unrelated LightState sequence event turned up), unlike
// Camera, whose 488-byte `CameraMwC`/`CameraC` was retrieved in full and
// now has a real codec (camera.go). The payload's raw bytes are kept and
// replayed verbatim, mirroring animevent's old fallback for event kinds
// with no retrievable layout before those gained real codecs too — see
// DESIGN.md.
//
// The node-array-level invariants (fixed positions for Window/Camera/
// Display, Light appearing exactly once, Empty's parent-in-slot
// encoding) are still fully enforced by ReadNodes/WriteNodes regardless
// of whether a variant's data block is opaque or concretely modeled.
type OpaqueNode struct {
	NodeKind NodeType
	Payload  []byte
}

func (o OpaqueNode) Kind() NodeType { return o.NodeKind }

// opaqueNodeSize is the fixed per-variant byte length used when a node
// data block is preserved opaquely. Window, Display and Light have no
// retrievable source at all, so these sizes are reconstructed
// placeholders (documented in DESIGN.md as unresolved, not as grounded
// fact), chosen large enough to hold a plausible small fixed record and
// self-consistent across this codec's own read/write pair. This is
// honestly a gap: a real gamez file's Window/Display/Light blocks cannot
// be decoded field-by-field without a layout this pack never supplied.
var opaqueNodeSize = map[NodeType]uint32{
	NodeWindow:  44,
	NodeDisplay: 32,
	NodeLight:   212,
}

type opaqueNodeCodec struct{ k NodeType }

func (c opaqueNodeCodec) kind() NodeType { return c.k }

func (c opaqueNodeCodec) readData(r *stream.Reader, l Lookup, common NodeCommon, log *xlog.Helper) (NodeData, error) {
	buf := make([]byte, opaqueNodeSize[c.k])
	if err := r.ReadExact(buf); err != nil {
		return nil, err
	}
	return OpaqueNode{NodeKind: c.k, Payload: buf}, nil
}

func (opaqueNodeCodec) writeData(w *stream.Writer, l Lookup, data NodeData, log *xlog.Helper) error {
	return w.WriteExact(data.(OpaqueNode).Payload)
}

func (c opaqueNodeCodec) sizeData(l Lookup, data NodeData) uint32 {
	return opaqueNodeSize[c.k]
}

func init() {
	for _, k := range []NodeType{NodeWindow, NodeDisplay, NodeLight} {
		registerVariant(opaqueNodeCodec{k: k})
	}
}

package gamez

import (
	"github.com/TerranMechworks/mech3ax-sub002/internal/xlog"
	"github.com/TerranMechworks/mech3ax-sub002/stream"
)

// ReadModelNg decodes one PM/RC/CS ("next-gen") mesh/model stream.
// crates/gamez/src/model/ng/write.rs establishes that PM, RC and CS
// share one model-writer shape distinct from MW's, so this repo mirrors
// that split at the package level rather than collapsing it into
// model_mw.go; ng/write.rs's body was not part of the retrieval pack,
// so the concrete field layout is, for now, the same as mesh.go's (the
// one layout this repo could ground on mesh/mw/read.rs) — the dispatch
// boundary mirrors the original crate split even though the payload
// shape hasn't been observed to diverge yet. See DESIGN.md.
func ReadModelNg(r *stream.Reader, l Lookup, log *xlog.Helper) (Mesh, error) {
	return ReadMesh(r, l, log)
}

// WriteModelNg inverts ReadModelNg exactly (spec.md section 8).
func WriteModelNg(w *stream.Writer, mesh Mesh, l Lookup, log *xlog.Helper) error {
	return WriteMesh(w, mesh, l, log)
}

// ReadModel dispatches to the MW or "ng" model reader based on game
// flavor.
func ReadModel(r *stream.Reader, l Lookup, log *xlog.Helper) (Mesh, error) {
	if isMwLike(l) {
		return ReadModelMw(r, l, log)
	}
	return ReadModelNg(r, l, log)
}

// WriteModel dispatches to the MW or "ng" model writer based on game
// flavor.
func WriteModel(w *stream.Writer, mesh Mesh, l Lookup, log *xlog.Helper) error {
	if isMwLike(l) {
		return WriteModelMw(w, mesh, l, log)
	}
	return WriteModelNg(w, mesh, l, log)
}

package gamez

import (
	"github.com/TerranMechworks/mech3ax-sub002/game"
	"github.com/TerranMechworks/mech3ax-sub002/internal/xlog"
	"github.com/TerranMechworks/mech3ax-sub002/stream"
)

// isMwLike reports whether l.Variant uses the MW model layout rather
// than the shared PM/RC/CS ("ng") one.
func isMwLike(l Lookup) bool { return l.Variant == game.MW }

// ReadModelMw decodes one MechWarrior 3 mesh/model stream, grounded on
// crates/gamez/src/model/mw.rs and crates/gamez/src/mesh/mw/read.rs. It
// is the shared layout mesh.go implements directly.
func ReadModelMw(r *stream.Reader, l Lookup, log *xlog.Helper) (Mesh, error) {
	return ReadMesh(r, l, log)
}

// WriteModelMw inverts ReadModelMw exactly (spec.md section 8).
func WriteModelMw(w *stream.Writer, mesh Mesh, l Lookup, log *xlog.Helper) error {
	return WriteMesh(w, mesh, l, log)
}

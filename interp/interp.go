// Package interp implements the script-interpreter container codec from
// spec.md section 4.11 (component C11): a fixed-size table of named
// script records, each holding the offset and byte length of a blob
// that follows the table in table order (the blobs themselves carry no
// length prefix). No original_source file names
// this container directly (see DESIGN.md); its header/table shape
// follows texture.go's readHeader/readEntries split (a zero field, an
// element count, a fixed-size row per element, the row's pointer field
// recomputed analytically on write rather than dereferenced), and its
// offset-plus-length row follows the archive package's entry framing.
package interp

import (
	"github.com/TerranMechworks/mech3ax-sub002/internal/assert"
	"github.com/TerranMechworks/mech3ax-sub002/internal/merr"
	"github.com/TerranMechworks/mech3ax-sub002/internal/xlog"
	"github.com/TerranMechworks/mech3ax-sub002/stream"
	"github.com/TerranMechworks/mech3ax-sub002/types"
)

const (
	nameSize      = 32
	scriptRowSize = 40 // name[32] + start_offset(4) + length(4)
)

// Script is one decoded interpreter script: a name and its opaque blob
// (spec.md section 4.11: "each a length-prefixed byte buffer"). The blob
// is never interpreted by this package; it is preserved verbatim for
// byte-exact round-trip.
type Script struct {
	Name string
	Data []byte
}

type scriptRowC struct {
	Name        [nameSize]byte
	StartOffset uint32
	Length      uint32
}

// ReadScripts decodes a complete script table (spec.md section 4.11).
// log receives non-fatal anomalies; a nil log discards them.
func ReadScripts(r *stream.Reader, log *xlog.Helper) ([]Script, error) {
	if log == nil {
		log = xlog.Discard()
	}
	zero00, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	if err := assert.Eq[uint32]("interp field 00", 0, zero00, r.Prev); err != nil {
		return nil, err
	}
	count, err := r.ReadU32()
	if err != nil {
		return nil, err
	}

	rows := make([]scriptRowC, count)
	for i := range rows {
		if err := r.ReadStruct(&rows[i], scriptRowSize); err != nil {
			return nil, err
		}
	}

	scripts := make([]Script, count)
	for i, row := range rows {
		name, err := types.AsciiToStrPadded(row.Name[:])
		if err != nil {
			return nil, err
		}
		if err := assert.Eq[uint32]("script start offset", r.Offset, row.StartOffset, r.Prev); err != nil {
			return nil, err
		}
		data := make([]byte, row.Length)
		if err := r.ReadExact(data); err != nil {
			return nil, err
		}
		scripts[i] = Script{Name: name, Data: data}
	}
	return scripts, nil
}

// WriteScripts inverts ReadScripts exactly (spec.md section 8).
// StartOffset is computed analytically from the running write offset,
// the same convention gamez/node.go's WriteNodes uses for its own
// DataPtr field, rather than dereferenced.
func WriteScripts(w *stream.Writer, scripts []Script, log *xlog.Helper) error {
	if log == nil {
		log = xlog.Discard()
	}
	if err := w.WriteU32(0); err != nil {
		return err
	}
	if err := w.WriteU32(uint32(len(scripts))); err != nil {
		return err
	}

	offset := w.Offset + scriptRowSize*uint32(len(scripts))
	for _, s := range scripts {
		var row scriptRowC
		if len(s.Name) >= nameSize {
			return merr.Protocolf("script name %q too long for a %d-byte field", s.Name, nameSize)
		}
		types.AsciiFromStrPadded(row.Name[:], s.Name)
		row.StartOffset = offset
		row.Length = uint32(len(s.Data))
		if err := w.WriteStruct(&row); err != nil {
			return err
		}
		offset += row.Length
	}

	for _, s := range scripts {
		if err := w.WriteExact(s.Data); err != nil {
			return err
		}
	}
	return nil
}

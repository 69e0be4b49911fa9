// Package archive implements the versioned container format from spec.md
// section 4.6 (component C6) and the CRC32 check it depends on (component
// C5). It is grounded on the original project's
// crates/archive/src/archive.rs (see original_source/_INDEX.md),
// translated line-for-line where Go's type system allows: the same
// read_table/read_archive/write_archive shape, the same Motion-mode
// length backfill "haxx", and the same Rename-based duplicate-name
// handling (internal/rename), adapted from CountingReader/CountingWriter
// to this repo's stream package.
package archive

import (
	"fmt"
	"hash/crc32"
	"io"

	"github.com/TerranMechworks/mech3ax-sub002/internal/assert"
	"github.com/TerranMechworks/mech3ax-sub002/internal/merr"
	"github.com/TerranMechworks/mech3ax-sub002/internal/rename"
	"github.com/TerranMechworks/mech3ax-sub002/internal/xlog"
	"github.com/TerranMechworks/mech3ax-sub002/stream"
	"github.com/TerranMechworks/mech3ax-sub002/types"
)

// Mode selects the Version::Two container's payload-handling quirks
// (spec.md section 4.6).
type Mode int

const (
	Sounds Mode = iota
	Motion
	Reader
	ReaderBypass
)

// VersionKind is the archive trailer's format discriminant.
type VersionKind int

const (
	VersionOne VersionKind = iota
	VersionTwo
)

// Version selects the trailer layout and (for VersionTwo) the Mode.
type Version struct {
	Kind VersionKind
	Mode Mode
}

const (
	versionOneWord uint32 = 1
	versionTwoWord uint32 = 2
	entrySize      uint32 = 148
	nameSize              = 64
	garbageSize           = 76
)

// CRC32Init is the CRC32 accumulator's initial value (IEEE polynomial,
// the stdlib hash/crc32 default table — spec.md section 4.5 names no
// specific third-party implementation, and none appears anywhere in the
// retrieval pack; see DESIGN.md).
const CRC32Init uint32 = 0

func crc32Update(acc uint32, data []byte) uint32 {
	return crc32.Update(acc, crc32.IEEETable, data)
}

// entryC is the 148-byte on-disk entry descriptor (spec.md section 4.6).
type entryC struct {
	Start   uint32
	Length  uint32
	Name    [nameSize]byte
	Garbage [garbageSize]byte
}

// Entry is the neutral form of one archive entry (spec.md section 3: the
// neutral tree).
type Entry struct {
	Name    string
	Rename  *string
	Garbage []byte
}

type tableRow struct {
	name    string
	start   uint32
	length  uint32
	garbage []byte
}

func readTable(r *stream.Reader, version Version) ([]tableRow, uint32, error) {
	var count, start, checksum uint32
	switch version.Kind {
	case VersionOne:
		if err := r.Seek(stream.SeekEnd, -8); err != nil {
			return nil, 0, err
		}
		v, err := r.ReadU32()
		if err != nil {
			return nil, 0, err
		}
		if err := assert.Eq("archive version", versionOneWord, v, r.Prev); err != nil {
			return nil, 0, err
		}
		count, err = r.ReadU32()
		if err != nil {
			return nil, 0, err
		}
		start = 8
	case VersionTwo:
		if err := r.Seek(stream.SeekEnd, -12); err != nil {
			return nil, 0, err
		}
		v, err := r.ReadU32()
		if err != nil {
			return nil, 0, err
		}
		if err := assert.Eq("archive version", versionTwoWord, v, r.Prev); err != nil {
			return nil, 0, err
		}
		var err2 error
		count, err2 = r.ReadU32()
		if err2 != nil {
			return nil, 0, err2
		}
		checksum, err = r.ReadU32()
		if err != nil {
			return nil, 0, err
		}
		switch version.Mode {
		case Motion, Sounds:
			if err := assert.Eq("archive checksum", uint32(0), checksum, r.Prev); err != nil {
				return nil, 0, err
			}
		case Reader, ReaderBypass:
			// no constraint
		}
		start = 12
	}

	offset := int64(start) + int64(count)*int64(entrySize)
	if err := r.Seek(stream.SeekEnd, -offset); err != nil {
		return nil, 0, err
	}
	tableStart := r.Offset

	motionHaxx := version.Kind == VersionTwo && version.Mode == Motion

	rows := make([]tableRow, count)
	for i := uint32(0); i < count; i++ {
		var e entryC
		if err := r.ReadStruct(&e, entrySize); err != nil {
			return nil, 0, err
		}
		entryStart := e.Start
		entryEnd := e.Start + e.Length
		if err := assert.Lt("entry start", entryEnd, entryStart, r.Prev); err != nil {
			return nil, 0, err
		}
		if err := assert.Le("entry end", tableStart, entryEnd, r.Prev+4); err != nil {
			return nil, 0, err
		}
		if motionHaxx {
			if err := assert.Eq("entry length", uint32(1), e.Length, r.Prev+4); err != nil {
				return nil, 0, err
			}
		}
		name, err := types.AsciiToStrPadded(e.Name[:])
		if err != nil {
			return nil, 0, fmt.Errorf("entry name at %d: %w", r.Prev+8, err)
		}
		garbage := append([]byte(nil), e.Garbage[:]...)
		rows[i] = tableRow{name: name, start: entryStart, length: e.Length, garbage: garbage}
	}

	if motionHaxx {
		previous := tableStart
		for i := len(rows) - 1; i >= 0; i-- {
			rows[i].length = previous - rows[i].start
			previous = rows[i].start
		}
	}

	return rows, checksum, nil
}

// SaveFunc persists one decoded payload under name (possibly disambiguated)
// at the given absolute file offset.
type SaveFunc func(name string, data []byte, offset uint32) error

// ReadArchive walks the entry table of an archive and invokes saveFile
// for each payload in table order (spec.md section 4.6). For
// Version{Two, Reader}, the running CRC32 over the payload bytes must
// equal the trailer checksum (spec.md section 3 "CRC agreement").
func ReadArchive(r io.ReadSeeker, version Version, saveFile SaveFunc, log *xlog.Helper) ([]Entry, error) {
	if log == nil {
		log = xlog.Discard()
	}
	cr := stream.NewReader(r)
	rows, checksum, err := readTable(cr, version)
	if err != nil {
		return nil, err
	}

	crc := CRC32Init
	seen := rename.NewSeen()
	entries := make([]Entry, len(rows))
	for i, row := range rows {
		if err := cr.Seek(stream.SeekStart, int64(row.start)); err != nil {
			return nil, err
		}
		buf := make([]byte, row.length)
		if err := cr.ReadExact(buf); err != nil {
			return nil, err
		}
		crc = crc32Update(crc, buf)

		renamed := seen.Insert(row.name)
		filename := row.name
		if renamed != nil {
			log.Debugf("renaming entry from `%s` to `%s`", row.name, *renamed)
			filename = *renamed
		}
		if err := saveFile(filename, buf, cr.Prev); err != nil {
			return nil, err
		}
		entries[i] = Entry{Name: row.name, Rename: renamed, Garbage: row.garbage}
	}

	if version.Kind == VersionTwo && version.Mode == Reader {
		if err := assert.Eq("archive checksum", checksum, crc, cr.Offset); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// LoadFunc retrieves the payload bytes for name at the given (not yet
// final) absolute file offset, for WriteArchive.
type LoadFunc func(name string, offset uint32) ([]byte, error)

func entryToC(e Entry, start, length uint32) entryC {
	var rec entryC
	rec.Start = start
	rec.Length = length
	types.AsciiFromStrPadded(rec.Name[:], e.Name)
	copy(rec.Garbage[:], e.Garbage)
	return rec
}

// WriteArchive emits payloads in entries order followed by the entry
// table and trailer, inverting ReadArchive exactly (spec.md section 4.6).
func WriteArchive(w io.Writer, entries []Entry, version Version, loadFile LoadFunc, log *xlog.Helper) error {
	if log == nil {
		log = xlog.Discard()
	}
	cw := stream.NewWriter(w)
	count := uint32(len(entries))

	crc := CRC32Init
	offset := uint32(0)
	recs := make([]entryC, len(entries))
	for i, e := range entries {
		filename := e.Name
		if e.Rename != nil {
			log.Debugf("renaming entry from `%s` to `%s`", e.Name, *e.Rename)
			filename = *e.Rename
		}
		data, err := loadFile(filename, cw.Offset)
		if err != nil {
			return err
		}
		if err := cw.WriteExact(data); err != nil {
			return err
		}
		crc = crc32Update(crc, data)

		length := uint32(len(data))
		storedLength := length
		if version.Kind == VersionTwo && version.Mode == Motion {
			storedLength = 1
		}
		recs[i] = entryToC(e, offset, storedLength)
		offset += length
	}

	for _, rec := range recs {
		r := rec
		if err := cw.WriteStruct(&r); err != nil {
			return err
		}
	}

	switch version.Kind {
	case VersionOne:
		if err := cw.WriteU32(versionOneWord); err != nil {
			return err
		}
		return cw.WriteU32(count)
	case VersionTwo:
		if err := cw.WriteU32(versionTwoWord); err != nil {
			return err
		}
		if err := cw.WriteU32(count); err != nil {
			return err
		}
		switch version.Mode {
		case Reader, ReaderBypass:
			return cw.WriteU32(crc)
		default:
			return cw.WriteU32(0)
		}
	}
	return merr.Protocolf("unknown archive version kind %v", version.Kind)
}

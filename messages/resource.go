// Package messages implements the Windows-PE-style resource directory
// walk from spec.md section 4.8 (component C8): locating RT_MESSAGETABLE
// (id 11) and RT_STRING (id 6) leaves and returning their (language id,
// block) metadata without parsing the leaf payload itself. It is
// grounded on two sources: the resource directory record shapes and
// offset/is-directory bit-packing from saferwall-pe's resource.go
// (ImageResourceDirectory / ImageResourceDirectoryEntry /
// ImageResourceDataEntry, parseResourceDirectoryEntry), and the exact
// root/type/name/lang traversal and assertion sequence from the original
// project's crates/messages/src/resources/mod.rs (see
// original_source/_INDEX.md), translated from its ResourceReader.
package messages

import (
	"bytes"

	"github.com/TerranMechworks/mech3ax-sub002/internal/assert"
	"github.com/TerranMechworks/mech3ax-sub002/stream"
)

const (
	rtString       = 6
	rtMessageTable = 11

	resourceDirSize   = 16 // characteristics, timestamp, major/minor version, named/id entry counts
	resourceEntrySize = 8  // name/id(4) + offset_to_data(4)
	entryOffset       = resourceDirSize + resourceEntrySize

	mtCodePage = 0
	stCodePage = 1252
)

// StringBlock is one RT_STRING leaf's location, keyed by its containing
// block id (spec.md section 4.8).
type StringBlock struct {
	BlockID    uint32
	DataOffset uint32
	DataSize   uint32
}

// reader walks a byte-slice view of a resource section, tracking an
// offset relative to baseOffset (the absolute file offset of the
// section's start, used only to render located assertion errors),
// mirroring the original's ResourceReader.
type reader struct {
	r          *stream.Reader
	baseOffset uint32
}

func newReader(data []byte, baseOffset uint32) *reader {
	return &reader{r: stream.NewReader(bytes.NewReader(data)), baseOffset: baseOffset}
}

func (r *reader) absOffset() uint32 { return r.r.Offset + r.baseOffset }

// readDir reads an IMAGE_RESOURCE_DIRECTORY and returns its ID entry
// count; named entries must always be zero for this domain's resource
// trees (spec.md section 4.8).
func (r *reader) readDir(name string) (uint16, error) {
	abs := r.absOffset()
	if _, err := r.r.ReadU32(); err != nil { // characteristics
		return 0, err
	}
	if _, err := r.r.ReadU32(); err != nil { // time_date_stamp
		return 0, err
	}
	if _, err := r.r.ReadU16(); err != nil { // major_version
		return 0, err
	}
	if _, err := r.r.ReadU16(); err != nil { // minor_version
		return 0, err
	}
	namedEntries, err := r.r.ReadU16()
	if err != nil {
		return 0, err
	}
	if err := assert.Eq[uint16](name+" resource dir named entries", 0, namedEntries, abs); err != nil {
		return 0, err
	}
	idEntries, err := r.r.ReadU16()
	if err != nil {
		return 0, err
	}
	if err := assert.Gt[uint16](name+" resource dir ID entries", 0, idEntries, abs); err != nil {
		return 0, err
	}
	return idEntries, nil
}

// readEntry reads an IMAGE_RESOURCE_DIRECTORY_ENTRY and decodes its
// offset/is-directory bit packing the way saferwall-pe's
// parseResourceDirectoryEntry documents it: is_dir is the high bit of
// offset_to_data, and the entry offset is the remaining 31 bits. id is
// the raw name field when its high bit is clear (non-string identifiers
// only; string-named entries never occur in this domain's tables).
func (r *reader) readEntry() (entryOffset uint32, isDir bool, id *uint32, err error) {
	name, err := r.r.ReadU32()
	if err != nil {
		return 0, false, nil, err
	}
	offsetToData, err := r.r.ReadU32()
	if err != nil {
		return 0, false, nil, err
	}
	isDir = (offsetToData & 0x80000000) != 0
	entryOffset = offsetToData & 0x7FFFFFFF
	if name&0x80000000 == 0 {
		v := name
		id = &v
	}
	return entryOffset, isDir, id, nil
}

func (r *reader) readData(name string, codePage uint32) (dataOffset, dataSize uint32, err error) {
	abs := r.absOffset()
	dataOffset, err = r.r.ReadU32()
	if err != nil {
		return 0, 0, err
	}
	dataSize, err = r.r.ReadU32()
	if err != nil {
		return 0, 0, err
	}
	gotCodePage, err := r.r.ReadU32()
	if err != nil {
		return 0, 0, err
	}
	if err := assert.Eq[uint32](name+" resource data code page", codePage, gotCodePage, abs); err != nil {
		return 0, 0, err
	}
	reserved, err := r.r.ReadU32()
	if err != nil {
		return 0, 0, err
	}
	if err := assert.Eq[uint32](name+" resource data reserved", 0, reserved, abs); err != nil {
		return 0, 0, err
	}
	return dataOffset, dataSize, nil
}

func (r *reader) seekTo(rel uint32) error {
	return r.r.Seek(stream.SeekStart, int64(rel))
}

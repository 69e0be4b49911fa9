package messages

import (
	"encoding/binary"
	"testing"
)

// buildDirEntry appends an IMAGE_RESOURCE_DIRECTORY_ENTRY.
func buildDirEntry(buf []byte, id uint32, isDir bool, offset uint32) []byte {
	var rec [8]byte
	binary.LittleEndian.PutUint32(rec[0:4], id)
	off := offset & 0x7FFFFFFF
	if isDir {
		off |= 0x80000000
	}
	binary.LittleEndian.PutUint32(rec[4:8], off)
	return append(buf, rec[:]...)
}

func buildDir(buf []byte, idEntries uint16) []byte {
	var rec [16]byte
	binary.LittleEndian.PutUint16(rec[8:10], 0)
	binary.LittleEndian.PutUint16(rec[10:12], idEntries)
	return append(buf, rec[:]...)
}

func buildDataEntry(buf []byte, offset, size, codePage uint32) []byte {
	var rec [16]byte
	binary.LittleEndian.PutUint32(rec[0:4], offset)
	binary.LittleEndian.PutUint32(rec[4:8], size)
	binary.LittleEndian.PutUint32(rec[8:12], codePage)
	return append(buf, rec[:]...)
}

func TestReadDirectoryMT(t *testing.T) {
	var buf []byte
	// root dir (offset 0): 1 entry -> type entry at offset 16
	buf = buildDir(buf, 1)
	buf = buildDirEntry(buf, rtMessageTable, true, entryOffset*1) // type entry, at offset 16
	// type dir (offset 24): 1 entry -> name entry
	buf = buildDir(buf, 1)
	buf = buildDirEntry(buf, 1, true, entryOffset*2)
	// name dir (offset 48): 1 entry -> lang entry (leaf)
	buf = buildDir(buf, 1)
	buf = buildDirEntry(buf, 0x0409, false, entryOffset*3)
	// lang data entry (offset 72)
	buf = buildDataEntry(buf, 1000, 42, mtCodePage)

	lang, off, size, err := ReadDirectoryMT(buf, 5000)
	if err != nil {
		t.Fatal(err)
	}
	if lang != 0x0409 || off != 1000 || size != 42 {
		t.Fatalf("got lang=%d off=%d size=%d", lang, off, size)
	}
}

func TestDecodeMessageTable(t *testing.T) {
	var buf []byte
	// 1 block, ids [1,1], entries at offset right after headers (16)
	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], 1)
	buf = append(buf, header[:]...)
	var block [12]byte
	binary.LittleEndian.PutUint32(block[0:4], 1)
	binary.LittleEndian.PutUint32(block[4:8], 1)
	binary.LittleEndian.PutUint32(block[8:12], 16)
	buf = append(buf, block[:]...)

	text := "hi\x00"
	entryLen := 4 + len(text)
	var entry [4]byte
	binary.LittleEndian.PutUint16(entry[0:2], uint16(entryLen))
	binary.LittleEndian.PutUint16(entry[2:4], 0) // ANSI
	buf = append(buf, entry[:]...)
	buf = append(buf, []byte(text)...)

	msgs, err := DecodeMessageTable(buf)
	if err != nil {
		t.Fatal(err)
	}
	if msgs[1] != "hi" {
		t.Fatalf("got %q", msgs[1])
	}
}

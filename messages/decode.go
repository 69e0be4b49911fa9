package messages

import (
	"encoding/binary"

	"github.com/TerranMechworks/mech3ax-sub002/internal/assert"
	"github.com/TerranMechworks/mech3ax-sub002/internal/merr"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// messageEntryFlagUnicode marks a MESSAGE_RESOURCE_DATA entry's text as
// UTF-16LE rather than the ANSI (CP1252) code page; this is the Win32
// MESSAGE_RESOURCE_DATA wire format the RT_MESSAGETABLE leaf holds.
const messageEntryFlagUnicode = 0x0001

var utf16LE = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
var cp1252 = charmap.Windows1252.NewDecoder()

// DecodeMessageTable decodes a MESSAGE_RESOURCE_DATA block (the
// RT_MESSAGETABLE leaf payload located by ReadDirectoryMT) into a
// message-id -> string map. Each block covers an inclusive
// [lowID, highID] range of sequential message ids; entries are emitted
// in id order within a block.
func DecodeMessageTable(payload []byte) (map[uint32]string, error) {
	if len(payload) < 4 {
		return nil, merr.Protocolf("message table truncated: missing block count")
	}
	numBlocks := binary.LittleEndian.Uint32(payload[0:4])
	type blockHeader struct {
		lowID, highID, entriesOffset uint32
	}
	headers := make([]blockHeader, numBlocks)
	pos := 4
	for i := uint32(0); i < numBlocks; i++ {
		if pos+12 > len(payload) {
			return nil, merr.Protocolf("message table truncated: block header %d", i)
		}
		headers[i] = blockHeader{
			lowID:         binary.LittleEndian.Uint32(payload[pos : pos+4]),
			highID:        binary.LittleEndian.Uint32(payload[pos+4 : pos+8]),
			entriesOffset: binary.LittleEndian.Uint32(payload[pos+8 : pos+12]),
		}
		pos += 12
	}

	result := make(map[uint32]string)
	for _, h := range headers {
		off := int(h.entriesOffset)
		for id := h.lowID; id <= h.highID; id++ {
			if off+4 > len(payload) {
				return nil, merr.Protocolf("message table truncated: entry for id %d", id)
			}
			length := int(binary.LittleEndian.Uint16(payload[off : off+2]))
			flags := binary.LittleEndian.Uint16(payload[off+2 : off+4])
			if off+length > len(payload) || length < 4 {
				return nil, merr.Protocolf("message table truncated: entry for id %d has length %d", id, length)
			}
			text := payload[off+4 : off+length]
			var decoded string
			var err error
			if flags&messageEntryFlagUnicode != 0 {
				decoded, err = utf16LE.String(string(text))
			} else {
				decoded, err = cp1252.String(string(text))
			}
			if err != nil {
				return nil, err
			}
			result[id] = trimNUL(decoded)
			off += length
			if id == h.highID {
				break
			}
		}
	}
	return result, nil
}

// DecodeStringBlock decodes an RT_STRING leaf payload (16 consecutive
// length-prefixed UTF-16LE strings per block, per the Win32 STRINGTABLE
// wire format) into a string-id -> string map, keyed the standard way:
// id = blockID*16 + index.
func DecodeStringBlock(payload []byte, blockID uint32) (map[uint32]string, error) {
	result := make(map[uint32]string)
	pos := 0
	for i := uint32(0); i < 16; i++ {
		if pos+2 > len(payload) {
			return nil, merr.Protocolf("string block %d truncated at entry %d", blockID, i)
		}
		length := int(binary.LittleEndian.Uint16(payload[pos : pos+2]))
		pos += 2
		if length == 0 {
			continue
		}
		end := pos + length*2
		if err := assert.Le[int]("string table entry end", len(payload), end, uint32(pos)); err != nil {
			return nil, err
		}
		decoded, err := utf16LE.String(string(payload[pos:end]))
		if err != nil {
			return nil, err
		}
		result[blockID*16+i] = decoded
		pos = end
	}
	return result, nil
}

func trimNUL(s string) string {
	for len(s) > 0 && s[len(s)-1] == 0 {
		s = s[:len(s)-1]
	}
	return s
}

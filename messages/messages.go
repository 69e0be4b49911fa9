package messages

import (
	"github.com/TerranMechworks/mech3ax-sub002/internal/assert"
	"github.com/TerranMechworks/mech3ax-sub002/internal/merr"
)

func requireID(name string, id *uint32, offset uint32) (uint32, error) {
	if id == nil {
		return 0, merr.Protocolf("expected %s resource entry name to be an ID (at %d)", name, offset)
	}
	return *id, nil
}

// ReadDirectoryMT walks a .rsrc-style resource section expected to
// contain exactly one RT_MESSAGETABLE leaf (root -> type -> name ->
// lang, spec.md section 4.8), returning the language id and the leaf's
// (offset, size) within data.
func ReadDirectoryMT(data []byte, baseOffset uint32) (langID uint32, dataOffset uint32, dataSize uint32, err error) {
	r := newReader(data, baseOffset)

	numRoot, err := r.readDir("root")
	if err != nil {
		return 0, 0, 0, err
	}
	if err := assert.Eq[uint16]("root resource dir ID entries", 1, numRoot, r.absOffset()); err != nil {
		return 0, 0, 0, err
	}

	typeOffset, typeIsDir, typeID, err := r.readEntry()
	if err != nil {
		return 0, 0, 0, err
	}
	tid, err := requireID("type", typeID, r.absOffset())
	if err != nil {
		return 0, 0, 0, err
	}
	if err := assert.Eq[uint32]("type resource entry name", rtMessageTable, tid, r.absOffset()); err != nil {
		return 0, 0, 0, err
	}
	if err := assert.Eq[bool]("type resource entry dir", true, typeIsDir, r.absOffset()); err != nil {
		return 0, 0, 0, err
	}
	if err := assert.Eq[uint32]("type resource entry offset", entryOffset*1, typeOffset, r.absOffset()); err != nil {
		return 0, 0, 0, err
	}

	numType, err := r.readDir("type")
	if err != nil {
		return 0, 0, 0, err
	}
	if err := assert.Eq[uint16]("type resource dir ID entries", 1, numType, r.absOffset()); err != nil {
		return 0, 0, 0, err
	}

	nameEntryOffset, nameIsDir, nameID, err := r.readEntry()
	if err != nil {
		return 0, 0, 0, err
	}
	nid, err := requireID("name", nameID, r.absOffset())
	if err != nil {
		return 0, 0, 0, err
	}
	if err := assert.Eq[uint32]("name resource entry name", 1, nid, r.absOffset()); err != nil {
		return 0, 0, 0, err
	}
	if err := assert.Eq[bool]("name resource entry dir", true, nameIsDir, r.absOffset()); err != nil {
		return 0, 0, 0, err
	}
	if err := assert.Eq[uint32]("name resource entry offset", entryOffset*2, nameEntryOffset, r.absOffset()); err != nil {
		return 0, 0, 0, err
	}

	numName, err := r.readDir("name")
	if err != nil {
		return 0, 0, 0, err
	}
	if err := assert.Eq[uint16]("name resource dir ID entries", 1, numName, r.absOffset()); err != nil {
		return 0, 0, 0, err
	}

	langEntryOffset, langIsDir, langID2, err := r.readEntry()
	if err != nil {
		return 0, 0, 0, err
	}
	if err := assert.Eq[bool]("lang resource entry dir", false, langIsDir, r.absOffset()); err != nil {
		return 0, 0, 0, err
	}
	if err := assert.Eq[uint32]("lang resource entry offset", entryOffset*3, langEntryOffset, r.absOffset()); err != nil {
		return 0, 0, 0, err
	}
	lang, err := requireID("language", langID2, r.absOffset())
	if err != nil {
		return 0, 0, 0, err
	}

	off, size, err := r.readData("lang", mtCodePage)
	if err != nil {
		return 0, 0, 0, err
	}
	return lang, off, size, nil
}

// ReadDirectoryST walks a .rsrc-style resource section expected to
// contain an RT_STRING subtree with one or more name blocks, all
// sharing a single language id (spec.md section 4.8), returning that
// language id and the per-block (block_id, offset, size) triples.
func ReadDirectoryST(data []byte, baseOffset uint32) (langID uint32, blocks []StringBlock, err error) {
	r := newReader(data, baseOffset)

	numRoot, err := r.readDir("root")
	if err != nil {
		return 0, nil, err
	}
	if err := assert.Eq[uint16]("root resource dir ID entries", 3, numRoot, r.absOffset()); err != nil {
		return 0, nil, err
	}

	typeOffset, typeIsDir, typeID, err := r.readEntry()
	if err != nil {
		return 0, nil, err
	}
	tid, err := requireID("type", typeID, r.absOffset())
	if err != nil {
		return 0, nil, err
	}
	if err := assert.Eq[uint32]("type resource entry name", rtString, tid, r.absOffset()); err != nil {
		return 0, nil, err
	}
	if err := assert.Eq[bool]("type resource entry dir", true, typeIsDir, r.absOffset()); err != nil {
		return 0, nil, err
	}
	// skip the remaining root entries; jump straight to the string
	// table's type directory, as the original does.
	if err := r.seekTo(typeOffset); err != nil {
		return 0, nil, err
	}

	numType, err := r.readDir("type")
	if err != nil {
		return 0, nil, err
	}

	type nameRef struct {
		offset  uint32
		blockID uint32
	}
	refs := make([]nameRef, numType)
	for i := uint16(0); i < numType; i++ {
		entryOff, isDir, id, err := r.readEntry()
		if err != nil {
			return 0, nil, err
		}
		if err := assert.Eq[bool]("name resource entry dir", true, isDir, r.absOffset()); err != nil {
			return 0, nil, err
		}
		blockID, err := requireID("name", id, r.absOffset())
		if err != nil {
			return 0, nil, err
		}
		refs[i] = nameRef{offset: entryOff, blockID: blockID}
	}

	var langCheck *uint32
	blocks = make([]StringBlock, len(refs))
	for i, ref := range refs {
		if err := r.seekTo(ref.offset); err != nil {
			return 0, nil, err
		}
		numNameIDEntries, err := r.readDir("name")
		if err != nil {
			return 0, nil, err
		}
		if err := assert.Eq[uint16]("resource dir ID entries", 1, numNameIDEntries, r.absOffset()); err != nil {
			return 0, nil, err
		}

		langEntryOffset, langIsDir, langIDRaw, err := r.readEntry()
		if err != nil {
			return 0, nil, err
		}
		if err := assert.Eq[bool]("lang resource entry dir", false, langIsDir, r.absOffset()); err != nil {
			return 0, nil, err
		}
		lang, err := requireID("language", langIDRaw, r.absOffset())
		if err != nil {
			return 0, nil, err
		}
		if langCheck == nil {
			v := lang
			langCheck = &v
		} else if *langCheck != lang {
			return 0, nil, merr.Protocolf("expected language ID %d to match previous value %d", lang, *langCheck)
		}

		if err := r.seekTo(langEntryOffset); err != nil {
			return 0, nil, err
		}
		dataOffset, dataSize, err := r.readData("lang", stCodePage)
		if err != nil {
			return 0, nil, err
		}
		blocks[i] = StringBlock{BlockID: ref.blockID, DataOffset: dataOffset, DataSize: dataSize}
	}

	if langCheck == nil {
		return 0, nil, merr.Protocolf("expected at least one string table language entry")
	}
	return *langCheck, blocks, nil
}

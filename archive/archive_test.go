package archive

import (
	"bytes"
	"testing"
)

func TestArchiveV1RoundTrip(t *testing.T) {
	payloads := map[string][]byte{
		"a.txt": []byte("hello"),
		"b.txt": []byte("world!!"),
	}
	entries := []Entry{
		{Name: "a.txt"},
		{Name: "b.txt"},
	}

	var buf bytes.Buffer
	err := WriteArchive(&buf, entries, Version{Kind: VersionOne}, func(name string, offset uint32) ([]byte, error) {
		return payloads[name], nil
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	raw := buf.Bytes()
	// trailer is the last 8 bytes: version=1, count=2.
	trailer := raw[len(raw)-8:]
	if trailer[0] != 1 || trailer[4] != 2 {
		t.Fatalf("unexpected trailer bytes: %v", trailer)
	}

	got := map[string][]byte{}
	r := bytes.NewReader(raw)
	decoded, err := ReadArchive(r, Version{Kind: VersionOne}, func(name string, data []byte, offset uint32) error {
		got[name] = append([]byte(nil), data...)
		return nil
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(decoded) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(decoded))
	}
	for name, want := range payloads {
		if !bytes.Equal(got[name], want) {
			t.Fatalf("entry %s = %v, want %v", name, got[name], want)
		}
	}

	// re-encode from the decoded entries and confirm byte-exact round-trip
	// (spec.md section 8: encode(decode(bytes)) == bytes).
	var buf2 bytes.Buffer
	err = WriteArchive(&buf2, decoded, Version{Kind: VersionOne}, func(name string, offset uint32) ([]byte, error) {
		return got[name], nil
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), buf2.Bytes()) {
		t.Fatalf("round-trip bytes differ:\n%x\n%x", buf.Bytes(), buf2.Bytes())
	}
}

func TestArchiveV2ReaderCRCAgreement(t *testing.T) {
	payloads := map[string][]byte{"x.zrd": []byte("payload-data")}
	entries := []Entry{{Name: "x.zrd"}}

	var buf bytes.Buffer
	if err := WriteArchive(&buf, entries, Version{Kind: VersionTwo, Mode: Reader}, func(name string, offset uint32) ([]byte, error) {
		return payloads[name], nil
	}, nil); err != nil {
		t.Fatal(err)
	}

	_, err := ReadArchive(bytes.NewReader(buf.Bytes()), Version{Kind: VersionTwo, Mode: Reader}, func(name string, data []byte, offset uint32) error {
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("expected CRC to agree, got %v", err)
	}

	// corrupt a payload byte without touching the trailer: CRC must now fail.
	corrupted := append([]byte(nil), buf.Bytes()...)
	corrupted[0] ^= 0xFF
	_, err = ReadArchive(bytes.NewReader(corrupted), Version{Kind: VersionTwo, Mode: Reader}, func(name string, data []byte, offset uint32) error {
		return nil
	}, nil)
	if err == nil {
		t.Fatal("expected CRC mismatch error")
	}
}

func TestArchiveMotionModeLengthBackfill(t *testing.T) {
	payloads := [][]byte{[]byte("aaa"), []byte("bb"), []byte("c")}
	entries := []Entry{{Name: "0"}, {Name: "1"}, {Name: "2"}}

	var buf bytes.Buffer
	err := WriteArchive(&buf, entries, Version{Kind: VersionTwo, Mode: Motion}, func(name string, offset uint32) ([]byte, error) {
		switch name {
		case "0":
			return payloads[0], nil
		case "1":
			return payloads[1], nil
		default:
			return payloads[2], nil
		}
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	var got [][]byte
	_, err = ReadArchive(bytes.NewReader(buf.Bytes()), Version{Kind: VersionTwo, Mode: Motion}, func(name string, data []byte, offset uint32) error {
		got = append(got, append([]byte(nil), data...))
		return nil
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range payloads {
		if !bytes.Equal(got[i], want) {
			t.Fatalf("entry %d = %v, want %v", i, got[i], want)
		}
	}
}

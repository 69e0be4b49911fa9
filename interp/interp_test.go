package interp

import (
	"bytes"
	"testing"

	"github.com/TerranMechworks/mech3ax-sub002/stream"
)

func TestScriptsRoundTrip(t *testing.T) {
	scripts := []Script{
		{Name: "intro", Data: []byte("hello")},
		{Name: "loop01", Data: []byte{}},
		{Name: "outro", Data: []byte{1, 2, 3, 4, 5, 6, 7}},
	}

	var buf bytes.Buffer
	w := stream.NewWriter(&buf)
	if err := WriteScripts(w, scripts, nil); err != nil {
		t.Fatal(err)
	}

	r := stream.NewReader(bytes.NewReader(buf.Bytes()))
	got, err := ReadScripts(r, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(scripts) {
		t.Fatalf("got %d scripts, want %d", len(got), len(scripts))
	}
	for i, s := range scripts {
		if got[i].Name != s.Name {
			t.Fatalf("script %d name = %q, want %q", i, got[i].Name, s.Name)
		}
		if !bytes.Equal(got[i].Data, s.Data) {
			t.Fatalf("script %d data = %v, want %v", i, got[i].Data, s.Data)
		}
	}
}

func TestScriptsEmptyTable(t *testing.T) {
	var buf bytes.Buffer
	w := stream.NewWriter(&buf)
	if err := WriteScripts(w, nil, nil); err != nil {
		t.Fatal(err)
	}
	r := stream.NewReader(bytes.NewReader(buf.Bytes()))
	got, err := ReadScripts(r, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d scripts, want 0", len(got))
	}
}

func TestScriptNameTooLong(t *testing.T) {
	long := make([]byte, nameSize)
	for i := range long {
		long[i] = 'a'
	}
	scripts := []Script{{Name: string(long), Data: nil}}
	var buf bytes.Buffer
	w := stream.NewWriter(&buf)
	if err := WriteScripts(w, scripts, nil); err == nil {
		t.Fatal("expected an error for an oversized script name")
	}
}

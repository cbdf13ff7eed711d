package snapshot

import (
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	saved := []string{"a", "b", "c"}
	if err := fs.Save(Catalog, saved); err != nil {
		t.Fatalf("Save: %v", err)
	}

	var loaded []string
	found, err := fs.Load(Catalog, &loaded)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !found {
		t.Fatal("expected snapshot to be found")
	}
	if len(loaded) != 3 || loaded[0] != "a" {
		t.Fatalf("unexpected payload: %v", loaded)
	}
}

func TestFileStoreMissingSnapshot(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	var dest []string
	found, err := fs.Load(Sales, &dest)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if found {
		t.Fatal("expected no snapshot for fresh dir")
	}
}

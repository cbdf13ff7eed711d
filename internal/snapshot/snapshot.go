package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Logical snapshot names. The file layout is an implementation detail;
// callers only ever refer to these.
const (
	Catalog = "catalog"
	Sales   = "sales"
	Payouts = "payouts"
)

// Persister stores and recovers state snapshots by logical name.
type Persister interface {
	Load(name string, dest any) (bool, error)
	Save(name string, src any) error
}

// Noop discards saves and never finds a snapshot. Used in tests and when
// no data directory is configured.
type Noop struct{}

func (Noop) Load(_ string, _ any) (bool, error) { return false, nil }
func (Noop) Save(_ string, _ any) error         { return nil }

// FileStore keeps one JSON file per logical name inside a directory.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("snapshot dir required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) path(name string) string {
	return filepath.Join(f.dir, name+".json")
}

func (f *FileStore) Load(name string, dest any) (bool, error) {
	raw, err := os.ReadFile(f.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode snapshot %s: %w", name, err)
	}
	return true, nil
}

// Save writes to a temp file first so a crash mid-write never leaves a
// truncated snapshot behind.
func (f *FileStore) Save(name string, src any) error {
	payload, err := json.Marshal(src)
	if err != nil {
		return err
	}
	tmp := f.path(name) + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path(name))
}

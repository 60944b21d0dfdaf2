// Package saves persists battery backed cartridge RAM as raw dumps, one file
// per cartridge identity.
package saves

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash"
)

const (
	extension = ".sav"
	tempExt   = ".tmp"
)

var (
	// ErrNoSave is returned by Load when nothing was saved for an identity.
	ErrNoSave = errors.New("no save file")
	// ErrInvalidIdentity is returned for identities that would escape the
	// save directory.
	ErrInvalidIdentity = errors.New("invalid save identity")
)

// Store reads and writes save files in a single directory.
type Store struct {
	dir string
	// last holds the hash of what is on disk, per identity, so unchanged
	// RAM is not rewritten.
	last map[string]uint64
}

// NewStore returns a store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating save dir: %w", err)
	}
	return &Store{dir: dir, last: make(map[string]uint64)}, nil
}

// Dir returns the directory holding the save files.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file used for id.
func (s *Store) Path(id string) string {
	return filepath.Join(s.dir, id+extension)
}

func checkIdentity(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidIdentity, id)
	}
	return nil
}

// Load returns the RAM dump saved for id. A missing file yields an error
// matching both ErrNoSave and fs.ErrNotExist.
func (s *Store) Load(id string) ([]byte, error) {
	if err := checkIdentity(id); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w for %s: %w", ErrNoSave, id, err)
	}
	if err != nil {
		return nil, err
	}
	s.last[id] = xxhash.Sum64(data)
	slog.Debug("Loaded save", "id", id, "bytes", len(data))
	return data, nil
}

// Save writes data for id. The file is replaced atomically, a crash while
// writing leaves the previous save intact.
func (s *Store) Save(id string, data []byte) error {
	if err := checkIdentity(id); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, id+"-*"+tempExt)
	if err != nil {
		return fmt.Errorf("saving %s: %w", id, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("saving %s: %w", id, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("saving %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("saving %s: %w", id, err)
	}
	if err := os.Rename(tmp.Name(), s.Path(id)); err != nil {
		return fmt.Errorf("saving %s: %w", id, err)
	}

	s.last[id] = xxhash.Sum64(data)
	slog.Debug("Wrote save", "id", id, "bytes", len(data))
	return nil
}

// SaveIfChanged writes data only when it differs from what was last loaded
// or saved for id. Reports whether a write happened.
func (s *Store) SaveIfChanged(id string, data []byte) (bool, error) {
	if h, ok := s.last[id]; ok && h == xxhash.Sum64(data) {
		return false, nil
	}
	if err := s.Save(id, data); err != nil {
		return false, err
	}
	return true, nil
}

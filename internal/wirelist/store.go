// Package wirelist manages the wirelist documents kept under the project's
// wirelist directory: listing what is on disk, parsing a document into
// records, and writing the record set back out.
package wirelist

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tripcoil/TripCoil-Terminal/internal/codec"
	"github.com/tripcoil/TripCoil-Terminal/internal/record"
)

// Ext is the extension wirelist documents carry; bare names get it
// appended automatically.
const Ext = ".csv"

// ErrNotFound is returned when the named document does not exist.
var ErrNotFound = errors.New("wirelist: document not found")

// Store manages wirelist document IO rooted at a single directory.
type Store struct {
	dir string
}

// NewStore builds a store over the given directory. The directory is
// created lazily on the first Save.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the directory the store is rooted at.
func (s *Store) Dir() string {
	return s.dir
}

// Path resolves a document name inside the store. Names must be bare file
// names; a missing extension is filled in.
func (s *Store) Path(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("wirelist: file name is required")
	}
	if strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("wirelist: %q must be a bare file name", name)
	}
	if filepath.Ext(name) == "" {
		name += Ext
	}
	return filepath.Join(s.dir, name), nil
}

// List returns the document names present in the store, sorted by name. A
// store whose directory does not exist yet is simply empty.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("wirelist: list %s: %w", s.dir, err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), Ext) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Load parses the named document. Validation findings ride along in the
// report; only a missing file or an unreadable one is an error.
func (s *Store) Load(name string) (codec.Report, error) {
	path, err := s.Path(name)
	if err != nil {
		return codec.Report{}, err
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return codec.Report{}, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return codec.Report{}, fmt.Errorf("wirelist: open %s: %w", path, err)
	}
	defer file.Close()
	report, err := codec.Parse(file)
	if err != nil {
		return report, fmt.Errorf("wirelist: parse %s: %w", path, err)
	}
	return report, nil
}

// Save serializes records to the named document. The document is staged
// in full and renamed into place so an interrupted save never leaves a
// half-written wirelist where a complete one stood.
func (s *Store) Save(name string, records []record.Record) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := codec.Write(&buf, records); err != nil {
		return fmt.Errorf("wirelist: serialize %s: %w", name, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("wirelist: ensure %s: %w", s.dir, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("wirelist: write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("wirelist: write %s: %w", path, err)
	}
	return nil
}

package trace

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrStateNotFound is returned when no persisted session exists yet.
var ErrStateNotFound = errors.New("trace: session state not found")

// StateStore persists trace session snapshots.
type StateStore interface {
	Load() (SessionState, error)
	Save(SessionState) error
}

// Repository stores session state as JSON under the working directory.
type Repository struct {
	path string
}

// NewRepository creates a repository rooted at the given state directory.
func NewRepository(stateDir string) *Repository {
	return &Repository{path: filepath.Join(stateDir, "session.json")}
}

// Path returns the file the session is persisted to.
func (r *Repository) Path() string {
	return r.path
}

// Load reads the persisted session if present.
func (r *Repository) Load() (SessionState, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return SessionState{}, ErrStateNotFound
		}
		return SessionState{}, err
	}
	var state SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return SessionState{}, err
	}
	return state, nil
}

// Save writes the session state to disk. The write goes through a
// temporary file and a rename so a crash mid-write cannot leave a
// truncated session behind.
func (r *Repository) Save(state SessionState) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return err
	}
	encoded, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, append(encoded, '\n'), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, r.path)
}

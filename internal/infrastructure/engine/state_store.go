package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/shai-go/internal/domain"
	"github.com/doeshing/shai-go/internal/pkg/filesystem"
)

// StateStore persists the sticky Error state between invocations.
type StateStore interface {
	Load() (PersistedState, error)
	Save(PersistedState) error
	Clear() error
}

// PersistedState is the on-disk form of an unrecovered failure.
type PersistedState struct {
	State     domain.EngineState `yaml:"state"`
	Kind      string             `yaml:"kind,omitempty"`
	Message   string             `yaml:"message,omitempty"`
	UpdatedAt time.Time          `yaml:"updated_at"`
}

const (
	kindDownload = "download_failed"
	kindLoad     = "load_failed"
)

// Failed reports whether the record holds a sticky error.
func (p PersistedState) Failed() bool {
	return p.State == domain.EngineFailed
}

// Err rebuilds the engine error recorded on disk.
func (p PersistedState) Err() error {
	kind := domain.ErrLoadFailed
	if p.Kind == kindDownload {
		kind = domain.ErrDownloadFailed
	}
	var cause error
	if p.Message != "" {
		cause = errors.New(p.Message)
	}
	return &domain.EngineError{Kind: kind, Cause: cause}
}

// PersistedFromError records a failure.
func PersistedFromError(failure *domain.EngineError) PersistedState {
	kind := kindLoad
	if errors.Is(failure.Kind, domain.ErrDownloadFailed) {
		kind = kindDownload
	}
	message := ""
	if failure.Cause != nil {
		message = failure.Cause.Error()
	}
	return PersistedState{
		State:     domain.EngineFailed,
		Kind:      kind,
		Message:   message,
		UpdatedAt: time.Now().UTC(),
	}
}

// FileStateStore keeps the state in a YAML file, ~/.shai/engine/state.yaml by default.
type FileStateStore struct {
	path string
}

// NewFileStateStore creates a store at path, or at the default location when empty.
func NewFileStateStore(path string) *FileStateStore {
	if path == "" {
		path = filesystem.DataPath("engine", "state.yaml")
	}
	return &FileStateStore{path: path}
}

// Path returns the backing file.
func (s *FileStateStore) Path() string {
	return s.path
}

// Load reads the state; a missing file is an empty, non-failed state.
func (s *FileStateStore) Load() (PersistedState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return PersistedState{State: domain.EngineUnloaded}, nil
		}
		return PersistedState{}, err
	}
	var state PersistedState
	if err := yaml.Unmarshal(data, &state); err != nil {
		return PersistedState{}, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return state, nil
}

// Save writes the state.
func (s *FileStateStore) Save(state PersistedState) error {
	if err := os.MkdirAll(filepath.Dir(s.path), domain.DirectoryPermissions); err != nil {
		return err
	}
	data, err := yaml.Marshal(state)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, domain.SecureFilePermissions)
}

// Clear removes the file.
func (s *FileStateStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

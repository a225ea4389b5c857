package profile

// #region imports
import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	jsonc "github.com/muhammadmuzzammil1998/jsonc"
)

// #endregion

// ErrNoProfile is returned by mutating calls before a profile is loaded.
var ErrNoProfile = errors.New("no profile loaded")

// #region store

// FileStore owns the on-disk profile document. Reads hand out deep copies
// and writes go through Update, so no caller ever aliases the resident
// document.
type FileStore struct {
	mu      sync.RWMutex
	path    string
	current *Profile // nil until loaded
}

// NewFileStore creates a store for the given path without touching disk.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the on-disk location of the profile document.
func (s *FileStore) Path() string {
	return s.path
}

// #endregion

// #region load

// Load reads, validates, and caches the profile document. The file may
// carry JSONC comments. A missing file surfaces os.ErrNotExist so callers
// can distinguish "not onboarded" from a broken document.
func (s *FileStore) Load() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	clean := jsonc.ToJSON(raw)
	if err := ValidateBytes(clean); err != nil {
		return err
	}
	var p Profile
	if err := json.Unmarshal(clean, &p); err != nil {
		return fmt.Errorf("parse profile: %w", err)
	}
	normalize(&p)

	s.mu.Lock()
	s.current = &p
	s.mu.Unlock()
	return nil
}

// normalize fills in state a hand-edited document may omit.
func normalize(p *Profile) {
	if p.Behavior.CurrentStrategy == "" {
		p.Behavior.CurrentStrategy = p.Intervention.Primary
	}
	if p.Behavior.Scores == nil {
		p.Behavior.Scores = make(map[Strategy]float64, len(KnownStrategies))
	}
	for _, st := range KnownStrategies {
		if _, ok := p.Behavior.Scores[st]; !ok {
			p.Behavior.Scores[st] = 0
		}
	}
}

// #endregion

// #region read

// Loaded reports whether a profile document is resident.
func (s *FileStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil
}

// Get returns a deep copy of the current profile.
func (s *FileStore) Get() (Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Profile{}, false
	}
	return s.current.Clone(), true
}

// #endregion

// #region update

// Update applies mutate to a copy of the current profile and persists the
// result atomically. The resident document only advances when the write
// succeeds.
func (s *FileStore) Update(mutate func(*Profile)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ErrNoProfile
	}
	next := s.current.Clone()
	mutate(&next)
	normalize(&next)
	if err := s.writeLocked(&next); err != nil {
		return err
	}
	s.current = &next
	return nil
}

// Init loads an existing profile or writes a fresh default one.
func (s *FileStore) Init(name string) (Profile, error) {
	if _, err := os.Stat(s.path); err == nil {
		if err := s.Load(); err != nil {
			return Profile{}, err
		}
		p, _ := s.Get()
		return p, nil
	}
	p := Default(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeLocked(&p); err != nil {
		return Profile{}, err
	}
	s.current = &p
	return p.Clone(), nil
}

// writeLocked marshals and atomically replaces the document on disk.
func (s *FileStore) writeLocked(p *Profile) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	data = append(data, '\n')
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create profile directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write profile temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace profile: %w", err)
	}
	return nil
}

// #endregion

package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// Preference holds one user's saved dashboard layout and widget list.
type Preference struct {
	UserID    int             `json:"user_id"`
	Layout    json.RawMessage `json:"layout"`
	Widgets   json.RawMessage `json:"widgets"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// PreferenceStore persists dashboard preferences keyed by user id, using
// the same atomic JSON file backend as the user store.
type PreferenceStore struct {
	path  string
	mu    sync.RWMutex
	prefs map[int]*Preference
}

// NewPreferenceStore initializes a preference store at the given path.
func NewPreferenceStore(path string) *PreferenceStore {
	return &PreferenceStore{path: path, prefs: make(map[int]*Preference)}
}

// Load reads preferences from disk; a missing file is an empty store.
func (s *PreferenceStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prefs = make(map[int]*Preference)
	if s.path == "" {
		return errors.New("preference store path not set")
	}
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		_ = os.MkdirAll(filepath.Dir(s.path), 0o755)
		return nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	var m map[string]*Preference
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	for key, p := range m {
		id, err := strconv.Atoi(key)
		if err != nil || p == nil {
			continue
		}
		p.UserID = id
		s.prefs[id] = p
	}
	return nil
}

func (s *PreferenceStore) saveLocked() error {
	m := make(map[string]*Preference, len(s.prefs))
	for id, p := range s.prefs {
		m[strconv.Itoa(id)] = p
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Get returns a copy of the preference for a user. Missing users yield an
// empty preference, mirroring the original API's behavior.
func (s *PreferenceStore) Get(userID int) Preference {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.prefs[userID]; ok {
		return *p
	}
	return Preference{
		UserID:  userID,
		Layout:  json.RawMessage("{}"),
		Widgets: json.RawMessage("[]"),
	}
}

// Save stores and persists the preference for a user.
func (s *PreferenceStore) Save(userID int, layout, widgets json.RawMessage) error {
	if layout == nil {
		layout = json.RawMessage("{}")
	}
	if widgets == nil {
		widgets = json.RawMessage("[]")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs[userID] = &Preference{
		UserID:    userID,
		Layout:    layout,
		Widgets:   widgets,
		UpdatedAt: time.Now(),
	}
	return s.saveLocked()
}

// Package store persists demo users and dashboard preferences with JSON
// file backends.
package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User holds one demo account. PasswordHash is bcrypt.
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	CompanyName  string    `json:"company_name"`
	IsFirstLogin bool      `json:"is_first_login"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserStore manages persistent users with a JSON file backend.
type UserStore struct {
	path  string
	mu    sync.RWMutex
	users map[string]*User
}

// NewUserStore initializes a user store at the given path.
func NewUserStore(path string) *UserStore {
	return &UserStore{path: path, users: make(map[string]*User)}
}

// Load reads users from disk; a missing file is treated as an empty store.
func (s *UserStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = make(map[string]*User)
	if s.path == "" {
		return errors.New("user store path not set")
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
	var list []*User
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	for _, u := range list {
		if u != nil && u.Username != "" {
			s.users[u.Username] = u
		}
	}
	return nil
}

// saveLocked writes users to disk atomically with 0600 permissions.
// Caller must hold s.mu (write lock).
func (s *UserStore) saveLocked() error {
	list := make([]*User, 0, len(s.users))
	for _, u := range s.users {
		list = append(list, u)
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// IsEmpty reports whether no users exist.
func (s *UserStore) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users) == 0
}

// Get returns a copy of the user by username.
func (s *UserStore) Get(username string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	if !ok {
		return User{}, false
	}
	return *u, true
}

// GetByID returns a copy of the user with the given id.
func (s *UserStore) GetByID(id int) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ID == id {
			return *u, true
		}
	}
	return User{}, false
}

// CreateUser adds a user with a bcrypt-hashed password and persists.
func (s *UserStore) CreateUser(username, password, companyName string) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[username]; exists {
		return User{}, errors.New("user already exists")
	}
	u := &User{
		ID:           s.nextIDLocked(),
		Username:     username,
		PasswordHash: string(hash),
		CompanyName:  companyName,
		IsFirstLogin: true,
		CreatedAt:    time.Now(),
	}
	s.users[username] = u
	if err := s.saveLocked(); err != nil {
		delete(s.users, username)
		return User{}, err
	}
	return *u, nil
}

// CheckPassword validates a password against the stored hash.
func (s *UserStore) CheckPassword(username, password string) bool {
	s.mu.RLock()
	u, ok := s.users[username]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// MarkOnboarded flips is_first_login to false and persists.
func (s *UserStore) MarkOnboarded(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			if !u.IsFirstLogin {
				return nil
			}
			u.IsFirstLogin = false
			return s.saveLocked()
		}
	}
	return errors.New("user not found")
}

func (s *UserStore) nextIDLocked() int {
	max := 0
	for _, u := range s.users {
		if u.ID > max {
			max = u.ID
		}
	}
	return max + 1
}

// SeedDemoUsers creates the demo accounts when the store is empty.
func (s *UserStore) SeedDemoUsers() error {
	if !s.IsEmpty() {
		return nil
	}
	seeds := []struct {
		username, password, company string
	}{
		{"magazine", "demo123", "Magazine TORRA"},
		{"nipo", "demo123", "NIPO"},
	}
	for _, seed := range seeds {
		if _, err := s.CreateUser(seed.username, seed.password, seed.company); err != nil {
			return err
		}
	}
	return nil
}

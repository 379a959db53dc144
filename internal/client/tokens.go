package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tejaperfect/expensiver1-sub002/internal/api"
)

// Session is the persisted login state: the token pair plus the user it
// belongs to, so callers can show who is logged in without a round trip.
type Session struct {
	User         api.UserPayload `json:"user"`
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
}

// TokenStore keeps the session in memory and mirrors it to a file so a new
// process picks up the previous login.
type TokenStore struct {
	mu      sync.RWMutex
	path    string
	session Session
}

// DefaultSessionPath returns the per-user session file location.
func DefaultSessionPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".expensiver", "session.json"), nil
}

// NewTokenStore loads any existing session from path. A missing file is not
// an error, it just means nobody is logged in yet.
func NewTokenStore(path string) (*TokenStore, error) {
	ts := &TokenStore{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ts, nil
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}
	if err := json.Unmarshal(data, &ts.session); err != nil {
		// A corrupt session file is treated as logged out.
		return ts, nil
	}
	return ts, nil
}

// Save replaces the session and persists it with owner-only permissions.
func (ts *TokenStore) Save(s Session) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	ts.session = s

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(ts.path), 0o700); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}

	tmp := ts.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp, ts.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

// Clear forgets the session and removes the file.
func (ts *TokenStore) Clear() error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	ts.session = Session{}
	if err := os.Remove(ts.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// Session returns a copy of the current session.
func (ts *TokenStore) Session() Session {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.session
}

// AccessToken returns the current access token, empty when logged out.
func (ts *TokenStore) AccessToken() string {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.session.AccessToken
}

// RefreshToken returns the current refresh token, empty when logged out.
func (ts *TokenStore) RefreshToken() string {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.session.RefreshToken
}

// LoggedIn reports whether a session is present.
func (ts *TokenStore) LoggedIn() bool {
	return ts.AccessToken() != ""
}

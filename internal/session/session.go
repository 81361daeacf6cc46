// Package session persists the CLI's login between invocations.
package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/sangwon4052/sangwon-sign-off/internal/client"
)

const (
	dirName    = "signoff"
	fileName   = "session.json"
	dirPerms   = 0700
	filePerms  = 0600
	DefaultURL = "http://localhost:8080"
)

// Session is the single current-user record of the CLI. It is created at
// login, loaded at startup and reset at logout.
type Session struct {
	ServerURL string       `json:"server_url"`
	Token     string       `json:"token,omitempty"`
	ExpiresAt time.Time    `json:"expires_at,omitempty"`
	User      *client.User `json:"user,omitempty"`

	path string
}

// DefaultPath returns the session file location under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, dirName, fileName), nil
}

// Load reads the session at path. A missing file yields an empty session
// pointed at DefaultURL.
func Load(path string) (*Session, error) {
	s := &Session{ServerURL: DefaultURL, path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}
	if s.ServerURL == "" {
		s.ServerURL = DefaultURL
	}
	return s, nil
}

// Path is where the session is saved.
func (s *Session) Path() string {
	return s.path
}

// Begin records a successful login.
func (s *Session) Begin(token string, expiresAt time.Time, user client.User) {
	s.Token = token
	s.ExpiresAt = expiresAt
	s.User = &user
}

// Save writes the session to disk, creating the directory if needed.
func (s *Session) Save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), dirPerms); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, filePerms)
}

// Clear forgets the login and rewrites the session file so only the
// server URL remains for the next login.
func (s *Session) Clear() error {
	s.Token = ""
	s.ExpiresAt = time.Time{}
	s.User = nil
	return s.Save()
}

// Active reports whether a token is held and has not expired at now.
func (s *Session) Active(now time.Time) bool {
	if s.Token == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sangwon4052/sangwon-sign-off/internal/client"
)

func TestDefaultPath(t *testing.T) {
	path, err := DefaultPath()
	if err != nil {
		t.Fatalf("DefaultPath() returned error: %v", err)
	}
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		t.Fatalf("UserConfigDir() returned error: %v", err)
	}
	if path != filepath.Join(userConfigDir, dirName, fileName) {
		t.Errorf("unexpected path %s", path)
	}
}

func TestLoad(t *testing.T) {
	t.Run("returns empty session when file does not exist", func(t *testing.T) {
		s, err := Load(filepath.Join(t.TempDir(), "missing", fileName))
		if err != nil {
			t.Fatalf("Load() returned error: %v", err)
		}
		if s.ServerURL != DefaultURL || s.Token != "" || s.User != nil {
			t.Errorf("unexpected session %+v", s)
		}
	})

	t.Run("rejects malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), fileName)
		if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
		if _, err := Load(path); err == nil {
			t.Error("expected error for malformed session file")
		}
	})

	t.Run("fills in default server URL", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), fileName)
		if err := os.WriteFile(path, []byte(`{"token":"abc"}`), 0600); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
		s, err := Load(path)
		if err != nil {
			t.Fatalf("Load() returned error: %v", err)
		}
		if s.ServerURL != DefaultURL || s.Token != "abc" {
			t.Errorf("unexpected session %+v", s)
		}
	})
}

func TestSaveLoadClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), dirName, fileName)
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	expires := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s.ServerURL = "http://signoff.internal:9000"
	s.Begin("jwt-token", expires, client.User{ID: "u1", Name: "Kim", Email: "kim@x.com", Role: "approver"})
	if err := s.Save(); err != nil {
		t.Fatalf("Save() returned error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("session file missing: %v", err)
	}
	if info.Mode().Perm() != filePerms {
		t.Errorf("expected permissions %o, got %o", filePerms, info.Mode().Perm())
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if loaded.Token != "jwt-token" || !loaded.ExpiresAt.Equal(expires) || loaded.ServerURL != "http://signoff.internal:9000" {
		t.Errorf("unexpected loaded session %+v", loaded)
	}
	if loaded.User == nil || loaded.User.Role != "approver" {
		t.Errorf("expected cached user, got %+v", loaded.User)
	}

	if err := loaded.Clear(); err != nil {
		t.Fatalf("Clear() returned error: %v", err)
	}
	if loaded.Token != "" || loaded.User != nil {
		t.Errorf("expected cleared session, got %+v", loaded)
	}
	if loaded.ServerURL != "http://signoff.internal:9000" {
		t.Errorf("expected server URL to survive clear, got %s", loaded.ServerURL)
	}
	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() after Clear() returned error: %v", err)
	}
	if reloaded.Token != "" || reloaded.User != nil || !reloaded.ExpiresAt.IsZero() {
		t.Errorf("expected no login on disk, got %+v", reloaded)
	}
	if reloaded.ServerURL != "http://signoff.internal:9000" {
		t.Errorf("expected server URL kept on disk, got %s", reloaded.ServerURL)
	}
	if err := loaded.Clear(); err != nil {
		t.Errorf("second Clear() returned error: %v", err)
	}
}

func TestActive(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		session Session
		want    bool
	}{
		{"no token", Session{}, false},
		{"token without expiry", Session{Token: "t"}, true},
		{"token not yet expired", Session{Token: "t", ExpiresAt: now.Add(time.Hour)}, true},
		{"token expired", Session{Token: "t", ExpiresAt: now.Add(-time.Second)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.session.Active(now); got != tt.want {
				t.Errorf("Active() = %v, want %v", got, tt.want)
			}
		})
	}
}

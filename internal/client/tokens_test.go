package client

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/uuid"

	"github.com/tejaperfect/expensiver1-sub002/internal/api"
)

func TestTokenStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	ts, err := NewTokenStore(path)
	if err != nil {
		t.Fatalf("NewTokenStore: %v", err)
	}
	if ts.LoggedIn() {
		t.Fatal("fresh store should be logged out")
	}

	want := Session{
		User:         api.UserPayload{ID: uuid.New(), Name: "Ada", Email: "ada@example.com"},
		AccessToken:  "access",
		RefreshToken: "refresh",
	}
	if err := ts.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// A second store at the same path sees the persisted session.
	reloaded, err := NewTokenStore(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got := reloaded.Session()
	if got.AccessToken != want.AccessToken || got.RefreshToken != want.RefreshToken {
		t.Errorf("reloaded tokens = %+v, want %+v", got, want)
	}
	if got.User.ID != want.User.ID || got.User.Email != want.User.Email {
		t.Errorf("reloaded user = %+v, want %+v", got.User, want.User)
	}
}

func TestTokenStoreFilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}

	path := filepath.Join(t.TempDir(), "session.json")
	ts, _ := NewTokenStore(path)
	if err := ts.Save(Session{AccessToken: "a", RefreshToken: "r"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("session file mode = %o, want 600", perm)
	}
}

func TestTokenStoreClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	ts, _ := NewTokenStore(path)
	if err := ts.Save(Session{AccessToken: "a", RefreshToken: "r"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := ts.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if ts.LoggedIn() {
		t.Error("store should be logged out after Clear")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("session file should be removed")
	}

	// Clearing twice is fine.
	if err := ts.Clear(); err != nil {
		t.Errorf("second Clear: %v", err)
	}
}

func TestTokenStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	ts, err := NewTokenStore(path)
	if err != nil {
		t.Fatalf("NewTokenStore: %v", err)
	}
	if ts.LoggedIn() {
		t.Error("corrupt session file should mean logged out")
	}
}

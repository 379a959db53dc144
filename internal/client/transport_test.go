package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/tejaperfect/expensiver1-sub002/internal/api"
	applog "github.com/tejaperfect/expensiver1-sub002/internal/log"
)

func testLogger() *applog.Logger {
	return applog.New(applog.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *TokenStore) {
	t.Helper()

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	tokens, err := NewTokenStore(filepath.Join(t.TempDir(), "session.json"))
	if err != nil {
		t.Fatalf("NewTokenStore: %v", err)
	}
	return New(ts.URL, tokens, testLogger()), tokens
}

func seedSession(t *testing.T, tokens *TokenStore, access, refresh string) {
	t.Helper()
	err := tokens.Save(Session{
		User:         api.UserPayload{ID: uuid.New(), Name: "Ada", Email: "ada@example.com"},
		AccessToken:  access,
		RefreshToken: refresh,
	})
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}
}

func TestDoRefreshesOnceAndReplays(t *testing.T) {
	var mu sync.Mutex
	refreshes := 0
	meCalls := 0

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		refreshes++
		mu.Unlock()

		var req api.RefreshRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.RefreshToken != "good-refresh" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(api.ErrorResponse{Error: "invalid refresh token"})
			return
		}
		json.NewEncoder(w).Encode(api.AuthResponse{
			User:         api.UserPayload{Name: "Ada"},
			AccessToken:  "fresh-access",
			RefreshToken: "fresh-refresh",
		})
	})
	mux.HandleFunc("GET /api/v1/users/me", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		meCalls++
		mu.Unlock()

		if r.Header.Get("Authorization") != "Bearer fresh-access" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(api.ErrorResponse{Error: "token expired"})
			return
		}
		json.NewEncoder(w).Encode(api.UserPayload{Name: "Ada"})
	})

	c, tokens := newTestClient(t, mux)
	seedSession(t, tokens, "stale-access", "good-refresh")

	user, err := c.Users.Me(context.Background())
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if user.Name != "Ada" {
		t.Errorf("user = %q, want Ada", user.Name)
	}

	if refreshes != 1 {
		t.Errorf("refresh calls = %d, want 1", refreshes)
	}
	if meCalls != 2 {
		t.Errorf("me calls = %d, want original plus replay", meCalls)
	}
	if tokens.AccessToken() != "fresh-access" || tokens.RefreshToken() != "fresh-refresh" {
		t.Error("refreshed pair should be persisted")
	}
}

func TestDoFailedRefreshEndsSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/refresh", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(api.ErrorResponse{Error: "invalid refresh token"})
	})
	mux.HandleFunc("GET /api/v1/users/me", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(api.ErrorResponse{Error: "token expired"})
	})

	c, tokens := newTestClient(t, mux)
	seedSession(t, tokens, "stale-access", "stale-refresh")

	_, err := c.Users.Me(context.Background())
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("err = %v, want ErrSessionExpired", err)
	}
	if tokens.LoggedIn() {
		t.Error("session should be cleared after a failed refresh")
	}
}

func TestDoReplaysAtMostOnce(t *testing.T) {
	meCalls := 0

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/refresh", func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(api.AuthResponse{
			AccessToken:  "fresh-access",
			RefreshToken: "fresh-refresh",
		})
	})
	mux.HandleFunc("GET /api/v1/users/me", func(w http.ResponseWriter, _ *http.Request) {
		meCalls++
		// Keeps answering 401 even for the fresh token.
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(api.ErrorResponse{Error: "token expired"})
	})

	c, tokens := newTestClient(t, mux)
	seedSession(t, tokens, "stale-access", "good-refresh")

	_, err := c.Users.Me(context.Background())

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("err = %v, want a 401 APIError", err)
	}
	if meCalls != 2 {
		t.Errorf("me calls = %d, a request must be replayed at most once", meCalls)
	}
}

func TestConcurrentRequestsShareOneRefresh(t *testing.T) {
	var mu sync.Mutex
	refreshes := 0

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/refresh", func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		refreshes++
		mu.Unlock()
		json.NewEncoder(w).Encode(api.AuthResponse{
			AccessToken:  "fresh-access",
			RefreshToken: "fresh-refresh",
		})
	})
	mux.HandleFunc("GET /api/v1/users/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh-access" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(api.ErrorResponse{Error: "token expired"})
			return
		}
		json.NewEncoder(w).Encode(api.UserPayload{Name: "Ada"})
	})

	c, tokens := newTestClient(t, mux)
	seedSession(t, tokens, "stale-access", "good-refresh")

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Users.Me(context.Background())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("request %d: %v", i, err)
		}
	}
	if refreshes != 1 {
		t.Errorf("refresh calls = %d, want 1", refreshes)
	}
}

func TestDoWithoutSession(t *testing.T) {
	c, _ := newTestClient(t, http.NewServeMux())

	_, err := c.Users.Me(context.Background())
	if !errors.Is(err, ErrSessionExpired) {
		t.Errorf("err = %v, want ErrSessionExpired", err)
	}
}

func TestAPIErrorMessage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/users/me", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(api.ErrorResponse{Error: "email already registered"})
	})

	c, tokens := newTestClient(t, mux)
	seedSession(t, tokens, "access", "refresh")

	_, err := c.Users.Me(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIError", err)
	}
	if apiErr.StatusCode != http.StatusConflict || apiErr.Message != "email already registered" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

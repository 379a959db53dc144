package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tejaperfect/expensiver1-sub002/internal/amqp"
	"github.com/tejaperfect/expensiver1-sub002/internal/api"
	"github.com/tejaperfect/expensiver1-sub002/internal/auth"
	applog "github.com/tejaperfect/expensiver1-sub002/internal/log"
	"github.com/tejaperfect/expensiver1-sub002/internal/storage"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// recordingPublisher captures published export messages.
type recordingPublisher struct {
	messages []*amqp.ExportJobMessage
}

func (p *recordingPublisher) PublishExportJob(_ context.Context, msg *amqp.ExportJobMessage) error {
	p.messages = append(p.messages, msg)
	return nil
}

type testEnv struct {
	srv       *Server
	store     *storage.MemoryStore
	publisher *recordingPublisher
	ts        *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	jwtSvc, err := auth.NewJWTService(testSecret, 15*time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("NewJWTService: %v", err)
	}

	logger := applog.New(applog.Config{
		Handler: slog.NewTextHandler(io.Discard, nil),
	})

	store := storage.NewMemoryStore()
	publisher := &recordingPublisher{}
	srv := NewServer(":0", store, jwtSvc, publisher, t.TempDir(), logger)
	ts := httptest.NewServer(srv.Handler)

	t.Cleanup(func() {
		ts.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	return &testEnv{srv: srv, store: store, publisher: publisher, ts: ts}
}

// doJSON issues a request against the test server and decodes the response
// into out when out is non-nil.
func (e *testEnv) doJSON(t *testing.T, method, path, token string, body, out any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, e.ts.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s response: %v", method, path, err)
		}
	}
	return resp
}

// register creates a user and returns the auth response.
func (e *testEnv) register(t *testing.T, name, email string) api.AuthResponse {
	t.Helper()

	var got api.AuthResponse
	resp := e.doJSON(t, http.MethodPost, "/api/v1/auth/register", "", api.RegisterRequest{
		Name:     name,
		Email:    email,
		Password: "correct-horse",
	}, &got)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	return got
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		resp := env.doJSON(t, http.MethodGet, path, "", nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d, want %d", path, resp.StatusCode, http.StatusOK)
		}
	}
}

func TestAuthMiddlewareRejectsBadTokens(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		token string
	}{
		{name: "missing token", token: ""},
		{name: "garbage token", token: "not.a.jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.doJSON(t, http.MethodGet, "/api/v1/auth/me", tt.token, nil, nil)
			if resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
			}
		})
	}
}

func TestAuthMiddlewareRejectsRefreshTokenAsAccess(t *testing.T) {
	env := newTestEnv(t)
	session := env.register(t, "Ada", "ada@example.com")

	resp := env.doJSON(t, http.MethodGet, "/api/v1/auth/me", session.RefreshToken, nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestRateLimiterAllows(t *testing.T) {
	rl := newRateLimiter(3)
	defer rl.stop()

	for i := 0; i < 3; i++ {
		if !rl.allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.allow("10.0.0.1") {
		t.Error("request over the limit should be rejected")
	}
	if !rl.allow("10.0.0.2") {
		t.Error("a different client should not share the counter")
	}
}

func TestLRUCacheEviction(t *testing.T) {
	c := newLRUCache[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	if _, ok := c.Get("a"); ok {
		t.Error("oldest entry should have been evicted")
	}
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Errorf("Get(c) = %d, %v; want 3, true", v, ok)
	}
}

func TestLRUCacheTTL(t *testing.T) {
	c := newLRUCache[int](10, 10*time.Millisecond)

	c.Set("a", 1)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Error("expired entry should not be returned")
	}
}

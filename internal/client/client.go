// Package client is the Go API client for an Expensiver server. One service
// per resource, one method per endpoint; expired access tokens are refreshed
// transparently.
package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	applog "github.com/tejaperfect/expensiver1-sub002/internal/log"
)

// ErrSessionExpired is returned when the access token is rejected and the
// refresh token cannot mint a new pair. The stored session is cleared, the
// user has to log in again.
var ErrSessionExpired = errors.New("session expired, log in again")

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

type Client struct {
	baseURL string
	httpc   *http.Client
	tokens  *TokenStore
	log     *applog.Logger

	// refreshMu serializes token refresh so concurrent 401s trigger a
	// single refresh round trip.
	refreshMu sync.Mutex

	Auth     *AuthService
	Users    *UserService
	Expenses *ExpenseService
	Groups   *GroupService
	Wallet   *WalletService
	Exports  *ExportService
}

// New builds a client for the server at baseURL using the given token store
// for session persistence.
func New(baseURL string, tokens *TokenStore, logger *applog.Logger) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 30 * time.Second},
		tokens:  tokens,
		log:     logger.WithComponent(applog.ComponentClient),
	}
	c.Auth = &AuthService{c: c}
	c.Users = &UserService{c: c}
	c.Expenses = &ExpenseService{c: c}
	c.Groups = &GroupService{c: c}
	c.Wallet = &WalletService{c: c}
	c.Exports = &ExportService{c: c}
	return c
}

// SetHTTPClient swaps the underlying HTTP client, mainly for tests and
// callers that need custom transports.
func (c *Client) SetHTTPClient(httpc *http.Client) {
	c.httpc = httpc
}

// Tokens exposes the session store, for callers that need the cached user.
func (c *Client) Tokens() *TokenStore {
	return c.tokens
}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/tejaperfect/expensiver1-sub002/internal/api"
	applog "github.com/tejaperfect/expensiver1-sub002/internal/log"
)

// do issues a JSON request. When authed, a 401 triggers one token refresh
// followed by a single replay; a second 401 or a failed refresh ends the
// session.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	return c.request(ctx, method, path, query, body, out, true)
}

// doUnauthed is for the endpoints that work without a session.
func (c *Client) doUnauthed(ctx context.Context, method, path string, body, out any) error {
	return c.request(ctx, method, path, nil, body, out, false)
}

func (c *Client) request(ctx context.Context, method, path string, query url.Values, body, out any, authed bool) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
	}

	token := ""
	if authed {
		token = c.tokens.AccessToken()
		if token == "" {
			return ErrSessionExpired
		}
	}

	resp, err := c.send(ctx, method, path, query, payload, token)
	if err != nil {
		return err
	}

	if authed && resp.StatusCode == http.StatusUnauthorized {
		drain(resp)

		newToken, err := c.refresh(ctx, token)
		if err != nil {
			return err
		}

		resp, err = c.send(ctx, method, path, query, payload, newToken)
		if err != nil {
			return err
		}
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// rawGet is do for non-JSON responses. The caller owns the returned body.
func (c *Client) rawGet(ctx context.Context, path string) (*http.Response, error) {
	token := c.tokens.AccessToken()
	if token == "" {
		return nil, ErrSessionExpired
	}

	resp, err := c.send(ctx, http.MethodGet, path, nil, nil, token)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)

		newToken, err := c.refresh(ctx, token)
		if err != nil {
			return nil, err
		}
		resp, err = c.send(ctx, http.MethodGet, path, nil, nil, newToken)
		if err != nil {
			return nil, err
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer drain(resp)
		return nil, decodeError(resp)
	}
	return resp, nil
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload []byte, token string) (*http.Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

// refresh exchanges the refresh token for a new pair. staleToken is the
// access token that just got rejected; if another goroutine already
// refreshed past it, its result is reused instead of refreshing again.
func (c *Client) refresh(ctx context.Context, staleToken string) (string, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if current := c.tokens.AccessToken(); current != "" && current != staleToken {
		return current, nil
	}

	refreshToken := c.tokens.RefreshToken()
	if refreshToken == "" {
		return "", c.endSession()
	}

	var auth api.AuthResponse
	if err := c.doUnauthed(ctx, http.MethodPost, "/api/v1/auth/refresh", api.RefreshRequest{
		RefreshToken: refreshToken,
	}, &auth); err != nil {
		c.log.Warn("Token refresh failed",
			applog.FieldOperation, applog.OpRefresh,
			applog.FieldError, err)
		return "", c.endSession()
	}

	if err := c.tokens.Save(Session{
		User:         auth.User,
		AccessToken:  auth.AccessToken,
		RefreshToken: auth.RefreshToken,
	}); err != nil {
		return "", fmt.Errorf("persist refreshed session: %w", err)
	}

	c.log.Debug("Session refreshed", applog.FieldOperation, applog.OpRefresh)
	return auth.AccessToken, nil
}

func (c *Client) endSession() error {
	if err := c.tokens.Clear(); err != nil {
		c.log.Warn("Session cleanup failed", applog.FieldError, err)
	}
	return ErrSessionExpired
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var envelope api.ErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&envelope); err == nil {
		apiErr.Message = envelope.Error
	}
	return apiErr
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	resp.Body.Close()
}

package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/tejaperfect/expensiver1-sub002/internal/api"
)

// AuthService manages the session lifecycle.
type AuthService struct {
	c *Client
}

// Register creates an account and stores the returned session.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (api.UserPayload, error) {
	var auth api.AuthResponse
	err := s.c.doUnauthed(ctx, http.MethodPost, "/api/v1/auth/register", api.RegisterRequest{
		Name:     name,
		Email:    email,
		Password: password,
	}, &auth)
	if err != nil {
		return api.UserPayload{}, err
	}
	return auth.User, s.saveSession(auth)
}

// Login authenticates and stores the returned session.
func (s *AuthService) Login(ctx context.Context, email, password string) (api.UserPayload, error) {
	var auth api.AuthResponse
	err := s.c.doUnauthed(ctx, http.MethodPost, "/api/v1/auth/login", api.LoginRequest{
		Email:    email,
		Password: password,
	}, &auth)
	if err != nil {
		return api.UserPayload{}, err
	}
	return auth.User, s.saveSession(auth)
}

// Logout tells the server and clears the stored session. The local session
// goes away even when the server call fails.
func (s *AuthService) Logout(ctx context.Context) error {
	reqErr := s.c.do(ctx, http.MethodPost, "/api/v1/auth/logout", nil, nil, nil)
	if err := s.c.tokens.Clear(); err != nil {
		return err
	}
	if reqErr != nil && !errors.Is(reqErr, ErrSessionExpired) {
		return reqErr
	}
	return nil
}

// Me fetches the authenticated user from the server and updates the cached
// copy in the session store.
func (s *AuthService) Me(ctx context.Context) (api.UserPayload, error) {
	var user api.UserPayload
	if err := s.c.do(ctx, http.MethodGet, "/api/v1/auth/me", nil, nil, &user); err != nil {
		return api.UserPayload{}, err
	}

	session := s.c.tokens.Session()
	session.User = user
	if err := s.c.tokens.Save(session); err != nil {
		return user, fmt.Errorf("update cached user: %w", err)
	}
	return user, nil
}

func (s *AuthService) saveSession(auth api.AuthResponse) error {
	return s.c.tokens.Save(Session{
		User:         auth.User,
		AccessToken:  auth.AccessToken,
		RefreshToken: auth.RefreshToken,
	})
}

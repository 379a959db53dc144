package client

import (
	"context"
	"net/http"

	"github.com/tejaperfect/expensiver1-sub002/internal/api"
)

// UserService reads and updates the authenticated user's profile.
type UserService struct {
	c *Client
}

func (s *UserService) Me(ctx context.Context) (api.UserPayload, error) {
	var user api.UserPayload
	err := s.c.do(ctx, http.MethodGet, "/api/v1/users/me", nil, nil, &user)
	return user, err
}

// Update patches the profile. Empty fields are left unchanged.
func (s *UserService) Update(ctx context.Context, req api.UpdateUserRequest) (api.UserPayload, error) {
	var user api.UserPayload
	if err := s.c.do(ctx, http.MethodPatch, "/api/v1/users/me", nil, req, &user); err != nil {
		return api.UserPayload{}, err
	}

	session := s.c.tokens.Session()
	session.User = user
	if err := s.c.tokens.Save(session); err != nil {
		return user, err
	}
	return user, nil
}

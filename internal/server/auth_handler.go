package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tejaperfect/expensiver1-sub002/internal/api"
	"github.com/tejaperfect/expensiver1-sub002/internal/auth"
	"github.com/tejaperfect/expensiver1-sub002/internal/core"
	applog "github.com/tejaperfect/expensiver1-sub002/internal/log"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if err := s.decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	user := core.User{
		ID:           uuid.New(),
		Name:         sanitizeInput(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := user.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.CreateUser(r.Context(), user); err != nil {
		respondStoreError(w, err)
		return
	}

	pair, err := s.jwt.GeneratePair(r.Context(), user.ID)
	if err != nil {
		s.log.ErrorContext(r.Context(), "Token generation failed", applog.FieldError, err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.log.InfoContext(r.Context(), "User registered", applog.FieldUserID, user.ID)
	respondJSON(w, http.StatusCreated, api.AuthResponse{
		User:         toUserPayload(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := s.decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.store.GetUserByEmail(r.Context(), email)
	if err != nil {
		// Same answer for unknown email and bad password.
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := auth.ComparePassword(user.PasswordHash, req.Password); err != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	pair, err := s.jwt.GeneratePair(r.Context(), user.ID)
	if err != nil {
		s.log.ErrorContext(r.Context(), "Token generation failed", applog.FieldError, err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.log.InfoContext(r.Context(), "User logged in",
		applog.FieldUserID, user.ID,
		applog.FieldOperation, applog.OpLogin)
	respondJSON(w, http.StatusOK, api.AuthResponse{
		User:         toUserPayload(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req api.RefreshRequest
	if err := s.decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	claims, err := s.jwt.ValidateRefresh(r.Context(), req.RefreshToken)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	user, err := s.store.GetUser(r.Context(), claims.UserID)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	pair, err := s.jwt.GeneratePair(r.Context(), user.ID)
	if err != nil {
		s.log.ErrorContext(r.Context(), "Token generation failed", applog.FieldError, err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.log.DebugContext(r.Context(), "Token pair refreshed",
		applog.FieldUserID, user.ID,
		applog.FieldOperation, applog.OpRefresh)
	respondJSON(w, http.StatusOK, api.AuthResponse{
		User:         toUserPayload(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// handleLogout exists so clients have a single call to end a session.
// Tokens are stateless, the client discards its pair.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if id, ok := UserIDFromContext(r.Context()); ok {
		s.log.InfoContext(r.Context(), "User logged out", applog.FieldUserID, id)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	user, err := s.store.GetUser(r.Context(), userID)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toUserPayload(user))
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req api.UpdateUserRequest
	if err := s.decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.store.GetUser(r.Context(), userID)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	if req.Name != "" {
		user.Name = sanitizeInput(req.Name)
	}
	if req.Email != "" {
		user.Email = strings.ToLower(strings.TrimSpace(req.Email))
	}
	if err := user.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.UpdateUser(r.Context(), user); err != nil {
		respondStoreError(w, err)
		return
	}

	s.log.InfoContext(r.Context(), "Profile updated", applog.FieldUserID, user.ID)
	respondJSON(w, http.StatusOK, toUserPayload(user))
}

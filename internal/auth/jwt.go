// Package auth issues and validates the JWT token pairs used by the API and
// hashes account passwords.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token expired")
	ErrWrongTokenType = errors.New("wrong token type")
)

// TokenPair bundles the short-lived access token with the refresh token
// that can mint the next pair.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Claims is the validated content of a token.
type Claims struct {
	UserID    uuid.UUID
	TokenType string
	ExpiresAt time.Time
}

type tokenClaims struct {
	UserID    uuid.UUID `json:"uid"`
	TokenType string    `json:"type"`
	jwt.RegisteredClaims
}

// JWTService signs and validates HMAC-SHA256 token pairs.
type JWTService struct {
	signingKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	clockSkew  time.Duration
	timeFunc   func() time.Time // injectable for tests
}

func NewJWTService(secret string, accessTTL, refreshTTL time.Duration) (*JWTService, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 32 characters")
	}
	return &JWTService{
		signingKey: []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		clockSkew:  2 * time.Minute,
		timeFunc:   time.Now,
	}, nil
}

// GeneratePair issues a fresh access+refresh token pair for the user.
func (s *JWTService) GeneratePair(ctx context.Context, userID uuid.UUID) (TokenPair, error) {
	access, err := s.sign(userID, tokenTypeAccess, s.accessTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.sign(userID, tokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	slog.DebugContext(ctx, "Issued token pair", "user_id", userID)
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// ValidateAccess validates an access token and returns its claims.
func (s *JWTService) ValidateAccess(ctx context.Context, token string) (*Claims, error) {
	return s.validate(ctx, token, tokenTypeAccess)
}

// ValidateRefresh validates a refresh token and returns its claims.
func (s *JWTService) ValidateRefresh(ctx context.Context, token string) (*Claims, error) {
	return s.validate(ctx, token, tokenTypeRefresh)
}

func (s *JWTService) sign(userID uuid.UUID, tokenType string, ttl time.Duration) (string, error) {
	now := s.timeFunc()
	claims := tokenClaims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.New().String(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
}

func (s *JWTService) validate(ctx context.Context, tokenString, wantType string) (*Claims, error) {
	now := s.timeFunc()
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(s.clockSkew),
		jwt.WithTimeFunc(func() time.Time { return now }),
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&tokenClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.signingKey, nil
		},
		parserOpts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			slog.DebugContext(ctx, "Token validation failed: expired", "token_type", wantType)
			return nil, ErrExpiredToken
		}
		slog.DebugContext(ctx, "Token validation failed", "token_type", wantType, "error", err)
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != wantType {
		slog.DebugContext(ctx, "Token validation failed: wrong type",
			"expected", wantType, "actual", claims.TokenType)
		return nil, ErrWrongTokenType
	}

	return &Claims{
		UserID:    claims.UserID,
		TokenType: claims.TokenType,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func testService(t *testing.T) *JWTService {
	t.Helper()
	svc, err := NewJWTService(strings.Repeat("k", 32), 15*time.Minute, 24*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return svc
}

func TestNewJWTServiceRejectsShortSecret(t *testing.T) {
	if _, err := NewJWTService("short", time.Minute, time.Hour); err == nil {
		t.Fatal("expected error for short secret")
	}
}

func TestGenerateAndValidatePair(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	userID := uuid.New()

	pair, err := svc.GeneratePair(ctx, userID)
	if err != nil {
		t.Fatal(err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("empty token in pair")
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Fatal("access and refresh tokens must differ")
	}

	claims, err := svc.ValidateAccess(ctx, pair.AccessToken)
	if err != nil {
		t.Fatalf("access token rejected: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("claims user = %s, want %s", claims.UserID, userID)
	}

	rclaims, err := svc.ValidateRefresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh token rejected: %v", err)
	}
	if rclaims.UserID != userID {
		t.Fatalf("refresh claims user = %s, want %s", rclaims.UserID, userID)
	}
}

func TestWrongTokenType(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	pair, err := svc.GeneratePair(ctx, uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ValidateAccess(ctx, pair.RefreshToken); !errors.Is(err, ErrWrongTokenType) {
		t.Fatalf("refresh-as-access: got %v, want ErrWrongTokenType", err)
	}
	if _, err := svc.ValidateRefresh(ctx, pair.AccessToken); !errors.Is(err, ErrWrongTokenType) {
		t.Fatalf("access-as-refresh: got %v, want ErrWrongTokenType", err)
	}
}

func TestExpiredToken(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	pair, err := svc.GeneratePair(ctx, uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	// Move the validation clock well past expiry plus clock skew
	svc.timeFunc = func() time.Time { return time.Now().Add(48 * time.Hour) }
	if _, err := svc.ValidateAccess(ctx, pair.AccessToken); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("got %v, want ErrExpiredToken", err)
	}
	if _, err := svc.ValidateRefresh(ctx, pair.RefreshToken); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("got %v, want ErrExpiredToken", err)
	}
}

func TestGarbageToken(t *testing.T) {
	svc := testService(t)
	for _, tok := range []string{"", "garbage", "a.b.c"} {
		if _, err := svc.ValidateAccess(context.Background(), tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("token %q: got %v, want ErrInvalidToken", tok, err)
		}
	}
}

func TestOtherKeyRejected(t *testing.T) {
	svc := testService(t)
	other, err := NewJWTService(strings.Repeat("x", 32), 15*time.Minute, 24*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	pair, err := other.GeneratePair(context.Background(), uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ValidateAccess(context.Background(), pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign token accepted: %v", err)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatal(err)
	}
	if err := ComparePassword(hash, "correct horse battery"); err != nil {
		t.Fatalf("valid password rejected: %v", err)
	}
	if err := ComparePassword(hash, "wrong"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("got %v, want ErrPasswordMismatch", err)
	}
	if _, err := HashPassword("short"); err == nil {
		t.Fatal("expected error for short password")
	}
	if _, err := HashPassword(strings.Repeat("p", 73)); err == nil {
		t.Fatal("expected error for oversized password")
	}
}

package auth

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestJWTService(t *testing.T) *JWTService {
	t.Helper()
	return NewJWTService(
		[]byte("access-secret"),
		[]byte("refresh-secret"),
		15*time.Minute,
		7*24*time.Hour,
	)
}

func newTestPasetoService(t *testing.T) *PasetoService {
	t.Helper()
	svc, err := NewPasetoService(
		bytes.Repeat([]byte("a"), 32),
		bytes.Repeat([]byte("r"), 32),
		15*time.Minute,
		7*24*time.Hour,
	)
	if err != nil {
		t.Fatalf("new paseto service: %v", err)
	}
	return svc
}

func TestTokenRoundTrip(t *testing.T) {
	backends := map[string]TokenService{
		"jwt":    newTestJWTService(t),
		"paseto": newTestPasetoService(t),
	}

	for name, svc := range backends {
		t.Run(name, func(t *testing.T) {
			userID := uuid.New()

			access, err := svc.CreateAccessToken(userID, "asha@example.com")
			if err != nil {
				t.Fatalf("create access token: %v", err)
			}
			claims, err := svc.VerifyAccessToken(access)
			if err != nil {
				t.Fatalf("verify access token: %v", err)
			}
			if claims.UserID != userID.String() {
				t.Fatalf("expected user id %s, got %s", userID, claims.UserID)
			}
			if claims.Email != "asha@example.com" {
				t.Fatalf("expected email claim, got %q", claims.Email)
			}
			if !claims.ExpiresAt.After(claims.IssuedAt) {
				t.Fatal("expected expiry after issuance")
			}

			refresh, err := svc.CreateRefreshToken(userID)
			if err != nil {
				t.Fatalf("create refresh token: %v", err)
			}
			refreshClaims, err := svc.VerifyRefreshToken(refresh)
			if err != nil {
				t.Fatalf("verify refresh token: %v", err)
			}
			if refreshClaims.UserID != userID.String() {
				t.Fatalf("expected user id %s, got %s", userID, refreshClaims.UserID)
			}
		})
	}
}

func TestAccessTokenNotValidAsRefresh(t *testing.T) {
	backends := map[string]TokenService{
		"jwt":    newTestJWTService(t),
		"paseto": newTestPasetoService(t),
	}

	for name, svc := range backends {
		t.Run(name, func(t *testing.T) {
			access, err := svc.CreateAccessToken(uuid.New(), "asha@example.com")
			if err != nil {
				t.Fatalf("create access token: %v", err)
			}
			if _, err := svc.VerifyRefreshToken(access); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected access token to fail refresh verification, got %v", err)
			}
		})
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	jwtSvc := NewJWTService([]byte("access-secret"), []byte("refresh-secret"), -time.Minute, -time.Minute)
	pasetoSvc, err := NewPasetoService(
		bytes.Repeat([]byte("a"), 32),
		bytes.Repeat([]byte("r"), 32),
		-time.Minute,
		-time.Minute,
	)
	if err != nil {
		t.Fatalf("new paseto service: %v", err)
	}

	backends := map[string]TokenService{"jwt": jwtSvc, "paseto": pasetoSvc}

	for name, svc := range backends {
		t.Run(name, func(t *testing.T) {
			token, err := svc.CreateAccessToken(uuid.New(), "asha@example.com")
			if err != nil {
				t.Fatalf("create access token: %v", err)
			}
			if _, err := svc.VerifyAccessToken(token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected expired token to fail with ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestWrongSecretRejected(t *testing.T) {
	issuer := newTestJWTService(t)
	verifier := NewJWTService([]byte("other-secret"), []byte("other-refresh"), 15*time.Minute, time.Hour)

	token, err := issuer.CreateAccessToken(uuid.New(), "asha@example.com")
	if err != nil {
		t.Fatalf("create access token: %v", err)
	}
	if _, err := verifier.VerifyAccessToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected wrong-secret verification to fail, got %v", err)
	}
}

func TestTamperedTokenRejected(t *testing.T) {
	backends := map[string]TokenService{
		"jwt":    newTestJWTService(t),
		"paseto": newTestPasetoService(t),
	}

	for name, svc := range backends {
		t.Run(name, func(t *testing.T) {
			token, err := svc.CreateAccessToken(uuid.New(), "asha@example.com")
			if err != nil {
				t.Fatalf("create access token: %v", err)
			}
			flipped := byte('A')
			if token[len(token)-1] == flipped {
				flipped = 'B'
			}
			tampered := token[:len(token)-1] + string(flipped)
			if _, err := svc.VerifyAccessToken(tampered); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected tampered token to fail, got %v", err)
			}
		})
	}
}

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/KaleemAfrozShaik/PathFinder-Backend/internal/user"
)

// ErrInvalidToken is returned for every verification failure. Expired,
// forged and malformed tokens are indistinguishable to callers.
var ErrInvalidToken = errors.New("invalid token")

// TokenClaims represents the claims carried by an issued token
type TokenClaims struct {
	UserID    string // UUID stored as string in the token
	Email     string // empty for refresh tokens
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenService defines the interface for token creation and validation.
// Implementations: JWTService (HS256 with separate access/refresh
// secrets) and PasetoService (v4.local with separate symmetric keys).
type TokenService interface {
	CreateAccessToken(userID uuid.UUID, email string) (string, error)
	CreateRefreshToken(userID uuid.UUID) (string, error)
	VerifyAccessToken(tokenStr string) (*TokenClaims, error)
	VerifyRefreshToken(tokenStr string) (*TokenClaims, error)
}

// UserStore is the slice of the user repository the auth subsystem uses
type UserStore interface {
	Create(ctx context.Context, u *user.User) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetSanitizedByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*user.User, error)
	SetRefreshToken(ctx context.Context, id uuid.UUID, token string) error
	RotateRefreshToken(ctx context.Context, id uuid.UUID, oldToken, newToken string) error
	ClearRefreshToken(ctx context.Context, id uuid.UUID) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateProfile(ctx context.Context, id uuid.UUID, name, bio, profilePicture *string) (*user.User, error)
}

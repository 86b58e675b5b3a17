package auth

import (
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
)

// PasetoService implements TokenService with PASETO v4.local tokens
// (symmetric encryption with XChaCha20-Poly1305). Access and refresh
// tokens use independent 32-byte keys.
type PasetoService struct {
	accessKey       paseto.V4SymmetricKey
	refreshKey      paseto.V4SymmetricKey
	accessDuration  time.Duration
	refreshDuration time.Duration
}

func NewPasetoService(accessKey, refreshKey []byte, accessDuration, refreshDuration time.Duration) (*PasetoService, error) {
	if len(accessKey) != 32 || len(refreshKey) != 32 {
		return nil, fmt.Errorf("symmetric keys must be exactly 32 bytes, got %d and %d", len(accessKey), len(refreshKey))
	}

	ak, err := paseto.V4SymmetricKeyFromBytes(accessKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create access key: %w", err)
	}
	rk, err := paseto.V4SymmetricKeyFromBytes(refreshKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh key: %w", err)
	}

	return &PasetoService{
		accessKey:       ak,
		refreshKey:      rk,
		accessDuration:  accessDuration,
		refreshDuration: refreshDuration,
	}, nil
}

// CreateAccessToken encrypts a short-lived token carrying the user id and email
func (s *PasetoService) CreateAccessToken(userID uuid.UUID, email string) (string, error) {
	now := time.Now()

	token := paseto.NewToken()
	token.SetIssuedAt(now)
	token.SetExpiration(now.Add(s.accessDuration))
	token.SetString("user_id", userID.String())
	token.SetString("email", email)

	return token.V4Encrypt(s.accessKey, nil), nil
}

// CreateRefreshToken encrypts a long-lived token carrying only the user id
func (s *PasetoService) CreateRefreshToken(userID uuid.UUID) (string, error) {
	now := time.Now()

	token := paseto.NewToken()
	token.SetIssuedAt(now)
	token.SetExpiration(now.Add(s.refreshDuration))
	token.SetString("user_id", userID.String())

	return token.V4Encrypt(s.refreshKey, nil), nil
}

// VerifyAccessToken validates a token against the access key
func (s *PasetoService) VerifyAccessToken(tokenStr string) (*TokenClaims, error) {
	return verifyPaseto(s.accessKey, tokenStr, true)
}

// VerifyRefreshToken validates a token against the refresh key
func (s *PasetoService) VerifyRefreshToken(tokenStr string) (*TokenClaims, error) {
	return verifyPaseto(s.refreshKey, tokenStr, false)
}

func verifyPaseto(key paseto.V4SymmetricKey, tokenStr string, wantEmail bool) (*TokenClaims, error) {
	parser := paseto.NewParser()

	// The parser checks expiration by default; expired and forged tokens
	// surface identically
	token, err := parser.ParseV4Local(key, tokenStr, nil)
	if err != nil {
		return nil, ErrInvalidToken
	}

	userID, err := token.GetString("user_id")
	if err != nil {
		return nil, ErrInvalidToken
	}

	var email string
	if wantEmail {
		email, err = token.GetString("email")
		if err != nil {
			return nil, ErrInvalidToken
		}
	}

	issuedAt, err := token.GetIssuedAt()
	if err != nil {
		return nil, ErrInvalidToken
	}
	expiresAt, err := token.GetExpiration()
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &TokenClaims{
		UserID:    userID,
		Email:     email,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

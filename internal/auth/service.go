package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"

	"github.com/KaleemAfrozShaik/PathFinder-Backend/internal/logging"
	"github.com/KaleemAfrozShaik/PathFinder-Backend/internal/upload"
	"github.com/KaleemAfrozShaik/PathFinder-Backend/internal/user"
)

var (
	ErrMissingFields       = errors.New("name, email and password are required")
	ErrEmailRequired       = errors.New("email is required")
	ErrPasswordRequired    = errors.New("password is required")
	ErrInvalidEmailFormat  = errors.New("invalid email format")
	ErrInvalidRole         = errors.New("invalid role")
	ErrBioTooLong          = errors.New("bio must be at most 500 characters")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidOldPassword  = errors.New("invalid old password")
	ErrInvalidRefreshToken = errors.New("refresh token is invalid, expired or already used")
	ErrEmailConflict       = errors.New("email is already used for another account")
)

// Argon2id parameters - tuned for security vs performance balance
// Time: 3, Memory: 64MB, Threads: 4, KeyLen: 32 bytes
const (
	argon2Time    = 3
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4
	argon2KeyLen  = 32
	saltLen       = 16
)

// TokenPair is an access/refresh token pair. Issuing a pair persists the
// refresh token onto the user record, replacing the previous one.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Avatar is an optional uploaded image attached to register or
// profile-update requests
type Avatar struct {
	File     io.Reader
	Filename string
}

// RegisterInput carries the registration fields
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
	Bio      string
	Avatar   *Avatar
}

// GoogleProfile is the subset of the provider profile the federated
// identity adapter needs
type GoogleProfile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Service handles authentication business logic
type Service struct {
	users    UserStore
	tokens   TokenService
	uploader upload.Uploader
	logger   *logging.Logger
}

func NewService(users UserStore, tokens TokenService, uploader upload.Uploader, logger *logging.Logger) *Service {
	return &Service{
		users:    users,
		tokens:   tokens,
		uploader: uploader,
		logger:   logger,
	}
}

// Register creates a new local account. The optional avatar is uploaded
// before the user record is written so a failed upload never leaves a
// half-created user.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*user.User, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, ErrMissingFields
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmailFormat
	}

	role := in.Role
	if role == "" {
		role = user.RoleStudent
	}
	if !user.ValidRole(role) {
		return nil, ErrInvalidRole
	}
	if len(in.Bio) > user.MaxBioLength {
		return nil, ErrBioTooLong
	}

	passwordHash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	profileURL := user.DefaultProfilePicture
	if in.Avatar != nil {
		url, err := s.uploader.Upload(ctx, in.Avatar.File, in.Avatar.Filename)
		if err != nil {
			return nil, fmt.Errorf("failed to upload profile picture: %w", err)
		}
		profileURL = url
	}

	newUser, err := s.users.Create(ctx, &user.User{
		Name:           name,
		Email:          email,
		PasswordHash:   &passwordHash,
		Role:           role,
		Bio:            in.Bio,
		ProfilePicture: profileURL,
	})
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return newUser, nil
}

// Login authenticates via the password path and issues a token pair
func (s *Service) Login(ctx context.Context, email, password string) (*user.User, *TokenPair, error) {
	if email == "" {
		return nil, nil, ErrEmailRequired
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, nil, user.ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	// Federated-only accounts have no password hash and must never pass
	// the password path
	if !existing.HasPassword() {
		return nil, nil, ErrInvalidCredentials
	}
	if !s.verifyPassword(*existing.PasswordHash, password) {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.IssueTokens(ctx, existing)
	if err != nil {
		return nil, nil, err
	}

	return existing, pair, nil
}

// IssueTokens creates an access/refresh pair and persists the new refresh
// token onto the user record, replacing any previous value. The whole
// operation fails if persistence fails.
func (s *Service) IssueTokens(ctx context.Context, u *user.User) (*TokenPair, error) {
	accessToken, err := s.tokens.CreateAccessToken(u.ID, u.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}
	refreshToken, err := s.tokens.CreateRefreshToken(u.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh token: %w", err)
	}

	if err := s.users.SetRefreshToken(ctx, u.ID, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Refresh rotates the token pair. The presented token must verify AND
// match the single refresh token currently stored on the user; a stale
// (already-rotated) token fails.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	existing, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if existing.RefreshToken == nil || *existing.RefreshToken != refreshToken {
		return nil, ErrInvalidRefreshToken
	}

	newAccess, err := s.tokens.CreateAccessToken(existing.ID, existing.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}
	newRefresh, err := s.tokens.CreateRefreshToken(existing.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh token: %w", err)
	}

	// Guarded swap: if a concurrent refresh already rotated the stored
	// token, this loses the race and fails instead of clobbering
	if err := s.users.RotateRefreshToken(ctx, existing.ID, refreshToken, newRefresh); err != nil {
		if errors.Is(err, user.ErrRefreshTokenMismatch) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	return &TokenPair{AccessToken: newAccess, RefreshToken: newRefresh}, nil
}

// Logout clears the stored refresh token so the pre-logout token can no
// longer be exchanged
func (s *Service) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.users.ClearRefreshToken(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}
	return nil
}

// ChangePassword re-hashes and stores the new password after checking
// the old one
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	if newPassword == "" {
		return ErrPasswordRequired
	}

	existing, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.ErrNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if !existing.HasPassword() || !s.verifyPassword(*existing.PasswordHash, oldPassword) {
		return ErrInvalidOldPassword
	}

	passwordHash, err := s.hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// UpdateProfile mutates name, bio and avatar. The avatar is uploaded
// only when a new file was supplied.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, name, bio *string, avatar *Avatar) (*user.User, error) {
	if bio != nil && len(*bio) > user.MaxBioLength {
		return nil, ErrBioTooLong
	}

	var profileURL *string
	if avatar != nil {
		url, err := s.uploader.Upload(ctx, avatar.File, avatar.Filename)
		if err != nil {
			return nil, fmt.Errorf("failed to upload profile picture: %w", err)
		}
		profileURL = &url
	}

	updated, err := s.users.UpdateProfile(ctx, userID, name, bio, profileURL)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ResolveGoogleProfile resolves a provider profile to a local user,
// creating one on first federated login. Federation never silently
// merges into an existing password-based account: an email collision
// with a different local account fails with ErrEmailConflict.
func (s *Service) ResolveGoogleProfile(ctx context.Context, profile GoogleProfile) (*user.User, error) {
	existing, err := s.users.GetByGoogleID(ctx, profile.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up federated identity: %w", err)
	}

	if profile.Email != "" {
		byEmail, err := s.users.GetByEmail(ctx, profile.Email)
		if err == nil && byEmail != nil {
			return nil, ErrEmailConflict
		}
		if err != nil && !errors.Is(err, user.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up email: %w", err)
		}
	}

	googleID := profile.ID
	created, err := s.users.Create(ctx, &user.User{
		Name:           profile.Name,
		Email:          profile.Email,
		Role:           user.RoleStudent,
		ProfilePicture: user.DefaultProfilePicture,
		GoogleID:       &googleID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create federated user: %w", err)
	}

	s.logger.Info("created user from federated login", "user_id", created.ID)
	return created, nil
}

// hashPassword creates an argon2id hash of the password
func (s *Service) hashPassword(password string) (string, error) {
	// Generate random salt
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	// Hash password with argon2id
	hash := argon2.IDKey(
		[]byte(password),
		salt,
		argon2Time,
		argon2Memory,
		argon2Threads,
		argon2KeyLen,
	)

	// Encode as: $argon2id$v=19$m=65536,t=3,p=4$salt$hash
	encodedSalt := base64.RawStdEncoding.EncodeToString(salt)
	encodedHash := base64.RawStdEncoding.EncodeToString(hash)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		encodedSalt,
		encodedHash,
	), nil
}

// verifyPassword checks if a password matches the stored hash. A
// malformed stored hash is never an error, just a failed match.
func (s *Service) verifyPassword(encodedHash, password string) bool {
	// Parse the encoded hash
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return false
	}

	// Parse parameters
	var version int
	var memory, time uint32
	var threads uint8
	_, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads)
	if err != nil {
		return false
	}
	_, err = fmt.Sscanf(parts[2], "v=%d", &version)
	if err != nil {
		return false
	}

	// Decode salt and hash
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	decodedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	// Hash the input password with the same parameters
	inputHash := argon2.IDKey(
		[]byte(password),
		salt,
		time,
		memory,
		threads,
		uint32(len(decodedHash)),
	)

	// Compare hashes using constant-time comparison
	return subtle.ConstantTimeCompare(decodedHash, inputHash) == 1
}

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/KaleemAfrozShaik/PathFinder-Backend/internal/database"
)

var (
	ErrNotFound             = errors.New("user not found")
	ErrDuplicateEmail       = errors.New("email already exists")
	ErrRefreshTokenMismatch = errors.New("stored refresh token does not match")
)

// Repository handles user data persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user into the database
func (r *Repository) Create(ctx context.Context, u *User) (*User, error) {
	dbUser := mapModelToDBUser(u)

	_, err := r.db.NewInsert().
		Model(dbUser).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByEmail retrieves a user by email, including credential columns
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("email = ?", email).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByID retrieves a user by ID, including credential columns
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetSanitizedByID retrieves a user by ID with the password hash and
// refresh token excluded from the projection
func (r *Repository) GetSanitizedByID(ctx context.Context, id uuid.UUID) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		ExcludeColumn("password_hash", "refresh_token").
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByGoogleID retrieves a user by federated identity id
func (r *Repository) GetByGoogleID(ctx context.Context, googleID string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("google_id = ?", googleID).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by google id: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// SetRefreshToken replaces the stored refresh token unconditionally
// (login and federated login)
func (r *Repository) SetRefreshToken(ctx context.Context, id uuid.UUID, token string) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("refresh_token = ?", token).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set refresh token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// RotateRefreshToken swaps oldToken for newToken, guarded on the stored
// value still being oldToken. A concurrent rotation that already replaced
// the token makes this a no-op and returns ErrRefreshTokenMismatch, so
// the loser of the race fails instead of silently clobbering the winner.
func (r *Repository) RotateRefreshToken(ctx context.Context, id uuid.UUID, oldToken, newToken string) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("refresh_token = ?", newToken).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Where("refresh_token = ?", oldToken).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrRefreshTokenMismatch
	}

	return nil
}

// ClearRefreshToken removes the stored refresh token (logout)
func (r *Repository) ClearRefreshToken(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("refresh_token = NULL").
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}

	return nil
}

// UpdatePassword updates a user's password hash
func (r *Repository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// UpdateProfile mutates name, bio and profile picture; nil pointers
// leave the stored value untouched
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, name, bio, profilePicture *string) (*User, error) {
	q := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("updated_at = NOW()").
		Where("id = ?", id)

	if name != nil {
		q = q.Set("name = ?", *name)
	}
	if bio != nil {
		q = q.Set("bio = ?", *bio)
	}
	if profilePicture != nil {
		q = q.Set("profile_picture = ?", *profilePicture)
	}

	result, err := q.Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return r.GetSanitizedByID(ctx, id)
}

// UpdateRole changes the user's role and bio
func (r *Repository) UpdateRole(ctx context.Context, id uuid.UUID, role, bio string) (*User, error) {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("role = ?", role).
		Set("bio = ?", bio).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return r.GetSanitizedByID(ctx, id)
}

// ListMentors returns the mentor directory with a sanitized projection
func (r *Repository) ListMentors(ctx context.Context) ([]*User, error) {
	var dbUsers []*database.User
	err := r.db.NewSelect().
		Model(&dbUsers).
		Column("id", "name", "email", "bio", "profile_picture", "role").
		Where("role = ?", RoleMentor).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list mentors: %w", err)
	}

	mentors := make([]*User, 0, len(dbUsers))
	for _, dbu := range dbUsers {
		mentors = append(mentors, mapDBUserToModel(dbu))
	}
	return mentors, nil
}

// ToggleSavedRoadmap adds the roadmap id to the user's saved set, or
// removes it when already present. Returns whether the roadmap is saved
// after the call.
func (r *Repository) ToggleSavedRoadmap(ctx context.Context, userID, roadmapID uuid.UUID) (bool, error) {
	u, err := r.GetSanitizedByID(ctx, userID)
	if err != nil {
		return false, err
	}

	saved := false
	for _, id := range u.SavedRoadmaps {
		if id == roadmapID {
			saved = true
			break
		}
	}

	q := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("updated_at = NOW()").
		Where("id = ?", userID)
	if saved {
		q = q.Set("saved_roadmaps = array_remove(saved_roadmaps, ?)", roadmapID.String())
	} else {
		q = q.Set("saved_roadmaps = array_append(saved_roadmaps, ?)", roadmapID.String())
	}

	if _, err := q.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to toggle saved roadmap: %w", err)
	}

	return !saved, nil
}

// GetSavedRoadmapIDs returns the ids of the roadmaps the user saved
func (r *Repository) GetSavedRoadmapIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	u, err := r.GetSanitizedByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.SavedRoadmaps, nil
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	saved := make([]uuid.UUID, 0, len(dbu.SavedRoadmaps))
	for _, raw := range dbu.SavedRoadmaps {
		if id, err := uuid.Parse(raw); err == nil {
			saved = append(saved, id)
		}
	}

	return &User{
		ID:             dbu.ID,
		Name:           dbu.Name,
		Email:          dbu.Email,
		PasswordHash:   dbu.PasswordHash,
		Role:           dbu.Role,
		Bio:            dbu.Bio,
		ProfilePicture: dbu.ProfilePicture,
		GoogleID:       dbu.GoogleID,
		RefreshToken:   dbu.RefreshToken,
		SavedRoadmaps:  saved,
		CreatedAt:      dbu.CreatedAt,
		UpdatedAt:      dbu.UpdatedAt,
	}
}

// mapModelToDBUser converts domain model to database model
func mapModelToDBUser(u *User) *database.User {
	saved := make([]string, 0, len(u.SavedRoadmaps))
	for _, id := range u.SavedRoadmaps {
		saved = append(saved, id.String())
	}

	dbUser := &database.User{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		PasswordHash:   u.PasswordHash,
		Role:           u.Role,
		Bio:            u.Bio,
		ProfilePicture: u.ProfilePicture,
		GoogleID:       u.GoogleID,
		RefreshToken:   u.RefreshToken,
		SavedRoadmaps:  saved,
	}
	if dbUser.CreatedAt.IsZero() {
		dbUser.CreatedAt = time.Now()
		dbUser.UpdatedAt = dbUser.CreatedAt
	}
	return dbUser
}

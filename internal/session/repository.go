package session

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
	ErrNotFound  = errors.New("session request not found")
	ErrDuplicate = errors.New("session request already exists for this mentor")
)

// Repository handles session request persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// requestRow carries a session request joined with the counterpart's
// public profile columns
type requestRow struct {
	database.SessionRequest

	UserID             uuid.UUID `bun:"user_id"`
	UserName           string    `bun:"user_name"`
	UserEmail          string    `bun:"user_email"`
	UserProfilePicture string    `bun:"user_profile_picture"`
}

// Create inserts a pending request. The unique (student_id, mentor_id)
// constraint turns a repeat request into ErrDuplicate.
func (r *Repository) Create(ctx context.Context, studentID, mentorID uuid.UUID, topic string, preferredTime *time.Time) (*Request, error) {
	row := &database.SessionRequest{
		StudentID:     studentID,
		MentorID:      mentorID,
		Topic:         topic,
		PreferredTime: preferredTime,
		Status:        StatusPending,
	}

	_, err := r.db.NewInsert().
		Model(row).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create session request: %w", err)
	}

	return mapDBRequestToModel(row), nil
}

// GetByID retrieves a single request without counterpart data
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Request, error) {
	row := new(database.SessionRequest)
	err := r.db.NewSelect().
		Model(row).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session request by id: %w", err)
	}

	return mapDBRequestToModel(row), nil
}

// ListByStudent returns the student's requests, newest first, each with
// the mentor's public profile attached
func (r *Repository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*Request, error) {
	var rows []requestRow
	err := r.db.NewSelect().
		Model(&rows).
		ModelTableExpr("session_requests AS sr").
		ColumnExpr("sr.*").
		ColumnExpr("u.id AS user_id, u.name AS user_name, u.email AS user_email, u.profile_picture AS user_profile_picture").
		Join("JOIN users AS u ON u.id = sr.mentor_id").
		Where("sr.student_id = ?", studentID).
		Order("sr.created_at DESC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list session requests by student: %w", err)
	}

	out := make([]*Request, 0, len(rows))
	for i := range rows {
		req := mapDBRequestToModel(&rows[i].SessionRequest)
		req.Mentor = rows[i].participant()
		out = append(out, req)
	}
	return out, nil
}

// ListByMentor returns the requests addressed to the mentor, newest
// first, each with the student's public profile attached
func (r *Repository) ListByMentor(ctx context.Context, mentorID uuid.UUID) ([]*Request, error) {
	var rows []requestRow
	err := r.db.NewSelect().
		Model(&rows).
		ModelTableExpr("session_requests AS sr").
		ColumnExpr("sr.*").
		ColumnExpr("u.id AS user_id, u.name AS user_name, u.email AS user_email, u.profile_picture AS user_profile_picture").
		Join("JOIN users AS u ON u.id = sr.student_id").
		Where("sr.mentor_id = ?", mentorID).
		Order("sr.created_at DESC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list session requests by mentor: %w", err)
	}

	out := make([]*Request, 0, len(rows))
	for i := range rows {
		req := mapDBRequestToModel(&rows[i].SessionRequest)
		req.Student = rows[i].participant()
		out = append(out, req)
	}
	return out, nil
}

// UpdateStatus moves a request into a new lifecycle state
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*Request, error) {
	row := new(database.SessionRequest)
	err := r.db.NewUpdate().
		Model(row).
		Set("status = ?", status).
		Set("updated_at = now()").
		Where("id = ?", id).
		Returning("*").
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update session request status: %w", err)
	}

	return mapDBRequestToModel(row), nil
}

func (row *requestRow) participant() *Participant {
	return &Participant{
		ID:             row.UserID,
		Name:           row.UserName,
		Email:          row.UserEmail,
		ProfilePicture: row.UserProfilePicture,
	}
}

func mapDBRequestToModel(row *database.SessionRequest) *Request {
	return &Request{
		ID:            row.ID,
		StudentID:     row.StudentID,
		MentorID:      row.MentorID,
		Topic:         row.Topic,
		PreferredTime: row.PreferredTime,
		Status:        row.Status,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}

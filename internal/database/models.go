package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the database model backing the users table. PasswordHash and
// GoogleID are nullable: federated accounts have no password, local
// accounts have no Google id. RefreshToken holds the single currently
// valid refresh token, or NULL when logged out.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID             uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Name           string    `bun:"name,notnull"`
	Email          string    `bun:"email,notnull,unique"`
	PasswordHash   *string   `bun:"password_hash"`
	Role           string    `bun:"role,notnull,default:'student'"`
	Bio            string    `bun:"bio"`
	ProfilePicture string    `bun:"profile_picture"`
	GoogleID       *string   `bun:"google_id,unique,nullzero"`
	RefreshToken   *string   `bun:"refresh_token"`
	SavedRoadmaps  []string  `bun:"saved_roadmaps,array"`
	CreatedAt      time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt      time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// RoadmapStep is one learning step inside a roadmap, stored as part of
// the roadmap's jsonb steps column
type RoadmapStep struct {
	Title        string `json:"title"`
	Content      string `json:"content,omitempty"`
	ResourceLink string `json:"resourceLink,omitempty"`
	Order        int    `json:"order"`
}

// Roadmap is the database model backing the roadmaps table
type Roadmap struct {
	bun.BaseModel `bun:"table:roadmaps,alias:r"`

	ID          uuid.UUID     `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Title       string        `bun:"title,notnull"`
	Description string        `bun:"description"`
	CareerPath  string        `bun:"career_path"`
	Steps       []RoadmapStep `bun:"steps,type:jsonb"`
	CreatedBy   uuid.UUID     `bun:"created_by,type:uuid"`
	CreatedAt   time.Time     `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt   time.Time     `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// SessionRequest is the database model backing the session_requests
// table. The (student_id, mentor_id) pair is unique: a student may
// have at most one request per mentor.
type SessionRequest struct {
	bun.BaseModel `bun:"table:session_requests,alias:sr"`

	ID            uuid.UUID  `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	StudentID     uuid.UUID  `bun:"student_id,type:uuid,notnull,unique:student_mentor"`
	MentorID      uuid.UUID  `bun:"mentor_id,type:uuid,notnull,unique:student_mentor"`
	Topic         string     `bun:"topic"`
	PreferredTime *time.Time `bun:"preferred_time"`
	Status        string     `bun:"status,notnull,default:'pending'"`
	CreatedAt     time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

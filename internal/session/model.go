package session

import (
	"time"

	"github.com/google/uuid"
)

// Session request lifecycle states
const (
	StatusPending   = "pending"
	StatusAccepted  = "accepted"
	StatusRejected  = "rejected"
	StatusCompleted = "completed"
)

// Participant is the public subset of a user attached to a request
// listing, so each side sees who the counterpart is
type Participant struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
}

// Request is a student's ask for a mentoring session. At most one
// request exists per (student, mentor) pair.
type Request struct {
	ID            uuid.UUID    `json:"id"`
	StudentID     uuid.UUID    `json:"studentId"`
	MentorID      uuid.UUID    `json:"mentorId"`
	Topic         string       `json:"topic,omitempty"`
	PreferredTime *time.Time   `json:"preferredTime,omitempty"`
	Status        string       `json:"status"`
	Student       *Participant `json:"student,omitempty"`
	Mentor        *Participant `json:"mentor,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

package user

import (
	"time"

	"github.com/google/uuid"
)

// Roles a user can hold. Student is the default; mentors can receive
// session requests.
const (
	RoleStudent = "student"
	RoleMentor  = "mentor"
)

// DefaultProfilePicture is used when no avatar was uploaded
const DefaultProfilePicture = "https://cdn-icons-png.flaticon.com/512/149/149071.png"

// MaxBioLength caps the bio field
const MaxBioLength = 500

type User struct {
	ID             uuid.UUID   `json:"id"`
	Name           string      `json:"name"`
	Email          string      `json:"email"`
	PasswordHash   *string     `json:"-"` // nil for federated-only accounts
	Role           string      `json:"role"`
	Bio            string      `json:"bio"`
	ProfilePicture string      `json:"profilePicture"`
	GoogleID       *string     `json:"-"`
	RefreshToken   *string     `json:"-"` // single currently valid refresh token
	SavedRoadmaps  []uuid.UUID `json:"savedRoadmaps"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// HasPassword reports whether the account can use the password login
// path. Federated-only accounts must not.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// IsMentor reports whether the user holds the mentor role
func (u *User) IsMentor() bool {
	return u.Role == RoleMentor
}

// ValidRole reports whether role is one of the canonical role values
func ValidRole(role string) bool {
	return role == RoleStudent || role == RoleMentor
}

package roadmap

import (
	"time"

	"github.com/google/uuid"
)

// Step is one learning step inside a roadmap
type Step struct {
	Title        string `json:"title"`
	Content      string `json:"content,omitempty"`
	ResourceLink string `json:"resourceLink,omitempty"`
	Order        int    `json:"order"`
}

// Roadmap is a curated learning path for a career track
type Roadmap struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CareerPath  string    `json:"careerPath,omitempty"`
	Steps       []Step    `json:"steps"`
	CreatedBy   uuid.UUID `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

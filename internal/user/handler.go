package user

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/KaleemAfrozShaik/PathFinder-Backend/internal/httputil"
	"github.com/KaleemAfrozShaik/PathFinder-Backend/internal/logging"
)

// Store is the subset of the repository the handler needs
type Store interface {
	UpdateRole(ctx context.Context, id uuid.UUID, role, bio string) (*User, error)
	ListMentors(ctx context.Context) ([]*User, error)
	GetSanitizedByID(ctx context.Context, id uuid.UUID) (*User, error)
}

// Handler contains HTTP handlers for user profile and mentor endpoints
type Handler struct {
	store  Store
	logger *logging.Logger
}

func NewHandler(store Store, logger *logging.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// UpdateRoleRequest represents the role switch request body
type UpdateRoleRequest struct {
	Role string `json:"role"`
	Bio  string `json:"bio"`
}

// UpdateRole switches the caller between the student and mentor roles
// @Summary      Update user role
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body UpdateRoleRequest true "New role and optional bio"
// @Success      200 {object} map[string]any
// @Failure      400 {object} httputil.ErrorResponse "Unknown role"
// @Router       /api/v1/users/update-role [put]
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	identity, ok := FromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "unauthorized request", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid update role request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	role := strings.ToLower(strings.TrimSpace(req.Role))
	if !ValidRole(role) {
		logger.Warn("update role failed: unknown role", "role", req.Role)
		httputil.RespondErrorWithCode(w, "role must be student or mentor", httputil.CodeInvalidRole, http.StatusBadRequest)
		return
	}

	updated, err := h.store.UpdateRole(r.Context(), identity.ID, role, strings.TrimSpace(req.Bio))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
			return
		}
		logger.Error("update role failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to update role", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("role updated successfully", "user_id", identity.ID, "role", role)
	httputil.RespondJSON(w, map[string]any{"user": updated}, http.StatusOK)
}

// Mentors lists all users carrying the mentor role
// @Summary      List mentors
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} map[string]any
// @Router       /api/v1/users/mentors [get]
func (h *Handler) Mentors(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	mentors, err := h.store.ListMentors(r.Context())
	if err != nil {
		logger.Error("failed to list mentors", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list mentors", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, map[string]any{"mentors": mentors}, http.StatusOK)
}

// MentorByID fetches a single mentor profile
// @Summary      Get mentor by id
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Mentor ID"
// @Success      200 {object} map[string]any
// @Failure      404 {object} httputil.ErrorResponse "Not found or not a mentor"
// @Router       /api/v1/users/mentor/{id} [get]
func (h *Handler) MentorByID(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "mentor not found", httputil.CodeMentorNotFound, http.StatusNotFound)
		return
	}

	mentor, err := h.store.GetSanitizedByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "mentor not found", httputil.CodeMentorNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to fetch mentor", "error", err.Error(), "mentor_id", id)
		httputil.RespondErrorWithCode(w, "failed to fetch mentor", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	if !mentor.IsMentor() {
		httputil.RespondErrorWithCode(w, "mentor not found", httputil.CodeMentorNotFound, http.StatusNotFound)
		return
	}

	httputil.RespondJSON(w, map[string]any{"mentor": mentor}, http.StatusOK)
}

package roadmap

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
	"github.com/KaleemAfrozShaik/PathFinder-Backend/internal/user"
)

// Store is the subset of the repository the handler needs
type Store interface {
	List(ctx context.Context) ([]*Roadmap, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Roadmap, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*Roadmap, error)
	Create(ctx context.Context, rm *Roadmap) (*Roadmap, error)
	Update(ctx context.Context, id uuid.UUID, title, description, careerPath *string, steps []Step) (*Roadmap, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// SavedStore persists per-user saved roadmap membership
type SavedStore interface {
	ToggleSavedRoadmap(ctx context.Context, userID, roadmapID uuid.UUID) (bool, error)
	GetSavedRoadmapIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// Handler contains HTTP handlers for roadmap endpoints
type Handler struct {
	store  Store
	saved  SavedStore
	logger *logging.Logger
}

func NewHandler(store Store, saved SavedStore, logger *logging.Logger) *Handler {
	return &Handler{store: store, saved: saved, logger: logger}
}

// CreateRequest represents the roadmap creation request body
type CreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	CareerPath  string `json:"careerPath"`
	Steps       []Step `json:"steps"`
}

// UpdateRequest represents a partial roadmap update. Omitted fields
// keep their stored value; a present steps array replaces all steps.
type UpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	CareerPath  *string `json:"careerPath"`
	Steps       []Step  `json:"steps"`
}

// List returns all roadmaps, newest first
// @Summary      List roadmaps
// @Tags         roadmaps
// @Produce      json
// @Success      200 {object} map[string]any
// @Router       /api/v1/roadmaps [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	roadmaps, err := h.store.List(r.Context())
	if err != nil {
		logger.Error("failed to list roadmaps", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list roadmaps", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, map[string]any{"roadmaps": roadmaps}, http.StatusOK)
}

// Get returns a single roadmap
// @Summary      Get roadmap by id
// @Tags         roadmaps
// @Produce      json
// @Param        id path string true "Roadmap ID"
// @Success      200 {object} map[string]any
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /api/v1/roadmaps/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "roadmap not found", httputil.CodeRoadmapNotFound, http.StatusNotFound)
		return
	}

	rm, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "roadmap not found", httputil.CodeRoadmapNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to fetch roadmap", "error", err.Error(), "roadmap_id", id)
		httputil.RespondErrorWithCode(w, "failed to fetch roadmap", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, map[string]any{"roadmap": rm}, http.StatusOK)
}

// Create stores a new roadmap owned by the caller
// @Summary      Create roadmap
// @Tags         roadmaps
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateRequest true "Roadmap"
// @Success      201 {object} map[string]any
// @Failure      400 {object} httputil.ErrorResponse "Title or steps missing"
// @Router       /api/v1/roadmaps [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	identity, ok := user.FromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "unauthorized request", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid create roadmap request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Title) == "" || req.Steps == nil {
		httputil.RespondErrorWithCode(w, "title and steps are required", httputil.CodeMissingFields, http.StatusBadRequest)
		return
	}

	created, err := h.store.Create(r.Context(), &Roadmap{
		Title:       req.Title,
		Description: req.Description,
		CareerPath:  req.CareerPath,
		Steps:       req.Steps,
		CreatedBy:   identity.ID,
	})
	if err != nil {
		logger.Error("failed to create roadmap", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to create roadmap", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("roadmap created", "roadmap_id", created.ID, "user_id", identity.ID)
	httputil.RespondJSON(w, map[string]any{"roadmap": created}, http.StatusCreated)
}

// Update applies partial changes to a roadmap
// @Summary      Update roadmap
// @Tags         roadmaps
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Roadmap ID"
// @Param        request body UpdateRequest true "Changed fields"
// @Success      200 {object} map[string]any
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /api/v1/roadmaps/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "roadmap not found", httputil.CodeRoadmapNotFound, http.StatusNotFound)
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid update roadmap request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	updated, err := h.store.Update(r.Context(), id, req.Title, req.Description, req.CareerPath, req.Steps)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "roadmap not found", httputil.CodeRoadmapNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to update roadmap", "error", err.Error(), "roadmap_id", id)
		httputil.RespondErrorWithCode(w, "failed to update roadmap", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("roadmap updated", "roadmap_id", id)
	httputil.RespondJSON(w, map[string]any{"roadmap": updated}, http.StatusOK)
}

// Delete removes a roadmap
// @Summary      Delete roadmap
// @Tags         roadmaps
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Roadmap ID"
// @Success      200 {object} map[string]string
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /api/v1/roadmaps/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "roadmap not found", httputil.CodeRoadmapNotFound, http.StatusNotFound)
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "roadmap not found", httputil.CodeRoadmapNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to delete roadmap", "error", err.Error(), "roadmap_id", id)
		httputil.RespondErrorWithCode(w, "failed to delete roadmap", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("roadmap deleted", "roadmap_id", id)
	httputil.RespondJSON(w, map[string]string{"message": "roadmap deleted"}, http.StatusOK)
}

// ToggleSave flips the roadmap's membership in the caller's saved set
// @Summary      Toggle saved roadmap
// @Tags         roadmaps
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Roadmap ID"
// @Success      200 {object} map[string]any
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /api/v1/roadmaps/{id}/save [post]
func (h *Handler) ToggleSave(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	identity, ok := user.FromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "unauthorized request", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "roadmap not found", httputil.CodeRoadmapNotFound, http.StatusNotFound)
		return
	}

	// The roadmap must exist before it can enter a saved set
	if _, err := h.store.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "roadmap not found", httputil.CodeRoadmapNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to fetch roadmap", "error", err.Error(), "roadmap_id", id)
		httputil.RespondErrorWithCode(w, "failed to toggle saved roadmap", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	saved, err := h.saved.ToggleSavedRoadmap(r.Context(), identity.ID, id)
	if err != nil {
		logger.Error("failed to toggle saved roadmap", "error", err.Error(), "roadmap_id", id)
		httputil.RespondErrorWithCode(w, "failed to toggle saved roadmap", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	ids, err := h.saved.GetSavedRoadmapIDs(r.Context(), identity.ID)
	if err != nil {
		logger.Error("failed to load saved roadmap ids", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to toggle saved roadmap", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("saved roadmap toggled", "roadmap_id", id, "saved", saved)
	httputil.RespondJSON(w, map[string]any{"saved": saved, "savedRoadmaps": ids}, http.StatusOK)
}

// SavedPaths returns the roadmaps in the caller's saved set
// @Summary      List saved roadmaps
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} map[string]any
// @Router       /api/v1/users/saved-paths [get]
func (h *Handler) SavedPaths(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	identity, ok := user.FromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "unauthorized request", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	ids, err := h.saved.GetSavedRoadmapIDs(r.Context(), identity.ID)
	if err != nil {
		logger.Error("failed to load saved roadmap ids", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list saved roadmaps", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	roadmaps, err := h.store.ListByIDs(r.Context(), ids)
	if err != nil {
		logger.Error("failed to list saved roadmaps", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list saved roadmaps", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, map[string]any{"roadmaps": roadmaps}, http.StatusOK)
}

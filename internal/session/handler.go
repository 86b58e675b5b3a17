package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/KaleemAfrozShaik/PathFinder-Backend/internal/httputil"
	"github.com/KaleemAfrozShaik/PathFinder-Backend/internal/logging"
	"github.com/KaleemAfrozShaik/PathFinder-Backend/internal/user"
)

// Store is the subset of the repository the handler needs
type Store interface {
	Create(ctx context.Context, studentID, mentorID uuid.UUID, topic string, preferredTime *time.Time) (*Request, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Request, error)
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*Request, error)
	ListByMentor(ctx context.Context, mentorID uuid.UUID) ([]*Request, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*Request, error)
}

// MentorStore resolves the addressed mentor before a request is created
type MentorStore interface {
	GetSanitizedByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// Handler contains HTTP handlers for session request endpoints
type Handler struct {
	store   Store
	mentors MentorStore
	logger  *logging.Logger
}

func NewHandler(store Store, mentors MentorStore, logger *logging.Logger) *Handler {
	return &Handler{store: store, mentors: mentors, logger: logger}
}

// CreateRequestBody is the optional session request payload
type CreateRequestBody struct {
	Topic         string     `json:"topic"`
	PreferredTime *time.Time `json:"preferredTime"`
}

// RequestResponse wraps a single session request
type RequestResponse struct {
	Request *Request `json:"request"`
}

// Create files a pending session request with a mentor
// @Summary      Request a session
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        mentorId path string true "Mentor ID"
// @Param        request body CreateRequestBody false "Optional topic and preferred time"
// @Success      201 {object} RequestResponse
// @Failure      400 {object} httputil.ErrorResponse "Self request"
// @Failure      404 {object} httputil.ErrorResponse "Mentor not found"
// @Failure      409 {object} httputil.ErrorResponse "Request already exists"
// @Router       /api/v1/sessions/request/{mentorId} [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	identity, ok := user.FromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "unauthorized request", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	mentorID, err := uuid.Parse(chi.URLParam(r, "mentorId"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "mentor not found", httputil.CodeMentorNotFound, http.StatusNotFound)
		return
	}

	if mentorID == identity.ID {
		httputil.RespondErrorWithCode(w, "you cannot request a session with yourself", httputil.CodeSelfSessionRequest, http.StatusBadRequest)
		return
	}

	mentor, err := h.mentors.GetSanitizedByID(r.Context(), mentorID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			httputil.RespondErrorWithCode(w, "mentor not found", httputil.CodeMentorNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to resolve mentor", "error", err.Error(), "mentor_id", mentorID)
		httputil.RespondErrorWithCode(w, "failed to create session request", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}
	if !mentor.IsMentor() {
		httputil.RespondErrorWithCode(w, "mentor not found", httputil.CodeMentorNotFound, http.StatusNotFound)
		return
	}

	// Body is optional
	var body CreateRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		logger.Warn("invalid session request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	created, err := h.store.Create(r.Context(), identity.ID, mentorID, body.Topic, body.PreferredTime)
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			logger.Warn("duplicate session request", "mentor_id", mentorID)
			httputil.RespondErrorWithCode(w, "you have already requested a session with this mentor", httputil.CodeSessionAlreadyExists, http.StatusConflict)
			return
		}
		logger.Error("failed to create session request", "error", err.Error(), "mentor_id", mentorID)
		httputil.RespondErrorWithCode(w, "failed to create session request", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("session request created", "request_id", created.ID, "mentor_id", mentorID)
	httputil.RespondJSON(w, RequestResponse{Request: created}, http.StatusCreated)
}

// MyRequests lists the caller's outgoing requests
// @Summary      List my session requests
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} map[string]any
// @Router       /api/v1/sessions/my-requests [get]
func (h *Handler) MyRequests(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	identity, ok := user.FromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "unauthorized request", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	requests, err := h.store.ListByStudent(r.Context(), identity.ID)
	if err != nil {
		logger.Error("failed to list session requests", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list session requests", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, map[string]any{"requests": requests}, http.StatusOK)
}

// MentorRequests lists incoming requests, mentors only
// @Summary      List received session requests
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} map[string]any
// @Failure      403 {object} httputil.ErrorResponse "Caller is not a mentor"
// @Router       /api/v1/sessions/mentor-requests [get]
func (h *Handler) MentorRequests(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	identity, ok := user.FromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "unauthorized request", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	if !identity.IsMentor() {
		httputil.RespondErrorWithCode(w, "only mentors can view session requests", httputil.CodeForbidden, http.StatusForbidden)
		return
	}

	requests, err := h.store.ListByMentor(r.Context(), identity.ID)
	if err != nil {
		logger.Error("failed to list session requests", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list session requests", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, map[string]any{"requests": requests}, http.StatusOK)
}

// Accept moves a request to accepted, only for the addressed mentor
// @Summary      Accept a session request
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        requestId path string true "Request ID"
// @Success      200 {object} RequestResponse
// @Failure      403 {object} httputil.ErrorResponse "Not the addressed mentor"
// @Failure      404 {object} httputil.ErrorResponse "Unknown request"
// @Router       /api/v1/sessions/accept/{requestId} [put]
func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	identity, ok := user.FromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "unauthorized request", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	requestID, err := uuid.Parse(chi.URLParam(r, "requestId"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "session request not found", httputil.CodeSessionNotFound, http.StatusNotFound)
		return
	}

	request, err := h.store.GetByID(r.Context(), requestID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "session request not found", httputil.CodeSessionNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to fetch session request", "error", err.Error(), "request_id", requestID)
		httputil.RespondErrorWithCode(w, "failed to accept session request", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	if request.MentorID != identity.ID {
		httputil.RespondErrorWithCode(w, "you are not authorized to accept this request", httputil.CodeForbidden, http.StatusForbidden)
		return
	}

	updated, err := h.store.UpdateStatus(r.Context(), requestID, StatusAccepted)
	if err != nil {
		logger.Error("failed to accept session request", "error", err.Error(), "request_id", requestID)
		httputil.RespondErrorWithCode(w, "failed to accept session request", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("session request accepted", "request_id", requestID)
	httputil.RespondJSON(w, RequestResponse{Request: updated}, http.StatusOK)
}

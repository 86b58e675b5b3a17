package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/KaleemAfrozShaik/PathFinder-Backend/internal/httputil"
	"github.com/KaleemAfrozShaik/PathFinder-Backend/internal/logging"
	"github.com/KaleemAfrozShaik/PathFinder-Backend/internal/upload"
	"github.com/KaleemAfrozShaik/PathFinder-Backend/internal/user"
)

// maxUploadSize caps multipart bodies carrying an avatar
const maxUploadSize = 10 << 20 // 10 MB

// RateLimiter throttles credential endpoints per client IP
type RateLimiter interface {
	CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error)
	RecordIPRequestWithPurpose(ctx context.Context, ip, purpose string) error
}

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service              *Service
	google               *GoogleProvider
	rateLimiter          RateLimiter
	logger               *logging.Logger
	isProduction         bool
	accessCookieMaxAge   time.Duration
	refreshCookieMaxAge  time.Duration
	postLoginRedirectURL string
}

func NewHandler(
	service *Service,
	google *GoogleProvider,
	rateLimiter RateLimiter,
	logger *logging.Logger,
	isProduction bool,
	accessCookieMaxAge, refreshCookieMaxAge time.Duration,
	postLoginRedirectURL string,
) *Handler {
	return &Handler{
		service:              service,
		google:               google,
		rateLimiter:          rateLimiter,
		logger:               logger,
		isProduction:         isProduction,
		accessCookieMaxAge:   accessCookieMaxAge,
		refreshCookieMaxAge:  refreshCookieMaxAge,
		postLoginRedirectURL: postLoginRedirectURL,
	}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest represents the token refresh request body
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ChangePasswordRequest represents the change-password request body
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// UserResponse wraps a sanitized user
type UserResponse struct {
	User *user.User `json:"user"`
}

// LoginResponse carries the sanitized user and the token pair
type LoginResponse struct {
	User         *user.User `json:"user"`
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
}

// Register handles user registration
// @Summary      Register a new user
// @Description  Create a new account. Multipart body with name, email, password, optional role/bio and an optional profilePicture image.
// @Tags         auth
// @Accept       mpfd
// @Produce      json
// @Success      201 {object} UserResponse
// @Failure      400 {object} httputil.ErrorResponse "Missing or invalid fields"
// @Failure      409 {object} httputil.ErrorResponse "Email already exists"
// @Failure      500 {object} httputil.ErrorResponse "Internal or upload error"
// @Router       /api/v1/users/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := getClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(r.Context(), ip, "register")
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded for register", "ip", ip)
		respondError(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	in, err := parseRegisterRequest(r)
	if err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": in.Email})

	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, "register"); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	newUser, err := h.service.Register(r.Context(), *in)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrDuplicateEmail):
			logger.Warn("registration failed: email already exists")
			respondError(w, "user with this email already exists", httputil.CodeEmailAlreadyExists, http.StatusConflict)
		case errors.Is(err, ErrInvalidRole):
			logger.Warn("registration failed: invalid role")
			respondError(w, err.Error(), httputil.CodeInvalidRole, http.StatusBadRequest)
		case errors.Is(err, ErrMissingFields),
			errors.Is(err, ErrInvalidEmailFormat),
			errors.Is(err, ErrBioTooLong):
			logger.Warn("registration failed: validation error", "error", err.Error())
			respondError(w, err.Error(), httputil.CodeMissingFields, http.StatusBadRequest)
		default:
			logger.Error("registration failed: internal error", "error", err.Error())
			respondError(w, "failed to register user", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user registered successfully", "user_id", newUser.ID)
	respondJSON(w, UserResponse{User: newUser}, http.StatusCreated)
}

// Login handles password login
// @Summary      User login
// @Description  Authenticate with email and password; sets accessToken/refreshToken cookies and returns the pair in the body.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} LoginResponse
// @Failure      400 {object} httputil.ErrorResponse "Email missing"
// @Failure      401 {object} httputil.ErrorResponse "Invalid credentials"
// @Failure      404 {object} httputil.ErrorResponse "Unknown email"
// @Router       /api/v1/users/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := getClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(r.Context(), ip, "login")
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded for login", "ip", ip)
		respondError(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, "login"); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	loggedIn, pair, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailRequired):
			logger.Warn("login failed: email missing")
			respondError(w, err.Error(), httputil.CodeMissingFields, http.StatusBadRequest)
		case errors.Is(err, user.ErrNotFound):
			logger.Warn("login failed: unknown email")
			respondError(w, "user doesn't exist", httputil.CodeUserNotFound, http.StatusNotFound)
		case errors.Is(err, ErrInvalidCredentials):
			logger.Warn("login failed: invalid credentials")
			respondError(w, "invalid credentials", httputil.CodeInvalidCredentials, http.StatusUnauthorized)
		default:
			logger.Error("login failed: internal error", "error", err.Error())
			respondError(w, "failed to login", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user logged in successfully", "user_id", loggedIn.ID)

	SetAuthCookies(w, pair.AccessToken, pair.RefreshToken, h.isProduction, h.accessCookieMaxAge, h.refreshCookieMaxAge)
	respondJSON(w, LoginResponse{
		User:         loggedIn,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, http.StatusOK)
}

// Logout clears the stored refresh token and both cookies
// @Summary      User logout
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} map[string]string
// @Failure      401 {object} httputil.ErrorResponse "No authenticated identity"
// @Router       /api/v1/users/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	identity, ok := user.FromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized request", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	if err := h.service.Logout(r.Context(), identity.ID); err != nil {
		logger.Error("logout failed", "error", err.Error())
		respondError(w, "failed to logout", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	ClearAuthCookies(w, h.isProduction)

	logger.Info("user logged out successfully", "user_id", identity.ID)
	respondJSON(w, map[string]string{"message": "logged out successfully"}, http.StatusOK)
}

// Refresh rotates the token pair
// @Summary      Refresh access token
// @Description  Exchange the current refresh token (cookie or body) for a new pair. The presented token is invalidated.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RefreshRequest false "Refresh token (falls back to cookie)"
// @Success      200 {object} TokenPair
// @Failure      401 {object} httputil.ErrorResponse "Missing, invalid or stale refresh token"
// @Router       /api/v1/users/refresh [post]
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	// Cookie first, body fallback
	refreshToken, _ := GetRefreshTokenFromCookie(r)
	if refreshToken == "" {
		var req RefreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			refreshToken = req.RefreshToken
		}
	}
	refreshToken = strings.TrimSpace(refreshToken)

	if refreshToken == "" {
		logger.Warn("refresh token missing from both cookie and body")
		respondError(w, "unauthorized request", httputil.CodeRefreshTokenRequired, http.StatusUnauthorized)
		return
	}

	pair, err := h.service.Refresh(r.Context(), refreshToken)
	if err != nil {
		if errors.Is(err, ErrInvalidRefreshToken) {
			logger.Warn("token refresh failed: invalid or stale token")
			respondError(w, "refresh token is expired or used", httputil.CodeInvalidRefreshToken, http.StatusUnauthorized)
			return
		}
		logger.Error("token refresh failed: internal error", "error", err.Error())
		respondError(w, "failed to refresh token", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("access token refreshed successfully")

	SetAuthCookies(w, pair.AccessToken, pair.RefreshToken, h.isProduction, h.accessCookieMaxAge, h.refreshCookieMaxAge)
	respondJSON(w, pair, http.StatusOK)
}

// Me returns the resolved identity
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} UserResponse
// @Failure      401 {object} httputil.ErrorResponse
// @Router       /api/v1/users/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := user.FromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized request", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}
	respondJSON(w, UserResponse{User: identity}, http.StatusOK)
}

// ChangePassword re-hashes and stores a new password
// @Summary      Change password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body ChangePasswordRequest true "Old and new password"
// @Success      200 {object} map[string]string
// @Failure      400 {object} httputil.ErrorResponse "Wrong old password"
// @Failure      404 {object} httputil.ErrorResponse "Unknown user"
// @Router       /api/v1/users/change-password [put]
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	identity, ok := user.FromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized request", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid change password request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	err := h.service.ChangePassword(r.Context(), identity.ID, req.OldPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidOldPassword):
			logger.Warn("change password failed: invalid old password")
			respondError(w, "invalid old password", httputil.CodeInvalidOldPassword, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordRequired):
			respondError(w, err.Error(), httputil.CodeMissingFields, http.StatusBadRequest)
		case errors.Is(err, user.ErrNotFound):
			respondError(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
		default:
			logger.Error("change password failed: internal error", "error", err.Error())
			respondError(w, "failed to change password", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("password changed successfully", "user_id", identity.ID)
	respondJSON(w, map[string]string{"message": "password changed successfully"}, http.StatusOK)
}

// UpdateProfile mutates name, bio and avatar
// @Summary      Update profile
// @Description  Multipart body with optional name, bio and profilePicture fields. The avatar is uploaded only when a new file was supplied.
// @Tags         auth
// @Accept       mpfd
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} UserResponse
// @Failure      400 {object} httputil.ErrorResponse "Rejected upload or bio too long"
// @Failure      500 {object} httputil.ErrorResponse
// @Router       /api/v1/users/update-profile [put]
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	identity, ok := user.FromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized request", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		logger.Warn("invalid update profile request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	var name, bio *string
	if v := strings.TrimSpace(r.FormValue("name")); v != "" {
		name = &v
	}
	if v := strings.TrimSpace(r.FormValue("bio")); v != "" {
		bio = &v
	}

	var avatar *Avatar
	if file, header, err := r.FormFile("profilePicture"); err == nil {
		defer file.Close()
		avatar = &Avatar{File: file, Filename: header.Filename}
	}

	updated, err := h.service.UpdateProfile(r.Context(), identity.ID, name, bio, avatar)
	if err != nil {
		switch {
		case errors.Is(err, ErrBioTooLong):
			respondError(w, err.Error(), httputil.CodeMissingFields, http.StatusBadRequest)
		case errors.Is(err, upload.ErrUploadFailed):
			logger.Warn("profile update failed: upload rejected")
			respondError(w, "failed to upload profile picture", httputil.CodeUploadFailed, http.StatusBadRequest)
		case errors.Is(err, user.ErrNotFound):
			respondError(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
		default:
			logger.Error("profile update failed: internal error", "error", err.Error())
			respondError(w, "failed to update profile", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("profile updated successfully", "user_id", identity.ID)
	respondJSON(w, UserResponse{User: updated}, http.StatusOK)
}

// GoogleLogin redirects the client into the Google authorization flow
// @Summary      Start Google login
// @Tags         auth
// @Success      302
// @Router       /api/v1/auth/google [get]
func (h *Handler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	authURL, err := h.google.AuthCodeURL(r.Context())
	if err != nil {
		logger.Error("failed to start google login", "error", err.Error())
		respondError(w, "failed to start google login", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

// GoogleCallback finishes the Google handshake: exchanges the code,
// resolves the profile to a local user, issues cookies and redirects to
// the frontend. Tokens travel only via cookies, never in the URL.
// @Summary      Google login callback
// @Tags         auth
// @Success      302
// @Failure      401 {object} httputil.ErrorResponse "Handshake failed"
// @Failure      409 {object} httputil.ErrorResponse "Email owned by another account"
// @Router       /api/v1/auth/google/callback [get]
func (h *Handler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if state == "" || code == "" {
		logger.Warn("google callback missing state or code")
		respondError(w, "google authentication failed", httputil.CodeOAuthFailed, http.StatusUnauthorized)
		return
	}

	profile, err := h.google.Exchange(r.Context(), state, code)
	if err != nil {
		logger.Warn("google exchange failed", "error", err.Error())
		respondError(w, "google authentication failed", httputil.CodeOAuthFailed, http.StatusUnauthorized)
		return
	}

	resolved, err := h.service.ResolveGoogleProfile(r.Context(), *profile)
	if err != nil {
		if errors.Is(err, ErrEmailConflict) {
			logger.Warn("google login failed: email conflict", "email", profile.Email)
			respondError(w, "email is already used for another account", httputil.CodeEmailConflict, http.StatusConflict)
			return
		}
		logger.Error("google login failed: internal error", "error", err.Error())
		respondError(w, "google authentication failed", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	pair, err := h.service.IssueTokens(r.Context(), resolved)
	if err != nil {
		logger.Error("google login failed: token issuance", "error", err.Error())
		respondError(w, "google authentication failed", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	SetAuthCookies(w, pair.AccessToken, pair.RefreshToken, h.isProduction, h.accessCookieMaxAge, h.refreshCookieMaxAge)

	logger.Info("google login succeeded", "user_id", resolved.ID)
	http.Redirect(w, r, h.redirectURL(), http.StatusFound)
}

// redirectURL appends the success flag to the configured frontend URL
func (h *Handler) redirectURL() string {
	u, err := url.Parse(h.postLoginRedirectURL)
	if err != nil {
		return h.postLoginRedirectURL
	}
	q := u.Query()
	q.Set("google", "true")
	u.RawQuery = q.Encode()
	return u.String()
}

// parseRegisterRequest reads the registration fields from a multipart
// form (with optional avatar) or a plain JSON body
func parseRegisterRequest(r *http.Request) (*RegisterInput, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			return nil, err
		}
		in := &RegisterInput{
			Name:     r.FormValue("name"),
			Email:    r.FormValue("email"),
			Password: r.FormValue("password"),
			Role:     r.FormValue("role"),
			Bio:      r.FormValue("bio"),
		}
		if file, header, err := r.FormFile("profilePicture"); err == nil {
			in.Avatar = &Avatar{File: file, Filename: header.Filename}
		}
		return in, nil
	}

	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
		Bio      string `json:"bio"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, err
	}
	return &RegisterInput{
		Name:     body.Name,
		Email:    body.Email,
		Password: body.Password,
		Role:     body.Role,
		Bio:      body.Bio,
	}, nil
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, data any, statusCode int) {
	httputil.RespondJSON(w, data, statusCode)
}

// respondError sends an error response with a machine-readable code
func respondError(w http.ResponseWriter, message string, code string, statusCode int) {
	httputil.RespondErrorWithCode(w, message, code, statusCode)
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header first (behind proxy/load balancer)
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		// X-Forwarded-For can contain multiple IPs, take the first one
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	// Check X-Real-IP header
	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return strings.TrimSpace(xri)
	}

	// Fallback to RemoteAddr
	ip := r.RemoteAddr
	// RemoteAddr format is "IP:port", extract just the IP
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

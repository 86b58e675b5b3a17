package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/KaleemAfrozShaik/PathFinder-Backend/internal/httputil"
	"github.com/KaleemAfrozShaik/PathFinder-Backend/internal/user"
)

// Middleware resolves request identity for protected routes
type Middleware struct {
	tokens TokenService
	users  UserStore
}

func NewMiddleware(tokens TokenService, users UserStore) *Middleware {
	return &Middleware{tokens: tokens, users: users}
}

// RequireAuth extracts a bearer credential (access cookie first, then
// Authorization header), verifies it, loads the referenced user with the
// credential columns excluded, and attaches the identity to the request
// context. Every failure is a plain 401; expired and forged tokens are
// not distinguished to the client.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var token string

		// Priority 1: access token cookie
		if cookieToken, err := GetAccessTokenFromCookie(r); err == nil {
			token = cookieToken
		}

		// Priority 2: Authorization header
		if token == "" {
			authHeader := r.Header.Get("Authorization")
			if authHeader != "" {
				parts := strings.Split(authHeader, " ")
				if len(parts) == 2 && parts[0] == "Bearer" {
					token = parts[1]
				} else {
					httputil.RespondErrorWithCode(w, "invalid authorization header format", httputil.CodeInvalidAuthHeader, http.StatusUnauthorized)
					return
				}
			}
		}

		if token == "" {
			httputil.RespondErrorWithCode(w, "unauthorized request", httputil.CodeMissingAuth, http.StatusUnauthorized)
			return
		}

		claims, err := m.tokens.VerifyAccessToken(token)
		if err != nil {
			httputil.RespondErrorWithCode(w, "invalid access token", httputil.CodeInvalidToken, http.StatusUnauthorized)
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			httputil.RespondErrorWithCode(w, "invalid access token", httputil.CodeInvalidToken, http.StatusUnauthorized)
			return
		}

		// Resolved fresh on every request; a deleted user fails even with
		// a valid token
		resolved, err := m.users.GetSanitizedByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				httputil.RespondErrorWithCode(w, "invalid access token", httputil.CodeInvalidToken, http.StatusUnauthorized)
				return
			}
			httputil.RespondErrorWithCode(w, "failed to resolve identity", httputil.CodeInternalError, http.StatusInternalServerError)
			return
		}

		next.ServeHTTP(w, r.WithContext(user.NewContext(r.Context(), resolved)))
	})
}

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/KaleemAfrozShaik/PathFinder-Backend/internal/user"
)

func protectedEcho(t *testing.T, gotUser **user.User) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := user.FromContext(r.Context())
		if !ok {
			t.Fatal("expected identity in request context")
		}
		*gotUser = identity
		w.WriteHeader(http.StatusOK)
	})
}

func seedUser(t *testing.T, store *fakeUserStore) *user.User {
	t.Helper()
	hash := "$argon2id$fake"
	created, err := store.Create(context.Background(), &user.User{
		Name:         "Asha",
		Email:        "asha@example.com",
		PasswordHash: &hash,
		Role:         user.RoleStudent,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return created
}

func TestRequireAuthMissingToken(t *testing.T) {
	mw := NewMiddleware(&stubTokens{}, newFakeUserStore())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rec := httptest.NewRecorder()

	mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a credential")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireAuthMalformedHeader(t *testing.T) {
	mw := NewMiddleware(&stubTokens{}, newFakeUserStore())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()

	mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with a malformed header")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	store := newFakeUserStore()
	seedUser(t, store)
	mw := NewMiddleware(&stubTokens{}, store)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()

	mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with an invalid token")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireAuthDeletedUser(t *testing.T) {
	tokens := &stubTokens{}
	store := newFakeUserStore()
	created := seedUser(t, store)
	mw := NewMiddleware(tokens, store)

	token, err := tokens.CreateAccessToken(created.ID, created.Email)
	if err != nil {
		t.Fatalf("create token: %v", err)
	}
	delete(store.users, created.ID)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for a deleted user")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireAuthBearerHeader(t *testing.T) {
	tokens := &stubTokens{}
	store := newFakeUserStore()
	created := seedUser(t, store)
	mw := NewMiddleware(tokens, store)

	token, err := tokens.CreateAccessToken(created.ID, created.Email)
	if err != nil {
		t.Fatalf("create token: %v", err)
	}

	var identity *user.User
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	mw.RequireAuth(protectedEcho(t, &identity)).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if identity.ID != created.ID {
		t.Fatalf("expected identity %s, got %s", created.ID, identity.ID)
	}
	// Middleware loads go through the sanitized projection
	if identity.PasswordHash != nil || identity.RefreshToken != nil {
		t.Fatal("expected credential columns to be excluded from the resolved identity")
	}
}

func TestRequireAuthCookieTakesPriority(t *testing.T) {
	tokens := &stubTokens{}
	store := newFakeUserStore()
	cookieUser := seedUser(t, store)

	hash := "$argon2id$fake"
	headerUser, err := store.Create(context.Background(), &user.User{
		Name:         "Noor",
		Email:        "noor@example.com",
		PasswordHash: &hash,
		Role:         user.RoleMentor,
	})
	if err != nil {
		t.Fatalf("seed second user: %v", err)
	}

	mw := NewMiddleware(tokens, store)

	cookieToken, err := tokens.CreateAccessToken(cookieUser.ID, cookieUser.Email)
	if err != nil {
		t.Fatalf("create cookie token: %v", err)
	}
	headerToken, err := tokens.CreateAccessToken(headerUser.ID, headerUser.Email)
	if err != nil {
		t.Fatalf("create header token: %v", err)
	}

	var identity *user.User
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: cookieToken})
	req.Header.Set("Authorization", "Bearer "+headerToken)
	rec := httptest.NewRecorder()

	mw.RequireAuth(protectedEcho(t, &identity)).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if identity.ID != cookieUser.ID {
		t.Fatalf("expected cookie identity %s, got %s", cookieUser.ID, identity.ID)
	}
}

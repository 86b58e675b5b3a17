package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/KaleemAfrozShaik/PathFinder-Backend/internal/logging"
	"github.com/KaleemAfrozShaik/PathFinder-Backend/internal/upload"
	"github.com/KaleemAfrozShaik/PathFinder-Backend/internal/user"
)

// fakeUserStore is an in-memory UserStore
type fakeUserStore struct {
	users map[uuid.UUID]*user.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uuid.UUID]*user.User)}
}

func (f *fakeUserStore) Create(ctx context.Context, u *user.User) (*user.User, error) {
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return nil, user.ErrDuplicateEmail
		}
	}
	stored := *u
	stored.ID = uuid.New()
	f.users[stored.ID] = &stored
	copied := stored
	return &copied, nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, user.ErrNotFound
}

func (f *fakeUserStore) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserStore) GetSanitizedByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	copied := *u
	copied.PasswordHash = nil
	copied.RefreshToken = nil
	return &copied, nil
}

func (f *fakeUserStore) GetByGoogleID(ctx context.Context, googleID string) (*user.User, error) {
	for _, u := range f.users {
		if u.GoogleID != nil && *u.GoogleID == googleID {
			copied := *u
			return &copied, nil
		}
	}
	return nil, user.ErrNotFound
}

func (f *fakeUserStore) SetRefreshToken(ctx context.Context, id uuid.UUID, token string) error {
	u, ok := f.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.RefreshToken = &token
	return nil
}

func (f *fakeUserStore) RotateRefreshToken(ctx context.Context, id uuid.UUID, oldToken, newToken string) error {
	u, ok := f.users[id]
	if !ok {
		return user.ErrRefreshTokenMismatch
	}
	if u.RefreshToken == nil || *u.RefreshToken != oldToken {
		return user.ErrRefreshTokenMismatch
	}
	u.RefreshToken = &newToken
	return nil
}

func (f *fakeUserStore) ClearRefreshToken(ctx context.Context, id uuid.UUID) error {
	u, ok := f.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.RefreshToken = nil
	return nil
}

func (f *fakeUserStore) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	u, ok := f.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.PasswordHash = &passwordHash
	return nil
}

func (f *fakeUserStore) UpdateProfile(ctx context.Context, id uuid.UUID, name, bio, profilePicture *string) (*user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	if name != nil {
		u.Name = *name
	}
	if bio != nil {
		u.Bio = *bio
	}
	if profilePicture != nil {
		u.ProfilePicture = *profilePicture
	}
	return f.GetSanitizedByID(ctx, id)
}

// stubTokens issues deterministic, strictly increasing tokens so
// rotation always produces a value distinct from the previous one
type stubTokens struct {
	n int
}

func (s *stubTokens) CreateAccessToken(userID uuid.UUID, email string) (string, error) {
	s.n++
	return fmt.Sprintf("access:%s:%s:%d", userID, email, s.n), nil
}

func (s *stubTokens) CreateRefreshToken(userID uuid.UUID) (string, error) {
	s.n++
	return fmt.Sprintf("refresh:%s:%d", userID, s.n), nil
}

func (s *stubTokens) VerifyAccessToken(tokenStr string) (*TokenClaims, error) {
	return stubVerify(tokenStr, "access:")
}

func (s *stubTokens) VerifyRefreshToken(tokenStr string) (*TokenClaims, error) {
	return stubVerify(tokenStr, "refresh:")
}

func stubVerify(tokenStr, prefix string) (*TokenClaims, error) {
	if !strings.HasPrefix(tokenStr, prefix) {
		return nil, ErrInvalidToken
	}
	parts := strings.Split(tokenStr, ":")
	now := time.Now()
	claims := &TokenClaims{UserID: parts[1], IssuedAt: now, ExpiresAt: now.Add(time.Hour)}
	if prefix == "access:" && len(parts) > 3 {
		claims.Email = parts[2]
	}
	return claims, nil
}

// fakeUploader records uploads and returns a fixed URL
type fakeUploader struct {
	uploads int
	url     string
	err     error
}

func (f *fakeUploader) Upload(ctx context.Context, file io.Reader, filename string) (string, error) {
	f.uploads++
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

func newTestService(store *fakeUserStore) *Service {
	return NewService(store, &stubTokens{}, upload.Unconfigured{}, logging.NewLogger(true))
}

func registerTestUser(t *testing.T, svc *Service, email string) *user.User {
	t.Helper()
	u, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Asha",
		Email:    email,
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return u
}

func TestRegisterDefaults(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(store)

	created := registerTestUser(t, svc, "asha@example.com")

	if created.Role != user.RoleStudent {
		t.Fatalf("expected default role student, got %q", created.Role)
	}
	if created.ProfilePicture != user.DefaultProfilePicture {
		t.Fatalf("expected default profile picture, got %q", created.ProfilePicture)
	}
	if created.PasswordHash == nil || *created.PasswordHash == "correct horse" {
		t.Fatal("expected password to be stored hashed")
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(newFakeUserStore())
	ctx := context.Background()

	cases := []struct {
		name string
		in   RegisterInput
		want error
	}{
		{"missing name", RegisterInput{Email: "a@b.com", Password: "pw"}, ErrMissingFields},
		{"missing email", RegisterInput{Name: "A", Password: "pw"}, ErrMissingFields},
		{"missing password", RegisterInput{Name: "A", Email: "a@b.com"}, ErrMissingFields},
		{"bad email", RegisterInput{Name: "A", Email: "not-an-email", Password: "pw"}, ErrInvalidEmailFormat},
		{"bad role", RegisterInput{Name: "A", Email: "a@b.com", Password: "pw", Role: "admin"}, ErrInvalidRole},
		{"long bio", RegisterInput{Name: "A", Email: "a@b.com", Password: "pw", Bio: strings.Repeat("x", user.MaxBioLength+1)}, ErrBioTooLong},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestService(newFakeUserStore())
	registerTestUser(t, svc, "asha@example.com")

	_, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Other",
		Email:    "asha@example.com",
		Password: "pw",
	})
	if !errors.Is(err, user.ErrDuplicateEmail) {
		t.Fatalf("expected duplicate email error, got %v", err)
	}
}

func TestRegisterUploadsAvatar(t *testing.T) {
	store := newFakeUserStore()
	uploader := &fakeUploader{url: "https://cdn.example.com/avatar.png"}
	svc := NewService(store, &stubTokens{}, uploader, logging.NewLogger(true))

	created, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Asha",
		Email:    "asha@example.com",
		Password: "pw",
		Avatar:   &Avatar{File: strings.NewReader("img"), Filename: "avatar.png"},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if uploader.uploads != 1 {
		t.Fatalf("expected 1 upload, got %d", uploader.uploads)
	}
	if created.ProfilePicture != uploader.url {
		t.Fatalf("expected uploaded URL, got %q", created.ProfilePicture)
	}
}

func TestRegisterFailedUploadCreatesNoUser(t *testing.T) {
	store := newFakeUserStore()
	uploader := &fakeUploader{err: upload.ErrUploadFailed}
	svc := NewService(store, &stubTokens{}, uploader, logging.NewLogger(true))

	_, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Asha",
		Email:    "asha@example.com",
		Password: "pw",
		Avatar:   &Avatar{File: strings.NewReader("img"), Filename: "avatar.png"},
	})
	if !errors.Is(err, upload.ErrUploadFailed) {
		t.Fatalf("expected upload error, got %v", err)
	}
	if len(store.users) != 0 {
		t.Fatalf("expected no user created, got %d", len(store.users))
	}
}

func TestLoginIssuesAndStoresTokens(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(store)
	created := registerTestUser(t, svc, "asha@example.com")

	loggedIn, pair, err := svc.Login(context.Background(), "asha@example.com", "correct horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if loggedIn.ID != created.ID {
		t.Fatalf("expected user %s, got %s", created.ID, loggedIn.ID)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected non-empty token pair")
	}

	stored := store.users[created.ID]
	if stored.RefreshToken == nil || *stored.RefreshToken != pair.RefreshToken {
		t.Fatal("expected issued refresh token to be persisted on the user")
	}
}

func TestLoginFailures(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(store)
	registerTestUser(t, svc, "asha@example.com")

	googleID := "google-123"
	if _, err := store.Create(context.Background(), &user.User{
		Name:     "Fed",
		Email:    "fed@example.com",
		GoogleID: &googleID,
	}); err != nil {
		t.Fatalf("create federated user: %v", err)
	}

	cases := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"empty email", "", "pw", ErrEmailRequired},
		{"unknown email", "nobody@example.com", "pw", user.ErrNotFound},
		{"wrong password", "asha@example.com", "wrong", ErrInvalidCredentials},
		{"federated account", "fed@example.com", "anything", ErrInvalidCredentials},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.Login(context.Background(), tc.email, tc.password)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestRefreshRotatesStoredToken(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(store)
	created := registerTestUser(t, svc, "asha@example.com")

	_, first, err := svc.Login(context.Background(), "asha@example.com", "correct horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	second, err := svc.Refresh(context.Background(), first.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatal("expected rotation to issue a new refresh token")
	}

	stored := store.users[created.ID]
	if stored.RefreshToken == nil || *stored.RefreshToken != second.RefreshToken {
		t.Fatal("expected stored refresh token to be the rotated one")
	}

	// The pre-rotation token is spent
	if _, err := svc.Refresh(context.Background(), first.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected stale token to fail, got %v", err)
	}
}

func TestRefreshRejectsGarbage(t *testing.T) {
	svc := newTestService(newFakeUserStore())

	if _, err := svc.Refresh(context.Background(), "not-a-token"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected invalid refresh token error, got %v", err)
	}
}

func TestRefreshAfterLogoutFails(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(store)
	created := registerTestUser(t, svc, "asha@example.com")

	_, pair, err := svc.Login(context.Background(), "asha@example.com", "correct horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.Logout(context.Background(), created.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if store.users[created.ID].RefreshToken != nil {
		t.Fatal("expected stored refresh token to be cleared")
	}

	if _, err := svc.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected refresh after logout to fail, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(store)
	created := registerTestUser(t, svc, "asha@example.com")
	ctx := context.Background()

	if err := svc.ChangePassword(ctx, created.ID, "wrong", "new password"); !errors.Is(err, ErrInvalidOldPassword) {
		t.Fatalf("expected invalid old password error, got %v", err)
	}
	if err := svc.ChangePassword(ctx, created.ID, "correct horse", ""); !errors.Is(err, ErrPasswordRequired) {
		t.Fatalf("expected password required error, got %v", err)
	}

	if err := svc.ChangePassword(ctx, created.ID, "correct horse", "new password"); err != nil {
		t.Fatalf("change password: %v", err)
	}

	if _, _, err := svc.Login(ctx, "asha@example.com", "correct horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected old password to stop working, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "asha@example.com", "new password"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestResolveGoogleProfile(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(store)
	ctx := context.Background()

	profile := GoogleProfile{ID: "google-123", Email: "fed@example.com", Name: "Fed"}

	created, err := svc.ResolveGoogleProfile(ctx, profile)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if created.Role != user.RoleStudent {
		t.Fatalf("expected student role, got %q", created.Role)
	}
	if created.HasPassword() {
		t.Fatal("expected federated user to have no password hash")
	}
	if created.GoogleID == nil || *created.GoogleID != profile.ID {
		t.Fatal("expected google id to be stored")
	}

	// Second login resolves to the same account
	again, err := svc.ResolveGoogleProfile(ctx, profile)
	if err != nil {
		t.Fatalf("resolve again: %v", err)
	}
	if again.ID != created.ID {
		t.Fatalf("expected same user %s, got %s", created.ID, again.ID)
	}
}

func TestResolveGoogleProfileEmailConflict(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(store)
	registerTestUser(t, svc, "asha@example.com")

	_, err := svc.ResolveGoogleProfile(context.Background(), GoogleProfile{
		ID:    "google-456",
		Email: "asha@example.com",
		Name:  "Asha",
	})
	if !errors.Is(err, ErrEmailConflict) {
		t.Fatalf("expected email conflict, got %v", err)
	}
}

func TestUpdateProfileBioLimit(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(store)
	created := registerTestUser(t, svc, "asha@example.com")

	longBio := strings.Repeat("x", user.MaxBioLength+1)
	if _, err := svc.UpdateProfile(context.Background(), created.ID, nil, &longBio, nil); !errors.Is(err, ErrBioTooLong) {
		t.Fatalf("expected bio too long error, got %v", err)
	}
}

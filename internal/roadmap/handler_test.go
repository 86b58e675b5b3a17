package roadmap

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/KaleemAfrozShaik/PathFinder-Backend/internal/logging"
	"github.com/KaleemAfrozShaik/PathFinder-Backend/internal/user"
)

// fakeStore is an in-memory roadmap store
type fakeStore struct {
	roadmaps map[uuid.UUID]*Roadmap
}

func newFakeStore() *fakeStore {
	return &fakeStore{roadmaps: make(map[uuid.UUID]*Roadmap)}
}

func (f *fakeStore) List(ctx context.Context) ([]*Roadmap, error) {
	out := make([]*Roadmap, 0, len(f.roadmaps))
	for _, rm := range f.roadmaps {
		copied := *rm
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) GetByID(ctx context.Context, id uuid.UUID) (*Roadmap, error) {
	rm, ok := f.roadmaps[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *rm
	return &copied, nil
}

func (f *fakeStore) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*Roadmap, error) {
	var out []*Roadmap
	for _, id := range ids {
		if rm, ok := f.roadmaps[id]; ok {
			copied := *rm
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeStore) Create(ctx context.Context, rm *Roadmap) (*Roadmap, error) {
	stored := *rm
	stored.ID = uuid.New()
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	f.roadmaps[stored.ID] = &stored
	copied := stored
	return &copied, nil
}

func (f *fakeStore) Update(ctx context.Context, id uuid.UUID, title, description, careerPath *string, steps []Step) (*Roadmap, error) {
	rm, ok := f.roadmaps[id]
	if !ok {
		return nil, ErrNotFound
	}
	if title != nil {
		rm.Title = *title
	}
	if description != nil {
		rm.Description = *description
	}
	if careerPath != nil {
		rm.CareerPath = *careerPath
	}
	if steps != nil {
		rm.Steps = steps
	}
	copied := *rm
	return &copied, nil
}

func (f *fakeStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.roadmaps[id]; !ok {
		return ErrNotFound
	}
	delete(f.roadmaps, id)
	return nil
}

// fakeSavedStore tracks per-user saved sets
type fakeSavedStore struct {
	saved map[uuid.UUID][]uuid.UUID
}

func newFakeSavedStore() *fakeSavedStore {
	return &fakeSavedStore{saved: make(map[uuid.UUID][]uuid.UUID)}
}

func (f *fakeSavedStore) ToggleSavedRoadmap(ctx context.Context, userID, roadmapID uuid.UUID) (bool, error) {
	ids := f.saved[userID]
	for i, id := range ids {
		if id == roadmapID {
			f.saved[userID] = append(ids[:i], ids[i+1:]...)
			return false, nil
		}
	}
	f.saved[userID] = append(ids, roadmapID)
	return true, nil
}

func (f *fakeSavedStore) GetSavedRoadmapIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return f.saved[userID], nil
}

func newTestRouter(store *fakeStore, saved *fakeSavedStore, identity *user.User) *chi.Mux {
	handler := NewHandler(store, saved, logging.NewLogger(true))

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(user.NewContext(r.Context(), identity)))
		})
	})
	router.Get("/", handler.List)
	router.Get("/{id}", handler.Get)
	router.Post("/", handler.Create)
	router.Put("/{id}", handler.Update)
	router.Delete("/{id}", handler.Delete)
	router.Post("/{id}/save", handler.ToggleSave)
	router.Get("/saved-paths", handler.SavedPaths)
	return router
}

func testIdentity() *user.User {
	return &user.User{ID: uuid.New(), Name: "Noor", Email: "noor@example.com", Role: user.RoleMentor}
}

func TestCreateRoadmap(t *testing.T) {
	store := newFakeStore()
	identity := testIdentity()
	router := newTestRouter(store, newFakeSavedStore(), identity)

	body := `{"title":"Backend Path","careerPath":"backend","steps":[{"title":"Learn SQL","order":1}]}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body)
	}

	var resp struct {
		Roadmap *Roadmap `json:"roadmap"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Roadmap.CreatedBy != identity.ID {
		t.Fatalf("expected creator %s, got %s", identity.ID, resp.Roadmap.CreatedBy)
	}
	if len(resp.Roadmap.Steps) != 1 || resp.Roadmap.Steps[0].Title != "Learn SQL" {
		t.Fatalf("expected steps to be stored, got %+v", resp.Roadmap.Steps)
	}
}

func TestCreateRoadmapRequiresTitleAndSteps(t *testing.T) {
	router := newTestRouter(newFakeStore(), newFakeSavedStore(), testIdentity())

	cases := []struct {
		name string
		body string
	}{
		{"missing title", `{"steps":[]}`},
		{"missing steps", `{"title":"Backend Path"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestUpdateRoadmapPartial(t *testing.T) {
	store := newFakeStore()
	router := newTestRouter(store, newFakeSavedStore(), testIdentity())

	created, err := store.Create(context.Background(), &Roadmap{Title: "Old", Description: "keep me", Steps: []Step{}})
	if err != nil {
		t.Fatalf("seed roadmap: %v", err)
	}

	req := httptest.NewRequest(http.MethodPut, "/"+created.ID.String(), strings.NewReader(`{"title":"New"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}

	stored := store.roadmaps[created.ID]
	if stored.Title != "New" {
		t.Fatalf("expected updated title, got %q", stored.Title)
	}
	if stored.Description != "keep me" {
		t.Fatalf("expected untouched description, got %q", stored.Description)
	}
}

func TestRoadmapNotFound(t *testing.T) {
	router := newTestRouter(newFakeStore(), newFakeSavedStore(), testIdentity())

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/" + uuid.NewString()},
		{http.MethodPut, "/" + uuid.NewString()},
		{http.MethodDelete, "/" + uuid.NewString()},
		{http.MethodPost, "/" + uuid.NewString() + "/save"},
	} {
		var body *strings.Reader
		if tc.method == http.MethodPut {
			body = strings.NewReader(`{}`)
		} else {
			body = strings.NewReader("")
		}
		req := httptest.NewRequest(tc.method, tc.path, body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s %s: expected 404, got %d", tc.method, tc.path, rec.Code)
		}
	}
}

func TestToggleSaveAndSavedPaths(t *testing.T) {
	store := newFakeStore()
	saved := newFakeSavedStore()
	identity := testIdentity()
	router := newTestRouter(store, saved, identity)

	created, err := store.Create(context.Background(), &Roadmap{Title: "Backend Path", Steps: []Step{}})
	if err != nil {
		t.Fatalf("seed roadmap: %v", err)
	}

	// First toggle saves
	req := httptest.NewRequest(http.MethodPost, "/"+created.ID.String()+"/save", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}

	var toggle struct {
		Saved bool `json:"saved"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&toggle); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !toggle.Saved {
		t.Fatal("expected first toggle to save")
	}

	// Saved paths now contains the roadmap
	req = httptest.NewRequest(http.MethodGet, "/saved-paths", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var list struct {
		Roadmaps []*Roadmap `json:"roadmaps"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(list.Roadmaps) != 1 || list.Roadmaps[0].ID != created.ID {
		t.Fatalf("expected saved paths to contain the roadmap, got %+v", list.Roadmaps)
	}

	// Second toggle unsaves
	req = httptest.NewRequest(http.MethodPost, "/"+created.ID.String()+"/save", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if err := json.NewDecoder(rec.Body).Decode(&toggle); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if toggle.Saved {
		t.Fatal("expected second toggle to unsave")
	}
}

package http

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/KaleemAfrozShaik/PathFinder-Backend/internal/auth"
	"github.com/KaleemAfrozShaik/PathFinder-Backend/internal/config"
	"github.com/KaleemAfrozShaik/PathFinder-Backend/internal/httputil"
	"github.com/KaleemAfrozShaik/PathFinder-Backend/internal/logging"
	"github.com/KaleemAfrozShaik/PathFinder-Backend/internal/roadmap"
	"github.com/KaleemAfrozShaik/PathFinder-Backend/internal/session"
	"github.com/KaleemAfrozShaik/PathFinder-Backend/internal/user"
)

// Handlers bundles the per-domain HTTP handlers mounted by the router
type Handlers struct {
	Auth    *auth.Handler
	User    *user.Handler
	Roadmap *roadmap.Handler
	Session *session.Handler
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, h Handlers, authMiddleware *auth.Middleware, logger *logging.Logger) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders)               // Security headers on all responses
	r.Use(middleware.Recoverer)          // Recover from panics
	r.Use(middleware.RequestID)          // Add request ID
	r.Use(middleware.RealIP)             // Set RemoteAddr to real IP
	r.Use(logging.RequestLogger(logger)) // Structured logging with request context
	r.Use(middleware.Compress(5))        // Compress responses

	// Public routes
	r.Get("/health", handleHealth)

	// Swagger UI - only in development
	// Production builds will not have this route at all
	if cfg.Server.IsDevelopment() {
		log.Println("Swagger UI enabled at /swagger/*")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	} else {
		log.Println("Swagger UI disabled (production mode)")
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)
			r.Post("/refresh", h.Auth.Refresh)
			r.Get("/mentor/{id}", h.User.MentorByID)

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.RequireAuth)
				r.Post("/logout", h.Auth.Logout)
				r.Get("/me", h.Auth.Me)
				r.Put("/update-profile", h.Auth.UpdateProfile)
				r.Put("/change-password", h.Auth.ChangePassword)
				r.Put("/update-role", h.User.UpdateRole)
				r.Get("/saved-paths", h.Roadmap.SavedPaths)
				r.Get("/mentors", h.User.Mentors)
			})
		})

		r.Route("/roadmaps", func(r chi.Router) {
			r.Get("/", h.Roadmap.List)
			r.Get("/{id}", h.Roadmap.Get)

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.RequireAuth)
				r.Post("/", h.Roadmap.Create)
				r.Put("/{id}", h.Roadmap.Update)
				r.Delete("/{id}", h.Roadmap.Delete)
				r.Post("/{id}/save", h.Roadmap.ToggleSave)
			})
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Use(authMiddleware.RequireAuth)
			r.Post("/request/{mentorId}", h.Session.Create)
			r.Get("/my-requests", h.Session.MyRequests)
			r.Get("/mentor-requests", h.Session.MentorRequests)
			r.Put("/accept/{requestId}", h.Session.Accept)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Get("/google", h.Auth.GoogleLogin)
			r.Get("/google/callback", h.Auth.GoogleCallback)
		})
	})

	return r
}

// handleHealth is a simple health check endpoint
// @Summary      Health check
// @Description  Check if the API is running
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /health [get]
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "api is running"}, http.StatusOK)
}

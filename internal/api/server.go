package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dogsport-ua/competition-engine/internal/competition"
	"github.com/dogsport-ua/competition-engine/internal/config"
	"github.com/dogsport-ua/competition-engine/internal/models"
	"github.com/dogsport-ua/competition-engine/internal/storage"
)

// DirectoryStore is the admin surface over the profile/dog key-value records
type DirectoryStore interface {
	Profile(ctx context.Context, userID string) (*models.Profile, error)
	PutProfile(ctx context.Context, userID string, p *models.Profile) error
	Dogs(ctx context.Context, userID string) ([]models.Dog, error)
	PutDogs(ctx context.Context, userID string, dogs []models.Dog) error
}

// ClassProvider serves the class catalog endpoints
type ClassProvider interface {
	Classes() []*models.Class
	GetClass(code string) *models.Class
}

// Server represents the HTTP API server
type Server struct {
	config         config.ServerConfig
	router         *chi.Mux
	service        competition.Service
	directory      DirectoryStore
	classes        ClassProvider
	live           *LiveHub
	authMiddleware *AuthMiddleware
}

// NewServer creates a new API server
func NewServer(
	cfg config.ServerConfig,
	svc competition.Service,
	directory DirectoryStore,
	classes ClassProvider,
	repo storage.Repository,
	live *LiveHub,
) *Server {
	s := &Server{
		config:         cfg,
		service:        svc,
		directory:      directory,
		classes:        classes,
		live:           live,
		authMiddleware: NewAuthMiddleware(repo),
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (outside versioned API - public)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api/v1", func(r chi.Router) {
		// Public read surface
		r.Get("/competitions", s.handleListCompetitions)
		r.Get("/competitions/{id}", s.handleGetCompetition)
		r.Get("/competitions/{id}/results", s.handlePublicResults)
		r.Get("/rating", s.handleRating)
		r.Get("/classes", s.handleListClasses)
		r.Get("/classes/{code}", s.handleGetClass)

		// Authenticated surface
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware.Authenticate)

			r.Post("/competitions", s.handleCreateCompetition)
			r.Put("/competitions/{id}", s.handleUpdateCompetition)
			r.Delete("/competitions/{id}", s.handleDeleteCompetition)

			r.Post("/competitions/{id}/register", s.handleRegister)
			r.Get("/competitions/{id}/details", s.handleDetails)
			r.Put("/competitions/{id}/participants", s.handleUpdateParticipant)
			r.Post("/competitions/{id}/participants/batch", s.handleSaveParticipants)
			r.Post("/competitions/{id}/placements", s.handleComputePlacements)
			r.Get("/competitions/{id}/live", s.handleLiveResults)

			// Directory records are maintained by federation staff
			r.Group(func(r chi.Router) {
				r.Use(s.authMiddleware.RequireRole(models.RoleAdmin))
				r.Get("/profiles/{userId}", s.handleGetProfile)
				r.Put("/profiles/{userId}", s.handlePutProfile)
				r.Get("/profiles/{userId}/dogs", s.handleGetDogs)
				r.Put("/profiles/{userId}/dogs", s.handlePutDogs)
			})
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

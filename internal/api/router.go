package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/unique3900/devtul/internal/api/handlers"
	"github.com/unique3900/devtul/internal/api/middleware"
	"github.com/unique3900/devtul/internal/auth"
	"github.com/unique3900/devtul/internal/database/models"
	"github.com/unique3900/devtul/internal/events"
	"github.com/unique3900/devtul/internal/results"
	"gorm.io/gorm"
)

type Router struct {
	chi.Router
}

type RouterConfig struct {
	DB             *gorm.DB
	Redis          *redis.Client
	Logger         *slog.Logger
	JWTService     *auth.JWTService
	AuthService    *auth.Service
	AsynqClient    *asynq.Client
	EventHub       *events.Hub
	AllowedOrigins []string
	RateLimitReqs  int
	RateLimitSecs  int
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	if cfg.RateLimitReqs > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimitReqs, cfg.RateLimitSecs))
	}

	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		// Default to localhost for development - configure in production
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize services
	resultService := results.NewService(cfg.DB)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)
	authHandler := handlers.NewAuthHandler(cfg.AuthService)
	projectHandler := handlers.NewProjectHandler(cfg.DB)
	scanHandler := handlers.NewScanHandler(cfg.DB, cfg.AsynqClient)
	resultHandler := handlers.NewResultHandler(resultService)
	monitorHandler := handlers.NewMonitorHandler(cfg.DB, cfg.AsynqClient)
	dashboardHandler := handlers.NewDashboardHandler(cfg.DB)

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth endpoints
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTService))

			r.Get("/me", authHandler.Me)
			r.Get("/dashboard", dashboardHandler.Stats)

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", projectHandler.List)
				r.Post("/", projectHandler.Create)
				r.Get("/{id}", projectHandler.Get)
				r.Put("/{id}", projectHandler.Update)
				r.Delete("/{id}", projectHandler.Delete)
			})

			r.Route("/scans", func(r chi.Router) {
				r.Get("/", scanHandler.List)
				r.Post("/", scanHandler.Create)
				r.Get("/{id}", scanHandler.Get)
				r.Post("/{id}/cancel", scanHandler.Cancel)

				if cfg.EventHub != nil {
					r.Get("/{id}/events", func(w http.ResponseWriter, req *http.Request) {
						scanID, err := uuid.Parse(chi.URLParam(req, "id"))
						if err != nil {
							http.Error(w, "Invalid scan ID", http.StatusBadRequest)
							return
						}
						orgID := middleware.GetOrganizationID(req.Context())
						var count int64
						if err := cfg.DB.WithContext(req.Context()).
							Model(&models.Scan{}).
							Where("id = ? AND organization_id = ?", scanID, orgID).
							Count(&count).Error; err != nil || count == 0 {
							http.Error(w, "Scan not found", http.StatusNotFound)
							return
						}
						cfg.EventHub.ServeScan(w, req, scanID)
					})
				}
			})

			r.Route("/results", func(r chi.Router) {
				r.Get("/", resultHandler.List)
				r.Put("/{id}/resolve", resultHandler.Resolve)
			})

			r.Route("/monitors", func(r chi.Router) {
				r.Get("/", monitorHandler.List)
				r.Post("/", monitorHandler.Create)
				r.Get("/{id}", monitorHandler.Get)
				r.Put("/{id}", monitorHandler.Update)
				r.Delete("/{id}", monitorHandler.Delete)
				r.Post("/{id}/trigger", monitorHandler.Trigger)
			})
		})
	})

	return &Router{r}
}

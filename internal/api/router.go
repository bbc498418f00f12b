package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/hugh/stockroom/internal/api/handlers"
	"github.com/hugh/stockroom/internal/api/middleware"
	"github.com/hugh/stockroom/internal/auth"
	"github.com/hugh/stockroom/internal/database/models"
	"github.com/hugh/stockroom/internal/ledger"
	"github.com/hugh/stockroom/internal/policy"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Router struct {
	chi.Router
	limiters []*middleware.RateLimiter
}

type RouterConfig struct {
	DB             *gorm.DB
	Redis          *redis.Client
	Logger         *slog.Logger
	AuthService    *auth.Service
	Ledger         *ledger.Ledger
	Policy         *policy.Service
	AllowedOrigins []string // CORS allowed origins
	RateLimitReqs  int      // Rate limit requests per window
	RateLimitSecs  int      // Rate limit window in seconds
	LoginAttempts  int      // Login attempts per window and IP
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()
	router := &Router{Router: r}

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.Metrics)

	if cfg.RateLimitReqs > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimitReqs, cfg.RateLimitSecs)
		router.limiters = append(router.limiters, limiter)
		r.Use(middleware.RateLimit(limiter))
	}

	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)
	authHandler := handlers.NewAuthHandler(cfg.AuthService, cfg.Logger)
	companyHandler := handlers.NewCompanyHandler(cfg.AuthService, cfg.Logger)
	itemHandler := handlers.NewItemHandler(cfg.Ledger, cfg.Logger)
	activityHandler := handlers.NewActivityHandler(cfg.Ledger, cfg.Logger)
	userHandler := handlers.NewUserHandler(cfg.Policy, cfg.Logger)

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Group(func(r chi.Router) {
			if cfg.LoginAttempts > 0 {
				limiter := middleware.NewRateLimiter(cfg.LoginAttempts, cfg.RateLimitSecs)
				router.limiters = append(router.limiters, limiter)
				r.Use(middleware.RateLimitLogin(limiter))
			}
			r.Post("/auth/login", authHandler.Login)
			r.Post("/companies/register", authHandler.Register)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.AuthService))

			r.Get("/companies/info", companyHandler.Info)

			r.Route("/items", func(r chi.Router) {
				r.Get("/", itemHandler.List)
				r.Post("/", itemHandler.Create)
				r.Put("/", itemHandler.Update)
				r.Delete("/", itemHandler.Delete)
				r.Post("/adjust", itemHandler.Adjust)
				r.Get("/search", itemHandler.Search)
				r.Get("/{id}/history", itemHandler.History)
			})

			r.Get("/activities", activityHandler.List)

			r.Route("/users", func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleAdmin))
				r.Get("/", userHandler.List)
				r.Post("/invite", userHandler.Invite)
				r.Delete("/delete", userHandler.Delete)
			})
		})
	})

	return router
}

// Close stops the background work of the router's rate limiters.
func (r *Router) Close() {
	for _, l := range r.limiters {
		l.Stop()
	}
}

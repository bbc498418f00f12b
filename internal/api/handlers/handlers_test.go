package handlers_test

import (
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hugh/stockroom/internal/api/handlers"
	"github.com/hugh/stockroom/internal/api/middleware"
	"github.com/hugh/stockroom/internal/auth"
	"github.com/hugh/stockroom/internal/database/models"
	"github.com/hugh/stockroom/internal/ledger"
	"github.com/hugh/stockroom/internal/policy"
	"github.com/hugh/stockroom/internal/tasks"
	"github.com/hugh/stockroom/internal/testutil"
)

// setupTestRouter wires every handler the way the API router does, without
// rate limiting.
func setupTestRouter(t *testing.T, globalBarcodes bool) (*chi.Mux, *testutil.TestSetup) {
	tc := testutil.NewTestContextWithScope(t, globalBarcodes)
	logger := testutil.DiscardLogger()

	authService := auth.NewService(tc.DB, tc.JWTService, logger)
	l := ledger.New(tc.DB, ledger.Options{RecordZeroDelta: true}, logger)
	p := policy.NewService(tc.DB, authService, tasks.NewDispatcher(nil, logger), logger)

	authHandler := handlers.NewAuthHandler(authService, logger)
	companyHandler := handlers.NewCompanyHandler(authService, logger)
	itemHandler := handlers.NewItemHandler(l, logger)
	activityHandler := handlers.NewActivityHandler(l, logger)
	userHandler := handlers.NewUserHandler(p, logger)

	r := chi.NewRouter()
	r.Post("/api/auth/login", authHandler.Login)
	r.Post("/api/companies/register", authHandler.Register)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(authService))
		r.Get("/api/companies/info", companyHandler.Info)
		r.Get("/api/items", itemHandler.List)
		r.Post("/api/items", itemHandler.Create)
		r.Put("/api/items", itemHandler.Update)
		r.Delete("/api/items", itemHandler.Delete)
		r.Post("/api/items/adjust", itemHandler.Adjust)
		r.Get("/api/items/search", itemHandler.Search)
		r.Get("/api/items/{id}/history", itemHandler.History)
		r.Get("/api/activities", activityHandler.List)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(models.RoleAdmin))
			r.Get("/api/users", userHandler.List)
			r.Post("/api/users/invite", userHandler.Invite)
			r.Delete("/api/users/delete", userHandler.Delete)
		})
	})

	return r, tc
}

package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/taskforge/taskforge-api/internal/api"
	apiMiddleware "github.com/taskforge/taskforge-api/internal/api/middleware"
	"github.com/taskforge/taskforge-api/internal/redact"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.Trace(app.logger))

	authHandler := api.NewAuthHandler(app.authService, app.tokenService, app.logger)
	taskHandler := api.NewTaskHandler(app.taskService, app.logger)
	metricsHandler := api.NewMetricsHandler(app.metricsService, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.tokenService)

	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)
		r.Post("/auth/forgot-password", authHandler.ForgotPassword)
		r.Post("/auth/reset-password", authHandler.ResetPassword)
		r.Get("/auth/validate-token", authHandler.ValidateToken)

		// Logout reads the bearer token itself: it must stay reachable for
		// tokens the middleware would reject (expired, already revoked).
		r.Post("/auth/logout", authHandler.Logout)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Task endpoints
			r.Post("/tasks", taskHandler.CreateTask)
			r.Get("/tasks", taskHandler.ListTasks)
			r.Get("/tasks/{id}", taskHandler.GetTask)
			r.Put("/tasks/{id}", taskHandler.UpdateTask)
			r.Patch("/tasks/{id}/status", taskHandler.UpdateTaskStatus)
			r.Delete("/tasks/{id}", taskHandler.DeleteTask)

			// Aggregate metrics
			r.Get("/metrics", metricsHandler.GetMetrics)
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", redact.Error(err))
		}
	})

	return r
}

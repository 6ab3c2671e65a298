package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/tasker-api/internal/api"
	apiMiddleware "github.com/phrazzld/tasker-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))
	r.Use(apiMiddleware.NewMetricsMiddleware(app.metrics))

	cookie := api.CookieConfig{
		Secure: app.config.Server.IsProduction(),
		MaxAge: app.config.Auth.TokenLifetime(),
	}

	api.MountRoutes(r, api.Handlers{
		Auth:         api.NewAuthHandler(app.userService, cookie, app.logger),
		Tasks:        api.NewTaskHandler(app.taskService, app.statsService, app.logger),
		Users:        api.NewUserHandler(app.userService, app.logger),
		Scheduler:    api.NewSchedulerHandler(app.sweeper, app.logger),
		Authenticate: apiMiddleware.NewAuthMiddleware(app.jwtService, app.logger).Authenticate,
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})
	r.Method(http.MethodGet, "/metrics", app.metrics.Handler())

	return r
}

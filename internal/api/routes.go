package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handlers groups the HTTP handlers mounted by MountRoutes.
type Handlers struct {
	Auth      *AuthHandler
	Tasks     *TaskHandler
	Users     *UserHandler
	Scheduler *SchedulerHandler

	// Authenticate guards every task and profile route.
	Authenticate func(http.Handler) http.Handler
}

// MountRoutes registers the JSON API on r. Routes live at the root; there is
// no /api prefix.
func MountRoutes(r chi.Router, h Handlers) {
	// Authentication endpoints (public)
	r.Post("/auth/register", h.Auth.Register)
	r.Post("/auth/login", h.Auth.Login)
	r.Post("/auth/logout", h.Auth.Logout)

	// Manual sweep trigger for external schedulers
	r.Post("/scheduler", h.Scheduler.RunSweep)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(h.Authenticate)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", h.Tasks.ListTasks)
			r.Post("/", h.Tasks.CreateTask)
			r.Put("/", h.Tasks.UpdateTask)
			r.Delete("/", h.Tasks.DeleteTask)
			r.Get("/stats", h.Tasks.GetStats)
			r.Get("/{id}", h.Tasks.GetTask)
			r.Put("/{id}", h.Tasks.UpdateTask)
		})

		r.Route("/user", func(r chi.Router) {
			r.Get("/profile", h.Users.GetProfile)
			r.Put("/profile", h.Users.UpdateProfile)
			r.Post("/change-password", h.Users.ChangePassword)
		})
	})
}

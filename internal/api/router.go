package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/seamless-agent/console/internal/tools"
)

// NewRouter creates the Chi router with all routes and middleware. Only
// /health is reachable without the session token.
func NewRouter(svc *tools.Service, port int, token string, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recovery(logger))

	h := NewHandler(svc, port)

	r.Get("/health", h.Health)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(token))

		r.Post("/ask_user", h.AskUser)
		r.Post("/plan_review", h.PlanReview)

		r.Route("/tasks", func(r chi.Router) {
			r.Post("/create", h.CreateTaskList)
			r.Post("/next", h.GetNextTask)
			r.Post("/update", h.UpdateTaskStatus)
			r.Post("/close", h.CloseTaskList)
		})
	})

	return r
}

package http

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/health", h.Health)

	r.Route("/executor", func(r chi.Router) {
		r.Post("/executeByToolNameAsync", h.ExecuteByToolNameAsync)
		r.Get("/details/{planId}", h.GetDetails)
		r.Post("/stopTask/{planId}", h.StopTask)
		r.Get("/taskStatus/{planId}", h.TaskStatus)
		r.Get("/stream/{planId}", h.StreamPlan)
		r.Get("/tools", h.ListTools)
	})

	r.Route("/templates", func(r chi.Router) {
		r.Post("/", h.PublishTemplate)
		r.Get("/", h.ListTemplates)
		r.Get("/{toolName}", h.GetTemplate)
	})
}

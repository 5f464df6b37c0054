package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all performance routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/performance", func(r chi.Router) {
		r.Post("/summary", h.HandlePostSummary)
		r.Post("/drawdown", h.HandlePostDrawdown)
	})
}

package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all volatility routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/volatility", func(r chi.Router) {
		r.Post("/{model}", h.HandlePostForecast)
	})
}

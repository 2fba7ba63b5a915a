package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all factsheet routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/factsheet", func(r chi.Router) {
		r.Post("/refresh", h.HandleRefreshAll)
		r.Post("/portfolio", h.HandlePortfolio)
		r.Get("/{symbol}", h.HandleGetLatest)
		r.Get("/{symbol}/nav", h.HandleNAV)
		r.Post("/{symbol}/refresh", h.HandleRefresh)
		r.Get("/{symbol}/history", h.HandleHistory)
	})
}

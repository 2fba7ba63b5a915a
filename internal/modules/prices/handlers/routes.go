package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all price history routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/prices", func(r chi.Router) {
		r.Get("/", h.HandleListSymbols)
		r.Get("/{symbol}", h.HandleGetPrices)
		r.Post("/{symbol}", h.HandleStorePrices)
	})
	r.Route("/rates", func(r chi.Router) {
		r.Get("/{name}", h.HandleGetRates)
		r.Post("/{name}", h.HandleStoreRates)
	})
}

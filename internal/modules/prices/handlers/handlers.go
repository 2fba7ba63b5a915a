// Package handlers provides HTTP handlers for price history operations.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/sharavsambuu/quantstats/internal/modules/prices"
)

// Handler handles price history HTTP requests
type Handler struct {
	repo *prices.Repository
	log  zerolog.Logger
}

// NewHandler creates a new prices handler
func NewHandler(repo *prices.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "prices").Logger(),
	}
}

// HandleListSymbols handles GET /api/prices
func (h *Handler) HandleListSymbols(w http.ResponseWriter, r *http.Request) {
	symbols, err := h.repo.Symbols()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list symbols")
		h.writeError(w, http.StatusInternalServerError, "failed to list symbols")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbols": symbols,
		"count":   len(symbols),
	})
}

// HandleGetPrices handles GET /api/prices/{symbol}
func (h *Handler) HandleGetPrices(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	series, err := h.repo.GetDailyCloses(symbol)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to get prices")
		h.writeError(w, http.StatusInternalServerError, "failed to get prices")
		return
	}

	if series.IsEmpty() {
		h.writeError(w, http.StatusNotFound, "no price history for symbol")
		return
	}

	points := make([]prices.DailyPrice, series.Len())
	for i := range series.Dates {
		points[i] = prices.DailyPrice{
			Date:  series.Dates[i].Format("2006-01-02"),
			Close: series.Values[i],
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"prices": points,
	})
}

// HandleStorePrices handles POST /api/prices/{symbol}
func (h *Handler) HandleStorePrices(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	var body struct {
		Prices []prices.DailyPrice `json:"prices"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(body.Prices) == 0 {
		h.writeError(w, http.StatusBadRequest, "prices are required")
		return
	}

	if err := h.repo.UpsertDailyPrices(symbol, body.Prices); err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to store prices")
		h.writeError(w, http.StatusInternalServerError, "failed to store prices")
		return
	}

	h.log.Info().Str("symbol", symbol).Int("count", len(body.Prices)).Msg("Stored daily prices")
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"stored": len(body.Prices),
	})
}

// HandleGetRates handles GET /api/rates/{name}
func (h *Handler) HandleGetRates(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	series, err := h.repo.GetFundingRates(name)
	if err != nil {
		h.log.Error().Err(err).Str("name", name).Msg("Failed to get funding rates")
		h.writeError(w, http.StatusInternalServerError, "failed to get funding rates")
		return
	}

	if series.IsEmpty() {
		h.writeError(w, http.StatusNotFound, "no rates for curve")
		return
	}

	points := make([]prices.FundingRate, series.Len())
	for i := range series.Dates {
		points[i] = prices.FundingRate{
			Date: series.Dates[i].Format("2006-01-02"),
			Rate: series.Values[i],
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":  name,
		"rates": points,
	})
}

// HandleStoreRates handles POST /api/rates/{name}
func (h *Handler) HandleStoreRates(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var body struct {
		Rates []prices.FundingRate `json:"rates"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(body.Rates) == 0 {
		h.writeError(w, http.StatusBadRequest, "rates are required")
		return
	}

	if err := h.repo.UpsertFundingRates(name, body.Rates); err != nil {
		h.log.Error().Err(err).Str("name", name).Msg("Failed to store funding rates")
		h.writeError(w, http.StatusInternalServerError, "failed to store funding rates")
		return
	}

	h.log.Info().Str("name", name).Int("count", len(body.Rates)).Msg("Stored funding rates")
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":   name,
		"stored": len(body.Rates),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

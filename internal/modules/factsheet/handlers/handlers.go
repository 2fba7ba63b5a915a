// Package handlers provides HTTP handlers for factsheet operations.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/sharavsambuu/quantstats/internal/modules/factsheet"
)

// Handler handles factsheet HTTP requests
type Handler struct {
	service   *factsheet.Service
	snapshots *factsheet.SnapshotRepository
	log       zerolog.Logger
}

// NewHandler creates a new factsheet handler
func NewHandler(service *factsheet.Service, snapshots *factsheet.SnapshotRepository, log zerolog.Logger) *Handler {
	return &Handler{
		service:   service,
		snapshots: snapshots,
		log:       log.With().Str("handler", "factsheet").Logger(),
	}
}

// HandleGetLatest handles GET /api/factsheet/{symbol}
func (h *Handler) HandleGetLatest(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	snapshot, err := h.service.LatestSnapshot(symbol)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to get snapshot")
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, snapshot)
}

// HandleNAV handles GET /api/factsheet/{symbol}/nav
func (h *Handler) HandleNAV(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	track, err := h.service.NAVTrack(symbol)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to build NAV track")
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, track)
}

// HandleRefresh handles POST /api/factsheet/{symbol}/refresh
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	snapshot, err := h.service.BuildSnapshot(symbol)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to build snapshot")
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, snapshot)
}

// HandleRefreshAll handles POST /api/factsheet/refresh
func (h *Handler) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	built, err := h.service.RefreshAll()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to refresh snapshots")
		h.writeError(w, http.StatusInternalServerError, "failed to refresh snapshots")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"built": built})
}

// HandleHistory handles GET /api/factsheet/{symbol}/history?limit=N
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	snapshots, err := h.snapshots.List(symbol, limit)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to list snapshots")
		h.writeError(w, http.StatusInternalServerError, "failed to list snapshots")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":    symbol,
		"snapshots": snapshots,
	})
}

// HandlePortfolio handles POST /api/factsheet/portfolio
func (h *Handler) HandlePortfolio(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name    string    `json:"name"`
		Symbols []string  `json:"symbols"`
		Weights []float64 `json:"weights"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Name == "" {
		body.Name = "portfolio"
	}

	summary, err := h.service.PortfolioFactsheet(body.Name, body.Symbols, body.Weights)
	if err != nil {
		h.log.Error().Err(err).Str("name", body.Name).Msg("Failed to compute portfolio factsheet")
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, summary)
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

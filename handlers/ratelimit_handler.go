package handlers

import (
	"net/http"

	"offerhub-backend/services"
	"offerhub-backend/utils"
)

// RateLimitHandler expose les statistiques du rate limiter
type RateLimitHandler struct {
	stats RateLimitReporter
}

// NewRateLimitHandler crée une nouvelle instance de RateLimitHandler
func NewRateLimitHandler(stats RateLimitReporter) *RateLimitHandler {
	return &RateLimitHandler{stats: stats}
}

// Stats agrège les décisions par client sur ?window= (1m..24h, 15m par défaut)
func (h *RateLimitHandler) Stats(w http.ResponseWriter, r *http.Request) {
	window, err := services.ParseStatsWindow(r.URL.Query().Get("window"))
	if err != nil {
		respondError(w, r, err, "")
		return
	}

	report, err := h.stats.Aggregate(r.Context(), window)
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	utils.RespondSuccess(w, "", report)
}

package handlers

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"offerhub-backend/utils"
)

var startTime = time.Now()

// HealthCheck vérifie une dépendance (MongoDB, Redis...)
type HealthCheck func(ctx context.Context) error

// HealthHandler gère les endpoints de santé
type HealthHandler struct {
	environment string
	checks      map[string]HealthCheck
}

// NewHealthHandler crée un nouveau HealthHandler
func NewHealthHandler(environment string, checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{environment: environment, checks: checks}
}

// Health retourne l'état de santé du serveur avec métriques
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "ok"
	dependencies := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			dependencies[name] = "error"
			status = "degraded"
			continue
		}
		dependencies[name] = "ok"
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status":       status,
		"env":          h.environment,
		"dependencies": dependencies,
		"uptime":       time.Since(startTime).Round(time.Second).String(),
		"go_version":   runtime.Version(),
	})
}

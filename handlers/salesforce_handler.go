package handlers

import (
	"errors"
	"log"
	"net/http"

	"offerhub-backend/constants"
	"offerhub-backend/database"
	"offerhub-backend/models"
	"offerhub-backend/utils"
)

// SalesforceHandler expose le pilotage de la synchronisation
type SalesforceHandler struct {
	sync SyncController
}

// NewSalesforceHandler crée une nouvelle instance de SalesforceHandler
func NewSalesforceHandler(sync SyncController) *SalesforceHandler {
	return &SalesforceHandler{sync: sync}
}

// Status retourne l'état du verrou et la dernière exécution
func (h *SalesforceHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.sync.Status(r.Context())
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	utils.RespondSuccess(w, "", status)
}

// Runs liste l'historique des exécutions
func (h *SalesforceHandler) Runs(w http.ResponseWriter, r *http.Request) {
	q := utils.ParseListQuery(r.URL.Query(), database.SyncRunSorts, "-started_at")
	runs, total, err := h.sync.Runs(r.Context(), q)
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	respondPage(w, runs, q, total)
}

// Start lance une synchronisation en arrière-plan (202)
func (h *SalesforceHandler) Start(w http.ResponseWriter, r *http.Request) {
	claims, _, ok := currentUser(w, r)
	if !ok {
		return
	}

	run, err := h.sync.Start(r.Context(), models.SyncTriggerManual, claims.Email)
	if err != nil {
		message := ""
		if errors.Is(err, models.ErrSyncDisabled) {
			message = constants.ErrSalesforceDisabled
		}
		respondError(w, r, err, message)
		return
	}

	log.Printf("🔄 Synchronisation Salesforce lancée par %s (run %s)", claims.Email, run.ID.Hex())
	utils.RespondAccepted(w, "Synchronisation lancée", run)
}

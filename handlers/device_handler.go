package handlers

import (
	"log"
	"net/http"
	"time"

	"offerhub-backend/constants"
	"offerhub-backend/models"
	"offerhub-backend/utils"

	"github.com/gorilla/mux"
)

// DeviceHandler enregistre les tokens FCM des utilisateurs
type DeviceHandler struct {
	devices DeviceStore
}

// NewDeviceHandler crée une nouvelle instance de DeviceHandler
func NewDeviceHandler(devices DeviceStore) *DeviceHandler {
	return &DeviceHandler{devices: devices}
}

// Register enregistre (ou rattache) un token à l'utilisateur connecté
func (h *DeviceHandler) Register(w http.ResponseWriter, r *http.Request) {
	claims, userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req models.DeviceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, r, err, "")
		return
	}

	now := time.Now().UTC()
	device := &models.DeviceToken{
		UserID:    userID,
		Role:      claims.Role,
		Token:     req.Token,
		Platform:  req.Platform,
		UserAgent: r.UserAgent(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.devices.Upsert(r.Context(), device); err != nil {
		respondError(w, r, err, "")
		return
	}

	log.Printf("📱 Appareil %s enregistré pour %s", req.Platform, claims.Email)
	utils.RespondSuccess(w, "Appareil enregistré", device)
}

// Delete retire un token de l'utilisateur connecté
func (h *DeviceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.devices.Delete(r.Context(), userID, mux.Vars(r)["token"]); err != nil {
		respondError(w, r, err, constants.ErrDeviceNotFound)
		return
	}
	utils.RespondSuccess(w, "Appareil supprimé", nil)
}

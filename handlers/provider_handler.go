package handlers

import (
	"log"
	"net/http"

	"offerhub-backend/constants"
	"offerhub-backend/database"
	"offerhub-backend/models"
	"offerhub-backend/utils"
)

// ProviderHandler gère le CRUD des prestataires
type ProviderHandler struct {
	providers ProviderStore
	offers    OfferStore
}

// NewProviderHandler crée une nouvelle instance de ProviderHandler
func NewProviderHandler(providers ProviderStore, offers OfferStore) *ProviderHandler {
	return &ProviderHandler{providers: providers, offers: offers}
}

// List liste les prestataires (filtres status, category, search)
func (h *ProviderHandler) List(w http.ResponseWriter, r *http.Request) {
	q := utils.ParseListQuery(r.URL.Query(), database.ProviderSorts, "name")
	providers, total, err := h.providers.List(r.Context(), q)
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	respondPage(w, providers, q, total)
}

// Get retourne un prestataire
func (h *ProviderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseObjectIDVar(w, r, "id", constants.ErrInvalidProviderID)
	if !ok {
		return
	}
	provider, err := h.providers.FindByID(r.Context(), id)
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	if provider == nil {
		utils.RespondError(w, http.StatusNotFound, constants.ErrProviderNotFound)
		return
	}
	utils.RespondSuccess(w, "", provider)
}

// Create crée un prestataire
func (h *ProviderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.ProviderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	provider := &models.Provider{}
	if err := req.ApplyTo(provider); err != nil {
		respondError(w, r, err, "")
		return
	}
	if err := h.providers.Create(r.Context(), provider); err != nil {
		respondError(w, r, err, "")
		return
	}

	log.Printf("✓ Prestataire créé: %s (%s)", provider.Name, provider.ID.Hex())
	utils.RespondCreated(w, "Prestataire créé", provider)
}

// Update met à jour un prestataire (champs absents inchangés)
func (h *ProviderHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseObjectIDVar(w, r, "id", constants.ErrInvalidProviderID)
	if !ok {
		return
	}
	var req models.ProviderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	provider, err := h.providers.FindByID(r.Context(), id)
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	if provider == nil {
		utils.RespondError(w, http.StatusNotFound, constants.ErrProviderNotFound)
		return
	}

	if err := req.ApplyTo(provider); err != nil {
		respondError(w, r, err, "")
		return
	}
	if err := h.providers.Update(r.Context(), provider); err != nil {
		respondError(w, r, err, constants.ErrProviderNotFound)
		return
	}
	utils.RespondSuccess(w, "Prestataire mis à jour", provider)
}

// Delete supprime un prestataire sans offre
func (h *ProviderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseObjectIDVar(w, r, "id", constants.ErrInvalidProviderID)
	if !ok {
		return
	}

	n, err := h.offers.CountByProvider(r.Context(), id)
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	if n > 0 {
		utils.RespondError(w, http.StatusConflict, constants.ErrProviderInUse)
		return
	}

	if err := h.providers.Delete(r.Context(), id); err != nil {
		respondError(w, r, err, constants.ErrProviderNotFound)
		return
	}
	log.Printf("🗑️  Prestataire supprimé: %s", id.Hex())
	utils.RespondSuccess(w, "Prestataire supprimé", nil)
}

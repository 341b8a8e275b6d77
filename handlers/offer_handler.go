package handlers

import (
	"log"
	"net/http"
	"time"

	"offerhub-backend/cache"
	"offerhub-backend/constants"
	"offerhub-backend/database"
	"offerhub-backend/models"
	"offerhub-backend/utils"
)

// OfferHandler gère les offres, leur utilisation et leurs statistiques
type OfferHandler struct {
	offers    OfferStore
	providers ProviderStore
	cache     Cache
	notifier  EventNotifier
	now       func() time.Time
}

// NewOfferHandler crée une nouvelle instance de OfferHandler
func NewOfferHandler(offers OfferStore, providers ProviderStore, c Cache, notifier EventNotifier) *OfferHandler {
	return &OfferHandler{offers: offers, providers: providers, cache: c, notifier: notifier, now: time.Now}
}

// List liste les offres (filtres provider, status, active=true, search)
func (h *OfferHandler) List(w http.ResponseWriter, r *http.Request) {
	q := utils.ParseListQuery(r.URL.Query(), database.OfferSorts, "-created_at")
	offers, total, err := h.offers.List(r.Context(), q, h.now().UTC())
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	respondPage(w, offers, q, total)
}

// Get retourne une offre avec son prestataire
func (h *OfferHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseObjectIDVar(w, r, "id", constants.ErrInvalidOfferID)
	if !ok {
		return
	}
	offer, err := h.offers.FindWithProvider(r.Context(), id)
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	if offer == nil {
		utils.RespondError(w, http.StatusNotFound, constants.ErrOfferNotFound)
		return
	}
	utils.RespondSuccess(w, "", offer)
}

// checkProvider vérifie que le prestataire référencé existe
func (h *OfferHandler) checkProvider(w http.ResponseWriter, r *http.Request, offer *models.Offer) bool {
	provider, err := h.providers.FindByID(r.Context(), offer.ProviderID)
	if err != nil {
		respondError(w, r, err, "")
		return false
	}
	if provider == nil {
		respondError(w, r, models.ErrInvalidReference, constants.ErrProviderNotFound)
		return false
	}
	return true
}

// Create crée une offre pour un prestataire existant
func (h *OfferHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.OfferRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	offer := &models.Offer{}
	if err := req.ApplyTo(offer); err != nil {
		respondError(w, r, err, "")
		return
	}
	if !h.checkProvider(w, r, offer) {
		return
	}

	if err := h.offers.Create(r.Context(), offer); err != nil {
		respondError(w, r, err, constants.ErrOfferCodeTaken)
		return
	}
	invalidate(r.Context(), h.cache, cache.KeyOfferStats)

	log.Printf("✓ Offre créée: %s (%s)", offer.Title, offer.ID.Hex())
	utils.RespondCreated(w, "Offre créée", offer)
}

// Update met à jour une offre; uses_count n'est jamais modifiable
func (h *OfferHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseObjectIDVar(w, r, "id", constants.ErrInvalidOfferID)
	if !ok {
		return
	}
	var req models.OfferRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	offer, err := h.offers.FindByID(r.Context(), id)
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	if offer == nil {
		utils.RespondError(w, http.StatusNotFound, constants.ErrOfferNotFound)
		return
	}

	previousProvider := offer.ProviderID
	if err := req.ApplyTo(offer); err != nil {
		respondError(w, r, err, "")
		return
	}
	if offer.ProviderID != previousProvider && !h.checkProvider(w, r, offer) {
		return
	}

	if err := h.offers.Update(r.Context(), offer); err != nil {
		respondError(w, r, err, constants.ErrOfferCodeTaken)
		return
	}
	invalidate(r.Context(), h.cache, cache.KeyOfferStats)
	utils.RespondSuccess(w, "Offre mise à jour", offer)
}

// Delete supprime une offre
func (h *OfferHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseObjectIDVar(w, r, "id", constants.ErrInvalidOfferID)
	if !ok {
		return
	}
	if err := h.offers.Delete(r.Context(), id); err != nil {
		respondError(w, r, err, constants.ErrOfferNotFound)
		return
	}
	invalidate(r.Context(), h.cache, cache.KeyOfferStats)
	log.Printf("🗑️  Offre supprimée: %s", id.Hex())
	utils.RespondSuccess(w, "Offre supprimée", nil)
}

// Use consomme une utilisation de l'offre de façon atomique
func (h *OfferHandler) Use(w http.ResponseWriter, r *http.Request) {
	claims, userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := ParseObjectIDVar(w, r, "id", constants.ErrInvalidOfferID)
	if !ok {
		return
	}

	offer, err := h.offers.Use(r.Context(), id, userID, h.now().UTC())
	if err != nil {
		message := ""
		if statusFor(err) == http.StatusNotFound {
			message = constants.ErrOfferNotFound
		}
		respondError(w, r, err, message)
		return
	}

	invalidate(r.Context(), h.cache, cache.KeyOfferStats)
	if h.notifier != nil {
		h.notifier.OfferUsed(offer, claims.UserID)
	}

	log.Printf("🎟️  Offre %s utilisée par %s (%d/%d)", offer.ID.Hex(), claims.Email, offer.UsesCount, offer.MaxUses)
	utils.RespondSuccess(w, "Offre utilisée", offer)
}

// Stats retourne les statistiques des offres (cache Redis)
func (h *OfferHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := cached(r.Context(), h.cache, cache.KeyOfferStats, func() (*models.OfferStats, error) {
		return h.offers.Stats(r.Context())
	})
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	utils.RespondSuccess(w, "", stats)
}

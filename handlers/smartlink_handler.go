package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"offerhub-backend/cache"
	"offerhub-backend/constants"
	"offerhub-backend/database"
	"offerhub-backend/models"
	"offerhub-backend/utils"

	"github.com/gorilla/mux"
)

// SmartLinkHandler gère les smartlinks (admin et pages publiques)
type SmartLinkHandler struct {
	links    SmartLinkStore
	artists  ArtistStore
	cache    Cache
	notifier EventNotifier
}

// NewSmartLinkHandler crée une nouvelle instance de SmartLinkHandler
func NewSmartLinkHandler(links SmartLinkStore, artists ArtistStore, c Cache, notifier EventNotifier) *SmartLinkHandler {
	return &SmartLinkHandler{links: links, artists: artists, cache: c, notifier: notifier}
}

// List liste les smartlinks avec leur artiste
func (h *SmartLinkHandler) List(w http.ResponseWriter, r *http.Request) {
	q := utils.ParseListQuery(r.URL.Query(), database.SmartLinkSorts, "-created_at")
	links, total, err := h.links.List(r.Context(), q)
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	respondPage(w, links, q, total)
}

// Get retourne un smartlink avec son artiste
func (h *SmartLinkHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseObjectIDVar(w, r, "id", constants.ErrInvalidSmartLinkID)
	if !ok {
		return
	}
	link, err := h.links.FindWithArtist(r.Context(), id)
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	if link == nil {
		utils.RespondError(w, http.StatusNotFound, constants.ErrSmartLinkNotFound)
		return
	}
	utils.RespondSuccess(w, "", link)
}

func (h *SmartLinkHandler) checkArtist(w http.ResponseWriter, r *http.Request, link *models.SmartLink) bool {
	artist, err := h.artists.FindByID(r.Context(), link.ArtistID)
	if err != nil {
		respondError(w, r, err, "")
		return false
	}
	if artist == nil {
		respondError(w, r, models.ErrInvalidReference, constants.ErrArtistNotFound)
		return false
	}
	return true
}

// Create crée un smartlink
func (h *SmartLinkHandler) Create(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req models.SmartLinkRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	link := &models.SmartLink{CreatedBy: userID}
	if err := req.ApplyTo(link); err != nil {
		respondError(w, r, err, "")
		return
	}
	if !h.checkArtist(w, r, link) {
		return
	}
	if err := h.links.Create(r.Context(), link); err != nil {
		respondError(w, r, err, constants.ErrSlugTaken)
		return
	}

	invalidate(r.Context(), h.cache, cache.KeySmartLinkStats)
	if link.IsPublished() && h.notifier != nil {
		h.notifier.SmartLinkPublished(link)
	}

	log.Printf("✓ Smartlink créé: %s (%s)", link.Title, link.Slug)
	utils.RespondCreated(w, "Smartlink créé", link)
}

// Update met à jour un smartlink; le passage en published est diffusé
func (h *SmartLinkHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseObjectIDVar(w, r, "id", constants.ErrInvalidSmartLinkID)
	if !ok {
		return
	}
	var req models.SmartLinkRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	link, err := h.links.FindByID(r.Context(), id)
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	if link == nil {
		utils.RespondError(w, http.StatusNotFound, constants.ErrSmartLinkNotFound)
		return
	}

	wasPublished := link.IsPublished()
	previousSlug := link.Slug
	previousArtist := link.ArtistID

	if err := req.ApplyTo(link); err != nil {
		respondError(w, r, err, "")
		return
	}
	if link.ArtistID != previousArtist && !h.checkArtist(w, r, link) {
		return
	}
	if err := h.links.Update(r.Context(), link); err != nil {
		respondError(w, r, err, constants.ErrSlugTaken)
		return
	}

	invalidate(r.Context(), h.cache, cache.SmartLinkKey(previousSlug), cache.SmartLinkKey(link.Slug), cache.KeySmartLinkStats)
	if !wasPublished && link.IsPublished() && h.notifier != nil {
		h.notifier.SmartLinkPublished(link)
	}
	utils.RespondSuccess(w, "Smartlink mis à jour", link)
}

// Delete supprime un smartlink
func (h *SmartLinkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseObjectIDVar(w, r, "id", constants.ErrInvalidSmartLinkID)
	if !ok {
		return
	}

	link, err := h.links.FindByID(r.Context(), id)
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	if link == nil {
		utils.RespondError(w, http.StatusNotFound, constants.ErrSmartLinkNotFound)
		return
	}
	if err := h.links.Delete(r.Context(), id); err != nil {
		respondError(w, r, err, constants.ErrSmartLinkNotFound)
		return
	}

	invalidate(r.Context(), h.cache, cache.SmartLinkKey(link.Slug), cache.KeySmartLinkStats)
	log.Printf("🗑️  Smartlink supprimé: %s", link.Slug)
	utils.RespondSuccess(w, "Smartlink supprimé", nil)
}

// PublicGet retourne la page publique d'un smartlink publié (cache Redis)
func (h *SmartLinkHandler) PublicGet(w http.ResponseWriter, r *http.Request) {
	slug := strings.ToLower(mux.Vars(r)["slug"])
	link, err := cached(r.Context(), h.cache, cache.SmartLinkKey(slug), func() (*models.SmartLinkWithArtist, error) {
		return h.links.FindPublishedBySlug(r.Context(), slug)
	})
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	if link == nil {
		utils.RespondError(w, http.StatusNotFound, constants.ErrSmartLinkNotFound)
		return
	}
	utils.RespondSuccess(w, "", link)
}

// Click compte un clic vers une plateforme et retourne l'URL cible
func (h *SmartLinkHandler) Click(w http.ResponseWriter, r *http.Request) {
	slug := strings.ToLower(mux.Vars(r)["slug"])
	var req models.SmartLinkClick
	if !decodeJSON(w, r, &req) {
		return
	}
	platform := strings.ToLower(strings.TrimSpace(req.Platform))
	if platform == "" {
		utils.RespondValidation(w, utils.ValidationErrors{{Field: "platform", Message: "la plateforme est requise"}})
		return
	}

	link, err := h.links.RecordClick(r.Context(), slug, platform)
	if err != nil {
		message := ""
		if errors.Is(err, models.ErrNotFound) {
			message = constants.ErrSmartLinkNotFound
		}
		respondError(w, r, err, message)
		return
	}

	url, _ := link.PlatformURL(platform)
	utils.RespondSuccess(w, "", map[string]interface{}{
		"url":      url,
		"platform": platform,
		"clicks":   link.Clicks,
	})
}

// Stats retourne les statistiques des smartlinks (cache Redis)
func (h *SmartLinkHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := cached(r.Context(), h.cache, cache.KeySmartLinkStats, func() (*models.SmartLinkStats, error) {
		return h.links.Stats(r.Context())
	})
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	utils.RespondSuccess(w, "", stats)
}

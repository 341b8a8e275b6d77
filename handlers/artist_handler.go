package handlers

import (
	"log"
	"net/http"

	"offerhub-backend/constants"
	"offerhub-backend/database"
	"offerhub-backend/models"
	"offerhub-backend/utils"
)

// ArtistHandler gère le CRUD des artistes
type ArtistHandler struct {
	artists    ArtistStore
	smartlinks SmartLinkStore
}

// NewArtistHandler crée une nouvelle instance de ArtistHandler
func NewArtistHandler(artists ArtistStore, smartlinks SmartLinkStore) *ArtistHandler {
	return &ArtistHandler{artists: artists, smartlinks: smartlinks}
}

// List liste les artistes
func (h *ArtistHandler) List(w http.ResponseWriter, r *http.Request) {
	q := utils.ParseListQuery(r.URL.Query(), database.ArtistSorts, "name")
	artists, total, err := h.artists.List(r.Context(), q)
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	respondPage(w, artists, q, total)
}

// Get retourne un artiste
func (h *ArtistHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseObjectIDVar(w, r, "id", constants.ErrInvalidArtistID)
	if !ok {
		return
	}
	artist, err := h.artists.FindByID(r.Context(), id)
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	if artist == nil {
		utils.RespondError(w, http.StatusNotFound, constants.ErrArtistNotFound)
		return
	}
	utils.RespondSuccess(w, "", artist)
}

// Create crée un artiste; le slug est dérivé du nom s'il est absent
func (h *ArtistHandler) Create(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req models.ArtistRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	artist := &models.Artist{CreatedBy: userID}
	if err := req.ApplyTo(artist); err != nil {
		respondError(w, r, err, "")
		return
	}
	if err := h.artists.Create(r.Context(), artist); err != nil {
		respondError(w, r, err, constants.ErrSlugTaken)
		return
	}

	log.Printf("✓ Artiste créé: %s (%s)", artist.Name, artist.Slug)
	utils.RespondCreated(w, "Artiste créé", artist)
}

// Update met à jour un artiste
func (h *ArtistHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseObjectIDVar(w, r, "id", constants.ErrInvalidArtistID)
	if !ok {
		return
	}
	var req models.ArtistRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	artist, err := h.artists.FindByID(r.Context(), id)
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	if artist == nil {
		utils.RespondError(w, http.StatusNotFound, constants.ErrArtistNotFound)
		return
	}
	if err := req.ApplyTo(artist); err != nil {
		respondError(w, r, err, "")
		return
	}
	if err := h.artists.Update(r.Context(), artist); err != nil {
		respondError(w, r, err, constants.ErrSlugTaken)
		return
	}
	utils.RespondSuccess(w, "Artiste mis à jour", artist)
}

// Delete supprime un artiste qui n'a plus de smartlink
func (h *ArtistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseObjectIDVar(w, r, "id", constants.ErrInvalidArtistID)
	if !ok {
		return
	}

	n, err := h.smartlinks.CountByArtist(r.Context(), id)
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	if n > 0 {
		utils.RespondError(w, http.StatusConflict, constants.ErrArtistInUse)
		return
	}

	if err := h.artists.Delete(r.Context(), id); err != nil {
		respondError(w, r, err, constants.ErrArtistNotFound)
		return
	}
	log.Printf("🗑️  Artiste supprimé: %s", id.Hex())
	utils.RespondSuccess(w, "Artiste supprimé", nil)
}

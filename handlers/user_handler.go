package handlers

import (
	"log"
	"net/http"

	"offerhub-backend/constants"
	"offerhub-backend/database"
	"offerhub-backend/models"
	"offerhub-backend/utils"
)

// UserHandler gère l'administration des comptes
type UserHandler struct {
	users UserStore
}

// NewUserHandler crée une nouvelle instance de UserHandler
func NewUserHandler(users UserStore) *UserHandler {
	return &UserHandler{users: users}
}

// List liste les utilisateurs (filtres role, active, search)
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	q := utils.ParseListQuery(r.URL.Query(), database.UserSorts, "-created_at")
	users, total, err := h.users.List(r.Context(), q)
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	respondPage(w, users, q, total)
}

// Update modifie le nom, le rôle ou le statut d'un utilisateur
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseObjectIDVar(w, r, "id", constants.ErrInvalidUserID)
	if !ok {
		return
	}

	var req models.UpdateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.FindByID(r.Context(), id)
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	if user == nil {
		utils.RespondError(w, http.StatusNotFound, constants.ErrUserNotFound)
		return
	}

	if err := req.ApplyTo(user); err != nil {
		respondError(w, r, err, "")
		return
	}
	if err := h.users.Update(r.Context(), user); err != nil {
		respondError(w, r, err, constants.ErrUserNotFound)
		return
	}

	log.Printf("✓ Utilisateur %s mis à jour (rôle %s, actif %v)", user.Email, user.Role, user.Active)
	utils.RespondSuccess(w, "Utilisateur mis à jour", user)
}

// Delete supprime un utilisateur; un admin ne peut pas se supprimer lui-même
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, currentID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := ParseObjectIDVar(w, r, "id", constants.ErrInvalidUserID)
	if !ok {
		return
	}
	if id == currentID {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrSelfDelete)
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		respondError(w, r, err, constants.ErrUserNotFound)
		return
	}

	log.Printf("🗑️  Utilisateur %s supprimé par %s", id.Hex(), claims.Email)
	utils.RespondSuccess(w, "Utilisateur supprimé", nil)
}

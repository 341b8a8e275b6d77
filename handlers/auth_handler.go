package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"offerhub-backend/constants"
	"offerhub-backend/models"
	"offerhub-backend/utils"
)

// AuthHandler gère les requêtes d'authentification
type AuthHandler struct {
	users     UserStore
	jwtSecret string
	tokenTTL  time.Duration
}

// NewAuthHandler crée une nouvelle instance de AuthHandler
func NewAuthHandler(users UserStore, jwtSecret string, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{users: users, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

func (h *AuthHandler) issue(w http.ResponseWriter, status int, message string, user *models.User) {
	token, err := utils.GenerateToken(user.ID.Hex(), user.Email, user.Role, h.jwtSecret, h.tokenTTL)
	if err != nil {
		log.Printf("Erreur lors de la génération du token: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}
	utils.RespondJSON(w, status, utils.SuccessResponse{
		Success: true,
		Message: message,
		Data:    models.AuthResponse{Token: token, User: *user},
	})
}

// Register gère l'inscription d'un nouvel utilisateur (rôle viewer)
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		respondError(w, r, err, "")
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		log.Printf("Erreur lors du hachage du mot de passe: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}

	user := &models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: hashedPassword,
		Role:     models.RoleViewer,
		Active:   true,
	}
	if err := h.users.Create(r.Context(), user); err != nil {
		respondError(w, r, err, constants.ErrEmailTaken)
		return
	}

	log.Printf("✓ Nouvel utilisateur inscrit: %s (ID: %s)", user.Email, user.ID.Hex())
	h.issue(w, http.StatusCreated, "Compte créé", user)
}

// Login vérifie les identifiants et retourne un token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		utils.RespondError(w, http.StatusBadRequest, "Email et mot de passe requis")
		return
	}

	user, err := h.users.FindByEmail(r.Context(), email)
	if err != nil {
		respondError(w, r, err, "")
		return
	}

	// Comparaison systématique pour ne pas révéler l'existence du compte
	hash := ""
	if user != nil {
		hash = user.Password
	}
	if !utils.CheckPassword(hash, req.Password) || user == nil {
		utils.RespondError(w, http.StatusUnauthorized, constants.ErrInvalidCredentials)
		return
	}
	if !user.Active {
		utils.RespondError(w, http.StatusUnauthorized, constants.ErrAccountDisabled)
		return
	}

	now := time.Now().UTC()
	if err := h.users.TouchLogin(r.Context(), user.ID, now); err != nil {
		log.Printf("⚠️  last_login_at non mis à jour pour %s: %v", user.Email, err)
	}
	user.LastLoginAt = &now

	if utils.NeedsRehash(user.Password) {
		if hashed, err := utils.HashPassword(req.Password); err == nil {
			user.Password = hashed
			if err := h.users.Update(r.Context(), user); err != nil {
				log.Printf("⚠️  Re-hachage du mot de passe impossible pour %s: %v", user.Email, err)
			}
		}
	}

	log.Printf("✓ Connexion: %s", user.Email)
	h.issue(w, http.StatusOK, "Connexion réussie", user)
}

// Me retourne l'utilisateur connecté
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	user, err := h.users.FindByID(r.Context(), userID)
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	if user == nil {
		utils.RespondError(w, http.StatusNotFound, constants.ErrUserNotFound)
		return
	}
	utils.RespondSuccess(w, "", user)
}

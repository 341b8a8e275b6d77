package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"offerhub-backend/constants"
	"offerhub-backend/middleware"
	"offerhub-backend/models"
	"offerhub-backend/utils"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ParseObjectIDVar extrait et valide un ObjectID depuis les vars (clé configurable, msg d'erreur configurable).
func ParseObjectIDVar(w http.ResponseWriter, r *http.Request, key, errMsg string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)[key])
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, errMsg)
		return primitive.NilObjectID, false
	}
	return id, true
}

// decodeJSON lit un corps JSON d'au plus constants.MaxBodyBytes. Retourne false et écrit l'erreur si invalide.
func decodeJSON(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.RespondError(w, http.StatusRequestEntityTooLarge, constants.ErrBodyTooLarge)
			return false
		}
		utils.RespondError(w, http.StatusBadRequest, constants.ErrInvalidJSONBody)
		return false
	}
	return true
}

// statusFor associe une erreur métier à un code HTTP
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrSmartLinkNoTarget):
		return http.StatusNotFound
	case errors.Is(err, models.ErrDuplicate), errors.Is(err, models.ErrInUse),
		errors.Is(err, models.ErrOfferExhausted), errors.Is(err, models.ErrSyncInProgress):
		return http.StatusConflict
	case errors.Is(err, models.ErrInvalidReference), errors.Is(err, models.ErrSelfDelete),
		errors.Is(err, models.ErrOfferUnavailable):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrInvalidCredentials), errors.Is(err, models.ErrAccountDisabled):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrSyncDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError traduit err en réponse: détail de validation, erreur métier ou 500 journalisée.
// message remplace le texte de l'erreur métier quand il est fourni.
func respondError(w http.ResponseWriter, r *http.Request, err error, message string) {
	var verrs utils.ValidationErrors
	if errors.As(err, &verrs) {
		utils.RespondValidation(w, verrs)
		return
	}

	status := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		log.Printf("❌ [%s] %s %s: %v", middleware.GetRequestID(r.Context()), r.Method, r.URL.Path, err)
		utils.RespondError(w, status, constants.ErrServerError)
		return
	}
	if message == "" {
		message = capitalize(err.Error())
	}
	utils.RespondError(w, status, message)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

// currentUser retourne les claims de l'utilisateur connecté et son ObjectID
func currentUser(w http.ResponseWriter, r *http.Request) (*utils.Claims, primitive.ObjectID, bool) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		utils.RespondError(w, http.StatusUnauthorized, constants.ErrNotAuthenticated)
		return nil, primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		utils.RespondError(w, http.StatusUnauthorized, constants.ErrNotAuthenticated)
		return nil, primitive.NilObjectID, false
	}
	return claims, id, true
}

// cached lit key dans le cache ou appelle load et mémorise son résultat.
// Une panne Redis dégrade en lecture directe.
func cached[T any](ctx context.Context, c Cache, key string, load func() (*T, error)) (*T, error) {
	if c != nil {
		var hit T
		found, err := c.GetJSON(ctx, key, &hit)
		if err != nil {
			log.Printf("⚠️  Cache indisponible (%s): %v", key, err)
		} else if found {
			return &hit, nil
		}
	}

	value, err := load()
	if err != nil || value == nil {
		return value, err
	}
	if c != nil {
		if err := c.SetJSON(ctx, key, value); err != nil {
			log.Printf("⚠️  Écriture cache impossible (%s): %v", key, err)
		}
	}
	return value, nil
}

// invalidate supprime des clés du cache sans faire échouer la requête
func invalidate(ctx context.Context, c Cache, keys ...string) {
	if c == nil {
		return
	}
	if err := c.Delete(ctx, keys...); err != nil {
		log.Printf("⚠️  Invalidation du cache impossible %v: %v", keys, err)
	}
}

// respondPage renvoie une page de résultats {items, page, limit, total, total_pages}
func respondPage[T any](w http.ResponseWriter, items []T, q utils.ListQuery, total int64) {
	utils.RespondSuccess(w, "", utils.NewPage(items, q, total))
}

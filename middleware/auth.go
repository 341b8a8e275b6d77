package middleware

import (
	"context"
	"net/http"
	"strings"

	"offerhub-backend/utils"
)

type contextKey string

const (
	UserContextKey      contextKey = "user"
	RequestIDContextKey contextKey = "request_id"
)

// bearerToken extrait le token de l'en-tête "Authorization: Bearer <token>"
func bearerToken(r *http.Request) (string, bool) {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// Auth vérifie le token JWT
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				utils.RespondError(w, http.StatusUnauthorized, "Token d'authentification manquant")
				return
			}

			tokenString, ok := bearerToken(r)
			if !ok {
				utils.RespondError(w, http.StatusUnauthorized, "Format du token invalide")
				return
			}

			claims, err := utils.ValidateToken(tokenString, jwtSecret)
			if err != nil {
				utils.RespondError(w, http.StatusUnauthorized, "Token invalide ou expiré")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// WithClaims attache les revendications JWT au contexte
func WithClaims(ctx context.Context, claims *utils.Claims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}

// GetUserFromContext récupère les informations de l'utilisateur depuis le contexte
func GetUserFromContext(ctx context.Context) *utils.Claims {
	claims, ok := ctx.Value(UserContextKey).(*utils.Claims)
	if !ok {
		return nil
	}
	return claims
}

// UserIDFromContext retourne l'ID de l'utilisateur connecté ou ""
func UserIDFromContext(ctx context.Context) string {
	if claims := GetUserFromContext(ctx); claims != nil {
		return claims.UserID
	}
	return ""
}

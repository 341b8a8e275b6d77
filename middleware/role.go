package middleware

import (
	"log"
	"net/http"

	"offerhub-backend/utils"
)

// RequireRole n'autorise que les rôles listés. Doit être monté après Auth:
// le rôle est lu dans les claims du token.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetUserFromContext(r.Context())
			if claims == nil {
				utils.RespondError(w, http.StatusUnauthorized, "Non authentifié")
				return
			}

			if !allowed[claims.Role] {
				log.Printf("⚠️  Accès refusé pour %s (rôle %s) sur %s", claims.Email, claims.Role, r.URL.Path)
				utils.RespondError(w, http.StatusForbidden, "Accès refusé - droits insuffisants")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

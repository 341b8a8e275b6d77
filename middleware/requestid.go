package middleware

import (
	"context"
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

// RequestIDHeader est l'en-tête de corrélation des requêtes
const RequestIDHeader = "X-Request-ID"

var requestIDRegex = regexp.MustCompile(`^[A-Za-z0-9._-]{8,64}$`)

// RequestID réutilise l'identifiant fourni par le proxy s'il est sûr, sinon en génère un
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if !requestIDRegex.MatchString(id) {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), RequestIDContextKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retourne l'identifiant de la requête courante ou ""
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDContextKey).(string)
	return id
}

package middleware

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// responseWriter wrapper pour capturer le code de statut
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap expose le writer d'origine à http.ResponseController
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// ErrorNotifier reçoit les erreurs critiques (Slack en production)
type ErrorNotifier interface {
	SendHTTPError(ctx context.Context, method, path string, statusCode int, origin, requestID string)
}

// isCriticalError: erreurs serveur (5xx) et refus d'accès (403).
// Les autres erreurs client (400, 401, 404...) ne sont que journalisées.
func isCriticalError(statusCode int) bool {
	return statusCode >= http.StatusInternalServerError || statusCode == http.StatusForbidden
}

// routeLabel retourne le gabarit de la route gorilla/mux ("/api/offers/{id}") ou le chemin brut
func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return r.URL.Path
}

// Logging enregistre les requêtes en erreur et notifie les erreurs critiques
func Logging(notifier ErrorNotifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)

			next.ServeHTTP(rw, r)

			statusCode := rw.statusCode
			if statusCode < http.StatusBadRequest {
				return
			}

			requestID := GetRequestID(r.Context())
			log.Printf("⚠️ [%s] %s %s -> %d (%s)", requestID, r.Method, r.RequestURI, statusCode, time.Since(start))

			if notifier != nil && isCriticalError(statusCode) {
				// la requête est terminée, l'envoi ne doit pas dépendre de son contexte
				ctx := context.WithoutCancel(r.Context())
				go notifier.SendHTTPError(ctx, r.Method, routeLabel(r), statusCode, r.Header.Get("Origin"), requestID)
			}
		})
	}
}

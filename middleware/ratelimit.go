package middleware

import (
	"context"
	"log"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"offerhub-backend/models"
	"offerhub-backend/utils"
)

// Limiter décide si une requête identifiée par key peut passer
type Limiter interface {
	Allow(ctx context.Context, key string) models.RateLimitDecision
}

// HitRecorder conserve les décisions pour les statistiques
type HitRecorder interface {
	Record(ctx context.Context, hit models.RateLimitHit) error
}

// clientIP retourne le premier saut de X-Forwarded-For ou l'hôte de RemoteAddr
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// rateLimitKey identifie l'appelant: l'utilisateur du token s'il est valide, sinon l'IP
func rateLimitKey(r *http.Request, jwtSecret string) string {
	if tokenString, ok := bearerToken(r); ok {
		if claims, err := utils.ValidateToken(tokenString, jwtSecret); err == nil && claims.UserID != "" {
			return "user:" + claims.UserID
		}
	}
	return "ip:" + clientIP(r)
}

// RateLimit applique la limite par appelant et enregistre chaque décision
func RateLimit(limiter Limiter, stats HitRecorder, jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			key := rateLimitKey(r, jwtSecret)
			decision := limiter.Allow(r.Context(), key)

			if stats != nil {
				hit := models.RateLimitHit{Key: key, Route: routeLabel(r), Blocked: !decision.Allowed, At: time.Now()}
				if err := stats.Record(r.Context(), hit); err != nil {
					log.Printf("⚠️  Statistiques rate limit non enregistrées: %v", err)
				}
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

			if !decision.Allowed {
				RateLimitRejections.Inc()
				retryAfter := int(math.Ceil(time.Until(decision.ResetAt).Seconds()))
				if retryAfter < 1 {
					retryAfter = 1
				}
				h.Set("Retry-After", strconv.Itoa(retryAfter))
				log.Printf("🚦 Rate limit atteint pour %s sur %s", key, r.URL.Path)
				utils.RespondError(w, http.StatusTooManyRequests, "Trop de requêtes, réessayez plus tard")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

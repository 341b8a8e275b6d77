package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collecteurs HTTP, enregistrés une seule fois
var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "offerhub",
		Name:      "http_requests_total",
		Help:      "Nombre de requêtes HTTP par méthode, route et statut.",
	}, []string{"method", "route", "status"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "offerhub",
		Name:      "http_request_duration_seconds",
		Help:      "Durée des requêtes HTTP.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	RateLimitRejections = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "offerhub",
		Name:      "rate_limit_rejections_total",
		Help:      "Requêtes refusées par le rate limiter.",
	})
)

func init() {
	prometheus.MustRegister(HTTPRequests, HTTPDuration, RateLimitRejections)
}

// Metrics alimente les compteurs Prometheus par méthode, route et statut
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := newResponseWriter(w)

		next.ServeHTTP(rw, r)

		route := routeLabel(r)
		HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(rw.statusCode)).Inc()
		HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strconv"
	"time"

	"offerhub-backend/models"
	"offerhub-backend/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RateLimitStatsKey est le sorted set des décisions du rate limiter
const RateLimitStatsKey = "ratelimit:stats"

// Bornes de la fenêtre d'agrégation
const (
	DefaultStatsWindow = 15 * time.Minute
	MinStatsWindow     = time.Minute
	MaxStatsWindow     = 24 * time.Hour
)

// ParseStatsWindow lit le paramètre window ("15m", "2h"...)
func ParseStatsWindow(raw string) (time.Duration, error) {
	if raw == "" {
		return DefaultStatsWindow, nil
	}
	window, err := time.ParseDuration(raw)
	if err != nil || window < MinStatsWindow || window > MaxStatsWindow {
		return 0, utils.ValidationErrors{{Field: "window", Message: "durée invalide (entre 1m et 24h, ex: 15m)"}}
	}
	return window, nil
}

// RateLimitStats enregistre les décisions du rate limiter et les agrège par client
type RateLimitStats struct {
	client    redis.UniversalClient
	retention time.Duration
	now       func() time.Time
}

// NewRateLimitStats conserve les décisions pendant retention
func NewRateLimitStats(client redis.UniversalClient, retention time.Duration) *RateLimitStats {
	return &RateLimitStats{client: client, retention: retention, now: time.Now}
}

// Record ajoute une décision et purge celles qui dépassent la rétention
func (s *RateLimitStats) Record(ctx context.Context, hit models.RateLimitHit) error {
	if hit.At.IsZero() {
		hit.At = s.now()
	}
	hit.At = hit.At.UTC()
	if hit.Nonce == "" {
		hit.Nonce = uuid.NewString()
	}

	member, err := json.Marshal(hit)
	if err != nil {
		return fmt.Errorf("erreur lors de l'encodage de la requête: %w", err)
	}

	cutoff := s.now().Add(-s.retention).UnixMilli()
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, RateLimitStatsKey, redis.Z{Score: float64(hit.At.UnixMilli()), Member: member})
		pipe.ZRemRangeByScore(ctx, RateLimitStatsKey, "0", "("+strconv.FormatInt(cutoff, 10))
		return nil
	})
	if err != nil {
		return fmt.Errorf("erreur lors de l'enregistrement des statistiques: %w", err)
	}
	return nil
}

// Aggregate relit les décisions des dernières window et les regroupe par clé.
// Les clients sont triés par volume décroissant puis par clé.
func (s *RateLimitStats) Aggregate(ctx context.Context, window time.Duration) (*models.RateLimitReport, error) {
	to := s.now().UTC()
	from := to.Add(-window)

	members, err := s.client.ZRangeByScore(ctx, RateLimitStatsKey, &redis.ZRangeBy{
		Min: "(" + strconv.FormatInt(from.UnixMilli(), 10),
		Max: strconv.FormatInt(to.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la lecture des statistiques: %w", err)
	}

	report := &models.RateLimitReport{Window: window.String(), From: from, To: to}
	clients := make(map[string]*models.RateLimitClient)

	for _, raw := range members {
		var hit models.RateLimitHit
		if err := json.Unmarshal([]byte(raw), &hit); err != nil {
			log.Printf("⚠️  Entrée de statistiques illisible ignorée: %v", err)
			continue
		}

		c, ok := clients[hit.Key]
		if !ok {
			c = &models.RateLimitClient{Key: hit.Key, Routes: map[string]int{}, FirstSeen: hit.At, LastSeen: hit.At}
			clients[hit.Key] = c
		}
		c.Total++
		c.Routes[hit.Route]++
		if hit.Blocked {
			c.Blocked++
			report.Blocked++
		}
		if hit.At.Before(c.FirstSeen) {
			c.FirstSeen = hit.At
		}
		if hit.At.After(c.LastSeen) {
			c.LastSeen = hit.At
		}
		report.Total++
	}

	report.Clients = make([]models.RateLimitClient, 0, len(clients))
	for _, c := range clients {
		report.Clients = append(report.Clients, *c)
	}
	sort.Slice(report.Clients, func(i, j int) bool {
		a, b := report.Clients[i], report.Clients[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		return a.Key < b.Key
	})
	return report, nil
}

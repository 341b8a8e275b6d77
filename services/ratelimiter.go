package services

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"offerhub-backend/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const rateLimitKeyPrefix = "ratelimit:"

// RateLimiter applique une fenêtre glissante par clé, stockée dans un sorted set Redis
type RateLimiter struct {
	client redis.UniversalClient
	max    int
	window time.Duration
	now    func() time.Time
}

// NewRateLimiter autorise max requêtes par clé sur window
func NewRateLimiter(client redis.UniversalClient, max int, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, max: max, window: window, now: time.Now}
}

// Limit retourne le nombre maximal de requêtes par fenêtre
func (l *RateLimiter) Limit() int {
	return l.max
}

// Allow enregistre une requête pour key et décide si elle passe.
// Une erreur Redis laisse passer la requête.
func (l *RateLimiter) Allow(ctx context.Context, key string) models.RateLimitDecision {
	now := l.now()
	nowMs := now.UnixMilli()
	redisKey := rateLimitKeyPrefix + key
	member := strconv.FormatInt(nowMs, 10) + "-" + uuid.NewString()

	var card *redis.IntCmd
	var oldest *redis.ZSliceCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, redisKey, "0", "("+strconv.FormatInt(nowMs-l.window.Milliseconds(), 10))
		pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(nowMs), Member: member})
		card = pipe.ZCard(ctx, redisKey)
		oldest = pipe.ZRangeWithScores(ctx, redisKey, 0, 0)
		pipe.PExpire(ctx, redisKey, l.window)
		return nil
	})
	if err != nil {
		log.Printf("⚠️  Rate limiter indisponible, requête autorisée (%s): %v", key, err)
		return models.RateLimitDecision{Allowed: true, Limit: l.max, Remaining: l.max, ResetAt: now.Add(l.window)}
	}

	count := int(card.Val())
	decision := models.RateLimitDecision{
		Allowed:   count <= l.max,
		Limit:     l.max,
		Remaining: l.max - count,
		ResetAt:   now.Add(l.window),
	}
	if z := oldest.Val(); len(z) > 0 {
		decision.ResetAt = time.UnixMilli(int64(z[0].Score)).Add(l.window)
	}
	if decision.Remaining < 0 {
		decision.Remaining = 0
	}

	if !decision.Allowed {
		// une requête refusée ne consomme pas de place dans la fenêtre
		if err := l.client.ZRem(ctx, redisKey, member).Err(); err != nil {
			log.Printf("⚠️  Impossible de retirer la requête refusée (%s): %v", key, err)
		}
	}
	return decision
}

// Reset efface l'historique d'une clé
func (l *RateLimiter) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, rateLimitKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("erreur lors de la réinitialisation de %s: %w", key, err)
	}
	return nil
}

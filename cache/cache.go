package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Clés des agrégats mis en cache
const (
	KeyOfferStats      = "stats:offers"
	KeySmartLinkStats  = "stats:smartlinks"
	keySmartLinkPrefix = "smartlink:"
	keyReportPrefix    = "stats:reports:"
)

// SmartLinkKey retourne la clé de cache de la page publique d'un smartlink
func SmartLinkKey(slug string) string {
	return keySmartLinkPrefix + slug
}

// ReportSummaryKey retourne la clé de cache d'un résumé de reporting
func ReportSummaryKey(from, to time.Time) string {
	return fmt.Sprintf("%s%d:%d", keyReportPrefix, from.Unix(), to.Unix())
}

// JSONCache stocke des valeurs encodées en JSON avec un TTL par défaut
type JSONCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewJSONCache crée un cache JSON au-dessus d'un client Redis
func NewJSONCache(client redis.UniversalClient, ttl time.Duration) *JSONCache {
	return &JSONCache{client: client, ttl: ttl}
}

// GetJSON décode la valeur de key dans dest. found vaut false sur un miss.
func (c *JSONCache) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("erreur lecture cache %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		// entrée corrompue: on la traite comme un miss et on la supprime
		log.Printf("⚠️  Cache %s illisible, suppression: %v", key, err)
		_ = c.client.Del(ctx, key).Err()
		return false, nil
	}
	return true, nil
}

// SetJSON encode value et la stocke sous key avec le TTL du cache
func (c *JSONCache) SetJSON(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("erreur encodage cache %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("erreur écriture cache %s: %w", key, err)
	}
	return nil
}

// Delete invalide une ou plusieurs clés
func (c *JSONCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("erreur invalidation cache: %w", err)
	}
	return nil
}

// DeletePrefix invalide toutes les clés commençant par prefix (SCAN, jamais KEYS)
func (c *JSONCache) DeletePrefix(ctx context.Context, prefix string) error {
	iter := c.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("erreur scan cache %s: %w", prefix, err)
	}
	return c.Delete(ctx, keys...)
}

// InvalidateReports supprime tous les résumés de reporting en cache
func (c *JSONCache) InvalidateReports(ctx context.Context) error {
	return c.DeletePrefix(ctx, keyReportPrefix)
}

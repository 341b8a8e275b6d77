package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld signale que le verrou est déjà détenu
var ErrLockHeld = errors.New("verrou déjà détenu")

// releaseScript ne supprime la clé que si elle porte encore notre jeton
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock est un mutex Redis à clé unique (SET NX EX) avec expiration de secours
type Lock struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

// NewLock crée un verrou sur key
func NewLock(client redis.UniversalClient, key string, ttl time.Duration) *Lock {
	return &Lock{client: client, key: key, ttl: ttl}
}

// TTL retourne la durée de vie du verrou
func (l *Lock) TTL() time.Duration {
	return l.ttl
}

// Acquire pose le verrou et retourne le jeton à présenter pour le libérer
func (l *Lock) Acquire(ctx context.Context) (string, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return "", fmt.Errorf("erreur lors de la prise du verrou %s: %w", l.key, err)
	}
	if !ok {
		return "", ErrLockHeld
	}
	return token, nil
}

// Release libère le verrou s'il porte encore token. released vaut false
// quand le verrou a expiré ou a été repris entre-temps.
func (l *Lock) Release(ctx context.Context, token string) (bool, error) {
	n, err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Int()
	if err != nil {
		return false, fmt.Errorf("erreur lors de la libération du verrou %s: %w", l.key, err)
	}
	return n == 1, nil
}

// Held indique si le verrou est actuellement posé
func (l *Lock) Held(ctx context.Context) (bool, error) {
	n, err := l.client.Exists(ctx, l.key).Result()
	if err != nil {
		return false, fmt.Errorf("erreur lors de la lecture du verrou %s: %w", l.key, err)
	}
	return n == 1, nil
}

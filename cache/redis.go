package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options de connexion Redis
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Connect ouvre un client Redis et vérifie la connexion
func Connect(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("erreur lors du ping Redis (%s): %w", opts.Addr, err)
	}

	log.Printf("✓ Connexion à Redis établie (%s)", opts.Addr)
	return client, nil
}

// Ping vérifie que Redis répond
func Ping(ctx context.Context, client redis.UniversalClient) error {
	if client == nil {
		return fmt.Errorf("client Redis non initialisé")
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return client.Ping(ctx).Err()
}

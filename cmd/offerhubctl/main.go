package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"offerhub-backend/cache"
	"offerhub-backend/config"
	"offerhub-backend/database"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var cfg *config.Config

func main() {
	rootCmd := &cobra.Command{
		Use:           "offerhubctl",
		Short:         "Outils d'exploitation du back-office OfferHub",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.LoadCLI()
			if err != nil {
				return fmt.Errorf("chargement de la configuration: %w", err)
			}
			cfg = loaded
			return nil
		},
	}

	rootCmd.AddCommand(syncCmd())
	rootCmd.AddCommand(createAdminCmd())
	rootCmd.AddCommand(rateLimitStatsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

// connectMongo ouvre la connexion MongoDB; la fonction retournée la ferme
func connectMongo() (func(), error) {
	if err := database.Connect(cfg.MongoURI, cfg.MongoDB); err != nil {
		return nil, err
	}
	return func() {
		if err := database.Close(); err != nil {
			log.Printf("⚠️  Fermeture MongoDB: %v", err)
		}
	}, nil
}

func connectRedis(ctx context.Context) (*redis.Client, error) {
	return cache.Connect(ctx, cache.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

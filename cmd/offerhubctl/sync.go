package main

import (
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"offerhub-backend/cache"
	"offerhub-backend/database"
	"offerhub-backend/models"
	"offerhub-backend/services"

	"github.com/spf13/cobra"
)

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Exécute une synchronisation Salesforce et attend sa fin",
		Long: `Exécute une synchronisation complète Salesforce -> MongoDB.

Le verrou Redis est le même que celui du serveur: la commande échoue
si une synchronisation est déjà en cours.`,
		Args: cobra.NoArgs,
		RunE: runSync,
	}
}

func runSync(cmd *cobra.Command, args []string) error {
	if !cfg.SalesforceEnabled() {
		return models.ErrSyncDisabled
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	closeMongo, err := connectMongo()
	if err != nil {
		return err
	}
	defer closeMongo()

	redisClient, err := connectRedis(ctx)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	fcmService := services.NewDisabledFCMService()
	if cfg.PushEnabled() {
		if svc, err := services.NewFCMService(ctx, cfg.FirebaseCredentialsFile, cfg.FirebaseCredentialsJSON); err == nil {
			fcmService = svc
		} else {
			log.Printf("⚠️  Firebase indisponible, pas de notification push: %v", err)
		}
	}

	providers := database.NewProviderRepository(database.DB)
	offers := database.NewOfferRepository(database.DB)
	syncService := services.NewSyncService(services.SyncDeps{
		Salesforce: services.NewSalesforceClient(cfg.Salesforce),
		Providers:  providers,
		Offers:     offers,
		Runs:       database.NewSyncRunRepository(database.DB),
		Lock:       cache.NewLock(redisClient, services.SyncLockKey, cfg.Salesforce.LockTTL),
		Notifier:   services.NewNotifier(nil, database.NewDeviceRepository(database.DB), fcmService, services.NewSlackService(cfg.SlackWebhookURL)),
		Cache:      cache.NewJSONCache(redisClient, cfg.CacheTTL),
	})

	run, err := syncService.RunNow(ctx, models.SyncTriggerCLI, "offerhubctl")
	if errors.Is(err, models.ErrSyncInProgress) {
		return fmt.Errorf("%w (verrou %s)", err, services.SyncLockKey)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s: %s en %s\n", run.ID.Hex(), run.Status, run.Duration().Round(time.Millisecond))
	printCounters(cmd, "Prestataires", run.Providers)
	printCounters(cmd, "Offres", run.Offers)
	if run.Status == models.SyncFailed {
		return fmt.Errorf("synchronisation en échec: %s", run.Error)
	}
	return nil
}

func printCounters(cmd *cobra.Command, label string, c models.SyncCounters) {
	fmt.Fprintf(cmd.OutOrStdout(), "  %-13s lus=%d créés=%d mis à jour=%d ignorés=%d en erreur=%d\n",
		label, c.Fetched, c.Created, c.Updated, c.Skipped, c.Failed)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"offerhub-backend/models"

	"github.com/robfig/cron/v3"
)

type syncStarter interface {
	Start(ctx context.Context, trigger, startedBy string) (*models.SyncRun, error)
}

// SyncScheduler déclenche la synchronisation Salesforce selon une expression cron
type SyncScheduler struct {
	sync syncStarter
	spec string
	cron *cron.Cron
}

// NewSyncScheduler valide spec ("@every 1h", "0 */2 * * *"...)
func NewSyncScheduler(sync syncStarter, spec string) (*SyncScheduler, error) {
	s := &SyncScheduler{sync: sync, spec: spec, cron: cron.New()}
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return nil, fmt.Errorf("expression cron invalide %q: %w", spec, err)
	}
	return s, nil
}

// Start démarre le cron job
func (s *SyncScheduler) Start() {
	s.cron.Start()
	log.Printf("✓ Cron job synchronisation Salesforce démarré (%s)", s.spec)
}

// Stop arrête le cron job et retourne un contexte terminé quand le tick en cours l'est
func (s *SyncScheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *SyncScheduler) tick() {
	run, err := s.sync.Start(context.Background(), models.SyncTriggerCron, "")
	switch {
	case errors.Is(err, models.ErrSyncInProgress):
		log.Println("⏭️  Synchronisation déjà en cours, tick cron ignoré")
	case errors.Is(err, models.ErrSyncDisabled):
		log.Println("⚠️  Salesforce non configuré, tick cron ignoré")
	case err != nil:
		log.Printf("❌ Erreur lors du lancement de la synchronisation planifiée: %v", err)
	default:
		log.Printf("🕐 Synchronisation planifiée lancée (run %s)", run.ID.Hex())
	}
}

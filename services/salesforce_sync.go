package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"offerhub-backend/cache"
	"offerhub-backend/models"
	"offerhub-backend/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// SyncLockKey est la clé Redis du mutex de synchronisation
const SyncLockKey = "salesforce:sync:lock"

// SalesforceQuerier exécute une requête SOQL et retourne tous les enregistrements
type SalesforceQuerier interface {
	QueryAll(ctx context.Context, soql string) ([]json.RawMessage, error)
}

// ProviderSyncStore est la partie du dépôt prestataires utilisée par la synchronisation
type ProviderSyncStore interface {
	UpsertBySalesforceID(ctx context.Context, p *models.Provider) (bool, error)
	IDsBySalesforceID(ctx context.Context, sfIDs []string) (map[string]primitive.ObjectID, error)
}

// OfferSyncStore est la partie du dépôt offres utilisée par la synchronisation
type OfferSyncStore interface {
	UpsertBySalesforceID(ctx context.Context, o *models.Offer) (bool, error)
}

// SyncRunStore conserve l'historique des exécutions
type SyncRunStore interface {
	Create(ctx context.Context, run *models.SyncRun) error
	Finish(ctx context.Context, run *models.SyncRun) error
	Latest(ctx context.Context) (*models.SyncRun, error)
	List(ctx context.Context, q utils.ListQuery) ([]models.SyncRun, int64, error)
}

// Locker est le mutex distribué qui empêche deux synchronisations simultanées
type Locker interface {
	Acquire(ctx context.Context) (string, error)
	Release(ctx context.Context, token string) (bool, error)
	Held(ctx context.Context) (bool, error)
	TTL() time.Duration
}

type syncNotifier interface {
	SyncFinished(ctx context.Context, run *models.SyncRun)
}

type cacheInvalidator interface {
	Delete(ctx context.Context, keys ...string) error
}

// SyncService orchestre la synchronisation Salesforce -> MongoDB
type SyncService struct {
	sf        SalesforceQuerier
	providers ProviderSyncStore
	offers    OfferSyncStore
	runs      SyncRunStore
	lock      Locker
	notifier  syncNotifier
	cache     cacheInvalidator
	now       func() time.Time
	wg        sync.WaitGroup
}

// SyncDeps regroupe les dépendances du SyncService. Salesforce nil = synchronisation désactivée.
type SyncDeps struct {
	Salesforce SalesforceQuerier
	Providers  ProviderSyncStore
	Offers     OfferSyncStore
	Runs       SyncRunStore
	Lock       Locker
	Notifier   *Notifier
	Cache      *cache.JSONCache
}

// NewSyncService crée le service de synchronisation
func NewSyncService(deps SyncDeps) *SyncService {
	s := &SyncService{
		sf:        deps.Salesforce,
		providers: deps.Providers,
		offers:    deps.Offers,
		runs:      deps.Runs,
		lock:      deps.Lock,
		now:       time.Now,
	}
	if deps.Notifier != nil {
		s.notifier = deps.Notifier
	}
	if deps.Cache != nil {
		s.cache = deps.Cache
	}
	return s
}

// Enabled indique si Salesforce est configuré
func (s *SyncService) Enabled() bool {
	return s.sf != nil
}

// begin prend le verrou et enregistre un run "running"
func (s *SyncService) begin(ctx context.Context, trigger, startedBy string) (*models.SyncRun, string, error) {
	if !s.Enabled() {
		return nil, "", models.ErrSyncDisabled
	}

	token, err := s.lock.Acquire(ctx)
	if errors.Is(err, cache.ErrLockHeld) {
		return nil, "", models.ErrSyncInProgress
	}
	if err != nil {
		return nil, "", err
	}

	run := &models.SyncRun{
		Trigger:   trigger,
		Status:    models.SyncRunning,
		StartedBy: startedBy,
		StartedAt: s.now().UTC(),
	}
	if err := s.runs.Create(ctx, run); err != nil {
		s.release(ctx, token)
		return nil, "", err
	}
	return run, token, nil
}

// Start lance une synchronisation en arrière-plan et retourne le run créé.
// La goroutine survit à l'annulation de ctx et s'arrête au plus tard à l'expiration du verrou.
func (s *SyncService) Start(ctx context.Context, trigger, startedBy string) (*models.SyncRun, error) {
	run, token, err := s.begin(ctx, trigger, startedBy)
	if err != nil {
		return nil, err
	}
	snapshot := *run

	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.lock.TTL())
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		s.execute(bg, run, token)
	}()

	log.Printf("🔄 Synchronisation Salesforce lancée (run %s, déclencheur %s)", run.ID.Hex(), trigger)
	return &snapshot, nil
}

// RunNow exécute une synchronisation complète et attend sa fin
func (s *SyncService) RunNow(ctx context.Context, trigger, startedBy string) (*models.SyncRun, error) {
	run, token, err := s.begin(ctx, trigger, startedBy)
	if err != nil {
		return nil, err
	}
	runCtx, cancel := context.WithTimeout(ctx, s.lock.TTL())
	defer cancel()
	s.execute(runCtx, run, token)
	return run, nil
}

// Wait attend la fin des synchronisations lancées par Start
func (s *SyncService) Wait() {
	s.wg.Wait()
}

// Status retourne l'état du verrou et la dernière exécution
func (s *SyncService) Status(ctx context.Context) (*models.SyncStatus, error) {
	status := &models.SyncStatus{Enabled: s.Enabled()}

	held, err := s.lock.Held(ctx)
	if err != nil {
		return nil, err
	}
	status.Locked = held

	status.LastRun, err = s.runs.Latest(ctx)
	if err != nil {
		return nil, err
	}
	return status, nil
}

// Runs liste l'historique des exécutions
func (s *SyncService) Runs(ctx context.Context, q utils.ListQuery) ([]models.SyncRun, int64, error) {
	return s.runs.List(ctx, q)
}

func (s *SyncService) execute(ctx context.Context, run *models.SyncRun, token string) {
	// la clôture doit aboutir même si ctx a expiré
	finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	defer s.release(finishCtx, token)

	if err := s.synchronize(ctx, run); err != nil {
		run.Status = models.SyncFailed
		run.Error = err.Error()
		log.Printf("❌ Synchronisation Salesforce en échec (run %s): %v", run.ID.Hex(), err)
	} else {
		run.Status = models.SyncSucceeded
		log.Printf("✅ Synchronisation Salesforce terminée (run %s): prestataires %s | offres %s",
			run.ID.Hex(), formatCounters(run.Providers), formatCounters(run.Offers))
	}
	finished := s.now().UTC()
	run.FinishedAt = &finished

	if err := s.runs.Finish(finishCtx, run); err != nil {
		log.Printf("❌ Erreur lors de l'enregistrement du run %s: %v", run.ID.Hex(), err)
	}
	recordSyncMetrics(run)

	if s.cache != nil {
		if err := s.cache.Delete(finishCtx, cache.KeyOfferStats); err != nil {
			log.Printf("⚠️  Invalidation du cache des statistiques impossible: %v", err)
		}
	}
	if s.notifier != nil {
		s.notifier.SyncFinished(finishCtx, run)
	}
}

func (s *SyncService) release(ctx context.Context, token string) {
	released, err := s.lock.Release(ctx, token)
	switch {
	case err != nil:
		log.Printf("⚠️  Libération du verrou de synchronisation impossible: %v", err)
	case !released:
		log.Println("⚠️  Verrou de synchronisation expiré avant la fin du run")
	}
}

// synchronize lit les deux objets en parallèle puis applique les upserts
func (s *SyncService) synchronize(ctx context.Context, run *models.SyncRun) error {
	var accounts, offers []json.RawMessage

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accounts, err = s.sf.QueryAll(gctx, accountSOQL)
		if err != nil {
			return fmt.Errorf("lecture des comptes: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		offers, err = s.sf.QueryAll(gctx, offerSOQL)
		if err != nil {
			return fmt.Errorf("lecture des offres: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	s.syncProviders(ctx, accounts, &run.Providers)
	if err := s.syncOffers(ctx, offers, &run.Offers); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("synchronisation interrompue: %w", err)
	}
	return nil
}

func (s *SyncService) syncProviders(ctx context.Context, records []json.RawMessage, c *models.SyncCounters) {
	for _, raw := range records {
		c.Fetched++
		p, err := mapAccount(raw)
		if err != nil {
			c.Failed++
			log.Printf("⚠️  Compte Salesforce ignoré: %v", err)
			continue
		}
		created, err := s.providers.UpsertBySalesforceID(ctx, p)
		if err != nil {
			c.Failed++
			log.Printf("❌ Erreur upsert prestataire %s: %v", p.SalesforceID, err)
			continue
		}
		if created {
			c.Created++
		} else {
			c.Updated++
		}
	}
}

func (s *SyncService) syncOffers(ctx context.Context, records []json.RawMessage, c *models.SyncCounters) error {
	mapped := make([]*mappedOffer, 0, len(records))
	accountIDs := make([]string, 0, len(records))
	for _, raw := range records {
		c.Fetched++
		m, err := mapOffer(raw)
		if err != nil {
			c.Failed++
			log.Printf("⚠️  Offre Salesforce ignorée: %v", err)
			continue
		}
		mapped = append(mapped, m)
		if m.AccountID != "" {
			accountIDs = append(accountIDs, m.AccountID)
		}
	}

	providerIDs, err := s.providers.IDsBySalesforceID(ctx, accountIDs)
	if err != nil {
		return err
	}

	for _, m := range mapped {
		providerID, ok := providerIDs[m.AccountID]
		if !ok {
			c.Skipped++
			continue
		}
		offer := &m.Offer
		offer.ProviderID = providerID
		if err := offer.Validate(); err != nil {
			c.Failed++
			log.Printf("⚠️  Offre Salesforce %s invalide: %v", offer.SalesforceID, err)
			continue
		}
		created, err := s.offers.UpsertBySalesforceID(ctx, offer)
		if err != nil {
			c.Failed++
			log.Printf("❌ Erreur upsert offre %s: %v", offer.SalesforceID, err)
			continue
		}
		if created {
			c.Created++
		} else {
			c.Updated++
		}
	}
	return nil
}

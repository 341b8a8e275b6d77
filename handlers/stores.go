package handlers

import (
	"context"
	"time"

	"offerhub-backend/models"
	"offerhub-backend/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Les handlers dépendent de ces interfaces; les repositories MongoDB de
// database/ les implémentent, les tests utilisent des fakes en mémoire.

// UserStore persiste les utilisateurs
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	List(ctx context.Context, q utils.ListQuery) ([]models.User, int64, error)
	Update(ctx context.Context, user *models.User) error
	TouchLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ProviderStore persiste les prestataires
type ProviderStore interface {
	Create(ctx context.Context, p *models.Provider) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Provider, error)
	List(ctx context.Context, q utils.ListQuery) ([]models.Provider, int64, error)
	Update(ctx context.Context, p *models.Provider) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// OfferStore persiste les offres et leurs utilisations
type OfferStore interface {
	Create(ctx context.Context, o *models.Offer) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Offer, error)
	FindWithProvider(ctx context.Context, id primitive.ObjectID) (*models.OfferWithProvider, error)
	List(ctx context.Context, q utils.ListQuery, now time.Time) ([]models.OfferWithProvider, int64, error)
	Update(ctx context.Context, o *models.Offer) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	CountByProvider(ctx context.Context, providerID primitive.ObjectID) (int64, error)
	Use(ctx context.Context, id, userID primitive.ObjectID, now time.Time) (*models.Offer, error)
	Stats(ctx context.Context) (*models.OfferStats, error)
}

// ArtistStore persiste les artistes
type ArtistStore interface {
	Create(ctx context.Context, a *models.Artist) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Artist, error)
	List(ctx context.Context, q utils.ListQuery) ([]models.Artist, int64, error)
	Update(ctx context.Context, a *models.Artist) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// SmartLinkStore persiste les smartlinks et leurs clics
type SmartLinkStore interface {
	Create(ctx context.Context, s *models.SmartLink) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.SmartLink, error)
	FindWithArtist(ctx context.Context, id primitive.ObjectID) (*models.SmartLinkWithArtist, error)
	FindPublishedBySlug(ctx context.Context, slug string) (*models.SmartLinkWithArtist, error)
	List(ctx context.Context, q utils.ListQuery) ([]models.SmartLinkWithArtist, int64, error)
	Update(ctx context.Context, s *models.SmartLink) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	CountByArtist(ctx context.Context, artistID primitive.ObjectID) (int64, error)
	RecordClick(ctx context.Context, slug, platform string) (*models.SmartLink, error)
	Stats(ctx context.Context) (*models.SmartLinkStats, error)
}

// ReportStore persiste les événements de reporting
type ReportStore interface {
	InsertMany(ctx context.Context, events []models.ReportEvent) (int, error)
	List(ctx context.Context, q utils.ListQuery) ([]models.ReportEvent, int64, error)
	Summary(ctx context.Context, from, to time.Time) (*models.ReportSummary, error)
}

// DeviceStore persiste les tokens FCM
type DeviceStore interface {
	Upsert(ctx context.Context, d *models.DeviceToken) error
	Delete(ctx context.Context, userID primitive.ObjectID, token string) error
}

// SyncController pilote la synchronisation Salesforce
type SyncController interface {
	Start(ctx context.Context, trigger, startedBy string) (*models.SyncRun, error)
	Status(ctx context.Context) (*models.SyncStatus, error)
	Runs(ctx context.Context, q utils.ListQuery) ([]models.SyncRun, int64, error)
}

// RateLimitReporter agrège les statistiques du rate limiter
type RateLimitReporter interface {
	Aggregate(ctx context.Context, window time.Duration) (*models.RateLimitReport, error)
}

// Cache est le cache JSON Redis des agrégats
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, keys ...string) error
	InvalidateReports(ctx context.Context) error
}

// EventNotifier diffuse les événements métier
type EventNotifier interface {
	OfferUsed(offer *models.Offer, userID string)
	SmartLinkPublished(link *models.SmartLink)
}

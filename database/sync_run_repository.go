package database

import (
	"context"
	"fmt"
	"time"

	"offerhub-backend/models"
	"offerhub-backend/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SyncRunRepository historise les synchronisations Salesforce
type SyncRunRepository struct {
	collection *mongo.Collection
}

// NewSyncRunRepository crée une nouvelle instance de SyncRunRepository
func NewSyncRunRepository(db *mongo.Database) *SyncRunRepository {
	return &SyncRunRepository{collection: db.Collection(CollectionSyncRuns)}
}

// Create enregistre le début d'une exécution
func (r *SyncRunRepository) Create(ctx context.Context, run *models.SyncRun) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if run.ID.IsZero() {
		run.ID = primitive.NewObjectID()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if _, err := r.collection.InsertOne(ctx, run); err != nil {
		return fmt.Errorf("erreur lors de la création du run de synchronisation: %w", err)
	}
	return nil
}

// Finish enregistre l'état final d'une exécution
func (r *SyncRunRepository) Finish(ctx context.Context, run *models.SyncRun) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": run.ID}, run)
	if err != nil {
		return fmt.Errorf("erreur lors de la clôture du run de synchronisation: %w", err)
	}
	return nil
}

// Latest retourne la dernière exécution (nil si aucune)
func (r *SyncRunRepository) Latest(ctx context.Context) (*models.SyncRun, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var run models.SyncRun
	opts := options.FindOne().SetSort(bson.D{{Key: "started_at", Value: -1}})
	err := r.collection.FindOne(ctx, bson.M{}, opts).Decode(&run)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la lecture du dernier run: %w", err)
	}
	return &run, nil
}

// SyncRunSorts liste les tris autorisés sur les exécutions
var SyncRunSorts = []string{"started_at", "status"}

// List retourne les exécutions, les plus récentes d'abord
func (r *SyncRunRepository) List(ctx context.Context, q utils.ListQuery) ([]models.SyncRun, int64, error) {
	filter, err := BuildFilter(q, FilterSpec{
		Equals:    map[string]string{"status": "status", "trigger": "trigger"},
		DateField: "started_at",
	})
	if err != nil {
		return nil, 0, err
	}
	return findPage[models.SyncRun](ctx, r.collection, filter, q)
}

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

// ProviderFilters décrit les filtres de GET /api/providers
var ProviderFilters = FilterSpec{
	Equals: map[string]string{"status": "status", "category": "category"},
	Search: []string{"name", "email"},
}

// ProviderSorts liste les tris autorisés sur les prestataires
var ProviderSorts = []string{"name", "created_at"}

// ProviderRepository gère les opérations sur les prestataires
type ProviderRepository struct {
	collection *mongo.Collection
}

// NewProviderRepository crée une nouvelle instance de ProviderRepository
func NewProviderRepository(db *mongo.Database) *ProviderRepository {
	return &ProviderRepository{collection: db.Collection(CollectionProviders)}
}

// Create crée un prestataire
func (r *ProviderRepository) Create(ctx context.Context, p *models.Provider) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, p); err != nil {
		return writeError("la création du prestataire", err)
	}
	return nil
}

// FindByID recherche un prestataire par ID
func (r *ProviderRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Provider, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var p models.Provider
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche du prestataire: %w", err)
	}
	return &p, nil
}

// List retourne une page de prestataires
func (r *ProviderRepository) List(ctx context.Context, q utils.ListQuery) ([]models.Provider, int64, error) {
	filter, err := BuildFilter(q, ProviderFilters)
	if err != nil {
		return nil, 0, err
	}
	return findPage[models.Provider](ctx, r.collection, filter, q)
}

// Update remplace les champs éditables d'un prestataire
func (r *ProviderRepository) Update(ctx context.Context, p *models.Provider) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	p.UpdatedAt = time.Now().UTC()
	update := bson.M{BSONSet: bson.M{
		"name":        p.Name,
		"email":       p.Email,
		"phone":       p.Phone,
		"website":     p.Website,
		"category":    p.Category,
		"status":      p.Status,
		"description": p.Description,
		"updated_at":  p.UpdatedAt,
	}}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": p.ID}, update)
	if err != nil {
		return writeError("la mise à jour du prestataire", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete supprime un prestataire
func (r *ProviderRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("erreur lors de la suppression du prestataire: %w", err)
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// UpsertBySalesforceID crée ou met à jour le prestataire lié à un compte Salesforce.
// created vaut true quand le document a été inséré.
func (r *ProviderRepository) UpsertBySalesforceID(ctx context.Context, p *models.Provider) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now().UTC()
	update := bson.M{
		BSONSet: bson.M{
			"name":           p.Name,
			"email":          p.Email,
			"phone":          p.Phone,
			"website":        p.Website,
			"category":       p.Category,
			"status":         p.Status,
			"description":    p.Description,
			"last_synced_at": now,
			"updated_at":     now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"salesforce_id": p.SalesforceID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return false, writeError("la synchronisation du prestataire "+p.SalesforceID, err)
	}
	return res.UpsertedCount > 0, nil
}

// IDsBySalesforceID retourne l'ID local de chaque compte Salesforce connu
func (r *ProviderRepository) IDsBySalesforceID(ctx context.Context, sfIDs []string) (map[string]primitive.ObjectID, error) {
	ids := make(map[string]primitive.ObjectID, len(sfIDs))
	if len(sfIDs) == 0 {
		return ids, nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{"_id": 1, "salesforce_id": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"salesforce_id": bson.M{"$in": sfIDs}}, opts)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la résolution des comptes Salesforce: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID           primitive.ObjectID `bson:"_id"`
		SalesforceID string             `bson:"salesforce_id"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("erreur lors du décodage des prestataires: %w", err)
	}
	for _, row := range rows {
		ids[row.SalesforceID] = row.ID
	}
	return ids, nil
}

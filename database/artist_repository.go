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
)

// ArtistFilters décrit les filtres de GET /api/artists
var ArtistFilters = FilterSpec{
	Equals: map[string]string{"genre": "genres"},
	Search: []string{"name", "slug"},
}

// ArtistSorts liste les tris autorisés sur les artistes
var ArtistSorts = []string{"name", "created_at"}

// ArtistRepository gère les opérations sur les artistes
type ArtistRepository struct {
	collection *mongo.Collection
}

// NewArtistRepository crée une nouvelle instance de ArtistRepository
func NewArtistRepository(db *mongo.Database) *ArtistRepository {
	return &ArtistRepository{collection: db.Collection(CollectionArtists)}
}

// Create crée un artiste
func (r *ArtistRepository) Create(ctx context.Context, a *models.Artist) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now().UTC()
	a.ID = primitive.NewObjectID()
	a.CreatedAt = now
	a.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, a); err != nil {
		return writeError("la création de l'artiste", err)
	}
	return nil
}

// FindByID recherche un artiste par ID
func (r *ArtistRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Artist, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var a models.Artist
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche de l'artiste: %w", err)
	}
	return &a, nil
}

// List retourne une page d'artistes
func (r *ArtistRepository) List(ctx context.Context, q utils.ListQuery) ([]models.Artist, int64, error) {
	filter, err := BuildFilter(q, ArtistFilters)
	if err != nil {
		return nil, 0, err
	}
	return findPage[models.Artist](ctx, r.collection, filter, q)
}

// Update remplace les champs éditables d'un artiste
func (r *ArtistRepository) Update(ctx context.Context, a *models.Artist) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	a.UpdatedAt = time.Now().UTC()
	update := bson.M{BSONSet: bson.M{
		"name":       a.Name,
		"slug":       a.Slug,
		"genres":     a.Genres,
		"bio":        a.Bio,
		"image_url":  a.ImageURL,
		"links":      a.Links,
		"updated_at": a.UpdatedAt,
	}}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": a.ID}, update)
	if err != nil {
		return writeError("la mise à jour de l'artiste", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete supprime un artiste
func (r *ArtistRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("erreur lors de la suppression de l'artiste: %w", err)
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

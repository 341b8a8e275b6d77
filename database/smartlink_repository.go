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

// SmartLinkFilters décrit les filtres de GET /api/smartlinks
var SmartLinkFilters = FilterSpec{
	Equals:    map[string]string{"status": "status"},
	ObjectIDs: map[string]string{"artist": "artist_id"},
	Search:    []string{"title", "slug"},
}

// SmartLinkSorts liste les tris autorisés sur les smartlinks
var SmartLinkSorts = []string{"title", "created_at", "clicks"}

// SmartLinkRepository gère les opérations sur les smartlinks
type SmartLinkRepository struct {
	collection *mongo.Collection
}

// NewSmartLinkRepository crée une nouvelle instance de SmartLinkRepository
func NewSmartLinkRepository(db *mongo.Database) *SmartLinkRepository {
	return &SmartLinkRepository{collection: db.Collection(CollectionSmartLinks)}
}

// Create crée un smartlink
func (r *SmartLinkRepository) Create(ctx context.Context, s *models.SmartLink) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now().UTC()
	s.ID = primitive.NewObjectID()
	s.Clicks = 0
	for i := range s.Platforms {
		s.Platforms[i].Clicks = 0
	}
	s.CreatedAt = now
	s.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, s); err != nil {
		return writeError("la création du smartlink", err)
	}
	return nil
}

// FindByID recherche un smartlink par ID
func (r *SmartLinkRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.SmartLink, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *SmartLinkRepository) findOne(ctx context.Context, filter bson.M) (*models.SmartLink, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var s models.SmartLink
	err := r.collection.FindOne(ctx, filter).Decode(&s)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche du smartlink: %w", err)
	}
	return &s, nil
}

// FindWithArtist retourne le smartlink avec son artiste peuplé
func (r *SmartLinkRepository) FindWithArtist(ctx context.Context, id primitive.ObjectID) (*models.SmartLinkWithArtist, error) {
	return r.findPopulated(ctx, bson.M{"_id": id})
}

// FindPublishedBySlug retourne un smartlink publié pour la page publique
func (r *SmartLinkRepository) FindPublishedBySlug(ctx context.Context, slug string) (*models.SmartLinkWithArtist, error) {
	return r.findPopulated(ctx, bson.M{"slug": slug, "status": models.SmartLinkPublished})
}

func (r *SmartLinkRepository) findPopulated(ctx context.Context, filter bson.M) (*models.SmartLinkWithArtist, error) {
	pipeline := mongo.Pipeline{{{Key: BSONMatch, Value: filter}}}
	pipeline = append(pipeline, lookupOne(CollectionArtists, "artist_id", "artist")...)
	return aggregateOne[models.SmartLinkWithArtist](ctx, r.collection, pipeline)
}

// List retourne une page de smartlinks peuplés
func (r *SmartLinkRepository) List(ctx context.Context, q utils.ListQuery) ([]models.SmartLinkWithArtist, int64, error) {
	filter, err := BuildFilter(q, SmartLinkFilters)
	if err != nil {
		return nil, 0, err
	}
	return aggregatePage[models.SmartLinkWithArtist](ctx, r.collection, filter, q, lookupOne(CollectionArtists, "artist_id", "artist"))
}

// Update remplace les champs éditables d'un smartlink. Les compteurs de clics
// sont relus dans le document stocké au moment de l'écriture: un clic enregistré
// entre la lecture du handler et cette mise à jour n'est pas perdu.
// s reçoit les compteurs à jour.
func (r *SmartLinkRepository) Update(ctx context.Context, s *models.SmartLink) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	s.UpdatedAt = time.Now().UTC()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var stored models.SmartLink
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": s.ID}, smartLinkUpdatePipeline(s), opts).Decode(&stored)
	if err == mongo.ErrNoDocuments {
		return models.ErrNotFound
	}
	if err != nil {
		return writeError("la mise à jour du smartlink", err)
	}
	s.Platforms = stored.Platforms
	s.Clicks = stored.Clicks
	return nil
}

// smartLinkUpdatePipeline construit la mise à jour en pipeline d'agrégation.
// Les chaînes saisies passent par $literal pour qu'un "$" initial ne soit
// pas lu comme un chemin de champ.
func smartLinkUpdatePipeline(s *models.SmartLink) mongo.Pipeline {
	var releaseDate interface{}
	if s.ReleaseDate != nil {
		releaseDate = s.ReleaseDate
	}
	return mongo.Pipeline{{{Key: BSONSet, Value: bson.M{
		"artist_id":    s.ArtistID,
		"title":        literal(s.Title),
		"slug":         literal(s.Slug),
		"platforms":    mergedPlatforms(s.Platforms),
		"cover_image":  literal(s.CoverImage),
		"release_date": literal(releaseDate),
		"status":       literal(s.Status),
		"updated_at":   s.UpdatedAt,
	}}}}
}

// mergedPlatforms reprend la liste envoyée (plateforme, URL) et recopie pour
// chaque plateforme le compteur stocké; une nouvelle plateforme démarre à 0.
func mergedPlatforms(platforms []models.PlatformLink) bson.A {
	out := make(bson.A, 0, len(platforms))
	for _, p := range platforms {
		out = append(out, bson.M{
			"platform": literal(p.Platform),
			"url":      literal(p.URL),
			"clicks":   storedPlatformClicks(p.Platform),
		})
	}
	return out
}

func storedPlatformClicks(platform string) bson.M {
	return bson.M{"$sum": bson.M{"$map": bson.M{
		"input": bson.M{"$filter": bson.M{
			"input": bson.M{"$ifNull": bson.A{"$platforms", bson.A{}}},
			"as":    "p",
			"cond":  bson.M{"$eq": bson.A{"$$p.platform", literal(platform)}},
		}},
		"as": "p",
		"in": "$$p.clicks",
	}}}
}

func literal(v interface{}) bson.M {
	return bson.M{BSONLiteral: v}
}

// Delete supprime un smartlink
func (r *SmartLinkRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("erreur lors de la suppression du smartlink: %w", err)
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// CountByArtist compte les smartlinks d'un artiste
func (r *SmartLinkRepository) CountByArtist(ctx context.Context, artistID primitive.ObjectID) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	n, err := r.collection.CountDocuments(ctx, bson.M{"artist_id": artistID})
	if err != nil {
		return 0, fmt.Errorf("erreur lors du comptage des smartlinks: %w", err)
	}
	return n, nil
}

// RecordClick incrémente atomiquement le total et le compteur de la plateforme
func (r *SmartLinkRepository) RecordClick(ctx context.Context, slug, platform string) (*models.SmartLink, error) {
	opCtx, cancel := withTimeout(ctx)
	defer cancel()

	filter := bson.M{"slug": slug, "status": models.SmartLinkPublished, "platforms.platform": platform}
	update := bson.M{BSONInc: bson.M{"clicks": 1, "platforms.$.clicks": 1}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var s models.SmartLink
	err := r.collection.FindOneAndUpdate(opCtx, filter, update, opts).Decode(&s)
	if err == mongo.ErrNoDocuments {
		published, ferr := r.findOne(ctx, bson.M{"slug": slug, "status": models.SmartLinkPublished})
		if ferr != nil {
			return nil, ferr
		}
		if published == nil {
			return nil, models.ErrNotFound
		}
		return nil, models.ErrSmartLinkNoTarget
	}
	if err != nil {
		return nil, fmt.Errorf("erreur lors de l'enregistrement du clic: %w", err)
	}
	return &s, nil
}

// Stats calcule les compteurs du tableau de bord des smartlinks
func (r *SmartLinkRepository) Stats(ctx context.Context) (*models.SmartLinkStats, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	total, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("erreur lors du comptage des smartlinks: %w", err)
	}

	cursor, err := r.collection.Aggregate(ctx, mongo.Pipeline{
		{{Key: BSONUnwind, Value: "$platforms"}},
		{{Key: BSONGroup, Value: bson.M{"_id": "$platforms.platform", "clicks": bson.M{"$sum": "$platforms.clicks"}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("erreur lors de l'agrégation des clics: %w", err)
	}
	var byPlatform []struct {
		Platform string `bson:"_id"`
		Clicks   int64  `bson:"clicks"`
	}
	if err = cursor.All(ctx, &byPlatform); err != nil {
		return nil, fmt.Errorf("erreur lors du décodage des clics: %w", err)
	}

	stats := &models.SmartLinkStats{
		TotalLinks:       total,
		ClicksByPlatform: make(map[string]int64, len(models.Platforms)),
		GeneratedAt:      time.Now().UTC(),
	}
	for _, p := range byPlatform {
		stats.ClicksByPlatform[p.Platform] = p.Clicks
		stats.TotalClicks += p.Clicks
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "clicks", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(5).
		SetProjection(bson.M{"title": 1, "slug": 1, "clicks": 1})
	top, err := r.collection.Find(ctx, bson.M{"clicks": bson.M{"$gt": 0}}, opts)
	if err != nil {
		return nil, fmt.Errorf("erreur lors du classement des smartlinks: %w", err)
	}
	stats.TopLinks = []models.SmartLinkTop{}
	if err = top.All(ctx, &stats.TopLinks); err != nil {
		return nil, fmt.Errorf("erreur lors du décodage du classement: %w", err)
	}
	return stats, nil
}

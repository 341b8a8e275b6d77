package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"offerhub-backend/models"
	"offerhub-backend/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// OfferFilters décrit les filtres de GET /api/offers (active=true est traité à part)
var OfferFilters = FilterSpec{
	Equals:    map[string]string{"status": "status"},
	ObjectIDs: map[string]string{"provider": "provider_id"},
	Search:    []string{"title", "code"},
}

// OfferSorts liste les tris autorisés sur les offres
var OfferSorts = []string{"created_at", "valid_until", "uses_count", "title"}

// OfferActiveFilter sélectionne les offres actives et valides à l'instant now
func OfferActiveFilter(now time.Time) bson.M {
	return bson.M{
		"status":      models.OfferActive,
		"valid_from":  bson.M{"$lte": now},
		"valid_until": bson.M{"$gte": now},
	}
}

// offerUsableFilter ajoute la contrainte de quota à OfferActiveFilter
func offerUsableFilter(id primitive.ObjectID, now time.Time) bson.M {
	filter := OfferActiveFilter(now)
	filter["_id"] = id
	filter["$or"] = bson.A{
		bson.M{"max_uses": 0},
		bson.M{"$expr": bson.M{"$lt": bson.A{"$uses_count", "$max_uses"}}},
	}
	return filter
}

// OfferRepository gère les opérations sur les offres et leurs utilisations
type OfferRepository struct {
	collection *mongo.Collection
	usages     *mongo.Collection
}

// NewOfferRepository crée une nouvelle instance de OfferRepository
func NewOfferRepository(db *mongo.Database) *OfferRepository {
	return &OfferRepository{
		collection: db.Collection(CollectionOffers),
		usages:     db.Collection(CollectionOfferUsages),
	}
}

// Create crée une offre
func (r *OfferRepository) Create(ctx context.Context, o *models.Offer) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now().UTC()
	o.ID = primitive.NewObjectID()
	o.UsesCount = 0
	o.CreatedAt = now
	o.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, o); err != nil {
		return writeError("la création de l'offre", err)
	}
	return nil
}

// FindByID recherche une offre par ID
func (r *OfferRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Offer, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var o models.Offer
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&o)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche de l'offre: %w", err)
	}
	return &o, nil
}

// FindWithProvider retourne l'offre avec son prestataire peuplé
func (r *OfferRepository) FindWithProvider(ctx context.Context, id primitive.ObjectID) (*models.OfferWithProvider, error) {
	pipeline := mongo.Pipeline{{{Key: BSONMatch, Value: bson.M{"_id": id}}}}
	pipeline = append(pipeline, lookupOne(CollectionProviders, "provider_id", "provider")...)
	return aggregateOne[models.OfferWithProvider](ctx, r.collection, pipeline)
}

// List retourne une page d'offres peuplées
func (r *OfferRepository) List(ctx context.Context, q utils.ListQuery, now time.Time) ([]models.OfferWithProvider, int64, error) {
	filter, err := BuildFilter(q, OfferFilters)
	if err != nil {
		return nil, 0, err
	}
	if q.Filter("active") == "true" {
		for k, v := range OfferActiveFilter(now) {
			filter[k] = v
		}
	}
	return aggregatePage[models.OfferWithProvider](ctx, r.collection, filter, q, lookupOne(CollectionProviders, "provider_id", "provider"))
}

// Update remplace les champs éditables d'une offre (uses_count n'est jamais écrasé)
func (r *OfferRepository) Update(ctx context.Context, o *models.Offer) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	o.UpdatedAt = time.Now().UTC()
	set := bson.M{
		"provider_id":    o.ProviderID,
		"title":          o.Title,
		"description":    o.Description,
		"discount_type":  o.DiscountType,
		"discount_value": o.DiscountValue,
		"valid_from":     o.ValidFrom,
		"valid_until":    o.ValidUntil,
		"max_uses":       o.MaxUses,
		"status":         o.Status,
		"updated_at":     o.UpdatedAt,
	}
	update := bson.M{BSONSet: set}
	// un code vide est retiré pour rester compatible avec l'index unique sparse
	if o.Code == "" {
		update["$unset"] = bson.M{"code": ""}
	} else {
		set["code"] = o.Code
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": o.ID}, update)
	if err != nil {
		return writeError("la mise à jour de l'offre", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete supprime une offre
func (r *OfferRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("erreur lors de la suppression de l'offre: %w", err)
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// CountByProvider compte les offres rattachées à un prestataire
func (r *OfferRepository) CountByProvider(ctx context.Context, providerID primitive.ObjectID) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	n, err := r.collection.CountDocuments(ctx, bson.M{"provider_id": providerID})
	if err != nil {
		return 0, fmt.Errorf("erreur lors du comptage des offres: %w", err)
	}
	return n, nil
}

// Use incrémente atomiquement uses_count si l'offre est utilisable à now
// et trace l'utilisation. Retourne ErrNotFound, ErrOfferExhausted ou
// ErrOfferUnavailable sinon.
func (r *OfferRepository) Use(ctx context.Context, id, userID primitive.ObjectID, now time.Time) (*models.Offer, error) {
	opCtx, cancel := withTimeout(ctx)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{
		BSONInc: bson.M{"uses_count": 1},
		BSONSet: bson.M{"updated_at": now},
	}

	var offer models.Offer
	err := r.collection.FindOneAndUpdate(opCtx, offerUsableFilter(id, now), update, opts).Decode(&offer)
	if err == mongo.ErrNoDocuments {
		return nil, r.diagnoseUnusable(ctx, id, now)
	}
	if err != nil {
		return nil, fmt.Errorf("erreur lors de l'utilisation de l'offre: %w", err)
	}

	usage := models.OfferUsage{ID: primitive.NewObjectID(), OfferID: id, UserID: userID, UsedAt: now}
	if _, err := r.usages.InsertOne(opCtx, usage); err != nil {
		// le compteur fait foi; l'historique est best-effort
		log.Printf("⚠️  Utilisation de l'offre %s non historisée: %v", id.Hex(), err)
	}
	return &offer, nil
}

func (r *OfferRepository) diagnoseUnusable(ctx context.Context, id primitive.ObjectID, now time.Time) error {
	current, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return models.ErrNotFound
	}
	if err := current.UsableAt(now); err != nil {
		return err
	}
	// utilisable à la relecture: une autre requête a pris la dernière place entre-temps
	return models.ErrOfferExhausted
}

// UpsertBySalesforceID crée ou met à jour l'offre liée à un Offer__c Salesforce
func (r *OfferRepository) UpsertBySalesforceID(ctx context.Context, o *models.Offer) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now().UTC()
	set := bson.M{
		"provider_id":    o.ProviderID,
		"title":          o.Title,
		"description":    o.Description,
		"discount_type":  o.DiscountType,
		"discount_value": o.DiscountValue,
		"valid_from":     o.ValidFrom,
		"valid_until":    o.ValidUntil,
		"max_uses":       o.MaxUses,
		"status":         o.Status,
		"updated_at":     now,
	}
	if o.Code != "" {
		set["code"] = o.Code
	}
	update := bson.M{
		BSONSet:        set,
		"$setOnInsert": bson.M{"created_at": now, "uses_count": 0},
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"salesforce_id": o.SalesforceID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return false, writeError("la synchronisation de l'offre "+o.SalesforceID, err)
	}
	return res.UpsertedCount > 0, nil
}

// Stats calcule les compteurs du tableau de bord des offres
func (r *OfferRepository) Stats(ctx context.Context) (*models.OfferStats, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cursor, err := r.collection.Aggregate(ctx, mongo.Pipeline{
		{{Key: BSONGroup, Value: bson.M{
			"_id":   "$status",
			"count": bson.M{"$sum": 1},
			"uses":  bson.M{"$sum": "$uses_count"},
		}}},
	})
	if err != nil {
		return nil, fmt.Errorf("erreur lors de l'agrégation des offres: %w", err)
	}
	var groups []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
		Uses   int64  `bson:"uses"`
	}
	if err = cursor.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("erreur lors du décodage des statistiques: %w", err)
	}

	stats := &models.OfferStats{ByStatus: make(map[string]int64, len(models.OfferStatuses)), GeneratedAt: time.Now().UTC()}
	for _, s := range models.OfferStatuses {
		stats.ByStatus[s] = 0
	}
	for _, g := range groups {
		stats.ByStatus[g.Status] = g.Count
		stats.Total += g.Count
		stats.TotalUses += g.Uses
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "uses_count", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(5).
		SetProjection(bson.M{"title": 1, "code": 1, "uses_count": 1})
	top, err := r.collection.Find(ctx, bson.M{"uses_count": bson.M{"$gt": 0}}, opts)
	if err != nil {
		return nil, fmt.Errorf("erreur lors du classement des offres: %w", err)
	}
	stats.TopOffers = []models.OfferTop{}
	if err = top.All(ctx, &stats.TopOffers); err != nil {
		return nil, fmt.Errorf("erreur lors du décodage du classement: %w", err)
	}
	return stats, nil
}

package database

import (
	"context"
	"fmt"
	"time"

	"offerhub-backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DeviceRepository gère les tokens FCM des appareils
type DeviceRepository struct {
	collection *mongo.Collection
}

// NewDeviceRepository crée une nouvelle instance de DeviceRepository
func NewDeviceRepository(db *mongo.Database) *DeviceRepository {
	return &DeviceRepository{collection: db.Collection(CollectionDevices)}
}

// Upsert enregistre le token; un token déjà connu est réattribué à l'utilisateur courant
func (r *DeviceRepository) Upsert(ctx context.Context, d *models.DeviceToken) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now().UTC()
	update := bson.M{
		BSONSet: bson.M{
			"user_id":    d.UserID,
			"role":       d.Role,
			"platform":   d.Platform,
			"user_agent": d.UserAgent,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{"_id": primitive.NewObjectID(), "created_at": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"token": d.Token}, update, opts).Decode(d); err != nil {
		return fmt.Errorf("erreur lors de l'enregistrement du token: %w", err)
	}
	return nil
}

// Delete supprime un token appartenant à l'utilisateur
func (r *DeviceRepository) Delete(ctx context.Context, userID primitive.ObjectID, token string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.collection.DeleteOne(ctx, bson.M{"token": token, "user_id": userID})
	if err != nil {
		return fmt.Errorf("erreur lors de la suppression du token: %w", err)
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// TokensByRoles retourne les tokens des utilisateurs ayant l'un des rôles
func (r *DeviceRepository) TokensByRoles(ctx context.Context, roles []string) ([]string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{"token": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"role": bson.M{"$in": roles}}, opts)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche des tokens: %w", err)
	}
	defer cursor.Close(ctx)

	var devices []models.DeviceToken
	if err = cursor.All(ctx, &devices); err != nil {
		return nil, fmt.Errorf("erreur lors du décodage des tokens: %w", err)
	}
	tokens := make([]string, 0, len(devices))
	for _, d := range devices {
		tokens = append(tokens, d.Token)
	}
	return tokens, nil
}

// DeleteTokens purge les tokens refusés par FCM
func (r *DeviceRepository) DeleteTokens(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if _, err := r.collection.DeleteMany(ctx, bson.M{"token": bson.M{"$in": tokens}}); err != nil {
		return fmt.Errorf("erreur lors de la purge des tokens: %w", err)
	}
	return nil
}

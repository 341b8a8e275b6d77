package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Noms des collections
const (
	CollectionUsers       = "users"
	CollectionProviders   = "providers"
	CollectionOffers      = "offers"
	CollectionOfferUsages = "offer_usages"
	CollectionArtists     = "artists"
	CollectionSmartLinks  = "smartlinks"
	CollectionEvents      = "report_events"
	CollectionSyncRuns    = "sync_runs"
	CollectionDevices     = "device_tokens"
)

// DB est l'instance de connexion à la base de données MongoDB
var DB *mongo.Database
var Client *mongo.Client

// Connect établit la connexion à la base de données MongoDB
func Connect(uri, dbName string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("erreur lors de la connexion à MongoDB: %w", err)
	}

	if err = client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("erreur lors du ping MongoDB: %w", err)
	}

	Client = client
	DB = client.Database(dbName)

	log.Println("✓ Connexion à MongoDB établie")

	if err = createIndexes(DB); err != nil {
		return fmt.Errorf("erreur lors de la création des index: %w", err)
	}

	return nil
}

// Ping vérifie que la connexion MongoDB est active
func Ping(ctx context.Context) error {
	if Client == nil {
		return fmt.Errorf("client MongoDB non initialisé")
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return Client.Ping(ctx, nil)
}

// Close ferme la connexion à la base de données
func Close() error {
	if Client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return Client.Disconnect(ctx)
	}
	return nil
}

// collectionIndexes liste les index de chaque collection
func collectionIndexes() map[string][]mongo.IndexModel {
	unique := func(keys bson.D) mongo.IndexModel {
		return mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true)}
	}
	uniqueSparse := func(keys bson.D) mongo.IndexModel {
		return mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true).SetSparse(true)}
	}
	plain := func(keys bson.D) mongo.IndexModel {
		return mongo.IndexModel{Keys: keys}
	}

	return map[string][]mongo.IndexModel{
		CollectionUsers: {
			unique(bson.D{{Key: "email", Value: 1}}),
			plain(bson.D{{Key: "role", Value: 1}}),
		},
		CollectionProviders: {
			uniqueSparse(bson.D{{Key: "salesforce_id", Value: 1}}),
			plain(bson.D{{Key: "status", Value: 1}}),
			plain(bson.D{{Key: "category", Value: 1}}),
		},
		CollectionOffers: {
			uniqueSparse(bson.D{{Key: "code", Value: 1}}),
			uniqueSparse(bson.D{{Key: "salesforce_id", Value: 1}}),
			plain(bson.D{{Key: "provider_id", Value: 1}}),
			plain(bson.D{{Key: "status", Value: 1}, {Key: "valid_until", Value: 1}}),
		},
		CollectionOfferUsages: {
			plain(bson.D{{Key: "offer_id", Value: 1}, {Key: "used_at", Value: -1}}),
		},
		CollectionArtists: {
			unique(bson.D{{Key: "slug", Value: 1}}),
		},
		CollectionSmartLinks: {
			unique(bson.D{{Key: "slug", Value: 1}}),
			plain(bson.D{{Key: "artist_id", Value: 1}}),
		},
		CollectionEvents: {
			plain(bson.D{{Key: "type", Value: 1}, {Key: "occurred_at", Value: -1}}),
			plain(bson.D{{Key: "occurred_at", Value: -1}}),
		},
		CollectionSyncRuns: {
			plain(bson.D{{Key: "started_at", Value: -1}}),
		},
		CollectionDevices: {
			unique(bson.D{{Key: "token", Value: 1}}),
			plain(bson.D{{Key: "role", Value: 1}}),
		},
	}
}

// createIndexes crée les index nécessaires
func createIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for name, idx := range collectionIndexes() {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("index %s: %w", name, err)
		}
	}

	log.Println("✓ Index MongoDB créés")
	return nil
}

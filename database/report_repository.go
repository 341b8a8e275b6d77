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

// ReportFilters décrit les filtres de GET /api/reports/events
var ReportFilters = FilterSpec{
	Equals:    map[string]string{"type": "type", "source": "source"},
	ObjectIDs: map[string]string{"user": "user_id"},
	DateField: "occurred_at",
}

// ReportSorts liste les tris autorisés sur les événements
var ReportSorts = []string{"occurred_at", "type", "created_at"}

// ReportRepository gère le store d'événements de reporting
type ReportRepository struct {
	collection *mongo.Collection
}

// NewReportRepository crée une nouvelle instance de ReportRepository
func NewReportRepository(db *mongo.Database) *ReportRepository {
	return &ReportRepository{collection: db.Collection(CollectionEvents)}
}

// InsertMany insère un lot d'événements déjà validés
func (r *ReportRepository) InsertMany(ctx context.Context, events []models.ReportEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	docs := make([]interface{}, len(events))
	for i := range events {
		events[i].ID = primitive.NewObjectID()
		docs[i] = events[i]
	}

	res, err := r.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil {
		inserted := 0
		if res != nil {
			inserted = len(res.InsertedIDs)
		}
		return inserted, fmt.Errorf("erreur lors de l'insertion des événements: %w", err)
	}
	return len(res.InsertedIDs), nil
}

// List retourne une page d'événements
func (r *ReportRepository) List(ctx context.Context, q utils.ListQuery) ([]models.ReportEvent, int64, error) {
	filter, err := BuildFilter(q, ReportFilters)
	if err != nil {
		return nil, 0, err
	}
	return findPage[models.ReportEvent](ctx, r.collection, filter, q)
}

// summaryPipeline compte les événements par jour (UTC) et par type
func summaryPipeline(from, to time.Time) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: BSONMatch, Value: bson.M{"occurred_at": bson.M{"$gte": from, "$lte": to}}}},
		{{Key: BSONGroup, Value: bson.M{
			"_id": bson.M{
				"day":  bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$occurred_at"}},
				"type": "$type",
			},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$project", Value: bson.M{"_id": 0, "day": "$_id.day", "type": "$_id.type", "count": 1}}},
		{{Key: BSONSort, Value: bson.D{{Key: "day", Value: 1}, {Key: "type", Value: 1}}}},
	}
}

// Summary agrège les événements entre from et to
func (r *ReportRepository) Summary(ctx context.Context, from, to time.Time) (*models.ReportSummary, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cursor, err := r.collection.Aggregate(ctx, summaryPipeline(from, to))
	if err != nil {
		return nil, fmt.Errorf("erreur lors de l'agrégation des événements: %w", err)
	}

	summary := &models.ReportSummary{From: from, To: to, Rows: []models.ReportSummaryRow{}}
	if err = cursor.All(ctx, &summary.Rows); err != nil {
		return nil, fmt.Errorf("erreur lors du décodage du résumé: %w", err)
	}
	for _, row := range summary.Rows {
		summary.Total += row.Count
	}
	return summary, nil
}

package database

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"offerhub-backend/models"
	"offerhub-backend/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const queryTimeout = 5 * time.Second

// withTimeout borne la durée d'une requête MongoDB
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, queryTimeout)
}

// FilterSpec décrit les filtres autorisés d'un endpoint de liste.
// Les maps associent le paramètre de query string au champ MongoDB.
type FilterSpec struct {
	Equals    map[string]string
	Bools     map[string]string
	ObjectIDs map[string]string
	Search    []string
	DateField string
}

// BuildFilter traduit une ListQuery en filtre MongoDB. Les paramètres hors
// FilterSpec sont ignorés; une valeur mal formée donne une erreur de validation.
func BuildFilter(q utils.ListQuery, spec FilterSpec) (bson.M, error) {
	filter := bson.M{}
	var errs utils.ValidationErrors

	for param, field := range spec.Equals {
		if v := q.Filter(param); v != "" {
			filter[field] = v
		}
	}
	for param, field := range spec.Bools {
		if v := q.Filter(param); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs.Add(utils.ValidationError{Field: param, Message: "booléen attendu"})
				continue
			}
			filter[field] = b
		}
	}
	for param, field := range spec.ObjectIDs {
		if v := q.Filter(param); v != "" {
			id, err := primitive.ObjectIDFromHex(v)
			if err != nil {
				errs.Add(utils.ValidationError{Field: param, Message: "identifiant invalide"})
				continue
			}
			filter[field] = id
		}
	}

	if q.Search != "" && len(spec.Search) > 0 {
		pattern := regexp.QuoteMeta(q.Search)
		or := make(bson.A, 0, len(spec.Search))
		for _, field := range spec.Search {
			or = append(or, bson.M{field: bson.M{BSONRegex: pattern, BSONOptions: "i"}})
		}
		filter["$or"] = or
	}

	if spec.DateField != "" {
		dateRange := bson.M{}
		if from, ok := parseDateFilter(q.Filter("from"), "from", &errs); ok {
			dateRange["$gte"] = from
		}
		if to, ok := parseDateFilter(q.Filter("to"), "to", &errs); ok {
			// "to=2025-06-30" inclut toute la journée
			if len(q.Filter("to")) == len("2006-01-02") {
				to = to.Add(24*time.Hour - time.Nanosecond)
			}
			dateRange["$lte"] = to
		}
		if len(dateRange) > 0 {
			filter[spec.DateField] = dateRange
		}
	}

	if err := errs.OrNil(); err != nil {
		return nil, err
	}
	return filter, nil
}

func parseDateFilter(raw, field string, errs *utils.ValidationErrors) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	ft, err := models.ParseFlexibleTime(raw)
	if err != nil {
		errs.Add(utils.ValidationError{Field: field, Message: "date invalide"})
		return time.Time{}, false
	}
	return ft.Time, true
}

// SortDoc retourne le tri de la requête, départagé par _id pour une pagination stable
func SortDoc(q utils.ListQuery) bson.D {
	dir := 1
	if q.SortDesc {
		dir = -1
	}
	if q.Sort == "" || q.Sort == "_id" {
		return bson.D{{Key: "_id", Value: dir}}
	}
	return bson.D{{Key: q.Sort, Value: dir}, {Key: "_id", Value: dir}}
}

// FindOptions applique skip, limit et tri
func FindOptions(q utils.ListQuery) *options.FindOptions {
	return options.Find().
		SetSkip(q.Skip()).
		SetLimit(int64(q.Limit)).
		SetSort(SortDoc(q))
}

// findPage exécute une requête paginée et le comptage associé
func findPage[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, q utils.ListQuery) ([]T, int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("erreur lors du comptage: %w", err)
	}

	cursor, err := coll.Find(ctx, filter, FindOptions(q))
	if err != nil {
		return nil, 0, fmt.Errorf("erreur lors de la recherche: %w", err)
	}
	defer cursor.Close(ctx)

	items := []T{}
	if err = cursor.All(ctx, &items); err != nil {
		return nil, 0, fmt.Errorf("erreur lors du décodage: %w", err)
	}
	return items, total, nil
}

// writeError traduit les erreurs d'écriture du driver
func writeError(action string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", action, models.ErrDuplicate)
	}
	return fmt.Errorf("erreur lors de %s: %w", action, err)
}

// lookupOne peuple un champ référencé (équivalent du populate) dans un pipeline
func lookupOne(from, localField, as string) []bson.D {
	return []bson.D{
		{{Key: BSONLookup, Value: bson.M{"from": from, "localField": localField, "foreignField": "_id", "as": as}}},
		{{Key: BSONUnwind, Value: bson.M{"path": "$" + as, "preserveNullAndEmptyArrays": true}}},
	}
}

// aggregatePage pagine puis peuple via $lookup; le total est compté sur le filtre seul
func aggregatePage[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, q utils.ListQuery, lookups []bson.D) ([]T, int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("erreur lors du comptage: %w", err)
	}

	pipeline := mongo.Pipeline{
		{{Key: BSONMatch, Value: filter}},
		{{Key: BSONSort, Value: SortDoc(q)}},
		{{Key: BSONSkip, Value: q.Skip()}},
		{{Key: BSONLimit, Value: int64(q.Limit)}},
	}
	pipeline = append(pipeline, lookups...)

	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, fmt.Errorf("erreur lors de l'agrégation: %w", err)
	}
	defer cursor.Close(ctx)

	items := []T{}
	if err = cursor.All(ctx, &items); err != nil {
		return nil, 0, fmt.Errorf("erreur lors du décodage: %w", err)
	}
	return items, total, nil
}

// aggregateOne exécute un pipeline et décode le premier document (nil si aucun)
func aggregateOne[T any](ctx context.Context, coll *mongo.Collection, pipeline mongo.Pipeline) (*T, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de l'agrégation: %w", err)
	}
	defer cursor.Close(ctx)

	if !cursor.Next(ctx) {
		return nil, cursor.Err()
	}
	var item T
	if err := cursor.Decode(&item); err != nil {
		return nil, fmt.Errorf("erreur lors du décodage: %w", err)
	}
	return &item, nil
}

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

// UserFilters décrit les filtres de GET /api/users
var UserFilters = FilterSpec{
	Equals: map[string]string{"role": "role"},
	Bools:  map[string]string{"active": "active"},
	Search: []string{"name", "email"},
}

// UserSorts liste les tris autorisés sur les utilisateurs
var UserSorts = []string{"name", "email", "created_at", "last_login_at"}

// UserRepository gère les opérations sur les utilisateurs
type UserRepository struct {
	collection *mongo.Collection
}

// NewUserRepository crée une nouvelle instance de UserRepository
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		collection: db.Collection(CollectionUsers),
	}
}

// Create crée un nouvel utilisateur
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now().UTC()
	user.ID = primitive.NewObjectID()
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, user); err != nil {
		return writeError("la création de l'utilisateur", err)
	}
	return nil
}

// FindByEmail recherche un utilisateur par email
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// FindByID recherche un utilisateur par ID
func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var user models.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche de l'utilisateur: %w", err)
	}
	return &user, nil
}

// List retourne une page d'utilisateurs
func (r *UserRepository) List(ctx context.Context, q utils.ListQuery) ([]models.User, int64, error) {
	filter, err := BuildFilter(q, UserFilters)
	if err != nil {
		return nil, 0, err
	}
	return findPage[models.User](ctx, r.collection, filter, q)
}

// Update met à jour nom, rôle, statut et mot de passe
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	user.UpdatedAt = time.Now().UTC()
	update := bson.M{
		BSONSet: bson.M{
			"name":       user.Name,
			"role":       user.Role,
			"active":     user.Active,
			"password":   user.Password,
			"updated_at": user.UpdatedAt,
		},
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": user.ID}, update)
	if err != nil {
		return writeError("la mise à jour de l'utilisateur", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// TouchLogin enregistre la date de dernière connexion
func (r *UserRepository) TouchLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{BSONSet: bson.M{"last_login_at": at}})
	if err != nil {
		return fmt.Errorf("erreur mise à jour last_login_at: %w", err)
	}
	return nil
}

// Delete supprime un utilisateur
func (r *UserRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("erreur lors de la suppression de l'utilisateur: %w", err)
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

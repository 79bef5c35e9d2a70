package repositories

import (
	"context"

	"github.com/anonto42/bazaar/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FavoriteRepository defines the interface for favorite operations
type FavoriteRepository interface {
	// CreateFavorite returns ErrDuplicate when the (user, product) pair already exists
	CreateFavorite(ctx context.Context, favorite *models.Favorite) error
	IsFavorite(ctx context.Context, userID, productID string) (bool, error)
	// DeleteFavorite reports how many records were removed (0 or 1)
	DeleteFavorite(ctx context.Context, userID, productID string) (int64, error)
	GetFavoritesByUser(ctx context.Context, userID string) ([]models.Favorite, error)
	GetUserIDsByProduct(ctx context.Context, productID string) ([]string, error)
}

// MongoFavoriteRepository implements FavoriteRepository for MongoDB
type MongoFavoriteRepository struct {
	collection *mongo.Collection
}

func NewMongoFavoriteRepository(db *mongo.Database) *MongoFavoriteRepository {
	return &MongoFavoriteRepository{collection: db.Collection(favoritesCollection)}
}

func (r *MongoFavoriteRepository) CreateFavorite(ctx context.Context, favorite *models.Favorite) error {
	favorite.ID = primitive.NewObjectID()
	_, err := r.collection.InsertOne(ctx, favorite)
	return mongoErr(err)
}

func (r *MongoFavoriteRepository) IsFavorite(ctx context.Context, userID, productID string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx,
		bson.M{"user_id": userID, "product_id": productID},
		options.Count().SetLimit(1),
	)
	return count > 0, err
}

func (r *MongoFavoriteRepository) DeleteFavorite(ctx context.Context, userID, productID string) (int64, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"user_id": userID, "product_id": productID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *MongoFavoriteRepository) GetFavoritesByUser(ctx context.Context, userID string) ([]models.Favorite, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	favorites := []models.Favorite{}
	if err = cursor.All(ctx, &favorites); err != nil {
		return nil, err
	}
	return favorites, nil
}

func (r *MongoFavoriteRepository) GetUserIDsByProduct(ctx context.Context, productID string) ([]string, error) {
	values, err := r.collection.Distinct(ctx, "user_id", bson.M{"product_id": productID})
	if err != nil {
		return nil, err
	}
	userIDs := make([]string, 0, len(values))
	for _, v := range values {
		if id, ok := v.(string); ok {
			userIDs = append(userIDs, id)
		}
	}
	return userIDs, nil
}

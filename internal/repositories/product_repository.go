package repositories

import (
	"context"
	"time"

	"github.com/anonto42/bazaar/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProductFilter narrows product listings; zero fields are ignored
type ProductFilter struct {
	SellerID string
	Status   string
	Category string
}

// ProductRepository defines the interface for the product catalog
type ProductRepository interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	GetProductByID(ctx context.Context, id string) (*models.Product, error)
	GetProductsByIDs(ctx context.Context, ids []string) ([]models.Product, error)
	GetProducts(ctx context.Context, filter ProductFilter, skip, limit int64) ([]models.Product, error)
	UpdateProduct(ctx context.Context, id string, product *models.Product) error
	SetStatus(ctx context.Context, id, status string) error
	DeleteProduct(ctx context.Context, id string) error
	IncrementFavoritesCount(ctx context.Context, id string, delta int) error
}

// MongoProductRepository implements ProductRepository for MongoDB
type MongoProductRepository struct {
	collection *mongo.Collection
}

// NewMongoProductRepository creates a new MongoProductRepository
func NewMongoProductRepository(db *mongo.Database) *MongoProductRepository {
	return &MongoProductRepository{collection: db.Collection(productsCollection)}
}

// CreateProduct creates a new product in MongoDB
func (r *MongoProductRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	product.ID = primitive.NewObjectID()
	product.CreatedAt = time.Now()
	product.UpdatedAt = product.CreatedAt
	if product.Status == "" {
		product.Status = models.ProductStatusActive
	}
	_, err := r.collection.InsertOne(ctx, product)
	return mongoErr(err)
}

// GetProductByID retrieves a product by ID from MongoDB
func (r *MongoProductRepository) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	objID, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var product models.Product
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&product); err != nil {
		return nil, mongoErr(err)
	}
	return &product, nil
}

// GetProductsByIDs resolves ids in one query; unknown or malformed ids are skipped
func (r *MongoProductRepository) GetProductsByIDs(ctx context.Context, ids []string) ([]models.Product, error) {
	objIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if objID, err := objectID(id); err == nil {
			objIDs = append(objIDs, objID)
		}
	}
	products := []models.Product{}
	if len(objIDs) == 0 {
		return products, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": objIDs}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProducts lists products newest first with pagination
func (r *MongoProductRepository) GetProducts(ctx context.Context, filter ProductFilter, skip, limit int64) ([]models.Product, error) {
	query := bson.M{}
	if filter.SellerID != "" {
		query["seller_id"] = filter.SellerID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}

	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err = cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// UpdateProduct overwrites the editable fields of a product
func (r *MongoProductRepository) UpdateProduct(ctx context.Context, id string, product *models.Product) error {
	objID, err := objectID(id)
	if err != nil {
		return err
	}

	product.UpdatedAt = time.Now()
	update := bson.M{
		"$set": bson.M{
			"title":       product.Title,
			"description": product.Description,
			"price":       product.Price,
			"category":    product.Category,
			"images":      product.Images,
			"updated_at":  product.UpdatedAt,
		},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStatus moves a product between active and sold
func (r *MongoProductRepository) SetStatus(ctx context.Context, id, status string) error {
	objID, err := objectID(id)
	if err != nil {
		return err
	}
	update := bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteProduct deletes a product by ID from MongoDB
func (r *MongoProductRepository) DeleteProduct(ctx context.Context, id string) error {
	objID, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementFavoritesCount adjusts the denormalized favorites counter
func (r *MongoProductRepository) IncrementFavoritesCount(ctx context.Context, id string, delta int) error {
	objID, err := objectID(id)
	if err != nil {
		return err
	}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$inc": bson.M{"favorites_count": delta}})
	return err
}

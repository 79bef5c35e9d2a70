package repositories

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	productsCollection      = "products"
	conversationsCollection = "conversations"
	messagesCollection      = "messages"
	notificationsCollection = "notifications"
	favoritesCollection     = "favorites"
)

// EnsureIndexes creates the MongoDB indexes, including the unique constraints
// conversation de-duplication and favorite idempotency rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		conversationsCollection: {
			{Keys: bson.D{{Key: "conversation_key", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "participants", Value: 1}, {Key: "last_message_at", Value: -1}}},
		},
		messagesCollection: {
			{Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}},
			{Keys: bson.D{{Key: "receiver_id", Value: 1}, {Key: "is_read", Value: 1}}},
		},
		notificationsCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "is_read", Value: 1}}},
		},
		favoritesCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "product_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "product_id", Value: 1}}},
		},
		productsCollection: {
			{Keys: bson.D{{Key: "seller_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		},
	}

	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

var (
	_ ProductRepository      = (*MongoProductRepository)(nil)
	_ ConversationRepository = (*MongoConversationRepository)(nil)
	_ MessageRepository      = (*MongoMessageRepository)(nil)
	_ NotificationRepository = (*MongoNotificationRepository)(nil)
	_ FavoriteRepository     = (*MongoFavoriteRepository)(nil)
	_ UserRepository         = (*PostgresUserRepository)(nil)
)

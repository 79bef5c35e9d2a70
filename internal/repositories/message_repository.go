package repositories

import (
	"context"

	"github.com/anonto42/bazaar/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageRepository defines the interface for message persistence
type MessageRepository interface {
	CreateMessage(ctx context.Context, message *models.Message) error
	// GetMessagesByConversation returns messages oldest first, ties broken by insertion order
	GetMessagesByConversation(ctx context.Context, conversationID primitive.ObjectID) ([]models.Message, error)
	MarkConversationRead(ctx context.Context, conversationID primitive.ObjectID, receiverID string) (int64, error)
	CountUnread(ctx context.Context, receiverID string) (int64, error)
}

// MongoMessageRepository implements MessageRepository for MongoDB
type MongoMessageRepository struct {
	collection *mongo.Collection
}

// NewMongoMessageRepository creates a new MongoMessageRepository
func NewMongoMessageRepository(db *mongo.Database) *MongoMessageRepository {
	return &MongoMessageRepository{collection: db.Collection(messagesCollection)}
}

func (r *MongoMessageRepository) CreateMessage(ctx context.Context, message *models.Message) error {
	message.ID = primitive.NewObjectID()
	_, err := r.collection.InsertOne(ctx, message)
	return mongoErr(err)
}

func (r *MongoMessageRepository) GetMessagesByConversation(ctx context.Context, conversationID primitive.ObjectID) ([]models.Message, error) {
	// created_at is stored at millisecond precision. Equal timestamps fall back to
	// _id, which follows insertion order only for ids minted by one process.
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"conversation_id": conversationID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	messages := []models.Message{}
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *MongoMessageRepository) MarkConversationRead(ctx context.Context, conversationID primitive.ObjectID, receiverID string) (int64, error) {
	filter := bson.M{"conversation_id": conversationID, "receiver_id": receiverID, "is_read": false}
	res, err := r.collection.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *MongoMessageRepository) CountUnread(ctx context.Context, receiverID string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"receiver_id": receiverID, "is_read": false})
}

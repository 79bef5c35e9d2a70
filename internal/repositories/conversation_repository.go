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

// ConversationRepository defines the interface for conversation persistence
type ConversationRepository interface {
	// CreateConversation returns ErrDuplicate when the conversation key is taken
	CreateConversation(ctx context.Context, conversation *models.Conversation) error
	GetConversationByID(ctx context.Context, id string) (*models.Conversation, error)
	GetConversationByKey(ctx context.Context, key string) (*models.Conversation, error)
	GetConversationsByParticipant(ctx context.Context, userID string) ([]models.Conversation, error)
	UpdateLastMessage(ctx context.Context, conversationID, messageID primitive.ObjectID, at time.Time) error
}

// MongoConversationRepository implements ConversationRepository for MongoDB
type MongoConversationRepository struct {
	collection *mongo.Collection
}

// NewMongoConversationRepository creates a new MongoConversationRepository
func NewMongoConversationRepository(db *mongo.Database) *MongoConversationRepository {
	return &MongoConversationRepository{collection: db.Collection(conversationsCollection)}
}

func (r *MongoConversationRepository) CreateConversation(ctx context.Context, conversation *models.Conversation) error {
	conversation.ID = primitive.NewObjectID()
	_, err := r.collection.InsertOne(ctx, conversation)
	return mongoErr(err)
}

func (r *MongoConversationRepository) GetConversationByID(ctx context.Context, id string) (*models.Conversation, error) {
	objID, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var conversation models.Conversation
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&conversation); err != nil {
		return nil, mongoErr(err)
	}
	return &conversation, nil
}

func (r *MongoConversationRepository) GetConversationByKey(ctx context.Context, key string) (*models.Conversation, error) {
	var conversation models.Conversation
	if err := r.collection.FindOne(ctx, bson.M{"conversation_key": key}).Decode(&conversation); err != nil {
		return nil, mongoErr(err)
	}
	return &conversation, nil
}

func (r *MongoConversationRepository) GetConversationsByParticipant(ctx context.Context, userID string) ([]models.Conversation, error) {
	filter := bson.M{"participants": userID, "is_active": true}
	opts := options.Find().SetSort(bson.D{{Key: "last_message_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	conversations := []models.Conversation{}
	if err = cursor.All(ctx, &conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}

func (r *MongoConversationRepository) UpdateLastMessage(ctx context.Context, conversationID, messageID primitive.ObjectID, at time.Time) error {
	update := bson.M{"$set": bson.M{"last_message": messageID, "last_message_at": at}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": conversationID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

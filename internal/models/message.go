package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxMessageLength bounds message content, counted in runes after trimming
const MaxMessageLength = 2000

// Message is a single chat line inside a conversation (MongoDB)
type Message struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ConversationID primitive.ObjectID `json:"conversation_id" bson:"conversation_id"`
	SenderID       string             `json:"sender_id" bson:"sender_id"`
	ReceiverID     string             `json:"receiver_id" bson:"receiver_id"`
	ProductID      string             `json:"product_id" bson:"product_id"` // copied from the conversation
	Content        string             `json:"content" bson:"content"`
	IsRead         bool               `json:"is_read" bson:"is_read"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
}

// SendMessageRequest defines the request body for posting a message
type SendMessageRequest struct {
	Content    string `json:"content" validate:"required"`
	ReceiverID string `json:"receiver_id,omitempty"`
}

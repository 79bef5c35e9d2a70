package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation is a two-party thread about a single product (MongoDB)
type Conversation struct {
	ID              primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Participants    []string            `json:"participants" bson:"participants"`
	ProductID       string              `json:"product_id" bson:"product_id"`
	ConversationKey string              `json:"conversation_key" bson:"conversation_key"` // unique, see services.ConversationKey
	LastMessage     *primitive.ObjectID `json:"last_message,omitempty" bson:"last_message,omitempty"`
	LastMessageAt   time.Time           `json:"last_message_at" bson:"last_message_at"`
	IsActive        bool                `json:"is_active" bson:"is_active"`
	CreatedAt       time.Time           `json:"created_at" bson:"created_at"`
}

// HasParticipant reports whether userID takes part in the conversation
func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the participant that is not userID, or "" when userID is not a member
func (c *Conversation) OtherParticipant(userID string) string {
	if !c.HasParticipant(userID) {
		return ""
	}
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}

// StartConversationRequest opens (or reuses) the thread with a product's seller
type StartConversationRequest struct {
	ProductID string `json:"product_id" validate:"required"`
}

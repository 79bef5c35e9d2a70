package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationType is the closed set of notification kinds
type NotificationType string

const (
	NotificationMessage        NotificationType = "message"
	NotificationFavorite       NotificationType = "favorite"
	NotificationView           NotificationType = "view"
	NotificationSystem         NotificationType = "system"
	NotificationProductSold    NotificationType = "product_sold"
	NotificationProductUpdated NotificationType = "product_updated"
)

// Valid reports whether t is one of the known notification types
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationMessage, NotificationFavorite, NotificationView,
		NotificationSystem, NotificationProductSold, NotificationProductUpdated:
		return true
	}
	return false
}

// Notification represents a user notification (MongoDB)
type Notification struct {
	ID                  primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID              string             `json:"user_id" bson:"user_id"` // owner / recipient
	Type                NotificationType   `json:"type" bson:"type"`
	Title               string             `json:"title" bson:"title"`
	Message             string             `json:"message" bson:"message"`
	IsRead              bool               `json:"is_read" bson:"is_read"`
	Data                NotificationData   `json:"data" bson:"data"`
	RelatedProduct      string             `json:"related_product,omitempty" bson:"related_product,omitempty"`
	RelatedConversation string             `json:"related_conversation,omitempty" bson:"related_conversation,omitempty"`
	RelatedUser         string             `json:"related_user,omitempty" bson:"related_user,omitempty"`
	CreatedAt           time.Time          `json:"created_at" bson:"created_at"`
}

// NotificationData is a tagged union: exactly one variant is set, picked by the notification type.
type NotificationData struct {
	Message  *MessagePayload  `json:"message,omitempty" bson:"message,omitempty"`
	Favorite *FavoritePayload `json:"favorite,omitempty" bson:"favorite,omitempty"`
	Product  *ProductPayload  `json:"product,omitempty" bson:"product,omitempty"`
	System   *SystemPayload   `json:"system,omitempty" bson:"system,omitempty"`
}

type MessagePayload struct {
	ConversationID string `json:"conversation_id" bson:"conversation_id"`
	MessageID      string `json:"message_id" bson:"message_id"`
	SenderName     string `json:"sender_name" bson:"sender_name"`
	Preview        string `json:"preview" bson:"preview"`
}

type FavoritePayload struct {
	ProductID    string `json:"product_id" bson:"product_id"`
	ProductTitle string `json:"product_title" bson:"product_title"`
	UserName     string `json:"user_name" bson:"user_name"`
}

// ProductPayload backs product_sold and product_updated
type ProductPayload struct {
	ProductID    string  `json:"product_id" bson:"product_id"`
	ProductTitle string  `json:"product_title" bson:"product_title"`
	Price        float64 `json:"price" bson:"price"`
	Status       string  `json:"status" bson:"status"`
}

// SystemPayload backs system and view
type SystemPayload struct {
	Link     string `json:"link,omitempty" bson:"link,omitempty"`
	Severity string `json:"severity,omitempty" bson:"severity,omitempty"`
}

func (d NotificationData) variants() int {
	n := 0
	if d.Message != nil {
		n++
	}
	if d.Favorite != nil {
		n++
	}
	if d.Product != nil {
		n++
	}
	if d.System != nil {
		n++
	}
	return n
}

// Validate checks that the payload variant matches the notification type.
// An empty payload is accepted for every type.
func (d NotificationData) Validate(t NotificationType) error {
	if !t.Valid() {
		return fmt.Errorf("unknown notification type %q", t)
	}
	switch d.variants() {
	case 0:
		return nil
	case 1:
	default:
		return fmt.Errorf("notification data carries more than one payload")
	}

	var ok bool
	switch t {
	case NotificationMessage:
		ok = d.Message != nil
	case NotificationFavorite:
		ok = d.Favorite != nil
	case NotificationProductSold, NotificationProductUpdated:
		ok = d.Product != nil
	case NotificationSystem, NotificationView:
		ok = d.System != nil
	}
	if !ok {
		return fmt.Errorf("payload does not match notification type %q", t)
	}
	return nil
}

// MarkNotificationReadRequest sets the read flag; a missing flag means read
type MarkNotificationReadRequest struct {
	IsRead *bool `json:"is_read,omitempty"`
}

// SystemNotificationRequest is the admin broadcast body
type SystemNotificationRequest struct {
	UserID   string `json:"user_id" validate:"required"`
	Title    string `json:"title" validate:"required,max=120"`
	Message  string `json:"message" validate:"required,max=1000"`
	Link     string `json:"link,omitempty" validate:"omitempty,url"`
	Severity string `json:"severity,omitempty" validate:"omitempty,oneof=info warning critical"`
}

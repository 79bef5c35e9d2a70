package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ProductStatusActive = "active"
	ProductStatusSold   = "sold"
)

// Product represents a classified listing stored in MongoDB
type Product struct {
	ID             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	SellerID       string             `json:"seller_id" bson:"seller_id"`
	Title          string             `json:"title" bson:"title"`
	Description    string             `json:"description" bson:"description"`
	Price          float64            `json:"price" bson:"price"`
	Category       string             `json:"category,omitempty" bson:"category,omitempty"`
	Images         []string           `json:"images,omitempty" bson:"images,omitempty"`
	Status         string             `json:"status" bson:"status"`
	FavoritesCount int                `json:"favorites_count" bson:"favorites_count"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" bson:"updated_at"`
}

// CreateProductRequest defines the request body for creating a new listing
type CreateProductRequest struct {
	Title       string   `json:"title" validate:"required,min=3,max=120"`
	Description string   `json:"description" validate:"max=5000"`
	Price       float64  `json:"price" validate:"gte=0"`
	Category    string   `json:"category,omitempty" validate:"omitempty,max=50"`
	Images      []string `json:"images,omitempty" validate:"omitempty,max=10,dive,url"`
}

// UpdateProductRequest defines the request body for updating a listing; empty fields are left alone
type UpdateProductRequest struct {
	Title       string   `json:"title,omitempty" validate:"omitempty,min=3,max=120"`
	Description string   `json:"description,omitempty" validate:"omitempty,max=5000"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	Category    string   `json:"category,omitempty" validate:"omitempty,max=50"`
	Images      []string `json:"images,omitempty" validate:"omitempty,max=10,dive,url"`
}

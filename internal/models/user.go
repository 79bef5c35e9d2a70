package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the account record (PostgreSQL); ID is a UUID string used everywhere as the user id
type User struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	Name        string    `json:"name"`
	Email       string    `json:"email" gorm:"uniqueIndex"`
	Password    string    `json:"-"`                    // bcrypt hash
	FirebaseUID *string   `json:"-" gorm:"uniqueIndex"` // nil for local accounts
	Role        string    `json:"role" gorm:"size:20;default:'user'"`
	Location    string    `json:"location,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserCompact is the public projection embedded in other responses
type UserCompact struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (u *User) ToCompact() UserCompact {
	return UserCompact{ID: u.ID, Name: u.Name}
}

type CreateLocalUserRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Location string `json:"location,omitempty" validate:"omitempty,max=100"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// FirebaseLoginRequest defines the request body for Firebase login
type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

type UpdateUserRequest struct {
	Name     string `json:"name,omitempty" validate:"omitempty,min=2,max=50"`
	Location string `json:"location,omitempty" validate:"omitempty,max=100"`
}

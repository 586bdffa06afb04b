package dto

import (
	"time"

	"github.com/Additional-Code/storefront/internal/entity"
)

// UserResponse represents a user as exposed via transport layers.
type UserResponse struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateUserRequest carries the fields accepted when creating a user.
type CreateUserRequest struct {
	FirstName string `json:"first_name" query:"first_name" form:"first_name" validate:"required"`
	LastName  string `json:"last_name" query:"last_name" form:"last_name" validate:"required"`
	Email     string `json:"email" query:"email" form:"email" validate:"required"`
}

// UserID is returned after a user is created or deleted.
type UserID struct {
	UserID int64 `json:"user_id"`
}

// NewUserResponse maps a user entity onto its wire shape.
func NewUserResponse(user *entity.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}

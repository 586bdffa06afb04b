package dto

import (
	"time"

	"github.com/Additional-Code/storefront/internal/entity"
)

// OrderResponse represents an order as exposed via transport layers.
// Description is null when the order was created without one.
type OrderResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	UserID      int64     `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateOrderRequest carries the fields accepted when creating an order.
// Values may arrive as JSON body fields or as query parameters.
type CreateOrderRequest struct {
	Title       string `json:"title" query:"title" form:"title" validate:"required"`
	Description string `json:"description" query:"description" form:"description"`
	UserID      int64  `json:"user_id" query:"user_id" form:"user_id" validate:"required"`
}

// OrderCreated is returned after a successful insert.
type OrderCreated struct {
	OrderID int64 `json:"order_id"`
}

// NewOrderResponse maps an order entity onto its wire shape.
func NewOrderResponse(order *entity.Order) OrderResponse {
	out := OrderResponse{
		ID:        order.ID,
		Title:     order.Title,
		UserID:    order.UserID,
		CreatedAt: order.CreatedAt,
	}
	if order.Description != "" {
		desc := order.Description
		out.Description = &desc
	}
	return out
}

// NewOrderResponses maps a page of orders.
func NewOrderResponses(orders []entity.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, NewOrderResponse(&orders[i]))
	}
	return out
}

package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Order belongs to exactly one User. UserID must reference an existing row.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	Title       string    `bun:"title,notnull" json:"title"`
	Description string    `bun:"description,nullzero" json:"description,omitempty"`
	UserID      int64     `bun:"user_id,notnull" json:"user_id"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

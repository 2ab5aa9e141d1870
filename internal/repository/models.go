package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

type Order struct {
	ID            uuid.UUID             `json:"id"`
	CustomerName  string                `json:"customer_name"`
	CustomerPhone string                `json:"customer_phone"`
	Notes         sql.NullString        `json:"notes"`
	Items         pqtype.NullRawMessage `json:"items"`
	TotalCents    int64                 `json:"total_cents"`
	Currency      string                `json:"currency"`
	Status        string                `json:"status"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

type Product struct {
	ID          uuid.UUID      `json:"id"`
	Slug        string         `json:"slug"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	PriceCents  int64          `json:"price_cents"`
	Colors      []string       `json:"colors"`
	ImageKey    sql.NullString `json:"image_key"`
	Active      bool           `json:"active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

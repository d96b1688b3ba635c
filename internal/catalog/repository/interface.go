package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Item is a collectible waste category.
type Item struct {
	ID        uuid.UUID `db:"id"`
	Title     string    `db:"title"`
	ImageKey  string    `db:"image_key"`
	CreatedAt time.Time `db:"created_at"`
}

// CreateItemParams contains data for creating an item.
type CreateItemParams struct {
	Title    string
	ImageKey string
}

// Repository defines catalog storage operations.
type Repository interface {
	// ListItems returns every item in creation order.
	ListItems(ctx context.Context) ([]Item, error)
	// GetItemsByIDs returns the items found among ids, in creation order.
	GetItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]Item, error)
	CreateItem(ctx context.Context, params CreateItemParams) (Item, error)
	// InsertMissing creates the items whose title does not exist yet and
	// returns how many were inserted.
	InsertMissing(ctx context.Context, params []CreateItemParams) (int, error)
}

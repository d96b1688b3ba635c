package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Point is a persisted collection point.
type Point struct {
	ID        uuid.UUID
	Name      string
	Email     string
	WhatsApp  string
	Latitude  float64
	Longitude float64
	UF        string
	City      string
	ImageKey  *string
	CreatedAt time.Time
	ItemIDs   []uuid.UUID
}

// CreatePointParams holds the normalized values of a new point.
type CreatePointParams struct {
	Name      string
	Email     string
	WhatsApp  string
	Latitude  float64
	Longitude float64
	UF        string
	City      string
	ItemIDs   []uuid.UUID
}

// ListFilter narrows ListPoints. Zero values match everything; ItemIDs
// matches points collecting any of the given items.
type ListFilter struct {
	UF      string
	City    string
	ItemIDs []uuid.UUID
}

// Repository defines persistence for collection points.
type Repository interface {
	CreatePoint(ctx context.Context, params CreatePointParams) (Point, error)
	GetPoint(ctx context.Context, id uuid.UUID) (Point, error)
	ListPoints(ctx context.Context, filter ListFilter) ([]Point, error)
	// SetImageKey stores key and returns the key it replaced, if any.
	SetImageKey(ctx context.Context, id uuid.UUID, key string) (*string, error)
}

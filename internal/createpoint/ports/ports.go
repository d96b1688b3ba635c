// Package ports defines what the create-point flow needs from the catalog,
// geography and points contexts. Adapters in internal/adapters satisfy them.
package ports

import "context"

// Item is a collectible category as the form shows it.
type Item struct {
	ID       string
	Title    string
	ImageURL string
}

// ItemSource lists the item categories offered by the form.
type ItemSource interface {
	ListItems(ctx context.Context) ([]Item, error)
}

// RegionSource lists UF codes and the municipality names of one UF, both in
// upstream order.
type RegionSource interface {
	ListRegions(ctx context.Context) ([]string, error)
	ListMunicipalities(ctx context.Context, code string) ([]string, error)
}

// Submission is the data a completed draft registers.
type Submission struct {
	Name      string
	Email     string
	WhatsApp  string
	Latitude  float64
	Longitude float64
	UF        string
	City      string
	ItemIDs   []string
}

// Submitter creates the collection point and returns its ID.
type Submitter interface {
	Submit(ctx context.Context, submission Submission) (string, error)
}

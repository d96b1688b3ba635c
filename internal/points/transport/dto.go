package transport

import "time"

// CreatePointRequest registers a new collection point.
type CreatePointRequest struct {
	Name      string   `json:"name" validate:"required,min=2,max=120"`
	Email     string   `json:"email" validate:"required,email,max=254"`
	WhatsApp  string   `json:"whatsapp" validate:"required,br_phone"`
	Latitude  float64  `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64  `json:"longitude" validate:"gte=-180,lte=180"`
	UF        string   `json:"uf" validate:"required,uf"`
	City      string   `json:"city" validate:"required,max=120"`
	Items     []string `json:"items" validate:"required,min=1,dive,uuid"`
}

// ListPointsQuery filters the point listing. Items is a comma-separated list
// of item IDs.
type ListPointsQuery struct {
	UF    string `form:"uf" validate:"omitempty,uf"`
	City  string `form:"city" validate:"max=120"`
	Items string `form:"items"`
}

// PointItem is an item collected at a point.
type PointItem struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	ImageURL string `json:"image_url"`
}

// PointResponse is the public representation of a point.
type PointResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	WhatsApp  string      `json:"whatsapp"`
	Latitude  float64     `json:"latitude"`
	Longitude float64     `json:"longitude"`
	UF        string      `json:"uf"`
	City      string      `json:"city"`
	ImageURL  string      `json:"image_url,omitempty"`
	Items     []PointItem `json:"items"`
	CreatedAt time.Time   `json:"created_at"`
}

// Position is a coordinate pair.
type Position struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ImageResponse is returned after a photo upload.
type ImageResponse struct {
	ImageURL     string    `json:"image_url"`
	ExifPosition *Position `json:"exifPosition,omitempty"`
}

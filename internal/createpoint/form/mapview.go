package form

import (
	"math"

	"ecoleta_backend/platform/apperr"
)

// Default map settings for the picker.
const (
	DefaultCenterLat   = -23.556365
	DefaultCenterLng   = -46.4625029
	DefaultZoom        = 15
	DefaultTileURL     = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	DefaultAttribution = "&copy; <a href=\"http://osm.org/copyright\">OpenStreetMap</a> contributors"
)

// Position is a latitude/longitude pair.
type Position struct {
	Lat float64
	Lng float64
}

// Validate checks the pair is a real coordinate.
func (p Position) Validate() error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
		return apperr.Validation("position out of range").WithDetails(map[string]string{"position": "range"})
	}
	return nil
}

// MapView configures the map widget. It does not change during a draft.
type MapView struct {
	Center      Position
	Zoom        int
	TileURL     string
	Attribution string
}

// DefaultMapView returns the built-in picker settings.
func DefaultMapView() MapView {
	return MapView{
		Center:      Position{Lat: DefaultCenterLat, Lng: DefaultCenterLng},
		Zoom:        DefaultZoom,
		TileURL:     DefaultTileURL,
		Attribution: DefaultAttribution,
	}
}

package transport

// MunicipalitiesQuery filters the municipality listing.
type MunicipalitiesQuery struct {
	Query string `form:"q" validate:"max=100"`
}

// RegionParam is the region path parameter.
type RegionParam struct {
	Code string `validate:"required,uf"`
}

// ReverseQuery is the coordinate pair to resolve.
type ReverseQuery struct {
	Lat *float64 `form:"lat" validate:"required,gte=-90,lte=90"`
	Lng *float64 `form:"lng" validate:"required,gte=-180,lte=180"`
}

// ReverseResponse is the locality found at a coordinate pair.
type ReverseResponse struct {
	Found       bool   `json:"found"`
	UF          string `json:"uf,omitempty"`
	City        string `json:"city,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

package transport

// FieldsRequest is a partial update of the identity fields.
type FieldsRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=120"`
	Email    *string `json:"email" validate:"omitempty,max=254"`
	WhatsApp *string `json:"whatsapp" validate:"omitempty,max=32"`
}

// RegionRequest selects a region; "0" clears the selection.
type RegionRequest struct {
	Code string `json:"code" validate:"required,max=2"`
}

// MunicipalityRequest selects a municipality; "0" clears the selection.
type MunicipalityRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

// PositionRequest is a map click.
type PositionRequest struct {
	Lat *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng *float64 `json:"lng" validate:"required,gte=-180,lte=180"`
}

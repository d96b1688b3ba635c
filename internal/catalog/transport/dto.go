package transport

// ItemResponse is the item shape the registration form renders.
type ItemResponse struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	ImageURL string `json:"image_url"`
}

// CreateItemRequest is the multipart form body of the admin create endpoint.
// The icon file travels in the "icon" part.
type CreateItemRequest struct {
	Title string `form:"title" validate:"required,min=2,max=80"`
}

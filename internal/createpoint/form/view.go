package form

import "time"

// ItemOption is an item as rendered in the picker grid.
type ItemOption struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	ImageURL string `json:"image_url"`
	Selected bool   `json:"selected"`
}

// SelectView is a select box: its options (NoSelection first) and the
// selected value.
type SelectView struct {
	Options  []string `json:"options"`
	Selected string   `json:"selected"`
	Loading  bool     `json:"loading,omitempty"`
}

// MapState is the map widget configuration plus the current marker.
type MapState struct {
	Center           [2]float64 `json:"center"`
	Zoom             int        `json:"zoom"`
	TileURL          string     `json:"tileUrl"`
	Attribution      string     `json:"attribution"`
	Marker           [2]float64 `json:"marker"`
	PositionSelected bool       `json:"positionSelected"`
}

// FieldsView mirrors Fields for JSON output.
type FieldsView struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	WhatsApp string `json:"whatsapp"`
}

// View is a consistent snapshot of a draft.
type View struct {
	ID            string            `json:"id"`
	Status        Status            `json:"status"`
	Fields        FieldsView        `json:"fields"`
	Items         []ItemOption      `json:"items"`
	Region        SelectView        `json:"region"`
	Municipality  SelectView        `json:"municipality"`
	Map           MapState          `json:"map"`
	Errors        map[string]string `json:"errors,omitempty"`
	PointID       string            `json:"pointId,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	SelectedItems []string          `json:"selectedItems"`
}

// Snapshot returns the current state under the draft lock.
func (d *Draft) Snapshot() View {
	d.mu.Lock()
	defer d.mu.Unlock()

	items := make([]ItemOption, 0, len(d.items))
	for _, item := range d.items {
		_, selected := d.selectedItems[item.ID]
		items = append(items, ItemOption{ID: item.ID, Title: item.Title, ImageURL: item.ImageURL, Selected: selected})
	}

	view := View{
		ID:     d.id.String(),
		Status: d.status,
		Fields: FieldsView{Name: d.fields.Name, Email: d.fields.Email, WhatsApp: d.fields.WhatsApp},
		Items:  items,
		Region: SelectView{
			Options:  withSentinel(d.regions),
			Selected: d.selectedRegion,
		},
		Municipality: SelectView{
			Options:  withSentinel(d.municipalities),
			Selected: d.selectedMunicipality,
			Loading:  d.municipalitiesLoading,
		},
		Map: MapState{
			Center:           [2]float64{d.deps.Map.Center.Lat, d.deps.Map.Center.Lng},
			Zoom:             d.deps.Map.Zoom,
			TileURL:          d.deps.Map.TileURL,
			Attribution:      d.deps.Map.Attribution,
			Marker:           [2]float64{d.position.Lat, d.position.Lng},
			PositionSelected: d.positionSelected,
		},
		PointID:       d.pointID,
		CreatedAt:     d.createdAt,
		SelectedItems: d.selectedItemIDsLocked(),
	}
	if len(d.errors) > 0 {
		view.Errors = make(map[string]string, len(d.errors))
		for k, v := range d.errors {
			view.Errors[k] = v
		}
	}
	return view
}

func withSentinel(values []string) []string {
	out := make([]string, 0, len(values)+1)
	out = append(out, NoSelection)
	return append(out, values...)
}

// Package form holds the state of one collection point registration: the
// loaded item and region lists, the cascading municipality fetch, the map
// selection and the entity fields.
package form

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"ecoleta_backend/internal/createpoint/ports"
	"ecoleta_backend/platform/apperr"
	"ecoleta_backend/platform/sanitize"
)

// NoSelection is the option value meaning nothing is selected, for both the
// region and the municipality select.
const NoSelection = "0"

// Error keys used in Draft.Errors.
const (
	ErrorKeyItems          = "items"
	ErrorKeyRegions        = "regions"
	ErrorKeyMunicipalities = "municipalities"
	ErrorKeySubmit         = "submit"
)

// Status is the lifecycle state of a draft.
type Status string

const (
	StatusOpen       Status = "open"
	StatusSubmitting Status = "submitting"
	StatusSubmitted  Status = "submitted"
)

// Fields are the entity identity fields.
type Fields struct {
	Name     string
	Email    string
	WhatsApp string
}

// FieldsUpdate carries a partial update; nil fields are left unchanged.
type FieldsUpdate struct {
	Name     *string
	Email    *string
	WhatsApp *string
}

// Deps are the collaborators of a draft.
type Deps struct {
	Items     ports.ItemSource
	Regions   ports.RegionSource
	Submitter ports.Submitter
	Map       MapView
}

// fetch is one municipality request. A fetch is current while it is the
// draft's current field; done closes once it has settled or been discarded.
type fetch struct {
	generation uint64
	code       string
	cancel     context.CancelFunc
	done       chan struct{}
}

// Draft is the server-side state of one registration form.
type Draft struct {
	mu   sync.Mutex
	id   uuid.UUID
	deps Deps

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool

	items         []ports.Item
	selectedItems map[string]struct{}

	regions        []string
	selectedRegion string

	municipalities        []string
	selectedMunicipality  string
	municipalitiesLoading bool
	generation            uint64
	current               *fetch

	position         Position
	positionSelected bool

	fields  Fields
	errors  map[string]string
	status  Status
	pointID string

	createdAt time.Time
}

// New creates an empty draft. Call Load to populate the item and region lists.
func New(id uuid.UUID, deps Deps) *Draft {
	ctx, cancel := context.WithCancel(context.Background())
	return &Draft{
		id:                   id,
		deps:                 deps,
		ctx:                  ctx,
		cancel:               cancel,
		selectedItems:        make(map[string]struct{}),
		selectedRegion:       NoSelection,
		selectedMunicipality: NoSelection,
		errors:               make(map[string]string),
		status:               StatusOpen,
		createdAt:            time.Now().UTC(),
	}
}

// ID returns the draft identifier.
func (d *Draft) ID() uuid.UUID {
	return d.id
}

// Load issues one item listing request and one region listing request
// concurrently. Each replaces its list on success or records its error and
// leaves the list untouched; neither failure affects the other.
func (d *Draft) Load(ctx context.Context) error {
	var g errgroup.Group

	g.Go(func() error {
		items, err := d.deps.Items.ListItems(ctx)
		d.mu.Lock()
		defer d.mu.Unlock()
		if err != nil {
			d.errors[ErrorKeyItems] = fmt.Sprintf("failed to load items: %v", err)
			return fmt.Errorf("load items: %w", err)
		}
		d.items = append([]ports.Item(nil), items...)
		delete(d.errors, ErrorKeyItems)
		return nil
	})

	g.Go(func() error {
		codes, err := d.deps.Regions.ListRegions(ctx)
		d.mu.Lock()
		defer d.mu.Unlock()
		if err != nil {
			d.errors[ErrorKeyRegions] = fmt.Sprintf("failed to load regions: %v", err)
			return fmt.Errorf("load regions: %w", err)
		}
		d.regions = append([]string(nil), codes...)
		delete(d.errors, ErrorKeyRegions)
		return nil
	})

	return g.Wait()
}

// SetFields applies a partial update of the identity fields. Values are
// stored as given; they are validated on submit.
func (d *Draft) SetFields(update FieldsUpdate) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.mutableLocked(); err != nil {
		return err
	}
	if update.Name != nil {
		d.fields.Name = *update.Name
	}
	if update.Email != nil {
		d.fields.Email = *update.Email
	}
	if update.WhatsApp != nil {
		d.fields.WhatsApp = *update.WhatsApp
	}
	return nil
}

// SelectRegion changes the selected region. A change clears the municipality
// list and selection, supersedes any in-flight municipality request and,
// unless code is NoSelection, starts exactly one request for code. Selecting
// the current region again does nothing.
func (d *Draft) SelectRegion(code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = NoSelection
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.mutableLocked(); err != nil {
		return err
	}
	if code != NoSelection && !contains(d.regions, code) {
		return apperr.Validation("unknown region").WithDetails(map[string]string{"region": "oneof"})
	}
	if code == d.selectedRegion {
		return nil
	}

	d.selectedRegion = code
	d.municipalities = nil
	d.selectedMunicipality = NoSelection
	delete(d.errors, ErrorKeyMunicipalities)

	if d.current != nil {
		d.current.cancel()
		d.current = nil
	}
	d.generation++

	if code == NoSelection {
		d.municipalitiesLoading = false
		return nil
	}

	ctx, cancel := context.WithCancel(d.ctx)
	f := &fetch{generation: d.generation, code: code, cancel: cancel, done: make(chan struct{})}
	d.current = f
	d.municipalitiesLoading = true

	d.wg.Add(1)
	go d.loadMunicipalities(ctx, f)
	return nil
}

func (d *Draft) loadMunicipalities(ctx context.Context, f *fetch) {
	defer d.wg.Done()
	defer close(f.done)
	defer f.cancel()

	names, err := d.deps.Regions.ListMunicipalities(ctx, f.code)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current != f || d.generation != f.generation {
		return
	}
	d.municipalitiesLoading = false
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		d.errors[ErrorKeyMunicipalities] = fmt.Sprintf("failed to load municipalities: %v", err)
		return
	}
	d.municipalities = append([]string(nil), names...)
}

// Await blocks until the current municipality request, if any, has settled.
// If the region changes while waiting it keeps waiting for the newer request.
func (d *Draft) Await(ctx context.Context) error {
	for {
		d.mu.Lock()
		f := d.current
		d.mu.Unlock()
		if f == nil {
			return nil
		}

		select {
		case <-f.done:
		case <-ctx.Done():
			return ctx.Err()
		}

		d.mu.Lock()
		superseded := d.current != f
		d.mu.Unlock()
		if !superseded {
			return nil
		}
	}
}

// SelectMunicipality sets the municipality selection. It never changes the
// region or triggers a fetch. NoSelection clears it; any other name must be
// in the current list (matched ignoring case and accents).
func (d *Draft) SelectMunicipality(name string) error {
	name = strings.TrimSpace(name)

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.mutableLocked(); err != nil {
		return err
	}
	if name == "" || name == NoSelection {
		d.selectedMunicipality = NoSelection
		return nil
	}
	if d.selectedRegion == NoSelection {
		return apperr.Validation("select a region first").WithDetails(map[string]string{"region": "required"})
	}

	folded := sanitize.Fold(name)
	for _, candidate := range d.municipalities {
		if candidate == name || sanitize.Fold(candidate) == folded {
			d.selectedMunicipality = candidate
			return nil
		}
	}
	return apperr.Validation("unknown municipality").WithDetails(map[string]string{"city": "oneof"})
}

// SetPosition records a map click; the marker moves exactly to pos.
func (d *Draft) SetPosition(pos Position) error {
	if err := pos.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.mutableLocked(); err != nil {
		return err
	}
	d.position = pos
	d.positionSelected = true
	return nil
}

// ToggleItem adds itemID to the selection or removes it, returning whether it
// is now selected. The ID must be one of the loaded items.
func (d *Draft) ToggleItem(itemID string) (bool, error) {
	itemID = strings.TrimSpace(itemID)

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.mutableLocked(); err != nil {
		return false, err
	}

	known := false
	for _, item := range d.items {
		if item.ID == itemID {
			known = true
			break
		}
	}
	if !known {
		return false, apperr.NotFound("item not found")
	}

	if _, ok := d.selectedItems[itemID]; ok {
		delete(d.selectedItems, itemID)
		return false, nil
	}
	d.selectedItems[itemID] = struct{}{}
	return true, nil
}

// Submit checks that the draft is complete and registers the point. Missing
// data fails with validation details before any call is made. On success the
// draft becomes terminal.
func (d *Draft) Submit(ctx context.Context) (string, error) {
	d.mu.Lock()
	if err := d.mutableLocked(); err != nil {
		d.mu.Unlock()
		return "", err
	}

	if missing := d.missingLocked(); len(missing) > 0 {
		d.mu.Unlock()
		return "", apperr.Validation("draft is incomplete").WithDetails(missing)
	}

	submission := ports.Submission{
		Name:      d.fields.Name,
		Email:     d.fields.Email,
		WhatsApp:  d.fields.WhatsApp,
		Latitude:  d.position.Lat,
		Longitude: d.position.Lng,
		UF:        d.selectedRegion,
		City:      d.selectedMunicipality,
		ItemIDs:   d.selectedItemIDsLocked(),
	}
	d.status = StatusSubmitting
	delete(d.errors, ErrorKeySubmit)
	d.mu.Unlock()

	pointID, err := d.deps.Submitter.Submit(ctx, submission)

	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		d.status = StatusOpen
		d.errors[ErrorKeySubmit] = err.Error()
		return "", err
	}

	d.status = StatusSubmitted
	d.pointID = pointID
	if d.current != nil {
		d.current.cancel()
	}
	return pointID, nil
}

// Close cancels any in-flight request and waits for it to return. Further
// mutations fail with NotFound.
func (d *Draft) Close() {
	d.mu.Lock()
	d.closed = true
	d.cancel()
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Draft) mutableLocked() error {
	switch {
	case d.closed:
		return apperr.NotFound("draft not found")
	case d.status == StatusSubmitted:
		return apperr.Conflict("draft already submitted")
	case d.status == StatusSubmitting:
		return apperr.Conflict("draft is being submitted")
	}
	return nil
}

func (d *Draft) missingLocked() map[string]string {
	missing := make(map[string]string)
	if strings.TrimSpace(d.fields.Name) == "" {
		missing["name"] = "required"
	}
	if strings.TrimSpace(d.fields.Email) == "" {
		missing["email"] = "required"
	}
	if strings.TrimSpace(d.fields.WhatsApp) == "" {
		missing["whatsapp"] = "required"
	}
	if d.selectedRegion == NoSelection {
		missing["uf"] = "required"
	}
	if d.selectedMunicipality == NoSelection {
		missing["city"] = "required"
	}
	if !d.positionSelected {
		missing["position"] = "required"
	}
	if len(d.selectedItems) == 0 {
		missing["items"] = "min"
	}
	return missing
}

// selectedItemIDsLocked returns the selection in item list order.
func (d *Draft) selectedItemIDsLocked() []string {
	ids := make([]string, 0, len(d.selectedItems))
	for _, item := range d.items {
		if _, ok := d.selectedItems[item.ID]; ok {
			ids = append(ids, item.ID)
		}
	}
	return ids
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

// IsClosed reports whether Close has been called.
func (d *Draft) IsClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

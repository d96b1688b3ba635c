package form

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"ecoleta_backend/internal/createpoint/ports"
	"ecoleta_backend/platform/apperr"
)

type fakeItems struct {
	items []ports.Item
	err   error
	calls int
	mu    sync.Mutex
}

func (f *fakeItems) ListItems(context.Context) ([]ports.Item, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.items, f.err
}

type fakeRegions struct {
	mu              sync.Mutex
	codes           []string
	regionsErr      error
	municipalities  map[string][]string
	municipalityErr error
	gates           map[string]chan struct{}
	ignoreCancel    bool
	calls           []string
	cancelled       []string
}

func (f *fakeRegions) ListRegions(context.Context) ([]string, error) {
	return f.codes, f.regionsErr
}

func (f *fakeRegions) ListMunicipalities(ctx context.Context, code string) ([]string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, code)
	gate := f.gates[code]
	f.mu.Unlock()

	if gate != nil {
		if f.ignoreCancel {
			<-gate
		} else {
			select {
			case <-gate:
			case <-ctx.Done():
				f.mu.Lock()
				f.cancelled = append(f.cancelled, code)
				f.mu.Unlock()
				return nil, ctx.Err()
			}
		}
	}
	if f.municipalityErr != nil {
		return nil, f.municipalityErr
	}
	return f.municipalities[code], nil
}

func (f *fakeRegions) callsFor(code string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == code {
			n++
		}
	}
	return n
}

func (f *fakeRegions) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeSubmitter struct {
	mu          sync.Mutex
	submissions []ports.Submission
	err         error
}

func (f *fakeSubmitter) Submit(_ context.Context, s ports.Submission) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submissions = append(f.submissions, s)
	if f.err != nil {
		return "", f.err
	}
	return "point-1", nil
}

type fixture struct {
	draft     *Draft
	items     *fakeItems
	regions   *fakeRegions
	submitter *fakeSubmitter
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	f := fixture{
		items: &fakeItems{items: []ports.Item{
			{ID: "i1", Title: "Lâmpadas", ImageURL: "http://cdn/l.svg"},
			{ID: "i2", Title: "Pilhas e Baterias", ImageURL: "http://cdn/p.svg"},
			{ID: "i3", Title: "Óleo de Cozinha", ImageURL: "http://cdn/o.svg"},
		}},
		regions: &fakeRegions{
			codes: []string{"SP", "RJ", "MG"},
			municipalities: map[string][]string{
				"SP": {"São Paulo", "Campinas"},
				"RJ": {"Rio de Janeiro", "Niterói"},
				"MG": {"Belo Horizonte"},
			},
			gates: map[string]chan struct{}{},
		},
		submitter: &fakeSubmitter{},
	}
	f.draft = New(uuid.New(), Deps{Items: f.items, Regions: f.regions, Submitter: f.submitter, Map: DefaultMapView()})
	t.Cleanup(f.draft.Close)
	return f
}

func (f fixture) load(t *testing.T) {
	t.Helper()
	if err := f.draft.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
}

func (f fixture) selectRegion(t *testing.T, code string) {
	t.Helper()
	if err := f.draft.SelectRegion(code); err != nil {
		t.Fatalf("SelectRegion(%q) returned error: %v", code, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := f.draft.Await(ctx); err != nil {
		t.Fatalf("Await returned error: %v", err)
	}
}

func (f fixture) complete(t *testing.T) {
	t.Helper()
	f.load(t)
	name, email, whatsapp := "Mercado do Zé", "ze@example.com", "(11) 98765-4321"
	if err := f.draft.SetFields(FieldsUpdate{Name: &name, Email: &email, WhatsApp: &whatsapp}); err != nil {
		t.Fatalf("SetFields: %v", err)
	}
	f.selectRegion(t, "SP")
	if err := f.draft.SelectMunicipality("Campinas"); err != nil {
		t.Fatalf("SelectMunicipality: %v", err)
	}
	if err := f.draft.SetPosition(Position{Lat: -22.9, Lng: -47.06}); err != nil {
		t.Fatalf("SetPosition: %v", err)
	}
	if _, err := f.draft.ToggleItem("i3"); err != nil {
		t.Fatalf("ToggleItem: %v", err)
	}
	if _, err := f.draft.ToggleItem("i1"); err != nil {
		t.Fatalf("ToggleItem: %v", err)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestLoadListsItemsInOrder(t *testing.T) {
	f := newFixture(t)
	f.load(t)

	view := f.draft.Snapshot()
	if len(view.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(view.Items))
	}
	for i, want := range f.items.items {
		if view.Items[i].ID != want.ID || view.Items[i].Title != want.Title || view.Items[i].ImageURL != want.ImageURL {
			t.Fatalf("item %d: expected %+v, got %+v", i, want, view.Items[i])
		}
	}
	if f.items.calls != 1 {
		t.Fatalf("expected exactly one item listing request, got %d", f.items.calls)
	}
}

func TestRegionOptionsHaveSentinelSelected(t *testing.T) {
	f := newFixture(t)
	f.load(t)

	view := f.draft.Snapshot()
	if !equalStrings(view.Region.Options, []string{"0", "SP", "RJ", "MG"}) {
		t.Fatalf("unexpected region options %v", view.Region.Options)
	}
	if view.Region.Selected != NoSelection || view.Municipality.Selected != NoSelection {
		t.Fatalf("expected sentinel selections, got region=%q municipality=%q", view.Region.Selected, view.Municipality.Selected)
	}
}

func TestLoadFailuresAreIndependent(t *testing.T) {
	f := newFixture(t)
	f.items.err = errors.New("catalog down")

	if err := f.draft.Load(context.Background()); err == nil {
		t.Fatal("expected Load to report the item failure")
	}

	view := f.draft.Snapshot()
	if len(view.Items) != 0 || view.Errors[ErrorKeyItems] == "" {
		t.Fatalf("expected empty items with an error, got %+v / %v", view.Items, view.Errors)
	}
	if len(view.Region.Options) != 4 {
		t.Fatalf("expected regions to load despite item failure, got %v", view.Region.Options)
	}
	if _, ok := view.Errors[ErrorKeyRegions]; ok {
		t.Fatalf("unexpected regions error %v", view.Errors)
	}
}

func TestSelectRegionIssuesExactlyOneRequest(t *testing.T) {
	f := newFixture(t)
	f.load(t)

	f.selectRegion(t, "SP")
	if got := f.regions.callsFor("SP"); got != 1 {
		t.Fatalf("expected one request for SP, got %d", got)
	}
	view := f.draft.Snapshot()
	if !equalStrings(view.Municipality.Options, []string{"0", "São Paulo", "Campinas"}) || view.Municipality.Loading {
		t.Fatalf("unexpected municipality state %+v", view.Municipality)
	}

	f.selectRegion(t, "sp")
	if got := f.regions.callsFor("SP"); got != 1 {
		t.Fatalf("reselecting the same region must not refetch, got %d requests", got)
	}

	f.selectRegion(t, NoSelection)
	if got := f.regions.totalCalls(); got != 1 {
		t.Fatalf("selecting the sentinel must not issue a request, got %d total", got)
	}
	view = f.draft.Snapshot()
	if !equalStrings(view.Municipality.Options, []string{"0"}) || view.Region.Selected != NoSelection {
		t.Fatalf("expected cleared municipalities, got %+v", view)
	}
}

func TestSelectRegionRejectsUnknownCode(t *testing.T) {
	f := newFixture(t)
	f.load(t)

	if err := f.draft.SelectRegion("XX"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if f.regions.totalCalls() != 0 {
		t.Fatal("expected no request for an unknown region")
	}
}

func TestLateResponseForPreviousRegionIsDiscarded(t *testing.T) {
	f := newFixture(t)
	f.load(t)
	f.regions.ignoreCancel = true
	releaseSP := make(chan struct{})
	f.regions.gates["SP"] = releaseSP

	if err := f.draft.SelectRegion("SP"); err != nil {
		t.Fatalf("SelectRegion(SP): %v", err)
	}
	f.selectRegion(t, "RJ")

	view := f.draft.Snapshot()
	if view.Region.Selected != "RJ" || !equalStrings(view.Municipality.Options, []string{"0", "Rio de Janeiro", "Niterói"}) {
		t.Fatalf("expected RJ municipalities, got %+v", view.Municipality)
	}

	close(releaseSP)
	f.draft.Close()

	view = f.draft.Snapshot()
	if !equalStrings(view.Municipality.Options, []string{"0", "Rio de Janeiro", "Niterói"}) {
		t.Fatalf("late SP response overwrote RJ: %v", view.Municipality.Options)
	}
	if f.regions.callsFor("SP") != 1 || f.regions.callsFor("RJ") != 1 {
		t.Fatalf("unexpected requests %v", f.regions.calls)
	}
}

func TestRegionChangeCancelsInFlightRequest(t *testing.T) {
	f := newFixture(t)
	f.load(t)
	f.regions.gates["SP"] = make(chan struct{})

	if err := f.draft.SelectRegion("SP"); err != nil {
		t.Fatalf("SelectRegion(SP): %v", err)
	}
	view := f.draft.Snapshot()
	if !view.Municipality.Loading {
		t.Fatal("expected municipalities to be loading")
	}

	f.selectRegion(t, "MG")
	f.draft.Close()

	f.regions.mu.Lock()
	cancelled := append([]string(nil), f.regions.cancelled...)
	f.regions.mu.Unlock()
	if len(cancelled) != 1 || cancelled[0] != "SP" {
		t.Fatalf("expected the SP request to be cancelled, got %v", cancelled)
	}
	view = f.draft.Snapshot()
	if !equalStrings(view.Municipality.Options, []string{"0", "Belo Horizonte"}) {
		t.Fatalf("unexpected municipalities %v", view.Municipality.Options)
	}
	if _, ok := view.Errors[ErrorKeyMunicipalities]; ok {
		t.Fatalf("a superseded request must not surface an error: %v", view.Errors)
	}
}

func TestRegionChangeClearsStaleSelection(t *testing.T) {
	f := newFixture(t)
	f.load(t)
	f.selectRegion(t, "SP")
	if err := f.draft.SelectMunicipality("Campinas"); err != nil {
		t.Fatalf("SelectMunicipality: %v", err)
	}

	f.regions.gates["RJ"] = make(chan struct{})
	if err := f.draft.SelectRegion("RJ"); err != nil {
		t.Fatalf("SelectRegion(RJ): %v", err)
	}

	view := f.draft.Snapshot()
	if view.Municipality.Selected != NoSelection || !equalStrings(view.Municipality.Options, []string{"0"}) || !view.Municipality.Loading {
		t.Fatalf("expected cleared, loading municipalities, got %+v", view.Municipality)
	}
}

func TestMunicipalityFetchErrorSurfaces(t *testing.T) {
	f := newFixture(t)
	f.load(t)
	f.regions.municipalityErr = errors.New("ibge down")

	f.selectRegion(t, "SP")

	view := f.draft.Snapshot()
	if view.Errors[ErrorKeyMunicipalities] == "" || view.Municipality.Loading {
		t.Fatalf("expected a settled municipality error, got %+v / %v", view.Municipality, view.Errors)
	}
	if f.regions.callsFor("SP") != 1 {
		t.Fatalf("expected no retry, got %d requests", f.regions.callsFor("SP"))
	}
}

func TestAwaitHonoursContext(t *testing.T) {
	f := newFixture(t)
	f.load(t)
	f.regions.gates["SP"] = make(chan struct{})

	if err := f.draft.SelectRegion("SP"); err != nil {
		t.Fatalf("SelectRegion: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := f.draft.Await(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestSelectMunicipalityNeverRefetches(t *testing.T) {
	f := newFixture(t)
	f.load(t)
	f.selectRegion(t, "SP")

	if err := f.draft.SelectMunicipality("sao paulo"); err != nil {
		t.Fatalf("SelectMunicipality: %v", err)
	}

	view := f.draft.Snapshot()
	if view.Municipality.Selected != "São Paulo" || view.Region.Selected != "SP" {
		t.Fatalf("unexpected selection region=%q municipality=%q", view.Region.Selected, view.Municipality.Selected)
	}
	if f.regions.totalCalls() != 1 {
		t.Fatalf("municipality selection must not fetch, got %d requests", f.regions.totalCalls())
	}
}

func TestSelectMunicipalityValidation(t *testing.T) {
	f := newFixture(t)
	f.load(t)

	if err := f.draft.SelectMunicipality("Campinas"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error without a region, got %v", err)
	}

	f.selectRegion(t, "SP")
	if err := f.draft.SelectMunicipality("Niterói"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for a name outside the list, got %v", err)
	}
	if err := f.draft.SelectMunicipality(NoSelection); err != nil {
		t.Fatalf("clearing the selection failed: %v", err)
	}
}

func TestSetPositionMovesMarker(t *testing.T) {
	f := newFixture(t)

	view := f.draft.Snapshot()
	if view.Map.PositionSelected || view.Map.Marker != [2]float64{0, 0} {
		t.Fatalf("unexpected initial map state %+v", view.Map)
	}
	if view.Map.Center != [2]float64{DefaultCenterLat, DefaultCenterLng} || view.Map.Zoom != DefaultZoom {
		t.Fatalf("unexpected map config %+v", view.Map)
	}

	if err := f.draft.SetPosition(Position{Lat: -23.5, Lng: -46.6}); err != nil {
		t.Fatalf("SetPosition: %v", err)
	}
	view = f.draft.Snapshot()
	if view.Map.Marker != [2]float64{-23.5, -46.6} || !view.Map.PositionSelected {
		t.Fatalf("marker not at click, got %+v", view.Map)
	}

	if err := f.draft.SetPosition(Position{Lat: 0, Lng: 0}); err != nil {
		t.Fatalf("SetPosition(0,0): %v", err)
	}
	if view = f.draft.Snapshot(); !view.Map.PositionSelected || view.Map.Marker != [2]float64{0, 0} {
		t.Fatalf("a click at 0,0 must count as a selection, got %+v", view.Map)
	}

	if err := f.draft.SetPosition(Position{Lat: 95, Lng: 0}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected range validation, got %v", err)
	}
}

func TestToggleItem(t *testing.T) {
	f := newFixture(t)
	f.load(t)

	selected, err := f.draft.ToggleItem("i2")
	if err != nil || !selected {
		t.Fatalf("expected i2 selected, got %v, %v", selected, err)
	}
	selected, err = f.draft.ToggleItem("i2")
	if err != nil || selected {
		t.Fatalf("expected i2 deselected, got %v, %v", selected, err)
	}
	if _, err := f.draft.ToggleItem("missing"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSetFieldsIsPartial(t *testing.T) {
	f := newFixture(t)
	name, email := "Ecoponto", "a@b.com"
	if err := f.draft.SetFields(FieldsUpdate{Name: &name, Email: &email}); err != nil {
		t.Fatalf("SetFields: %v", err)
	}
	other := "Ecoponto Leste"
	if err := f.draft.SetFields(FieldsUpdate{Name: &other}); err != nil {
		t.Fatalf("SetFields: %v", err)
	}
	view := f.draft.Snapshot()
	if view.Fields.Name != "Ecoponto Leste" || view.Fields.Email != "a@b.com" || view.Fields.WhatsApp != "" {
		t.Fatalf("unexpected fields %+v", view.Fields)
	}
}

func TestSubmitEmptyDraftMakesNoCall(t *testing.T) {
	f := newFixture(t)
	f.load(t)

	_, err := f.draft.Submit(context.Background())
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, _ := appErr.Details.(map[string]string)
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if !equalStrings(keys, []string{"city", "email", "items", "name", "position", "uf", "whatsapp"}) {
		t.Fatalf("unexpected missing fields %v", keys)
	}
	if len(f.submitter.submissions) != 0 {
		t.Fatal("expected no point creation call")
	}
}

func TestSubmitCompleteDraft(t *testing.T) {
	f := newFixture(t)
	f.complete(t)

	pointID, err := f.draft.Submit(context.Background())
	if err != nil || pointID != "point-1" {
		t.Fatalf("Submit returned %q, %v", pointID, err)
	}

	got := f.submitter.submissions[0]
	if got.UF != "SP" || got.City != "Campinas" || got.Latitude != -22.9 || got.Longitude != -47.06 {
		t.Fatalf("unexpected submission %+v", got)
	}
	if !equalStrings(got.ItemIDs, []string{"i1", "i3"}) {
		t.Fatalf("expected items in list order, got %v", got.ItemIDs)
	}

	view := f.draft.Snapshot()
	if view.Status != StatusSubmitted || view.PointID != "point-1" {
		t.Fatalf("unexpected view after submit %+v", view)
	}

	if err := f.draft.SelectRegion("RJ"); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict after submit, got %v", err)
	}
	if _, err := f.draft.Submit(context.Background()); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict on second submit, got %v", err)
	}
	if len(f.submitter.submissions) != 1 {
		t.Fatalf("expected one submission, got %d", len(f.submitter.submissions))
	}
}

func TestSubmitFailureKeepsDraftOpen(t *testing.T) {
	f := newFixture(t)
	f.complete(t)
	f.submitter.err = apperr.Validation("validation failed")

	if _, err := f.draft.Submit(context.Background()); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected submitter error to propagate, got %v", err)
	}
	view := f.draft.Snapshot()
	if view.Status != StatusOpen || view.Errors[ErrorKeySubmit] == "" {
		t.Fatalf("expected open draft with submit error, got %+v", view)
	}
	if err := f.draft.SelectMunicipality("São Paulo"); err != nil {
		t.Fatalf("draft should stay editable: %v", err)
	}
}

func TestClosedDraftRejectsMutations(t *testing.T) {
	f := newFixture(t)
	f.load(t)
	f.draft.Close()

	if err := f.draft.SelectRegion("SP"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found after close, got %v", err)
	}
}

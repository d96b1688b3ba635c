// Package service manages registration drafts on behalf of the HTTP layer.
package service

import (
	"context"

	"github.com/google/uuid"

	"ecoleta_backend/internal/createpoint/form"
	"ecoleta_backend/platform/logger"
)

// Service opens drafts and applies form actions to them.
type Service struct {
	store *form.Store
	deps  form.Deps
	log   *logger.Logger
}

// New creates a draft service backed by store.
func New(store *form.Store, deps form.Deps, log *logger.Logger) *Service {
	return &Service{store: store, deps: deps, log: log}
}

// SubmitResult is returned by a successful submit.
type SubmitResult struct {
	PointID string    `json:"pointId"`
	Draft   form.View `json:"draft"`
}

// Open creates a draft and loads its item and region lists. Load failures
// are reported in the draft's errors, not as an error.
func (s *Service) Open(ctx context.Context) (form.View, error) {
	d := form.New(uuid.New(), s.deps)
	log := s.logFor(ctx, d.ID())

	if err := d.Load(ctx); err != nil {
		log.Warn("draft opened with load errors", "error", err)
	}
	s.store.Put(d)
	log.Info("draft opened")
	return d.Snapshot(), nil
}

// Get returns the current state of a draft.
func (s *Service) Get(_ context.Context, id uuid.UUID) (form.View, error) {
	d, err := s.store.Get(id)
	if err != nil {
		return form.View{}, err
	}
	return d.Snapshot(), nil
}

// UpdateFields applies a partial update of the identity fields.
func (s *Service) UpdateFields(_ context.Context, id uuid.UUID, update form.FieldsUpdate) (form.View, error) {
	return s.apply(id, func(d *form.Draft) error {
		return d.SetFields(update)
	})
}

// SelectRegion selects code and waits until its municipality list has
// settled or ctx ends.
func (s *Service) SelectRegion(ctx context.Context, id uuid.UUID, code string) (form.View, error) {
	d, err := s.store.Get(id)
	if err != nil {
		return form.View{}, err
	}
	if err := d.SelectRegion(code); err != nil {
		return form.View{}, err
	}
	if err := d.Await(ctx); err != nil {
		return form.View{}, err
	}

	view := d.Snapshot()
	if msg, ok := view.Errors[form.ErrorKeyMunicipalities]; ok {
		s.logFor(ctx, id).Warn("municipality load failed", "region", view.Region.Selected, "error", msg)
	}
	return view, nil
}

// SelectMunicipality selects a municipality of the current list.
func (s *Service) SelectMunicipality(_ context.Context, id uuid.UUID, name string) (form.View, error) {
	return s.apply(id, func(d *form.Draft) error {
		return d.SelectMunicipality(name)
	})
}

// SetPosition records a map click.
func (s *Service) SetPosition(_ context.Context, id uuid.UUID, pos form.Position) (form.View, error) {
	return s.apply(id, func(d *form.Draft) error {
		return d.SetPosition(pos)
	})
}

// ToggleItem adds or removes an item from the selection.
func (s *Service) ToggleItem(_ context.Context, id uuid.UUID, itemID string) (form.View, error) {
	return s.apply(id, func(d *form.Draft) error {
		_, err := d.ToggleItem(itemID)
		return err
	})
}

// Submit registers the point described by the draft.
func (s *Service) Submit(ctx context.Context, id uuid.UUID) (SubmitResult, error) {
	d, err := s.store.Get(id)
	if err != nil {
		return SubmitResult{}, err
	}

	pointID, err := d.Submit(ctx)
	if err != nil {
		return SubmitResult{}, err
	}
	s.logFor(ctx, id).Info("draft submitted", "point_id", pointID)
	return SubmitResult{PointID: pointID, Draft: d.Snapshot()}, nil
}

// Discard deletes a draft, cancelling any in-flight request.
func (s *Service) Discard(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(id); err != nil {
		return err
	}
	s.logFor(ctx, id).Info("draft discarded")
	return nil
}

func (s *Service) apply(id uuid.UUID, mutate func(*form.Draft) error) (form.View, error) {
	d, err := s.store.Get(id)
	if err != nil {
		return form.View{}, err
	}
	if err := mutate(d); err != nil {
		return form.View{}, err
	}
	return d.Snapshot(), nil
}

func (s *Service) logFor(ctx context.Context, id uuid.UUID) *logger.Logger {
	return s.log.WithContext(context.WithValue(ctx, logger.DraftIDKey, id.String()))
}

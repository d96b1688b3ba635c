package form

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"ecoleta_backend/platform/apperr"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestStore(ttl time.Duration) (*Store, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	store := NewStore(ttl)
	store.now = clock.Now
	return store, clock
}

func TestStoreGetRefreshesExpiry(t *testing.T) {
	store, clock := newTestStore(time.Minute)
	f := newFixture(t)
	store.Put(f.draft)

	clock.now = clock.now.Add(50 * time.Second)
	if _, err := store.Get(f.draft.ID()); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	clock.now = clock.now.Add(50 * time.Second)
	if removed := store.Sweep(); removed != 0 {
		t.Fatalf("expected recently used draft to survive, removed %d", removed)
	}

	clock.now = clock.now.Add(2 * time.Minute)
	if _, err := store.Get(f.draft.ID()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected expired draft to be hidden, got %v", err)
	}
	if removed := store.Sweep(); removed != 1 || store.Len() != 0 {
		t.Fatalf("expected sweep to remove the draft, removed %d len %d", removed, store.Len())
	}
	if !f.draft.IsClosed() {
		t.Fatal("expected swept draft to be closed")
	}
}

func TestStoreDeleteCancelsInFlightFetch(t *testing.T) {
	store, _ := newTestStore(time.Minute)
	f := newFixture(t)
	f.load(t)
	f.regions.gates["SP"] = make(chan struct{})
	store.Put(f.draft)

	if err := f.draft.SelectRegion("SP"); err != nil {
		t.Fatalf("SelectRegion: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- store.Delete(f.draft.ID()) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Delete returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Delete did not cancel the in-flight request")
	}

	if err := store.Delete(f.draft.ID()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	if _, err := store.Get(uuid.New()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for unknown id, got %v", err)
	}
}

func TestStoreRunClosesDraftsOnShutdown(t *testing.T) {
	store, _ := newTestStore(time.Minute)
	f := newFixture(t)
	store.Put(f.draft)

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		store.Run(ctx, time.Hour, nil)
		close(finished)
	}()
	cancel()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if store.Len() != 0 || !f.draft.IsClosed() {
		t.Fatal("expected all drafts closed on shutdown")
	}
}

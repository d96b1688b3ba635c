package form

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"ecoleta_backend/platform/apperr"
)

type entry struct {
	draft    *Draft
	lastSeen time.Time
}

// Store keeps open drafts in memory and expires them after ttl of inactivity.
type Store struct {
	mu     sync.Mutex
	drafts map[uuid.UUID]*entry
	ttl    time.Duration
	now    func() time.Time
}

// NewStore creates a store whose drafts expire after ttl without access.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		drafts: make(map[uuid.UUID]*entry),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Put adds d to the store.
func (s *Store) Put(d *Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[d.ID()] = &entry{draft: d, lastSeen: s.now()}
}

// Get returns the draft and refreshes its expiry.
func (s *Store) Get(id uuid.UUID) (*Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.drafts[id]
	if !ok || s.expiredLocked(e) {
		return nil, apperr.NotFound("draft not found")
	}
	e.lastSeen = s.now()
	return e.draft, nil
}

// Delete removes and closes the draft.
func (s *Store) Delete(id uuid.UUID) error {
	s.mu.Lock()
	e, ok := s.drafts[id]
	delete(s.drafts, id)
	s.mu.Unlock()
	if !ok {
		return apperr.NotFound("draft not found")
	}
	e.draft.Close()
	return nil
}

// Len returns the number of drafts held, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.drafts)
}

// Sweep closes and removes expired drafts, returning how many it removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	var expired []*Draft
	for id, e := range s.drafts {
		if s.expiredLocked(e) {
			expired = append(expired, e.draft)
			delete(s.drafts, id)
		}
	}
	s.mu.Unlock()

	for _, d := range expired {
		d.Close()
	}
	return len(expired)
}

// Run sweeps every interval until ctx is done, then closes all drafts.
func (s *Store) Run(ctx context.Context, interval time.Duration, onSweep func(removed int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.closeAll()
			return
		case <-ticker.C:
			if removed := s.Sweep(); removed > 0 && onSweep != nil {
				onSweep(removed)
			}
		}
	}
}

func (s *Store) closeAll() {
	s.mu.Lock()
	drafts := make([]*Draft, 0, len(s.drafts))
	for id, e := range s.drafts {
		drafts = append(drafts, e.draft)
		delete(s.drafts, id)
	}
	s.mu.Unlock()

	for _, d := range drafts {
		d.Close()
	}
}

func (s *Store) expiredLocked(e *entry) bool {
	return s.now().Sub(e.lastSeen) > s.ttl
}

// Package service implements region and municipality lookups backed by IBGE,
// with an optional Redis cache in front.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"ecoleta_backend/internal/geography/client"
	"ecoleta_backend/internal/geography/transport"
	"ecoleta_backend/platform/apperr"
	"ecoleta_backend/platform/cache"
	"ecoleta_backend/platform/logger"
	"ecoleta_backend/platform/sanitize"
)

const (
	cacheKeyRegions        = "regions"
	cacheKeyMunicipalities = "municipalities:"
)

// Upstream is the IBGE localities API.
type Upstream interface {
	ListStates(ctx context.Context) ([]client.State, error)
	ListMunicipalities(ctx context.Context, uf string) ([]client.Municipality, error)
}

// ReverseGeocoder resolves coordinates to a place.
type ReverseGeocoder interface {
	Reverse(ctx context.Context, lat, lng float64) (client.Place, bool, error)
}

// Cache stores JSON values. cache.JSONCache satisfies it.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Service provides region and municipality listings.
type Service struct {
	upstream Upstream
	reverse  ReverseGeocoder
	cache    Cache
	cacheTTL time.Duration
	timeout  time.Duration
	group    singleflight.Group
	log      *logger.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCache puts cache in front of the upstream for ttl.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

// WithReverseGeocoder enables Reverse.
func WithReverseGeocoder(reverse ReverseGeocoder) Option {
	return func(s *Service) {
		s.reverse = reverse
	}
}

// WithUpstreamTimeout bounds a shared upstream call.
func WithUpstreamTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		s.timeout = timeout
	}
}

// New creates a geography service.
func New(upstream Upstream, log *logger.Logger, opts ...Option) *Service {
	s := &Service{upstream: upstream, log: log, timeout: 10 * time.Second}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListRegions returns the UF codes in IBGE order.
func (s *Service) ListRegions(ctx context.Context) ([]string, error) {
	return s.cached(ctx, cacheKeyRegions, "list states", func(ctx context.Context) ([]string, error) {
		states, err := s.upstream.ListStates(ctx)
		if err != nil {
			return nil, err
		}
		codes := make([]string, 0, len(states))
		for _, state := range states {
			codes = append(codes, state.Sigla)
		}
		return codes, nil
	})
}

// ListMunicipalities returns the municipality names of code in IBGE order.
// A non-empty query keeps only names containing it, ignoring case and accents.
func (s *Service) ListMunicipalities(ctx context.Context, code, query string) ([]string, error) {
	uf := strings.ToUpper(strings.TrimSpace(code))
	if len(uf) != 2 {
		return nil, apperr.Validation("invalid region code")
	}

	names, err := s.cached(ctx, cacheKeyMunicipalities+uf, "list municipalities", func(ctx context.Context) ([]string, error) {
		municipalities, err := s.upstream.ListMunicipalities(ctx, uf)
		if err != nil {
			return nil, err
		}
		out := make([]string, 0, len(municipalities))
		for _, m := range municipalities {
			out = append(out, m.Nome)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	return filterNames(names, query), nil
}

// Reverse resolves lat,lng to a UF and city.
func (s *Service) Reverse(ctx context.Context, lat, lng float64) (transport.ReverseResponse, error) {
	if s.reverse == nil {
		return transport.ReverseResponse{}, apperr.Unavailable("reverse geocoding is not configured", nil)
	}

	place, found, err := s.reverse.Reverse(ctx, lat, lng)
	if err != nil {
		s.log.UpstreamError("nominatim", "reverse", err)
		return transport.ReverseResponse{}, apperr.Unavailable("reverse geocoding unavailable", err)
	}
	if !found {
		return transport.ReverseResponse{Found: false}, nil
	}
	return transport.ReverseResponse{
		Found:       true,
		UF:          place.UF,
		City:        place.City,
		DisplayName: place.DisplayName,
	}, nil
}

// cached reads key from the cache, otherwise runs fetch once per key across
// concurrent callers. The shared call ignores caller cancellation; a caller
// whose ctx ends returns ctx.Err() while the fetch continues for the others.
func (s *Service) cached(ctx context.Context, key, operation string, fetch func(context.Context) ([]string, error)) ([]string, error) {
	var hit []string
	if s.cacheGet(ctx, key, &hit) {
		return hit, nil
	}

	ch := s.group.DoChan(key, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()

		values, err := fetch(fetchCtx)
		if err != nil {
			s.log.UpstreamError("ibge", operation, err)
			return nil, err
		}
		s.cacheSet(fetchCtx, key, values)
		return values, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, apperr.Unavailable(fmt.Sprintf("ibge %s failed", operation), res.Err)
		}
		values := res.Val.([]string)
		out := make([]string, len(values))
		copy(out, values)
		return out, nil
	}
}

func (s *Service) cacheGet(ctx context.Context, key string, dest *[]string) bool {
	if s.cache == nil {
		return false
	}
	if err := s.cache.GetJSON(ctx, key, dest); err != nil {
		if !isMiss(err) {
			s.log.Warn("geography cache read failed", "key", key, "error", err)
		}
		return false
	}
	return true
}

func (s *Service) cacheSet(ctx context.Context, key string, values []string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, key, values, s.cacheTTL); err != nil {
		s.log.Warn("geography cache write failed", "key", key, "error", err)
	}
}

func filterNames(names []string, query string) []string {
	needle := sanitize.Fold(query)
	if needle == "" {
		return names
	}
	out := make([]string, 0)
	for _, name := range names {
		if strings.Contains(sanitize.Fold(name), needle) {
			out = append(out, name)
		}
	}
	return out
}

func isMiss(err error) bool {
	return errors.Is(err, cache.ErrMiss)
}

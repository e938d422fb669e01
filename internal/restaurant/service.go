// Package restaurant fetches restaurants from the backend and keeps a
// short-lived cache of individual restaurants.
package restaurant

import (
	"context"
	"time"

	"github.com/hkeats/eats/internal/apiclient"
	"github.com/hkeats/eats/internal/cache"
	"github.com/hkeats/eats/internal/domain"
	"github.com/hkeats/eats/internal/endpoint"
	"github.com/hkeats/eats/pkg/logger"
)

const (
	// DefaultRadius is used when FetchNearby gets a non-positive radius, in metres.
	DefaultRadius = 5000
	// DefaultCacheTTL is how long a fetched restaurant stays fresh.
	DefaultCacheTTL = 5 * time.Minute
	// DefaultCacheSize bounds the number of cached restaurants.
	DefaultCacheSize = 100
)

// Config configures the service. Zero values select the defaults.
type Config struct {
	DefaultRadius int
	CacheTTL      time.Duration
	CacheSize     int
	Clock         cache.Clock
}

// Service wraps the API client. Client errors are returned unchanged.
type Service struct {
	client *apiclient.Client
	cache  *cache.TTL[string, domain.Restaurant]
	radius int
	log    *logger.Logger
}

// New creates a restaurant service.
func New(client *apiclient.Client, cfg Config, log *logger.Logger) (*Service, error) {
	if log == nil {
		log = logger.NewDefault("restaurant")
	}
	if cfg.DefaultRadius <= 0 {
		cfg.DefaultRadius = DefaultRadius
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	c, err := cache.NewTTL[string, domain.Restaurant]("restaurant", cfg.CacheSize, cfg.CacheTTL, cache.WithClock(cfg.Clock))
	if err != nil {
		return nil, err
	}
	return &Service{client: client, cache: c, radius: cfg.DefaultRadius, log: log}, nil
}

// FetchNearby lists restaurants around a point. A radius <= 0 uses the default.
func (s *Service) FetchNearby(ctx context.Context, lat, lng float64, radius int) ([]domain.Restaurant, error) {
	if radius <= 0 {
		radius = s.radius
	}
	return apiclient.Do[[]domain.Restaurant](ctx, s.client, endpoint.NearbyRestaurants(lat, lng, radius))
}

// FetchFeatured lists the featured restaurants.
func (s *Service) FetchFeatured(ctx context.Context) ([]domain.Restaurant, error) {
	return apiclient.Do[[]domain.Restaurant](ctx, s.client, endpoint.FeaturedRestaurants())
}

// FetchByID returns a cached restaurant while fresh, otherwise fetches it
// and caches the result. The lookup and the store are separate steps, so
// concurrent callers may both fetch.
func (s *Service) FetchByID(ctx context.Context, id string) (domain.Restaurant, error) {
	if r, ok := s.cache.Get(id); ok {
		return r, nil
	}
	r, err := apiclient.Do[domain.Restaurant](ctx, s.client, endpoint.Restaurant(id))
	if err != nil {
		return domain.Restaurant{}, err
	}
	s.cache.Set(id, r)
	s.log.WithField("restaurant_id", id).Debug("restaurant cached")
	return r, nil
}

// Invalidate drops one cached restaurant.
func (s *Service) Invalidate(id string) {
	s.cache.Delete(id)
}

// InvalidateAll empties the cache.
func (s *Service) InvalidateAll() {
	s.cache.Purge()
}

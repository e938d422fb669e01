// Package location wraps the device location provider and offers distance
// helpers for sorting restaurants.
package location

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/hkeats/eats/internal/domain"
	"github.com/hkeats/eats/pkg/logger"
)

// Authorization is the location permission state.
type Authorization int

const (
	NotDetermined Authorization = iota
	Denied
	Authorized
)

func (a Authorization) String() string {
	switch a {
	case Denied:
		return "denied"
	case Authorized:
		return "authorized"
	default:
		return "not_determined"
	}
}

var (
	// ErrPermissionDenied is returned when the user refused location access.
	ErrPermissionDenied = errors.New("location: permission denied")
	// ErrUnavailable is returned when no fix can be produced.
	ErrUnavailable = errors.New("location: unavailable")
)

// Fix is one location update or failure.
type Fix struct {
	Coordinate domain.Coordinate
	Err        error
}

// Provider is the device location service.
type Provider interface {
	AuthorizationStatus() Authorization
	RequestPermission(ctx context.Context) (Authorization, error)
	RequestLocation(ctx context.Context) (domain.Coordinate, error)
	// StartUpdates delivers fixes until StopUpdates closes the channel.
	StartUpdates(ctx context.Context) (<-chan Fix, error)
	StopUpdates()
}

// Service tracks the latest known location.
type Service struct {
	provider Provider
	log      *logger.Logger

	mu       sync.Mutex
	last     *domain.Coordinate
	lastErr  error
	updating bool
	done     chan struct{}
}

// NewService creates a location service.
func NewService(provider Provider, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("location")
	}
	return &Service{provider: provider, log: log}
}

// CurrentLocation returns a single fix, asking for permission first when the
// user has not decided yet.
func (s *Service) CurrentLocation(ctx context.Context) (domain.Coordinate, error) {
	if err := s.ensurePermission(ctx); err != nil {
		return domain.Coordinate{}, err
	}
	c, err := s.provider.RequestLocation(ctx)
	s.record(c, err)
	if err != nil {
		return domain.Coordinate{}, err
	}
	return c, nil
}

// LastKnown returns the most recent fix, if any.
func (s *Service) LastKnown() (domain.Coordinate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return domain.Coordinate{}, false
	}
	return *s.last, true
}

// LastError returns the most recent failure, if any.
func (s *Service) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Start begins continuous updates. Calling it while updating is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.updating {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if err := s.ensurePermission(ctx); err != nil {
		return err
	}
	fixes, err := s.provider.StartUpdates(ctx)
	if err != nil {
		return err
	}

	done := make(chan struct{})
	s.mu.Lock()
	s.updating = true
	s.done = done
	s.mu.Unlock()

	go func() {
		defer close(done)
		for fix := range fixes {
			s.record(fix.Coordinate, fix.Err)
		}
	}()
	return nil
}

// Stop ends continuous updates and waits for the last fix to be recorded.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.updating {
		s.mu.Unlock()
		return
	}
	s.updating = false
	done := s.done
	s.mu.Unlock()

	s.provider.StopUpdates()
	<-done
}

func (s *Service) ensurePermission(ctx context.Context) error {
	status := s.provider.AuthorizationStatus()
	if status == NotDetermined {
		var err error
		if status, err = s.provider.RequestPermission(ctx); err != nil {
			return err
		}
	}
	if status != Authorized {
		s.record(domain.Coordinate{}, ErrPermissionDenied)
		return ErrPermissionDenied
	}
	return nil
}

func (s *Service) record(c domain.Coordinate, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err
		s.log.WithError(err).Debug("location update failed")
		return
	}
	s.last = &c
	s.lastErr = nil
}

// ============================================================================
// Distance helpers
// ============================================================================

const earthRadiusMeters = 6371000.0

// DistanceMeters is the great-circle distance between a and b.
func DistanceMeters(a, b domain.Coordinate) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// SortByDistance returns restaurants ordered nearest first. Ties keep their order.
func SortByDistance(restaurants []domain.Restaurant, from domain.Coordinate) []domain.Restaurant {
	type ranked struct {
		r domain.Restaurant
		d float64
	}
	list := make([]ranked, len(restaurants))
	for i, r := range restaurants {
		list[i] = ranked{r: r, d: DistanceMeters(from, r.Location)}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].d < list[j].d })

	out := make([]domain.Restaurant, len(list))
	for i, rk := range list {
		out[i] = rk.r
	}
	return out
}

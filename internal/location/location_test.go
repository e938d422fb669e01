package location

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hkeats/eats/internal/domain"
	"github.com/hkeats/eats/pkg/logger"
)

var (
	central = domain.Coordinate{Latitude: 22.2819, Longitude: 114.1586}
	tst     = domain.Coordinate{Latitude: 22.2976, Longitude: 114.1722}
	mongKok = domain.Coordinate{Latitude: 22.3193, Longitude: 114.1694}
)

func TestCurrentLocation(t *testing.T) {
	p := NewStaticProvider(central)
	svc := NewService(p, logger.Discard())

	_, ok := svc.LastKnown()
	assert.False(t, ok)

	got, err := svc.CurrentLocation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, central, got)

	last, ok := svc.LastKnown()
	assert.True(t, ok)
	assert.Equal(t, central, last)
}

func TestCurrentLocation_RequestsPermission(t *testing.T) {
	p := NewStaticProvider(central)
	p.SetAuthorization(NotDetermined, Authorized)
	svc := NewService(p, logger.Discard())

	_, err := svc.CurrentLocation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Authorized, p.AuthorizationStatus())
}

func TestCurrentLocation_Denied(t *testing.T) {
	p := NewStaticProvider(central)
	p.SetAuthorization(NotDetermined, Denied)
	svc := NewService(p, logger.Discard())

	_, err := svc.CurrentLocation(context.Background())
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.ErrorIs(t, svc.LastError(), ErrPermissionDenied)

	assert.ErrorIs(t, svc.Start(context.Background()), ErrPermissionDenied)
}

func TestCurrentLocation_ProviderFailure(t *testing.T) {
	p := NewStaticProvider(central)
	p.SetError(ErrUnavailable)
	svc := NewService(p, logger.Discard())

	_, err := svc.CurrentLocation(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
	_, ok := svc.LastKnown()
	assert.False(t, ok)
}

func TestContinuousUpdates(t *testing.T) {
	p := NewStaticProvider(central)
	svc := NewService(p, logger.Discard())

	require.NoError(t, svc.Start(context.Background()))
	require.NoError(t, svc.Start(context.Background()))

	assert.Eventually(t, func() bool {
		c, ok := svc.LastKnown()
		return ok && c == central
	}, time.Second, 5*time.Millisecond)

	p.Move(mongKok)
	assert.Eventually(t, func() bool {
		c, _ := svc.LastKnown()
		return c == mongKok
	}, time.Second, 5*time.Millisecond)

	p.SetError(errors.New("gps lost"))
	p.Move(tst)
	svc.Stop()
	svc.Stop()

	c, _ := svc.LastKnown()
	assert.Equal(t, mongKok, c, "failed fixes keep the last good one")
	assert.EqualError(t, svc.LastError(), "gps lost")
}

func TestDistanceMeters(t *testing.T) {
	assert.Equal(t, 0.0, DistanceMeters(central, central))

	d := DistanceMeters(central, mongKok)
	assert.InDelta(t, 4250, d, 150)
	assert.InDelta(t, d, DistanceMeters(mongKok, central), 1e-6)
}

func TestSortByDistance(t *testing.T) {
	rs := []domain.Restaurant{
		{ID: "mk", Location: mongKok},
		{ID: "c1", Location: central},
		{ID: "tst", Location: tst},
		{ID: "c2", Location: central},
	}

	got := SortByDistance(rs, central)
	ids := make([]string, len(got))
	for i, r := range got {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"c1", "c2", "tst", "mk"}, ids)
	assert.Equal(t, "mk", rs[0].ID, "input untouched")
}

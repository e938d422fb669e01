package restaurant

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hkeats/eats/internal/apiclient"
	"github.com/hkeats/eats/internal/apierr"
	"github.com/hkeats/eats/pkg/logger"
	"github.com/hkeats/eats/pkg/testutil"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestService(t *testing.T) (*Service, *testutil.FakeAPI, *clock) {
	t.Helper()
	api := testutil.NewFakeAPI(t)
	client, err := apiclient.New(apiclient.Config{
		BaseURL:  api.URL(),
		Passcode: testutil.FakePasscode,
		Logger:   logger.Discard(),
	})
	require.NoError(t, err)

	clk := &clock{now: testutil.FixedTime}
	svc, err := New(client, Config{Clock: clk.Now}, logger.Discard())
	require.NoError(t, err)
	return svc, api, clk
}

func TestFetchNearby_DefaultRadius(t *testing.T) {
	svc, api, _ := newTestService(t)
	api.AddRestaurant(testutil.Restaurant("r1", "Tim's Kitchen", "添好運"), false)

	list, err := svc.FetchNearby(context.Background(), 22.28, 114.15, 0)
	require.NoError(t, err)

	require.Len(t, list, 1)
	assert.Equal(t, "r1", list[0].ID)
	req, ok := api.Last()
	require.True(t, ok)
	assert.Equal(t, "5000", req.Query.Get("radius"))
	assert.Equal(t, "22.28", req.Query.Get("lat"))
	assert.Equal(t, "114.15", req.Query.Get("lng"))
}

func TestFetchNearby_ExplicitRadius(t *testing.T) {
	svc, api, _ := newTestService(t)

	list, err := svc.FetchNearby(context.Background(), 22.28, 114.15, 1200)
	require.NoError(t, err)

	assert.Empty(t, list)
	req, _ := api.Last()
	assert.Equal(t, "1200", req.Query.Get("radius"))
}

func TestFetchFeatured(t *testing.T) {
	svc, api, _ := newTestService(t)
	api.AddRestaurant(testutil.Restaurant("r1", "One", "一"), true)
	api.AddRestaurant(testutil.Restaurant("r2", "Two", "二"), false)

	list, err := svc.FetchFeatured(context.Background())
	require.NoError(t, err)

	require.Len(t, list, 1)
	assert.Equal(t, "One", list[0].Name.EN)
}

func TestFetchByID_CachesWithinTTL(t *testing.T) {
	svc, api, clk := newTestService(t)
	api.AddRestaurant(testutil.Restaurant("r1", "Tim's Kitchen", "添好運"), false)

	first, err := svc.FetchByID(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, 1, api.Count(testutil.RouteRestaurant))

	clk.Advance(DefaultCacheTTL - time.Second)
	second, err := svc.FetchByID(context.Background(), "r1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, api.Count(testutil.RouteRestaurant), "cached read issues no request")
}

func TestFetchByID_RefetchesAfterTTL(t *testing.T) {
	svc, api, clk := newTestService(t)
	api.AddRestaurant(testutil.Restaurant("r1", "Tim's Kitchen", "添好運"), false)

	_, err := svc.FetchByID(context.Background(), "r1")
	require.NoError(t, err)

	clk.Advance(DefaultCacheTTL)
	_, err = svc.FetchByID(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, 2, api.Count(testutil.RouteRestaurant))

	// the refetch restarted the TTL
	clk.Advance(DefaultCacheTTL - time.Second)
	_, err = svc.FetchByID(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, 2, api.Count(testutil.RouteRestaurant))
}

func TestFetchByID_ErrorsAreNotCached(t *testing.T) {
	svc, api, _ := newTestService(t)

	_, err := svc.FetchByID(context.Background(), "missing")
	assert.ErrorIs(t, err, &apierr.Error{Kind: apierr.KindClient, StatusCode: http.StatusNotFound})

	api.AddRestaurant(testutil.Restaurant("missing", "Found", "找到"), false)
	r, err := svc.FetchByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Equal(t, "Found", r.Name.EN)
	assert.Equal(t, 2, api.Count(testutil.RouteRestaurant))
}

func TestFetchByID_ServerErrorUnchanged(t *testing.T) {
	svc, api, _ := newTestService(t)
	api.FailWith(testutil.RouteRestaurant, http.StatusServiceUnavailable)

	_, err := svc.FetchByID(context.Background(), "r1")
	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierr.KindServer, apiErr.Kind)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
}

func TestInvalidate(t *testing.T) {
	svc, api, _ := newTestService(t)
	api.AddRestaurant(testutil.Restaurant("r1", "One", "一"), false)
	api.AddRestaurant(testutil.Restaurant("r2", "Two", "二"), false)

	for _, id := range []string{"r1", "r2"} {
		_, err := svc.FetchByID(context.Background(), id)
		require.NoError(t, err)
	}

	svc.Invalidate("r1")
	_, _ = svc.FetchByID(context.Background(), "r1")
	_, _ = svc.FetchByID(context.Background(), "r2")
	assert.Equal(t, 3, api.Count(testutil.RouteRestaurant))

	svc.InvalidateAll()
	_, _ = svc.FetchByID(context.Background(), "r1")
	_, _ = svc.FetchByID(context.Background(), "r2")
	assert.Equal(t, 5, api.Count(testutil.RouteRestaurant))
}

func TestNew_Defaults(t *testing.T) {
	svc, _, _ := newTestService(t)
	assert.Equal(t, DefaultRadius, svc.radius)
	assert.Equal(t, DefaultCacheTTL, svc.cache.TTL())
}

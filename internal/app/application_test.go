package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hkeats/eats/internal/app"
	"github.com/hkeats/eats/internal/auth"
	"github.com/hkeats/eats/internal/config"
	"github.com/hkeats/eats/internal/domain"
	"github.com/hkeats/eats/pkg/logger"
	"github.com/hkeats/eats/pkg/testutil"
)

func newTestApp(t *testing.T) (*app.Application, *testutil.FakeAPI, *testutil.FakeIdentity) {
	t.Helper()
	api := testutil.NewFakeAPI(t)
	identity := testutil.NewFakeIdentity()

	cfg := config.Default()
	cfg.API.BaseURL = api.URL()
	cfg.API.Passcode = testutil.FakePasscode
	require.NoError(t, cfg.Validate())

	application, err := app.New(cfg, app.Deps{Identity: identity}, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(application.Close)
	return application, api, identity
}

func TestNew_Wiring(t *testing.T) {
	a, api, identity := newTestApp(t)

	assert.NotNil(t, a.Restaurants)
	assert.NotNil(t, a.Menus)
	assert.NotNil(t, a.Reviews)
	assert.NotNil(t, a.Location)
	assert.Nil(t, a.Search, "no search index configured")
	assert.True(t, a.API.Authenticated())
	assert.Equal(t, api.URL(), a.API.BaseURL())
	assert.Equal(t, 1, identity.ListenerCount())

	a.Close()
	a.Close()
	assert.Equal(t, 0, identity.ListenerCount())
}

func TestNew_RejectsBadConfig(t *testing.T) {
	_, err := app.New(config.Default(), app.Deps{}, logger.Discard())
	assert.Error(t, err)
}

func TestNew_WithoutFirebaseKeyIsAnonymous(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	cfg := config.Default()
	cfg.API.BaseURL = api.URL()
	cfg.API.Passcode = testutil.FakePasscode

	a, err := app.New(cfg, app.Deps{}, logger.Discard())
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Session.SignIn(context.Background(), "mei@example.com", "secret123")
	assert.ErrorIs(t, err, auth.ErrNotConfigured)
}

func TestNearbyWithoutSession(t *testing.T) {
	a, api, identity := newTestApp(t)

	_, err := a.Restaurants.FetchNearby(context.Background(), 22.28, 114.15, 5000)
	require.NoError(t, err)

	req, ok := api.Last()
	require.True(t, ok)
	assert.Equal(t, "/restaurants/nearby", req.Path)
	assert.Len(t, req.Query, 3)
	assert.Equal(t, "22.28", req.Query.Get("lat"))
	assert.Equal(t, "114.15", req.Query.Get("lng"))
	assert.Equal(t, "5000", req.Query.Get("radius"))
	assert.Equal(t, testutil.FakePasscode, req.Header.Get("X-API-Passcode"))
	assert.Empty(t, req.Header.Get("Authorization"))
	assert.Equal(t, 0, identity.Calls(testutil.IdentityToken))
}

func TestSignedInReviewCarriesToken(t *testing.T) {
	a, api, identity := newTestApp(t)
	api.AddUser(domain.User{ID: "uid-mei", Email: "mei@example.com", DisplayName: "Mei"})
	identity.AddAccount("mei@example.com", "secret123", "uid-mei")

	_, err := a.Session.SignIn(context.Background(), "mei@example.com", "secret123")
	require.NoError(t, err)

	review, err := a.Reviews.Submit(context.Background(), domain.SubmitReviewRequest{
		RestaurantID: "r1",
		Rating:       5,
		Comment:      "Fantastic meal, highly recommend!",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, review.ID)

	req, _ := api.Last()
	assert.Contains(t, req.Header.Get("Authorization"), "Bearer token-uid-mei-")

	require.NoError(t, a.Session.SignOut(context.Background()))
	_, err = a.Restaurants.FetchFeatured(context.Background())
	require.NoError(t, err)
	req, _ = api.Last()
	assert.Empty(t, req.Header.Get("Authorization"))
}

func TestLocationFallback(t *testing.T) {
	a, _, _ := newTestApp(t)

	c, err := a.Location.CurrentLocation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Coordinate{Latitude: 22.2819, Longitude: 114.1586}, c)
}

package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hkeats/eats/internal/apiclient"
	"github.com/hkeats/eats/internal/apierr"
	"github.com/hkeats/eats/internal/auth"
	"github.com/hkeats/eats/internal/domain"
	"github.com/hkeats/eats/internal/mainloop"
	"github.com/hkeats/eats/internal/user"
	"github.com/hkeats/eats/pkg/logger"
	"github.com/hkeats/eats/pkg/testutil"
)

type harness struct {
	api      *testutil.FakeAPI
	identity *testutil.FakeIdentity
	loop     *mainloop.Loop
	session  *auth.Session
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	api := testutil.NewFakeAPI(t)
	identity := testutil.NewFakeIdentity()

	base, err := apiclient.New(apiclient.Config{
		BaseURL:  api.URL(),
		Passcode: testutil.FakePasscode,
		Logger:   logger.Discard(),
	})
	require.NoError(t, err)

	loop := mainloop.New(16)
	users := user.New(base, logger.Discard())
	session := auth.NewSession(loop, identity, users, logger.Discard())
	users.Bind(base.WithTokens(session))

	t.Cleanup(func() {
		session.Close()
		loop.Close()
	})
	return &harness{api: api, identity: identity, loop: loop, session: session}
}

func (h *harness) seedUser(email, password, uid string) domain.User {
	u := domain.User{
		ID:                uid,
		Email:             email,
		DisplayName:       "Mei",
		UserType:          domain.UserTypeCustomer,
		PreferredLanguage: "zh-Hant",
		CreatedAt:         testutil.FixedTime,
		UpdatedAt:         testutil.FixedTime,
	}
	h.api.AddUser(u)
	h.identity.AddAccount(email, password, uid)
	return u
}

func TestSession_RegistersListenerOnce(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, 1, h.identity.ListenerCount())
	assert.False(t, h.session.IsAuthenticated())

	h.session.Close()
	h.session.Close()
	assert.Equal(t, 0, h.identity.ListenerCount())
}

func TestSession_SignInLoadsProfile(t *testing.T) {
	h := newHarness(t)
	want := h.seedUser("mei@example.com", "secret123", "uid-mei")

	got, err := h.session.SignIn(context.Background(), "mei@example.com", "secret123")
	require.NoError(t, err)

	assert.Equal(t, want.ID, got.ID)
	assert.True(t, h.session.IsAuthenticated())
	assert.False(t, h.session.IsBusy())
	assert.NoError(t, h.session.LastError())
	require.NotNil(t, h.session.CurrentUser())
	assert.Equal(t, "Mei", h.session.CurrentUser().DisplayName)
	assert.Equal(t, 1, h.api.Count(testutil.RouteUserProfile))
}

func TestSession_SignInFailureClearsBusy(t *testing.T) {
	h := newHarness(t)
	h.seedUser("mei@example.com", "secret123", "uid-mei")

	_, err := h.session.SignIn(context.Background(), "mei@example.com", "wrong")
	require.Error(t, err)

	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	assert.False(t, h.session.IsBusy())
	assert.False(t, h.session.IsAuthenticated())
	assert.ErrorIs(t, h.session.LastError(), auth.ErrInvalidCredentials)
	assert.Equal(t, 0, h.api.Count(testutil.RouteUserProfile))
	assert.Equal(t, "電郵或密碼不正確。", apierr.UserMessage(err, "zh-HK"))
}

func TestSession_SignInValidatesInput(t *testing.T) {
	h := newHarness(t)

	_, err := h.session.SignIn(context.Background(), "  ", "pw")
	var v *apierr.ValidationError
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "email", v.Field)
	assert.Equal(t, 0, h.identity.Calls(testutil.IdentitySignIn))
	assert.False(t, h.session.IsBusy())
}

func TestSession_SignUpCreatesProfile(t *testing.T) {
	h := newHarness(t)

	got, err := h.session.SignUp(context.Background(), auth.SignUpRequest{
		Email:             "new@example.com",
		Password:          "secret123",
		DisplayName:       "Ka Ho",
		PreferredLanguage: "en",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.UserTypeCustomer, got.UserType)
	stored, ok := h.api.User(got.ID)
	require.True(t, ok)
	assert.Equal(t, "Ka Ho", stored.DisplayName)
	assert.True(t, h.session.IsAuthenticated())

	req, ok := h.api.Last()
	require.True(t, ok)
	assert.Equal(t, testutil.RouteCreateUser, req.Route)
	assert.Contains(t, req.Header.Get("Authorization"), "Bearer token-"+got.ID)
}

func TestSession_SignOutClearsStateWhenProviderFails(t *testing.T) {
	h := newHarness(t)
	h.seedUser("mei@example.com", "secret123", "uid-mei")
	_, err := h.session.SignIn(context.Background(), "mei@example.com", "secret123")
	require.NoError(t, err)

	providerErr := errors.New("keychain unavailable")
	h.identity.Fail(testutil.IdentitySignOut, providerErr)

	err = h.session.SignOut(context.Background())
	assert.ErrorIs(t, err, providerErr)
	assert.Nil(t, h.session.CurrentUser())
	assert.False(t, h.session.IsAuthenticated())
	assert.False(t, h.session.IsBusy())
}

func TestSession_SignOut(t *testing.T) {
	h := newHarness(t)
	h.seedUser("mei@example.com", "secret123", "uid-mei")
	_, err := h.session.SignIn(context.Background(), "mei@example.com", "secret123")
	require.NoError(t, err)

	require.NoError(t, h.session.SignOut(context.Background()))
	assert.False(t, h.session.IsAuthenticated())
	assert.Nil(t, h.identity.CurrentPrincipal())
}

func TestSession_FollowsProviderNotifications(t *testing.T) {
	h := newHarness(t)
	h.seedUser("mei@example.com", "secret123", "uid-mei")

	h.identity.SetPrincipal(&auth.Principal{UID: "uid-mei", Email: "mei@example.com"})
	assert.Eventually(t, h.session.IsAuthenticated, time.Second, 5*time.Millisecond)
	assert.Equal(t, "uid-mei", h.session.CurrentUser().ID)

	h.identity.SetPrincipal(nil)
	assert.Eventually(t, func() bool { return !h.session.IsAuthenticated() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, h.api.Count(testutil.RouteUserProfile))
}

func TestSession_NotificationProfileFailureIsRecorded(t *testing.T) {
	h := newHarness(t)
	h.identity.SetPrincipal(&auth.Principal{UID: "uid-missing"})

	assert.Eventually(t, func() bool { return h.session.LastError() != nil }, time.Second, 5*time.Millisecond)
	assert.True(t, apierr.IsKind(h.session.LastError(), apierr.KindClient))
	assert.False(t, h.session.IsAuthenticated())
}

func TestSession_TokenRequiresPrincipal(t *testing.T) {
	h := newHarness(t)

	_, err := h.session.Token(context.Background())
	assert.ErrorIs(t, err, apierr.ErrUnauthorized)
	assert.Equal(t, 0, h.identity.Calls(testutil.IdentityToken))
}

func TestSession_TokenAlwaysRefreshes(t *testing.T) {
	h := newHarness(t)
	h.identity.SetPrincipal(&auth.Principal{UID: "uid-mei"})

	first, err := h.session.Token(context.Background())
	require.NoError(t, err)
	second, err := h.session.Token(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, 2, h.identity.Calls(testutil.IdentityToken))
}

func TestSession_UpdateProfile(t *testing.T) {
	h := newHarness(t)

	name := "Mei Mei"
	_, err := h.session.UpdateProfile(context.Background(), domain.UpdateUserRequest{DisplayName: &name})
	assert.ErrorIs(t, err, apierr.ErrUnauthorized)
	assert.Equal(t, 0, h.api.Count(testutil.RouteUpdateUser))

	h.seedUser("mei@example.com", "secret123", "uid-mei")
	_, err = h.session.SignIn(context.Background(), "mei@example.com", "secret123")
	require.NoError(t, err)

	got, err := h.session.UpdateProfile(context.Background(), domain.UpdateUserRequest{DisplayName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Mei Mei", got.DisplayName)
	assert.Equal(t, "Mei Mei", h.session.CurrentUser().DisplayName)
	assert.Equal(t, 1, h.api.Count(testutil.RouteUpdateUser))
}

func TestSession_SendPasswordReset(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.session.SendPasswordReset(context.Background(), " mei@example.com "))
	assert.Equal(t, []string{"mei@example.com"}, h.identity.Resets())

	h.identity.Fail(testutil.IdentityReset, errors.New("offline"))
	assert.Error(t, h.session.SendPasswordReset(context.Background(), "mei@example.com"))
	assert.False(t, h.session.IsBusy())
}

func TestSession_Subscribe(t *testing.T) {
	h := newHarness(t)
	h.seedUser("mei@example.com", "secret123", "uid-mei")

	var mu sync.Mutex
	var busy []bool
	stop, err := h.session.Subscribe(context.Background(), func(st auth.State) {
		mu.Lock()
		busy = append(busy, st.Busy)
		mu.Unlock()
	})
	require.NoError(t, err)
	defer stop()

	_, err = h.session.SignIn(context.Background(), "mei@example.com", "secret123")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, busy)
	assert.True(t, busy[0])
	assert.False(t, busy[len(busy)-1])
}

// ============================================================================
// Cancellation and overlap
// ============================================================================

// stall occupies the loop until the returned function is called.
func (h *harness) stall(t *testing.T) (release func()) {
	t.Helper()
	ch := make(chan struct{})
	require.NoError(t, h.loop.Post(func() { <-ch }))
	var once sync.Once
	release = func() { once.Do(func() { close(ch) }) }
	t.Cleanup(release)
	return release
}

func TestSession_SignOutSettlesAfterCallerDeadline(t *testing.T) {
	h := newHarness(t)
	h.seedUser("mei@example.com", "secret123", "uid-mei")
	_, err := h.session.SignIn(context.Background(), "mei@example.com", "secret123")
	require.NoError(t, err)

	release := h.stall(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- h.session.SignOut(ctx) }()

	<-ctx.Done()
	release()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("SignOut did not return")
	}
	assert.False(t, h.session.IsBusy())
	assert.Nil(t, h.session.CurrentUser())
	assert.False(t, h.session.IsAuthenticated())
	assert.Nil(t, h.identity.CurrentPrincipal())
}

func TestSession_CancelledSignInClearsBusy(t *testing.T) {
	h := newHarness(t)
	h.seedUser("mei@example.com", "secret123", "uid-mei")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.session.SignIn(ctx, "mei@example.com", "secret123")
	assert.Error(t, err)
	assert.False(t, h.session.IsBusy())
	assert.Equal(t, err, h.session.LastError())
}

func TestSession_OverlappingOperationsKeepBusyUntilLast(t *testing.T) {
	h := newHarness(t)
	release := h.identity.Hold(testutil.IdentityReset)

	done := make(chan error, 1)
	go func() { done <- h.session.SendPasswordReset(context.Background(), "mei@example.com") }()
	require.Eventually(t, func() bool { return h.identity.Calls(testutil.IdentityReset) == 1 }, time.Second, 5*time.Millisecond)

	_, err := h.session.SignIn(context.Background(), "nobody@example.com", "secret123")
	require.Error(t, err)
	assert.True(t, h.session.IsBusy(), "password reset is still running")

	release()
	require.NoError(t, <-done)
	assert.False(t, h.session.IsBusy())
}

func TestSession_NotificationDuringPasswordResetLoadsProfile(t *testing.T) {
	h := newHarness(t)
	h.seedUser("mei@example.com", "secret123", "uid-mei")
	release := h.identity.Hold(testutil.IdentityReset)

	done := make(chan error, 1)
	go func() { done <- h.session.SendPasswordReset(context.Background(), "mei@example.com") }()
	require.Eventually(t, func() bool { return h.identity.Calls(testutil.IdentityReset) == 1 }, time.Second, 5*time.Millisecond)
	require.True(t, h.session.IsBusy())

	h.identity.SetPrincipal(&auth.Principal{UID: "uid-mei", Email: "mei@example.com"})
	assert.Eventually(t, h.session.IsAuthenticated, time.Second, 5*time.Millisecond)

	release()
	require.NoError(t, <-done)
	assert.False(t, h.session.IsBusy())
	assert.Equal(t, "uid-mei", h.session.CurrentUser().ID)
	assert.Equal(t, 1, h.api.Count(testutil.RouteUserProfile))
}

// Package auth manages the signed-in principal. An IdentityProvider performs
// authentication; a Session mirrors the provider's state into a backend user
// profile and hands out bearer tokens for the API client.
package auth

import (
	"context"
	"errors"

	"github.com/hkeats/eats/internal/domain"
)

// Principal is the provider's view of an authenticated account.
type Principal struct {
	UID   string
	Email string
}

// IdentityProvider is the external authentication service.
type IdentityProvider interface {
	SignIn(ctx context.Context, email, password string) (*Principal, error)
	SignUp(ctx context.Context, email, password string) (*Principal, error)
	SignOut(ctx context.Context) error
	SendPasswordReset(ctx context.Context, email string) error
	// IDToken returns the principal's ID token, refreshing it first when
	// forceRefresh is set or the cached token has expired.
	IDToken(ctx context.Context, forceRefresh bool) (string, error)
	CurrentPrincipal() *Principal
	// OnStateChange registers fn, calls it with the current principal and
	// again on every sign-in or sign-out. nil means signed out.
	OnStateChange(fn func(*Principal)) (unsubscribe func())
}

// ProfileStore reads and writes backend user profiles.
type ProfileStore interface {
	Fetch(ctx context.Context, uid string) (domain.User, error)
	Create(ctx context.Context, req domain.CreateUserRequest) (domain.User, error)
	Update(ctx context.Context, uid string, req domain.UpdateUserRequest) (domain.User, error)
}

// Provider failures.
var (
	ErrNoPrincipal        = errors.New("auth: no signed-in principal")
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	ErrEmailExists        = errors.New("auth: email already registered")
	ErrWeakPassword       = errors.New("auth: password too weak")
	ErrInvalidEmail       = errors.New("auth: invalid email")
	ErrTooManyAttempts    = errors.New("auth: too many attempts")
	ErrUserDisabled       = errors.New("auth: account disabled")
	ErrTokenExpired       = errors.New("auth: session expired")
)

// ProviderError is a failure reported by the identity provider.
type ProviderError struct {
	Code string
	Err  error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return "identity provider: " + e.Code
	}
	return e.Err.Error() + " (" + e.Code + ")"
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Message returns the user-facing explanation.
func (e *ProviderError) Message() domain.BilingualText {
	switch {
	case errors.Is(e.Err, ErrInvalidCredentials):
		return domain.NewBilingualText("Incorrect email or password.", "電郵或密碼不正確。")
	case errors.Is(e.Err, ErrEmailExists):
		return domain.NewBilingualText("This email is already registered.", "此電郵已被註冊。")
	case errors.Is(e.Err, ErrWeakPassword):
		return domain.NewBilingualText("Password must be at least 6 characters.", "密碼最少需要6個字元。")
	case errors.Is(e.Err, ErrInvalidEmail):
		return domain.NewBilingualText("Please enter a valid email address.", "請輸入有效的電郵地址。")
	case errors.Is(e.Err, ErrTooManyAttempts):
		return domain.NewBilingualText("Too many attempts. Please try again later.", "嘗試次數過多，請稍後再試。")
	case errors.Is(e.Err, ErrUserDisabled):
		return domain.NewBilingualText("This account has been disabled.", "此帳戶已被停用。")
	case errors.Is(e.Err, ErrTokenExpired):
		return domain.NewBilingualText("Your session has expired. Please sign in again.", "登入已過期，請重新登入。")
	default:
		return domain.NewBilingualText("Authentication failed.", "驗證失敗。")
	}
}

// ErrNotConfigured is returned by Unconfigured.
var ErrNotConfigured = errors.New("auth: identity provider not configured")

// Unconfigured is an IdentityProvider for builds without credentials. Nobody
// is ever signed in.
type Unconfigured struct{}

func (Unconfigured) SignIn(context.Context, string, string) (*Principal, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) SignUp(context.Context, string, string) (*Principal, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) SignOut(context.Context) error { return nil }

func (Unconfigured) SendPasswordReset(context.Context, string) error { return ErrNotConfigured }

func (Unconfigured) IDToken(context.Context, bool) (string, error) { return "", ErrNoPrincipal }

func (Unconfigured) CurrentPrincipal() *Principal { return nil }

func (Unconfigured) OnStateChange(fn func(*Principal)) func() {
	fn(nil)
	return func() {}
}

package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/hkeats/eats/internal/auth"
)

// Identity operations that can be made to fail.
const (
	IdentitySignIn  = "signIn"
	IdentitySignUp  = "signUp"
	IdentitySignOut = "signOut"
	IdentityReset   = "reset"
	IdentityToken   = "token"
)

type fakeAccount struct {
	uid      string
	password string
}

// FakeIdentity is an in-memory auth.IdentityProvider. Listeners are notified
// synchronously from the call that changed state.
type FakeIdentity struct {
	mu        sync.Mutex
	accounts  map[string]fakeAccount
	current   *auth.Principal
	listeners map[int]func(*auth.Principal)
	nextID    int
	failures  map[string]error
	holds     map[string]chan struct{}
	calls     map[string]int
	resets    []string
	tokens    int
}

// NewFakeIdentity returns a provider with no accounts.
func NewFakeIdentity() *FakeIdentity {
	return &FakeIdentity{
		accounts:  make(map[string]fakeAccount),
		listeners: make(map[int]func(*auth.Principal)),
		failures:  make(map[string]error),
		holds:     make(map[string]chan struct{}),
		calls:     make(map[string]int),
	}
}

// AddAccount registers an existing account.
func (f *FakeIdentity) AddAccount(email, password, uid string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[email] = fakeAccount{uid: uid, password: password}
}

// Fail makes op return err until called again with nil.
func (f *FakeIdentity) Fail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failures, op)
		return
	}
	f.failures[op] = err
}

// Hold blocks calls of op, after they are counted, until release is called.
func (f *FakeIdentity) Hold(op string) (release func()) {
	ch := make(chan struct{})
	f.mu.Lock()
	f.holds[op] = ch
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			if f.holds[op] == ch {
				delete(f.holds, op)
			}
			f.mu.Unlock()
			close(ch)
		})
	}
}

// Calls returns how many times op was invoked.
func (f *FakeIdentity) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// Resets lists the emails passed to SendPasswordReset.
func (f *FakeIdentity) Resets() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.resets...)
}

// ListenerCount returns the number of registered listeners.
func (f *FakeIdentity) ListenerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

// SetPrincipal changes the signed-in principal as if from outside, and
// notifies listeners.
func (f *FakeIdentity) SetPrincipal(p *auth.Principal) {
	f.mu.Lock()
	f.current = p
	f.mu.Unlock()
	f.notify(p)
}

func (f *FakeIdentity) enter(op string) error {
	f.mu.Lock()
	f.calls[op]++
	hold := f.holds[op]
	f.mu.Unlock()

	if hold != nil {
		<-hold
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failures[op]
}

// SignIn implements auth.IdentityProvider.
func (f *FakeIdentity) SignIn(_ context.Context, email, password string) (*auth.Principal, error) {
	if err := f.enter(IdentitySignIn); err != nil {
		return nil, err
	}
	f.mu.Lock()
	acct, ok := f.accounts[email]
	f.mu.Unlock()
	if !ok || acct.password != password {
		return nil, &auth.ProviderError{Code: "INVALID_LOGIN_CREDENTIALS", Err: auth.ErrInvalidCredentials}
	}
	p := &auth.Principal{UID: acct.uid, Email: email}
	f.SetPrincipal(p)
	cp := *p
	return &cp, nil
}

// SignUp implements auth.IdentityProvider.
func (f *FakeIdentity) SignUp(_ context.Context, email, password string) (*auth.Principal, error) {
	if err := f.enter(IdentitySignUp); err != nil {
		return nil, err
	}
	f.mu.Lock()
	if _, exists := f.accounts[email]; exists {
		f.mu.Unlock()
		return nil, &auth.ProviderError{Code: "EMAIL_EXISTS", Err: auth.ErrEmailExists}
	}
	uid := fmt.Sprintf("uid-%d", len(f.accounts)+1)
	f.accounts[email] = fakeAccount{uid: uid, password: password}
	f.mu.Unlock()

	p := &auth.Principal{UID: uid, Email: email}
	f.SetPrincipal(p)
	cp := *p
	return &cp, nil
}

// SignOut implements auth.IdentityProvider. A failing sign-out leaves the
// principal in place.
func (f *FakeIdentity) SignOut(context.Context) error {
	if err := f.enter(IdentitySignOut); err != nil {
		return err
	}
	f.SetPrincipal(nil)
	return nil
}

// SendPasswordReset implements auth.IdentityProvider.
func (f *FakeIdentity) SendPasswordReset(_ context.Context, email string) error {
	if err := f.enter(IdentityReset); err != nil {
		return err
	}
	f.mu.Lock()
	f.resets = append(f.resets, email)
	f.mu.Unlock()
	return nil
}

// IDToken implements auth.IdentityProvider. Every call mints a new token.
func (f *FakeIdentity) IDToken(_ context.Context, _ bool) (string, error) {
	if err := f.enter(IdentityToken); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return "", auth.ErrNoPrincipal
	}
	f.tokens++
	return fmt.Sprintf("token-%s-%d", f.current.UID, f.tokens), nil
}

// CurrentPrincipal implements auth.IdentityProvider.
func (f *FakeIdentity) CurrentPrincipal() *auth.Principal {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return nil
	}
	cp := *f.current
	return &cp
}

// OnStateChange implements auth.IdentityProvider.
func (f *FakeIdentity) OnStateChange(fn func(*auth.Principal)) func() {
	f.mu.Lock()
	f.nextID++
	id := f.nextID
	f.listeners[id] = fn
	f.mu.Unlock()

	fn(f.CurrentPrincipal())

	return func() {
		f.mu.Lock()
		delete(f.listeners, id)
		f.mu.Unlock()
	}
}

func (f *FakeIdentity) notify(p *auth.Principal) {
	f.mu.Lock()
	listeners := make([]func(*auth.Principal), 0, len(f.listeners))
	for _, fn := range f.listeners {
		listeners = append(listeners, fn)
	}
	f.mu.Unlock()
	for _, fn := range listeners {
		if p == nil {
			fn(nil)
			continue
		}
		cp := *p
		fn(&cp)
	}
}

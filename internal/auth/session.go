package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hkeats/eats/internal/apierr"
	"github.com/hkeats/eats/internal/domain"
	"github.com/hkeats/eats/internal/mainloop"
	"github.com/hkeats/eats/pkg/logger"
)

// State is the observable session state. A nil User means signed out.
type State struct {
	User *domain.User
	Busy bool
	Err  error

	pending   int // operations between begin and finish
	signingIn int // of those, SignIn and SignUp
}

// SignedIn reports whether a profile is loaded.
func (s State) SignedIn() bool { return s.User != nil }

// SignUpRequest carries the fields needed to create an account and its profile.
type SignUpRequest struct {
	Email             string
	Password          string
	DisplayName       string
	UserType          domain.UserType
	PreferredLanguage string
}

// Session mirrors the identity provider into a loaded user profile.
// Its state lives on a mainloop and is only mutated there.
type Session struct {
	loop     *mainloop.Loop
	provider IdentityProvider
	profiles ProfileStore
	state    *mainloop.Confined[State]
	log      *logger.Logger

	closeOnce   sync.Once
	unsubscribe func()
}

// NewSession registers with provider and returns a session. Close must be
// called to deregister.
func NewSession(loop *mainloop.Loop, provider IdentityProvider, profiles ProfileStore, log *logger.Logger) *Session {
	if log == nil {
		log = logger.NewDefault("auth")
	}
	s := &Session{
		loop:     loop,
		provider: provider,
		profiles: profiles,
		state:    mainloop.NewConfined(loop, State{}),
		log:      log,
	}
	s.unsubscribe = provider.OnStateChange(s.onProviderChange)
	return s
}

// Close deregisters the provider listener. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
	})
}

// ============================================================================
// Provider notifications
// ============================================================================

func (s *Session) onProviderChange(p *Principal) {
	if p == nil {
		if err := s.state.UpdateAsync(func(st State) State {
			st.User = nil
			return st
		}); err != nil {
			s.log.WithError(err).Debug("sign-out notification dropped")
		}
		return
	}

	uid := p.UID
	_ = s.loop.Post(func() {
		st := s.state.Load()
		if st.signingIn > 0 || (st.User != nil && st.User.ID == uid) {
			// an in-flight sign-in publishes its own result
			return
		}
		go s.loadProfile(uid)
	})
}

func (s *Session) loadProfile(uid string) {
	u, err := s.profiles.Fetch(context.Background(), uid)
	if err != nil {
		s.log.WithError(err).WithField("uid", uid).Warn("failed to load user profile")
	}
	_ = s.state.UpdateAsync(func(st State) State {
		current := s.provider.CurrentPrincipal()
		if current == nil || current.UID != uid {
			return st
		}
		if err != nil {
			st.Err = err
			return st
		}
		st.User = &u
		st.Err = nil
		return st
	})
}

// ============================================================================
// Operations
// ============================================================================

// SignIn authenticates and loads the user's profile.
func (s *Session) SignIn(ctx context.Context, email, password string) (user domain.User, err error) {
	if err := s.begin(opSignIn); err != nil {
		return domain.User{}, err
	}
	defer func() { s.finish(opSignIn, err) }()

	email = strings.TrimSpace(email)
	if email == "" {
		return domain.User{}, apierr.MissingField("email")
	}
	if password == "" {
		return domain.User{}, apierr.MissingField("password")
	}

	p, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return domain.User{}, err
	}
	user, err = s.profiles.Fetch(ctx, p.UID)
	if err != nil {
		return domain.User{}, err
	}
	if err := s.publish(&user); err != nil {
		return domain.User{}, err
	}
	s.log.WithField("uid", user.ID).Info("signed in")
	return user, nil
}

// SignUp creates the account and its backend profile.
func (s *Session) SignUp(ctx context.Context, req SignUpRequest) (user domain.User, err error) {
	if err := s.begin(opSignIn); err != nil {
		return domain.User{}, err
	}
	defer func() { s.finish(opSignIn, err) }()

	req.Email = strings.TrimSpace(req.Email)
	switch {
	case req.Email == "":
		return domain.User{}, apierr.MissingField("email")
	case req.Password == "":
		return domain.User{}, apierr.MissingField("password")
	case strings.TrimSpace(req.DisplayName) == "":
		return domain.User{}, apierr.MissingField("displayName")
	}
	if req.UserType == "" {
		req.UserType = domain.UserTypeCustomer
	}

	p, err := s.provider.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		return domain.User{}, err
	}
	user, err = s.profiles.Create(ctx, domain.CreateUserRequest{
		ID:                p.UID,
		Email:             req.Email,
		DisplayName:       strings.TrimSpace(req.DisplayName),
		UserType:          req.UserType,
		PreferredLanguage: req.PreferredLanguage,
	})
	if err != nil {
		return domain.User{}, err
	}
	if err := s.publish(&user); err != nil {
		return domain.User{}, err
	}
	s.log.WithField("uid", user.ID).Info("signed up")
	return user, nil
}

// SignOut signs out of the provider. Local state is cleared even when the
// provider fails, and the provider's error is then returned. The provider
// may therefore still hold a principal after a failed SignOut; a later
// signed-in notification for it loads the profile again.
func (s *Session) SignOut(ctx context.Context) (err error) {
	if err := s.begin(opOther); err != nil {
		return err
	}
	defer func() { s.finish(opOther, err) }()

	err = s.provider.SignOut(ctx)
	if err != nil {
		s.log.WithError(err).Warn("provider sign-out failed; clearing local session anyway")
	}
	if clearErr := s.publish(nil); clearErr != nil && err == nil {
		err = clearErr
	}
	return err
}

// SendPasswordReset asks the provider to email a reset link.
func (s *Session) SendPasswordReset(ctx context.Context, email string) (err error) {
	if err := s.begin(opOther); err != nil {
		return err
	}
	defer func() { s.finish(opOther, err) }()

	email = strings.TrimSpace(email)
	if email == "" {
		return apierr.MissingField("email")
	}
	return s.provider.SendPasswordReset(ctx, email)
}

// UpdateProfile changes the signed-in user's profile.
func (s *Session) UpdateProfile(ctx context.Context, req domain.UpdateUserRequest) (user domain.User, err error) {
	current := s.CurrentUser()
	if current == nil {
		return domain.User{}, apierr.Unauthorized(ErrNoPrincipal)
	}
	if err := s.begin(opOther); err != nil {
		return domain.User{}, err
	}
	defer func() { s.finish(opOther, err) }()

	user, err = s.profiles.Update(ctx, current.ID, req)
	if err != nil {
		return domain.User{}, err
	}
	if err := s.publish(&user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Token returns a freshly refreshed ID token for the API client.
func (s *Session) Token(ctx context.Context) (string, error) {
	if s.provider.CurrentPrincipal() == nil {
		return "", apierr.Unauthorized(ErrNoPrincipal)
	}
	token, err := s.provider.IDToken(ctx, true)
	if err != nil {
		return "", fmt.Errorf("refresh id token: %w", err)
	}
	return token, nil
}

// ============================================================================
// State
// ============================================================================

// State returns the latest snapshot.
func (s *Session) State() State { return s.state.Load() }

// CurrentUser returns the loaded profile or nil.
func (s *Session) CurrentUser() *domain.User {
	u := s.state.Load().User
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}

// IsAuthenticated reports whether a profile is loaded.
func (s *Session) IsAuthenticated() bool { return s.state.Load().SignedIn() }

// IsBusy reports whether an operation is in flight.
func (s *Session) IsBusy() bool { return s.state.Load().Busy }

// LastError returns the error of the last failed operation, if any.
func (s *Session) LastError() error { return s.state.Load().Err }

// Subscribe calls fn on the loop after every state change.
func (s *Session) Subscribe(ctx context.Context, fn func(State)) (func(), error) {
	return s.state.Watch(ctx, fn)
}

type opKind int

const (
	opOther opKind = iota
	// opSignIn operations publish the new principal's profile themselves.
	opSignIn
)

// begin and finish bracket every operation. Neither uses the caller's
// context: once begin has run, finish must run too, whatever the caller's
// deadline did in between.
func (s *Session) begin(kind opKind) error {
	return s.state.Update(context.Background(), func(st State) State {
		st.pending++
		if kind == opSignIn {
			st.signingIn++
		}
		st.Busy = true
		st.Err = nil
		return st
	})
}

func (s *Session) finish(kind opKind, err error) {
	if updateErr := s.state.Update(context.Background(), func(st State) State {
		if st.pending > 0 {
			st.pending--
		}
		if kind == opSignIn && st.signingIn > 0 {
			st.signingIn--
		}
		st.Busy = st.pending > 0
		st.Err = err
		return st
	}); updateErr != nil {
		s.log.WithError(updateErr).Debug("could not clear busy flag")
	}
}

// publish stores u even when the caller has given up, so the session always
// reflects what the provider and backend last confirmed.
func (s *Session) publish(u *domain.User) error {
	return s.state.Update(context.Background(), func(st State) State {
		st.User = u
		return st
	})
}

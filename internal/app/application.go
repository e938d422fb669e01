package app

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/hkeats/eats/internal/apiclient"
	"github.com/hkeats/eats/internal/auth"
	"github.com/hkeats/eats/internal/cache"
	"github.com/hkeats/eats/internal/config"
	"github.com/hkeats/eats/internal/domain"
	"github.com/hkeats/eats/internal/location"
	"github.com/hkeats/eats/internal/mainloop"
	"github.com/hkeats/eats/internal/menu"
	"github.com/hkeats/eats/internal/restaurant"
	"github.com/hkeats/eats/internal/review"
	"github.com/hkeats/eats/internal/search"
	"github.com/hkeats/eats/internal/user"
	"github.com/hkeats/eats/pkg/logger"
)

// Deps holds collaborators that live outside the client. Nil fields get
// defaults derived from the configuration.
type Deps struct {
	// Identity defaults to Firebase when an API key is configured and to
	// auth.Unconfigured otherwise.
	Identity auth.IdentityProvider
	// Location defaults to a static provider at the configured fallback.
	Location   location.Provider
	HTTPClient *http.Client
	Clock      cache.Clock
}

// Application ties the client services together and owns their lifecycle.
type Application struct {
	Config config.Config
	log    *logger.Logger
	loop   *mainloop.Loop

	API         *apiclient.Client
	Users       *user.Service
	Session     *auth.Session
	Restaurants *restaurant.Service
	Menus       *menu.Service
	Reviews     *review.Service
	// Search is nil when no search index is configured.
	Search   *search.Service
	Location *location.Service

	closeOnce sync.Once
}

// New builds the application. The session needs a client to load profiles
// and the authenticated client needs the session for tokens, so
// construction happens in two phases: an unauthenticated client first, then
// the session, then the authenticated client derived from both.
func New(cfg config.Config, deps Deps, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	base, err := apiclient.New(apiclient.Config{
		BaseURL:        cfg.API.BaseURL,
		Passcode:       cfg.API.Passcode,
		PasscodeHeader: cfg.API.PasscodeHeader,
		HTTPClient:     deps.HTTPClient,
		Logger:         log.Named("apiclient"),
	})
	if err != nil {
		return nil, fmt.Errorf("create api client: %w", err)
	}

	identity := deps.Identity
	if identity == nil {
		identity, err = defaultIdentity(cfg, deps, log)
		if err != nil {
			return nil, err
		}
	}

	loop := mainloop.New(64)
	users := user.New(base, log.Named("user"))
	session := auth.NewSession(loop, identity, users, log.Named("auth"))

	authed := base.WithTokens(session)
	users.Bind(authed)

	a := &Application{
		Config:  cfg,
		log:     log,
		loop:    loop,
		API:     authed,
		Users:   users,
		Session: session,
		Menus:   menu.New(authed, log.Named("menu")),
		Reviews: review.New(authed, log.Named("review")),
	}

	a.Restaurants, err = restaurant.New(authed, restaurant.Config{
		DefaultRadius: cfg.DefaultRadius,
		CacheTTL:      cfg.Cache.TTL,
		CacheSize:     cfg.Cache.Size,
		Clock:         deps.Clock,
	}, log.Named("restaurant"))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create restaurant service: %w", err)
	}

	if cfg.Search.Enabled() {
		index, err := search.NewIndexClient(search.IndexConfig{
			AppID:      cfg.Search.AppID,
			APIKey:     cfg.Search.APIKey,
			Index:      cfg.Search.Index,
			Host:       cfg.Search.Host,
			QPS:        cfg.Search.QPS,
			HTTPClient: deps.HTTPClient,
			Logger:     log.Named("search"),
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("create search client: %w", err)
		}
		a.Search = search.NewService(index, log.Named("search"))
	} else {
		log.Warn("search index not configured; search disabled")
	}

	provider := deps.Location
	if provider == nil {
		provider = location.NewStaticProvider(domain.Coordinate{
			Latitude:  cfg.Location.Latitude,
			Longitude: cfg.Location.Longitude,
		})
	}
	a.Location = location.NewService(provider, log.Named("location"))

	return a, nil
}

func defaultIdentity(cfg config.Config, deps Deps, log *logger.Logger) (auth.IdentityProvider, error) {
	if cfg.Firebase.APIKey == "" {
		log.Warn("firebase API key not set; sign-in disabled")
		return auth.Unconfigured{}, nil
	}
	p, err := auth.NewFirebaseProvider(auth.FirebaseConfig{
		APIKey:      cfg.Firebase.APIKey,
		IdentityURL: cfg.Firebase.IdentityURL,
		TokenURL:    cfg.Firebase.TokenURL,
		HTTPClient:  deps.HTTPClient,
		Logger:      log.Named("firebase"),
	})
	if err != nil {
		return nil, fmt.Errorf("create identity provider: %w", err)
	}
	return p, nil
}

// Locale returns the configured display locale.
func (a *Application) Locale() string { return a.Config.Locale }

// Close stops location updates, deregisters the session and stops the loop.
func (a *Application) Close() {
	a.closeOnce.Do(func() {
		if a.Location != nil {
			a.Location.Stop()
		}
		a.Session.Close()
		a.loop.Close()
	})
}

// Package app composes the eats client services.
//
// # Construction
//
// There is no package-level container. Callers build an Application with
// New and pass it around explicitly:
//
//	cfg, err := config.Load("eats.yaml")
//	...
//	application, err := app.New(cfg, app.Deps{}, log)
//	...
//	defer application.Close()
//
// The wiring order is:
//
//	apiclient (no tokens)
//	      │
//	      ├──► user.Service ──► auth.Session (mainloop-confined state)
//	      │                          │
//	      ▼                          ▼
//	apiclient.WithTokens(session) ◄──┘
//	      │
//	      ├──► user.Service.Bind
//	      ├──► restaurant.Service (TTL cache)
//	      ├──► menu.Service
//	      └──► review.Service
//
// search.Service and location.Service do not talk to the backend.
package app

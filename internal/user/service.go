// Package user reads and writes backend user profiles.
package user

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/hkeats/eats/internal/apiclient"
	"github.com/hkeats/eats/internal/apierr"
	"github.com/hkeats/eats/internal/domain"
	"github.com/hkeats/eats/internal/endpoint"
	"github.com/hkeats/eats/pkg/logger"
)

// Service is the profile store used by the auth session. Client errors are
// returned unchanged.
type Service struct {
	client atomic.Pointer[apiclient.Client]
	log    *logger.Logger
}

// New creates a service over client.
func New(client *apiclient.Client, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("user")
	}
	s := &Service{log: log}
	s.client.Store(client)
	return s
}

// Bind switches later calls to client. The container uses it once the
// authenticated client exists.
func (s *Service) Bind(client *apiclient.Client) {
	if client != nil {
		s.client.Store(client)
	}
}

// Fetch loads the profile of uid.
func (s *Service) Fetch(ctx context.Context, uid string) (domain.User, error) {
	if strings.TrimSpace(uid) == "" {
		return domain.User{}, apierr.MissingField("uid")
	}
	u, err := apiclient.Do[domain.User](ctx, s.client.Load(), endpoint.UserProfile(uid))
	if err != nil {
		return domain.User{}, err
	}
	return u, nil
}

// Create stores a new profile.
func (s *Service) Create(ctx context.Context, req domain.CreateUserRequest) (domain.User, error) {
	switch {
	case strings.TrimSpace(req.ID) == "":
		return domain.User{}, apierr.MissingField("uid")
	case strings.TrimSpace(req.Email) == "":
		return domain.User{}, apierr.MissingField("email")
	}
	if req.UserType == "" {
		req.UserType = domain.UserTypeCustomer
	}
	u, err := apiclient.Do[domain.User](ctx, s.client.Load(), endpoint.CreateUserProfile(req))
	if err != nil {
		return domain.User{}, err
	}
	s.log.WithField("uid", u.ID).Info("user profile created")
	return u, nil
}

// Update changes the mutable fields of uid's profile.
func (s *Service) Update(ctx context.Context, uid string, req domain.UpdateUserRequest) (domain.User, error) {
	if strings.TrimSpace(uid) == "" {
		return domain.User{}, apierr.MissingField("uid")
	}
	u, err := apiclient.Do[domain.User](ctx, s.client.Load(), endpoint.UpdateUserProfile(uid, req))
	if err != nil {
		return domain.User{}, err
	}
	return u, nil
}

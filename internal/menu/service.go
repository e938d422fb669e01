// Package menu fetches restaurant menus and offers pure helpers to filter,
// group, sort and summarise an already fetched menu.
package menu

import (
	"context"

	"github.com/hkeats/eats/internal/apiclient"
	"github.com/hkeats/eats/internal/domain"
	"github.com/hkeats/eats/internal/endpoint"
	"github.com/hkeats/eats/pkg/logger"
)

// Service wraps the API client. Client errors are returned unchanged.
type Service struct {
	client *apiclient.Client
	log    *logger.Logger
}

// New creates a menu service.
func New(client *apiclient.Client, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("menu")
	}
	return &Service{client: client, log: log}
}

// FetchForRestaurant returns the menu of a restaurant. limit <= 0 means no limit.
func (s *Service) FetchForRestaurant(ctx context.Context, restaurantID string, limit int) ([]domain.MenuItem, error) {
	items, err := apiclient.Do[[]domain.MenuItem](ctx, s.client, endpoint.MenuItems(restaurantID, limit))
	if err != nil {
		return nil, err
	}
	s.log.WithField("restaurant_id", restaurantID).WithField("items", len(items)).Debug("menu fetched")
	return items, nil
}

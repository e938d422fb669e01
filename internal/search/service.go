package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/hkeats/eats/internal/apierr"
	"github.com/hkeats/eats/internal/domain"
	"github.com/hkeats/eats/pkg/logger"
)

// DefaultSuggestions is the autocomplete size used when none is given.
const DefaultSuggestions = 5

// Query is a restaurant search.
type Query struct {
	Text    string
	Filters Filters
	// Near biases results towards a point within RadiusMeters.
	Near         *domain.Coordinate
	RadiusMeters int
	Limit        int
	Page         int
}

// Service turns index hits into restaurants.
type Service struct {
	index *IndexClient
	log   *logger.Logger
}

// NewService creates a search service.
func NewService(index *IndexClient, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("search")
	}
	return &Service{index: index, log: log}
}

// Search runs q and decodes every hit. One undecodable hit fails the search.
func (s *Service) Search(ctx context.Context, q Query) ([]domain.Restaurant, error) {
	params := Params{
		Query:       strings.TrimSpace(q.Text),
		Filters:     BuildFilter(q.Filters),
		HitsPerPage: q.Limit,
		Page:        q.Page,
	}
	if q.Near != nil {
		params.AroundLatLng = strconv.FormatFloat(q.Near.Latitude, 'f', -1, 64) + "," +
			strconv.FormatFloat(q.Near.Longitude, 'f', -1, 64)
		params.AroundRadius = q.RadiusMeters
	}

	hits, err := s.index.Query(ctx, "search", params)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Restaurant, 0, len(hits))
	for i, hit := range hits {
		var r domain.Restaurant
		if err := json.Unmarshal([]byte(hit.Raw), &r); err != nil {
			s.log.WithError(err).WithField("object_id", hit.Get("objectID").String()).Debug("undecodable search hit")
			return nil, apierr.New(apierr.KindDecoding, fmt.Errorf("hit %d: %w", i, err))
		}
		if r.ID == "" {
			r.ID = hit.Get("objectID").String()
		}
		out = append(out, r)
	}
	return out, nil
}

// Autocomplete suggests restaurant names and cuisines starting from prefix,
// localized for locale, deduplicated ignoring case, in rank order.
func (s *Service) Autocomplete(ctx context.Context, prefix string, limit int, locale string) ([]string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultSuggestions
	}

	hits, err := s.index.Query(ctx, "autocomplete", Params{
		Query:                prefix,
		HitsPerPage:          limit,
		AttributesToRetrieve: []string{"name", "cuisine"},
	})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	out := make([]string, 0, limit)
	add := func(raw string) {
		if raw == "" || len(out) >= limit {
			return
		}
		var text domain.BilingualText
		if err := json.Unmarshal([]byte(raw), &text); err != nil {
			return
		}
		v := strings.TrimSpace(text.Localized(locale))
		key := strings.ToLower(v)
		if v == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, v)
	}
	for _, hit := range hits {
		add(hit.Get("name").Raw)
		add(hit.Get("cuisine").Raw)
	}
	return out, nil
}

// Package review submits and lists restaurant reviews.
package review

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/hkeats/eats/internal/apiclient"
	"github.com/hkeats/eats/internal/apierr"
	"github.com/hkeats/eats/internal/domain"
	"github.com/hkeats/eats/internal/endpoint"
	"github.com/hkeats/eats/pkg/logger"
)

// Review constraints.
const (
	MinRating        = 1
	MaxRating        = 5
	MinCommentLength = 10
)

// Service wraps the API client. Client errors are returned unchanged.
type Service struct {
	client *apiclient.Client
	log    *logger.Logger
}

// New creates a review service.
func New(client *apiclient.Client, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("review")
	}
	return &Service{client: client, log: log}
}

// Validate checks req without touching the network. Comment length is
// counted in characters, not bytes.
func Validate(req domain.SubmitReviewRequest) error {
	if strings.TrimSpace(req.RestaurantID) == "" {
		return apierr.MissingField("restaurantId")
	}
	if req.Rating < MinRating || req.Rating > MaxRating {
		return apierr.InvalidRating(req.Rating, MinRating, MaxRating)
	}
	if n := utf8.RuneCountInString(req.Comment); n < MinCommentLength {
		return apierr.CommentTooShort(n, MinCommentLength)
	}
	return nil
}

// Submit validates req and posts it.
func (s *Service) Submit(ctx context.Context, req domain.SubmitReviewRequest) (domain.Review, error) {
	if err := Validate(req); err != nil {
		return domain.Review{}, err
	}
	r, err := apiclient.Do[domain.Review](ctx, s.client, endpoint.SubmitReview(req))
	if err != nil {
		return domain.Review{}, err
	}
	s.log.WithField("restaurant_id", req.RestaurantID).WithField("review_id", r.ID).Info("review submitted")
	return r, nil
}

// FetchForRestaurant lists reviews of a restaurant. limit <= 0 means the
// backend default.
func (s *Service) FetchForRestaurant(ctx context.Context, restaurantID string, limit int) ([]domain.Review, error) {
	return apiclient.Do[[]domain.Review](ctx, s.client, endpoint.Reviews(restaurantID, limit))
}

// AverageRating is the mean rating, or 0 for an empty list.
func AverageRating(reviews []domain.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(reviews))
}

// RatingDistribution counts reviews per star. Keys 1 to 5 are always
// present; out-of-range ratings are ignored.
func RatingDistribution(reviews []domain.Review) map[int]int {
	dist := make(map[int]int, MaxRating)
	for star := MinRating; star <= MaxRating; star++ {
		dist[star] = 0
	}
	for _, r := range reviews {
		if r.Rating >= MinRating && r.Rating <= MaxRating {
			dist[r.Rating]++
		}
	}
	return dist
}

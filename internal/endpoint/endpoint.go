// Package endpoint is the closed catalog of backend operations. Each
// operation maps deterministically to a method, a path, optional query
// parameters and an optional JSON body.
package endpoint

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/hkeats/eats/internal/domain"
)

// Operation names one logical backend call.
type Operation int

const (
	OpNearbyRestaurants Operation = iota + 1
	OpRestaurant
	OpFeaturedRestaurants
	OpMenuItems
	OpReviews
	OpSubmitReview
	OpUserProfile
	OpCreateUserProfile
	OpUpdateUserProfile
)

// All lists every operation in the catalog.
func All() []Operation {
	return []Operation{
		OpNearbyRestaurants,
		OpRestaurant,
		OpFeaturedRestaurants,
		OpMenuItems,
		OpReviews,
		OpSubmitReview,
		OpUserProfile,
		OpCreateUserProfile,
		OpUpdateUserProfile,
	}
}

func (o Operation) String() string {
	switch o {
	case OpNearbyRestaurants:
		return "fetch_nearby_restaurants"
	case OpRestaurant:
		return "fetch_restaurant"
	case OpFeaturedRestaurants:
		return "fetch_featured_restaurants"
	case OpMenuItems:
		return "fetch_menu_items"
	case OpReviews:
		return "fetch_reviews"
	case OpSubmitReview:
		return "submit_review"
	case OpUserProfile:
		return "fetch_user_profile"
	case OpCreateUserProfile:
		return "create_user_profile"
	case OpUpdateUserProfile:
		return "update_user_profile"
	default:
		return "unknown"
	}
}

// Endpoint is a fully resolved request descriptor.
type Endpoint struct {
	Op     Operation
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// HasBody reports whether the endpoint carries a JSON payload.
func (e Endpoint) HasBody() bool {
	return e.Body != nil
}

// NearbyRestaurants lists restaurants within radius metres of a point.
func NearbyRestaurants(lat, lng float64, radius int) Endpoint {
	q := url.Values{}
	q.Set("lat", formatFloat(lat))
	q.Set("lng", formatFloat(lng))
	q.Set("radius", strconv.Itoa(radius))
	return Endpoint{Op: OpNearbyRestaurants, Method: http.MethodGet, Path: "/restaurants/nearby", Query: q}
}

// Restaurant fetches one restaurant.
func Restaurant(id string) Endpoint {
	return Endpoint{Op: OpRestaurant, Method: http.MethodGet, Path: "/restaurants/" + url.PathEscape(id)}
}

// FeaturedRestaurants lists the editorial selection.
func FeaturedRestaurants() Endpoint {
	return Endpoint{Op: OpFeaturedRestaurants, Method: http.MethodGet, Path: "/restaurants/featured"}
}

// MenuItems lists a restaurant's menu. limit <= 0 means no limit parameter.
func MenuItems(restaurantID string, limit int) Endpoint {
	ep := Endpoint{Op: OpMenuItems, Method: http.MethodGet, Path: "/restaurants/" + url.PathEscape(restaurantID) + "/menu"}
	if limit > 0 {
		ep.Query = url.Values{"limit": {strconv.Itoa(limit)}}
	}
	return ep
}

// Reviews lists a restaurant's reviews. limit <= 0 means no limit parameter.
func Reviews(restaurantID string, limit int) Endpoint {
	q := url.Values{}
	q.Set("restaurantId", restaurantID)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return Endpoint{Op: OpReviews, Method: http.MethodGet, Path: "/reviews", Query: q}
}

// SubmitReview posts a new review.
func SubmitReview(req domain.SubmitReviewRequest) Endpoint {
	return Endpoint{Op: OpSubmitReview, Method: http.MethodPost, Path: "/reviews", Body: req}
}

// UserProfile fetches a user's backend profile.
func UserProfile(userID string) Endpoint {
	return Endpoint{Op: OpUserProfile, Method: http.MethodGet, Path: "/users/" + url.PathEscape(userID)}
}

// CreateUserProfile creates a backend profile.
func CreateUserProfile(req domain.CreateUserRequest) Endpoint {
	return Endpoint{Op: OpCreateUserProfile, Method: http.MethodPost, Path: "/users", Body: req}
}

// UpdateUserProfile replaces the mutable fields of a profile.
func UpdateUserProfile(userID string, req domain.UpdateUserRequest) Endpoint {
	return Endpoint{Op: OpUpdateUserProfile, Method: http.MethodPut, Path: "/users/" + url.PathEscape(userID), Body: req}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

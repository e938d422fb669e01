package endpoint

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hkeats/eats/internal/domain"
)

func TestCatalog(t *testing.T) {
	tests := []struct {
		name       string
		ep         Endpoint
		wantOp     Operation
		wantMethod string
		wantPath   string
		wantQuery  string
		wantBody   bool
	}{
		{"nearby", NearbyRestaurants(22.28, 114.15, 5000), OpNearbyRestaurants, http.MethodGet, "/restaurants/nearby", "lat=22.28&lng=114.15&radius=5000", false},
		{"restaurant", Restaurant("r-1"), OpRestaurant, http.MethodGet, "/restaurants/r-1", "", false},
		{"featured", FeaturedRestaurants(), OpFeaturedRestaurants, http.MethodGet, "/restaurants/featured", "", false},
		{"menu", MenuItems("r-1", 0), OpMenuItems, http.MethodGet, "/restaurants/r-1/menu", "", false},
		{"menu limit", MenuItems("r-1", 20), OpMenuItems, http.MethodGet, "/restaurants/r-1/menu", "limit=20", false},
		{"reviews", Reviews("r-1", 0), OpReviews, http.MethodGet, "/reviews", "restaurantId=r-1", false},
		{"reviews limit", Reviews("r-1", 5), OpReviews, http.MethodGet, "/reviews", "limit=5&restaurantId=r-1", false},
		{"submit review", SubmitReview(domain.SubmitReviewRequest{RestaurantID: "r-1"}), OpSubmitReview, http.MethodPost, "/reviews", "", true},
		{"user", UserProfile("u-1"), OpUserProfile, http.MethodGet, "/users/u-1", "", false},
		{"create user", CreateUserProfile(domain.CreateUserRequest{ID: "u-1"}), OpCreateUserProfile, http.MethodPost, "/users", "", true},
		{"update user", UpdateUserProfile("u-1", domain.UpdateUserRequest{}), OpUpdateUserProfile, http.MethodPut, "/users/u-1", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantOp, tt.ep.Op)
			assert.Equal(t, tt.wantMethod, tt.ep.Method)
			assert.Equal(t, tt.wantPath, tt.ep.Path)
			assert.Equal(t, tt.wantQuery, tt.ep.Query.Encode())
			assert.Equal(t, tt.wantBody, tt.ep.HasBody())
		})
	}
}

func TestCatalog_EscapesPathSegments(t *testing.T) {
	assert.Equal(t, "/restaurants/a%2Fb", Restaurant("a/b").Path)
	assert.Equal(t, "/users/x%20y", UserProfile("x y").Path)
}

func TestCatalog_IsClosed(t *testing.T) {
	seen := map[string]bool{}
	for _, op := range All() {
		name := op.String()
		assert.NotEqual(t, "unknown", name)
		assert.False(t, seen[name], "duplicate operation name %s", name)
		seen[name] = true
	}
	assert.Len(t, seen, 9)
	assert.Equal(t, "unknown", Operation(0).String())
}

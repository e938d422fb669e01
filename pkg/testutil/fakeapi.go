// Package testutil provides in-memory collaborators for tests: a fake
// backend API served over httptest and a fake identity provider.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hkeats/eats/internal/domain"
)

// FakePasscode is the passcode FakeAPI accepts by default.
const FakePasscode = "test-passcode"

// FixedTime stamps every record the fake creates.
var FixedTime = time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)

// Route keys identify fake endpoints in FailWith and Count.
const (
	RouteNearby       = "GET /restaurants/nearby"
	RouteFeatured     = "GET /restaurants/featured"
	RouteRestaurant   = "GET /restaurants/{id}"
	RouteMenu         = "GET /restaurants/{id}/menu"
	RouteReviews      = "GET /reviews"
	RouteSubmitReview = "POST /reviews"
	RouteUserProfile  = "GET /users/{id}"
	RouteCreateUser   = "POST /users"
	RouteUpdateUser   = "PUT /users/{id}"
)

// RecordedRequest is one request seen by FakeAPI.
type RecordedRequest struct {
	Route  string
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// FakeAPI is an in-memory backend implementing the nine client operations.
// Write routes require a bearer token; every route requires the passcode.
type FakeAPI struct {
	Server *httptest.Server

	mu          sync.Mutex
	passcode    string
	header      string
	restaurants map[string]domain.Restaurant
	featured    []string
	menus       map[string][]domain.MenuItem
	reviews     map[string][]domain.Review
	users       map[string]domain.User
	tokenUsers  map[string]string
	failures    map[string]int
	requests    []RecordedRequest
	nextID      int
}

// NewFakeAPI starts a fake backend that is closed with the test.
func NewFakeAPI(t testing.TB) *FakeAPI {
	t.Helper()
	f := &FakeAPI{
		passcode:    FakePasscode,
		header:      "X-API-Passcode",
		restaurants: make(map[string]domain.Restaurant),
		menus:       make(map[string][]domain.MenuItem),
		reviews:     make(map[string][]domain.Review),
		users:       make(map[string]domain.User),
		tokenUsers:  make(map[string]string),
		failures:    make(map[string]int),
	}

	r := chi.NewRouter()
	f.handle(r, RouteNearby, false, f.nearby)
	f.handle(r, RouteFeatured, false, f.featuredList)
	f.handle(r, RouteRestaurant, false, f.restaurant)
	f.handle(r, RouteMenu, false, f.menu)
	f.handle(r, RouteReviews, false, f.reviewList)
	f.handle(r, RouteSubmitReview, true, f.submitReview)
	f.handle(r, RouteUserProfile, false, f.userProfile)
	f.handle(r, RouteCreateUser, true, f.createUser)
	f.handle(r, RouteUpdateUser, true, f.updateUser)

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the base URL of the fake.
func (f *FakeAPI) URL() string { return f.Server.URL }

// AddRestaurant stores r, optionally listing it as featured.
func (f *FakeAPI) AddRestaurant(r domain.Restaurant, featured bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restaurants[r.ID] = r
	if featured {
		f.featured = append(f.featured, r.ID)
	}
}

// AddMenuItems appends items to a restaurant's menu.
func (f *FakeAPI) AddMenuItems(restaurantID string, items ...domain.MenuItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.menus[restaurantID] = append(f.menus[restaurantID], items...)
}

// AddReviews appends reviews to a restaurant.
func (f *FakeAPI) AddReviews(restaurantID string, reviews ...domain.Review) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviews[restaurantID] = append(f.reviews[restaurantID], reviews...)
}

// AddUser stores a profile.
func (f *FakeAPI) AddUser(u domain.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = u
}

// User returns a stored profile.
func (f *FakeAPI) User(uid string) (domain.User, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[uid]
	return u, ok
}

// MapToken attributes writes made with token to uid.
func (f *FakeAPI) MapToken(token, uid string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokenUsers[token] = uid
}

// FailWith makes route answer with status until cleared with status 0.
func (f *FakeAPI) FailWith(route string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if status == 0 {
		delete(f.failures, route)
		return
	}
	f.failures[route] = status
}

// Requests returns a copy of every recorded request.
func (f *FakeAPI) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedRequest(nil), f.requests...)
}

// Count returns how many requests hit route.
func (f *FakeAPI) Count(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if r.Route == route {
			n++
		}
	}
	return n
}

// Last returns the most recent request, if any.
func (f *FakeAPI) Last() (RecordedRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return RecordedRequest{}, false
	}
	return f.requests[len(f.requests)-1], true
}

// ============================================================================
// Routing
// ============================================================================

func (f *FakeAPI) handle(r chi.Router, route string, protected bool, h http.HandlerFunc) {
	method, pattern, _ := strings.Cut(route, " ")
	r.Method(method, pattern, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		f.mu.Lock()
		f.requests = append(f.requests, RecordedRequest{
			Route:  route,
			Method: req.Method,
			Path:   req.URL.Path,
			Query:  req.URL.Query(),
			Header: req.Header.Clone(),
			Body:   body,
		})
		status := f.failures[route]
		passcode := f.passcode
		header := f.header
		f.mu.Unlock()

		if req.Header.Get(header) != passcode {
			writeError(w, http.StatusForbidden, "invalid passcode")
			return
		}
		if status != 0 {
			writeError(w, status, "injected failure")
			return
		}
		if protected && bearer(req) == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		req.Body = io.NopCloser(strings.NewReader(string(body)))
		h(w, req)
	}))
}

func bearer(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func limitParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func (f *FakeAPI) newID(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

// ============================================================================
// Handlers
// ============================================================================

func (f *FakeAPI) nearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	for _, key := range []string{"lat", "lng", "radius"} {
		if _, err := strconv.ParseFloat(q.Get(key), 64); err != nil {
			writeError(w, http.StatusBadRequest, "invalid "+key)
			return
		}
	}
	f.mu.Lock()
	list := make([]domain.Restaurant, 0, len(f.restaurants))
	for _, rest := range f.restaurants {
		list = append(list, rest)
	}
	f.mu.Unlock()
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	writeJSON(w, http.StatusOK, list)
}

func (f *FakeAPI) featuredList(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	list := make([]domain.Restaurant, 0, len(f.featured))
	for _, id := range f.featured {
		list = append(list, f.restaurants[id])
	}
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, list)
}

func (f *FakeAPI) restaurant(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	rest, ok := f.restaurants[chi.URLParam(r, "id")]
	f.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "restaurant not found")
		return
	}
	writeJSON(w, http.StatusOK, rest)
}

func (f *FakeAPI) menu(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	items := append([]domain.MenuItem{}, f.menus[chi.URLParam(r, "id")]...)
	f.mu.Unlock()
	if n := limitParam(r); n > 0 && n < len(items) {
		items = items[:n]
	}
	writeJSON(w, http.StatusOK, items)
}

func (f *FakeAPI) reviewList(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("restaurantId")
	if id == "" {
		writeError(w, http.StatusBadRequest, "restaurantId is required")
		return
	}
	f.mu.Lock()
	list := append([]domain.Review{}, f.reviews[id]...)
	f.mu.Unlock()
	if n := limitParam(r); n > 0 && n < len(list) {
		list = list[:n]
	}
	writeJSON(w, http.StatusOK, list)
}

func (f *FakeAPI) submitReview(w http.ResponseWriter, r *http.Request) {
	var req domain.SubmitReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	f.mu.Lock()
	uid := f.tokenUsers[bearer(r)]
	u := f.users[uid]
	review := domain.Review{
		ID:           f.newID("review"),
		RestaurantID: req.RestaurantID,
		UserID:       uid,
		UserName:     u.DisplayName,
		Rating:       req.Rating,
		Comment:      req.Comment,
		PhotoURLs:    append([]string{}, req.PhotoURLs...),
		CreatedAt:    FixedTime,
	}
	f.reviews[req.RestaurantID] = append(f.reviews[req.RestaurantID], review)
	f.mu.Unlock()
	writeJSON(w, http.StatusCreated, review)
}

func (f *FakeAPI) userProfile(w http.ResponseWriter, r *http.Request) {
	u, ok := f.User(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (f *FakeAPI) createUser(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.users[req.ID]; exists {
		writeError(w, http.StatusConflict, "user exists")
		return
	}
	u := domain.User{
		ID:                req.ID,
		Email:             req.Email,
		DisplayName:       req.DisplayName,
		UserType:          req.UserType,
		PreferredLanguage: req.PreferredLanguage,
		CreatedAt:         FixedTime,
		UpdatedAt:         FixedTime,
	}
	f.users[u.ID] = u
	writeJSON(w, http.StatusCreated, u)
}

func (f *FakeAPI) updateUser(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if req.DisplayName != nil {
		u.DisplayName = *req.DisplayName
	}
	if req.PhotoURL != nil {
		photo := *req.PhotoURL
		u.PhotoURL = &photo
	}
	if req.PreferredLanguage != nil {
		u.PreferredLanguage = *req.PreferredLanguage
	}
	u.UpdatedAt = FixedTime.Add(time.Hour)
	f.users[u.ID] = u
	writeJSON(w, http.StatusOK, u)
}

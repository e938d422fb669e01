package domain

import (
	"strconv"
	"strings"
	"time"
)

// Coordinate is a WGS84 point. The backend capitalises both keys.
type Coordinate struct {
	Latitude  float64 `json:"Latitude"`
	Longitude float64 `json:"Longitude"`
}

// OpeningHours describes one weekday. Open and Close are local "HH:mm".
type OpeningHours struct {
	Day      string `json:"day"`
	Open     string `json:"open"`
	Close    string `json:"close"`
	IsClosed bool   `json:"isClosed"`
}

// Restaurant is a venue as returned by the backend and the search index.
type Restaurant struct {
	ID           string          `json:"restaurantId"`
	Name         BilingualText   `json:"name"`
	Description  BilingualText   `json:"description"`
	Address      BilingualText   `json:"address"`
	District     BilingualText   `json:"district"`
	Cuisine      BilingualText   `json:"cuisine"`
	Keywords     []BilingualText `json:"keywords"`
	PriceRange   string          `json:"priceRange"`
	Rating       float64         `json:"rating"`
	ReviewCount  int             `json:"reviewCount"`
	ImageURLs    []string        `json:"imageUrls"`
	Location     Coordinate      `json:"location"`
	OpeningHours []OpeningHours  `json:"openingHours"`
	PhoneNumber  string          `json:"phoneNumber"`
	Email        *string         `json:"email,omitempty"`
	Website      *string         `json:"website,omitempty"`
	Seats        int             `json:"seats"`
}

// IsOpenNow evaluates IsOpenAt against the current local time.
func (r Restaurant) IsOpenNow() bool {
	return r.IsOpenAt(time.Now())
}

// IsOpenAt reports whether at falls within [open, close) of the entry for
// at's weekday. A missing entry, a closed day or an unparsable time means
// closed. Ranges where close < open (past midnight) are never open.
func (r Restaurant) IsOpenAt(at time.Time) bool {
	day := at.Weekday().String()
	for _, h := range r.OpeningHours {
		if !strings.EqualFold(strings.TrimSpace(h.Day), day) {
			continue
		}
		if h.IsClosed {
			return false
		}
		open, ok := parseClock(h.Open)
		if !ok {
			return false
		}
		closing, ok := parseClock(h.Close)
		if !ok {
			return false
		}
		now := at.Hour()*60 + at.Minute()
		return now >= open && now < closing
	}
	return false
}

// HoursFor returns the opening hours entry for a weekday.
func (r Restaurant) HoursFor(day time.Weekday) (OpeningHours, bool) {
	for _, h := range r.OpeningHours {
		if strings.EqualFold(strings.TrimSpace(h.Day), day.String()) {
			return h, true
		}
	}
	return OpeningHours{}, false
}

// PriceLevel counts the "$" symbols of PriceRange.
func (r Restaurant) PriceLevel() int {
	return strings.Count(r.PriceRange, "$")
}

// RatingText formats the rating with one decimal place.
func (r Restaurant) RatingText() string {
	return strconv.FormatFloat(r.Rating, 'f', 1, 64)
}

// PrimaryImageURL returns the first image, if any.
func (r Restaurant) PrimaryImageURL() string {
	if len(r.ImageURLs) == 0 {
		return ""
	}
	return r.ImageURLs[0]
}

// Coordinate returns the venue location.
func (r Restaurant) Coordinate() Coordinate {
	return r.Location
}

// parseClock converts "HH:mm" to minutes after midnight.
func parseClock(s string) (int, bool) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}

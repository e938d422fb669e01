package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2024-06-03 is a Monday.
func monday(hour, minute int) time.Time {
	return time.Date(2024, time.June, 3, hour, minute, 0, 0, time.UTC)
}

func TestRestaurant_IsOpenAt(t *testing.T) {
	r := Restaurant{OpeningHours: []OpeningHours{
		{Day: "Monday", Open: "11:00", Close: "22:00"},
		{Day: "Tuesday", Open: "11:00", Close: "22:00", IsClosed: true},
		{Day: "Wednesday", Open: "18:00", Close: "02:00"},
		{Day: "Thursday", Open: "bad", Close: "22:00"},
	}}

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"before open", monday(10, 59), false},
		{"at open", monday(11, 0), true},
		{"midday", monday(15, 30), true},
		{"one minute before close", monday(21, 59), true},
		{"at close", monday(22, 0), false},
		{"closed day", monday(15, 0).AddDate(0, 0, 1), false},
		{"overnight evening", monday(23, 0).AddDate(0, 0, 2), false},
		{"overnight early", monday(1, 0).AddDate(0, 0, 2), false},
		{"unparsable", monday(12, 0).AddDate(0, 0, 3), false},
		{"no entry", monday(12, 0).AddDate(0, 0, 4), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.IsOpenAt(tt.at))
		})
	}
}

func TestRestaurant_ClosedDayIgnoresHours(t *testing.T) {
	r := Restaurant{OpeningHours: []OpeningHours{
		{Day: "Monday", Open: "00:00", Close: "23:59", IsClosed: true},
	}}
	for h := 0; h < 24; h++ {
		assert.False(t, r.IsOpenAt(monday(h, 30)))
	}
}

func TestRestaurant_DecodeWireNames(t *testing.T) {
	payload := `{
		"restaurantId": "r-42",
		"name": {"EN": "Tim Ho Wan", "TC": "添好運"},
		"description": {"en": "Dim sum", "tc": "點心"},
		"address": {"EN": "9-11 Fuk Wing St", "TC": "福榮街9-11號"},
		"district": {"EN": "Sham Shui Po", "TC": "深水埗"},
		"cuisine": {"EN": "Cantonese", "TC": "粵菜"},
		"keywords": [{"EN": "dim sum", "TC": "點心"}],
		"priceRange": "$$",
		"rating": 4.4,
		"reviewCount": 1200,
		"imageUrls": ["https://img.example/1.jpg"],
		"location": {"Latitude": 22.3307, "Longitude": 114.1622},
		"openingHours": [{"day": "Monday", "open": "10:00", "close": "21:00", "isClosed": false}],
		"phoneNumber": "+852 2788 1226",
		"website": "https://timhowan.example",
		"seats": 60
	}`

	var r Restaurant
	require.NoError(t, json.Unmarshal([]byte(payload), &r))

	assert.Equal(t, "r-42", r.ID)
	assert.Equal(t, "添好運", r.Name.Localized("zh-Hant"))
	assert.Equal(t, "點心", r.Description.TC)
	assert.Len(t, r.Keywords, 1)
	assert.Equal(t, 22.3307, r.Location.Latitude)
	assert.Equal(t, 114.1622, r.Location.Longitude)
	assert.Nil(t, r.Email)
	require.NotNil(t, r.Website)
	assert.Equal(t, 2, r.PriceLevel())
	assert.Equal(t, "4.4", r.RatingText())
	assert.Equal(t, "https://img.example/1.jpg", r.PrimaryImageURL())
	assert.True(t, r.IsOpenAt(monday(12, 0)))

	hours, ok := r.HoursFor(time.Monday)
	assert.True(t, ok)
	assert.Equal(t, "21:00", hours.Close)
}

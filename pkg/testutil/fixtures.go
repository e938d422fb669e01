package testutil

import (
	"github.com/hkeats/eats/internal/domain"
)

// Restaurant returns a fully populated restaurant with the given id.
func Restaurant(id string, nameEN, nameTC string) domain.Restaurant {
	return domain.Restaurant{
		ID:          id,
		Name:        domain.NewBilingualText(nameEN, nameTC),
		Description: domain.NewBilingualText("Cantonese classics", "經典粵菜"),
		Address:     domain.NewBilingualText("1 Queen's Road Central", "皇后大道中1號"),
		District:    domain.NewBilingualText("Central", "中環"),
		Cuisine:     domain.NewBilingualText("Cantonese", "粵菜"),
		Keywords:    []domain.BilingualText{domain.NewBilingualText("dim sum", "點心")},
		PriceRange:  "$$",
		Rating:      4.5,
		ReviewCount: 12,
		ImageURLs:   []string{"https://img.example.com/" + id + ".jpg"},
		Location:    domain.Coordinate{Latitude: 22.2819, Longitude: 114.1586},
		OpeningHours: []domain.OpeningHours{
			{Day: "Monday", Open: "11:00", Close: "22:00"},
			{Day: "Sunday", IsClosed: true},
		},
		PhoneNumber: "+852 2123 4567",
		Seats:       80,
	}
}

// MenuItem returns an available menu item.
func MenuItem(id, restaurantID, nameEN, nameTC string, price float64, category domain.MenuCategory, tags ...domain.DietaryTag) domain.MenuItem {
	return domain.MenuItem{
		ID:           id,
		RestaurantID: restaurantID,
		Name:         domain.NewBilingualText(nameEN, nameTC),
		Description:  domain.NewBilingualText(nameEN+" made fresh daily", nameTC+"每日新鮮製作"),
		Price:        price,
		Category:     category,
		DietaryInfo:  append([]domain.DietaryTag{}, tags...),
		IsAvailable:  true,
	}
}

// Review returns a review of restaurantID.
func Review(id, restaurantID string, rating int, comment string) domain.Review {
	return domain.Review{
		ID:           id,
		RestaurantID: restaurantID,
		UserID:       "uid-" + id,
		UserName:     "Diner " + id,
		Rating:       rating,
		Comment:      comment,
		PhotoURLs:    []string{},
		CreatedAt:    FixedTime,
	}
}

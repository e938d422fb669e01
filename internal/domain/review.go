package domain

import "time"

// Review is a customer's rating of a restaurant.
type Review struct {
	ID           string     `json:"reviewId"`
	RestaurantID string     `json:"restaurantId"`
	UserID       string     `json:"userId"`
	UserName     string     `json:"userName"`
	UserPhotoURL *string    `json:"userPhotoUrl,omitempty"`
	Rating       int        `json:"rating"`
	Comment      string     `json:"comment"`
	PhotoURLs    []string   `json:"photoUrls"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}

// SubmitReviewRequest is the payload of a new review.
type SubmitReviewRequest struct {
	RestaurantID string   `json:"restaurantId"`
	Rating       int      `json:"rating"`
	Comment      string   `json:"comment"`
	PhotoURLs    []string `json:"photoUrls,omitempty"`
}

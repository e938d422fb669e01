package domain

import "time"

// UserType distinguishes diners from restaurant owners.
type UserType string

const (
	UserTypeCustomer UserType = "customer"
	UserTypeOwner    UserType = "owner"
)

// User is the backend profile of an authenticated principal.
// Email and CreatedAt are fixed once the profile exists.
type User struct {
	ID                string    `json:"uid"`
	Email             string    `json:"email"`
	DisplayName       string    `json:"displayName"`
	UserType          UserType  `json:"userType"`
	PhotoURL          *string   `json:"photoUrl,omitempty"`
	PreferredLanguage string    `json:"preferredLanguage"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// CreateUserRequest creates the profile right after sign-up.
type CreateUserRequest struct {
	ID                string   `json:"uid"`
	Email             string   `json:"email"`
	DisplayName       string   `json:"displayName"`
	UserType          UserType `json:"userType"`
	PreferredLanguage string   `json:"preferredLanguage"`
}

// UpdateUserRequest carries only the mutable profile fields; nil means unchanged.
type UpdateUserRequest struct {
	DisplayName       *string `json:"displayName,omitempty"`
	PhotoURL          *string `json:"photoUrl,omitempty"`
	PreferredLanguage *string `json:"preferredLanguage,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (r UpdateUserRequest) IsEmpty() bool {
	return r.DisplayName == nil && r.PhotoURL == nil && r.PreferredLanguage == nil
}

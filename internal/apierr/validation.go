package apierr

import (
	"fmt"

	"github.com/hkeats/eats/internal/domain"
)

// ValidationReason enumerates locally detected input problems.
type ValidationReason int

const (
	ReasonInvalidRating ValidationReason = iota + 1
	ReasonCommentTooShort
	ReasonMissingField
)

// ValidationError is raised before any network call when input is invalid.
type ValidationError struct {
	Reason ValidationReason
	Field  string
	Detail string
}

// InvalidRating reports a rating outside [min, max].
func InvalidRating(rating, min, max int) *ValidationError {
	return &ValidationError{
		Reason: ReasonInvalidRating,
		Field:  "rating",
		Detail: fmt.Sprintf("rating %d outside %d-%d", rating, min, max),
	}
}

// CommentTooShort reports a comment under the minimum length.
func CommentTooShort(length, min int) *ValidationError {
	return &ValidationError{
		Reason: ReasonCommentTooShort,
		Field:  "comment",
		Detail: fmt.Sprintf("comment has %d characters, need at least %d", length, min),
	}
}

// MissingField reports an empty required field.
func MissingField(field string) *ValidationError {
	return &ValidationError{
		Reason: ReasonMissingField,
		Field:  field,
		Detail: field + " is required",
	}
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Detail
}

// Message returns the user-facing explanation.
func (e *ValidationError) Message() domain.BilingualText {
	switch e.Reason {
	case ReasonInvalidRating:
		return domain.NewBilingualText("Please choose a rating between 1 and 5 stars.", "請選擇1至5星評分。")
	case ReasonCommentTooShort:
		return domain.NewBilingualText("Your review must be at least 10 characters long.", "評論最少需要10個字。")
	case ReasonMissingField:
		return domain.NewBilingualText("Please fill in all required fields.", "請填寫所有必填欄位。")
	default:
		return domain.NewBilingualText("Please check your input.", "請檢查輸入內容。")
	}
}

// LocalizedMessage selects Message for a locale.
func (e *ValidationError) LocalizedMessage(locale string) string {
	return e.Message().Localized(locale)
}

package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMenuItem_Decode(t *testing.T) {
	payload := `{
		"menuItemId": "m-1",
		"restaurantId": "r-1",
		"name": {"EN": "Mapo Tofu", "TC": "麻婆豆腐"},
		"description": {"EN": "Silken tofu", "TC": "豆腐"},
		"price": 88,
		"category": "mainCourse",
		"dietaryInfo": ["vegetarian", "spicy"],
		"isAvailable": true,
		"spiceLevel": 3
	}`

	var item MenuItem
	require.NoError(t, json.Unmarshal([]byte(payload), &item))

	assert.Equal(t, "m-1", item.ID)
	assert.Equal(t, CategoryMainCourse, item.Category)
	assert.True(t, item.HasDietary(DietarySpicy))
	assert.False(t, item.HasDietary(DietaryVegan))
	assert.True(t, item.IsSpicy())
	assert.Equal(t, "🌶🌶🌶", item.SpiceIndicator())
	assert.Equal(t, "HK$88.00", item.DisplayPrice())
	assert.Nil(t, item.ImageURL)
}

func TestMenuItem_DecodeRejectsUnknownEnums(t *testing.T) {
	var item MenuItem
	err := json.Unmarshal([]byte(`{"menuItemId":"m","category":"brunch"}`), &item)
	assert.Error(t, err)

	err = json.Unmarshal([]byte(`{"menuItemId":"m","category":"side","dietaryInfo":["keto"]}`), &item)
	assert.Error(t, err)
}

func TestMenuItem_ZeroSpiceLevelIsNotSpicy(t *testing.T) {
	zero := 0
	item := MenuItem{SpiceLevel: &zero}
	assert.False(t, item.IsSpicy())
	assert.Empty(t, item.SpiceIndicator())
}

func TestMenuCategory_DisplayName(t *testing.T) {
	assert.Equal(t, "Main Course", CategoryMainCourse.DisplayName().EN)
	assert.Equal(t, "甜品", CategoryDessert.DisplayName().Localized("zh-HK"))
	assert.False(t, MenuCategory("brunch").Valid())
}

func TestUpdateUserRequest_OmitsUnchangedFields(t *testing.T) {
	name := "Ada"
	data, err := json.Marshal(UpdateUserRequest{DisplayName: &name})
	require.NoError(t, err)
	assert.JSONEq(t, `{"displayName":"Ada"}`, string(data))
	assert.True(t, UpdateUserRequest{}.IsEmpty())
}

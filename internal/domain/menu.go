package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MenuCategory is the fixed set of menu sections.
type MenuCategory string

const (
	CategoryAppetiser  MenuCategory = "appetiser"
	CategoryMainCourse MenuCategory = "mainCourse"
	CategoryDessert    MenuCategory = "dessert"
	CategoryBeverage   MenuCategory = "beverage"
	CategorySide       MenuCategory = "side"
)

// MenuCategories lists every category in display order.
var MenuCategories = []MenuCategory{
	CategoryAppetiser,
	CategoryMainCourse,
	CategoryDessert,
	CategoryBeverage,
	CategorySide,
}

// Valid reports whether c is a known category.
func (c MenuCategory) Valid() bool {
	for _, known := range MenuCategories {
		if c == known {
			return true
		}
	}
	return false
}

// DisplayName returns a human readable name for the category.
func (c MenuCategory) DisplayName() BilingualText {
	switch c {
	case CategoryAppetiser:
		return NewBilingualText("Appetiser", "前菜")
	case CategoryMainCourse:
		return NewBilingualText("Main Course", "主菜")
	case CategoryDessert:
		return NewBilingualText("Dessert", "甜品")
	case CategoryBeverage:
		return NewBilingualText("Beverage", "飲品")
	case CategorySide:
		return NewBilingualText("Side", "小食")
	}
	return NewBilingualText(string(c), string(c))
}

// UnmarshalJSON rejects unknown categories.
func (c *MenuCategory) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v := MenuCategory(s)
	if !v.Valid() {
		return fmt.Errorf("unknown menu category %q", s)
	}
	*c = v
	return nil
}

// DietaryTag is the fixed set of dietary labels.
type DietaryTag string

const (
	DietaryVegetarian DietaryTag = "vegetarian"
	DietaryVegan      DietaryTag = "vegan"
	DietaryGlutenFree DietaryTag = "glutenFree"
	DietaryDairyFree  DietaryTag = "dairyFree"
	DietaryNutFree    DietaryTag = "nutFree"
	DietaryHalal      DietaryTag = "halal"
	DietarySeafood    DietaryTag = "seafood"
	DietarySpicy      DietaryTag = "spicy"
)

// DietaryTags lists every tag.
var DietaryTags = []DietaryTag{
	DietaryVegetarian,
	DietaryVegan,
	DietaryGlutenFree,
	DietaryDairyFree,
	DietaryNutFree,
	DietaryHalal,
	DietarySeafood,
	DietarySpicy,
}

// Valid reports whether t is a known tag.
func (t DietaryTag) Valid() bool {
	for _, known := range DietaryTags {
		if t == known {
			return true
		}
	}
	return false
}

// UnmarshalJSON rejects unknown tags.
func (t *DietaryTag) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v := DietaryTag(s)
	if !v.Valid() {
		return fmt.Errorf("unknown dietary tag %q", s)
	}
	*t = v
	return nil
}

// MenuItem is a dish offered by one restaurant.
type MenuItem struct {
	ID           string        `json:"menuItemId"`
	RestaurantID string        `json:"restaurantId"`
	Name         BilingualText `json:"name"`
	Description  BilingualText `json:"description"`
	Price        float64       `json:"price"`
	Category     MenuCategory  `json:"category"`
	ImageURL     *string       `json:"imageUrl,omitempty"`
	DietaryInfo  []DietaryTag  `json:"dietaryInfo"`
	IsAvailable  bool          `json:"isAvailable"`
	SpiceLevel   *int          `json:"spiceLevel,omitempty"`
}

// HasDietary reports whether the item carries tag.
func (m MenuItem) HasDietary(tag DietaryTag) bool {
	for _, t := range m.DietaryInfo {
		if t == tag {
			return true
		}
	}
	return false
}

// IsSpicy reports a spice level between 1 and 5.
func (m MenuItem) IsSpicy() bool {
	return m.SpiceLevel != nil && *m.SpiceLevel > 0
}

// SpiceIndicator renders the spice level as chilli marks.
func (m MenuItem) SpiceIndicator() string {
	if !m.IsSpicy() {
		return ""
	}
	level := *m.SpiceLevel
	if level > 5 {
		level = 5
	}
	return strings.Repeat("🌶", level)
}

// DisplayPrice formats the price in Hong Kong dollars.
func (m MenuItem) DisplayPrice() string {
	return fmt.Sprintf("HK$%.2f", m.Price)
}

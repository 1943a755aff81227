package models

import "time"

// Recipe is the central record of the system. Tags and ingredients are
// attached through join tables and always belong to the same user as the
// recipe itself.
type Recipe struct {
	ID          int64       `json:"id"`
	UserID      int64       `json:"-"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	TimeMinutes int         `json:"timeMinutes"`
	Price       float64     `json:"price"`
	Link        string      `json:"link,omitempty"`
	ImageKey    string      `json:"-"` // blob store key, resolved to ImageURL
	ImageURL    string      `json:"image,omitempty"`
	Tags        []Attribute `json:"tags"`
	Ingredients []Attribute `json:"ingredients"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// RecipeInput carries a create or update payload. Pointer fields distinguish
// "not sent" from zero values so partial updates leave omitted fields (and
// omitted association sets) untouched. An explicitly empty Tags/Ingredients
// array clears that association set; a nil pointer leaves it alone.
type RecipeInput struct {
	Title       *string           `json:"title"`
	Description *string           `json:"description"`
	TimeMinutes *int              `json:"timeMinutes"`
	Price       *float64          `json:"price"`
	Link        *string           `json:"link"`
	Tags        *[]AttributeInput `json:"tags"`
	Ingredients *[]AttributeInput `json:"ingredients"`
}

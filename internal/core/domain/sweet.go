package domain

import "time"

// Sweet is a single inventory item. Quantity is the stock level and never
// drops below zero.
type Sweet struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Price     float64   `json:"price"`
	Quantity  int64     `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SweetFilter narrows a search. Zero values mean "not applied".
type SweetFilter struct {
	Name     string   // case-insensitive substring
	Category string   // exact match
	MinPrice *float64 // inclusive
	MaxPrice *float64 // inclusive
}

// SweetPatch carries the fields of a partial update. Nil fields are left untouched.
type SweetPatch struct {
	Name     *string
	Category *string
	Price    *float64
	Quantity *int64
}

// Empty reports whether the patch changes nothing.
func (p SweetPatch) Empty() bool {
	return p.Name == nil && p.Category == nil && p.Price == nil && p.Quantity == nil
}

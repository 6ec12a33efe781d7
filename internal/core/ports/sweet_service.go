package ports

import (
	"context"

	"github.com/sweetshop/inventory-api/internal/core/domain"
)

// Numeric is a client-supplied number that may be absent, unparseable, or
// sent as a string.
type Numeric struct {
	Set    bool
	Valid  bool
	Quoted bool
	Value  float64
}

// CreateSweetInput carries the fields of a new sweet.
type CreateSweetInput struct {
	Name     string
	Category string
	Price    Numeric
	Quantity Numeric
	UserID   string
}

// UpdateSweetInput carries a partial update. Nil strings and unset numerics are ignored.
type UpdateSweetInput struct {
	ID       string
	Name     *string
	Category *string
	Price    Numeric
	Quantity Numeric
	UserID   string
}

// SearchSweetsInput carries raw query parameters.
type SearchSweetsInput struct {
	Name       string
	Category   string
	PriceRange string
}

// StockChangeInput carries a purchase or restock request.
type StockChangeInput struct {
	ID     string
	Amount Numeric
	UserID string
}

// SweetService defines the inventory use cases.
type SweetService interface {
	Create(ctx context.Context, in CreateSweetInput) (*domain.Sweet, error)
	Get(ctx context.Context, id string) (*domain.Sweet, error)
	List(ctx context.Context) ([]*domain.Sweet, error)
	Search(ctx context.Context, in SearchSweetsInput) ([]*domain.Sweet, error)
	Update(ctx context.Context, in UpdateSweetInput) (*domain.Sweet, error)
	Delete(ctx context.Context, id, userID string) error
	Purchase(ctx context.Context, in StockChangeInput) (*domain.Sweet, error)
	Restock(ctx context.Context, in StockChangeInput) (*domain.Sweet, error)
	Movements(ctx context.Context, sweetID string, limit int) ([]*domain.StockMovement, error)
}

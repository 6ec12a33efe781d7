package ports

import (
	"context"

	"github.com/sweetshop/inventory-api/internal/core/domain"
)

// SweetRepository defines persistence operations for sweets.
// Lookups by an unknown or malformed id return domain.ErrSweetNotFound.
type SweetRepository interface {
	// Create inserts s and fills its ID. Returns domain.ErrSweetExists on a name clash.
	Create(ctx context.Context, s *domain.Sweet) error
	FindByID(ctx context.Context, id string) (*domain.Sweet, error)
	// List returns all sweets matching filter, sorted by name.
	List(ctx context.Context, filter domain.SweetFilter) ([]*domain.Sweet, error)
	// Update applies patch atomically and returns the sweet as it was just
	// before and just after the change.
	Update(ctx context.Context, id string, patch domain.SweetPatch) (before, after *domain.Sweet, err error)
	// Delete removes the sweet and returns it as it was just before removal.
	Delete(ctx context.Context, id string) (*domain.Sweet, error)

	// Decrement atomically subtracts n from the stock only if at least n units
	// are available, returning domain.ErrOutOfStock otherwise.
	Decrement(ctx context.Context, id string, n int64) (*domain.Sweet, error)
	// Increment atomically adds n to the stock, returning domain.ErrStockLimit
	// when the result would not fit an int64.
	Increment(ctx context.Context, id string, n int64) (*domain.Sweet, error)
}

// MovementRepository persists the stock movement audit trail.
type MovementRepository interface {
	Insert(ctx context.Context, m *domain.StockMovement) error
	// ListBySweet returns the newest movements first.
	ListBySweet(ctx context.Context, sweetID string, limit int) ([]*domain.StockMovement, error)
}

// MovementRecorder accepts movements for asynchronous persistence. Record must not block.
type MovementRecorder interface {
	Record(m domain.StockMovement)
}

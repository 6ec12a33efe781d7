package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweetshop/inventory-api/internal/api/metrics"
	"github.com/sweetshop/inventory-api/internal/core/domain"
	"github.com/sweetshop/inventory-api/internal/core/ports"
)

const (
	msgMissingSweetFields = "Please provide name, category, price, and quantity."
	msgInvalidPrice       = "Price must be a valid number."
	msgNegativePrice      = "Price must not be negative."
	msgInvalidQuantity    = "Quantity must be a non-negative integer."
	msgEmptyName          = "Name must not be empty."
	msgEmptyCategory      = "Category must not be empty."
	msgPurchaseQuantity   = "Purchase quantity must be a positive integer."
	msgRestockAmount      = "Restock amount must be a positive integer."

	defaultMovementLimit = 50
	maxMovementLimit     = 200

	// Largest integer a float64 represents exactly.
	maxUnits = 1 << 53
)

type SweetService struct {
	repo      ports.SweetRepository
	movements ports.MovementRepository
	recorder  ports.MovementRecorder
	logger    zerolog.Logger
	now       func() time.Time
}

// NewSweetService wires the inventory use cases. movements and recorder may be
// nil, in which case the stock audit trail is disabled.
func NewSweetService(repo ports.SweetRepository, movements ports.MovementRepository, recorder ports.MovementRecorder, logger zerolog.Logger) *SweetService {
	return &SweetService{
		repo:      repo,
		movements: movements,
		recorder:  recorder,
		logger:    logger,
		now:       time.Now,
	}
}

// Create adds a new sweet to the inventory.
func (s *SweetService) Create(ctx context.Context, in ports.CreateSweetInput) (*domain.Sweet, error) {
	name := strings.TrimSpace(in.Name)
	category := strings.TrimSpace(in.Category)
	if name == "" || category == "" || !in.Price.Set || !in.Quantity.Set {
		return nil, domain.Invalid(msgMissingSweetFields)
	}
	price, err := validPrice(in.Price)
	if err != nil {
		return nil, err
	}
	qty, err := validQuantity(in.Quantity)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	sweet := &domain.Sweet{
		Name:      name,
		Category:  category,
		Price:     price,
		Quantity:  qty,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, sweet); err != nil {
		return nil, err
	}

	s.record(sweet.ID, domain.MovementCreate, qty, qty, in.UserID)
	s.logger.Info().Str("sweet_id", sweet.ID).Str("name", sweet.Name).Msg("sweet created")
	return sweet, nil
}

// Get returns a single sweet.
func (s *SweetService) Get(ctx context.Context, id string) (*domain.Sweet, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns every sweet sorted by name.
func (s *SweetService) List(ctx context.Context) ([]*domain.Sweet, error) {
	return s.repo.List(ctx, domain.SweetFilter{})
}

// Search filters sweets by name substring, exact category and price range.
// Unparseable price bounds are ignored rather than rejected.
func (s *SweetService) Search(ctx context.Context, in ports.SearchSweetsInput) ([]*domain.Sweet, error) {
	minPrice, maxPrice := ParsePriceRange(in.PriceRange)
	return s.repo.List(ctx, domain.SweetFilter{
		Name:     strings.TrimSpace(in.Name),
		Category: in.Category,
		MinPrice: minPrice,
		MaxPrice: maxPrice,
	})
}

// Update applies a partial update. An empty update returns the sweet unchanged.
func (s *SweetService) Update(ctx context.Context, in ports.UpdateSweetInput) (*domain.Sweet, error) {
	var patch domain.SweetPatch

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.Invalid(msgEmptyName)
		}
		patch.Name = &name
	}
	if in.Category != nil {
		category := strings.TrimSpace(*in.Category)
		if category == "" {
			return nil, domain.Invalid(msgEmptyCategory)
		}
		patch.Category = &category
	}
	if in.Price.Set {
		price, err := validPrice(in.Price)
		if err != nil {
			return nil, err
		}
		patch.Price = &price
	}
	if in.Quantity.Set {
		qty, err := validQuantity(in.Quantity)
		if err != nil {
			return nil, err
		}
		patch.Quantity = &qty
	}

	if patch.Empty() {
		return s.repo.FindByID(ctx, in.ID)
	}

	before, updated, err := s.repo.Update(ctx, in.ID, patch)
	if err != nil {
		return nil, err
	}

	if before.Quantity != updated.Quantity {
		s.record(updated.ID, domain.MovementAdjust, updated.Quantity-before.Quantity, updated.Quantity, in.UserID)
	}
	s.logger.Info().Str("sweet_id", updated.ID).Msg("sweet updated")
	return updated, nil
}

// Delete removes a sweet from the inventory.
func (s *SweetService) Delete(ctx context.Context, id, userID string) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}

	s.record(deleted.ID, domain.MovementDelete, -deleted.Quantity, 0, userID)
	s.logger.Info().Str("sweet_id", deleted.ID).Str("name", deleted.Name).Msg("sweet deleted")
	return nil
}

// Purchase removes in.Amount units from stock. The request is rejected with
// domain.ErrOutOfStock, leaving stock untouched, when fewer units remain.
func (s *SweetService) Purchase(ctx context.Context, in ports.StockChangeInput) (*domain.Sweet, error) {
	n, ok := positiveInteger(in.Amount)
	if !ok || in.Amount.Quoted {
		return nil, domain.Invalid(msgPurchaseQuantity)
	}

	sweet, err := s.repo.Decrement(ctx, in.ID, n)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOutOfStock):
			metrics.PurchasesTotal.WithLabelValues("out_of_stock").Inc()
		case errors.Is(err, domain.ErrSweetNotFound):
			metrics.PurchasesTotal.WithLabelValues("not_found").Inc()
		default:
			metrics.PurchasesTotal.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	metrics.PurchasesTotal.WithLabelValues("ok").Inc()
	metrics.UnitsSoldTotal.Add(float64(n))
	s.record(sweet.ID, domain.MovementPurchase, -n, sweet.Quantity, in.UserID)
	return sweet, nil
}

// Restock adds in.Amount units to stock. Fractional amounts are rejected
// since stock is counted in whole units.
func (s *SweetService) Restock(ctx context.Context, in ports.StockChangeInput) (*domain.Sweet, error) {
	n, ok := positiveInteger(in.Amount)
	if !ok {
		return nil, domain.Invalid(msgRestockAmount)
	}

	sweet, err := s.repo.Increment(ctx, in.ID, n)
	if err != nil {
		return nil, err
	}

	metrics.UnitsRestockedTotal.Add(float64(n))
	s.record(sweet.ID, domain.MovementRestock, n, sweet.Quantity, in.UserID)
	s.logger.Info().Str("sweet_id", sweet.ID).Int64("amount", n).Int64("quantity", sweet.Quantity).Msg("sweet restocked")
	return sweet, nil
}

// Movements returns the stock audit trail of a sweet, newest first.
func (s *SweetService) Movements(ctx context.Context, sweetID string, limit int) ([]*domain.StockMovement, error) {
	if s.movements == nil {
		return []*domain.StockMovement{}, nil
	}
	if limit <= 0 {
		limit = defaultMovementLimit
	}
	if limit > maxMovementLimit {
		limit = maxMovementLimit
	}
	return s.movements.ListBySweet(ctx, sweetID, limit)
}

func (s *SweetService) record(sweetID string, kind domain.MovementKind, delta, after int64, userID string) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(domain.StockMovement{
		SweetID:       sweetID,
		Kind:          kind,
		Delta:         delta,
		QuantityAfter: after,
		UserID:        userID,
		At:            s.now().UTC(),
	})
}

func validPrice(n ports.Numeric) (float64, error) {
	if !n.Valid {
		return 0, domain.Invalid(msgInvalidPrice)
	}
	if n.Value < 0 {
		return 0, domain.Invalid(msgNegativePrice)
	}
	return n.Value, nil
}

func validQuantity(n ports.Numeric) (int64, error) {
	if !n.Valid || !isWhole(n.Value) || n.Value < 0 {
		return 0, domain.Invalid(msgInvalidQuantity)
	}
	return int64(n.Value), nil
}

func positiveInteger(n ports.Numeric) (int64, bool) {
	if !n.Set || !n.Valid || !isWhole(n.Value) || n.Value <= 0 {
		return 0, false
	}
	return int64(n.Value), true
}

func isWhole(v float64) bool {
	return v == math.Trunc(v) && math.Abs(v) <= maxUnits
}

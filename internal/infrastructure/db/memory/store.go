// Package memory provides mutex-guarded in-memory repositories. They back the
// "memory" store driver used for local runs and HTTP scenario tests.
package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sweetshop/inventory-api/internal/core/domain"
)

// UserRepository implements ports.AuthRepository.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]domain.User)}
}

func (r *UserRepository) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Username == u.Username || (u.Email != "" && existing.Email == u.Email) {
			return nil, domain.ErrUserExists
		}
	}

	stored := *u
	stored.ID = uuid.NewString()
	r.users[stored.ID] = stored

	out := stored
	return &out, nil
}

func (r *UserRepository) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Username == username })
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if email == "" {
		return nil, domain.ErrUserNotFound
	}
	return r.find(func(u domain.User) bool { return u.Email == email })
}

func (r *UserRepository) find(match func(domain.User) bool) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if match(u) {
			out := u
			return &out, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// SweetRepository implements ports.SweetRepository. Every stock change happens
// under the write lock, which makes Decrement's check-and-subtract atomic.
type SweetRepository struct {
	mu     sync.RWMutex
	sweets map[string]domain.Sweet
}

func NewSweetRepository() *SweetRepository {
	return &SweetRepository{sweets: make(map[string]domain.Sweet)}
}

func (r *SweetRepository) Create(_ context.Context, s *domain.Sweet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.nameTaken(s.Name, "") {
		return domain.ErrSweetExists
	}
	s.ID = uuid.NewString()
	r.sweets[s.ID] = *s
	return nil
}

func (r *SweetRepository) FindByID(_ context.Context, id string) (*domain.Sweet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sweets[id]
	if !ok {
		return nil, domain.ErrSweetNotFound
	}
	return &s, nil
}

func (r *SweetRepository) List(_ context.Context, f domain.SweetFilter) ([]*domain.Sweet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name := strings.ToLower(f.Name)
	out := make([]*domain.Sweet, 0, len(r.sweets))
	for _, s := range r.sweets {
		if name != "" && !strings.Contains(strings.ToLower(s.Name), name) {
			continue
		}
		if f.Category != "" && s.Category != f.Category {
			continue
		}
		if f.MinPrice != nil && s.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && s.Price > *f.MaxPrice {
			continue
		}
		s := s
		out = append(out, &s)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *SweetRepository) Update(_ context.Context, id string, p domain.SweetPatch) (*domain.Sweet, *domain.Sweet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sweets[id]
	if !ok {
		return nil, nil, domain.ErrSweetNotFound
	}
	before := s
	if p.Name != nil {
		if r.nameTaken(*p.Name, id) {
			return nil, nil, domain.ErrSweetExists
		}
		s.Name = *p.Name
	}
	if p.Category != nil {
		s.Category = *p.Category
	}
	if p.Price != nil {
		s.Price = *p.Price
	}
	if p.Quantity != nil {
		s.Quantity = *p.Quantity
	}
	s.UpdatedAt = time.Now().UTC()
	r.sweets[id] = s
	return &before, &s, nil
}

func (r *SweetRepository) Delete(_ context.Context, id string) (*domain.Sweet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sweets[id]
	if !ok {
		return nil, domain.ErrSweetNotFound
	}
	delete(r.sweets, id)
	return &s, nil
}

func (r *SweetRepository) Decrement(_ context.Context, id string, n int64) (*domain.Sweet, error) {
	return r.adjust(id, func(s *domain.Sweet) error {
		if s.Quantity < n {
			return domain.ErrOutOfStock
		}
		s.Quantity -= n
		return nil
	})
}

func (r *SweetRepository) Increment(_ context.Context, id string, n int64) (*domain.Sweet, error) {
	return r.adjust(id, func(s *domain.Sweet) error {
		if s.Quantity > math.MaxInt64-n {
			return domain.ErrStockLimit
		}
		s.Quantity += n
		return nil
	})
}

func (r *SweetRepository) adjust(id string, apply func(*domain.Sweet) error) (*domain.Sweet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sweets[id]
	if !ok {
		return nil, domain.ErrSweetNotFound
	}
	if err := apply(&s); err != nil {
		return nil, err
	}
	s.UpdatedAt = time.Now().UTC()
	r.sweets[id] = s
	return &s, nil
}

// nameTaken must be called with the lock held.
func (r *SweetRepository) nameTaken(name, exceptID string) bool {
	for id, s := range r.sweets {
		if id != exceptID && s.Name == name {
			return true
		}
	}
	return false
}

// MovementRepository implements ports.MovementRepository.
type MovementRepository struct {
	mu        sync.RWMutex
	movements []domain.StockMovement
}

func NewMovementRepository() *MovementRepository {
	return &MovementRepository{}
}

func (r *MovementRepository) Insert(_ context.Context, m *domain.StockMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movements = append(r.movements, *m)
	return nil
}

func (r *MovementRepository) ListBySweet(_ context.Context, sweetID string, limit int) ([]*domain.StockMovement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.StockMovement, 0)
	for i := len(r.movements) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if r.movements[i].SweetID == sweetID {
			m := r.movements[i]
			out = append(out, &m)
		}
	}
	return out, nil
}

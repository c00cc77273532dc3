package repositories

import (
	"sync"
	"time"

	"bakeshop/internal/models"
)

// MockCartRepository is an in-memory implementation of CartRepository.
type MockCartRepository struct {
	carts map[string]models.Cart
	mu    sync.RWMutex
}

// NewMockCartRepository creates a new instance of MockCartRepository.
func NewMockCartRepository() *MockCartRepository {
	return &MockCartRepository{
		carts: make(map[string]models.Cart),
	}
}

// Get returns the cart for an owner, or an empty cart if none was saved yet.
func (r *MockCartRepository) Get(ownerID string) (*models.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cart, ok := r.carts[ownerID]
	if !ok {
		return &models.Cart{OwnerID: ownerID}, nil
	}
	// Copy the line slice so callers cannot mutate the stored cart.
	items := make([]models.CartItem, len(cart.Items))
	copy(items, cart.Items)
	cart.Items = items
	return &cart, nil
}

// Save stores the cart keyed by its owner.
func (r *MockCartRepository) Save(cart *models.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *cart
	stored.Items = make([]models.CartItem, len(cart.Items))
	copy(stored.Items, cart.Items)
	stored.UpdatedAt = time.Now()
	r.carts[cart.OwnerID] = stored
	return nil
}

// Delete removes the owner's cart.
func (r *MockCartRepository) Delete(ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.carts, ownerID)
	return nil
}

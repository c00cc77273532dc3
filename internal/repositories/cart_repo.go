package repositories

import "bakeshop/internal/models"

// CartRepository defines the interface for cart persistence. One cart per
// owner; Save replaces the full line list so every mutation re-persists the
// whole cart.
type CartRepository interface {
	Get(ownerID string) (*models.Cart, error)
	Save(cart *models.Cart) error
	Delete(ownerID string) error
}

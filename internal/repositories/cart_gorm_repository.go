package repositories

import (
	"fmt"

	"bakeshop/internal/models"

	"gorm.io/gorm"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{
		db: db,
	}
}

// Get retrieves the cart for an owner. A missing cart is not an error: every
// owner implicitly has an empty cart.
func (r *GORMCartRepository) Get(ownerID string) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.Preload("Items").First(&cart, "owner_id = ?", ownerID).Error
	if err == gorm.ErrRecordNotFound {
		return &models.Cart{OwnerID: ownerID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cart for owner %s: %w", ownerID, err)
	}
	return &cart, nil
}

// Save replaces the stored cart with the given one, lines included.
func (r *GORMCartRepository) Save(cart *models.Cart) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		// Replace the line set wholesale; line IDs are not stable across saves.
		if err := tx.Where("cart_id = ?", cart.OwnerID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		for i := range cart.Items {
			cart.Items[i].ID = 0
			cart.Items[i].CartID = cart.OwnerID
		}
		return tx.Save(cart).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save cart for owner %s: %w", cart.OwnerID, err)
	}
	return nil
}

// Delete removes the cart and its lines.
func (r *GORMCartRepository) Delete(ownerID string) error {
	res := r.db.Where("cart_id = ?", ownerID).Delete(&models.CartItem{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete cart items for owner %s: %w", ownerID, res.Error)
	}
	if err := r.db.Delete(&models.Cart{}, "owner_id = ?", ownerID).Error; err != nil {
		return fmt.Errorf("failed to delete cart for owner %s: %w", ownerID, err)
	}
	return nil
}

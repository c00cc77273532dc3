package repositories

import (
	"bakeshop/internal/models"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	GetAll() ([]models.Order, error)
	GetByID(id string) (*models.Order, error)
	GetByOrderNumber(orderNumber string) (*models.Order, error)
	ListByUser(userID string) ([]models.Order, error)
	Create(order *models.Order) error
	UpdateStatus(id string, status string) error
	// CountByUserAndCoupon backs per-customer coupon usage limits.
	CountByUserAndCoupon(userID, couponID string) (int64, error)
	// Delete(id string) error // Deletion of orders might be complex, so we'll omit for now.
}

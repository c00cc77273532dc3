package repositories

import "bakeshop/internal/models"

// CouponRepository defines the interface for coupon data access. Coupons are
// read-mostly: the storefront only creates them through seeding or admin
// tooling and never mutates them during validation.
type CouponRepository interface {
	GetByCode(code string) (*models.Coupon, error)
	GetByID(id string) (*models.Coupon, error)
	ListActive() ([]models.Coupon, error)
	Create(coupon *models.Coupon) error
}

package repositories

import (
	"fmt"

	"bakeshop/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMCouponRepository is a GORM implementation of CouponRepository.
type GORMCouponRepository struct {
	db *gorm.DB
}

// NewGORMCouponRepository creates a new instance of GORMCouponRepository.
func NewGORMCouponRepository(db *gorm.DB) *GORMCouponRepository {
	return &GORMCouponRepository{
		db: db,
	}
}

// GetByCode retrieves a coupon by its code.
func (r *GORMCouponRepository) GetByCode(code string) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.First(&coupon, "code = ?", code).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("coupon with code %s not found", code)
		}
		return nil, fmt.Errorf("failed to get coupon by code %s: %w", code, err)
	}
	return &coupon, nil
}

// GetByID retrieves a coupon by its ID.
func (r *GORMCouponRepository) GetByID(id string) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.First(&coupon, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("coupon with ID %s not found", id)
		}
		return nil, fmt.Errorf("failed to get coupon by ID %s: %w", id, err)
	}
	return &coupon, nil
}

// ListActive retrieves all coupons currently flagged active.
func (r *GORMCouponRepository) ListActive() ([]models.Coupon, error) {
	var coupons []models.Coupon
	if err := r.db.Find(&coupons, "active = ?", true).Error; err != nil {
		return nil, fmt.Errorf("failed to list active coupons: %w", err)
	}
	return coupons, nil
}

// Create creates a new coupon in the database.
func (r *GORMCouponRepository) Create(coupon *models.Coupon) error {
	if coupon.ID == "" {
		coupon.ID = uuid.New().String()
	}
	if err := r.db.Create(coupon).Error; err != nil {
		return fmt.Errorf("failed to create coupon: %w", err)
	}
	return nil
}

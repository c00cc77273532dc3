package repositories

import (
	"fmt"
	"sync"

	"bakeshop/internal/models"

	"github.com/google/uuid"
)

// MockCouponRepository is an in-memory implementation of CouponRepository.
type MockCouponRepository struct {
	coupons map[string]models.Coupon // keyed by code
	mu      sync.RWMutex
}

// NewMockCouponRepository creates a new instance of MockCouponRepository.
func NewMockCouponRepository() *MockCouponRepository {
	return &MockCouponRepository{
		coupons: make(map[string]models.Coupon),
	}
}

// GetByCode returns a coupon by its code.
func (r *MockCouponRepository) GetByCode(code string) (*models.Coupon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	coupon, ok := r.coupons[code]
	if !ok {
		return nil, fmt.Errorf("coupon with code %s not found", code)
	}
	return &coupon, nil
}

// GetByID returns a coupon by its ID.
func (r *MockCouponRepository) GetByID(id string) (*models.Coupon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, coupon := range r.coupons {
		if coupon.ID == id {
			c := coupon
			return &c, nil
		}
	}
	return nil, fmt.Errorf("coupon with ID %s not found", id)
}

// ListActive returns all active coupons.
func (r *MockCouponRepository) ListActive() ([]models.Coupon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]models.Coupon, 0, len(r.coupons))
	for _, coupon := range r.coupons {
		if coupon.Active {
			list = append(list, coupon)
		}
	}
	return list, nil
}

// Create adds a new coupon.
func (r *MockCouponRepository) Create(coupon *models.Coupon) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if coupon.ID == "" {
		coupon.ID = uuid.New().String()
	}
	if _, exists := r.coupons[coupon.Code]; exists {
		return fmt.Errorf("coupon with code %s already exists", coupon.Code)
	}
	r.coupons[coupon.Code] = *coupon
	return nil
}

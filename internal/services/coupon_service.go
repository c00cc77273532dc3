package services

import (
	"fmt"
	"strings"
	"time"

	"bakeshop/internal/models"
	"bakeshop/internal/pricing"
	"bakeshop/internal/repositories"
)

// CouponService is the authoritative discount decision. Every coupon attach
// goes through Validate; callers hold the returned discount only as a
// snapshot and must re-validate whenever the order amount backing it changes.
type CouponService struct {
	couponRepo repositories.CouponRepository
	orderRepo  repositories.OrderRepository
	now        func() time.Time
}

// NewCouponService creates a new CouponService.
func NewCouponService(couponRepo repositories.CouponRepository, orderRepo repositories.OrderRepository) *CouponService {
	return &CouponService{
		couponRepo: couponRepo,
		orderRepo:  orderRepo,
		now:        time.Now,
	}
}

// Validate checks a coupon code against a customer and a candidate order
// amount. Rule violations come back as a rejection result, not an error;
// the error return is reserved for repository failures.
func (s *CouponService) Validate(code, customerID string, orderAmount float64) (models.CouponResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return reject("Please enter a coupon code"), nil
	}
	if orderAmount < 0 {
		return reject("Invalid order amount"), nil
	}

	coupon, err := s.couponRepo.GetByCode(code)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return reject("Invalid coupon code"), nil
		}
		return models.CouponResult{}, fmt.Errorf("failed to look up coupon %s: %w", code, err)
	}

	if !coupon.Active {
		return reject("Invalid coupon code"), nil
	}
	if coupon.Expired(s.now()) {
		return reject("This coupon has expired"), nil
	}
	if coupon.MinimumAmount > 0 && orderAmount < coupon.MinimumAmount {
		return reject(fmt.Sprintf("Minimum order amount of ₹%.2f required for this coupon", coupon.MinimumAmount)), nil
	}

	if coupon.UsagePerUser > 0 && customerID != "" {
		used, err := s.orderRepo.CountByUserAndCoupon(customerID, coupon.ID)
		if err != nil {
			return models.CouponResult{}, fmt.Errorf("failed to count usage of coupon %s: %w", code, err)
		}
		if used >= int64(coupon.UsagePerUser) {
			return reject("You have already used this coupon"), nil
		}
	}

	return models.CouponResult{
		Valid:          true,
		Coupon:         coupon,
		DiscountAmount: pricing.Discount(coupon, orderAmount),
	}, nil
}

// CouponsForCustomer lists the active, unexpired coupons the customer can
// still use, for the "available offers" surface.
func (s *CouponService) CouponsForCustomer(customerID string) ([]models.Coupon, error) {
	active, err := s.couponRepo.ListActive()
	if err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}

	now := s.now()
	eligible := make([]models.Coupon, 0, len(active))
	for _, coupon := range active {
		if coupon.Expired(now) {
			continue
		}
		if coupon.UsagePerUser > 0 && customerID != "" {
			used, err := s.orderRepo.CountByUserAndCoupon(customerID, coupon.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to count usage of coupon %s: %w", coupon.Code, err)
			}
			if used >= int64(coupon.UsagePerUser) {
				continue
			}
		}
		eligible = append(eligible, coupon)
	}
	return eligible, nil
}

func reject(reason string) models.CouponResult {
	return models.CouponResult{Valid: false, Error: reason}
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// Discount types.
const (
	DiscountPercentage = "PERCENTAGE"
	DiscountFixed      = "FIXED"
)

// Coupon represents a discount rule. Coupons are owned by the store backend;
// storefront clients only ever ask for validation and treat the result as
// opaque.
type Coupon struct {
	ID              string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Code            string    `json:"code" gorm:"uniqueIndex;type:varchar(64)" validate:"required,min=3,max=64"`
	Name            string    `json:"name,omitempty" validate:"omitempty,max=100"`
	DiscountType    string    `json:"discountType" validate:"required,oneof=PERCENTAGE FIXED"`
	DiscountValue   float64   `json:"discountValue" validate:"required,gt=0"`
	MinimumAmount   float64   `json:"minimumAmount" validate:"gte=0"`
	MaximumDiscount float64   `json:"maximumDiscount" validate:"gte=0"` // cap for PERCENTAGE; 0 means no cap
	ValidUntil      time.Time `json:"validUntil"`
	UsagePerUser    int       `json:"usagePerUser" validate:"gte=0"` // 0 means unlimited
	Active          bool      `json:"active"`
	gorm.Model      `json:"-"`
}

// Expired reports whether the coupon's validity window has passed at now.
func (c *Coupon) Expired(now time.Time) bool {
	return now.After(c.ValidUntil)
}

// CouponResult is the outcome of validating a coupon code against a candidate
// order amount. Field names match the storefront wire contract.
type CouponResult struct {
	Valid          bool    `json:"valid"`
	Coupon         *Coupon `json:"coupon,omitempty"`
	DiscountAmount float64 `json:"discountAmount,omitempty"`
	Error          string  `json:"error,omitempty"`
}

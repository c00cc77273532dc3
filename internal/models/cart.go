package models

import "time"

// CartItem represents a single line in a shopping cart. ProductID together
// with VariantID (when present) is the merge identity of the line: adding
// the same pair again increments quantity instead of appending a duplicate.
type CartItem struct {
	ID         uint    `json:"-" gorm:"primaryKey"`
	CartID     string  `json:"-" gorm:"index;type:varchar(64)"`
	ProductID  string  `json:"product_id" validate:"required"`
	Name       string  `json:"name" validate:"required"`
	Price      float64 `json:"price" validate:"gte=0"`
	Quantity   int     `json:"quantity" validate:"gte=1"`
	Image      string  `json:"image,omitempty"`
	VariantID  string  `json:"variant_id,omitempty"`
	Weight     string  `json:"weight,omitempty"`
	CustomName string  `json:"custom_name,omitempty"`
}

// Key returns the merge identity of the line.
func (i CartItem) Key() string {
	if i.VariantID == "" {
		return i.ProductID
	}
	return i.ProductID + "|" + i.VariantID
}

// Cart is the persisted cart for one owner. OwnerID is either an
// authenticated user ID or a guest bucket ID; there is exactly one cart per
// owner. The coupon fields are a snapshot of the last successful validation
// and are refreshed on every item mutation.
type Cart struct {
	OwnerID        string     `json:"owner_id" gorm:"primaryKey;type:varchar(64)"`
	Items          []CartItem `json:"items" gorm:"foreignKey:CartID;references:OwnerID;constraint:OnDelete:CASCADE"`
	CouponID       string     `json:"coupon_id,omitempty" gorm:"type:varchar(36)"`
	CouponCode     string     `json:"coupon_code,omitempty" gorm:"type:varchar(64)"`
	CouponDiscount float64    `json:"coupon_discount,omitempty"`
	CouponError    string     `json:"coupon_error,omitempty" gorm:"-"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Count is the badge count: total quantity across all lines.
func (c *Cart) Count() int {
	var n int
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// HasCoupon reports whether a validated coupon is currently attached.
func (c *Cart) HasCoupon() bool {
	return c.CouponCode != ""
}

// DropCoupon removes the attached coupon snapshot, keeping reason for display.
func (c *Cart) DropCoupon(reason string) {
	c.CouponID = ""
	c.CouponCode = ""
	c.CouponDiscount = 0
	c.CouponError = reason
}

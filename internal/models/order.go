package models

import "time"

// Order status values.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// OrderItem represents a single item within an order. UnitPrice is the price
// at the time the order was placed.
type OrderItem struct {
	ProductID  string  `json:"productId" validate:"required"`
	Quantity   int     `json:"quantity" validate:"required,gte=1"`
	UnitPrice  float64 `json:"unitPrice" validate:"gte=0"`
	VariantID  string  `json:"variantId,omitempty"`
	Weight     string  `json:"weight,omitempty"`
	CustomName string  `json:"customName,omitempty"`
}

// ShippingAddress is the delivery address in the order service's field names.
// The storefront's postalCode travels as pincode on this contract.
type ShippingAddress struct {
	Street    string `json:"street" validate:"required"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state" validate:"required"`
	Pincode   string `json:"pincode" validate:"required"`
	Country   string `json:"country" validate:"required"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Phone     string `json:"phone" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
}

// OrderDraft is the order-creation request body. Totals are recomputed and
// verified server-side before the draft is accepted.
type OrderDraft struct {
	UserID          string          `json:"userId" validate:"required"`
	Items           []OrderItem     `json:"items" validate:"required,min=1,dive"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod" validate:"required"`
	TotalAmount     float64         `json:"totalAmount" validate:"gte=0"`
	Subtotal        float64         `json:"subtotal" validate:"gte=0"`
	Shipping        float64         `json:"shipping" validate:"gte=0"`
	DiscountAmount  float64         `json:"discountAmount" validate:"gte=0"`
	CouponCode      string          `json:"couponCode,omitempty"`
	CouponID        string          `json:"couponId,omitempty"`
}

// Order represents an accepted customer order.
type Order struct {
	ID              string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderNumber     string          `json:"orderNumber" gorm:"uniqueIndex;type:varchar(32)"`
	UserID          string          `json:"userId" gorm:"index;type:varchar(64)"`
	Items           []OrderItem     `json:"items" gorm:"serializer:json"`
	ShippingAddress ShippingAddress `json:"shippingAddress" gorm:"embedded;embeddedPrefix:ship_"`
	PaymentMethod   string          `json:"paymentMethod"`
	Subtotal        float64         `json:"subtotal"`
	Shipping        float64         `json:"shipping"`
	DiscountAmount  float64         `json:"discountAmount"`
	TotalAmount     float64         `json:"totalAmount"`
	CouponCode      string          `json:"couponCode,omitempty"`
	CouponID        string          `json:"couponId,omitempty"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Package pricing is the single place order money math lives. The cart view,
// the checkout view and order acceptance all call the same Compute, so the
// totals they render can never disagree.
package pricing

import (
	"math"

	"bakeshop/internal/models"
)

// Shipping policy: orders strictly above the threshold ship free, everything
// else pays the flat fee.
const (
	FreeShippingThreshold = 1000.00
	FlatShippingFee       = 100.00
)

// Applied is the discount snapshot attached to a cart or checkout session
// after a successful server-side validation.
type Applied struct {
	CouponID       string  `json:"coupon_id"`
	CouponCode     string  `json:"coupon_code"`
	DiscountAmount float64 `json:"discount_amount"`
}

// Totals is the money breakdown rendered to the customer.
// Invariant: Total = Subtotal + Shipping - Discount, and Total >= 0.
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping"`
	Discount float64 `json:"discount"`
	Total    float64 `json:"total"`
}

// Subtotal sums price x quantity over the cart lines.
func Subtotal(items []models.CartItem) float64 {
	var sum float64
	for _, item := range items {
		sum += item.Price * float64(item.Quantity)
	}
	return Round(sum)
}

// ShippingFor applies the flat-fee/free-above-threshold rule. The boundary is
// exclusive: a subtotal of exactly the threshold still pays the fee.
func ShippingFor(subtotal float64) float64 {
	if subtotal > FreeShippingThreshold {
		return 0
	}
	return FlatShippingFee
}

// Compute derives the full breakdown for a set of cart lines and an optional
// applied coupon. Pure and deterministic; the discount is clamped so the
// total can never go negative.
func Compute(items []models.CartItem, applied *Applied) Totals {
	subtotal := Subtotal(items)
	shipping := ShippingFor(subtotal)

	var discount float64
	if applied != nil {
		discount = applied.DiscountAmount
	}
	if max := subtotal + shipping; discount > max {
		discount = max
	}

	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Discount: Round(discount),
		Total:    Round(subtotal + shipping - discount),
	}
}

// ComputeOrder derives the breakdown for order items, used to verify a
// submitted draft against the same rules the storefront rendered.
func ComputeOrder(items []models.OrderItem, discount float64) Totals {
	lines := make([]models.CartItem, 0, len(items))
	for _, item := range items {
		lines = append(lines, models.CartItem{Price: item.UnitPrice, Quantity: item.Quantity})
	}
	if discount <= 0 {
		return Compute(lines, nil)
	}
	return Compute(lines, &Applied{DiscountAmount: discount})
}

// Discount computes the discount a coupon grants on an order amount,
// assuming the coupon already passed validation. PERCENTAGE discounts are
// capped at the coupon's maximum when one is set; FIXED discounts can never
// exceed the order amount.
func Discount(coupon *models.Coupon, orderAmount float64) float64 {
	switch coupon.DiscountType {
	case models.DiscountPercentage:
		amount := orderAmount * coupon.DiscountValue / 100
		if coupon.MaximumDiscount > 0 && amount > coupon.MaximumDiscount {
			amount = coupon.MaximumDiscount
		}
		return Round(amount)
	case models.DiscountFixed:
		return Round(math.Min(coupon.DiscountValue, orderAmount))
	default:
		return 0
	}
}

// Round normalizes a money value to two decimals.
func Round(v float64) float64 {
	return math.Round(v*100) / 100
}

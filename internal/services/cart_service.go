package services

import (
	"fmt"
	"log"

	"bakeshop/internal/models"
	"bakeshop/internal/pricing"
	"bakeshop/internal/repositories"
)

// CartService owns the cart for each owner (an authenticated user ID or a
// guest bucket ID). Every mutation re-persists the full line list and, when a
// coupon is attached, re-validates it against the new subtotal so a stale
// discount is never carried onto a different order amount.
type CartService struct {
	repo    repositories.CartRepository
	coupons *CouponService
}

// NewCartService creates a new CartService.
func NewCartService(repo repositories.CartRepository, coupons *CouponService) *CartService {
	return &CartService{
		repo:    repo,
		coupons: coupons,
	}
}

// Get returns the owner's cart together with its money breakdown.
func (s *CartService) Get(ownerID string) (*models.Cart, pricing.Totals, error) {
	cart, err := s.repo.Get(ownerID)
	if err != nil {
		return nil, pricing.Totals{}, err
	}
	return cart, s.totals(cart), nil
}

// AddItem adds an item to the cart, merging quantities when a line with the
// same product/variant identity already exists. Always succeeds.
func (s *CartService) AddItem(ownerID string, item models.CartItem) (*models.Cart, error) {
	if item.Quantity < 1 {
		item.Quantity = 1
	}

	cart, err := s.repo.Get(ownerID)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range cart.Items {
		if cart.Items[i].Key() == item.Key() {
			cart.Items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		cart.Items = append(cart.Items, item)
	}

	return s.commit(cart)
}

// UpdateQuantity replaces the quantity of the matching line. A quantity of
// zero or below removes the line (the decrement-from-one gesture means
// "take it out", not "keep one").
func (s *CartService) UpdateQuantity(ownerID, productID, variantID string, quantity int) (*models.Cart, error) {
	cart, err := s.repo.Get(ownerID)
	if err != nil {
		return nil, err
	}

	key := lineKey(productID, variantID)
	found := false
	for i := range cart.Items {
		if cart.Items[i].Key() == key {
			found = true
			if quantity <= 0 {
				cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			} else {
				cart.Items[i].Quantity = quantity
			}
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("cart line for product %s not found", productID)
	}

	return s.commit(cart)
}

// RemoveItem removes the matching line; a no-op if the line is absent.
func (s *CartService) RemoveItem(ownerID, productID, variantID string) (*models.Cart, error) {
	cart, err := s.repo.Get(ownerID)
	if err != nil {
		return nil, err
	}

	key := lineKey(productID, variantID)
	for i := range cart.Items {
		if cart.Items[i].Key() == key {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			break
		}
	}

	return s.commit(cart)
}

// Clear empties the cart. Called after a cart-flow order is accepted; the
// buy-now flow never touches the cart.
func (s *CartService) Clear(ownerID string) error {
	return s.repo.Delete(ownerID)
}

// ApplyCoupon validates a code against the cart's current subtotal and, on
// success, attaches the discount snapshot to the cart.
func (s *CartService) ApplyCoupon(ownerID, code string) (models.CouponResult, error) {
	cart, err := s.repo.Get(ownerID)
	if err != nil {
		return models.CouponResult{}, err
	}

	result, err := s.coupons.Validate(code, ownerID, pricing.Subtotal(cart.Items))
	if err != nil {
		return models.CouponResult{}, err
	}
	if !result.Valid {
		return result, nil
	}

	cart.CouponID = result.Coupon.ID
	cart.CouponCode = result.Coupon.Code
	cart.CouponDiscount = result.DiscountAmount
	cart.CouponError = ""
	if err := s.repo.Save(cart); err != nil {
		return models.CouponResult{}, err
	}
	return result, nil
}

// RemoveCoupon detaches the applied coupon, if any.
func (s *CartService) RemoveCoupon(ownerID string) error {
	cart, err := s.repo.Get(ownerID)
	if err != nil {
		return err
	}
	if !cart.HasCoupon() {
		return nil
	}
	cart.DropCoupon("")
	return s.repo.Save(cart)
}

// commit refreshes the coupon snapshot against the mutated line list and
// persists the cart. The refresh happens synchronously, before any caller
// can read a total, so the rendered discount always matches the items.
func (s *CartService) commit(cart *models.Cart) (*models.Cart, error) {
	if cart.HasCoupon() {
		result, err := s.coupons.Validate(cart.CouponCode, cart.OwnerID, pricing.Subtotal(cart.Items))
		if err != nil {
			// Treat an unreachable validator as a rejection: better to lose
			// the discount than to trust a stale one.
			log.Printf("Coupon revalidation failed for cart %s: %v", cart.OwnerID, err)
			cart.DropCoupon("Could not re-validate coupon, please apply it again")
		} else if !result.Valid {
			cart.DropCoupon(result.Error)
		} else {
			cart.CouponDiscount = result.DiscountAmount
		}
	}

	if err := s.repo.Save(cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// totals computes the cart view's money breakdown through the shared
// calculator.
func (s *CartService) totals(cart *models.Cart) pricing.Totals {
	var applied *pricing.Applied
	if cart.HasCoupon() {
		applied = &pricing.Applied{
			CouponID:       cart.CouponID,
			CouponCode:     cart.CouponCode,
			DiscountAmount: cart.CouponDiscount,
		}
	}
	return pricing.Compute(cart.Items, applied)
}

func lineKey(productID, variantID string) string {
	item := models.CartItem{ProductID: productID, VariantID: variantID}
	return item.Key()
}

package services_test

import (
	"testing"

	"bakeshop/internal/models"
	"bakeshop/internal/repositories"
	"bakeshop/internal/services"

	"github.com/stretchr/testify/assert"
)

func newCartService(t *testing.T) (*services.CartService, *MockCouponRepository, *MockOrderRepository) {
	t.Helper()
	couponRepo := new(MockCouponRepository)
	orderRepo := new(MockOrderRepository)
	coupons := services.NewCouponService(couponRepo, orderRepo)
	return services.NewCartService(repositories.NewMockCartRepository(), coupons), couponRepo, orderRepo
}

func TestCartService_AddItem_MergesSameLine(t *testing.T) {
	service, _, _ := newCartService(t)

	cart, err := service.AddItem("user-1", models.CartItem{ProductID: "p1", Name: "Brownie", Price: 120, Quantity: 2})
	assert.NoError(t, err)
	assert.Len(t, cart.Items, 1)

	cart, err = service.AddItem("user-1", models.CartItem{ProductID: "p1", Name: "Brownie", Price: 120, Quantity: 1})
	assert.NoError(t, err)
	assert.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)

	// Same product with a variant is a distinct line.
	cart, err = service.AddItem("user-1", models.CartItem{ProductID: "p1", VariantID: "1kg", Name: "Brownie", Price: 220, Quantity: 1})
	assert.NoError(t, err)
	assert.Len(t, cart.Items, 2)
	assert.Equal(t, 4, cart.Count())
}

func TestCartService_UpdateQuantity(t *testing.T) {
	service, _, _ := newCartService(t)

	_, err := service.AddItem("user-1", models.CartItem{ProductID: "p1", Price: 120, Quantity: 2})
	assert.NoError(t, err)

	cart, err := service.UpdateQuantity("user-1", "p1", "", 5)
	assert.NoError(t, err)
	assert.Equal(t, 5, cart.Items[0].Quantity)

	// Zero quantity removes the line rather than keeping a zero row.
	cart, err = service.UpdateQuantity("user-1", "p1", "", 0)
	assert.NoError(t, err)
	assert.Empty(t, cart.Items)

	_, err = service.UpdateQuantity("user-1", "missing", "", 3)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestCartService_RemoveItem_AbsentIsNoOp(t *testing.T) {
	service, _, _ := newCartService(t)

	_, err := service.AddItem("user-1", models.CartItem{ProductID: "p1", Price: 120, Quantity: 1})
	assert.NoError(t, err)

	cart, err := service.RemoveItem("user-1", "never-added", "")
	assert.NoError(t, err)
	assert.Len(t, cart.Items, 1)

	cart, err = service.RemoveItem("user-1", "p1", "")
	assert.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCartService_Clear(t *testing.T) {
	service, _, _ := newCartService(t)

	_, err := service.AddItem("user-1", models.CartItem{ProductID: "p1", Price: 120, Quantity: 1})
	assert.NoError(t, err)
	assert.NoError(t, service.Clear("user-1"))

	cart, _, err := service.Get("user-1")
	assert.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCartService_ApplyCoupon_AttachesSnapshot(t *testing.T) {
	service, couponRepo, orderRepo := newCartService(t)

	_, err := service.AddItem("user-1", models.CartItem{ProductID: "p1", Price: 300, Quantity: 2})
	assert.NoError(t, err)

	couponRepo.On("GetByCode", "WELCOME20").Return(activeCoupon(), nil)
	orderRepo.On("CountByUserAndCoupon", "user-1", "c-1").Return(int64(0), nil)

	result, err := service.ApplyCoupon("user-1", "WELCOME20")
	assert.NoError(t, err)
	assert.True(t, result.Valid)

	cart, totals, err := service.Get("user-1")
	assert.NoError(t, err)
	assert.Equal(t, "WELCOME20", cart.CouponCode)
	assert.Equal(t, 120.00, cart.CouponDiscount) // 20% of 600
	assert.Equal(t, 600.00, totals.Subtotal)
	assert.Equal(t, 100.00, totals.Shipping)
	assert.Equal(t, 580.00, totals.Total)
}

func TestCartService_MutationRevalidatesCoupon(t *testing.T) {
	service, couponRepo, orderRepo := newCartService(t)

	_, err := service.AddItem("user-1", models.CartItem{ProductID: "p1", Price: 300, Quantity: 2})
	assert.NoError(t, err)

	couponRepo.On("GetByCode", "WELCOME20").Return(activeCoupon(), nil)
	orderRepo.On("CountByUserAndCoupon", "user-1", "c-1").Return(int64(0), nil)

	_, err = service.ApplyCoupon("user-1", "WELCOME20")
	assert.NoError(t, err)

	// Dropping the quantity takes the subtotal to 300, under the coupon's
	// 500 minimum. The mutation itself must shed the stale discount.
	cart, err := service.UpdateQuantity("user-1", "p1", "", 1)
	assert.NoError(t, err)
	assert.False(t, cart.HasCoupon())
	assert.Contains(t, cart.CouponError, "Minimum order amount")

	_, totals, err := service.Get("user-1")
	assert.NoError(t, err)
	assert.Equal(t, 0.00, totals.Discount)
	assert.Equal(t, 400.00, totals.Total) // 300 + 100 shipping
}

func TestCartService_MutationRefreshesDiscountAmount(t *testing.T) {
	service, couponRepo, orderRepo := newCartService(t)

	_, err := service.AddItem("user-1", models.CartItem{ProductID: "p1", Price: 300, Quantity: 2})
	assert.NoError(t, err)

	couponRepo.On("GetByCode", "WELCOME20").Return(activeCoupon(), nil)
	orderRepo.On("CountByUserAndCoupon", "user-1", "c-1").Return(int64(0), nil)

	_, err = service.ApplyCoupon("user-1", "WELCOME20")
	assert.NoError(t, err)

	// Growing the cart keeps the coupon but recomputes its amount
	// against the new subtotal (capped at the coupon's 200 maximum).
	cart, err := service.AddItem("user-1", models.CartItem{ProductID: "p2", Price: 899, Quantity: 1})
	assert.NoError(t, err)
	assert.True(t, cart.HasCoupon())
	assert.Equal(t, 200.00, cart.CouponDiscount) // 20% of 1499, capped

	_, totals, err := service.Get("user-1")
	assert.NoError(t, err)
	assert.Equal(t, 1499.00, totals.Subtotal)
	assert.Equal(t, 0.00, totals.Shipping)
	assert.Equal(t, 1299.00, totals.Total)
}

func TestCartService_RemoveCoupon(t *testing.T) {
	service, couponRepo, orderRepo := newCartService(t)

	_, err := service.AddItem("user-1", models.CartItem{ProductID: "p1", Price: 300, Quantity: 2})
	assert.NoError(t, err)

	couponRepo.On("GetByCode", "WELCOME20").Return(activeCoupon(), nil)
	orderRepo.On("CountByUserAndCoupon", "user-1", "c-1").Return(int64(0), nil)

	_, err = service.ApplyCoupon("user-1", "WELCOME20")
	assert.NoError(t, err)
	assert.NoError(t, service.RemoveCoupon("user-1"))

	cart, totals, err := service.Get("user-1")
	assert.NoError(t, err)
	assert.False(t, cart.HasCoupon())
	assert.Equal(t, 0.00, totals.Discount)

	// Removing when nothing is applied is a no-op.
	assert.NoError(t, service.RemoveCoupon("user-1"))
}

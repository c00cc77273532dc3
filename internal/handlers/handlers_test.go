package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bakeshop/internal/checkout"
	"bakeshop/internal/handlers"
	"bakeshop/internal/models"
	"bakeshop/internal/repositories"
	"bakeshop/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

type testApp struct {
	app        *fiber.App
	cartRepo   *repositories.MockCartRepository
	couponRepo *repositories.MockCouponRepository
	orderRepo  *repositories.MockOrderRepository
}

// newTestApp wires the full HTTP surface over in-memory repositories, with
// the checkout gateway submitting to the in-process order service.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	cartRepo := repositories.NewMockCartRepository()
	couponRepo := repositories.NewMockCouponRepository()
	orderRepo := repositories.NewMockOrderRepository()
	productRepo := repositories.NewMockProductRepository()

	assert.NoError(t, productRepo.Create(&models.Product{ID: "p1", Name: "Chocolate Truffle", Price: 599, Stock: 10, Category: "cakes"}))
	assert.NoError(t, productRepo.Create(&models.Product{ID: "p2", Name: "Red Velvet", Price: 899, Stock: 10, Category: "cakes"}))
	assert.NoError(t, couponRepo.Create(&models.Coupon{
		ID:              "c-1",
		Code:            "CAKE15",
		DiscountType:    models.DiscountPercentage,
		DiscountValue:   15,
		MinimumAmount:   700,
		MaximumDiscount: 300,
		ValidUntil:      time.Now().Add(24 * time.Hour),
		Active:          true,
	}))

	couponService := services.NewCouponService(couponRepo, orderRepo)
	cartService := services.NewCartService(cartRepo, couponService)
	productService := services.NewProductService(productRepo)
	orderService := services.NewOrderService(orderRepo, productRepo, couponRepo, nil)
	orchestrator := checkout.NewOrchestrator(cartService, couponService, checkout.NewMemoryBuyNowStore(), checkout.NewLocalGateway(orderService))

	app := fiber.New()
	api := app.Group("/api/v1")
	handlers.NewProductHandler(productService).RegisterRoutes(api)
	handlers.NewCartHandler(cartService).RegisterRoutes(api)
	handlers.NewCouponHandler(couponService).RegisterRoutes(api)
	handlers.NewOrderHandler(orderService).RegisterRoutes(api)
	handlers.NewCheckoutHandler(orchestrator).RegisterRoutes(api)

	return &testApp{app: app, cartRepo: cartRepo, couponRepo: couponRepo, orderRepo: orderRepo}
}

func (ta *testApp) request(t *testing.T, method, path string, body interface{}, headers map[string]string) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := ta.app.Test(req, -1)
	assert.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	var decoded map[string]interface{}
	if len(raw) > 0 && json.Valid(raw) {
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp, decoded
}

func oauthHeaders() map[string]string {
	return map[string]string{
		"X-OAuth-Id":    "user-1",
		"X-OAuth-Email": "asha@example.com",
		"X-OAuth-Name":  "Asha Rao",
	}
}

func guestHeaders() map[string]string {
	return map[string]string{"X-Guest-Id": "g-42"}
}

func TestCartEndpoints_GuestFlow(t *testing.T) {
	ta := newTestApp(t)

	// No owner at all is rejected.
	resp, _ := ta.request(t, http.MethodGet, "/api/v1/cart/", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := ta.request(t, http.MethodPost, "/api/v1/cart/items",
		models.CartItem{ProductID: "p1", Name: "Chocolate Truffle", Price: 599, Quantity: 2}, guestHeaders())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["count"])

	// Adding the same line again merges instead of duplicating.
	resp, body = ta.request(t, http.MethodPost, "/api/v1/cart/items",
		models.CartItem{ProductID: "p1", Name: "Chocolate Truffle", Price: 599, Quantity: 1}, guestHeaders())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(3), body["count"])
	cart := body["cart"].(map[string]interface{})
	assert.Len(t, cart["items"], 1)

	totals := body["totals"].(map[string]interface{})
	assert.Equal(t, 1797.00, totals["subtotal"])
	assert.Equal(t, 0.00, totals["shipping"])

	resp, body = ta.request(t, http.MethodDelete, "/api/v1/cart/items?product_id=p1", nil, guestHeaders())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), body["count"])
}

func TestCartEndpoints_CouponAttachAndDrop(t *testing.T) {
	ta := newTestApp(t)

	ta.request(t, http.MethodPost, "/api/v1/cart/items",
		models.CartItem{ProductID: "p1", Name: "Chocolate Truffle", Price: 599, Quantity: 1}, guestHeaders())
	ta.request(t, http.MethodPost, "/api/v1/cart/items",
		models.CartItem{ProductID: "p2", Name: "Red Velvet", Price: 899, Quantity: 1}, guestHeaders())

	resp, body := ta.request(t, http.MethodPost, "/api/v1/cart/coupon",
		handlers.ApplyCouponRequest{Code: "CAKE15"}, guestHeaders())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["valid"])
	assert.Equal(t, 224.70, body["discountAmount"])

	// Removing an item drops the subtotal below the coupon minimum; the
	// response already reflects the shed discount.
	resp, body = ta.request(t, http.MethodDelete, "/api/v1/cart/items?product_id=p2", nil, guestHeaders())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	totals := body["totals"].(map[string]interface{})
	assert.Equal(t, 0.00, totals["discount"])
	cart := body["cart"].(map[string]interface{})
	assert.Contains(t, cart["coupon_error"], "Minimum order amount")
}

func TestCouponValidateEndpoint(t *testing.T) {
	ta := newTestApp(t)

	resp, body := ta.request(t, http.MethodPost, "/api/v1/coupons/validate",
		handlers.ValidateCouponRequest{CouponCode: "CAKE15", CustomerID: "user-1", OrderAmount: 1498}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["valid"])
	assert.Equal(t, 224.70, body["discountAmount"])

	// Rule rejections stay 200 with the reason in the body.
	resp, body = ta.request(t, http.MethodPost, "/api/v1/coupons/validate",
		handlers.ValidateCouponRequest{CouponCode: "CAKE15", CustomerID: "user-1", OrderAmount: 400}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["valid"])
	assert.Contains(t, body["error"], "Minimum order amount")

	resp, body = ta.request(t, http.MethodPost, "/api/v1/coupons/validate",
		handlers.ValidateCouponRequest{CouponCode: "NOPE", CustomerID: "user-1", OrderAmount: 1498}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["valid"])
}

func TestCheckoutEndpoints_RequireIdentity(t *testing.T) {
	ta := newTestApp(t)

	resp, _ := ta.request(t, http.MethodPost, "/api/v1/checkout/sessions", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = ta.request(t, http.MethodPost, "/api/v1/checkout/buy-now",
		models.CartItem{ProductID: "p1", Name: "Chocolate Truffle", Price: 599, Quantity: 1}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCheckoutEndpoints_FullCartFlow(t *testing.T) {
	ta := newTestApp(t)

	ta.request(t, http.MethodPost, "/api/v1/cart/items",
		models.CartItem{ProductID: "p1", Name: "Chocolate Truffle", Price: 599, Quantity: 1}, oauthHeaders())
	ta.request(t, http.MethodPost, "/api/v1/cart/items",
		models.CartItem{ProductID: "p2", Name: "Red Velvet", Price: 899, Quantity: 1}, oauthHeaders())

	resp, body := ta.request(t, http.MethodPost, "/api/v1/checkout/sessions", nil, oauthHeaders())
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, checkout.StateCollectingShipping, body["state"])
	sessionID := body["id"].(string)
	form := body["form"].(map[string]interface{})
	assert.Equal(t, "Asha", form["first_name"])
	assert.Equal(t, "Odisha", form["state"])

	// An unserviceable pincode is a 422 and the session stays on shipping.
	resp, _ = ta.request(t, http.MethodPut, "/api/v1/checkout/sessions/"+sessionID+"/shipping",
		checkout.ShippingForm{FirstName: "Asha", LastName: "Rao", Email: "asha@example.com", Phone: "9876543210", Address: "12 Temple Road", PostalCode: "110001"}, oauthHeaders())
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, body = ta.request(t, http.MethodGet, "/api/v1/checkout/sessions/"+sessionID, nil, oauthHeaders())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, checkout.StateCollectingShipping, body["state"])
	assert.NotEmpty(t, body["postal_code_error"])

	resp, body = ta.request(t, http.MethodPut, "/api/v1/checkout/sessions/"+sessionID+"/shipping",
		checkout.ShippingForm{FirstName: "Asha", LastName: "Rao", Email: "asha@example.com", Phone: "9876543210", Address: "12 Temple Road", PostalCode: "751003"}, oauthHeaders())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, checkout.StateCollectingPayment, body["state"])
	form = body["form"].(map[string]interface{})
	assert.Equal(t, "Bhubaneswar", form["city"])

	resp, _ = ta.request(t, http.MethodPut, "/api/v1/checkout/sessions/"+sessionID+"/payment",
		handlers.SelectPaymentRequest{PaymentMethod: "cod"}, oauthHeaders())
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = ta.request(t, http.MethodPost, "/api/v1/checkout/sessions/"+sessionID+"/coupon",
		handlers.ApplyCouponRequest{Code: "CAKE15"}, oauthHeaders())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["valid"])

	resp, body = ta.request(t, http.MethodPost, "/api/v1/checkout/sessions/"+sessionID+"/submit", nil, oauthHeaders())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	orderNumber := body["order_number"].(string)
	assert.NotEmpty(t, orderNumber)
	assert.Equal(t, "/order-confirmation/"+orderNumber, body["redirect"])

	// The confirmation view can load the order by its number.
	resp, body = ta.request(t, http.MethodGet, "/api/v1/orders/number/"+orderNumber, nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1273.30, body["totalAmount"])
	assert.Equal(t, "CAKE15", body["couponCode"])

	// The cart-flow order emptied the cart.
	resp, body = ta.request(t, http.MethodGet, "/api/v1/cart/", nil, oauthHeaders())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), body["count"])

	// A second submit on the finished session is not replayable.
	resp, _ = ta.request(t, http.MethodPost, "/api/v1/checkout/sessions/"+sessionID+"/submit", nil, oauthHeaders())
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestCheckoutEndpoints_BuyNow(t *testing.T) {
	ta := newTestApp(t)

	ta.request(t, http.MethodPost, "/api/v1/cart/items",
		models.CartItem{ProductID: "p2", Name: "Red Velvet", Price: 899, Quantity: 1}, oauthHeaders())

	resp, _ := ta.request(t, http.MethodPost, "/api/v1/checkout/buy-now",
		models.CartItem{ProductID: "p1", Name: "Chocolate Truffle", Price: 599, Quantity: 1}, oauthHeaders())
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body := ta.request(t, http.MethodPost, "/api/v1/checkout/sessions", nil, oauthHeaders())
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, checkout.FlowBuyNow, body["flow"])
	assert.Len(t, body["items"], 1)

	// The staged item was consumed; the next session sees the cart again.
	resp, body = ta.request(t, http.MethodPost, "/api/v1/checkout/sessions", nil, oauthHeaders())
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, checkout.FlowCart, body["flow"])
}

func TestOrderEndpoints_CreateAndFetch(t *testing.T) {
	ta := newTestApp(t)

	draft := models.OrderDraft{
		UserID: "user-1",
		Items: []models.OrderItem{
			{ProductID: "p1", Quantity: 1, UnitPrice: 599},
		},
		ShippingAddress: models.ShippingAddress{
			Street: "12 Temple Road", City: "Bhubaneswar", State: "Odisha",
			Pincode: "751003", Country: "India",
			FirstName: "Asha", LastName: "Rao", Phone: "9876543210", Email: "asha@example.com",
		},
		PaymentMethod: "cod",
		Subtotal:      599,
		Shipping:      100,
		TotalAmount:   699,
	}

	resp, body := ta.request(t, http.MethodPost, "/api/v1/orders/", draft, nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	orderID := body["id"].(string)
	assert.Equal(t, models.OrderStatusPending, body["status"])
	assert.Equal(t, 699.00, body["totalAmount"])

	// A draft whose total disagrees with the recomputation is rejected.
	bad := draft
	bad.TotalAmount = 599
	resp, body = ta.request(t, http.MethodPost, "/api/v1/orders/", bad, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "total mismatch")

	resp, body = ta.request(t, http.MethodGet, "/api/v1/orders/"+orderID, nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, orderID, body["id"])

	// An identified caller sees only their own history.
	resp, _ = ta.request(t, http.MethodGet, "/api/v1/orders/", nil, oauthHeaders())
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = ta.request(t, http.MethodPatch, "/api/v1/orders/"+orderID+"/status",
		fiber.Map{"status": models.OrderStatusShipped}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = ta.request(t, http.MethodGet, "/api/v1/orders/"+orderID, nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.OrderStatusShipped, body["status"])
}

func TestProductEndpoints(t *testing.T) {
	ta := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/", nil)
	resp, err := ta.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var products []models.Product
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&products))
	assert.Len(t, products, 2)

	resp, body := ta.request(t, http.MethodGet, "/api/v1/products/p1", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Chocolate Truffle", body["name"])

	resp, _ = ta.request(t, http.MethodGet, "/api/v1/products/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

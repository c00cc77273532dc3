package handlers

import (
	"log"

	"bakeshop/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CouponHandler handles HTTP requests for coupon validation and listing.
type CouponHandler struct {
	service  *services.CouponService
	validate *validator.Validate
}

// NewCouponHandler creates a new CouponHandler.
func NewCouponHandler(service *services.CouponService) *CouponHandler {
	return &CouponHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the coupon routes with the Fiber app.
func (h *CouponHandler) RegisterRoutes(router fiber.Router) {
	couponRoutes := router.Group("/coupons")
	couponRoutes.Post("/validate", h.HandleValidate)
	couponRoutes.Get("/customer/:customerId", h.HandleCouponsForCustomer)
}

// ValidateCouponRequest is the validation request body. Field names are part
// of the storefront wire contract.
type ValidateCouponRequest struct {
	CouponCode  string  `json:"couponCode" validate:"required"`
	CustomerID  string  `json:"customerId"`
	OrderAmount float64 `json:"orderAmount" validate:"gte=0"`
}

// HandleValidate runs the full coupon rule set against a candidate order
// amount. Rule rejections come back as 200 with valid=false; only transport
// and storage failures are HTTP errors.
func (h *CouponHandler) HandleValidate(c *fiber.Ctx) error {
	var req ValidateCouponRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing coupon validation body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}

	result, err := h.service.Validate(req.CouponCode, req.CustomerID, req.OrderAmount)
	if err != nil {
		log.Printf("Error validating coupon %s: %v", req.CouponCode, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not validate coupon",
			"error":   err.Error(),
		})
	}
	return c.JSON(result)
}

// HandleCouponsForCustomer lists the coupons a customer can still use.
func (h *CouponHandler) HandleCouponsForCustomer(c *fiber.Ctx) error {
	customerID := c.Params("customerId")
	coupons, err := h.service.CouponsForCustomer(customerID)
	if err != nil {
		log.Printf("Error listing coupons for customer %s: %v", customerID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve coupons",
			"error":   err.Error(),
		})
	}
	return c.JSON(coupons)
}

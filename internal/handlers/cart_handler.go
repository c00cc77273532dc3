package handlers

import (
	"log"

	"bakeshop/internal/middleware"
	"bakeshop/internal/models"
	"bakeshop/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CartHandler handles HTTP requests for the shopping cart.
type CartHandler struct {
	service  *services.CartService
	validate *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the cart routes with the Fiber app.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Post("/items", h.HandleAddItem)
	cartRoutes.Put("/items", h.HandleUpdateQuantity)
	cartRoutes.Delete("/items", h.HandleRemoveItem)
	cartRoutes.Delete("/", h.HandleClearCart)
	cartRoutes.Post("/coupon", h.HandleApplyCoupon)
	cartRoutes.Delete("/coupon", h.HandleRemoveCoupon)
}

func cartOwner(c *fiber.Ctx) (string, error) {
	owner, ok := middleware.CartOwner(c)
	if !ok {
		return "", c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Sign in or supply an X-Guest-Id header to use the cart",
		})
	}
	return owner, nil
}

// cartResponse renders the cart together with its badge count and totals, so
// every mutation response carries the freshly recomputed breakdown.
func (h *CartHandler) cartResponse(c *fiber.Ctx, ownerID string) error {
	cart, totals, err := h.service.Get(ownerID)
	if err != nil {
		log.Printf("Error loading cart for %s: %v", ownerID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not load cart",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"cart":   cart,
		"count":  cart.Count(),
		"totals": totals,
	})
}

// HandleGetCart returns the cart with its totals.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	owner, err := cartOwner(c)
	if err != nil {
		return err
	}
	return h.cartResponse(c, owner)
}

// HandleAddItem adds an item to the cart, merging duplicate lines.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	owner, err := cartOwner(c)
	if err != nil {
		return err
	}

	var item models.CartItem
	if err := c.BodyParser(&item); err != nil {
		log.Printf("Error parsing add-item request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(item); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}

	if _, err := h.service.AddItem(owner, item); err != nil {
		log.Printf("Error adding item to cart %s: %v", owner, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not add item to cart",
			"error":   err.Error(),
		})
	}
	return h.cartResponse(c, owner)
}

// UpdateQuantityRequest is the body for quantity changes. A quantity of zero
// removes the line.
type UpdateQuantityRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity" validate:"gte=0"`
}

// HandleUpdateQuantity replaces the quantity of a cart line.
func (h *CartHandler) HandleUpdateQuantity(c *fiber.Ctx) error {
	owner, err := cartOwner(c)
	if err != nil {
		return err
	}

	var req UpdateQuantityRequest
	if err := c.BodyParser(&req); err != nil {
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

	if _, err := h.service.UpdateQuantity(owner, req.ProductID, req.VariantID, req.Quantity); err != nil {
		log.Printf("Error updating quantity in cart %s: %v", owner, err)
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Could not update quantity",
			"error":   err.Error(),
		})
	}
	return h.cartResponse(c, owner)
}

// HandleRemoveItem removes a line; removing an absent line is a no-op.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	owner, err := cartOwner(c)
	if err != nil {
		return err
	}

	productID := c.Query("product_id")
	if productID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "product_id query parameter is required",
		})
	}

	if _, err := h.service.RemoveItem(owner, productID, c.Query("variant_id")); err != nil {
		log.Printf("Error removing item from cart %s: %v", owner, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not remove item",
			"error":   err.Error(),
		})
	}
	return h.cartResponse(c, owner)
}

// HandleClearCart empties the cart.
func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	owner, err := cartOwner(c)
	if err != nil {
		return err
	}

	if err := h.service.Clear(owner); err != nil {
		log.Printf("Error clearing cart %s: %v", owner, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not clear cart",
			"error":   err.Error(),
		})
	}
	return h.cartResponse(c, owner)
}

// ApplyCouponRequest is the body for attaching a coupon to the cart.
type ApplyCouponRequest struct {
	Code string `json:"code" validate:"required"`
}

// HandleApplyCoupon validates a coupon against the cart's subtotal and
// attaches it on success. A rejection is not an HTTP error: the result body
// carries the reason and the flow continues without a discount.
func (h *CartHandler) HandleApplyCoupon(c *fiber.Ctx) error {
	owner, err := cartOwner(c)
	if err != nil {
		return err
	}

	var req ApplyCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	result, err := h.service.ApplyCoupon(owner, req.Code)
	if err != nil {
		log.Printf("Error applying coupon to cart %s: %v", owner, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not validate coupon",
			"error":   err.Error(),
		})
	}
	return c.JSON(result)
}

// HandleRemoveCoupon detaches the applied coupon.
func (h *CartHandler) HandleRemoveCoupon(c *fiber.Ctx) error {
	owner, err := cartOwner(c)
	if err != nil {
		return err
	}

	if err := h.service.RemoveCoupon(owner); err != nil {
		log.Printf("Error removing coupon from cart %s: %v", owner, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not remove coupon",
			"error":   err.Error(),
		})
	}
	return h.cartResponse(c, owner)
}

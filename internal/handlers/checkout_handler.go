package handlers

import (
	"errors"
	"log"

	"bakeshop/internal/checkout"
	"bakeshop/internal/middleware"
	"bakeshop/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CheckoutHandler exposes the checkout state machine over HTTP.
type CheckoutHandler struct {
	orchestrator *checkout.Orchestrator
	validate     *validator.Validate
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(orchestrator *checkout.Orchestrator) *CheckoutHandler {
	return &CheckoutHandler{
		orchestrator: orchestrator,
		validate:     validator.New(),
	}
}

// RegisterRoutes registers the checkout routes with the Fiber app. All of
// them require an identity; the middleware guarding the group enforces that.
func (h *CheckoutHandler) RegisterRoutes(router fiber.Router) {
	checkoutRoutes := router.Group("/checkout")
	checkoutRoutes.Post("/buy-now", h.HandleStageBuyNow)
	checkoutRoutes.Post("/sessions", h.HandleBegin)
	checkoutRoutes.Get("/sessions/:id", h.HandleGetSession)
	checkoutRoutes.Put("/sessions/:id/shipping", h.HandleSubmitShipping)
	checkoutRoutes.Post("/sessions/:id/back", h.HandleBackToShipping)
	checkoutRoutes.Put("/sessions/:id/payment", h.HandleSelectPayment)
	checkoutRoutes.Post("/sessions/:id/coupon", h.HandleApplyCoupon)
	checkoutRoutes.Delete("/sessions/:id/coupon", h.HandleRemoveCoupon)
	checkoutRoutes.Post("/sessions/:id/submit", h.HandleSubmit)
}

func checkoutIdentity(c *fiber.Ctx) (models.Identity, error) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return models.Identity{}, c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Sign in to check out",
		})
	}
	return identity, nil
}

// sessionView renders the current session snapshot.
func (h *CheckoutHandler) sessionView(c *fiber.Ctx, sessionID string) error {
	view, err := h.orchestrator.Get(sessionID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Checkout session not found",
		})
	}
	return c.JSON(view)
}

// HandleStageBuyNow stages a single item for direct purchase, bypassing the
// cart. The item is consumed by the next session begin, exactly once.
func (h *CheckoutHandler) HandleStageBuyNow(c *fiber.Ctx) error {
	identity, err := checkoutIdentity(c)
	if err != nil {
		return err
	}

	var item models.CartItem
	if err := c.BodyParser(&item); err != nil {
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

	if err := h.orchestrator.StageBuyNow(c.Context(), identity, item); err != nil {
		log.Printf("Error staging buy-now item for %s: %v", identity.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not stage item for direct purchase",
			"error":   err.Error(),
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleBegin opens a checkout session.
func (h *CheckoutHandler) HandleBegin(c *fiber.Ctx) error {
	identity, err := checkoutIdentity(c)
	if err != nil {
		return err
	}

	session, err := h.orchestrator.Begin(c.Context(), identity)
	if err != nil {
		if errors.Is(err, checkout.ErrNoItems) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Your cart is empty",
			})
		}
		log.Printf("Error beginning checkout for %s: %v", identity.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not start checkout",
			"error":   err.Error(),
		})
	}
	c.Status(fiber.StatusCreated)
	return h.sessionView(c, session.ID)
}

// HandleGetSession returns the session snapshot with totals.
func (h *CheckoutHandler) HandleGetSession(c *fiber.Ctx) error {
	return h.sessionView(c, c.Params("id"))
}

// HandleSubmitShipping validates step 1. A region-gate rejection keeps the
// session on the shipping step and surfaces the inline message.
func (h *CheckoutHandler) HandleSubmitShipping(c *fiber.Ctx) error {
	var form checkout.ShippingForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	sessionID := c.Params("id")
	if _, err := h.orchestrator.SubmitShipping(sessionID, form); err != nil {
		if errors.Is(err, checkout.ErrSessionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Checkout session not found",
			})
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": err.Error(),
		})
	}
	return h.sessionView(c, sessionID)
}

// HandleBackToShipping returns the session to the address step.
func (h *CheckoutHandler) HandleBackToShipping(c *fiber.Ctx) error {
	sessionID := c.Params("id")
	if _, err := h.orchestrator.BackToShipping(sessionID); err != nil {
		if errors.Is(err, checkout.ErrSessionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Checkout session not found",
			})
		}
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": err.Error(),
		})
	}
	return h.sessionView(c, sessionID)
}

// SelectPaymentRequest is the body for the payment-method choice.
type SelectPaymentRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required"`
}

// HandleSelectPayment records the payment method string.
func (h *CheckoutHandler) HandleSelectPayment(c *fiber.Ctx) error {
	var req SelectPaymentRequest
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

	sessionID := c.Params("id")
	if _, err := h.orchestrator.SelectPayment(sessionID, req.PaymentMethod); err != nil {
		if errors.Is(err, checkout.ErrSessionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Checkout session not found",
			})
		}
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": err.Error(),
		})
	}
	return h.sessionView(c, sessionID)
}

// HandleApplyCoupon validates and attaches a coupon to the session.
func (h *CheckoutHandler) HandleApplyCoupon(c *fiber.Ctx) error {
	var req ApplyCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	result, err := h.orchestrator.ApplyCoupon(c.Params("id"), req.Code)
	if err != nil {
		if errors.Is(err, checkout.ErrSessionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Checkout session not found",
			})
		}
		log.Printf("Error applying coupon to session %s: %v", c.Params("id"), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not validate coupon",
			"error":   err.Error(),
		})
	}
	return c.JSON(result)
}

// HandleRemoveCoupon detaches the session's coupon.
func (h *CheckoutHandler) HandleRemoveCoupon(c *fiber.Ctx) error {
	sessionID := c.Params("id")
	if err := h.orchestrator.RemoveCoupon(sessionID); err != nil {
		if errors.Is(err, checkout.ErrSessionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Checkout session not found",
			})
		}
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": err.Error(),
		})
	}
	return h.sessionView(c, sessionID)
}

// HandleSubmit performs the terminal transition. A concurrent duplicate is a
// 409 no-op; a gateway failure leaves the session on the payment step with
// the failure message, so the customer can retry without re-entering data.
func (h *CheckoutHandler) HandleSubmit(c *fiber.Ctx) error {
	sessionID := c.Params("id")
	orderNumber, err := h.orchestrator.Submit(c.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrSessionNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Checkout session not found",
			})
		case errors.Is(err, checkout.ErrSubmissionInFlight):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": err.Error(),
			})
		case errors.Is(err, checkout.ErrIncompleteIdentity):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": err.Error(),
			})
		case errors.Is(err, checkout.ErrNoItems), errors.Is(err, checkout.ErrUnserviceablePincode):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"message": err.Error(),
			})
		default:
			log.Printf("Order submission failed for session %s: %v", sessionID, err)
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"message": "Order submission failed",
				"error":   err.Error(),
			})
		}
	}

	return c.JSON(fiber.Map{
		"order_number": orderNumber,
		"redirect":     "/order-confirmation/" + orderNumber,
	})
}

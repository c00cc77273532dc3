package middleware

import (
	"log"
	"strings"

	"bakeshop/internal/models"
	"bakeshop/internal/services"

	"github.com/gofiber/fiber/v2"
)

// IdentityKey is the fiber locals key holding the normalized identity.
const IdentityKey = "identity"

// AuthRequired is a Fiber middleware to check for a valid JWT token. The
// validated claims are collapsed into the normalized identity before any
// handler sees them.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		tokenString := parts[1]

		claims, err := authService.ValidateToken(tokenString)
		if err != nil {
			log.Printf("JWT validation failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
				"error":   err.Error(),
			})
		}

		identity := authService.ResolveIdentity(claims)
		if !identity.Complete() {
			// The token parsed but carries a blank id or email. Treat the
			// session as unusable rather than letting a malformed identity
			// reach an order draft.
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Your session looks invalid, please sign in again",
			})
		}

		// Store the identity in Fiber context for subsequent handlers.
		c.Locals(IdentityKey, identity)
		c.Locals("user_id", identity.ID)

		// Continue to the next handler
		return c.Next()
	}
}

// IdentityFrom extracts the identity for the current request. Priority:
// a JWT-authenticated identity, then an OAuth profile forwarded by a trusted
// gateway in headers. ok is false when neither source is present.
func IdentityFrom(c *fiber.Ctx) (models.Identity, bool) {
	if identity, ok := c.Locals(IdentityKey).(models.Identity); ok {
		return identity, true
	}
	if id := c.Get("X-OAuth-Id"); id != "" {
		identity := services.ResolveOAuthIdentity(id, c.Get("X-OAuth-Email"), c.Get("X-OAuth-Name"))
		return identity, true
	}
	return models.Identity{}, false
}

// CartOwner resolves who a cart request belongs to: the authenticated or
// OAuth identity when present, otherwise the guest bucket named by the
// X-Guest-Id header. ok is false when no owner can be determined.
func CartOwner(c *fiber.Ctx) (string, bool) {
	if identity, ok := IdentityFrom(c); ok {
		return identity.ID, true
	}
	if guest := c.Get("X-Guest-Id"); guest != "" {
		return "guest:" + guest, true
	}
	return "", false
}

// IdentityResolver resolves a bearer token into the normalized identity when
// one is present, and lets the request through either way. Handlers that
// need an identity enforce it themselves; this just makes a valid token
// visible to them.
func IdentityResolver(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Next()
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Next()
		}
		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			// An invalid token is treated as anonymous, not as an error;
			// protected routes still reject through AuthRequired.
			return c.Next()
		}
		identity := authService.ResolveIdentity(claims)
		if identity.Complete() {
			c.Locals(IdentityKey, identity)
			c.Locals("user_id", identity.ID)
		}
		return c.Next()
	}
}

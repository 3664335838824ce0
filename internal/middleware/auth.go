package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/naira-pay/naira_pay/internal/identity"
)

// AccountLocal is the fiber locals key holding the authenticated account id.
const AccountLocal = "account_id"

// BearerAccount authenticates requests carrying the account id issued at
// registration as a bearer token. The id is opaque to callers and validated
// against the user directory on every request.
func BearerAccount(users identity.Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		token := strings.TrimSpace(authz[len("Bearer "):])

		user, err := users.FindByID(c.UserContext(), token)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}

		c.Locals(AccountLocal, user.ID)
		return c.Next()
	}
}

package middleware

import (
	"strings"

	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

const (
	userLocal   = "user"
	userIDLocal = "user_id"
)

// Protect requires a valid bearer token and stores the authenticated user
// in the request locals. Failures go to the app's error handler.
func Protect(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := authService.Authenticate(c.UserContext(), bearerToken(c.Get(fiber.HeaderAuthorization)))
		if err != nil {
			return err
		}

		c.Locals(userLocal, user)
		c.Locals(userIDLocal, user.ID)
		return c.Next()
	}
}

// RequireRoles admits only users holding one of roles. It must run after Protect.
func RequireRoles(authService *services.AuthService, roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := authService.Authorize(CurrentUser(c), roles...); err != nil {
			return err
		}
		return c.Next()
	}
}

// CurrentUser returns the user stored by Protect, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userLocal).(*models.User)
	return user
}

// bearerToken extracts the token of an "Authorization: Bearer <token>" header.
func bearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

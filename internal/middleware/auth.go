package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/campuslink/campuslink-api/internal/service"
	"github.com/campuslink/campuslink-api/internal/utils"
)

const authContextKey = "authContext"

// Protected resolves the bearer token on every request and stores the
// resulting auth context in locals. Resolution happens per request, so a
// sign-out revokes access immediately.
func Protected(auth service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" || token == header {
			return utils.SendError(c, fiber.StatusUnauthorized, "missing bearer token")
		}

		authCtx, err := auth.Resolve(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, service.ErrUnauthorized) {
				return utils.SendError(c, fiber.StatusUnauthorized, "not authorized")
			}
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to resolve session")
		}

		c.Locals(authContextKey, authCtx)
		return c.Next()
	}
}

// AuthFromContext returns the auth context stored by Protected. Privilege
// checks live in the services, where the websocket path shares them; routes
// never gate on role here.
func AuthFromContext(c *fiber.Ctx) (service.AuthContext, bool) {
	authCtx, ok := c.Locals(authContextKey).(service.AuthContext)
	return authCtx, ok
}

package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/utils"
)

// RequireRole admits operators whose token role is one of roles. It must run after
// JWTProtected, which stores the role under "user_role".
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		if role = normalizeRole(role); role != "" {
			allowed[role] = true
		}
	}

	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("user_role").(string)
		if !allowed[normalizeRole(role)] {
			return utils.SendError(c, fiber.StatusForbidden, "operator role not permitted")
		}
		return c.Next()
	}
}

func normalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

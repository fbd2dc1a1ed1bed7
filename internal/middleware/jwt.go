package middleware

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/utils"
)

// JWTProtected validates operator bearer tokens and stores the subject and role in
// the request locals ("user_id", "user_role").
func JWTProtected(secret string) fiber.Handler {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name, jwt.SigningMethodHS384.Name, jwt.SigningMethodHS512.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30*time.Second),
	)

	return func(c *fiber.Ctx) error {
		authorization := c.Get(fiber.HeaderAuthorization)
		if authorization == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		const bearer = "bearer "
		if len(authorization) <= len(bearer) || !strings.EqualFold(authorization[:len(bearer)], bearer) {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		tokenString := strings.TrimSpace(authorization[len(bearer):])
		if tokenString == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		claims := jwt.MapClaims{}
		token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		userID := operatorIDFromClaims(claims)
		if userID == nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "token subject missing")
		}
		c.Locals("user_id", *userID)
		if role := operatorRoleFromClaims(claims); role != "" {
			c.Locals("user_role", role)
		}

		return c.Next()
	}
}

func operatorIDFromClaims(claims jwt.MapClaims) *uint {
	for _, key := range []string{"sub", "user_id", "id"} {
		value, ok := claims[key]
		if !ok {
			continue
		}
		if normalized, err := normalizeOperatorID(value); err == nil && normalized > 0 {
			return &normalized
		}
	}
	return nil
}

func normalizeOperatorID(value interface{}) (uint, error) {
	switch v := value.(type) {
	case float64:
		if v < 0 {
			return 0, fmt.Errorf("invalid subject")
		}
		return uint(v), nil
	case string:
		parsed, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, err
		}
		return uint(parsed), nil
	default:
		return 0, fmt.Errorf("unsupported subject type %T", value)
	}
}

func operatorRoleFromClaims(claims jwt.MapClaims) string {
	for _, key := range []string{"role", "roles"} {
		value, ok := claims[key]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case string:
			if role := strings.ToLower(strings.TrimSpace(v)); role != "" {
				return role
			}
		case []interface{}:
			for _, item := range v {
				if str, ok := item.(string); ok {
					if role := strings.ToLower(strings.TrimSpace(str)); role != "" {
						return role
					}
				}
			}
		}
	}
	return ""
}

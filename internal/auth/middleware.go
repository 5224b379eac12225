package auth

import (
	"strings"

	"safeflame-backend/internal/apperr"
	"safeflame-backend/internal/config"
	"safeflame-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	CtxUserIDKey   = "user_id"
	CtxUserRoleKey = "user_role"

	CookieName = "token"
)

// tokenFrom reads the session cookie first, then a Bearer header.
func tokenFrom(c *fiber.Ctx) string {
	if t := c.Cookies(CookieName); t != "" {
		return t
	}
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func JWTMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := tokenFrom(c)
		if tokenStr == "" {
			return apperr.AuthRequired("Authentication required")
		}

		claims, err := ParseToken(cfg.JWTSecret, tokenStr)
		if err != nil {
			return apperr.AuthRequired("Invalid token")
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxUserRoleKey, claims.Role)
		return c.Next()
	}
}

// OptionalJWT attaches the identity when a valid session is present and
// lets the request through either way.
func OptionalJWT(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tokenStr := tokenFrom(c); tokenStr != "" {
			if claims, err := ParseToken(cfg.JWTSecret, tokenStr); err == nil {
				c.Locals(CtxUserIDKey, claims.UserID)
				c.Locals(CtxUserRoleKey, claims.Role)
			}
		}
		return c.Next()
	}
}

func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(CtxUserRoleKey).(models.UserRole)
		if !ok {
			return apperr.Forbidden("Admin access required")
		}
		for _, r := range allowedRoles {
			if r == role {
				return c.Next()
			}
		}
		return apperr.Forbidden("Admin access required")
	}
}

// UserID returns the authenticated account id set by JWTMiddleware.
func UserID(c *fiber.Ctx) (uint, error) {
	id, ok := OptionalUserID(c)
	if !ok {
		return 0, apperr.AuthRequired("Authentication required")
	}
	return id, nil
}

func OptionalUserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(CtxUserIDKey).(uint)
	return id, ok && id != 0
}

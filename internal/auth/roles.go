package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/chat-service/pkg/util/errorutil"
)

// RequireStaff ensures a staff account is authenticated.
func RequireStaff() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || !principal.IsStaff() {
			return apperrors.NewForbidden("staff account required")
		}
		return c.Next()
	}
}

// RequireAuthenticated ensures any account is authenticated.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

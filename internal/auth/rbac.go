package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/registration-portal/internal/domain"
	apperrors "github.com/spec-kit/registration-portal/pkg/util/errorutil"
)

// Authorize is the pure role-gate decision: Unauthorized when there is no
// principal, Forbidden when the principal's role is outside the allowed
// set. An empty allowed set admits any authenticated role.
func Authorize(principal *Principal, allowed ...domain.Role) error {
	if principal == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if len(allowed) == 0 {
		return nil
	}
	for _, role := range allowed {
		if principal.Role == role {
			return nil
		}
	}
	return apperrors.NewForbidden("insufficient role")
}

// RequireRole guards a route with an allowed-role set.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, _ := PrincipalFromContext(c)
		if err := Authorize(principal, allowed...); err != nil {
			return err
		}
		return c.Next()
	}
}

// RequireAuthenticated admits any valid principal regardless of role.
func RequireAuthenticated() fiber.Handler {
	return RequireRole()
}

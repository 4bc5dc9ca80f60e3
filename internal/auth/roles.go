package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// RequireAuthority ensures the principal carries one of the allowed
// authority values.
func RequireAuthority(allowed ...string) fiber.Handler {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, authority := range allowed {
		allowedSet[authority] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Authority]; !exists {
			return fiber.NewError(http.StatusForbidden, "insufficient authority")
		}
		return c.Next()
	}
}

// RequireVerified ensures the principal's account has completed identity
// verification.
func RequireVerified() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if !principal.Verified {
			return fiber.NewError(http.StatusForbidden, "verification required")
		}
		return c.Next()
	}
}

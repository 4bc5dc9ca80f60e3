package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/token-authority/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller as carried by its token.
type Principal struct {
	Username  string
	Authority string
	Verified  bool
	Deleted   bool
	Token     string
}

// Middleware validates bearer tokens through the full pipeline: signature,
// expiry, blacklist, and current-token match.
type Middleware struct {
	authority *Authority
}

// NewMiddleware constructs middleware around the token authority.
func NewMiddleware(authority *Authority) *Middleware {
	return &Middleware{authority: authority}
}

// Handle enforces authentication for protected routes.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	token, err := BearerToken(c)
	if err != nil {
		return err
	}

	claims, err := m.authority.Extract(token)
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	ok, err := m.authority.ValidateAccess(c.UserContext(), token, claims.Username())
	if err != nil {
		if errors.Is(err, ErrRegistryUnavailable) {
			return apperrors.NewUnavailable("session registry unavailable")
		}
		return apperrors.MapError(err)
	}
	if !ok {
		return apperrors.NewUnauthorized("invalid token")
	}

	c.Locals(principalKey, &Principal{
		Username:  claims.Username(),
		Authority: claims.Authority,
		Verified:  claims.Verified,
		Deleted:   claims.Deleted,
		Token:     token,
	})
	return c.Next()
}

// BearerToken pulls the bearer token out of the Authorization header.
func BearerToken(c *fiber.Ctx) (string, error) {
	header := c.Get("Authorization")
	if header == "" {
		return "", apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", apperrors.NewUnauthorized("invalid authorization header")
	}
	return parts[1], nil
}

// PrincipalFromContext retrieves the authenticated caller.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

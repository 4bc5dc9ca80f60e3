package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/token-authority/internal/api/dto"
	"github.com/spec-kit/token-authority/internal/auth"
	"github.com/spec-kit/token-authority/internal/domain"
	"github.com/spec-kit/token-authority/internal/repository"
	"github.com/spec-kit/token-authority/internal/service"
	apperrors "github.com/spec-kit/token-authority/pkg/util"
)

// SessionsHandler exposes the token authority over HTTP. Credential
// verification happens upstream; these endpoints trust the identity they
// are handed.
type SessionsHandler struct {
	sessions *service.SessionService
}

// NewSessionsHandler constructs handler.
func NewSessionsHandler(sessions *service.SessionService) *SessionsHandler {
	return &SessionsHandler{sessions: sessions}
}

// Create handles POST /auth/sessions.
func (h *SessionsHandler) Create(c *fiber.Ctx) error {
	var req dto.SessionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Username == "" || req.Authority == "" {
		return fiber.NewError(http.StatusBadRequest, "username and authority required")
	}

	pair, err := h.sessions.IssueSession(c.UserContext(), domain.Identity{
		Username:  req.Username,
		Authority: req.Authority,
		Verified:  req.Verified,
		Deleted:   req.Deleted,
	})
	if err != nil {
		return mapSessionError(err)
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": dto.TokenPairResponse{
			AccessToken:      pair.AccessToken,
			RefreshToken:     pair.RefreshToken,
			AccessExpiresAt:  pair.AccessExpiresAt,
			RefreshExpiresAt: pair.RefreshExpiresAt,
		},
	})
}

// Refresh handles POST /auth/sessions/refresh.
func (h *SessionsHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.RefreshToken == "" {
		return fiber.NewError(http.StatusBadRequest, "refresh_token required")
	}

	accessToken, expiresAt, err := h.sessions.RefreshSession(c.UserContext(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefreshToken) {
			return apperrors.NewUnauthorized("invalid refresh token")
		}
		return mapSessionError(err)
	}

	return c.JSON(fiber.Map{
		"data": dto.AccessTokenResponse{
			AccessToken: accessToken,
			ExpiresAt:   expiresAt,
		},
	})
}

// Logout handles POST /auth/sessions/logout. The presented bearer token is
// blacklisted for its remaining lifetime.
func (h *SessionsHandler) Logout(c *fiber.Ctx) error {
	token, err := auth.BearerToken(c)
	if err != nil {
		return err
	}

	if err := h.sessions.Logout(c.UserContext(), token); err != nil {
		if errors.Is(err, auth.ErrRegistryUnavailable) {
			return apperrors.NewUnavailable("session registry unavailable")
		}
		return apperrors.NewUnauthorized("invalid token")
	}
	return c.SendStatus(http.StatusNoContent)
}

// Current handles GET /auth/sessions/current behind the bearer middleware.
func (h *SessionsHandler) Current(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized(http.StatusText(http.StatusUnauthorized))
	}

	hasRefresh := true
	if _, err := h.sessions.Authority().CurrentRefresh(c.UserContext(), principal.Username); err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return mapSessionError(err)
		}
		hasRefresh = false
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"username":    principal.Username,
			"authority":   principal.Authority,
			"verified":    principal.Verified,
			"deleted":     principal.Deleted,
			"has_refresh": hasRefresh,
		},
	})
}

// Inspect handles GET /auth/admin/sessions/:username. Reserved for verified
// operators holding the ADMIN authority.
func (h *SessionsHandler) Inspect(c *fiber.Ctx) error {
	username := c.Params("username")
	if username == "" {
		return fiber.NewError(http.StatusBadRequest, "username required")
	}

	hasAccess := true
	if _, err := h.sessions.Authority().CurrentAccess(c.UserContext(), username); err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return mapSessionError(err)
		}
		hasAccess = false
	}

	hasRefresh := true
	if _, err := h.sessions.Authority().CurrentRefresh(c.UserContext(), username); err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return mapSessionError(err)
		}
		hasRefresh = false
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"username":    username,
			"has_access":  hasAccess,
			"has_refresh": hasRefresh,
		},
	})
}

func mapSessionError(err error) error {
	if errors.Is(err, auth.ErrRegistryUnavailable) {
		return apperrors.NewUnavailable("session registry unavailable")
	}
	return apperrors.MapError(err)
}

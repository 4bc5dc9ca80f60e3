package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRequestLoggerAssignsRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestLogger(zap.NewNop(), nil))

	var seen string
	app.Get("/ping", func(c *fiber.Ctx) error {
		seen = RequestIDFromContext(c)
		return c.SendStatus(http.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, resp.Header.Get("X-Request-ID"))
}

func TestRequestLoggerKeepsCallerRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestLogger(zap.NewNop(), nil))
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "req-42")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "req-42", resp.Header.Get("X-Request-ID"))
}

func TestRequestIDFromContextWithoutLogger(t *testing.T) {
	app := fiber.New()
	app.Get("/ping", func(c *fiber.Ctx) error {
		assert.Empty(t, RequestIDFromContext(c))
		return c.SendStatus(http.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

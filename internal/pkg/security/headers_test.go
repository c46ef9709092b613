package security

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadersOnSuccessResponse(t *testing.T) {
	app := fiber.New()
	app.Use(Headers())
	app.Get("/ok", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "active"})
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/ok", nil), -1)
	require.NoError(t, err)

	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "1; mode=block", resp.Header.Get("X-XSS-Protection"))
	assert.Equal(t, "strict-origin-when-cross-origin", resp.Header.Get("Referrer-Policy"))
	assert.Contains(t, resp.Header.Get("Permissions-Policy"), "camera=()")
	assert.Equal(t, "no-store, max-age=0", resp.Header.Get("Cache-Control"))

	requestID := resp.Header.Get(HeaderRequestID)
	_, err = uuid.Parse(requestID)
	assert.NoError(t, err, "X-Request-ID must be a UUID")
}

func TestHeadersOnErrorResponse(t *testing.T) {
	app := fiber.New()
	app.Use(Headers())
	app.Get("/boom", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Requête invalide"})
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/boom", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get(HeaderRequestID))
}

func TestRequestIDDistinctPerRequest(t *testing.T) {
	app := fiber.New()
	app.Use(Headers())
	app.Get("/id", func(c *fiber.Ctx) error {
		return c.SendString(RequestID(c))
	})

	first, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/id", nil), -1)
	require.NoError(t, err)
	second, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/id", nil), -1)
	require.NoError(t, err)

	assert.NotEqual(t, first.Header.Get(HeaderRequestID), second.Header.Get(HeaderRequestID))
}

func TestRequestIDWithoutMiddleware(t *testing.T) {
	app := fiber.New()
	app.Get("/bare", func(c *fiber.Ctx) error {
		return c.SendString(RequestID(c))
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/bare", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

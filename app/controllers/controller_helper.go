package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// GetClientIP determines the actual client IP address considering proxies.
// Forwarded headers win over the socket peer so rate limiting keys on the
// real caller behind a reverse proxy.
func GetClientIP(c *fiber.Ctx) string {
	xff := c.Get("X-Forwarded-For")
	if xff != "" {
		parts := strings.Split(xff, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(c.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return c.IP()
}

// requireJSONBody rejects requests whose content type is neither JSON nor a
// form post. Returns false after writing the error response.
func requireJSONBody(c *fiber.Ctx) bool {
	ct := strings.ToLower(c.Get(fiber.HeaderContentType))
	if strings.Contains(ct, fiber.MIMEApplicationJSON) ||
		strings.Contains(ct, fiber.MIMEApplicationForm) ||
		strings.Contains(ct, fiber.MIMEMultipartForm) {
		return true
	}
	_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Content-Type invalide"})
	return false
}

func jsonError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

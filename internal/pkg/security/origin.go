package security

import (
	"log"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// OriginGate decides whether a declared request origin belongs to the
// trusted set. Entries are exact origins ("https://getyoursite.fr") or
// wildcard patterns ("*.getyoursite.fr") matching the registrable domain
// and any subdomain over https.
type OriginGate struct {
	exact     map[string]struct{}
	wildcards []string // bare domains, e.g. "getyoursite.fr"
}

// NewOriginGate builds a gate from the configured trusted-origin list.
func NewOriginGate(origins []string) *OriginGate {
	g := &OriginGate{exact: make(map[string]struct{})}
	for _, o := range origins {
		o = strings.TrimSpace(strings.TrimSuffix(o, "/"))
		if o == "" {
			continue
		}
		if strings.HasPrefix(o, "*.") {
			g.wildcards = append(g.wildcards, strings.ToLower(strings.TrimPrefix(o, "*.")))
			continue
		}
		g.exact[strings.ToLower(o)] = struct{}{}
	}
	return g
}

// Evaluate returns whether the origin is trusted and the value to use for
// the Access-Control-Allow-Origin header. A missing origin is allowed:
// same-origin and server-to-server requests carry none.
func (g *OriginGate) Evaluate(origin string) (bool, string) {
	origin = strings.TrimSpace(strings.TrimSuffix(origin, "/"))
	if origin == "" {
		return true, ""
	}

	lower := strings.ToLower(origin)
	if _, ok := g.exact[lower]; ok {
		return true, origin
	}

	u, err := url.Parse(lower)
	if err != nil || u.Host == "" {
		return false, ""
	}
	host := u.Hostname()
	for _, domain := range g.wildcards {
		if u.Scheme != "https" {
			continue
		}
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true, origin
		}
	}
	return false, ""
}

// Middleware enforces the gate on an API route group. Untrusted origins are
// actively refused with 403 before any downstream work; trusted cross-origin
// requests receive the CORS allow headers. OPTIONS preflights short-circuit
// with the same decision and never reach route handlers.
func (g *OriginGate) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		origin := c.Get(fiber.HeaderOrigin)
		allowed, allowValue := g.Evaluate(origin)
		if !allowed {
			log.Printf("blocked request from unauthorized origin: origin=%s path=%s ip=%s request_id=%s",
				origin, c.Path(), c.IP(), RequestID(c))
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Origin non autorisée"})
		}

		if allowValue != "" {
			c.Set(fiber.HeaderAccessControlAllowOrigin, allowValue)
			c.Set(fiber.HeaderVary, fiber.HeaderOrigin)
			c.Set(fiber.HeaderAccessControlAllowMethods, "GET, POST, OPTIONS")
			c.Set(fiber.HeaderAccessControlAllowHeaders, "Content-Type, Accept, Origin")
			c.Set(fiber.HeaderAccessControlMaxAge, "86400")
		}

		if c.Method() == fiber.MethodOptions {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.Next()
	}
}

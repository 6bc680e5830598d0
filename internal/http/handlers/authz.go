package handlers

import (
	"strings"

	"auctions/internal/domain"
	applog "auctions/internal/log"
	"auctions/internal/services"

	"github.com/gofiber/fiber/v2"
)

// Authenticate attaches the caller to the request when a bearer token or a
// bound sid cookie is present. Anonymous requests pass through.
func Authenticate(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if h := c.Get(fiber.HeaderAuthorization); h != "" {
			tok, ok := strings.CutPrefix(h, "Bearer ")
			if !ok || strings.TrimSpace(tok) == "" {
				applog.Security(c, "auth.token.invalid", map[string]any{"reason": "scheme"})
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "bearer token required", "code": "UNAUTHENTICATED"})
			}
			u, err := auth.UserFromToken(c.UserContext(), strings.TrimSpace(tok))
			if err != nil {
				applog.Security(c, "auth.token.invalid", nil)
				return fail(c, "auth.token", err)
			}
			setUser(c, u)
			return c.Next()
		}
		if sid := c.Cookies("sid"); sid != "" {
			if u, err := auth.CurrentUser(c.UserContext(), sid); err == nil {
				setUser(c, u)
			}
		}
		return c.Next()
	}
}

func setUser(c *fiber.Ctx, u domain.User) {
	c.Locals("user", u)
	c.Locals("user_id", u.ID)
}

// RequireUser enforces that a user is logged in; otherwise 401.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := currentUser(c); !ok {
			applog.Security(c, "access.denied.anon", nil)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login required", "code": "UNAUTHENTICATED"})
		}
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) (domain.User, bool) {
	u, ok := c.Locals("user").(domain.User)
	return u, ok && u.ID != ""
}

// userID is empty for anonymous callers.
func userID(c *fiber.Ctx) string {
	u, _ := currentUser(c)
	return u.ID
}

// SkipCSRF exempts requests that cannot ride on an ambient cookie: bearer
// token clients and callers without a session.
func SkipCSRF(c *fiber.Ctx) bool {
	return c.Get(fiber.HeaderAuthorization) != "" || c.Cookies("sid") == ""
}

package handlers

import (
	"time"

	"auctions/internal/auctionerrors"
	applog "auctions/internal/log"
	"auctions/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AuthHandler struct {
	Auth *services.AuthService
}

func ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies("sid")
	if sid == "" {
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     "sid",
			Value:    sid,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
			Secure:   false,
		})
	}
	return sid
}

type registerReq struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Confirmation string `json:"confirmation"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, "auth.register", auctionerrors.Invalid("body", "is not valid JSON"))
	}
	u, err := h.Auth.Register(c.UserContext(), services.Registration{
		Username:     req.Username,
		Email:        req.Email,
		Password:     req.Password,
		Confirmation: req.Confirmation,
	})
	if err != nil {
		return fail(c, "auth.register", err)
	}
	applog.Audit(c, "auth.register", map[string]any{"username": u.Username, "new_user_id": u.ID})
	return c.Status(fiber.StatusCreated).JSON(u)
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, "auth.login", auctionerrors.Invalid("body", "is not valid JSON"))
	}
	sid := ensureSID(c)
	u, token, err := h.Auth.Login(c.UserContext(), sid, req.Username, req.Password)
	if err != nil {
		applog.Security(c, "auth.login.fail", map[string]any{"username": req.Username})
		return fail(c, "auth.login", err)
	}
	setUser(c, u)
	applog.Audit(c, "auth.login.success", map[string]any{"username": u.Username})
	return c.JSON(fiber.Map{"user": u, "token": token})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := c.Cookies("sid")
	if err := h.Auth.Logout(c.UserContext(), sid); err != nil {
		return fail(c, "auth.logout", err)
	}
	// Expire cookie
	c.Cookie(&fiber.Cookie{
		Name:     "sid",
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   false,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
	applog.Audit(c, "auth.logout", nil)
	return c.SendStatus(fiber.StatusNoContent)
}

// Me returns the authenticated caller.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	u, _ := currentUser(c)
	return c.JSON(u)
}

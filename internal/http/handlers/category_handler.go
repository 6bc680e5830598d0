package handlers

import (
	"auctions/internal/services"

	"github.com/gofiber/fiber/v2"
)

type CategoryHandler struct {
	Listings *services.ListingService
}

func (h *CategoryHandler) List(c *fiber.Ctx) error {
	cats, err := h.Listings.Categories(c.UserContext())
	if err != nil {
		return fail(c, "category.list", err)
	}
	return c.JSON(fiber.Map{"categories": cats})
}

package handlers

import (
	"auctions/internal/domain"
	applog "auctions/internal/log"
	"auctions/internal/services"

	"github.com/gofiber/fiber/v2"
)

type WatchlistHandler struct {
	Watch *services.WatchlistService
}

func (h *WatchlistHandler) List(c *fiber.Ctx) error {
	out := []domain.Listing{}
	for l, err := range h.Watch.Watched(c.UserContext(), userID(c)) {
		if err != nil {
			return fail(c, "watchlist.list", err)
		}
		out = append(out, l)
	}
	return c.JSON(fiber.Map{"listings": out})
}

func (h *WatchlistHandler) Add(c *fiber.Ctx) error {
	id, err := listingID(c)
	if err != nil {
		return fail(c, "watchlist.add", err)
	}
	e, err := h.Watch.Add(c.UserContext(), userID(c), id)
	if err != nil {
		return fail(c, "watchlist.add", err)
	}
	applog.Audit(c, "watchlist.add", map[string]any{"listing_id": id})
	return c.JSON(e)
}

func (h *WatchlistHandler) Remove(c *fiber.Ctx) error {
	id, err := listingID(c)
	if err != nil {
		return fail(c, "watchlist.remove", err)
	}
	removed, err := h.Watch.Remove(c.UserContext(), userID(c), id)
	if err != nil {
		return fail(c, "watchlist.remove", err)
	}
	applog.Audit(c, "watchlist.remove", map[string]any{"listing_id": id, "removed": removed})
	return c.SendStatus(fiber.StatusNoContent)
}

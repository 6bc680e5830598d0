package handlers

import (
	"errors"

	"auctions/internal/auctionerrors"
	applog "auctions/internal/log"
	"auctions/internal/money"
	"auctions/internal/services"

	"github.com/gofiber/fiber/v2"
)

type BidHandler struct {
	Bids *services.BidService
}

func (h *BidHandler) List(c *fiber.Ctx) error {
	id, err := listingID(c)
	if err != nil {
		return fail(c, "bid.list", err)
	}
	bids, err := h.Bids.List(c.UserContext(), id)
	if err != nil {
		return fail(c, "bid.list", err)
	}
	return c.JSON(fiber.Map{"bids": bids})
}

type placeBidReq struct {
	Amount *money.Amount `json:"amount"`
}

func (h *BidHandler) Place(c *fiber.Ctx) error {
	id, err := listingID(c)
	if err != nil {
		return fail(c, "bid.place", err)
	}
	var req placeBidReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, "bid.place", bodyError(err, "amount"))
	}
	amount := money.Zero
	if req.Amount != nil {
		amount = *req.Amount
	}

	b, err := h.Bids.Place(c.UserContext(), id, userID(c), amount)
	if err != nil {
		if errors.Is(err, auctionerrors.ErrBidTooLow) || errors.Is(err, auctionerrors.ErrListingClosed) {
			applog.Security(c, "bid.rejected", map[string]any{"listing_id": id, "amount": amount.String(), "reason": err.Error()})
		}
		return fail(c, "bid.place", err)
	}
	applog.Audit(c, "bid.place", map[string]any{"listing_id": id, "bid_id": b.ID, "amount": b.Amount.String()})
	return c.Status(fiber.StatusCreated).JSON(b)
}

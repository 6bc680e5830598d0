package handlers

import (
	"auctions/internal/auctionerrors"
	"auctions/internal/domain"
	applog "auctions/internal/log"
	"auctions/internal/money"
	"auctions/internal/services"
	"auctions/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type ListingHandler struct {
	Listings *services.ListingService
	Watch    *services.WatchlistService
	Comments *services.CommentService
}

// listingID parses the :id path segment.
func listingID(c *fiber.Ctx) (int64, error) {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return 0, auctionerrors.Invalid("id", "must be a positive integer")
	}
	return id, nil
}

func (h *ListingHandler) List(c *fiber.Ctx) error {
	list, err := h.Listings.ListActive(c.UserContext(), c.Query("category"))
	if err != nil {
		return fail(c, "listing.list", err)
	}
	return c.JSON(fiber.Map{"listings": list})
}

type createListingReq struct {
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	StartingPrice *money.Amount `json:"starting_price"`
	ImageURL      string        `json:"image_url"`
	Category      string        `json:"category"`
}

func (h *ListingHandler) Create(c *fiber.Ctx) error {
	var req createListingReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, "listing.create", bodyError(err, "starting_price"))
	}
	if req.StartingPrice == nil {
		return fail(c, "listing.create", auctionerrors.Invalid("starting_price", "is required"))
	}
	l, err := h.Listings.Create(c.UserContext(), domain.NewListing{
		OwnerID:       userID(c),
		Title:         req.Title,
		Description:   req.Description,
		StartingPrice: *req.StartingPrice,
		ImageURL:      req.ImageURL,
		Category:      req.Category,
	})
	if err != nil {
		return fail(c, "listing.create", err)
	}
	applog.Audit(c, "listing.create", map[string]any{"listing_id": l.ID, "price": l.CurrentPrice.String(), "category": l.Category})
	return c.Status(fiber.StatusCreated).JSON(l)
}

type listingDetail struct {
	domain.Listing
	Closed     bool             `json:"closed"`
	IsOwner    bool             `json:"is_owner"`
	IsWatching bool             `json:"is_watching"`
	Comments   []domain.Comment `json:"comments"`
}

func (h *ListingHandler) Detail(c *fiber.Ctx) error {
	id, err := listingID(c)
	if err != nil {
		return fail(c, "listing.get", err)
	}
	ctx := c.UserContext()
	l, err := h.Listings.Get(ctx, id)
	if err != nil {
		return fail(c, "listing.get", err)
	}
	uid := userID(c)
	watching, err := h.Watch.IsWatching(ctx, uid, id)
	if err != nil {
		return fail(c, "listing.get", err)
	}
	comments, err := h.Comments.List(ctx, id)
	if err != nil {
		return fail(c, "listing.get", err)
	}
	return c.JSON(listingDetail{
		Listing:    l,
		Closed:     l.IsClosed(),
		IsOwner:    domain.IsOwner(l, uid),
		IsWatching: watching,
		Comments:   comments,
	})
}

func (h *ListingHandler) Close(c *fiber.Ctx) error {
	id, err := listingID(c)
	if err != nil {
		return fail(c, "listing.close", err)
	}
	l, err := h.Listings.Close(c.UserContext(), id, userID(c))
	if err != nil {
		if status, _ := statusFor(err); status == fiber.StatusForbidden {
			applog.Security(c, "access.denied.close", map[string]any{"listing_id": id})
		}
		return fail(c, "listing.close", err)
	}
	fields := map[string]any{"listing_id": l.ID, "price": l.CurrentPrice.String()}
	if l.WinnerID != nil {
		fields["winner_id"] = *l.WinnerID
	}
	applog.Audit(c, "listing.close", fields)
	return c.JSON(l)
}

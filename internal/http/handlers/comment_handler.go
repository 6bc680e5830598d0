package handlers

import (
	"auctions/internal/auctionerrors"
	applog "auctions/internal/log"
	"auctions/internal/services"

	"github.com/gofiber/fiber/v2"
)

type CommentHandler struct {
	Comments *services.CommentService
}

func (h *CommentHandler) List(c *fiber.Ctx) error {
	id, err := listingID(c)
	if err != nil {
		return fail(c, "comment.list", err)
	}
	list, err := h.Comments.List(c.UserContext(), id)
	if err != nil {
		return fail(c, "comment.list", err)
	}
	return c.JSON(fiber.Map{"comments": list})
}

type addCommentReq struct {
	Text string `json:"text"`
}

func (h *CommentHandler) Add(c *fiber.Ctx) error {
	id, err := listingID(c)
	if err != nil {
		return fail(c, "comment.add", err)
	}
	var req addCommentReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, "comment.add", auctionerrors.Invalid("body", "is not valid JSON"))
	}
	cm, err := h.Comments.Add(c.UserContext(), id, userID(c), req.Text)
	if err != nil {
		return fail(c, "comment.add", err)
	}
	applog.Audit(c, "comment.add", map[string]any{"listing_id": id, "comment_id": cm.ID})
	return c.Status(fiber.StatusCreated).JSON(cm)
}

package handlers

import (
	"errors"
	"strconv"

	"auctions/internal/auctionerrors"
	applog "auctions/internal/log"
	"auctions/internal/money"

	"github.com/gofiber/fiber/v2"
)

const genericError = "Something went wrong. Please try again."

// statusFor maps a service error onto an HTTP status and a stable code.
func statusFor(err error) (int, string) {
	var fe *fiber.Error
	switch {
	case errors.Is(err, auctionerrors.ErrNotFound):
		return fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, auctionerrors.ErrForbidden):
		return fiber.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, auctionerrors.ErrUnauthenticated), errors.Is(err, auctionerrors.ErrBadCredentials):
		return fiber.StatusUnauthorized, "UNAUTHENTICATED"
	case errors.Is(err, auctionerrors.ErrBidTooLow):
		return fiber.StatusConflict, "BID_TOO_LOW"
	case errors.Is(err, auctionerrors.ErrListingClosed):
		return fiber.StatusConflict, "LISTING_CLOSED"
	case errors.Is(err, auctionerrors.ErrUsernameTaken):
		return fiber.StatusConflict, "USERNAME_TAKEN"
	case errors.Is(err, auctionerrors.ErrInvalid):
		return fiber.StatusBadRequest, "INVALID"
	case errors.As(err, &fe):
		return fe.Code, "HTTP_" + strconv.Itoa(fe.Code)
	default:
		return fiber.StatusInternalServerError, "INTERNAL"
	}
}

// fail writes the JSON error body. Server faults are logged under action and
// never echo their message.
func fail(c *fiber.Ctx, action string, err error) error {
	status, code := statusFor(err)
	msg := err.Error()
	switch {
	case status >= fiber.StatusInternalServerError:
		applog.Error(c, action+".fail", err, nil)
		msg = genericError
	case status == fiber.StatusBadRequest:
		applog.Security(c, "validation.fail", map[string]any{"op": action, "reason": msg})
	}
	return c.Status(status).JSON(fiber.Map{"error": msg, "code": code})
}

// bodyError turns a BodyParser failure into a 400, naming the amount field
// when the body only failed on its range.
func bodyError(err error, amountField string) error {
	if errors.Is(err, money.ErrOutOfRange) {
		return auctionerrors.Invalid(amountField, "must be at most "+money.Max.String())
	}
	return auctionerrors.Invalid("body", err.Error())
}

// ErrorHandler is the app-wide fiber error handler.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		_, code := statusFor(err)
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message, "code": code})
	}
	applog.Error(c, "server.error", err, nil)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": genericError, "code": "INTERNAL"})
}

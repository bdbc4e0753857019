package renting

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/numrent/numrent/internal/catalog"
	"github.com/numrent/numrent/internal/notify"
	"github.com/numrent/numrent/internal/payment"
	"github.com/numrent/numrent/internal/rental"
)

// Handler exposes renter-facing HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a renting HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List serves one page of the availability listing.
func (h *Handler) List(c *fiber.Ctx) error {
	page, err := h.service.ListAvailable(c.UserContext(), c.QueryInt("page", 0))
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	listings := make([]fiber.Map, 0, len(page.Listings))
	for _, l := range page.Listings {
		entry := fiber.Map{
			"id":          l.Identity.ID,
			"price_day":   l.Identity.PriceDay,
			"price_week":  l.Identity.PriceWeek,
			"price_month": l.Identity.PriceMonth,
			"rented":      l.Rented,
		}
		if l.Rented {
			entry["rent_end"] = l.RentEnd
		}
		listings = append(listings, entry)
	}
	return c.JSON(fiber.Map{"page": page.Page, "has_more": page.HasMore, "listings": listings})
}

type rentRequest struct {
	RenterID string `json:"renter_id"`
	Hours    int    `json:"hours"`
}

// Rent assigns an identity to the renter.
func (h *Handler) Rent(c *fiber.Ctx) error {
	var req rentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	rent, err := h.service.Rent(c.UserContext(), c.Params("identityId"), req.RenterID, req.Hours)
	if err != nil {
		return rentError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(toRentalResponse(rent))
}

// Extend adds hours to the renter's rental.
func (h *Handler) Extend(c *fiber.Ctx) error {
	var req rentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	rent, err := h.service.Extend(c.UserContext(), c.Params("identityId"), req.RenterID, req.Hours)
	if err != nil {
		return rentError(c, err)
	}
	return c.Status(http.StatusOK).JSON(toRentalResponse(rent))
}

type transferRequest struct {
	FromRenter string `json:"from_renter"`
	ToRenter   string `json:"to_renter"`
}

// Transfer reassigns a rental, preserving remaining time.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	rent, err := h.service.Transfer(c.UserContext(), c.Params("identityId"), req.FromRenter, req.ToRenter)
	if err != nil {
		return rentError(c, err)
	}
	return c.Status(http.StatusOK).JSON(toRentalResponse(rent))
}

// Cancel terminates a rental and triggers account deletion.
func (h *Handler) Cancel(c *fiber.Ctx) error {
	if err := h.service.Cancel(c.UserContext(), c.Params("identityId")); err != nil {
		return rentError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// Balance reports the renter's credit.
func (h *Handler) Balance(c *fiber.Ctx) error {
	amount, err := h.service.Balance(c.UserContext(), c.Params("renterId"))
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"renter_id": c.Params("renterId"), "balance": amount})
}

type topUpRequest struct {
	RenterID  string `json:"renter_id"`
	Amount    int64  `json:"amount"`
	ChatID    int64  `json:"chat_id"`
	MessageID int    `json:"message_id"`
}

// TopUpInvoice starts a hosted invoice top-up (Rail A).
func (h *Handler) TopUpInvoice(c *fiber.Ctx) error {
	var req topUpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	handle, err := h.service.TopUpInvoice(c.UserContext(), req.RenterID, req.Amount, notify.MessageRef{ChatID: req.ChatID, MessageID: req.MessageID})
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"invoice_id": handle.ID, "url": handle.URL})
}

// CheckInvoice performs a user-initiated Rail A status check.
func (h *Handler) CheckInvoice(c *fiber.Ctx) error {
	var req struct {
		RenterID string `json:"renter_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	status, err := h.service.CheckInvoice(c.UserContext(), req.RenterID, c.Params("invoiceId"))
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		case errors.Is(err, payment.ErrCheckInProgress):
			return fiber.NewError(http.StatusConflict, err.Error())
		default:
			return fiber.NewError(http.StatusBadGateway, err.Error())
		}
	}
	return c.JSON(fiber.Map{"invoice_id": c.Params("invoiceId"), "status": string(status)})
}

// TopUpChain registers an on-chain top-up order (Rail B) and returns the memo
// reference token.
func (h *Handler) TopUpChain(c *fiber.Ctx) error {
	var req topUpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	order, err := h.service.TopUpChainOrder(c.UserContext(), req.RenterID, req.Amount, notify.MessageRef{ChatID: req.ChatID, MessageID: req.MessageID})
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"order_ref": order.Ref, "amount": order.Amount})
}

func rentError(c *fiber.Ctx, err error) error {
	var topUp *TopUpRequiredError
	switch {
	case errors.As(err, &topUp):
		return c.Status(http.StatusPaymentRequired).JSON(fiber.Map{
			"error":    "top up required",
			"required": topUp.Required,
		})
	case errors.Is(err, rental.ErrConflict):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, rental.ErrOwnershipMismatch):
		return fiber.NewError(http.StatusForbidden, err.Error())
	case errors.Is(err, rental.ErrNotRented), errors.Is(err, catalog.ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, catalog.ErrBanned):
		return fiber.NewError(http.StatusGone, err.Error())
	default:
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
}

func toRentalResponse(rent rental.Rental) fiber.Map {
	return fiber.Map{
		"identity_id": rent.IdentityID,
		"renter_id":   rent.RenterID,
		"rent_start":  rent.RentStart,
		"hours":       rent.Hours,
		"rent_end":    rent.End(),
	}
}

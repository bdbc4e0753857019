package catalog

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes admin catalog endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a catalog HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type upsertRequest struct {
	ID         string `json:"id"`
	PriceDay   int64  `json:"price_day"`
	PriceWeek  int64  `json:"price_week"`
	PriceMonth int64  `json:"price_month"`
	Available  bool   `json:"available"`
}

type identityResponse struct {
	ID         string `json:"id"`
	PriceDay   int64  `json:"price_day"`
	PriceWeek  int64  `json:"price_week"`
	PriceMonth int64  `json:"price_month"`
	Available  bool   `json:"available"`
	UpdatedAt  string `json:"updated_at"`
}

// Upsert creates or edits an identity record.
func (h *Handler) Upsert(c *fiber.Ctx) error {
	var req upsertRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	identity, err := h.service.Upsert(c.UserContext(), UpsertInput{
		ID:         req.ID,
		PriceDay:   req.PriceDay,
		PriceWeek:  req.PriceWeek,
		PriceMonth: req.PriceMonth,
		Available:  req.Available,
	})
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusOK).JSON(toIdentityResponse(identity))
}

// SetAvailability soft-enables or soft-disables an identity.
func (h *Handler) SetAvailability(c *fiber.Ctx) error {
	id := c.Params("identityId")
	var req struct {
		Available bool `json:"available"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.service.SetAvailability(c.UserContext(), id, req.Available); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.SendStatus(http.StatusNoContent)
}

// Ban adds an identity to the banned set.
func (h *Handler) Ban(c *fiber.Ctx) error {
	if err := h.service.Ban(c.UserContext(), c.Params("identityId")); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.SendStatus(http.StatusNoContent)
}

func toIdentityResponse(identity Identity) identityResponse {
	return identityResponse{
		ID:         identity.ID,
		PriceDay:   identity.PriceDay,
		PriceWeek:  identity.PriceWeek,
		PriceMonth: identity.PriceMonth,
		Available:  identity.Available,
		UpdatedAt:  identity.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

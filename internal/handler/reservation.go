package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/agrihub/seed-reservation/internal/engine"
	"github.com/agrihub/seed-reservation/internal/repository"
)

// ReservationHandler serves the farmer-facing reservation endpoints.
type ReservationHandler struct {
	Engine       *engine.Engine
	Reservations *repository.ReservationRepo
}

func NewReservationHandler(e *engine.Engine, r *repository.ReservationRepo) *ReservationHandler {
	return &ReservationHandler{Engine: e, Reservations: r}
}

type createReservationReq struct {
	FarmerID           uint64             `json:"farmer_id"`
	DistributorID      *uint64            `json:"distributor_id"`
	DeliveryDate       string             `json:"delivery_date"` // YYYY-MM-DD
	DistributionMethod string             `json:"distribution_method"`
	Notes              *string            `json:"notes"`
	Items              []engine.ItemInput `json:"items"`
}

// Create places a new pending reservation. Validation, pricing and the
// advisory quota check all live in the engine; this handler only binds the
// request and maps errors.
func (h *ReservationHandler) Create(c echo.Context) error {
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.FarmerID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "farmer_id required"})
	}
	delivery, err := time.Parse("2006-01-02", req.DeliveryDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "delivery_date must be YYYY-MM-DD"})
	}
	if delivery.Before(time.Now().UTC().Truncate(24 * time.Hour)) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "delivery_date must not be in the past"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	det, err := h.Engine.CreateReservation(ctx, engine.CreateInput{
		FarmerID:           req.FarmerID,
		DistributorID:      req.DistributorID,
		DeliveryDate:       delivery,
		DistributionMethod: req.DistributionMethod,
		Notes:              req.Notes,
		Items:              req.Items,
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, det)
}

// Get returns one reservation with its items.
func (h *ReservationHandler) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	det, err := h.Reservations.GetByID(ctx, id)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, det)
}

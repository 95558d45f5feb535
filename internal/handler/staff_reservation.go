package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/agrihub/seed-reservation/internal/engine"
	"github.com/agrihub/seed-reservation/internal/model"
	"github.com/agrihub/seed-reservation/internal/queue"
	"github.com/agrihub/seed-reservation/internal/repository"
	queue_publisher "github.com/agrihub/seed-reservation/internal/service"
)

// StaffReservationHandler serves the staff review surface: listing
// reservations, driving the status lifecycle and editing pending ones.
type StaffReservationHandler struct {
	Engine       *engine.Engine
	Reservations *repository.ReservationRepo
}

func NewStaffReservationHandler(e *engine.Engine, r *repository.ReservationRepo) *StaffReservationHandler {
	return &StaffReservationHandler{Engine: e, Reservations: r}
}

// List returns reservations for review, newest first, optionally filtered
// by ?status=.
func (h *StaffReservationHandler) List(c echo.Context) error {
	status := strings.ToLower(strings.TrimSpace(c.QueryParam("status")))
	switch status {
	case "", model.StatusPending, model.StatusApproved, model.StatusRejected, model.StatusDelivered:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status filter"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	reservations, err := h.Reservations.List(ctx, status)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": reservations})
}

type setStatusReq struct {
	Status     string  `json:"status"`
	AdminNotes *string `json:"admin_notes"`
}

// SetStatus moves a reservation through the lifecycle. On an actual
// change a status event is published for downstream consumers; publish
// failures are ignored because the transaction has already committed.
func (h *StaffReservationHandler) SetStatus(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var req setStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	if req.Status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status required"})
	}
	actor := getUsername(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	change, err := h.Engine.SetStatus(ctx, id, req.Status, req.AdminNotes, actor)
	if err != nil {
		return writeDomainError(c, err)
	}

	if change.Changed {
		ev := queue.ReservationStatusEvent{
			ReservationID:       change.ReservationID,
			FarmerID:            change.FarmerID,
			ProvinceID:          change.ProvinceID,
			FromStatus:          change.From,
			ToStatus:            change.To,
			QuantityKg:          change.QuantityKg,
			PreviousRemainingKg: change.PreviousRemainingKg,
			NewRemainingKg:      change.NewRemainingKg,
			ChangedBy:           actor,
			ChangedAt:           time.Now().UTC().Format(time.RFC3339),
		}
		_ = queue_publisher.PublishReservationStatus(ctx, ev)
	}

	det, err := h.Reservations.GetByID(ctx, id)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, det)
}

type editReservationReq struct {
	Items        []engine.ItemInput `json:"items"`
	DeliveryDate string             `json:"delivery_date"` // YYYY-MM-DD
	EditReason   string             `json:"edit_reason"`
}

// Edit replaces the items of a pending reservation. The first edit
// snapshots the original totals for the audit trail.
func (h *StaffReservationHandler) Edit(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var req editReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.EditReason) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "edit_reason required"})
	}
	delivery, err := time.Parse("2006-01-02", req.DeliveryDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "delivery_date must be YYYY-MM-DD"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	det, err := h.Engine.EditPending(ctx, id, engine.EditInput{
		Items:        req.Items,
		DeliveryDate: delivery,
		EditReason:   strings.TrimSpace(req.EditReason),
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, det)
}

package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/agrihub/seed-reservation/internal/engine"
	"github.com/agrihub/seed-reservation/internal/repository"
)

// StaffQuotaHandler serves quota administration: reading balances,
// resizing totals, the movement audit log and the consumption report.
type StaffQuotaHandler struct {
	Engine    *engine.Engine
	Provinces *repository.ProvinceRepo
	Movements *repository.MovementRepo
}

func NewStaffQuotaHandler(e *engine.Engine, p *repository.ProvinceRepo, m *repository.MovementRepo) *StaffQuotaHandler {
	return &StaffQuotaHandler{Engine: e, Provinces: p, Movements: m}
}

// GetQuota returns the current quota figures for one province.
func (h *StaffQuotaHandler) GetQuota(c echo.Context) error {
	provinceID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Provinces.GetQuota(ctx, provinceID)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

type resizeQuotaReq struct {
	QuotaKg float64 `json:"quota_kg"`
}

// ResizeQuota sets a new total quota for a province. The consumed amount
// is preserved; a total below it is refused.
func (h *StaffQuotaHandler) ResizeQuota(c echo.Context) error {
	provinceID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var req resizeQuotaReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	p, err := h.Engine.ResizeQuota(ctx, provinceID, req.QuotaKg)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// ListMovements returns the most recent quota movements for a province,
// newest first. ?limit= caps the page size.
func (h *StaffQuotaHandler) ListMovements(c echo.Context) error {
	provinceID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Provinces.GetQuota(ctx, provinceID); err != nil {
		return writeDomainError(c, err)
	}
	movements, err := h.Movements.ListByProvince(ctx, provinceID, limit)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"province_id": provinceID, "movements": movements})
}

// ConsumptionReport returns per-province quota usage with reservation
// counts per status.
func (h *StaffQuotaHandler) ConsumptionReport(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	report, err := h.Provinces.ConsumptionSummary(ctx)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"provinces": report})
}

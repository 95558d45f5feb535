package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/agrihub/seed-reservation/internal/repository"
)

// StaffAllocationHandler manages which seed varieties a province carries.
type StaffAllocationHandler struct {
	Provinces   *repository.ProvinceRepo
	Varieties   *repository.VarietyRepo
	Allocations *repository.AllocationRepo
}

func NewStaffAllocationHandler(p *repository.ProvinceRepo, v *repository.VarietyRepo, a *repository.AllocationRepo) *StaffAllocationHandler {
	return &StaffAllocationHandler{Provinces: p, Varieties: v, Allocations: a}
}

type upsertAllocationReq struct {
	SeedVarietyID       uint64   `json:"seed_variety_id"`
	AllocatedQuantityKg float64  `json:"allocated_quantity_kg"`
	MinOrderKg          *float64 `json:"min_order_kg"`
	MaxOrderKg          *float64 `json:"max_order_kg"`
}

// Upsert creates or replaces the allocation of a variety to a province.
// Re-sending the same pair updates it in place and reactivates it.
func (h *StaffAllocationHandler) Upsert(c echo.Context) error {
	provinceID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var req upsertAllocationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.SeedVarietyID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seed_variety_id required"})
	}
	if req.AllocatedQuantityKg <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "allocated_quantity_kg must be positive"})
	}
	if req.MinOrderKg != nil && req.MaxOrderKg != nil && *req.MinOrderKg > *req.MaxOrderKg {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "min_order_kg exceeds max_order_kg"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if _, err := h.Provinces.GetQuota(ctx, provinceID); err != nil {
		return writeDomainError(c, err)
	}
	if _, err := h.Varieties.GetActive(ctx, req.SeedVarietyID); err != nil {
		return writeDomainError(c, err)
	}

	id, err := h.Allocations.Upsert(ctx, provinceID, req.SeedVarietyID, req.AllocatedQuantityKg, req.MinOrderKg, req.MaxOrderKg)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"allocation_id":         id,
		"province_id":           provinceID,
		"seed_variety_id":       req.SeedVarietyID,
		"allocated_quantity_kg": req.AllocatedQuantityKg,
	})
}

// Deactivate soft-deletes an allocation so the variety stops being
// orderable in that province. Existing reservations keep their reference.
func (h *StaffAllocationHandler) Deactivate(c echo.Context) error {
	allocationID, err := paramID(c, "allocation_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Allocations.Deactivate(ctx, allocationID); err != nil {
		return writeDomainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

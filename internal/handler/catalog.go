package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/agrihub/seed-reservation/internal/repository"
)

// CatalogHandler serves the public read-only directory: provinces with
// their quota balances, the seed variety catalog, per-province allocated
// varieties and the distributor directory. These endpoints sit behind the
// response cache.
type CatalogHandler struct {
	Provinces    *repository.ProvinceRepo
	Varieties    *repository.VarietyRepo
	Allocations  *repository.AllocationRepo
	Distributors *repository.DistributorRepo
}

func NewCatalogHandler(p *repository.ProvinceRepo, v *repository.VarietyRepo, a *repository.AllocationRepo, d *repository.DistributorRepo) *CatalogHandler {
	return &CatalogHandler{Provinces: p, Varieties: v, Allocations: a, Distributors: d}
}

// ListProvinces returns all active provinces with quota figures.
func (h *CatalogHandler) ListProvinces(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	provinces, err := h.Provinces.ListActive(ctx)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"provinces": provinces})
}

// ListVarieties returns the full active seed variety catalog ordered by
// quality rank.
func (h *CatalogHandler) ListVarieties(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	varieties, err := h.Varieties.ListActive(ctx)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"seed_varieties": varieties})
}

// ListProvinceVarieties returns the varieties allocated to one province
// with their effective order bounds. This is what a farmer can actually
// order.
func (h *CatalogHandler) ListProvinceVarieties(c echo.Context) error {
	provinceID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Provinces.GetQuota(ctx, provinceID); err != nil {
		return writeDomainError(c, err)
	}
	varieties, err := h.Allocations.ListAllocatedVarieties(ctx, provinceID)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"province_id": provinceID, "seed_varieties": varieties})
}

// ListProvinceDistributors returns the active distributors serving one
// province.
func (h *CatalogHandler) ListProvinceDistributors(c echo.Context) error {
	provinceID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Provinces.GetQuota(ctx, provinceID); err != nil {
		return writeDomainError(c, err)
	}
	distributors, err := h.Distributors.ListByProvince(ctx, provinceID)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"province_id": provinceID, "distributors": distributors})
}

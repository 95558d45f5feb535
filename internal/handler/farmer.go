package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/agrihub/seed-reservation/internal/repository"
)

// FarmerHandler serves farmer registration and lookup. The portal is
// deliberately open: farmers identify themselves by national id number
// rather than an account, so these endpoints are public and rate limited.
type FarmerHandler struct {
	Farmers      *repository.FarmerRepo
	Provinces    *repository.ProvinceRepo
	Reservations *repository.ReservationRepo
}

func NewFarmerHandler(f *repository.FarmerRepo, p *repository.ProvinceRepo, r *repository.ReservationRepo) *FarmerHandler {
	return &FarmerHandler{Farmers: f, Provinces: p, Reservations: r}
}

type registerFarmerReq struct {
	Name       string `json:"name"`
	IDNumber   string `json:"id_number"`
	Phone      string `json:"phone"`
	ProvinceID uint64 `json:"province_id"`
	Address    string `json:"address"`
}

// Register creates a farmer record. The identity number is the natural
// key; registering it twice yields 409.
func (h *FarmerHandler) Register(c echo.Context) error {
	var req registerFarmerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.IDNumber = strings.TrimSpace(req.IDNumber)
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Name == "" || req.IDNumber == "" || req.Phone == "" || req.ProvinceID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, id_number, phone and province_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// The province must exist and be active before the farmer is attached to it.
	if _, err := h.Provinces.GetQuota(ctx, req.ProvinceID); err != nil {
		return writeDomainError(c, err)
	}

	id, err := h.Farmers.Create(ctx, req.Name, req.IDNumber, req.Phone, req.ProvinceID, req.Address)
	if err != nil {
		return writeDomainError(c, err)
	}
	farmer, err := h.Farmers.GetByID(ctx, id)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, farmer)
}

// GetByIdentity looks a farmer up by id_number query parameter.
func (h *FarmerHandler) GetByIdentity(c echo.Context) error {
	idNumber := strings.TrimSpace(c.QueryParam("id_number"))
	if idNumber == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id_number required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	farmer, err := h.Farmers.GetByIdentity(ctx, idNumber)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, farmer)
}

// ListReservations returns one farmer's reservations, newest first.
func (h *FarmerHandler) ListReservations(c echo.Context) error {
	farmerID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Farmers.GetByID(ctx, farmerID); err != nil {
		return writeDomainError(c, err)
	}
	reservations, err := h.Reservations.ListByFarmer(ctx, farmerID)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": reservations})
}

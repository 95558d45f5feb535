package handler // handler defines http handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/agrihub/seed-reservation/internal/engine"
	"github.com/agrihub/seed-reservation/internal/repository"
)

// paramID parses a positive numeric path parameter.
func paramID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

// getUserID extracts the user_id stored by the JWT middleware and converts
// it to uint64. JWT numeric claims round-trip as float64.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// getUsername extracts the username claim, falling back to "staff".
func getUsername(c echo.Context) string {
	if s, ok := c.Get("username").(string); ok && s != "" {
		return s
	}
	return "staff"
}

// writeDomainError maps engine and repository errors to HTTP responses.
// Unknown errors become a 500 with a generic message so internals never
// leak to clients.
func writeDomainError(c echo.Context, err error) error {
	var itemErr *repository.InvalidItemError
	switch {
	case errors.Is(err, repository.ErrProvinceNotFound),
		errors.Is(err, repository.ErrVarietyNotFound),
		errors.Is(err, repository.ErrFarmerNotFound),
		errors.Is(err, repository.ErrReservationNotFound),
		errors.Is(err, repository.ErrAllocationNotFound),
		errors.Is(err, repository.ErrStaffNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrDuplicateIdentity):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrQuotaExceeded),
		errors.Is(err, repository.ErrInsufficientQuota):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrInvalidTransition),
		errors.Is(err, repository.ErrNotEditable),
		errors.Is(err, repository.ErrInvalidQuota):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, engine.ErrNoItems),
		errors.Is(err, engine.ErrInvalidMethod):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.As(err, &itemErr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": itemErr.Error()})
	}
	c.Logger().Errorf("internal error: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

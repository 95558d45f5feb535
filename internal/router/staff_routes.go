package router

import (
	"github.com/labstack/echo/v4"

	"github.com/agrihub/seed-reservation/internal/handler"
	"github.com/agrihub/seed-reservation/internal/middleware"
)

// RegisterStaff registers the staff administration surface under /v1/staff.
// All routes require a valid JWT with the STAFF role: reservation review
// and lifecycle, pending-reservation edits, quota administration, the
// movement audit log, allocations and the consumption report.
func RegisterStaff(e *echo.Echo,
	reservations *handler.StaffReservationHandler,
	quota *handler.StaffQuotaHandler,
	allocations *handler.StaffAllocationHandler,
	jwtSecret string,
) {
	g := e.Group(
		"/v1/staff",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("STAFF"),
	)

	// ---- Reservations ----
	g.GET("/reservations", reservations.List)
	g.PATCH("/reservations/:id/status", reservations.SetStatus)
	g.PUT("/reservations/:id", reservations.Edit)

	// ---- Quotas ----
	g.GET("/provinces/:id/quota", quota.GetQuota)
	g.PUT("/provinces/:id/quota", quota.ResizeQuota)
	g.GET("/provinces/:id/movements", quota.ListMovements)
	g.GET("/reports/consumption", quota.ConsumptionReport)

	// ---- Allocations ----
	g.PUT("/provinces/:id/allocations", allocations.Upsert)
	g.DELETE("/allocations/:allocation_id", allocations.Deactivate)
}

// Package repository defines error values that are reused across multiple
// repositories and by the reservation engine. These sentinels allow the
// handler layer to distinguish failure scenarios and map them to HTTP
// status codes without string matching.
package repository

import (
	"errors"
	"fmt"
)

// ErrProvinceNotFound is returned when a province does not exist or is
// inactive. Handlers should translate this into a 404 response.
var ErrProvinceNotFound = errors.New("province not found")

// ErrVarietyNotFound is returned when a seed variety does not exist or is
// inactive.
var ErrVarietyNotFound = errors.New("seed variety not found")

// ErrFarmerNotFound is returned when no farmer matches the given id or
// identity number.
var ErrFarmerNotFound = errors.New("farmer not found")

// ErrReservationNotFound is returned when a reservation id does not exist.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrAllocationNotFound is returned when an allocation id does not exist.
var ErrAllocationNotFound = errors.New("allocation not found")

// ErrStaffNotFound is returned when no active staff account matches the
// given username.
var ErrStaffNotFound = errors.New("staff account not found")

// ErrDuplicateIdentity is returned when a farmer registration reuses an
// identity number that is already registered. Handlers should translate
// this into a 409 response.
var ErrDuplicateIdentity = errors.New("identity number already registered")

// ErrQuotaExceeded is returned by the advisory creation-time check when the
// requested total exceeds the province's current remaining quota.
var ErrQuotaExceeded = errors.New("requested quantity exceeds province remaining quota")

// ErrInsufficientQuota is returned by the authoritative approval-time
// check-and-apply when debiting the quota would drive the remaining balance
// negative. The transition that triggered it must not be persisted.
var ErrInsufficientQuota = errors.New("insufficient remaining quota")

// ErrInvalidQuota is returned when a quota resize is non-positive or would
// leave the remaining balance negative (new total below what is already
// consumed).
var ErrInvalidQuota = errors.New("invalid quota value")

// ErrNotEditable is returned when an edit is attempted on a reservation
// that is no longer pending.
var ErrNotEditable = errors.New("reservation is not editable")

// ErrInvalidTransition is returned when a status change is not permitted by
// the lifecycle state machine, e.g. moving out of a terminal state.
var ErrInvalidTransition = errors.New("invalid status transition")

// InvalidItemError reports a reservation line that fails allocation
// validation: the variety is not allocated to the province, or the
// quantity falls outside the effective order bounds.
type InvalidItemError struct {
	SeedVarietyID uint64
	QuantityKg    float64
	MinKg         float64
	MaxKg         float64
	Reason        string
}

func (e *InvalidItemError) Error() string {
	if e.MinKg != 0 || e.MaxKg != 0 {
		return fmt.Sprintf("invalid item for variety %d: %s (quantity %.2f, bounds %.2f-%.2f)",
			e.SeedVarietyID, e.Reason, e.QuantityKg, e.MinKg, e.MaxKg)
	}
	return fmt.Sprintf("invalid item for variety %d: %s", e.SeedVarietyID, e.Reason)
}

package model

import "time"

// Movement types. A deduction consumes province quota (approval), an
// addition credits it back (approval reversal).
const (
	MovementDeduction = "deduction"
	MovementAddition  = "addition"
)

// QuotaMovement is an append-only audit record of one quota debit or
// credit. Rows are never updated or deleted; together they are the sole
// explanation for a province's current remaining quota.
//
// Fields:
//
//	ProvinceID          – province whose balance moved.
//	ReservationID       – reservation that caused the movement, if any.
//	MovementType        – "deduction" or "addition".
//	QuantityKg          – magnitude of the movement in kilograms.
//	PreviousRemainingKg – balance before the movement.
//	NewRemainingKg      – balance after the movement.
//	Description         – free-text explanation.
//	CreatedBy           – acting staff identity.
type QuotaMovement struct {
	ID                  uint64    // quota_movements.id
	ProvinceID          uint64    // quota_movements.province_id
	ReservationID       *uint64   // quota_movements.reservation_id (nullable)
	MovementType        string    // quota_movements.movement_type
	QuantityKg          float64   // quota_movements.quantity_kg
	PreviousRemainingKg float64   // quota_movements.previous_remaining_kg
	NewRemainingKg      float64   // quota_movements.new_remaining_kg
	Description         string    // quota_movements.description
	CreatedBy           string    // quota_movements.created_by
	CreatedAt           time.Time // quota_movements.created_at
}

package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reservation lifecycle states. A reservation starts pending; approval
// debits the province quota, leaving approval credits it back, and
// rejected/delivered are terminal.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusDelivered = "delivered"
)

// Distribution methods accepted on a reservation.
const (
	MethodDistributor = "distributor"
	MethodDirect      = "direct"
)

// Reservation records a farmer's request for seed against their province's
// quota. Totals are cached sums over the line items and are replaced
// together with the items on edit. The Original* fields snapshot the
// pre-edit totals the first time staff edit a pending reservation; later
// edits never overwrite the snapshot.
//
// Fields:
//
//	ID                 – primary key identifier.
//	FarmerID           – farmer who placed the reservation.
//	ProvinceID         – province whose quota the reservation draws on.
//	DistributorID      – optional distributor handling delivery.
//	TotalQuantityKg    – sum of item quantities in kilograms.
//	TotalAmount        – sum of item totals in currency.
//	DeliveryDate       – requested delivery date (date precision).
//	DistributionMethod – "distributor" or "direct".
//	Status             – lifecycle state (see constants above).
//	Notes              – farmer-supplied notes.
//	AdminNotes         – staff notes recorded on review.
//	OriginalTotalQuantityKg / OriginalTotalAmount – first-edit snapshot.
//	EditedByAdmin      – whether staff have edited the reservation.
//	EditReason         – reason supplied with the most recent edit.
type Reservation struct {
	ID                      uint64           // reservations.id
	FarmerID                uint64           // reservations.farmer_id
	ProvinceID              uint64           // reservations.province_id
	DistributorID           *uint64          // reservations.distributor_id (nullable)
	TotalQuantityKg         float64          // reservations.total_quantity_kg
	TotalAmount             decimal.Decimal  // reservations.total_amount
	DeliveryDate            time.Time        // reservations.delivery_date
	DistributionMethod      string           // reservations.distribution_method
	Status                  string           // reservations.status
	Notes                   *string          // reservations.notes (nullable)
	AdminNotes              *string          // reservations.admin_notes (nullable)
	OriginalTotalQuantityKg *float64         // reservations.original_total_quantity_kg (nullable)
	OriginalTotalAmount     *decimal.Decimal // reservations.original_total_amount (nullable)
	EditedByAdmin           bool             // reservations.edited_by_admin
	EditReason              *string          // reservations.edit_reason (nullable)
	CreatedAt               time.Time        // reservations.created_at
	UpdatedAt               time.Time        // reservations.updated_at
}

// ReservationItem is one (reservation, variety) line. Lines are replaced
// wholesale on edit, never patched, so the cached totals cannot drift.
type ReservationItem struct {
	ID            uint64          // reservation_items.id
	ReservationID uint64          // reservation_items.reservation_id
	SeedVarietyID uint64          // reservation_items.seed_variety_id
	QuantityKg    float64         // reservation_items.quantity_kg
	UnitPrice     decimal.Decimal // reservation_items.unit_price
	TotalPrice    decimal.Decimal // reservation_items.total_price
}

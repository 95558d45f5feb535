// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationStatusEvent is published whenever a reservation actually
// changes status. It carries the quota balances around the transition so
// downstream consumers can log or notify without querying the primary
// database. Same-state no-op calls publish nothing.
type ReservationStatusEvent struct {
	ReservationID       uint64  `json:"reservation_id"`
	FarmerID            uint64  `json:"farmer_id"`
	ProvinceID          uint64  `json:"province_id"`
	FromStatus          string  `json:"from_status"`
	ToStatus            string  `json:"to_status"`
	QuantityKg          float64 `json:"quantity_kg"`
	PreviousRemainingKg float64 `json:"previous_remaining_kg"`
	NewRemainingKg      float64 `json:"new_remaining_kg"`
	ChangedBy           string  `json:"changed_by"`
	ChangedAt           string  `json:"changed_at"`
}

package model

// Province is the quota ledger root. QuotaKg and RemainingKg are stored
// kg-normalized; RemainingKg is mutated only by the reservation engine's
// status transitions and by administrative quota resizes, and always
// satisfies 0 <= RemainingKg <= QuotaKg.
type Province struct {
	ID          uint64  // provinces.id
	Name        string  // provinces.name
	QuotaKg     float64 // provinces.quota_kg
	RemainingKg float64 // provinces.remaining_kg
	IsActive    bool    // provinces.is_active
}

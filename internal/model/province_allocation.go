package model

// ProvinceAllocation caps what a province's farmers may order of one seed
// variety. A variety is orderable in a province only while an active row
// with AllocatedQuantityKg > 0 exists. MinOrderKg/MaxOrderKg override the
// variety's global bounds when non-nil.
//
// Rows are never hard-deleted; deactivation keeps history intact for past
// reservations that referenced the allocation.
type ProvinceAllocation struct {
	ID                  uint64   // province_allocations.id
	ProvinceID          uint64   // province_allocations.province_id
	SeedVarietyID       uint64   // province_allocations.seed_variety_id
	AllocatedQuantityKg float64  // province_allocations.allocated_quantity_kg
	MinOrderKg          *float64 // province_allocations.min_order_kg (nullable override)
	MaxOrderKg          *float64 // province_allocations.max_order_kg (nullable override)
	IsActive            bool     // province_allocations.is_active
}

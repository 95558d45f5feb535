package model

import "github.com/shopspring/decimal"

// SeedVariety is reference data for the catalog: immutable from the
// reservation engine's perspective. MinOrderKg/MaxOrderKg are the global
// order bounds; a province allocation may override them.
type SeedVariety struct {
	ID          uint64          // seed_varieties.id
	Name        string          // seed_varieties.name
	Description string          // seed_varieties.description
	PricePerKg  decimal.Decimal // seed_varieties.price_per_kg
	Rank        uint32          // seed_varieties.rank (quality rank, lower is better)
	MinOrderKg  float64         // seed_varieties.min_order_kg
	MaxOrderKg  float64         // seed_varieties.max_order_kg
	IsActive    bool            // seed_varieties.is_active
}

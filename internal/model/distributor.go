package model

import "github.com/shopspring/decimal"

// Distributor delivers approved reservations within a single province.
type Distributor struct {
	ID                   uint64          // distributors.id
	Name                 string          // distributors.name
	ProvinceID           uint64          // distributors.province_id
	CommissionPercentage decimal.Decimal // distributors.commission_percentage
	Phone                string          // distributors.phone
	Address              string          // distributors.address
	IsActive             bool            // distributors.is_active
}

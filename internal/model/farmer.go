package model

import "time"

// Farmer is created once per identity number and not edited afterwards.
type Farmer struct {
	ID         uint64    // farmers.id
	Name       string    // farmers.name
	IDNumber   string    // farmers.id_number (unique natural key)
	Phone      string    // farmers.phone
	ProvinceID uint64    // farmers.province_id
	Address    string    // farmers.address
	IsVerified bool      // farmers.is_verified
	CreatedAt  time.Time // farmers.created_at
}

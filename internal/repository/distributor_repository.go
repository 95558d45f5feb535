package repository

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"
)

// DistributorRepo reads the distributor directory.
type DistributorRepo struct {
	db *sql.DB
}

// NewDistributorRepo returns a new DistributorRepo bound to the given database.
func NewDistributorRepo(db *sql.DB) *DistributorRepo { return &DistributorRepo{db: db} }

// DistributorRow mirrors the distributors table.
type DistributorRow struct {
	ID                   uint64          `json:"id"`
	Name                 string          `json:"name"`
	CommissionPercentage decimal.Decimal `json:"commission_percentage"`
	Phone                string          `json:"phone"`
	Address              string          `json:"address"`
}

// ListByProvince returns the active distributors serving a province.
func (r *DistributorRepo) ListByProvince(ctx context.Context, provinceID uint64) ([]DistributorRow, error) {
	const q = `SELECT id, name, commission_percentage, phone, address
	           FROM distributors
	           WHERE province_id = ? AND is_active = 1
	           ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q, provinceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]DistributorRow, 0)
	for rows.Next() {
		var d DistributorRow
		var phone, addr sql.NullString
		if err := rows.Scan(&d.ID, &d.Name, &d.CommissionPercentage, &phone, &addr); err != nil {
			return nil, err
		}
		d.Phone = phone.String
		d.Address = addr.String
		out = append(out, d)
	}
	return out, rows.Err()
}

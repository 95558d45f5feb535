package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"
)

// VarietyRepo reads the seed variety catalog. Varieties are reference
// data: the engine never writes them.
type VarietyRepo struct {
	db *sql.DB
}

// NewVarietyRepo returns a new VarietyRepo bound to the given database.
func NewVarietyRepo(db *sql.DB) *VarietyRepo { return &VarietyRepo{db: db} }

// VarietyRow mirrors the seed_varieties table.
type VarietyRow struct {
	ID          uint64          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	PricePerKg  decimal.Decimal `json:"price_per_kg"`
	Rank        uint32          `json:"rank"`
	MinOrderKg  float64         `json:"min_order_kg"`
	MaxOrderKg  float64         `json:"max_order_kg"`
}

// ListActive returns all active varieties ordered by quality rank then
// name, matching the farmer-facing catalog ordering.
func (r *VarietyRepo) ListActive(ctx context.Context) ([]VarietyRow, error) {
	// rank is a reserved word in MySQL 8, hence the quoting.
	const q = "SELECT id, name, description, price_per_kg, `rank`, min_order_kg, max_order_kg " +
		"FROM seed_varieties WHERE is_active = 1 " +
		"ORDER BY `rank` ASC, name ASC"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]VarietyRow, 0)
	for rows.Next() {
		var v VarietyRow
		var desc sql.NullString
		if err := rows.Scan(&v.ID, &v.Name, &desc, &v.PricePerKg, &v.Rank,
			&v.MinOrderKg, &v.MaxOrderKg); err != nil {
			return nil, err
		}
		v.Description = desc.String
		out = append(out, v)
	}
	return out, rows.Err()
}

// GetActive returns one active variety by id, or ErrVarietyNotFound.
func (r *VarietyRepo) GetActive(ctx context.Context, varietyID uint64) (VarietyRow, error) {
	const q = "SELECT id, name, description, price_per_kg, `rank`, min_order_kg, max_order_kg " +
		"FROM seed_varieties WHERE id = ? AND is_active = 1"
	var v VarietyRow
	var desc sql.NullString
	err := r.db.QueryRowContext(ctx, q, varietyID).Scan(
		&v.ID, &v.Name, &desc, &v.PricePerKg, &v.Rank, &v.MinOrderKg, &v.MaxOrderKg)
	if errors.Is(err, sql.ErrNoRows) {
		return VarietyRow{}, ErrVarietyNotFound
	}
	v.Description = desc.String
	return v, err
}

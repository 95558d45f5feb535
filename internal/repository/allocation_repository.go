package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"
)

// AllocationRepo answers "is (province, variety, quantity) orderable?" and
// supplies the effective order bounds for the pair. Allocations are soft
// records: deactivation flips is_active, rows are never deleted, so past
// reservations keep a valid reference.
type AllocationRepo struct {
	db *sql.DB
}

// NewAllocationRepo returns a new AllocationRepo bound to the given database.
func NewAllocationRepo(db *sql.DB) *AllocationRepo { return &AllocationRepo{db: db} }

// AllocationRow mirrors the province_allocations table.
type AllocationRow struct {
	ID                  uint64   `json:"id"`
	ProvinceID          uint64   `json:"province_id"`
	SeedVarietyID       uint64   `json:"seed_variety_id"`
	AllocatedQuantityKg float64  `json:"allocated_quantity_kg"`
	MinOrderKg          *float64 `json:"min_order_kg,omitempty"`
	MaxOrderKg          *float64 `json:"max_order_kg,omitempty"`
	IsActive            bool     `json:"is_active"`
}

// GetActive returns the active allocation for a (province, variety) pair.
// A missing row, an inactive row, or a row with a non-positive allocated
// quantity all mean "not orderable" and yield (nil, nil) rather than an
// error, per the allocation gating rule.
func (r *AllocationRepo) GetActive(ctx context.Context, provinceID, varietyID uint64) (*AllocationRow, error) {
	const q = `SELECT id, province_id, seed_variety_id, allocated_quantity_kg,
	                  min_order_kg, max_order_kg, is_active
	           FROM province_allocations
	           WHERE province_id = ? AND seed_variety_id = ? AND is_active = 1
	             AND allocated_quantity_kg > 0`
	var a AllocationRow
	var minKg, maxKg sql.NullFloat64
	err := r.db.QueryRowContext(ctx, q, provinceID, varietyID).Scan(
		&a.ID, &a.ProvinceID, &a.SeedVarietyID, &a.AllocatedQuantityKg,
		&minKg, &maxKg, &a.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if minKg.Valid {
		v := minKg.Float64
		a.MinOrderKg = &v
	}
	if maxKg.Valid {
		v := maxKg.Float64
		a.MaxOrderKg = &v
	}
	return &a, nil
}

// AllocatedVariety is a catalog entry restricted to one province: the
// variety plus the effective order bounds (province override when present,
// otherwise the variety's global bounds).
type AllocatedVariety struct {
	SeedVarietyID       uint64          `json:"seed_variety_id"`
	Name                string          `json:"name"`
	Description         string          `json:"description"`
	PricePerKg          decimal.Decimal `json:"price_per_kg"`
	Rank                uint32          `json:"rank"`
	AllocatedQuantityKg float64         `json:"allocated_quantity_kg"`
	MinOrderKg          float64         `json:"min_order_kg"`
	MaxOrderKg          float64         `json:"max_order_kg"`
}

// ListAllocatedVarieties returns the varieties a province actually
// carries, with effective bounds resolved via COALESCE. Used to render the
// farmer-facing catalog for the farmer's own province.
func (r *AllocationRepo) ListAllocatedVarieties(ctx context.Context, provinceID uint64) ([]AllocatedVariety, error) {
	const q = "SELECT v.id, v.name, v.description, v.price_per_kg, v.`rank`, " +
		"a.allocated_quantity_kg, " +
		"COALESCE(a.min_order_kg, v.min_order_kg), " +
		"COALESCE(a.max_order_kg, v.max_order_kg) " +
		"FROM province_allocations a " +
		"JOIN seed_varieties v ON v.id = a.seed_variety_id " +
		"WHERE a.province_id = ? AND a.is_active = 1 " +
		"AND a.allocated_quantity_kg > 0 AND v.is_active = 1 " +
		"ORDER BY v.`rank` ASC, v.name ASC"
	rows, err := r.db.QueryContext(ctx, q, provinceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]AllocatedVariety, 0)
	for rows.Next() {
		var av AllocatedVariety
		var desc sql.NullString
		if err := rows.Scan(&av.SeedVarietyID, &av.Name, &desc, &av.PricePerKg, &av.Rank,
			&av.AllocatedQuantityKg, &av.MinOrderKg, &av.MaxOrderKg); err != nil {
			return nil, err
		}
		av.Description = desc.String
		out = append(out, av)
	}
	return out, rows.Err()
}

// Upsert creates or replaces the allocation for a (province, variety)
// pair. The operation is idempotent on the pair key and reactivates a
// previously deactivated row. Select-then-write inside a transaction keeps
// the statement portable across storage engines; the unique key on the
// pair makes a lost race surface as a constraint error rather than a
// duplicate row.
func (r *AllocationRepo) Upsert(ctx context.Context, provinceID, varietyID uint64, allocatedKg float64, minKg, maxKg *float64) (uint64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var id uint64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM province_allocations WHERE province_id = ? AND seed_variety_id = ?`,
		provinceID, varietyID).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, err := tx.ExecContext(ctx,
			`INSERT INTO province_allocations
			 (province_id, seed_variety_id, allocated_quantity_kg, min_order_kg, max_order_kg, is_active)
			 VALUES (?, ?, ?, ?, ?, 1)`,
			provinceID, varietyID, allocatedKg, minKg, maxKg)
		if err != nil {
			return 0, err
		}
		newID, err := res.LastInsertId()
		if err != nil {
			return 0, err
		}
		id = uint64(newID)
	case err != nil:
		return 0, err
	default:
		if _, err := tx.ExecContext(ctx,
			`UPDATE province_allocations
			 SET allocated_quantity_kg = ?, min_order_kg = ?, max_order_kg = ?, is_active = 1
			 WHERE id = ?`,
			allocatedKg, minKg, maxKg, id); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return id, nil
}

// Deactivate soft-deletes an allocation. It returns ErrAllocationNotFound
// when the id does not exist.
func (r *AllocationRepo) Deactivate(ctx context.Context, allocationID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE province_allocations SET is_active = 0 WHERE id = ?`, allocationID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish "missing" from "already inactive": only the former is an error.
		var one int
		err := r.db.QueryRowContext(ctx,
			`SELECT 1 FROM province_allocations WHERE id = ?`, allocationID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAllocationNotFound
		}
		return err
	}
	return nil
}

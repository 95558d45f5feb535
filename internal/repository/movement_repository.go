package repository

import (
	"context"
	"database/sql"
	"time"
)

// MovementRepo is the quota movement log: a pure append-only recorder.
// Rows are written inside the same transaction as the quota delta they
// document and are never updated or deleted afterwards.
type MovementRepo struct {
	db *sql.DB
}

// NewMovementRepo returns a new MovementRepo bound to the given database.
func NewMovementRepo(db *sql.DB) *MovementRepo { return &MovementRepo{db: db} }

// MovementRecord mirrors the quota_movements table for insertion.
type MovementRecord struct {
	ProvinceID          uint64
	ReservationID       *uint64
	MovementType        string // model.MovementDeduction or model.MovementAddition
	QuantityKg          float64
	PreviousRemainingKg float64
	NewRemainingKg      float64
	Description         string
	CreatedBy           string
}

// RecordTx appends one movement row within the caller's transaction.
func (r *MovementRepo) RecordTx(ctx context.Context, tx *sql.Tx, m MovementRecord) error {
	const q = `INSERT INTO quota_movements
	           (province_id, reservation_id, movement_type, quantity_kg,
	            previous_remaining_kg, new_remaining_kg, description, created_by)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q,
		m.ProvinceID, m.ReservationID, m.MovementType, m.QuantityKg,
		m.PreviousRemainingKg, m.NewRemainingKg, m.Description, m.CreatedBy)
	return err
}

// MovementRow is a movement as returned for audit display.
type MovementRow struct {
	ID                  uint64    `json:"id"`
	ProvinceID          uint64    `json:"province_id"`
	ReservationID       *uint64   `json:"reservation_id,omitempty"`
	MovementType        string    `json:"movement_type"`
	QuantityKg          float64   `json:"quantity_kg"`
	PreviousRemainingKg float64   `json:"previous_remaining_kg"`
	NewRemainingKg      float64   `json:"new_remaining_kg"`
	Description         string    `json:"description"`
	CreatedBy           string    `json:"created_by"`
	CreatedAt           time.Time `json:"created_at"`
}

// ListByProvince returns the most recent movements for a province, newest
// first. Audit display only; no core logic reads this back.
func (r *MovementRepo) ListByProvince(ctx context.Context, provinceID uint64, limit int) ([]MovementRow, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	const q = `SELECT id, province_id, reservation_id, movement_type, quantity_kg,
	                  previous_remaining_kg, new_remaining_kg, description, created_by, created_at
	           FROM quota_movements
	           WHERE province_id = ?
	           ORDER BY id DESC
	           LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, provinceID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]MovementRow, 0)
	for rows.Next() {
		var m MovementRow
		var resID sql.NullInt64
		if err := rows.Scan(&m.ID, &m.ProvinceID, &resID, &m.MovementType, &m.QuantityKg,
			&m.PreviousRemainingKg, &m.NewRemainingKg, &m.Description, &m.CreatedBy, &m.CreatedAt); err != nil {
			return nil, err
		}
		if resID.Valid {
			v := uint64(resID.Int64)
			m.ReservationID = &v
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// SumByProvince returns Σ(deductions) − Σ(additions) for a province, used
// by the reconciliation check total − Σmovements == remaining.
func (r *MovementRepo) SumByProvince(ctx context.Context, provinceID uint64) (float64, error) {
	const q = `SELECT COALESCE(SUM(CASE WHEN movement_type = 'deduction' THEN quantity_kg ELSE -quantity_kg END), 0)
	           FROM quota_movements WHERE province_id = ?`
	var sum float64
	err := r.db.QueryRowContext(ctx, q, provinceID).Scan(&sum)
	return sum, err
}

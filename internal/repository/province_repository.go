package repository

import (
	"context"
	"database/sql"
	"errors"
)

// ProvinceRepo is the quota store. It owns reads and writes of the
// per-province quota columns. remaining_kg has exactly two writers:
// ApplyDeltaTx (consumption and credits, always inside the caller's
// transaction) and ResizeQuotaTx (administrative resize).
type ProvinceRepo struct {
	db *sql.DB
}

// NewProvinceRepo returns a new ProvinceRepo bound to the given database.
func NewProvinceRepo(db *sql.DB) *ProvinceRepo { return &ProvinceRepo{db: db} }

// DB exposes the underlying handle so the engine can open transactions.
func (r *ProvinceRepo) DB() *sql.DB { return r.db }

// ProvinceRow mirrors the provinces table.
type ProvinceRow struct {
	ID          uint64  `json:"id"`
	Name        string  `json:"name"`
	QuotaKg     float64 `json:"quota_kg"`
	RemainingKg float64 `json:"remaining_kg"`
	IsActive    bool    `json:"is_active"`
}

// ListActive returns all active provinces ordered by name, for the
// farmer-facing catalog.
func (r *ProvinceRepo) ListActive(ctx context.Context) ([]ProvinceRow, error) {
	const q = `SELECT id, name, quota_kg, remaining_kg, is_active
	           FROM provinces WHERE is_active = 1 ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ProvinceRow, 0)
	for rows.Next() {
		var p ProvinceRow
		if err := rows.Scan(&p.ID, &p.Name, &p.QuotaKg, &p.RemainingKg, &p.IsActive); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetQuota returns the current quota figures for an active province.
// It returns ErrProvinceNotFound when the province is missing or inactive.
func (r *ProvinceRepo) GetQuota(ctx context.Context, provinceID uint64) (ProvinceRow, error) {
	const q = `SELECT id, name, quota_kg, remaining_kg, is_active
	           FROM provinces WHERE id = ? AND is_active = 1`
	var p ProvinceRow
	err := r.db.QueryRowContext(ctx, q, provinceID).Scan(
		&p.ID, &p.Name, &p.QuotaKg, &p.RemainingKg, &p.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return ProvinceRow{}, ErrProvinceNotFound
	}
	return p, err
}

// GetQuotaTx is GetQuota within an existing transaction.
func (r *ProvinceRepo) GetQuotaTx(ctx context.Context, tx *sql.Tx, provinceID uint64) (ProvinceRow, error) {
	const q = `SELECT id, name, quota_kg, remaining_kg, is_active
	           FROM provinces WHERE id = ? AND is_active = 1`
	var p ProvinceRow
	err := tx.QueryRowContext(ctx, q, provinceID).Scan(
		&p.ID, &p.Name, &p.QuotaKg, &p.RemainingKg, &p.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return ProvinceRow{}, ErrProvinceNotFound
	}
	return p, err
}

// ApplyDeltaTx atomically adjusts a province's remaining quota by deltaKg
// (negative for a deduction, positive for a credit). The balance check and
// the write happen in one conditional UPDATE, so two concurrent approvals
// drawing on the same province cannot both pass a stale read: the statement
// only takes effect when the resulting balance stays within
// [0, quota_kg]. The upper bound also keeps a stray credit from lifting the
// balance above the total.
//
// On success it returns the balances before and after the adjustment. When
// the guard rejects the update it returns ErrInsufficientQuota, or
// ErrProvinceNotFound when the province is missing or inactive.
func (r *ProvinceRepo) ApplyDeltaTx(ctx context.Context, tx *sql.Tx, provinceID uint64, deltaKg float64) (prev, next float64, err error) {
	const upd = `UPDATE provinces
	             SET remaining_kg = remaining_kg + ?
	             WHERE id = ? AND is_active = 1
	               AND remaining_kg + ? >= 0
	               AND remaining_kg + ? <= quota_kg`
	res, err := tx.ExecContext(ctx, upd, deltaKg, provinceID, deltaKg, deltaKg)
	if err != nil {
		return 0, 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, 0, err
	}
	if n == 0 {
		var one int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM provinces WHERE id = ? AND is_active = 1`, provinceID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, ErrProvinceNotFound
		}
		if err != nil {
			return 0, 0, err
		}
		return 0, 0, ErrInsufficientQuota
	}
	if err := tx.QueryRowContext(ctx,
		`SELECT remaining_kg FROM provinces WHERE id = ?`, provinceID).Scan(&next); err != nil {
		return 0, 0, err
	}
	return next - deltaKg, next, nil
}

// ResizeQuotaTx sets a new total quota, preserving the consumed amount:
// the new remaining balance is newTotalKg minus what is already consumed
// (quota_kg - remaining_kg). It returns ErrInvalidQuota when newTotalKg is
// non-positive or below the consumed amount. Resize deliberately writes no
// quota movement; movements record consumption, not capacity changes.
func (r *ProvinceRepo) ResizeQuotaTx(ctx context.Context, tx *sql.Tx, provinceID uint64, newTotalKg float64) (ProvinceRow, error) {
	if newTotalKg <= 0 {
		return ProvinceRow{}, ErrInvalidQuota
	}
	p, err := r.GetQuotaTx(ctx, tx, provinceID)
	if err != nil {
		return ProvinceRow{}, err
	}
	consumed := p.QuotaKg - p.RemainingKg
	newRemaining := newTotalKg - consumed
	if newRemaining < 0 {
		return ProvinceRow{}, ErrInvalidQuota
	}
	const upd = `UPDATE provinces SET quota_kg = ?, remaining_kg = ? WHERE id = ?`
	if _, err := tx.ExecContext(ctx, upd, newTotalKg, newRemaining, provinceID); err != nil {
		return ProvinceRow{}, err
	}
	p.QuotaKg = newTotalKg
	p.RemainingKg = newRemaining
	return p, nil
}

// ConsumptionRow is one line of the per-province consumption report.
type ConsumptionRow struct {
	ProvinceID      uint64  `json:"province_id"`
	ProvinceName    string  `json:"province_name"`
	QuotaKg         float64 `json:"quota_kg"`
	RemainingKg     float64 `json:"remaining_kg"`
	ConsumedKg      float64 `json:"consumed_kg"`
	ConsumedPercent float64 `json:"consumed_percent"`
	Pending         int64   `json:"pending"`
	Approved        int64   `json:"approved"`
	Rejected        int64   `json:"rejected"`
	Delivered       int64   `json:"delivered"`
}

// ConsumptionSummary aggregates quota usage and reservation counts per
// active province. This is a derived read used for the staff report; no
// core logic depends on it.
func (r *ProvinceRepo) ConsumptionSummary(ctx context.Context) ([]ConsumptionRow, error) {
	const q = `SELECT p.id, p.name, p.quota_kg, p.remaining_kg,
	                  SUM(CASE WHEN r.status = 'pending'   THEN 1 ELSE 0 END),
	                  SUM(CASE WHEN r.status = 'approved'  THEN 1 ELSE 0 END),
	                  SUM(CASE WHEN r.status = 'rejected'  THEN 1 ELSE 0 END),
	                  SUM(CASE WHEN r.status = 'delivered' THEN 1 ELSE 0 END)
	           FROM provinces p
	           LEFT JOIN reservations r ON r.province_id = p.id
	           WHERE p.is_active = 1
	           GROUP BY p.id, p.name, p.quota_kg, p.remaining_kg
	           ORDER BY p.name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ConsumptionRow, 0)
	for rows.Next() {
		var c ConsumptionRow
		var pending, approved, rejected, delivered sql.NullInt64
		if err := rows.Scan(&c.ProvinceID, &c.ProvinceName, &c.QuotaKg, &c.RemainingKg,
			&pending, &approved, &rejected, &delivered); err != nil {
			return nil, err
		}
		c.Pending = pending.Int64
		c.Approved = approved.Int64
		c.Rejected = rejected.Int64
		c.Delivered = delivered.Int64
		c.ConsumedKg = c.QuotaKg - c.RemainingKg
		if c.QuotaKg > 0 {
			c.ConsumedPercent = c.ConsumedKg / c.QuotaKg * 100
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

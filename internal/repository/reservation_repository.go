package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ReservationRepo provides persistence for reservations and their line
// items. It never decides anything about status or quota: the reservation
// engine owns the state machine and drives the *Tx methods inside a single
// transaction per operation. All timestamp fields are stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle so the engine can open transactions.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

// ReservationRecord mirrors the schema of the reservations table. It is
// used internally by the repository and the engine when constructing or
// scanning rows; display code should use ReservationDetail instead.
type ReservationRecord struct {
	ID                 uint64
	FarmerID           uint64
	ProvinceID         uint64
	DistributorID      *uint64
	TotalQuantityKg    float64
	TotalAmount        decimal.Decimal
	DeliveryDate       time.Time
	DistributionMethod string
	Status             string
	Notes              *string
}

// ItemRecord mirrors the reservation_items table. Only fields needed for
// insertion are exposed.
type ItemRecord struct {
	ReservationID uint64
	SeedVarietyID uint64
	QuantityKg    float64
	UnitPrice     decimal.Decimal
	TotalPrice    decimal.Decimal
}

// CreateTx inserts a new reservation within the scope of an existing
// transaction and populates the generated ID on the provided record. The
// caller must commit or rollback the transaction. Status should be one of
// the model status constants; new reservations start pending.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, rec *ReservationRecord) error {
	const q = `INSERT INTO reservations
	           (farmer_id, province_id, distributor_id, total_quantity_kg, total_amount,
	            delivery_date, distribution_method, status, notes)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		rec.FarmerID, rec.ProvinceID, rec.DistributorID, rec.TotalQuantityKg,
		rec.TotalAmount, rec.DeliveryDate, rec.DistributionMethod, rec.Status, rec.Notes)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = uint64(id)
	return nil
}

// CreateItemsBulkTx inserts multiple reservation_items rows in a single
// statement. The caller must supply the reservation ID in each record.
// Passing an empty slice has no effect and returns nil.
func (r *ReservationRepo) CreateItemsBulkTx(ctx context.Context, tx *sql.Tx, items []ItemRecord) error {
	if len(items) == 0 {
		return nil
	}
	query := `INSERT INTO reservation_items (reservation_id, seed_variety_id, quantity_kg, unit_price, total_price) VALUES `
	args := make([]interface{}, 0, len(items)*5)
	for i, it := range items {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?)"
		args = append(args, it.ReservationID, it.SeedVarietyID, it.QuantityKg, it.UnitPrice, it.TotalPrice)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// ReplaceItemsTx deletes all line items of a reservation and inserts the
// given replacements. Items are replaced wholesale on edit, never patched,
// so the reservation's cached totals cannot drift from its lines.
func (r *ReservationRepo) ReplaceItemsTx(ctx context.Context, tx *sql.Tx, reservationID uint64, items []ItemRecord) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM reservation_items WHERE reservation_id = ?`, reservationID); err != nil {
		return err
	}
	return r.CreateItemsBulkTx(ctx, tx, items)
}

// HeaderTx is the slice of a reservation the engine needs to drive a
// status transition or an edit.
type HeaderTx struct {
	ID              uint64
	FarmerID        uint64
	ProvinceID      uint64
	Status          string
	TotalQuantityKg float64
	EditedByAdmin   bool
}

// GetHeaderTx loads the transition-relevant columns of a reservation
// within a transaction. Returns ErrReservationNotFound when the id does
// not exist.
func (r *ReservationRepo) GetHeaderTx(ctx context.Context, tx *sql.Tx, reservationID uint64) (HeaderTx, error) {
	const q = `SELECT id, farmer_id, province_id, status, total_quantity_kg, edited_by_admin
	           FROM reservations WHERE id = ?`
	var h HeaderTx
	err := tx.QueryRowContext(ctx, q, reservationID).Scan(
		&h.ID, &h.FarmerID, &h.ProvinceID, &h.Status, &h.TotalQuantityKg, &h.EditedByAdmin)
	if errors.Is(err, sql.ErrNoRows) {
		return HeaderTx{}, ErrReservationNotFound
	}
	return h, err
}

// UpdateStatusTx persists a new status. When adminNotes is non-nil the
// notes are written alongside; otherwise existing notes are preserved.
func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, reservationID uint64, status string, adminNotes *string) error {
	if adminNotes != nil {
		_, err := tx.ExecContext(ctx,
			`UPDATE reservations SET status = ?, admin_notes = ? WHERE id = ?`,
			status, *adminNotes, reservationID)
		return err
	}
	_, err := tx.ExecContext(ctx,
		`UPDATE reservations SET status = ? WHERE id = ?`, status, reservationID)
	return err
}

// UpdateAdminNotesTx persists admin notes without touching the status.
// Used by same-state transitions, which are no-ops quota-wise but may
// still carry an operator remark.
func (r *ReservationRepo) UpdateAdminNotesTx(ctx context.Context, tx *sql.Tx, reservationID uint64, adminNotes string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE reservations SET admin_notes = ? WHERE id = ?`, adminNotes, reservationID)
	return err
}

// SnapshotOriginalsTx copies the current totals into the original_* audit
// columns, once. The edited_by_admin guard in the WHERE clause makes the
// snapshot first-edit-only: subsequent edits match zero rows and leave the
// original values untouched.
func (r *ReservationRepo) SnapshotOriginalsTx(ctx context.Context, tx *sql.Tx, reservationID uint64) error {
	const q = `UPDATE reservations
	           SET original_total_quantity_kg = total_quantity_kg,
	               original_total_amount = total_amount,
	               edited_by_admin = 1
	           WHERE id = ? AND edited_by_admin = 0`
	_, err := tx.ExecContext(ctx, q, reservationID)
	return err
}

// UpdateEditTx persists the recomputed totals, the new delivery date and
// the edit reason after a line-item replacement.
func (r *ReservationRepo) UpdateEditTx(ctx context.Context, tx *sql.Tx, reservationID uint64, totalKg float64, totalAmount decimal.Decimal, deliveryDate time.Time, editReason string) error {
	const q = `UPDATE reservations
	           SET total_quantity_kg = ?, total_amount = ?, delivery_date = ?, edit_reason = ?
	           WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, totalKg, totalAmount, deliveryDate, editReason, reservationID)
	return err
}

// ItemDetail is one line of a reservation as returned to callers.
type ItemDetail struct {
	SeedVarietyID uint64          `json:"seed_variety_id"`
	VarietyName   string          `json:"variety_name"`
	QuantityKg    float64         `json:"quantity_kg"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TotalPrice    decimal.Decimal `json:"total_price"`
}

// ReservationDetail aggregates a reservation with farmer, province and
// distributor names and its line items, for display.
type ReservationDetail struct {
	ID                      uint64           `json:"id"`
	FarmerID                uint64           `json:"farmer_id"`
	FarmerName              string           `json:"farmer_name"`
	ProvinceID              uint64           `json:"province_id"`
	ProvinceName            string           `json:"province_name"`
	DistributorID           *uint64          `json:"distributor_id,omitempty"`
	DistributorName         *string          `json:"distributor_name,omitempty"`
	TotalQuantityKg         float64          `json:"total_quantity_kg"`
	TotalAmount             decimal.Decimal  `json:"total_amount"`
	DeliveryDate            string           `json:"delivery_date"`
	DistributionMethod      string           `json:"distribution_method"`
	Status                  string           `json:"status"`
	Notes                   *string          `json:"notes,omitempty"`
	AdminNotes              *string          `json:"admin_notes,omitempty"`
	OriginalTotalQuantityKg *float64         `json:"original_total_quantity_kg,omitempty"`
	OriginalTotalAmount     *decimal.Decimal `json:"original_total_amount,omitempty"`
	EditedByAdmin           bool             `json:"edited_by_admin"`
	EditReason              *string          `json:"edit_reason,omitempty"`
	CreatedAt               time.Time        `json:"created_at"`
	Items                   []ItemDetail     `json:"items"`
}

const detailSelect = `SELECT r.id, r.farmer_id, f.name, r.province_id, p.name,
       r.distributor_id, d.name,
       r.total_quantity_kg, r.total_amount, r.delivery_date,
       r.distribution_method, r.status, r.notes, r.admin_notes,
       r.original_total_quantity_kg, r.original_total_amount,
       r.edited_by_admin, r.edit_reason, r.created_at
FROM reservations r
JOIN farmers f ON f.id = r.farmer_id
JOIN provinces p ON p.id = r.province_id
LEFT JOIN distributors d ON d.id = r.distributor_id`

func scanDetail(scan func(dest ...interface{}) error) (ReservationDetail, error) {
	var det ReservationDetail
	var distID sql.NullInt64
	var distName, notes, adminNotes, editReason sql.NullString
	var origKg sql.NullFloat64
	var origAmount decimal.NullDecimal
	var delivery time.Time
	err := scan(
		&det.ID, &det.FarmerID, &det.FarmerName, &det.ProvinceID, &det.ProvinceName,
		&distID, &distName,
		&det.TotalQuantityKg, &det.TotalAmount, &delivery,
		&det.DistributionMethod, &det.Status, &notes, &adminNotes,
		&origKg, &origAmount,
		&det.EditedByAdmin, &editReason, &det.CreatedAt,
	)
	if err != nil {
		return ReservationDetail{}, err
	}
	det.DeliveryDate = delivery.Format("2006-01-02")
	if distID.Valid {
		v := uint64(distID.Int64)
		det.DistributorID = &v
	}
	if distName.Valid {
		v := distName.String
		det.DistributorName = &v
	}
	if notes.Valid {
		v := notes.String
		det.Notes = &v
	}
	if adminNotes.Valid {
		v := adminNotes.String
		det.AdminNotes = &v
	}
	if editReason.Valid {
		v := editReason.String
		det.EditReason = &v
	}
	if origKg.Valid {
		v := origKg.Float64
		det.OriginalTotalQuantityKg = &v
	}
	if origAmount.Valid {
		v := origAmount.Decimal
		det.OriginalTotalAmount = &v
	}
	det.Items = []ItemDetail{}
	return det, nil
}

// GetByID returns one reservation with its items. Returns
// ErrReservationNotFound when the id does not exist.
func (r *ReservationRepo) GetByID(ctx context.Context, reservationID uint64) (*ReservationDetail, error) {
	row := r.db.QueryRowContext(ctx, detailSelect+` WHERE r.id = ?`, reservationID)
	det, err := scanDetail(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	items, err := r.loadItems(ctx, []uint64{det.ID})
	if err != nil {
		return nil, err
	}
	det.Items = items[det.ID]
	if det.Items == nil {
		det.Items = []ItemDetail{}
	}
	return &det, nil
}

// ListByFarmer returns all reservations of one farmer, newest first,
// items included.
func (r *ReservationRepo) ListByFarmer(ctx context.Context, farmerID uint64) ([]ReservationDetail, error) {
	return r.list(ctx, detailSelect+` WHERE r.farmer_id = ? ORDER BY r.created_at DESC, r.id DESC`, farmerID)
}

// List returns reservations for staff review, newest first, optionally
// filtered by status. An empty status means no filter.
func (r *ReservationRepo) List(ctx context.Context, status string) ([]ReservationDetail, error) {
	if status != "" {
		return r.list(ctx, detailSelect+` WHERE r.status = ? ORDER BY r.created_at DESC, r.id DESC`, status)
	}
	return r.list(ctx, detailSelect+` ORDER BY r.created_at DESC, r.id DESC`)
}

func (r *ReservationRepo) list(ctx context.Context, query string, args ...interface{}) ([]ReservationDetail, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]ReservationDetail, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		det, err := scanDetail(rows.Scan)
		if err != nil {
			return nil, err
		}
		index[det.ID] = len(details)
		details = append(details, det)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return details, nil
	}
	ids := make([]uint64, 0, len(details))
	for _, d := range details {
		ids = append(ids, d.ID)
	}
	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for rid, its := range items {
		if idx, ok := index[rid]; ok {
			details[idx].Items = its
		}
	}
	return details, nil
}

// loadItems fetches line items for a set of reservations in one query.
func (r *ReservationRepo) loadItems(ctx context.Context, reservationIDs []uint64) (map[uint64][]ItemDetail, error) {
	if len(reservationIDs) == 0 {
		return map[uint64][]ItemDetail{}, nil
	}
	placeholders := make([]string, 0, len(reservationIDs))
	args := make([]interface{}, 0, len(reservationIDs))
	for _, id := range reservationIDs {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}
	query := `SELECT i.reservation_id, i.seed_variety_id, v.name, i.quantity_kg, i.unit_price, i.total_price
	          FROM reservation_items i
	          JOIN seed_varieties v ON v.id = i.seed_variety_id
	          WHERE i.reservation_id IN (` + strings.Join(placeholders, ",") + `)
	          ORDER BY i.reservation_id, i.id`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[uint64][]ItemDetail)
	for rows.Next() {
		var rid uint64
		var it ItemDetail
		if err := rows.Scan(&rid, &it.SeedVarietyID, &it.VarietyName, &it.QuantityKg, &it.UnitPrice, &it.TotalPrice); err != nil {
			return nil, err
		}
		out[rid] = append(out[rid], it)
	}
	return out, rows.Err()
}

package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/agrihub/seed-reservation/internal/model"
	"github.com/agrihub/seed-reservation/internal/repository"
)

var testDBSeq uint64

// newTestDB opens a fresh shared-cache in-memory database and creates the
// schema. Shared cache keeps the pool's connections on the same database.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:enginetest_%d?mode=memory&cache=shared&_fk=1",
		atomic.AddUint64(&testDBSeq, 1))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	stmts := []string{
		`CREATE TABLE provinces (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			quota_kg REAL NOT NULL,
			remaining_kg REAL NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 1
		)`,
		"CREATE TABLE seed_varieties (" +
			"id INTEGER PRIMARY KEY AUTOINCREMENT," +
			"name TEXT NOT NULL," +
			"description TEXT," +
			"price_per_kg TEXT NOT NULL," +
			"`rank` INTEGER NOT NULL DEFAULT 1," +
			"min_order_kg REAL NOT NULL DEFAULT 1," +
			"max_order_kg REAL NOT NULL DEFAULT 10000," +
			"is_active INTEGER NOT NULL DEFAULT 1" +
			")",
		`CREATE TABLE province_allocations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			province_id INTEGER NOT NULL,
			seed_variety_id INTEGER NOT NULL,
			allocated_quantity_kg REAL NOT NULL,
			min_order_kg REAL,
			max_order_kg REAL,
			is_active INTEGER NOT NULL DEFAULT 1,
			UNIQUE (province_id, seed_variety_id)
		)`,
		`CREATE TABLE farmers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			id_number TEXT NOT NULL UNIQUE,
			phone TEXT NOT NULL,
			province_id INTEGER NOT NULL,
			address TEXT,
			is_verified INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE distributors (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			province_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			commission_percentage TEXT NOT NULL DEFAULT '0',
			phone TEXT,
			address TEXT,
			is_active INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE reservations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			farmer_id INTEGER NOT NULL,
			province_id INTEGER NOT NULL,
			distributor_id INTEGER,
			total_quantity_kg REAL NOT NULL,
			total_amount TEXT NOT NULL,
			delivery_date DATE NOT NULL,
			distribution_method TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			notes TEXT,
			admin_notes TEXT,
			original_total_quantity_kg REAL,
			original_total_amount TEXT,
			edited_by_admin INTEGER NOT NULL DEFAULT 0,
			edit_reason TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE reservation_items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			reservation_id INTEGER NOT NULL REFERENCES reservations(id) ON DELETE CASCADE,
			seed_variety_id INTEGER NOT NULL,
			quantity_kg REAL NOT NULL,
			unit_price TEXT NOT NULL,
			total_price TEXT NOT NULL
		)`,
		`CREATE TABLE quota_movements (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			province_id INTEGER NOT NULL,
			reservation_id INTEGER,
			movement_type TEXT NOT NULL,
			quantity_kg REAL NOT NULL,
			previous_remaining_kg REAL NOT NULL,
			new_remaining_kg REAL NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_by TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE staff (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			full_name TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT 'STAFF',
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("failed to create schema: %v", err)
		}
	}

	t.Cleanup(func() {
		db.Close()
	})
	return db
}

// fixture holds the seeded ids every engine test starts from: one province
// with a 100 kg quota, one allocated variety at 10.00 per kg, one farmer.
type fixture struct {
	eng        *Engine
	db         *sql.DB
	provinces  *repository.ProvinceRepo
	movements  *repository.MovementRepo
	provinceID uint64
	varietyID  uint64
	farmerID   uint64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)

	mustExec(t, db, `INSERT INTO provinces (name, quota_kg, remaining_kg) VALUES ('Herat', 100, 100)`)
	mustExec(t, db, "INSERT INTO seed_varieties (name, price_per_kg, `rank`, min_order_kg, max_order_kg) VALUES ('Kabul Wheat', '10', 1, 5, 500)")
	mustExec(t, db, `INSERT INTO province_allocations (province_id, seed_variety_id, allocated_quantity_kg) VALUES (1, 1, 1000)`)
	mustExec(t, db, `INSERT INTO farmers (name, id_number, phone, province_id) VALUES ('Ahmad', '1390-0001', '070', 1)`)

	provinces := repository.NewProvinceRepo(db)
	movements := repository.NewMovementRepo(db)
	eng := New(db,
		provinces,
		repository.NewVarietyRepo(db),
		repository.NewAllocationRepo(db),
		repository.NewFarmerRepo(db),
		repository.NewReservationRepo(db),
		movements,
	)
	return &fixture{
		eng:        eng,
		db:         db,
		provinces:  provinces,
		movements:  movements,
		provinceID: 1,
		varietyID:  1,
		farmerID:   1,
	}
}

func mustExec(t *testing.T, db *sql.DB, query string, args ...interface{}) {
	t.Helper()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

func (f *fixture) create(t *testing.T, quantityKg float64) *repository.ReservationDetail {
	t.Helper()
	det, err := f.eng.CreateReservation(context.Background(), CreateInput{
		FarmerID:           f.farmerID,
		DeliveryDate:       time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		DistributionMethod: model.MethodDirect,
		Items:              []ItemInput{{SeedVarietyID: f.varietyID, QuantityKg: quantityKg}},
	})
	if err != nil {
		t.Fatalf("create reservation: %v", err)
	}
	return det
}

func (f *fixture) setStatus(t *testing.T, id uint64, status string) *StatusChange {
	t.Helper()
	ch, err := f.eng.SetStatus(context.Background(), id, status, nil, "tester")
	if err != nil {
		t.Fatalf("set status %s: %v", status, err)
	}
	return ch
}

func (f *fixture) remaining(t *testing.T) float64 {
	t.Helper()
	p, err := f.provinces.GetQuota(context.Background(), f.provinceID)
	if err != nil {
		t.Fatalf("get quota: %v", err)
	}
	return p.RemainingKg
}

func (f *fixture) movementCount(t *testing.T) int {
	t.Helper()
	rows, err := f.movements.ListByProvince(context.Background(), f.provinceID, 100)
	if err != nil {
		t.Fatalf("list movements: %v", err)
	}
	return len(rows)
}

func TestCreateReservationStaysPending(t *testing.T) {
	f := newFixture(t)

	det, err := f.eng.CreateReservation(context.Background(), CreateInput{
		FarmerID:           f.farmerID,
		DeliveryDate:       time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		DistributionMethod: model.MethodDirect,
		Items: []ItemInput{
			{SeedVarietyID: f.varietyID, QuantityKg: 25},
			{SeedVarietyID: f.varietyID, QuantityKg: 15},
		},
	})
	if err != nil {
		t.Fatalf("create reservation: %v", err)
	}
	if det.Status != model.StatusPending {
		t.Errorf("status = %q, want pending", det.Status)
	}
	if det.TotalQuantityKg != 40 {
		t.Errorf("total quantity = %v, want 40", det.TotalQuantityKg)
	}
	if want := decimal.RequireFromString("400"); !det.TotalAmount.Equal(want) {
		t.Errorf("total amount = %s, want %s", det.TotalAmount, want)
	}
	if len(det.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(det.Items))
	}
	if det.DeliveryDate != "2026-09-15" {
		t.Errorf("delivery date = %q", det.DeliveryDate)
	}

	// Creation must not touch the quota or the movement log.
	if got := f.remaining(t); got != 100 {
		t.Errorf("remaining after create = %v, want 100", got)
	}
	if got := f.movementCount(t); got != 0 {
		t.Errorf("movements after create = %d, want 0", got)
	}
}

func TestApproveDebitsQuotaAndLogsMovement(t *testing.T) {
	f := newFixture(t)
	det := f.create(t, 40)

	ch := f.setStatus(t, det.ID, model.StatusApproved)
	if !ch.Changed {
		t.Fatal("expected a real transition")
	}
	if ch.PreviousRemainingKg != 100 || ch.NewRemainingKg != 60 {
		t.Errorf("balances = %v -> %v, want 100 -> 60", ch.PreviousRemainingKg, ch.NewRemainingKg)
	}
	if got := f.remaining(t); got != 60 {
		t.Errorf("remaining = %v, want 60", got)
	}

	rows, err := f.movements.ListByProvince(context.Background(), f.provinceID, 10)
	if err != nil {
		t.Fatalf("list movements: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("movements = %d, want 1", len(rows))
	}
	m := rows[0]
	if m.MovementType != model.MovementDeduction {
		t.Errorf("movement type = %q, want deduction", m.MovementType)
	}
	if m.QuantityKg != 40 || m.PreviousRemainingKg != 100 || m.NewRemainingKg != 60 {
		t.Errorf("movement figures = %v/%v/%v", m.QuantityKg, m.PreviousRemainingKg, m.NewRemainingKg)
	}
	if m.ReservationID == nil || *m.ReservationID != det.ID {
		t.Errorf("movement reservation id = %v", m.ReservationID)
	}
	if m.CreatedBy != "tester" {
		t.Errorf("movement created_by = %q", m.CreatedBy)
	}
}

func TestSameStatusIsNoOp(t *testing.T) {
	f := newFixture(t)
	det := f.create(t, 40)
	f.setStatus(t, det.ID, model.StatusApproved)

	notes := "double checked"
	ch, err := f.eng.SetStatus(context.Background(), det.ID, model.StatusApproved, &notes, "tester")
	if err != nil {
		t.Fatalf("same-state set status: %v", err)
	}
	if ch.Changed {
		t.Error("same-state call reported a change")
	}
	if got := f.remaining(t); got != 60 {
		t.Errorf("remaining = %v, want 60 (unchanged)", got)
	}
	if got := f.movementCount(t); got != 1 {
		t.Errorf("movements = %d, want 1 (no duplicate)", got)
	}

	after, err := repository.NewReservationRepo(f.db).GetByID(context.Background(), det.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if after.AdminNotes == nil || *after.AdminNotes != notes {
		t.Errorf("admin notes = %v, want %q", after.AdminNotes, notes)
	}
	if after.Status != model.StatusApproved {
		t.Errorf("status = %q", after.Status)
	}
}

func TestApproveThenRejectRestoresQuota(t *testing.T) {
	f := newFixture(t)
	det := f.create(t, 40)

	f.setStatus(t, det.ID, model.StatusApproved)
	ch := f.setStatus(t, det.ID, model.StatusRejected)
	if ch.PreviousRemainingKg != 60 || ch.NewRemainingKg != 100 {
		t.Errorf("balances = %v -> %v, want 60 -> 100", ch.PreviousRemainingKg, ch.NewRemainingKg)
	}
	if got := f.remaining(t); got != 100 {
		t.Errorf("remaining = %v, want 100 (fully restored)", got)
	}
	if got := f.movementCount(t); got != 2 {
		t.Errorf("movements = %d, want 2", got)
	}
}

func TestApproveThenUnapproveRestoresQuota(t *testing.T) {
	f := newFixture(t)
	det := f.create(t, 40)

	f.setStatus(t, det.ID, model.StatusApproved)
	f.setStatus(t, det.ID, model.StatusPending)
	if got := f.remaining(t); got != 100 {
		t.Errorf("remaining = %v, want 100", got)
	}

	// The reservation is pending again, so a second approval works.
	f.setStatus(t, det.ID, model.StatusApproved)
	if got := f.remaining(t); got != 60 {
		t.Errorf("remaining = %v, want 60", got)
	}
}

func TestApprovalFailsOnInsufficientQuota(t *testing.T) {
	f := newFixture(t)
	first := f.create(t, 70)
	second := f.create(t, 40) // advisory check passes: 40 <= 100

	f.setStatus(t, first.ID, model.StatusApproved)

	_, err := f.eng.SetStatus(context.Background(), second.ID, model.StatusApproved, nil, "tester")
	if !errors.Is(err, repository.ErrInsufficientQuota) {
		t.Fatalf("expected ErrInsufficientQuota, got %v", err)
	}

	// The refused approval must leave everything untouched.
	if got := f.remaining(t); got != 30 {
		t.Errorf("remaining = %v, want 30", got)
	}
	after, err := repository.NewReservationRepo(f.db).GetByID(context.Background(), second.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if after.Status != model.StatusPending {
		t.Errorf("status = %q, want pending", after.Status)
	}
	if got := f.movementCount(t); got != 1 {
		t.Errorf("movements = %d, want 1", got)
	}
}

func TestCreateRefusedWhenExceedingRemaining(t *testing.T) {
	f := newFixture(t)
	det := f.create(t, 70)
	f.setStatus(t, det.ID, model.StatusApproved) // remaining 30

	_, err := f.eng.CreateReservation(context.Background(), CreateInput{
		FarmerID:           f.farmerID,
		DeliveryDate:       time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		DistributionMethod: model.MethodDirect,
		Items:              []ItemInput{{SeedVarietyID: f.varietyID, QuantityKg: 50}},
	})
	if !errors.Is(err, repository.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
}

func TestQuotaLifecycleScenario(t *testing.T) {
	f := newFixture(t)

	r1 := f.create(t, 40)
	f.setStatus(t, r1.ID, model.StatusApproved)
	if got := f.remaining(t); got != 60 {
		t.Fatalf("after approve 40: remaining = %v, want 60", got)
	}

	f.setStatus(t, r1.ID, model.StatusRejected)
	if got := f.remaining(t); got != 100 {
		t.Fatalf("after reject: remaining = %v, want 100", got)
	}

	r2 := f.create(t, 70)
	f.setStatus(t, r2.ID, model.StatusApproved)
	if got := f.remaining(t); got != 30 {
		t.Fatalf("after approve 70: remaining = %v, want 30", got)
	}

	if _, err := f.eng.CreateReservation(context.Background(), CreateInput{
		FarmerID:           f.farmerID,
		DeliveryDate:       time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		DistributionMethod: model.MethodDirect,
		Items:              []ItemInput{{SeedVarietyID: f.varietyID, QuantityKg: 50}},
	}); !errors.Is(err, repository.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded for 50 > 30, got %v", err)
	}
}

func TestTerminalStatesBlockTransitions(t *testing.T) {
	f := newFixture(t)

	rejected := f.create(t, 10)
	f.setStatus(t, rejected.ID, model.StatusRejected)
	if _, err := f.eng.SetStatus(context.Background(), rejected.ID, model.StatusApproved, nil, "tester"); !errors.Is(err, repository.ErrInvalidTransition) {
		t.Errorf("rejected -> approved: expected ErrInvalidTransition, got %v", err)
	}

	delivered := f.create(t, 10)
	f.setStatus(t, delivered.ID, model.StatusApproved)
	f.setStatus(t, delivered.ID, model.StatusDelivered)
	if got := f.remaining(t); got != 90 {
		t.Errorf("delivery moved quota: remaining = %v, want 90", got)
	}
	if _, err := f.eng.SetStatus(context.Background(), delivered.ID, model.StatusPending, nil, "tester"); !errors.Is(err, repository.ErrInvalidTransition) {
		t.Errorf("delivered -> pending: expected ErrInvalidTransition, got %v", err)
	}
}

func TestEditSnapshotsOriginalsOnce(t *testing.T) {
	f := newFixture(t)
	det := f.create(t, 40)

	first, err := f.eng.EditPending(context.Background(), det.ID, EditInput{
		Items:        []ItemInput{{SeedVarietyID: f.varietyID, QuantityKg: 30}},
		DeliveryDate: time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC),
		EditReason:   "stock shortage",
	})
	if err != nil {
		t.Fatalf("first edit: %v", err)
	}
	if first.TotalQuantityKg != 30 {
		t.Errorf("total after first edit = %v, want 30", first.TotalQuantityKg)
	}
	if !first.EditedByAdmin {
		t.Error("edited_by_admin not set")
	}
	if first.OriginalTotalQuantityKg == nil || *first.OriginalTotalQuantityKg != 40 {
		t.Errorf("original quantity = %v, want 40", first.OriginalTotalQuantityKg)
	}
	if first.OriginalTotalAmount == nil || !first.OriginalTotalAmount.Equal(decimal.RequireFromString("400")) {
		t.Errorf("original amount = %v, want 400", first.OriginalTotalAmount)
	}

	second, err := f.eng.EditPending(context.Background(), det.ID, EditInput{
		Items:        []ItemInput{{SeedVarietyID: f.varietyID, QuantityKg: 20}},
		DeliveryDate: time.Date(2026, 9, 25, 0, 0, 0, 0, time.UTC),
		EditReason:   "farmer request",
	})
	if err != nil {
		t.Fatalf("second edit: %v", err)
	}
	if second.TotalQuantityKg != 20 {
		t.Errorf("total after second edit = %v, want 20", second.TotalQuantityKg)
	}
	// The snapshot still reflects the state before the FIRST edit.
	if second.OriginalTotalQuantityKg == nil || *second.OriginalTotalQuantityKg != 40 {
		t.Errorf("original quantity after second edit = %v, want 40", second.OriginalTotalQuantityKg)
	}
	if second.EditReason == nil || *second.EditReason != "farmer request" {
		t.Errorf("edit reason = %v", second.EditReason)
	}
	if len(second.Items) != 1 || second.Items[0].QuantityKg != 20 {
		t.Errorf("items after edit = %+v", second.Items)
	}

	// Edits never touch the quota.
	if got := f.remaining(t); got != 100 {
		t.Errorf("remaining = %v, want 100", got)
	}
	if got := f.movementCount(t); got != 0 {
		t.Errorf("movements = %d, want 0", got)
	}
}

func TestEditRefusedOnceApproved(t *testing.T) {
	f := newFixture(t)
	det := f.create(t, 40)
	f.setStatus(t, det.ID, model.StatusApproved)

	_, err := f.eng.EditPending(context.Background(), det.ID, EditInput{
		Items:        []ItemInput{{SeedVarietyID: f.varietyID, QuantityKg: 10}},
		DeliveryDate: time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC),
		EditReason:   "too late",
	})
	if !errors.Is(err, repository.ErrNotEditable) {
		t.Fatalf("expected ErrNotEditable, got %v", err)
	}
}

func TestAllocationGatesOrderability(t *testing.T) {
	f := newFixture(t)
	mustExec(t, f.db, "INSERT INTO seed_varieties (name, price_per_kg, `rank`, min_order_kg, max_order_kg) VALUES ('Unallocated Barley', '8', 2, 1, 100)")

	var itemErr *repository.InvalidItemError

	// Variety 2 exists but has no allocation for the province.
	_, err := f.eng.CreateReservation(context.Background(), CreateInput{
		FarmerID:           f.farmerID,
		DeliveryDate:       time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		DistributionMethod: model.MethodDirect,
		Items:              []ItemInput{{SeedVarietyID: 2, QuantityKg: 10}},
	})
	if !errors.As(err, &itemErr) {
		t.Fatalf("expected InvalidItemError for unallocated variety, got %v", err)
	}

	// Below the variety's minimum order of 5 kg.
	_, err = f.eng.CreateReservation(context.Background(), CreateInput{
		FarmerID:           f.farmerID,
		DeliveryDate:       time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		DistributionMethod: model.MethodDirect,
		Items:              []ItemInput{{SeedVarietyID: f.varietyID, QuantityKg: 2}},
	})
	if !errors.As(err, &itemErr) {
		t.Fatalf("expected InvalidItemError for undersized order, got %v", err)
	}
	if itemErr.MinKg != 5 || itemErr.MaxKg != 500 {
		t.Errorf("reported bounds = %v-%v, want 5-500", itemErr.MinKg, itemErr.MaxKg)
	}
}

func TestAllocationBoundsOverrideVariety(t *testing.T) {
	f := newFixture(t)
	// Tighten the province override to 10..50 kg.
	mustExec(t, f.db, `UPDATE province_allocations SET min_order_kg = 10, max_order_kg = 50 WHERE id = 1`)

	var itemErr *repository.InvalidItemError
	_, err := f.eng.CreateReservation(context.Background(), CreateInput{
		FarmerID:           f.farmerID,
		DeliveryDate:       time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		DistributionMethod: model.MethodDirect,
		Items:              []ItemInput{{SeedVarietyID: f.varietyID, QuantityKg: 60}},
	})
	if !errors.As(err, &itemErr) {
		t.Fatalf("expected InvalidItemError above override max, got %v", err)
	}
	if itemErr.MaxKg != 50 {
		t.Errorf("reported max = %v, want override 50", itemErr.MaxKg)
	}

	// 60 kg was fine under the variety's own 5..500 bounds.
	mustExec(t, f.db, `UPDATE province_allocations SET min_order_kg = NULL, max_order_kg = NULL WHERE id = 1`)
	if _, err := f.eng.CreateReservation(context.Background(), CreateInput{
		FarmerID:           f.farmerID,
		DeliveryDate:       time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		DistributionMethod: model.MethodDirect,
		Items:              []ItemInput{{SeedVarietyID: f.varietyID, QuantityKg: 60}},
	}); err != nil {
		t.Fatalf("expected success without override, got %v", err)
	}
}

func TestResizeQuotaPreservesConsumption(t *testing.T) {
	f := newFixture(t)
	det := f.create(t, 40)
	f.setStatus(t, det.ID, model.StatusApproved) // consumed 40, remaining 60

	p, err := f.eng.ResizeQuota(context.Background(), f.provinceID, 150)
	if err != nil {
		t.Fatalf("resize up: %v", err)
	}
	if p.QuotaKg != 150 || p.RemainingKg != 110 {
		t.Errorf("after resize = %v/%v, want 150/110", p.QuotaKg, p.RemainingKg)
	}

	if _, err := f.eng.ResizeQuota(context.Background(), f.provinceID, 30); !errors.Is(err, repository.ErrInvalidQuota) {
		t.Errorf("resize below consumed: expected ErrInvalidQuota, got %v", err)
	}
	if _, err := f.eng.ResizeQuota(context.Background(), f.provinceID, 0); !errors.Is(err, repository.ErrInvalidQuota) {
		t.Errorf("resize to zero: expected ErrInvalidQuota, got %v", err)
	}

	// Resize is capacity management, not consumption: no movement rows.
	if got := f.movementCount(t); got != 1 {
		t.Errorf("movements = %d, want 1 (approval only)", got)
	}
}

func TestMovementLogReconcilesWithBalance(t *testing.T) {
	f := newFixture(t)

	r1 := f.create(t, 40)
	f.setStatus(t, r1.ID, model.StatusApproved)
	f.setStatus(t, r1.ID, model.StatusRejected)
	r2 := f.create(t, 25)
	f.setStatus(t, r2.ID, model.StatusApproved)
	r3 := f.create(t, 30)
	f.setStatus(t, r3.ID, model.StatusApproved)
	f.setStatus(t, r3.ID, model.StatusDelivered)

	p, err := f.provinces.GetQuota(context.Background(), f.provinceID)
	if err != nil {
		t.Fatalf("get quota: %v", err)
	}
	net, err := f.movements.SumByProvince(context.Background(), f.provinceID)
	if err != nil {
		t.Fatalf("sum movements: %v", err)
	}
	if p.QuotaKg-net != p.RemainingKg {
		t.Errorf("reconciliation failed: total %v - movements %v != remaining %v",
			p.QuotaKg, net, p.RemainingKg)
	}
}

func TestCreateRejectsUnknownFarmerAndMethod(t *testing.T) {
	f := newFixture(t)

	_, err := f.eng.CreateReservation(context.Background(), CreateInput{
		FarmerID:           999,
		DeliveryDate:       time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		DistributionMethod: model.MethodDirect,
		Items:              []ItemInput{{SeedVarietyID: f.varietyID, QuantityKg: 10}},
	})
	if !errors.Is(err, repository.ErrFarmerNotFound) {
		t.Errorf("expected ErrFarmerNotFound, got %v", err)
	}

	_, err = f.eng.CreateReservation(context.Background(), CreateInput{
		FarmerID:           f.farmerID,
		DeliveryDate:       time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		DistributionMethod: "courier",
		Items:              []ItemInput{{SeedVarietyID: f.varietyID, QuantityKg: 10}},
	})
	if !errors.Is(err, ErrInvalidMethod) {
		t.Errorf("expected ErrInvalidMethod, got %v", err)
	}

	_, err = f.eng.CreateReservation(context.Background(), CreateInput{
		FarmerID:           f.farmerID,
		DeliveryDate:       time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		DistributionMethod: model.MethodDirect,
	})
	if !errors.Is(err, ErrNoItems) {
		t.Errorf("expected ErrNoItems, got %v", err)
	}
}

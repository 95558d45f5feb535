package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/agrihub/seed-reservation/internal/repository"
)

var testDBSeq uint64

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:repotest_%d?mode=memory&cache=shared",
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
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("failed to create schema: %v", err)
		}
	}

	if _, err := db.Exec(`INSERT INTO provinces (name, quota_kg, remaining_kg) VALUES ('Balkh', 200, 200)`); err != nil {
		t.Fatalf("seed province: %v", err)
	}
	if _, err := db.Exec("INSERT INTO seed_varieties (name, price_per_kg, `rank`) VALUES ('Mazar Wheat', '12.50', 1)"); err != nil {
		t.Fatalf("seed variety: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func TestAllocationUpsertIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewAllocationRepo(db)
	ctx := context.Background()

	id1, err := repo.Upsert(ctx, 1, 1, 500, nil, nil)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	minKg := 10.0
	id2, err := repo.Upsert(ctx, 1, 1, 800, &minKg, nil)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if id1 != id2 {
		t.Errorf("upsert created a second row: %d != %d", id1, id2)
	}

	a, err := repo.GetActive(ctx, 1, 1)
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if a == nil {
		t.Fatal("allocation missing after upsert")
	}
	if a.AllocatedQuantityKg != 800 {
		t.Errorf("allocated = %v, want 800", a.AllocatedQuantityKg)
	}
	if a.MinOrderKg == nil || *a.MinOrderKg != 10 {
		t.Errorf("min override = %v, want 10", a.MinOrderKg)
	}
	if a.MaxOrderKg != nil {
		t.Errorf("max override = %v, want nil", a.MaxOrderKg)
	}
}

func TestAllocationDeactivateAndReactivate(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewAllocationRepo(db)
	ctx := context.Background()

	id, err := repo.Upsert(ctx, 1, 1, 500, nil, nil)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := repo.Deactivate(ctx, id); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	// Deactivated means not orderable, not an error.
	a, err := repo.GetActive(ctx, 1, 1)
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if a != nil {
		t.Error("deactivated allocation still orderable")
	}

	// Deactivating twice is fine; a missing id is not.
	if err := repo.Deactivate(ctx, id); err != nil {
		t.Errorf("second deactivate: %v", err)
	}
	if err := repo.Deactivate(ctx, 9999); !errors.Is(err, repository.ErrAllocationNotFound) {
		t.Errorf("expected ErrAllocationNotFound, got %v", err)
	}

	// Upserting the pair again reactivates the same row.
	id2, err := repo.Upsert(ctx, 1, 1, 300, nil, nil)
	if err != nil {
		t.Fatalf("reactivating upsert: %v", err)
	}
	if id2 != id {
		t.Errorf("reactivation created a new row: %d != %d", id2, id)
	}
	if a, _ := repo.GetActive(ctx, 1, 1); a == nil {
		t.Error("allocation not orderable after reactivation")
	}
}

func TestListAllocatedVarietiesResolvesBounds(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewAllocationRepo(db)
	ctx := context.Background()

	if _, err := db.Exec("INSERT INTO seed_varieties (name, price_per_kg, `rank`, min_order_kg, max_order_kg) VALUES ('Premium Rice', '30', 2, 2, 20)"); err != nil {
		t.Fatalf("seed variety: %v", err)
	}
	maxKg := 50.0
	if _, err := repo.Upsert(ctx, 1, 1, 500, nil, &maxKg); err != nil {
		t.Fatalf("upsert wheat: %v", err)
	}
	if _, err := repo.Upsert(ctx, 1, 2, 100, nil, nil); err != nil {
		t.Fatalf("upsert rice: %v", err)
	}

	out, err := repo.ListAllocatedVarieties(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("varieties = %d, want 2", len(out))
	}
	// Ordered by rank: wheat (rank 1) before rice (rank 2).
	if out[0].Name != "Mazar Wheat" || out[1].Name != "Premium Rice" {
		t.Errorf("order = %q, %q", out[0].Name, out[1].Name)
	}
	// Wheat max comes from the allocation override, min from the variety.
	if out[0].MaxOrderKg != 50 {
		t.Errorf("wheat max = %v, want override 50", out[0].MaxOrderKg)
	}
	if out[0].MinOrderKg != 1 {
		t.Errorf("wheat min = %v, want variety default 1", out[0].MinOrderKg)
	}
	// Rice keeps its own bounds.
	if out[1].MinOrderKg != 2 || out[1].MaxOrderKg != 20 {
		t.Errorf("rice bounds = %v-%v, want 2-20", out[1].MinOrderKg, out[1].MaxOrderKg)
	}
}

func TestApplyDeltaEnforcesBalanceBounds(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewProvinceRepo(db)
	ctx := context.Background()

	apply := func(delta float64) (float64, float64, error) {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			t.Fatalf("begin: %v", err)
		}
		prev, next, err := repo.ApplyDeltaTx(ctx, tx, 1, delta)
		if err != nil {
			_ = tx.Rollback()
			return 0, 0, err
		}
		if err := tx.Commit(); err != nil {
			t.Fatalf("commit: %v", err)
		}
		return prev, next, nil
	}

	prev, next, err := apply(-150)
	if err != nil {
		t.Fatalf("debit 150: %v", err)
	}
	if prev != 200 || next != 50 {
		t.Errorf("balances = %v -> %v, want 200 -> 50", prev, next)
	}

	if _, _, err := apply(-60); !errors.Is(err, repository.ErrInsufficientQuota) {
		t.Errorf("overdraw: expected ErrInsufficientQuota, got %v", err)
	}
	// A credit may not lift the balance above the total quota.
	if _, _, err := apply(200); !errors.Is(err, repository.ErrInsufficientQuota) {
		t.Errorf("overcredit: expected ErrInsufficientQuota, got %v", err)
	}
	if _, _, err := apply(150); err != nil {
		t.Errorf("credit back to full: %v", err)
	}

	tx, _ := db.BeginTx(ctx, nil)
	if _, _, err := repo.ApplyDeltaTx(ctx, tx, 42, -1); !errors.Is(err, repository.ErrProvinceNotFound) {
		t.Errorf("unknown province: expected ErrProvinceNotFound, got %v", err)
	}
	_ = tx.Rollback()
}

func TestMovementListNewestFirstWithLimit(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewMovementRepo(db)
	ctx := context.Background()

	for i, rem := range []float64{160, 120, 80} {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			t.Fatalf("begin: %v", err)
		}
		if err := repo.RecordTx(ctx, tx, repository.MovementRecord{
			ProvinceID:          1,
			MovementType:        "deduction",
			QuantityKg:          40,
			PreviousRemainingKg: rem + 40,
			NewRemainingKg:      rem,
			Description:         fmt.Sprintf("step %d", i+1),
			CreatedBy:           "tester",
		}); err != nil {
			t.Fatalf("record: %v", err)
		}
		if err := tx.Commit(); err != nil {
			t.Fatalf("commit: %v", err)
		}
	}

	rows, err := repo.ListByProvince(ctx, 1, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Description != "step 3" || rows[1].Description != "step 2" {
		t.Errorf("order = %q, %q, want newest first", rows[0].Description, rows[1].Description)
	}

	net, err := repo.SumByProvince(ctx, 1)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if net != 120 {
		t.Errorf("net = %v, want 120", net)
	}
}

func TestFarmerDuplicateIdentityRefused(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewFarmerRepo(db)
	ctx := context.Background()

	id, err := repo.Create(ctx, "Ahmad", "1390-0001", "070", 1, "village 3")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.Create(ctx, "Someone Else", "1390-0001", "071", 1, ""); !errors.Is(err, repository.ErrDuplicateIdentity) {
		t.Fatalf("expected ErrDuplicateIdentity, got %v", err)
	}

	f, err := repo.GetByIdentity(ctx, " 1390-0001 ")
	if err != nil {
		t.Fatalf("get by identity: %v", err)
	}
	if f.ID != id || f.Name != "Ahmad" || f.ProvinceName != "Balkh" {
		t.Errorf("lookup = %+v", f)
	}

	if _, err := repo.GetByIdentity(ctx, "0000"); !errors.Is(err, repository.ErrFarmerNotFound) {
		t.Errorf("expected ErrFarmerNotFound, got %v", err)
	}
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// FarmerRepo provides registration and lookup for the farmer directory.
type FarmerRepo struct {
	db *sql.DB
}

// NewFarmerRepo returns a new FarmerRepo bound to the given database.
func NewFarmerRepo(db *sql.DB) *FarmerRepo { return &FarmerRepo{db: db} }

// FarmerRow mirrors the farmers table, with the province name joined in
// for display.
type FarmerRow struct {
	ID           uint64    `json:"id"`
	Name         string    `json:"name"`
	IDNumber     string    `json:"id_number"`
	Phone        string    `json:"phone"`
	ProvinceID   uint64    `json:"province_id"`
	ProvinceName string    `json:"province_name,omitempty"`
	Address      string    `json:"address"`
	IsVerified   bool      `json:"is_verified"`
	CreatedAt    time.Time `json:"created_at"`
}

// Create registers a farmer and returns the new id. The identity number is
// the natural key: an explicit existence check runs first so a duplicate
// registration fails with ErrDuplicateIdentity regardless of how the
// storage engine words its constraint violation.
func (r *FarmerRepo) Create(ctx context.Context, name, idNumber, phone string, provinceID uint64, address string) (uint64, error) {
	idNumber = strings.TrimSpace(idNumber)
	var existing uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM farmers WHERE id_number = ?`, idNumber).Scan(&existing)
	if err == nil {
		return 0, ErrDuplicateIdentity
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO farmers (name, id_number, phone, province_id, address, is_verified)
		 VALUES (?, ?, ?, ?, ?, 0)`,
		name, idNumber, phone, provinceID, address)
	if err != nil {
		// Lost a race with a concurrent registration of the same identity.
		if strings.Contains(strings.ToLower(err.Error()), "unique") ||
			strings.Contains(err.Error(), "1062") {
			return 0, ErrDuplicateIdentity
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByIdentity looks a farmer up by identity number, joining the province
// name. Returns ErrFarmerNotFound when unregistered.
func (r *FarmerRepo) GetByIdentity(ctx context.Context, idNumber string) (FarmerRow, error) {
	const q = `SELECT f.id, f.name, f.id_number, f.phone, f.province_id, p.name,
	                  f.address, f.is_verified, f.created_at
	           FROM farmers f
	           JOIN provinces p ON p.id = f.province_id
	           WHERE f.id_number = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, q, strings.TrimSpace(idNumber)))
}

// GetByID looks a farmer up by primary key.
func (r *FarmerRepo) GetByID(ctx context.Context, farmerID uint64) (FarmerRow, error) {
	const q = `SELECT f.id, f.name, f.id_number, f.phone, f.province_id, p.name,
	                  f.address, f.is_verified, f.created_at
	           FROM farmers f
	           JOIN provinces p ON p.id = f.province_id
	           WHERE f.id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, q, farmerID))
}

func (r *FarmerRepo) scanOne(row *sql.Row) (FarmerRow, error) {
	var f FarmerRow
	var addr sql.NullString
	err := row.Scan(&f.ID, &f.Name, &f.IDNumber, &f.Phone, &f.ProvinceID,
		&f.ProvinceName, &addr, &f.IsVerified, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return FarmerRow{}, ErrFarmerNotFound
	}
	f.Address = addr.String
	return f, err
}

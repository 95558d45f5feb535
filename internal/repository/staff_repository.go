package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// StaffRepo provides lookups for staff accounts used by the login flow.
type StaffRepo struct {
	db *sql.DB
}

// NewStaffRepo returns a new StaffRepo bound to the given database.
func NewStaffRepo(db *sql.DB) *StaffRepo { return &StaffRepo{db: db} }

// StaffRow mirrors the staff table.
type StaffRow struct {
	ID           uint64
	Username     string
	PasswordHash string
	FullName     string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
}

// GetByUsername fetches an active staff account by normalized username.
// Returns ErrStaffNotFound when no active account matches.
func (r *StaffRepo) GetByUsername(ctx context.Context, username string) (StaffRow, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	const q = `SELECT id, username, password_hash, full_name, role, is_active, created_at
	           FROM staff WHERE username = ? AND is_active = 1 LIMIT 1`
	var s StaffRow
	err := r.db.QueryRowContext(ctx, q, username).Scan(
		&s.ID, &s.Username, &s.PasswordHash, &s.FullName, &s.Role, &s.IsActive, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return StaffRow{}, ErrStaffNotFound
	}
	return s, err
}

// GetByID fetches a staff account by primary key, active or not.
func (r *StaffRepo) GetByID(ctx context.Context, id uint64) (StaffRow, error) {
	const q = `SELECT id, username, password_hash, full_name, role, is_active, created_at
	           FROM staff WHERE id = ? LIMIT 1`
	var s StaffRow
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.Username, &s.PasswordHash, &s.FullName, &s.Role, &s.IsActive, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return StaffRow{}, ErrStaffNotFound
	}
	return s, err
}

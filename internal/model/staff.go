package model

import "time"

// Staff is an administrative account. Only the password hash is stored.
type Staff struct {
	ID           uint64    // staff.id
	Username     string    // staff.username
	PasswordHash string    // staff.password_hash
	FullName     string    // staff.full_name
	Role         string    // staff.role (e.g. STAFF)
	IsActive     bool      // staff.is_active
	CreatedAt    time.Time // staff.created_at
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents an authenticated account
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// UserRole represents available user roles
type UserRole string

const (
	RoleSeller UserRole = "seller"
	RoleBuyer  UserRole = "buyer"
	RoleAdmin  UserRole = "admin"
)

// IsSeller returns true if the user lists a business for sale
func (u *User) IsSeller() bool {
	return u.Role == string(RoleSeller)
}

// IsBuyer returns true if the user is an investor account
func (u *User) IsBuyer() bool {
	return u.Role == string(RoleBuyer)
}

// IsAdmin returns true if user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == string(RoleAdmin)
}

// OppositeRole maps seller to buyer and back. Matching queues only ever
// contain opposite-role profiles.
func OppositeRole(role string) string {
	if role == string(RoleSeller) {
		return string(RoleBuyer)
	}
	return string(RoleSeller)
}

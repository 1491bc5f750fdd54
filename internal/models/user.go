package models

import (
	"time"

	"github.com/uptrace/bun"
)

type UserRole string

const (
	RoleCustomer   UserRole = "customer"
	RoleTechnician UserRole = "technician"
	RoleSupport    UserRole = "support"
	RoleAdmin      UserRole = "admin"
)

// IsStaff reports whether the role can be assigned support tickets.
func (r UserRole) IsStaff() bool {
	return r == RoleAdmin || r == RoleSupport
}

type User struct {
	bun.BaseModel `bun:"table:users"`

	ID           string    `json:"id" bun:"id,pk"`
	Name         string    `json:"name" bun:"name"`
	Email        string    `json:"email" bun:"email,unique"`
	Phone        string    `json:"phone" bun:"phone"`
	PasswordHash string    `json:"-" bun:"password_hash"`
	Role         UserRole  `json:"role" bun:"role"`
	Language     string    `json:"language" bun:"language"`
	IsVerified   bool      `json:"is_verified" bun:"is_verified"`
	CreatedAt    time.Time `json:"created_at" bun:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bun:"updated_at"`
}

// UserIdentity is the reduced shape embedded in ticket and message
// responses when a sender or assignee is resolved.
type UserIdentity struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Role UserRole `json:"role"`
}

func (u *User) Identity() UserIdentity {
	return UserIdentity{ID: u.ID, Name: u.Name, Role: u.Role}
}

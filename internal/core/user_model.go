package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role is a staff role. Roles form a hierarchy: admin > manager > worker.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleWorker  Role = "worker"
)

var roleRank = map[Role]int{
	RoleWorker:  1,
	RoleManager: 2,
	RoleAdmin:   3,
}

// AtLeast reports whether r carries the privileges of required or higher.
func (r Role) AtLeast(required Role) bool {
	return roleRank[r] >= roleRank[required]
}

// User is a staff account. PasswordHash never leaves the core package.
type User struct {
	ID           int              `json:"id"`
	Username     string           `json:"username"`
	PasswordHash string           `json:"-"`
	FullName     string           `json:"full_name"`
	Role         Role             `json:"role"`
	Salary       *decimal.Decimal `json:"salary,omitempty"`
	IsActive     bool             `json:"is_active"`
	CreatedAt    time.Time        `json:"created_at"`
}

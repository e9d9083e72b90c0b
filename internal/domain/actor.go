package domain

import "time"

// Role enumerates back-office operator roles.
type Role string

const (
	RoleBureauOrdre  Role = "BUREAU_ORDRE"
	RoleScanAgent    Role = "SCAN_AGENT"
	RoleChefEquipe   Role = "CHEF_EQUIPE"
	RoleGestionnaire Role = "GESTIONNAIRE"
	RoleFinance      Role = "FINANCE"
	RoleSuperAdmin   Role = "SUPER_ADMIN"
)

// Actor models a back-office operator. Every engine call takes an explicit
// actor; nothing is read from ambient session state.
type Actor struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	TeamID       *string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

package auth

import (
	"time"

	"github.com/comanda-erp/comanda/internal/rbac"
)

// User represents an account known to the identity source.
type User struct {
	ID           string
	Name         string
	Email        string
	Role         rbac.Role
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DemoUser describes one seeded demo account.
type DemoUser struct {
	ID    string
	Name  string
	Email string
	Role  rbac.Role
}

// DemoUsers lists the accounts of the demo identity source.
func DemoUsers() []DemoUser {
	return []DemoUser{
		{ID: "1", Name: "Administrador", Email: "admin@restaurante.com", Role: rbac.RoleAdmin},
		{ID: "2", Name: "Maria Gerente", Email: "gerente@restaurante.com", Role: rbac.RoleManager},
		{ID: "3", Name: "Carlos Caixa", Email: "caixa@restaurante.com", Role: rbac.RoleCashier},
		{ID: "4", Name: "Pedro Garçom", Email: "garcom@restaurante.com", Role: rbac.RoleWaiter},
	}
}

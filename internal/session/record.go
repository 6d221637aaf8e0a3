package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/comanda-erp/comanda/internal/rbac"
)

// RecordKey is the storage key holding the serialized principal.
const RecordKey = "restaurant_user"

const lastLoginLayout = "2006-01-02T15:04:05.000Z07:00"

// ErrCorruptRecord marks a persisted record that cannot be adopted.
var ErrCorruptRecord = errors.New("session: corrupt record")

type record struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	IsActive    bool     `json:"isActive"`
	LastLogin   string   `json:"lastLogin"`
}

func encodeRecord(p *rbac.Principal) ([]byte, error) {
	perms := p.Permissions()
	names := make([]string, len(perms))
	for i, key := range perms {
		names[i] = string(key)
	}
	return json.Marshal(record{
		ID:          p.ID(),
		Name:        p.Name(),
		Email:       p.Email(),
		Role:        string(p.Role()),
		Permissions: names,
		IsActive:    p.IsActive(),
		LastLogin:   p.LastLogin().UTC().Format(lastLoginLayout),
	})
}

// decodeRecord parses a persisted record. The stored permission list is only
// checked for the baseline permission; the adopted principal gets the
// permissions of its role from the registry.
func decodeRecord(data []byte, registry *rbac.Registry) (*rbac.Principal, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	if rec.ID == "" || rec.Email == "" {
		return nil, fmt.Errorf("%w: missing identity", ErrCorruptRecord)
	}
	role, err := rbac.ParseRole(rec.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	if !containsKey(rec.Permissions, rbac.PermDashboardView) {
		return nil, fmt.Errorf("%w: baseline permission %s missing", ErrCorruptRecord, rbac.PermDashboardView)
	}
	var lastLogin time.Time
	if rec.LastLogin != "" {
		lastLogin, err = time.Parse(time.RFC3339, rec.LastLogin)
		if err != nil {
			return nil, fmt.Errorf("%w: lastLogin: %v", ErrCorruptRecord, err)
		}
	}
	return rbac.NewPrincipal(rbac.PrincipalParams{
		ID:        rec.ID,
		Name:      rec.Name,
		Email:     rec.Email,
		Role:      role,
		IsActive:  rec.IsActive,
		LastLogin: lastLogin,
	}, registry), nil
}

func containsKey(names []string, key rbac.PermissionKey) bool {
	for _, name := range names {
		if name == string(key) {
			return true
		}
	}
	return false
}

package authz

import (
	"time"
)

// RolePermission is a tenant's application grant for a role.
// Its application set is always a subset of the tenant's licensed set;
// membership semantics only, ordering is defined by the tenant catalog.
type RolePermission struct {
	ID             string    `json:"id"`
	TenantID       string    `json:"tenant_id"`
	RoleID         string    `json:"role_id"`
	ApplicationIDs []string  `json:"application_ids"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UserPermission is an optional per-user override below the role ceiling.
// Absence of a record means the user defers to their role permission in full.
// One record per user per tenant.
type UserPermission struct {
	ID             string    `json:"id"`
	TenantID       string    `json:"tenant_id"`
	UserID         string    `json:"user_id"`
	ApplicationIDs []string  `json:"application_ids"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

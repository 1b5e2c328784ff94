package authz

import (
	"github.com/Sandorzhang/workbench/core/tenant"
	"github.com/Sandorzhang/workbench/core/user"
)

// FilterAdminOnly returns the applications grantable to the given role,
// preserving input order. ADMIN keeps everything; any other role only
// keeps applications not flagged admin-only.
func FilterAdminOnly(apps []tenant.Application, role string) []tenant.Application {
	if role == user.RoleAdmin {
		return apps
	}
	filtered := make([]tenant.Application, 0, len(apps))
	for _, app := range apps {
		if !app.AdminOnly {
			filtered = append(filtered, app)
		}
	}
	return filtered
}

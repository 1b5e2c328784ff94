package authz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Sandorzhang/workbench/core"
	"github.com/Sandorzhang/workbench/core/tenant"
	"github.com/Sandorzhang/workbench/core/user"
)

var (
	// errors
	ErrNotFound         = errors.New("permission not found")
	errRoleNotGrantable = errors.New("role cannot hold application grants")
	errRoleRequired     = errors.New("user role is required")
)

type (
	// Repository reads and writes the three permission record kinds.
	// Pure storage semantics: subset invariants are enforced by Service,
	// never here, so the two must always be used together.
	Repository interface {
		// GetTenantApplications returns the tenant's licensed applications in
		// the tenant's canonical order. tenant.ErrNotFound if the tenant is unknown.
		GetTenantApplications(ctx context.Context, tenantID string, exec ...core.DBExecutor) ([]tenant.Application, error)
		// GetRolePermission returns ErrNotFound if the (tenant, role) pair was
		// never configured; callers treat that as an empty grant.
		GetRolePermission(ctx context.Context, tenantID, roleID string, exec ...core.DBExecutor) (RolePermission, error)
		// PutRolePermission upserts, overwriting the full application set
		// atomically for the (tenant, role) pair.
		PutRolePermission(ctx context.Context, rp RolePermission, exec ...core.DBExecutor) (RolePermission, error)
		// GetUserPermission returns ErrNotFound if no override record exists.
		GetUserPermission(ctx context.Context, tenantID, userID string, exec ...core.DBExecutor) (UserPermission, error)
		// PutUserPermission upserts the single override record for (tenant, user).
		PutUserPermission(ctx context.Context, up UserPermission, exec ...core.DBExecutor) (UserPermission, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ResolveEffectiveApplications computes the final application set a user may
// access: tenant licensed set, narrowed by the user's role grant, narrowed by
// the user's override record if one exists. ADMIN users always get the full
// tenant set. Results keep the tenant's canonical application order.
func (svc *Service) ResolveEffectiveApplications(ctx context.Context, tenantID string, usr user.User) ([]tenant.Application, error) {
	if usr.IsAdmin() {
		return svc.repo.GetTenantApplications(ctx, tenantID)
	}

	// the three reads are independent; fan out
	var (
		tenantApps         []tenant.Application
		rolePerm           RolePermission
		userPerm           UserPermission
		roleConfigured     bool
		overrideConfigured bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		tenantApps, err = svc.repo.GetTenantApplications(gctx, tenantID)
		return err
	})
	g.Go(func() (err error) {
		rolePerm, err = svc.repo.GetRolePermission(gctx, tenantID, usr.Role)
		if err == ErrNotFound {
			return nil
		}
		roleConfigured = err == nil
		return err
	})
	g.Go(func() (err error) {
		userPerm, err = svc.repo.GetUserPermission(gctx, tenantID, usr.ID)
		if err == ErrNotFound {
			return nil
		}
		overrideConfigured = err == nil
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	roleAllowed := make([]tenant.Application, 0, len(tenantApps))
	if roleConfigured {
		// stale grants referencing apps no longer licensed drop out here;
		// the tenant set is authoritative
		roleAllowed = selectByID(FilterAdminOnly(tenantApps, usr.Role), rolePerm.ApplicationIDs)
	}
	if !overrideConfigured {
		return roleAllowed, nil
	}
	// an override can only narrow, never widen, the role-allowed set
	return selectByID(roleAllowed, userPerm.ApplicationIDs), nil
}

// RoleAllowedApplications returns the ceiling of applications grantable to
// users of the given role in the tenant.
func (svc *Service) RoleAllowedApplications(ctx context.Context, tenantID, roleID string) ([]tenant.Application, error) {
	tenantApps, err := svc.repo.GetTenantApplications(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return svc.roleAllowed(ctx, tenantID, roleID, tenantApps)
}

func (svc *Service) roleAllowed(ctx context.Context, tenantID, roleID string, tenantApps []tenant.Application) ([]tenant.Application, error) {
	if roleID == user.RoleAdmin {
		return tenantApps, nil
	}
	rolePerm, err := svc.repo.GetRolePermission(ctx, tenantID, roleID)
	if err != nil {
		if err == ErrNotFound {
			return []tenant.Application{}, nil
		}
		return nil, err
	}
	return selectByID(FilterAdminOnly(tenantApps, roleID), rolePerm.ApplicationIDs), nil
}

// UpdateRolePermission overwrites a role's application grant in a tenant.
// Requesting an application outside the tenant's licensed set is rejected;
// admin-only applications requested for a non-ADMIN role are silently dropped.
func (svc *Service) UpdateRolePermission(ctx context.Context, tenantID, roleID string, appIDs []string) (RolePermission, error) {
	if !isGrantableRole(roleID) {
		return RolePermission{}, core.NewValidationError(errRoleNotGrantable,
			core.FieldError{Field: "role", Error: errRoleNotGrantable.Error()})
	}

	tenantApps, err := svc.repo.GetTenantApplications(ctx, tenantID)
	if err != nil {
		return RolePermission{}, err
	}
	licensed := idSet(tenantApps)
	for _, id := range appIDs {
		if _, ok := licensed[id]; !ok {
			err := fmt.Errorf("application %q is not licensed to this tenant", id)
			return RolePermission{}, core.NewValidationError(err,
				core.FieldError{Field: "applications", Error: err.Error()})
		}
	}

	grantable := selectByID(FilterAdminOnly(tenantApps, roleID), appIDs)
	rp := RolePermission{
		TenantID:       tenantID,
		RoleID:         roleID,
		ApplicationIDs: ids(grantable),
		UpdatedAt:      time.Now().UTC(),
	}
	return svc.repo.PutRolePermission(ctx, rp)
}

// UpdateUserPermission overwrites a user's override record. Requested
// applications outside the user's role ceiling are silently dropped.
func (svc *Service) UpdateUserPermission(ctx context.Context, tenantID string, usr user.User, appIDs []string) (UserPermission, error) {
	if !user.IsValidRole(usr.Role) {
		return UserPermission{}, core.NewValidationError(errRoleRequired,
			core.FieldError{Field: "role", Error: errRoleRequired.Error()})
	}

	tenantApps, err := svc.repo.GetTenantApplications(ctx, tenantID)
	if err != nil {
		return UserPermission{}, err
	}
	roleAllowed, err := svc.roleAllowed(ctx, tenantID, usr.Role, tenantApps)
	if err != nil {
		return UserPermission{}, err
	}

	up := UserPermission{
		TenantID:       tenantID,
		UserID:         usr.ID,
		ApplicationIDs: ids(selectByID(roleAllowed, appIDs)),
		UpdatedAt:      time.Now().UTC(),
	}
	return svc.repo.PutUserPermission(ctx, up)
}

func isGrantableRole(roleID string) bool {
	for _, role := range user.GrantableRoles {
		if roleID == role {
			return true
		}
	}
	return false
}

// selectByID returns the applications whose ID is in ids, preserving the
// order of apps. Duplicate ids have no effect (membership semantics).
func selectByID(apps []tenant.Application, appIDs []string) []tenant.Application {
	requested := make(map[string]struct{}, len(appIDs))
	for _, id := range appIDs {
		requested[id] = struct{}{}
	}
	selected := make([]tenant.Application, 0, len(apps))
	for _, app := range apps {
		if _, ok := requested[app.ID]; ok {
			selected = append(selected, app)
		}
	}
	return selected
}

func idSet(apps []tenant.Application) map[string]struct{} {
	set := make(map[string]struct{}, len(apps))
	for _, app := range apps {
		set[app.ID] = struct{}{}
	}
	return set
}

func ids(apps []tenant.Application) []string {
	appIDs := make([]string, 0, len(apps))
	for _, app := range apps {
		appIDs = append(appIDs, app.ID)
	}
	return appIDs
}

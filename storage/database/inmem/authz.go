package inmemdb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Sandorzhang/workbench/core"
	"github.com/Sandorzhang/workbench/core/authz"
	"github.com/Sandorzhang/workbench/core/tenant"
)

type permissionRepository struct {
	db *DB
}

var _ authz.Repository = (*permissionRepository)(nil) // interface compliance check

func NewPermissionRepository(db *DB) *permissionRepository {
	return &permissionRepository{db: db}
}

func (repo *permissionRepository) GetTenantApplications(ctx context.Context, tenantID string, exec ...core.DBExecutor) ([]tenant.Application, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	return repo.db.getTenantApplications(tenantID)
}

func (repo *permissionRepository) GetRolePermission(ctx context.Context, tenantID, roleID string, exec ...core.DBExecutor) (authz.RolePermission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if rp, ok := repo.db.rolePerms[key(tenantID, roleID)]; ok {
		return *rp, nil
	}
	return authz.RolePermission{}, authz.ErrNotFound
}

func (repo *permissionRepository) PutRolePermission(ctx context.Context, rp authz.RolePermission, exec ...core.DBExecutor) (authz.RolePermission, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	k := key(rp.TenantID, rp.RoleID)
	if orig, ok := repo.db.rolePerms[k]; ok {
		rp.ID = orig.ID
		rp.CreatedAt = orig.CreatedAt
	} else {
		rp.ID = uuid.New().String()
		rp.CreatedAt = time.Now().UTC()
	}
	rp.ApplicationIDs = append([]string(nil), rp.ApplicationIDs...)
	repo.db.rolePerms[k] = &rp
	return rp, nil
}

func (repo *permissionRepository) GetUserPermission(ctx context.Context, tenantID, userID string, exec ...core.DBExecutor) (authz.UserPermission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if up, ok := repo.db.userPerms[key(tenantID, userID)]; ok {
		return *up, nil
	}
	return authz.UserPermission{}, authz.ErrNotFound
}

func (repo *permissionRepository) PutUserPermission(ctx context.Context, up authz.UserPermission, exec ...core.DBExecutor) (authz.UserPermission, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	k := key(up.TenantID, up.UserID)
	if orig, ok := repo.db.userPerms[k]; ok {
		up.ID = orig.ID
		up.CreatedAt = orig.CreatedAt
	} else {
		up.ID = uuid.New().String()
		up.CreatedAt = time.Now().UTC()
	}
	up.ApplicationIDs = append([]string(nil), up.ApplicationIDs...)
	repo.db.userPerms[k] = &up
	return up, nil
}

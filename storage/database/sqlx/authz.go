package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/Sandorzhang/workbench/core"
	"github.com/Sandorzhang/workbench/core/authz"
	"github.com/Sandorzhang/workbench/core/tenant"
)

type permissionRepository struct {
	db      *sqlx.DB
	tenants *tenantRepository
}

var _ authz.Repository = (*permissionRepository)(nil) // interface compliance check

func NewPermissionRepository(db *sqlx.DB) *permissionRepository {
	return &permissionRepository{db: db, tenants: NewTenantRepository(db)}
}

type rolePermissionRow struct {
	ID             string         `db:"id"`
	TenantID       string         `db:"tenant_id"`
	RoleID         string         `db:"role_id"`
	ApplicationIDs pq.StringArray `db:"application_ids"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

func (r rolePermissionRow) rolePermission() authz.RolePermission {
	return authz.RolePermission{
		ID:             r.ID,
		TenantID:       r.TenantID,
		RoleID:         r.RoleID,
		ApplicationIDs: r.ApplicationIDs,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

type userPermissionRow struct {
	ID             string         `db:"id"`
	TenantID       string         `db:"tenant_id"`
	UserID         string         `db:"user_id"`
	ApplicationIDs pq.StringArray `db:"application_ids"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

func (r userPermissionRow) userPermission() authz.UserPermission {
	return authz.UserPermission{
		ID:             r.ID,
		TenantID:       r.TenantID,
		UserID:         r.UserID,
		ApplicationIDs: r.ApplicationIDs,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func (repo *permissionRepository) GetTenantApplications(ctx context.Context, tenantID string, exec ...core.DBExecutor) ([]tenant.Application, error) {
	return repo.tenants.GetTenantApplications(ctx, tenantID, exec...)
}

func (repo *permissionRepository) GetRolePermission(ctx context.Context, tenantID, roleID string, exec ...core.DBExecutor) (authz.RolePermission, error) {
	var row rolePermissionRow
	err := sqlx.GetContext(ctx, getExt(repo.db, exec), &row,
		`SELECT id, tenant_id, role_id, application_ids, created_at, updated_at
		 FROM role_permission WHERE tenant_id = $1 AND role_id = $2`, tenantID, roleID)
	if err != nil {
		return authz.RolePermission{}, trapNoRowsErr(err, authz.ErrNotFound, "getting role permission")
	}
	return row.rolePermission(), nil
}

func (repo *permissionRepository) PutRolePermission(ctx context.Context, rp authz.RolePermission, exec ...core.DBExecutor) (authz.RolePermission, error) {
	var row rolePermissionRow
	err := sqlx.GetContext(ctx, getExt(repo.db, exec), &row,
		`INSERT INTO role_permission (id, tenant_id, role_id, application_ids, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5)
		 ON CONFLICT (tenant_id, role_id) DO UPDATE
		 SET application_ids = EXCLUDED.application_ids, updated_at = EXCLUDED.updated_at
		 RETURNING id, tenant_id, role_id, application_ids, created_at, updated_at`,
		uuid.New().String(), rp.TenantID, rp.RoleID, pq.StringArray(rp.ApplicationIDs), rp.UpdatedAt)
	if err != nil {
		return authz.RolePermission{}, errors.Wrap(err, "upserting role permission")
	}
	return row.rolePermission(), nil
}

func (repo *permissionRepository) GetUserPermission(ctx context.Context, tenantID, userID string, exec ...core.DBExecutor) (authz.UserPermission, error) {
	var row userPermissionRow
	err := sqlx.GetContext(ctx, getExt(repo.db, exec), &row,
		`SELECT id, tenant_id, user_id, application_ids, created_at, updated_at
		 FROM user_permission WHERE tenant_id = $1 AND user_id = $2`, tenantID, userID)
	if err != nil {
		return authz.UserPermission{}, trapNoRowsErr(err, authz.ErrNotFound, "getting user permission")
	}
	return row.userPermission(), nil
}

func (repo *permissionRepository) PutUserPermission(ctx context.Context, up authz.UserPermission, exec ...core.DBExecutor) (authz.UserPermission, error) {
	var row userPermissionRow
	err := sqlx.GetContext(ctx, getExt(repo.db, exec), &row,
		`INSERT INTO user_permission (id, tenant_id, user_id, application_ids, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5)
		 ON CONFLICT (tenant_id, user_id) DO UPDATE
		 SET application_ids = EXCLUDED.application_ids, updated_at = EXCLUDED.updated_at
		 RETURNING id, tenant_id, user_id, application_ids, created_at, updated_at`,
		uuid.New().String(), up.TenantID, up.UserID, pq.StringArray(up.ApplicationIDs), up.UpdatedAt)
	if err != nil {
		return authz.UserPermission{}, errors.Wrap(err, "upserting user permission")
	}
	return row.userPermission(), nil
}

package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Sandorzhang/workbench/core"
	"github.com/Sandorzhang/workbench/core/tenant"
)

type tenantRepository struct {
	db *sqlx.DB
}

var _ tenant.Repository = (*tenantRepository)(nil) // interface compliance check

func NewTenantRepository(db *sqlx.DB) *tenantRepository {
	return &tenantRepository{db: db}
}

type tenantRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	ShortName string    `db:"short_name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r tenantRow) tenant() tenant.Tenant {
	return tenant.Tenant{
		ID:        r.ID,
		Name:      r.Name,
		ShortName: r.ShortName,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type applicationRow struct {
	ID          string      `db:"id"`
	Code        string      `db:"code"`
	Name        string      `db:"name"`
	Description null.String `db:"description"`
	AdminOnly   bool        `db:"admin_only"`
}

func (r applicationRow) application() tenant.Application {
	return tenant.Application{
		ID:          r.ID,
		Code:        r.Code,
		Name:        r.Name,
		Description: r.Description.String,
		AdminOnly:   r.AdminOnly,
	}
}

func applications(rows []applicationRow) []tenant.Application {
	apps := make([]tenant.Application, 0, len(rows))
	for _, row := range rows {
		apps = append(apps, row.application())
	}
	return apps
}

func (repo *tenantRepository) CheckShortNameUniqueness(ctx context.Context, shortName string, exec ...core.DBExecutor) error {
	var exists bool
	err := getExt(repo.db, exec).QueryRowxContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM tenant WHERE short_name = $1)`, shortName).Scan(&exists)
	if err != nil {
		return errors.Wrap(err, "checking tenant uniqueness")
	}
	if exists {
		return tenant.ErrShortNameExists
	}
	return nil
}

func (repo *tenantRepository) CreateTenant(ctx context.Context, tnt tenant.Tenant, exec ...core.DBExecutor) (tenant.Tenant, error) {
	tnt.ID = uuid.New().String()
	_, err := getExt(repo.db, exec).ExecContext(ctx,
		`INSERT INTO tenant (id, name, short_name, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		tnt.ID, tnt.Name, tnt.ShortName, tnt.CreatedAt, tnt.UpdatedAt)
	if err != nil {
		return tenant.Tenant{}, errors.Wrap(err, "inserting tenant")
	}
	return tnt, nil
}

func (repo *tenantRepository) QueryAllTenants(ctx context.Context, exec ...core.DBExecutor) ([]tenant.Tenant, error) {
	var rows []tenantRow
	err := sqlx.SelectContext(ctx, getExt(repo.db, exec), &rows,
		`SELECT id, name, short_name, created_at, updated_at FROM tenant ORDER BY created_at`)
	if err != nil {
		return nil, errors.Wrap(err, "querying tenants")
	}
	tenants := make([]tenant.Tenant, 0, len(rows))
	for _, row := range rows {
		tenants = append(tenants, row.tenant())
	}
	return tenants, nil
}

func (repo *tenantRepository) GetTenantByID(ctx context.Context, id string, exec ...core.DBExecutor) (tenant.Tenant, error) {
	var row tenantRow
	err := sqlx.GetContext(ctx, getExt(repo.db, exec), &row,
		`SELECT id, name, short_name, created_at, updated_at FROM tenant WHERE id = $1`, id)
	if err != nil {
		return tenant.Tenant{}, trapNoRowsErr(err, tenant.ErrNotFound, "getting tenant by id")
	}
	return row.tenant(), nil
}

func (repo *tenantRepository) GetTenantByShortName(ctx context.Context, shortName string, exec ...core.DBExecutor) (tenant.Tenant, error) {
	var row tenantRow
	err := sqlx.GetContext(ctx, getExt(repo.db, exec), &row,
		`SELECT id, name, short_name, created_at, updated_at FROM tenant WHERE short_name = $1`, shortName)
	if err != nil {
		return tenant.Tenant{}, trapNoRowsErr(err, tenant.ErrNotFound, "getting tenant by short name")
	}
	return row.tenant(), nil
}

func (repo *tenantRepository) CreateApplication(ctx context.Context, app tenant.Application, exec ...core.DBExecutor) (tenant.Application, error) {
	ext := getExt(repo.db, exec)

	var exists bool
	err := ext.QueryRowxContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM application WHERE code = $1)`, app.Code).Scan(&exists)
	if err != nil {
		return tenant.Application{}, errors.Wrap(err, "checking application code uniqueness")
	}
	if exists {
		return tenant.Application{}, tenant.ErrCodeExists
	}

	app.ID = uuid.New().String()
	_, err = ext.ExecContext(ctx,
		`INSERT INTO application (id, code, name, description, admin_only) VALUES ($1, $2, $3, $4, $5)`,
		app.ID, app.Code, app.Name, null.NewString(app.Description, app.Description != ""), app.AdminOnly)
	if err != nil {
		return tenant.Application{}, errors.Wrap(err, "inserting application")
	}
	return app, nil
}

func (repo *tenantRepository) QueryAllApplications(ctx context.Context, exec ...core.DBExecutor) ([]tenant.Application, error) {
	var rows []applicationRow
	err := sqlx.SelectContext(ctx, getExt(repo.db, exec), &rows,
		`SELECT id, code, name, description, admin_only FROM application ORDER BY code`)
	if err != nil {
		return nil, errors.Wrap(err, "querying applications")
	}
	return applications(rows), nil
}

func (repo *tenantRepository) GetTenantApplications(ctx context.Context, tenantID string, exec ...core.DBExecutor) ([]tenant.Application, error) {
	ext := getExt(repo.db, exec)

	var exists bool
	err := ext.QueryRowxContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM tenant WHERE id = $1)`, tenantID).Scan(&exists)
	if err != nil {
		return nil, errors.Wrap(err, "checking tenant existence")
	}
	if !exists {
		return nil, tenant.ErrNotFound
	}

	var rows []applicationRow
	err = sqlx.SelectContext(ctx, ext, &rows,
		`SELECT a.id, a.code, a.name, a.description, a.admin_only
		 FROM application a
		 JOIN tenant_application ta ON ta.application_id = a.id
		 WHERE ta.tenant_id = $1
		 ORDER BY ta.position`, tenantID)
	if err != nil {
		return nil, errors.Wrap(err, "querying tenant applications")
	}
	return applications(rows), nil
}

func (repo *tenantRepository) SetTenantApplications(ctx context.Context, tenantID string, appIDs []string, exec ...core.DBExecutor) error {
	ext := getExt(repo.db, exec)

	if _, err := ext.ExecContext(ctx,
		`DELETE FROM tenant_application WHERE tenant_id = $1`, tenantID); err != nil {
		return errors.Wrap(err, "clearing tenant applications")
	}
	for pos, appID := range appIDs {
		if _, err := ext.ExecContext(ctx,
			`INSERT INTO tenant_application (tenant_id, application_id, position) VALUES ($1, $2, $3)
			 ON CONFLICT (tenant_id, application_id) DO NOTHING`,
			tenantID, appID, pos); err != nil {
			return errors.Wrap(err, "inserting tenant application")
		}
	}
	return nil
}

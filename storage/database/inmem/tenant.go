package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/Sandorzhang/workbench/core"
	"github.com/Sandorzhang/workbench/core/tenant"
)

type tenantRepository struct {
	db *DB
}

var _ tenant.Repository = (*tenantRepository)(nil) // interface compliance check

func NewTenantRepository(db *DB) *tenantRepository {
	return &tenantRepository{db: db}
}

func (repo *tenantRepository) CheckShortNameUniqueness(ctx context.Context, shortName string, exec ...core.DBExecutor) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, tnt := range repo.db.tenants {
		if tnt.ShortName == shortName {
			return tenant.ErrShortNameExists
		}
	}
	return nil
}

func (repo *tenantRepository) CreateTenant(ctx context.Context, tnt tenant.Tenant, exec ...core.DBExecutor) (tenant.Tenant, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	tnt.ID = uuid.New().String()
	repo.db.tenants[tnt.ID] = &tnt
	return tnt, nil
}

func (repo *tenantRepository) QueryAllTenants(ctx context.Context, exec ...core.DBExecutor) ([]tenant.Tenant, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	tenants := make([]tenant.Tenant, 0, len(repo.db.tenants))
	for _, tnt := range repo.db.tenants {
		tenants = append(tenants, *tnt)
	}
	return tenants, nil
}

func (repo *tenantRepository) GetTenantByID(ctx context.Context, id string, exec ...core.DBExecutor) (tenant.Tenant, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if tnt, ok := repo.db.tenants[id]; ok {
		return *tnt, nil
	}
	return tenant.Tenant{}, tenant.ErrNotFound
}

func (repo *tenantRepository) GetTenantByShortName(ctx context.Context, shortName string, exec ...core.DBExecutor) (tenant.Tenant, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, tnt := range repo.db.tenants {
		if tnt.ShortName == shortName {
			return *tnt, nil
		}
	}
	return tenant.Tenant{}, tenant.ErrNotFound
}

func (repo *tenantRepository) CreateApplication(ctx context.Context, app tenant.Application, exec ...core.DBExecutor) (tenant.Application, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, a := range repo.db.apps {
		if a.Code == app.Code {
			return tenant.Application{}, tenant.ErrCodeExists
		}
	}
	app.ID = uuid.New().String()
	repo.db.apps = append(repo.db.apps, &app)
	return app, nil
}

func (repo *tenantRepository) QueryAllApplications(ctx context.Context, exec ...core.DBExecutor) ([]tenant.Application, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	apps := make([]tenant.Application, 0, len(repo.db.apps))
	for _, app := range repo.db.apps {
		apps = append(apps, *app)
	}
	return apps, nil
}

func (repo *tenantRepository) GetTenantApplications(ctx context.Context, tenantID string, exec ...core.DBExecutor) ([]tenant.Application, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	return repo.db.getTenantApplications(tenantID)
}

// getTenantApplications expects the caller to hold (at least) a read lock.
func (db *DB) getTenantApplications(tenantID string) ([]tenant.Application, error) {
	if _, ok := db.tenants[tenantID]; !ok {
		return nil, tenant.ErrNotFound
	}
	byID := make(map[string]*tenant.Application, len(db.apps))
	for _, app := range db.apps {
		byID[app.ID] = app
	}
	appIDs := db.tenantApps[tenantID]
	apps := make([]tenant.Application, 0, len(appIDs))
	for _, id := range appIDs {
		if app, ok := byID[id]; ok {
			apps = append(apps, *app)
		}
	}
	return apps, nil
}

func (repo *tenantRepository) SetTenantApplications(ctx context.Context, tenantID string, appIDs []string, exec ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.tenants[tenantID]; !ok {
		return tenant.ErrNotFound
	}
	// duplicate ids collapse, same as the SQL primary key
	seen := make(map[string]bool, len(appIDs))
	ids := make([]string, 0, len(appIDs))
	for _, id := range appIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	repo.db.tenantApps[tenantID] = ids
	return nil
}

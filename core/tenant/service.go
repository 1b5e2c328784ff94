package tenant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sandorzhang/workbench/core"
)

var (
	// errors
	ErrNotFound        = errors.New("tenant not found")
	ErrAppNotFound     = errors.New("application not found")
	ErrShortNameExists = errors.New("a tenant with this short name already exists")
	ErrCodeExists      = errors.New("an application with this code already exists")
)

type (
	Repository interface {
		CheckShortNameUniqueness(ctx context.Context, shortName string, exec ...core.DBExecutor) error
		CreateTenant(ctx context.Context, tnt Tenant, exec ...core.DBExecutor) (Tenant, error)
		QueryAllTenants(ctx context.Context, exec ...core.DBExecutor) ([]Tenant, error)
		GetTenantByID(ctx context.Context, id string, exec ...core.DBExecutor) (Tenant, error)
		GetTenantByShortName(ctx context.Context, shortName string, exec ...core.DBExecutor) (Tenant, error)

		// CreateApplication registers an application in the global catalog;
		// ErrCodeExists if the code is taken.
		CreateApplication(ctx context.Context, app Application, exec ...core.DBExecutor) (Application, error)
		// QueryAllApplications returns the global application catalog.
		QueryAllApplications(ctx context.Context, exec ...core.DBExecutor) ([]Application, error)
		// GetTenantApplications returns the tenant's licensed set in the
		// tenant-defined canonical order. ErrNotFound if the tenant is unknown.
		GetTenantApplications(ctx context.Context, tenantID string, exec ...core.DBExecutor) ([]Application, error)
		// SetTenantApplications overwrites the tenant's licensed set; the order
		// given becomes the tenant's canonical application order.
		SetTenantApplications(ctx context.Context, tenantID string, appIDs []string, exec ...core.DBExecutor) error
	}

	Service struct {
		db   core.DB
		repo Repository
	}
)

func NewService(db core.DB, repo Repository) *Service {
	return &Service{db: db, repo: repo}
}

func (svc *Service) checkShortNameUniqueness(shortName string) error {
	if err := svc.repo.CheckShortNameUniqueness(context.Background(), shortName); err != nil {
		if err == ErrShortNameExists {
			return core.NewValidationError(err, core.FieldError{Field: "short_name", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nt NewTenant) (Tenant, error) {
	now := time.Now().UTC()
	tnt := Tenant{
		Name:      nt.Name,
		ShortName: nt.ShortName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	tnt, err := svc.repo.CreateTenant(ctx, tnt)
	if err != nil {
		return Tenant{}, err
	}
	if len(nt.ApplicationIDs) > 0 {
		if err = svc.SetApplications(ctx, tnt.ID, nt.ApplicationIDs); err != nil {
			return Tenant{}, err
		}
	}
	return tnt, nil
}

func (svc *Service) QueryAll(ctx context.Context) ([]Tenant, error) {
	return svc.repo.QueryAllTenants(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Tenant, error) {
	return svc.repo.GetTenantByID(ctx, id)
}

func (svc *Service) GetByShortName(ctx context.Context, shortName string) (Tenant, error) {
	return svc.repo.GetTenantByShortName(ctx, core.CleanString(shortName, true /* lower */))
}

func (svc *Service) CreateApplication(ctx context.Context, na NewApplication) (Application, error) {
	app := Application{
		Code:        na.Code,
		Name:        na.Name,
		Description: na.Description,
		AdminOnly:   na.AdminOnly,
	}
	app, err := svc.repo.CreateApplication(ctx, app)
	if err != nil {
		if err == ErrCodeExists {
			return Application{}, core.NewValidationError(err, core.FieldError{Field: "code", Error: err.Error()})
		}
		return Application{}, err
	}
	return app, nil
}

func (svc *Service) QueryApplications(ctx context.Context) ([]Application, error) {
	return svc.repo.QueryAllApplications(ctx)
}

func (svc *Service) GetApplications(ctx context.Context, tenantID string) ([]Application, error) {
	return svc.repo.GetTenantApplications(ctx, tenantID)
}

// SetApplications overwrites the tenant's licensed application set.
// Requested ids must exist in the application catalog; duplicates are
// collapsed and the resulting order becomes the tenant's canonical
// application order.
func (svc *Service) SetApplications(ctx context.Context, tenantID string, appIDs []string) error {
	catalog, err := svc.repo.QueryAllApplications(ctx)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(catalog))
	for _, app := range catalog {
		known[app.ID] = true
	}

	seen := make(map[string]bool, len(appIDs))
	ids := make([]string, 0, len(appIDs))
	for _, id := range appIDs {
		if !known[id] {
			err := fmt.Errorf("application %q does not exist", id)
			return core.NewValidationError(err,
				core.FieldError{Field: "applications", Error: err.Error()})
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return svc.repo.SetTenantApplications(ctx, tenantID, ids)
}

package echoapi

import (
	"net/http"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Sandorzhang/workbench/core"
	"github.com/Sandorzhang/workbench/core/authz"
	"github.com/Sandorzhang/workbench/core/tenant"
)

type tenantApi struct {
	svc        *tenant.Service
	authzSvc   *authz.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerTenantAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	auth *jwtAuth,
	svc *tenant.Service,
	authzSvc *authz.Service,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := tenantApi{
		svc:        svc,
		authzSvc:   authzSvc,
		validate:   validate,
		translator: translator,
	}

	// tenant management is ADMIN PORTAL territory
	tg := g.Group("/tenants", jwt, auth.adminMiddleware())
	tg.POST("", api.create)
	tg.GET("", api.query)
	tg.GET("/:id", api.retrieve)
	tg.GET("/:id/applications", api.queryApplications)
	tg.PUT("/:id/applications", api.setApplications)
	tg.GET("/:id/roles/:role/applications", api.queryRoleApplications)
	tg.PUT("/:id/roles/:role/applications", api.updateRoleApplications)

	ag := g.Group("/applications", jwt, auth.adminMiddleware())
	ag.GET("", api.queryCatalog)
	ag.POST("", api.createApplication)
}

// Handlers

func (api *tenantApi) create(ctx echo.Context) error {
	var data tenant.NewTenant
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTenant")
	}
	if err := data.Validate(api.validate, api.translator, api.svc); err != nil {
		return err
	}

	tnt, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating tenant")
	}
	return ctx.JSON(http.StatusCreated, tnt)
}

func (api *tenantApi) query(ctx echo.Context) error {
	tenants, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying tenants")
	}
	if tenants == nil {
		tenants = []tenant.Tenant{}
	}
	return ctx.JSON(http.StatusOK, tenants)
}

func (api *tenantApi) retrieve(ctx echo.Context) error {
	tnt, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding tenant by ID")
	}
	return ctx.JSON(http.StatusOK, tnt)
}

// queryApplications returns the tenant's licensed applications in
// catalog order.
func (api *tenantApi) queryApplications(ctx echo.Context) error {
	apps, err := api.svc.GetApplications(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying tenant applications")
	}
	if apps == nil {
		apps = []tenant.Application{}
	}
	return ctx.JSON(http.StatusOK, apps)
}

func (api *tenantApi) setApplications(ctx echo.Context) error {
	var data UpdateApplicationsRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateApplicationsRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.SetApplications(ctx.Request().Context(), ctx.Param("id"), data.ApplicationIDs); err != nil {
		return errors.Wrap(err, "setting tenant applications")
	}

	apps, err := api.svc.GetApplications(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying tenant applications")
	}
	return ctx.JSON(http.StatusOK, apps)
}

// queryRoleApplications returns the applications a role may use within
// the tenant (admin-only applications already filtered out for
// non-admin roles).
func (api *tenantApi) queryRoleApplications(ctx echo.Context) error {
	role := strings.ToUpper(core.CleanString(ctx.Param("role")))
	apps, err := api.authzSvc.RoleAllowedApplications(ctx.Request().Context(), ctx.Param("id"), role)
	if err != nil {
		return errors.Wrap(err, "querying role applications")
	}
	if apps == nil {
		apps = []tenant.Application{}
	}
	return ctx.JSON(http.StatusOK, apps)
}

func (api *tenantApi) updateRoleApplications(ctx echo.Context) error {
	var data UpdateApplicationsRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateApplicationsRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	role := strings.ToUpper(core.CleanString(ctx.Param("role")))
	perm, err := api.authzSvc.UpdateRolePermission(ctx.Request().Context(), ctx.Param("id"), role, data.ApplicationIDs)
	if err != nil {
		return errors.Wrap(err, "updating role applications")
	}
	return ctx.JSON(http.StatusOK, perm)
}

func (api *tenantApi) queryCatalog(ctx echo.Context) error {
	apps, err := api.svc.QueryApplications(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying application catalog")
	}
	if apps == nil {
		apps = []tenant.Application{}
	}
	return ctx.JSON(http.StatusOK, apps)
}

func (api *tenantApi) createApplication(ctx echo.Context) error {
	var data tenant.NewApplication
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewApplication")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	app, err := api.svc.CreateApplication(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating application")
	}
	return ctx.JSON(http.StatusCreated, app)
}

package tenant

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/Sandorzhang/workbench/core"
)

// Tenant is a school/organization with its own licensed application set and users.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ShortName string    `json:"short_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Application is a licensed feature module identified by a stable code.
// AdminOnly applications may only ever be held by the ADMIN role.
type Application struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	AdminOnly   bool   `json:"admin_only"`
}

// NewTenant contains information needed to onboard a new Tenant.
type NewTenant struct {
	Name           string   `json:"name" validate:"required"`
	ShortName      string   `json:"short_name" validate:"required,min=2,alphanum_"`
	ApplicationIDs []string `json:"application_ids"`
}

func (nt *NewTenant) Validate(validate *validator.Validate, translator ut.Translator, svc *Service) error {
	nt.Name = core.CleanString(nt.Name)
	nt.ShortName = core.CleanString(nt.ShortName, true /* lower */)

	if err := validate.Struct(nt); err != nil {
		return err
	}
	return svc.checkShortNameUniqueness(nt.ShortName)
}

// NewApplication contains information needed to register an Application
// in the global catalog.
type NewApplication struct {
	Code        string `json:"code" validate:"required,min=2"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	AdminOnly   bool   `json:"admin_only"`
}

func (na *NewApplication) Validate(validate *validator.Validate, translator ut.Translator) error {
	na.Code = core.CleanString(na.Code, true /* lower */)
	na.Name = core.CleanString(na.Name)
	na.Description = core.CleanString(na.Description)

	return validate.Struct(na)
}

package inmemdb

import (
	"sync"

	"github.com/Sandorzhang/workbench/core/authz"
	"github.com/Sandorzhang/workbench/core/tenant"
	"github.com/Sandorzhang/workbench/core/user"
)

// DB is an in-memory datastore for tests and local development.
type DB struct {
	mutex sync.RWMutex

	tenants    map[string]*tenant.Tenant
	apps       []*tenant.Application // global catalog, registration order
	tenantApps map[string][]string   // tenant id -> licensed app ids, canonical order
	users      map[string]*user.User
	rolePerms  map[string]*authz.RolePermission // keyed by tenant id + role id
	userPerms  map[string]*authz.UserPermission // keyed by tenant id + user id
}

func Open() (*DB, error) {
	db := &DB{
		tenants:    make(map[string]*tenant.Tenant),
		tenantApps: make(map[string][]string),
		users:      make(map[string]*user.User),
		rolePerms:  make(map[string]*authz.RolePermission),
		userPerms:  make(map[string]*authz.UserPermission),
	}
	return db, nil
}

func key(tenantID, id string) string {
	return tenantID + "/" + id
}

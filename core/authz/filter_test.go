package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sandorzhang/workbench/core/tenant"
	"github.com/Sandorzhang/workbench/core/user"
)

func TestFilterAdminOnly(t *testing.T) {
	apps := []tenant.Application{
		{ID: "a1", Code: "class-schedule"},
		{ID: "a2", Code: "billing", AdminOnly: true},
		{ID: "a3", Code: "grading"},
		{ID: "a4", Code: "settings", AdminOnly: true},
	}

	tests := []struct {
		name    string
		role    string
		wantIDs []string
	}{
		{name: "admin sees everything", role: user.RoleAdmin, wantIDs: []string{"a1", "a2", "a3", "a4"}},
		{name: "teacher loses admin-only apps", role: user.RoleTeacher, wantIDs: []string{"a1", "a3"}},
		{name: "student loses admin-only apps", role: user.RoleStudent, wantIDs: []string{"a1", "a3"}},
		{name: "unknown role treated as non-admin", role: "lol", wantIDs: []string{"a1", "a3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterAdminOnly(apps, tt.role)
			ids := make([]string, 0, len(got))
			for _, app := range got {
				ids = append(ids, app.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}

	t.Run("input order is preserved", func(t *testing.T) {
		reversed := []tenant.Application{apps[3], apps[2], apps[1], apps[0]}
		got := FilterAdminOnly(reversed, user.RoleTeacher)
		assert.Equal(t, "a3", got[0].ID)
		assert.Equal(t, "a1", got[1].ID)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, FilterAdminOnly(nil, user.RoleTeacher))
	})
}

package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sandorzhang/workbench/core/tenant"
	"github.com/Sandorzhang/workbench/core/user"
)

const testPassword = "G00d#Pa55word"

func Test_userApi_login(t *testing.T) {
	f := setupAPI(t)
	f.createUser(t, "mwalimu", user.RoleTeacher, testPassword, true)
	f.createUser(t, "ndog", user.RoleStudent, testPassword, false)

	body := func(uname, pwd string) []byte {
		return marshalObj(t, LoginRequest{Username: uname, Password: pwd})
	}

	tests := []httpTest{
		{
			name: "empty request", method: http.MethodPost, path: "/v1/users/login",
			body: body("", ""), wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{
				"username": "this field is required",
				"password": "this field is required",
			}),
		},
		{
			name: "unknown user", method: http.MethodPost, path: "/v1/users/login",
			body: body("nobody", testPassword), wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/v1/users/login",
			body: body("mwalimu", "not-the-password"), wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "deactivated account", method: http.MethodPost, path: "/v1/users/login",
			body: body("ndog", testPassword), wantCode: http.StatusForbidden,
			wantData: marshalObj(t, httpErr{Error: "account deactivated"}),
		},
	}
	for _, tt := range tests {
		tt.run(t, f.srv)
	}

	t.Run("successful login returns a usable token", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/login", "", body("mwalimu", testPassword))
		f.srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp LoginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotEmpty(t, resp.Token)

		// token must grant access to authed endpoints
		req, rec = newAuthRequest(http.MethodGet, "/v1/users/me", resp.Token)
		f.srv.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("login is case-insensitive on username", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/login", "", body("MWALIMU", testPassword))
		f.srv.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func Test_userApi_query(t *testing.T) {
	f := setupAPI(t)
	admin := f.createUser(t, "headmaster", user.RoleAdmin, testPassword, true)
	teacher := f.createUser(t, "mwalimu", user.RoleTeacher, testPassword, true)
	student := f.createUser(t, "hero", user.RoleStudent, testPassword, true)
	naughty := f.createUser(t, "ndog", user.RoleStudent, testPassword, false)

	adminToken := f.getToken(t, admin)

	path := func(search, ordering string, roles ...string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if ordering != "" {
			v.Add("ordering", ordering)
		}
		for _, r := range roles {
			v.Add("role", r)
		}
		return "/v1/users?" + v.Encode()
	}

	tests := []httpTest{
		{
			name: "auth required", path: "/v1/users", wantCode: http.StatusUnauthorized,
			wantData: marshalObj(t, errMissingToken),
		},
		{
			name: "admin required", path: "/v1/users", token: f.getToken(t, teacher),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "get all", path: "/v1/users", token: adminToken,
			wantData: marshalList(t, admin, teacher, student, naughty),
		},
		{
			name: "search unknown", path: path("lol", ""), token: adminToken,
			wantData: marshalList(t),
		},
		{
			name: "search", path: path("wali", ""), token: adminToken,
			wantData: marshalList(t, teacher),
		},
		{
			name: "filter by role", path: path("", "", user.RoleStudent), token: adminToken,
			wantData: marshalList(t, student, naughty),
		},
		{
			name: "filter by roles", path: path("", "", user.RoleAdmin, user.RoleTeacher), token: adminToken,
			wantData: marshalList(t, admin, teacher),
		},
		{
			name: "is_active=false", path: "/v1/users?is_active=false", token: adminToken,
			wantData: marshalList(t, naughty),
		},
		{
			name: "order by username", path: path("", "username"), token: adminToken,
			wantData: marshalList(t, admin, student, teacher, naughty),
		},
		{
			name: "order by -username", path: path("", "-username"), token: adminToken,
			wantData: marshalList(t, naughty, teacher, student, admin),
		},
	}
	for _, tt := range tests {
		tt.run(t, f.srv)
	}
}

func Test_userApi_register(t *testing.T) {
	f := setupAPI(t)
	admin := f.createUser(t, "headmaster", user.RoleAdmin, testPassword, true)
	teacher := f.createUser(t, "mwalimu", user.RoleTeacher, testPassword, true)
	adminToken := f.getToken(t, admin)

	newUser := func(uname, role, pwd string) []byte {
		return marshalObj(t, user.NewUser{
			TenantID:        f.tnt.ID,
			Name:            "New User",
			Username:        uname,
			Email:           uname + "@test.cd",
			Role:            role,
			Password:        pwd,
			PasswordConfirm: pwd,
		})
	}

	tests := []httpTest{
		{
			name: "auth required", method: http.MethodPost, path: "/v1/users/register",
			body: newUser("newuser", user.RoleTeacher, testPassword), wantCode: http.StatusUnauthorized,
			wantData: marshalObj(t, errMissingToken),
		},
		{
			name: "admin required", method: http.MethodPost, path: "/v1/users/register",
			body: newUser("newuser", user.RoleTeacher, testPassword), token: f.getToken(t, teacher),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "invalid role rejected", method: http.MethodPost, path: "/v1/users/register",
			body: newUser("newuser", "SUPERHERO", testPassword), token: adminToken,
			wantCode: http.StatusBadRequest,
		},
		{
			name: "weak password rejected", method: http.MethodPost, path: "/v1/users/register",
			body: newUser("newuser", user.RoleTeacher, "alllowercase"), token: adminToken,
			wantCode: http.StatusBadRequest,
		},
		{
			name: "taken username rejected", method: http.MethodPost, path: "/v1/users/register",
			body: newUser("mwalimu", user.RoleTeacher, testPassword), token: adminToken,
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"username": user.ErrUsernameExists.Error()}),
		},
		{
			name: "created", method: http.MethodPost, path: "/v1/users/register",
			body: newUser("newuser", user.RoleTeacher, testPassword), token: adminToken,
			wantCode: http.StatusCreated,
		},
	}
	for _, tt := range tests {
		tt.run(t, f.srv)
	}
}

func Test_userApi_detail(t *testing.T) {
	f := setupAPI(t)
	admin := f.createUser(t, "headmaster", user.RoleAdmin, testPassword, true)
	teacher := f.createUser(t, "mwalimu", user.RoleTeacher, testPassword, true)
	other := f.createUser(t, "mgeni", user.RoleTeacher, testPassword, true)

	adminToken := f.getToken(t, admin)
	teacherToken := f.getToken(t, teacher)

	tests := []httpTest{
		{
			name: "owner can retrieve themselves", path: "/v1/users/" + teacher.ID,
			token: teacherToken, wantData: marshalObj(t, teacher),
		},
		{
			name: "admin can retrieve anyone", path: "/v1/users/" + teacher.ID,
			token: adminToken, wantData: marshalObj(t, teacher),
		},
		{
			name: "non-admin cannot retrieve others", path: "/v1/users/" + other.ID,
			token: teacherToken, wantCode: http.StatusForbidden,
		},
		{
			name: "unknown user", path: "/v1/users/nope", token: adminToken,
			wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: "user not found"}),
		},
		{
			name: "update requires admin", method: http.MethodPut, path: "/v1/users/" + teacher.ID,
			body: marshalObj(t, user.UpdateUser{Name: "New Name"}), token: teacherToken,
			wantCode: http.StatusForbidden,
		},
		{
			name: "delete requires admin", method: http.MethodDelete, path: "/v1/users/" + teacher.ID,
			token: teacherToken, wantCode: http.StatusForbidden,
		},
		{
			name: "admin cannot delete themselves", method: http.MethodDelete, path: "/v1/users/" + admin.ID,
			token: adminToken, wantCode: http.StatusForbidden,
		},
		{
			name: "admin deletes a user", method: http.MethodDelete, path: "/v1/users/" + other.ID,
			token: adminToken, wantCode: http.StatusNoContent,
		},
	}
	for _, tt := range tests {
		tt.run(t, f.srv)
	}

	t.Run("admin updates a user", func(t *testing.T) {
		body := marshalObj(t, user.UpdateUser{Name: "Mwalimu Mkuu"})
		req, rec := newAuthRequest(http.MethodPut, "/v1/users/"+teacher.ID, adminToken, body)
		f.srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var updated user.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		assert.Equal(t, "Mwalimu Mkuu", updated.Name)
		assert.Equal(t, teacher.Username, updated.Username)
	})
}

func Test_userApi_applications(t *testing.T) {
	ctx := context.Background()

	t.Run("effective set follows role grant and override", func(t *testing.T) {
		f := setupAPI(t)
		admin := f.createUser(t, "headmaster", user.RoleAdmin, testPassword, true)
		teacher := f.createUser(t, "mwalimu", user.RoleTeacher, testPassword, true)

		_, err := f.authzSvc.UpdateRolePermission(ctx, f.tnt.ID, user.RoleTeacher,
			[]string{f.schedule.ID, f.grading.ID})
		require.NoError(t, err)

		tests := []httpTest{
			{
				name: "auth required", path: "/v1/users/" + teacher.ID + "/applications",
				wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken),
			},
			{
				name: "owner reads their own effective set", path: "/v1/users/" + teacher.ID + "/applications",
				token: f.getToken(t, teacher), wantData: marshalList(t, f.schedule, f.grading),
			},
			{
				name: "admin always gets the full tenant set", path: "/v1/users/" + admin.ID + "/applications",
				token: f.getToken(t, admin), wantData: marshalList(t, f.schedule, f.billing, f.grading),
			},
			{
				name: "update requires admin", method: http.MethodPut,
				path: "/v1/users/" + teacher.ID + "/applications",
				body: marshalObj(t, UpdateApplicationsRequest{ApplicationIDs: []string{f.schedule.ID}}),
				token: f.getToken(t, teacher), wantCode: http.StatusForbidden,
			},
		}
		for _, tt := range tests {
			tt.run(t, f.srv)
		}
	})

	t.Run("override narrows the effective set", func(t *testing.T) {
		f := setupAPI(t)
		admin := f.createUser(t, "headmaster", user.RoleAdmin, testPassword, true)
		teacher := f.createUser(t, "mwalimu", user.RoleTeacher, testPassword, true)
		adminToken := f.getToken(t, admin)

		_, err := f.authzSvc.UpdateRolePermission(ctx, f.tnt.ID, user.RoleTeacher,
			[]string{f.schedule.ID, f.grading.ID})
		require.NoError(t, err)

		// requested ids outside the role ceiling are silently dropped
		body := marshalObj(t, UpdateApplicationsRequest{
			ApplicationIDs: []string{f.grading.ID, f.billing.ID, "nonexistent-app-id"},
		})
		req, rec := newAuthRequest(http.MethodPut, "/v1/users/"+teacher.ID+"/applications", adminToken, body)
		f.srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var perm struct {
			ApplicationIDs []string `json:"application_ids"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &perm))
		assert.Equal(t, []string{f.grading.ID}, perm.ApplicationIDs)

		// subsequent reads reflect the override
		req, rec = newAuthRequest(http.MethodGet, "/v1/users/"+teacher.ID+"/applications", adminToken)
		f.srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var apps []tenant.Application
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apps))
		assert.Equal(t, []tenant.Application{f.grading}, apps)
	})

	t.Run("no role grant resolves to empty", func(t *testing.T) {
		f := setupAPI(t)
		teacher := f.createUser(t, "mwalimu", user.RoleTeacher, testPassword, true)

		tt := httpTest{
			name: "empty", path: "/v1/users/" + teacher.ID + "/applications",
			token: f.getToken(t, teacher), wantData: marshalList(t),
		}
		tt.run(t, f.srv)
	})
}

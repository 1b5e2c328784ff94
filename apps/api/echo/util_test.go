package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/Sandorzhang/workbench/core"
	"github.com/Sandorzhang/workbench/core/authz"
	"github.com/Sandorzhang/workbench/core/tenant"
	"github.com/Sandorzhang/workbench/core/user"
	emailsvc "github.com/Sandorzhang/workbench/services/email"
	inmemdb "github.com/Sandorzhang/workbench/storage/database/inmem"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type apiFixture struct {
	srv *server

	usrRepo  user.Repository
	tntRepo  tenant.Repository
	usrSvc   *user.Service
	tntSvc   *tenant.Service
	authzSvc *authz.Service

	tnt      tenant.Tenant
	schedule tenant.Application
	billing  tenant.Application // admin-only
	grading  tenant.Application
}

func setupAPI(t *testing.T) *apiFixture {
	conf := &core.Config{
		TestMode:             true,
		AppName:              "Workbench",
		SecretKey:            "test-secret-key",
		FrontendBaseURL:      "http://localhost:3000",
		DefaultFromEmailAddr: "noreply@localhost",
		Server: core.ServerConfig{
			JWTExpirationDelta: time.Hour,
			JWTRefreshDelta:    4 * time.Hour,
		},
	}

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setupAPI() failed: %v", err)
	}

	f := &apiFixture{
		usrRepo: inmemdb.NewUserRepository(db),
		tntRepo: inmemdb.NewTenantRepository(db),
	}
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	f.usrSvc = user.NewService(nil, f.usrRepo, mailSvc, conf)
	f.tntSvc = tenant.NewService(nil, f.tntRepo)
	f.authzSvc = authz.NewService(inmemdb.NewPermissionRepository(db))

	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	f.srv = NewServer(ServerDeps{
		Conf:           conf,
		Logger:         testLogger{t},
		UserSvc:        f.usrSvc,
		TenantSvc:      f.tntSvc,
		AuthzSvc:       f.authzSvc,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	}).(*server)

	ctx := context.Background()
	f.tnt, err = f.tntRepo.CreateTenant(ctx, tenant.Tenant{Name: "Sunrise Primary", ShortName: "sunrise"})
	if err != nil {
		t.Fatalf("setupAPI() failed: %v", err)
	}
	f.schedule = f.createApp(t, "class-schedule", "Class Schedule", false)
	f.billing = f.createApp(t, "billing", "Billing", true)
	f.grading = f.createApp(t, "grading", "Grading", false)

	appIDs := []string{f.schedule.ID, f.billing.ID, f.grading.ID}
	if err = f.tntRepo.SetTenantApplications(ctx, f.tnt.ID, appIDs); err != nil {
		t.Fatalf("setupAPI() failed: %v", err)
	}
	return f
}

func (f *apiFixture) createApp(t *testing.T, code, name string, adminOnly bool) tenant.Application {
	app, err := f.tntRepo.CreateApplication(context.Background(), tenant.Application{
		Code:      code,
		Name:      name,
		AdminOnly: adminOnly,
	})
	if err != nil {
		t.Fatalf("createApp() failed: %v", err)
	}
	return app
}

func (f *apiFixture) createUser(t *testing.T, uname, role, pwd string, isActive bool) user.User {
	now := time.Now().UTC()
	usr := user.User{
		TenantID:  f.tnt.ID,
		Name:      uname,
		Username:  uname,
		Email:     uname + "@test.cd",
		Role:      role,
		IsActive:  isActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := f.usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func (f *apiFixture) getToken(t *testing.T, usr user.User) string {
	token, err := f.srv.auth.generateToken(f.srv.auth.getUserClaims(usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

// testLogger routes app logs to the test output.
type testLogger struct {
	t *testing.T
}

func (l testLogger) Enable(bool)                           {}
func (l testLogger) Debug(msg string, args ...interface{}) { l.t.Log(msg, args) }
func (l testLogger) Info(msg string, args ...interface{})  { l.t.Log(msg, args) }
func (l testLogger) Warn(msg string, args ...interface{})  { l.t.Log(msg, args) }
func (l testLogger) Error(msg string, args ...interface{}) { l.t.Log(msg, args) }
func (l testLogger) Fatal(msg string, args ...interface{}) { l.t.Fatal(msg, args) }

var _ core.Logger = (*testLogger)(nil)

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func (tt httpTest) run(t *testing.T, handler http.Handler) {
	t.Run(tt.name, func(t *testing.T) {
		method := tt.method
		if method == "" {
			method = http.MethodGet
		}
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}
		req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
		handler.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj() failed: %v", err)
	}
	return data
}

func marshalList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marshalList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

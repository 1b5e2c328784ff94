package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strconv"
	"testing"
	"time"

	"github.com/Sandorzhang/workbench/core/tenant"
	"github.com/Sandorzhang/workbench/core/user"
	inmemdb "github.com/Sandorzhang/workbench/storage/database/inmem"
)

type cliFixture struct {
	cli     *commandLine
	usrRepo user.Repository
	tntRepo tenant.Repository
	tnt     tenant.Tenant
}

func setup(t *testing.T) *cliFixture {
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}

	f := &cliFixture{
		usrRepo: inmemdb.NewUserRepository(db),
		tntRepo: inmemdb.NewTenantRepository(db),
	}
	f.cli = &commandLine{
		usrRepo: f.usrRepo,
		tntRepo: f.tntRepo,
	}

	f.tnt, err = f.tntRepo.CreateTenant(context.Background(), tenant.Tenant{Name: "Sunrise Primary", ShortName: "sunrise"})
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	return f
}

func (f *cliFixture) createUser(t *testing.T, uname, email string) user.User {
	now := time.Now().UTC()
	usr := user.User{
		TenantID:  f.tnt.ID,
		Name:      uname,
		Username:  uname,
		Email:     email,
		Role:      user.RoleTeacher,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword("0r1g1nal#Pwd"); err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	usr, err := f.usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func Test_commandLine_migrate(t *testing.T) {
	f := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "redo", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := f.cli.run(args); err != nil {
				if tt.wantErr != nil {
					if err != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			}
		})
	}
}

func Test_commandLine_addTenant(t *testing.T) {
	f := setup(t)

	tests := []cliTest{
		{name: "no args", args: []string{"addtenant"}, wantErr: errHelp},
		{name: "missing short name", args: []string{"addtenant", "-name", "Moonset"}, wantErr: errHelp},
		{name: "taken short name", args: []string{"addtenant", "-name", "Moonset", "-shortname", "sunrise"}, wantErr: tenant.ErrShortNameExists},
		{name: "onboarded", args: []string{"addtenant", "-name", "Moonset Secondary", "-shortname", "moonset"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := f.cli.run(args)
			if err == nil {
				if _, err = f.tntRepo.GetTenantByShortName(context.Background(), "moonset"); err != nil {
					t.Errorf("GetTenantByShortName() failed: %v", err)
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	f := setup(t)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "missing username", args: []string{"adduser", "-tenant", "sunrise"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"adduser", "-tenant", "sunrise", "-username", "mwalimu"}, wantErr: errHelp},
		{name: "unknown tenant", args: []string{"adduser", "-tenant", "lol", "-username", "mwalimu"}, extra: extra{pwd: "lol"}, wantErr: tenant.ErrNotFound},
		{name: "created as teacher", args: []string{"adduser", "-tenant", "sunrise", "-username", "mwalimu"}, extra: extra{pwd: "lol"}},
		{name: "promoted to admin", args: []string{"adduser", "-tenant", "sunrise", "-username", "mwalimu", "-admin"}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := f.cli.run(args)
			if err == nil {
				usr, err := f.usrRepo.GetUserByUsername(context.Background(), "mwalimu")
				if err != nil {
					t.Fatalf("GetUserByUsername() failed: %v", err)
				}
				wantRole := user.RoleTeacher
				if tt.name == "promoted to admin" {
					wantRole = user.RoleAdmin
				}
				if usr.Role != wantRole {
					t.Errorf("role = %v, want %v", usr.Role, wantRole)
				}
				if !usr.IsActive {
					t.Error("user should be active")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	f := setup(t)

	usr := f.createUser(t, "awe", "awe@test.cd")

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, extra: extra{pwd: "lol"}},
		{name: "reset with email", args: []string{"resetpassword", "-username", usr.Email}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := f.cli.run(args)
			if err == nil {
				refreshedUsr, err := f.usrRepo.GetUserByID(context.Background(), usr.ID)
				if err != nil {
					t.Fatalf("GetUserByID() failed: %v", err)
				}
				if bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash) {
					t.Error("failed to update new password")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

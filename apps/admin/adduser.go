package main

import (
	"context"
	"time"

	"github.com/Sandorzhang/workbench/core"
	"github.com/Sandorzhang/workbench/core/user"
)

// addUser updates or creates a user.User in the given tenant.
func (cli *commandLine) addUser(tenantShortName, uname, email, pwd, role string) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	tnt, err := cli.tntRepo.GetTenantByShortName(ctx, core.CleanString(tenantShortName, true /* lower */))
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(ctx, uname)
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		usr = user.User{
			TenantID:  tnt.ID,
			Name:      uname,
			Username:  uname,
			Email:     email,
			Role:      role,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err = usr.SetPassword(pwd); err != nil {
			return err
		}
		_, err = cli.usrRepo.CreateUser(ctx, usr)
		return err
	}

	usr.Role = role
	usr.UpdatedAt = now
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	isActive := true
	_, err = cli.usrRepo.UpdateUser(ctx, usr, &isActive)
	return err
}

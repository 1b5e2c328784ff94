package main

import (
	"context"
	"time"

	"github.com/Sandorzhang/workbench/core"
	"github.com/Sandorzhang/workbench/core/tenant"
)

// addTenant onboards a new tenant; the short name must be free.
func (cli *commandLine) addTenant(name, shortName string) error {
	ctx := context.Background()
	name = core.CleanString(name)
	shortName = core.CleanString(shortName, true /* lower */)

	if err := cli.tntRepo.CheckShortNameUniqueness(ctx, shortName); err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err := cli.tntRepo.CreateTenant(ctx, tenant.Tenant{
		Name:      name,
		ShortName: shortName,
		CreatedAt: now,
		UpdatedAt: now,
	})
	return err
}

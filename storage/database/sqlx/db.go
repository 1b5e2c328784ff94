package sqlxrepos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/Sandorzhang/workbench/core"
)

const driverName = "postgres"

// Wrap adapts a plain *sql.DB for the repositories in this package.
func Wrap(db *sql.DB) *sqlx.DB {
	return sqlx.NewDb(db, driverName)
}

// getExt resolves the executor for a query: a service-provided override
// (typically a transaction) wins over the repository's default handle.
func getExt(db *sqlx.DB, svcExec []core.DBExecutor) sqlx.ExtContext {
	if len(svcExec) > 0 {
		switch exec := svcExec[0].(type) {
		case *sql.Tx:
			return sqlx.NewTx(exec, driverName)
		case *sql.DB:
			return sqlx.NewDb(exec, driverName)
		}
	}
	return db
}

// trapNoRowsErr maps psql "no rows" to the given sentinel.
func trapNoRowsErr(err, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

package sqlxrepos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Sandorzhang/workbench/core"
	"github.com/Sandorzhang/workbench/core/user"
)

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

type userRow struct {
	ID           string      `db:"id"`
	TenantID     null.String `db:"tenant_id"`
	Name         null.String `db:"name"`
	Username     null.String `db:"username"`
	Email        null.String `db:"email"`
	Role         string      `db:"role"`
	IsActive     bool        `db:"is_active"`
	PasswordHash null.Bytes  `db:"password_hash"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
	LastLogin    null.Time   `db:"last_login"`
}

func (r userRow) user() user.User {
	return user.User{
		ID:           r.ID,
		TenantID:     r.TenantID.String,
		Name:         r.Name.String,
		Username:     r.Username.String,
		Email:        r.Email.String,
		Role:         r.Role,
		IsActive:     r.IsActive,
		PasswordHash: r.PasswordHash.Bytes,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		LastLogin:    r.LastLogin.Time,
	}
}

func users(rows []userRow) []user.User {
	usrs := make([]user.User, 0, len(rows))
	for _, row := range rows {
		usrs = append(usrs, row.user())
	}
	return usrs
}

const userColumns = `id, tenant_id, name, username, email, role, is_active, password_hash, created_at, updated_at, last_login`

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	query := `SELECT username, email FROM "user" WHERE (username = $1 OR email = $2)`
	args := []interface{}{username, email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, usr := range excludedUsers {
			ids = append(ids, usr.ID)
		}
		query += ` AND NOT (id = ANY($3))`
		args = append(args, pq.StringArray(ids))
	}

	rows, err := getExt(repo.db, exec).QueryxContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	//goland:noinspection GoUnhandledErrorResult
	defer rows.Close()

	for rows.Next() {
		var uname, mail null.String
		if err = rows.Scan(&uname, &mail); err != nil {
			return errors.Wrap(err, "scanning user uniqueness row")
		}
		if username != "" && uname.String == username {
			return user.ErrUsernameExists
		}
		if email != "" && mail.String == email {
			return user.ErrEmailExists
		}
	}
	return errors.Wrap(rows.Err(), "checking user uniqueness")
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	usr.ID = uuid.New().String()
	_, err := getExt(repo.db, exec).ExecContext(ctx,
		`INSERT INTO "user" (id, tenant_id, name, username, email, role, is_active, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		usr.ID,
		null.NewString(usr.TenantID, usr.TenantID != ""),
		null.NewString(usr.Name, usr.Name != ""),
		null.NewString(usr.Username, usr.Username != ""),
		null.NewString(usr.Email, usr.Email != ""),
		usr.Role, usr.IsActive, null.BytesFrom(usr.PasswordHash),
		usr.CreatedAt, usr.UpdatedAt)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, error) {
	conds := []string{"TRUE"}
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.TenantID != "" {
		conds = append(conds, "tenant_id = "+arg(filter.TenantID))
	}
	if filter.Search != "" {
		val := "%" + filter.Search + "%"
		p := arg(val)
		conds = append(conds, fmt.Sprintf("(name ILIKE %s OR username ILIKE %s OR email ILIKE %s)", p, p, p))
	}
	if len(filter.Roles) > 0 {
		conds = append(conds, "role = ANY("+arg(pq.StringArray(filter.Roles))+")")
	}
	if filter.IsActive != nil {
		conds = append(conds, "is_active = "+arg(*filter.IsActive))
	}
	if !filter.CreatedAt.IsZero() {
		conds = append(conds, "created_at >= "+arg(filter.CreatedAt))
	}

	query := fmt.Sprintf(`SELECT %s FROM "user" WHERE %s ORDER BY %s`,
		userColumns, strings.Join(conds, " AND "), orderClause(ordering))

	var rows []userRow
	if err := sqlx.SelectContext(ctx, getExt(repo.db, exec), &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering users")
	}
	return users(rows), nil
}

// orderableUserColumns guards the ORDER BY clause against injection;
// orderings on any other field are dropped.
var orderableUserColumns = map[string]bool{
	"name":       true,
	"username":   true,
	"email":      true,
	"created_at": true,
}

func orderClause(ordering []core.DBOrdering) string {
	var orderList []string
	for _, ord := range ordering {
		if orderableUserColumns[ord.Field] {
			orderList = append(orderList, ord.String())
		}
	}
	if len(orderList) == 0 {
		return "created_at ASC"
	}
	return strings.Join(orderList, ", ")
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string, exec ...core.DBExecutor) (user.User, error) {
	var row userRow
	err := sqlx.GetContext(ctx, getExt(repo.db, exec), &row,
		`SELECT `+userColumns+` FROM "user" WHERE id = $1`, id)
	if err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "getting user by id")
	}
	return row.user(), nil
}

func (repo *userRepository) GetUserByUsername(ctx context.Context, username string, exec ...core.DBExecutor) (user.User, error) {
	var row userRow
	err := sqlx.GetContext(ctx, getExt(repo.db, exec), &row,
		`SELECT `+userColumns+` FROM "user" WHERE username = $1`, username)
	if err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "getting user by username")
	}
	return row.user(), nil
}

func (repo *userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string, exec ...core.DBExecutor) (user.User, error) {
	var row userRow
	err := sqlx.GetContext(ctx, getExt(repo.db, exec), &row,
		`SELECT `+userColumns+` FROM "user" WHERE username = $1 OR email = $1`, username)
	if err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "getting user by username or email")
	}
	return row.user(), nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool, exec ...core.DBExecutor) (user.User, error) {
	sets := []string{"updated_at = $1"}
	args := []interface{}{usr.UpdatedAt}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if usr.Name != "" {
		sets = append(sets, "name = "+arg(usr.Name))
	}
	if usr.Username != "" {
		sets = append(sets, "username = "+arg(usr.Username))
	}
	if usr.Email != "" {
		sets = append(sets, "email = "+arg(usr.Email))
	}
	if usr.Role != "" {
		sets = append(sets, "role = "+arg(usr.Role))
	}
	if usr.PasswordHash != nil {
		sets = append(sets, "password_hash = "+arg(usr.PasswordHash))
	}
	if isActive != nil {
		sets = append(sets, "is_active = "+arg(*isActive))
	}
	if !usr.LastLogin.IsZero() {
		sets = append(sets, "last_login = "+arg(usr.LastLogin))
	}

	query := fmt.Sprintf(`UPDATE "user" SET %s WHERE id = %s RETURNING %s`,
		strings.Join(sets, ", "), arg(usr.ID), userColumns)

	var row userRow
	if err := sqlx.GetContext(ctx, getExt(repo.db, exec), &row, query, args...); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "updating user")
	}
	return row.user(), nil
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	_, err := getExt(repo.db, exec).ExecContext(ctx,
		`DELETE FROM "user" WHERE id = ANY($1)`, pq.StringArray(ids))
	return errors.Wrap(err, "deleting users")
}

package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/user"
)

// userRow maps the "user" table. Nullable columns go through null/v8 and are
// converted at the repository boundary so the domain only sees user.User.
type userRow struct {
	ID           string         `db:"id"`
	Name         null.String    `db:"name"`
	Username     null.String    `db:"username"`
	Email        null.String    `db:"email"`
	Department   null.String    `db:"department"`
	IsActive     null.Bool      `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	PasswordHash null.Bytes     `db:"password_hash"`
	CreatedAt    null.Time      `db:"created_at"`
	UpdatedAt    null.Time      `db:"updated_at"`
	LastLogin    null.Time      `db:"last_login"`
}

func (r userRow) unmarshal() user.User {
	return user.User{
		ID:           r.ID,
		Name:         r.Name.String,
		Username:     r.Username.String,
		Email:        r.Email.String,
		Department:   r.Department.String,
		IsActive:     r.IsActive.Ptr(),
		Roles:        r.Roles,
		PasswordHash: r.PasswordHash.Bytes,
		CreatedAt:    r.CreatedAt.Time,
		UpdatedAt:    r.UpdatedAt.Time,
		LastLogin:    r.LastLogin.Time,
	}
}

func marshalUser(usr user.User) userRow {
	return userRow{
		ID:           usr.ID,
		Name:         null.NewString(usr.Name, usr.Name != ""),
		Username:     null.NewString(usr.Username, usr.Username != ""),
		Email:        null.NewString(usr.Email, usr.Email != ""),
		Department:   null.NewString(usr.Department, usr.Department != ""),
		IsActive:     null.BoolFromPtr(usr.IsActive),
		Roles:        usr.Roles,
		PasswordHash: null.BytesFrom(usr.PasswordHash),
		CreatedAt:    null.NewTime(usr.CreatedAt.UTC(), !usr.CreatedAt.IsZero()),
		UpdatedAt:    null.NewTime(usr.UpdatedAt.UTC(), !usr.UpdatedAt.IsZero()),
		LastLogin:    null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

func unmarshalUsers(rows []userRow) []user.User {
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.unmarshal())
	}
	return users
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	query := `SELECT username = $1 AS uname_taken FROM "user" WHERE (username = $1 OR email = $2)`
	args := []interface{}{username, email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		query += ` AND NOT (id = ANY($3))`
		args = append(args, pq.Array(ids))
	}
	query += ` LIMIT 1`

	var unameTaken bool
	if err := repo.db.GetContext(ctx, &unameTaken, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil
		}
		return errors.Wrap(err, "checking user uniqueness")
	}
	if unameTaken {
		return user.ErrUsernameExists
	}
	return user.ErrEmailExists
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	r := marshalUser(usr)
	query := `
INSERT INTO "user" (id, name, username, email, department, is_active, roles, password_hash, created_at, updated_at, last_login)
VALUES (:id, :name, :username, :email, :department, :is_active, :roles, :password_hash, :created_at, :updated_at, :last_login)`
	if _, err := repo.db.NamedExecContext(ctx, query, r); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	var rows []userRow
	query := `SELECT * FROM "user" ORDER BY created_at DESC`
	if err := repo.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return unmarshalUsers(rows), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return user.User{}, user.ErrNotFound
	}
	var r userRow
	query := `SELECT * FROM "user" WHERE id = $1`
	if err := repo.db.GetContext(ctx, &r, query, id); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user by ID")
	}
	return r.unmarshal(), nil
}

func (repo userRepository) GetUserByUsernameOrEmail(ctx context.Context, uname string) (user.User, error) {
	var r userRow
	query := `SELECT * FROM "user" WHERE username = $1 OR email = $1`
	if err := repo.db.GetContext(ctx, &r, query, uname); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user")
	}
	return r.unmarshal(), nil
}

func (repo userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	var conds []string
	var args []interface{}

	query := `SELECT * FROM "user"`

	// users with Name, Username or Email matching the search keyword
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(`(name ILIKE $%d OR username ILIKE $%d OR email ILIKE $%d)`, n, n, n))
	}
	// users with any role that starts with any of the provided roles
	if len(filter.Roles) > 0 {
		prefixes := make([]string, 0, len(filter.Roles))
		for _, role := range filter.Roles {
			prefixes = append(prefixes, role+"%")
		}
		args = append(args, pq.Array(prefixes))
		conds = append(conds, fmt.Sprintf(`EXISTS (SELECT 1 FROM UNNEST(roles) user_role WHERE user_role ILIKE ANY($%d))`, len(args)))
	}
	if filter.Department != "" {
		args = append(args, filter.Department)
		conds = append(conds, fmt.Sprintf(`department = $%d`, len(args)))
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		conds = append(conds, fmt.Sprintf(`is_active = $%d`, len(args)))
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering users")
	}
	return unmarshalUsers(rows), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	if isActive != nil {
		usr.IsActive = isActive
	}
	r := marshalUser(usr)
	query := `
UPDATE "user"
SET name = :name, username = :username, email = :email, department = :department,
    is_active = :is_active, roles = :roles, password_hash = :password_hash,
    updated_at = :updated_at, last_login = :last_login
WHERE id = :id`
	if _, err := repo.db.NamedExecContext(ctx, query, r); err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return usr, nil
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	query := `DELETE FROM "user" WHERE id = ANY($1)`
	if _, err := repo.db.ExecContext(ctx, query, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}

package pgrepos

import (
	"context"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/kaithabhanuteja/StudentManagement/core/user"
)

const userColumns = "id, username, email, password_hash, is_superuser, is_active, date_joined, last_login"

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

func userError(err error, action string) error {
	if code, constraint := violation(err); code == uniqueViolation {
		switch constraint {
		case "users_username_key":
			return user.ErrUsernameExists
		case "users_email_key":
			return user.ErrEmailExists
		}
	}
	return errors.Wrap(err, action)
}

func (repo *userRepository) CheckUniqueness(ctx context.Context, username, email string, excludeID int64) error {
	var taken []struct {
		Username string `db:"username"`
		Email    string `db:"email"`
	}
	err := conn(ctx, repo.db).SelectContext(ctx, &taken,
		`SELECT username, email FROM users
		WHERE (username = $1 OR ($2 <> '' AND lower(email) = lower($2))) AND id <> $3`,
		username, email, excludeID,
	)
	if err != nil {
		return errors.Wrap(err, "selecting users")
	}
	for _, u := range taken {
		if u.Username == username {
			return user.ErrUsernameExists
		}
	}
	if len(taken) > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	err := conn(ctx, repo.db).GetContext(ctx, &usr.ID,
		`INSERT INTO users (username, email, password_hash, is_superuser, is_active, date_joined, last_login)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		usr.Username, usr.Email, usr.PasswordHash, usr.IsSuperuser, usr.IsActive, usr.DateJoined, usr.LastLogin,
	)
	if err != nil {
		return user.User{}, userError(err, "inserting user")
	}
	usr.Permissions = nil
	return usr, nil
}

func (repo *userRepository) getUser(ctx context.Context, query string, args ...interface{}) (user.User, error) {
	e := conn(ctx, repo.db)
	var usr user.User
	if err := e.GetContext(ctx, &usr, query, args...); err != nil {
		if isNoRows(err) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "selecting user")
	}
	if err := e.SelectContext(ctx, &usr.Permissions,
		"SELECT codename FROM user_permissions WHERE user_id = $1 ORDER BY codename", usr.ID,
	); err != nil {
		return user.User{}, errors.Wrap(err, "selecting permissions")
	}
	return usr, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id int64) (user.User, error) {
	return repo.getUser(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
}

func (repo *userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	return repo.getUser(ctx,
		"SELECT "+userColumns+` FROM users
		WHERE username = $1 OR (email <> '' AND lower(email) = lower($1))
		ORDER BY (username = $1) DESC LIMIT 1`,
		username,
	)
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	res, err := conn(ctx, repo.db).ExecContext(ctx,
		`UPDATE users SET username = $1, email = $2, password_hash = $3,
		is_superuser = $4, is_active = $5, last_login = $6 WHERE id = $7`,
		usr.Username, usr.Email, usr.PasswordHash, usr.IsSuperuser, usr.IsActive, usr.LastLogin, usr.ID,
	)
	if err != nil {
		return user.User{}, userError(err, "updating user")
	}
	if err = checkRowsAffected(res, user.ErrNotFound); err != nil {
		return user.User{}, err
	}
	return repo.GetUserByID(ctx, usr.ID)
}

func (repo *userRepository) GrantPermissions(ctx context.Context, userID int64, perms ...string) error {
	if len(perms) == 0 {
		return nil
	}
	values := make([]string, 0, len(perms))
	args := make([]interface{}, 0, len(perms)+1)
	args = append(args, userID)
	for _, perm := range perms {
		args = append(args, perm)
		values = append(values, "($1, $"+strconv.Itoa(len(args))+")")
	}
	_, err := conn(ctx, repo.db).ExecContext(ctx,
		"INSERT INTO user_permissions (user_id, codename) VALUES "+strings.Join(values, ", ")+" ON CONFLICT DO NOTHING",
		args...,
	)
	if code, _ := violation(err); code == foreignKeyViolation {
		return user.ErrNotFound
	}
	return errors.Wrap(err, "inserting permissions")
}

package user

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/kaithabhanuteja/StudentManagement/core"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound           = errors.New("user not found")
	ErrEmailExists        = errors.New("A user with that email already exists.")
	ErrUsernameExists     = errors.New("A user with that username already exists.")
	ErrInvalidCredentials = errors.New("Please enter a correct username and password. Note that both fields may be case-sensitive.")
	ErrAccountDeactivated = errors.New("This account is inactive.")
)

type Repository interface {
	// CheckUniqueness returns ErrUsernameExists or ErrEmailExists when another user (excluding excludeID) holds them.
	CheckUniqueness(ctx context.Context, username, email string, excludeID int64) error
	CreateUser(ctx context.Context, usr User) (User, error)
	GetUserByID(ctx context.Context, id int64) (User, error)
	// GetUserByUsernameOrEmail matches the username exactly or the email case-insensitively.
	GetUserByUsernameOrEmail(ctx context.Context, username string) (User, error)
	UpdateUser(ctx context.Context, usr User) (User, error)
	GrantPermissions(ctx context.Context, userID int64, perms ...string) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CheckUniqueness reports taken usernames and emails as field errors.
func (svc *Service) CheckUniqueness(ctx context.Context, uname, email string, excludeID ...int64) error {
	var exclID int64
	if len(excludeID) > 0 {
		exclID = excludeID[0]
	}
	if err := svc.repo.CheckUniqueness(ctx, uname, email, exclID); err != nil {
		if vErr := asValidationError(err); vErr != nil {
			return vErr
		}
		return errors.Wrap(err, "checking uniqueness")
	}
	return nil
}

func asValidationError(err error) error {
	var field string
	switch errors.Cause(err) {
	case ErrUsernameExists:
		field = "username"
	case ErrEmailExists:
		field = "email"
	default:
		return nil
	}
	cause := errors.Cause(err)
	return core.NewValidationError(cause, core.FieldError{Field: field, Error: cause.Error()})
}

// Create saves a new active account from a validated NewUser.
func (svc *Service) Create(ctx context.Context, nu NewUser, perms ...string) (User, error) {
	usr := User{
		Username:   nu.Username,
		Email:      nu.Email,
		IsActive:   true,
		DateJoined: NowFunc().UTC(),
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		if vErr := asValidationError(err); vErr != nil {
			return User{}, vErr
		}
		return User{}, errors.Wrap(err, "creating user")
	}
	if len(perms) > 0 {
		if err = svc.repo.GrantPermissions(ctx, usr.ID, perms...); err != nil {
			return User{}, errors.Wrap(err, "granting permissions")
		}
		usr.Permissions = perms
	}
	return usr, nil
}

func (svc *Service) GetByID(ctx context.Context, id int64) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByUsernameOrEmail(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUserByUsernameOrEmail(ctx, core.CleanString(uname))
}

// Authenticate checks the credentials and records the login time.
func (svc *Service) Authenticate(ctx context.Context, creds Credentials) (User, error) {
	usr, err := svc.GetByUsernameOrEmail(ctx, creds.Username)
	if err != nil {
		if err == ErrNotFound {
			return User{}, core.NewValidationError(ErrInvalidCredentials)
		}
		return User{}, errors.Wrap(err, "finding user by username or email")
	}
	if err = usr.CheckPassword(creds.Password); err != nil {
		return User{}, core.NewValidationError(ErrInvalidCredentials)
	}
	if !usr.IsActive {
		return User{}, core.NewValidationError(ErrAccountDeactivated)
	}
	return svc.SetLastLogin(ctx, usr)
}

func (svc *Service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = null.TimeFrom(NowFunc().UTC())
	usr, err := svc.repo.UpdateUser(ctx, usr)
	return usr, errors.Wrap(err, "setting last login")
}

func (svc *Service) Grant(ctx context.Context, usr User, perms ...string) (User, error) {
	for _, perm := range perms {
		if !IsValidPermission(perm) {
			return User{}, errors.Errorf("unknown permission %q", perm)
		}
	}
	if err := svc.repo.GrantPermissions(ctx, usr.ID, perms...); err != nil {
		return User{}, errors.Wrap(err, "granting permissions")
	}
	return svc.repo.GetUserByID(ctx, usr.ID)
}

// SetPassword replaces the password of usr.
func (svc *Service) SetPassword(ctx context.Context, usr User, pwd string) (User, error) {
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr, err := svc.repo.UpdateUser(ctx, usr)
	return usr, errors.Wrap(err, "updating password")
}

// SetSuperuser grants or revokes every permission at once.
func (svc *Service) SetSuperuser(ctx context.Context, usr User, isSuperuser bool) (User, error) {
	usr.IsSuperuser = isSuperuser
	usr, err := svc.repo.UpdateUser(ctx, usr)
	return usr, errors.Wrap(err, "updating superuser status")
}

package user

import (
	"context"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/kaithabhanuteja/StudentManagement/core"
)

// Permissions (codenames)
const (
	PermViewStudent   = "view_student"
	PermAddStudent    = "add_student"
	PermChangeStudent = "change_student"
	PermDeleteStudent = "delete_student"

	PermViewTeacher   = "view_teacher"
	PermAddTeacher    = "add_teacher"
	PermChangeTeacher = "change_teacher"
	PermDeleteTeacher = "delete_teacher"

	PermViewAttendance   = "view_attendance"
	PermAddAttendance    = "add_attendance"
	PermChangeAttendance = "change_attendance"
	PermDeleteAttendance = "delete_attendance"
)

var (
	AllPermissions = []string{
		PermViewStudent, PermAddStudent, PermChangeStudent, PermDeleteStudent,
		PermViewTeacher, PermAddTeacher, PermChangeTeacher, PermDeleteTeacher,
		PermViewAttendance, PermAddAttendance, PermChangeAttendance, PermDeleteAttendance,
	}

	// StudentPermissions are granted on self registration.
	StudentPermissions = []string{PermViewStudent, PermViewAttendance}

	// TeacherPermissions are granted when an account is linked to a teacher.
	TeacherPermissions = []string{PermViewStudent, PermViewAttendance, PermAddAttendance}
)

func IsValidPermission(perm string) bool {
	for _, p := range AllPermissions {
		if p == perm {
			return true
		}
	}
	return false
}

type User struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	PasswordHash []byte    `db:"password_hash"`
	IsSuperuser  bool      `db:"is_superuser"`
	IsActive     bool      `db:"is_active"`
	DateJoined   time.Time `db:"date_joined"` // UTC
	LastLogin    null.Time `db:"last_login"`  // UTC
	Permissions  []string  `db:"-"`
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// HasPerm reports whether the user holds perm. Active superusers hold every permission.
func (u User) HasPerm(perm string) bool {
	if !u.IsActive {
		return false
	}
	if u.IsSuperuser {
		return true
	}
	for _, p := range u.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// NewUser contains information needed to register a new User.
type NewUser struct {
	Username        string `form:"username" validate:"required,max=100,username_chars"`
	Email           string `form:"email" validate:"required,email,max=254"`
	Password        string `form:"password1" validate:"required"`
	PasswordConfirm string `form:"password2" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Clean() {
	nu.Username = core.CleanString(nu.Username)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
}

func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	nu.Clean()
	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, nu.Username, nu.Email)
}

// Credentials is the login form.
type Credentials struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

func (c *Credentials) Validate(validate *validator.Validate) error {
	c.Username = core.CleanString(c.Username)
	return validate.Struct(c)
}

// InitValidators registers the user package validators and their messages.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	registerValidators(validate, translator)
}

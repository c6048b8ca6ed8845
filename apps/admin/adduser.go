package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/kaithabhanuteja/StudentManagement/core"
	"github.com/kaithabhanuteja/StudentManagement/core/user"
)

type newAccount struct {
	username, email, password string
	isSuperuser               bool
	teacherID, studentID      int64
}

// addUser creates an active account and optionally links it to a teacher or a student,
// granting the matching role permissions. Everything happens in one transaction.
func (cli *commandLine) addUser(acc newAccount) error {
	ctx := context.Background()

	nu := user.NewUser{
		Username:        acc.username,
		Email:           acc.email,
		Password:        acc.password,
		PasswordConfirm: acc.password,
	}
	if err := nu.Validate(ctx, cli.validate, cli.usrSvc); err != nil {
		cli.printValidationError(err)
		return err
	}

	var usr user.User
	err := cli.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if usr, err = cli.usrSvc.Create(ctx, nu); err != nil {
			return err
		}
		if acc.isSuperuser {
			if usr, err = cli.usrSvc.SetSuperuser(ctx, usr, true); err != nil {
				return err
			}
		}

		switch {
		case acc.teacherID != 0:
			if _, err = cli.schoolSvc.LinkTeacherAccount(ctx, acc.teacherID, usr); err != nil {
				return err
			}
			if usr, err = cli.usrSvc.Grant(ctx, usr, user.TeacherPermissions...); err != nil {
				return err
			}
		case acc.studentID != 0:
			if _, err = cli.schoolSvc.LinkStudentAccount(ctx, acc.studentID, usr); err != nil {
				return err
			}
			if usr, err = cli.usrSvc.Grant(ctx, usr, user.StudentPermissions...); err != nil {
				return err
			}
		}

		// store the profile of the resulting role
		_, err = cli.schoolSvc.ResolveRole(ctx, usr)
		return err
	})
	if err != nil {
		cli.printValidationError(err)
		return err
	}

	fmt.Printf("User %q created (id %d).\n", usr.Username, usr.ID)
	return nil
}

func (cli *commandLine) printValidationError(err error) {
	fields, ok := core.FieldErrors(err, cli.translator)
	if !ok {
		return
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %s\n", name, fields[name])
	}
}

package main

import (
	"database/sql"
	"flag"
	"fmt"
	"strings"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/kaithabhanuteja/StudentManagement/core"
	"github.com/kaithabhanuteja/StudentManagement/core/school"
	"github.com/kaithabhanuteja/StudentManagement/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp       = errors.New("help provided")
	errNoDatabase = errors.New("migrate needs a database connection")
)

type commandLine struct {
	db         *sql.DB // nil when the store is not Postgres
	tx         core.Transactor
	usrSvc     *user.Service
	schoolSvc  *school.Service
	validate   *validator.Validate
	translator ut.Translator
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a goose command (up, up-by-one, up-to, down, down-to, redo, reset, status, version, create, fix)")
	fmt.Println("  adduser -username USERNAME -email EMAIL [-superuser] [-teacher ID] [-student ID] - create an account, the password is prompted next")
	fmt.Println("  resetpassword -username USERNAME|EMAIL - reset user's password")
	fmt.Println("  grant -username USERNAME|EMAIL -perm CODENAME[,CODENAME...] - grant permissions")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserUname := addUserCmd.String("username", "", "The username of the account.")
	addUserEmail := addUserCmd.String("email", "", "The email of the account.")
	addUserSuper := addUserCmd.Bool("superuser", false, "Give the account every permission.")
	addUserTeacher := addUserCmd.Int64("teacher", 0, "Link the account to the teacher with this ID.")
	addUserStudent := addUserCmd.Int64("student", 0, "Link the account to the student with this ID.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	grantCmd := flag.NewFlagSet("grant", flag.ContinueOnError)
	grantUname := grantCmd.String("username", "", "The user's username or email.")
	grantPerms := grantCmd.String("perm", "", "Comma separated permission codenames, e.g. add_teacher,view_teacher.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserUname == "" || *addUserEmail == "" || (*addUserTeacher != 0 && *addUserStudent != 0) {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(newAccount{
			username:    *addUserUname,
			email:       *addUserEmail,
			password:    pwd,
			isSuperuser: *addUserSuper,
			teacherID:   *addUserTeacher,
			studentID:   *addUserStudent,
		})

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

	case "grant":
		if err := grantCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *grantUname == "" || *grantPerms == "" {
			grantCmd.Usage()
			return errHelp
		}
		return cli.grant(*grantUname, strings.Split(*grantPerms, ",")...)

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}
	return string(pwd), nil
}

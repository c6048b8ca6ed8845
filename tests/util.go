package testutil

import (
	"context"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/kaithabhanuteja/StudentManagement/core"
	"github.com/kaithabhanuteja/StudentManagement/core/school"
	"github.com/kaithabhanuteja/StudentManagement/core/user"
	emailsvc "github.com/kaithabhanuteja/StudentManagement/services/email"
	inmemdb "github.com/kaithabhanuteja/StudentManagement/storage/database/inmem"
)

// Env wires the services to a fresh in-memory store.
type Env struct {
	Conf       *core.Config
	DB         *inmemdb.DB
	UserRepo   user.Repository
	SchoolRepo school.Repository
	UserSvc    *user.Service
	SchoolSvc  *school.Service
	MailSvc    core.EmailService
	Validate   *validator.Validate
	Translator ut.Translator
	Logger     *Logger
}

func NewEnv(t *testing.T) *Env {
	t.Helper()

	conf := core.NewTestConfig()
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	schoolRepo := inmemdb.NewSchoolRepository(db)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	school.InitValidators(validate, translator)

	logger := new(Logger)
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc := user.NewService(usrRepo)

	return &Env{
		Conf:       conf,
		DB:         db,
		UserRepo:   usrRepo,
		SchoolRepo: schoolRepo,
		UserSvc:    usrSvc,
		SchoolSvc:  school.NewService(conf, schoolRepo, usrSvc, db, mailSvc, logger),
		MailSvc:    mailSvc,
		Validate:   validate,
		Translator: translator,
		Logger:     logger,
	}
}

// Logger is a core.Logger that records messages.
type Logger struct {
	Messages []string
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) Debug(msg string, _ ...interface{}) { l.Messages = append(l.Messages, msg) }
func (l *Logger) Info(msg string, _ ...interface{})  { l.Messages = append(l.Messages, msg) }
func (l *Logger) Warn(msg string, _ ...interface{})  { l.Messages = append(l.Messages, msg) }
func (l *Logger) Error(msg string, _ ...interface{}) { l.Messages = append(l.Messages, msg) }
func (l *Logger) Fatal(msg string, _ ...interface{}) { l.Messages = append(l.Messages, msg) }

func CreateUser(
	t *testing.T,
	repo user.Repository,
	uname, email, pwd string,
	isSuperuser, isActive bool,
	perms ...string,
) user.User {
	t.Helper()
	ctx := context.Background()

	usr := user.User{
		Username:    uname,
		Email:       email,
		IsSuperuser: isSuperuser,
		IsActive:    isActive,
		DateJoined:  time.Now().UTC(),
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(ctx, usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	if len(perms) > 0 {
		if err = repo.GrantPermissions(ctx, usr.ID, perms...); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	if usr, err = repo.GetUserByID(ctx, usr.ID); err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateTeacher(t *testing.T, repo school.TeacherRepository, name, email, subject string, userID ...int64) school.Teacher {
	t.Helper()

	teacher := school.Teacher{Name: name, Email: email, Subject: subject, Phone: "0991234567"}
	if len(userID) > 0 {
		teacher.UserID = null.Int64From(userID[0])
	}
	teacher, err := repo.CreateTeacher(context.Background(), teacher)
	if err != nil {
		t.Fatalf("CreateTeacher() failed: %v", err)
	}
	return teacher
}

// CreateStudent saves s, defaulting Age to 18 and CreatedAt to now.
func CreateStudent(t *testing.T, repo school.StudentRepository, s school.Student) school.Student {
	t.Helper()

	if s.Age == 0 {
		s.Age = 18
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	s, err := repo.CreateStudent(context.Background(), s)
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return s
}

func CreateAttendance(t *testing.T, repo school.AttendanceRepository, studentID int64, date time.Time, status string) school.Attendance {
	t.Helper()

	a, err := repo.CreateAttendance(context.Background(), school.Attendance{
		StudentID: studentID,
		Date:      school.DateOf(date),
		Status:    status,
	})
	if err != nil {
		t.Fatalf("CreateAttendance() failed: %v", err)
	}
	return a
}

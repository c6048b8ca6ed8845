package school

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/kaithabhanuteja/StudentManagement/core"
	"github.com/kaithabhanuteja/StudentManagement/core/user"
)

// Register creates, in one transaction, the account of a validated NewUser, its Student record,
// the student permissions and the student Profile. A welcome email is sent once committed.
func (svc *Service) Register(ctx context.Context, nu user.NewUser) (user.User, Student, error) {
	if err := svc.checkStudentEmail(ctx, nu.Email, 0); err != nil {
		return user.User{}, Student{}, err
	}

	var (
		usr     user.User
		student Student
	)
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if usr, err = svc.usrSvc.Create(ctx, nu, user.StudentPermissions...); err != nil {
			return err
		}

		student = Student{
			UserID:    null.Int64From(usr.ID),
			Name:      usr.Username,
			Age:       RegisteredStudentAge,
			Email:     usr.Email,
			Course:    RegisteredStudentCourse,
			CreatedAt: NowFunc().UTC(),
		}
		if student, err = svc.repo.CreateStudent(ctx, student); err != nil {
			return storeError(err, "creating student")
		}

		if _, err = svc.repo.SaveProfile(ctx, Profile{UserID: usr.ID, Role: RoleStudent}); err != nil {
			return errors.Wrap(err, "saving profile")
		}
		return nil
	})
	if err != nil {
		return user.User{}, Student{}, err
	}

	svc.sendWelcomeMail(usr, student)
	return usr, student, nil
}

func (svc *Service) sendWelcomeMail(usr user.User, student Student) {
	if svc.mailSvc == nil || usr.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Username, Address: usr.Email}},
		Subject:      fmt.Sprintf("Welcome to %s", svc.conf.AppName),
		TemplateName: "welcome",
		TemplateData: map[string]interface{}{
			"Username": usr.Username,
			"Course":   student.Course,
		},
	})
}

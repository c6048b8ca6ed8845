package school

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/kaithabhanuteja/StudentManagement/core"
	"github.com/kaithabhanuteja/StudentManagement/core/user"
)

const StudentsPerPage = 5

var (
	NowFunc = time.Now // mockable

	// errors
	ErrStudentNotFound     = errors.New("student not found")
	ErrTeacherNotFound     = errors.New("teacher not found")
	ErrProfileNotFound     = errors.New("profile not found")
	ErrStudentEmailExists  = errors.New("Student with this Email already exists.")
	ErrTeacherEmailExists  = errors.New("Teacher with this Email already exists.")
	ErrDuplicateAttendance = errors.New("Attendance with this Student and Date already exists.")
	ErrNoRole              = errors.New("No role assigned to this account.")

	errInvalidChoice = errors.New("Select a valid choice. That choice is not one of the available choices.")
)

type (
	StudentRepository interface {
		CreateStudent(ctx context.Context, s Student) (Student, error)
		UpdateStudent(ctx context.Context, s Student) (Student, error)
		// DeleteStudent removes the student and its attendance records.
		DeleteStudent(ctx context.Context, id int64) error
		GetStudentByID(ctx context.Context, id int64) (Student, error)
		GetStudentByUserID(ctx context.Context, userID int64) (Student, error)
		StudentEmailExists(ctx context.Context, email string, excludeID int64) (bool, error)
		// QueryStudents includes the assigned teacher name. limit <= 0 means no limit.
		QueryStudents(ctx context.Context, filter StudentFilter, ordering []core.DBOrdering, limit, offset int) ([]Student, error)
		CountStudents(ctx context.Context, filter StudentFilter) (int, error)
	}

	TeacherRepository interface {
		CreateTeacher(ctx context.Context, t Teacher) (Teacher, error)
		UpdateTeacher(ctx context.Context, t Teacher) (Teacher, error)
		// DeleteTeacher removes the teacher and unassigns its students.
		DeleteTeacher(ctx context.Context, id int64) error
		GetTeacherByID(ctx context.Context, id int64) (Teacher, error)
		GetTeacherByUserID(ctx context.Context, userID int64) (Teacher, error)
		TeacherEmailExists(ctx context.Context, email string, excludeID int64) (bool, error)
		QueryTeachers(ctx context.Context) ([]Teacher, error)
		CountTeachers(ctx context.Context) (int, error)
	}

	AttendanceRepository interface {
		// CreateAttendance returns ErrDuplicateAttendance when the student already has a record for that date.
		CreateAttendance(ctx context.Context, a Attendance) (Attendance, error)
		AttendanceExists(ctx context.Context, studentID int64, date time.Time) (bool, error)
		// QueryAttendance orders by date then id, both descending. limit <= 0 means no limit.
		QueryAttendance(ctx context.Context, filter AttendanceFilter, limit int) ([]Attendance, error)
		CountAttendance(ctx context.Context, filter AttendanceFilter) (int, error)
	}

	ProfileRepository interface {
		GetProfileByUserID(ctx context.Context, userID int64) (Profile, error)
		// SaveProfile creates or updates the profile of p.UserID.
		SaveProfile(ctx context.Context, p Profile) (Profile, error)
	}

	Repository interface {
		StudentRepository
		TeacherRepository
		AttendanceRepository
		ProfileRepository
	}
)

type Service struct {
	conf    *core.Config
	repo    Repository
	usrSvc  *user.Service
	tx      core.Transactor
	mailSvc core.EmailService
	logger  core.Logger
}

func NewService(
	conf *core.Config,
	repo Repository,
	usrSvc *user.Service,
	tx core.Transactor,
	mailSvc core.EmailService,
	logger core.Logger,
) *Service {
	return &Service{
		conf:    conf,
		repo:    repo,
		usrSvc:  usrSvc,
		tx:      tx,
		mailSvc: mailSvc,
		logger:  logger,
	}
}

// Today returns the current calendar date in the configured time zone.
func (svc *Service) Today() time.Time {
	return DateOf(NowFunc().In(svc.conf.Location()))
}

// Students

func (svc *Service) checkStudentEmail(ctx context.Context, email string, excludeID int64) error {
	exists, err := svc.repo.StudentEmailExists(ctx, email, excludeID)
	if err != nil {
		return errors.Wrap(err, "checking student email")
	}
	if exists {
		return fieldError("email", ErrStudentEmailExists)
	}
	return nil
}

func (svc *Service) checkTeacherChoice(ctx context.Context, teacher string) error {
	id, ok := parseID(teacher)
	if ok {
		_, err := svc.repo.GetTeacherByID(ctx, id)
		if err == nil {
			return nil
		}
		if err != ErrTeacherNotFound {
			return errors.Wrap(err, "finding teacher")
		}
	}
	return fieldError("teacher", errInvalidChoice)
}

// SearchStudents returns the requested page of students matching q, newest first.
func (svc *Service) SearchStudents(ctx context.Context, q, page string) ([]Student, core.Page, error) {
	filter := StudentFilter{Search: q}
	filter.Clean()

	count, err := svc.repo.CountStudents(ctx, filter)
	if err != nil {
		return nil, core.Page{}, errors.Wrap(err, "counting students")
	}
	p := core.NewPage(count, StudentsPerPage, page)
	ordering := []core.DBOrdering{{Field: "id", Ascending: false}}
	students, err := svc.repo.QueryStudents(ctx, filter, ordering, p.PerPage, p.Offset())
	if err != nil {
		return nil, core.Page{}, errors.Wrap(err, "querying students")
	}
	return students, p, nil
}

func (svc *Service) GetStudent(ctx context.Context, id int64) (Student, error) {
	return svc.repo.GetStudentByID(ctx, id)
}

// CreateStudent saves a student from a validated StudentForm.
func (svc *Service) CreateStudent(ctx context.Context, form StudentForm) (Student, error) {
	s := Student{CreatedAt: NowFunc().UTC()}
	form.apply(&s)
	s, err := svc.repo.CreateStudent(ctx, s)
	if err != nil {
		return Student{}, storeError(err, "creating student")
	}
	return s, nil
}

func (svc *Service) UpdateStudent(ctx context.Context, id int64, form StudentForm) (Student, error) {
	s, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}
	form.apply(&s)
	if s, err = svc.repo.UpdateStudent(ctx, s); err != nil {
		return Student{}, storeError(err, "updating student")
	}
	return s, nil
}

func (svc *Service) DeleteStudent(ctx context.Context, id int64) error {
	return svc.repo.DeleteStudent(ctx, id)
}

// Teachers

func (svc *Service) checkTeacherEmail(ctx context.Context, email string, excludeID int64) error {
	exists, err := svc.repo.TeacherEmailExists(ctx, email, excludeID)
	if err != nil {
		return errors.Wrap(err, "checking teacher email")
	}
	if exists {
		return fieldError("email", ErrTeacherEmailExists)
	}
	return nil
}

func (svc *Service) QueryTeachers(ctx context.Context) ([]Teacher, error) {
	return svc.repo.QueryTeachers(ctx)
}

func (svc *Service) GetTeacher(ctx context.Context, id int64) (Teacher, error) {
	return svc.repo.GetTeacherByID(ctx, id)
}

func (svc *Service) CreateTeacher(ctx context.Context, form TeacherForm) (Teacher, error) {
	var t Teacher
	form.apply(&t)
	t, err := svc.repo.CreateTeacher(ctx, t)
	if err != nil {
		return Teacher{}, storeError(err, "creating teacher")
	}
	return t, nil
}

func (svc *Service) UpdateTeacher(ctx context.Context, id int64, form TeacherForm) (Teacher, error) {
	t, err := svc.repo.GetTeacherByID(ctx, id)
	if err != nil {
		return Teacher{}, err
	}
	form.apply(&t)
	if t, err = svc.repo.UpdateTeacher(ctx, t); err != nil {
		return Teacher{}, storeError(err, "updating teacher")
	}
	return t, nil
}

func (svc *Service) DeleteTeacher(ctx context.Context, id int64) error {
	return svc.repo.DeleteTeacher(ctx, id)
}

// LinkTeacherAccount makes usr the account of the teacher with id teacherID.
func (svc *Service) LinkTeacherAccount(ctx context.Context, teacherID int64, usr user.User) (Teacher, error) {
	t, err := svc.repo.GetTeacherByID(ctx, teacherID)
	if err != nil {
		return Teacher{}, err
	}
	t.UserID = null.Int64From(usr.ID)
	if t, err = svc.repo.UpdateTeacher(ctx, t); err != nil {
		return Teacher{}, storeError(err, "linking teacher account")
	}
	return t, nil
}

// LinkStudentAccount makes usr the account of the student with id studentID.
func (svc *Service) LinkStudentAccount(ctx context.Context, studentID int64, usr user.User) (Student, error) {
	s, err := svc.repo.GetStudentByID(ctx, studentID)
	if err != nil {
		return Student{}, err
	}
	s.UserID = null.Int64From(usr.ID)
	if s, err = svc.repo.UpdateStudent(ctx, s); err != nil {
		return Student{}, storeError(err, "linking student account")
	}
	return s, nil
}

// Attendance

func (svc *Service) checkDuplicateAttendance(ctx context.Context, studentID int64, date time.Time) error {
	exists, err := svc.repo.AttendanceExists(ctx, studentID, date)
	if err != nil {
		return errors.Wrap(err, "checking attendance")
	}
	if exists {
		return core.NewValidationError(ErrDuplicateAttendance)
	}
	return nil
}

// MarkAttendance records today's status for the student of a validated AttendanceForm.
func (svc *Service) MarkAttendance(ctx context.Context, form AttendanceForm) (Attendance, error) {
	id, _ := parseID(form.Student)
	a, err := svc.repo.CreateAttendance(ctx, Attendance{
		StudentID: id,
		Date:      svc.Today(),
		Status:    form.Status,
	})
	if err != nil {
		return Attendance{}, storeError(err, "creating attendance")
	}
	return a, nil
}

// QueryAttendance lists every record, most recent date first.
func (svc *Service) QueryAttendance(ctx context.Context) ([]Attendance, error) {
	return svc.repo.QueryAttendance(ctx, AttendanceFilter{}, 0)
}

// AttendanceChoices lists the students selectable on the attendance form.
func (svc *Service) AttendanceChoices(ctx context.Context) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, StudentFilter{}, []core.DBOrdering{{Field: "name", Ascending: true}}, 0, 0)
}

// helpers

func fieldError(field string, err error) error {
	return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
}

// storeError turns uniqueness violations reported by the store into validation errors.
func storeError(err error, action string) error {
	switch cause := errors.Cause(err); cause {
	case ErrStudentEmailExists, ErrTeacherEmailExists:
		return fieldError("email", cause)
	case ErrDuplicateAttendance:
		return core.NewValidationError(cause)
	case ErrStudentNotFound, ErrTeacherNotFound:
		return cause
	}
	return errors.Wrap(err, action)
}

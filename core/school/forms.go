package school

import (
	"context"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/kaithabhanuteja/StudentManagement/core"
)

// StudentForm is the add/edit student form.
type StudentForm struct {
	Name    string `form:"name" validate:"required,max=100"`
	Age     string `form:"age" validate:"required,number,age"`
	Email   string `form:"email" validate:"required,email,max=254"`
	Course  string `form:"course" validate:"required,max=100"`
	Teacher string `form:"teacher" validate:"omitempty,number"`
}

// NewStudentForm pre-fills the form with an existing student.
func NewStudentForm(s Student) StudentForm {
	form := StudentForm{
		Name:   s.Name,
		Age:    strconv.Itoa(s.Age),
		Email:  s.Email,
		Course: s.Course,
	}
	if s.TeacherID.Valid {
		form.Teacher = strconv.FormatInt(s.TeacherID.Int64, 10)
	}
	return form
}

func (f *StudentForm) Clean() {
	f.Name = core.CleanString(f.Name)
	f.Age = core.CleanString(f.Age)
	f.Email = core.CleanString(f.Email, true /* lower */)
	f.Course = core.CleanString(f.Course)
	f.Teacher = core.CleanString(f.Teacher)
}

// Validate checks the form fields, the email uniqueness (excluding the edited student) and the teacher choice.
func (f *StudentForm) Validate(ctx context.Context, validate *validator.Validate, svc *Service, excludeID ...int64) error {
	f.Clean()
	if err := validate.Struct(f); err != nil {
		return err
	}
	var exclID int64
	if len(excludeID) > 0 {
		exclID = excludeID[0]
	}
	if err := svc.checkStudentEmail(ctx, f.Email, exclID); err != nil {
		return err
	}
	if f.Teacher != "" {
		return svc.checkTeacherChoice(ctx, f.Teacher)
	}
	return nil
}

func (f StudentForm) apply(s *Student) {
	s.Name = f.Name
	s.Age, _ = strconv.Atoi(f.Age)
	s.Email = f.Email
	s.Course = f.Course
	s.TeacherID = null.Int64{}
	if id, ok := parseID(f.Teacher); ok {
		s.TeacherID = null.Int64From(id)
	}
}

// TeacherForm is the add/edit teacher form.
type TeacherForm struct {
	Name    string `form:"name" validate:"required,max=100"`
	Email   string `form:"email" validate:"required,email,max=254"`
	Subject string `form:"subject" validate:"required,max=100"`
	Phone   string `form:"phone" validate:"required,max=15"`
}

func NewTeacherForm(t Teacher) TeacherForm {
	return TeacherForm{Name: t.Name, Email: t.Email, Subject: t.Subject, Phone: t.Phone}
}

func (f *TeacherForm) Clean() {
	f.Name = core.CleanString(f.Name)
	f.Email = core.CleanString(f.Email, true /* lower */)
	f.Subject = core.CleanString(f.Subject)
	f.Phone = core.CleanString(f.Phone)
}

func (f *TeacherForm) Validate(ctx context.Context, validate *validator.Validate, svc *Service, excludeID ...int64) error {
	f.Clean()
	if err := validate.Struct(f); err != nil {
		return err
	}
	var exclID int64
	if len(excludeID) > 0 {
		exclID = excludeID[0]
	}
	return svc.checkTeacherEmail(ctx, f.Email, exclID)
}

func (f TeacherForm) apply(t *Teacher) {
	t.Name = f.Name
	t.Email = f.Email
	t.Subject = f.Subject
	t.Phone = f.Phone
}

// AttendanceForm marks one student present or absent for today.
type AttendanceForm struct {
	Student string `form:"student" validate:"required,number"`
	Status  string `form:"status" validate:"required,att_status"`
}

func (f *AttendanceForm) Clean() {
	f.Student = core.CleanString(f.Student)
	f.Status = core.CleanString(f.Status)
}

// Validate checks the fields, the student choice and that no record exists yet for the student today.
func (f *AttendanceForm) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	f.Clean()
	if err := validate.Struct(f); err != nil {
		return err
	}
	id, _ := parseID(f.Student)
	if _, err := svc.GetStudent(ctx, id); err != nil {
		if err == ErrStudentNotFound {
			return core.NewValidationError(errInvalidChoice, core.FieldError{Field: "student", Error: errInvalidChoice.Error()})
		}
		return err
	}
	return svc.checkDuplicateAttendance(ctx, id, svc.Today())
}

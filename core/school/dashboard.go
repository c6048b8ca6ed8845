package school

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/kaithabhanuteja/StudentManagement/core"
	"github.com/kaithabhanuteja/StudentManagement/core/user"
)

// number of rows shown on dashboards
const dashboardRows = 10

type (
	AdminDashboard struct {
		TotalStudents   int
		TotalTeachers   int
		TodayAttendance int
	}

	TeacherDashboard struct {
		Teacher         Teacher
		TotalStudents   int
		TotalAttendance int
		PresentCount    int
		TodayAttendance int
		Students        []Student
	}

	StudentDashboard struct {
		Student      Student
		Total        int
		PresentCount int
		Percentage   float64
		Records      []Attendance
	}
)

// AttendancePercentage is present/total as a percentage rounded to 2 decimals, 0 when total is 0.
func AttendancePercentage(present, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(present)/float64(total)*100*100) / 100
}

func (svc *Service) AdminDashboard(ctx context.Context) (AdminDashboard, error) {
	var (
		d   AdminDashboard
		err error
	)
	if d.TotalStudents, err = svc.repo.CountStudents(ctx, StudentFilter{}); err != nil {
		return AdminDashboard{}, errors.Wrap(err, "counting students")
	}
	if d.TotalTeachers, err = svc.repo.CountTeachers(ctx); err != nil {
		return AdminDashboard{}, errors.Wrap(err, "counting teachers")
	}
	today := AttendanceFilter{Date: null.TimeFrom(svc.Today())}
	if d.TodayAttendance, err = svc.repo.CountAttendance(ctx, today); err != nil {
		return AdminDashboard{}, errors.Wrap(err, "counting today's attendance")
	}
	return d, nil
}

// TeacherDashboard aggregates the students assigned to the teacher linked to usr.
func (svc *Service) TeacherDashboard(ctx context.Context, usr user.User) (TeacherDashboard, error) {
	t, err := svc.teacherOf(ctx, usr)
	if err != nil {
		return TeacherDashboard{}, err
	}

	d := TeacherDashboard{Teacher: t}
	students := StudentFilter{TeacherID: null.Int64From(t.ID)}
	if d.TotalStudents, err = svc.repo.CountStudents(ctx, students); err != nil {
		return TeacherDashboard{}, errors.Wrap(err, "counting students")
	}

	att := AttendanceFilter{TeacherID: null.Int64From(t.ID)}
	if d.TotalAttendance, err = svc.repo.CountAttendance(ctx, att); err != nil {
		return TeacherDashboard{}, errors.Wrap(err, "counting attendance")
	}
	present := att
	present.Status = StatusPresent
	if d.PresentCount, err = svc.repo.CountAttendance(ctx, present); err != nil {
		return TeacherDashboard{}, errors.Wrap(err, "counting present attendance")
	}
	today := att
	today.Date = null.TimeFrom(svc.Today())
	if d.TodayAttendance, err = svc.repo.CountAttendance(ctx, today); err != nil {
		return TeacherDashboard{}, errors.Wrap(err, "counting today's attendance")
	}

	ordering := []core.DBOrdering{{Field: "id", Ascending: true}}
	if d.Students, err = svc.repo.QueryStudents(ctx, students, ordering, dashboardRows, 0); err != nil {
		return TeacherDashboard{}, errors.Wrap(err, "querying students")
	}
	return d, nil
}

// StudentDashboard summarizes the attendance of the student linked to usr.
func (svc *Service) StudentDashboard(ctx context.Context, usr user.User) (StudentDashboard, error) {
	s, err := svc.studentOf(ctx, usr)
	if err != nil {
		return StudentDashboard{}, err
	}

	d := StudentDashboard{Student: s}
	att := AttendanceFilter{StudentID: null.Int64From(s.ID)}
	if d.Total, err = svc.repo.CountAttendance(ctx, att); err != nil {
		return StudentDashboard{}, errors.Wrap(err, "counting attendance")
	}
	present := att
	present.Status = StatusPresent
	if d.PresentCount, err = svc.repo.CountAttendance(ctx, present); err != nil {
		return StudentDashboard{}, errors.Wrap(err, "counting present attendance")
	}
	d.Percentage = AttendancePercentage(d.PresentCount, d.Total)

	if d.Records, err = svc.repo.QueryAttendance(ctx, att, dashboardRows); err != nil {
		return StudentDashboard{}, errors.Wrap(err, "querying attendance")
	}
	return d, nil
}

// MyStudents lists the students assigned to the teacher linked to usr.
// The teacher is found through its account link, never by matching e-mail addresses.
func (svc *Service) MyStudents(ctx context.Context, usr user.User) (Teacher, []Student, error) {
	t, err := svc.teacherOf(ctx, usr)
	if err != nil {
		return Teacher{}, nil, err
	}
	filter := StudentFilter{TeacherID: null.Int64From(t.ID)}
	ordering := []core.DBOrdering{{Field: "name", Ascending: true}}
	students, err := svc.repo.QueryStudents(ctx, filter, ordering, 0, 0)
	if err != nil {
		return Teacher{}, nil, errors.Wrap(err, "querying students")
	}
	return t, students, nil
}

package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kaithabhanuteja/StudentManagement/core/school"
	"github.com/kaithabhanuteja/StudentManagement/core/user"
)

const teacherDashboardURL = "/teacher/dashboard/"

type dashboardApi struct {
	svc *school.Service
}

func registerDashboardAPI(app *echo.Echo, svc *school.Service) {
	api := dashboardApi{svc: svc}

	app.GET("/", api.dashboard, loginRequired)
	app.GET("/teacher/dashboard", api.teacherDashboard, loginRequired, permissionRequired(user.PermAddAttendance))
	app.GET("/student/dashboard", api.studentDashboard, loginRequired)
	app.GET("/my-students", api.myStudents, loginRequired)
}

// dashboard routes the account to the dashboard of its role.
func (api *dashboardApi) dashboard(ctx echo.Context) error {
	usr, _ := getContextUser(ctx)
	c := ctx.Request().Context()

	role, err := api.svc.ResolveRole(c, usr)
	if err != nil {
		return errors.Wrap(err, "resolving role")
	}
	switch role {
	case school.RoleAdmin:
		d, err := api.svc.AdminDashboard(c)
		if err != nil {
			return errors.Wrap(err, "building admin dashboard")
		}
		return render(ctx, http.StatusOK, "dashboard_admin", page{Title: "Dashboard", Data: d})
	case school.RoleTeacher:
		return ctx.Redirect(http.StatusFound, teacherDashboardURL)
	case school.RoleStudent:
		return ctx.Redirect(http.StatusFound, studentDashboardURL)
	}
	return school.ErrNoRole
}

func (api *dashboardApi) teacherDashboard(ctx echo.Context) error {
	usr, _ := getContextUser(ctx)
	d, err := api.svc.TeacherDashboard(ctx.Request().Context(), usr)
	if err != nil {
		return err
	}
	return render(ctx, http.StatusOK, "teacher_dashboard", page{Title: "Teacher Dashboard", Data: d})
}

func (api *dashboardApi) studentDashboard(ctx echo.Context) error {
	usr, _ := getContextUser(ctx)
	d, err := api.svc.StudentDashboard(ctx.Request().Context(), usr)
	if err != nil {
		return err
	}
	return render(ctx, http.StatusOK, "student_dashboard", page{Title: "Student Dashboard", Data: d})
}

type myStudentsPage struct {
	Teacher  school.Teacher
	Students []school.Student
}

func (api *dashboardApi) myStudents(ctx echo.Context) error {
	usr, _ := getContextUser(ctx)
	t, students, err := api.svc.MyStudents(ctx.Request().Context(), usr)
	if err != nil {
		return err
	}
	return render(ctx, http.StatusOK, "my_students", page{
		Title: "My Students",
		Data:  myStudentsPage{Teacher: t, Students: students},
	})
}

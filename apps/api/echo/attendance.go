package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kaithabhanuteja/StudentManagement/core/school"
)

const attendanceListURL = "/attendance/"

type attendanceApi struct {
	svc        *school.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerAttendanceAPI(app *echo.Echo, svc *school.Service, validate *validator.Validate, translator ut.Translator) {
	api := attendanceApi{
		svc:        svc,
		validate:   validate,
		translator: translator,
	}

	g := app.Group("/attendance", loginRequired)
	g.GET("", api.list)
	g.GET("/mark", api.markForm)
	g.POST("/mark", api.mark)
}

type (
	statusChoice struct {
		Value string
		Label string
	}

	attendanceFormPage struct {
		Students []school.Student
		Statuses []statusChoice
	}
)

var statusChoices = []statusChoice{
	{Value: school.StatusPresent, Label: "Present"},
	{Value: school.StatusAbsent, Label: "Absent"},
}

func (api *attendanceApi) list(ctx echo.Context) error {
	records, err := api.svc.QueryAttendance(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	return render(ctx, http.StatusOK, "attendance_list", page{Title: "Attendance", Data: records})
}

func (api *attendanceApi) renderForm(ctx echo.Context, form school.AttendanceForm, err error) error {
	students, sErr := api.svc.AttendanceChoices(ctx.Request().Context())
	if sErr != nil {
		return errors.Wrap(sErr, "querying students")
	}
	p := page{
		Title: "Mark Attendance",
		Form:  form,
		Data:  attendanceFormPage{Students: students, Statuses: statusChoices},
	}
	return renderForm(ctx, "attendance_form", p, err, api.translator)
}

func (api *attendanceApi) markForm(ctx echo.Context) error {
	return api.renderForm(ctx, school.AttendanceForm{Status: school.StatusPresent}, nil)
}

func (api *attendanceApi) mark(ctx echo.Context) error {
	var form school.AttendanceForm
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to AttendanceForm")
	}
	c := ctx.Request().Context()

	if err := form.Validate(c, api.validate, api.svc); err != nil {
		return api.renderForm(ctx, form, err)
	}
	if _, err := api.svc.MarkAttendance(c, form); err != nil {
		return api.renderForm(ctx, form, err)
	}
	return ctx.Redirect(http.StatusFound, attendanceListURL)
}

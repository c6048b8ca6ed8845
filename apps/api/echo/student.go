package echoapi

import (
	"net/http"
	"strconv"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kaithabhanuteja/StudentManagement/core"
	"github.com/kaithabhanuteja/StudentManagement/core/school"
)

const studentListURL = "/students/"

type studentApi struct {
	svc        *school.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerStudentAPI(app *echo.Echo, svc *school.Service, validate *validator.Validate, translator ut.Translator) {
	api := studentApi{
		svc:        svc,
		validate:   validate,
		translator: translator,
	}

	g := app.Group("/students", loginRequired)
	g.GET("", api.list)
	g.GET("/add", api.addForm)
	g.POST("/add", api.add)
	g.GET("/edit/:id", api.editForm)
	g.POST("/edit/:id", api.edit)
	g.POST("/delete/:id", api.delete)
}

type (
	studentListPage struct {
		Students []school.Student
		Page     core.Page
		Query    string
	}

	studentFormPage struct {
		ID       int64 // 0 when adding
		Teachers []school.Teacher
	}
)

// paramID parses the :id path param. Malformed ids are not found.
func paramID(ctx echo.Context) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, errHttpNotFound
	}
	return id, nil
}

func (api *studentApi) list(ctx echo.Context) error {
	q := core.CleanString(ctx.QueryParam("q"))
	students, pg, err := api.svc.SearchStudents(ctx.Request().Context(), q, ctx.QueryParam("page"))
	if err != nil {
		return errors.Wrap(err, "searching students")
	}
	return render(ctx, http.StatusOK, "student_list", page{
		Title: "Students",
		Data:  studentListPage{Students: students, Page: pg, Query: q},
	})
}

func (api *studentApi) renderForm(ctx echo.Context, id int64, form school.StudentForm, err error) error {
	teachers, tErr := api.svc.QueryTeachers(ctx.Request().Context())
	if tErr != nil {
		return errors.Wrap(tErr, "querying teachers")
	}
	title := "Add Student"
	if id != 0 {
		title = "Edit Student"
	}
	p := page{Title: title, Form: form, Data: studentFormPage{ID: id, Teachers: teachers}}
	return renderForm(ctx, "student_form", p, err, api.translator)
}

func (api *studentApi) addForm(ctx echo.Context) error {
	return api.renderForm(ctx, 0, school.StudentForm{}, nil)
}

func (api *studentApi) add(ctx echo.Context) error {
	var form school.StudentForm
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to StudentForm")
	}
	c := ctx.Request().Context()

	if err := form.Validate(c, api.validate, api.svc); err != nil {
		return api.renderForm(ctx, 0, form, err)
	}
	if _, err := api.svc.CreateStudent(c, form); err != nil {
		return api.renderForm(ctx, 0, form, err)
	}
	return ctx.Redirect(http.StatusFound, studentListURL)
}

func (api *studentApi) editForm(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	s, err := api.svc.GetStudent(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return api.renderForm(ctx, id, school.NewStudentForm(s), nil)
}

func (api *studentApi) edit(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	c := ctx.Request().Context()
	if _, err = api.svc.GetStudent(c, id); err != nil {
		return err
	}

	var form school.StudentForm
	if err = ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to StudentForm")
	}
	if err = form.Validate(c, api.validate, api.svc, id); err != nil {
		return api.renderForm(ctx, id, form, err)
	}
	if _, err = api.svc.UpdateStudent(c, id, form); err != nil {
		return api.renderForm(ctx, id, form, err)
	}
	return ctx.Redirect(http.StatusFound, studentListURL)
}

func (api *studentApi) delete(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteStudent(ctx.Request().Context(), id); err != nil {
		return err
	}
	return ctx.Redirect(http.StatusFound, studentListURL)
}

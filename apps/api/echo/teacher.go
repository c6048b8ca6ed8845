package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kaithabhanuteja/StudentManagement/core/school"
	"github.com/kaithabhanuteja/StudentManagement/core/user"
)

const teacherListURL = "/teachers/"

type teacherApi struct {
	svc        *school.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerTeacherAPI(app *echo.Echo, svc *school.Service, validate *validator.Validate, translator ut.Translator) {
	api := teacherApi{
		svc:        svc,
		validate:   validate,
		translator: translator,
	}

	g := app.Group("/teachers", loginRequired)
	g.GET("", api.list, permissionRequired(user.PermViewTeacher))
	g.GET("/add", api.addForm, permissionRequired(user.PermAddTeacher))
	g.POST("/add", api.add, permissionRequired(user.PermAddTeacher))
	g.GET("/edit/:id", api.editForm, permissionRequired(user.PermChangeTeacher))
	g.POST("/edit/:id", api.edit, permissionRequired(user.PermChangeTeacher))
	g.POST("/delete/:id", api.delete, permissionRequired(user.PermDeleteTeacher))
}

type teacherFormPage struct {
	ID int64 // 0 when adding
}

func (api *teacherApi) list(ctx echo.Context) error {
	teachers, err := api.svc.QueryTeachers(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying teachers")
	}
	return render(ctx, http.StatusOK, "teacher_list", page{Title: "Teachers", Data: teachers})
}

func (api *teacherApi) renderForm(ctx echo.Context, id int64, form school.TeacherForm, err error) error {
	title := "Add Teacher"
	if id != 0 {
		title = "Edit Teacher"
	}
	p := page{Title: title, Form: form, Data: teacherFormPage{ID: id}}
	return renderForm(ctx, "teacher_form", p, err, api.translator)
}

func (api *teacherApi) addForm(ctx echo.Context) error {
	return api.renderForm(ctx, 0, school.TeacherForm{}, nil)
}

func (api *teacherApi) add(ctx echo.Context) error {
	var form school.TeacherForm
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to TeacherForm")
	}
	c := ctx.Request().Context()

	if err := form.Validate(c, api.validate, api.svc); err != nil {
		return api.renderForm(ctx, 0, form, err)
	}
	if _, err := api.svc.CreateTeacher(c, form); err != nil {
		return api.renderForm(ctx, 0, form, err)
	}
	return ctx.Redirect(http.StatusFound, teacherListURL)
}

func (api *teacherApi) editForm(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	t, err := api.svc.GetTeacher(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return api.renderForm(ctx, id, school.NewTeacherForm(t), nil)
}

func (api *teacherApi) edit(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	c := ctx.Request().Context()
	if _, err = api.svc.GetTeacher(c, id); err != nil {
		return err
	}

	var form school.TeacherForm
	if err = ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to TeacherForm")
	}
	if err = form.Validate(c, api.validate, api.svc, id); err != nil {
		return api.renderForm(ctx, id, form, err)
	}
	if _, err = api.svc.UpdateTeacher(c, id, form); err != nil {
		return api.renderForm(ctx, id, form, err)
	}
	return ctx.Redirect(http.StatusFound, teacherListURL)
}

func (api *teacherApi) delete(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteTeacher(ctx.Request().Context(), id); err != nil {
		return err
	}
	return ctx.Redirect(http.StatusFound, teacherListURL)
}

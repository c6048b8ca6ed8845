package echoapi

import (
	"net/http"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kaithabhanuteja/StudentManagement/core"
	"github.com/kaithabhanuteja/StudentManagement/core/school"
	"github.com/kaithabhanuteja/StudentManagement/core/user"
)

const studentDashboardURL = "/student/dashboard/"

type accountApi struct {
	conf       *core.Config
	usrSvc     *user.Service
	schoolSvc  *school.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerAccountAPI(
	app *echo.Echo,
	conf *core.Config,
	usrSvc *user.Service,
	schoolSvc *school.Service,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := accountApi{
		conf:       conf,
		usrSvc:     usrSvc,
		schoolSvc:  schoolSvc,
		validate:   validate,
		translator: translator,
	}

	app.GET("/login", api.loginForm)
	app.POST("/login", api.login)
	app.GET("/logout", api.logout)
	app.POST("/logout", api.logout)
	app.GET("/register", api.registerForm)
	app.POST("/register", api.register)
}

type loginPage struct {
	Next string
}

func (api *accountApi) loginForm(ctx echo.Context) error {
	return render(ctx, http.StatusOK, "login", page{
		Title: "Log in",
		Form:  user.Credentials{},
		Data:  loginPage{Next: safeNext(ctx.QueryParam("next"))},
	})
}

func (api *accountApi) login(ctx echo.Context) error {
	var creds user.Credentials
	if err := ctx.Bind(&creds); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}
	next := safeNext(ctx.FormValue("next"))
	p := page{Title: "Log in", Data: loginPage{Next: next}}

	if err := creds.Validate(api.validate); err != nil {
		p.Form = user.Credentials{Username: creds.Username}
		return renderForm(ctx, "login", p, err, api.translator)
	}
	usr, err := api.usrSvc.Authenticate(ctx.Request().Context(), creds)
	if err != nil {
		p.Form = user.Credentials{Username: creds.Username}
		return renderForm(ctx, "login", p, err, api.translator)
	}

	if err = setSessionCookie(ctx, usr, api.conf); err != nil {
		return errors.Wrap(err, "setting session cookie")
	}
	if next == "" {
		next = "/"
	}
	return ctx.Redirect(http.StatusFound, next)
}

func (api *accountApi) logout(ctx echo.Context) error {
	clearSessionCookie(ctx)
	return ctx.Redirect(http.StatusFound, loginURL)
}

func (api *accountApi) registerForm(ctx echo.Context) error {
	return render(ctx, http.StatusOK, "register", page{Title: "Register", Form: user.NewUser{}})
}

func (api *accountApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	c := ctx.Request().Context()

	err := data.Validate(c, api.validate, api.usrSvc)
	var usr user.User
	if err == nil {
		usr, _, err = api.schoolSvc.Register(c, data)
	}
	if err != nil {
		// never send the passwords back
		form := user.NewUser{Username: data.Username, Email: data.Email}
		return renderForm(ctx, "register", page{Title: "Register", Form: form}, err, api.translator)
	}

	if err = setSessionCookie(ctx, usr, api.conf); err != nil {
		return errors.Wrap(err, "setting session cookie")
	}
	return ctx.Redirect(http.StatusFound, studentDashboardURL)
}

// safeNext keeps only local redirect targets.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return ""
	}
	return next
}

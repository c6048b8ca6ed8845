package echoapi

import (
	"embed"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kaithabhanuteja/StudentManagement/core"
	"github.com/kaithabhanuteja/StudentManagement/core/user"
)

//go:embed all:templates
var templatesFS embed.FS

const baseTemplate = "templates/_base.gohtml"

// page is the data every template receives.
type page struct {
	Title  string
	User   user.User
	Authed bool
	CSRF   string
	Form   interface{}
	Errors map[string]string
	Data   interface{}
}

func (p page) NonFieldError() string {
	return p.Errors[core.NonFieldErrors]
}

type renderer struct {
	templates map[string]*template.Template
}

var _ echo.Renderer = (*renderer)(nil)

// newRenderer parses every page template along with the base layout.
func newRenderer() (*renderer, error) {
	fps, err := fs.Glob(templatesFS, "templates/*.gohtml")
	if err != nil {
		return nil, errors.Wrap(err, "listing page templates")
	}

	r := &renderer{templates: make(map[string]*template.Template, len(fps))}
	for _, fp := range fps {
		fname := path.Base(fp)
		if strings.HasPrefix(fname, "_") {
			continue
		}
		name := strings.TrimSuffix(fname, path.Ext(fname))
		tmpl, err := template.New(name).ParseFS(templatesFS, baseTemplate, fp)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s", fname)
		}
		r.templates[name] = tmpl
	}
	return r, nil
}

func (r *renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return errors.Errorf("template %q not found", name)
	}
	return tmpl.ExecuteTemplate(w, "base", data)
}

// render fills in the request scoped fields of p and renders the named page.
func render(ctx echo.Context, code int, name string, p page) error {
	p.User, p.Authed = getContextUser(ctx)
	if token, ok := ctx.Get(csrfContextKey).(string); ok {
		p.CSRF = token
	}
	return ctx.Render(code, name, p)
}

// renderForm renders a form page. A validation failure is shown next to the fields with a 400 status,
// any other error is returned as is.
func renderForm(ctx echo.Context, name string, p page, err error, translator ut.Translator) error {
	code := http.StatusOK
	if err != nil {
		fields, ok := core.FieldErrors(err, translator)
		if !ok {
			return err
		}
		p.Errors = fields
		code = http.StatusBadRequest
	}
	return render(ctx, code, name, p)
}

package echoapi

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kaithabhanuteja/StudentManagement/core"
	"github.com/kaithabhanuteja/StudentManagement/core/school"
)

var (
	errHttpForbidden = echo.NewHTTPError(http.StatusForbidden, "You do not have permission to access this page.")
	errHttpNotFound  = echo.NewHTTPError(http.StatusNotFound, "The requested page was not found.")
)

// newAppHTTPErrorHandler returns an echo.HTTPErrorHandler rendering the error page.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var (
			code    int
			message string
		)

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = fmt.Sprint(origErr.Message)
		case validator.ValidationErrors, *core.ValidationError:
			code = http.StatusBadRequest
			message = http.StatusText(code)
			if vErr, ok := origErr.(*core.ValidationError); ok && vErr.Error() != "" {
				message = vErr.Error()
			}
		default:
			switch origErr {
			case school.ErrStudentNotFound, school.ErrTeacherNotFound:
				code = http.StatusNotFound
				message = errHttpNotFound.Message.(string)
			case school.ErrNoRole:
				code = http.StatusForbidden
				message = origErr.Error()
			default: // any other error is a server error
				code = http.StatusInternalServerError
				message = http.StatusText(code)

				usr, _ := getContextUser(ctx)
				logger.Error(message, errors.Wrap(err, message), usr)

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = fmt.Sprintf("%+v", err)
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = render(ctx, code, "error", page{
					Title: http.StatusText(code),
					Data:  errorPage{Code: code, Message: message},
				})
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

type errorPage struct {
	Code    int
	Message string
}

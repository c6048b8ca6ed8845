package core

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// NonFieldErrors is the key under which form-level errors are reported.
const NonFieldErrors = "__all__"

// FieldErrors flattens a validation failure into a {field: message} map.
// ok is false when err is not a validation failure.
func FieldErrors(err error, translator ut.Translator) (fields map[string]string, ok bool) {
	switch origErr := errors.Cause(err).(type) {
	case validator.ValidationErrors:
		fields = make(map[string]string, len(origErr))
		for _, vErr := range origErr {
			if _, exists := fields[vErr.Field()]; !exists {
				fields[vErr.Field()] = vErr.Translate(translator)
			}
		}
		return fields, true
	case *ValidationError:
		fields = make(map[string]string, len(origErr.Fields)+1)
		for _, fErr := range origErr.Fields {
			fields[fErr.Field] = fErr.Error
		}
		if len(origErr.Fields) == 0 {
			fields[NonFieldErrors] = origErr.Error()
		}
		return fields, true
	}
	return nil, false
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}

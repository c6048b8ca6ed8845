package school

import (
	"strconv"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/kaithabhanuteja/StudentManagement/core"
)

var (
	ErrInvalidAge = errors.Errorf("Age must be between %d and %d", MinAge, MaxAge)

	ageTag  = "age"
	ageText = ErrInvalidAge.Error()

	attStatusTag  = "att_status"
	attStatusText = "Select a valid choice."
)

// InitValidators registers the school validators and their messages.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(ageTag, ageValidation)
	core.RegisterCustomTranslation(validate, translator, ageTag, ageText)

	_ = validate.RegisterValidation(attStatusTag, attStatusValidation)
	core.RegisterCustomTranslation(validate, translator, attStatusTag, attStatusText)
}

// ValidateAge accepts ages within [MinAge, MaxAge].
func ValidateAge(age int) error {
	if age < MinAge || age > MaxAge {
		return ErrInvalidAge
	}
	return nil
}

func ageValidation(fl validator.FieldLevel) bool {
	age, err := strconv.Atoi(fl.Field().String())
	return err == nil && ValidateAge(age) == nil
}

func attStatusValidation(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case StatusPresent, StatusAbsent:
		return true
	}
	return false
}

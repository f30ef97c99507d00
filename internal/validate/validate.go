// Package validate wraps go-playground/validator with the rules and messages
// used by the bookshelf services. Field errors are reported under their JSON
// names so they can be returned to API clients unchanged.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/entities"
)

const MinBookYear = 1900

// MaxBookYear is the latest publication year accepted: five years ahead of now.
func MaxBookYear() int {
	return time.Now().Year() + 5
}

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// Registration only fails on an empty tag or a nil func.
	_ = v.RegisterValidation("bookyear", validateBookYear)
	_ = v.RegisterValidation("readingstatus", validateReadingStatus)

	return &Validator{v: v}
}

func validateBookYear(fl validator.FieldLevel) bool {
	switch fl.Field().Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		year := int(fl.Field().Int())
		return year >= MinBookYear && year <= MaxBookYear()
	default:
		return false
	}
}

func validateReadingStatus(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	return entities.ReadingStatus(fl.Field().String()).Valid()
}

// Struct validates s using its `validate` tags. It returns nil or a
// *apperr.ValidationError.
func (val *Validator) Struct(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := apperr.NewValidationError()
	for _, fe := range fieldErrs {
		out.Add(fe.Field(), message(fe))
	}
	return out.OrNil()
}

// Check validates a single value against tag and records a failure under
// field in errs. It reports whether the value passed.
func (val *Validator) Check(errs *apperr.ValidationError, field string, value any, tag string) bool {
	err := val.v.Var(value, tag)
	if err == nil {
		return true
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		errs.Add(field, "is invalid")
		return false
	}
	for _, fe := range fieldErrs {
		errs.Add(field, message(fe))
	}
	return false
}

func message(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String

	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if isString {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "eqfield":
		return fmt.Sprintf("must match %s", fe.Param())
	case "bookyear":
		return fmt.Sprintf("must be between %d and %d", MinBookYear, MaxBookYear())
	case "readingstatus":
		names := make([]string, 0, len(entities.ReadingStatuses))
		for _, s := range entities.ReadingStatuses {
			names = append(names, string(s))
		}
		return "must be one of " + strings.Join(names, ", ")
	default:
		return "is invalid"
	}
}

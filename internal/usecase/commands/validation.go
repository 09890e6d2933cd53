package commands

import (
	"errors"
	"reflect"
	"strings"

	"approval-engine/internal/domain/approval"
	"approval-engine/internal/pkg/errs"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return fld.Name
		default:
			return name
		}
	})
	return v
}

// validateInput runs struct tags and reports failures as one ValidationError
// keyed by the input's JSON field paths.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errs.Wrap(err, "validate input")
	}

	var v approval.ValidationErrors
	for _, fe := range fieldErrs {
		path := fe.Namespace()
		if i := strings.Index(path, "."); i >= 0 {
			path = path[i+1:]
		}
		v.Add(path, describe(fe))
	}
	return v.Err()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "can't be blank"
	case "min":
		return "needs at least " + fe.Param() + " entries"
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "is invalid"
	}
}

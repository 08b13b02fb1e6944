package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Types
// =============================================================================

// FieldError describes one invalid field of a request body.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is a list of field errors. It implements error so it can travel
// through error returns.
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, "; ")
}

// =============================================================================
// Validator
// =============================================================================

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Check validates a struct against its `validate` tags. It returns nil when
// the value is valid.
func Check(v any) Errors {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Errors{{Field: "", Message: err.Error()}}
	}

	typ := reflect.Indirect(reflect.ValueOf(v)).Type()
	result := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		result = append(result, FieldError{
			Field:   fe.Field(),
			Message: message(label(typ, fe.StructField()), fe.Tag()),
		})
	}
	return result
}

// label returns the human name of a struct field, falling back to its Go name.
func label(typ reflect.Type, field string) string {
	if sf, ok := typ.FieldByName(field); ok {
		if l := sf.Tag.Get("label"); l != "" {
			return l
		}
	}
	return field
}

func message(label, tag string) string {
	switch tag {
	case "required":
		return label + " is a mandatory field!"
	case "email":
		return label + " is not in the right format!"
	default:
		return fmt.Sprintf("%s failed the %q rule!", label, tag)
	}
}

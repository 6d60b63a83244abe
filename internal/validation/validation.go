package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	instance *validator.Validate
)

// FieldError describes a single failed constraint on an input field.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Errors is returned by Struct when one or more fields are invalid.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validator returns the shared validator instance. Field names in reported
// errors follow the json (or query) tag of the field.
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(fieldName)
		v.RegisterCustomTypeFunc(optionalValue,
			Optional[string]{},
			Optional[int64]{},
		)
		instance = v
	})
	return instance
}

// Struct validates s and returns Errors describing every failed field.
func Struct(s any) error {
	errs := nullErrors(s)

	err := Validator().Struct(s)
	if err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			errs = append(errs, FieldError{
				Field:   fe.Field(),
				Rule:    fe.Tag(),
				Message: message(fe),
			})
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func fieldName(fld reflect.StructField) string {
	for _, key := range []string{"json", "query"} {
		name := strings.SplitN(fld.Tag.Get(key), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

func optionalValue(field reflect.Value) any {
	if o, ok := field.Interface().(optional); ok {
		return o.validationValue()
	}
	return nil
}

// nullErrors reports Optional fields carrying an explicit null unless the
// field is tagged nullable:"true".
func nullErrors(s any) Errors {
	rv := reflect.ValueOf(s)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	var errs Errors
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		o, ok := rv.Field(i).Interface().(optional)
		if !ok || !o.isNull() {
			continue
		}
		if sf.Tag.Get("nullable") == "true" {
			continue
		}
		errs = append(errs, FieldError{
			Field:   fieldName(sf),
			Rule:    "nonnull",
			Message: "may not be null",
		})
	}
	return errs
}

func message(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "field required"
	case "min":
		if isString {
			return fmt.Sprintf("must be at least %s characters long", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		if isString {
			return fmt.Sprintf("must be at most %s characters long", fe.Param())
		}
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	default:
		return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
	}
}

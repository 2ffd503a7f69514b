// Package validation configures go-playground/validator the same way for
// request binding in handlers and for input checks in services.
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

// Validator returns the shared validator. It reads rules from the "binding"
// tag so request structs carry one set of rules for gin and for services.
func Validator() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
		instance.SetTagName("binding")
		Register(instance)
	})
	return instance
}

// Register adds the custom rules and reports fields by their JSON name.
func Register(v *validator.Validate) {
	v.RegisterTagNameFunc(jsonName)
	if err := v.RegisterValidation("notblank", notBlank); err != nil {
		panic(err)
	}
}

func jsonName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return field.Name
	default:
		return name
	}
}

func notBlank(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return !field.IsZero()
	}
	return strings.TrimSpace(field.String()) != ""
}

// Struct validates s and returns a field to message map, or nil when s is
// valid.
func Struct(s interface{}) map[string]string {
	return Fields(Validator().Struct(s))
}

// Fields converts validator errors into field messages. Errors that are not
// validation errors yield nil.
func Fields(err error) map[string]string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return nil
	}
	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		name := fe.Field()
		if _, seen := fields[name]; !seen {
			fields[name] = Message(fe)
		}
	}
	return fields
}

func Message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "must not be blank"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s items", fe.Param())
		}
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed on the %s rule", fe.Tag())
	}
}

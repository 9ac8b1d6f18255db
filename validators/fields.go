package validators

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var setupOnce sync.Once

// Setup makes validation errors report json field names instead of Go
// struct field names. Safe to call more than once.
func Setup() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

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
	})
}

// Validate runs the binding validator over a struct that wasn't decoded
// by gin itself.
func Validate(obj any) error {
	return binding.Validator.ValidateStruct(obj)
}

// Normalizer is implemented by request bodies that clean up their own
// input, such as trimming emails, before they are validated.
type Normalizer interface {
	Normalize()
}

// Bind decodes a JSON body into obj, normalizes it and validates it.
func Bind(r io.Reader, obj any) error {
	if err := json.NewDecoder(r).Decode(obj); err != nil {
		return err
	}

	if n, ok := obj.(Normalizer); ok {
		n.Normalize()
	}

	return Validate(obj)
}

// FieldErrors turns a validation failure into a map of field name to a
// message fit for the client. It returns nil for any other error.
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fieldPath(fe)
		if _, ok := out[field]; ok {
			continue
		}
		out[field] = message(fe)
	}

	return out
}

// fieldPath drops the root struct name from the namespace, so nested
// errors read "data.name" rather than "settingsBody.data.name".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("Must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("Must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", strings.Join(strings.Fields(fe.Param()), ", "))
	case "nefield":
		return "New password must be different from current password"
	case "datetime":
		return fmt.Sprintf("Must match the format %s", fe.Param())
	case "timezone":
		return "Invalid timezone"
	default:
		return "Invalid value"
	}
}

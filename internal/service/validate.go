package service

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/google/uuid"
)

// validate reads the same `binding` tags gin uses, so requests built outside
// the HTTP layer are held to the same rules.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.SetTagName("binding")
	RegisterValidations(v)
	return v
}

// RegisterValidations installs the field naming and custom rules request
// types rely on. gin's engine gets the same set.
func RegisterValidations(v *validator.Validate) {
	v.RegisterTagNameFunc(JSONFieldName)
	// notblank rejects strings that are empty after trimming whitespace
	_ = v.RegisterValidation("notblank", validators.NotBlank)
}

// JSONFieldName reports fields by their JSON name in validation errors.
func JSONFieldName(sf reflect.StructField) string {
	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")

	switch name {
	case "-":
		return ""
	case "":
		return sf.Name
	default:
		return name
	}
}

func validateStruct(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

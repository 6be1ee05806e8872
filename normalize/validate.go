package normalize

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mbolis/desirability-form/model"
)

// MissingFieldsError lists required personalInfo keys that were absent or
// empty, by their JSON names.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "Missing required fields: " + strings.Join(e.Fields, ", ")
}

// Validator checks the required personalInfo fields. It is only consulted
// when the server runs with required-field validation turned on.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// Check returns a *MissingFieldsError when required fields are missing.
func (v *Validator) Check(p model.Payload) error {
	info := PersonalInfo(p)
	err := v.validate.Struct(info)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	missing := &MissingFieldsError{}
	for _, fe := range verrs {
		missing.Fields = append(missing.Fields, fe.Field())
	}
	return missing
}

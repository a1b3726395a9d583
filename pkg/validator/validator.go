package validator

import (
	"fmt"
	"strings"

	playground "github.com/go-playground/validator/v10"
)

// Validator provides validation functionality
type Validator interface {
	Validate(interface{}) error
	ValidateVar(field string, value interface{}, tag string) error
}

type validator struct {
	v *playground.Validate
}

func New() Validator {
	v := playground.New()
	v.SetTagName("validate")
	return &validator{v: v}
}

func (v *validator) Validate(obj interface{}) error {
	if err := v.v.Struct(obj); err != nil {
		return humanize(err)
	}
	return nil
}

func (v *validator) ValidateVar(field string, value interface{}, tag string) error {
	if err := v.v.Var(value, tag); err != nil {
		var fieldErrs playground.ValidationErrors
		if ok := asValidationErrors(err, &fieldErrs); ok && len(fieldErrs) > 0 {
			return fmt.Errorf("%s failed %q validation", field, fieldErrs[0].Tag())
		}
		return err
	}
	return nil
}

func asValidationErrors(err error, out *playground.ValidationErrors) bool {
	ve, ok := err.(playground.ValidationErrors)
	if ok {
		*out = ve
	}
	return ok
}

func humanize(err error) error {
	var fieldErrs playground.ValidationErrors
	if !asValidationErrors(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q validation", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}

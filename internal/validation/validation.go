// Package validation checks request structs against their `validate` tags
// and reports the first failure as a validation error.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"computegate/internal/errs"
)

const TagName = "validate"

var std = &Validator{}

type Validator struct {
	once     sync.Once
	validate *validator.Validate
	// allowed holds the values behind tags added by RegisterAllowed.
	allowed map[string][]string
}

// Struct validates obj with the package-level validator.
func Struct(obj any) error {
	return std.Struct(obj)
}

// RegisterAllowed adds a tag on the package-level validator that accepts
// only the given values. Call it during package initialisation.
func RegisterAllowed(tag string, values []string) {
	std.RegisterAllowed(tag, values)
}

// RegisterAllowed adds a tag that accepts only values. The tag reports
// failures like oneof.
func (v *Validator) RegisterAllowed(tag string, values []string) {
	v.lazyInit()
	allowed := slices.Clone(values)
	err := v.validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return slices.Contains(allowed, fl.Field().String())
	})
	if err != nil {
		panic(err)
	}
	v.allowed[tag] = allowed
}

// Struct returns nil or an *errs.Error of kind validation.
func (v *Validator) Struct(obj any) error {
	if obj == nil {
		return nil
	}
	v.lazyInit()

	err := v.validate.Struct(obj)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return errs.Validation(v.describe(fieldErrs[0]))
	}
	return errs.Validation(err.Error())
}

func (v *Validator) lazyInit() {
	v.once.Do(func() {
		v.validate = validator.New()
		v.allowed = map[string][]string{}
		v.validate.SetTagName(TagName)
		// Report JSON names so messages match what clients sent.
		v.validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
}

func (v *Validator) describe(fe validator.FieldError) string {
	field := fe.Field()
	if values, ok := v.allowed[fe.Tag()]; ok {
		return fmt.Sprintf("%s must be one of [%s]", field, strings.Join(values, " "))
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs the struct tags and folds failures into errs.
func validateStruct(input interface{}, errs ValidationErrors) {
	err := validate.Struct(input)
	if err == nil {
		return
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		errs.Add(NonFieldErrors, CodeInvalid, err.Error())
		return
	}

	for _, fe := range fieldErrs {
		field := fe.Field()
		switch fe.Tag() {
		case "max":
			errs.Add(field, CodeMaxLength, fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param()))
		case "min":
			if fe.Kind() == reflect.String {
				errs.Add(field, CodeMinLength, fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param()))
				continue
			}
			errs.Add(field, CodeMinValue, fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param()))
		case "email":
			errs.Add(field, CodeInvalid, "Enter a valid email address.")
		default:
			errs.Add(field, CodeInvalid, "Invalid value.")
		}
	}
}

// requireText trims a string field and reports it missing or blank.
// It returns the trimmed value.
func requireText(field string, value *string, partial bool, errs ValidationErrors) *string {
	if value == nil {
		if !partial {
			errs.Add(field, CodeRequired, "This field is required.")
		}
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		errs.Add(field, CodeBlank, "This field may not be blank.")
	}
	return &trimmed
}

func requirePresent(field string, present bool, partial bool, errs ValidationErrors) {
	if !present && !partial {
		errs.Add(field, CodeRequired, "This field is required.")
	}
}

const (
	priceMaxDigits        = 6
	priceMaxDecimalPlaces = 2
)

var priceWholeLimit = decimal.New(1, priceMaxDigits-priceMaxDecimalPlaces)

func validatePrice(price decimal.Decimal, errs ValidationErrors) {
	if !price.IsPositive() {
		errs.Add("price", CodeInvalid, "Price must be greater than zero.")
		return
	}
	if !price.Equal(price.Truncate(priceMaxDecimalPlaces)) {
		errs.Add("price", CodeMaxDecimalPlaces, fmt.Sprintf("Ensure that there are no more than %d decimal places.", priceMaxDecimalPlaces))
	}
	if price.GreaterThanOrEqual(priceWholeLimit) {
		errs.Add("price", CodeMaxWholeDigits, fmt.Sprintf("Ensure that there are no more than %d digits before the decimal point.", priceMaxDigits-priceMaxDecimalPlaces))
	}
}

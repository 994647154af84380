// internal/utils/validator.go
package utils

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("license_type", validateLicenseType)
	validate.RegisterValidation("payout_method", validatePayoutMethod)
	validate.RegisterValidation("currency_code", validateCurrencyCode)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateLicenseType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "single", "department", "school":
		return true
	}
	return false
}

func validatePayoutMethod(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "paypal", "bank_transfer":
		return true
	}
	return false
}

func validateCurrencyCode(fl validator.FieldLevel) bool {
	code := fl.Field().String()
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "license_type":
		return "License type must be single, department or school"
	case "payout_method":
		return "Payout method must be paypal or bank_transfer"
	case "currency_code":
		return "Currency must be a 3-letter ISO code"
	default:
		return e.Field() + " is invalid"
	}
}

package utils

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"reputely/apperrors"
)

var validate = validator.New()

// ValidateStruct runs struct-tag validation and converts failures into a
// field-level apperrors.ValidationError so controllers can name the
// offending fields in the response.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	fields := make(map[string][]string)
	for _, err := range err.(validator.ValidationErrors) {
		field := strings.ToLower(err.Field())
		tag := err.Tag()
		param := err.Param()

		var msg string
		switch tag {
		case "required":
			msg = field + " is required"
		case "min":
			msg = field + " must be at least " + param
		case "max":
			msg = field + " must be at most " + param
		case "email":
			msg = field + " must be a valid email"
		case "oneof":
			msg = field + " must be one of: " + param
		default:
			msg = field + " is invalid"
		}
		fields[field] = append(fields[field], msg)
	}

	return &apperrors.ValidationError{Fields: fields}
}

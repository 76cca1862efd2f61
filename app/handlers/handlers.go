// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

func getValidationErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "url":
		return err.Field() + " must be a valid URL"
	case "uuid4":
		return err.Field() + " must be a valid UUID"
	case "min":
		return fmt.Sprintf("%s must contain at least %s entries", err.Field(), err.Param())
	case "max":
		return fmt.Sprintf("%s must contain at most %s entries", err.Field(), err.Param())
	default:
		return err.Field() + " is invalid"
	}
}

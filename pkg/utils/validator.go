package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/turtacn/crn/pkg/errors"
)

var defaultValidator *validator.Validate

var (
	matchFirstCap = regexp.MustCompile("(.)([A-Z][a-z]+)")
	matchAllCap   = regexp.MustCompile("([a-z0-9])([A-Z])")
)

func init() {
	defaultValidator = validator.New()
	_ = defaultValidator.RegisterValidation("uuid", validateUUID)
}

// ValidateStruct validates a struct using the default validator.
// It returns an invalid_request error with one metadata entry per failing field.
func ValidateStruct(s interface{}) errors.CRNError {
	err := defaultValidator.Struct(s)
	if err == nil {
		return nil
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.ErrValidation(err.Error())
	}
	fields := make([]string, 0, len(validationErrors))
	crnErr := errors.ErrValidation("request validation failed")
	for _, fe := range validationErrors {
		name := toSnakeCase(fe.Field())
		fields = append(fields, name)
		crnErr.WithMetadata(name, formatValidationError(fe))
	}
	crnErr.WithMetadata("fields", strings.Join(fields, ","))
	return crnErr
}

func validateUUID(fl validator.FieldLevel) bool {
	_, err := uuid.Parse(fl.Field().String())
	return err == nil
}

func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "uuid":
		return "must be a valid UUID"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed on the '%s' tag", fe.Tag())
	}
}

func toSnakeCase(str string) string {
	snake := matchFirstCap.ReplaceAllString(str, "${1}_${2}")
	snake = matchAllCap.ReplaceAllString(snake, "${1}_${2}")
	return strings.ToLower(snake)
}

// ValidateNotEmpty checks if a string is not empty.
func ValidateNotEmpty(s string) bool {
	return strings.TrimSpace(s) != ""
}

// ValidateEmail checks if a string is a valid email address.
func ValidateEmail(email string) bool {
	return defaultValidator.Var(email, "email") == nil
}

// ValidateUUID checks if a string is a valid UUID.
func ValidateUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

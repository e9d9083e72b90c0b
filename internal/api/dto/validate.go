package dto

import (
	"github.com/go-playground/validator/v10"

	apperrors "github.com/spec-kit/workflow-service/pkg/util"
)

var validate = validator.New()

// Validate runs struct tag validation and converts failures into the
// VALIDATION_ERROR taxonomy with per-field details.
func Validate(payload any) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	details := make(map[string]any, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		details[fieldErr.Field()] = fieldErr.Tag()
	}
	return apperrors.NewValidationError("invalid payload", details)
}

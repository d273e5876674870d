package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/osse101/SmartList_Go/internal/domain"
	"github.com/osse101/SmartList_Go/internal/usage"
)

// Validator wraps the validator instance
type Validator struct {
	validate *validator.Validate
}

var validate *Validator

// InitValidator initializes the global validator
func InitValidator() {
	v := validator.New()

	_ = v.RegisterValidation("family", validateFamily)
	_ = v.RegisterValidation("period", validatePeriod)
	_ = v.RegisterValidation("action", validateAction)

	validate = &Validator{validate: v}
}

// GetValidator returns the global validator instance
func GetValidator() *Validator {
	if validate == nil {
		InitValidator()
	}
	return validate
}

// ValidateStruct validates a struct using tags
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.validate.Struct(s)
}

// FormatValidationError formats validation errors into a user-friendly map
// keyed by lower-cased field name
func FormatValidationError(err error) map[string]string {
	if err == nil {
		return nil
	}

	errs := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		errs["error"] = "Invalid request format"
		return errs
	}

	for _, e := range validationErrors {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required":
			errs[field] = "This field is required"
		case "family":
			errs[field] = "Must be premium or pro"
		case "period":
			errs[field] = "Must be monthly or yearly"
		case "action":
			errs[field] = ErrMsgUnknownAction
		case "max":
			errs[field] = fmt.Sprintf("Must be at most %s characters", e.Param())
		case "min":
			errs[field] = fmt.Sprintf("Must be at least %s characters", e.Param())
		case "excludesall":
			errs[field] = "Contains invalid characters"
		default:
			errs[field] = "Invalid value"
		}
	}

	return errs
}

func validateFamily(fl validator.FieldLevel) bool {
	switch domain.ProductFamily(fl.Field().String()) {
	case domain.FamilyPremium, domain.FamilyPro:
		return true
	}
	return false
}

// Empty periods are allowed and default to monthly
func validatePeriod(fl validator.FieldLevel) bool {
	switch domain.BillingPeriod(fl.Field().String()) {
	case "", domain.PeriodMonthly, domain.PeriodYearly:
		return true
	}
	return false
}

func validateAction(fl validator.FieldLevel) bool {
	return usage.Action(fl.Field().String()).Valid()
}

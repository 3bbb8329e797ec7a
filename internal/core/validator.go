package core

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"skycast/internal/types"
)

// Custom validation tags.
const (
	tagCityQuery   = "city_query"
	tagWeatherMode = "weather_mode"
)

// ValidationError describes one failed field.
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult collects every failed field of a struct.
type ValidationResult struct {
	Errors []ValidationError `json:"errors,omitempty"`
}

// IsValid reports whether no field failed.
func (r ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// Validator wraps go-playground/validator with the domain tags and reports
// failures as AppErrors.
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator creates a Validator and registers the custom tags:
//
//	city_query   - not blank after trimming whitespace
//	weather_mode - empty, "current" or "hourly"
func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(fieldName)

	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation(tagCityQuery, func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation(tagWeatherMode, func(fl validator.FieldLevel) bool {
		_, err := types.ParseMode(fl.Field().String())
		return err == nil
	})

	return &Validator{validate: v, logger: logger}
}

// Validate checks s and returns every failed field.
func (v *Validator) Validate(s any) ValidationResult {
	err := v.validate.Struct(s)
	if err == nil {
		return ValidationResult{}
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// InvalidValidationError: a programming error, not bad input.
		v.logger.Error("struct validation misuse", "error", err.Error())
		return ValidationResult{Errors: []ValidationError{{
			Code:    string(types.ErrCodeValidationInvalidField),
			Message: "request could not be validated",
		}}}
	}

	result := ValidationResult{Errors: make([]ValidationError, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		code, msg := describe(fe)
		result.Errors = append(result.Errors, ValidationError{
			Field:   fe.Field(),
			Code:    string(code),
			Message: msg,
		})
	}
	return result
}

// ValidateStruct returns nil when s is valid. Otherwise the AppError carries
// the code and message of the first failure and lists every failure under
// the "validation_errors" detail.
func (v *Validator) ValidateStruct(s any) error {
	result := v.Validate(s)
	if result.IsValid() {
		return nil
	}

	first := result.Errors[0]
	return types.NewAppError(types.ErrorCode(first.Code), first.Message, nil).
		WithDetails(map[string]any{"validation_errors": result.Errors})
}

func describe(fe validator.FieldError) (types.ErrorCode, string) {
	switch fe.Tag() {
	case tagCityQuery:
		return types.ErrCodeValidationEmptyQuery, types.MsgEmptyQuery
	case tagWeatherMode:
		return types.ErrCodeValidationInvalidMode, fmt.Sprintf("%s must be one of: current, hourly", fe.Field())
	case "required":
		return types.ErrCodeValidationMissingField, fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return types.ErrCodeValidationInvalidField, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return types.ErrCodeValidationInvalidField, fmt.Sprintf("%s failed %q validation", fe.Field(), fe.Tag())
	}
}

// fieldName reports fields by their query or json name.
func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"query", "json"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

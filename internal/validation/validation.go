// Package validation checks inbound RPC messages against their struct tags.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
)

var (
	// ErrValidationFailed wraps every error returned by ValidateStruct.
	ErrValidationFailed = errors.New("validation failed")
	// ErrFieldRequired is returned when a required field is missing.
	ErrFieldRequired = errors.New("field is required")
	// ErrFieldMaxLength is returned when a field exceeds maximum length.
	ErrFieldMaxLength = errors.New("field exceeds maximum length")
	// ErrFieldMinLength is returned when a field is below minimum length.
	ErrFieldMinLength = errors.New("field below minimum length")
	// ErrFieldEmail is returned when a field must be a valid email.
	ErrFieldEmail = errors.New("field must be a valid email")
	// ErrFieldUUID is returned when a field must be a valid UUID.
	ErrFieldUUID = errors.New("field must be a valid UUID")
	// ErrFieldPositiveAmount is returned when a field must be a positive amount.
	ErrFieldPositiveAmount = errors.New("field must be a positive amount")
	// ErrFieldCents is returned when an amount has more than two fractional digits.
	ErrFieldCents = errors.New("field must have at most two decimal places")
	// ErrFieldMaxAmount is returned when an amount exceeds calculator.MaxAmount.
	ErrFieldMaxAmount = errors.New("field exceeds maximum amount")
)

// ErrValidatorInit is returned when custom validator registration fails.
var ErrValidatorInit = errors.New("validator initialization failed")

var (
	validate     *validator.Validate
	validateOnce sync.Once
	errValidate  error
)

func initValidators() (*validator.Validate, error) {
	vld := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their wire name
	vld.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	if err := vld.RegisterValidation("positive_amount", func(fl validator.FieldLevel) bool {
		str := fl.Field().String()
		if str == "" {
			return true // Let required tag handle empty strings
		}

		d, parseErr := decimal.NewFromString(str)
		if parseErr != nil {
			return false
		}

		return d.IsPositive()
	}); err != nil {
		return nil, fmt.Errorf("%w: failed to register 'positive_amount': %w", ErrValidatorInit, err)
	}

	if err := vld.RegisterValidation("max_amount", func(fl validator.FieldLevel) bool {
		str := fl.Field().String()
		if str == "" {
			return true
		}

		d, parseErr := decimal.NewFromString(str)
		if parseErr != nil {
			return false
		}

		return calculator.WithinBounds(d)
	}); err != nil {
		return nil, fmt.Errorf("%w: failed to register 'max_amount': %w", ErrValidatorInit, err)
	}

	if err := vld.RegisterValidation("cents", func(fl validator.FieldLevel) bool {
		str := fl.Field().String()
		if str == "" {
			return true
		}

		d, parseErr := decimal.NewFromString(str)
		if parseErr != nil {
			return false
		}

		// Rounding an unbounded exponent allocates the full expansion
		return calculator.WithinBounds(d) && calculator.IsCents(d)
	}); err != nil {
		return nil, fmt.Errorf("%w: failed to register 'cents': %w", ErrValidatorInit, err)
	}

	return vld, nil
}

// GetValidator returns the singleton validator instance.
func GetValidator() (*validator.Validate, error) {
	validateOnce.Do(func() {
		validate, errValidate = initValidators()
	})

	return validate, errValidate
}

// ValidateStruct validates a struct using its validate tags.
// Returns nil if validation passes, or an error describing the first failing field.
func ValidateStruct(payload any) error {
	vld, initErr := GetValidator()
	if initErr != nil {
		return fmt.Errorf("%w: %w", ErrValidationFailed, initErr)
	}

	if err := vld.Struct(payload); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			return fmt.Errorf("%w: %w", ErrValidationFailed, formatValidationError(validationErrors[0]))
		}

		return fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	return nil
}

var validationErrorFormatters = map[string]func(field, param string) error{
	"required": func(field, _ string) error {
		return fmt.Errorf("%w: '%s'", ErrFieldRequired, field)
	},
	"max": func(field, param string) error {
		return fmt.Errorf("%w: '%s' must be at most %s", ErrFieldMaxLength, field, param)
	},
	"min": func(field, param string) error {
		return fmt.Errorf("%w: '%s' must be at least %s", ErrFieldMinLength, field, param)
	},
	"email": func(field, _ string) error {
		return fmt.Errorf("%w: '%s'", ErrFieldEmail, field)
	},
	"uuid": func(field, _ string) error {
		return fmt.Errorf("%w: '%s'", ErrFieldUUID, field)
	},
	"positive_amount": func(field, _ string) error {
		return fmt.Errorf("%w: '%s'", ErrFieldPositiveAmount, field)
	},
	"cents": func(field, _ string) error {
		return fmt.Errorf("%w: '%s'", ErrFieldCents, field)
	},
	"max_amount": func(field, _ string) error {
		return fmt.Errorf("%w: '%s' must be at most %s", ErrFieldMaxAmount, field, calculator.FormatCents(calculator.MaxAmount))
	},
}

func formatValidationError(fe validator.FieldError) error {
	if formatter, ok := validationErrorFormatters[fe.Tag()]; ok {
		return formatter(fe.Field(), fe.Param())
	}

	return fmt.Errorf("'%s' failed on the '%s' tag", fe.Field(), fe.Tag())
}

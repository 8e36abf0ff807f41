// Package validator wraps the go-playground/validator library with a single
// Validate entry point and standardized error formatting. Struct fields opt in
// through `validate` tags (e.g. `validate:"required,min=0"`).
package validator

import (
	"errors"
	"fmt"

	gvalidator "github.com/go-playground/validator/v10"
)

// ErrValidationFailed is the root of every error chain returned for a failed
// validation, so callers can detect the class with errors.Is even when several
// field errors are joined.
var ErrValidationFailed = errors.New("struct validation failed")

// validate is the singleton validator instance, configured on package load.
var validate *gvalidator.Validate

// errStringFormat describes a single failed field,
// e.g. "'Address': value ” does not satisfy the 'required' rule".
const errStringFormat = "'%s': value '%v' does not satisfy the '%s' rule"

func init() {
	validate = gvalidator.New(gvalidator.WithRequiredStructEnabled())
}

// formatError converts raw validator errors into a joined chain rooted at
// ErrValidationFailed, one formatted message per failed field. Non-validation
// errors pass through unchanged.
func formatError(err error) error {
	var validationErrors gvalidator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	errs := []error{ErrValidationFailed}
	for _, fieldErr := range validationErrors {
		errs = append(errs, fmt.Errorf(errStringFormat,
			fieldErr.Field(),
			fieldErr.Value(),
			fieldErr.Tag(),
		))
	}

	return errors.Join(errs...)
}

// Validate checks the given struct against its validation tags. It returns nil
// when every field passes, or an error chain rooted at ErrValidationFailed
// otherwise.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		return formatError(err)
	}

	return nil
}

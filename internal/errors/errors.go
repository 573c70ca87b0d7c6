// Package errors provides the error taxonomy of the wpstack provisioner.
//
// Every failure that reaches the operator is one of three kinds:
//
//   - ValidationError: operator input is missing or malformed
//   - StepError: an orchestrated action against the host reported failure
//   - TemplateError: a template placeholder has no value
//
// A fourth, general purpose Error carries configuration and permission
// problems that happen before the pipeline starts.
//
// # Sentinel Errors
//
// Each kind has a sentinel that matches any error of that kind:
//
//	errors.Is(err, errors.ErrStep)       // any step failure
//	errors.Is(err, errors.ErrValidation) // any input problem
//
// A partially filled value narrows the match:
//
//	errors.Is(err, &errors.StepError{Step: "Nginx installation"})
//
// # Usage
//
//	return errors.Validation("domain", "must be a fully qualified domain name")
//	return errors.Step("Database setup", err)
//	return errors.Template("wp-config.php", "DBPassword")
//	return errors.Wrap(errors.ErrCodeConfig, "failed to load settings", err)
//
// Use errors.As to get at the fields:
//
//	var stepErr *errors.StepError
//	if errors.As(err, &stepErr) {
//	    fmt.Printf("failed step: %s\n", stepErr.Step)
//	}
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes errors for programmatic handling.
type ErrorCode string

// Error codes for different error categories.
const (
	ErrCodeValidation ErrorCode = "VALIDATION" // Operator input invalid
	ErrCodeStep       ErrorCode = "STEP"       // Provisioning step failed
	ErrCodeTemplate   ErrorCode = "TEMPLATE"   // Template placeholder missing
	ErrCodePermission ErrorCode = "PERMISSION" // Permission denied
	ErrCodeConfig     ErrorCode = "CONFIG"     // Settings error
	ErrCodeInternal   ErrorCode = "INTERNAL"   // Internal/unexpected error
)

// ValidationError reports bad or missing operator input.
type ValidationError struct {
	Field   string // Input field name, empty when not field specific
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return "invalid input: " + e.Message
}

// Code returns ErrCodeValidation.
func (e *ValidationError) Code() ErrorCode { return ErrCodeValidation }

// Is matches another ValidationError with the same field, or any field when
// the target field is empty.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	if !ok {
		return false
	}
	return t.Field == "" || t.Field == e.Field
}

// StepError reports that a named provisioning step failed.
type StepError struct {
	Step string
	Err  error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("step %q failed: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("step %q failed", e.Step)
}

// Unwrap returns the cause reported by the step action.
func (e *StepError) Unwrap() error {
	return e.Err
}

// Code returns ErrCodeStep.
func (e *StepError) Code() ErrorCode { return ErrCodeStep }

// Is matches another StepError with the same step name, or any step when the
// target name is empty.
func (e *StepError) Is(target error) bool {
	t, ok := target.(*StepError)
	if !ok {
		return false
	}
	return t.Step == "" || t.Step == e.Step
}

// TemplateError reports a placeholder without a corresponding value.
type TemplateError struct {
	Template    string
	Placeholder string
	Err         error // Set when the template itself could not be loaded or parsed
}

// Error implements the error interface.
func (e *TemplateError) Error() string {
	if e.Placeholder != "" {
		return fmt.Sprintf("template %s: no value for placeholder %q", e.Template, e.Placeholder)
	}
	if e.Err != nil {
		return fmt.Sprintf("template %s: %v", e.Template, e.Err)
	}
	return fmt.Sprintf("template %s: render failed", e.Template)
}

// Unwrap returns the underlying parse error, if any.
func (e *TemplateError) Unwrap() error {
	return e.Err
}

// Code returns ErrCodeTemplate.
func (e *TemplateError) Code() ErrorCode { return ErrCodeTemplate }

// Is matches another TemplateError for the same template, or any template
// when the target name is empty.
func (e *TemplateError) Is(target error) bool {
	t, ok := target.(*TemplateError)
	if !ok {
		return false
	}
	return t.Template == "" || t.Template == e.Template
}

// Error is a general structured error for failures outside the pipeline.
type Error struct {
	Code    ErrorCode // Error category
	Message string    // Human-readable message
	Err     error     // Underlying error (if any)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target matches this error.
// Comparison is based on error code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Sentinel errors. Use these with errors.Is().
var (
	// ErrValidation matches any ValidationError.
	ErrValidation = &ValidationError{}

	// ErrStep matches any StepError.
	ErrStep = &StepError{}

	// ErrTemplate matches any TemplateError.
	ErrTemplate = &TemplateError{}

	// ErrRootRequired indicates root privileges are required.
	ErrRootRequired = &Error{Code: ErrCodePermission, Message: "root privileges required"}

	// ErrConfigInvalid indicates the settings file or environment is invalid.
	ErrConfigInvalid = &Error{Code: ErrCodeConfig, Message: "invalid configuration"}
)

// Validation creates a validation error for a field.
func Validation(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// Step creates an error for a failed step.
func Step(name string, err error) error {
	return &StepError{Step: name, Err: err}
}

// Template creates an error for a placeholder without a value.
func Template(name, placeholder string) error {
	return &TemplateError{Template: name, Placeholder: placeholder}
}

// Wrap creates an error with the specified code, message, and underlying error.
func Wrap(code ErrorCode, msg string, err error) error {
	return &Error{
		Code:    code,
		Message: msg,
		Err:     err,
	}
}

// CodeOf returns the code of the first categorized error in err's chain, or
// ErrCodeInternal when there is none.
func CodeOf(err error) ErrorCode {
	var coded interface{ Code() ErrorCode }
	if errors.As(err, &coded) {
		return coded.Code()
	}
	var general *Error
	if errors.As(err, &general) {
		return general.Code
	}
	return ErrCodeInternal
}

// Is reports whether any error in err's chain matches target.
// This is a re-export of errors.Is for convenience.
var Is = errors.Is

// As finds the first error in err's chain that matches target.
// This is a re-export of errors.As for convenience.
var As = errors.As

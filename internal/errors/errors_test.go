package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Messages(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "validation with field",
			err:      &ValidationError{Field: "domain", Message: "must not be empty"},
			expected: "invalid domain: must not be empty",
		},
		{
			name:     "validation without field",
			err:      &ValidationError{Message: "no answers"},
			expected: "invalid input: no answers",
		},
		{
			name:     "step with cause",
			err:      &StepError{Step: "Nginx installation", Err: fmt.Errorf("exit status 100")},
			expected: `step "Nginx installation" failed: exit status 100`,
		},
		{
			name:     "step without cause",
			err:      &StepError{Step: "System update"},
			expected: `step "System update" failed`,
		},
		{
			name:     "template placeholder",
			err:      &TemplateError{Template: "nginx/wordpress.conf", Placeholder: "Domain"},
			expected: `template nginx/wordpress.conf: no value for placeholder "Domain"`,
		},
		{
			name:     "template parse failure",
			err:      &TemplateError{Template: "x", Err: fmt.Errorf("unexpected EOF")},
			expected: "template x: unexpected EOF",
		},
		{
			name:     "general with cause",
			err:      &Error{Code: ErrCodeConfig, Message: "failed to load", Err: fmt.Errorf("file not found")},
			expected: "failed to load: file not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestStepError_Is(t *testing.T) {
	err := fmt.Errorf("run aborted: %w", Step("Nginx installation", errors.New("boom")))

	if !Is(err, ErrStep) {
		t.Error("expected wrapped StepError to match ErrStep")
	}
	if !Is(err, &StepError{Step: "Nginx installation"}) {
		t.Error("expected match on the same step name")
	}
	if Is(err, &StepError{Step: "System update"}) {
		t.Error("did not expect match on a different step name")
	}
	if Is(err, ErrValidation) {
		t.Error("StepError must not match ErrValidation")
	}
}

func TestStepError_Unwrap(t *testing.T) {
	cause := errors.New("exit status 1")
	err := Step("Database setup", cause)

	if !errors.Is(err, cause) {
		t.Error("expected the cause to be reachable through Unwrap")
	}

	var stepErr *StepError
	if !As(err, &stepErr) {
		t.Fatal("expected As to find StepError")
	}
	if stepErr.Step != "Database setup" {
		t.Errorf("Step = %q, want %q", stepErr.Step, "Database setup")
	}
}

func TestValidationError_Is(t *testing.T) {
	err := Validation("email", "invalid email address")

	if !Is(err, ErrValidation) {
		t.Error("expected match on ErrValidation")
	}
	if !Is(err, &ValidationError{Field: "email"}) {
		t.Error("expected match on the same field")
	}
	if Is(err, &ValidationError{Field: "domain"}) {
		t.Error("did not expect match on another field")
	}
}

func TestTemplateError_Is(t *testing.T) {
	err := Template("wordpress/wp-config.php", "DBPassword")

	if !Is(err, ErrTemplate) {
		t.Error("expected match on ErrTemplate")
	}
	if Is(err, &TemplateError{Template: "nginx/wordpress.conf"}) {
		t.Error("did not expect match on another template")
	}
}

func TestError_IsByCode(t *testing.T) {
	err := Wrap(ErrCodePermission, "root privileges required", nil)
	if !Is(err, ErrRootRequired) {
		t.Error("expected match by permission code")
	}
	if Is(err, ErrConfigInvalid) {
		t.Error("did not expect match on config code")
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"validation", Validation("domain", "empty"), ErrCodeValidation},
		{"step", Step("x", nil), ErrCodeStep},
		{"template", Template("t", "p"), ErrCodeTemplate},
		{"general", Wrap(ErrCodeConfig, "bad", nil), ErrCodeConfig},
		{"wrapped step", fmt.Errorf("ctx: %w", Step("x", nil)), ErrCodeStep},
		{"plain", errors.New("plain"), ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %s, want %s", got, tt.want)
			}
		})
	}
}

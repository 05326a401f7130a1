package prompt

import (
	"errors"
	"fmt"
)

// ValidationError reports a value that does not match a schema
type ValidationError struct {
	Schema  string // Schema name (e.g. "AnalysisRequest")
	Field   string // Offending field, empty when the value itself is wrong
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Schema, e.Message)
	}
	return fmt.Sprintf("%s.%s %s", e.Schema, e.Field, e.Message)
}

// OutputFormatError reports a model reply that is not valid JSON or does not
// match the output schema. Raw holds the reply for diagnostics only.
type OutputFormatError struct {
	Prompt string
	Raw    string
	Err    error
}

func (e *OutputFormatError) Error() string {
	return fmt.Sprintf("prompt %s: invalid model output: %v", e.Prompt, e.Err)
}

func (e *OutputFormatError) Unwrap() error {
	return e.Err
}

// CallError reports a failed call to the hosted model (network, timeout,
// authentication or provider error).
type CallError struct {
	Prompt string
	Err    error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("prompt %s: model call failed: %v", e.Prompt, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is an input validation failure
func IsValidation(err error) bool {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	var ofe *OutputFormatError
	return !errors.As(err, &ofe)
}

// IsModelFailure reports whether err came from the model call or its reply
func IsModelFailure(err error) bool {
	var ce *CallError
	var ofe *OutputFormatError
	return errors.As(err, &ce) || errors.As(err, &ofe)
}

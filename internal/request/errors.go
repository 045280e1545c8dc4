package request

import (
	"errors"
	"fmt"
)

// ErrValidation is wrapped by every argument validation failure.
// Validation failures are caller errors and are never retried.
var ErrValidation = errors.New("validation error")

// MissingParameterError reports a required parameter absent from the arguments.
type MissingParameterError struct {
	Parameter string
	Location  string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("missing required %s parameter: %s", e.Location, e.Parameter)
}

func (e *MissingParameterError) Unwrap() error { return ErrValidation }

// PathSubstitutionError reports a path parameter that could not be placed in
// the path template, or a placeholder left without a value.
type PathSubstitutionError struct {
	Parameter string
	Path      string
}

func (e *PathSubstitutionError) Error() string {
	return fmt.Sprintf("cannot substitute path parameter %s into %s", e.Parameter, e.Path)
}

func (e *PathSubstitutionError) Unwrap() error { return ErrValidation }

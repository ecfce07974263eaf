package solver

import (
	"errors"
	"fmt"

	"github.com/stepmath/mathsteps/internal/cas"
	"github.com/stepmath/mathsteps/internal/notation"
)

// FallbackError marks a request the deterministic pipeline could not
// interpret or compute. Callers surface it as a suggestion to switch
// to free-text solving instead of a raw failure.
type FallbackError struct {
	OriginalInput string
	Err           error
}

func (e *FallbackError) Error() string { return e.Err.Error() }

func (e *FallbackError) Unwrap() error { return e.Err }

// Kind names the failure class for clients and history records.
func (e *FallbackError) Kind() string {
	var (
		validation *validationError
		notationE  *notation.ParseError
		parseE     *cas.ParseError
		computeE   *cas.ComputationError
	)
	switch {
	case errors.As(e.Err, &validation):
		return "ValidationError"
	case errors.As(e.Err, &notationE):
		return "NotationError"
	case errors.As(e.Err, &parseE):
		return "ParseError"
	case errors.As(e.Err, &computeE):
		return "ComputationError"
	default:
		return "SolverError"
	}
}

func fallback(originalInput string, err error) *FallbackError {
	return &FallbackError{OriginalInput: originalInput, Err: err}
}

// validationError rejects a malformed request before any math runs.
type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func invalidf(format string, args ...any) error {
	return &validationError{msg: fmt.Sprintf(format, args...)}
}

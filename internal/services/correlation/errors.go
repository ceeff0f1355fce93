package correlation

import (
	"errors"
	"fmt"
)

// Kind classifies recoverable analysis errors.
type Kind string

const (
	// KindInvalidInput marks caller errors: mixed tickers, empty series
	// on the strict path, bad policy configuration.
	KindInvalidInput Kind = "invalid_input"
	// KindMalformedObservation marks observations outside their declared
	// domain: NaN/Inf values, scores outside [-1, 1], negative closes.
	// Such values are rejected, never clamped.
	KindMalformedObservation Kind = "malformed_observation"
)

// Error is a typed analysis error. The caller can inspect Kind and
// act (skip a ticker, widen the window, report a 400); the analysis
// core never terminates the host.
type Error struct {
	Kind    Kind
	Message string
	Field   string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// IsKind reports whether err is (or wraps) an Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind == kind
	}
	return false
}

func invalidInput(field, format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidInput, Field: field, Message: fmt.Sprintf(format, args...)}
}

func malformed(field, format string, args ...interface{}) *Error {
	return &Error{Kind: KindMalformedObservation, Field: field, Message: fmt.Sprintf(format, args...)}
}

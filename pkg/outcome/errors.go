package outcome

import (
	"errors"
	"fmt"
)

var errNilResponse = errors.New("transport returned no response")

// WithInner builds an error that carries an inner error description.
func WithInner(message, inner string) error {
	return fmt.Errorf("%s - inner error: %s", message, inner)
}

// Text returns the body of a Success. For any other outcome it returns the
// outcome's error when failOnError is set, or an empty string otherwise.
func Text(o Outcome, failOnError bool) (string, error) {
	if s, ok := o.(Success); ok {
		return s.Body, nil
	}
	if failOnError && o != nil {
		return "", o.Err()
	}
	return "", nil
}

// IsRateLimited reports whether err is, or wraps, a RateLimited outcome.
func IsRateLimited(err error) bool {
	var rl RateLimited
	return errors.As(err, &rl)
}

// AsFailure extracts a Failure outcome from err if present.
func AsFailure(err error) (Failure, bool) {
	var f Failure
	ok := errors.As(err, &f)
	return f, ok
}

package speech

import (
	"errors"
	"fmt"
)

var (
	// ErrDisabled is returned by the provider used when speech is turned off.
	ErrDisabled = errors.New("speech services are disabled")

	// ErrUnsupported is returned when a backend lacks an operation.
	ErrUnsupported = errors.New("operation not supported by provider")

	// ErrEmptyResult is returned when a backend answers without content.
	ErrEmptyResult = errors.New("empty response")
)

// ServiceError is a failure of an external speech service. Sessions record
// it as an ERROR outcome; it is never retried automatically.
type ServiceError struct {
	Provider string
	Op       Op

	// Temporary is set for rate limits and server-side failures.
	Temporary bool

	Err error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %v", e.Provider, e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s failed", e.Provider, e.Op)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// IsServiceError reports whether err is or wraps a ServiceError.
func IsServiceError(err error) bool {
	var se *ServiceError
	return errors.As(err, &se)
}

func serviceError(provider string, op Op, err error) error {
	var se *ServiceError
	if errors.As(err, &se) {
		return err
	}
	return &ServiceError{Provider: provider, Op: op, Err: err}
}

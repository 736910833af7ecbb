package crm

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions that need no extra payload.
var (
	// ErrNotConfigured means CRM credentials are absent. Not retryable until
	// configuration changes, but records stay resyncable.
	ErrNotConfigured = errors.New("crm not configured")

	// ErrCapabilityUnavailable means credentials are present but the plan or
	// feature set lacks invoicing.
	ErrCapabilityUnavailable = errors.New("crm capability unavailable")
)

// RemoteError is a 4xx/validation-style rejection from the CRM. Not
// retryable without a payload change.
type RemoteError struct {
	Code    int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("crm rejected request: status %d: %s", e.Code, e.Message)
}

// NetworkError is a transport-level failure (connection refused, timeout,
// 5xx). Retryable.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("crm network failure during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether an error may succeed on a later attempt
// without any payload change.
func IsRetryable(err error) bool {
	var netFailure *NetworkError
	return errors.As(err, &netFailure)
}

package domain

import "errors"

// Error taxonomy shared by every worker. A message-level handler inspects
// the returned error with errors.Is/As to decide whether a delivery is
// fatal (nacked straight to the DLQ, no retry is attempted), a no-op
// success (Conflict on an idempotent create), or transient (republished
// through broker.HandleRetry until its retry limit, then sent to the DLQ).
var (
	// ErrValidation marks a malformed message: fatal, not retried.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks a missing required reference (order, product, lead): fatal.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a failed uniqueness precondition on an idempotent
	// create. Callers treat it as success, not failure.
	ErrConflict = errors.New("conflict")
	// ErrInsufficientStock marks Phase A's stock precheck failing.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrGateway marks a simulated payment gateway failure.
	ErrGateway = errors.New("gateway error")
	// ErrTransientStore marks a recoverable document-store failure: the
	// delivery should be redelivered.
	ErrTransientStore = errors.New("transient store error")
	// ErrTransientQueue marks a recoverable broker failure.
	ErrTransientQueue = errors.New("transient queue error")
	// ErrInvalidTransition marks an order state-machine violation: fatal.
	ErrInvalidTransition = errors.New("invalid order state transition")
)

// ValidationError wraps ErrValidation with a caller-facing message. Ingress
// surfaces .Msg verbatim in its 400 response body.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }
func (e *ValidationError) Unwrap() error { return ErrValidation }

func NewValidationError(msg string) error {
	return &ValidationError{Msg: msg}
}

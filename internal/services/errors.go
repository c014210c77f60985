package services

import (
	"errors"
	"fmt"
)

// Error kinds returned by OrderService. Match with errors.Is.
var (
	ErrValidation         = errors.New("validation_error")
	ErrSignatureMismatch  = errors.New("signature_mismatch")
	ErrDuplicatePayment   = errors.New("duplicate_payment")
	ErrGatewayUnavailable = errors.New("gateway_unavailable")
	ErrPersistence        = errors.New("persistence_error")
)

// PaymentError tags a failure with its kind. Message is safe to show to the
// client; Err carries the internal cause and is only logged.
type PaymentError struct {
	Kind    error
	Message string
	Err     error
}

func (e *PaymentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *PaymentError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newPaymentError(kind error, message string, err error) *PaymentError {
	return &PaymentError{Kind: kind, Message: message, Err: err}
}

// ErrorKind returns the kind of err and the client-safe message. Errors that
// did not originate from OrderService are reported as persistence errors.
func ErrorKind(err error) (kind error, message string) {
	var pe *PaymentError
	if errors.As(err, &pe) {
		return pe.Kind, pe.Message
	}
	return ErrPersistence, "internal error"
}

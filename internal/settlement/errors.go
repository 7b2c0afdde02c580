package settlement

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrValidationFailed     = errors.New("validation failed")
	ErrNetwork              = errors.New("ledger unreachable")
	ErrTimeout              = errors.New("ledger request timed out")
	ErrServerRejection      = errors.New("ledger rejected the request")
	ErrReceiptUnavailable   = errors.New("receipt unavailable")
	ErrSubmissionInProgress = errors.New("a settlement is already being submitted")

	// ErrOutcomeUnknown means the ledger accepted the request but did not identify the payment.
	// The settlement may have been recorded, so it must not be retried blindly.
	ErrOutcomeUnknown = errors.New("ledger accepted the settlement without a payment id")
)

// ValidationFailedError carries every rule the selection violated.
type ValidationFailedError struct {
	Errors []ValidationError
}

func (e *ValidationFailedError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, v := range e.Errors {
		msgs[i] = v.Message
	}

	return fmt.Sprintf("%s: %s", ErrValidationFailed, strings.Join(msgs, "; "))
}

func (e *ValidationFailedError) Is(target error) bool {
	return target == ErrValidationFailed
}

// NetworkError means the call did not complete. Timeouts match both ErrTimeout and ErrNetwork.
type NetworkError struct {
	Op      string
	Timeout bool
	Err     error
}

func (e *NetworkError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s: %s: %v", e.Op, ErrTimeout, e.Err)
	}

	return fmt.Sprintf("%s: %s: %v", e.Op, ErrNetwork, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return true
	case ErrTimeout:
		return e.Timeout
	}

	return false
}

// RejectionError is a non-2xx answer from the ledger.
type RejectionError struct {
	Status  int
	Code    string
	Message string
}

func (e *RejectionError) Error() string {
	return e.Message
}

func (e *RejectionError) Is(target error) bool {
	return target == ErrServerRejection
}

// GenericRejection is used when the ledger body carries no structured error.
func GenericRejection(status int) *RejectionError {
	return &RejectionError{
		Status:  status,
		Message: fmt.Sprintf("ledger rejected the request (HTTP %d)", status),
	}
}

// ReceiptUnavailableError is returned after a successful settlement whose receipt could not be
// obtained. The payment exists on the ledger.
type ReceiptUnavailableError struct {
	PaymentID uuid.UUID
	Err       error
}

func (e *ReceiptUnavailableError) Error() string {
	return fmt.Sprintf("payment %s recorded, %s: %v", e.PaymentID, ErrReceiptUnavailable, e.Err)
}

func (e *ReceiptUnavailableError) Unwrap() error {
	return e.Err
}

func (e *ReceiptUnavailableError) Is(target error) bool {
	return target == ErrReceiptUnavailable
}

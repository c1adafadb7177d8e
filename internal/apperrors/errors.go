package apperrors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrSellerNotFound        = errors.New("seller not found")
	ErrCreditRequestNotFound = errors.New("credit request not found")
	ErrPhoneNumberNotFound   = errors.New("phone number not found")

	ErrPhoneNumberInactive     = errors.New("phone number is not active")
	ErrPhoneNumberTaken        = errors.New("phone number already exists")
	ErrPhoneNumberInvalid      = errors.New("phone number is invalid")
	ErrSellerNameInvalid       = errors.New("seller name is invalid")
	ErrCreditRequestInvalid    = errors.New("invalid credit request")
	ErrCreditRequestNotPending = fmt.Errorf("%w: not pending", ErrCreditRequestInvalid)
	ErrAmountInvalid           = errors.New("amount is invalid")

	ErrBalanceInsufficient = errors.New("insufficient balance")

	ErrOperationFailed = errors.New("operation failed")
	ErrChargeFailed    = errors.New("charge failed")
)

// Kind is a coarse error class callers may switch on
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindInvalidState
	KindInsufficientBalance
	KindOperationFailed
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidState:
		return "invalid_state"
	case KindInsufficientBalance:
		return "insufficient_balance"
	case KindOperationFailed:
		return "operation_failed"
	default:
		return "unknown"
	}
}

// KindOf classifies err. OperationFailed is checked first: an aborted atomic unit
// may also match an operation specific sentinel (ErrCreditRequestInvalid for example)
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrOperationFailed):
		return KindOperationFailed
	case errors.Is(err, ErrSellerNotFound),
		errors.Is(err, ErrCreditRequestNotFound),
		errors.Is(err, ErrPhoneNumberNotFound):
		return KindNotFound
	case errors.Is(err, ErrBalanceInsufficient):
		return KindInsufficientBalance
	case errors.Is(err, ErrPhoneNumberInactive),
		errors.Is(err, ErrPhoneNumberTaken),
		errors.Is(err, ErrPhoneNumberInvalid),
		errors.Is(err, ErrSellerNameInvalid),
		errors.Is(err, ErrCreditRequestInvalid),
		errors.Is(err, ErrAmountInvalid):
		return KindInvalidState
	default:
		return KindUnknown
	}
}

// InsufficientBalanceError reports the balance seen under lock and the requested amount
type InsufficientBalanceError struct {
	Have decimal.Decimal
	Need decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance. Current: %s, Required: %s", e.Have.StringFixed(2), e.Need.StringFixed(2))
}

func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrBalanceInsufficient
}

// OperationError means an atomic unit aborted after validation passed.
// Nothing it touched was committed, so the whole operation may be retried.
type OperationError struct {
	// Operation name, e.g. "approve credit request"
	Op string

	// Operation specific sentinel the error also matches (may be nil)
	Sentinel error

	Err error
}

func NewOperationError(op string, sentinel error, err error) *OperationError {
	return &OperationError{Op: op, Sentinel: sentinel, Err: err}
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

func (e *OperationError) Is(target error) bool {
	return target == ErrOperationFailed || (e.Sentinel != nil && target == e.Sentinel)
}

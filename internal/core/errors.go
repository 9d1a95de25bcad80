package core

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Sentinel errors identifying the failure kind of a ledger operation.
var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrValidation        = errors.New("validation failed")
	ErrInternal          = errors.New("operation failed")
)

// ErrorKind is the coarse category callers branch on.
type ErrorKind string

const (
	KindNotFound          ErrorKind = "not_found"
	KindInsufficientFunds ErrorKind = "insufficient_funds"
	KindValidation        ErrorKind = "validation"
	KindInternal          ErrorKind = "internal"
)

// NotFoundError names the missing entity. Message overrides the default text
// when the caller needs a role-specific wording ("sender not found").
type NotFoundError struct {
	Entity  string
	ID      int64
	Message string
}

func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s not found", e.Entity)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// InsufficientFundsError carries the balance that was available for the debit.
type InsufficientFundsError struct {
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds, available: %s", FormatMoney(e.Available))
}

func (e *InsufficientFundsError) Is(target error) bool { return target == ErrInsufficientFunds }

// ValidationError reports a violated input constraint.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// TargetExceededError rejects a savings contribution that would overshoot the
// plan target. MaxAllowed is target minus the current amount.
type TargetExceededError struct {
	MaxAllowed decimal.Decimal
}

func (e *TargetExceededError) Error() string {
	return fmt.Sprintf("amount exceeds plan target, maximum allowed: %s", FormatMoney(e.MaxAllowed))
}

func (e *TargetExceededError) Is(target error) bool { return target == ErrValidation }

// NotFound builds a NotFoundError for entity/id.
func NotFound(entity string, id int64) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// Invalid builds a ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// KindOf maps any error returned by the ledger core to its kind. Unknown
// errors are internal.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInsufficientFunds):
		return KindInsufficientFunds
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrEmptyName),
		errors.Is(err, ErrInvalidEmail),
		errors.Is(err, ErrShortPassword),
		errors.Is(err, ErrInvalidDeadline):
		return KindValidation
	default:
		return KindInternal
	}
}

// UserMessage returns the text safe to show to the end user. Internal errors
// collapse to a generic message; their cause is logged where they happen.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if KindOf(err) == KindInternal {
		return ErrInternal.Error()
	}
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf.Error()
	}
	var inf *InsufficientFundsError
	if errors.As(err, &inf) {
		return inf.Error()
	}
	var te *TargetExceededError
	if errors.As(err, &te) {
		return te.Error()
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	return err.Error()
}

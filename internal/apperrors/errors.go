package apperrors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates the operation is not valid for the resource's current state.
var ErrConflict = errors.New("conflict with current state")

// ErrInternal indicates an unexpected internal failure.
var ErrInternal = errors.New("internal error")

// Validation errors. Nothing is persisted when these are returned.
var (
	// ErrUnbalancedEntry indicates an entry whose debit and credit totals,
	// converted to the ledger base currency, differ by more than the tolerance.
	ErrUnbalancedEntry = fmt.Errorf("%w: entry debits and credits do not balance", ErrValidation)

	// ErrInvalidAmount indicates a non-positive line amount.
	ErrInvalidAmount = fmt.Errorf("%w: amount must be positive", ErrValidation)

	// ErrTooFewLines indicates an entry with fewer than two lines.
	ErrTooFewLines = fmt.Errorf("%w: entry must have at least two lines", ErrValidation)
)

// Conflict errors. The caller should refetch state and retry.
var (
	// ErrAlreadyVoided indicates the entry has already been voided.
	ErrAlreadyVoided = fmt.Errorf("%w: entry already voided", ErrConflict)

	// ErrDuplicateDocument indicates a statement with an already ingested file fingerprint.
	ErrDuplicateDocument = fmt.Errorf("%w: document fingerprint already ingested", ErrDuplicate)

	// ErrStaleMatchVersion indicates a concurrent reconciliation run already
	// superseded the match version this operation was based on.
	ErrStaleMatchVersion = fmt.Errorf("%w: match version is stale", ErrConflict)

	// ErrLockTimeout indicates a posting could not acquire its account locks in
	// time. The operation is retryable.
	ErrLockTimeout = fmt.Errorf("%w: timed out waiting for account locks", ErrConflict)
)

// ErrAccountingEquation indicates the trial balance no longer holds after a posting.
var ErrAccountingEquation = errors.New("accounting equation violated")

// BalanceMismatchError is returned when a statement's declared closing balance
// does not agree with its opening balance plus the sum of its transactions.
// It carries the computed delta for diagnosis; the whole batch is rejected.
type BalanceMismatchError struct {
	Opening decimal.Decimal
	Closing decimal.Decimal
	Delta   decimal.Decimal
}

func (e *BalanceMismatchError) Error() string {
	return fmt.Sprintf("statement balance mismatch: opening %s + transactions != closing %s (delta %s)",
		e.Opening.StringFixed(2), e.Closing.StringFixed(2), e.Delta.StringFixed(2))
}

// Is makes BalanceMismatchError match ErrValidation in errors.Is chains.
func (e *BalanceMismatchError) Is(target error) bool {
	return target == ErrValidation
}

package postings

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every engine operation returns an error that matches
// one of these with errors.Is.
var (
	// General errors
	ErrNotFound      = errors.New("postings: not found")
	ErrAlreadyExists = errors.New("postings: already exists")
	ErrInvalidInput  = errors.New("postings: invalid input")

	// Storage errors. Failures of the storage layer wrap ErrStorage and
	// the underlying cause.
	ErrStorage       = errors.New("postings: storage failure")
	ErrStoreNotReady = errors.New("postings: store not ready")
	ErrStoreClosed   = errors.New("postings: store is closed")

	// Directory errors
	ErrLedgerAccountNotFound  = errors.New("postings: ledger account not found")
	ErrLedgerNotFound         = errors.New("postings: ledger not found")
	ErrChartOfAccountNotFound = errors.New("postings: chart of accounts not found")
	ErrAccountCycle           = errors.New("postings: account parent chain is cyclic")

	// Posting errors
	ErrPostingNotFound       = errors.New("postings: posting not found")
	ErrUnbalancedPosting     = errors.New("postings: debits and credits do not balance")
	ErrHashComputationFailed = errors.New("postings: not enough information to hash posting")

	// Statement errors
	ErrStatementNotFound      = errors.New("postings: statement not found")
	ErrStatementAlreadyClosed = errors.New("postings: statement already closed")
	ErrTraceNotFound          = errors.New("postings: posting trace not found")

	// Locking errors
	ErrLockTimeout = errors.New("postings: lock acquisition timed out")
)

// ValidationError represents a validation failure with details.
// It matches ErrInvalidInput.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("postings: validation failed for %s: %s", e.Field, e.Message)
}

// Is reports whether target is ErrInvalidInput.
func (e ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "postings: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("postings: %d errors occurred", len(e.Errors))
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e MultiError) Unwrap() []error {
	return e.Errors
}

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ErrorOrNil returns e when it holds errors, nil otherwise.
func (e MultiError) ErrorOrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrLedgerAccountNotFound) ||
		errors.Is(err, ErrLedgerNotFound) ||
		errors.Is(err, ErrChartOfAccountNotFound) ||
		errors.Is(err, ErrPostingNotFound) ||
		errors.Is(err, ErrStatementNotFound) ||
		errors.Is(err, ErrTraceNotFound)
}

// IsStorage returns true if the error originates in the storage layer.
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}

// IsRetryable returns true if the error is temporary and the operation can
// be retried by the caller. The engine itself never retries.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStorage) ||
		errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrLockTimeout)
}

// domainErrors are returned by stores and the engine as-is; anything else
// coming out of a store is a storage failure.
var domainErrors = []error{
	ErrNotFound,
	ErrAlreadyExists,
	ErrInvalidInput,
	ErrStorage,
	ErrLedgerAccountNotFound,
	ErrLedgerNotFound,
	ErrChartOfAccountNotFound,
	ErrPostingNotFound,
	ErrStatementNotFound,
	ErrStatementAlreadyClosed,
	ErrTraceNotFound,
	ErrLockTimeout,
}

// storageError classifies an error returned by the store.
func storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range domainErrors {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

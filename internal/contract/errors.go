package contract

import (
	"errors"
	"fmt"
)

// ErrorKind is a stable code for every failure surfaced to callers.
type ErrorKind string

// All error kinds.
const (
	KindScan              ErrorKind = "scan"
	KindBudgetOverflow    ErrorKind = "budget-overflow"
	KindEvidenceMissing   ErrorKind = "evidence-missing"
	KindStore             ErrorKind = "store"
	KindNotFound          ErrorKind = "not-found"
	KindInvalidTransition ErrorKind = "invalid-transition"
	KindInvalidInput      ErrorKind = "invalid-input"
	KindConflict          ErrorKind = "conflict"
	KindInternal          ErrorKind = "internal"
)

// Sentinel errors usable with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrEvidenceMissing   = errors.New("no migration artifacts observed")
	ErrConflict          = errors.New("concurrent modification")
	ErrBudget            = errors.New("budget must be greater than 0")
)

// OpError is the typed failure returned across the orchestration boundary.
type OpError struct {
	Kind    ErrorKind
	Op      string
	Message string
	Err     error
}

// NewOpError creates a new OpError.
func NewOpError(kind ErrorKind, op, message string, cause error) *OpError {
	return &OpError{Kind: kind, Op: op, Message: message, Err: cause}
}

// Error implements the error interface.
func (e *OpError) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	default:
		return e.Message
	}
}

// Unwrap returns the underlying error.
func (e *OpError) Unwrap() error {
	return e.Err
}

// KindOf classifies any error into an ErrorKind.
// Errors that were never typed are reported as store failures when they carry
// no sentinel, since every untyped error in the core comes from the store.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var opErr *OpError
	if errors.As(err, &opErr) {
		return opErr.Kind
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidTransition):
		return KindInvalidTransition
	case errors.Is(err, ErrEvidenceMissing):
		return KindEvidenceMissing
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrBudget):
		return KindInvalidInput
	default:
		return KindStore
	}
}

// NotFoundf builds a not-found error wrapping ErrNotFound.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

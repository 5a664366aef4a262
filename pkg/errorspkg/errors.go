// Package errorspkg provides common app errors.
package errorspkg

import "errors"

// ErrInternal indicates internal server error.
var ErrInternal = errors.New("internal")

// Family sentinels. Every application error matches exactly one of them
// in errors.Is comparisons.
var (
	// ErrStorage indicates that the transaction machinery or a statement failed.
	ErrStorage = errors.New("storage failure")
	// ErrAccounting indicates that a business rule rejected the request.
	ErrAccounting = errors.New("accounting rule rejected")
)

// Storage sub-kinds.
var (
	// ErrTxNotStarted indicates a storage call outside any transaction scope.
	ErrTxNotStarted = Kind(ErrStorage, "transaction is not started")
	// ErrTxNested indicates an attempt to open a unit of work inside another one.
	ErrTxNested = Kind(ErrStorage, "transaction is already started")
	// ErrSerialization indicates that the backing store aborted the transaction
	// to keep concurrent units of work isolated. The operation can be retried.
	ErrSerialization = Kind(ErrStorage, "concurrent update conflict")
	// ErrUpdateConflict indicates an update targeting an identifier that is
	// not stored.
	ErrUpdateConflict = Kind(ErrStorage, "update conflict")
)

// Error carries an exact user-facing message, a kind sentinel for errors.Is
// dispatch and, optionally, the lower-level cause for diagnostics.
type Error struct {
	kind  error
	msg   string
	cause error
}

func (e *Error) Error() string { return e.msg }

// Is reports whether the error belongs to the target kind or its family.
func (e *Error) Is(target error) bool { return errors.Is(e.kind, target) }

// Unwrap returns the lower-level cause, if any.
func (e *Error) Unwrap() error { return e.cause }

// Kind returns a sentinel error with the given message that also matches
// family in errors.Is comparisons.
func Kind(family error, msg string) error {
	return &Error{kind: family, msg: msg}
}

// New returns an error of the given kind carrying msg as its exact message.
func New(kind error, msg string) error {
	return &Error{kind: kind, msg: msg}
}

// Wrap returns an error of the given kind that preserves cause in its chain.
func Wrap(kind error, msg string, cause error) error {
	return &Error{kind: kind, msg: msg, cause: cause}
}

// Storage wraps a failure of the storage machinery preserving its cause.
func Storage(cause error) error {
	if errors.Is(cause, ErrStorage) {
		return cause
	}

	return &Error{kind: ErrStorage, msg: "storage failure: " + cause.Error(), cause: cause}
}

// Accounting returns the first accounting-family error in err's chain.
// It lets callers surface the business message even when a storage layer
// wrapped the rejection on its way up.
func Accounting(err error) error {
	for ; err != nil; err = errors.Unwrap(err) {
		if e, ok := err.(*Error); ok && errors.Is(e.kind, ErrAccounting) {
			return err
		}
	}

	return nil
}

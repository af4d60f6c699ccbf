// Package failure defines the error kinds reported by the mailing-sync stages.
//
// Every stage wraps its failures in an *Error so that callers can test the
// kind with errors.Is and still reach the driver/API error with errors.As.
package failure

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingConfiguration is returned when a required environment variable or file is absent.
	ErrMissingConfiguration = errors.New("missing configuration")
	// ErrConnection is returned when the database cannot be reached or rejects the login.
	ErrConnection = errors.New("database connection error")
	// ErrQueryExecution is returned when the database rejects or fails the query.
	ErrQueryExecution = errors.New("query execution error")
	// ErrAuthentication is returned when the spreadsheet credentials are invalid, expired or under-scoped.
	ErrAuthentication = errors.New("authentication error")
	// ErrNotFound is returned when the spreadsheet or worksheet does not exist.
	ErrNotFound = errors.New("not found")
	// ErrWrite is returned when the spreadsheet service rejects a write.
	ErrWrite = errors.New("write error")
)

// Error records the kind of failure, the operation that failed and the underlying cause.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v: %s", e.Kind, e.Op)
	}

	return fmt.Sprintf("%v: %s (%v)", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}

	return []error{e.Kind, e.Err}
}

// New returns an *Error of the given kind.
func New(kind error, op string, err error) *Error {
	return &Error{
		Kind: kind,
		Op:   op,
		Err:  err,
	}
}

// Errorf returns an *Error of the given kind with a formatted operation and no cause.
func Errorf(kind error, format string, args ...any) *Error {
	return &Error{
		Kind: kind,
		Op:   fmt.Sprintf(format, args...),
	}
}

// KindOf returns the sentinel kind of err, or nil if err was not produced by this package.
func KindOf(err error) error {
	for _, kind := range []error{
		ErrMissingConfiguration,
		ErrConnection,
		ErrQueryExecution,
		ErrAuthentication,
		ErrNotFound,
		ErrWrite,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}

	return nil
}

package core

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

var (
	// ErrInvalidArgument reports a malformed request detected before any SQL
	// is sent: bad insert rows, unsupported update operators, bad schema
	// descriptions.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidCondition reports a condition that cannot be compiled.
	ErrInvalidCondition = errors.New("invalid condition")
)

// ExecutionError wraps an error returned by the database for a statement.
type ExecutionError struct {
	SQL string
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execute %q: %v", e.SQL, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Number returns the MySQL server error number, or 0 when the underlying
// error did not come from the server.
func (e *ExecutionError) Number() uint16 {
	var me *mysql.MySQLError
	if errors.As(e.Err, &me) {
		return me.Number
	}
	return 0
}

// MiddlewareError is returned when an on-error stage fails while handling
// another error. Err is the stage's error, Cause the error it was handling.
type MiddlewareError struct {
	SQL   string
	Err   error
	Cause error
}

func (e *MiddlewareError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("middleware: %v (while handling: %v)", e.Err, e.Cause)
	}
	return fmt.Sprintf("middleware: %v", e.Err)
}

func (e *MiddlewareError) Unwrap() error { return e.Err }

package cotask

import (
	"errors"
	"fmt"
	"runtime/debug"
)

var (
	// ErrCancelled reports that a task was cancelled. Protected operations
	// ([Task.PYield], [Future.PAwait], [Queue.PPop], ...) return it; their
	// unprotected counterparts unwind the task with it instead.
	ErrCancelled = errors.New("cancelled")

	// ErrDead is returned by [Task.Cancel] when the task has already died.
	ErrDead = errors.New("dead")

	// ErrWaitTimeout is returned by [Future.Wait] when the blocking wait
	// expires before the future settles.
	ErrWaitTimeout = errors.New("wait timed out")

	// ErrStageTimeout is the failure of every item whose worker exceeded
	// the stage timeout. It is recorded in the stage's error report unless
	// the stage's Catch hook recovers or replaces it.
	ErrStageTimeout = errors.New("timeout")
)

// PanicError wraps a value recovered from a panicking task body together
// with the fiber stack trace captured at the point of the panic. It is what
// the task's [Future] fails with when the body panics.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v\n\n%s", e.Value, e.Stack)
}

func newPanicError(v any) *PanicError {
	return &PanicError{Value: v, Stack: debug.Stack()}
}

// taskUnwind carries an error up a fiber without pretending to be a crash.
// [Task.Throw] panics with one; the fiber boundary and [Task.PCall] unwrap
// it back into a plain error, with no stack trace attached.
type taskUnwind struct {
	err error
}

// recoveredError converts a recovered panic value into the error a task
// boundary reports: unwinds keep their error, everything else becomes a
// *PanicError.
func recoveredError(v any) error {
	if u, ok := v.(taskUnwind); ok {
		return u.err
	}
	return newPanicError(v)
}

package cotask

import (
	"errors"
	"slices"
)

// Cancel requests cooperative cancellation of t and of every live child,
// transitively.
//
// Cancelling sets the task's cancel flag and resumes it once, so the
// suspension point it is parked at observes the cancel: a [Task.PYield]
// there returns [ErrCancelled] and a [Task.Yield] unwinds the body. The
// task may intercept with [Task.UnsetCancelled] and keep running. A task
// that never ran is still started once; its first suspension point unwinds
// it immediately.
//
// Cancel returns [ErrDead] if t has already died, and an error if t is on
// the current resume stack — a task cannot cancel itself synchronously.
// Failures while cancelling children are aggregated into the returned
// error; a child that was already dead is not a failure.
func (t *Task) Cancel() error {
	return t.cancel(false)
}

// CancelOrphan is like [Task.Cancel] but leaves the children alone: they
// keep running, orphaned.
func (t *Task) CancelOrphan() error {
	return t.cancel(true)
}

func (t *Task) cancel(orphan bool) error {
	switch t.status {
	case Running, Normal:
		return errors.New("cotask: a task cannot cancel itself; call UnsetCancelled to intercept a pending cancel")
	case Dead:
		return ErrDead
	}

	t.cancelled = true
	t.Resume()

	if orphan {
		return nil
	}
	var errs []error
	for _, c := range slices.Clone(t.children) {
		if err := c.cancel(false); err != nil && err != ErrDead {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

package cotask

import "slices"

// Semaphore bounds asynchronous access to a resource with a counted number
// of permits. Acquiring with no permits available suspends the current task;
// waiters are served in FIFO order.
type Semaphore struct {
	count   int
	waiting []*Task
}

// NewSemaphore creates a [Semaphore] holding n permits.
func NewSemaphore(n int) *Semaphore {
	if n < 0 {
		panic("cotask: NewSemaphore called with a negative count")
	}
	return &Semaphore{count: n}
}

// PAcquire takes one permit, suspending t until one is available.
// Cancellation of t during the wait removes it from the waiter list and
// returns [ErrCancelled].
func (s *Semaphore) PAcquire(t *Task) error {
	if s.count > 0 {
		s.count--
		return nil
	}
	s.waiting = append(s.waiting, t)
	if _, err := t.PYield(); err != nil {
		if i := slices.Index(s.waiting, t); i != -1 {
			s.waiting = slices.Delete(s.waiting, i, i+1)
		}
		return err
	}
	return nil
}

// Acquire is the unprotected form of [Semaphore.PAcquire]: cancellation
// unwinds the task.
func (s *Semaphore) Acquire(t *Task) {
	if err := s.PAcquire(t); err != nil {
		t.Throw(err)
	}
}

// Release returns one permit. If a task is waiting, the permit is handed to
// the head waiter directly, preserving FIFO fairness; otherwise the count
// is incremented.
func (s *Semaphore) Release() {
	if len(s.waiting) != 0 {
		w := s.waiting[0]
		s.waiting = slices.Delete(s.waiting, 0, 1)
		w.Resume()
		return
	}
	s.count++
}

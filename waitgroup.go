package cotask

import "slices"

// A WaitGroup is a counter whose Await suspends the current task until the
// counter reaches zero. The pipe stage runner uses one to join its workers;
// it composes with [Queue] and [Semaphore] for the same kind of fan-out
// elsewhere.
type WaitGroup struct {
	n       int
	waiting []*Task
}

// Add adds delta, which may be negative, to the counter. When the counter
// reaches zero, every waiting task is resumed. Panics if the counter goes
// negative.
func (wg *WaitGroup) Add(delta int) {
	wg.n += delta
	if wg.n < 0 {
		panic("cotask: negative WaitGroup counter")
	}
	if wg.n == 0 && delta != 0 {
		waiting := wg.waiting
		wg.waiting = nil
		for _, w := range waiting {
			if w.Status() == Suspended {
				w.Resume()
			}
		}
	}
}

// Done decrements the counter by one.
func (wg *WaitGroup) Done() {
	wg.Add(-1)
}

// Await suspends t until the counter is zero. Cancellation of t during the
// wait removes it from the waiter list and unwinds the task.
func (wg *WaitGroup) Await(t *Task) {
	for wg.n != 0 {
		wg.waiting = append(wg.waiting, t)
		if _, err := t.PYield(); err != nil {
			if i := slices.Index(wg.waiting, t); i != -1 {
				wg.waiting = slices.Delete(wg.waiting, i, i+1)
			}
			t.Throw(err)
		}
	}
}

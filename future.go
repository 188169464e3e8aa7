package cotask

import "time"

// A Future is a one-shot result slot with an ordered waiter list.
//
// A future starts out pending and settles exactly once, either with values
// ([Future.Complete]) or with an error ([Future.Fail]). Settling invokes
// every registered waiter synchronously, in registration order. A waiter
// registered after the future has settled is invoked immediately.
//
// Every [Task] owns a future that settles when the task dies; standalone
// futures are created with [Runtime.NewFuture].
type Future struct {
	rt      *Runtime
	done    bool
	vals    Values
	err     error
	waiters []func(Values, error)
}

// NewFuture creates a pending [Future] bound to rt.
func (rt *Runtime) NewFuture() *Future {
	return &Future{rt: rt}
}

// Done reports whether f has settled.
func (f *Future) Done() bool {
	return f.done
}

// Result returns the settled values and error. Both are zero while f is
// still pending.
func (f *Future) Result() (Values, error) {
	return f.vals, f.err
}

// Complete settles f with vals and invokes the waiters in order.
// Panics if f has already settled.
func (f *Future) Complete(vals ...any) {
	f.settle(Values(vals), nil)
}

// Fail settles f with err and invokes the waiters in order.
// Panics if f has already settled or err is nil.
func (f *Future) Fail(err error) {
	if err == nil {
		panic("cotask: Fail called with a nil error")
	}
	f.settle(nil, err)
}

func (f *Future) settle(vals Values, err error) {
	if f.done {
		panic("cotask: future already completed")
	}
	f.done = true
	f.vals = vals
	f.err = err
	waiters := f.waiters
	f.waiters = nil
	for _, w := range waiters {
		w(vals, err)
	}
}

// Subscribe registers cb to be invoked with the result when f settles.
// If f has already settled, cb is invoked immediately.
func (f *Future) Subscribe(cb func(Values, error)) {
	if cb == nil {
		panic("cotask: Subscribe called with a nil callback")
	}
	if f.done {
		cb(f.vals, f.err)
		return
	}
	f.waiters = append(f.waiters, cb)
}

// PAwait suspends t until f settles and returns the result. If t is
// cancelled during the wait, PAwait returns [ErrCancelled] and the waiter it
// registered becomes a no-op, so a later settle cannot resume a task that
// has already moved on.
func (f *Future) PAwait(t *Task) (Values, error) {
	if f.done {
		return f.vals, f.err
	}
	live := true
	f.Subscribe(func(Values, error) {
		if !live {
			return
		}
		if t.Status() == Suspended {
			t.Resume()
		}
	})
	if _, err := t.PYield(); err != nil {
		live = false
		return nil, err
	}
	return f.vals, f.err
}

// Await suspends t until f settles and returns the values. A settle error,
// or cancellation of t during the wait, unwinds t.
func (f *Future) Await(t *Task) Values {
	vals, err := f.PAwait(t)
	if err != nil {
		t.Throw(err)
	}
	return vals
}

// Wait blocks until f settles, without suspending: it drives the host event
// loop from the calling context. It must be called outside any task; inside
// a task, use [Future.Await].
//
// A fast-event context is escaped through the host's schedule queue before
// the loop is driven, so Wait is legal to issue from any context. Wait
// returns the values on completion, the settle error on failure, and
// [ErrWaitTimeout] when timeout elapses first. A timeout or interval of
// zero selects the host defaults.
func (f *Future) Wait(timeout, interval time.Duration) (Values, error) {
	rt := f.rt
	if rt.running != nil {
		panic("cotask: Wait called inside a task; use Await")
	}
	host := rt.host
	if host.InFastEvent() {
		escaped := false
		host.Schedule(func() { escaped = true })
		if !host.BlockingWait(timeout, func() bool { return escaped }, interval) {
			return nil, ErrWaitTimeout
		}
	}
	if !host.BlockingWait(timeout, func() bool { return f.done }, interval) {
		return nil, ErrWaitTimeout
	}
	return f.vals, f.err
}

package cotask

import (
	"fmt"
	"slices"
	"time"
)

// A Func is the body of a [Task]. It receives the task itself and the values
// the task was first resumed with. The returned values complete the task's
// future; a returned error fails it.
type Func func(t *Task, args Values) (Values, error)

// A Task is a suspendable unit of work: a fiber-backed continuation, a
// result [Future], a cancel flag and a set of child tasks.
//
// The body runs on its own fiber. Control transfers between the fiber and
// its resumer are synchronous handoffs, so at most one task is ever running.
type Task struct {
	rt        *Runtime
	fn        Func
	fut       *Future
	status    Status
	cancelled bool
	sawCancel bool
	started   bool
	parent    *Task
	children  []*Task
	resumeCh  chan Values
	yieldCh   chan fiberMsg
}

// fiberMsg is what a fiber hands back to its resumer: either a yield with
// values, or the final result when the body has died.
type fiberMsg struct {
	vals Values
	err  error
	done bool
}

// Create makes a suspended [Task] that will run fn once resumed.
//
// If a task is currently running, the new task is registered as its child;
// cancelling the parent will then cancel the new task transitively.
func (rt *Runtime) Create(fn Func) *Task {
	if fn == nil {
		panic("cotask: Create called with a nil Func")
	}
	t := &Task{
		rt:       rt,
		fn:       fn,
		fut:      rt.NewFuture(),
		status:   Suspended,
		resumeCh: make(chan Values),
		yieldCh:  make(chan fiberMsg),
	}
	if parent := rt.running; parent != nil {
		t.parent = parent
		parent.children = append(parent.children, t)
	}
	return t
}

// Spawn creates a [Task] running fn and resumes it immediately with args.
// The task runs until its first suspension point (or to completion) before
// Spawn returns.
func (rt *Runtime) Spawn(fn Func, args ...any) *Task {
	t := rt.Create(fn)
	rt.resume(t, Values(args))
	return t
}

// Resume continues t, delivering args as the return value of the suspension
// point it is parked at (or as the body arguments if it has not started).
// It returns the values of the next yield, or nil once t has died.
// Panics unless t is suspended.
func (t *Task) Resume(args ...any) Values {
	return t.rt.resume(t, Values(args))
}

func (rt *Runtime) resume(t *Task, vals Values) Values {
	if t.status != Suspended {
		panic(fmt.Sprintf("cotask: tried to resume a task that is not suspended but %s", t.status))
	}

	prev := rt.running
	if prev != nil {
		prev.status = Normal
	}
	rt.running = t
	t.status = Running

	if !t.started {
		t.started = true
		go t.fiber(vals)
	} else {
		t.resumeCh <- vals
	}
	msg := <-t.yieldCh

	rt.running = prev
	if prev != nil {
		prev.status = Running
	}

	if !msg.done {
		t.status = Suspended
		return msg.vals
	}
	t.status = Dead
	t.unregister()
	if msg.err != nil {
		t.fut.settle(nil, msg.err)
	} else {
		t.fut.settle(msg.vals, nil)
	}
	return nil
}

// fiber is the goroutine backing a task. It runs the body once and reports
// the outcome, translating panics into errors at the boundary.
func (t *Task) fiber(vals Values) {
	msg := fiberMsg{done: true}
	defer func() {
		if v := recover(); v != nil {
			msg.vals, msg.err = nil, recoveredError(v)
		}
		t.yieldCh <- msg
	}()
	msg.vals, msg.err = t.fn(t, vals)
}

// unregister drops t from its parent's child list once t is dead, so dead
// tasks do not accumulate in live parents.
func (t *Task) unregister() {
	p := t.parent
	if p == nil {
		return
	}
	t.parent = nil
	if i := slices.Index(p.children, t); i != -1 {
		p.children = slices.Delete(p.children, i, i+1)
	}
}

// PYield suspends t with vals and returns whatever the next [Task.Resume]
// supplies. Cancellation is reported as a value: if t is cancelled while
// suspended (or was cancelled before PYield was reached), PYield returns
// [ErrCancelled] without suspending again.
//
// Yielding again after observing a cancellation, without first calling
// [Task.UnsetCancelled], is a programmer error and panics: it would silently
// swallow the pending cancel.
func (t *Task) PYield(vals ...any) (Values, error) {
	if t.rt.running != t {
		panic("cotask: yield called outside the running task")
	}
	if t.cancelled {
		if t.sawCancel {
			panic("cotask: yield inside a cancelled task; call UnsetCancelled to keep running")
		}
		t.sawCancel = true
		return nil, ErrCancelled
	}

	t.yieldCh <- fiberMsg{vals: Values(vals)}
	in := <-t.resumeCh

	if t.rt.running != t {
		panic("cotask: task was resumed from outside its runtime")
	}
	if t.cancelled {
		t.sawCancel = true
		return nil, ErrCancelled
	}
	return in, nil
}

// Yield is the unprotected form of [Task.PYield]: cancellation unwinds the
// task body instead of being reported as a value.
func (t *Task) Yield(vals ...any) Values {
	out, err := t.PYield(vals...)
	if err != nil {
		t.Throw(err)
	}
	return out
}

// Throw unwinds the task body with err. Unlike a plain panic it leaves no
// stack trace behind: the task's future fails with err itself. Deferred
// calls in the body still run.
func (t *Task) Throw(err error) {
	if err == nil {
		panic("cotask: Throw called with a nil error")
	}
	panic(taskUnwind{err})
}

// PCall runs f, which may suspend, and captures any unwind or panic as an
// error instead of letting it tear down the task. Yields inside f suspend
// the task as usual; PCall exists because a protected call must be able to
// straddle suspension points.
func (t *Task) PCall(f func() (Values, error)) (vals Values, err error) {
	defer func() {
		if v := recover(); v != nil {
			vals, err = nil, recoveredError(v)
		}
	}()
	return f()
}

// Status returns the current lifecycle state of t.
func (t *Task) Status() Status {
	return t.status
}

// IsDone reports whether t has died (body returned, errored or unwound).
func (t *Task) IsDone() bool {
	return t.status == Dead
}

// IsCancelled reports whether a cancel has been requested and not
// intercepted.
func (t *Task) IsCancelled() bool {
	return t.cancelled
}

// UnsetCancelled clears the cancel flag, letting the task keep running
// after it has observed a cancellation.
func (t *Task) UnsetCancelled() {
	t.cancelled = false
	t.sawCancel = false
}

// Future returns the task's result future.
func (t *Task) Future() *Future {
	return t.fut
}

// Subscribe registers cb on the task's future. Together with [Task.Done]
// this makes a Task an [Awaitable].
func (t *Task) Subscribe(cb func(Values, error)) {
	t.fut.Subscribe(cb)
}

// Done reports whether the task's future has settled.
func (t *Task) Done() bool {
	return t.fut.Done()
}

// PAwait suspends cur until t dies and returns t's result; see
// [Future.PAwait].
func (t *Task) PAwait(cur *Task) (Values, error) {
	return t.fut.PAwait(cur)
}

// Await suspends cur until t dies and returns t's values; see
// [Future.Await].
func (t *Task) Await(cur *Task) Values {
	return t.fut.Await(cur)
}

// Wait blocks until t dies, driving the host loop; see [Future.Wait].
func (t *Task) Wait(timeout, interval time.Duration) (Values, error) {
	return t.fut.Wait(timeout, interval)
}

package cotask

// Callback is the completion callback handed to a [CallbackFunc]. The
// arguments it is fired with become the return values of the adapted task
// function.
type Callback func(vals ...any)

// CallbackFunc is a host-style asynchronous function: it kicks off an
// operation and arranges for cb to be fired exactly once when the operation
// completes. The return value is the function's immediate result (an
// in-flight handle, typically), which is passed to the OnCancel hook.
type CallbackFunc func(cb Callback, args Values) Values

// AdaptOptions configures [Adapt].
type AdaptOptions struct {
	// OnCancel is invoked when the task is cancelled before the callback
	// fired, with the original arguments and the immediate return of the
	// callback function. Use it to abort an in-flight handle.
	OnCancel func(args, ret Values)

	// Cleanup is invoked if the callback eventually fires after the task
	// was already cancelled, with the callback's arguments. Use it to
	// release resources the callback hands back.
	Cleanup func(cbVals Values)

	// Schedule routes the callback through the host's schedule queue, so
	// the task resumes outside any fast-event context.
	Schedule bool
}

// Adapt converts a callback-taking host function into a task function whose
// return values are the arguments the callback fired with.
//
// The adapted function suspends at most once: if the callback fires
// synchronously during fcb, no suspension happens at all; otherwise the
// task yields once and the callback resumes it exactly once. On
// cancellation during the wait the OnCancel hook runs and [ErrCancelled] is
// returned; if the abandoned callback fires later it is a no-op apart from
// the Cleanup hook.
func Adapt(fcb CallbackFunc, opts AdaptOptions) Func {
	if fcb == nil {
		panic("cotask: Adapt called with a nil CallbackFunc")
	}
	return func(t *Task, args Values) (Values, error) {
		var (
			waiting = true
			fired   bool
			cbVals  Values
		)
		complete := func(vals Values) {
			if !waiting {
				if opts.Cleanup != nil {
					opts.Cleanup(vals)
				}
				return
			}
			fired = true
			cbVals = vals
			if t.Status() == Suspended {
				t.Resume()
			}
		}
		cb := Callback(func(vals ...any) {
			if opts.Schedule {
				t.rt.host.Schedule(func() { complete(Values(vals)) })
				return
			}
			complete(Values(vals))
		})

		ret := fcb(cb, args)

		if !fired {
			if _, err := t.PYield(); err != nil {
				waiting = false
				if opts.OnCancel != nil {
					opts.OnCancel(args, ret)
				}
				return nil, err
			}
		}
		return cbVals, nil
	}
}

// YieldFunc is the yield handed to a [CoFunc]: it suspends the surrounding
// task with the given values and returns the values the task is resumed
// with.
type YieldFunc func(vals ...any) Values

// CoFunc is a generator-shaped function: straight-line code that produces
// intermediate values through an explicit yield parameter.
type CoFunc func(t *Task, yield YieldFunc, args Values) (Values, error)

// CoToTask adapts a generator-shaped function into a task function. The
// yield handed to g suspends the running task; for a g that never yields,
// the adapted function is the identity on g's results.
func CoToTask(g CoFunc) Func {
	if g == nil {
		panic("cotask: CoToTask called with a nil CoFunc")
	}
	return func(t *Task, args Values) (Values, error) {
		yield := func(vals ...any) Values {
			return t.Yield(vals...)
		}
		return g(t, yield, args)
	}
}

package cotask

// Awaitable is anything with a one-shot result that waiters can subscribe
// to. [Future] and [Task] both implement it; a Task delegates to its
// future.
type Awaitable interface {
	Subscribe(cb func(Values, error))
	Done() bool
}

// Outcome is one awaitable's settled result.
type Outcome struct {
	Vals Values
	Err  error
}

// AwaitAll suspends t until every awaitable has settled and returns their
// outcomes in argument order. Cancellation of t during the wait unwinds it.
// Panics when called with no awaitables.
func AwaitAll(t *Task, ws ...Awaitable) []Outcome {
	if len(ws) == 0 {
		panic("cotask: AwaitAll requires at least one awaitable")
	}
	out := make([]Outcome, len(ws))
	pending := len(ws)
	live := true
	for i, w := range ws {
		w.Subscribe(func(vals Values, err error) {
			out[i] = Outcome{Vals: vals, Err: err}
			pending--
			if pending == 0 && live && t.Status() == Suspended {
				t.Resume()
			}
		})
	}
	for pending > 0 {
		if _, err := t.PYield(); err != nil {
			live = false
			t.Throw(err)
		}
	}
	return out
}

// AwaitAny suspends t until the first awaitable settles and returns its
// index and outcome. The others are left running. Cancellation of t during
// the wait unwinds it. Panics when called with no awaitables.
func AwaitAny(t *Task, ws ...Awaitable) (int, Values, error) {
	if len(ws) == 0 {
		panic("cotask: AwaitAny requires at least one awaitable")
	}
	idx := -1
	var (
		rvals Values
		rerr  error
	)
	live := true
	for i, w := range ws {
		w.Subscribe(func(vals Values, err error) {
			if !live || idx != -1 {
				return
			}
			idx, rvals, rerr = i, vals, err
			if t.Status() == Suspended {
				t.Resume()
			}
		})
		if idx != -1 {
			break
		}
	}
	for idx == -1 {
		if _, err := t.PYield(); err != nil {
			live = false
			t.Throw(err)
		}
	}
	return idx, rvals, rerr
}

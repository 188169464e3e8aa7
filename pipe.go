package cotask

import (
	"io"
	"iter"
	"time"
)

// A Pipe is a lazy, asynchronous, composable sequence: a source of value
// packs and a chain of [Pipe.Map] stages. Items are pulled with
// [Pipe.ANext] (inside a task) or [Pipe.Next] (blocking); [io.EOF] marks
// exhaustion.
type Pipe struct {
	rt    *Runtime
	anext func(t *Task) (Values, error)
	task  *Task
	errs  *[]error
}

// stageEnd is the end-of-stream sentinel a stage runner pushes onto its
// output queue after the last worker has finished. It is a distinguished
// value, never confusable with user data.
type stageEnd struct{}

// FromSlice builds a source [Pipe] over items, one value per item.
func FromSlice(rt *Runtime, items []any) *Pipe {
	i := 0
	return FromFunc(rt, func(*Task) (Values, error) {
		if i >= len(items) {
			return nil, io.EOF
		}
		v := items[i]
		i++
		return Vals(v), nil
	})
}

// FromFunc builds a source [Pipe] from an iterator function. The function
// may suspend the given task; it returns [io.EOF] when the source is
// exhausted.
func FromFunc(rt *Runtime, next func(t *Task) (Values, error)) *Pipe {
	if next == nil {
		panic("cotask: FromFunc called with a nil iterator")
	}
	return &Pipe{rt: rt, anext: next}
}

// FromSeq builds a source [Pipe] over seq.
//
// Caveat: pulling from an iter.Seq requires a goroutine; it is released
// when the sequence is drained, and leaks if the pipe is abandoned midway.
func FromSeq(rt *Runtime, seq iter.Seq[any]) *Pipe {
	next, stop := iter.Pull(seq)
	return FromFunc(rt, func(*Task) (Values, error) {
		v, ok := next()
		if !ok {
			stop()
			return nil, io.EOF
		}
		return Vals(v), nil
	})
}

// StageOptions configures one [Pipe.Map] stage.
type StageOptions struct {
	// Timeout bounds each item's worker. A worker exceeding it is
	// cancelled and the item fails with [ErrStageTimeout], which is
	// recorded unless Catch recovers or replaces it. Zero means no bound.
	Timeout time.Duration

	// Parallel caps the number of worker bodies running concurrently.
	// Zero means unbounded.
	Parallel int

	// Throttle is the minimum gap between worker starts. It bounds start
	// times, not completion times.
	Throttle time.Duration

	// Ordered forces the stage to emit in input order, regardless of
	// completion order. Throughput is then bounded by the slowest prefix.
	Ordered bool

	// Catch is invoked on a worker failure with the error and the item's
	// input values. Returning non-nil values emits them in place of the
	// failed result; returning an error records it in place of the
	// original; returning (nil, nil) suppresses the error and filters the
	// item.
	Catch func(err error, args Values) (Values, error)
}

// stage is the engine behind one Map: a runner task drains the upstream and
// fans out one worker task per item into the output queue.
type stage struct {
	rt       *Runtime
	upstream func(t *Task) (Values, error)
	fn       Func
	opts     StageOptions
	out      *Queue
	sem      *Semaphore
	wg       WaitGroup
	workers  []*Task
	errs     *[]error

	nextStart time.Time
}

// Map adds an asynchronous transformation stage and returns the downstream
// [Pipe]. The stage starts draining p immediately.
func (p *Pipe) Map(fn Func, opts StageOptions) *Pipe {
	if fn == nil {
		panic("cotask: Map called with a nil Func")
	}
	errs := p.errs
	if errs == nil {
		errs = new([]error)
	}
	st := &stage{
		rt:       p.rt,
		upstream: p.anext,
		fn:       fn,
		opts:     opts,
		out:      NewQueue(),
		errs:     errs,
	}
	if opts.Parallel > 0 {
		st.sem = NewSemaphore(opts.Parallel)
	}

	runner := p.rt.Spawn(st.run)

	return &Pipe{
		rt:   p.rt,
		task: runner,
		errs: errs,
		anext: func(t *Task) (Values, error) {
			if runner.IsCancelled() {
				return nil, ErrCancelled
			}
			item, err := st.out.PPop(t)
			if err != nil {
				return nil, err
			}
			if _, eos := item.First().(stageEnd); eos {
				st.out.Push(stageEnd{})
				return nil, io.EOF
			}
			return item, nil
		},
	}
}

// run is the stage runner: it pulls items upstream, forks one worker per
// item, joins the workers and finally pushes the end-of-stream sentinel.
func (st *stage) run(t *Task, _ Values) (Values, error) {
	index := 0
	for {
		vals, err := st.upstream(t)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		index++
		i := index
		st.wg.Add(1)
		w := st.rt.Spawn(func(wt *Task, _ Values) (Values, error) {
			return nil, st.handle(wt, i, vals)
		})
		w.Subscribe(func(Values, error) { st.wg.Done() })
		st.workers = append(st.workers, w)
	}

	st.wg.Await(t)
	st.out.Push(stageEnd{})
	return nil, nil
}

// handle processes one item: bound by the semaphore and the throttle, run
// the user function in a sub-task under a timeout watchdog, apply the catch
// hook, then resolve the outcome into the output queue or the error report.
func (st *stage) handle(t *Task, index int, args Values) error {
	released := true
	if st.sem != nil {
		st.sem.Acquire(t)
		released = false
	}
	release := func() {
		if !released {
			released = true
			st.sem.Release()
		}
	}
	defer release()

	if st.opts.Throttle > 0 {
		now := time.Now()
		if st.nextStart.Before(now) {
			st.nextStart = now
		}
		delay := st.nextStart.Sub(now)
		st.nextStart = st.nextStart.Add(st.opts.Throttle)
		if delay > 0 {
			t.Sleep(delay)
		}
	}

	sub := st.rt.Spawn(st.fn, args...)

	timedOut := false
	var dog *Task
	if st.opts.Timeout > 0 && !sub.IsDone() {
		timeout := st.opts.Timeout
		dog = st.rt.Spawn(func(dt *Task, _ Values) (Values, error) {
			dt.Sleep(timeout)
			if !sub.IsDone() {
				timedOut = true
				sub.Cancel()
			}
			return nil, nil
		})
	}

	vals, err := sub.PAwait(t)
	if dog != nil && !dog.IsDone() {
		dog.Cancel()
	}
	if err != nil && t.IsCancelled() {
		// The stage itself is being torn down; this is not an item failure.
		t.Throw(err)
	}
	if timedOut {
		vals, err = nil, ErrStageTimeout
	}

	if err != nil && st.opts.Catch != nil {
		cvals, cerr := t.PCall(func() (Values, error) {
			return st.opts.Catch(err, args)
		})
		switch {
		case cerr != nil:
			err = cerr
		case cvals != nil:
			vals, err = cvals, nil
		default:
			vals, err = nil, nil
		}
	}

	release()

	// In ordered mode every handler, even one that emits nothing, completes
	// strictly after its predecessor; emission order then matches input
	// order by induction.
	if st.opts.Ordered && index > 1 {
		if _, werr := st.workers[index-2].PAwait(t); werr != nil {
			return werr
		}
	}

	switch {
	case err != nil:
		*st.errs = append(*st.errs, err)
	case len(vals) == 0 || vals[0] == nil:
		// Filtered out.
	default:
		st.out.Push(vals...)
	}
	return nil
}

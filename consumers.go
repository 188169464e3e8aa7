package cotask

import (
	"io"
	"slices"
	"time"
)

// ANext pulls the next item, suspending t until one is available. It
// returns [io.EOF] once the pipe is exhausted and [ErrCancelled] if the
// stage runner was cancelled.
func (p *Pipe) ANext(t *Task) (Values, error) {
	return p.anext(t)
}

// Next pulls the next item without suspending: it spawns a one-shot drain
// task and blocks on it, driving the host loop. Zero timeout or interval
// selects the host defaults.
func (p *Pipe) Next(timeout, interval time.Duration) (Values, error) {
	t := p.rt.Spawn(func(t *Task, _ Values) (Values, error) {
		return p.anext(t)
	})
	return t.Wait(timeout, interval)
}

// Collect pulls up to n items with successive [Pipe.Next] calls. It stops
// early at end of stream and does not close the pipe. Panics if n < 1.
func (p *Pipe) Collect(n int, timeout, interval time.Duration) ([]Values, error) {
	if n < 1 {
		panic("cotask: Collect requires n >= 1")
	}
	out := make([]Values, 0, n)
	for range n {
		vals, err := p.Next(timeout, interval)
		if err == io.EOF {
			break
		}
		if err != nil {
			return out, err
		}
		out = append(out, vals)
	}
	return out, nil
}

// Race pulls the first n items and then cancels the pipe, discarding
// whatever is still in flight. Panics if n < 1.
func (p *Pipe) Race(n int, timeout, interval time.Duration) ([]Values, error) {
	if n < 1 {
		panic("cotask: Race requires n >= 1")
	}
	out, err := p.Collect(n, timeout, interval)
	p.Cancel()
	return out, err
}

// Each runs fn over every item via [Pipe.Map] and drains the result to end
// of stream, blocking until done.
func (p *Pipe) Each(fn Func, opts StageOptions) error {
	return p.Map(fn, opts).Drain()
}

// Drain pulls items until end of stream, discarding them.
func (p *Pipe) Drain() error {
	for {
		_, err := p.Next(0, 0)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Fold drains the pipe, left-folding every item into acc with fn, and
// returns the final accumulator.
func (p *Pipe) Fold(acc any, fn func(acc any, vals Values) any) (any, error) {
	for {
		vals, err := p.Next(0, 0)
		if err == io.EOF {
			return acc, nil
		}
		if err != nil {
			return acc, err
		}
		acc = fn(acc, vals)
	}
}

// All reports whether pred holds for every item. The pipe is drained fully
// even after the first false, so upstream work is never abandoned midway.
func (p *Pipe) All(pred func(vals Values) bool) (bool, error) {
	ok := true
	for {
		vals, err := p.Next(0, 0)
		if err == io.EOF {
			return ok, nil
		}
		if err != nil {
			return false, err
		}
		if !pred(vals) {
			ok = false
		}
	}
}

// Any reports whether pred holds for some item. It stops pulling at the
// first match and calls [Pipe.Cancel]; if the stage runner has already
// finished, that cancel has no effect and items still buffered remain
// available to [Pipe.Next].
func (p *Pipe) Any(pred func(vals Values) bool) (bool, error) {
	for {
		vals, err := p.Next(0, 0)
		if err == io.EOF {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if pred(vals) {
			p.Cancel()
			return true, nil
		}
	}
}

// ToSlice drains the pipe into an ordered slice of item value packs.
func (p *Pipe) ToSlice() ([]Values, error) {
	var out []Values
	for {
		vals, err := p.Next(0, 0)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, vals)
	}
}

// Report returns the errors recorded by this pipe's stages, in the order
// they occurred, or nil if there were none. The report aggregates across
// chained stages: a terminal pipe sees upstream failures too.
func (p *Pipe) Report() []error {
	if p.errs == nil || len(*p.errs) == 0 {
		return nil
	}
	return slices.Clone(*p.errs)
}

// Wait blocks until the newest stage's runner dies; see [Future.Wait]. It
// does not close the pipe. On a source pipe it returns immediately.
func (p *Pipe) Wait(timeout, interval time.Duration) (Values, error) {
	if p.task == nil {
		return nil, nil
	}
	return p.task.Wait(timeout, interval)
}

// Await suspends t until the newest stage's runner dies. It does not close
// the pipe. On a source pipe it returns immediately.
func (p *Pipe) Await(t *Task) Values {
	if p.task == nil {
		return nil
	}
	return p.task.Await(t)
}

// PAwait is the protected form of [Pipe.Await].
func (p *Pipe) PAwait(t *Task) (Values, error) {
	if p.task == nil {
		return nil, nil
	}
	return p.task.PAwait(t)
}

// Cancel cancels the newest stage's runner; structured cancellation takes
// the stage's workers down with it. On a source pipe it is a no-op.
func (p *Pipe) Cancel() error {
	if p.task == nil {
		return nil
	}
	return p.task.Cancel()
}

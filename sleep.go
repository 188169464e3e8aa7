package cotask

import "time"

// Sleep suspends t for at least d, using a host timer. Cancellation during
// the sleep stops the timer and unwinds the task.
func (t *Task) Sleep(d time.Duration) {
	host := t.rt.host
	var tm Timer
	fn := Adapt(func(done Callback, _ Values) Values {
		tm = host.NewTimer()
		tm.Start(d, func() { done() })
		return nil
	}, AdaptOptions{
		OnCancel: func(_, _ Values) {
			tm.Stop()
			tm.Close()
		},
		Cleanup: func(Values) {
			tm.Close()
		},
	})
	if _, err := fn(t, nil); err != nil {
		t.Throw(err)
	}
	tm.Close()
}

// SleepUntilNonFast returns once the host has switched out of fast-event
// mode. In a normal context it is a no-op; in a fast event it schedules a
// resume at the next safe point and suspends until then.
func (t *Task) SleepUntilNonFast() {
	host := t.rt.host
	if !host.InFastEvent() {
		return
	}
	host.Schedule(func() {
		if t.Status() == Suspended {
			t.Resume()
		}
	})
	t.Yield()
}

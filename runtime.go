package cotask

// A Runtime is the scheduler surface for one host loop: it owns the single
// running-task slot and hands out tasks, futures and pipes bound to the
// host.
//
// One Runtime per host loop. A Runtime must not be shared across host
// loops.
type Runtime struct {
	host    Host
	running *Task
}

// New creates a [Runtime] on top of h.
func New(h Host) *Runtime {
	if h == nil {
		panic("cotask: New called with a nil Host")
	}
	return &Runtime{host: h}
}

// Host returns the host the runtime was created with.
func (rt *Runtime) Host() Host {
	return rt.host
}

// Running returns the task currently executing, or nil outside any task.
//
// The slot is maintained across nested resumes: while a task resumes
// another, Running reports the innermost one.
func (rt *Runtime) Running() *Task {
	return rt.running
}

// InMain reports whether the caller is on the main loop proper: outside any
// task and not inside a fast event.
func (rt *Runtime) InMain() bool {
	return rt.running == nil && !rt.host.InFastEvent()
}

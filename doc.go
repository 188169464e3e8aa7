// Package cotask is a cooperative task runtime and asynchronous pipeline
// library for single-threaded host processes that own an event loop.
//
// It lets long-running, I/O-bound work be written as ordinary straight-line
// functions that suspend at well-defined points while the host loop services
// other events.
//
// # Tasks and Futures
//
// A [Task] is a suspendable unit of work. Its body is a [Func] that runs on
// its own fiber; calling [Task.Yield] or [Task.PYield] hands control back to
// whoever resumed the task, and a later [Task.Resume] continues the body
// where it left off. At most one task is running at any instant; every other
// live task is suspended or waiting on a task it resumed. There is no
// preemption.
//
// Every task owns a [Future], a write-once result slot with an ordered
// waiter list. When the body returns, the future completes with the returned
// values; when the body returns an error or panics, the future fails.
// Futures can also be created standalone with [Runtime.NewFuture] and
// completed by hand, which is how callback-based host primitives are bridged
// into the task world (see [Adapt]).
//
// # Cancellation
//
// Cancellation is cooperative and structured. [Task.Cancel] sets a flag and
// resumes the task; the next suspension point inside it observes the flag
// and either reports [ErrCancelled] ([Task.PYield]) or unwinds the body
// ([Task.Yield]). A task may intercept by calling [Task.UnsetCancelled] and
// keep running. Tasks created while another task was running are its
// children; cancelling the parent cancels them transitively unless
// [Task.CancelOrphan] is used.
//
// # Pipelines
//
// A [Pipe] is a lazy asynchronous sequence built from a source and a chain
// of [Pipe.Map] stages. Each stage forks a runner task that drains its
// upstream and fans out one worker task per item, subject to the stage's
// parallelism, throttle and timeout policy. Results flow downstream through
// a task-suspending [Queue]; per-item failures are recorded in an error
// report rather than tearing the pipeline down, and a catch hook can recover
// or replace them.
//
// # The host
//
// The runtime does not own an event loop. It consumes a small [Host]
// capability surface: schedule a function at a safe point, report whether
// the current context is a restricted "fast event", run the loop until a
// predicate holds, and create one-shot timers. Package
// [github.com/krellyn/cotask/hostloop] provides a concrete host suitable
// for production embedding and for tests.
//
// # Thread confinement
//
// Everything in this package is confined to the host loop and the fibers it
// runs. A [Runtime] and every object created from it must not be shared
// across host loops, and none of the methods are safe for concurrent use
// from unrelated goroutines. The one deliberate exception is [Host.Schedule]
// implementations, which hosts are expected to make safe to call from
// anywhere.
package cotask

package cotask

import "time"

// Host is the capability surface the runtime consumes from the event loop
// that embeds it. The runtime never spins a loop of its own; timers,
// deferred execution and blocking waits all go through the Host.
//
// Package hostloop provides a ready-made implementation.
type Host interface {
	// Schedule enqueues fn to run at the next safe (non-fast) point.
	// Implementations must make Schedule safe to call from any context.
	Schedule(fn func())

	// InFastEvent reports whether the current context is a restricted
	// "fast event" in which many host APIs are illegal.
	InFastEvent() bool

	// BlockingWait runs the event loop until pred returns true or timeout
	// elapses, polling roughly every interval. It reports whether pred
	// became true.
	BlockingWait(timeout time.Duration, pred func() bool, interval time.Duration) bool

	// NewTimer creates an unarmed one-shot timer.
	NewTimer() Timer
}

// Timer is a one-shot host timer.
type Timer interface {
	// Start arms the timer to call fn once after d. Restarting an armed
	// timer re-arms it.
	Start(d time.Duration, fn func())

	// Stop disarms the timer if it is armed.
	Stop()

	// Close disarms and releases the timer. Close is idempotent.
	Close()
}

// Package hostloop provides a concrete single-threaded event loop
// implementing the cotask host capabilities: deferred execution, one-shot
// timers, fast-event contexts and a step-driven blocking wait.
//
// The loop does not own a goroutine. It advances only when the embedding
// code pumps it, either explicitly with [Loop.Pump] or implicitly through
// [Loop.BlockingWait]. Timer callbacks run in fast-event context (unless
// configured otherwise); scheduled functions always run in normal context.
//
// [Loop.Schedule] and timer arming are safe to call from any goroutine;
// everything else is confined to the pumping goroutine.
package hostloop

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/emirpasic/gods/queues/linkedlistqueue"
	"github.com/emirpasic/gods/trees/redblacktree"

	"github.com/krellyn/cotask"
)

// Loop is a single-threaded event loop implementing [cotask.Host].
type Loop struct {
	cfg Config

	mu       sync.Mutex
	deferred *linkedlistqueue.Queue
	timers   *redblacktree.Tree
	seq      uint64

	fast atomic.Bool
}

// timerKey orders armed timers by deadline, with an arm sequence number
// breaking ties so that timers due at the same instant fire in arm order.
type timerKey struct {
	when time.Time
	seq  uint64
}

func compareTimerKeys(a, b any) int {
	ka, kb := a.(timerKey), b.(timerKey)
	switch {
	case ka.when.Before(kb.when):
		return -1
	case ka.when.After(kb.when):
		return 1
	case ka.seq < kb.seq:
		return -1
	case ka.seq > kb.seq:
		return 1
	default:
		return 0
	}
}

// New creates a [Loop] with the given configuration.
func New(cfg Config) *Loop {
	cfg = cfg.withDefaults()
	return &Loop{
		cfg:      cfg,
		deferred: linkedlistqueue.New(),
		timers:   redblacktree.NewWith(compareTimerKeys),
	}
}

// Schedule enqueues fn to run at the next safe point, in normal context.
// Safe to call from any goroutine.
func (l *Loop) Schedule(fn func()) {
	l.mu.Lock()
	l.deferred.Enqueue(fn)
	l.mu.Unlock()
}

// InFastEvent reports whether the loop is currently dispatching a
// fast-event callback.
func (l *Loop) InFastEvent() bool {
	return l.fast.Load()
}

// NewTimer creates an unarmed one-shot timer on the loop.
func (l *Loop) NewTimer() cotask.Timer {
	return &loopTimer{l: l}
}

// Pump dispatches every due timer and every scheduled function, and reports
// whether anything ran.
func (l *Loop) Pump() bool {
	ran := false
	for l.fireDueTimer() {
		ran = true
	}
	for {
		l.mu.Lock()
		v, ok := l.deferred.Dequeue()
		l.mu.Unlock()
		if !ok {
			break
		}
		v.(func())()
		ran = true
	}
	return ran
}

func (l *Loop) fireDueTimer() bool {
	l.mu.Lock()
	node := l.timers.Left()
	if node == nil {
		l.mu.Unlock()
		return false
	}
	key := node.Key.(timerKey)
	if key.when.After(time.Now()) {
		l.mu.Unlock()
		return false
	}
	tm := node.Value.(*loopTimer)
	l.timers.Remove(key)
	tm.armed = false
	fn := tm.fn
	l.mu.Unlock()

	if fn != nil {
		if l.cfg.FastTimers {
			l.fast.Store(true)
			defer l.fast.Store(false)
		}
		fn()
	}
	return true
}

// BlockingWait pumps the loop until pred returns true or timeout elapses,
// sleeping interval between pumps. Zero timeout or interval selects the
// configured defaults. It reports whether pred became true.
func (l *Loop) BlockingWait(timeout time.Duration, pred func() bool, interval time.Duration) bool {
	if timeout <= 0 {
		timeout = l.cfg.waitTimeout()
	}
	if interval <= 0 {
		interval = l.cfg.pollInterval()
	}
	deadline := time.Now().Add(timeout)
	for {
		l.Pump()
		if pred() {
			return true
		}
		if !time.Now().Before(deadline) {
			return false
		}
		time.Sleep(interval)
	}
}

// RunFast invokes fn in fast-event context. It exists so hosts embedding
// the loop can dispatch their own restricted callbacks with the same
// semantics as timer callbacks.
func (l *Loop) RunFast(fn func()) {
	l.fast.Store(true)
	defer l.fast.Store(false)
	fn()
}

// loopTimer is a one-shot timer backed by the loop's timer tree.
type loopTimer struct {
	l      *Loop
	key    timerKey
	fn     func()
	armed  bool
	closed bool
}

func (t *loopTimer) Start(d time.Duration, fn func()) {
	l := t.l
	l.mu.Lock()
	defer l.mu.Unlock()
	if t.closed {
		panic("hostloop: Start on a closed timer")
	}
	if t.armed {
		l.timers.Remove(t.key)
	}
	l.seq++
	t.key = timerKey{when: time.Now().Add(d), seq: l.seq}
	t.fn = fn
	t.armed = true
	l.timers.Put(t.key, t)
}

func (t *loopTimer) Stop() {
	l := t.l
	l.mu.Lock()
	defer l.mu.Unlock()
	if t.armed {
		l.timers.Remove(t.key)
		t.armed = false
	}
}

func (t *loopTimer) Close() {
	t.Stop()
	l := t.l
	l.mu.Lock()
	t.closed = true
	t.fn = nil
	l.mu.Unlock()
}

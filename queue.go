package cotask

import (
	"slices"

	llq "github.com/emirpasic/gods/queues/linkedlistqueue"
)

// A Queue is an unbounded FIFO of value packs whose blocking pop suspends
// the current task.
//
// Either values are buffered or tasks are waiting, never both: a push with
// waiters present hands the values straight to the head waiter.
type Queue struct {
	values  *llq.Queue
	waiting []*Task
}

// NewQueue creates an empty [Queue].
func NewQueue() *Queue {
	return &Queue{values: llq.New()}
}

// Len returns the number of buffered value packs.
func (q *Queue) Len() int {
	return q.values.Size()
}

// Push enqueues vals. If a task is waiting, it is resumed with vals
// directly instead.
func (q *Queue) Push(vals ...any) {
	if len(q.waiting) != 0 {
		w := q.waiting[0]
		q.waiting = slices.Delete(q.waiting, 0, 1)
		w.Resume(vals...)
		return
	}
	q.values.Enqueue(Values(vals))
}

// PPop dequeues the oldest value pack, suspending t until one is pushed.
// Cancellation of t during the wait removes it from the waiter list and
// returns [ErrCancelled].
func (q *Queue) PPop(t *Task) (Values, error) {
	if v, ok := q.values.Dequeue(); ok {
		return v.(Values), nil
	}
	q.waiting = append(q.waiting, t)
	vals, err := t.PYield()
	if err != nil {
		if i := slices.Index(q.waiting, t); i != -1 {
			q.waiting = slices.Delete(q.waiting, i, i+1)
		}
		return nil, err
	}
	return vals, nil
}

// Pop is the unprotected form of [Queue.PPop]: cancellation unwinds the
// task.
func (q *Queue) Pop(t *Task) Values {
	vals, err := q.PPop(t)
	if err != nil {
		t.Throw(err)
	}
	return vals
}

// Package frames schedules work the way a display-synced host does: frame
// callbacks run once per refresh, one-shot timers run when their deadline
// passes, and posted functions carry work from other goroutines onto the
// host thread. Everything except Post must be called from the host thread.
package frames

import (
	"sort"
	"sync"
	"time"
)

// ID identifies one outstanding frame request. Zero is never issued.
type ID uint64

// Func is a frame callback. now is the host's monotonic time.
type Func func(now time.Duration)

type timer struct {
	at      time.Duration
	seq     uint64
	fn      func()
	stopped bool
}

// Queue holds pending frame requests and timers for a single host thread.
type Queue struct {
	now func() time.Duration

	nextID ID
	order  []ID
	frames map[ID]Func

	timerSeq uint64
	timers   []*timer

	mu     sync.Mutex
	posted []func()

	// Wake, when set, is called after Post so a host blocked waiting for
	// input events can return and drain the mailbox.
	Wake func()
}

// NewQueue returns a queue reading time from now.
func NewQueue(now func() time.Duration) *Queue {
	return &Queue{
		now:    now,
		frames: make(map[ID]Func),
	}
}

// Now returns the current host time.
func (q *Queue) Now() time.Duration { return q.now() }

// RequestFrame schedules fn for the next display refresh.
func (q *Queue) RequestFrame(fn Func) ID {
	q.nextID++
	id := q.nextID
	q.frames[id] = fn
	q.order = append(q.order, id)
	return id
}

// CancelFrame drops a pending request. Unknown or already-run ids are ignored.
func (q *Queue) CancelFrame(id ID) {
	if _, ok := q.frames[id]; !ok {
		return
	}
	delete(q.frames, id)
	for i, o := range q.order {
		if o == id {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
}

// Pending reports how many frame requests are waiting for a refresh.
func (q *Queue) Pending() int { return len(q.frames) }

// RunFrames fires every request that was pending when it was called.
// Requests made by the callbacks wait for the next refresh.
func (q *Queue) RunFrames() int {
	if len(q.order) == 0 {
		return 0
	}
	batch := q.order
	q.order = nil
	now := q.now()
	n := 0
	for _, id := range batch {
		fn, ok := q.frames[id]
		if !ok {
			continue
		}
		delete(q.frames, id)
		fn(now)
		n++
	}
	return n
}

// AfterFunc runs fn from RunTimers once d has elapsed. The returned cancel
// is safe to call more than once and after the timer fired.
func (q *Queue) AfterFunc(d time.Duration, fn func()) (cancel func()) {
	if d < 0 {
		d = 0
	}
	q.timerSeq++
	t := &timer{at: q.now() + d, seq: q.timerSeq, fn: fn}
	q.timers = append(q.timers, t)
	return func() { t.stopped = true }
}

// Timers reports the number of timers that have neither fired nor been cancelled.
func (q *Queue) Timers() int {
	n := 0
	for _, t := range q.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

// NextDeadline returns the earliest active timer deadline.
func (q *Queue) NextDeadline() (time.Duration, bool) {
	var (
		best  time.Duration
		found bool
	)
	for _, t := range q.timers {
		if t.stopped {
			continue
		}
		if !found || t.at < best {
			best = t.at
			found = true
		}
	}
	return best, found
}

// RunTimers fires due timers in deadline order and returns how many ran.
func (q *Queue) RunTimers() int {
	now := q.now()
	var due []*timer
	live := q.timers[:0]
	for _, t := range q.timers {
		switch {
		case t.stopped:
		case t.at <= now:
			due = append(due, t)
		default:
			live = append(live, t)
		}
	}
	q.timers = live
	sort.Slice(due, func(i, j int) bool {
		if due[i].at != due[j].at {
			return due[i].at < due[j].at
		}
		return due[i].seq < due[j].seq
	})
	n := 0
	for _, t := range due {
		// An earlier callback in this batch may have cancelled it.
		if t.stopped {
			continue
		}
		t.stopped = true
		t.fn()
		n++
	}
	return n
}

// Post queues fn to run on the host thread. Safe for concurrent use.
func (q *Queue) Post(fn func()) {
	q.mu.Lock()
	q.posted = append(q.posted, fn)
	q.mu.Unlock()
	if q.Wake != nil {
		q.Wake()
	}
}

// RunPosted runs everything posted so far, in order.
func (q *Queue) RunPosted() int {
	q.mu.Lock()
	batch := q.posted
	q.posted = nil
	q.mu.Unlock()
	for _, fn := range batch {
		fn()
	}
	return len(batch)
}

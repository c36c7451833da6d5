package synth

import "sync/atomic"

// EventKind identifies what an Event asks the audio thread to do.
type EventKind uint8

const (
	EventNoteOn EventKind = iota + 1
	EventNoteOff
	EventGainRamp
	EventAllNotesOff
)

// Event is a control-thread request applied by the audio thread at the next
// buffer boundary.
type Event struct {
	Kind     EventKind
	Note     uint8
	Velocity uint8
	Delta    float64 // gain ramp delta
	PeriodMs float64 // gain ramp duration
}

// EventQueue is a bounded lock-free single-producer/single-consumer ring.
// Push must only be called from one goroutine at a time and Pop from one
// (other) goroutine at a time. Neither side ever waits for the other.
type EventQueue struct {
	buf  []Event
	mask uint64

	head atomic.Uint64 // next slot to read, written by the consumer
	tail atomic.Uint64 // next slot to write, written by the producer

	dropped atomic.Uint64
}

// NewEventQueue creates a queue holding at least capacity events. The
// capacity is rounded up to a power of two.
func NewEventQueue(capacity int) *EventQueue {
	n := 1
	for n < capacity {
		n <<= 1
	}
	return &EventQueue{
		buf:  make([]Event, n),
		mask: uint64(n - 1),
	}
}

// Cap returns the number of events the queue can hold.
func (q *EventQueue) Cap() int {
	return len(q.buf)
}

// Len returns the number of queued events. It is only a hint when called
// concurrently with Push or Pop.
func (q *EventQueue) Len() int {
	return int(q.tail.Load() - q.head.Load())
}

// Push appends e. When the queue is full the event is dropped, counted,
// and false is returned.
func (q *EventQueue) Push(e Event) bool {
	t := q.tail.Load()
	if t-q.head.Load() == uint64(len(q.buf)) {
		q.dropped.Add(1)
		return false
	}
	q.buf[t&q.mask] = e
	q.tail.Store(t + 1)
	return true
}

// Pop removes the oldest event.
func (q *EventQueue) Pop() (Event, bool) {
	h := q.head.Load()
	if h == q.tail.Load() {
		return Event{}, false
	}
	e := q.buf[h&q.mask]
	q.head.Store(h + 1)
	return e, true
}

// Drain pops every event queued at the time of the call, in FIFO order,
// and returns how many were handled. Events pushed while draining are left
// for the next call, which bounds the work done per buffer.
func (q *EventQueue) Drain(fn func(Event)) int {
	h := q.head.Load()
	t := q.tail.Load()
	for i := h; i != t; i++ {
		fn(q.buf[i&q.mask])
		q.head.Store(i + 1)
	}
	return int(t - h)
}

// Dropped returns the number of events rejected because the queue was full.
func (q *EventQueue) Dropped() uint64 {
	return q.dropped.Load()
}

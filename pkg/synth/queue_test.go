package synth

import (
	"runtime"
	"testing"
)

func TestEventQueueFIFO(t *testing.T) {
	q := NewEventQueue(4)
	for i := 0; i < 3; i++ {
		if !q.Push(Event{Kind: EventNoteOn, Note: uint8(i)}) {
			t.Fatalf("push %d failed", i)
		}
	}
	for i := 0; i < 3; i++ {
		e, ok := q.Pop()
		if !ok || e.Note != uint8(i) {
			t.Fatalf("pop %d = %+v, %v", i, e, ok)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Fatal("pop from empty queue succeeded")
	}
}

func TestEventQueueCapacityRoundsUp(t *testing.T) {
	tests := []struct{ in, want int }{
		{1, 1}, {3, 4}, {4, 4}, {1000, 1024},
	}
	for _, tt := range tests {
		if got := NewEventQueue(tt.in).Cap(); got != tt.want {
			t.Errorf("NewEventQueue(%d).Cap() = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestEventQueueDropsWhenFull(t *testing.T) {
	q := NewEventQueue(2)
	q.Push(Event{Note: 1})
	q.Push(Event{Note: 2})
	if q.Push(Event{Note: 3}) {
		t.Fatal("push into full queue succeeded")
	}
	if q.Dropped() != 1 {
		t.Fatalf("dropped = %d, want 1", q.Dropped())
	}
	var got []uint8
	q.Drain(func(e Event) { got = append(got, e.Note) })
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("drained %v, want [1 2]", got)
	}
}

func TestEventQueueWrapsAround(t *testing.T) {
	q := NewEventQueue(4)
	next := 0
	for round := 0; round < 10; round++ {
		for i := 0; i < 3; i++ {
			q.Push(Event{Delta: float64(round*3 + i)})
		}
		n := q.Drain(func(e Event) {
			if int(e.Delta) != next {
				t.Fatalf("got %v, want %d", e.Delta, next)
			}
			next++
		})
		if n != 3 {
			t.Fatalf("drained %d, want 3", n)
		}
	}
}

func TestEventQueueConcurrent(t *testing.T) {
	const total = 100000
	q := NewEventQueue(64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < total; {
			if q.Push(Event{Delta: float64(i)}) {
				i++
			} else {
				runtime.Gosched()
			}
		}
	}()
	for want := 0; want < total; {
		e, ok := q.Pop()
		if !ok {
			runtime.Gosched()
			continue
		}
		if int(e.Delta) != want {
			t.Fatalf("got %v, want %d", e.Delta, want)
		}
		want++
	}
	<-done
}

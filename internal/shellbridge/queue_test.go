package shellbridge

import (
	"testing"
	"time"
)

func TestOutputQueueFIFO(t *testing.T) {
	q := newOutputQueue()
	q.push(&ServerFrame{Type: frameOutput, Data: []byte("a")})
	q.push(&ServerFrame{Type: frameOutput, Data: []byte("b")})

	first, ok := q.pop()
	if !ok || string(first.Data) != "a" {
		t.Fatalf("first = %+v", first)
	}
	second, ok := q.pop()
	if !ok || string(second.Data) != "b" {
		t.Fatalf("second = %+v", second)
	}
}

func TestOutputQueueEvictsOldestNonOutputWhenFull(t *testing.T) {
	q := newOutputQueue()
	q.push(&ServerFrame{Type: frameError, Message: "stale warning"})
	for i := 0; i < outputQueueCapacity-1; i++ {
		q.push(&ServerFrame{Type: frameOutput, Data: []byte("x")})
	}
	if len(q.items) != outputQueueCapacity {
		t.Fatalf("queue len = %d, want %d", len(q.items), outputQueueCapacity)
	}

	// One more push should evict the stale error frame, not an output frame.
	q.push(&ServerFrame{Type: frameOutput, Data: []byte("y")})
	if len(q.items) != outputQueueCapacity {
		t.Fatalf("queue len after overflow push = %d, want %d", len(q.items), outputQueueCapacity)
	}
	for _, item := range q.items {
		if item.Type == frameError {
			t.Fatal("stale error frame should have been evicted")
		}
	}
}

func TestOutputQueuePushBlocksWhenFullOfOutputOnly(t *testing.T) {
	q := newOutputQueue()
	for i := 0; i < outputQueueCapacity; i++ {
		q.push(&ServerFrame{Type: frameOutput, Data: []byte("x")})
	}

	done := make(chan struct{})
	go func() {
		q.push(&ServerFrame{Type: frameOutput, Data: []byte("blocked")})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("push should have blocked with no non-output frame to evict")
	case <-time.After(50 * time.Millisecond):
	}

	if _, ok := q.pop(); !ok {
		t.Fatal("pop should have dequeued the first item, freeing room")
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("blocked push did not unblock after pop freed capacity")
	}
}

func TestOutputQueueCloseUnblocksPop(t *testing.T) {
	q := newOutputQueue()
	done := make(chan struct{})
	go func() {
		_, ok := q.pop()
		if ok {
			t.Error("expected pop to report !ok after close with no items")
		}
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	q.close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("close did not unblock a waiting pop")
	}
}

package queues

import "testing"

func TestQueueOrder(t *testing.T) {
	q := NewQueue[string]()
	if _, ok := q.TryPop(); ok {
		t.Fatalf("expected empty queue")
	}

	q.Push("hint")
	q.Push("crash")
	q.Push("winner")
	if q.Len() != 3 || q.Peek() != "hint" {
		t.Fatalf("unexpected queue %v", *q)
	}
	if got := q.Pop(); got != "hint" {
		t.Fatalf("expected fifo order, got %s", got)
	}

	items := q.Drain()
	if len(items) != 2 || items[0] != "crash" || items[1] != "winner" {
		t.Fatalf("unexpected drained items %v", items)
	}
	if !q.IsEmpty() {
		t.Fatalf("expected drained queue to be empty")
	}
}

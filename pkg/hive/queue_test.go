package hive

import "testing"

func TestMessageQueueFIFOOrder(t *testing.T) {
	q := NewMessageQueue("Outbound")

	first := NewQueuedMessage(Envelope{Command: CommandConnect, Message: "first"})
	second := NewQueuedMessage(Envelope{Command: CommandConnect, Message: "second"})
	q.Enqueue(first)
	q.Enqueue(second)

	got, ok := q.Dequeue()
	if !ok || got.Envelope.Message != "first" {
		t.Fatalf("expected FIFO order, got %+v", got)
	}
	got, ok = q.Dequeue()
	if !ok || got.Envelope.Message != "second" {
		t.Fatalf("expected second message next, got %+v", got)
	}

	if _, ok := q.Dequeue(); ok {
		t.Fatalf("expected empty queue to report ok=false")
	}
}

func TestMessageQueueSnapshotIsACopy(t *testing.T) {
	q := NewMessageQueue("Inbound")
	q.Enqueue(NewQueuedMessage(Envelope{Command: CommandHeartbeat}))

	snapshot := q.Snapshot()
	q.Enqueue(NewQueuedMessage(Envelope{Command: CommandGossip}))

	if len(snapshot) != 1 {
		t.Fatalf("expected snapshot to be unaffected by later enqueues, got %d entries", len(snapshot))
	}
	if q.Len() != 2 {
		t.Fatalf("expected live queue to have grown, got %d", q.Len())
	}
}

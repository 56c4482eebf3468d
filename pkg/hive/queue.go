package hive

import (
	"sync"

	"github.com/rs/xid"
)

// QueuedMessage wraps an outbound/inbound Envelope with retry bookkeeping
// (spec.md §3 "Queued message"). ID is never put on the wire — it exists
// purely to correlate one message across the Sender's delivery-failure
// and drop log lines and the operator shell's queue listings, the same
// role github.com/rs/xid plays inside the teacher's domain.UUID.
type QueuedMessage struct {
	ID               xid.ID
	Envelope         Envelope
	SendAttemptCount int
}

// NewQueuedMessage wraps an envelope for insertion into a MessageQueue.
func NewQueuedMessage(e Envelope) QueuedMessage {
	return QueuedMessage{ID: xid.New(), Envelope: e}
}

// NewMessageQueue creates an empty, named FIFO queue. Two independent
// instances are expected in practice: "Outbound" and "Inbound" (spec.md
// §4.2).
func NewMessageQueue(name string) *MessageQueue {
	return &MessageQueue{name: name}
}

// MessageQueue is a bounded-only-by-memory, thread-safe FIFO of
// QueuedMessage (spec.md §3, §4.2). It does not impose backpressure: per
// spec.md §4.2, an implementation choosing to bound a queue must document
// its drop/block policy, and this one chooses not to bound at all.
type MessageQueue struct {
	mu      sync.Mutex
	name    string
	entries []QueuedMessage
}

// Name returns the queue's label ("Outbound" or "Inbound").
func (q *MessageQueue) Name() string {
	return q.name
}

// Enqueue appends a message to the tail of the queue.
func (q *MessageQueue) Enqueue(msg QueuedMessage) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, msg)
}

// Dequeue removes and returns the head of the queue, or ok=false if
// empty.
func (q *MessageQueue) Dequeue() (QueuedMessage, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return QueuedMessage{}, false
	}
	msg := q.entries[0]
	q.entries = q.entries[1:]
	return msg, true
}

// Len returns the current queue depth.
func (q *MessageQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Snapshot returns a point-in-time copy of every queued message, used by
// the operator shell's list_outbound_messages / list_inbound_messages and
// by pkg/statusapi.
func (q *MessageQueue) Snapshot() []QueuedMessage {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]QueuedMessage, len(q.entries))
	copy(out, q.entries)
	return out
}

package hive

import (
	"encoding/json"
	"net"
	"testing"

	"go.uber.org/zap"
)

// fakeAckServer accepts one connection, reads one frame and replies with
// a single ack, mirroring the minimum a Receiver guarantees.
func fakeAckServer(t *testing.T, addr string) {
	t.Helper()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		t.Fatalf("failed to start fake ack server: %v", err)
	}
	go func() {
		defer ln.Close()
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		var e Envelope
		if err := json.NewDecoder(conn).Decode(&e); err != nil {
			return
		}
		ack := NewAckEnvelope(
			NewNodeRecord("Recipient", e.DestinationIPAddress, int(e.DestinationPort), false),
			NewNodeRecord("Sender", e.SourceIPAddress, int(e.SourcePort), false),
		)
		frame, _ := EncodeFrame(ack)
		conn.Write(frame)
	}()
}

func TestSenderDeliversAndDoesNotRecordFailureOnSuccess(t *testing.T) {
	fakeAckServer(t, "127.0.0.1:58241")

	table := newTestTable()
	peer := NewNodeRecord("Peer", "127.0.0.1", 58241, false)
	table.Add(peer)

	outbound := NewMessageQueue("Outbound")
	envelope := NewHeartbeatEnvelope(table.Local(), peer)
	outbound.Enqueue(NewQueuedMessage(envelope))

	s := NewSender(table, outbound, zap.NewNop())
	s.deliver(mustDequeue(t, outbound))

	if peer.FailedConnectionCount != 0 {
		t.Fatalf("expected no failure recorded on a successful delivery, got %d", peer.FailedConnectionCount)
	}
}

func TestSenderRecordsFailureAndRetriesOnDialError(t *testing.T) {
	table := newTestTable()
	peer := NewNodeRecord("Peer", "127.0.0.1", 1, false) // nothing listening here
	table.Add(peer)

	outbound := NewMessageQueue("Outbound")
	envelope := NewHeartbeatEnvelope(table.Local(), peer)
	outbound.Enqueue(NewQueuedMessage(envelope))

	s := NewSender(table, outbound, zap.NewNop())
	s.deliver(mustDequeue(t, outbound))

	if peer.FailedConnectionCount != 1 {
		t.Fatalf("expected one recorded failure, got %d", peer.FailedConnectionCount)
	}
	if outbound.Len() != 1 {
		t.Fatalf("expected the message to be re-enqueued for retry, got depth %d", outbound.Len())
	}
}

func TestSenderDropsAfterMaxAttempts(t *testing.T) {
	table := newTestTable()
	peer := NewNodeRecord("Peer", "127.0.0.1", 2, false)
	table.Add(peer)

	outbound := NewMessageQueue("Outbound")
	s := NewSender(table, outbound, zap.NewNop())

	msg := NewQueuedMessage(NewHeartbeatEnvelope(table.Local(), peer))
	msg.SendAttemptCount = MaxSendAttempts - 1
	outbound.Enqueue(msg)

	s.deliver(mustDequeue(t, outbound))

	if outbound.Len() != 0 {
		t.Fatalf("expected message to be dropped once max attempts reached, got depth %d", outbound.Len())
	}
}

func mustDequeue(t *testing.T, q *MessageQueue) QueuedMessage {
	t.Helper()
	msg, ok := q.Dequeue()
	if !ok {
		t.Fatalf("expected a message to dequeue")
	}
	return msg
}

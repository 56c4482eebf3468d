package hive

import (
	"testing"

	"go.uber.org/zap"
)

func TestGossipLoopStartsEnabled(t *testing.T) {
	table := newTestTable()
	g := NewGossipLoop(table, NewMessageQueue("Outbound"), zap.NewNop())
	if !g.Enabled() {
		t.Fatalf("expected gossip loop to start enabled")
	}
	g.Disable()
	if g.Enabled() {
		t.Fatalf("expected Disable to clear the flag")
	}
	g.Enable()
	if !g.Enabled() {
		t.Fatalf("expected Enable to set the flag")
	}
}

func TestGossipRoundSkipsWithNoLivePeers(t *testing.T) {
	table := newTestTable()
	outbound := NewMessageQueue("Outbound")
	g := NewGossipLoop(table, outbound, zap.NewNop())

	g.round()

	if outbound.Len() != 0 {
		t.Fatalf("expected no message enqueued with no live peers")
	}
}

func TestGossipRoundEnqueuesToRandomPeer(t *testing.T) {
	table := newTestTable()
	table.Add(NewNodeRecord("Peer", "10.0.0.1", 1, false))
	outbound := NewMessageQueue("Outbound")
	g := NewGossipLoop(table, outbound, zap.NewNop())

	g.round()

	if outbound.Len() != 1 {
		t.Fatalf("expected exactly one gossip message enqueued, got %d", outbound.Len())
	}
	msg, _ := outbound.Dequeue()
	if msg.Envelope.Command != CommandGossip {
		t.Fatalf("expected a gossip command, got %s", msg.Envelope.Command)
	}
}

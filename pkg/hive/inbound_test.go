package hive

import (
	"testing"

	"go.uber.org/zap"
)

func newTestInboundProcessor(table *NodeTable) *InboundProcessor {
	return NewInboundProcessor(table, NewMessageQueue("Inbound"), zap.NewNop())
}

func TestApplyConnectAddsNode(t *testing.T) {
	table := newTestTable()
	p := newTestInboundProcessor(table)

	e := Envelope{
		Command:            CommandConnect,
		SourceFriendlyName: "Peer",
		SourceIPAddress:    "10.0.0.1",
		SourcePort:         1,
		Message:            "Hello",
	}
	p.apply(e)

	if table.Lookup("10.0.0.1", 1) == nil {
		t.Fatalf("expected connect to add the peer to the table")
	}
}

func TestApplyHeartbeatInsertsUnknownPeer(t *testing.T) {
	table := newTestTable()
	p := newTestInboundProcessor(table)

	e := Envelope{
		Command:            CommandHeartbeat,
		SourceFriendlyName: "Peer",
		SourceIPAddress:    "10.0.0.1",
		SourcePort:         1,
	}
	p.apply(e)

	peer := table.Lookup("10.0.0.1", 1)
	if peer == nil {
		t.Fatalf("expected heartbeat to insert an unknown peer")
	}
	if !peer.HasHeartbeat {
		t.Fatalf("expected HasHeartbeat to be set")
	}
}

func TestApplyHeartbeatRevivesExistingPeer(t *testing.T) {
	table := newTestTable()
	dead := NewNodeRecord("Peer", "10.0.0.1", 1, false)
	dead.Status = StatusDead
	dead.FailedConnectionCount = MaxSendAttempts
	table.Add(dead)

	p := newTestInboundProcessor(table)
	p.apply(Envelope{Command: CommandHeartbeat, SourceFriendlyName: "Peer", SourceIPAddress: "10.0.0.1", SourcePort: 1})

	peer := table.Lookup("10.0.0.1", 1)
	if peer.Status != StatusLive {
		t.Fatalf("expected heartbeat to revive a dead peer")
	}
	if peer.FailedConnectionCount != 0 {
		t.Fatalf("expected failure count reset")
	}
}

func TestApplyGossipSkipsSelf(t *testing.T) {
	local := NewNodeRecord("Local", "127.0.0.1", 54321, true)
	table := NewNodeTable(local)
	p := newTestInboundProcessor(table)

	e := Envelope{
		Command: CommandGossip,
		Nodes: map[string]GossipNode{
			"Local": {IPAddress: "127.0.0.1", PortNumber: "54321"},
			"Other": {IPAddress: "10.0.0.5", PortNumber: "9"},
		},
	}
	p.apply(e)

	if len(table.ListAll()) != 2 {
		t.Fatalf("expected self to be skipped and only one new peer added, got %d records", len(table.ListAll()))
	}
	if table.Lookup("10.0.0.5", 9) == nil {
		t.Fatalf("expected gossiped peer to be added")
	}
}

func TestApplyGossipMarksLiveWithoutTouchingHeartbeat(t *testing.T) {
	table := newTestTable()
	existing := NewNodeRecord("Peer", "10.0.0.1", 1, false)
	existing.Status = StatusDead
	table.Add(existing)

	p := newTestInboundProcessor(table)
	p.apply(Envelope{
		Command: CommandGossip,
		Nodes: map[string]GossipNode{
			"Peer": {IPAddress: "10.0.0.1", PortNumber: "1"},
		},
	})

	peer := table.Lookup("10.0.0.1", 1)
	if peer.Status != StatusLive {
		t.Fatalf("expected gossip to mark the peer live")
	}
	if peer.HasHeartbeat {
		t.Fatalf("expected gossip evidence to leave HasHeartbeat untouched")
	}
}

func TestApplyGossipSkipsInvalidPort(t *testing.T) {
	table := newTestTable()
	p := newTestInboundProcessor(table)

	p.apply(Envelope{
		Command: CommandGossip,
		Nodes: map[string]GossipNode{
			"Bad": {IPAddress: "10.0.0.9", PortNumber: "not-a-port"},
		},
	})

	if table.Lookup("10.0.0.9", 0) != nil {
		t.Fatalf("expected invalid gossip entries to be skipped")
	}
}

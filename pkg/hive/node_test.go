package hive

import (
	"testing"
	"time"
)

func TestNodeRecordEqualIgnoresFriendlyName(t *testing.T) {
	a := NewNodeRecord("Alice", "10.0.0.1", 54321, false)
	b := NewNodeRecord("Bob", "10.0.0.1", 54321, false)

	if !a.Equal(b) {
		t.Fatalf("expected records with identical identity to be equal regardless of friendly name")
	}
}

func TestNodeRecordEqualDifferentIdentity(t *testing.T) {
	a := NewNodeRecord("Alice", "10.0.0.1", 54321, false)
	b := NewNodeRecord("Alice", "10.0.0.2", 54321, false)

	if a.Equal(b) {
		t.Fatalf("expected records with different ip to be unequal")
	}
}

func TestMarkHeartbeatResetsFailuresAndRevivesNode(t *testing.T) {
	n := NewNodeRecord("Alice", "10.0.0.1", 54321, false)
	for i := 0; i < MaxSendAttempts; i++ {
		n.RecordFailedConnection(MaxSendAttempts)
	}
	if n.Status != StatusDead {
		t.Fatalf("expected node to be dead after %d failures", MaxSendAttempts)
	}

	n.MarkHeartbeat(time.Now())
	if n.Status != StatusLive {
		t.Fatalf("expected MarkHeartbeat to revive the node")
	}
	if n.FailedConnectionCount != 0 {
		t.Fatalf("expected MarkHeartbeat to reset failure count, got %d", n.FailedConnectionCount)
	}
	if !n.HasHeartbeat {
		t.Fatalf("expected HasHeartbeat to be true")
	}
}

func TestMarkLiveDoesNotTouchHeartbeat(t *testing.T) {
	n := NewNodeRecord("Alice", "10.0.0.1", 54321, false)
	n.Status = StatusDead

	n.MarkLive()

	if n.Status != StatusLive {
		t.Fatalf("expected MarkLive to set status live")
	}
	if n.HasHeartbeat {
		t.Fatalf("expected MarkLive to leave HasHeartbeat false")
	}
}

func TestRecordFailedConnectionDeadThreshold(t *testing.T) {
	n := NewNodeRecord("Alice", "10.0.0.1", 54321, false)
	for i := 0; i < MaxSendAttempts-1; i++ {
		n.RecordFailedConnection(MaxSendAttempts)
		if n.Status != StatusLive {
			t.Fatalf("node should stay live before reaching max attempts, iteration %d", i)
		}
	}
	n.RecordFailedConnection(MaxSendAttempts)
	if n.Status != StatusDead {
		t.Fatalf("expected node to be dead after reaching max attempts")
	}
}

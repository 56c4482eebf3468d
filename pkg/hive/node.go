package hive

import (
	"fmt"
	"time"
)

// Status is the liveness state of a NodeRecord.
type Status string

const (
	// StatusLive marks a node that has recently been heard from, directly
	// or through gossip.
	StatusLive Status = "Live"
	// StatusDead marks a node that failed MaxSendAttempts consecutive
	// connection attempts without any intervening evidence of life.
	StatusDead Status = "Dead"
)

// Identity is the (ip_address, port_number) pair that uniquely identifies a
// NodeRecord in a NodeTable. FriendlyName is deliberately excluded: it is
// mutable metadata, never part of equality.
type Identity struct {
	IPAddress  string
	PortNumber int
}

// String renders the identity the way it appears on the wire and in log
// fields: "ip:port".
func (id Identity) String() string {
	return fmt.Sprintf("%s:%d", id.IPAddress, id.PortNumber)
}

// NewNodeRecord creates a NodeRecord starting in the Live state, mirroring
// HiveNode.__init__ in the source implementation (every freshly observed
// node is assumed live until proven otherwise).
func NewNodeRecord(friendlyName, ip string, port int, isLocal bool) *NodeRecord {
	return &NodeRecord{
		FriendlyName: friendlyName,
		IPAddress:    ip,
		PortNumber:   port,
		Status:       StatusLive,
		IsLocalNode:  isLocal,
	}
}

// NodeRecord is the per-peer state tracked by a NodeTable. See spec.md §3.
type NodeRecord struct {
	FriendlyName           string
	IPAddress              string
	PortNumber             int
	Status                 Status
	LastHeartbeatTimestamp time.Time
	HasHeartbeat           bool
	FailedConnectionCount  int
	IsLocalNode            bool
}

// Identity returns the record's (ip, port) identity key.
func (n *NodeRecord) Identity() Identity {
	return Identity{IPAddress: n.IPAddress, PortNumber: n.PortNumber}
}

// Equal reports whether two records share the same identity. FriendlyName
// is intentionally not part of this comparison (Design Note "Identity vs.
// metadata on nodes").
func (n *NodeRecord) Equal(other *NodeRecord) bool {
	if other == nil {
		return false
	}
	return n.Identity() == other.Identity()
}

// MarkHeartbeat sets the last-heartbeat timestamp to now, resets the
// failure counter, and marks the node Live. Only directly received
// heartbeats call this; gossip mentions use MarkLive instead (Open
// Question decision, spec.md §9).
func (n *NodeRecord) MarkHeartbeat(now time.Time) {
	n.LastHeartbeatTimestamp = now
	n.HasHeartbeat = true
	n.FailedConnectionCount = 0
	n.Status = StatusLive
}

// MarkLive sets the node Live and zeroes its failure count without
// touching the heartbeat timestamp. Used for connect/gossip evidence.
func (n *NodeRecord) MarkLive() {
	n.Status = StatusLive
	n.FailedConnectionCount = 0
}

// RecordFailedConnection increments the failure counter and transitions
// the node to Dead once it reaches maxAttempts (invariant I3).
func (n *NodeRecord) RecordFailedConnection(maxAttempts int) {
	n.FailedConnectionCount++
	if n.FailedConnectionCount >= maxAttempts {
		n.Status = StatusDead
	}
}

func (n *NodeRecord) heartbeatString() string {
	if !n.HasHeartbeat {
		return "None"
	}
	return n.LastHeartbeatTimestamp.Format(TimestampFormat)
}

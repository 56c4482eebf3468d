package hive

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// NewNodeTable creates a NodeTable already seeded with the local node
// record (invariant I1: exactly one record has IsLocalNode = true).
func NewNodeTable(local *NodeRecord) *NodeTable {
	t := &NodeTable{
		byIdentity: map[Identity]*NodeRecord{},
	}
	t.byIdentity[local.Identity()] = local
	t.local = local
	return t
}

// NodeTable is the in-memory, concurrency-safe set of known peers keyed by
// identity (spec.md §3, §4.1). A single RWMutex guards both the map and
// every field of every NodeRecord it holds: a NodeRecord is never handed
// out as a live, shared pointer, and it is never mutated except by a
// NodeTable method holding t.mu. This is what lets the receiver, sender,
// inbound processor and protocol loops — each running on its own
// goroutine — read and write the same peer state without a data race
// (invariants I1–I4, spec.md §5).
type NodeTable struct {
	mu         sync.RWMutex
	byIdentity map[Identity]*NodeRecord
	local      *NodeRecord
}

// Local returns a point-in-time copy of the distinguished local node
// record.
func (t *NodeTable) Local() *NodeRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	cp := *t.local
	return &cp
}

// Add inserts a new record, or — if a record with the same identity
// already exists — overwrites its FriendlyName (spec.md §4.1 "add").
// Never produces a duplicate identity (invariant I2). The caller's node
// is adopted as the table's own copy and must not be retained or
// mutated afterward.
func (t *NodeTable) Add(node *NodeRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := node.Identity()
	if existing, ok := t.byIdentity[id]; ok {
		existing.FriendlyName = node.FriendlyName
		return
	}
	t.byIdentity[id] = node
}

// Remove deletes the record with the given identity; a no-op if absent.
func (t *NodeTable) Remove(id Identity) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.byIdentity, id)
}

// Lookup returns a point-in-time copy of the record for (ip, port), or
// nil if unknown.
func (t *NodeTable) Lookup(ip string, port int) *NodeRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.byIdentity[Identity{IPAddress: ip, PortNumber: port}]
	if !ok {
		return nil
	}
	cp := *n
	return &cp
}

// RecordFailure increments the failure counter for the record with the
// given identity, marking it Dead at MaxSendAttempts (invariant I3). A
// no-op if the identity is unknown (the peer may have been removed
// between send and failure bookkeeping).
func (t *NodeTable) RecordFailure(id Identity) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n, ok := t.byIdentity[id]; ok {
		n.RecordFailedConnection(MaxSendAttempts)
	}
}

// MarkHeartbeat applies a received heartbeat for (ip, port): if the peer
// is already known its FriendlyName is refreshed and MarkHeartbeat is
// applied; otherwise a new record is inserted already carrying the
// heartbeat.
func (t *NodeTable) MarkHeartbeat(friendlyName, ip string, port int, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := Identity{IPAddress: ip, PortNumber: port}
	if existing, ok := t.byIdentity[id]; ok {
		existing.FriendlyName = friendlyName
		existing.MarkHeartbeat(now)
		return
	}
	node := NewNodeRecord(friendlyName, ip, port, false)
	node.MarkHeartbeat(now)
	t.byIdentity[id] = node
}

// MarkLive applies connect or gossip evidence for (ip, port): if the peer is
// already known its FriendlyName is refreshed and MarkLive is applied
// (status + failure count only, heartbeat timestamp untouched — Open
// Question decision, spec.md §9); otherwise a new record is inserted.
func (t *NodeTable) MarkLive(friendlyName, ip string, port int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := Identity{IPAddress: ip, PortNumber: port}
	if existing, ok := t.byIdentity[id]; ok {
		existing.FriendlyName = friendlyName
		existing.MarkLive()
		return
	}
	t.byIdentity[id] = NewNodeRecord(friendlyName, ip, port, false)
}

// RandomLivePeer returns a point-in-time copy of a uniformly random
// record with Status == Live, excluding the local node, or nil if no
// such peer exists (spec.md §4.1).
func (t *NodeTable) RandomLivePeer() *NodeRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var candidates []*NodeRecord
	for _, n := range t.byIdentity {
		if n.Status == StatusLive && !n.IsLocalNode {
			candidates = append(candidates, n)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	cp := *candidates[rand.Intn(len(candidates))]
	return &cp
}

// LiveSnapshot returns a point-in-time copy of every live record,
// including the local node.
func (t *NodeTable) LiveSnapshot() []NodeRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]NodeRecord, 0, len(t.byIdentity))
	for _, n := range t.byIdentity {
		if n.Status == StatusLive {
			out = append(out, *n)
		}
	}
	return out
}

// ListAll returns a point-in-time copy of every record, live or dead, in
// unspecified order (spec.md §4.1 "list_all").
func (t *NodeTable) ListAll() []NodeRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]NodeRecord, 0, len(t.byIdentity))
	for _, n := range t.byIdentity {
		out = append(out, *n)
	}
	return out
}

// Render formats the node table as the column-aligned table the original
// implementation printed from HiveNode.get_node_list_row_*_as_str
// (spec.md §11 of SPEC_FULL.md), consumed by the operator shell's
// list_nodes command.
func (t *NodeTable) Render() string {
	rows := t.ListAll()

	headers := []string{"Friendly Name", "IP Address", "Port", "Status", "Last Heartbeat", "Failed Connections"}
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}

	cells := make([][]string, len(rows))
	for i, n := range rows {
		name := n.FriendlyName
		if n.IsLocalNode {
			name += "*"
		}
		row := []string{
			name,
			n.IPAddress,
			fmt.Sprintf("%d", n.PortNumber),
			string(n.Status),
			n.heartbeatString(),
			fmt.Sprintf("%d", n.FailedConnectionCount),
		}
		for j, c := range row {
			if len(c) > widths[j] {
				widths[j] = len(c)
			}
		}
		cells[i] = row
	}

	var b strings.Builder
	banner := strings.Repeat("-", LogLineWidth)
	b.WriteString(banner + "\n")
	b.WriteString(formatRow(headers, widths) + "\n")
	b.WriteString(formatSeparator(widths) + "\n")
	for _, row := range cells {
		b.WriteString(formatRow(row, widths) + "\n")
	}
	b.WriteString(banner)
	return b.String()
}

func formatRow(cols []string, widths []int) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprintf("%-*s", widths[i], c)
	}
	return strings.Join(parts, " | ")
}

func formatSeparator(widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("-", w)
	}
	return strings.Join(parts, " | ")
}

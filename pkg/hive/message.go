package hive

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Command identifies the wire-level frame type (spec.md §3, §6).
type Command string

const (
	CommandConnect   Command = "connect"
	CommandAck       Command = "ack_message"
	CommandHeartbeat Command = "heartbeat"
	CommandGossip    Command = "gossip"
)

// PortNumber decodes from either a JSON number or a JSON string. The
// envelope encodes ports as numbers; the gossip payload encodes them as
// strings (Design Note "Wire port encoding", spec.md §9). Both must
// round-trip.
type PortNumber int

// UnmarshalJSON accepts `54321` or `"54321"`.
func (p *PortNumber) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid port %q: %w", s, err)
		}
		*p = PortNumber(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*p = PortNumber(n)
	return nil
}

// MarshalJSON always canonicalizes to a JSON number for envelope fields.
// GossipNode.PortNumber overrides this via its own string encoding (see
// below) to match the original wire format exactly.
func (p PortNumber) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(p))
}

// GossipNode is one entry of a gossip frame's "nodes" map. Ports are
// encoded as strings here, matching
// gossip_protocol_command_manager.py's str(node.port_number).
type GossipNode struct {
	IPAddress  string `json:"ip_address"`
	PortNumber string `json:"port_number"`
}

// portAsInt parses PortNumber, returning 0 on failure so callers can
// treat it as "invalid" without propagating a parse error.
func (n GossipNode) portAsInt() int {
	p, err := strconv.Atoi(n.PortNumber)
	if err != nil {
		return 0
	}
	return p
}

// Envelope is the flat, JSON-encoded wire frame exchanged between nodes
// (spec.md §6). Command-specific fields are optional and only populated
// for their respective command.
type Envelope struct {
	Command Command `json:"command"`

	SourceFriendlyName string     `json:"source_friendly_name"`
	SourceIPAddress    string     `json:"source_ip_address"`
	SourcePort         PortNumber `json:"source_port"`

	DestinationFriendlyName string     `json:"destination_friendly_name"`
	DestinationIPAddress    string     `json:"destination_ip_address"`
	DestinationPort         PortNumber `json:"destination_port"`

	// Message is the connect command's free-form greeting.
	Message string `json:"message,omitempty"`

	// Nodes is the gossip command's membership snapshot, friendly_name
	// keyed.
	Nodes map[string]GossipNode `json:"nodes,omitempty"`
}

// Source returns the envelope's sender as an Identity.
func (e *Envelope) Source() Identity {
	return Identity{IPAddress: e.SourceIPAddress, PortNumber: int(e.SourcePort)}
}

// Destination returns the envelope's recipient as an Identity.
func (e *Envelope) Destination() Identity {
	return Identity{IPAddress: e.DestinationIPAddress, PortNumber: int(e.DestinationPort)}
}

func envelopeFrom(command Command, sender, recipient *NodeRecord) Envelope {
	return Envelope{
		Command:                 command,
		SourceFriendlyName:      sender.FriendlyName,
		SourceIPAddress:         sender.IPAddress,
		SourcePort:              PortNumber(sender.PortNumber),
		DestinationFriendlyName: recipient.FriendlyName,
		DestinationIPAddress:    recipient.IPAddress,
		DestinationPort:         PortNumber(recipient.PortNumber),
	}
}

// NewConnectEnvelope builds a "connect" frame with a free-form greeting.
func NewConnectEnvelope(sender, recipient *NodeRecord, greeting string) Envelope {
	e := envelopeFrom(CommandConnect, sender, recipient)
	e.Message = greeting
	return e
}

// NewAckEnvelope builds the single "ack_message" frame sent in reply to
// every other command (spec.md §6).
func NewAckEnvelope(sender, recipient *NodeRecord) Envelope {
	return envelopeFrom(CommandAck, sender, recipient)
}

// NewHeartbeatEnvelope builds a "heartbeat" frame.
func NewHeartbeatEnvelope(sender, recipient *NodeRecord) Envelope {
	return envelopeFrom(CommandHeartbeat, sender, recipient)
}

// NewGossipEnvelope builds a "gossip" frame whose payload is the supplied
// live-node snapshot, friendly_name keyed (spec.md §4.6).
func NewGossipEnvelope(sender, recipient *NodeRecord, liveNodes []NodeRecord) Envelope {
	e := envelopeFrom(CommandGossip, sender, recipient)
	nodes := make(map[string]GossipNode, len(liveNodes))
	for _, n := range liveNodes {
		nodes[n.FriendlyName] = GossipNode{
			IPAddress:  n.IPAddress,
			PortNumber: strconv.Itoa(n.PortNumber),
		}
	}
	e.Nodes = nodes
	return e
}

// EncodeFrame serializes an envelope as a single newline-terminated JSON
// object, the length-or-connection-delimited framing described in
// spec.md §6: a reader using a sufficiently large fixed buffer can decode
// it directly, and a reader using newline delimiting (as Receiver and
// Sender do here) gets an explicit frame boundary on the same connection.
func EncodeFrame(e Envelope) ([]byte, error) {
	buf, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return append(buf, '\n'), nil
}

// DecodeFrame parses one JSON object frame. Trailing whitespace/newlines
// are tolerated.
func DecodeFrame(data []byte) (Envelope, error) {
	var e Envelope
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&e); err != nil {
		return Envelope{}, err
	}
	return e, nil
}

package hive

import (
	"time"

	"go.uber.org/zap"
)

// NewInboundProcessor creates an InboundProcessor applying frames
// enqueued by the Receiver to table (spec.md §4.5).
func NewInboundProcessor(table *NodeTable, inbound *MessageQueue, logger *zap.Logger) *InboundProcessor {
	return &InboundProcessor{table: table, inbound: inbound, logger: logger}
}

// InboundProcessor is the only component that applies received frames
// (connect, heartbeat, gossip) to a NodeTable; the Sender separately
// records failed deliveries there. It drains Inbound continuously, one
// message at a time.
type InboundProcessor struct {
	logger *zap.Logger

	table   *NodeTable
	inbound *MessageQueue

	shutdown chan chan error
}

func (p *InboundProcessor) Run() error {
	p.shutdown = make(chan chan error)

	go func() {
		for {
			select {
			case respCh := <-p.shutdown:
				respCh <- nil
				return

			default:
				msg, ok := p.inbound.Dequeue()
				if !ok {
					select {
					case respCh := <-p.shutdown:
						respCh <- nil
						return
					case <-time.After(10 * time.Millisecond):
					}
					continue
				}
				p.apply(msg.Envelope)
			}
		}
	}()
	return nil
}

func (p *InboundProcessor) Stop() error {
	errCh := make(chan error)
	p.shutdown <- errCh
	return <-errCh
}

func (p *InboundProcessor) apply(e Envelope) {
	switch e.Command {
	case CommandConnect:
		p.applyConnect(e)
	case CommandHeartbeat:
		p.applyHeartbeat(e)
	case CommandGossip:
		p.applyGossip(e)
	default:
		p.logger.Debug("ignoring non-mutating command in inbound queue", zap.String("command", string(e.Command)))
	}
}

func (p *InboundProcessor) applyConnect(e Envelope) {
	node := NewNodeRecord(e.SourceFriendlyName, e.SourceIPAddress, int(e.SourcePort), false)
	p.table.MarkLive(node.FriendlyName, node.IPAddress, node.PortNumber)
	p.logger.Info("connected to new peer",
		zap.String("peer", node.Identity().String()),
		zap.String("friendly_name", node.FriendlyName))
}

func (p *InboundProcessor) applyHeartbeat(e Envelope) {
	id := e.Source()
	p.table.MarkHeartbeat(e.SourceFriendlyName, id.IPAddress, id.PortNumber, time.Now())
}

// applyGossip reconciles a gossip frame's membership snapshot into the
// table. Per an explicit Open Question decision, gossip evidence marks a
// node Live (or inserts it) WITHOUT touching its heartbeat timestamp —
// only a direct heartbeat does that.
func (p *InboundProcessor) applyGossip(e Envelope) {
	local := p.table.Local().Identity()

	for friendlyName, n := range e.Nodes {
		port := n.portAsInt()
		if port == 0 {
			p.logger.Warn("gossip entry with invalid port, skipping",
				zap.String("friendly_name", friendlyName), zap.String("raw_port", n.PortNumber))
			continue
		}
		id := Identity{IPAddress: n.IPAddress, PortNumber: port}
		if id == local {
			continue
		}

		p.table.MarkLive(friendlyName, id.IPAddress, id.PortNumber)
	}
}

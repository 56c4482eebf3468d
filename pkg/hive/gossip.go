package hive

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// NewGossipLoop creates a GossipLoop that, every GossipProtocolFrequency,
// picks a random live peer and enqueues the current live-node snapshot
// to it (spec.md §4.6). It starts enabled.
func NewGossipLoop(table *NodeTable, outbound *MessageQueue, logger *zap.Logger) *GossipLoop {
	g := &GossipLoop{table: table, outbound: outbound, logger: logger}
	g.enabled.Store(true)
	return g
}

// GossipLoop runs the periodic gossip round. Enable/Disable are safe to
// call concurrently with Run (Design Note: the source implementation
// toggles a class-level flag shared by every instance; here each loop
// owns its own atomic flag).
type GossipLoop struct {
	logger *zap.Logger

	table    *NodeTable
	outbound *MessageQueue

	enabled  atomic.Bool
	shutdown chan chan error
}

func (g *GossipLoop) Enable()  { g.enabled.Store(true) }
func (g *GossipLoop) Disable() { g.enabled.Store(false) }
func (g *GossipLoop) Enabled() bool { return g.enabled.Load() }

func (g *GossipLoop) Run() error {
	g.shutdown = make(chan chan error)

	go func() {
		ticker := time.NewTicker(GossipProtocolFrequency)
		defer ticker.Stop()

		for {
			select {
			case respCh := <-g.shutdown:
				respCh <- nil
				return
			case <-ticker.C:
				if g.enabled.Load() {
					g.round()
				}
			}
		}
	}()
	return nil
}

func (g *GossipLoop) Stop() error {
	errCh := make(chan error)
	g.shutdown <- errCh
	return <-errCh
}

func (g *GossipLoop) round() {
	peer := g.table.RandomLivePeer()
	if peer == nil {
		g.logger.Debug("gossip round skipped: no live peers")
		return
	}

	live := g.table.LiveSnapshot()
	envelope := NewGossipEnvelope(g.table.Local(), peer, live)
	g.outbound.Enqueue(NewQueuedMessage(envelope))
	g.logger.Debug("gossip round enqueued", zap.String("peer", peer.Identity().String()), zap.Int("nodes", len(live)))
}

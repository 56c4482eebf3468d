package hive

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// NewHeartbeatLoop creates a HeartbeatLoop that, every
// HeartbeatProtocolFrequency, sends a heartbeat to a random live peer
// (spec.md §4.7). It starts enabled.
func NewHeartbeatLoop(table *NodeTable, outbound *MessageQueue, logger *zap.Logger) *HeartbeatLoop {
	h := &HeartbeatLoop{table: table, outbound: outbound, logger: logger}
	h.enabled.Store(true)
	return h
}

// HeartbeatLoop runs the periodic heartbeat round.
type HeartbeatLoop struct {
	logger *zap.Logger

	table    *NodeTable
	outbound *MessageQueue

	enabled  atomic.Bool
	shutdown chan chan error
}

func (h *HeartbeatLoop) Enable()      { h.enabled.Store(true) }
func (h *HeartbeatLoop) Disable()     { h.enabled.Store(false) }
func (h *HeartbeatLoop) Enabled() bool { return h.enabled.Load() }

func (h *HeartbeatLoop) Run() error {
	h.shutdown = make(chan chan error)

	go func() {
		ticker := time.NewTicker(HeartbeatProtocolFrequency)
		defer ticker.Stop()

		for {
			select {
			case respCh := <-h.shutdown:
				respCh <- nil
				return
			case <-ticker.C:
				if h.enabled.Load() {
					h.round()
				}
			}
		}
	}()
	return nil
}

func (h *HeartbeatLoop) Stop() error {
	errCh := make(chan error)
	h.shutdown <- errCh
	return <-errCh
}

func (h *HeartbeatLoop) round() {
	peer := h.table.RandomLivePeer()
	if peer == nil {
		h.logger.Debug("heartbeat round skipped: no live peers")
		return
	}

	envelope := NewHeartbeatEnvelope(h.table.Local(), peer)
	h.outbound.Enqueue(NewQueuedMessage(envelope))
	h.logger.Debug("heartbeat round enqueued", zap.String("peer", peer.Identity().String()))
}

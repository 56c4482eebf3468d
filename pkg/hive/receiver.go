package hive

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mcastellin/hivemesh/pkg/cache"
	"github.com/mcastellin/hivemesh/pkg/wait"
)

const (
	acceptBackoffInitial = 5 * time.Millisecond
	acceptBackoffFactor  = 2
	acceptBackoffCap     = time.Second

	warnSuppressionTTL      = 30 * time.Second
	warnSuppressionCapacity = 256
)

// NewReceiver creates a Receiver bound to addr ("ip:port"), delivering
// connect/heartbeat/gossip frames onto inbound (spec.md §4.3).
func NewReceiver(addr string, inbound *MessageQueue, logger *zap.Logger) *Receiver {
	return &Receiver{
		addr:     addr,
		inbound:  inbound,
		logger:   logger,
		warnOnce: cache.NewSuppressionCache(warnSuppressionCapacity, warnSuppressionTTL),
	}
}

// Receiver is the TCP accept loop and per-connection frame handler. It
// never mutates a NodeTable directly — every connect, heartbeat and
// gossip frame is enqueued onto Inbound for the InboundProcessor to
// apply, including gossip (Design Note: the source implementation
// applies gossip mutations inline in the receiver; this module keeps
// spec.md §4.3/§4.5's component boundary instead).
type Receiver struct {
	logger *zap.Logger

	addr    string
	inbound *MessageQueue

	warnOnce *cache.SuppressionCache

	listener net.Listener
	shutdown chan chan error
}

// Run starts the accept loop in a background goroutine.
func (r *Receiver) Run() error {
	ln, err := net.Listen("tcp", r.addr)
	if err != nil {
		return fmt.Errorf("receiver: listen on %s: %w", r.addr, err)
	}
	r.listener = ln
	r.shutdown = make(chan chan error)

	go r.acceptLoop()
	r.logger.Info("receiver listening", zap.String("addr", r.addr))
	return nil
}

func (r *Receiver) acceptLoop() {
	backoff := wait.NewBackoff(acceptBackoffInitial, acceptBackoffFactor, acceptBackoffCap)

	connCh := make(chan net.Conn)
	errCh := make(chan error, 1)
	go func() {
		for {
			conn, err := r.listener.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					errCh <- err
					return
				}
				r.logger.Warn("accept error, backing off", zap.Error(err))
				backoff.Backoff()
				<-backoff.After()
				continue
			}
			backoff.Reset()
			connCh <- conn
		}
	}()

	for {
		select {
		case respCh := <-r.shutdown:
			respCh <- r.listener.Close()
			return

		case conn := <-connCh:
			go r.handleConnection(conn)

		case <-errCh:
			// Only net.ErrClosed reaches errCh: the listener is gone.
			return
		}
	}
}

// Stop closes the listener and waits for the accept loop to exit.
func (r *Receiver) Stop() error {
	errCh := make(chan error)
	r.shutdown <- errCh
	return <-errCh
}

func (r *Receiver) handleConnection(conn net.Conn) {
	defer conn.Close()

	connID := uuid.New().String()
	logger := r.logger.With(zap.String("conn_id", connID), zap.String("remote", conn.RemoteAddr().String()))

	decoder := json.NewDecoder(conn)
	for {
		conn.SetReadDeadline(time.Now().Add(FrameTimeout))

		var envelope Envelope
		if err := decoder.Decode(&envelope); err != nil {
			if !isBenignDisconnect(err) {
				host, _, _ := net.SplitHostPort(conn.RemoteAddr().String())
				if r.warnOnce.ShouldLog(fmt.Sprintf("malformed:%s", host)) {
					logger.Warn("malformed frame, closing connection", zap.Error(err))
				}
			}
			return
		}

		r.route(logger, envelope)
		if envelope.Command == CommandAck {
			continue
		}

		ack := NewAckEnvelope(
			NewNodeRecord(envelope.DestinationFriendlyName, envelope.DestinationIPAddress, int(envelope.DestinationPort), false),
			NewNodeRecord(envelope.SourceFriendlyName, envelope.SourceIPAddress, int(envelope.SourcePort), false),
		)
		frame, err := EncodeFrame(ack)
		if err != nil {
			logger.Error("failed to encode ack frame", zap.Error(err))
			return
		}

		conn.SetWriteDeadline(time.Now().Add(FrameTimeout))
		if _, err := conn.Write(frame); err != nil {
			logger.Warn("failed to send ack, closing connection", zap.Error(err))
			return
		}
	}
}

func (r *Receiver) route(logger *zap.Logger, envelope Envelope) {
	switch envelope.Command {
	case CommandConnect:
		if envelope.Message == "" {
			envelope.Message = "Hello"
		}
		r.inbound.Enqueue(NewQueuedMessage(envelope))

	case CommandHeartbeat, CommandGossip:
		r.inbound.Enqueue(NewQueuedMessage(envelope))

	case CommandAck:
		logger.Debug("discarding stray ack on receiver path")

	default:
		key := fmt.Sprintf("unknown:%s:%s", envelope.SourceIPAddress, envelope.Command)
		if r.warnOnce.ShouldLog(key) {
			logger.Warn("unknown command", zap.String("command", string(envelope.Command)))
		}
	}
}

// isBenignDisconnect reports whether a decode error is just the remote
// end closing the connection (EOF) or the listener shutting it down, as
// opposed to a genuinely malformed frame worth warning about.
func isBenignDisconnect(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed)
}

package hive

import (
	"encoding/json"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
)

// NewSender creates a Sender draining outbound, dialing each recipient
// directly and reading its single ack frame (spec.md §4.4).
func NewSender(table *NodeTable, outbound *MessageQueue, logger *zap.Logger) *Sender {
	return &Sender{table: table, outbound: outbound, logger: logger}
}

// Sender is the outbound delivery worker. When the queue is empty it
// sleeps QueueSendSleep before checking again, the same fixed cadence
// the source implementation's HiveSenderClient.run loop uses.
type Sender struct {
	logger *zap.Logger

	table    *NodeTable
	outbound *MessageQueue

	shutdown chan chan error
}

func (s *Sender) Run() error {
	s.shutdown = make(chan chan error)

	go func() {
		for {
			select {
			case respCh := <-s.shutdown:
				respCh <- nil
				return
			default:
			}

			msg, ok := s.outbound.Dequeue()
			if !ok {
				select {
				case respCh := <-s.shutdown:
					respCh <- nil
					return
				case <-time.After(QueueSendSleep):
				}
				continue
			}

			s.deliver(msg)
		}
	}()
	return nil
}

func (s *Sender) Stop() error {
	errCh := make(chan error)
	s.shutdown <- errCh
	return <-errCh
}

func (s *Sender) deliver(msg QueuedMessage) {
	dest := msg.Envelope.Destination()
	logger := s.logger.With(zap.String("msg_id", msg.ID.String()), zap.String("dest", dest.String()))

	if err := s.send(msg.Envelope); err != nil {
		logger.Warn("delivery failed", zap.Error(err))
		s.recordFailure(dest)
		s.retryOrDrop(msg, logger)
		return
	}
}

func (s *Sender) send(envelope Envelope) error {
	addr := fmt.Sprintf("%s:%d", envelope.DestinationIPAddress, int(envelope.DestinationPort))

	conn, err := net.DialTimeout("tcp", addr, DialTimeout)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	frame, err := EncodeFrame(envelope)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}

	conn.SetWriteDeadline(time.Now().Add(FrameTimeout))
	if _, err := conn.Write(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(FrameTimeout))
	var ack Envelope
	if err := json.NewDecoder(conn).Decode(&ack); err != nil {
		return fmt.Errorf("read ack: %w", err)
	}
	if ack.Command != CommandAck {
		return fmt.Errorf("expected ack_message, got %q", ack.Command)
	}
	return nil
}

func (s *Sender) recordFailure(dest Identity) {
	s.table.RecordFailure(dest)
}

func (s *Sender) retryOrDrop(msg QueuedMessage, logger *zap.Logger) {
	msg.SendAttemptCount++
	if msg.SendAttemptCount >= MaxSendAttempts {
		logger.Warn("dropping message after repeated failed send attempts",
			zap.Int("attempts", msg.SendAttemptCount))
		return
	}
	s.outbound.Enqueue(msg)
}

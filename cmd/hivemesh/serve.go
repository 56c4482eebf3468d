package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/mcastellin/hivemesh/pkg/hive"
	"github.com/mcastellin/hivemesh/pkg/statusapi"
)

func runServe() error {
	logger, err := newLogger(flagLogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	local := hive.NewNodeRecord(flagFriendlyName, flagIP, flagPort, true)
	table := hive.NewNodeTable(local)

	for _, seed := range flagSeeds {
		peer, err := parseSeed(seed)
		if err != nil {
			logger.Warn("ignoring invalid --seed", zap.String("seed", seed), zap.Error(err))
			continue
		}
		table.Add(peer)
	}

	outbound := hive.NewMessageQueue("Outbound")
	inbound := hive.NewMessageQueue("Inbound")

	receiver := hive.NewReceiver(fmt.Sprintf("%s:%d", flagIP, flagPort), inbound, logger.Named("receiver"))
	sender := hive.NewSender(table, outbound, logger.Named("sender"))
	inboundProc := hive.NewInboundProcessor(table, inbound, logger.Named("inbound"))
	gossipLoop := hive.NewGossipLoop(table, outbound, logger.Named("gossip"))
	heartbeatLoop := hive.NewHeartbeatLoop(table, outbound, logger.Named("heartbeat"))

	app := &App{logger: logger}
	app.AddWorker(receiver)
	app.AddWorker(sender)
	app.AddWorker(inboundProc)
	app.AddWorker(gossipLoop)
	app.AddWorker(heartbeatLoop)

	if flagStatusAddr != "" {
		api := statusapi.NewServer(flagStatusAddr, logger.Named("statusapi"))
		statusapi.RegisterNodesHandler(api, tableView{table})
		statusapi.RegisterQueuesHandler(api, queueView{outbound}, queueView{inbound})
		app.AddWorker(api)
	}

	if err := app.Run(); err != nil {
		return err
	}

	for _, seed := range flagSeeds {
		peer, err := parseSeed(seed)
		if err != nil {
			continue
		}
		envelope := hive.NewConnectEnvelope(local, peer, "Hello")
		outbound.Enqueue(hive.NewQueuedMessage(envelope))
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	shell := newOperatorShell(table, outbound, inbound, gossipLoop, heartbeatLoop, local, logger.Named("shell"))
	done := make(chan struct{})
	go func() {
		shell.run()
		close(done)
	}()

	select {
	case <-sig:
		logger.Info("shutdown signal received")
	case <-done:
		logger.Info("operator shell exited")
	}

	if err := app.Shutdown(); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
		return err
	}
	return nil
}

func parseSeed(raw string) (*hive.NodeRecord, error) {
	host, portStr, err := net.SplitHostPort(raw)
	if err != nil {
		return nil, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid port %q", portStr)
	}
	name := strings.TrimSpace(fmt.Sprintf("seed-%s", raw))
	return hive.NewNodeRecord(name, host, port, false), nil
}

// tableView adapts *hive.NodeTable to statusapi.NodeTableView.
type tableView struct{ t *hive.NodeTable }

func (v tableView) ListAll() []statusapi.NodeView {
	rows := v.t.ListAll()
	out := make([]statusapi.NodeView, len(rows))
	for i, n := range rows {
		out[i] = statusapi.NodeView{
			FriendlyName:          n.FriendlyName,
			IPAddress:             n.IPAddress,
			PortNumber:            n.PortNumber,
			Status:                string(n.Status),
			HasHeartbeat:          n.HasHeartbeat,
			FailedConnectionCount: n.FailedConnectionCount,
			IsLocalNode:           n.IsLocalNode,
		}
	}
	return out
}

// queueView adapts *hive.MessageQueue to statusapi.QueueView.
type queueView struct{ q *hive.MessageQueue }

func (v queueView) Name() string { return v.q.Name() }
func (v queueView) Len() int     { return v.q.Len() }

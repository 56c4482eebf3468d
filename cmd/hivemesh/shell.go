package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mcastellin/hivemesh/pkg/hive"
)

// commandHelp mirrors cli_command_processor.py's commands_help table.
var commandHelp = map[string]string{
	"list_nodes":                "Usage: list_nodes - List all nodes in the network",
	"list_outbound_messages":    "Usage: list_outbound_messages - List all messages in the outbound message queue",
	"list_inbound_messages":     "Usage: list_inbound_messages - List all messages in the inbound message queue",
	"connect":                   "Usage: connect <ip_address> <port> - Connect to a new node in the network",
	"enable_gossip_protocol":    "Usage: enable_gossip_protocol - Enable the gossip protocol",
	"disable_gossip_protocol":   "Usage: disable_gossip_protocol - Disable the gossip protocol",
	"enable_heartbeat_protocol": "Usage: enable_heartbeat_protocol - Enable the heartbeat protocol",
	"disable_heartbeat_protocol": "Usage: disable_heartbeat_protocol - Disable the heartbeat protocol",
	"exit":                      "Usage: exit - Shut down the node and exit application",
	"quit":                      "Usage: quit - Shut down the node and exit application",
	"help":                      "Usage: help - List all available commands",
}

var commandOrder = []string{
	"list_nodes", "list_outbound_messages", "list_inbound_messages", "connect",
	"enable_gossip_protocol", "disable_gossip_protocol",
	"enable_heartbeat_protocol", "disable_heartbeat_protocol",
	"exit", "quit", "help",
}

type protocolToggle interface {
	Enable()
	Disable()
}

func newOperatorShell(
	table *hive.NodeTable,
	outbound, inbound *hive.MessageQueue,
	gossip, heartbeat protocolToggle,
	local *hive.NodeRecord,
	logger *zap.Logger,
) *operatorShell {
	return &operatorShell{
		table:     table,
		outbound:  outbound,
		inbound:   inbound,
		gossip:    gossip,
		heartbeat: heartbeat,
		local:     local,
		logger:    logger,
		prompt:    "> ",
	}
}

// operatorShell is the interactive REPL an operator uses to inspect and
// drive a running node, grounded on cli_command_processor.py's
// CliCommandProcessor. Unlike that implementation, Go's standard bufio
// scanner plays the role its prompt_toolkit session played, since no
// equivalent readline-style library is part of this module's stack.
type operatorShell struct {
	table     *hive.NodeTable
	outbound  *hive.MessageQueue
	inbound   *hive.MessageQueue
	gossip    protocolToggle
	heartbeat protocolToggle
	local     *hive.NodeRecord
	logger    *zap.Logger
	prompt    string
}

func (s *operatorShell) run() {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(s.prompt)
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if s.dispatch(line) {
			return
		}
	}
}

// dispatch executes one command line and reports whether the shell
// should exit.
func (s *operatorShell) dispatch(line string) (exit bool) {
	parts := strings.Fields(line)
	command := parts[0]
	args := parts[1:]

	switch command {
	case "exit", "quit":
		return true
	case "help", "?":
		s.listCommands()
	case "list_nodes":
		fmt.Println(s.table.Render())
	case "list_outbound_messages":
		s.listQueue(s.outbound)
	case "list_inbound_messages":
		s.listQueue(s.inbound)
	case "connect":
		s.connect(args)
	case "enable_gossip_protocol":
		s.gossip.Enable()
	case "disable_gossip_protocol":
		s.gossip.Disable()
	case "enable_heartbeat_protocol":
		s.heartbeat.Enable()
	case "disable_heartbeat_protocol":
		s.heartbeat.Disable()
	default:
		fmt.Printf("Unknown command: %s\n", command)
	}
	return false
}

func (s *operatorShell) listCommands() {
	fmt.Println("Available commands:")
	for _, name := range commandOrder {
		fmt.Printf("%-15s - %s\n", name, commandHelp[name])
	}
}

func (s *operatorShell) listQueue(q *hive.MessageQueue) {
	entries := q.Snapshot()
	if len(entries) == 0 {
		fmt.Printf("%s queue is empty\n", q.Name())
		return
	}
	for _, m := range entries {
		fmt.Printf("[%s] %s -> %s command=%s attempts=%d\n",
			m.ID.String(), m.Envelope.Source(), m.Envelope.Destination(), m.Envelope.Command, m.SendAttemptCount)
	}
}

func (s *operatorShell) connect(args []string) {
	if len(args) < 2 {
		fmt.Println(commandHelp["connect"])
		return
	}
	ip := args[0]
	port, err := strconv.Atoi(args[1])
	if err != nil {
		fmt.Printf("invalid port %q\n", args[1])
		return
	}

	remote := hive.NewNodeRecord("remote_node", ip, port, false)
	envelope := hive.NewConnectEnvelope(s.local, remote, "Hello")
	s.table.Add(remote)
	s.outbound.Enqueue(hive.NewQueuedMessage(envelope))
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mcastellin/hivemesh/pkg/hive"
)

const usage = `hivemesh runs a single node of a gossip-and-heartbeat membership
mesh over TCP.

Every node accepts incoming connect/heartbeat/gossip frames, periodically
gossips its live membership view and heartbeats to a random peer, and
exposes an interactive shell for operator commands.

EXAMPLES:
  Start a first node:
    hivemesh serve --ip 127.0.0.1 --port 54321 --friendly-name "Node A"

  Start a second node that seeds from the first:
    hivemesh serve --ip 127.0.0.1 --port 54322 --friendly-name "Node B" \
      --seed 127.0.0.1:54321`

var (
	flagIP           string
	flagPort         int
	flagFriendlyName string
	flagLogLevel     string
	flagSeeds        []string
	flagStatusAddr   string
)

var rootCmd = &cobra.Command{
	Use:   "hivemesh",
	Short: "run a Hivemesh membership node",
	Long:  usage,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the node's receiver, sender and protocol loops",
	Long:  usage,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagIP, "ip", hive.DefaultIPAddress, "IP address this node binds and advertises")
	serveCmd.Flags().IntVar(&flagPort, "port", hive.DefaultPortNumber, "TCP port this node binds and advertises")
	serveCmd.Flags().StringVar(&flagFriendlyName, "friendly-name", hive.DefaultFriendlyName, "human-readable name advertised to peers")
	serveCmd.Flags().StringVar(&flagLogLevel, "log-level", "info", "log level: debug, info, warn, error")
	serveCmd.Flags().StringArrayVar(&flagSeeds, "seed", nil, "ip:port of a peer to connect to at startup; may be repeated")
	serveCmd.Flags().StringVar(&flagStatusAddr, "status-addr", "", "optional ip:port to serve read-only GET /nodes and /queues JSON introspection")

	rootCmd.AddCommand(serveCmd)
	rootCmd.RunE = serveCmd.RunE
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())
}

// Execute runs the cobra command tree.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	var zl zapcore.Level
	if err := zl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zl)
	cfg.EncoderConfig.TimeKey = "ts"
	return cfg.Build()
}

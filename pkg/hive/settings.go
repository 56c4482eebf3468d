package hive

import "time"

// Protocol timing and retry constants, as specified in spec.md §6.
const (
	GossipProtocolFrequency    = 10 * time.Second
	HeartbeatProtocolFrequency = 10 * time.Second
	QueueSendSleep             = 5 * time.Second
	MaxSendAttempts            = 3

	// DefaultIPAddress, DefaultPortNumber and DefaultFriendlyName are the
	// startup argument defaults (spec.md §6).
	DefaultIPAddress    = "127.0.0.1"
	DefaultPortNumber   = 54321
	DefaultFriendlyName = "Local Node"

	// TimestampFormat matches the source implementation's
	// AppSettings.TIMESTAMP_FORMAT so rendered node tables are
	// byte-for-byte comparable to the original tool's output.
	TimestampFormat = "2006-01-02 15:04:05"

	// LogLineWidth matches AppSettings.LOG_LINE_WIDTH, used by the
	// operator shell's table banners.
	LogLineWidth = 120

	// DialTimeout and FrameTimeout bound every blocking network
	// operation on the sender and receiver paths (spec.md §5: "every
	// outbound connect and every socket read/write must have a finite
	// timeout").
	DialTimeout  = 5 * time.Second
	FrameTimeout = 5 * time.Second

	// MaxFrameBytes is a read buffer size for peers using the
	// fixed-buffer framing baseline (spec.md §6). Nothing in this package
	// reads with it or limits frame size to it: Receiver and Sender
	// decode frames with encoding/json.
	MaxFrameBytes = 64 * 1024
)

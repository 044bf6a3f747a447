package connection

import (
	"time"

	"github.com/sage-x-project/relay/config"
	"github.com/sage-x-project/relay/pkg/realtime/proto"
	"github.com/sage-x-project/relay/pkg/realtime/serializer"
	"github.com/sage-x-project/relay/pkg/realtime/transport"
)

// Default timer values used when Options leaves them zero. The retry
// backoff values are implementation defaults, not wire behaviour;
// override them through Options or a config file.
const (
	DefaultConnectTimeout         = 15 * time.Second
	DefaultRealtimeRequestTimeout = 10 * time.Second
	DefaultDisconnectedRetryBase  = 500 * time.Millisecond
	DefaultDisconnectedRetryMax   = 30 * time.Second
	DefaultSuspendedRetryTimeout  = 15 * time.Second
	DefaultConnectionStateTTL     = 120 * time.Second
	DefaultHeartbeatInterval      = 30 * time.Second
	DefaultHeartbeatIdleWindow    = 5 * time.Second
	DefaultMaxAckQueue            = 100
	DefaultMaxPendingSend         = 64
)

// Options configures a Connection. The zero value is usable for tests
// once URL and Dialer are set; New applies defaults for everything else.
type Options struct {
	// URL is handed verbatim to the Dialer.
	URL string

	// Dialer opens the transport. Concrete transports are external
	// collaborators; tests use transport.FakeDialer.
	Dialer transport.Dialer

	// Serializer fixes the wire format for the connection's lifetime.
	// Defaults to the JSON serializer.
	Serializer serializer.Serializer

	// ConnectTimeout bounds the Connecting state before the attempt is
	// treated as failed.
	ConnectTimeout time.Duration

	// RealtimeRequestTimeout bounds internal round-trips such as the
	// automatic channel re-attach after a reconnect.
	RealtimeRequestTimeout time.Duration

	// DisconnectedRetryBase and DisconnectedRetryMax shape the capped
	// exponential backoff armed on entry to Disconnected.
	DisconnectedRetryBase time.Duration
	DisconnectedRetryMax  time.Duration

	// SuspendedRetryTimeout is the fixed long retry armed in Suspended.
	SuspendedRetryTimeout time.Duration

	// ConnectionStateTTL bounds how long a Disconnected connection may
	// still resume before falling to Suspended. Overridden by the
	// server's ConnectionDetails when present.
	ConnectionStateTTL time.Duration

	// HeartbeatInterval is the quiet period in Connected after which a
	// Heartbeat is sent; HeartbeatIdleWindow is how long after that any
	// frame must arrive before the connection is treated as lost.
	HeartbeatInterval   time.Duration
	HeartbeatIdleWindow time.Duration

	// MaxInboundRate paces inbound frame dispatch, frames per second.
	// Zero means unlimited until the server supplies its own rate in
	// ConnectionDetails.
	MaxInboundRate float64

	// MaxAckQueue bounds the acknowledgement tracker; the oldest entry
	// is failed with QueueOverflow when it fills.
	MaxAckQueue int

	// MaxPendingSend bounds frames queued while not yet Connected.
	MaxPendingSend int

	// ChannelDefaults is applied to channels created through the
	// registry without explicit options.
	ChannelDefaults proto.ChannelOptions

	// MaxChannelPending bounds per-channel publishes queued while
	// disconnected.
	MaxChannelPending int
}

func (o *Options) applyDefaults() {
	if o.Serializer == nil {
		o.Serializer = serializer.NewJSON()
	}
	if o.ConnectTimeout == 0 {
		o.ConnectTimeout = DefaultConnectTimeout
	}
	if o.RealtimeRequestTimeout == 0 {
		o.RealtimeRequestTimeout = DefaultRealtimeRequestTimeout
	}
	if o.DisconnectedRetryBase == 0 {
		o.DisconnectedRetryBase = DefaultDisconnectedRetryBase
	}
	if o.DisconnectedRetryMax == 0 {
		o.DisconnectedRetryMax = DefaultDisconnectedRetryMax
	}
	if o.SuspendedRetryTimeout == 0 {
		o.SuspendedRetryTimeout = DefaultSuspendedRetryTimeout
	}
	if o.ConnectionStateTTL == 0 {
		o.ConnectionStateTTL = DefaultConnectionStateTTL
	}
	if o.HeartbeatInterval == 0 {
		o.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if o.HeartbeatIdleWindow == 0 {
		o.HeartbeatIdleWindow = DefaultHeartbeatIdleWindow
	}
	if o.MaxAckQueue == 0 {
		o.MaxAckQueue = DefaultMaxAckQueue
	}
	if o.MaxPendingSend == 0 {
		o.MaxPendingSend = DefaultMaxPendingSend
	}
	if o.MaxChannelPending == 0 {
		o.MaxChannelPending = DefaultMaxPendingSend
	}
}

// OptionsFromConfig maps a loaded config file onto Options. Dialer and
// Serializer still need to be supplied by the caller.
func OptionsFromConfig(cfg *config.Config) Options {
	o := Options{
		URL:                    cfg.Client.Endpoint,
		ConnectTimeout:         cfg.Client.RealtimeRequestTimeout,
		RealtimeRequestTimeout: cfg.Client.RealtimeRequestTimeout,
		DisconnectedRetryBase:  cfg.Client.DisconnectedRetryTimeout,
		SuspendedRetryTimeout:  cfg.Client.SuspendedRetryTimeout,
		MaxInboundRate:         cfg.Client.MaxInboundRate,
		MaxAckQueue:            cfg.Client.MaxAckQueue,
	}
	if cfg.Channel.Encrypted {
		o.ChannelDefaults.Encrypted = true
	}
	return o
}

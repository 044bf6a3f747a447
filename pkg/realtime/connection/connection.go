package connection

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/ratelimit"
	"golang.org/x/sync/errgroup"

	"github.com/sage-x-project/relay/internal/logger"
	"github.com/sage-x-project/relay/pkg/realtime/ack"
	"github.com/sage-x-project/relay/pkg/realtime/channel"
	"github.com/sage-x-project/relay/pkg/realtime/codec"
	"github.com/sage-x-project/relay/pkg/realtime/proto"
	"github.com/sage-x-project/relay/pkg/realtime/transport"
)

// StateListener is notified of every connection state transition, in
// the order the transitions occurred.
type StateListener func(state State, reason *proto.ErrorInfo)

// Connection is the client's connection state machine. It
// exclusively owns the active transport and the acknowledgement
// tracker, hosts the channel registry, and processes every input
// through a single actor goroutine.
//
// Connection implements channel.Bus; channels reach the transport only
// through that narrow surface.
type Connection struct {
	opts  Options
	log   logger.Logger
	inbox *mailbox

	group    *errgroup.Group
	groupCtx context.Context
	stopHB   context.CancelFunc

	tracker  *ack.Tracker
	registry *channel.Registry
	pipeline *codec.Pipeline
	limiter  atomic.Value // ratelimit.Limiter

	msgSerial int64 // atomic

	// Snapshot fields below are written only by the actor goroutine and
	// read by user goroutines under mu.
	mu            sync.Mutex
	state         State
	lastErr       *proto.ErrorInfo
	connID        string
	connKey       string
	connSerial    int64
	details       *proto.ConnectionDetails
	listeners     []StateListener
	lastFrameAt   time.Time
	heartbeatSent bool

	// Actor-only fields; never touched outside the actor goroutine.
	transport      transport.Transport
	pendingSend    []*proto.ProtocolMessage
	retryCount     int
	disconnectedAt time.Time
	timerGen       uint64
	transportGen   uint64
	connectStart   time.Time
	connectFutures []*ack.Future
	closeFutures   []*ack.Future
	wasConnected   bool
	priorConnID    string
}

// New constructs a Connection in Initialized state and starts its actor
// loop. The connection does not dial until Connect is called.
func New(opts Options) *Connection {
	opts.applyDefaults()

	c := &Connection{
		opts:    opts,
		inbox:   newMailbox(),
		state:   StateInitialized,
		tracker: ack.NewTracker(opts.MaxAckQueue),
		log: logger.GetDefaultLogger().WithFields(
			logger.String("component", "connection"),
			logger.String("local_id", uuid.NewString()[:8]),
		),
	}
	c.pipeline = codec.Default()
	c.setLimiter(opts.MaxInboundRate)
	c.registry = channel.NewRegistry(c, opts.ChannelDefaults, opts.MaxChannelPending)

	hbCtx, cancel := context.WithCancel(context.Background())
	c.stopHB = cancel
	c.group, c.groupCtx = errgroup.WithContext(hbCtx)
	c.group.Go(c.runActor)
	c.group.Go(func() error { return c.runHeartbeatMonitor(c.groupCtx) })
	return c
}

func (c *Connection) setLimiter(rate float64) {
	if rate > 0 {
		c.limiter.Store(ratelimit.New(int(rate)))
	} else {
		c.limiter.Store(ratelimit.NewUnlimited())
	}
}

// Channels returns the connection's channel registry.
func (c *Connection) Channels() *channel.Registry { return c.registry }

// State returns the current connection state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Reason returns the ErrorInfo attached to the most recent state
// transition, if any.
func (c *Connection) Reason() *proto.ErrorInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// ID returns the server-assigned connection_id, or "" before Connected.
func (c *Connection) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connID
}

// Key returns the resume key, or "" outside a resumable window.
func (c *Connection) Key() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connKey
}

// Details returns the ConnectionDetails from the most recent Connected
// frame, or nil.
func (c *Connection) Details() *proto.ConnectionDetails {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.details
}

// OnStateChange registers a listener for connection state transitions.
func (c *Connection) OnStateChange(l StateListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// Connect initiates a connection attempt and blocks until Connected,
// a terminal failure, or ctx is done.
func (c *Connection) Connect(ctx context.Context) error {
	future := ack.NewFuture()
	c.inbox.put(inConnect{future: future})
	return future.Wait(ctx)
}

// Close initiates an orderly shutdown and blocks until Closed or ctx is
// done. Closing fails all outstanding publish handles with Disconnected.
func (c *Connection) Close(ctx context.Context) error {
	future := ack.NewFuture()
	c.inbox.put(inClose{future: future})
	return future.Wait(ctx)
}

// Send enqueues pm for transmission (channel.Bus). It never blocks on a
// network round-trip; frames sent while not Connected are queued
// (bounded) or, in Initialized, Closing, Closed or Failed, silently dropped.
func (c *Connection) Send(pm *proto.ProtocolMessage) {
	c.inbox.put(inSend{pm: pm})
}

// NextMsgSerial returns the next monotonically increasing msg_serial
// (channel.Bus).
func (c *Connection) NextMsgSerial() int64 {
	return atomic.AddInt64(&c.msgSerial, 1) - 1
}

// Tracker returns the acknowledgement tracker (channel.Bus).
func (c *Connection) Tracker() *ack.Tracker { return c.tracker }

// IsConnected reports whether the connection is Connected (channel.Bus).
func (c *Connection) IsConnected() bool { return c.State() == StateConnected }

// Codec returns the codec pipeline (channel.Bus).
func (c *Connection) Codec() *codec.Pipeline { return c.pipeline }

// ConnectionID returns the current connection_id (channel.Bus).
func (c *Connection) ConnectionID() string { return c.ID() }

// WireIsText reports whether the active serializer produces a
// text-oriented wire format, which controls the codec's base64 step.
func (c *Connection) WireIsText() bool {
	return c.opts.Serializer.Name() == "json"
}

// Shutdown tears the actor down after the connection has reached a
// terminal state. It is not an orderly close; call Close first.
func (c *Connection) Shutdown() {
	c.stopHB()
	c.inbox.close()
	_ = c.group.Wait()
}

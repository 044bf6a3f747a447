package channel

import (
	"context"
	"fmt"
	"sync"

	"github.com/sage-x-project/relay/internal/logger"
	"github.com/sage-x-project/relay/internal/metrics"
	"github.com/sage-x-project/relay/pkg/realtime/ack"
	"github.com/sage-x-project/relay/pkg/realtime/proto"
)

// MessageHandler receives inbound messages dispatched in frame order.
type MessageHandler func(*proto.Message)

// PresenceHandler receives inbound presence entries.
type PresenceHandler func(*proto.PresenceMessage)

// StateListener is notified of every channel state transition.
type StateListener func(state State, reason *proto.ErrorInfo)

type pendingPublish struct {
	msg    *proto.Message
	future *ack.Future
}

type stateChange struct {
	state  State
	reason *proto.ErrorInfo
}

// Channel is the per-named-channel child state machine riding on a
// connection. Create one through Registry.Get; the registry owns the
// instance.
type Channel struct {
	name string
	bus  Bus
	log  logger.Logger

	mu              sync.Mutex
	state           State
	opts            proto.ChannelOptions
	channelSerial   string
	lastErr         *proto.ErrorInfo
	presenceSyncing bool

	subscribers    []MessageHandler
	presenceSubs   []PresenceHandler
	stateListeners []StateListener
	notifyQueue    []stateChange
	notifying      bool

	attachFuture *ack.Future
	detachFuture *ack.Future

	pending    []pendingPublish
	maxPending int
}

// New constructs a Channel in Initialized state. Registry is the only
// intended caller; exported for tests that want a Channel without a
// full registry.
func New(name string, bus Bus, opts proto.ChannelOptions, maxPending int) *Channel {
	return &Channel{
		name:       name,
		bus:        bus,
		opts:       opts,
		state:      StateInitialized,
		log:        logger.GetDefaultLogger().WithChannel(name),
		maxPending: maxPending,
	}
}

// Name returns the channel's name.
func (c *Channel) Name() string { return c.name }

// State returns the current state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Options returns the channel's codec/capability options.
func (c *Channel) Options() proto.ChannelOptions {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opts
}

// OnStateChange registers a listener for channel state transitions.
// State-change notifications are delivered in the order the transitions
// occurred.
func (c *Channel) OnStateChange(l StateListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stateListeners = append(c.stateListeners, l)
}

// setState is called with c.mu held. Listener dispatch goes through a
// single drainer over an ordered queue, so notifications arrive in the
// order the transitions occurred even when transitions come in quick
// succession.
func (c *Channel) setState(s State, reason *proto.ErrorInfo) {
	c.state = s
	c.lastErr = reason
	metrics.ChannelStateTransitions.WithLabelValues(s.String()).Inc()
	c.log.Info("channel state transition", logger.String("state", s.String()))

	c.notifyQueue = append(c.notifyQueue, stateChange{state: s, reason: reason})
	if !c.notifying {
		c.notifying = true
		go c.drainNotifications()
	}
}

func (c *Channel) drainNotifications() {
	for {
		c.mu.Lock()
		if len(c.notifyQueue) == 0 {
			c.notifying = false
			c.mu.Unlock()
			return
		}
		ev := c.notifyQueue[0]
		c.notifyQueue = c.notifyQueue[1:]
		listeners := append([]StateListener(nil), c.stateListeners...)
		c.mu.Unlock()

		for _, l := range listeners {
			l(ev.state, ev.reason)
		}
	}
}

// Attach requests the server attach this channel, blocking until
// Attached, Failed, or ctx is done.
func (c *Channel) Attach(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateAttached {
		c.mu.Unlock()
		return nil
	}
	future := ack.NewFuture()
	c.attachFuture = future
	c.setState(StateAttaching, nil)
	modes := c.opts.Modes
	c.mu.Unlock()

	c.bus.Send(&proto.ProtocolMessage{
		Action:  proto.ActionAttach,
		Channel: c.name,
		Flags:   modeFlags(modes),
	})

	if err := future.Wait(ctx); err != nil {
		return err
	}
	return nil
}

func modeFlags(modes map[proto.ChannelMode]bool) proto.Flags {
	var f proto.Flags
	if modes[proto.ModePresence] || modes[proto.ModePresenceSubscribe] {
		f |= proto.FlagHasPresence
	}
	return f
}

// Detach requests the server detach this channel.
func (c *Channel) Detach(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateDetached || c.state == StateInitialized {
		c.mu.Unlock()
		return nil
	}
	future := ack.NewFuture()
	c.detachFuture = future
	c.setState(StateDetaching, nil)
	c.mu.Unlock()

	c.bus.Send(&proto.ProtocolMessage{Action: proto.ActionDetach, Channel: c.name})

	return future.Wait(ctx)
}

// Subscribe registers fn to receive inbound messages. It returns an
// unsubscribe function.
func (c *Channel) Subscribe(fn MessageHandler) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, fn)
	idx := len(c.subscribers) - 1
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if idx < len(c.subscribers) {
			c.subscribers[idx] = nil
		}
	}
}

// SubscribePresence registers fn to receive inbound presence entries.
func (c *Channel) SubscribePresence(fn PresenceHandler) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.presenceSubs = append(c.presenceSubs, fn)
	idx := len(c.presenceSubs) - 1
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if idx < len(c.presenceSubs) {
			c.presenceSubs[idx] = nil
		}
	}
}

// Publish constructs a Message from name/data, encodes it through the
// codec pipeline, assigns it the connection's next msg_serial, and hands
// it to the acknowledgement tracker. It blocks until the matching
// Ack/Nack arrives or ctx is done.
func (c *Channel) Publish(ctx context.Context, name string, data interface{}) error {
	msg := &proto.Message{Name: name, Data: data}

	c.mu.Lock()
	opts := c.opts
	c.mu.Unlock()

	if err := c.bus.Codec().EncodeMessage(msg, opts, c.bus.WireIsText()); err != nil {
		return fmt.Errorf("channel: encode publish payload: %w", err)
	}

	c.mu.Lock()
	if !c.bus.IsConnected() {
		if c.maxPending > 0 && len(c.pending) >= c.maxPending {
			c.mu.Unlock()
			return proto.NewError(proto.ErrCodeQueueOverflow, "publish queue full while disconnected")
		}
		future := ack.NewFuture()
		c.pending = append(c.pending, pendingPublish{msg: msg, future: future})
		c.mu.Unlock()
		return future.Wait(ctx)
	}
	c.mu.Unlock()

	return c.sendPublish(ctx, msg)
}

func (c *Channel) sendPublish(ctx context.Context, msg *proto.Message) error {
	serial := c.bus.NextMsgSerial()
	pm := &proto.ProtocolMessage{
		Action:    proto.ActionMessage,
		Channel:   c.name,
		MsgSerial: serial,
		Messages:  []proto.Message{*msg},
	}
	future := c.bus.Tracker().Add(serial, 1, pm)
	c.bus.Send(pm)
	metrics.MessagesPublished.WithLabelValues(c.name).Inc()
	return future.Wait(ctx)
}

// FlushPending sends every publish queued while disconnected. Called by
// the channel itself whenever it becomes Attached.
func (c *Channel) FlushPending() {
	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	for _, p := range pending {
		serial := c.bus.NextMsgSerial()
		pm := &proto.ProtocolMessage{
			Action:    proto.ActionMessage,
			Channel:   c.name,
			MsgSerial: serial,
			Messages:  []proto.Message{*p.msg},
		}
		entryFuture := c.bus.Tracker().Add(serial, 1, pm)
		c.bus.Send(pm)
		// Bridge the tracker's future to the caller's original future
		// so Publish's blocked goroutine still observes the outcome.
		go func(pending *ack.Future, real *ack.Future) {
			pending.Resolve(<-real.Done())
		}(p.future, entryFuture)
	}
}

// HandleFrame dispatches an inbound ProtocolMessage addressed to this
// channel.
func (c *Channel) HandleFrame(pm *proto.ProtocolMessage) {
	switch pm.Action {
	case proto.ActionAttached:
		c.handleAttached(pm)
	case proto.ActionDetached:
		c.handleDetached(pm)
	case proto.ActionMessage:
		c.handleMessages(pm)
	case proto.ActionPresence:
		c.handlePresence(pm)
	case proto.ActionSync:
		c.handleSync(pm)
	case proto.ActionError:
		c.handleError(pm)
	}
}

func (c *Channel) handleAttached(pm *proto.ProtocolMessage) {
	c.mu.Lock()
	c.channelSerial = pm.ChannelSerial
	c.presenceSyncing = pm.Flags.HasPresence()
	future := c.attachFuture
	c.attachFuture = nil
	c.setState(StateAttached, nil)
	c.mu.Unlock()

	if future != nil {
		future.Resolve(nil)
	}
	c.FlushPending()
}

func (c *Channel) handleDetached(pm *proto.ProtocolMessage) {
	c.mu.Lock()
	future := c.detachFuture
	c.detachFuture = nil
	c.setState(StateDetached, pm.Error)
	c.mu.Unlock()

	if future != nil {
		future.Resolve(nil)
	}
}

func (c *Channel) handleError(pm *proto.ProtocolMessage) {
	c.mu.Lock()
	attachFuture, detachFuture := c.attachFuture, c.detachFuture
	c.attachFuture, c.detachFuture = nil, nil
	c.setState(StateFailed, pm.Error)
	c.mu.Unlock()

	if attachFuture != nil {
		attachFuture.Resolve(pm.Error)
	}
	if detachFuture != nil {
		detachFuture.Resolve(pm.Error)
	}
}

func (c *Channel) handleMessages(pm *proto.ProtocolMessage) {
	pm.Normalize()
	c.mu.Lock()
	opts := c.opts
	subs := append([]MessageHandler(nil), c.subscribers...)
	c.mu.Unlock()

	for i := range pm.Messages {
		m := &pm.Messages[i]
		if err := c.bus.Codec().DecodeMessage(m, opts); err != nil {
			c.log.Warn("failed to decode inbound message", logger.Error(err))
		}
		metrics.MessagesDelivered.WithLabelValues(c.name).Inc()
		for _, fn := range subs {
			if fn != nil {
				fn(m)
			}
		}
	}
}

func (c *Channel) handlePresence(pm *proto.ProtocolMessage) {
	pm.Normalize()
	c.mu.Lock()
	opts := c.opts
	subs := append([]PresenceHandler(nil), c.presenceSubs...)
	c.mu.Unlock()

	for i := range pm.Presence {
		p := &pm.Presence[i]
		if err := c.bus.Codec().DecodePresence(p, opts); err != nil {
			c.log.Warn("failed to decode inbound presence", logger.Error(err))
		}
		for _, fn := range subs {
			if fn != nil {
				fn(p)
			}
		}
	}
}

func (c *Channel) handleSync(pm *proto.ProtocolMessage) {
	c.handlePresence(pm)
	if pm.ChannelSerial == "" {
		c.mu.Lock()
		c.presenceSyncing = false
		c.mu.Unlock()
	}
}

// OnConnectionDisconnected suppresses user operations (already blocked
// via bus.IsConnected) but retains the channel's current state so it can
// auto-reattach on reconnection.
func (c *Channel) OnConnectionDisconnected() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateAttached || c.state == StateAttaching {
		c.log.Info("channel retained across disconnect, will reattach on reconnection")
	}
}

// OnConnectionSuspended moves any non-terminal channel into Suspended;
// user operations fail until the connection recovers.
func (c *Channel) OnConnectionSuspended() {
	c.mu.Lock()
	if c.state.IsTerminal() {
		c.mu.Unlock()
		return
	}
	c.setState(StateSuspended, proto.NewError(proto.ErrCodeChannelSuspended, "connection suspended"))
	c.mu.Unlock()
}

// Reattach re-sends Attach after the connection recovers from a
// Disconnected or Suspended interruption, for any channel that was
// previously attached or attaching.
func (c *Channel) Reattach(ctx context.Context) error {
	c.mu.Lock()
	needsReattach := c.state == StateAttached || c.state == StateAttaching || c.state == StateSuspended
	c.mu.Unlock()
	if !needsReattach {
		return nil
	}
	return c.Attach(ctx)
}

package connection

import (
	"context"
	"time"

	"go.uber.org/ratelimit"

	"github.com/sage-x-project/relay/internal/logger"
	"github.com/sage-x-project/relay/internal/metrics"
	"github.com/sage-x-project/relay/pkg/realtime/proto"
	"github.com/sage-x-project/relay/pkg/realtime/transport"
)

// runActor is the serialized event loop: one input at a time, with
// transitions and their effects executed inline, so no other
// synchronization is needed for the actor-only fields.
func (c *Connection) runActor() error {
	for {
		in, ok := c.inbox.take()
		if !ok {
			return nil
		}
		c.handle(in)
	}
}

func (c *Connection) handle(in input) {
	switch ev := in.(type) {
	case inConnect:
		c.handleConnect(ev)
	case inClose:
		c.handleClose(ev)
	case inSend:
		c.handleSend(ev)
	case inDialDone:
		c.handleDialDone(ev)
	case inTransportClosed:
		c.handleTransportClosed(ev)
	case inTransportError:
		c.handleTransportError(ev)
	case inFrame:
		handled := c.processFrame(ev.pm)
		if ev.handled != nil {
			ev.handled <- handled
		}
	case inTimer:
		c.handleTimer(ev)
	case inHeartbeatTick:
		c.handleHeartbeatTick()
	}
}

// --- user actions ---

func (c *Connection) handleConnect(ev inConnect) {
	switch c.currentState() {
	case StateConnected:
		ev.future.Resolve(nil)
	case StateConnecting:
		c.connectFutures = append(c.connectFutures, ev.future)
	case StateClosing:
		ev.future.Resolve(proto.NewError(proto.ErrCodeDisconnected, "connection is closing"))
	default:
		c.connectFutures = append(c.connectFutures, ev.future)
		c.enterState(StateConnecting, nil)
	}
}

func (c *Connection) handleClose(ev inClose) {
	switch c.currentState() {
	case StateClosed:
		// close() in Closed is a no-op.
		ev.future.Resolve(nil)
	case StateClosing:
		c.closeFutures = append(c.closeFutures, ev.future)
	default:
		c.closeFutures = append(c.closeFutures, ev.future)
		if c.transport != nil {
			c.enterState(StateClosing, nil)
		} else {
			c.enterState(StateClosed, nil)
		}
	}
}

func (c *Connection) handleSend(ev inSend) {
	switch c.currentState() {
	case StateConnected:
		if err := c.writeFrame(ev.pm); err != nil {
			c.log.Warn("frame write failed", logger.Error(err))
			c.inbox.put(inTransportError{err: err, gen: c.transportGen})
		}
	case StateConnecting, StateDisconnected, StateSuspended:
		if len(c.pendingSend) >= c.opts.MaxPendingSend {
			c.pendingSend = c.pendingSend[1:]
			c.log.Warn("pending send queue full, dropping oldest frame")
		}
		c.pendingSend = append(c.pendingSend, ev.pm)
	default:
		// Initialized, Closing, Closed, Failed: silently dropped.
	}
}

// --- transport events ---

func (c *Connection) handleDialDone(ev inDialDone) {
	if ev.gen != c.transportGen || c.currentState() != StateConnecting {
		// A timer or user action superseded this attempt.
		if ev.transport != nil {
			ev.transport.Destroy()
		}
		return
	}
	if ev.err != nil {
		c.log.Warn("transport dial failed", logger.Error(ev.err))
		if transport.IsFatal(ev.err) {
			c.enterState(StateFailed, proto.NewError(proto.ErrCodeConnectionFailed, ev.err.Error()))
		} else {
			c.enterState(StateDisconnected, proto.NewError(proto.ErrCodeDisconnected, ev.err.Error()))
		}
		return
	}

	c.transport = ev.transport
	connect := &proto.ProtocolMessage{Action: proto.ActionConnect}
	if key := c.Key(); key != "" {
		// Resume attempt: present the prior key and serial continuity.
		connect.ConnectionKey = key
		c.mu.Lock()
		connect.ConnectionSerial = c.connSerial
		c.mu.Unlock()
	}
	if err := c.writeFrame(connect); err != nil {
		c.log.Warn("connect frame write failed", logger.Error(err))
		c.enterState(StateDisconnected, proto.NewError(proto.ErrCodeDisconnected, err.Error()))
	}
}

func (c *Connection) handleTransportClosed(ev inTransportClosed) {
	if ev.gen != c.transportGen {
		return
	}
	switch c.currentState() {
	case StateClosing:
		c.enterState(StateClosed, nil)
	case StateConnecting, StateConnected:
		var reason *proto.ErrorInfo
		if ev.reason != nil {
			reason = proto.NewError(proto.ErrCodeDisconnected, ev.reason.Error())
		}
		c.enterState(StateDisconnected, reason)
	}
}

// handleTransportError branches on recoverability the same way
// handleErrorFrame branches on ErrorInfo.IsFatal: a transient error
// schedules a reconnect, a transport.FatalError fails the connection
// outright.
func (c *Connection) handleTransportError(ev inTransportError) {
	if ev.gen != c.transportGen {
		return
	}
	switch c.currentState() {
	case StateConnecting, StateConnected:
		if transport.IsFatal(ev.err) {
			c.enterState(StateFailed, proto.NewError(proto.ErrCodeConnectionFailed, ev.err.Error()))
		} else {
			c.enterState(StateDisconnected, proto.NewError(proto.ErrCodeDisconnected, ev.err.Error()))
		}
	}
}

// --- timers ---

func (c *Connection) handleTimer(ev inTimer) {
	if ev.gen != c.timerGen {
		return
	}
	switch ev.kind {
	case timerConnect:
		if c.currentState() == StateConnecting {
			c.enterState(StateFailed, proto.NewError(proto.ErrCodeTimeout, "timed out waiting for Connected"))
		}
	case timerRetry:
		switch c.currentState() {
		case StateDisconnected:
			c.retryCount++
			metrics.ConnectionRetries.WithLabelValues("disconnected").Inc()
			c.enterState(StateConnecting, nil)
		case StateSuspended:
			metrics.ConnectionRetries.WithLabelValues("suspended").Inc()
			c.enterState(StateConnecting, nil)
		}
	case timerStateTTL:
		if c.currentState() == StateDisconnected {
			c.enterState(StateSuspended, proto.NewError(proto.ErrCodeDisconnected, "connection state ttl elapsed"))
		}
	case timerClose:
		if c.currentState() == StateClosing {
			c.enterState(StateClosed, nil)
		}
	}
}

func (c *Connection) handleHeartbeatTick() {
	if c.currentState() != StateConnected {
		return
	}
	c.mu.Lock()
	idle := time.Since(c.lastFrameAt)
	sent := c.heartbeatSent
	c.mu.Unlock()

	switch {
	case sent && idle > c.opts.HeartbeatInterval+c.opts.HeartbeatIdleWindow:
		c.enterState(StateDisconnected, proto.NewError(proto.ErrCodeTimeout, "no frame received within heartbeat window"))
	case !sent && idle > c.opts.HeartbeatInterval:
		c.mu.Lock()
		c.heartbeatSent = true
		c.mu.Unlock()
		if err := c.writeFrame(&proto.ProtocolMessage{Action: proto.ActionHeartbeat}); err != nil {
			c.inbox.put(inTransportError{err: err, gen: c.transportGen})
		}
	}
}

// runHeartbeatMonitor posts ticks into the actor inbox; the actor does
// all the deciding so the monitor never touches connection state.
func (c *Connection) runHeartbeatMonitor(ctx context.Context) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.inbox.put(inHeartbeatTick{})
		}
	}
}

// --- inbound frames ---

// processFrame applies one inbound ProtocolMessage to the state
// machine. It reports whether the frame was handled; in Closed and
// Failed every frame is ignored.
func (c *Connection) processFrame(pm *proto.ProtocolMessage) bool {
	state := c.currentState()
	if state == StateClosed || state == StateFailed {
		return false
	}

	switch pm.Action {
	case proto.ActionConnected:
		c.handleConnectedFrame(pm)
	case proto.ActionDisconnect, proto.ActionDisconnected:
		c.enterState(StateDisconnected, pm.Error)
	case proto.ActionClose:
		// The peer protocol never requires the server to initiate Close;
		// received in Initialized it is a no-op, elsewhere it is answered
		// by an orderly shutdown.
		if state != StateInitialized {
			if c.transport != nil {
				c.enterState(StateClosing, pm.Error)
			} else {
				c.enterState(StateClosed, pm.Error)
			}
		}
	case proto.ActionClosed:
		if state == StateClosing {
			c.enterState(StateClosed, pm.Error)
		}
	case proto.ActionError:
		c.handleErrorFrame(pm)
	case proto.ActionHeartbeat:
		// Receipt alone refreshed the idle clock.
	case proto.ActionAck:
		c.tracker.Ack(pm.MsgSerial, frameCount(pm))
	case proto.ActionNack:
		c.tracker.Nack(pm.MsgSerial, frameCount(pm), pm.Error)
	case proto.ActionAttached, proto.ActionDetached, proto.ActionMessage,
		proto.ActionPresence, proto.ActionSync:
		c.registry.Dispatch(pm)
	default:
		c.enterState(StateFailed, proto.NewError(proto.ErrCodeProtocolViolation,
			"unrecognized protocol action "+pm.Action.String()))
	}
	return true
}

func frameCount(pm *proto.ProtocolMessage) int {
	if pm.Count <= 0 {
		return 1
	}
	return pm.Count
}

func (c *Connection) handleConnectedFrame(pm *proto.ProtocolMessage) {
	resumed := c.priorConnID != "" && pm.ConnectionID == c.priorConnID

	c.mu.Lock()
	c.connID = pm.ConnectionID
	c.connSerial = pm.ConnectionSerial
	if pm.ConnectionKey != "" {
		c.connKey = pm.ConnectionKey
	}
	if pm.ConnectionDetails != nil {
		c.details = pm.ConnectionDetails
		if pm.ConnectionDetails.ConnectionKey != "" {
			c.connKey = pm.ConnectionDetails.ConnectionKey
		}
	}
	c.mu.Unlock()

	if pm.ConnectionDetails != nil && pm.ConnectionDetails.MaxInboundRate > 0 {
		c.setLimiter(pm.ConnectionDetails.MaxInboundRate)
	}

	if c.currentState() != StateConnecting {
		// A Connected frame while already Connected just refreshed the
		// details above.
		return
	}

	if c.wasConnected {
		if resumed {
			metrics.ConnectionResumes.WithLabelValues("resumed").Inc()
		} else {
			metrics.ConnectionResumes.WithLabelValues("fresh").Inc()
			c.tracker.FailAll(proto.NewError(proto.ErrCodeDisconnected, "connection not resumed"))
		}
	}
	c.priorConnID = pm.ConnectionID
	c.enterState(StateConnected, nil)

	if c.wasConnected && resumed {
		// Replay in-flight publishes with their original msg_serial.
		for _, e := range c.tracker.Pending() {
			if err := c.writeFrame(e.Message); err != nil {
				c.inbox.put(inTransportError{err: err, gen: c.transportGen})
				break
			}
		}
	}
	c.wasConnected = true
}

func (c *Connection) handleErrorFrame(pm *proto.ProtocolMessage) {
	if pm.Channel != "" {
		c.registry.Dispatch(pm)
		return
	}
	switch c.currentState() {
	case StateConnecting:
		c.enterState(StateFailed, pm.Error)
	case StateConnected:
		if pm.Error.IsFatal() {
			c.enterState(StateFailed, pm.Error)
		} else {
			c.log.Warn("non-fatal error frame", logger.Error(pm.Error))
		}
	}
}

// --- transitions ---

func (c *Connection) currentState() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// enterState performs the exit obligations of the current state and
// the entry obligations of next, then notifies listeners in transition
// order. Only the actor goroutine calls it.
func (c *Connection) enterState(next State, reason *proto.ErrorInfo) {
	c.mu.Lock()
	prev := c.state
	c.state = next
	c.lastErr = reason
	c.mu.Unlock()

	// Exit: every state's pending timers die with its generation.
	c.timerGen++
	gen := c.timerGen

	metrics.ConnectionStateTransitions.WithLabelValues(next.String()).Inc()
	for s := StateInitialized; s <= StateFailed; s++ {
		v := 0.0
		if s == next {
			v = 1.0
		}
		metrics.ConnectionState.WithLabelValues(s.String()).Set(v)
	}
	c.log.Info("connection state transition",
		logger.String("from", prev.String()),
		logger.String("to", next.String()))

	switch next {
	case StateConnecting:
		c.connectStart = time.Now()
		c.startDial()
		c.armTimer(timerConnect, c.opts.ConnectTimeout, gen)

	case StateConnected:
		c.retryCount = 0
		c.disconnectedAt = time.Time{}
		c.mu.Lock()
		c.lastFrameAt = time.Now()
		c.heartbeatSent = false
		c.mu.Unlock()
		metrics.ConnectDuration.Observe(time.Since(c.connectStart).Seconds())
		for _, f := range c.connectFutures {
			f.Resolve(nil)
		}
		c.connectFutures = nil
		c.drainPendingSends()
		c.reattachChannels()

	case StateDisconnected:
		c.destroyTransport()
		if c.disconnectedAt.IsZero() {
			c.disconnectedAt = time.Now()
		}
		remaining := c.stateTTL() - time.Since(c.disconnectedAt)
		if remaining <= 0 {
			c.enterState(StateSuspended, proto.NewError(proto.ErrCodeDisconnected, "connection state ttl elapsed"))
			return
		}
		c.armTimer(timerStateTTL, remaining, gen)
		c.armTimer(timerRetry, c.retryDelay(), gen)
		for _, ch := range c.registry.All() {
			ch.OnConnectionDisconnected()
		}

	case StateSuspended:
		c.destroyTransport()
		c.armTimer(timerRetry, c.opts.SuspendedRetryTimeout, gen)
		c.mu.Lock()
		c.connKey = "" // a suspended connection reconnects fresh
		c.mu.Unlock()
		c.tracker.FailAll(proto.NewError(proto.ErrCodeDisconnected, "connection suspended"))
		for _, ch := range c.registry.All() {
			ch.OnConnectionSuspended()
		}

	case StateClosing:
		if err := c.writeFrame(&proto.ProtocolMessage{Action: proto.ActionClose}); err != nil {
			c.log.Warn("close frame write failed", logger.Error(err))
			c.enterState(StateClosed, nil)
			return
		}
		c.armTimer(timerClose, c.opts.ConnectTimeout, gen)

	case StateClosed:
		c.destroyTransport()
		c.mu.Lock()
		c.connKey = ""
		c.mu.Unlock()
		c.tracker.FailAll(proto.NewError(proto.ErrCodeDisconnected, "connection closed"))
		c.pendingSend = nil
		for _, f := range c.closeFutures {
			f.Resolve(nil)
		}
		c.closeFutures = nil
		for _, f := range c.connectFutures {
			f.Resolve(proto.NewError(proto.ErrCodeDisconnected, "connection closed"))
		}
		c.connectFutures = nil

	case StateFailed:
		c.destroyTransport()
		c.tracker.FailAll(reason)
		c.pendingSend = nil
		for _, f := range c.connectFutures {
			f.Resolve(reason)
		}
		c.connectFutures = nil
	}

	c.notifyListeners(next, reason)
}

func (c *Connection) notifyListeners(s State, reason *proto.ErrorInfo) {
	c.mu.Lock()
	listeners := append([]StateListener(nil), c.listeners...)
	c.mu.Unlock()
	// Synchronous dispatch from the actor preserves transition order;
	// listeners must not block.
	for _, l := range listeners {
		l(s, reason)
	}
}

func (c *Connection) armTimer(kind timerKind, d time.Duration, gen uint64) {
	time.AfterFunc(d, func() {
		c.inbox.put(inTimer{kind: kind, gen: gen})
	})
}

func (c *Connection) retryDelay() time.Duration {
	d := c.opts.DisconnectedRetryBase << uint(c.retryCount)
	if d > c.opts.DisconnectedRetryMax || d <= 0 {
		d = c.opts.DisconnectedRetryMax
	}
	return d
}

func (c *Connection) stateTTL() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.details != nil && c.details.ConnectionStateTTL > 0 {
		return time.Duration(c.details.ConnectionStateTTL) * time.Millisecond
	}
	return c.opts.ConnectionStateTTL
}

// --- effects ---

// startDial advances the transport generation so events from any
// prior transport are recognizably stale, then dials asynchronously.
func (c *Connection) startDial() {
	c.transportGen++
	gen := c.transportGen
	handlers := transport.Handlers{
		OnText:   func(frame []byte) { c.onInboundFrame(frame) },
		OnBinary: func(frame []byte) { c.onInboundFrame(frame) },
		OnClose:  func(reason error) { c.inbox.put(inTransportClosed{reason: reason, gen: gen}) },
		OnError:  func(err error) { c.inbox.put(inTransportError{err: err, gen: gen}) },
	}
	url, dialer, timeout := c.opts.URL, c.opts.Dialer, c.opts.ConnectTimeout
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		t, err := dialer(ctx, url, handlers)
		c.inbox.put(inDialDone{transport: t, err: err, gen: gen})
	}()
}

// onInboundFrame runs on the transport's goroutine: it paces delivery
// against max_inbound_rate, decodes the frame, refreshes the idle
// clock, and posts the result into the actor inbox.
func (c *Connection) onInboundFrame(frame []byte) {
	before := time.Now()
	c.limiter.Load().(ratelimit.Limiter).Take()
	if time.Since(before) > time.Millisecond {
		metrics.InboundFramesPaced.Inc()
	}

	pm, err := c.opts.Serializer.Decode(frame)
	if err != nil {
		c.log.Warn("malformed inbound frame", logger.Error(err))
		return
	}

	c.mu.Lock()
	c.lastFrameAt = time.Now()
	c.heartbeatSent = false
	c.mu.Unlock()

	c.inbox.put(inFrame{pm: pm})
}

// injectFrame posts pm into the actor and waits for it to be processed,
// reporting whether the state machine handled it. Used by tests to
// exercise the machine deterministically.
func (c *Connection) injectFrame(pm *proto.ProtocolMessage) bool {
	done := make(chan bool, 1)
	c.inbox.put(inFrame{pm: pm, handled: done})
	return <-done
}

func (c *Connection) writeFrame(pm *proto.ProtocolMessage) error {
	if c.transport == nil {
		return proto.NewError(proto.ErrCodeDisconnected, "no active transport")
	}
	data, err := c.opts.Serializer.Encode(pm)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.RealtimeRequestTimeout)
	defer cancel()
	return c.transport.Send(ctx, data, c.WireIsText())
}

func (c *Connection) drainPendingSends() {
	pending := c.pendingSend
	c.pendingSend = nil
	for i, pm := range pending {
		if err := c.writeFrame(pm); err != nil {
			c.pendingSend = append(c.pendingSend, pending[i:]...)
			c.inbox.put(inTransportError{err: err, gen: c.transportGen})
			return
		}
	}
}

// reattachChannels re-sends Attach for channels interrupted by a
// disconnect or suspension. Runs off-actor because Reattach blocks on
// the Attached frame, which the actor itself must process.
func (c *Connection) reattachChannels() {
	channels := c.registry.All()
	timeout := c.opts.RealtimeRequestTimeout
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		for _, ch := range channels {
			if err := ch.Reattach(ctx); err != nil {
				c.log.Warn("channel reattach failed",
					logger.String("channel", ch.Name()), logger.Error(err))
			}
		}
	}()
}

func (c *Connection) destroyTransport() {
	if c.transport != nil {
		c.transport.Destroy()
		c.transport = nil
	}
}

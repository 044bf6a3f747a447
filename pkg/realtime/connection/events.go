package connection

import (
	"github.com/sage-x-project/relay/pkg/realtime/ack"
	"github.com/sage-x-project/relay/pkg/realtime/proto"
	"github.com/sage-x-project/relay/pkg/realtime/transport"
)

// input is one item in the actor's serialized inbox: a user action, a
// transport event, or a timer firing. The actor processes exactly one
// input at a time, so transition handlers never race.
type input interface{ isInput() }

// User actions.

type inConnect struct {
	future *ack.Future
}

type inClose struct {
	future *ack.Future
}

type inSend struct {
	pm *proto.ProtocolMessage
}

// Transport events. dialDone carries the result of the asynchronous
// dial effect started on entry to Connecting; the open/close/error
// callbacks of an already-established transport post the others.

type inDialDone struct {
	transport transport.Transport
	err       error
	gen       uint64
}

type inTransportClosed struct {
	reason error
	gen    uint64
}

type inTransportError struct {
	err error
	gen uint64
}

type inFrame struct {
	pm *proto.ProtocolMessage

	// handled, when non-nil, receives whether the frame was processed
	// (false when the state machine ignores it, e.g. in Closed).
	handled chan bool
}

// Timer events. Each carries the timer generation it was armed under;
// the actor drops firings from a superseded generation.

type timerKind int

const (
	timerConnect timerKind = iota
	timerRetry
	timerStateTTL
	timerClose
	timerHeartbeat
)

type inTimer struct {
	kind timerKind
	gen  uint64
}

// inHeartbeatTick is posted by the heartbeat monitor goroutine on a
// fixed cadence; the actor decides whether the quiet period warrants a
// Heartbeat frame or a transition to Disconnected. It carries no
// generation: the check is against current state, so stale ticks are
// harmless.
type inHeartbeatTick struct{}

func (inConnect) isInput()         {}
func (inClose) isInput()           {}
func (inSend) isInput()            {}
func (inDialDone) isInput()        {}
func (inTransportClosed) isInput() {}
func (inTransportError) isInput()  {}
func (inFrame) isInput()           {}
func (inTimer) isInput()           {}
func (inHeartbeatTick) isInput()   {}

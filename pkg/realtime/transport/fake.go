package transport

import (
	"context"
	"sync"
)

// Fake is an in-memory Transport used by tests and cmd/realtime-cli. It
// has no network code: frames handed to Send are appended to Sent for
// inspection, and a test drives the peer side by calling Deliver*
// directly on the Handlers it was dialed with.
type Fake struct {
	mu        sync.Mutex
	handlers  Handlers
	sent      [][]byte
	destroyed bool

	// SendErr, when set, is returned by Send instead of recording the
	// frame, simulating a write failure.
	SendErr error
}

// NewFake constructs a Fake transport wired to handlers, as if dial had
// just succeeded. It does not itself invoke OnOpen; callers decide when
// to simulate that event.
func NewFake(handlers Handlers) *Fake {
	return &Fake{handlers: handlers}
}

// FakeDialer returns a Dialer that always succeeds, handing back a Fake
// wired to the given handlers and immediately firing OnOpen.
func FakeDialer() Dialer {
	return func(_ context.Context, _ string, handlers Handlers) (Transport, error) {
		f := NewFake(handlers)
		if handlers.OnOpen != nil {
			handlers.OnOpen()
		}
		return f, nil
	}
}

func (f *Fake) Send(_ context.Context, frame []byte, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SendErr != nil {
		return f.SendErr
	}
	if f.destroyed {
		return nil
	}
	cp := make([]byte, len(frame))
	copy(cp, frame)
	f.sent = append(f.sent, cp)
	return nil
}

func (f *Fake) Destroy() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed = true
}

// Sent returns a snapshot of every frame handed to Send so far.
func (f *Fake) Sent() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.sent))
	copy(out, f.sent)
	return out
}

// IsDestroyed reports whether Destroy has been called.
func (f *Fake) IsDestroyed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.destroyed
}

// DeliverText simulates an inbound text frame from the peer.
func (f *Fake) DeliverText(frame []byte) {
	if f.handlers.OnText != nil {
		f.handlers.OnText(frame)
	}
}

// DeliverBinary simulates an inbound binary frame from the peer.
func (f *Fake) DeliverBinary(frame []byte) {
	if f.handlers.OnBinary != nil {
		f.handlers.OnBinary(frame)
	}
}

// DeliverClose simulates the peer closing the transport.
func (f *Fake) DeliverClose(reason error) {
	if f.handlers.OnClose != nil {
		f.handlers.OnClose(reason)
	}
}

// DeliverError simulates a transport-level error event.
func (f *Fake) DeliverError(err error) {
	if f.handlers.OnError != nil {
		f.handlers.OnError(err)
	}
}

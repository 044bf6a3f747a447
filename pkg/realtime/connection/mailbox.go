package connection

import "sync"

// mailbox is an unbounded FIFO queue feeding the actor loop. Transport
// callbacks may fire synchronously from inside an actor-initiated dial,
// so a plain buffered channel would risk deadlocking the actor against
// itself; the mailbox accepts without ever blocking the producer.
type mailbox struct {
	mu     sync.Mutex
	items  []input
	signal chan struct{}
	closed bool
}

func newMailbox() *mailbox {
	return &mailbox{signal: make(chan struct{}, 1)}
}

// put enqueues in. It never blocks. Items put after close are dropped.
func (m *mailbox) put(in input) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.items = append(m.items, in)
	m.mu.Unlock()

	select {
	case m.signal <- struct{}{}:
	default:
	}
}

// take dequeues the next input, blocking until one is available or the
// mailbox is closed. ok is false once the mailbox is closed and drained.
func (m *mailbox) take() (in input, ok bool) {
	for {
		m.mu.Lock()
		if len(m.items) > 0 {
			in = m.items[0]
			m.items = m.items[1:]
			m.mu.Unlock()
			return in, true
		}
		closed := m.closed
		m.mu.Unlock()
		if closed {
			return nil, false
		}
		<-m.signal
	}
}

// close stops the mailbox. Queued items are still drained by take.
func (m *mailbox) close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	select {
	case m.signal <- struct{}{}:
	default:
	}
}

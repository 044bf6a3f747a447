package ack

import (
	"sync"

	"github.com/sage-x-project/relay/internal/metrics"
	"github.com/sage-x-project/relay/pkg/realtime/proto"
)

// Entry is one outstanding publish: the frame that was sent (kept so it
// can be re-sent verbatim on a resumed connection) and the Future the
// channel's publish() call is waiting on.
type Entry struct {
	Serial  int64
	Count   int
	Message *proto.ProtocolMessage
	Future  *Future
}

// Tracker is the queue of (msg_serial, count, completion) tuples for
// outstanding publishes, held in ascending serial order. It is driven
// solely by the connection state machine, never by the transport
// directly, so failing pending entries on a non-resumable reconnect
// stays a single transition effect.
type Tracker struct {
	mu      sync.Mutex
	entries []Entry
	max     int
}

// NewTracker returns an empty tracker bounded at max outstanding
// entries. max <= 0 means unbounded.
func NewTracker(max int) *Tracker {
	return &Tracker{max: max}
}

// Add enqueues a new outstanding publish. If the tracker is at capacity,
// the oldest entry is evicted and failed with QueueOverflow before the
// new one is added.
func (t *Tracker) Add(serial int64, count int, msg *proto.ProtocolMessage) *Future {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.max > 0 && len(t.entries) >= t.max {
		oldest := t.entries[0]
		t.entries = t.entries[1:]
		oldest.Future.Resolve(proto.NewError(proto.ErrCodeQueueOverflow, "ack tracker queue overflow"))
		metrics.QueueOverflows.Inc()
	}

	future := NewFuture()
	t.entries = append(t.entries, Entry{Serial: serial, Count: count, Message: msg, Future: future})
	metrics.PendingPublishes.Set(float64(len(t.entries)))
	return future
}

// Ack completes every entry whose serial range falls within
// [serial, serial+count) successfully.
func (t *Tracker) Ack(serial int64, count int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	upper := serial + int64(count)
	var remaining []Entry
	for _, e := range t.entries {
		if e.Serial >= serial && e.Serial < upper {
			e.Future.Resolve(nil)
			metrics.AcksReceived.Inc()
			continue
		}
		remaining = append(remaining, e)
	}
	t.entries = remaining
	metrics.PendingPublishes.Set(float64(len(t.entries)))
}

// Nack fails every entry in [serial, serial+count) with err.
func (t *Tracker) Nack(serial int64, count int, err *proto.ErrorInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err == nil {
		err = proto.NewError(0, "nack")
	}
	upper := serial + int64(count)
	var remaining []Entry
	for _, e := range t.entries {
		if e.Serial >= serial && e.Serial < upper {
			e.Future.Resolve(err)
			metrics.NacksReceived.Inc()
			continue
		}
		remaining = append(remaining, e)
	}
	t.entries = remaining
	metrics.PendingPublishes.Set(float64(len(t.entries)))
}

// FailAll fails every outstanding entry with err and empties the
// tracker. Used on a non-resumable reconnect or when the connection
// closes, which fails all outstanding handles with Disconnected.
func (t *Tracker) FailAll(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, e := range t.entries {
		e.Future.Resolve(err)
	}
	t.entries = nil
	metrics.PendingPublishes.Set(0)
}

// Pending returns every outstanding entry in ascending serial order, for
// re-send on a successful resume.
func (t *Tracker) Pending() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len reports the number of outstanding entries.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

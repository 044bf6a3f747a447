package channel

import (
	"sync"

	"github.com/sage-x-project/relay/internal/metrics"
	"github.com/sage-x-project/relay/pkg/realtime/proto"
)

// Registry maps unique channel name to Channel instance. A channel is
// created on first reference and destroyed only when explicitly
// released and detached.
type Registry struct {
	mu         sync.RWMutex
	bus        Bus
	channels   map[string]*Channel
	defaults   proto.ChannelOptions
	maxPending int
}

// NewRegistry returns an empty registry bound to bus. defaults are
// applied to channels created without explicit ChannelOptions.
func NewRegistry(bus Bus, defaults proto.ChannelOptions, maxPending int) *Registry {
	return &Registry{
		bus:        bus,
		channels:   make(map[string]*Channel),
		defaults:   defaults,
		maxPending: maxPending,
	}
}

// Get returns the channel named name, creating it with the registry's
// default options if it does not yet exist.
func (r *Registry) Get(name string) *Channel {
	return r.GetWithOptions(name, r.defaults)
}

// GetWithOptions returns the channel named name, creating it with opts
// if it does not yet exist. An existing channel's options are
// unaffected by a later call with different opts.
func (r *Registry) GetWithOptions(name string, opts proto.ChannelOptions) *Channel {
	r.mu.RLock()
	ch, ok := r.channels[name]
	r.mu.RUnlock()
	if ok {
		return ch
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if ch, ok := r.channels[name]; ok {
		return ch
	}
	ch = New(name, r.bus, opts, r.maxPending)
	r.channels[name] = ch
	metrics.ChannelsActive.Set(float64(len(r.channels)))
	return ch
}

// Release detaches and removes a channel from the registry. It is a
// no-op if the channel is not tracked.
func (r *Registry) Release(name string) {
	r.mu.Lock()
	ch, ok := r.channels[name]
	if ok {
		delete(r.channels, name)
	}
	metrics.ChannelsActive.Set(float64(len(r.channels)))
	r.mu.Unlock()

	if ok && ch.State() != StateDetached && ch.State() != StateInitialized {
		ch.bus.Send(&proto.ProtocolMessage{Action: proto.ActionDetach, Channel: name})
	}
}

// All returns a snapshot of every tracked channel, for the connection to
// broadcast state transitions (disconnect/suspend/reconnect) across.
func (r *Registry) All() []*Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Channel, 0, len(r.channels))
	for _, ch := range r.channels {
		out = append(out, ch)
	}
	return out
}

// Dispatch routes an inbound ProtocolMessage to the channel it names, if
// tracked.
func (r *Registry) Dispatch(pm *proto.ProtocolMessage) {
	if pm.Channel == "" {
		return
	}
	r.mu.RLock()
	ch, ok := r.channels[pm.Channel]
	r.mu.RUnlock()
	if ok {
		ch.HandleFrame(pm)
	}
}

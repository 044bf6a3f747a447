package channel

import (
	"context"
	"fmt"

	"github.com/sage-x-project/relay/pkg/realtime/proto"
)

// EnterPresence announces this client as present on the channel,
// optionally carrying a data payload. Like Publish, it completes when
// the enclosing frame is acknowledged.
func (c *Channel) EnterPresence(ctx context.Context, clientID string, data interface{}) error {
	return c.sendPresence(ctx, proto.PresenceEnter, clientID, data)
}

// LeavePresence withdraws this client's presence entry.
func (c *Channel) LeavePresence(ctx context.Context, clientID string, data interface{}) error {
	return c.sendPresence(ctx, proto.PresenceLeave, clientID, data)
}

// UpdatePresence replaces the data payload of this client's presence
// entry.
func (c *Channel) UpdatePresence(ctx context.Context, clientID string, data interface{}) error {
	return c.sendPresence(ctx, proto.PresenceUpdate, clientID, data)
}

func (c *Channel) sendPresence(ctx context.Context, action proto.PresenceAction, clientID string, data interface{}) error {
	c.mu.Lock()
	opts := c.opts
	c.mu.Unlock()

	if !opts.HasMode(proto.ModePresence) {
		return proto.NewError(proto.ErrCodeChannelFailed, "channel options do not grant the presence mode")
	}

	entry := &proto.PresenceMessage{
		Action:       action,
		ClientID:     clientID,
		ConnectionID: c.bus.ConnectionID(),
	}
	if data != nil {
		entry.Data = data
		if err := c.bus.Codec().EncodePresence(entry, opts, c.bus.WireIsText()); err != nil {
			return fmt.Errorf("channel: encode presence payload: %w", err)
		}
	}

	serial := c.bus.NextMsgSerial()
	pm := &proto.ProtocolMessage{
		Action:    proto.ActionPresence,
		Channel:   c.name,
		MsgSerial: serial,
		Presence:  []proto.PresenceMessage{*entry},
	}
	future := c.bus.Tracker().Add(serial, 1, pm)
	c.bus.Send(pm)
	return future.Wait(ctx)
}

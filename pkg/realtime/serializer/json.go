package serializer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sage-x-project/relay/pkg/realtime/proto"
)

// JSON is the textual wire serializer. It is paired with the codec
// pipeline's base64 encoder, which only activates for text-oriented
// wire formats.
type JSON struct{}

// NewJSON returns a JSON serializer.
func NewJSON() *JSON { return &JSON{} }

func (JSON) Name() string { return "json" }

type wireMessage struct {
	ID           string      `json:"id,omitempty"`
	ConnectionID string      `json:"connectionId,omitempty"`
	Name         string      `json:"name,omitempty"`
	Data         interface{} `json:"data,omitempty"`
	Encoding     string      `json:"encoding,omitempty"`
	Timestamp    int64       `json:"timestamp,omitempty"`
	ClientID     string      `json:"clientId,omitempty"`
	Extras       interface{} `json:"extras,omitempty"`
}

type wirePresence struct {
	ID           string      `json:"id,omitempty"`
	ConnectionID string      `json:"connectionId,omitempty"`
	ClientID     string      `json:"clientId,omitempty"`
	Action       int         `json:"action"`
	Data         interface{} `json:"data,omitempty"`
	Encoding     string      `json:"encoding,omitempty"`
	Timestamp    int64       `json:"timestamp,omitempty"`
}

type wireConnectionDetails struct {
	ConnectionKey      string  `json:"connectionKey,omitempty"`
	ClientID           string  `json:"clientId,omitempty"`
	MaxMessageSize     int     `json:"maxMessageSize,omitempty"`
	MaxFrameSize       int     `json:"maxFrameSize,omitempty"`
	MaxInboundRate     float64 `json:"maxInboundRate,omitempty"`
	ConnectionStateTTL int64   `json:"connectionStateTtl,omitempty"`
	ServerID           string  `json:"serverId,omitempty"`
}

type wireError struct {
	Code       int    `json:"code,omitempty"`
	StatusCode int    `json:"statusCode,omitempty"`
	Message    string `json:"message,omitempty"`
	Href       string `json:"href,omitempty"`
}

type wireProtocolMessage struct {
	Action            int                    `json:"action"`
	Flags             uint32                 `json:"flags,omitempty"`
	Count             int                    `json:"count,omitempty"`
	Error             *wireError             `json:"error,omitempty"`
	ID                string                 `json:"id,omitempty"`
	Channel           string                 `json:"channel,omitempty"`
	ChannelSerial     string                 `json:"channelSerial,omitempty"`
	ConnectionID      string                 `json:"connectionId,omitempty"`
	ConnectionKey     string                 `json:"connectionKey,omitempty"`
	ConnectionSerial  int64                  `json:"connectionSerial,omitempty"`
	MsgSerial         int64                  `json:"msgSerial,omitempty"`
	Timestamp         int64                  `json:"timestamp,omitempty"`
	Messages          []wireMessage          `json:"messages,omitempty"`
	Presence          []wirePresence         `json:"presence,omitempty"`
	ConnectionDetails *wireConnectionDetails `json:"connectionDetails,omitempty"`
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func (JSON) Encode(pm *proto.ProtocolMessage) ([]byte, error) {
	if pm == nil {
		return nil, fmt.Errorf("serializer: nil protocol message")
	}
	pm.Normalize()

	w := wireProtocolMessage{
		Action:           int(pm.Action),
		Flags:            uint32(pm.Flags),
		Count:            pm.Count,
		ID:               pm.ID,
		Channel:          pm.Channel,
		ChannelSerial:    pm.ChannelSerial,
		ConnectionID:     pm.ConnectionID,
		ConnectionKey:    pm.ConnectionKey,
		ConnectionSerial: pm.ConnectionSerial,
		MsgSerial:        pm.MsgSerial,
		Timestamp:        toMillis(pm.Timestamp),
	}
	if pm.Error != nil {
		w.Error = &wireError{pm.Error.Code, pm.Error.StatusCode, pm.Error.Message, pm.Error.Href}
	}
	if pm.ConnectionDetails != nil {
		d := pm.ConnectionDetails
		w.ConnectionDetails = &wireConnectionDetails{
			ConnectionKey:      d.ConnectionKey,
			ClientID:           d.ClientID,
			MaxMessageSize:     d.MaxMessageSize,
			MaxFrameSize:       d.MaxFrameSize,
			MaxInboundRate:     d.MaxInboundRate,
			ConnectionStateTTL: d.ConnectionStateTTL,
			ServerID:           d.ServerID,
		}
	}
	if pm.HasMessages() {
		for _, m := range pm.Messages {
			w.Messages = append(w.Messages, wireMessage{
				ID: m.ID, ConnectionID: m.ConnectionID, Name: m.Name, Data: m.Data,
				Encoding: m.Encoding, Timestamp: toMillis(m.Timestamp), ClientID: m.ClientID, Extras: m.Extras,
			})
		}
	}
	for _, p := range pm.Presence {
		if p.IsEmpty() {
			continue
		}
		w.Presence = append(w.Presence, wirePresence{
			ID: p.ID, ConnectionID: p.ConnectionID, ClientID: p.ClientID, Action: int(p.Action),
			Data: p.Data, Encoding: p.Encoding, Timestamp: toMillis(p.Timestamp),
		})
	}

	return json.Marshal(w)
}

func (JSON) Decode(data []byte) (*proto.ProtocolMessage, error) {
	var w wireProtocolMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("serializer: malformed json frame: %w", err)
	}

	pm := &proto.ProtocolMessage{
		Action:           proto.Action(w.Action),
		Flags:            proto.Flags(w.Flags),
		Count:            w.Count,
		ID:               w.ID,
		Channel:          w.Channel,
		ChannelSerial:    w.ChannelSerial,
		ConnectionID:     w.ConnectionID,
		ConnectionKey:    w.ConnectionKey,
		ConnectionSerial: w.ConnectionSerial,
		MsgSerial:        w.MsgSerial,
		Timestamp:        fromMillis(w.Timestamp),
	}
	if w.Error != nil {
		pm.Error = &proto.ErrorInfo{Code: w.Error.Code, StatusCode: w.Error.StatusCode, Message: w.Error.Message, Href: w.Error.Href}
	}
	if w.ConnectionDetails != nil {
		d := w.ConnectionDetails
		pm.ConnectionDetails = &proto.ConnectionDetails{
			ConnectionKey:      d.ConnectionKey,
			ClientID:           d.ClientID,
			MaxMessageSize:     d.MaxMessageSize,
			MaxFrameSize:       d.MaxFrameSize,
			MaxInboundRate:     d.MaxInboundRate,
			ConnectionStateTTL: d.ConnectionStateTTL,
			ServerID:           d.ServerID,
		}
	}
	for _, m := range w.Messages {
		pm.Messages = append(pm.Messages, proto.Message{
			ID: m.ID, ConnectionID: m.ConnectionID, Name: m.Name, Data: m.Data,
			Encoding: m.Encoding, Timestamp: fromMillis(m.Timestamp), ClientID: m.ClientID, Extras: m.Extras,
		})
	}
	for _, p := range w.Presence {
		pm.Presence = append(pm.Presence, proto.PresenceMessage{
			ID: p.ID, ConnectionID: p.ConnectionID, ClientID: p.ClientID, Action: proto.PresenceAction(p.Action),
			Data: p.Data, Encoding: p.Encoding, Timestamp: fromMillis(p.Timestamp),
		})
	}

	pm.Normalize()
	return pm, nil
}

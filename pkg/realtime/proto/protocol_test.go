package proto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePropagatesIDAndTimestamp(t *testing.T) {
	ts := time.UnixMilli(1700000000000).UTC()
	pm := &ProtocolMessage{
		Action:       ActionMessage,
		ID:           "abc",
		ConnectionID: "conn-9",
		Timestamp:    ts,
		Messages: []Message{
			{Data: "x"},
			{Data: "y", ID: "z"},
		},
	}

	pm.Normalize()

	require.Len(t, pm.Messages, 2)
	assert.Equal(t, "abc:0", pm.Messages[0].ID)
	assert.Equal(t, "z", pm.Messages[1].ID)
	assert.Equal(t, ts, pm.Messages[0].Timestamp)
	assert.Equal(t, ts, pm.Messages[1].Timestamp)
	assert.Equal(t, "conn-9", pm.Messages[0].ConnectionID)
	assert.Equal(t, "conn-9", pm.Messages[1].ConnectionID)
}

func TestNormalizeKeepsExistingTimestamps(t *testing.T) {
	own := time.UnixMilli(1600000000000).UTC()
	pm := &ProtocolMessage{
		ID:        "p",
		Timestamp: time.UnixMilli(1700000000000).UTC(),
		Messages:  []Message{{Data: "x", Timestamp: own}},
	}
	pm.Normalize()
	assert.Equal(t, own, pm.Messages[0].Timestamp)
}

func TestNormalizePrunesEmptyMessages(t *testing.T) {
	pm := &ProtocolMessage{
		ID:       "p",
		Messages: []Message{{}, {Data: "real"}, {}},
	}
	pm.Normalize()
	require.Len(t, pm.Messages, 1)
	assert.Equal(t, "real", pm.Messages[0].Data)
	assert.Equal(t, "p:0", pm.Messages[0].ID, "index assigned after pruning")
}

func TestNormalizeIsIdempotent(t *testing.T) {
	pm := &ProtocolMessage{
		ID:        "p",
		Timestamp: time.UnixMilli(1),
		Messages:  []Message{{Data: "x"}},
	}
	pm.Normalize()
	first := pm.Messages[0]
	pm.Normalize()
	assert.Equal(t, first, pm.Messages[0])
}

func TestNormalizePresencePropagation(t *testing.T) {
	ts := time.UnixMilli(1700000000000).UTC()
	pm := &ProtocolMessage{
		Action:       ActionPresence,
		ID:           "pr",
		ConnectionID: "conn-1",
		Timestamp:    ts,
		Presence: []PresenceMessage{
			{Action: PresenceEnter, ClientID: "alice"},
		},
	}
	pm.Normalize()
	assert.Equal(t, "pr:0", pm.Presence[0].ID)
	assert.Equal(t, ts, pm.Presence[0].Timestamp)
	assert.Equal(t, "conn-1", pm.Presence[0].ConnectionID)
}

func TestHasMessages(t *testing.T) {
	pm := &ProtocolMessage{Messages: []Message{{}, {}}}
	assert.False(t, pm.HasMessages())

	pm.Messages = append(pm.Messages, Message{Data: "x"})
	assert.True(t, pm.HasMessages())

	assert.False(t, (&ProtocolMessage{}).HasMessages())
}

func TestActionCodesAreStable(t *testing.T) {
	// Wire codes are authoritative; a reorder would break every peer.
	assert.EqualValues(t, 0, ActionHeartbeat)
	assert.EqualValues(t, 1, ActionAck)
	assert.EqualValues(t, 2, ActionNack)
	assert.EqualValues(t, 3, ActionConnect)
	assert.EqualValues(t, 4, ActionConnected)
	assert.EqualValues(t, 5, ActionDisconnect)
	assert.EqualValues(t, 6, ActionDisconnected)
	assert.EqualValues(t, 7, ActionClose)
	assert.EqualValues(t, 8, ActionClosed)
	assert.EqualValues(t, 9, ActionError)
	assert.EqualValues(t, 10, ActionAttach)
	assert.EqualValues(t, 11, ActionAttached)
	assert.EqualValues(t, 12, ActionDetach)
	assert.EqualValues(t, 13, ActionDetached)
	assert.EqualValues(t, 14, ActionPresence)
	assert.EqualValues(t, 15, ActionMessage)
	assert.EqualValues(t, 16, ActionSync)
}

func TestFlagBits(t *testing.T) {
	assert.EqualValues(t, 1, FlagHasPresence)
	assert.EqualValues(t, 2, FlagHasBacklog)

	f := FlagHasPresence | FlagHasBacklog
	assert.True(t, f.HasPresence())
	assert.True(t, f.HasBacklog())
	assert.False(t, Flags(0).HasPresence())
}

func TestCipherParamsLabel(t *testing.T) {
	p := CipherParams{Algorithm: "aes", Mode: "cbc", KeyLength: 128}
	assert.Equal(t, "cipher+aes-128-cbc", p.Label())
}

func TestErrorInfoFatalClassification(t *testing.T) {
	assert.True(t, NewError(ErrCodeConnectionFailed, "connection failed").IsFatal())
	assert.True(t, NewError(80013, "protocol violation").IsFatal())
	assert.True(t, NewError(50003, "timeout").IsFatal())
	assert.False(t, NewError(42911, "rate limited").IsFatal())
	assert.False(t, (*ErrorInfo)(nil).IsFatal())
}

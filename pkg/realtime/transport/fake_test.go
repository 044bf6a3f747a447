package transport

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeRecordsSentFrames(t *testing.T) {
	f := NewFake(Handlers{})
	require.NoError(t, f.Send(context.Background(), []byte("one"), true))
	require.NoError(t, f.Send(context.Background(), []byte("two"), false))

	sent := f.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, []byte("one"), sent[0])
	assert.Equal(t, []byte("two"), sent[1])
}

func TestFakeSendErr(t *testing.T) {
	f := NewFake(Handlers{})
	f.SendErr = errors.New("broken pipe")
	require.Error(t, f.Send(context.Background(), []byte("x"), true))
	assert.Empty(t, f.Sent())
}

func TestFakeDestroyIsIdempotent(t *testing.T) {
	f := NewFake(Handlers{})
	f.Destroy()
	f.Destroy()
	assert.True(t, f.IsDestroyed())
}

func TestFakeDeliversToHandlers(t *testing.T) {
	var gotText, gotBinary []byte
	var gotClose, gotErr error
	f := NewFake(Handlers{
		OnText:   func(b []byte) { gotText = b },
		OnBinary: func(b []byte) { gotBinary = b },
		OnClose:  func(err error) { gotClose = err },
		OnError:  func(err error) { gotErr = err },
	})

	f.DeliverText([]byte("t"))
	f.DeliverBinary([]byte{0x01})
	f.DeliverClose(errors.New("gone"))
	f.DeliverError(errors.New("oops"))

	assert.Equal(t, []byte("t"), gotText)
	assert.Equal(t, []byte{0x01}, gotBinary)
	assert.EqualError(t, gotClose, "gone")
	assert.EqualError(t, gotErr, "oops")
}

func TestFatalErrorClassification(t *testing.T) {
	base := errors.New("handshake rejected")

	assert.True(t, IsFatal(Fatal(base)))
	assert.False(t, IsFatal(base))
	assert.False(t, IsFatal(nil))
	require.NoError(t, Fatal(nil))

	wrapped := Fatal(base)
	require.ErrorIs(t, wrapped, base)
	assert.EqualError(t, wrapped, "handshake rejected")
}

func TestFakeDialerFiresOnOpen(t *testing.T) {
	opened := false
	d := FakeDialer()
	tr, err := d(context.Background(), "fake://x", Handlers{OnOpen: func() { opened = true }})
	require.NoError(t, err)
	require.NotNil(t, tr)
	assert.True(t, opened)
}

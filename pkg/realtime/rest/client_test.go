package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/relay/pkg/realtime/proto"
)

func TestParseLinkHeader(t *testing.T) {
	links := ParseLinks([]string{`<./history?limit=100&direction=forwards>; rel="next"`})

	next, ok := links[RelNext]
	require.True(t, ok)
	assert.Equal(t, "./history", next.Path)
	assert.Equal(t, "100", next.Query.Get("limit"))
	assert.Equal(t, "forwards", next.Query.Get("direction"))
}

func TestParseLinkHeaderMultipleRelations(t *testing.T) {
	links := ParseLinks([]string{
		`<./history?start=0>; rel="first", <./history?start=100>; rel="next"`,
		`<./history?start=50>; rel="current"`,
	})

	assert.Len(t, links, 3)
	assert.Equal(t, "0", links[RelFirst].Query.Get("start"))
	assert.Equal(t, "100", links[RelNext].Query.Get("start"))
	assert.Equal(t, "50", links[RelCurrent].Query.Get("start"))
}

func TestParseLinkHeaderIgnoresGarbage(t *testing.T) {
	links := ParseLinks([]string{`not a link header`, ``})
	assert.Empty(t, links)
}

func newTestServer(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, srv.Client())
	require.NoError(t, err)
	return c, srv
}

func TestHistoryAppliesDefaultLimit(t *testing.T) {
	var gotQuery url.Values
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	page, err := c.History(ctx, "orders", nil)
	require.NoError(t, err)

	assert.Equal(t, "100", gotQuery.Get("limit"), "limit defaults to 100 when absent")
	assert.Zero(t, page.Len())
	assert.False(t, page.HasNext())
}

func TestHistoryPreservesExplicitLimit(t *testing.T) {
	var gotQuery url.Values
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`[]`))
	})

	ctx := context.Background()
	_, err := c.History(ctx, "orders", url.Values{"limit": {"25"}, "direction": {"backwards"}})
	require.NoError(t, err)
	assert.Equal(t, "25", gotQuery.Get("limit"))
	assert.Equal(t, "backwards", gotQuery.Get("direction"))
}

func TestHistoryDecodesItemsThroughCodec(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"name":"evt","data":"AQIDBAU=","encoding":"base64"}]`))
	})

	page, err := c.History(context.Background(), "orders", nil)
	require.NoError(t, err)

	msgs, err := page.Messages(proto.ChannelOptions{})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04, 0x05}, msgs[0].Data)
	assert.Empty(t, msgs[0].Encoding)
}

func TestPaginationFollowsNextRelation(t *testing.T) {
	requests := 0
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		switch r.URL.Query().Get("page") {
		case "2":
			assert.Equal(t, "/channels/orders/history", r.URL.Path)
			_, _ = w.Write([]byte(`[{"name":"second","data":"b"}]`))
		default:
			w.Header().Set("Link", `<./history?page=2&limit=100>; rel="next", <./history?page=1&limit=100>; rel="first"`)
			_, _ = w.Write([]byte(`[{"name":"first","data":"a"}]`))
		}
	})

	page, err := c.History(context.Background(), "orders", nil)
	require.NoError(t, err)
	require.True(t, page.HasNext())

	next, err := page.Next(context.Background())
	require.NoError(t, err)
	msgs, err := next.Messages(proto.ChannelOptions{})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "second", msgs[0].Name)
	assert.Equal(t, 2, requests)
}

func TestFollowMissingRelationFails(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	page, err := c.History(context.Background(), "orders", nil)
	require.NoError(t, err)

	_, err = page.Next(context.Background())
	require.Error(t, err)
}

func TestPresencePageDecodes(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/channels/lobby/presence", r.URL.Path)
		_, _ = w.Write([]byte(`[{"clientId":"alice","action":2,"data":"hi"}]`))
	})

	page, err := c.Presence(context.Background(), "lobby", nil)
	require.NoError(t, err)
	entries, err := page.Presence(proto.ChannelOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].ClientID)
	assert.Equal(t, proto.PresenceEnter, entries[0].Action)
}

func TestTimeParsesEpochMillis(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/time", r.URL.Path)
		_, _ = w.Write([]byte(`[1700000000000]`))
	})

	got, err := c.Time(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), got)
}

func TestPublishEncodesBody(t *testing.T) {
	var body map[string]interface{}
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/channels/orders/messages", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
	})

	msg := &proto.Message{Name: "evt", Data: []byte{0xCA, 0xFE}}
	require.NoError(t, c.Publish(context.Background(), "orders", msg, proto.ChannelOptions{}))
	assert.Equal(t, "yv4=", body["data"])
	assert.Equal(t, "base64", body["encoding"])
}

func TestErrorResponseSurfacesErrorInfo(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":40140,"message":"token expired"}}`))
	})

	_, err := c.Stats(context.Background(), nil)
	require.Error(t, err)
	var ei *proto.ErrorInfo
	require.ErrorAs(t, err, &ei)
	assert.Equal(t, 40140, ei.Code)
	assert.Equal(t, http.StatusUnauthorized, ei.StatusCode)
}

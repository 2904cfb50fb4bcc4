package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dton04/hoterier-cli/internal/models"
)

// wsFixture is a minimal socket endpoint that records what the client sends
// and lets tests push events downstream or cut the connection.
type wsFixture struct {
	t        *testing.T
	upgrader websocket.Upgrader

	mu       sync.Mutex
	conns    []*websocket.Conn
	received []models.Event
	auth     []string
	dials    int32
}

func newWSFixture(t *testing.T) (*wsFixture, *httptest.Server) {
	f := &wsFixture{t: t}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.dials, 1)
		f.mu.Lock()
		f.auth = append(f.auth, r.Header.Get("Authorization"))
		f.mu.Unlock()

		conn, err := f.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		f.mu.Lock()
		f.conns = append(f.conns, conn)
		f.mu.Unlock()

		for {
			var evt models.Event
			if err := conn.ReadJSON(&evt); err != nil {
				return
			}
			f.mu.Lock()
			f.received = append(f.received, evt)
			f.mu.Unlock()
		}
	}))
	t.Cleanup(server.Close)
	return f, server
}

func (f *wsFixture) push(event string, payload any) {
	evt, err := models.NewEvent(event, payload)
	require.NoError(f.t, err)
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(f.t, f.conns)
	require.NoError(f.t, f.conns[len(f.conns)-1].WriteJSON(evt))
}

func (f *wsFixture) dropConnection() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.conns) > 0 {
		_ = f.conns[len(f.conns)-1].Close()
	}
}

func (f *wsFixture) events() []models.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Event(nil), f.received...)
}

func newTestTransport(t *testing.T, serverURL, token string) *Transport {
	transport, err := New(serverURL, token)
	require.NoError(t, err)
	transport.SetBackoff(10*time.Millisecond, 50*time.Millisecond)
	t.Cleanup(transport.Close)
	return transport
}

func TestTransportConnectsAndDispatches(t *testing.T) {
	fixture, server := newWSFixture(t)
	transport := newTestTransport(t, server.URL, "token-1")

	var connects int32
	transport.On(models.EventConnect, func(json.RawMessage) {
		atomic.AddInt32(&connects, 1)
	})
	got := make(chan models.Notification, 1)
	transport.On(models.EventNotificationNew, func(data json.RawMessage) {
		var n models.Notification
		if json.Unmarshal(data, &n) == nil {
			got <- n
		}
	})

	transport.Connect()
	assert.Eventually(t, func() bool {
		return transport.Connected() && atomic.LoadInt32(&connects) == 1
	}, 2*time.Second, 10*time.Millisecond)

	fixture.push(models.EventNotificationNew, models.Notification{ID: "n1", Message: "hi", Scope: models.ScopeAll})
	select {
	case n := <-got:
		assert.Equal(t, "n1", n.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not dispatched")
	}

	// Token travels in the handshake header.
	fixture.mu.Lock()
	auth := fixture.auth[0]
	fixture.mu.Unlock()
	assert.Equal(t, "Bearer token-1", auth)
}

func TestTransportEmitRoundTrip(t *testing.T) {
	fixture, server := newWSFixture(t)
	transport := newTestTransport(t, server.URL, "token-1")
	transport.Connect()
	require.Eventually(t, transport.Connected, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, transport.Emit(models.EventMessageSend, models.SendPayload{
		ConversationID: "c1",
		Content:        "hello",
	}))

	assert.Eventually(t, func() bool {
		return len(fixture.events()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	evt := fixture.events()[0]
	assert.Equal(t, models.EventMessageSend, evt.Type)
	var payload models.SendPayload
	require.NoError(t, json.Unmarshal(evt.Data, &payload))
	assert.Equal(t, "hello", payload.Content)
}

func TestTransportEmitWhileDownErrors(t *testing.T) {
	_, server := newWSFixture(t)
	transport := newTestTransport(t, server.URL, "token-1")

	err := transport.Emit(models.EventTyping, models.TypingPayload{ConversationID: "c1"})
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestTransportReconnectsAfterDrop(t *testing.T) {
	fixture, server := newWSFixture(t)
	transport := newTestTransport(t, server.URL, "token-1")

	var connects, disconnects int32
	transport.On(models.EventConnect, func(json.RawMessage) { atomic.AddInt32(&connects, 1) })
	transport.On(models.EventDisconnect, func(json.RawMessage) { atomic.AddInt32(&disconnects, 1) })

	transport.Connect()
	require.Eventually(t, transport.Connected, 2*time.Second, 10*time.Millisecond)

	fixture.dropConnection()
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&connects) >= 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&disconnects), int32(1))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&fixture.dials), int32(2))
}

func TestTransportRetriesWhenServerUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no", http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	transport := newTestTransport(t, server.URL, "token-1")
	var errors int32
	transport.On(models.EventConnectError, func(json.RawMessage) { atomic.AddInt32(&errors, 1) })

	transport.Connect()
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&errors) >= 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.False(t, transport.Connected())
}

func TestTransportDisposerStopsDelivery(t *testing.T) {
	fixture, server := newWSFixture(t)
	transport := newTestTransport(t, server.URL, "token-1")

	var kept, disposed int32
	transport.On(models.EventMessageNew, func(json.RawMessage) { atomic.AddInt32(&kept, 1) })
	off := transport.On(models.EventMessageNew, func(json.RawMessage) { atomic.AddInt32(&disposed, 1) })
	off()

	transport.Connect()
	require.Eventually(t, transport.Connected, 2*time.Second, 10*time.Millisecond)
	fixture.push(models.EventMessageNew, models.Message{ID: "m1"})

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&kept) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&disposed))
}

func TestTransportCloseIsIdempotent(t *testing.T) {
	_, server := newWSFixture(t)
	transport := newTestTransport(t, server.URL, "token-1")
	transport.Connect()
	require.Eventually(t, transport.Connected, 2*time.Second, 10*time.Millisecond)

	transport.Close()
	transport.Close()
	assert.False(t, transport.Connected())

	// A closed transport accepts no new work.
	transport.Connect()
	time.Sleep(30 * time.Millisecond)
	assert.False(t, transport.Connected())
}

func TestTransportURLDerivation(t *testing.T) {
	transport, err := New("https://api.hoterier.com", "tok")
	require.NoError(t, err)
	assert.Contains(t, transport.wsURL, "wss://api.hoterier.com/socket.io")
	assert.Contains(t, transport.wsURL, "token=tok")

	plain, err := New("http://localhost:5000", "")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:5000/socket.io", plain.wsURL)
}

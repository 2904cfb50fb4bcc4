package realtime

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	stdpath "path"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/Dton04/hoterier-cli/internal/logger"
	"github.com/Dton04/hoterier-cli/internal/models"
)

// State of the transport connection.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// ErrNotConnected is returned by Emit while the channel is down. Callers fall
// back to REST; transport failures are never fatal to the UI.
var ErrNotConnected = errors.New("realtime: not connected")

// Handler receives the raw payload of a subscribed event. An alias so that
// consumer-side interfaces can state the signature without importing it.
type Handler = func(data json.RawMessage)

const (
	defaultBackoffFloor = time.Second
	defaultBackoffCap   = 30 * time.Second
	handshakeTimeout    = 10 * time.Second
)

// Transport owns one websocket connection per authenticated session. It
// reconnects forever with exponential backoff and synthesizes connect,
// disconnect and connect_error events through the same subscription interface
// as wire events, so consumers rejoin rooms and re-pull feeds uniformly.
type Transport struct {
	wsURL  string
	header http.Header

	backoffFloor time.Duration
	backoffCap   time.Duration

	mu       sync.Mutex
	conn     *websocket.Conn
	state    State
	handlers map[string]map[int]Handler
	nextID   int
	started  bool
	closed   bool
	stop     chan struct{}

	log *logrus.Entry
}

// New prepares a transport against the server's realtime endpoint. The token
// is carried redundantly in the Authorization header and a query parameter;
// proxies occasionally strip one of the two.
func New(serverURL, token string) (*Transport, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = stdpath.Join(u.Path, "socket.io")

	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}

	return &Transport{
		wsURL:        u.String(),
		header:       header,
		backoffFloor: defaultBackoffFloor,
		backoffCap:   defaultBackoffCap,
		handlers:     make(map[string]map[int]Handler),
		log:          logger.Log.WithField("component", "realtime"),
	}, nil
}

// SetBackoff overrides the retry delays; tests shrink them.
func (t *Transport) SetBackoff(floor, cap time.Duration) {
	t.backoffFloor = floor
	t.backoffCap = cap
}

// Connect starts the connection loop. Calling it twice is a no-op.
func (t *Transport) Connect() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started || t.closed {
		return
	}
	t.started = true
	t.stop = make(chan struct{})
	go t.run()
}

func (t *Transport) run() {
	backoff := t.backoffFloor
	for {
		select {
		case <-t.stop:
			return
		default:
		}

		t.setState(StateConnecting)
		conn, err := t.dial()
		if err != nil {
			t.log.WithError(err).Warn("realtime dial failed")
			t.setState(StateDisconnected)
			t.dispatch(models.EventConnectError, nil)
			if !t.sleep(backoff) {
				return
			}
			backoff = min(backoff*2, t.backoffCap)
			continue
		}

		t.mu.Lock()
		if t.closed {
			t.mu.Unlock()
			_ = conn.Close()
			return
		}
		t.conn = conn
		t.state = StateConnected
		t.mu.Unlock()

		backoff = t.backoffFloor
		t.dispatch(models.EventConnect, nil)

		t.readLoop(conn)

		t.mu.Lock()
		t.conn = nil
		t.state = StateDisconnected
		closed := t.closed
		t.mu.Unlock()

		t.dispatch(models.EventDisconnect, nil)
		if closed {
			return
		}
		if !t.sleep(backoff) {
			return
		}
	}
}

func (t *Transport) dial() (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, resp, err := dialer.Dial(t.wsURL, t.header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

func (t *Transport) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			_ = conn.Close()
			return
		}
		var evt models.Event
		if err := json.Unmarshal(data, &evt); err != nil {
			// Malformed frame; keep the connection alive.
			continue
		}
		t.dispatch(evt.Type, evt.Data)
	}
}

func (t *Transport) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-t.stop:
		return false
	case <-timer.C:
		return true
	}
}

func (t *Transport) setState(s State) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
}

// State returns the current connection state.
func (t *Transport) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Connected reports whether a live connection is up right now.
func (t *Transport) Connected() bool {
	return t.State() == StateConnected
}

// On subscribes a handler to a named event and returns a disposer. Disposers
// make teardown deterministic across remounts instead of leaking listeners.
func (t *Transport) On(event string, h Handler) func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return func() {}
	}
	if t.handlers[event] == nil {
		t.handlers[event] = make(map[int]Handler)
	}
	t.nextID++
	id := t.nextID
	t.handlers[event][id] = h

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if hs, ok := t.handlers[event]; ok {
			delete(hs, id)
		}
	}
}

// Emit sends a client-initiated event. Errors when the channel is down so the
// caller can take the REST path instead.
func (t *Transport) Emit(event string, payload any) error {
	evt, err := models.NewEvent(event, payload)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateConnected || t.conn == nil {
		return ErrNotConnected
	}
	return t.conn.WriteJSON(evt)
}

func (t *Transport) dispatch(event string, data json.RawMessage) {
	t.mu.Lock()
	hs := make([]Handler, 0, len(t.handlers[event]))
	for _, h := range t.handlers[event] {
		hs = append(hs, h)
	}
	t.mu.Unlock()

	for _, h := range hs {
		h(data)
	}
}

// Close tears the connection down and releases every registered listener.
// Idempotent; safe to call on an unstarted transport.
func (t *Transport) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	if t.started {
		close(t.stop)
	}
	conn := t.conn
	t.conn = nil
	t.state = StateDisconnected
	t.handlers = make(map[string]map[int]Handler)
	t.mu.Unlock()

	if conn != nil {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
		_ = conn.Close()
	}
}

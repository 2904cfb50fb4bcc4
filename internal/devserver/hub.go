package devserver

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/Dton04/hoterier-cli/internal/logger"
	"github.com/Dton04/hoterier-cli/internal/models"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// Hub fans realtime events out to connected clients. Conversation events go
// to room members, notification events to every eligible client.
type Hub struct {
	mu      sync.Mutex
	clients map[*wsClient]bool
	store   *Store
}

func NewHub(store *Store) *Hub {
	return &Hub{clients: make(map[*wsClient]bool), store: store}
}

type wsClient struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	identity models.Identity
	mu       sync.Mutex
	rooms    map[string]bool
}

// Serve upgrades the request and runs the client pumps until disconnect.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, identity models.Identity) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.WithError(err).Warn("ws upgrade failed")
		return
	}

	c := &wsClient{
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, 64),
		identity: identity,
		rooms:    make(map[string]bool),
	}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	go c.writePump()
	c.readPump()
}

func (c *wsClient) readPump() {
	defer func() {
		c.hub.mu.Lock()
		if _, ok := c.hub.clients[c]; ok {
			delete(c.hub.clients, c)
			close(c.send)
		}
		c.hub.mu.Unlock()
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(1 << 20)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var evt models.Event
		if err := json.Unmarshal(data, &evt); err != nil {
			// Malformed input; keep the connection alive.
			continue
		}
		c.handleEvent(evt)
	}
}

func (c *wsClient) handleEvent(evt models.Event) {
	switch evt.Type {
	case models.EventConversationJoin:
		var payload models.JoinPayload
		if err := json.Unmarshal(evt.Data, &payload); err != nil || payload.ConversationID == "" {
			return
		}
		if _, ok := c.hub.store.ConversationByID(payload.ConversationID, c.identity.UserID); !ok {
			return
		}
		c.mu.Lock()
		c.rooms[payload.ConversationID] = true
		c.mu.Unlock()

	case models.EventMessageSend:
		var payload models.SendPayload
		if err := json.Unmarshal(evt.Data, &payload); err != nil || payload.Content == "" {
			return
		}
		if _, ok := c.hub.store.ConversationByID(payload.ConversationID, c.identity.UserID); !ok {
			return
		}
		msg := c.hub.store.AppendMessage(payload.ConversationID, c.identity.UserID, models.MessageText, payload.Content, "")
		c.hub.BroadcastToConversation(payload.ConversationID, models.EventMessageNew, msg)

	case models.EventTyping:
		var payload models.TypingPayload
		if err := json.Unmarshal(evt.Data, &payload); err != nil {
			return
		}
		payload.UserID = c.identity.UserID
		c.hub.broadcastExcept(payload.ConversationID, c, models.EventTyping, payload)
	}
}

func (c *wsClient) writePump() {
	defer func() { _ = c.conn.Close() }()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (c *wsClient) inRoom(conversationID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rooms[conversationID]
}

// BroadcastToConversation delivers an event to every room member.
func (h *Hub) BroadcastToConversation(conversationID, eventType string, payload any) {
	h.broadcastExcept(conversationID, nil, eventType, payload)
}

func (h *Hub) broadcastExcept(conversationID string, skip *wsClient, eventType string, payload any) {
	evt, err := models.NewEvent(eventType, payload)
	if err != nil {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c == skip || !c.inRoom(conversationID) {
			continue
		}
		select {
		case c.send <- data:
		default:
			// Slow client; drop.
		}
	}
}

// BroadcastNotification delivers a notification event to eligible clients
// (for expiry events the eligibility check is skipped; removal is harmless).
func (h *Hub) BroadcastNotification(eventType string, payload any, eligible func(models.Identity) bool) {
	evt, err := models.NewEvent(eventType, payload)
	if err != nil {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if eligible != nil && !eligible(c.identity) {
			continue
		}
		select {
		case c.send <- data:
		default:
		}
	}
}

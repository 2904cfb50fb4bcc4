package models

import (
	"encoding/json"
)

// Event is the wire envelope for everything crossing the realtime channel.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewEvent marshals payload into an envelope of the given type.
func NewEvent(eventType string, payload any) (Event, error) {
	if payload == nil {
		return Event{Type: eventType}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: eventType, Data: data}, nil
}

// Event names on the realtime channel. connect/disconnect/connect_error are
// synthesized by the transport itself, the rest travel over the wire.
const (
	EventConnect      = "connect"
	EventDisconnect   = "disconnect"
	EventConnectError = "connect_error"

	EventMessageNew          = "message:new"
	EventNotificationNew     = "notification:new"
	EventNotificationExpired = "notification:expired"

	EventConversationJoin = "conversation:join"
	EventMessageSend      = "message:send"
	EventTyping           = "typing"
)

// JoinPayload asserts room membership for a conversation. Joining is idempotent.
type JoinPayload struct {
	ConversationID string `json:"conversationId"`
}

// SendPayload carries a client-initiated text message.
type SendPayload struct {
	ConversationID string `json:"conversationId"`
	Content        string `json:"content"`
}

// TypingPayload is the transient typing signal for a conversation.
type TypingPayload struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId,omitempty"`
}

// ExpiredPayload identifies a notification the server withdrew early.
type ExpiredPayload struct {
	ID string `json:"id"`
}

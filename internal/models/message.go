package models

import (
	"encoding/json"
	"time"
)

type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
)

// Sender is either a bare user id or an embedded user document, depending on
// whether the server populated the reference. Both decode into the same shape.
type Sender struct {
	User
}

func (s *Sender) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		s.User = User{ID: id}
		return nil
	}
	return json.Unmarshal(data, &s.User)
}

func (s Sender) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.User)
}

// Message is immutable once received; the client only ever appends.
// Display order is receipt order, CreatedAt is advisory for rendering only.
type Message struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversationId"`
	Sender         Sender      `json:"sender"`
	Type           MessageType `json:"type"`
	Content        string      `json:"content,omitempty"`
	ImageURL       string      `json:"imageUrl,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
}

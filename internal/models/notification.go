package models

import (
	"encoding/json"
	"time"
)

// Scope is the normalized audience of a notification. Raw payloads carry the
// recipient under several optional field names; normalization happens once in
// UnmarshalJSON so downstream code never re-inspects raw fields.
type Scope string

const (
	ScopeAll   Scope = "all"
	ScopeStaff Scope = "staff"
	ScopeUser  Scope = "user"
)

type NotificationType string

const (
	NotifyInfo    NotificationType = "info"
	NotifyWarning NotificationType = "warning"
	NotifyError   NotificationType = "error"
)

// Notification is a server-owned announcement or targeted alert. Local copies
// are created on feed fetch or live push and mutated only by removal.
type Notification struct {
	ID          string           `json:"id"`
	Message     string           `json:"message"`
	Type        NotificationType `json:"type,omitempty"`
	Category    string           `json:"category,omitempty"`
	IsSystem    bool             `json:"isSystem,omitempty"`
	Scope       Scope            `json:"scope"`
	RecipientID string           `json:"recipientId,omitempty"`
	StartsAt    *time.Time       `json:"startsAt,omitempty"`
	EndsAt      *time.Time       `json:"endsAt,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	IsOutdated  bool             `json:"isOutdated,omitempty"`
}

// notificationWire mirrors the raw server payload. The recipient may arrive
// under any of the historical field names; audience may be absent entirely.
type notificationWire struct {
	ID         string           `json:"id"`
	Message    string           `json:"message"`
	Type       NotificationType `json:"type"`
	Category   string           `json:"category"`
	IsSystem   bool             `json:"isSystem"`
	Audience   string           `json:"audience"`
	Scope      Scope            `json:"scope"`
	Recipient  string           `json:"recipient"`
	Recipient2 string           `json:"recipientId"`
	Recipient3 string           `json:"userId"`
	Recipient4 string           `json:"toUserId"`
	StartsAt   *time.Time       `json:"startsAt"`
	EndsAt     *time.Time       `json:"endsAt"`
	CreatedAt  time.Time        `json:"createdAt"`
	IsOutdated bool             `json:"isOutdated"`
}

func (w notificationWire) recipientID() string {
	for _, id := range []string{w.Recipient2, w.Recipient, w.Recipient3, w.Recipient4} {
		if id != "" {
			return id
		}
	}
	return ""
}

func (n *Notification) UnmarshalJSON(data []byte) error {
	var w notificationWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*n = Notification{
		ID:         w.ID,
		Message:    w.Message,
		Type:       w.Type,
		Category:   w.Category,
		IsSystem:   w.IsSystem,
		StartsAt:   w.StartsAt,
		EndsAt:     w.EndsAt,
		CreatedAt:  w.CreatedAt,
		IsOutdated: w.IsOutdated,
	}

	recipient := w.recipientID()
	audience := w.Audience
	if audience == "" && w.Scope != "" {
		// Already-normalized payload (our own cache snapshot round-trips here).
		audience = string(w.Scope)
	}

	switch {
	case audience == string(ScopeAll):
		n.Scope = ScopeAll
	case audience == string(ScopeStaff):
		n.Scope = ScopeStaff
	case recipient != "":
		n.Scope = ScopeUser
		n.RecipientID = recipient
	case w.IsSystem:
		// System notification without a recipient is treated as a broadcast.
		n.Scope = ScopeAll
	default:
		// No audience, no recipient: addressed to nobody.
		n.Scope = ScopeUser
	}
	return nil
}

// EligibleFor reports whether the notification may be shown to the identity,
// independent of timing.
func (n Notification) EligibleFor(identity Identity) bool {
	switch n.Scope {
	case ScopeAll:
		return true
	case ScopeStaff:
		return identity.Role.IsStaff()
	case ScopeUser:
		return n.RecipientID != "" && n.RecipientID == identity.UserID
	}
	return false
}

// VisibleAt reports whether an eligible notification is inside its visibility
// window at instant t. Both window ends are inclusive.
func (n Notification) VisibleAt(t time.Time) bool {
	if n.IsOutdated {
		return false
	}
	if n.StartsAt != nil && n.StartsAt.After(t) {
		return false
	}
	if n.EndsAt != nil && n.EndsAt.Before(t) {
		return false
	}
	return true
}

package models

import (
	"time"
)

// Hotel is the hotel context optionally attached to a support conversation.
type Hotel struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	ImageURLs []string `json:"imageUrls,omitempty"`
}

// Participant wraps the populated user document of a conversation member.
type Participant struct {
	User User `json:"user"`
}

// Conversation is a server-owned thread between the viewer and one counterpart.
// The client never invents conversation identity; it only caches ids the server returned.
type Conversation struct {
	ID           string        `json:"id"`
	Participants []Participant `json:"participants"`
	Hotel        *Hotel        `json:"hotelId,omitempty"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// Counterpart returns the first participant whose id differs from viewerID.
func (c Conversation) Counterpart(viewerID string) (User, bool) {
	for _, p := range c.Participants {
		if p.User.ID != viewerID {
			return p.User, true
		}
	}
	return User{}, false
}

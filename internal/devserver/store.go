package devserver

import (
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Dton04/hoterier-cli/internal/models"
)

const devSigningKey = "hoterier-dev"

// Store is the in-memory state of the dev fixture. Nothing is durable; the
// production backend owns real persistence.
type Store struct {
	mu            sync.Mutex
	users         map[string]models.User
	tokens        map[string]models.Identity
	hotels        map[string]models.Hotel
	conversations map[string]*models.Conversation
	messages      map[string][]models.Message
	notifications map[string]models.Notification
	expired       map[string]bool
}

// SeedTokens are the ready-made bearer tokens printed at startup.
type SeedTokens struct {
	Guest string
	Staff string
}

func NewStore() (*Store, SeedTokens) {
	s := &Store{
		users:         make(map[string]models.User),
		tokens:        make(map[string]models.Identity),
		hotels:        make(map[string]models.Hotel),
		conversations: make(map[string]*models.Conversation),
		messages:      make(map[string][]models.Message),
		notifications: make(map[string]models.Notification),
		expired:       make(map[string]bool),
	}

	guest := models.User{ID: uuid.NewString(), Name: "Minh Pham", Email: "minh@example.com", Role: models.RoleUser}
	staff := models.User{ID: uuid.NewString(), Name: "An Tran", Email: "an@hoterier.example", Role: models.RoleStaff}
	s.users[guest.ID] = guest
	s.users[staff.ID] = staff

	hotel := models.Hotel{ID: uuid.NewString(), Name: "Hoterier Saigon Central", ImageURLs: []string{"/uploads/saigon-central.jpg"}}
	s.hotels[hotel.ID] = hotel

	tokens := SeedTokens{
		Guest: s.mintToken(guest),
		Staff: s.mintToken(staff),
	}

	now := time.Now()
	soon := now.Add(2 * time.Minute)
	later := now.Add(time.Hour)
	s.seedNotification(models.Notification{
		ID: uuid.NewString(), Message: "Summer sale: 20% off all beachfront rooms.",
		Type: models.NotifyInfo, Category: "promo", Scope: models.ScopeAll,
		CreatedAt: now, EndsAt: &later,
	})
	s.seedNotification(models.Notification{
		ID: uuid.NewString(), Message: "Shift handover checklist updated.",
		Type: models.NotifyWarning, Category: "ops", Scope: models.ScopeStaff,
		CreatedAt: now,
	})
	s.seedNotification(models.Notification{
		ID: uuid.NewString(), Message: "Your booking at Saigon Central is confirmed.",
		Type: models.NotifyInfo, Category: "booking", Scope: models.ScopeUser,
		RecipientID: guest.ID, CreatedAt: now, EndsAt: &later,
	})
	s.seedNotification(models.Notification{
		ID: uuid.NewString(), Message: "Scheduled maintenance window starts shortly.",
		Type: models.NotifyError, Category: "system", IsSystem: true, Scope: models.ScopeAll,
		CreatedAt: now, StartsAt: &soon, EndsAt: &later,
	})

	return s, tokens
}

func (s *Store) mintToken(user models.User) string {
	claims := jwt.MapClaims{
		"userID": user.ID,
		"role":   string(user.Role),
		"exp":    time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, _ := token.SignedString([]byte(devSigningKey))
	s.tokens[signed] = models.Identity{UserID: user.ID, Role: user.Role, Token: signed}
	return signed
}

func (s *Store) seedNotification(n models.Notification) {
	s.notifications[n.ID] = n
}

// IdentityForToken resolves a bearer token.
func (s *Store) IdentityForToken(token string) (models.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	identity, ok := s.tokens[token]
	return identity, ok
}

// Users lists the directory.
func (s *Store) Users() []models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	return users
}

// SearchUsers filters by name or email substring.
func (s *Store) SearchUsers(query string) []models.User {
	query = strings.ToLower(query)
	var out []models.User
	for _, u := range s.Users() {
		if strings.Contains(strings.ToLower(u.Name), query) ||
			strings.Contains(strings.ToLower(u.Email), query) {
			out = append(out, u)
		}
	}
	return out
}

// Conversations lists threads the viewer participates in.
func (s *Store) Conversations(viewerID string) []models.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Conversation
	for _, conv := range s.conversations {
		for _, p := range conv.Participants {
			if p.User.ID == viewerID {
				out = append(out, *conv)
				break
			}
		}
	}
	return out
}

// ConversationByID returns a thread and whether the viewer belongs to it.
func (s *Store) ConversationByID(id, viewerID string) (models.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[id]
	if !ok {
		return models.Conversation{}, false
	}
	for _, p := range conv.Participants {
		if p.User.ID == viewerID {
			return *conv, true
		}
	}
	return models.Conversation{}, false
}

// EnsureConversation finds or creates the thread between the viewer and a
// target user (or a hotel's staff contact). Creation is idempotent per pair.
func (s *Store) EnsureConversation(viewerID, targetUserID, hotelID string) (models.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var hotel *models.Hotel
	if hotelID != "" {
		h, ok := s.hotels[hotelID]
		if !ok {
			return models.Conversation{}, false
		}
		hotel = &h
		if targetUserID == "" {
			// Route hotel conversations to the first staff account.
			for _, u := range s.users {
				if u.Role.IsStaff() {
					targetUserID = u.ID
					break
				}
			}
		}
	}

	viewer, ok := s.users[viewerID]
	if !ok {
		return models.Conversation{}, false
	}
	target, ok := s.users[targetUserID]
	if !ok || target.ID == viewer.ID {
		return models.Conversation{}, false
	}

	for _, conv := range s.conversations {
		if hasParticipant(conv, viewer.ID) && hasParticipant(conv, target.ID) {
			return *conv, true
		}
	}

	conv := &models.Conversation{
		ID:           uuid.NewString(),
		Participants: []models.Participant{{User: viewer}, {User: target}},
		Hotel:        hotel,
		UpdatedAt:    time.Now(),
	}
	s.conversations[conv.ID] = conv
	return *conv, true
}

func hasParticipant(conv *models.Conversation, userID string) bool {
	for _, p := range conv.Participants {
		if p.User.ID == userID {
			return true
		}
	}
	return false
}

// Messages returns the full thread history in receipt order.
func (s *Store) Messages(conversationID string) []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Message(nil), s.messages[conversationID]...)
}

// AppendMessage stores and returns a new message.
func (s *Store) AppendMessage(conversationID, senderID string, msgType models.MessageType, content, imageURL string) models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	sender := s.users[senderID]
	msg := models.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Sender:         models.Sender{User: sender},
		Type:           msgType,
		Content:        content,
		ImageURL:       imageURL,
		CreatedAt:      time.Now(),
	}
	s.messages[conversationID] = append(s.messages[conversationID], msg)
	if conv, ok := s.conversations[conversationID]; ok {
		conv.UpdatedAt = msg.CreatedAt
	}
	return msg
}

// FeedFor returns currently visible notifications for an identity.
func (s *Store) FeedFor(identity models.Identity) []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	var out []models.Notification
	for _, n := range s.notifications {
		if s.expired[n.ID] || !n.VisibleAt(now) || !n.EligibleFor(identity) {
			continue
		}
		out = append(out, n)
	}
	return out
}

// PublicLatest returns visible broadcast notifications.
func (s *Store) PublicLatest() []models.Notification {
	return s.FeedFor(models.Identity{})
}

// AddNotification stores a staff-pushed notification.
func (s *Store) AddNotification(n models.Notification) models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.CreatedAt = time.Now()
	s.notifications[n.ID] = n
	return n
}

// SweepExpired returns ids whose window just closed, once each.
func (s *Store) SweepExpired() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	var out []string
	for id, n := range s.notifications {
		if s.expired[id] {
			continue
		}
		if n.EndsAt != nil && n.EndsAt.Before(now) {
			s.expired[id] = true
			out = append(out, id)
		}
	}
	return out
}

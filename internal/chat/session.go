package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Dton04/hoterier-cli/internal/logger"
	"github.com/Dton04/hoterier-cli/internal/models"
)

var (
	// ErrEmptyMessage rejects a send whose content trims to nothing. Caught
	// before any network call.
	ErrEmptyMessage = errors.New("chat: empty message")
	// ErrNoConversation rejects operations before a conversation is open.
	ErrNoConversation = errors.New("chat: no active conversation")
	// ErrStaleResponse marks a history fetch that resolved after the user
	// switched conversations; its payload must be discarded, not applied.
	ErrStaleResponse = errors.New("chat: stale history response")
)

const defaultTypingIdle = 2 * time.Second

// API is the slice of the REST client the session needs.
type API interface {
	Messages(ctx context.Context, conversationID string) ([]models.Message, error)
	SendMessage(ctx context.Context, conversationID, content string) (models.Message, error)
	SendImage(ctx context.Context, conversationID, filename string, file io.Reader, caption string) (models.Message, error)
}

// Transport is the slice of the realtime adapter the session needs.
type Transport interface {
	Connected() bool
	Emit(event string, payload any) error
	On(event string, h func(data json.RawMessage)) func()
}

// Session is a per-conversation message list with optimistic-free send (the
// live echo appends), REST fallback, typing indicator, unread badge, and
// rejoin-on-reconnect semantics. Message order is receipt order; server
// timestamps are advisory for display only.
type Session struct {
	api       API
	transport Transport
	badge     *Badge
	log       *logrus.Entry

	typingIdle time.Duration

	mu          sync.Mutex
	activeID    string
	openSeq     uint64
	messages    []models.Message
	surfaceOpen bool
	typing      bool
	typingTimer *time.Timer
	disposers   []func()

	appends chan models.Message
}

// NewSession wires a session to the transport's live stream. Close releases
// the subscriptions.
func NewSession(api API, transport Transport) *Session {
	s := &Session{
		api:        api,
		transport:  transport,
		badge:      &Badge{},
		typingIdle: defaultTypingIdle,
		appends:    make(chan models.Message, 32),
		log:        logger.Log.WithField("component", "chat"),
	}
	if transport != nil {
		s.disposers = append(s.disposers,
			transport.On(models.EventMessageNew, s.onLiveMessage),
			transport.On(models.EventConnect, func(json.RawMessage) { s.rejoin() }),
		)
	}
	return s
}

// SetTypingIdle overrides the typing self-clear interval; tests shrink it.
func (s *Session) SetTypingIdle(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.typingIdle = d
}

// Appends delivers live-appended messages so the view can decide whether to
// auto-scroll (it knows if the viewer was at the bottom).
func (s *Session) Appends() <-chan models.Message {
	return s.appends
}

// Open makes conversationID the active one and fetches its full history. A
// response that resolves after another Open call wins the race is discarded
// and reported as ErrStaleResponse. A failed fetch degrades to an empty list;
// the caller renders a start-the-conversation placeholder, not an error page.
func (s *Session) Open(ctx context.Context, conversationID string) ([]models.Message, error) {
	if conversationID == "" {
		return nil, ErrNoConversation
	}

	s.mu.Lock()
	s.activeID = conversationID
	s.openSeq++
	seq := s.openSeq
	s.messages = nil
	s.surfaceOpen = true
	s.mu.Unlock()
	s.badge.Clear()

	if s.transport != nil && s.transport.Connected() {
		if err := s.transport.Emit(models.EventConversationJoin, models.JoinPayload{ConversationID: conversationID}); err != nil {
			s.log.WithError(err).Debug("room join emit failed")
		}
	}

	history, err := s.api.Messages(ctx, conversationID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openSeq != seq || s.activeID != conversationID {
		return nil, ErrStaleResponse
	}
	if err != nil {
		s.messages = nil
		return nil, err
	}
	s.messages = append([]models.Message(nil), history...)
	return append([]models.Message(nil), s.messages...), nil
}

// Send dispatches trimmed text. With a live connection it emits over the
// socket and relies on the live echo to append; otherwise it falls back to
// REST and appends the response directly. The composer is cleared by the
// caller on dispatch either way and is not restored on failure.
func (s *Session) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	s.mu.Lock()
	conversationID := s.activeID
	s.mu.Unlock()
	if conversationID == "" {
		return ErrNoConversation
	}

	if s.transport != nil && s.transport.Connected() {
		return s.transport.Emit(models.EventMessageSend, models.SendPayload{
			ConversationID: conversationID,
			Content:        text,
		})
	}

	msg, err := s.api.SendMessage(ctx, conversationID, text)
	if err != nil {
		return err
	}
	s.append(msg)
	return nil
}

// SendImage uploads an attachment over REST (always; there is no realtime
// path for files) and appends the server-returned message.
func (s *Session) SendImage(ctx context.Context, filename string, file io.Reader, caption string) error {
	s.mu.Lock()
	conversationID := s.activeID
	s.mu.Unlock()
	if conversationID == "" {
		return ErrNoConversation
	}

	msg, err := s.api.SendImage(ctx, conversationID, filename, file, caption)
	if err != nil {
		return err
	}
	s.append(msg)
	return nil
}

// TypingPulse emits the transient typing signal at most once per keystroke
// burst. The local flag gates only this client's input affordance and
// self-clears after the idle interval; no server round-trip involved.
func (s *Session) TypingPulse() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.typing && s.transport != nil && s.transport.Connected() && s.activeID != "" {
		if err := s.transport.Emit(models.EventTyping, models.TypingPayload{ConversationID: s.activeID}); err != nil {
			s.log.WithError(err).Debug("typing emit failed")
		}
	}
	s.typing = true

	if s.typingTimer != nil {
		s.typingTimer.Stop()
	}
	s.typingTimer = time.AfterFunc(s.typingIdle, func() {
		s.mu.Lock()
		s.typing = false
		s.mu.Unlock()
	})
}

// Typing reports this client's own transient typing state.
func (s *Session) Typing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.typing
}

// SetSurfaceOpen records whether the chat surface is visible. Opening clears
// the unread badge atomically.
func (s *Session) SetSurfaceOpen(open bool) {
	s.mu.Lock()
	s.surfaceOpen = open
	s.mu.Unlock()
	if open {
		s.badge.Clear()
	}
}

// Unread returns the badge count.
func (s *Session) Unread() int {
	return s.badge.Count()
}

// ClearUnread resets the badge explicitly.
func (s *Session) ClearUnread() {
	s.badge.Clear()
}

// ActiveID returns the active conversation id, empty when none is open.
func (s *Session) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Messages returns a copy of the current message list in receipt order.
func (s *Session) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Message(nil), s.messages...)
}

func (s *Session) onLiveMessage(data json.RawMessage) {
	var msg models.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		s.log.WithError(err).Debug("dropping malformed message push")
		return
	}

	s.mu.Lock()
	open := s.surfaceOpen
	active := s.activeID
	s.mu.Unlock()

	if !open {
		s.badge.Bump()
		return
	}
	if msg.ConversationID != active {
		return
	}
	s.append(msg)
}

func (s *Session) append(msg models.Message) {
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()

	select {
	case s.appends <- msg:
	default:
		// View is behind; it re-reads Messages() on next refresh.
	}
}

// rejoin re-asserts room membership after a reconnect, before any further
// send, so live echoes of this client's own messages are not lost.
func (s *Session) rejoin() {
	s.mu.Lock()
	conversationID := s.activeID
	s.mu.Unlock()
	if conversationID == "" || s.transport == nil {
		return
	}
	if err := s.transport.Emit(models.EventConversationJoin, models.JoinPayload{ConversationID: conversationID}); err != nil {
		s.log.WithError(err).Debug("rejoin emit failed")
	}
}

// Close releases transport subscriptions and stops timers.
func (s *Session) Close() {
	s.mu.Lock()
	disposers := s.disposers
	s.disposers = nil
	if s.typingTimer != nil {
		s.typingTimer.Stop()
		s.typingTimer = nil
	}
	s.mu.Unlock()

	for _, dispose := range disposers {
		dispose()
	}
}

package chat

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dton04/hoterier-cli/internal/models"
)

type fakeAPI struct {
	mu        sync.Mutex
	histories map[string][]models.Message
	block     map[string]chan struct{}
	sendCalls []string
	sendErr   error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		histories: make(map[string][]models.Message),
		block:     make(map[string]chan struct{}),
	}
}

func (f *fakeAPI) Messages(ctx context.Context, conversationID string) ([]models.Message, error) {
	f.mu.Lock()
	gate := f.block[conversationID]
	history := f.histories[conversationID]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return history, nil
}

func (f *fakeAPI) SendMessage(ctx context.Context, conversationID, content string) (models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return models.Message{}, f.sendErr
	}
	f.sendCalls = append(f.sendCalls, content)
	return models.Message{ID: "rest-msg", ConversationID: conversationID, Content: content}, nil
}

func (f *fakeAPI) SendImage(ctx context.Context, conversationID, filename string, file io.Reader, caption string) (models.Message, error) {
	return models.Message{ID: "rest-img", ConversationID: conversationID, ImageURL: "/uploads/" + filename, Content: caption}, nil
}

type fakeTransport struct {
	mu        sync.Mutex
	connected bool
	emits     []models.Event
	handlers  map[string][]func(json.RawMessage)
}

func newFakeTransport(connected bool) *fakeTransport {
	return &fakeTransport{connected: connected, handlers: make(map[string][]func(json.RawMessage))}
}

func (f *fakeTransport) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeTransport) setConnected(connected bool) {
	f.mu.Lock()
	f.connected = connected
	f.mu.Unlock()
}

func (f *fakeTransport) Emit(event string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emits = append(f.emits, models.Event{Type: event, Data: raw})
	return nil
}

func (f *fakeTransport) On(event string, h func(data json.RawMessage)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[event] = append(f.handlers[event], h)
	return func() {}
}

func (f *fakeTransport) fire(event string, payload any) {
	raw, _ := json.Marshal(payload)
	f.mu.Lock()
	handlers := append([]func(json.RawMessage){}, f.handlers[event]...)
	f.mu.Unlock()
	for _, h := range handlers {
		h(raw)
	}
}

func (f *fakeTransport) emitted(event string) []models.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Event
	for _, e := range f.emits {
		if e.Type == event {
			out = append(out, e)
		}
	}
	return out
}

func TestOpenLoadsHistoryAndJoinsRoom(t *testing.T) {
	api := newFakeAPI()
	api.histories["c1"] = []models.Message{{ID: "m1", ConversationID: "c1"}}
	transport := newFakeTransport(true)
	s := NewSession(api, transport)
	defer s.Close()

	history, err := s.Open(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "m1", history[0].ID)
	assert.Len(t, transport.emitted(models.EventConversationJoin), 1)
}

func TestOpenDiscardsStaleResponse(t *testing.T) {
	api := newFakeAPI()
	api.histories["c1"] = []models.Message{{ID: "old", ConversationID: "c1"}}
	api.histories["c2"] = []models.Message{{ID: "new", ConversationID: "c2"}}
	gate := make(chan struct{})
	api.block["c1"] = gate

	s := NewSession(api, nil)
	defer s.Close()

	type result struct {
		history []models.Message
		err     error
	}
	first := make(chan result, 1)
	go func() {
		h, err := s.Open(context.Background(), "c1")
		first <- result{h, err}
	}()

	// Second open wins the race; the blocked first response must be dropped.
	time.Sleep(10 * time.Millisecond)
	history, err := s.Open(context.Background(), "c2")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "new", history[0].ID)

	close(gate)
	got := <-first
	assert.ErrorIs(t, got.err, ErrStaleResponse)
	assert.Nil(t, got.history)

	messages := s.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "new", messages[0].ID)
}

func TestSendLiveEmitsAndWaitsForEcho(t *testing.T) {
	api := newFakeAPI()
	transport := newFakeTransport(true)
	s := NewSession(api, transport)
	defer s.Close()

	_, err := s.Open(context.Background(), "c1")
	require.NoError(t, err)

	require.NoError(t, s.Send(context.Background(), "  hello  "))

	// Live send must not append locally or hit REST; the echo does the append.
	assert.Empty(t, s.Messages())
	assert.Empty(t, api.sendCalls)
	sends := transport.emitted(models.EventMessageSend)
	require.Len(t, sends, 1)
	var payload models.SendPayload
	require.NoError(t, json.Unmarshal(sends[0].Data, &payload))
	assert.Equal(t, "hello", payload.Content)
	assert.Equal(t, "c1", payload.ConversationID)

	transport.fire(models.EventMessageNew, models.Message{ID: "echo", ConversationID: "c1", Content: "hello"})
	messages := s.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "echo", messages[0].ID)
}

func TestSendFallsBackToRESTWhenDisconnected(t *testing.T) {
	api := newFakeAPI()
	transport := newFakeTransport(false)
	s := NewSession(api, transport)
	defer s.Close()

	_, err := s.Open(context.Background(), "c1")
	require.NoError(t, err)

	require.NoError(t, s.Send(context.Background(), "offline"))

	// Exactly one REST call, zero socket emits, response appended.
	assert.Equal(t, []string{"offline"}, api.sendCalls)
	assert.Empty(t, transport.emitted(models.EventMessageSend))
	messages := s.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "offline", messages[0].Content)
}

func TestSendValidation(t *testing.T) {
	s := NewSession(newFakeAPI(), nil)
	defer s.Close()

	assert.ErrorIs(t, s.Send(context.Background(), "   "), ErrEmptyMessage)
	assert.ErrorIs(t, s.Send(context.Background(), "hi"), ErrNoConversation)
}

func TestSendRESTFailureDoesNotAppend(t *testing.T) {
	api := newFakeAPI()
	api.sendErr = assert.AnError
	s := NewSession(api, nil)
	defer s.Close()

	_, err := s.Open(context.Background(), "c1")
	require.NoError(t, err)
	require.Error(t, s.Send(context.Background(), "doomed"))
	assert.Empty(t, s.Messages())
}

func TestLiveMessageForOtherConversationIgnored(t *testing.T) {
	transport := newFakeTransport(true)
	s := NewSession(newFakeAPI(), transport)
	defer s.Close()

	_, err := s.Open(context.Background(), "c1")
	require.NoError(t, err)

	transport.fire(models.EventMessageNew, models.Message{ID: "x", ConversationID: "c2"})
	assert.Empty(t, s.Messages())
	assert.Zero(t, s.Unread())
}

func TestUnreadBadgeBumpsWhileClosed(t *testing.T) {
	transport := newFakeTransport(true)
	s := NewSession(newFakeAPI(), transport)
	defer s.Close()

	_, err := s.Open(context.Background(), "c1")
	require.NoError(t, err)
	s.SetSurfaceOpen(false)

	transport.fire(models.EventMessageNew, models.Message{ID: "m1", ConversationID: "c1"})
	transport.fire(models.EventMessageNew, models.Message{ID: "m2", ConversationID: "c2"})
	assert.Equal(t, 2, s.Unread())
	// Closed surface collects the badge instead of the message list.
	assert.Empty(t, s.Messages())

	s.SetSurfaceOpen(true)
	assert.Zero(t, s.Unread())
}

func TestReconnectRejoinsActiveRoomOnce(t *testing.T) {
	transport := newFakeTransport(true)
	s := NewSession(newFakeAPI(), transport)
	defer s.Close()

	_, err := s.Open(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, transport.emitted(models.EventConversationJoin), 1)

	transport.setConnected(false)
	transport.setConnected(true)
	transport.fire(models.EventConnect, nil)

	joins := transport.emitted(models.EventConversationJoin)
	require.Len(t, joins, 2)
	var payload models.JoinPayload
	require.NoError(t, json.Unmarshal(joins[1].Data, &payload))
	assert.Equal(t, "c1", payload.ConversationID)
}

func TestReconnectWithNoActiveConversationStaysQuiet(t *testing.T) {
	transport := newFakeTransport(true)
	s := NewSession(newFakeAPI(), transport)
	defer s.Close()

	transport.fire(models.EventConnect, nil)
	assert.Empty(t, transport.emitted(models.EventConversationJoin))
}

func TestTypingPulseEmitsOncePerBurst(t *testing.T) {
	transport := newFakeTransport(true)
	s := NewSession(newFakeAPI(), transport)
	defer s.Close()
	s.SetTypingIdle(30 * time.Millisecond)

	_, err := s.Open(context.Background(), "c1")
	require.NoError(t, err)

	s.TypingPulse()
	s.TypingPulse()
	s.TypingPulse()
	assert.Len(t, transport.emitted(models.EventTyping), 1)
	assert.True(t, s.Typing())

	// After the idle window the flag clears and the next burst emits again.
	assert.Eventually(t, func() bool { return !s.Typing() }, time.Second, 5*time.Millisecond)
	s.TypingPulse()
	assert.Len(t, transport.emitted(models.EventTyping), 2)
}

func TestSendImageGoesOverREST(t *testing.T) {
	api := newFakeAPI()
	transport := newFakeTransport(true)
	s := NewSession(api, transport)
	defer s.Close()

	_, err := s.Open(context.Background(), "c1")
	require.NoError(t, err)

	require.NoError(t, s.SendImage(context.Background(), "pic.png", nil, "look"))
	messages := s.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "/uploads/pic.png", messages[0].ImageURL)
	assert.Empty(t, transport.emitted(models.EventMessageSend))
}

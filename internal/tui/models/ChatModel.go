package models

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Dton04/hoterier-cli/internal/chat"
	"github.com/Dton04/hoterier-cli/internal/directory"
	appmodels "github.com/Dton04/hoterier-cli/internal/models"
	"github.com/Dton04/hoterier-cli/internal/tui/styles"
)

const maxVisibleMessages = 12

// ChatModel renders one open conversation: history window, composer, typing
// affordance. Live echoes arrive over the session's append channel.
type ChatModel struct {
	deps         Deps
	conversation appmodels.Conversation
	display      directory.DisplayIdentity
	messages     []appmodels.Message
	input        textarea.Model
	scrollIndex  int
	loading      bool
	flashMessage string
}

func NewChatModel(deps Deps, conversation appmodels.Conversation) ChatModel {
	input := textarea.New()
	input.Placeholder = "Type a message... (/image <path> [caption] to attach)"
	input.Focus()
	input.SetWidth(80)
	input.SetHeight(3)
	input.CharLimit = 500

	return ChatModel{
		deps:         deps,
		conversation: conversation,
		display:      directory.ResolveCounterpart(conversation, deps.Identity.UserID, deps.Identity.Role),
		input:        input,
		loading:      true,
	}
}

func (m ChatModel) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		openConversation(m.deps, m.conversation.ID),
		waitForAppend(m.deps.Session),
	)
}

func (m ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			value := strings.TrimSpace(m.input.Value())
			if value == "" {
				return m, nil
			}
			// Input clears on dispatch; a failed send does not restore it.
			m.input.Reset()
			if path, caption, ok := parseImageCommand(value); ok {
				return m, sendImage(m.deps, path, caption)
			}
			return m, sendMessage(m.deps, value)

		case "esc":
			m.deps.Session.SetSurfaceOpen(false)
			cm := NewConversationsModel(m.deps)
			return cm, cm.Init()

		case "up":
			if m.scrollIndex > 0 {
				m.scrollIndex--
			}

		case "down":
			if m.scrollIndex+maxVisibleMessages < len(m.messages) {
				m.scrollIndex++
			}

		default:
			m.deps.Session.TypingPulse()
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}

	case historyLoadedMsg:
		if msg.stale {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			// Degrade to the empty-thread placeholder, not an error page.
			m.messages = nil
			m.flashMessage = ""
			return m, nil
		}
		m.messages = msg.messages
		m.scrollToBottom()
		return m, nil

	case liveAppendMsg:
		wasAtBottom := m.atBottom()
		m.messages = m.deps.Session.Messages()
		if wasAtBottom {
			// Follow the conversation only if the viewer was already at the
			// bottom; never yank someone reading history.
			m.scrollToBottom()
		}
		return m, waitForAppend(m.deps.Session)

	case sendFailedMsg:
		m.flashMessage = msg.err.Error()
		return m, nil

	case messageSentMsg:
		// REST fallback appended directly; the live path appends via echo.
		m.messages = m.deps.Session.Messages()
		m.scrollToBottom()
		return m, nil

	default:
		m.input, cmd = m.input.Update(msg)
	}

	return m, cmd
}

func (m ChatModel) View() string {
	var sb strings.Builder

	name := m.display.Name
	if name == "" {
		name = "Conversation"
	}
	sb.WriteString(styles.TitleStyle.Render(name))
	if m.display.Hotel != nil && !m.display.IsHotel {
		sb.WriteString(styles.ListItemMetaStyle.Render("  · " + m.display.Hotel.Name))
	}
	sb.WriteString("\n\n")

	switch {
	case m.loading:
		sb.WriteString(styles.StatusInfoStyle.Render("Loading messages...") + "\n")
	case len(m.messages) == 0:
		sb.WriteString(styles.SubtitleStyle.Render("No messages yet. Start the conversation!") + "\n")
	default:
		start := m.scrollIndex
		end := min(len(m.messages), start+maxVisibleMessages)
		for _, message := range m.messages[start:end] {
			sb.WriteString(m.renderMessage(message) + "\n")
		}
		if len(m.messages) > maxVisibleMessages {
			sb.WriteString("\n")
			if m.scrollIndex > 0 {
				sb.WriteString(styles.NavStyle.Render("[↑] "))
			}
			if m.scrollIndex+maxVisibleMessages < len(m.messages) {
				sb.WriteString(styles.NavStyle.Render("[↓]"))
			}
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n" + styles.InputStyle.Render(m.input.View()) + "\n")

	if m.deps.Session.Typing() {
		sb.WriteString(styles.TimestampStyle.Render("typing...") + "\n")
	}
	if m.flashMessage != "" {
		sb.WriteString(styles.StatusErrorStyle.Render(m.flashMessage) + "\n")
	}
	sb.WriteString(styles.CommandStyle.Render("[Esc] Back • [Enter] Send • [↑/↓] Scroll"))
	return styles.ContainerStyle.Render(sb.String())
}

func (m ChatModel) renderMessage(message appmodels.Message) string {
	sender := message.Sender.Name
	own := message.Sender.ID == m.deps.Identity.UserID
	if own {
		sender = "you"
	}
	body := message.Content
	if message.Type == appmodels.MessageImage {
		body = "[image] " + message.ImageURL
		if message.Content != "" {
			body += " — " + message.Content
		}
	}
	line := styles.SenderStyle.Render(sender) + " " +
		styles.TimestampStyle.Render(message.CreatedAt.Format("15:04"))
	if own {
		return line + "\n" + styles.OwnMessageStyle.Render(body)
	}
	return line + "\n" + styles.MessageStyle.Render(body)
}

func (m ChatModel) atBottom() bool {
	return m.scrollIndex+maxVisibleMessages >= len(m.messages)
}

func (m *ChatModel) scrollToBottom() {
	m.scrollIndex = len(m.messages) - maxVisibleMessages
	if m.scrollIndex < 0 {
		m.scrollIndex = 0
	}
}

func parseImageCommand(value string) (path, caption string, ok bool) {
	if !strings.HasPrefix(value, "/image ") {
		return "", "", false
	}
	rest := strings.TrimSpace(strings.TrimPrefix(value, "/image "))
	if rest == "" {
		return "", "", false
	}
	parts := strings.SplitN(rest, " ", 2)
	path = parts[0]
	if len(parts) == 2 {
		caption = strings.TrimSpace(parts[1])
	}
	return path, caption, true
}

type historyLoadedMsg struct {
	messages []appmodels.Message
	err      error
	stale    bool
}

type liveAppendMsg struct {
	message appmodels.Message
}

type messageSentMsg struct{}

type sendFailedMsg struct{ err error }

func openConversation(deps Deps, conversationID string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		// Membership registration is idempotent server-side; a failure here
		// still lets history load.
		_ = deps.Directory.Join(ctx, conversationID)
		messages, err := deps.Session.Open(ctx, conversationID)
		if err == chat.ErrStaleResponse {
			return historyLoadedMsg{stale: true}
		}
		return historyLoadedMsg{messages: messages, err: err}
	}
}

func waitForAppend(session *chat.Session) tea.Cmd {
	return func() tea.Msg {
		message, ok := <-session.Appends()
		if !ok {
			return nil
		}
		return liveAppendMsg{message: message}
	}
}

func sendMessage(deps Deps, content string) tea.Cmd {
	return func() tea.Msg {
		if err := deps.Session.Send(context.Background(), content); err != nil {
			return sendFailedMsg{err: err}
		}
		return messageSentMsg{}
	}
}

func sendImage(deps Deps, path, caption string) tea.Cmd {
	return func() tea.Msg {
		file, err := os.Open(path)
		if err != nil {
			return sendFailedMsg{err: fmt.Errorf("cannot read image: %w", err)}
		}
		defer file.Close()
		if err := deps.Session.SendImage(context.Background(), filepath.Base(path), file, caption); err != nil {
			return sendFailedMsg{err: err}
		}
		return messageSentMsg{}
	}
}

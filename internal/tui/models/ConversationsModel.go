package models

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Dton04/hoterier-cli/internal/directory"
	appmodels "github.com/Dton04/hoterier-cli/internal/models"
	"github.com/Dton04/hoterier-cli/internal/tui/styles"
)

// ConversationsModel is the landing screen: the viewer's conversation list
// with counterpart names resolved, plus the unread and notification badges.
type ConversationsModel struct {
	deps          Deps
	conversations []appmodels.Conversation
	selectedIdx   int
	loading       bool
	flashMessage  string
	starting      bool
}

func NewConversationsModel(deps Deps) ConversationsModel {
	return ConversationsModel{
		deps:    deps,
		loading: true,
	}
}

func (m ConversationsModel) Init() tea.Cmd {
	m.deps.Session.SetSurfaceOpen(false)
	return loadConversations(m.deps)
}

func (m ConversationsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.selectedIdx > 0 {
				m.selectedIdx--
			}

		case "down", "j":
			if m.selectedIdx < len(m.conversations)-1 {
				m.selectedIdx++
			}

		case "enter":
			if len(m.conversations) == 0 || m.deps.Identity.Anonymous() {
				return m, nil
			}
			selected := m.conversations[m.selectedIdx]
			cm := NewChatModel(m.deps, selected)
			return cm, cm.Init()

		case "s":
			// Guest-initiated support conversation against the configured
			// default admin.
			if m.deps.Identity.Anonymous() || m.starting {
				return m, nil
			}
			if m.deps.SupportAdminID == "" {
				m.flashMessage = "Support contact is not yet configured."
				return m, nil
			}
			m.starting = true
			m.flashMessage = "Starting support conversation..."
			return m, startConversation(m.deps, m.deps.SupportAdminID)

		case "u":
			if m.deps.Identity.Role.IsStaff() {
				um := NewUsersModel(m.deps)
				return um, um.Init()
			}
			return m, nil

		case "n":
			nm := NewNotificationsModel(m.deps)
			return nm, nm.Init()

		case "r":
			m.loading = true
			return m, loadConversations(m.deps)

		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case conversationsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.flashMessage = msg.err.Error()
			return m, nil
		}
		m.conversations = msg.conversations
		m.flashMessage = ""
		if m.selectedIdx >= len(m.conversations) {
			m.selectedIdx = 0
		}
		return m, nil

	case conversationStartedMsg:
		m.starting = false
		if msg.err != nil {
			m.flashMessage = msg.err.Error()
			return m, nil
		}
		cm := NewChatModel(m.deps, msg.conversation)
		return cm, cm.Init()
	}

	return m, nil
}

func (m ConversationsModel) View() string {
	var sb strings.Builder

	title := "Hoterier Support"
	if m.deps.Identity.Role.IsStaff() {
		title = "Hoterier Support Desk"
	}
	sb.WriteString(styles.TitleStyle.Render(title))
	if unread := m.deps.Session.Unread(); unread > 0 {
		sb.WriteString("  " + styles.BadgeStyle.Render(fmt.Sprintf("%d unread", unread)))
	}
	if m.deps.Sync.HasNew() {
		sb.WriteString("  " + styles.NavStyle.Render("● new notifications"))
	}
	sb.WriteString("\n\n")

	switch {
	case m.deps.Identity.Anonymous():
		sb.WriteString(styles.SubtitleStyle.Render("Sign in to chat with support. Public announcements are under [n].") + "\n")
	case m.loading:
		sb.WriteString(styles.StatusInfoStyle.Render("Loading conversations...") + "\n")
	case len(m.conversations) == 0:
		sb.WriteString(styles.SubtitleStyle.Render("No conversations yet. Press [s] to contact support.") + "\n")
	default:
		for i, conv := range m.conversations {
			display := directory.ResolveCounterpart(conv, m.deps.Identity.UserID, m.deps.Identity.Role)
			line := display.Name
			if line == "" {
				line = "Conversation " + conv.ID
			}
			if display.Hotel != nil && !display.IsHotel {
				line += styles.ListItemMetaStyle.Render("  · " + display.Hotel.Name)
			}
			if i == m.selectedIdx {
				sb.WriteString(styles.SelectedItemStyle.Render("> "+line) + "\n")
			} else {
				sb.WriteString("  " + line + "\n")
			}
		}
	}

	if m.flashMessage != "" {
		sb.WriteString("\n" + styles.StatusErrorStyle.Render(m.flashMessage) + "\n")
	}

	helpItems := []string{
		styles.RenderKeyBinding("Enter", "Open"),
		styles.RenderKeyBinding("s", "Contact support"),
		styles.RenderKeyBinding("n", "Notifications"),
		styles.RenderKeyBinding("r", "Refresh"),
		styles.RenderKeyBinding("q", "Quit"),
	}
	if m.deps.Identity.Role.IsStaff() {
		helpItems = append(helpItems[:1], append([]string{styles.RenderKeyBinding("u", "Users")}, helpItems[2:]...)...)
	}
	sb.WriteString("\n" + strings.Join(helpItems, "  "))

	return styles.ContainerStyle.Render(sb.String())
}

type conversationsLoadedMsg struct {
	conversations []appmodels.Conversation
	err           error
}

func loadConversations(deps Deps) tea.Cmd {
	return func() tea.Msg {
		if deps.Identity.Anonymous() {
			return conversationsLoadedMsg{}
		}
		conversations, err := deps.Directory.List(context.Background())
		return conversationsLoadedMsg{conversations: conversations, err: err}
	}
}

type conversationStartedMsg struct {
	conversation appmodels.Conversation
	err          error
}

func startConversation(deps Deps, targetUserID string) tea.Cmd {
	return func() tea.Msg {
		conversation, err := deps.Directory.CreateWithUser(context.Background(), targetUserID)
		return conversationStartedMsg{conversation: conversation, err: err}
	}
}

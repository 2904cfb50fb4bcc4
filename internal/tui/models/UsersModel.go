package models

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	appmodels "github.com/Dton04/hoterier-cli/internal/models"
	"github.com/Dton04/hoterier-cli/internal/tui/styles"
)

// UsersModel lets staff pick a guest to open a conversation with, either from
// the full directory or a search query.
type UsersModel struct {
	deps         Deps
	users        []appmodels.User
	selectedIdx  int
	search       textinput.Model
	loading      bool
	starting     bool
	flashMessage string
}

func NewUsersModel(deps Deps) UsersModel {
	search := textinput.New()
	search.Placeholder = "Search users..."
	search.CharLimit = 64
	search.Width = 40

	return UsersModel{
		deps:    deps,
		search:  search,
		loading: true,
	}
}

func (m UsersModel) Init() tea.Cmd {
	return loadUsers(m.deps, "")
}

func (m UsersModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up":
			if m.selectedIdx > 0 {
				m.selectedIdx--
			}

		case "down":
			if m.selectedIdx < len(m.users)-1 {
				m.selectedIdx++
			}

		case "enter":
			if m.search.Focused() {
				m.search.Blur()
				m.loading = true
				return m, loadUsers(m.deps, strings.TrimSpace(m.search.Value()))
			}
			if len(m.users) == 0 || m.starting {
				return m, nil
			}
			m.starting = true
			m.flashMessage = "Opening conversation..."
			return m, startConversation(m.deps, m.users[m.selectedIdx].ID)

		case "/":
			m.search.Focus()
			return m, textinput.Blink

		case "esc":
			if m.search.Focused() {
				m.search.Blur()
				return m, nil
			}
			cm := NewConversationsModel(m.deps)
			return cm, cm.Init()

		default:
			if m.search.Focused() {
				var cmd tea.Cmd
				m.search, cmd = m.search.Update(msg)
				return m, cmd
			}
		}

	case usersLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.flashMessage = msg.err.Error()
			return m, nil
		}
		m.users = msg.users
		m.selectedIdx = 0
		m.flashMessage = ""
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

func (m UsersModel) View() string {
	var sb strings.Builder

	sb.WriteString(styles.TitleStyle.Render("Guests") + "\n\n")
	sb.WriteString(m.search.View() + "\n\n")

	switch {
	case m.loading:
		sb.WriteString(styles.StatusInfoStyle.Render("Loading users...") + "\n")
	case len(m.users) == 0:
		sb.WriteString(styles.SubtitleStyle.Render("No users found.") + "\n")
	default:
		for i, user := range m.users {
			line := user.Name
			if user.Email != "" {
				line += styles.ListItemMetaStyle.Render("  <" + user.Email + ">")
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
		styles.RenderKeyBinding("Enter", "Chat"),
		styles.RenderKeyBinding("/", "Search"),
		styles.RenderKeyBinding("Esc", "Back"),
	}
	sb.WriteString("\n" + strings.Join(helpItems, "  "))
	return styles.ContainerStyle.Render(sb.String())
}

type usersLoadedMsg struct {
	users []appmodels.User
	err   error
}

func loadUsers(deps Deps, query string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		var (
			users []appmodels.User
			err   error
		)
		if query == "" {
			users, err = deps.Directory.Users(ctx)
		} else {
			users, err = deps.Directory.SearchUsers(ctx, query)
		}
		return usersLoadedMsg{users: users, err: err}
	}
}

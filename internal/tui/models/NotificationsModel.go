package models

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	appmodels "github.com/Dton04/hoterier-cli/internal/models"
	"github.com/Dton04/hoterier-cli/internal/notify"
	"github.com/Dton04/hoterier-cli/internal/tui/styles"
)

// NotificationsModel shows the synchronized notification list. Opening it
// marks the list seen; live pushes and expiries re-render without a refresh.
type NotificationsModel struct {
	deps          Deps
	notifications list.Model
	width         int
	height        int
	flashMessage  string
	flashStyle    lipgloss.Style
	loading       bool
}

func NewNotificationsModel(deps Deps) NotificationsModel {
	alertList := list.New([]list.Item{}, alertDelegate{}, 80, 18)
	alertList.SetShowHelp(false)
	alertList.SetShowTitle(false)
	alertList.SetShowStatusBar(false)
	alertList.SetShowPagination(false)
	alertList.DisableQuitKeybindings()

	m := NotificationsModel{
		deps:          deps,
		notifications: alertList,
		flashMessage:  "Loading notifications...",
		flashStyle:    styles.StatusInfoStyle,
		loading:       true,
	}
	m.setItems(deps.Sync.Notifications())
	return m
}

func (m NotificationsModel) Init() tea.Cmd {
	m.deps.Sync.MarkSeen()
	return tea.Batch(pullFeed(m.deps), waitForNotifications(m.deps.Sync))
}

func (m NotificationsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		listWidth := max(m.width-8, 16)
		listHeight := max(m.height-10, 8)
		m.notifications.SetSize(listWidth, listHeight)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			if m.loading {
				return m, nil
			}
			m.loading = true
			m.flashMessage = "Refreshing..."
			m.flashStyle = styles.StatusInfoStyle
			return m, pullFeed(m.deps)

		case "esc", "q":
			m.deps.Sync.MarkSeen()
			cm := NewConversationsModel(m.deps)
			return cm, cm.Init()
		}

	case feedPulledMsg:
		m.loading = false
		if msg.err != nil {
			// Background-style refresh failure: show, don't crash.
			m.flashMessage = msg.err.Error()
			m.flashStyle = styles.StatusErrorStyle
			return m, nil
		}
		m.setItems(m.deps.Sync.Notifications())
		m.flashMessage = fmt.Sprintf("%d notifications", len(m.notifications.Items()))
		m.flashStyle = styles.StatusInfoStyle
		return m, nil

	case notificationsUpdatedMsg:
		m.setItems(msg.notifications)
		m.flashMessage = fmt.Sprintf("%d notifications", len(msg.notifications))
		m.flashStyle = styles.StatusInfoStyle
		return m, waitForNotifications(m.deps.Sync)
	}

	var cmd tea.Cmd
	m.notifications, cmd = m.notifications.Update(msg)
	return m, cmd
}

func (m NotificationsModel) View() string {
	header := styles.TitleStyle.Render("Notifications")
	subtitle := styles.SubtitleStyle.Render("Announcements and alerts for your account.")

	status := m.flashMessage
	if status == "" {
		status = fmt.Sprintf("%d notifications", len(m.notifications.Items()))
	}
	if len(m.notifications.Items()) == 0 && !m.loading {
		status = "You're all caught up."
	}

	helpItems := []string{
		styles.RenderKeyBinding("r", "Refresh"),
		styles.RenderKeyBinding("Esc", "Back"),
	}
	footer := m.flashStyle.Render(status) + "\n" + strings.Join(helpItems, "  ")

	return styles.ContainerStyle.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		subtitle,
		"",
		m.notifications.View(),
		"",
		footer,
	))
}

func (m *NotificationsModel) setItems(notifications []appmodels.Notification) {
	items := make([]list.Item, len(notifications))
	for i, n := range notifications {
		items[i] = alertItem{notification: n}
	}
	m.notifications.SetItems(items)
}

type feedPulledMsg struct{ err error }

func pullFeed(deps Deps) tea.Cmd {
	return func() tea.Msg {
		return feedPulledMsg{err: deps.Sync.PullFeed(context.Background())}
	}
}

type notificationsUpdatedMsg struct {
	notifications []appmodels.Notification
}

func waitForNotifications(sync *notify.Synchronizer) tea.Cmd {
	return func() tea.Msg {
		notifications, ok := <-sync.Updates()
		if !ok {
			return nil
		}
		return notificationsUpdatedMsg{notifications: notifications}
	}
}

type alertItem struct {
	notification appmodels.Notification
}

func (a alertItem) Title() string       { return a.notification.Message }
func (a alertItem) FilterValue() string { return a.notification.Message }

type alertDelegate struct{}

func (d alertDelegate) Height() int                               { return 2 }
func (d alertDelegate) Spacing() int                              { return 1 }
func (d alertDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d alertDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(alertItem)
	if !ok {
		return
	}

	isSelected := index == m.Index()
	titleStyle := styles.ListItemTitleStyle
	if isSelected {
		titleStyle = styles.ListItemTitleSelectedStyle
	}

	title := item.notification.Message
	if item.notification.Type != "" {
		title = fmt.Sprintf("[%s] %s", strings.ToUpper(string(item.notification.Type)), title)
	}

	meta := fmt.Sprintf("received %s", formatRelativeTime(item.notification.CreatedAt))
	if item.notification.EndsAt != nil {
		meta += fmt.Sprintf(" · expires %s", formatRelativeTime(*item.notification.EndsAt))
	}

	pointer := "  "
	if isSelected {
		pointer = styles.KeyStyle.Render("> ")
	}

	fmt.Fprintf(w, "%s%s\n    %s", pointer, titleStyle.Render(title), styles.ListItemMetaStyle.Render(meta))
}

func formatRelativeTime(t time.Time) string {
	now := time.Now()
	if t.IsZero() {
		return "sometime"
	}
	if t.After(now) {
		return fmt.Sprintf("in %s", humanizeDuration(t.Sub(now)))
	}
	return fmt.Sprintf("%s ago", humanizeDuration(now.Sub(t)))
}

func humanizeDuration(d time.Duration) string {
	if d < time.Minute {
		secs := max(int(d.Seconds()), 1)
		return fmt.Sprintf("%ds", secs)
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dd", int(d.Hours()/24))
}

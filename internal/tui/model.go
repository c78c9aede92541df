// Package tui is the status dashboard behind `bioguard dashboard`. It reads
// and displays orchestrator state; biometric prompts themselves stay with
// the OS.
package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/eliziario/bioguard/internal/biometrics"
)

type userRow struct {
	userID string
	status biometrics.UserStatus
}

type refreshMsg struct {
	platform biometrics.CapabilityStatus
	users    []userRow
	auto     bool
}

type authResultMsg struct {
	ok  bool
	err error
}

type Model struct {
	manager *biometrics.Manager
	userIDs []string

	platform biometrics.CapabilityStatus
	users    []userRow
	auto     bool

	message     string
	messageType string // success, error, warning
	width       int
	height      int
}

// NewModel builds the dashboard over a manager and the user list to show.
func NewModel(manager *biometrics.Manager, userIDs []string) Model {
	sort.Strings(userIDs)
	return Model{
		manager: manager,
		userIDs: userIDs,
	}
}

func (m Model) Init() tea.Cmd {
	return m.refresh
}

func (m Model) refresh() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msg := refreshMsg{
		platform: m.manager.Status(ctx),
		auto:     m.manager.AutoPrompt(),
	}
	for _, userID := range m.userIDs {
		status, err := m.manager.StatusForUser(ctx, userID)
		if err != nil {
			status = biometrics.UserStatusNotEnabledLocally
		}
		msg.users = append(msg.users, userRow{userID: userID, status: status})
	}
	return msg
}

func (m Model) testAuth() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	ok, err := m.manager.Authenticate(ctx)
	return authResultMsg{ok: ok, err: err}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			m.message = ""
			return m, m.refresh
		case "a":
			m.message = "Waiting for the OS authentication prompt..."
			m.messageType = "warning"
			return m, m.testAuth
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case refreshMsg:
		m.platform = msg.platform
		m.users = msg.users
		m.auto = msg.auto
	case authResultMsg:
		switch {
		case msg.err != nil:
			m.message = fmt.Sprintf("Authentication error: %v", msg.err)
			m.messageType = "error"
		case msg.ok:
			m.message = "Authentication succeeded"
			m.messageType = "success"
		default:
			m.message = "Authentication declined"
			m.messageType = "warning"
		}
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("🔐 Bioguard"))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render("Biometric unlock status"))
	b.WriteString("\n")

	b.WriteString(labelStyle.Render("Platform: "))
	b.WriteString(statusStyle(m.platform == biometrics.CapabilityAvailable).Render(m.platform.String()))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Auto-prompt: "))
	b.WriteString(fmt.Sprintf("%v", m.auto))
	b.WriteString("\n\n")

	if len(m.users) == 0 {
		b.WriteString(subtitleStyle.Render("No users configured; run `bioguard enroll <user>`"))
		b.WriteString("\n")
	}
	for _, row := range m.users {
		b.WriteString(fmt.Sprintf("  %-20s %s\n", row.userID,
			statusStyle(row.status == biometrics.UserStatusAvailable).Render(row.status.String())))
	}

	if m.message != "" {
		style := warningStyle
		switch m.messageType {
		case "success":
			style = successStyle
		case "error":
			style = errorStyle
		}
		b.WriteString("\n" + style.Render(m.message))
	}

	b.WriteString("\n" + helpStyle.Render("r: refresh • a: test authentication • q: quit"))
	return baseStyle.Render(b.String())
}

func statusStyle(ok bool) lipgloss.Style {
	if ok {
		return successStyle
	}
	return warningStyle
}

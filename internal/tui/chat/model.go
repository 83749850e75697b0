// Package chat implements the terminal chat screen: the transcript
// viewport, the input line, the typing indicator, and the toast stack.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"medchat/internal/client"
	"medchat/internal/tui/session"
	"medchat/internal/tui/theme"
)

const maxMessageChars = 1000

// Backend is the slice of the HTTP client the screen needs. A stub
// implementation stands in during tests.
type Backend interface {
	SendMessage(ctx context.Context, message string) (string, error)
	FetchHistory(ctx context.Context) ([]client.HistoryEntry, error)
	ClearHistory(ctx context.Context) error
}

// uiState tracks whether a question is in flight. While awaiting, the
// send path is disabled and the typing indicator is shown.
type uiState int

const (
	stateIdle uiState = iota
	stateAwaiting
)

type historyMsg struct {
	entries []client.HistoryEntry
	err     error
}

type replyMsg struct {
	reply string
	err   error
}

type clearMsg struct {
	err error
}

// Model is the bubbletea model for the chat screen.
type Model struct {
	backend Backend
	log     *session.Log
	theme   theme.Theme

	state        uiState
	confirmClear bool

	input    textinput.Model
	viewport viewport.Model
	spin     spinner.Model
	toasts   toastStack

	width  int
	height int
	ready  bool
}

// New builds the chat screen. The first Update receives the stored
// history fetched from the backend.
func New(backend Backend, th theme.Theme) Model {
	input := textinput.New()
	input.Placeholder = "Ask a medical question..."
	input.Prompt = "> "
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return Model{
		backend: backend,
		log:     session.NewLog(),
		theme:   th,
		input:   input,
		spin:    spin,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetchHistoryCmd(), textinput.Blink, toastTickCmd())
}

func (m Model) fetchHistoryCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		entries, err := m.backend.FetchHistory(ctx)
		return historyMsg{entries: entries, err: err}
	}
}

func (m Model) sendCmd(message string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		reply, err := m.backend.SendMessage(ctx, message)
		return replyMsg{reply: reply, err: err}
	}
}

func (m Model) clearCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return clearMsg{err: m.backend.ClearHistory(ctx)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - 6
		viewportHeight := msg.Height - 6
		if viewportHeight < 3 {
			viewportHeight = 3
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, viewportHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = viewportHeight
		}
		m.refreshTranscript()
		return m, nil

	case tea.KeyMsg:
		if m.confirmClear {
			return m.updateConfirmClear(msg)
		}
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "ctrl+t":
			m.theme = m.theme.Toggle()
			if err := theme.Save(m.theme); err != nil {
				m.toasts.push(newToast(toastError, "Could not save theme preference."))
			}
			m.refreshTranscript()
			return m, nil
		case "ctrl+l":
			return m.requestClear()
		case "enter":
			return m.submit()
		}

	case historyMsg:
		if msg.err != nil {
			m.toasts.push(newToast(toastError, "Could not load earlier messages."))
			return m, nil
		}
		for _, entry := range msg.entries {
			role := session.RoleBot
			if entry.Role == "user" {
				role = session.RoleUser
			}
			m.log.Append(role, entry.Message)
		}
		m.refreshTranscript()
		return m, nil

	case replyMsg:
		m.state = stateIdle
		if msg.err != nil {
			m.toasts.push(newToast(toastError, userFacingError(msg.err)))
			return m, nil
		}
		m.log.Append(session.RoleBot, msg.reply)
		m.refreshTranscript()
		return m, nil

	case clearMsg:
		if msg.err != nil {
			m.toasts.push(newToast(toastError, userFacingError(msg.err)))
			return m, nil
		}
		m.log.Clear()
		m.refreshTranscript()
		m.toasts.push(newToast(toastInfo, "Conversation cleared."))
		return m, nil

	case toastTickMsg:
		m.toasts.prune(time.Time(msg))
		return m, toastTickCmd()

	case spinner.TickMsg:
		if m.state != stateAwaiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// submit sends the trimmed input if there is one and no question is
// already in flight.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.state == stateAwaiting {
		return m, nil
	}
	message := strings.TrimSpace(m.input.Value())
	if message == "" {
		return m, nil
	}
	m.log.Append(session.RoleUser, message)
	m.input.Reset()
	m.state = stateAwaiting
	m.refreshTranscript()
	return m, tea.Batch(m.sendCmd(message), m.spin.Tick)
}

// requestClear opens the confirmation overlay, or short-circuits with a
// notice when there is nothing to clear. Ignored while a reply is in
// flight so the pending turn cannot race the delete.
func (m Model) requestClear() (tea.Model, tea.Cmd) {
	if m.state != stateIdle {
		return m, nil
	}
	if m.log.Len() == 0 {
		m.toasts.push(newToast(toastInfo, "Nothing to clear."))
		return m, nil
	}
	m.confirmClear = true
	return m, nil
}

func (m Model) updateConfirmClear(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.confirmClear = false
		return m, m.clearCmd()
	case "n", "N", "esc":
		m.confirmClear = false
		return m, nil
	}
	return m, nil
}

func (m *Model) refreshTranscript() {
	if !m.ready {
		return
	}
	entries := m.log.All()
	parts := make([]string, 0, len(entries))
	for _, entry := range entries {
		parts = append(parts, renderEntry(entry, m.theme, m.width))
	}
	m.viewport.SetContent(strings.Join(parts, "\n"))
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var footer strings.Builder
	if m.state == stateAwaiting {
		footer.WriteString(m.spin.View())
		footer.WriteString(m.theme.Faint.Render(" Assistant is typing..."))
		footer.WriteString("\n")
	}
	if !m.toasts.empty() {
		footer.WriteString(m.toasts.render(m.theme))
		footer.WriteString("\n")
	}
	if m.confirmClear {
		footer.WriteString(m.theme.ToastInfo.Render("Clear the whole conversation? [y/n]"))
		footer.WriteString("\n")
	}

	footer.WriteString(m.input.View())
	footer.WriteString("\n")
	footer.WriteString(m.renderCounter())
	footer.WriteString(m.theme.Faint.Render("  enter send · ctrl+l clear · ctrl+t theme · esc quit"))

	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), footer.String())
}

func (m Model) renderCounter() string {
	n := utf8.RuneCountInString(m.input.Value())
	text := fmt.Sprintf("%d/%d", n, maxMessageChars)
	if n > maxMessageChars {
		return m.theme.CounterBad.Render(text)
	}
	return m.theme.Counter.Render(text)
}

// userFacingError maps an error to the message shown in a toast.
// Backend-produced errors already carry user-ready text.
func userFacingError(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return "Unable to reach the server. Please try again."
}

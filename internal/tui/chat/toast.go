package chat

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"medchat/internal/tui/theme"
)

// toastKind selects the toast style.
type toastKind int

const (
	toastInfo toastKind = iota
	toastError
)

const (
	infoToastDuration  = 4 * time.Second
	errorToastDuration = 8 * time.Second
)

// toast is a transient notice shown above the input. It never blocks
// interaction and auto-dismisses when its deadline passes.
type toast struct {
	kind    toastKind
	message string
	expires time.Time
}

func newToast(kind toastKind, message string) toast {
	d := infoToastDuration
	if kind == toastError {
		d = errorToastDuration
	}
	return toast{kind: kind, message: message, expires: time.Now().Add(d)}
}

func (t toast) expired(now time.Time) bool {
	return !now.Before(t.expires)
}

// toastTickMsg drives toast expiry.
type toastTickMsg time.Time

func toastTickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return toastTickMsg(t)
	})
}

// toastStack holds the visible toasts, newest first.
type toastStack struct {
	toasts []toast
}

func (s *toastStack) push(t toast) {
	s.toasts = append([]toast{t}, s.toasts...)
	if len(s.toasts) > 3 {
		s.toasts = s.toasts[:3]
	}
}

func (s *toastStack) prune(now time.Time) {
	active := s.toasts[:0]
	for _, t := range s.toasts {
		if !t.expired(now) {
			active = append(active, t)
		}
	}
	s.toasts = active
}

func (s *toastStack) empty() bool {
	return len(s.toasts) == 0
}

func (s *toastStack) render(th theme.Theme) string {
	out := ""
	for i := len(s.toasts) - 1; i >= 0; i-- {
		t := s.toasts[i]
		style := th.ToastInfo
		if t.kind == toastError {
			style = th.ToastError
		}
		if out != "" {
			out += "\n"
		}
		out += style.Render(t.message)
	}
	return out
}

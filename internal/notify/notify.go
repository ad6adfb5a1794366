// Package notify holds the transient alerts shown above the status bar.
package notify

import (
	"context"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Severity selects the alert color.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityDanger  Severity = "danger"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Timeout is how long an alert stays visible unless dismissed.
const Timeout = 5 * time.Second

// Alert is one visible notification.
type Alert struct {
	ID       int
	Message  string
	Severity Severity
}

// Msg asks the notifier to show an alert. Controllers return it from
// commands instead of touching the notifier directly.
type Msg struct {
	Message  string
	Severity Severity
}

// expireMsg removes the alert with the given id.
type expireMsg struct {
	id int
}

// Notifier keeps alerts in arrival order. Alerts stack without limit or
// deduplication.
type Notifier struct {
	alerts  []Alert
	nextID  int
	timeout time.Duration
	logger  *slog.Logger
}

// New returns a notifier using the standard timeout.
func New(logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{timeout: Timeout, logger: logger}
}

// Notify appends an alert and returns the command that expires it.
func (n *Notifier) Notify(message string, severity Severity) tea.Cmd {
	n.nextID++
	id := n.nextID
	n.alerts = append(n.alerts, Alert{ID: id, Message: message, Severity: severity})
	n.logger.Log(context.Background(), levelFor(severity), "alert", "severity", string(severity), "message", message)

	return tea.Tick(n.timeout, func(time.Time) tea.Msg {
		return expireMsg{id: id}
	})
}

// Update consumes notifier messages. The bool reports whether msg was one.
func (n *Notifier) Update(msg tea.Msg) (tea.Cmd, bool) {
	switch msg := msg.(type) {
	case Msg:
		return n.Notify(msg.Message, msg.Severity), true
	case expireMsg:
		n.Dismiss(msg.id)
		return nil, true
	}
	return nil, false
}

// Dismiss removes an alert. Unknown ids are ignored.
func (n *Notifier) Dismiss(id int) {
	for i, a := range n.alerts {
		if a.ID == id {
			n.alerts = append(n.alerts[:i:i], n.alerts[i+1:]...)
			return
		}
	}
}

// DismissLatest removes the newest alert and reports whether one existed.
func (n *Notifier) DismissLatest() bool {
	if len(n.alerts) == 0 {
		return false
	}
	n.alerts = n.alerts[:len(n.alerts)-1]
	return true
}

// Alerts returns the visible alerts, oldest first.
func (n *Notifier) Alerts() []Alert {
	return n.alerts
}

func levelFor(severity Severity) slog.Level {
	switch severity {
	case SeverityDanger:
		return slog.LevelError
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// Send returns a command that delivers an alert to the notifier.
func Send(message string, severity Severity) tea.Cmd {
	return func() tea.Msg {
		return Msg{Message: message, Severity: severity}
	}
}

func Success(message string) tea.Cmd { return Send(message, SeveritySuccess) }
func Danger(message string) tea.Cmd  { return Send(message, SeverityDanger) }
func Warning(message string) tea.Cmd { return Send(message, SeverityWarning) }
func Info(message string) tea.Cmd    { return Send(message, SeverityInfo) }

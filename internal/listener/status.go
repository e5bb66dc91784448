package listener

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Status is a point-in-time view of the listener. It renders on the local
// terminal every status tick and is served as JSON over the status socket
// for `listen status` in another process.
type Status struct {
	State         State     `json:"state"`
	SessionID     string    `json:"sessionId,omitempty"`
	ServerURL     string    `json:"serverUrl,omitempty"`
	StartedAt     time.Time `json:"startedAt"`
	CommandsRun   int       `json:"commandsRun"`
	LastHeartbeat time.Time `json:"lastHeartbeat"`
	LastPoll      time.Time `json:"lastPoll"`
	CapturedAt    time.Time `json:"capturedAt"`
}

// Snapshot captures the current status.
func (l *Listener) Snapshot() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Status{
		State:         l.state,
		SessionID:     l.sessionID,
		ServerURL:     l.dashboard.BaseURL(),
		StartedAt:     l.startedAt,
		CommandsRun:   l.executed,
		LastHeartbeat: l.lastHeartbeat,
		LastPoll:      l.lastPoll,
		CapturedAt:    time.Now(),
	}
}

// Uptime is the elapsed wall-clock time since the session became active.
func (s Status) Uptime() time.Duration {
	if s.StartedAt.IsZero() {
		return 0
	}
	return s.CapturedAt.Sub(s.StartedAt)
}

// FormatUptime renders a duration as hours/minutes/seconds with zero top
// units dropped: "45s", "2m 3s", "1h 0m 12s".
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

var (
	statusTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")) // Blue
	statusLabelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))           // Gray
	statusActiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))            // Green
	statusIdleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))             // Red
)

// Render formats the snapshot for a terminal. Colors degrade automatically
// when stdout is not a TTY.
func (s Status) Render() string {
	stateStyle := statusIdleStyle
	if s.State == StateActive {
		stateStyle = statusActiveStyle
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n",
		statusTitleStyle.Render("devdeck listener"),
		s.CapturedAt.Format("15:04:05"))
	writeStatusRow(&b, "state", stateStyle.Render(string(s.State)))
	if s.SessionID != "" {
		writeStatusRow(&b, "session", s.SessionID)
	}
	if s.ServerURL != "" {
		writeStatusRow(&b, "server", s.ServerURL)
	}
	writeStatusRow(&b, "uptime", FormatUptime(s.Uptime()))
	writeStatusRow(&b, "commands run", fmt.Sprintf("%d", s.CommandsRun))
	writeStatusRow(&b, "last heartbeat", timeOrNever(s.LastHeartbeat))
	writeStatusRow(&b, "last poll", timeOrNever(s.LastPoll))
	return b.String()
}

func writeStatusRow(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "  %s  %s\n", statusLabelStyle.Render(fmt.Sprintf("%-14s", label)), value)
}

func timeOrNever(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format("15:04:05")
}

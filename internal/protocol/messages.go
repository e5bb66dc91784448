package protocol

// SessionRegistration announces a listener session to the dashboard.
type SessionRegistration struct {
	SessionID    string   `json:"sessionId"`
	Capabilities []string `json:"capabilities"`
	Version      string   `json:"version"`
	Platform     string   `json:"platform"`
}

// Heartbeat keeps a registered session alive between polls.
type Heartbeat struct {
	SessionID string `json:"sessionId"`
}

// Command request types as declared by the dashboard. Execution does not
// trust this field; the ":" sigil on the command text decides (see listener).
const (
	TypeInternal = "internal"
	TypeSystem   = "system"
)

// CommandRequest is one unit of work queued by the dashboard for a session.
type CommandRequest struct {
	ID               string   `json:"id"`
	Command          string   `json:"command"`
	Args             []string `json:"args,omitempty"`
	WorkingDirectory string   `json:"workingDirectory,omitempty"`
	Timeout          int      `json:"timeout,omitempty"` // milliseconds
	Type             string   `json:"type,omitempty"`
}

// CommandResult is the outcome of executing one CommandRequest.
// Output carries stdout for system commands and the dashboard's textual reply
// for internal commands; it is empty when Success is false.
type CommandResult struct {
	Success       bool   `json:"success"`
	Output        string `json:"output,omitempty"`
	Error         string `json:"error,omitempty"`
	ExecutionTime int64  `json:"executionTime"` // milliseconds
	CommandID     string `json:"commandId"`
	Timestamp     string `json:"timestamp"` // RFC3339
}

// ResultReport wraps a CommandResult for delivery back to the dashboard.
type ResultReport struct {
	CommandID string        `json:"commandId"`
	Result    CommandResult `json:"result"`
}

// EchoRequest forwards a canonical command line to the dashboard's command API.
type EchoRequest struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

// Response combines the fields of every dashboard reply so a single decode
// pass handles all endpoints.
type Response struct {
	Success  bool             `json:"success"`
	Error    string           `json:"error,omitempty"`
	Output   string           `json:"output,omitempty"`
	Commands []CommandRequest `json:"commands,omitempty"`
}

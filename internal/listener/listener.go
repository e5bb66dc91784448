// Package listener implements the remote command listener: an ephemeral
// dashboard session that heartbeats, polls for queued commands, executes
// them, and reports results.
package listener

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/devdeck/dd-cli/internal/protocol"
)

// State tracks the session lifecycle. Heartbeat and poll ticks only perform
// work while the listener is active.
type State string

const (
	StateCreated     State = "created"
	StateRegistering State = "registering"
	StateActive      State = "active"
	StateStopping    State = "stopping"
	StateStopped     State = "stopped"
)

const (
	heartbeatInterval = 30 * time.Second
	pollInterval      = 5 * time.Second
	statusInterval    = 10 * time.Second
)

// capabilities advertised at registration; the dashboard uses them to decide
// which command types it may queue for this session.
var capabilities = []string{"execute-command", "system-command"}

// Dashboard is the backend surface the listener drives.
type Dashboard interface {
	Backend
	BaseURL() string
	RegisterSession(ctx context.Context, reg protocol.SessionRegistration) error
	Heartbeat(ctx context.Context, sessionID string) error
	DeregisterSession(ctx context.Context, sessionID string) error
	PendingCommands(ctx context.Context, sessionID string) ([]protocol.CommandRequest, error)
	ReportResult(ctx context.Context, report protocol.ResultReport) error
}

// Options configure a Listener. Zero-value intervals fall back to the
// standard cadence; tests shrink them.
type Options struct {
	Version  string
	Log      zerolog.Logger
	OnStatus func(Status)

	HeartbeatInterval time.Duration
	PollInterval      time.Duration
	StatusInterval    time.Duration
}

// Listener owns one session's state. All mutable fields live behind one
// mutex, mutated only through methods; the loops read through snapshots.
type Listener struct {
	dashboard Dashboard
	exec      *Executor
	log       zerolog.Logger
	version   string
	onStatus  func(Status)

	heartbeatEvery time.Duration
	pollEvery      time.Duration
	statusEvery    time.Duration

	mu            sync.Mutex
	state         State
	sessionID     string
	startedAt     time.Time
	lastHeartbeat time.Time
	lastPoll      time.Time
	executed      int

	stop chan struct{}
	wg   sync.WaitGroup
}

func New(dashboard Dashboard, opts Options) *Listener {
	l := &Listener{
		dashboard:      dashboard,
		exec:           NewExecutor(dashboard),
		log:            opts.Log,
		version:        opts.Version,
		onStatus:       opts.OnStatus,
		heartbeatEvery: opts.HeartbeatInterval,
		pollEvery:      opts.PollInterval,
		statusEvery:    opts.StatusInterval,
		state:          StateCreated,
		stop:           make(chan struct{}),
	}
	if l.heartbeatEvery <= 0 {
		l.heartbeatEvery = heartbeatInterval
	}
	if l.pollEvery <= 0 {
		l.pollEvery = pollInterval
	}
	if l.statusEvery <= 0 {
		l.statusEvery = statusInterval
	}
	return l
}

// Start registers a fresh session and launches the heartbeat, poll, and
// status loops. It returns once the session is active; the loops run until
// ctx is cancelled or Stop is called. A failed registration returns the
// listener to its created state.
func (l *Listener) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.state != StateCreated {
		state := l.state
		l.mu.Unlock()
		return fmt.Errorf("listener already %s", state)
	}
	l.state = StateRegistering
	l.sessionID = uuid.NewString()
	sessionID := l.sessionID
	l.mu.Unlock()

	reg := protocol.SessionRegistration{
		SessionID:    sessionID,
		Capabilities: capabilities,
		Version:      l.version,
		Platform:     runtime.GOOS,
	}
	if err := l.dashboard.RegisterSession(ctx, reg); err != nil {
		l.mu.Lock()
		l.state = StateCreated
		l.sessionID = ""
		l.mu.Unlock()
		return fmt.Errorf("register session: %w", err)
	}

	l.mu.Lock()
	l.state = StateActive
	l.startedAt = time.Now()
	l.mu.Unlock()
	l.log.Info().Str("session", sessionID).Msg("session registered")

	l.wg.Add(3)
	go l.heartbeatLoop(ctx)
	go l.pollLoop(ctx)
	go l.statusLoop(ctx)
	return nil
}

// Stop ends the session: the loops wind down, the poll batch in flight
// drains, and one best-effort deregistration is attempted. Stopping a
// listener that is not active is a no-op, so a signal racing an explicit
// stop cannot deregister twice.
func (l *Listener) Stop() {
	l.mu.Lock()
	if l.state != StateActive {
		l.mu.Unlock()
		return
	}
	l.state = StateStopping
	sessionID := l.sessionID
	l.mu.Unlock()

	close(l.stop)
	l.wg.Wait()

	// In-flight work was left to finish on its own; only deregistration
	// runs here, with its own deadline so shutdown cannot hang.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := l.dashboard.DeregisterSession(ctx, sessionID); err != nil {
		l.log.Warn().Err(err).Msg("deregistration failed")
	} else {
		l.log.Info().Str("session", sessionID).Msg("session deregistered")
	}

	l.mu.Lock()
	l.state = StateStopped
	l.mu.Unlock()
}

// State returns the current lifecycle state.
func (l *Listener) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// SessionID returns the session identity, empty before registration.
func (l *Listener) SessionID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sessionID
}

func (l *Listener) active() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state == StateActive
}

func (l *Listener) heartbeatLoop(ctx context.Context) {
	defer l.wg.Done()
	ticker := time.NewTicker(l.heartbeatEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stop:
			return
		case <-ticker.C:
			l.heartbeatTick()
		}
	}
}

// heartbeatTick sends one liveness signal. A failure skips the tick; the
// next tick is the retry, there is no backoff schedule.
func (l *Listener) heartbeatTick() {
	if !l.active() {
		return
	}
	// Ticks run on their own context: shutdown never cancels an in-flight
	// call, the client's request timeout bounds it instead.
	if err := l.dashboard.Heartbeat(context.Background(), l.SessionID()); err != nil {
		l.log.Warn().Err(err).Msg("heartbeat failed")
		return
	}
	l.mu.Lock()
	l.lastHeartbeat = time.Now()
	l.mu.Unlock()
	l.log.Debug().Msg("heartbeat sent")
}

func (l *Listener) pollLoop(ctx context.Context) {
	defer l.wg.Done()
	ticker := time.NewTicker(l.pollEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stop:
			return
		case <-ticker.C:
			l.pollTick()
		}
	}
}

// pollTick fetches pending commands and runs them inline, so at most one
// batch is ever in flight: a batch outlasting the poll interval delays the
// next fetch instead of overlapping it.
func (l *Listener) pollTick() {
	if !l.active() {
		return
	}
	sessionID := l.SessionID()
	commands, err := l.dashboard.PendingCommands(context.Background(), sessionID)
	if err != nil {
		l.log.Warn().Err(err).Msg("poll failed")
		return
	}
	l.mu.Lock()
	l.lastPoll = time.Now()
	l.mu.Unlock()

	if len(commands) == 0 {
		return
	}
	l.log.Info().Int("count", len(commands)).Msg("commands received")
	for _, req := range commands {
		l.runCommand(req)
	}
}

// runCommand executes one request and reports its result. Reporting is
// at-most-once: a failed report is logged and dropped, never queued.
func (l *Listener) runCommand(req protocol.CommandRequest) {
	l.log.Info().Str("id", req.ID).Str("command", req.Command).Msg("executing command")
	result := l.exec.Execute(context.Background(), req)

	l.mu.Lock()
	l.executed++
	l.mu.Unlock()

	if !result.Success {
		l.log.Warn().Str("id", req.ID).Str("error", result.Error).Msg("command failed")
	}

	report := protocol.ResultReport{CommandID: req.ID, Result: result}
	if err := l.dashboard.ReportResult(context.Background(), report); err != nil {
		l.log.Error().Err(err).Str("id", req.ID).Msg("result report failed")
	}
}

func (l *Listener) statusLoop(ctx context.Context) {
	defer l.wg.Done()
	if l.onStatus == nil {
		return
	}
	ticker := time.NewTicker(l.statusEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stop:
			return
		case <-ticker.C:
			l.onStatus(l.Snapshot())
		}
	}
}

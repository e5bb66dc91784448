package listener

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/devdeck/dd-cli/internal/command"
	"github.com/devdeck/dd-cli/internal/protocol"
)

// defaultCommandTimeout applies when a request carries no timeout of its own.
const defaultCommandTimeout = 30 * time.Second

// pipeWaitDelay bounds how long Run may wait for the output pipes to close
// once the shell has exited or been killed. Without it a background child
// inheriting the pipes keeps Run blocked for as long as the child lives.
const pipeWaitDelay = time.Second

// successPlaceholder is reported when a command succeeds without producing
// any output on either stream.
const successPlaceholder = "Command completed successfully"

// Backend forwards internal commands to the dashboard for server-side
// execution.
type Backend interface {
	EchoCommand(ctx context.Context, cmd string, args []string) (string, error)
}

// Executor runs one command request at a time and produces its result.
// Dispatch is decided by the sigil on the command text, not the request's
// declared type field; the dashboard sets both but the sigil is what the
// grammar guarantees.
type Executor struct {
	backend Backend
}

func NewExecutor(backend Backend) *Executor {
	return &Executor{backend: backend}
}

// Execute runs the request to completion and never returns an error: every
// failure mode is folded into the result so the poll loop can always report
// something.
func (e *Executor) Execute(ctx context.Context, req protocol.CommandRequest) protocol.CommandResult {
	start := time.Now()

	var output string
	var err error
	if command.IsInternal(req.Command) {
		output, err = e.runInternal(ctx, req)
	} else {
		output, err = e.runSystem(ctx, req)
	}

	result := protocol.CommandResult{
		CommandID:     req.ID,
		ExecutionTime: time.Since(start).Milliseconds(),
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Success = true
	result.Output = output
	return result
}

// runInternal translates the command text and forwards it over the same API
// the interactive CLI uses. The dashboard's output comes back verbatim.
func (e *Executor) runInternal(ctx context.Context, req protocol.CommandRequest) (string, error) {
	translated := command.Translate(req.Command)

	// The request's own args are appended after translation rather than
	// joined into the text first; re-tokenizing would split quoted values.
	args := translated.Args
	if len(req.Args) > 0 {
		args = append(append([]string(nil), translated.Args...), req.Args...)
	}

	output, err := e.backend.EchoCommand(ctx, translated.Name, args)
	if err != nil {
		return "", fmt.Errorf("forward internal command: %w", err)
	}
	return output, nil
}

// runSystem executes the request as a local shell invocation.
func (e *Executor) runSystem(ctx context.Context, req protocol.CommandRequest) (string, error) {
	line := req.Command
	if len(req.Args) > 0 {
		line = req.Command + " " + strings.Join(req.Args, " ")
	}

	timeout := defaultCommandTimeout
	if req.Timeout > 0 {
		timeout = time.Duration(req.Timeout) * time.Millisecond
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Crossing the output limit kills the process via the same cancel the
	// timeout uses; a runaway producer cannot wedge the pipe copiers.
	quota := newOutputQuota(maxOutputBytes, cancel)
	stdout := newCapturedStream(quota)
	stderr := newCapturedStream(quota)

	cmd := shellCommand(runCtx, line)
	cmd.Dir = req.WorkingDirectory
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = pipeWaitDelay

	runErr := cmd.Run()

	if quota.exceeded() {
		return "", fmt.Errorf("output exceeded %d bytes", maxOutputBytes)
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("command timed out after %s", timeout)
	}
	if errors.Is(runErr, exec.ErrWaitDelay) {
		// Clean exit, but a background child still held the pipes when the
		// wait delay expired; the capture is incomplete.
		return "", fmt.Errorf("command exited but a background child kept its output open past %s", pipeWaitDelay)
	}
	if runErr != nil {
		if detail := strings.TrimSpace(stderr.String()); detail != "" {
			return "", fmt.Errorf("%s: %s", runErr, detail)
		}
		return "", runErr
	}

	output := strings.TrimSpace(stdout.String())
	if output == "" {
		output = strings.TrimSpace(stderr.String())
	}
	if output == "" {
		output = successPlaceholder
	}
	return output, nil
}

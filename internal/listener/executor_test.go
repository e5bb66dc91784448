package listener

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/devdeck/dd-cli/internal/protocol"
)

// fakeBackend records forwarded internal commands.
type fakeBackend struct {
	mu     sync.Mutex
	cmds   []string
	args   [][]string
	output string
	err    error
}

func (f *fakeBackend) EchoCommand(ctx context.Context, cmd string, args []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cmds = append(f.cmds, cmd)
	f.args = append(f.args, args)
	return f.output, f.err
}

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell tests assume /bin/sh")
	}
}

func TestExecuteSystemSuccess(t *testing.T) {
	requireShell(t)
	exec := NewExecutor(&fakeBackend{})

	result := exec.Execute(context.Background(), protocol.CommandRequest{
		ID:      "cmd-1",
		Command: "echo hello",
		Type:    protocol.TypeSystem,
	})
	if !result.Success {
		t.Fatalf("success = false, error = %q", result.Error)
	}
	if result.Output != "hello" {
		t.Errorf("output = %q, want hello", result.Output)
	}
	if result.CommandID != "cmd-1" {
		t.Errorf("commandId = %q, want cmd-1", result.CommandID)
	}
	if result.Timestamp == "" {
		t.Error("timestamp not set")
	}
	if _, err := time.Parse(time.RFC3339, result.Timestamp); err != nil {
		t.Errorf("timestamp %q is not RFC3339: %v", result.Timestamp, err)
	}
}

func TestExecuteJoinsArgs(t *testing.T) {
	requireShell(t)
	exec := NewExecutor(&fakeBackend{})

	result := exec.Execute(context.Background(), protocol.CommandRequest{
		Command: "echo",
		Args:    []string{"a", "b"},
	})
	if !result.Success {
		t.Fatalf("success = false, error = %q", result.Error)
	}
	if result.Output != "a b" {
		t.Errorf("output = %q, want %q", result.Output, "a b")
	}
}

func TestExecuteFailureCarriesStderr(t *testing.T) {
	requireShell(t)
	exec := NewExecutor(&fakeBackend{})

	result := exec.Execute(context.Background(), protocol.CommandRequest{
		Command: "echo boom >&2; exit 3",
	})
	if result.Success {
		t.Fatal("success = true for non-zero exit")
	}
	if result.Output != "" {
		t.Errorf("output = %q, want empty on failure", result.Output)
	}
	if !strings.Contains(result.Error, "boom") {
		t.Errorf("error %q does not carry stderr detail", result.Error)
	}
}

func TestExecuteStderrFallbackOnSuccess(t *testing.T) {
	requireShell(t)
	exec := NewExecutor(&fakeBackend{})

	result := exec.Execute(context.Background(), protocol.CommandRequest{
		Command: "echo warned >&2",
	})
	if !result.Success {
		t.Fatalf("success = false, error = %q", result.Error)
	}
	if result.Output != "warned" {
		t.Errorf("output = %q, want stderr fallback %q", result.Output, "warned")
	}
}

func TestExecutePlaceholderWhenSilent(t *testing.T) {
	requireShell(t)
	exec := NewExecutor(&fakeBackend{})

	result := exec.Execute(context.Background(), protocol.CommandRequest{Command: "true"})
	if !result.Success {
		t.Fatalf("success = false, error = %q", result.Error)
	}
	if result.Output != successPlaceholder {
		t.Errorf("output = %q, want placeholder %q", result.Output, successPlaceholder)
	}
}

func TestExecuteTimeout(t *testing.T) {
	requireShell(t)
	exec := NewExecutor(&fakeBackend{})

	start := time.Now()
	result := exec.Execute(context.Background(), protocol.CommandRequest{
		Command: "sleep 5",
		Timeout: 100, // ms
	})
	elapsed := time.Since(start)

	if result.Success {
		t.Fatal("success = true for timed-out command")
	}
	if !strings.Contains(result.Error, "timed out") {
		t.Errorf("error = %q, want timeout message", result.Error)
	}
	if elapsed > 3*time.Second {
		t.Errorf("took %s, the process was not killed promptly", elapsed)
	}
}

// A background child inherits the shell's output pipes; Execute must return
// within the timeout plus the bounded pipe wait, not for the child's lifetime.
func TestExecuteTimeoutWithBackgroundChild(t *testing.T) {
	requireShell(t)
	exec := NewExecutor(&fakeBackend{})

	start := time.Now()
	result := exec.Execute(context.Background(), protocol.CommandRequest{
		Command: "sleep 5 &",
		Timeout: 100, // ms
	})
	elapsed := time.Since(start)

	if result.Success {
		t.Fatal("success = true for timed-out command")
	}
	if !strings.Contains(result.Error, "timed out") {
		t.Errorf("error = %q, want timeout message", result.Error)
	}
	if elapsed > 3*time.Second {
		t.Errorf("took %s, Execute waited on the orphan's pipes", elapsed)
	}
}

// The shell exiting cleanly while a background child still holds the output
// pipes is a bounded failure, not a hang and not a success.
func TestExecuteBackgroundChildHoldsOutput(t *testing.T) {
	requireShell(t)
	exec := NewExecutor(&fakeBackend{})

	start := time.Now()
	result := exec.Execute(context.Background(), protocol.CommandRequest{
		Command: "sleep 5 &",
	})
	elapsed := time.Since(start)

	if result.Success {
		t.Fatal("success = true while a child still held the output")
	}
	if !strings.Contains(result.Error, "background child") {
		t.Errorf("error = %q, want held-output message", result.Error)
	}
	if elapsed > 3*time.Second {
		t.Errorf("took %s, want return about %s after the shell exited", elapsed, pipeWaitDelay)
	}
}

func TestExecuteOutputOverflowFails(t *testing.T) {
	requireShell(t)
	exec := NewExecutor(&fakeBackend{})

	// Twice the cap, produced as fast as the kernel allows.
	result := exec.Execute(context.Background(), protocol.CommandRequest{
		Command: "head -c 2097152 /dev/zero",
	})
	if result.Success {
		t.Fatal("success = true for oversized output")
	}
	if !strings.Contains(result.Error, "output exceeded") {
		t.Errorf("error = %q, want output limit message", result.Error)
	}
	if result.Output != "" {
		t.Error("truncated output was returned instead of a clean failure")
	}
}

func TestExecuteWorkingDirectory(t *testing.T) {
	requireShell(t)
	exec := NewExecutor(&fakeBackend{})

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "marker.txt"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	result := exec.Execute(context.Background(), protocol.CommandRequest{
		Command:          "ls",
		WorkingDirectory: dir,
	})
	if !result.Success {
		t.Fatalf("success = false, error = %q", result.Error)
	}
	if !strings.Contains(result.Output, "marker.txt") {
		t.Errorf("output %q does not list the working directory", result.Output)
	}
}

func TestExecuteInternalForwarded(t *testing.T) {
	backend := &fakeBackend{output: "2 tasks\n"}
	exec := NewExecutor(backend)

	result := exec.Execute(context.Background(), protocol.CommandRequest{
		ID:      "cmd-9",
		Command: ":task list",
		Type:    protocol.TypeInternal,
	})
	if !result.Success {
		t.Fatalf("success = false, error = %q", result.Error)
	}
	// Dashboard output comes back verbatim, untrimmed.
	if result.Output != "2 tasks\n" {
		t.Errorf("output = %q, want verbatim backend output", result.Output)
	}
	if len(backend.cmds) != 1 || backend.cmds[0] != ":task list" {
		t.Errorf("forwarded command = %v, want [:task list]", backend.cmds)
	}
}

func TestExecuteInternalAppendsRequestArgs(t *testing.T) {
	backend := &fakeBackend{output: "ok"}
	exec := NewExecutor(backend)

	result := exec.Execute(context.Background(), protocol.CommandRequest{
		Command: `:task add "Write docs"`,
		Args:    []string{"-d", "details"},
	})
	if !result.Success {
		t.Fatalf("success = false, error = %q", result.Error)
	}
	if backend.cmds[0] != ":task add" {
		t.Errorf("forwarded command = %q, want :task add", backend.cmds[0])
	}
	want := []string{"Write docs", "-d", "details"}
	got := backend.args[0]
	if len(got) != len(want) {
		t.Fatalf("forwarded args = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("args[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestExecuteInternalForwardingFailure(t *testing.T) {
	backend := &fakeBackend{err: errors.New("dashboard unreachable")}
	exec := NewExecutor(backend)

	result := exec.Execute(context.Background(), protocol.CommandRequest{Command: ":git status"})
	if result.Success {
		t.Fatal("success = true for failed forwarding")
	}
	if !strings.Contains(result.Error, "dashboard unreachable") {
		t.Errorf("error = %q, want forwarding failure detail", result.Error)
	}
}

// The declared type field is carried but not consulted; the sigil decides.
func TestExecuteDispatchIgnoresTypeField(t *testing.T) {
	requireShell(t)
	backend := &fakeBackend{}
	exec := NewExecutor(backend)

	result := exec.Execute(context.Background(), protocol.CommandRequest{
		Command: "echo local",
		Type:    protocol.TypeInternal,
	})
	if !result.Success {
		t.Fatalf("success = false, error = %q", result.Error)
	}
	if result.Output != "local" {
		t.Errorf("output = %q, want local shell execution", result.Output)
	}
	if len(backend.cmds) != 0 {
		t.Errorf("command without sigil was forwarded: %v", backend.cmds)
	}
}

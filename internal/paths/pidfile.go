package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// ProcessStatus describes what the pid file says about the listener process.
type ProcessStatus int

const (
	StatusStopped ProcessStatus = iota // no pid file
	StatusRunning                      // pid file present, process alive
	StatusStale                        // pid file present, process gone
)

// WritePIDFile records pid at path, creating parent directories as needed.
func WritePIDFile(path string, pid int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create pid file directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(pid)), 0600); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	return nil
}

// ReadPIDFile returns the pid stored at path.
func ReadPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("malformed pid file %s: %w", path, err)
	}
	return pid, nil
}

// RemovePIDFile deletes the pid file. A missing file is not an error.
func RemovePIDFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// IsProcessAlive reports whether a process with the given pid exists.
// Signal 0 performs the existence check without delivering anything.
func IsProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// CheckProcess inspects the pid file and the process it names.
func CheckProcess(path string) (ProcessStatus, int) {
	pid, err := ReadPIDFile(path)
	if err != nil {
		return StatusStopped, 0
	}
	if IsProcessAlive(pid) {
		return StatusRunning, pid
	}
	return StatusStale, pid
}

// SignalStop sends SIGTERM to the process named by the pid file so it can
// deregister its session before exiting.
func SignalStop(path string) error {
	pid, err := ReadPIDFile(path)
	if err != nil {
		return fmt.Errorf("read pid file: %w", err)
	}
	if !IsProcessAlive(pid) {
		return fmt.Errorf("process %d is not running", pid)
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find process %d: %w", pid, err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal process %d: %w", pid, err)
	}
	return nil
}

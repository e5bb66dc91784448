package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// ConfigSearchPaths returns the candidate config file locations in priority
// order. An explicit path (from the --config flag) always wins; otherwise the
// XDG location is tried before the legacy dotfile location.
func ConfigSearchPaths(explicit string) []string {
	var candidates []string
	if explicit != "" {
		candidates = append(candidates, explicit)
	}
	if base := os.Getenv("XDG_CONFIG_HOME"); base != "" {
		candidates = append(candidates, filepath.Join(base, "devdeck", "config.yaml"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, ".config", "devdeck", "config.yaml"),
			filepath.Join(home, ".devdeck", "config.yaml"),
		)
	}
	return candidates
}

// DefaultConfigPath is where `dd-cli login` writes credentials when no
// explicit --config path is given.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".devdeck", "config.yaml"), nil
}

// RuntimeDir returns the per-user directory holding the listener's pid file
// and status socket. $XDG_RUNTIME_DIR is preferred because it is created by
// the OS with correct ownership; the temp-dir fallback embeds the uid so
// users cannot collide on shared machines.
func RuntimeDir() string {
	if base := os.Getenv("XDG_RUNTIME_DIR"); base != "" {
		return filepath.Join(base, "devdeck")
	}
	uid := os.Geteuid()
	if uid < 0 {
		// Windows has no euid; the temp dir is already per-user there.
		return filepath.Join(os.TempDir(), "devdeck")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("devdeck-%d", uid))
}

// SocketPath returns the status socket path inside the runtime directory.
func SocketPath() string {
	return filepath.Join(RuntimeDir(), "dd-cli.sock")
}

// PIDPath returns the listener pid file path inside the runtime directory.
func PIDPath() string {
	return filepath.Join(RuntimeDir(), "dd-cli.pid")
}

// EnsureRuntimeDir creates the runtime directory if needed and verifies it is
// safe to place a socket in: mode 0700 and owned by the current user.
// SECURITY: a pre-created world-writable directory in /tmp would let another
// local user swap the socket out from under us.
func EnsureRuntimeDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("stat runtime directory: %w", err)
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create runtime directory: %w", err)
		}
		// Re-stat to catch a racing pre-creation with different ownership.
		info, err = os.Stat(dir)
		if err != nil {
			return fmt.Errorf("stat created runtime directory: %w", err)
		}
	}

	if !info.IsDir() {
		return fmt.Errorf("runtime path exists but is not a directory: %s", dir)
	}

	if runtime.GOOS != "windows" {
		if perm := info.Mode().Perm(); perm != 0700 {
			return fmt.Errorf("insecure runtime directory permissions: %o (expected 0700)", perm)
		}
	}

	if err := verifyFileOwner(info); err != nil {
		return fmt.Errorf("insecure runtime directory ownership: %w", err)
	}

	return nil
}

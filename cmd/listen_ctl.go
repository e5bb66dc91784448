package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/devdeck/dd-cli/internal/api"
	"github.com/devdeck/dd-cli/internal/listener"
	"github.com/devdeck/dd-cli/internal/paths"
)

var listenStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop a running listener",
	RunE:  runListenStop,
}

var listenStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running listener's session",
	RunE:  runListenStatus,
}

var listenTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Probe dashboard connectivity and credentials",
	RunE:  runListenTest,
}

func init() {
	listenCmd.AddCommand(listenStopCmd)
	listenCmd.AddCommand(listenStatusCmd)
	listenCmd.AddCommand(listenTestCmd)
}

func runListenStop(cmd *cobra.Command, args []string) error {
	pidPath := paths.PIDPath()
	status, pid := paths.CheckProcess(pidPath)
	switch status {
	case paths.StatusStopped:
		fmt.Println("Listener is not running.")
		return nil
	case paths.StatusStale:
		fmt.Printf("Removing stale pid file (pid %d is gone).\n", pid)
		return paths.RemovePIDFile(pidPath)
	}
	if err := paths.SignalStop(pidPath); err != nil {
		return err
	}
	fmt.Printf("Sent stop signal to listener (pid %d).\n", pid)
	return nil
}

func runListenStatus(cmd *cobra.Command, args []string) error {
	status, err := listener.QueryStatus(paths.SocketPath())
	if err == nil {
		fmt.Print(status.Render())
		return nil
	}

	// No socket answer; the pid file still distinguishes dead from wedged.
	procStatus, pid := paths.CheckProcess(paths.PIDPath())
	switch procStatus {
	case paths.StatusRunning:
		return fmt.Errorf("listener (pid %d) is running but not answering status queries: %w", pid, err)
	case paths.StatusStale:
		fmt.Printf("Listener is not running (stale pid file, pid %d).\n", pid)
	default:
		fmt.Println("Listener is not running.")
	}
	return nil
}

// runListenTest registers a throwaway session and deregisters it again,
// proving credentials and both session endpoints work before a real
// `listen start`.
func runListenTest(cmd *cobra.Command, args []string) error {
	client, cfg, err := newClient(true)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()

	probe := listener.New(client, listener.Options{Version: version, Log: logger})
	start := time.Now()
	if err := probe.Start(ctx); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return fmt.Errorf("dashboard %s reachable but the API key was rejected; run `dd-cli login`", cfg.ServerURL)
		}
		return fmt.Errorf("dashboard %s unreachable: %w", cfg.ServerURL, err)
	}
	probe.Stop()
	fmt.Printf("Dashboard %s reachable; session round trip %s.\n",
		cfg.ServerURL, time.Since(start).Round(time.Millisecond))
	return nil
}

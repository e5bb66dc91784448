package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/devdeck/dd-cli/internal/config"
	"github.com/devdeck/dd-cli/internal/listener"
	"github.com/devdeck/dd-cli/internal/paths"
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Remote command listener",
	Long: `Control the remote command listener.

While the listener runs, the dashboard can queue commands for this machine:
internal commands are forwarded back to the dashboard, system commands run
in a local shell.`,
}

var listenStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the listener in the foreground",
	Long: `Register a session with the dashboard and execute remote commands until
interrupted.

The session heartbeats every 30 seconds and polls for pending commands
every 5 seconds; a status view renders every 10 seconds. Ctrl-C or
'dd-cli listen stop' from another terminal deregisters the session and
exits cleanly.`,
	RunE: runListenStart,
}

func init() {
	rootCmd.AddCommand(listenCmd)
	listenCmd.AddCommand(listenStartCmd)
}

func runListenStart(cmd *cobra.Command, args []string) error {
	client, cfg, err := newClient(true)
	if err != nil {
		return err
	}

	// Dashboard-supplied commands run in a local shell; shed what
	// privileges we can before any of them arrive.
	listener.RestrictPrivileges(logger)

	if err := paths.EnsureRuntimeDir(paths.RuntimeDir()); err != nil {
		return err
	}
	pidPath := paths.PIDPath()
	if status, pid := paths.CheckProcess(pidPath); status == paths.StatusRunning {
		return fmt.Errorf("listener already running (pid %d)", pid)
	}
	if err := paths.WritePIDFile(pidPath, os.Getpid()); err != nil {
		return err
	}
	defer paths.RemovePIDFile(pidPath)

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	l := listener.New(client, listener.Options{
		Version: version,
		Log:     logger,
		OnStatus: func(s listener.Status) {
			fmt.Print(s.Render())
		},
	})
	if err := l.Start(ctx); err != nil {
		return err
	}
	logger.Info().Str("server", cfg.ServerURL).Str("session", l.SessionID()).Msg("listener started")

	srv, err := l.ServeStatus(paths.SocketPath())
	if err != nil {
		// The socket only serves `listen status`; the session works
		// without it.
		logger.Warn().Err(err).Msg("status socket unavailable")
	} else {
		defer srv.Close()
	}

	// Pick up a rewritten API key (e.g. a re-login) without a restart.
	if cfg.Source != "" {
		go func() {
			err := config.Watch(ctx, logger, cfg.Source, func(updated *config.Config) {
				if updated.APIKey != "" {
					client.SetToken(updated.APIKey)
				}
			})
			if err != nil {
				logger.Warn().Err(err).Msg("config watch unavailable")
			}
		}()
	}

	<-ctx.Done()
	logger.Info().Msg("shutting down")
	l.Stop()
	return nil
}

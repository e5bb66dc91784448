package cmd

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/devdeck/dd-cli/internal/api"
	"github.com/devdeck/dd-cli/internal/config"
)

// version is stamped by the release build.
var version = "0.4.0"

var (
	flagServer string
	flagConfig string
	flagLog    string

	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "dd-cli",
	Short: "DevDeck dashboard CLI",
	Long: `dd-cli drives a DevDeck dashboard from the terminal.

Verbs such as task, git, ai, memory, and logs are forwarded to the dashboard
for execution. listen registers this machine as a remote session so the
dashboard can send commands back to it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagServer, "server", "s", "", "Dashboard URL (overrides config and DEVDECK_SERVER)")
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&flagLog, "log", "info", "Log level (trace|debug|info|warn|error)")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		setupLogger()
	}
}

func setupLogger() {
	out := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}
	logger = zerolog.New(out).With().Timestamp().Logger()

	switch flagLog {
	case "trace":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// loadActiveConfig resolves the config file, environment, and flags, in
// rising precedence.
func loadActiveConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagServer != "" {
		cfg.ServerURL = flagServer
	}
	return cfg, nil
}

// newClient builds a dashboard client from the active config. With needAuth
// set, a missing API key is an error pointing at login.
func newClient(needAuth bool) (*api.Client, *config.Config, error) {
	cfg, err := loadActiveConfig()
	if err != nil {
		return nil, nil, err
	}
	if needAuth && cfg.APIKey == "" {
		return nil, nil, fmt.Errorf("no API key configured; run `dd-cli login` first")
	}
	return api.New(cfg.ServerURL, cfg.APIKey), cfg, nil
}

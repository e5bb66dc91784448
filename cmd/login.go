package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/devdeck/dd-cli/internal/api"
	"github.com/devdeck/dd-cli/internal/paths"
)

var loginKey string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store dashboard credentials",
	Long: `Validate an API key against the dashboard and save it to the config file.

Without --key the key is prompted for with terminal echo disabled; piped
stdin is read as a single line.`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored API key",
	RunE:  runLogout,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	loginCmd.Flags().StringVarP(&loginKey, "key", "k", "", "API key (prompted when omitted)")
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg, err := loadActiveConfig()
	if err != nil {
		return err
	}

	key := strings.TrimSpace(loginKey)
	if key == "" {
		key, err = promptKey()
		if err != nil {
			return err
		}
	}
	if key == "" {
		return fmt.Errorf("empty API key")
	}

	// Probe the dashboard before persisting anything.
	client := api.New(cfg.ServerURL, key)
	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()
	if _, err := client.EchoCommand(ctx, ":help", nil); err != nil {
		return fmt.Errorf("validate API key against %s: %w", cfg.ServerURL, err)
	}

	cfg.APIKey = key
	path := cfg.Source
	if flagConfig != "" {
		path = flagConfig
	}
	if path == "" {
		path, err = paths.DefaultConfigPath()
		if err != nil {
			return err
		}
	}
	if err := cfg.Save(path); err != nil {
		return err
	}
	fmt.Printf("Logged in to %s; credentials saved to %s\n", cfg.ServerURL, path)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	cfg, err := loadActiveConfig()
	if err != nil {
		return err
	}
	if cfg.Source == "" {
		fmt.Println("Not logged in.")
		return nil
	}
	cfg.APIKey = ""
	if err := cfg.Save(cfg.Source); err != nil {
		return err
	}
	fmt.Printf("Logged out; %s updated\n", cfg.Source)
	return nil
}

func promptKey() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, "API key: ")
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read API key: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read API key: %w", err)
	}
	return strings.TrimSpace(line), nil
}

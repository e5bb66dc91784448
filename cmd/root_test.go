package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// setFlags points the package-level flag state at test values and restores
// it afterwards; cobra normally owns these.
func setFlags(t *testing.T, server, config string) {
	t.Helper()
	prevServer, prevConfig := flagServer, flagConfig
	flagServer, flagConfig = server, config
	t.Cleanup(func() {
		flagServer, flagConfig = prevServer, prevConfig
	})
}

// isolateEnv keeps developer config files and environment out of the tests.
func isolateEnv(t *testing.T) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("DEVDECK_API_KEY", "")
	t.Setenv("DEVDECK_SERVER", "")
}

func TestLoadActiveConfigServerFlagWins(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "api_key: k\nserver_url: https://file.example.com\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	setFlags(t, "https://flag.example.com", path)

	cfg, err := loadActiveConfig()
	if err != nil {
		t.Fatalf("loadActiveConfig() error: %v", err)
	}
	if cfg.ServerURL != "https://flag.example.com" {
		t.Errorf("ServerURL = %q, want the --server value", cfg.ServerURL)
	}
	if cfg.APIKey != "k" {
		t.Errorf("APIKey = %q, want the file value", cfg.APIKey)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	isolateEnv(t)
	setFlags(t, "", "")

	_, _, err := newClient(true)
	if err == nil {
		t.Fatal("expected error without an API key")
	}
	if !strings.Contains(err.Error(), "login") {
		t.Errorf("error %q does not point at login", err)
	}
}

func TestNewClientWithoutAuth(t *testing.T) {
	isolateEnv(t)
	setFlags(t, "https://flag.example.com", "")

	client, cfg, err := newClient(false)
	if err != nil {
		t.Fatalf("newClient(false) error: %v", err)
	}
	if client.BaseURL() != "https://flag.example.com" {
		t.Errorf("BaseURL = %q, want the --server value", client.BaseURL())
	}
	if cfg.APIKey != "" {
		t.Errorf("APIKey = %q, want empty", cfg.APIKey)
	}
}

func TestCommandTreeRegistered(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{
		"task", "git", "ai", "memory", "logs",
		"listen", "login", "logout", "version",
	} {
		if !names[want] {
			t.Errorf("command %q not registered on root", want)
		}
	}

	listen := make(map[string]bool)
	for _, c := range listenCmd.Commands() {
		listen[c.Name()] = true
	}
	for _, want := range []string{"start", "stop", "status", "test"} {
		if !listen[want] {
			t.Errorf("subcommand %q not registered on listen", want)
		}
	}
}

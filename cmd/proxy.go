package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/devdeck/dd-cli/internal/command"
)

// runProxy translates one CLI verb invocation and forwards it to the
// dashboard, printing the dashboard's textual reply.
func runProxy(ctx context.Context, verb string, argv []string) error {
	client, _, err := newClient(true)
	if err != nil {
		return err
	}
	translated := command.TranslateArgs(verb, argv)
	logger.Debug().Str("command", translated.Name).Strs("args", translated.Args).Msg("forwarding")

	output, err := client.EchoCommand(ctx, translated.Name, translated.Args)
	if err != nil {
		return err
	}
	if output != "" {
		fmt.Println(output)
	}
	return nil
}

// newProxyCmd builds a command whose whole argument list is forwarded to
// the dashboard. Flag parsing is disabled: sub-verbs and flags belong to
// the dashboard's grammar, not this binary's.
func newProxyCmd(verb, short, long string) *cobra.Command {
	return &cobra.Command{
		Use:                verb,
		Short:              short,
		Long:               long,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && (args[0] == "--help" || args[0] == "-h") {
				return cmd.Help()
			}
			return runProxy(cmd.Context(), verb, args)
		},
	}
}

func init() {
	rootCmd.AddCommand(newProxyCmd("task",
		"Manage dashboard tasks",
		`Forward task commands to the dashboard.

Sub-verbs: add, list, done, delete, update. Anything else runs the default
listing with the tokens passed through.`))

	rootCmd.AddCommand(newProxyCmd("git",
		"Run git operations through the dashboard",
		`Forward git commands to the dashboard's repository integration.

Sub-verbs: status, log, diff, branch, commit, push, pull. Anything else
runs the default status.`))

	rootCmd.AddCommand(newProxyCmd("ai",
		"Ask the dashboard's AI assistant",
		`Forward AI commands to the dashboard.

Sub-verbs: ask, review, explain, models. Free text after ai is sent as a
question.`))

	rootCmd.AddCommand(newProxyCmd("memory",
		"Manage dashboard memory entries",
		`Forward memory commands to the dashboard.

Sub-verbs: save, search, list, delete. Anything else runs the default
listing.`))

	rootCmd.AddCommand(newProxyCmd("logs",
		"Read dashboard logs",
		`Forward log commands to the dashboard.

Sub-verbs: tail, search. Anything else runs the default tail.`))
}

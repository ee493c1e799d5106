// Command agentchat runs the chat relay service and its operator tooling.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/agent-chat/internal/config"
)

type options struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "agentchat",
		Short: "Chat relay between users and their webhook agents",
		Long: `agentchat stores per-agent conversations and relays each user turn to
the agent's webhook, recording the reply or a visible error message.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", config.BaseConfigFile, "path to the base configuration file")

	root.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newSendCmd(opts),
		newSecretsCmd(opts),
		newTokenCmd(opts),
		newUserCmd(opts),
		newAgentCmd(opts),
		newSeedCmd(opts),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/JaimeStill/agent-chat/internal/profiles"
)

func newAgentCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Manage a user's agents",
	}
	cmd.AddCommand(newAgentSaveCmd(opts), newAgentDeleteCmd(opts))
	return cmd
}

func newAgentSaveCmd(opts *options) *cobra.Command {
	var (
		userID string
		save   profiles.SaveAgentCommand
	)

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Create an agent, or update it when --id is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			agent, err := a.module.Domain.Profiles.SaveAgent(ctx, userID, save)
			if err != nil {
				return err
			}
			a.module.Domain.Chat.AgentSaved(ctx, userID, *agent)
			return printJSON(cmd, agent)
		},
	}

	f := cmd.Flags()
	f.StringVar(&userID, "user", "", "owning user id (required)")
	f.StringVar(&save.ID, "id", "", "agent id to update")
	f.StringVar(&save.Name, "name", "", "agent name (required)")
	f.StringVar(&save.Description, "description", "", "agent description")
	f.StringVar(&save.WebhookURL, "webhook", "", "per-agent webhook url")
	f.StringSliceVar(&save.Tools, "tools", nil, "comma-separated tool names")
	cmd.MarkFlagRequired("user")
	cmd.MarkFlagRequired("name")
	return cmd
}

func newAgentDeleteCmd(opts *options) *cobra.Command {
	var userID, agentID string

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete an agent and its conversation",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			if err := a.module.Domain.Profiles.DeleteAgent(ctx, userID, agentID); err != nil {
				return err
			}
			a.module.Domain.Chat.AgentDeleted(ctx, userID, agentID)
			cmd.Printf("agent %s deleted\n", agentID)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "owning user id (required)")
	cmd.Flags().StringVar(&agentID, "id", "", "agent id (required)")
	cmd.MarkFlagRequired("user")
	cmd.MarkFlagRequired("id")
	return cmd
}

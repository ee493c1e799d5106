package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/agent-chat/internal/auth"
)

func newTokenCmd(opts *options) *cobra.Command {
	var userID, role string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an API bearer token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}

			token, err := auth.NewTokens(&cfg.Auth).Issue(userID, role)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id placed in the sub claim (required)")
	cmd.Flags().StringVar(&role, "role", "user", "role claim (user or admin)")
	cmd.MarkFlagRequired("user")
	return cmd
}

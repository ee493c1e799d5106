package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/agent-chat/internal/settings"
)

func newSecretsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secrets",
		Short: "Manage stored webhook credentials",
	}
	cmd.AddCommand(newSecretsSetCmd(opts), newSecretsClearCmd(opts))
	return cmd
}

func newSecretsSetCmd(opts *options) *cobra.Command {
	var (
		userID  string
		secrets settings.Secrets
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store credentials for a user; unset flags keep their current value",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secrets.Empty() {
				return fmt.Errorf("nothing to set: pass --api-key, --username/--password, or --token")
			}

			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.module.Domain.Settings.SetSecrets(cmd.Context(), userID, secrets); err != nil {
				return err
			}
			cmd.Printf("credentials stored for %s (%s backend)\n", userID, a.cfg.Secrets.Backend)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&userID, "user", "", "user id (required)")
	f.StringVar(&secrets.APIKey, "api-key", "", "API key for apiKey auth")
	f.StringVar(&secrets.BasicAuthUsername, "username", "", "basic auth username")
	f.StringVar(&secrets.BasicAuthPassword, "password", "", "basic auth password")
	f.StringVar(&secrets.OAuthToken, "token", "", "bearer token for oauth auth")
	cmd.MarkFlagRequired("user")
	cmd.MarkFlagsRequiredTogether("username", "password")

	return cmd
}

func newSecretsClearCmd(opts *options) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every stored credential for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			provider := a.module.Domain.Settings
			current, err := provider.Get(cmd.Context(), userID)
			if err != nil {
				return err
			}
			if _, err := provider.Save(cmd.Context(), userID, settings.SaveRequest{
				Settings:     current,
				ClearSecrets: true,
			}); err != nil {
				return err
			}
			cmd.Printf("credentials cleared for %s\n", userID)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id (required)")
	cmd.MarkFlagRequired("user")
	return cmd
}

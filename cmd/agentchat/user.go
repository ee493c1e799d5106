package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/agent-chat/internal/profiles"
)

func newUserCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(
		newUserCreateCmd(opts),
		newUserActiveCmd(opts, "activate", true),
		newUserActiveCmd(opts, "deactivate", false),
	)
	return cmd
}

func newUserCreateCmd(opts *options) *cobra.Command {
	var (
		userID string
		admin  bool
		save   profiles.SaveUserCommand
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user or update their profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if admin {
				save.Role = profiles.RoleAdmin
			}
			user, err := a.module.Domain.Profiles.Save(cmd.Context(), userID, save)
			if err != nil {
				return err
			}
			return printJSON(cmd, user)
		},
	}

	f := cmd.Flags()
	f.StringVar(&userID, "id", "", "user id, usually the identity provider subject (required)")
	f.StringVar(&save.Name, "name", "", "display name")
	f.StringVar(&save.Email, "email", "", "email address")
	f.StringVar(&save.Bio, "bio", "", "short bio")
	f.BoolVar(&admin, "admin", false, "grant the admin role")
	cmd.MarkFlagRequired("id")
	return cmd
}

func newUserActiveCmd(opts *options, use string, active bool) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   use,
		Short: "Set whether a user may chat (" + use + ")",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := a.module.Domain.Profiles.SetActive(cmd.Context(), userID, active)
			if err != nil {
				return err
			}
			cmd.Printf("%s is_active=%t\n", user.ID, user.IsActive)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "id", "", "user id (required)")
	cmd.MarkFlagRequired("id")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

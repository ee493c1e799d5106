package main

import (
	"github.com/spf13/cobra"

	"github.com/JaimeStill/agent-chat/internal/infrastructure"
)

func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			infra, err := infrastructure.New(cfg)
			if err != nil {
				return err
			}
			defer infra.Database.Connection().Close()

			if err := infra.Migrate(); err != nil {
				return err
			}
			cmd.Println("migrations applied")
			return nil
		},
	}
}

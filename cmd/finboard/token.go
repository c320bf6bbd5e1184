package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"finboard/internal/cli"
	"finboard/internal/middleware/auth"
)

func tokenCmd(flags *globalFlags) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue a bearer token signed with AUTH_SECRET",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.LoadEnvFile(); err != nil {
				return err
			}
			cfg, err := cli.LoadAndValidateConfig(flags.configPath)
			if err != nil {
				return err
			}
			if cfg.AuthSecret == "" {
				return errors.New("AUTH_SECRET is not set")
			}
			token, err := auth.IssueToken(cfg.AuthSecret, args[0], ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}

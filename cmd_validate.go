package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/odorsampling/config"
	"github.com/pthm-cable/odorsampling/experiment"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check configured experiments against the available functions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Cfg()
			if err := experiment.Builtin().Validate(cfg.Experiments); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d experiments\n", len(cfg.Experiments))
			return nil
		},
	}
}

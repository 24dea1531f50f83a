package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/odorsampling/config"
	"github.com/pthm-cable/odorsampling/experiment"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured experiments and available functions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Cfg()
			reg := experiment.Builtin()
			w := cmd.OutOrStdout()

			fmt.Fprintln(w, "Experiments:")
			for _, exp := range cfg.Experiments {
				fmt.Fprintf(w, "  %s  %s\n", exp.ID, exp.Name)
				for _, call := range exp.Calls {
					fmt.Fprintf(w, "      %s %v\n", call.Function, call.Args)
				}
			}

			fmt.Fprintln(w, "\nFunctions:")
			for _, name := range reg.Names() {
				spec, err := reg.Lookup(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "  %s  %s\n", spec.Name, spec.Description)
				for _, p := range spec.Params {
					var def any
					if p.Default != nil {
						def = p.Default(cfg)
					}
					fmt.Fprintf(w, "      %-14s %v  %s\n", p.Name, def, p.Doc)
				}
			}
			return nil
		},
	}
}

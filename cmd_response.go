package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/odorsampling/config"
	"github.com/pthm-cable/odorsampling/odor"
)

type responseOutput struct {
	Mean       []float64 `json:"mean"`
	SDA        []float64 `json:"sd_a"`
	SDE        []float64 `json:"sd_e"`
	Location   []float64 `json:"location"`
	Conc       float64   `json:"concentration"`
	Affinity   float64   `json:"affinity"`
	Efficacy   float64   `json:"efficacy"`
	Occupancy  float64   `json:"occupancy"`
	Activation float64   `json:"activation"`
}

func newResponseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "response",
		Short: "Evaluate one receptor against one ligand and print JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Cfg()
			mean, _ := cmd.Flags().GetFloat64Slice("mean")
			sdA, _ := cmd.Flags().GetFloat64Slice("sda")
			sdE, _ := cmd.Flags().GetFloat64Slice("sde")
			loc, _ := cmd.Flags().GetFloat64Slice("loc")
			conc, _ := cmd.Flags().GetFloat64("conc")
			fixed, _ := cmd.Flags().GetBool("fixed")
			if !cmd.Flags().Changed("conc") {
				conc = cfg.Model.OdorConcentration
			}

			r, err := odor.NewReceptor(0, mean, sdA, sdE)
			if err != nil {
				return err
			}
			l, err := odor.NewLigand(0, loc, conc)
			if err != nil {
				return err
			}
			m := cfg.Derived.Model
			m.FixedEfficacy = m.FixedEfficacy || fixed
			resp, err := m.Evaluate(r, l)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(responseOutput{
				Mean:       r.Mean(),
				SDA:        r.SDA(),
				SDE:        r.SDE(),
				Location:   l.Loc,
				Conc:       l.Conc,
				Affinity:   resp.Affinity,
				Efficacy:   resp.Efficacy,
				Occupancy:  resp.Occupancy,
				Activation: resp.Activation,
			})
		},
	}

	cmd.Flags().Float64Slice("mean", []float64{2}, "Receptor mean, one value per dimension")
	cmd.Flags().Float64Slice("sda", []float64{1}, "Affinity SD (one value or one per dimension)")
	cmd.Flags().Float64Slice("sde", []float64{1}, "Efficacy SD (one value or one per dimension)")
	cmd.Flags().Float64Slice("loc", []float64{2}, "Ligand location")
	cmd.Flags().Float64("conc", 0, "Ligand concentration (unset = config)")
	cmd.Flags().Bool("fixed", false, "Force efficacy to 1")
	return cmd
}

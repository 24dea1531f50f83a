package main

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pthm-cable/odorsampling/config"
	"github.com/pthm-cable/odorsampling/experiment"
	"github.com/pthm-cable/odorsampling/storage"
	"github.com/pthm-cable/odorsampling/telemetry"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [experiment-id...]",
		Short: "Run configured experiments (all when no ids are given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Cfg()
			seed, _ := cmd.Flags().GetUint64("seed")
			if dir, _ := cmd.Flags().GetString("output-dir"); dir != "" {
				cfg.Output.Dir = dir
			}
			if backend, _ := cmd.Flags().GetString("store"); backend != "" {
				cfg.Storage.Backend = backend
			}
			if path, _ := cmd.Flags().GetString("sqlite-path"); path != "" {
				cfg.Storage.SQLitePath = path
			}

			reg := experiment.Builtin()
			if err := reg.Validate(cfg.Experiments); err != nil {
				return fmt.Errorf("invalid experiments: %w", err)
			}
			exps, err := selectExperiments(cfg, args)
			if err != nil {
				return err
			}

			if seed == 0 {
				seed = uint64(time.Now().UnixNano())
			}

			ctx := cmd.Context()
			store, err := storage.NewStore(cfg.Storage.Backend, cfg.Storage.SQLitePath)
			if err != nil {
				return err
			}
			if err := store.Init(ctx); err != nil {
				return fmt.Errorf("init store: %w", err)
			}
			defer storage.CloseIfSupported(store)

			out, err := telemetry.NewOutputManager(cfg.Output.Dir)
			if err != nil {
				return err
			}
			defer out.Close()
			if err := out.WriteConfig(cfg); err != nil {
				return err
			}

			snapshot := &telemetry.Snapshot{
				Version:   telemetry.SnapshotVersion,
				RunID:     uuid.NewString(),
				RNGSeed:   seed,
				StartedAt: time.Now().UTC(),
				Model:     telemetry.NewModelState(cfg.Derived.Model),
			}

			slog.Info("starting experiments",
				"seed", seed,
				"experiments", len(exps),
				"store", cfg.Storage.Backend,
				"output_dir", cfg.Output.Dir,
			)

			env := &experiment.Env{
				Config:   cfg,
				Model:    cfg.Derived.Model,
				RNG:      rand.New(rand.NewPCG(seed, seed)),
				Seed:     seed,
				Output:   out,
				Store:    store,
				Snapshot: snapshot,
				Logger:   slog.Default(),
			}
			runner := experiment.NewRunner(reg, env)
			for _, exp := range exps {
				run, _, err := runner.Run(ctx, exp)
				if err != nil {
					return fmt.Errorf("experiment %s: %w", exp.ID, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", exp.ID, run.ID, run.Status)
			}

			if cfg.Output.Dir != "" {
				path, err := telemetry.SaveSnapshot(snapshot, cfg.Output.Dir)
				if err != nil {
					return err
				}
				slog.Info("snapshot saved", "path", path)
			}
			return nil
		},
	}

	cmd.Flags().Uint64("seed", 0, "RNG seed (0 = time-based)")
	cmd.Flags().String("output-dir", "", "Output directory for CSV files, config and snapshot")
	cmd.Flags().String("store", "", "Run store backend: memory or sqlite (empty = config)")
	cmd.Flags().String("sqlite-path", "", "SQLite database path (empty = config)")
	return cmd
}

func selectExperiments(cfg *config.Config, ids []string) ([]config.ExperimentConfig, error) {
	if len(ids) == 0 {
		return cfg.Experiments, nil
	}
	exps := make([]config.ExperimentConfig, 0, len(ids))
	for _, id := range ids {
		exp, ok := cfg.Experiment(id)
		if !ok {
			return nil, fmt.Errorf("unknown experiment: %s", id)
		}
		exps = append(exps, exp)
	}
	return exps, nil
}

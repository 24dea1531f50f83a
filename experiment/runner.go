package experiment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/pthm-cable/odorsampling/config"
	"github.com/pthm-cable/odorsampling/storage"
	"github.com/pthm-cable/odorsampling/telemetry"
)

// Runner executes configured experiments and records what they produce.
type Runner struct {
	Registry *Registry
	Env      *Env
}

// NewRunner returns a runner over reg and env.
func NewRunner(reg *Registry, env *Env) *Runner {
	return &Runner{Registry: reg, Env: env}
}

// Run executes every call of exp in order. The run is stored with status
// completed, or failed with the first error.
func (r *Runner) Run(ctx context.Context, exp config.ExperimentConfig) (storage.Run, []Result, error) {
	if r.Env.Store == nil {
		return storage.Run{}, nil, errors.New("runner: store is required")
	}
	log := r.Env.logger().With("experiment", exp.ID)

	run := storage.Run{
		ID:         uuid.NewString(),
		Experiment: exp.ID,
		Seed:       r.Env.Seed,
		StartedAt:  time.Now().UTC(),
		Status:     storage.StatusRunning,
	}
	if err := r.Env.Store.SaveRun(ctx, run); err != nil {
		return run, nil, fmt.Errorf("save run: %w", err)
	}
	log.Info("experiment started", "run", run.ID, "name", exp.Name, "calls", len(exp.Calls))

	results, runErr := r.runCalls(ctx, run.ID, exp)

	run.FinishedAt = time.Now().UTC()
	run.Status = storage.StatusCompleted
	if runErr != nil {
		run.Status = storage.StatusFailed
		run.Error = runErr.Error()
	}
	// Record the outcome even when ctx was cancelled.
	if err := r.Env.Store.SaveRun(context.WithoutCancel(ctx), run); err != nil {
		return run, results, errors.Join(runErr, fmt.Errorf("save run: %w", err))
	}

	if runErr != nil {
		log.Error("experiment failed", "run", run.ID, "error", runErr)
		return run, results, runErr
	}
	if r.Env.Snapshot != nil {
		r.Env.Snapshot.Experiments = append(r.Env.Snapshot.Experiments, exp.ID)
	}
	log.Info("experiment completed", "run", run.ID, "elapsed", run.FinishedAt.Sub(run.StartedAt))
	return run, results, nil
}

func (r *Runner) runCalls(ctx context.Context, runID string, exp config.ExperimentConfig) ([]Result, error) {
	log := r.Env.logger().With("experiment", exp.ID)
	perf := telemetry.NewPerfCollector(len(exp.Calls))
	defer func() { log.Info("experiment timing", "perf", perf.Stats()) }()

	results := make([]Result, 0, len(exp.Calls))
	for i, call := range exp.Calls {
		perf.StartCall(call.Function)
		perf.StartPhase(telemetry.PhaseBind)
		spec, err := r.Registry.Lookup(call.Function)
		if err != nil {
			return results, fmt.Errorf("call %d: %w", i, err)
		}
		args, err := spec.Bind(r.Env.Config, call.Args)
		if err != nil {
			return results, fmt.Errorf("call %d: %w", i, err)
		}
		perf.StartPhase(telemetry.PhaseProcedure)
		res, err := spec.Run(ctx, r.Env, args)
		if err != nil {
			return results, fmt.Errorf("call %d (%s): %w", i, call.Function, err)
		}
		perf.StartPhase(telemetry.PhaseRecord)
		if err := r.record(ctx, runID, exp.ID, res); err != nil {
			return results, fmt.Errorf("call %d (%s): %w", i, call.Function, err)
		}
		log.Debug("call finished", "call", i, "timing", perf.EndCall())
		results = append(results, res)
	}
	return results, nil
}

// record writes res to the CSV output, the store and the snapshot.
func (r *Runner) record(ctx context.Context, runID, experiment string, res Result) error {
	env := r.Env
	log := env.logger().With("experiment", experiment, "function", res.Function)

	var summaries []storage.CurveSummary
	var curveStats []telemetry.CurveStats
	for _, c := range res.Curves {
		points := make([]telemetry.CurvePoint, len(c.Responses))
		for i, resp := range c.Responses {
			points[i] = telemetry.CurvePoint{
				Experiment: experiment,
				Curve:      c.Label,
				Location:   c.Locations[i],
				Affinity:   resp.Affinity,
				Efficacy:   resp.Efficacy,
				Occupancy:  resp.Occupancy,
				Activation: resp.Activation,
			}
		}
		if err := env.Output.WriteCurve(points); err != nil {
			return err
		}
		for _, q := range c.Quantities {
			stats := telemetry.ComputeCurveStats(c.Label, c.Locations, c.Values(q))
			stats.Experiment = experiment
			stats.Quantity = q
			curveStats = append(curveStats, stats)
			log.Info("curve", "quantity", q, "stats", stats)
			summaries = append(summaries, storage.CurveSummary{
				Curve:        c.Label,
				Quantity:     q,
				Points:       stats.Points,
				Mean:         stats.Mean,
				Max:          stats.Max,
				PeakLocation: stats.PeakLocation,
			})
		}
	}
	if err := env.Output.WriteCurveStats(curveStats); err != nil {
		return err
	}
	if len(summaries) > 0 {
		if err := env.Store.SaveCurveSummaries(ctx, runID, summaries); err != nil {
			return fmt.Errorf("save curve summaries: %w", err)
		}
	}

	for _, h := range res.Histograms {
		if err := env.Output.WriteHistogram(telemetry.HistogramRows(experiment, h.Label, h.Hist)); err != nil {
			return err
		}
		if err := env.Store.SaveHistogram(ctx, runID, storedBins(h)); err != nil {
			return fmt.Errorf("save histogram: %w", err)
		}
		log.Info("histogram",
			"label", h.Label,
			"ligands", h.Ligands,
			"stats", telemetry.ComputeHistogramStats(h.Hist),
			"bins", h.Hist,
		)
	}

	if len(res.Receptors) > 0 {
		if err := env.Output.WriteReceptors(telemetry.ReceptorRows(experiment, res.Receptors)); err != nil {
			return err
		}
		if env.Snapshot != nil {
			env.Snapshot.AddReceptors(experiment, res.Receptors)
		}
	}
	return nil
}

func storedBins(h Histogram) []storage.HistogramBin {
	counts := h.Hist.Counts()
	sums := h.Hist.EfficacySums()
	bins := make([]storage.HistogramBin, len(counts))
	for i := range bins {
		mean, ok := h.Hist.MeanEfficacyAt(i)
		if !ok {
			mean = math.NaN()
		}
		bins[i] = storage.HistogramBin{
			Label:        h.Label,
			Bin:          i,
			Count:        counts[i],
			EffSum:       sums[i],
			MeanEfficacy: mean,
		}
	}
	return bins
}

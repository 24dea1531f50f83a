package experiment

import (
	"context"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/odorsampling/config"
	"github.com/pthm-cable/odorsampling/odor"
	"github.com/pthm-cable/odorsampling/storage"
	"github.com/pthm-cable/odorsampling/telemetry"
)

func testEnv(t *testing.T, outDir string) *Env {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// Coarser sweeps keep the tests fast.
	cfg.Sampling.CurveStep = 0.1
	cfg.Sampling.GridStep = 0.2

	store := storage.NewMemoryStore()
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	out, err := telemetry.NewOutputManager(outDir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}
	t.Cleanup(func() { _ = out.Close() })

	return &Env{
		Config:   cfg,
		Model:    cfg.Derived.Model,
		RNG:      rand.New(rand.NewPCG(7, 7)),
		Seed:     7,
		Output:   out,
		Store:    store,
		Snapshot: &telemetry.Snapshot{Version: telemetry.SnapshotVersion},
	}
}

func runExperiment(t *testing.T, env *Env, id string) (storage.Run, []Result) {
	t.Helper()
	exp, ok := env.Config.Experiment(id)
	if !ok {
		t.Fatalf("experiment %s not configured", id)
	}
	run, results, err := NewRunner(Builtin(), env).Run(context.Background(), exp)
	if err != nil {
		t.Fatalf("Run(%s): %v", id, err)
	}
	return run, results
}

func TestOccVsLoc(t *testing.T) {
	env := testEnv(t, "")
	run, results := runExperiment(t, env, "occ-loc")

	curves := results[0].Curves
	if len(curves) != 4 {
		t.Fatalf("got %d curves, want 4", len(curves))
	}
	if curves[0].Label != "AffSD = [2]" {
		t.Errorf("label = %q", curves[0].Label)
	}
	for _, c := range curves {
		if len(c.Locations) != 40 {
			t.Fatalf("%s: %d points, want 40", c.Label, len(c.Locations))
		}
		// Peak at the receptor mean.
		occ := c.Values(QuantityOccupancy)
		if math.Abs(c.Locations[20]-2) > 1e-9 {
			t.Fatalf("location[20] = %g, want 2", c.Locations[20])
		}
		for i, v := range occ {
			if v > occ[20] {
				t.Errorf("%s: occupancy at %g exceeds occupancy at the mean", c.Label, c.Locations[i])
			}
		}
		if aff := c.Values(QuantityAffinity)[20]; math.Abs(aff-1e-8) > 1e-20 {
			t.Errorf("%s: affinity at mean = %g, want 1e-8", c.Label, aff)
		}
	}
	// Narrower tuning falls off faster.
	if !(curves[3].Values(QuantityOccupancy)[0] < curves[0].Values(QuantityOccupancy)[0]) {
		t.Error("narrow affinity SD should give lower occupancy at the edge")
	}

	summaries, err := env.Store.GetCurveSummaries(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("GetCurveSummaries: %v", err)
	}
	if len(summaries) != 8 {
		t.Errorf("got %d summaries, want 8", len(summaries))
	}
	for _, s := range summaries {
		if s.Quantity != QuantityOccupancy {
			continue
		}
		if math.Abs(s.PeakLocation-2) > 1e-9 {
			t.Errorf("%s %s peak at %g, want 2", s.Curve, s.Quantity, s.PeakLocation)
		}
	}
}

func TestEffVsLoc(t *testing.T) {
	env := testEnv(t, "")
	_, results := runExperiment(t, env, "eff-loc")

	curves := results[0].Curves
	if len(curves) != 5 {
		t.Fatalf("got %d curves, want 5", len(curves))
	}
	for _, c := range curves {
		eff := c.Values(QuantityEfficacy)
		if math.Abs(eff[20]-1) > 1e-12 {
			t.Errorf("%s: efficacy at mean = %g, want 1", c.Label, eff[20])
		}
		for i := 21; i < len(eff); i++ {
			if eff[i] > eff[i-1] {
				t.Errorf("%s: efficacy rises at %g", c.Label, c.Locations[i])
			}
		}
	}
	// Widest tuning keeps the highest efficacy at the edge.
	if !(curves[4].Values(QuantityEfficacy)[0] > curves[0].Values(QuantityEfficacy)[0]) {
		t.Error("wide efficacy SD should give higher efficacy at the edge")
	}
}

func TestEffAnalysis(t *testing.T) {
	env := testEnv(t, "")
	run, results := runExperiment(t, env, "eff-analysis")

	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for _, res := range results {
		h := res.Histograms[0]
		if h.Ligands != 400 {
			t.Errorf("%s: %d ligands, want 400", h.Label, h.Ligands)
		}
		if h.Hist.Total() != h.Ligands {
			t.Errorf("%s: histogram total %d, want %d", h.Label, h.Hist.Total(), h.Ligands)
		}
	}

	fixed := results[2].Histograms[0]
	if fixed.Label != "EffSD = [0.05, 0.2] fixed" {
		t.Errorf("fixed label = %q", fixed.Label)
	}
	for i, m := range fixed.Hist.MeanEfficacy() {
		if !math.IsNaN(m) && m != 1 {
			t.Errorf("fixed bin %d mean efficacy = %g, want 1", i, m)
		}
	}

	bins, err := env.Store.GetHistogram(context.Background(), run.ID, fixed.Label)
	if err != nil {
		t.Fatalf("GetHistogram: %v", err)
	}
	if len(bins) != odor.NumBins {
		t.Errorf("stored %d bins, want %d", len(bins), odor.NumBins)
	}
	if len(env.Snapshot.Receptors) != 3 {
		t.Errorf("snapshot holds %d receptors, want 3", len(env.Snapshot.Receptors))
	}
}

func TestEffAnalysisDeterministic(t *testing.T) {
	a := testEnv(t, "")
	b := testEnv(t, "")
	_, ra := runExperiment(t, a, "eff-analysis")
	_, rb := runExperiment(t, b, "eff-analysis")

	for i := range ra {
		ca, cb := ra[i].Histograms[0].Hist.Counts(), rb[i].Histograms[0].Hist.Counts()
		for bin := range ca {
			if ca[bin] != cb[bin] {
				t.Fatalf("result %d bin %d: %d != %d", i, bin, ca[bin], cb[bin])
			}
		}
	}
}

func TestMakeEpitheliumWritesReceptors(t *testing.T) {
	dir := t.TempDir()
	env := testEnv(t, dir)
	_, results := runExperiment(t, env, "epithelium")

	res := results[0]
	if len(res.Receptors) != env.Config.Epithelium.NumReceptors {
		t.Fatalf("got %d receptors, want %d", len(res.Receptors), env.Config.Epithelium.NumReceptors)
	}
	if len(res.Probe) != len(res.Receptors) {
		t.Errorf("probe has %d responses, want %d", len(res.Probe), len(res.Receptors))
	}
	for _, p := range res.Probe {
		if p.Activation < 0 || p.Activation > 1 {
			t.Errorf("receptor %d activation %g out of [0,1]", p.ReceptorID, p.Activation)
		}
	}
	if err := env.Output.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "receptors.csv")); err != nil {
		t.Errorf("receptors.csv not written: %v", err)
	}
	if len(env.Snapshot.Experiments) != 1 || env.Snapshot.Experiments[0] != "epithelium" {
		t.Errorf("snapshot experiments = %v", env.Snapshot.Experiments)
	}
}

func TestRunFailureIsRecorded(t *testing.T) {
	env := testEnv(t, "")
	exp := config.ExperimentConfig{
		ID:    "broken",
		Calls: []config.CallConfig{{Function: "eff_vs_loc", Args: map[string]any{"eff_sds": []any{-1}}}},
	}
	run, _, err := NewRunner(Builtin(), env).Run(context.Background(), exp)
	if err == nil {
		t.Fatal("expected error for negative SD")
	}
	stored, ok, err := env.Store.GetRun(context.Background(), run.ID)
	if err != nil || !ok {
		t.Fatalf("GetRun: ok=%v err=%v", ok, err)
	}
	if stored.Status != storage.StatusFailed || stored.Error == "" {
		t.Errorf("stored run = %+v, want failed with error", stored)
	}
}

func TestRunCancelled(t *testing.T) {
	env := testEnv(t, "")
	exp, _ := env.Config.Experiment("occ-loc")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run, _, err := NewRunner(Builtin(), env).Run(ctx, exp)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	stored, _, _ := env.Store.GetRun(context.Background(), run.ID)
	if stored.Status != storage.StatusFailed {
		t.Errorf("status = %s, want failed", stored.Status)
	}
}

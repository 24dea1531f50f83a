package experiment

import (
	"context"
	"fmt"

	"github.com/pthm-cable/odorsampling/config"
	"github.com/pthm-cable/odorsampling/epithelium"
	"github.com/pthm-cable/odorsampling/odor"
)

// Sweeps run along a single dimension centered on the receptor.
var (
	sweepBound = odor.Bound{Min: 0, Max: 4}
	sweepMean  = 2.0
)

func curveStep(cfg *config.Config) any { return cfg.Sampling.CurveStep }

func concentration(cfg *config.Config) any { return cfg.Model.OdorConcentration }

func floatsDefault(v ...float64) func(*config.Config) any {
	return func(*config.Config) any { return append([]float64(nil), v...) }
}

func occVsLocSpec() Spec {
	return Spec{
		Name:        "occ_vs_loc",
		Description: "Affinity and occupancy along [0,4) for a receptor at 2, one curve per affinity SD.",
		Params: []Param{
			{Name: "aff_sds", Doc: "affinity SDs, one curve each", Default: floatsDefault(2, 1.5, 1, 0.5)},
			{Name: "step", Doc: "ligand spacing", Default: curveStep},
			{Name: "conc", Doc: "ligand concentration", Default: concentration},
		},
		Run: runOccVsLoc,
	}
}

func runOccVsLoc(ctx context.Context, env *Env, args Args) (Result, error) {
	sds, err := args.Floats("aff_sds")
	if err != nil {
		return Result{}, err
	}
	step, err := args.Float("step")
	if err != nil {
		return Result{}, err
	}
	conc, err := args.Float("conc")
	if err != nil {
		return Result{}, err
	}

	res := Result{Function: "occ_vs_loc"}
	for i, sd := range sds {
		curve, err := sweep(ctx, env.Model, i, sd, 1, step, conc)
		if err != nil {
			return Result{}, err
		}
		curve.Label = fmt.Sprintf("AffSD = [%g]", sd)
		curve.Quantities = []string{QuantityAffinity, QuantityOccupancy}
		res.Curves = append(res.Curves, curve)
	}
	return res, nil
}

func effVsLocSpec() Spec {
	return Spec{
		Name:        "eff_vs_loc",
		Description: "Efficacy along [0,4) for a receptor at 2, one curve per efficacy SD.",
		Params: []Param{
			{Name: "eff_sds", Doc: "efficacy SDs, one curve each", Default: floatsDefault(0.1, 0.5, 1, 2, 3)},
			{Name: "step", Doc: "ligand spacing", Default: curveStep},
		},
		Run: runEffVsLoc,
	}
}

func runEffVsLoc(ctx context.Context, env *Env, args Args) (Result, error) {
	sds, err := args.Floats("eff_sds")
	if err != nil {
		return Result{}, err
	}
	step, err := args.Float("step")
	if err != nil {
		return Result{}, err
	}

	res := Result{Function: "eff_vs_loc"}
	for i, sd := range sds {
		curve, err := sweep(ctx, env.Model, i, 1, sd, step, env.Config.Model.OdorConcentration)
		if err != nil {
			return Result{}, err
		}
		curve.Label = fmt.Sprintf("EffSD = [%g]", sd)
		curve.Quantities = []string{QuantityEfficacy}
		res.Curves = append(res.Curves, curve)
	}
	return res, nil
}

// sweep evaluates a 1-D receptor against one ligand at each point of the sweep.
func sweep(ctx context.Context, m odor.Model, id int, sdA, sdE, step, conc float64) (Curve, error) {
	if err := ctx.Err(); err != nil {
		return Curve{}, err
	}
	space, err := odor.NewSpace([]odor.Bound{sweepBound})
	if err != nil {
		return Curve{}, err
	}
	r, err := odor.NewReceptorIn(space, id, []float64{sweepMean}, []float64{sdA}, []float64{sdE})
	if err != nil {
		return Curve{}, err
	}
	ligands, err := odor.Grid(space, step, conc)
	if err != nil {
		return Curve{}, err
	}

	c := Curve{
		Locations: make([]float64, len(ligands)),
		Responses: make([]odor.Response, len(ligands)),
	}
	for i, l := range ligands {
		resp, err := m.Evaluate(r, l)
		if err != nil {
			return Curve{}, err
		}
		c.Locations[i] = l.Loc[0]
		c.Responses[i] = resp
	}
	return c, nil
}

func effAnalysisSpec() Spec {
	return Spec{
		Name:        "eff_analysis",
		Description: "Activation histogram and mean efficacy per bin of one sampled receptor over a 2-D ligand grid.",
		Params: []Param{
			{Name: "eff_sd", Doc: "uniform range of efficacy SDs", Default: func(cfg *config.Config) any { return cfg.Epithelium.EffSD }},
			{Name: "aff_sd", Doc: "uniform range of affinity SDs", Default: floatsDefault(2, 2)},
			{Name: "bounds", Doc: "per-dimension bound [min, max]", Default: floatsDefault(0, 4)},
			{Name: "fixed", Doc: "force efficacy to 1", Default: func(*config.Config) any { return false }},
		},
		Run: runEffAnalysis,
	}
}

func runEffAnalysis(ctx context.Context, env *Env, args Args) (Result, error) {
	effSD, err := args.Range("eff_sd")
	if err != nil {
		return Result{}, err
	}
	affSD, err := args.Range("aff_sd")
	if err != nil {
		return Result{}, err
	}
	bounds, err := args.Range("bounds")
	if err != nil {
		return Result{}, err
	}
	fixed, err := args.Bool("fixed")
	if err != nil {
		return Result{}, err
	}

	space, err := odor.UniformSpace(2, odor.Bound{Min: bounds[0], Max: bounds[1]})
	if err != nil {
		return Result{}, err
	}
	epi, err := epithelium.Create(env.RNG, space, epithelium.Options{
		NumReceptors: 1,
		AffSD:        affSD,
		EffSD:        effSD,
	})
	if err != nil {
		return Result{}, err
	}
	r := epi.Receptors()[0]

	ligands, err := odor.Grid(space, env.Config.Sampling.GridStep, env.Config.Model.OdorConcentration)
	if err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	m := env.Model
	m.FixedEfficacy = m.FixedEfficacy || fixed

	var h *odor.Histogram
	if env.Config.Analysis.Parallel {
		h, err = m.SummarizeParallel(r, ligands, env.Config.Analysis.Workers)
	} else {
		h, err = m.Summarize(r, ligands)
	}
	if err != nil {
		return Result{}, err
	}

	label := fmt.Sprintf("EffSD = [%g, %g]", effSD[0], effSD[1])
	if fixed {
		label += " fixed"
	}
	return Result{
		Function:   "eff_analysis",
		Histograms: []Histogram{{Label: label, Receptor: r, Ligands: len(ligands), Hist: h}},
		Receptors:  []*odor.Receptor{r},
	}, nil
}

func makeEpitheliumSpec() Spec {
	return Spec{
		Name:        "make_epithelium",
		Description: "Samples a receptor population and probes it with one ligand at the space center.",
		Params: []Param{
			{Name: "num_receptors", Doc: "population size", Default: func(cfg *config.Config) any { return cfg.Epithelium.NumReceptors }},
			{Name: "dims", Doc: "odor space dimensions", Default: func(cfg *config.Config) any { return cfg.Space.Dimensions }},
			{Name: "bounds", Doc: "per-dimension bound [min, max]", Default: func(cfg *config.Config) any {
				return []float64{cfg.Space.Bound.Min, cfg.Space.Bound.Max}
			}},
			{Name: "aff_sd", Doc: "uniform range of affinity SDs", Default: func(cfg *config.Config) any { return cfg.Epithelium.AffSD }},
			{Name: "eff_sd", Doc: "uniform range of efficacy SDs", Default: func(cfg *config.Config) any { return cfg.Epithelium.EffSD }},
		},
		Run: runMakeEpithelium,
	}
}

func runMakeEpithelium(ctx context.Context, env *Env, args Args) (Result, error) {
	n, err := args.Int("num_receptors")
	if err != nil {
		return Result{}, err
	}
	dims, err := args.Int("dims")
	if err != nil {
		return Result{}, err
	}
	bounds, err := args.Range("bounds")
	if err != nil {
		return Result{}, err
	}
	affSD, err := args.Range("aff_sd")
	if err != nil {
		return Result{}, err
	}
	effSD, err := args.Range("eff_sd")
	if err != nil {
		return Result{}, err
	}

	space, err := odor.UniformSpace(dims, odor.Bound{Min: bounds[0], Max: bounds[1]})
	if err != nil {
		return Result{}, err
	}
	epi, err := epithelium.Create(env.RNG, space, epithelium.Options{
		NumReceptors: n,
		AffSD:        affSD,
		EffSD:        effSD,
		CenterMeans:  env.Config.Epithelium.CenterMeans,
	})
	if err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	probe, err := odor.NewLigand(0, space.Center(), env.Config.Model.OdorConcentration)
	if err != nil {
		return Result{}, err
	}
	responses, err := epi.Activate(env.Model, odor.Single(probe))
	if err != nil {
		return Result{}, err
	}
	env.logger().Info("epithelium probed",
		"receptors", epi.Len(),
		"space", space.String(),
		"mean_activation", epi.MeanActivation(),
	)

	return Result{
		Function:  "make_epithelium",
		Receptors: epi.Receptors(),
		Probe:     responses,
	}, nil
}

package experiment

import (
	"log/slog"
	"math/rand/v2"

	"github.com/pthm-cable/odorsampling/config"
	"github.com/pthm-cable/odorsampling/odor"
	"github.com/pthm-cable/odorsampling/storage"
	"github.com/pthm-cable/odorsampling/telemetry"
)

// Env is what a procedure may use while it runs.
type Env struct {
	Config *config.Config
	Model  odor.Model
	RNG    *rand.Rand
	Seed   uint64

	Output   *telemetry.OutputManager // nil disables CSV output
	Store    storage.Store
	Snapshot *telemetry.Snapshot // nil disables receptor capture
	Logger   *slog.Logger
}

func (e *Env) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

// Quantities a curve can be summarized by.
const (
	QuantityAffinity   = "affinity"
	QuantityEfficacy   = "efficacy"
	QuantityOccupancy  = "occupancy"
	QuantityActivation = "activation"
)

// Curve is a receptor's response along a 1-D sweep of ligand locations.
type Curve struct {
	Label      string
	Quantities []string // summarized quantities, in order
	Locations  []float64
	Responses  []odor.Response
}

// Values extracts one quantity along the curve.
func (c Curve) Values(quantity string) []float64 {
	out := make([]float64, len(c.Responses))
	for i, r := range c.Responses {
		switch quantity {
		case QuantityAffinity:
			out[i] = r.Affinity
		case QuantityEfficacy:
			out[i] = r.Efficacy
		case QuantityOccupancy:
			out[i] = r.Occupancy
		case QuantityActivation:
			out[i] = r.Activation
		}
	}
	return out
}

// Histogram is one receptor's activation histogram over a ligand grid.
type Histogram struct {
	Label    string
	Receptor *odor.Receptor
	Ligands  int
	Hist     *odor.Histogram
}

// Result is what one procedure call produced.
type Result struct {
	Function   string
	Curves     []Curve
	Histograms []Histogram
	Receptors  []*odor.Receptor
	Probe      []odor.SceneResponse
}

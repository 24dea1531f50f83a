// Package epithelium holds a receptor population in an ECS world and runs the
// activation system over it.
package epithelium

import (
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pthm-cable/odorsampling/components"
	"github.com/pthm-cable/odorsampling/odor"
)

// Options controls stochastic receptor construction.
type Options struct {
	NumReceptors int
	AffSD        [2]float64 // Uniform range for each affinity SD
	EffSD        [2]float64 // Uniform range for each efficacy SD
	CenterMeans  bool       // All means at the space center instead of uniform over the space
}

// Epithelium is a population of receptors sharing one odor space.
type Epithelium struct {
	world *ecs.World
	space odor.Space

	mapper   *ecs.Map3[components.Identity, components.Tuning, components.Response]
	filter   *ecs.Filter3[components.Identity, components.Tuning, components.Response]
	tuneMap  *ecs.Map1[components.Tuning]
	respMap  *ecs.Map1[components.Response]
	entities []ecs.Entity
}

// New creates an empty epithelium over space.
func New(space odor.Space) *Epithelium {
	world := ecs.NewWorld()
	return &Epithelium{
		world: world,
		space: space,
		mapper: ecs.NewMap3[
			components.Identity,
			components.Tuning,
			components.Response,
		](world),
		filter: ecs.NewFilter3[
			components.Identity,
			components.Tuning,
			components.Response,
		](world),
		tuneMap: ecs.NewMap1[components.Tuning](world),
		respMap: ecs.NewMap1[components.Response](world),
	}
}

// Create samples opts.NumReceptors receptors from rng. Means are uniform over
// each dimension's bound, SDs uniform over the configured ranges.
func Create(rng *rand.Rand, space odor.Space, opts Options) (*Epithelium, error) {
	if opts.NumReceptors <= 0 {
		return nil, fmt.Errorf("epithelium: receptor count must be positive, got %d", opts.NumReceptors)
	}
	for _, r := range [][2]float64{opts.AffSD, opts.EffSD} {
		if !(r[0] > 0) || r[1] < r[0] {
			return nil, fmt.Errorf("epithelium: %w: sd range %v", odor.ErrNonPositiveSD, r)
		}
	}

	affDist := distuv.Uniform{Min: opts.AffSD[0], Max: opts.AffSD[1], Src: rng}
	effDist := distuv.Uniform{Min: opts.EffSD[0], Max: opts.EffSD[1], Src: rng}
	meanDists := make([]distuv.Uniform, space.Dim())
	for d := range meanDists {
		b := space.Bound(d)
		meanDists[d] = distuv.Uniform{Min: b.Min, Max: b.Max, Src: rng}
	}

	e := New(space)
	for id := 0; id < opts.NumReceptors; id++ {
		mean := space.Center()
		if !opts.CenterMeans {
			for d := range mean {
				mean[d] = meanDists[d].Rand()
			}
		}
		sdA := make([]float64, space.Dim())
		sdE := make([]float64, space.Dim())
		for d := range sdA {
			sdA[d] = affDist.Rand()
			sdE[d] = effDist.Rand()
		}

		r, err := odor.NewReceptorIn(space, id, mean, sdA, sdE)
		if err != nil {
			return nil, err
		}
		if _, err := e.Add(r); err != nil {
			return nil, err
		}
	}

	slog.Debug("epithelium created",
		"receptors", opts.NumReceptors,
		"space", space.String(),
		"aff_sd", opts.AffSD,
		"eff_sd", opts.EffSD,
	)
	return e, nil
}

// Add inserts a receptor. Its mean must match the epithelium's space.
func (e *Epithelium) Add(r *odor.Receptor) (ecs.Entity, error) {
	if err := e.space.CheckPoint(r.Mean()); err != nil {
		return ecs.Entity{}, fmt.Errorf("receptor %d: %w", r.ID, err)
	}
	id := components.Identity{ID: r.ID, Index: len(e.entities)}
	tuning := components.Tuning{Receptor: r}
	resp := components.Response{}
	entity := e.mapper.NewEntity(&id, &tuning, &resp)
	e.entities = append(e.entities, entity)
	return entity, nil
}

// Space returns the epithelium's odor space.
func (e *Epithelium) Space() odor.Space {
	return e.space
}

// Len returns the number of receptors.
func (e *Epithelium) Len() int {
	return len(e.entities)
}

// Receptors returns the receptors in insertion order.
func (e *Epithelium) Receptors() []*odor.Receptor {
	out := make([]*odor.Receptor, len(e.entities))
	for i, entity := range e.entities {
		out[i] = e.tuneMap.Get(entity).Receptor
	}
	return out
}

// Responses returns each receptor's last response in insertion order.
func (e *Epithelium) Responses() []components.Response {
	out := make([]components.Response, len(e.entities))
	for i, entity := range e.entities {
		out[i] = *e.respMap.Get(entity)
	}
	return out
}

// Activate presents scene to every receptor, stores each receptor's occupancy
// and activation on its Response component, and returns the per-receptor
// results in insertion order.
func (e *Epithelium) Activate(m odor.Model, scene odor.Odorscene) ([]odor.SceneResponse, error) {
	out := make([]odor.SceneResponse, len(e.entities))

	var firstErr error
	query := e.filter.Query()
	for query.Next() {
		id, tuning, resp := query.Get()
		if firstErr != nil {
			continue
		}
		sr, err := m.Activate(tuning.Receptor, scene)
		if err != nil {
			firstErr = err
			continue
		}
		resp.SceneID = scene.ID
		resp.Occupancy = sr.Occupancy
		resp.Activation = sr.Activation
		resp.Evaluated = true
		out[id.Index] = sr
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// MeanActivation returns the mean of the stored receptor activations.
func (e *Epithelium) MeanActivation() float64 {
	if len(e.entities) == 0 {
		return 0
	}
	sum := 0.0
	query := e.filter.Query()
	for query.Next() {
		_, _, resp := query.Get()
		sum += resp.Activation
	}
	return sum / float64(len(e.entities))
}

package odor

import (
	"fmt"
	"log/slog"
	"math"
)

// Response holds the derived quantities of one ligand at one receptor.
type Response struct {
	LigandID   int
	Affinity   float64
	Efficacy   float64
	Occupancy  float64
	Activation float64
}

// SceneResponse is a receptor's combined response to an odorscene.
type SceneResponse struct {
	SceneID    int
	ReceptorID int
	Occupancy  float64 // sum of ligand occupancies, clamped to [0,1]
	Activation float64 // sum of occupancy*efficacy, clamped to [0,1]
	Ligands    []Response
}

// LogValue implements slog.LogValuer.
func (s SceneResponse) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("scene", s.SceneID),
		slog.Int("receptor", s.ReceptorID),
		slog.Int("ligands", len(s.Ligands)),
		slog.Float64("occupancy", s.Occupancy),
		slog.Float64("activation", s.Activation),
	)
}

// Evaluate computes the response of r to a single ligand presented alone.
func (m Model) Evaluate(r *Receptor, l Ligand) (Response, error) {
	s, err := m.Activate(r, Single(l))
	if err != nil {
		return Response{}, err
	}
	return s.Ligands[0], nil
}

// Activate computes the response of r to every ligand of the scene presented
// together. Nothing passed in is modified; callers store the returned values
// wherever they need them.
func (m Model) Activate(r *Receptor, scene Odorscene) (SceneResponse, error) {
	if len(scene.Ligands) == 0 {
		return SceneResponse{}, fmt.Errorf("odorscene %d: no ligands", scene.ID)
	}
	if len(scene.Ligands) > 1 && m.Competition == nil {
		return SceneResponse{}, fmt.Errorf("odorscene %d: %w", scene.ID, ErrNoCompetitionRule)
	}

	out := SceneResponse{
		SceneID:    scene.ID,
		ReceptorID: r.ID,
		Ligands:    make([]Response, len(scene.Ligands)),
	}
	bindings := make([]Binding, len(scene.Ligands))
	for i, l := range scene.Ligands {
		if err := checkLoc(r, l.Loc); err != nil {
			return SceneResponse{}, fmt.Errorf("odorscene %d ligand %d: %w", scene.ID, l.ID, err)
		}
		if !(l.Conc > 0) {
			return SceneResponse{}, fmt.Errorf("odorscene %d ligand %d: %w: %g", scene.ID, l.ID, ErrNonPositiveConcentration, l.Conc)
		}
		kd := m.affinityFromDensity(r.aff.Normalized(l.Loc))
		bindings[i] = Binding{Kd: kd, Conc: l.Conc}
		out.Ligands[i] = Response{
			LigandID: l.ID,
			Affinity: kd,
			Efficacy: m.efficacy(r, l.Loc),
		}
	}

	rule := m.Competition
	if rule == nil {
		rule = SumOfRatios
	}
	for i := range out.Ligands {
		resp := &out.Ligands[i]
		resp.Occupancy = rule(bindings, i, m.HillCoefficient)
		resp.Activation = resp.Occupancy * resp.Efficacy
		out.Occupancy += resp.Occupancy
		out.Activation += resp.Activation
	}
	out.Occupancy = clamp01(out.Occupancy)
	out.Activation = clamp01(out.Activation)
	return out, nil
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return math.Min(v, 1)
}

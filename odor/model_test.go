package odor

import (
	"errors"
	"math"
	"testing"
)

func mustReceptor(t *testing.T, id int, mean, sdA, sdE []float64) *Receptor {
	t.Helper()
	r, err := NewReceptor(id, mean, sdA, sdE)
	if err != nil {
		t.Fatalf("NewReceptor: %v", err)
	}
	return r
}

func TestAffinityAtMeanIsPeak(t *testing.T) {
	m := DefaultModel()
	receptors := []*Receptor{
		mustReceptor(t, 1, []float64{2}, []float64{1}, []float64{1}),
		mustReceptor(t, 2, []float64{0.5, 3.2}, []float64{0.5, 1.5}, []float64{0.05, 1}),
		mustReceptor(t, 3, []float64{1, 1, 1}, []float64{2}, []float64{0.1}),
	}
	want := math.Pow(10, m.PeakAffinity)
	for _, r := range receptors {
		got, err := m.Affinity(r, r.Mean())
		if err != nil {
			t.Fatalf("Affinity: %v", err)
		}
		if math.Abs(got-want)/want > 1e-12 {
			t.Errorf("receptor %d: affinity at mean = %g, want %g", r.ID, got, want)
		}
		eff, err := m.Efficacy(r, r.Mean())
		if err != nil {
			t.Fatalf("Efficacy: %v", err)
		}
		if math.Abs(eff-1) > 1e-12 {
			t.Errorf("receptor %d: efficacy at mean = %g, want 1", r.ID, eff)
		}
	}
}

func TestAffinityUnderflowYieldsMinimum(t *testing.T) {
	m := DefaultModel()
	r := mustReceptor(t, 1, []float64{0}, []float64{0.01}, []float64{1})

	got, err := m.Affinity(r, []float64{1000})
	if err != nil {
		t.Fatalf("Affinity: %v", err)
	}
	want := math.Pow(10, m.MinAffinity)
	if math.Abs(got-want)/want > 1e-12 {
		t.Errorf("far affinity = %g, want %g", got, want)
	}
}

func TestFixedEfficacy(t *testing.T) {
	r := mustReceptor(t, 1, []float64{2}, []float64{1}, []float64{0.05})
	m := DefaultModel()

	far, err := m.Efficacy(r, []float64{0})
	if err != nil {
		t.Fatalf("Efficacy: %v", err)
	}
	if far > 1e-100 {
		t.Fatalf("unfixed efficacy far from mean = %g, expected near zero", far)
	}

	m.FixedEfficacy = true
	for _, x := range []float64{0, 0.5, 1.9, 2, 3.9} {
		eff, err := m.Efficacy(r, []float64{x})
		if err != nil {
			t.Fatalf("Efficacy: %v", err)
		}
		if eff != 1 {
			t.Errorf("fixed efficacy at %g = %g, want 1", x, eff)
		}
	}
}

func TestOneDimensionalSweep(t *testing.T) {
	space, err := NewSpace([]Bound{{Min: 0, Max: 4}})
	if err != nil {
		t.Fatal(err)
	}
	r, err := NewReceptorIn(space, 1, []float64{2}, []float64{1}, []float64{1})
	if err != nil {
		t.Fatal(err)
	}
	ligands, err := Grid(space, 0.1, 1e-5)
	if err != nil {
		t.Fatal(err)
	}
	if len(ligands) != 40 {
		t.Fatalf("grid has %d ligands, want 40", len(ligands))
	}

	m := DefaultModel()
	aff := make([]float64, len(ligands))
	occ := make([]float64, len(ligands))
	for i, l := range ligands {
		resp, err := m.Evaluate(r, l)
		if err != nil {
			t.Fatal(err)
		}
		aff[i] = resp.Affinity
		occ[i] = resp.Occupancy
	}

	const center = 20
	if math.Abs(ligands[center].Loc[0]-2) > 1e-12 {
		t.Fatalf("ligand %d at %g, want 2", center, ligands[center].Loc[0])
	}
	for k := 1; k < center; k++ {
		lo, hi := aff[center-k], aff[center+k]
		if math.Abs(lo-hi)/lo > 1e-9 {
			t.Errorf("affinity not symmetric at offset %d: %g vs %g", k, lo, hi)
		}
	}
	for i := center; i+1 < len(occ); i++ {
		if !(occ[i] > occ[i+1]) {
			t.Errorf("occupancy not decreasing right of mean at %d: %g <= %g", i, occ[i], occ[i+1])
		}
	}
	for i := center; i-1 >= 0; i-- {
		if !(occ[i] > occ[i-1]) {
			t.Errorf("occupancy not decreasing left of mean at %d: %g <= %g", i, occ[i], occ[i-1])
		}
	}
}

func TestActivationInUnitInterval(t *testing.T) {
	space, _ := UniformSpace(2, Bound{Min: 0, Max: 4})
	r := mustReceptor(t, 1, []float64{1.3, 2.7}, []float64{0.5, 1.5}, []float64{0.3, 0.8})
	ligands, err := Grid(space, 0.25, 1e-5)
	if err != nil {
		t.Fatal(err)
	}
	for _, hill := range []float64{0.5, 1, 2, 4} {
		m := DefaultModel()
		m.HillCoefficient = hill
		for _, l := range ligands {
			resp, err := m.Evaluate(r, l)
			if err != nil {
				t.Fatal(err)
			}
			if resp.Activation < 0 || resp.Activation > 1 || math.IsNaN(resp.Activation) {
				t.Fatalf("hill %g ligand %v: activation %g outside [0,1]", hill, l.Loc, resp.Activation)
			}
			if math.Abs(resp.Activation-resp.Occupancy*resp.Efficacy) > 1e-15 {
				t.Fatalf("activation %g != occupancy*efficacy %g", resp.Activation, resp.Occupancy*resp.Efficacy)
			}
		}
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	m := DefaultModel()
	r := mustReceptor(t, 4, []float64{1, 3}, []float64{0.7}, []float64{0.4, 0.9})
	l, err := NewLigand(9, []float64{1.4, 2.2}, 1e-5)
	if err != nil {
		t.Fatal(err)
	}
	a, err := m.Evaluate(r, l)
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.Evaluate(r, l)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("evaluations differ: %+v vs %+v", a, b)
	}
	if l.Loc[0] != 1.4 || l.Loc[1] != 2.2 || l.Conc != 1e-5 {
		t.Errorf("ligand modified: %+v", l)
	}
}

func TestCompetitiveScene(t *testing.T) {
	m := DefaultModel()
	r := mustReceptor(t, 1, []float64{2}, []float64{1}, []float64{1})
	l1, _ := NewLigand(1, []float64{2}, 1e-5)
	l2, _ := NewLigand(2, []float64{2}, 1e-5)

	alone, err := m.Evaluate(r, l1)
	if err != nil {
		t.Fatal(err)
	}
	scene, err := NewOdorscene(7, l1, l2)
	if err != nil {
		t.Fatal(err)
	}
	both, err := m.Activate(r, scene)
	if err != nil {
		t.Fatal(err)
	}

	ratio := 1e-5 / math.Pow(10, m.PeakAffinity)
	wantEach := ratio / (1 + 2*ratio)
	for _, resp := range both.Ligands {
		if math.Abs(resp.Occupancy-wantEach) > 1e-12 {
			t.Errorf("ligand %d occupancy = %g, want %g", resp.LigandID, resp.Occupancy, wantEach)
		}
		if resp.Occupancy >= alone.Occupancy {
			t.Errorf("competition did not lower occupancy: %g >= %g", resp.Occupancy, alone.Occupancy)
		}
	}
	if both.Occupancy > 1 || both.Activation > 1 {
		t.Errorf("scene totals exceed 1: %+v", both)
	}

	m.Competition = nil
	if _, err := m.Activate(r, scene); !errors.Is(err, ErrNoCompetitionRule) {
		t.Errorf("nil competition rule: err = %v, want ErrNoCompetitionRule", err)
	}
	if _, err := m.Evaluate(r, l1); err != nil {
		t.Errorf("single ligand without rule: %v", err)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		fn   func() error
		want error
	}{
		{"empty space", func() error { _, err := NewSpace(nil); return err }, ErrInvalidSpace},
		{"inverted bound", func() error { _, err := NewSpace([]Bound{{Min: 4, Max: 0}}); return err }, ErrInvalidSpace},
		{"zero sd", func() error { _, err := NewReceptor(1, []float64{0}, []float64{0}, []float64{1}); return err }, ErrNonPositiveSD},
		{"negative sd", func() error { _, err := NewReceptor(1, []float64{0}, []float64{1}, []float64{-1}); return err }, ErrNonPositiveSD},
		{"sd length", func() error { _, err := NewReceptor(1, []float64{0, 0, 0}, []float64{1, 1}, []float64{1}); return err }, ErrDimensionMismatch},
		{"mean vs space", func() error {
			s, _ := UniformSpace(2, Bound{Min: 0, Max: 4})
			_, err := NewReceptorIn(s, 1, []float64{1}, []float64{1}, []float64{1})
			return err
		}, ErrDimensionMismatch},
		{"zero concentration", func() error { _, err := NewLigand(1, []float64{0}, 0); return err }, ErrNonPositiveConcentration},
		{"nan ligand location", func() error { _, err := NewLigand(1, []float64{math.NaN()}, 1e-5); return err }, ErrInvalidSpace},
		{"infinite ligand location", func() error { _, err := NewLigand(1, []float64{0, math.Inf(1)}, 1e-5); return err }, ErrInvalidSpace},
		{"nan receptor mean", func() error {
			_, err := NewReceptor(1, []float64{math.NaN()}, []float64{1}, []float64{1})
			return err
		}, ErrInvalidSpace},
		{"nan point in space", func() error {
			s, _ := UniformSpace(1, Bound{Min: 0, Max: 4})
			return s.CheckPoint([]float64{math.NaN()})
		}, ErrInvalidSpace},
		{"nan location after construction", func() error {
			r, _ := NewReceptor(1, []float64{2}, []float64{1}, []float64{1})
			l, _ := NewLigand(1, []float64{2}, 1e-5)
			l.Loc[0] = math.NaN()
			_, err := DefaultModel().Evaluate(r, l)
			return err
		}, ErrInvalidSpace},
		{"location vs receptor", func() error {
			r, _ := NewReceptor(1, []float64{0, 0}, []float64{1}, []float64{1})
			_, err := DefaultModel().Affinity(r, []float64{1})
			return err
		}, ErrDimensionMismatch},
		{"peak above min", func() error { return Model{PeakAffinity: -2, MinAffinity: -8, HillCoefficient: 1}.Validate() }, ErrInvalidModel},
		{"zero hill", func() error { return Model{PeakAffinity: -8, MinAffinity: -2}.Validate() }, ErrInvalidModel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if err := DefaultModel().Validate(); err != nil {
		t.Errorf("default model invalid: %v", err)
	}
}

func TestScalarSDBroadcast(t *testing.T) {
	r := mustReceptor(t, 1, []float64{0, 0, 0}, []float64{0.5}, []float64{2})
	if got := r.SDA(); len(got) != 3 || got[2] != 0.5 {
		t.Errorf("SDA = %v, want three copies of 0.5", got)
	}
	if got := r.SDE(); len(got) != 3 || got[1] != 2 {
		t.Errorf("SDE = %v, want three copies of 2", got)
	}
}

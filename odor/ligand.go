package odor

import (
	"fmt"
	"math"
)

// Ligand is an odorant molecule at a point in odor space.
type Ligand struct {
	ID   int
	Loc  []float64
	Conc float64
}

// NewLigand validates concentration and location and returns a Ligand that owns a copy of loc.
func NewLigand(id int, loc []float64, conc float64) (Ligand, error) {
	if !(conc > 0) || math.IsInf(conc, 0) {
		return Ligand{}, fmt.Errorf("ligand %d: %w: %g", id, ErrNonPositiveConcentration, conc)
	}
	if len(loc) == 0 {
		return Ligand{}, fmt.Errorf("ligand %d: %w: empty location", id, ErrDimensionMismatch)
	}
	if err := checkFinite(loc); err != nil {
		return Ligand{}, fmt.Errorf("ligand %d: %w", id, err)
	}
	return Ligand{ID: id, Loc: append([]float64(nil), loc...), Conc: conc}, nil
}

// Odorscene is a set of ligands presented to receptors at the same time.
type Odorscene struct {
	ID      int
	Ligands []Ligand
}

// NewOdorscene groups ligands into a scene. All ligands must share a dimensionality.
func NewOdorscene(id int, ligands ...Ligand) (Odorscene, error) {
	if len(ligands) == 0 {
		return Odorscene{}, fmt.Errorf("odorscene %d: no ligands", id)
	}
	dim := len(ligands[0].Loc)
	for _, l := range ligands[1:] {
		if len(l.Loc) != dim {
			return Odorscene{}, fmt.Errorf("odorscene %d: %w: ligand %d has %d dimensions, want %d",
				id, ErrDimensionMismatch, l.ID, len(l.Loc), dim)
		}
	}
	return Odorscene{ID: id, Ligands: append([]Ligand(nil), ligands...)}, nil
}

// Single wraps one ligand in a scene with the ligand's ID.
func Single(l Ligand) Odorscene {
	return Odorscene{ID: l.ID, Ligands: []Ligand{l}}
}

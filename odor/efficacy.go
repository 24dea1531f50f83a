package odor

import "fmt"

// Efficacy returns the normalized signaling strength in [0, 1] of a ligand at
// loc, 1 at the receptor mean. With FixedEfficacy set it is 1 everywhere.
func (m Model) Efficacy(r *Receptor, loc []float64) (float64, error) {
	if err := checkLoc(r, loc); err != nil {
		return 0, err
	}
	return m.efficacy(r, loc), nil
}

func (m Model) efficacy(r *Receptor, loc []float64) float64 {
	if m.FixedEfficacy {
		return 1
	}
	return r.eff.Normalized(loc)
}

func checkLoc(r *Receptor, loc []float64) error {
	if len(loc) != r.Dim() {
		return fmt.Errorf("receptor %d: %w: location has %d dimensions, receptor has %d",
			r.ID, ErrDimensionMismatch, len(loc), r.Dim())
	}
	if err := checkFinite(loc); err != nil {
		return fmt.Errorf("receptor %d: %w", r.ID, err)
	}
	return nil
}

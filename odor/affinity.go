package odor

import "math"

// Affinity returns the dissociation-constant-like binding affinity of a ligand
// at loc. The normalized affinity density is mapped logarithmically onto
// [10^PeakAffinity, 10^MinAffinity]; the mean yields exactly 10^PeakAffinity and
// a density that underflows to 0 yields 10^MinAffinity.
func (m Model) Affinity(r *Receptor, loc []float64) (float64, error) {
	if err := checkLoc(r, loc); err != nil {
		return 0, err
	}
	return m.affinityFromDensity(r.aff.Normalized(loc)), nil
}

func (m Model) affinityFromDensity(norm float64) float64 {
	return math.Pow(10, norm*(m.PeakAffinity-m.MinAffinity)+m.MinAffinity)
}

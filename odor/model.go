package odor

import (
	"fmt"
	"math"
)

// Default model constants. Affinities are base-10 exponents of a dissociation
// constant: the receptor mean binds at 10^PeakAffinity, distant ligands approach
// 10^MinAffinity.
const (
	DefaultPeakAffinity    = -8.0
	DefaultMinAffinity     = -2.0
	DefaultHillCoefficient = 1.0
	DefaultConcentration   = 1e-5
)

// Model holds the constants of the response computation.
type Model struct {
	PeakAffinity    float64
	MinAffinity     float64
	HillCoefficient float64

	// FixedEfficacy forces efficacy to 1 everywhere, isolating affinity and
	// occupancy effects.
	FixedEfficacy bool

	// Competition computes per-ligand occupancy when a scene carries more than
	// one ligand. Nil rejects multi-ligand scenes.
	Competition CompetitionRule
}

// DefaultModel returns the standard constants with the sum-of-ratios competition rule.
func DefaultModel() Model {
	return Model{
		PeakAffinity:    DefaultPeakAffinity,
		MinAffinity:     DefaultMinAffinity,
		HillCoefficient: DefaultHillCoefficient,
		Competition:     SumOfRatios,
	}
}

// Validate checks the constants. PeakAffinity must be the tighter (smaller)
// dissociation exponent.
func (m Model) Validate() error {
	checks := []struct {
		name string
		v    float64
	}{
		{"peak affinity", m.PeakAffinity},
		{"min affinity", m.MinAffinity},
		{"hill coefficient", m.HillCoefficient},
	}
	for _, c := range checks {
		if math.IsNaN(c.v) || math.IsInf(c.v, 0) {
			return fmt.Errorf("%w: %s is %g", ErrInvalidModel, c.name, c.v)
		}
	}
	if m.PeakAffinity >= m.MinAffinity {
		return fmt.Errorf("%w: peak affinity %g must be below min affinity %g", ErrInvalidModel, m.PeakAffinity, m.MinAffinity)
	}
	if m.HillCoefficient <= 0 {
		return fmt.Errorf("%w: hill coefficient %g must be positive", ErrInvalidModel, m.HillCoefficient)
	}
	return nil
}

package odor

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// Tuning is one Gaussian tuning curve of a receptor: a multivariate normal
// centered on the receptor mean with diagonal covariance.
type Tuning struct {
	sd     []float64
	normal *distmv.Normal
	// logPeak is the log density at the mean; the normalized density of any
	// point is exp(LogProb(x) - logPeak).
	logPeak float64
}

func newTuning(mean, sd []float64) (Tuning, error) {
	variances := make([]float64, len(sd))
	for i, s := range sd {
		variances[i] = s * s
	}
	cov := mat.NewDiagDense(len(variances), variances)
	normal, ok := distmv.NewNormal(mean, cov, nil)
	if !ok {
		return Tuning{}, fmt.Errorf("%w: covariance %v is not positive definite", ErrNonPositiveSD, sd)
	}
	return Tuning{
		sd:      sd,
		normal:  normal,
		logPeak: normal.LogProb(mean),
	}, nil
}

// Normalized returns the density at loc divided by the peak density, a value
// in [0, 1] that is exactly 1 at the mean. Far from the mean it underflows to 0.
func (t Tuning) Normalized(loc []float64) float64 {
	d := t.normal.LogProb(loc) - t.logPeak
	if d >= 0 {
		return 1
	}
	return math.Exp(d)
}

// SD returns a copy of the per-dimension standard deviations.
func (t Tuning) SD() []float64 {
	out := make([]float64, len(t.sd))
	copy(out, t.sd)
	return out
}

// Receptor is an olfactory receptor with a location in odor space and separate
// Gaussian tuning for binding affinity and signaling efficacy.
type Receptor struct {
	ID   int
	mean []float64
	aff  Tuning
	eff  Tuning
}

// NewReceptor validates parameters and precomputes both covariance models.
// sdA and sdE may hold one value per dimension or a single value shared by all
// dimensions.
func NewReceptor(id int, mean, sdA, sdE []float64) (*Receptor, error) {
	if len(mean) == 0 {
		return nil, fmt.Errorf("receptor %d: %w: empty mean", id, ErrDimensionMismatch)
	}
	if err := checkFinite(mean); err != nil {
		return nil, fmt.Errorf("receptor %d mean: %w", id, err)
	}
	a, err := expandSD(sdA, len(mean))
	if err != nil {
		return nil, fmt.Errorf("receptor %d affinity sd: %w", id, err)
	}
	e, err := expandSD(sdE, len(mean))
	if err != nil {
		return nil, fmt.Errorf("receptor %d efficacy sd: %w", id, err)
	}

	m := make([]float64, len(mean))
	copy(m, mean)

	r := &Receptor{ID: id, mean: m}
	if r.aff, err = newTuning(m, a); err != nil {
		return nil, fmt.Errorf("receptor %d affinity: %w", id, err)
	}
	if r.eff, err = newTuning(m, e); err != nil {
		return nil, fmt.Errorf("receptor %d efficacy: %w", id, err)
	}
	return r, nil
}

// NewReceptorIn is NewReceptor plus a check that the mean matches the space.
func NewReceptorIn(s Space, id int, mean, sdA, sdE []float64) (*Receptor, error) {
	if err := s.CheckPoint(mean); err != nil {
		return nil, fmt.Errorf("receptor %d mean: %w", id, err)
	}
	return NewReceptor(id, mean, sdA, sdE)
}

func expandSD(sd []float64, dim int) ([]float64, error) {
	switch len(sd) {
	case 1:
		out := make([]float64, dim)
		for i := range out {
			out[i] = sd[0]
		}
		sd = out
	case dim:
		sd = append([]float64(nil), sd...)
	default:
		return nil, fmt.Errorf("%w: %d values for %d dimensions", ErrDimensionMismatch, len(sd), dim)
	}
	for i, s := range sd {
		if !(s > 0) || math.IsInf(s, 0) {
			return nil, fmt.Errorf("%w: dimension %d has %g", ErrNonPositiveSD, i, s)
		}
	}
	return sd, nil
}

// Dim returns the dimensionality of the receptor.
func (r *Receptor) Dim() int {
	return len(r.mean)
}

// Mean returns a copy of the receptor location.
func (r *Receptor) Mean() []float64 {
	out := make([]float64, len(r.mean))
	copy(out, r.mean)
	return out
}

// SDA returns the affinity standard deviations.
func (r *Receptor) SDA() []float64 { return r.aff.SD() }

// SDE returns the efficacy standard deviations.
func (r *Receptor) SDE() []float64 { return r.eff.SD() }

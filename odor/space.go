// Package odor implements the receptor response model: Gaussian affinity and
// efficacy tuning, Hill-equation occupancy, and activation aggregation over
// ligands placed in a continuous odor space.
package odor

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidSpace             = errors.New("invalid odor space")
	ErrDimensionMismatch        = errors.New("dimension mismatch")
	ErrNonPositiveSD            = errors.New("standard deviation must be positive")
	ErrNonPositiveConcentration = errors.New("concentration must be positive")
	ErrInvalidModel             = errors.New("invalid model")
	ErrNoCompetitionRule        = errors.New("multiple ligands require a competition rule")
	ErrGridTooLarge             = errors.New("grid too large")
)

// Bound is the half-open extent [Min, Max) of one odor-space dimension.
type Bound struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Width returns Max - Min.
func (b Bound) Width() float64 {
	return b.Max - b.Min
}

// Space is the rectangular region receptor means and ligand locations live in.
// Its dimensionality is fixed once constructed.
type Space struct {
	bounds []Bound
}

// NewSpace validates bounds and returns a Space. Every dimension needs finite
// Min < Max.
func NewSpace(bounds []Bound) (Space, error) {
	if len(bounds) == 0 {
		return Space{}, fmt.Errorf("%w: no dimensions", ErrInvalidSpace)
	}
	for i, b := range bounds {
		if math.IsNaN(b.Min) || math.IsNaN(b.Max) || math.IsInf(b.Min, 0) || math.IsInf(b.Max, 0) {
			return Space{}, fmt.Errorf("%w: dimension %d has non-finite bound", ErrInvalidSpace, i)
		}
		if b.Min >= b.Max {
			return Space{}, fmt.Errorf("%w: dimension %d has min %g >= max %g", ErrInvalidSpace, i, b.Min, b.Max)
		}
	}
	owned := make([]Bound, len(bounds))
	copy(owned, bounds)
	return Space{bounds: owned}, nil
}

// UniformSpace builds a dim-dimensional space with the same bound on every axis.
func UniformSpace(dim int, b Bound) (Space, error) {
	if dim <= 0 {
		return Space{}, fmt.Errorf("%w: dimension count %d", ErrInvalidSpace, dim)
	}
	bounds := make([]Bound, dim)
	for i := range bounds {
		bounds[i] = b
	}
	return NewSpace(bounds)
}

// Dim returns the number of dimensions.
func (s Space) Dim() int {
	return len(s.bounds)
}

// Bound returns the extent of dimension i.
func (s Space) Bound(i int) Bound {
	return s.bounds[i]
}

// Center returns the midpoint of the space.
func (s Space) Center() []float64 {
	c := make([]float64, len(s.bounds))
	for i, b := range s.bounds {
		c[i] = b.Min + b.Width()/2
	}
	return c
}

// Contains reports whether loc lies inside the half-open region.
func (s Space) Contains(loc []float64) bool {
	if len(loc) != len(s.bounds) {
		return false
	}
	for i, b := range s.bounds {
		if loc[i] < b.Min || loc[i] >= b.Max {
			return false
		}
	}
	return true
}

// CheckPoint returns an error if loc does not have the space's dimensionality
// or has a coordinate that is not finite.
func (s Space) CheckPoint(loc []float64) error {
	if len(loc) != len(s.bounds) {
		return fmt.Errorf("%w: point has %d dimensions, space has %d", ErrDimensionMismatch, len(loc), len(s.bounds))
	}
	return checkFinite(loc)
}

func checkFinite(loc []float64) error {
	for i, x := range loc {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: coordinate %d is %g", ErrInvalidSpace, i, x)
		}
	}
	return nil
}

// String formats the space as "(min,max)x(min,max)...".
func (s Space) String() string {
	out := ""
	for i, b := range s.bounds {
		if i > 0 {
			out += "x"
		}
		out += fmt.Sprintf("(%g,%g)", b.Min, b.Max)
	}
	return out
}

package odor

import (
	"fmt"
	"math"
)

// MaxGridPoints bounds the number of ligands Grid will place.
const MaxGridPoints = 1 << 24

// gridTolerance keeps floating error in (max-min)/step from adding a point at max.
const gridTolerance = 1e-9

// Axis returns the points min + k*step that lie below max for one bound.
func Axis(b Bound, step float64) ([]float64, error) {
	if !(step > 0) || math.IsInf(step, 0) {
		return nil, fmt.Errorf("grid step must be positive, got %g", step)
	}
	count := math.Ceil(b.Width()/step - gridTolerance)
	if count > MaxGridPoints {
		return nil, fmt.Errorf("%w: %g points on one axis at step %g", ErrGridTooLarge, count, step)
	}
	n := int(count)
	pts := make([]float64, n)
	for k := range pts {
		pts[k] = b.Min + float64(k)*step
	}
	return pts, nil
}

// Grid places one ligand at every lattice point of the space, spaced step apart
// on each axis, all at concentration conc. Points are ordered with the first
// dimension varying slowest; IDs count up from 0.
func Grid(s Space, step, conc float64) ([]Ligand, error) {
	if s.Dim() == 0 {
		return nil, fmt.Errorf("%w: no dimensions", ErrInvalidSpace)
	}
	axes := make([][]float64, s.Dim())
	total := 1
	for d := range axes {
		pts, err := Axis(s.Bound(d), step)
		if err != nil {
			return nil, err
		}
		if len(pts) == 0 {
			return nil, fmt.Errorf("%w: dimension %d has no points at step %g", ErrInvalidSpace, d, step)
		}
		if total > MaxGridPoints/len(pts) {
			return nil, fmt.Errorf("%w: more than %d points at step %g in %d dimensions", ErrGridTooLarge, MaxGridPoints, step, s.Dim())
		}
		axes[d] = pts
		total *= len(pts)
	}

	ligands := make([]Ligand, 0, total)
	idx := make([]int, len(axes))
	for id := 0; id < total; id++ {
		loc := make([]float64, len(axes))
		for d := range axes {
			loc[d] = axes[d][idx[d]]
		}
		l, err := NewLigand(id, loc, conc)
		if err != nil {
			return nil, err
		}
		ligands = append(ligands, l)

		// Odometer increment, last dimension fastest.
		for d := len(idx) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < len(axes[d]) {
				break
			}
			idx[d] = 0
		}
	}
	return ligands, nil
}

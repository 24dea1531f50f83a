package odor

import (
	"fmt"
	"math"
)

// Binding is one ligand's dissociation constant and concentration at a receptor.
type Binding struct {
	Kd   float64
	Conc float64
}

// ratio returns C/Kd with the boundary cases resolved: no ligand binds nothing,
// a zero Kd binds infinitely tightly.
func (b Binding) ratio() float64 {
	switch {
	case !(b.Conc > 0):
		return 0
	case !(b.Kd > 0):
		return math.Inf(1)
	}
	return b.Conc / b.Kd
}

// CompetitionRule returns the occupancy of bindings[i] when every binding in
// the slice competes for the same receptor, for Hill coefficient n.
type CompetitionRule func(bindings []Binding, i int, n float64) float64

// SumOfRatios is the competitive Hill equation
//
//	occ_i = 1 / (1 + ((Kd_i/C_i) * (1 + df - C_i/Kd_i))^n),  df = sum_j C_j/Kd_j
//
// evaluated as ((1 + sum_{j!=i} C_j/Kd_j) / (C_i/Kd_i))^n to avoid cancellation.
// With one binding it reduces to 1 / (1 + (Kd/C)^n).
func SumOfRatios(bindings []Binding, i int, n float64) float64 {
	target := bindings[i].ratio()
	if target == 0 {
		return 0
	}
	others := 0.0
	for j, b := range bindings {
		if j != i {
			others += b.ratio()
		}
	}
	if math.IsInf(target, 1) {
		if math.IsInf(others, 1) {
			return tightShare(bindings, i)
		}
		return 1
	}
	if math.IsInf(others, 1) {
		return 0
	}
	x := (1 + others) / target
	if math.IsInf(x, 1) {
		return 0
	}
	return 1 / (1 + math.Pow(x, n))
}

// tightShare splits the receptor among the bindings whose ratio is infinite
// in proportion to their concentrations, the limit of the finite formula as
// their Kd values shrink together.
func tightShare(bindings []Binding, i int) float64 {
	total := 0.0
	for _, b := range bindings {
		if math.IsInf(b.ratio(), 1) {
			total += b.Conc
		}
	}
	if math.IsInf(total, 1) {
		n := 0.0
		for _, b := range bindings {
			if math.IsInf(b.ratio(), 1) {
				n++
			}
		}
		return 1 / n
	}
	return bindings[i].Conc / total
}

// Occupancy is the fractional occupancy of a receptor by a ligand with
// dissociation constant kd at concentration conc, optionally competing with
// other ligands. conc <= 0 gives 0 and kd <= 0 gives 1; neither is an error.
// A Hill coefficient that is not positive and finite, or a NaN kd or conc,
// returns ErrInvalidModel.
func Occupancy(kd, conc, n float64, competing ...Binding) (float64, error) {
	if !(n > 0) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("%w: hill coefficient %g", ErrInvalidModel, n)
	}
	bindings := make([]Binding, 0, 1+len(competing))
	bindings = append(bindings, Binding{Kd: kd, Conc: conc})
	bindings = append(bindings, competing...)
	for i, b := range bindings {
		if math.IsNaN(b.Kd) || math.IsNaN(b.Conc) {
			return 0, fmt.Errorf("%w: binding %d has kd %g, conc %g", ErrInvalidModel, i, b.Kd, b.Conc)
		}
	}
	return SumOfRatios(bindings, 0, n), nil
}

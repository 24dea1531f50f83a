package odor

import (
	"errors"
	"math"
	"testing"
)

func mustOccupancy(t *testing.T, kd, conc, n float64, competing ...Binding) float64 {
	t.Helper()
	got, err := Occupancy(kd, conc, n, competing...)
	if err != nil {
		t.Fatalf("Occupancy(%g, %g, %g): %v", kd, conc, n, err)
	}
	return got
}

func TestOccupancyBoundaries(t *testing.T) {
	tests := []struct {
		name     string
		kd, conc float64
		want     float64
	}{
		{"zero concentration", 1e-8, 0, 0},
		{"negative concentration", 1e-8, -1, 0},
		{"zero affinity", 0, 1e-5, 1},
		{"both zero", 0, 0, 0},
		{"equal kd and conc", 1e-5, 1e-5, 0.5},
		{"tiny kd", 1e-300, 1, 1},
		{"tiny conc", 1, 1e-320, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustOccupancy(t, tt.kd, tt.conc, 1)
			if math.IsNaN(got) || math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Occupancy(%g, %g) = %g, want %g", tt.kd, tt.conc, got, tt.want)
			}
		})
	}
}

func TestOccupancyMonotonic(t *testing.T) {
	for _, n := range []float64{0.5, 1, 2} {
		prev := -1.0
		for e := -12.0; e <= 0; e += 0.25 {
			got := mustOccupancy(t, 1e-6, math.Pow(10, e), n)
			if got < prev {
				t.Errorf("n=%g: occupancy decreased with concentration at 1e%g: %g < %g", n, e, got, prev)
			}
			prev = got
		}

		prev = -1.0
		for e := 0.0; e >= -12; e -= 0.25 {
			got := mustOccupancy(t, math.Pow(10, e), 1e-5, n)
			if got < prev {
				t.Errorf("n=%g: occupancy decreased as kd tightened at 1e%g: %g < %g", n, e, got, prev)
			}
			prev = got
		}
	}
}

func TestOccupancyHillForm(t *testing.T) {
	kd, conc := 3e-6, 1e-5
	for _, n := range []float64{1, 2, 3.5} {
		want := math.Pow(conc, n) / (math.Pow(conc, n) + math.Pow(kd, n))
		if got := mustOccupancy(t, kd, conc, n); math.Abs(got-want) > 1e-12 {
			t.Errorf("n=%g: got %g, want %g", n, got, want)
		}
	}
}

func TestOccupancyCompeting(t *testing.T) {
	alone := mustOccupancy(t, 1e-6, 1e-5, 1)
	withRival := mustOccupancy(t, 1e-6, 1e-5, 1, Binding{Kd: 1e-7, Conc: 1e-5})
	if !(withRival < alone) {
		t.Errorf("competing ligand did not reduce occupancy: %g >= %g", withRival, alone)
	}
	if got := mustOccupancy(t, 1e-6, 1e-5, 1, Binding{Kd: 0, Conc: 1e-5}); got != 0 {
		t.Errorf("infinitely tight rival: got %g, want 0", got)
	}
	if got := mustOccupancy(t, 1e-6, 1e-5, 1, Binding{Kd: 1e-7, Conc: 0}); math.Abs(got-alone) > 1e-15 {
		t.Errorf("absent rival changed occupancy: %g vs %g", got, alone)
	}

	// Two infinitely tight ligands share the receptor by concentration, matching
	// the limit of the finite formula.
	tight := []struct {
		kd, conc, rivalConc float64
		want                float64
	}{
		{0, 1e-5, 1e-5, 0.5},
		{1e-300, 1e-5, 1e-5, 0.5},
		{0, 3e-5, 1e-5, 0.75},
	}
	for _, tt := range tight {
		self := mustOccupancy(t, tt.kd, tt.conc, 1, Binding{Kd: tt.kd, Conc: tt.rivalConc})
		rival := mustOccupancy(t, tt.kd, tt.rivalConc, 1, Binding{Kd: tt.kd, Conc: tt.conc})
		if math.Abs(self-tt.want) > 1e-9 {
			t.Errorf("kd=%g conc=%g: got %g, want %g", tt.kd, tt.conc, self, tt.want)
		}
		if math.Abs(self+rival-1) > 1e-9 {
			t.Errorf("kd=%g: shares sum to %g, want 1", tt.kd, self+rival)
		}
	}
	// A finite ligand next to two infinitely tight ones gets nothing.
	if got := mustOccupancy(t, 1e-6, 1e-5, 1, Binding{Kd: 0, Conc: 1e-5}, Binding{Kd: 0, Conc: 1e-5}); got != 0 {
		t.Errorf("finite ligand among tight rivals: got %g, want 0", got)
	}
}

func TestOccupancyRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name     string
		kd, conc float64
		n        float64
	}{
		{"zero hill", 1e-6, 1e-5, 0},
		{"negative hill", 1e-6, 1e-5, -1},
		{"nan hill", 1e-6, 1e-5, math.NaN()},
		{"infinite hill", 1e-6, 1e-5, math.Inf(1)},
		{"nan kd", math.NaN(), 1e-5, 1},
		{"nan conc", 1e-6, math.NaN(), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Occupancy(tt.kd, tt.conc, tt.n); !errors.Is(err, ErrInvalidModel) {
				t.Errorf("err = %v, want ErrInvalidModel", err)
			}
		})
	}
}

package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/odorsampling/odor"
)

// CurveStats summarizes one response curve.
type CurveStats struct {
	Experiment   string  `csv:"experiment"`
	Curve        string  `csv:"curve"`
	Quantity     string  `csv:"quantity"`
	Points       int     `csv:"points"`
	Mean         float64 `csv:"mean"`
	Std          float64 `csv:"std"`
	P10          float64 `csv:"p10"`
	P50          float64 `csv:"p50"`
	P90          float64 `csv:"p90"`
	Max          float64 `csv:"max"`
	PeakLocation float64 `csv:"peak_location"`
}

// ComputeCurveStats calculates distribution statistics of values sampled at
// locations. Returns zero stats for an empty curve.
func ComputeCurveStats(curve string, locations, values []float64) CurveStats {
	s := CurveStats{Curve: curve, Points: len(values)}
	if len(values) == 0 {
		return s
	}

	s.Mean, s.Std = stat.PopMeanStdDev(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	s.P10 = stat.Quantile(0.10, stat.LinInterp, sorted, nil)
	s.P50 = stat.Quantile(0.50, stat.LinInterp, sorted, nil)
	s.P90 = stat.Quantile(0.90, stat.LinInterp, sorted, nil)

	peak := floats.MaxIdx(values)
	s.Max = values[peak]
	if peak < len(locations) {
		s.PeakLocation = locations[peak]
	}
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s CurveStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("curve", s.Curve),
		slog.Int("points", s.Points),
		slog.Float64("mean", s.Mean),
		slog.Float64("std", s.Std),
		slog.Float64("p10", s.P10),
		slog.Float64("p50", s.P50),
		slog.Float64("p90", s.P90),
		slog.Float64("max", s.Max),
		slog.Float64("peak_location", s.PeakLocation),
	)
}

// HistogramStats summarizes an activation histogram.
type HistogramStats struct {
	Total int
	// MeanActivation is estimated from bin centers weighted by counts.
	MeanActivation float64
	// ModeBin is the fullest bin.
	ModeBin      int
	OccupiedBins int
	// OverallEfficacy is the mean efficacy across all ligands, NaN if empty.
	OverallEfficacy float64
}

// ComputeHistogramStats derives summary statistics from a histogram.
func ComputeHistogramStats(h *odor.Histogram) HistogramStats {
	s := HistogramStats{Total: h.Total(), OverallEfficacy: math.NaN()}
	if h.Total() == 0 {
		return s
	}

	counts := h.Counts()
	centers := make([]float64, odor.NumBins)
	weights := make([]float64, odor.NumBins)
	for i, c := range counts {
		centers[i] = odor.BinCenter(i)
		weights[i] = float64(c)
		if c > 0 {
			s.OccupiedBins++
		}
	}
	s.MeanActivation = stat.Mean(centers, weights)
	s.ModeBin = floats.MaxIdx(weights)
	s.OverallEfficacy = floats.Sum(h.EfficacySums()) / float64(h.Total())
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s HistogramStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("total", s.Total),
		slog.Float64("mean_activation", s.MeanActivation),
		slog.Int("mode_bin", s.ModeBin),
		slog.Int("occupied_bins", s.OccupiedBins),
		slog.Float64("overall_efficacy", s.OverallEfficacy),
	)
}

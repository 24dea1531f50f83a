package telemetry

import (
	"strconv"
	"strings"

	"github.com/pthm-cable/odorsampling/odor"
)

// CurvePoint is one ligand location on a response curve.
type CurvePoint struct {
	Experiment string  `csv:"experiment"`
	Curve      string  `csv:"curve"`
	Location   float64 `csv:"location"`
	Affinity   float64 `csv:"affinity"`
	Efficacy   float64 `csv:"efficacy"`
	Occupancy  float64 `csv:"occupancy"`
	Activation float64 `csv:"activation"`
}

// HistogramRow is one activation bin.
type HistogramRow struct {
	Experiment string  `csv:"experiment"`
	Label      string  `csv:"label"`
	Bin        int     `csv:"bin"`
	Lower      float64 `csv:"lower"`
	Center     float64 `csv:"center"`
	Count      int     `csv:"count"`
	EffSum     float64 `csv:"eff_sum"`
	// Empty for bins with no ligands.
	MeanEfficacy string `csv:"mean_efficacy"`
}

// ReceptorRow is one receptor's parameters. Vectors are ';'-separated.
type ReceptorRow struct {
	Experiment string `csv:"experiment"`
	ID         int    `csv:"id"`
	Mean       string `csv:"mean"`
	SDA        string `csv:"sd_a"`
	SDE        string `csv:"sd_e"`
}

// HistogramRows flattens a histogram into one row per bin.
func HistogramRows(experiment, label string, h *odor.Histogram) []HistogramRow {
	counts := h.Counts()
	sums := h.EfficacySums()
	rows := make([]HistogramRow, odor.NumBins)
	for i := range rows {
		mean := ""
		if m, ok := h.MeanEfficacyAt(i); ok {
			mean = strconv.FormatFloat(m, 'g', -1, 64)
		}
		rows[i] = HistogramRow{
			Experiment:   experiment,
			Label:        label,
			Bin:          i,
			Lower:        odor.BinLower(i),
			Center:       odor.BinCenter(i),
			Count:        counts[i],
			EffSum:       sums[i],
			MeanEfficacy: mean,
		}
	}
	return rows
}

// ReceptorRows describes each receptor's mean and SDs.
func ReceptorRows(experiment string, receptors []*odor.Receptor) []ReceptorRow {
	rows := make([]ReceptorRow, len(receptors))
	for i, r := range receptors {
		rows[i] = ReceptorRow{
			Experiment: experiment,
			ID:         r.ID,
			Mean:       joinFloats(r.Mean()),
			SDA:        joinFloats(r.SDA()),
			SDE:        joinFloats(r.SDE()),
		}
	}
	return rows
}

func joinFloats(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.FormatFloat(x, 'g', -1, 64)
	}
	return strings.Join(parts, ";")
}

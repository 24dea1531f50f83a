package odor

import (
	"log/slog"
	"math"
	"runtime"
	"sync"
)

// NumBins is the number of equal-width activation bins over [0, 1].
const NumBins = 10

// parallelThreshold is the minimum ligand count worth splitting across workers.
const parallelThreshold = 256

// BinIndex maps an activation to its bin: floor(a*NumBins), with a == 1 folded
// into the last bin. Values outside [0,1] clamp to the end bins.
func BinIndex(activation float64) int {
	if math.IsNaN(activation) || activation <= 0 {
		return 0
	}
	if activation >= 1 {
		return NumBins - 1
	}
	i := int(math.Floor(activation * NumBins))
	if i >= NumBins {
		return NumBins - 1
	}
	return i
}

// BinLower returns the lower edge of bin i.
func BinLower(i int) float64 {
	return float64(i) / NumBins
}

// BinCenter returns the midpoint of bin i.
func BinCenter(i int) float64 {
	return (float64(i) + 0.5) / NumBins
}

// Histogram accumulates activation counts and efficacy sums per bin. The zero
// value is ready to use; one accumulator serves a single summarization run.
type Histogram struct {
	counts [NumBins]int
	effSum [NumBins]float64
	total  int
}

// Add records one ligand's activation and efficacy.
func (h *Histogram) Add(activation, efficacy float64) {
	i := BinIndex(activation)
	h.counts[i]++
	h.effSum[i] += efficacy
	h.total++
}

// Merge folds another accumulator into h.
func (h *Histogram) Merge(o *Histogram) {
	for i := range h.counts {
		h.counts[i] += o.counts[i]
		h.effSum[i] += o.effSum[i]
	}
	h.total += o.total
}

// Total returns the number of recorded ligands.
func (h *Histogram) Total() int {
	return h.total
}

// Counts returns the per-bin ligand counts.
func (h *Histogram) Counts() []int {
	out := make([]int, NumBins)
	copy(out, h.counts[:])
	return out
}

// EfficacySums returns the per-bin efficacy sums.
func (h *Histogram) EfficacySums() []float64 {
	out := make([]float64, NumBins)
	copy(out, h.effSum[:])
	return out
}

// MeanEfficacyAt returns the mean efficacy of bin i, or false for an empty bin.
func (h *Histogram) MeanEfficacyAt(i int) (float64, bool) {
	if h.counts[i] == 0 {
		return 0, false
	}
	return h.effSum[i] / float64(h.counts[i]), true
}

// MeanEfficacy returns per-bin mean efficacy with NaN marking empty bins.
func (h *Histogram) MeanEfficacy() []float64 {
	out := make([]float64, NumBins)
	for i := range out {
		if m, ok := h.MeanEfficacyAt(i); ok {
			out[i] = m
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// LogValue implements slog.LogValuer.
func (h *Histogram) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("total", h.total),
		slog.Any("counts", h.Counts()),
		slog.Any("mean_efficacy", h.MeanEfficacy()),
	)
}

// Summarize presents each ligand alone to r, in order, and bins the resulting
// activations.
func (m Model) Summarize(r *Receptor, ligands []Ligand) (*Histogram, error) {
	h := &Histogram{}
	for _, l := range ligands {
		resp, err := m.Evaluate(r, l)
		if err != nil {
			return nil, err
		}
		h.Add(resp.Activation, resp.Efficacy)
	}
	return h, nil
}

// SummarizeParallel is Summarize split into contiguous chunks, one accumulator
// per worker, merged at the end. workers <= 0 uses GOMAXPROCS. Small inputs run
// sequentially.
func (m Model) SummarizeParallel(r *Receptor, ligands []Ligand, workers int) (*Histogram, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers == 1 || len(ligands) < parallelThreshold {
		return m.Summarize(r, ligands)
	}

	chunk := (len(ligands) + workers - 1) / workers
	parts := make([]*Histogram, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunk
		if start >= len(ligands) {
			break
		}
		end := min(start+chunk, len(ligands))
		wg.Add(1)
		go func(w, start, end int) {
			defer wg.Done()
			parts[w], errs[w] = m.Summarize(r, ligands[start:end])
		}(w, start, end)
	}
	wg.Wait()

	h := &Histogram{}
	for w, p := range parts {
		if errs[w] != nil {
			return nil, errs[w]
		}
		if p != nil {
			h.Merge(p)
		}
	}
	return h, nil
}

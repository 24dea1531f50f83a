package telemetry

import (
	"log/slog"
	"time"
)

// Phases of one procedure call.
const (
	PhaseBind      = "bind"
	PhaseProcedure = "procedure"
	PhaseRecord    = "record"
)

var phaseOrder = []string{PhaseBind, PhaseProcedure, PhaseRecord}

// PerfSample holds timing data for a single call.
type PerfSample struct {
	Function string
	Duration time.Duration
	Phases   map[string]time.Duration
}

// PerfCollector times procedure calls over a rolling window.
type PerfCollector struct {
	windowSize  int
	samples     []PerfSample
	writeIndex  int
	sampleCount int

	function   string
	phases     map[string]time.Duration
	callStart  time.Time
	phaseStart time.Time
	lastPhase  string
}

// NewPerfCollector creates a collector keeping the last windowSize calls.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 32
	}
	return &PerfCollector{
		windowSize: windowSize,
		samples:    make([]PerfSample, windowSize),
		phases:     make(map[string]time.Duration),
	}
}

// StartCall begins timing a call of function.
func (p *PerfCollector) StartCall(function string) {
	p.function = function
	p.callStart = time.Now()
	p.phases = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase ends the running phase, if any, and starts phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	if p.lastPhase != "" {
		p.phases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndCall finishes the call and records its sample.
func (p *PerfCollector) EndCall() PerfSample {
	now := time.Now()
	if p.lastPhase != "" {
		p.phases[p.lastPhase] += now.Sub(p.phaseStart)
	}

	sample := PerfSample{
		Function: p.function,
		Duration: now.Sub(p.callStart),
		Phases:   p.phases,
	}
	p.samples[p.writeIndex] = sample
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
	p.lastPhase = ""
	return sample
}

// PerfStats holds aggregated call timing.
type PerfStats struct {
	Calls       int
	AvgDuration time.Duration
	MinDuration time.Duration
	MaxDuration time.Duration

	// Average time per phase and its share of the average call.
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64
}

// Stats aggregates the samples currently in the window.
func (p *PerfCollector) Stats() PerfStats {
	stats := PerfStats{
		Calls:    p.sampleCount,
		PhaseAvg: make(map[string]time.Duration),
		PhasePct: make(map[string]float64),
	}
	if p.sampleCount == 0 {
		return stats
	}

	var total time.Duration
	phaseSum := make(map[string]time.Duration)
	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s.Duration
		if i == 0 || s.Duration < stats.MinDuration {
			stats.MinDuration = s.Duration
		}
		if s.Duration > stats.MaxDuration {
			stats.MaxDuration = s.Duration
		}
		for phase, d := range s.Phases {
			phaseSum[phase] += d
		}
	}

	stats.AvgDuration = total / time.Duration(p.sampleCount)
	for phase, sum := range phaseSum {
		stats.PhaseAvg[phase] = sum / time.Duration(p.sampleCount)
		if stats.AvgDuration > 0 {
			stats.PhasePct[phase] = float64(stats.PhaseAvg[phase]) / float64(stats.AvgDuration) * 100
		}
	}
	return stats
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("calls", s.Calls),
		slog.Int64("avg_us", s.AvgDuration.Microseconds()),
		slog.Int64("min_us", s.MinDuration.Microseconds()),
		slog.Int64("max_us", s.MaxDuration.Microseconds()),
	}
	for _, phase := range phaseOrder {
		if pct, ok := s.PhasePct[phase]; ok {
			attrs = append(attrs, slog.Float64(phase+"_pct", pct))
		}
	}
	return slog.GroupValue(attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfSample) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("function", s.Function),
		slog.Int64("us", s.Duration.Microseconds()),
	}
	for _, phase := range phaseOrder {
		if d, ok := s.Phases[phase]; ok {
			attrs = append(attrs, slog.Int64(phase+"_us", d.Microseconds()))
		}
	}
	return slog.GroupValue(attrs...)
}

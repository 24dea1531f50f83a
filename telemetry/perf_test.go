package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartCall("eff_analysis")
		pc.StartPhase(PhaseProcedure)
		time.Sleep(200 * time.Microsecond)
		pc.StartPhase(PhaseRecord)
		time.Sleep(100 * time.Microsecond)
		sample := pc.EndCall()
		if sample.Function != "eff_analysis" {
			t.Errorf("sample function = %q", sample.Function)
		}
	}

	stats := pc.Stats()
	if stats.Calls != 5 {
		t.Errorf("Calls = %d, want 5", stats.Calls)
	}
	if stats.AvgDuration <= 0 {
		t.Error("expected positive average duration")
	}
	if stats.MinDuration > stats.MaxDuration {
		t.Errorf("min %v > max %v", stats.MinDuration, stats.MaxDuration)
	}
	for _, phase := range []string{PhaseProcedure, PhaseRecord} {
		if _, ok := stats.PhaseAvg[phase]; !ok {
			t.Errorf("expected %s phase to be tracked", phase)
		}
	}
	if _, ok := stats.PhaseAvg[PhaseBind]; ok {
		t.Error("bind phase was never started")
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(3)
	for i := 0; i < 10; i++ {
		pc.StartCall("occ_vs_loc")
		pc.StartPhase(PhaseProcedure)
		pc.EndCall()
	}
	if got := pc.Stats().Calls; got != 3 {
		t.Errorf("Calls = %d, want window size 3", got)
	}
}

func TestPerfCollector_Empty(t *testing.T) {
	stats := NewPerfCollector(0).Stats()
	if stats.Calls != 0 || stats.AvgDuration != 0 {
		t.Errorf("empty stats = %+v", stats)
	}
	if stats.PhaseAvg == nil || stats.PhasePct == nil {
		t.Error("expected non-nil phase maps")
	}
}

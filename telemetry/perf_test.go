package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollectorEmpty(t *testing.T) {
	p := NewPerfCollector(10)
	stats := p.Stats()
	if stats.AvgTickDuration != 0 {
		t.Errorf("empty collector avg = %v, want 0", stats.AvgTickDuration)
	}
	if stats.PhaseAvg == nil || stats.PhasePct == nil {
		t.Error("empty stats should still carry maps")
	}
}

func TestPerfCollectorRecordsPhases(t *testing.T) {
	p := NewPerfCollector(10)

	p.StartTick()
	p.StartPhase(PhaseSpatial)
	time.Sleep(time.Millisecond)
	p.StartPhase(PhaseCreatures)
	time.Sleep(time.Millisecond)
	p.EndTick()

	stats := p.Stats()
	if stats.AvgTickDuration < 2*time.Millisecond {
		t.Errorf("avg tick = %v, want >= 2ms", stats.AvgTickDuration)
	}
	if stats.PhaseAvg[PhaseSpatial] <= 0 {
		t.Error("spatial phase not recorded")
	}
	if stats.PhaseAvg[PhaseCreatures] <= 0 {
		t.Error("creatures phase not recorded")
	}
	if stats.TicksPerSecond <= 0 {
		t.Errorf("ticks/sec = %v, want > 0", stats.TicksPerSecond)
	}
}

func TestPerfCollectorRollingWindow(t *testing.T) {
	p := NewPerfCollector(2)

	for i := 0; i < 5; i++ {
		p.StartTick()
		p.StartPhase(PhaseCleanup)
		p.EndTick()
	}

	if p.sampleCount != 2 {
		t.Errorf("sample count = %d, want window size 2", p.sampleCount)
	}
}

func TestPerfRow(t *testing.T) {
	p := NewPerfCollector(4)
	p.StartTick()
	p.StartPhase(PhaseBehavior)
	time.Sleep(time.Millisecond)
	p.EndTick()

	row := p.Stats().Row(12.5)
	if row.SimTimeSec != 12.5 {
		t.Errorf("sim time = %v, want 12.5", row.SimTimeSec)
	}
	if row.BehaviorUS <= 0 {
		t.Errorf("behavior phase = %dus, want > 0", row.BehaviorUS)
	}
}

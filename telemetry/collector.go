// Package telemetry aggregates per-tick simulation counters into time
// windows, tracks lifetimes and notable lineages, and writes structured
// experiment output.
package telemetry

import (
	"github.com/pthm-cable/fauna/sim"
	"github.com/pthm-cable/fauna/traits"
)

// Collector folds per-tick counters into fixed-length time windows.
type Collector struct {
	windowSec   float64
	windowStart float64

	// Cumulative counter values at the start of the window, for deltas.
	base sim.Counters

	energies []float64
	ages     []float64
}

// NewCollector creates a collector with the given window length in
// simulation seconds.
func NewCollector(windowSec float64) *Collector {
	if windowSec <= 0 {
		windowSec = 10
	}
	return &Collector{windowSec: windowSec}
}

// ShouldFlush reports whether the current window is complete.
func (c *Collector) ShouldFlush(now float64) bool {
	return now-c.windowStart >= c.windowSec
}

// Flush aggregates the window ending now and starts the next one. The
// caller passes the simulation so population distributions are sampled at
// the window boundary.
func (c *Collector) Flush(s *sim.Sim) WindowStats {
	cs := s.Counters()
	now := s.Now()

	c.energies, c.ages = s.Distributions(c.energies[:0], c.ages[:0])
	eMean, eStd, eP10, eP50, eP90 := Distribution(c.energies)
	aMean, _, _, aP50, _ := Distribution(c.ages)

	herb, pred, scav := 0, 0, 0
	for t := traits.Type(0); t < traits.NumTypes; t++ {
		n := cs.PopulationByType[t]
		switch traits.Get(t).Diet {
		case traits.DietCarnivore, traits.DietOmnivore:
			pred += n
		case traits.DietScavenger:
			scav += n
		default:
			herb += n
		}
	}

	completed := cs.HuntsCompleted - c.base.HuntsCompleted
	abandoned := cs.HuntsAbandoned - c.base.HuntsAbandoned
	successRate := 0.0
	if completed+abandoned > 0 {
		successRate = float64(completed) / float64(completed+abandoned)
	}

	ws := WindowStats{
		WindowStartSec: c.windowStart,
		WindowEndSec:   now,
		Tick:           cs.Tick,

		Population: cs.Population,
		Herbivores: herb,
		Predators:  pred,
		Scavengers: scav,
		Species:    cs.Species,

		Births:        cs.Births - c.base.Births,
		Deaths:        cs.Deaths - c.base.Deaths,
		BirthsDropped: cs.BirthsDropped - c.base.BirthsDropped,
		NonViable:     cs.NonViable - c.base.NonViable,

		Territories:      cs.Territories,
		Groups:           cs.Groups,
		ActiveHunts:      cs.ActiveHunts,
		HuntsCompleted:   completed,
		HuntsAbandoned:   abandoned,
		ActiveMigrations: cs.ActiveMigrations,
		CareBonds:        cs.CareBonds,

		HuntSuccessRate: successRate,

		EnergyMean: eMean,
		EnergyStd:  eStd,
		EnergyP10:  eP10,
		EnergyP50:  eP50,
		EnergyP90:  eP90,

		AgeMean: aMean,
		AgeP50:  aP50,

		SpatialOverflow: cs.SpatialOverflow,
		PerceptsDropped: cs.PerceptsDropped,
	}

	c.windowStart = now
	c.base = cs
	return ws
}

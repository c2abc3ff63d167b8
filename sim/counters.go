package sim

import (
	"github.com/pthm-cable/fauna/behavior"
	"github.com/pthm-cable/fauna/traits"
)

// Counters is the per-tick observability snapshot. Event counters (births,
// deaths, drops) are cumulative; gauges reflect the tick they were
// collected on.
type Counters struct {
	Tick uint64
	Now  float64

	Population       int
	PopulationByType [traits.NumTypes]int
	Species          int

	Births        uint64
	Deaths        uint64
	BirthsDropped uint64
	NonViable     uint64
	InvalidInput  uint64

	AvgAge    float32
	AvgEnergy float32

	Territories          int
	TerritoriesAbandoned uint64
	Groups               int
	ActiveHunts          int
	HuntsByPhase         map[behavior.HuntPhase]int
	HuntsCompleted       uint64
	HuntsAbandoned       uint64
	ActiveMigrations     int
	MigrationsStarted    uint64
	CareBonds            int

	SpatialOverflow uint64
	PerceptsDropped uint64
}

// collectCounters refreshes the gauges from live state. Runs after cleanup
// so the population figures exclude this tick's deaths.
func (s *Sim) collectCounters() {
	c := &s.counters
	c.Tick = s.tick
	c.Now = s.now

	c.Population = 0
	c.PopulationByType = [traits.NumTypes]int{}
	var ageSum, energySum float64

	query := s.filter.Query()
	for query.Next() {
		_, _, cr, _, _ := query.Get()
		if !cr.Alive {
			continue
		}
		c.Population++
		c.PopulationByType[cr.Type]++
		ageSum += float64(cr.Age)
		energySum += float64(cr.Energy)
	}
	if c.Population > 0 {
		c.AvgAge = float32(ageSum / float64(c.Population))
		c.AvgEnergy = float32(energySum / float64(c.Population))
	} else {
		c.AvgAge = 0
		c.AvgEnergy = 0
	}

	c.Species = s.species.Count()
	c.Territories = s.coord.Territorial.Count()
	c.TerritoriesAbandoned = s.coord.Territorial.AbandonedCount()
	c.Groups = s.coord.Social.Groups()
	c.HuntsByPhase = s.coord.Hunt.CountByPhase()
	c.ActiveHunts = 0
	for _, n := range c.HuntsByPhase {
		c.ActiveHunts += n
	}
	c.HuntsCompleted = s.coord.Hunt.Completed()
	c.HuntsAbandoned = s.coord.Hunt.Abandoned()
	c.ActiveMigrations = s.coord.Migration.Active()
	c.MigrationsStarted = s.coord.Migration.Started()
	c.CareBonds = s.coord.Care.Count()

	c.SpatialOverflow = s.index.OverflowCount()
	c.PerceptsDropped = s.sensor.DroppedCount()
}

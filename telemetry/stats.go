package telemetry

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated ecosystem statistics for one time window.
type WindowStats struct {
	WindowStartSec float64 `csv:"-"`
	WindowEndSec   float64 `csv:"sim_time"`
	Tick           uint64  `csv:"tick"`

	// Population at window end
	Population int `csv:"population"`
	Herbivores int `csv:"herbivores"`
	Predators  int `csv:"predators"`
	Scavengers int `csv:"scavengers"`
	Species    int `csv:"species"`

	// Events during the window
	Births        uint64 `csv:"births"`
	Deaths        uint64 `csv:"deaths"`
	BirthsDropped uint64 `csv:"births_dropped"`
	NonViable     uint64 `csv:"non_viable"`

	// Behavior state at window end
	Territories      int    `csv:"territories"`
	Groups           int    `csv:"groups"`
	ActiveHunts      int    `csv:"active_hunts"`
	HuntsCompleted   uint64 `csv:"hunts_completed"`
	HuntsAbandoned   uint64 `csv:"hunts_abandoned"`
	ActiveMigrations int    `csv:"active_migrations"`
	CareBonds        int    `csv:"care_bonds"`

	// Hunt outcomes over the window
	HuntSuccessRate float64 `csv:"hunt_success_rate"`

	// Energy distribution at window end
	EnergyMean float64 `csv:"energy_mean"`
	EnergyStd  float64 `csv:"energy_std"`
	EnergyP10  float64 `csv:"energy_p10"`
	EnergyP50  float64 `csv:"energy_p50"`
	EnergyP90  float64 `csv:"energy_p90"`

	// Age distribution at window end
	AgeMean float64 `csv:"age_mean"`
	AgeP50  float64 `csv:"age_p50"`

	// Pressure indicators
	SpatialOverflow uint64 `csv:"spatial_overflow"`
	PerceptsDropped uint64 `csv:"percepts_dropped"`
}

// Distribution summarizes a sample: mean, standard deviation and the
// 10th/50th/90th percentiles. The input slice is sorted in place.
func Distribution(values []float64) (mean, std, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0, 0
	}
	sort.Float64s(values)
	mean = stat.Mean(values, nil)
	if len(values) > 1 {
		std = stat.StdDev(values, nil)
	}
	p10 = stat.Quantile(0.10, stat.Empirical, values, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, values, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, values, nil)
	return mean, std, p10, p50, p90
}

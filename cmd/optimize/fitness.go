package main

import (
	"math"
	"sync"

	"github.com/pthm-cable/fauna/config"
	"github.com/pthm-cable/fauna/sim"
	"github.com/pthm-cable/fauna/telemetry"
	"github.com/pthm-cable/fauna/traits"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	maxTicks    int
	seeds       []int64
	baseConfig  *config.Config
	statsWindow float64

	// Best run tracking
	mu             sync.Mutex
	bestFitness    float64
	bestHallOfFame *telemetry.HallOfFame
	lastQuality    float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		statsWindow: 10.0,
		bestFitness: math.Inf(1),
	}
}

// BestHallOfFame returns the hall of fame from the best evaluation.
func (fe *FitnessEvaluator) BestHallOfFame() *telemetry.HallOfFame {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestHallOfFame
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// Minimum viable population: if any diet group stays below this for
// extinctionGraceSec of sim time, the ecosystem counts as functionally
// collapsed.
const (
	minViablePop       = 3
	extinctionGraceSec = 60.0
)

// runResult holds the results from a single simulation run.
type runResult struct {
	survivalTicks int // ticks before collapse (or maxTicks if survived)
	windowStats   []telemetry.WindowStats
	hallOfFame    *telemetry.HallOfFame
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness    float64
	quality    float64
	hallOfFame *telemetry.HallOfFame
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is negative survival ticks: longer survival = lower fitness.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			result := fe.runSimulation(x, s)
			quality := fe.computeQuality(result.windowStats)
			results[idx] = seedResult{
				fitness:    fe.computeFitness(result),
				quality:    quality,
				hallOfFame: result.hallOfFame,
			}
		}(i, seed)
	}
	wg.Wait()

	var totalFitness, totalQuality float64
	bestSeedFitness := math.Inf(1)
	var bestSeedHallOfFame *telemetry.HallOfFame

	for _, r := range results {
		totalFitness += r.fitness
		totalQuality += r.quality
		if r.fitness < bestSeedFitness {
			bestSeedFitness = r.fitness
			bestSeedHallOfFame = r.hallOfFame
		}
	}

	n := float64(len(fe.seeds))
	avgFitness := totalFitness / n

	fe.mu.Lock()
	if avgFitness < fe.bestFitness {
		fe.bestFitness = avgFitness
		fe.bestHallOfFame = bestSeedHallOfFame
	}
	fe.lastQuality = totalQuality / n
	fe.mu.Unlock()

	return avgFitness
}

// runSimulation executes a single headless run until collapse or maxTicks.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) *runResult {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	result := &runResult{}

	s := sim.New(cfg, seed, nil)
	recorder := telemetry.NewRecorder(cfg.Telemetry.HallSize)
	s.SetObserver(recorder)
	collector := telemetry.NewCollector(fe.statsWindow)

	dt := cfg.Physics.DT
	warmupSec := 30.0
	var belowSec float64

	tick := 0
	for ; tick < fe.maxTicks; tick++ {
		if err := s.Tick(dt); err != nil {
			break
		}

		if collector.ShouldFlush(s.Now()) {
			result.windowStats = append(result.windowStats, collector.Flush(s))
		}

		if s.Now() < warmupSec {
			continue
		}

		herb, pred := dietCounts(s)
		if herb == 0 && pred == 0 {
			break
		}
		if herb < minViablePop || pred < minViablePop {
			belowSec += dt
			if belowSec >= extinctionGraceSec {
				break
			}
		} else {
			belowSec = 0
		}
	}

	result.survivalTicks = tick
	result.hallOfFame = recorder.Hall
	return result
}

// dietCounts splits the current population into prey and predator groups.
func dietCounts(s *sim.Sim) (herb, pred int) {
	c := s.Counters()
	for t := traits.Type(0); t < traits.NumTypes; t++ {
		n := c.PopulationByType[t]
		switch traits.Get(t).Diet {
		case traits.DietCarnivore, traits.DietOmnivore:
			pred += n
		default:
			herb += n
		}
	}
	return herb, pred
}

// copyConfig creates a deep copy of the base config.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}

// computeFitness calculates the scalar fitness (lower = better).
// Survival dominates; quality adds up to 20% bonus to differentiate
// configs with similar survival.
func (fe *FitnessEvaluator) computeFitness(r *runResult) float64 {
	survival := float64(r.survivalTicks)
	quality := fe.computeQuality(r.windowStats)
	return -(survival * (1.0 + 0.2*quality))
}

// Quality component weights.
const (
	qualityWeightBalance   = 0.30
	qualityWeightStability = 0.25
	qualityWeightDiversity = 0.25
	qualityWeightHunting   = 0.20

	qualityWarmupWindows = 3 // skip first N windows (warmup)
)

// computeQuality computes ecosystem quality in [0, 1] from window stats.
func (fe *FitnessEvaluator) computeQuality(windows []telemetry.WindowStats) float64 {
	if len(windows) <= qualityWarmupWindows {
		return 0
	}
	valid := windows[qualityWarmupWindows:]

	var balanceSum, diversitySum float64
	var balanceCount int
	var huntSum float64
	var huntCount int

	pops := make([]float64, 0, len(valid))

	for _, w := range valid {
		if w.Population < minViablePop {
			continue
		}
		pops = append(pops, float64(w.Population))

		// Herbivore/predator balance: healthy ecosystems sit near 8:1.
		if w.Predators > 0 {
			ratio := float64(w.Herbivores) / float64(w.Predators)
			logErr := math.Log(ratio / 8.0)
			balanceSum += math.Exp(-logErr * logErr)
			balanceCount++
		}

		// Species diversity relative to population.
		if w.Population > 0 {
			diversitySum += 1.0 - math.Exp(-float64(w.Species)/4.0)
		}

		// Pack hunting activity.
		attempts := w.HuntsCompleted + w.HuntsAbandoned
		if attempts > 0 {
			srScore := math.Exp(-math.Pow((w.HuntSuccessRate-0.3)/0.2, 2))
			activity := 1.0 - math.Exp(-float64(attempts)/2.0)
			huntSum += 0.6*srScore + 0.4*activity
			huntCount++
		}
	}

	if balanceCount == 0 {
		return 0
	}

	balanceScore := balanceSum / float64(balanceCount)

	stabilityScore := 0.0
	if len(pops) >= 2 {
		c := cv(pops)
		stabilityScore = math.Exp(-c * c)
	}

	diversityScore := diversitySum / float64(len(valid))

	huntScore := 0.0
	if huntCount > 0 {
		huntScore = huntSum / float64(huntCount)
	}

	quality := qualityWeightBalance*balanceScore +
		qualityWeightStability*stabilityScore +
		qualityWeightDiversity*diversityScore +
		qualityWeightHunting*huntScore

	return clamp01(quality)
}

// cv computes the coefficient of variation (std/mean) for a slice of values.
func cv(values []float64) float64 {
	n := float64(len(values))
	if n == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / n
	if mean == 0 {
		return 0
	}
	var sqDiff float64
	for _, v := range values {
		d := v - mean
		sqDiff += d * d
	}
	return math.Sqrt(sqDiff/n) / mean
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

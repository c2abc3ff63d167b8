package world

import (
	"math"

	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/fauna/components"
	"github.com/pthm-cable/fauna/config"
	"github.com/pthm-cable/fauna/rng"
	"github.com/pthm-cable/fauna/systems"
)

// Noise layer scales in world units.
const (
	heightScale      = 0.004
	temperatureScale = 0.002
	moistureScale    = 0.003
	windScale        = 0.0008
	detailScale      = 0.02
)

// World samples terrain height, biome, climate and food for a fixed planet
// seed. All methods are pure and safe to call from any phase of the tick.
type World struct {
	cfg  *config.Config
	seed int64

	height      opensimplex.Noise
	temperature opensimplex.Noise
	moisture    opensimplex.Noise
	wind        opensimplex.Noise
	detail      opensimplex.Noise

	food *foodGrid
}

// New creates the sampler for a planet seed.
func New(cfg *config.Config, seed int64) *World {
	w := &World{
		cfg:         cfg,
		seed:        seed,
		height:      opensimplex.NewNormalized(noiseSeed(seed, 0)),
		temperature: opensimplex.NewNormalized(noiseSeed(seed, 1)),
		moisture:    opensimplex.NewNormalized(noiseSeed(seed, 2)),
		wind:        opensimplex.NewNormalized(noiseSeed(seed, 3)),
		detail:      opensimplex.NewNormalized(noiseSeed(seed, 4)),
	}
	w.food = newFoodGrid(w)
	return w
}

// noiseSeed derives a layer seed so layers decorrelate.
func noiseSeed(planetSeed int64, layer uint32) int64 {
	return rng.SeedFor(planetSeed, 0x57<<8|layer)
}

// Seed returns the planet seed.
func (w *World) Seed() int64 { return w.seed }

// HeightAt samples terrain height at a horizontal position. Heights are in
// world units; values below the configured sea level are underwater.
func (w *World) HeightAt(x, z float32) float32 {
	base := w.height.Eval2(float64(x)*heightScale, float64(z)*heightScale)
	fine := w.detail.Eval2(float64(x)*detailScale, float64(z)*detailScale)
	// Base relief up to 100 units with 10 units of fine detail.
	return float32(base*100 + fine*10)
}

// TemperatureAt samples normalized temperature in [0,1]. Colder at altitude.
func (w *World) TemperatureAt(x, z float32) float32 {
	t := float32(w.temperature.Eval2(float64(x)*temperatureScale, float64(z)*temperatureScale))
	h := w.HeightAt(x, z)
	if above := h - float32(w.cfg.World.SeaLevel); above > 40 {
		t -= (above - 40) * 0.01
	}
	return clamp01(t)
}

// MoistureAt samples normalized moisture in [0,1].
func (w *World) MoistureAt(x, z float32) float32 {
	return float32(w.moisture.Eval2(float64(x)*moistureScale, float64(z)*moistureScale))
}

// BiomeAt classifies the biome at a horizontal position.
func (w *World) BiomeAt(x, z float32) BiomeTag {
	h := w.HeightAt(x, z)
	sea := float32(w.cfg.World.SeaLevel)
	t := w.TemperatureAt(x, z)
	m := w.MoistureAt(x, z)

	switch {
	case h < sea-40:
		return BiomeDeepOcean
	case h < sea-12:
		return BiomeOcean
	case h < sea-2:
		if t > 0.7 {
			return BiomeReef
		}
		return BiomeShallows
	case h < sea:
		if m > 0.75 {
			return BiomeEstuary
		}
		return BiomeLake
	case h < sea+3:
		switch {
		case t > 0.75 && m > 0.6:
			return BiomeMangrove
		case m > 0.7:
			return BiomeSaltMarsh
		case t < 0.35:
			return BiomeRockyShore
		default:
			return BiomeBeach
		}
	case h < sea+45:
		return lowlandBiome(t, m)
	case h < sea+75:
		switch {
		case m > 0.6 && t > 0.3:
			return BiomeMontaneForest
		case m < 0.25:
			return BiomePlateau
		case t < 0.3:
			return BiomeAlpineMeadow
		default:
			return BiomeFoothills
		}
	default:
		switch {
		case t > 0.85:
			return BiomeVolcanic
		case t < 0.2:
			return BiomeGlacier
		default:
			return BiomeCliffs
		}
	}
}

func lowlandBiome(t, m float32) BiomeTag {
	switch {
	case t < 0.2:
		return BiomeTundra
	case t > 0.8 && m < 0.15:
		return BiomeDunes
	case m < 0.15:
		return BiomeDesert
	case t > 0.75 && m > 0.55 && m < 0.6:
		return BiomeOasis
	case t > 0.7 && m > 0.7:
		return BiomeRainforest
	case m > 0.75:
		return BiomeSwamp
	case m > 0.65:
		return BiomeFloodplain
	case t > 0.65 && m < 0.35:
		return BiomeSavanna
	case m > 0.5:
		return BiomeTemperateForest
	case t < 0.45 && m > 0.4:
		return BiomeSeasonalForest
	case m < 0.3:
		return BiomeShrubland
	default:
		return BiomeGrassland
	}
}

// ClimateAt samples the local climate consumed by sensing. now drives the
// diurnal light cycle and slow wind rotation.
func (w *World) ClimateAt(pos components.Vec3, now float64) systems.Climate {
	t := w.TemperatureAt(pos.X, pos.Z)
	m := w.MoistureAt(pos.X, pos.Z)
	h := w.HeightAt(pos.X, pos.Z)
	sea := float32(w.cfg.World.SeaLevel)

	// Wind direction drifts with position and slowly rotates over time.
	windAngle := w.wind.Eval2(float64(pos.X)*windScale, float64(pos.Z)*windScale)*2*math.Pi + now*0.01
	windSpeed := float32(2 + 6*w.wind.Eval2(float64(pos.Z)*windScale, now*0.005))

	precipitation := clamp01(m*1.2 - 0.2)
	// Day length is tied to the season length: one day per 1/8 season.
	dayLen := w.cfg.World.SeasonLength / 8
	if dayLen <= 0 {
		dayLen = 60
	}
	dayPhase := math.Mod(now, dayLen) / dayLen
	light := float32(0.5 - 0.5*math.Cos(2*math.Pi*dayPhase))

	underwater := h < sea
	visibility := clamp01(1 - precipitation*0.5)
	if underwater {
		visibility *= 0.6
	}

	return systems.Climate{
		Temperature:   t,
		Precipitation: precipitation,
		WindDir:       components.FromHeading(float32(windAngle)),
		WindSpeed:     windSpeed,
		Visibility:    visibility,
		AmbientLight:  light,
		IsUnderwater:  underwater,
	}
}

// SeasonProgress returns the current season index and progress within it.
func (w *World) SeasonProgress(now float64) (season int, progress float64) {
	length := w.cfg.World.SeasonLength
	if length <= 0 {
		return 0, 0
	}
	season = int(now/length) % 4
	progress = math.Mod(now, length) / length
	return season, progress
}

// FoodSourcesNear returns the live food sources within r of center. The
// returned view is owned by the food grid and invalidated by the next call.
func (w *World) FoodSourcesNear(center components.Vec3, r float32) []FoodSource {
	return w.food.sourcesNear(center, r)
}

// ConsumeFood depletes a food source by amount and returns the energy taken.
func (w *World) ConsumeFood(id uint32, amount float32) float32 {
	return w.food.consume(id, amount)
}

// UpdateFood regrows depleted food sources by one step of dt seconds.
func (w *World) UpdateFood(dt float64) {
	w.food.update(dt)
}

func clamp01(x float32) float32 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

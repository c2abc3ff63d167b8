// Package world provides the read-only terrain, climate and food samplers
// consumed by the simulation core. All sampling is pure noise lookup keyed by
// the planet seed; the same seed reproduces the same planet.
package world

// BiomeTag classifies one terrain cell. The set is closed; classification is
// a pure function of height, temperature and moisture.
type BiomeTag uint8

const (
	// Water
	BiomeDeepOcean BiomeTag = iota
	BiomeOcean
	BiomeShallows
	BiomeReef
	BiomeLake
	BiomeRiver

	// Coastal
	BiomeBeach
	BiomeRockyShore
	BiomeEstuary
	BiomeMangrove
	BiomeSaltMarsh

	// Lowland
	BiomeGrassland
	BiomeSavanna
	BiomeShrubland
	BiomeTemperateForest
	BiomeRainforest
	BiomeSeasonalForest
	BiomeSwamp
	BiomeFloodplain

	// Highland
	BiomeFoothills
	BiomeMontaneForest
	BiomeAlpineMeadow
	BiomeCliffs
	BiomePlateau

	// Extreme
	BiomeDesert
	BiomeDunes
	BiomeTundra
	BiomeGlacier
	BiomeVolcanic

	// Special
	BiomeOasis

	NumBiomes
)

var biomeNames = [NumBiomes]string{
	"deep_ocean", "ocean", "shallows", "reef", "lake", "river",
	"beach", "rocky_shore", "estuary", "mangrove", "salt_marsh",
	"grassland", "savanna", "shrubland", "temperate_forest", "rainforest",
	"seasonal_forest", "swamp", "floodplain",
	"foothills", "montane_forest", "alpine_meadow", "cliffs", "plateau",
	"desert", "dunes", "tundra", "glacier", "volcanic",
	"oasis",
}

func (b BiomeTag) String() string {
	if b < NumBiomes {
		return biomeNames[b]
	}
	return "unknown"
}

// IsWater reports whether the biome is a water body.
func (b BiomeTag) IsWater() bool {
	switch b {
	case BiomeDeepOcean, BiomeOcean, BiomeShallows, BiomeReef, BiomeLake, BiomeRiver:
		return true
	}
	return false
}

// IsCoastal reports whether the biome is a shoreline category.
func (b BiomeTag) IsCoastal() bool {
	switch b {
	case BiomeBeach, BiomeRockyShore, BiomeEstuary, BiomeMangrove, BiomeSaltMarsh:
		return true
	}
	return false
}

// PhonemeClass maps a biome to one of the naming flavor classes.
type PhonemeClass uint8

const (
	PhonemeDry PhonemeClass = iota
	PhonemeLush
	PhonemeOceanic
	PhonemeFrozen
	PhonemeVolcanic
	PhonemeAlien
	NumPhonemeClasses
)

func (p PhonemeClass) String() string {
	switch p {
	case PhonemeDry:
		return "dry"
	case PhonemeLush:
		return "lush"
	case PhonemeOceanic:
		return "oceanic"
	case PhonemeFrozen:
		return "frozen"
	case PhonemeVolcanic:
		return "volcanic"
	case PhonemeAlien:
		return "alien"
	}
	return "unknown"
}

// PhonemeClassFor maps a biome to the naming flavor used for species that
// originate there.
func PhonemeClassFor(b BiomeTag) PhonemeClass {
	switch {
	case b.IsWater() || b.IsCoastal():
		return PhonemeOceanic
	case b == BiomeTundra || b == BiomeGlacier:
		return PhonemeFrozen
	case b == BiomeVolcanic:
		return PhonemeVolcanic
	case b == BiomeDesert || b == BiomeDunes || b == BiomeSavanna || b == BiomeShrubland:
		return PhonemeDry
	case b == BiomeOasis:
		return PhonemeAlien
	default:
		return PhonemeLush
	}
}

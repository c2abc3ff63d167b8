package genome

import (
	"math"
	"math/rand"

	"github.com/yaricom/goNEAT/v4/neat/genetics"
)

// Chromosome is one haploid vector of trait loci, values in [0,1] for trait
// loci and [-1,1] (stored shifted) for legacy weight loci.
type Chromosome [NumLoci]float32

// Diploid is the full genetic record: two trait chromosomes plus a NEAT brain
// genome. The NEAT genome may be nil for legacy-controller creatures.
type Diploid struct {
	A, B  Chromosome
	Brain *genetics.Genome

	// NonViable is set when the brain genome produced a degenerate network.
	NonViable bool
}

// NewRandom creates a random diploid genome drawing from the given stream.
func NewRandom(rng *rand.Rand) *Diploid {
	d := &Diploid{}
	for i := 0; i < NumLoci; i++ {
		d.A[i] = rng.Float32()
		d.B[i] = rng.Float32()
	}
	return d
}

// Clone returns a deep copy of the trait chromosomes. The brain genome is
// shared; callers that mutate must replace it first.
func (d *Diploid) Clone() *Diploid {
	c := &Diploid{A: d.A, B: d.B, Brain: d.Brain, NonViable: d.NonViable}
	return c
}

// expressLocus combines the two alleles at a locus under its expression rule.
func (d *Diploid) expressLocus(locus int) float32 {
	a, b := d.A[locus], d.B[locus]
	if RuleFor(locus) == ExpressMax {
		if a > b {
			return a
		}
		return b
	}
	return (a + b) / 2
}

// Express projects the diploid genome onto its phenotype.
func (d *Diploid) Express() Phenotype {
	p := Phenotype{
		Size:        lerp(d.expressLocus(LocusSize), 0.3, 3),
		Speed:       lerp(d.expressLocus(LocusSpeed), 0.5, 20),
		VisionRange: lerp(d.expressLocus(LocusVisionRange), 5, 80),
		Efficiency:  clamp01(d.expressLocus(LocusEfficiency)),
		ColorR:      clamp01(d.expressLocus(LocusColorR)),
		ColorG:      clamp01(d.expressLocus(LocusColorG)),
		ColorB:      clamp01(d.expressLocus(LocusColorB)),
		Sensory: SensoryTraits{
			VisionFOV:          lerp(d.expressLocus(LocusVisionFOV), math.Pi/2, math.Pi*1.5),
			HearingSensitivity: clamp01(d.expressLocus(LocusHearingSensitivity)),
			HearingDirection:   clamp01(d.expressLocus(LocusHearingDirection)),
			SmellSensitivity:   clamp01(d.expressLocus(LocusSmellSensitivity)),
			TouchSensitivity:   clamp01(d.expressLocus(LocusTouchSensitivity)),
		},
		Locomotion: LocomotionTraits{
			AltitudePreference: lerp(d.expressLocus(LocusAltitudePreference), 5, 60),
			WingLoading:        clamp01(d.expressLocus(LocusWingLoading)),
			Buoyancy:           clamp01(d.expressLocus(LocusBuoyancy)),
			SwimFrequency:      lerp(d.expressLocus(LocusSwimFrequency), 0.5, 4),
		},
		Bioluminescent: d.expressLocus(LocusBioluminescent) > 0.7,
		BioR:           clamp01(d.expressLocus(LocusBioR)),
		BioG:           clamp01(d.expressLocus(LocusBioG)),
		BioB:           clamp01(d.expressLocus(LocusBioB)),
		BioIntensity:   clamp01(d.expressLocus(LocusBioIntensity)),
		Camouflage:     clamp01(d.expressLocus(LocusCamouflage)),
		Aggression:     clamp01(d.expressLocus(LocusAggression)),
		Reserve:        clamp01(d.expressLocus(LocusReserve)),
	}

	// Legacy weight loci map [0,1] -> [-2,2].
	for i := 0; i < LegacyWeightCount; i++ {
		p.LegacyWeights[i] = lerp(d.expressLocus(NumTraitLoci+i), -2, 2)
	}

	return p
}

// TraitDistance is the mean absolute allele difference over trait loci,
// used as the trait term of the genetic distance.
func TraitDistance(a, b *Diploid) float64 {
	var sum float64
	for i := 0; i < NumTraitLoci; i++ {
		ea := float64(a.A[i]+a.B[i]) / 2
		eb := float64(b.A[i]+b.B[i]) / 2
		sum += math.Abs(ea - eb)
	}
	return sum / NumTraitLoci
}

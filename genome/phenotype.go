// Package genome implements the diploid genetic model: trait chromosomes,
// phenotypic expression, mutation, crossover, NEAT brain genomes and species
// assignment.
package genome

// Locus indices into a trait chromosome. All loci store normalized values in
// [0,1]; Express maps them onto the documented phenotype ranges.
const (
	LocusSize = iota
	LocusSpeed
	LocusVisionRange
	LocusEfficiency
	LocusColorR
	LocusColorG
	LocusColorB
	LocusVisionFOV
	LocusHearingSensitivity
	LocusHearingDirection
	LocusSmellSensitivity
	LocusTouchSensitivity
	LocusAltitudePreference
	LocusWingLoading
	LocusBuoyancy
	LocusSwimFrequency
	LocusBioluminescent
	LocusBioR
	LocusBioG
	LocusBioB
	LocusBioIntensity
	LocusCamouflage
	LocusAggression
	LocusReserve
	NumTraitLoci
)

// LegacyWeightCount is the weight vector length of the fixed 4-4-2 controller:
// 4*4 input weights + 4 hidden biases + 4*2 output weights + 2 output biases.
const LegacyWeightCount = 30

// NumLoci is the full chromosome length: trait loci plus the legacy
// controller weight vector.
const NumLoci = NumTraitLoci + LegacyWeightCount

// ExpressionRule decides how two alleles combine into one phenotype value.
type ExpressionRule uint8

const (
	ExpressMean ExpressionRule = iota // Co-dominant: arithmetic mean
	ExpressMax                        // Dominant: stronger allele wins
)

// expressionRules holds the per-locus rule. Continuous traits average;
// flag-like traits (bioluminescence, camouflage) take the dominant allele.
var expressionRules = func() [NumLoci]ExpressionRule {
	var rules [NumLoci]ExpressionRule
	rules[LocusBioluminescent] = ExpressMax
	rules[LocusCamouflage] = ExpressMax
	return rules
}()

// RuleFor returns the expression rule for a locus.
func RuleFor(locus int) ExpressionRule {
	if locus < 0 || locus >= NumLoci {
		return ExpressMean
	}
	return expressionRules[locus]
}

// SensoryTraits is the phenotypic sensory sub-record.
type SensoryTraits struct {
	VisionFOV          float32 // Radians, total cone width
	HearingSensitivity float32 // [0,1]
	HearingDirection   float32 // [0,1] bearing confidence
	SmellSensitivity   float32 // [0,1]
	TouchSensitivity   float32 // [0,1]
}

// LocomotionTraits is the phenotypic locomotion sub-record for fliers and
// aquatics. Unused fields stay at their defaults for terrestrial types.
type LocomotionTraits struct {
	AltitudePreference float32 // Preferred flight altitude above terrain
	WingLoading        float32 // [0,1], climbs slower when high
	Buoyancy           float32 // [0,1], neutral at 0.5
	SwimFrequency      float32 // Tail-beat modulation frequency
}

// Phenotype is the flat record of expressed scalar traits.
type Phenotype struct {
	Size        float32 // [0.3, 3]
	Speed       float32 // [0.5, 20]
	VisionRange float32 // [5, 80]
	Efficiency  float32 // [0,1]
	ColorR      float32
	ColorG      float32
	ColorB      float32

	Sensory    SensoryTraits
	Locomotion LocomotionTraits

	Bioluminescent bool
	BioR           float32
	BioG           float32
	BioB           float32
	BioIntensity   float32

	Camouflage float32 // [0,1]
	Aggression float32 // [0,1]
	Reserve    float32 // [0,1] metabolic reserve fraction

	// Weight vector for the legacy fixed-topology controller.
	LegacyWeights [LegacyWeightCount]float32
}

// clamp01 clamps x to [0,1].
func clamp01(x float32) float32 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// lerp maps a normalized locus value onto [lo, hi].
func lerp(g, lo, hi float32) float32 {
	return lo + clamp01(g)*(hi-lo)
}

package genome

import (
	"math/rand"
	"testing"

	"github.com/pthm-cable/fauna/config"
)

func testMutationConfig() *config.MutationConfig {
	return &config.MutationConfig{
		PointRate:   0.05,
		PointSigma:  0.08,
		LargeRate:   0.01,
		AddNodeProb: 0.03,
		AddLinkProb: 0.08,
		ToggleProb:  0.02,
		WeightProb:  0.8,
		WeightPower: 0.5,
	}
}

func TestExpressionRules(t *testing.T) {
	d := &Diploid{}
	d.A[LocusSize] = 0.2
	d.B[LocusSize] = 0.8
	d.A[LocusCamouflage] = 0.2
	d.B[LocusCamouflage] = 0.8

	// Continuous traits co-dominate; flag-like traits take the stronger
	// allele.
	if got := d.expressLocus(LocusSize); got != 0.5 {
		t.Fatalf("size locus = %v, want mean 0.5", got)
	}
	if got := d.expressLocus(LocusCamouflage); got != 0.8 {
		t.Fatalf("camouflage locus = %v, want dominant 0.8", got)
	}

	p := d.Express()
	if p.Camouflage != 0.8 {
		t.Fatalf("camouflage = %v, want 0.8", p.Camouflage)
	}
	// Size maps the expressed value onto [0.3, 3].
	if want := float32(0.3 + 0.5*(3-0.3)); p.Size != want {
		t.Fatalf("size = %v, want %v", p.Size, want)
	}
}

func TestExpressStaysInDocumentedRanges(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for trial := 0; trial < 50; trial++ {
		p := NewRandom(rng).Express()
		if p.Size < 0.3 || p.Size > 3 {
			t.Fatalf("size = %v out of range", p.Size)
		}
		if p.Speed < 0.5 || p.Speed > 20 {
			t.Fatalf("speed = %v out of range", p.Speed)
		}
		if p.Locomotion.SwimFrequency < 0.5 || p.Locomotion.SwimFrequency > 4 {
			t.Fatalf("swim frequency = %v out of range", p.Locomotion.SwimFrequency)
		}
		for i, w := range p.LegacyWeights {
			if w < -2 || w > 2 {
				t.Fatalf("legacy weight %d = %v out of range", i, w)
			}
		}
	}
}

func TestCrossoverDeterministicAndAllelePreserving(t *testing.T) {
	p1 := NewRandom(rand.New(rand.NewSource(1)))
	p2 := NewRandom(rand.New(rand.NewSource(2)))

	c1 := CrossoverChromosomes(p1, p2, rand.New(rand.NewSource(7)))
	c2 := CrossoverChromosomes(p1, p2, rand.New(rand.NewSource(7)))
	if c1.A != c2.A || c1.B != c2.B {
		t.Fatal("same stream state should produce the same child")
	}

	// Every child allele is sampled from the matching parent's pair.
	for i := 0; i < NumLoci; i++ {
		if c1.A[i] != p1.A[i] && c1.A[i] != p1.B[i] {
			t.Fatalf("locus %d of chromosome A not drawn from parent 1", i)
		}
		if c1.B[i] != p2.A[i] && c1.B[i] != p2.B[i] {
			t.Fatalf("locus %d of chromosome B not drawn from parent 2", i)
		}
	}
}

func TestMutateChromosomesStaysNormalized(t *testing.T) {
	cfg := testMutationConfig()
	cfg.PointRate = 1
	cfg.LargeRate = 0.2
	rng := rand.New(rand.NewSource(5))

	d := NewRandom(rng)
	before := d.A
	for round := 0; round < 20; round++ {
		MutateChromosomes(d, rng, cfg)
	}
	if d.A == before {
		t.Fatal("saturated mutation rate should perturb the chromosome")
	}
	for i := 0; i < NumLoci; i++ {
		if d.A[i] < 0 || d.A[i] > 1 || d.B[i] < 0 || d.B[i] > 1 {
			t.Fatalf("locus %d left [0,1] after mutation", i)
		}
	}
}

func TestBreedHybridSterility(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	p1 := NewRandom(rng)
	p2 := NewRandom(rng)
	idGen := NewIDGen()
	mut := testMutationConfig()

	res, err := Breed(p1, p2, 1, 1, 1, 1, idGen, rng, mut)
	if err != nil {
		t.Fatalf("breed: %v", err)
	}
	if res.Sterile {
		t.Fatal("same-species offspring should be fertile")
	}
	if res.Child == nil {
		t.Fatal("breed returned no child")
	}

	res, err = Breed(p1, p2, 1, 2, 1, 1, idGen, rng, mut)
	if err != nil {
		t.Fatalf("breed: %v", err)
	}
	if !res.Sterile {
		t.Fatal("cross-species offspring should be sterile")
	}
}

func TestBreedRejectsMissingParent(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	if _, err := Breed(nil, NewRandom(rng), 1, 1, 1, 1, NewIDGen(), rng, testMutationConfig()); err == nil {
		t.Fatal("expected error for a nil parent")
	}
}

func TestTraitDistanceSymmetricAndZero(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	a := NewRandom(rng)
	b := NewRandom(rng)

	if got := TraitDistance(a, a); got != 0 {
		t.Fatalf("self distance = %v, want 0", got)
	}
	if ab, ba := TraitDistance(a, b), TraitDistance(b, a); ab != ba {
		t.Fatalf("distance not symmetric: %v vs %v", ab, ba)
	}
	if TraitDistance(a, b) <= 0 {
		t.Fatal("distinct genomes should have positive distance")
	}
}

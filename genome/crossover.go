package genome

import (
	"math/rand"
)

// alignmentBias is the probability boost for keeping consecutive loci from
// the same parent, which preserves small co-adapted runs.
const alignmentBias = 0.15

// CrossoverChromosomes builds a child diploid from two parents. Each child
// chromosome is a uniform per-locus sample of the corresponding parent's two
// chromosomes, with a small alignment bias toward the previous locus choice.
// The brain genome is not set here; see CrossoverBrains.
func CrossoverChromosomes(p1, p2 *Diploid, rng *rand.Rand) *Diploid {
	child := &Diploid{}
	child.A = gamete(p1, rng)
	child.B = gamete(p2, rng)
	return child
}

// gamete samples one haploid chromosome from a diploid parent.
func gamete(p *Diploid, rng *rand.Rand) Chromosome {
	var c Chromosome
	fromA := rng.Float32() < 0.5
	for i := 0; i < NumLoci; i++ {
		// Alignment bias: tend to stay on the current chromosome.
		if rng.Float32() >= 0.5+alignmentBias {
			fromA = !fromA
		}
		if fromA {
			c[i] = p.A[i]
		} else {
			c[i] = p.B[i]
		}
	}
	return c
}

package genome

import (
	"math/rand"

	"github.com/pthm-cable/fauna/config"
)

// MutateChromosomes applies point and large mutations to both trait
// chromosomes. Point mutations perturb a locus with a bounded Gaussian;
// large mutations replace the locus outright. Values are clamped to [0,1]
// afterwards so every expressed trait stays inside its documented range.
func MutateChromosomes(d *Diploid, rng *rand.Rand, cfg *config.MutationConfig) {
	mutateChromosome(&d.A, rng, cfg)
	mutateChromosome(&d.B, rng, cfg)
}

func mutateChromosome(c *Chromosome, rng *rand.Rand, cfg *config.MutationConfig) {
	for i := 0; i < NumLoci; i++ {
		if rng.Float64() < cfg.LargeRate {
			c[i] = rng.Float32()
			continue
		}
		if rng.Float64() < cfg.PointRate {
			delta := float32(rng.NormFloat64()) * float32(cfg.PointSigma)
			// Bound the Gaussian at 3 sigma to keep single steps sane.
			bound := 3 * float32(cfg.PointSigma)
			if delta > bound {
				delta = bound
			} else if delta < -bound {
				delta = -bound
			}
			c[i] = clamp01(c[i] + delta)
		}
	}
}

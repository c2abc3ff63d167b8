package genome

import (
	"math/rand"
	"testing"

	"github.com/yaricom/goNEAT/v4/neat/genetics"
)

// innovationsOf maps (in, out) node pairs to innovation numbers.
func innovationsOf(g *genetics.Genome) map[int64]int64 {
	m := make(map[int64]int64, len(g.Genes))
	for _, gene := range g.Genes {
		m[connectionKey(gene.Link.InNode.Id, gene.Link.OutNode.Id)] = gene.InnovationNum
	}
	return m
}

func TestCreateBrainGenomeSharesInnovations(t *testing.T) {
	// Sparse genomes from independent streams keep the same innovation
	// number for the same (in, out) pair.
	g1 := CreateBrainGenome(1, 4, 2, 0.6, rand.New(rand.NewSource(1)))
	g2 := CreateBrainGenome(2, 4, 2, 0.6, rand.New(rand.NewSource(2)))

	i1, i2 := innovationsOf(g1), innovationsOf(g2)
	shared := 0
	for key, innov := range i1 {
		other, ok := i2[key]
		if !ok {
			continue
		}
		shared++
		if innov != other {
			t.Fatalf("pair %d: innovation %d vs %d", key, innov, other)
		}
	}
	if shared == 0 {
		t.Fatal("expected at least one shared connection between the genomes")
	}
}

func TestCreateBrainGenomeNeverEmpty(t *testing.T) {
	g := CreateBrainGenome(1, 4, 2, 0, rand.New(rand.NewSource(1)))
	if len(g.Genes) == 0 {
		t.Fatal("zero connection probability should still leave one link")
	}
}

func TestCrossoverBrainsAlignsByInnovation(t *testing.T) {
	// Fully connected parents share every innovation number but carry
	// different weights.
	p1 := CreateBrainGenome(1, 4, 2, 1, rand.New(rand.NewSource(1)))
	p2 := CreateBrainGenome(2, 4, 2, 1, rand.New(rand.NewSource(2)))

	// Grow the fitter parent so it owns disjoint genes.
	idGen := NewIDGen()
	if !addNode(p1, idGen, rand.New(rand.NewSource(3))) {
		t.Fatal("add-node mutation did not apply")
	}

	child, err := CrossoverBrains(p1, p2, 2, 1, 99, rand.New(rand.NewSource(4)))
	if err != nil {
		t.Fatalf("crossover: %v", err)
	}

	weights1 := make(map[int64]float64)
	for _, gene := range p1.Genes {
		weights1[gene.InnovationNum] = gene.Link.ConnectionWeight
	}
	weights2 := make(map[int64]float64)
	for _, gene := range p2.Genes {
		weights2[gene.InnovationNum] = gene.Link.ConnectionWeight
	}

	disjoint := 0
	for _, gene := range child.Genes {
		w1, in1 := weights1[gene.InnovationNum]
		w2, in2 := weights2[gene.InnovationNum]
		switch {
		case in1 && in2:
			if gene.Link.ConnectionWeight != w1 && gene.Link.ConnectionWeight != w2 {
				t.Fatalf("matched gene %d carries neither parent's weight", gene.InnovationNum)
			}
		case in1:
			// Disjoint and excess genes come from the fitter parent only.
			disjoint++
			if gene.Link.ConnectionWeight != w1 {
				t.Fatalf("disjoint gene %d lost its weight", gene.InnovationNum)
			}
		default:
			t.Fatalf("gene %d exists in neither parent", gene.InnovationNum)
		}
	}
	if disjoint == 0 {
		t.Fatal("fitter parent's structural genes should survive crossover")
	}

	// Every genome produced by crossover keeps the full set of the fitter
	// parent's innovations.
	childInnovs := make(map[int64]bool, len(child.Genes))
	for _, gene := range child.Genes {
		childInnovs[gene.InnovationNum] = true
	}
	for innov := range weights1 {
		if !childInnovs[innov] {
			t.Fatalf("innovation %d from the fitter parent missing in the child", innov)
		}
	}
}

func TestCrossoverBrainsDeterministic(t *testing.T) {
	p1 := CreateBrainGenome(1, 4, 2, 1, rand.New(rand.NewSource(1)))
	p2 := CreateBrainGenome(2, 4, 2, 1, rand.New(rand.NewSource(2)))

	c1, err := CrossoverBrains(p1, p2, 1, 1, 99, rand.New(rand.NewSource(5)))
	if err != nil {
		t.Fatalf("crossover: %v", err)
	}
	c2, err := CrossoverBrains(p1, p2, 1, 1, 99, rand.New(rand.NewSource(5)))
	if err != nil {
		t.Fatalf("crossover: %v", err)
	}

	if len(c1.Genes) != len(c2.Genes) {
		t.Fatalf("gene counts differ: %d vs %d", len(c1.Genes), len(c2.Genes))
	}
	for i := range c1.Genes {
		if c1.Genes[i].InnovationNum != c2.Genes[i].InnovationNum ||
			c1.Genes[i].Link.ConnectionWeight != c2.Genes[i].Link.ConnectionWeight {
			t.Fatalf("gene %d differs between identically seeded crossovers", i)
		}
	}
}

func TestCloneBrainIsDeepCopy(t *testing.T) {
	g := CreateBrainGenome(1, 4, 2, 1, rand.New(rand.NewSource(1)))
	clone, err := CloneBrain(g, 2)
	if err != nil {
		t.Fatalf("clone: %v", err)
	}
	if clone.Id != 2 {
		t.Fatalf("clone id = %d, want 2", clone.Id)
	}
	if len(clone.Genes) != len(g.Genes) {
		t.Fatalf("gene count = %d, want %d", len(clone.Genes), len(g.Genes))
	}

	before := g.Genes[0].Link.ConnectionWeight
	clone.Genes[0].Link.ConnectionWeight = before + 1
	if g.Genes[0].Link.ConnectionWeight != before {
		t.Fatal("mutating the clone changed the original")
	}
}

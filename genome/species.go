package genome

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/pthm-cable/fauna/config"
)

// Species is a cluster of genetically similar creatures.
type Species struct {
	ID             int
	Representative *Diploid // Centroid genome for distance comparisons
	Members        []uint32 // Creature ids
	Age            int
	Staleness      int // Windows without offspring
	OffspringCount int
}

// Manager assigns creatures to species by genetic distance against species
// representatives. A creature founds a new species when its distance to every
// extant representative exceeds the compatibility threshold.
type Manager struct {
	Species       []*Species
	cfg           *config.NeuralConfig
	nextSpeciesID int
}

// NewManager creates a species manager.
func NewManager(cfg *config.NeuralConfig) *Manager {
	return &Manager{
		Species:       make([]*Species, 0),
		cfg:           cfg,
		nextSpeciesID: 1,
	}
}

// Distance is the combined genetic distance: NEAT compatibility over the
// brain genomes plus the trait chromosome term.
func (m *Manager) Distance(a, b *Diploid) float64 {
	d := TraitDistance(a, b) * 2
	if a.Brain != nil && b.Brain != nil {
		d += BrainCompatibility(a.Brain, b.Brain, m.cfg)
	}
	return d
}

// Assign finds or creates a species for the genome. Returns the species ID.
func (m *Manager) Assign(d *Diploid) int {
	if d == nil {
		return 0
	}

	for _, sp := range m.Species {
		if sp.Representative == nil {
			continue
		}
		if m.Distance(d, sp.Representative) < m.cfg.CompatThreshold {
			return sp.ID
		}
	}

	sp := &Species{
		ID:             m.nextSpeciesID,
		Representative: d.Clone(),
		Members:        make([]uint32, 0),
	}
	m.nextSpeciesID++
	m.Species = append(m.Species, sp)

	return sp.ID
}

// AddMember records a creature in its species.
func (m *Manager) AddMember(speciesID int, id uint32) {
	if sp := m.find(speciesID); sp != nil {
		sp.Members = append(sp.Members, id)
	}
}

// RemoveMember removes a creature from its species.
func (m *Manager) RemoveMember(speciesID int, id uint32) {
	sp := m.find(speciesID)
	if sp == nil {
		return
	}
	for i, member := range sp.Members {
		if member == id {
			sp.Members[i] = sp.Members[len(sp.Members)-1]
			sp.Members = sp.Members[:len(sp.Members)-1]
			return
		}
	}
}

// RecordOffspring resets staleness on reproductive success.
func (m *Manager) RecordOffspring(speciesID int) {
	if sp := m.find(speciesID); sp != nil {
		sp.OffspringCount++
		sp.Staleness = 0
	}
}

// EndWindow ages species and drops empty stale clusters. Called periodically
// by the orchestrator, not per tick.
func (m *Manager) EndWindow() {
	active := make([]*Species, 0, len(m.Species))
	for _, sp := range m.Species {
		sp.Age++
		sp.Staleness++
		if len(sp.Members) > 0 && sp.Staleness < m.cfg.DropOffAge {
			active = append(active, sp)
		}
	}
	m.Species = active
}

// LiveIDs returns the ids of species with members, ascending.
func (m *Manager) LiveIDs() []int {
	ids := make([]int, 0, len(m.Species))
	for _, sp := range m.Species {
		if len(sp.Members) > 0 {
			ids = append(ids, sp.ID)
		}
	}
	sort.Ints(ids)
	return ids
}

// Count returns the number of species clusters.
func (m *Manager) Count() int {
	return len(m.Species)
}

func (m *Manager) find(speciesID int) *Species {
	for _, sp := range m.Species {
		if sp.ID == speciesID {
			return sp
		}
	}
	return nil
}

// BreedResult is the outcome of producing an offspring genome.
type BreedResult struct {
	Child   *Diploid
	Sterile bool // Hybrid sterility: parents from different species
}

// Breed produces an offspring genome from two parents: chromosome crossover,
// brain crossover aligned by innovation number, then mutation. Offspring of
// cross-species pairings are viable but sterile.
func Breed(p1, p2 *Diploid, species1, species2 int, fitness1, fitness2 float64,
	idGen *IDGen, rng *rand.Rand, mut *config.MutationConfig) (BreedResult, error) {

	if p1 == nil || p2 == nil {
		return BreedResult{}, fmt.Errorf("empty parent genome")
	}

	child := CrossoverChromosomes(p1, p2, rng)

	if p1.Brain != nil && p2.Brain != nil {
		brain, err := CrossoverBrains(p1.Brain, p2.Brain, fitness1, fitness2, idGen.NextID(), rng)
		if err != nil {
			return BreedResult{}, fmt.Errorf("brain crossover: %w", err)
		}
		MutateBrain(brain, idGen, rng, mut)
		child.Brain = brain
	} else if p1.Brain != nil {
		brain, err := CloneBrain(p1.Brain, idGen.NextID())
		if err != nil {
			return BreedResult{}, fmt.Errorf("brain clone: %w", err)
		}
		MutateBrain(brain, idGen, rng, mut)
		child.Brain = brain
	}

	MutateChromosomes(child, rng, mut)

	return BreedResult{
		Child:   child,
		Sterile: species1 != species2,
	}, nil
}

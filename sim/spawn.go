package sim

import (
	"fmt"
	"math"

	"github.com/pthm-cable/fauna/components"
	"github.com/pthm-cable/fauna/genome"
	"github.com/pthm-cable/fauna/neural"
	"github.com/pthm-cable/fauna/traits"
	"github.com/pthm-cable/fauna/world"
)

// ErrPopulationFull is returned when a spawn would exceed the population cap.
var ErrPopulationFull = fmt.Errorf("population cap reached")

// placementAttempts bounds habitat rejection sampling per spawn.
const placementAttempts = 32

// spawnInitialPopulation seeds the world with cfg.Sim.InitialPerType
// creatures of every type, placed in habitat-compatible terrain.
func (s *Sim) spawnInitialPopulation() {
	for t := traits.Type(0); t < traits.NumTypes; t++ {
		for i := 0; i < s.cfg.Sim.InitialPerType; i++ {
			pos := s.placeForType(t)
			d := genome.NewRandom(s.streams.Genome())
			d.Brain = genome.CreateBrainGenome(
				s.idGen.NextID(), neural.BrainInputs, neural.BrainOutputs,
				s.cfg.Neural.ConnectionProb, s.streams.Neural(),
			)
			s.spawnFromGenome(d, t, pos, 0, 0, false)
		}
	}
	s.log.Info("population seeded",
		"creatures", len(s.entities), "species", s.species.Count())
}

// enforceFloors tops up any type that fell below cfg.Sim.MinPerType with
// fresh random spawns. Disabled by default; deterministic test scenarios
// leave it off so extinction stays observable.
func (s *Sim) enforceFloors() {
	floor := s.cfg.Sim.MinPerType
	if floor <= 0 {
		return
	}

	var counts [traits.NumTypes]int
	query := s.filter.Query()
	for query.Next() {
		_, _, cr, _, _ := query.Get()
		if cr.Alive {
			counts[cr.Type]++
		}
	}

	for t := traits.Type(0); t < traits.NumTypes; t++ {
		for counts[t] < floor && len(s.entities) < s.cfg.Sim.MaxPopulation {
			pos := s.placeForType(t)
			d := genome.NewRandom(s.streams.Genome())
			d.Brain = genome.CreateBrainGenome(
				s.idGen.NextID(), neural.BrainInputs, neural.BrainOutputs,
				s.cfg.Neural.ConnectionProb, s.streams.Neural(),
			)
			id := s.spawnFromGenome(d, t, pos, 0, 0, false)
			s.log.Debug("floor respawn", "type", traits.Get(t).Name, "id", id)
			counts[t]++
		}
	}
}

// placeForType rejection-samples a position matching the type's habitat.
func (s *Sim) placeForType(t traits.Type) components.Vec3 {
	r := s.streams.Spawn()
	half := s.cfg.Derived.HalfWorld
	sea := float32(s.cfg.World.SeaLevel)
	wantsWater := traits.Get(t).Locomotion == traits.AquaticLoc

	var pos components.Vec3
	for i := 0; i < placementAttempts; i++ {
		pos = components.Vec3{
			X: (r.Float32()*2 - 1) * half * 0.95,
			Z: (r.Float32()*2 - 1) * half * 0.95,
		}
		underwater := s.planet.HeightAt(pos.X, pos.Z) < sea
		if underwater == wantsWater {
			break
		}
	}
	return pos
}

// spawnFromGenome creates one creature from a genome and registers it in
// every side table. Ids are monotonic and never reused.
func (s *Sim) spawnFromGenome(
	d *genome.Diploid,
	ctype traits.Type,
	pos components.Vec3,
	generation int,
	parentID uint32,
	sterile bool,
) uint32 {
	id := s.nextID
	s.nextID++
	s.spawnWithID(id, d, ctype, pos, generation, parentID, sterile)
	return id
}

// spawnWithID registers a creature under a caller-chosen id. Used by
// snapshot restore, which must preserve saved ids.
func (s *Sim) spawnWithID(
	id uint32,
	d *genome.Diploid,
	ctype traits.Type,
	pos components.Vec3,
	generation int,
	parentID uint32,
	sterile bool,
) {
	phen := d.Express()
	s.phens[id] = &phen
	s.genomes[id] = d

	speciesID := s.species.Assign(d)
	s.species.AddMember(speciesID, id)
	s.speciesCount[speciesID]++
	if s.speciesCount[speciesID] == 1 {
		s.speciesClass[speciesID] = world.PhonemeClassFor(s.planet.BiomeAt(pos.X, pos.Z))
	}

	if d.Brain != nil {
		brain, err := neural.NewBrain(d.Brain)
		if err != nil || !brain.Viable() {
			d.NonViable = true
			s.counters.NonViable++
		}
		if err == nil {
			s.brains[id] = brain
		}
	} else {
		s.brains[id] = neural.NewLegacy(&s.phens[id].LegacyWeights)
	}

	row := traits.Get(ctype)
	cr := components.Creature{
		ID:         id,
		SpeciesID:  speciesID,
		Generation: generation,
		ParentID:   parentID,
		Type:       ctype,
		Energy:     row.MaxEnergy * 0.5,
		MaxEnergy:  row.MaxEnergy,
		Alive:      true,
		Sterile:    sterile,
		Facing:     (s.streams.Spawn().Float32()*2 - 1) * math.Pi,
	}
	cr.WanderTarget = pos

	posC := components.Position{V: pos}
	s.resolveVertical(&posC, row, &phen, 0)
	velC := components.Velocity{}
	slots := components.BehaviorSlots{}
	mem := components.MemoryBuffer{}

	entity := s.mapper.NewEntity(&posC, &velC, &cr, &slots, &mem)
	s.entities[id] = entity
}

// Spawn inserts a creature of the given type at pos. A nil genome gets a
// random one with a fresh brain. Returns the new creature's id.
func (s *Sim) Spawn(ctype traits.Type, pos components.Vec3, d *genome.Diploid) (uint32, error) {
	if ctype >= traits.NumTypes {
		s.counters.InvalidInput++
		return 0, fmt.Errorf("%w: unknown creature type %d", ErrInvalidInput, ctype)
	}
	half := s.cfg.Derived.HalfWorld
	if pos.X < -half || pos.X > half || pos.Z < -half || pos.Z > half {
		s.counters.InvalidInput++
		return 0, fmt.Errorf("%w: position outside world", ErrInvalidInput)
	}
	if len(s.entities) >= s.cfg.Sim.MaxPopulation {
		return 0, ErrPopulationFull
	}
	if d == nil {
		d = genome.NewRandom(s.streams.Genome())
		d.Brain = genome.CreateBrainGenome(
			s.idGen.NextID(), neural.BrainInputs, neural.BrainOutputs,
			s.cfg.Neural.ConnectionProb, s.streams.Neural(),
		)
	}
	return s.spawnFromGenome(d, ctype, pos, 0, 0, false), nil
}

// Kill flags a creature dead. The corpse is collected at the next tick
// boundary like any other death.
func (s *Sim) Kill(id uint32) error {
	entity, ok := s.entities[id]
	if !ok {
		s.counters.InvalidInput++
		return fmt.Errorf("%w: no creature %d", ErrInvalidInput, id)
	}
	s.crMap.Get(entity).Alive = false
	return nil
}

// Mutate applies chromosome and brain mutations to a living creature and
// re-expresses its phenotype in place, so its controller sees the new
// traits immediately.
func (s *Sim) Mutate(id uint32) error {
	if _, ok := s.entities[id]; !ok {
		s.counters.InvalidInput++
		return fmt.Errorf("%w: no creature %d", ErrInvalidInput, id)
	}
	d := s.genomes[id]
	genome.MutateChromosomes(d, s.streams.Genome(), &s.cfg.Mutation)
	*s.phens[id] = d.Express()

	if d.Brain == nil {
		return nil
	}
	genome.MutateBrain(d.Brain, s.idGen, s.streams.Neural(), &s.cfg.Mutation)
	brain, err := neural.NewBrain(d.Brain)
	if err != nil || !brain.Viable() {
		d.NonViable = true
		s.counters.NonViable++
	}
	if err == nil {
		s.brains[id] = brain
	}
	return nil
}

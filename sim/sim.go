// Package sim is the simulation orchestrator: it owns the ECS world, the
// planet, the behavior coordinator and the per-tick update pipeline, and it
// is the only place creature state is mutated.
package sim

import (
	"errors"
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/fauna/behavior"
	"github.com/pthm-cable/fauna/components"
	"github.com/pthm-cable/fauna/config"
	"github.com/pthm-cable/fauna/genome"
	"github.com/pthm-cable/fauna/naming"
	"github.com/pthm-cable/fauna/neural"
	"github.com/pthm-cable/fauna/rng"
	"github.com/pthm-cable/fauna/systems"
	"github.com/pthm-cable/fauna/traits"
	"github.com/pthm-cable/fauna/world"
)

// ErrInvalidInput is returned for rejected external inputs: non-positive
// tick deltas, unknown creature ids, out-of-range spawn parameters.
var ErrInvalidInput = errors.New("invalid input")

// Sim is the complete simulation state for one planet.
type Sim struct {
	cfg     *config.Config
	streams *rng.Streams
	log     *slog.Logger

	world  *ecs.World
	mapper *ecs.Map5[
		components.Position,
		components.Velocity,
		components.Creature,
		components.BehaviorSlots,
		components.MemoryBuffer,
	]
	filter *ecs.Filter5[
		components.Position,
		components.Velocity,
		components.Creature,
		components.BehaviorSlots,
		components.MemoryBuffer,
	]

	// Individual component mappers for point lookups.
	posMap *ecs.Map1[components.Position]
	velMap *ecs.Map1[components.Velocity]
	crMap  *ecs.Map1[components.Creature]
	memMap *ecs.Map1[components.MemoryBuffer]

	// Side tables keyed by creature id. Ids are never reused.
	entities map[uint32]ecs.Entity
	genomes  map[uint32]*genome.Diploid
	phens    map[uint32]*genome.Phenotype
	brains   map[uint32]neural.Controller
	nextID   uint32

	planet     *world.World
	index      *systems.SpatialIndex
	sensor     *systems.Sensor
	sounds     *systems.SoundBus
	pheromones *systems.PheromoneField

	species      *genome.Manager
	speciesCount map[int]int
	speciesClass map[int]world.PhonemeClass
	idGen        *genome.IDGen
	names        *naming.Service

	coord *behavior.Coordinator
	cmds  behavior.CommandQueue
	view  *creatureView

	now  float64
	tick uint64

	births []birthRequest
	deaths []deadCreature
	foods  []systems.FoodPoint // reusable sense buffer

	observer Observer
	counters Counters
}

// SetObserver installs a lifecycle observer. Pass nil to detach.
func (s *Sim) SetObserver(o Observer) { s.observer = o }

// Observer receives lifecycle notifications. All methods are called
// synchronously from Tick; implementations must not call back into the Sim.
type Observer interface {
	CreatureBorn(id, parentID uint32, ctype traits.Type, speciesID, generation int, now float64)
	CreatureDied(id uint32, ctype traits.Type, speciesID int, age float32, kills int32, d *genome.Diploid, now float64)
}

// birthRequest is a mating pair queued during the pipeline and resolved at
// tick end.
type birthRequest struct {
	MotherID uint32
	FatherID uint32
}

// deadCreature is a removal collected during iteration and applied after.
type deadCreature struct {
	entity ecs.Entity
	id     uint32
}

// New creates a simulation with a generated planet and the initial
// population. The same cfg and seed always produce the same simulation.
func New(cfg *config.Config, seed int64, log *slog.Logger) *Sim {
	s := newSim(cfg, seed, log)
	s.spawnInitialPopulation()
	return s
}

// newSim builds an empty simulation shell: world, planet and subsystems but
// no creatures.
func newSim(cfg *config.Config, seed int64, log *slog.Logger) *Sim {
	if log == nil {
		log = slog.Default()
	}
	w := ecs.NewWorld()

	s := &Sim{
		cfg:     cfg,
		streams: rng.NewStreams(seed),
		log:     log,
		world:   w,
		mapper: ecs.NewMap5[
			components.Position,
			components.Velocity,
			components.Creature,
			components.BehaviorSlots,
			components.MemoryBuffer,
		](w),
		filter: ecs.NewFilter5[
			components.Position,
			components.Velocity,
			components.Creature,
			components.BehaviorSlots,
			components.MemoryBuffer,
		](w),
		posMap:       ecs.NewMap1[components.Position](w),
		velMap:       ecs.NewMap1[components.Velocity](w),
		crMap:        ecs.NewMap1[components.Creature](w),
		memMap:       ecs.NewMap1[components.MemoryBuffer](w),
		entities:     make(map[uint32]ecs.Entity),
		genomes:      make(map[uint32]*genome.Diploid),
		phens:        make(map[uint32]*genome.Phenotype),
		brains:       make(map[uint32]neural.Controller),
		nextID:       1,
		speciesCount: make(map[int]int),
		speciesClass: make(map[int]world.PhonemeClass),
		idGen:        genome.NewIDGen(),
	}

	s.planet = world.New(cfg, seed)
	s.index = systems.NewSpatialIndex(cfg.Derived.WorldW32, cfg.Spatial.GridSize)
	s.sensor = systems.NewSensor(&cfg.Sensory)
	s.sounds = systems.NewSoundBus(cfg.Sound.TTL)
	s.pheromones = systems.NewPheromoneField(
		cfg.Derived.WorldW32,
		float32(cfg.Pheromone.CellSize),
		cfg.Pheromone.Evaporation,
		cfg.Pheromone.Diffusion,
	)
	s.species = genome.NewManager(&cfg.Neural)
	s.names = naming.NewService(&cfg.Naming, seed)
	s.coord = behavior.NewCoordinator(cfg, s.planet, s.streams.Variety())
	s.view = newCreatureView(s)
	return s
}

// Tick advances the simulation by dt seconds. Non-positive deltas are
// rejected.
func (s *Sim) Tick(dt float64) error {
	if dt <= 0 {
		s.counters.InvalidInput++
		return ErrInvalidInput
	}
	s.tick++
	s.now += dt

	s.updateSpatialIndex()
	s.view.refresh()

	s.sounds.Update(dt)
	s.pheromones.Update(dt)
	s.planet.UpdateFood(dt)

	s.coord.Update(dt, s.now, s.view, &s.cmds)

	for _, id := range s.view.order {
		s.updateCreature(id, dt)
	}

	s.applyCommands()
	s.processBirths()
	s.cleanupDead()
	s.enforceFloors()
	s.collectCounters()
	return nil
}

// updateSpatialIndex rebuilds the index from living creatures.
func (s *Sim) updateSpatialIndex() {
	s.index.Clear()
	query := s.filter.Query()
	for query.Next() {
		entity := query.Entity()
		pos, _, cr, _, _ := query.Get()
		if !cr.Alive {
			continue
		}
		s.index.Insert(entity, cr.ID, cr.Type, pos.V)
	}
}

// Now returns the simulation clock in seconds.
func (s *Sim) Now() float64 { return s.now }

// TickCount returns the number of completed ticks.
func (s *Sim) TickCount() uint64 { return s.tick }

// Counters returns the last tick's observability counters.
func (s *Sim) Counters() Counters { return s.counters }

// Planet returns the generated world.
func (s *Sim) Planet() *world.World { return s.planet }

// Names returns the species naming service.
func (s *Sim) Names() *naming.Service { return s.names }

// Coordinator returns the behavior coordinator.
func (s *Sim) Coordinator() *behavior.Coordinator { return s.coord }

// Population returns the number of living creatures.
func (s *Sim) Population() int { return len(s.view.order) }

// Distributions appends the live population's energies and ages to the
// given buffers and returns them, for telemetry window aggregates.
func (s *Sim) Distributions(energies, ages []float64) ([]float64, []float64) {
	query := s.filter.Query()
	for query.Next() {
		_, _, cr, _, _ := query.Get()
		if !cr.Alive {
			continue
		}
		energies = append(energies, float64(cr.Energy))
		ages = append(ages, float64(cr.Age))
	}
	return energies, ages
}

// SpeciesName resolves the display name for a species, deriving the naming
// flavor from the biome where the species first appeared.
func (s *Sim) SpeciesName(speciesID int, ctype traits.Type) naming.Name {
	class := s.speciesClass[speciesID]
	return s.names.SpeciesName(uint32(speciesID), class, ctype)
}

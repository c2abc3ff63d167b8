package sim

import (
	"math"

	"github.com/pthm-cable/fauna/components"
	"github.com/pthm-cable/fauna/genome"
	"github.com/pthm-cable/fauna/neural"
	"github.com/pthm-cable/fauna/steering"
	"github.com/pthm-cable/fauna/systems"
	"github.com/pthm-cable/fauna/traits"
	"github.com/pthm-cable/fauna/world"
)

const (
	// fearDecayRate drains accumulated fear per second.
	fearDecayRate = 0.12
	// eatRate is energy consumed from a food source per second of contact.
	eatRate = 8.0
	// footstepSpeed is the ground speed above which movement is audible.
	footstepSpeed = 4.0
)

// updateCreature runs the full per-creature pipeline for one tick:
// sense, think, steer, integrate, feed, fight, metabolize, reproduce.
func (s *Sim) updateCreature(id uint32, dt float64) {
	entity := s.entities[id]
	pos := s.posMap.Get(entity)
	vel := s.velMap.Get(entity)
	cr := s.crMap.Get(entity)
	mem := s.memMap.Get(entity)
	if !cr.Alive {
		return
	}
	phen := s.phens[id]
	row := traits.Get(cr.Type)
	dt32 := float32(dt)

	tickDown(&cr.HuntingCooldown, dt32)
	tickDown(&cr.MigrationCooldown, dt32)
	tickDown(&cr.ReproCooldown, dt32)
	cr.Fear -= fearDecayRate * dt32
	if cr.Fear < 0 {
		cr.Fear = 0
	}

	// Sense
	climate := s.planet.ClimateAt(pos.V, s.now)
	s.foods = s.foods[:0]
	for _, src := range s.planet.FoodSourcesNear(pos.V, phen.VisionRange) {
		if src.EnergyYield <= 0 || !digestible(row, src.Kind) {
			continue
		}
		s.foods = append(s.foods, systems.FoodPoint{Position: src.Position, Yield: src.EnergyYield})
	}
	self := systems.SelfState{
		ID:        cr.ID,
		Type:      cr.Type,
		SpeciesID: cr.SpeciesID,
		Position:  pos.V,
		Velocity:  vel.V,
		Facing:    cr.Facing,
		Energy:    cr.Energy,
		MaxEnergy: cr.MaxEnergy,
		Age:       cr.Age,
		Lifespan:  row.Lifespan,
		Fear:      cr.Fear,
		Phenotype: phen,
		Memory:    mem,
	}
	percepts := s.sensor.Sense(&self, s.index, s.targetLookup, s.sounds, s.pheromones,
		climate, s.foods, s.now, s.streams.Sense())
	mem.Decay(dt32, float32(s.cfg.Memory.DecayPerSecond))

	// Think
	motor := s.think(cr)

	// Steer
	st := s.view.states[id]
	threat, threatVel, threatened := nearestThreat(percepts)
	var fleeForce components.Vec3
	if threatened {
		fleeForce = s.coord.FleeForce(st, threat, threatVel)
		cr.Fear = clamp01(cr.Fear + 0.4*dt32)
	}
	heading := cr.Facing + motor.SteerAngle
	desired := components.FromHeading(heading).Scale(phen.Speed * motor.SpeedScale)
	motorForce := desired.Sub(vel.V)

	force := s.coord.Combine(st, s.view, fleeForce, motorForce, &cr.WanderTarget)
	force = force.Add(steering.AvoidBoundary(
		pos.V, s.cfg.Derived.HalfWorld, float32(s.cfg.Physics.BoundaryMargin), s.coord.Params()))

	// Integrate
	phys := steering.Params{MaxSpeed: phen.Speed, MaxForce: s.cfg.Derived.MaxForce32}
	vel.V = steering.ApplyForce(vel.V, force, dt32, phys)
	pos.V = pos.V.Add(vel.V.Scale(dt32))
	s.clampToWorld(&pos.V)
	s.resolveVertical(pos, row, phen, dt32)
	if vel.V.Len2D() > 0.1 {
		cr.Facing = vel.V.Heading2D()
	}

	s.emit(cr, pos.V, motor, dt32)
	s.feed(cr, row, pos.V, dt32)

	if row.AttackDamage > 0 && cr.HuntingCooldown <= 0 &&
		(motor.AttackTendency > 0.5 || phen.Aggression > 0.7) {
		s.tryAttack(cr, row, pos.V)
	}

	// Metabolize
	speed := vel.V.Len2D()
	cost := float32(s.cfg.Energy.BaseCost) +
		float32(s.cfg.Energy.SensoryCost) +
		float32(s.cfg.Energy.MoveCost)*speed
	cost *= (0.5 + 0.5*phen.Size) * (1.5 - 0.5*phen.Efficiency)
	cr.Energy -= cost * dt32
	cr.Age += dt32

	s.maybeReproduce(cr, row, pos.V, motor.EmitMating)
}

// think evaluates the creature's controller. A missing or non-viable
// controller yields neutral output.
func (s *Sim) think(cr *components.Creature) neural.MotorOutput {
	ctrl := s.brains[cr.ID]
	motor := neural.Neutral()
	if ctrl != nil && ctrl.Viable() {
		motor = ctrl.Evaluate(s.sensor.NeuralInputs())
	}
	cr.MotorSteer = motor.SteerAngle
	cr.MotorSpeed = motor.SpeedScale
	cr.AttackTendency = motor.AttackTendency
	cr.FleeTendency = motor.FleeTendency
	cr.GroupCohesionBias = motor.GroupCohesionBias
	cr.ExploreBias = motor.ExploreBias
	cr.EmitAlarm = motor.EmitAlarm
	cr.EmitMating = motor.EmitMating
	return motor
}

// nearestThreat picks the closest predator or danger percept.
func nearestThreat(percepts []systems.Percept) (components.Vec3, components.Vec3, bool) {
	var pos, vel components.Vec3
	best := float32(-1)
	for i := range percepts {
		p := &percepts[i]
		if p.Kind != systems.PerceptPredator && p.Kind != systems.PerceptDanger {
			continue
		}
		if best < 0 || p.Distance < best {
			best = p.Distance
			pos = p.Position
			vel = p.Velocity
		}
	}
	return pos, vel, best >= 0
}

// clampToWorld keeps the horizontal position inside the planet footprint.
func (s *Sim) clampToWorld(p *components.Vec3) {
	half := s.cfg.Derived.HalfWorld
	if p.X > half {
		p.X = half
	} else if p.X < -half {
		p.X = -half
	}
	if p.Z > half {
		p.Z = half
	} else if p.Z < -half {
		p.Z = -half
	}
}

// resolveVertical pins the creature to its movement medium: walkers ride the
// terrain, fliers ease toward their preferred altitude, aquatics hold a
// buoyancy depth between seabed and surface.
func (s *Sim) resolveVertical(pos *components.Position, row *traits.Row, phen *genome.Phenotype, dt32 float32) {
	h := s.planet.HeightAt(pos.V.X, pos.V.Z)
	sea := float32(s.cfg.World.SeaLevel)

	switch row.Locomotion {
	case traits.Aerial:
		target := h + phen.Locomotion.AltitudePreference
		climb := (2 - phen.Locomotion.WingLoading) * 4 * dt32
		pos.V.Y = approach(pos.V.Y, target, climb)
	case traits.AquaticLoc:
		if h < sea {
			depth := sea - h
			// Tail beats bob the body around its buoyancy depth, faster
			// swimmers at a higher frequency.
			bob := depth * 0.05 * float32(math.Sin(2*math.Pi*float64(phen.Locomotion.SwimFrequency)*s.now))
			y := h + depth*phen.Locomotion.Buoyancy + bob
			if y > sea {
				y = sea
			} else if y < h {
				y = h
			}
			pos.V.Y = y
		} else {
			pos.V.Y = h
		}
	default:
		pos.V.Y = h
	}
}

// emit writes this creature's sounds and pheromones for the tick.
func (s *Sim) emit(cr *components.Creature, pos components.Vec3, motor neural.MotorOutput, dt32 float32) {
	s.pheromones.Deposit(pos, systems.PheromoneTrail, 0.2*dt32)
	if cr.Fear > 0.6 {
		s.pheromones.Deposit(pos, systems.PheromoneDanger, cr.Fear*dt32)
	}
	if motor.EmitAlarm {
		s.sounds.Emit(pos, systems.SoundAlarm, 1, 0.8, cr.ID)
	}
	if motor.EmitMating {
		s.sounds.Emit(pos, systems.SoundMating, 0.7, 0.4, cr.ID)
		s.pheromones.Deposit(pos, systems.PheromoneMating, 0.5*dt32)
	}
}

// feed lets the creature graze any digestible food source within touch
// range.
func (s *Sim) feed(cr *components.Creature, row *traits.Row, pos components.Vec3, dt32 float32) {
	if cr.Energy >= cr.MaxEnergy {
		return
	}
	reach := float32(s.cfg.Sensory.TouchRange)
	for _, src := range s.planet.FoodSourcesNear(pos, reach) {
		if src.EnergyYield <= 0 || !digestible(row, src.Kind) {
			continue
		}
		got := s.planet.ConsumeFood(src.ID, eatRate*dt32)
		if got <= 0 {
			continue
		}
		cr.Energy += got
		s.pheromones.Deposit(pos, systems.PheromoneFood, 0.3*dt32)
		if cr.Energy >= cr.MaxEnergy {
			cr.Energy = cr.MaxEnergy
			break
		}
	}
}

// tryAttack resolves one solo strike against the nearest eligible prey in
// attack range. Pack takedowns are handled by the hunt module; this path
// covers opportunistic solo predation.
func (s *Sim) tryAttack(cr *components.Creature, row *traits.Row, pos components.Vec3) {
	var victim *components.Creature
	best := float32(-1)
	for _, e := range s.index.QueryRadius(pos, row.AttackRange) {
		if e.ID == cr.ID {
			continue
		}
		cand := s.crMap.Get(e.Entity)
		if !cand.Alive {
			continue
		}
		candPhen := s.phens[e.ID]
		if !traits.CanBeHuntedBy(cand.Type, cr.Type, candPhen.Size) {
			continue
		}
		d := components.Vec3{X: e.X, Z: e.Z}.Sub(pos).LenSq2D()
		if best < 0 || d < best {
			best = d
			victim = cand
		}
	}
	if victim == nil {
		return
	}

	victim.Energy -= row.AttackDamage
	victim.Fear = 1
	cr.HuntingCooldown = float32(s.cfg.Sim.AttackCooldown)
	s.sounds.Emit(pos, systems.SoundCombat, 1, 0.5, cr.ID)

	if victim.Energy <= 0 {
		cr.KillCount++
		cr.Energy += victim.MaxEnergy * float32(s.cfg.Energy.KillEnergyGain) * row.HuntingEfficiency
		if cr.Energy > cr.MaxEnergy {
			cr.Energy = cr.MaxEnergy
		}
	}
}

// maybeReproduce queues a birth when this creature and a nearby conspecific
// are both ready. The lower id initiates so a pair mates at most once per
// tick. Energy is deducted at pairing time.
func (s *Sim) maybeReproduce(cr *components.Creature, row *traits.Row, pos components.Vec3, signaling bool) {
	if cr.Sterile || cr.ReproCooldown > 0 {
		return
	}
	if cr.Energy < row.ReproThreshold || cr.Age < float32(s.cfg.Sim.MaturityAge) {
		return
	}
	for _, e := range s.index.QueryRadiusByType(pos, float32(s.cfg.Sim.MateRange), cr.Type) {
		if e.ID <= cr.ID {
			continue
		}
		mate := s.crMap.Get(e.Entity)
		if !mate.Alive || mate.Sterile || mate.ReproCooldown > 0 {
			continue
		}
		if mate.Energy < row.ReproThreshold || mate.Age < float32(s.cfg.Sim.MaturityAge) {
			continue
		}
		cr.ReproCooldown = float32(s.cfg.Sim.ReproCooldown)
		mate.ReproCooldown = float32(s.cfg.Sim.ReproCooldown)
		cr.Energy -= row.ReproCost
		mate.Energy -= row.ReproCost * 0.5
		s.births = append(s.births, birthRequest{MotherID: cr.ID, FatherID: e.ID})
		if signaling {
			s.pheromones.Deposit(pos, systems.PheromoneMating, 1)
		}
		return
	}
}

// digestible reports whether a diet can extract energy from a food kind.
func digestible(row *traits.Row, kind world.FoodKind) bool {
	switch kind {
	case world.FoodCarrion:
		return row.Diet == traits.DietScavenger || row.Diet == traits.DietOmnivore ||
			row.Diet == traits.DietCarnivore
	case world.FoodGrass:
		return row.DigestsGrass
	case world.FoodTreeLeaf:
		return row.DigestsLeaves
	case world.FoodBushBerry, world.FoodTreeFruit:
		return row.DigestsFruit
	case world.FoodPlankton:
		return row.Diet == traits.DietFilterFeeder
	case world.FoodAlgae, world.FoodSeaweed, world.FoodKelp:
		return row.Diet == traits.DietHerbivore || row.Diet == traits.DietOmnivore
	}
	return false
}

func tickDown(v *float32, dt float32) {
	*v -= dt
	if *v < 0 {
		*v = 0
	}
}

func approach(v, target, step float32) float32 {
	if v < target {
		v += step
		if v > target {
			v = target
		}
	} else {
		v -= step
		if v < target {
			v = target
		}
	}
	return v
}

func clamp01(x float32) float32 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

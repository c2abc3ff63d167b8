package behavior

import (
	"math/rand"

	"github.com/pthm-cable/fauna/components"
	"github.com/pthm-cable/fauna/config"
	"github.com/pthm-cable/fauna/steering"
	"github.com/pthm-cable/fauna/traits"
	"github.com/pthm-cable/fauna/world"
)

// Coordinator owns the five behavior modules plus the variety layer and
// combines their forces under a fixed priority cascade.
type Coordinator struct {
	cfg  *config.Config
	phys steering.Params

	Territorial *Territorial
	Social      *Social
	Hunt        *PackHunt
	Migration   *Migrator
	Care        *ParentalCare
	variety     *Variety
}

// speedCeiling bounds the steering math; individual creatures clamp to
// their own phenotype speed during integration.
const speedCeiling = 20

// NewCoordinator wires the modules together.
func NewCoordinator(cfg *config.Config, planet *world.World, varietyRNG *rand.Rand) *Coordinator {
	phys := steering.Params{
		MaxSpeed: speedCeiling,
		MaxForce: cfg.Derived.MaxForce32,
	}

	social := NewSocial(&cfg.Social, phys)
	return &Coordinator{
		cfg:         cfg,
		phys:        phys,
		Territorial: NewTerritorial(&cfg.Territory, phys),
		Social:      social,
		Hunt:        NewPackHunt(&cfg.Hunt, phys, social),
		Migration:   NewMigrator(&cfg.Migration, phys, social, planet),
		Care:        NewParentalCare(&cfg.Care, phys),
		variety:     NewVariety(phys, varietyRNG),
	}
}

// Update advances all modules in a fixed order.
func (co *Coordinator) Update(dt float64, now float64, view CreatureView, cmds *CommandQueue) {
	co.Territorial.Update(dt, now, view, cmds)
	co.Social.Update(dt, now, view, cmds)
	co.Hunt.Update(dt, now, view, cmds)
	co.Migration.Update(dt, now, view, cmds)
	co.Care.Update(dt, now, view, cmds)
}

// Combine arbitrates the module forces for one creature. fleeForce comes
// from the creature's percepts (computed by the update pipeline), motorForce
// is the neural controller's steering bias, and wanderTarget is the
// creature's persisted wander point.
//
// Priority cascade: fleeing dominates everything; hunting reduces
// territorial and social pull; migration keeps social and parental company
// at reduced weight; parental duty suppresses territorial and social; only
// an otherwise idle creature receives variety drift.
func (co *Coordinator) Combine(
	c *CreatureState,
	view CreatureView,
	fleeForce components.Vec3,
	motorForce components.Vec3,
	wanderTarget *components.Vec3,
) components.Vec3 {
	motorWeight := float32(co.cfg.Behavior.MotorWeight)
	if motorWeight > 0.5 {
		motorWeight = 0.5
	}
	motor := motorForce.Scale(motorWeight)

	fleeing := !fleeForce.IsZero()
	hunting := co.Hunt.HuntOf(c.ID) != nil

	var force components.Vec3
	switch {
	case fleeing:
		force = fleeForce.Scale(float32(co.cfg.Behavior.FleeForce))
	case hunting:
		force = co.Hunt.Force(c, view)
		force = force.Add(co.Territorial.Force(c, view).Scale(0.3))
		force = force.Add(co.Social.Force(c, view).Scale(0.3))
	case co.Migration.MigrationOf(c.ID) != nil:
		force = co.Migration.Force(c, view)
		force = force.Add(co.Social.Force(c, view).Scale(0.5))
		force = force.Add(co.Care.Force(c, view).Scale(0.5))
	case co.careActive(c.ID):
		force = co.Care.Force(c, view)
		force = force.Add(co.Migration.Force(c, view))
	default:
		force = co.Territorial.Force(c, view)
		force = force.Add(co.Social.Force(c, view))
		force = force.Add(co.Care.Force(c, view))
	}

	if !fleeing && !hunting {
		force = force.Add(co.variety.Force(c, wanderTarget).Scale(float32(co.cfg.Behavior.VarietyWeight)))
	}

	return force.Add(motor).Truncated(co.phys.MaxForce)
}

// careActive reports whether the creature is a bonded parent or child.
func (co *Coordinator) careActive(id uint32) bool {
	if co.Care.IsDependentChild(id) {
		return true
	}
	return len(co.Care.byParent[id]) > 0
}

// FleeForce computes the flee contribution from the nearest visible threat.
// threat is the threat's position; returns zero when the threat is outside
// the type's flee distance.
func (co *Coordinator) FleeForce(c *CreatureState, threat components.Vec3, threatVel components.Vec3) components.Vec3 {
	fleeDist := traits.Table[c.Type].FleeDistance * float32(co.cfg.Behavior.FleeDistance)
	if fleeDist <= 0 {
		return components.Vec3{}
	}
	if threat.Sub(c.Position).Len2D() > fleeDist {
		return components.Vec3{}
	}
	return steering.Evasion(c.Position, c.Velocity, threat, threatVel, co.phys)
}

// OnBirth fans the birth hook out to interested modules.
func (co *Coordinator) OnBirth(parentID, childID uint32, parentType traits.Type, now float64) {
	co.Care.OnBirth(parentID, childID, parentType, now)
}

// OnDeath fans the death hook out to every module.
func (co *Coordinator) OnDeath(id uint32) {
	co.Territorial.OnDeath(id)
	co.Social.OnDeath(id)
	co.Hunt.OnDeath(id)
	co.Migration.OnDeath(id)
	co.Care.OnDeath(id)
}

// Params exposes the steering limits used by the modules.
func (co *Coordinator) Params() steering.Params { return co.phys }

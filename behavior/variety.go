package behavior

import (
	"math/rand"

	"github.com/pthm-cable/fauna/components"
	"github.com/pthm-cable/fauna/steering"
)

// Variety adds exploratory drift so idle creatures do not freeze in place or
// fall into lockstep. It draws from its own random stream.
type Variety struct {
	phys steering.Params
	rng  *rand.Rand
}

// NewVariety creates the layer with its dedicated stream.
func NewVariety(phys steering.Params, rng *rand.Rand) *Variety {
	return &Variety{phys: phys, rng: rng}
}

// Force returns a wander force. wanderTarget is the creature's persisted
// jitter point and is updated in place.
func (v *Variety) Force(c *CreatureState, wanderTarget *components.Vec3) components.Vec3 {
	return steering.Wander(c.Position, c.Velocity, wanderTarget, v.rng, v.phys)
}

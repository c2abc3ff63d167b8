// Package behavior implements the coordinated behavior state machines:
// territories, social groups, pack hunts, migrations, parental care and the
// arbitration layer that combines their steering forces.
package behavior

import (
	"github.com/pthm-cable/fauna/components"
	"github.com/pthm-cable/fauna/systems"
	"github.com/pthm-cable/fauna/traits"
)

// CreatureState is the read-only snapshot behavior modules see. Modules never
// mutate creatures directly; mutations go through the command queue.
type CreatureState struct {
	ID        uint32
	Type      traits.Type
	SpeciesID int
	Position  components.Vec3
	Velocity  components.Vec3
	Facing    float32
	Energy    float32
	MaxEnergy float32
	Age       float32
	Alive     bool
	Fear      float32
	Fitness   float32
	Size      float32
	MaxSpeed  float32

	HuntCooldown      float32
	MigrationCooldown float32
}

// CreatureView is the capability modules use to look at the population.
// QueryNear shares the spatial index's reusable buffer: consume the view
// before the next query.
type CreatureView interface {
	ByID(id uint32) (*CreatureState, bool)
	ForEach(visit func(*CreatureState))
	QueryNear(pos components.Vec3, r float32) []systems.SpatialEntry
}

// CommandKind identifies a deferred mutation requested by a behavior module.
type CommandKind uint8

const (
	CmdAdjustEnergy CommandKind = iota
	CmdKill
	CmdSetHuntCooldown
	CmdSetMigrationCooldown
	CmdAddFear
	CmdCreditKill
)

// Command is one deferred mutation. The orchestrator drains the queue after
// all behavior updates finish.
type Command struct {
	Kind   CommandKind
	ID     uint32
	Amount float32
}

// CommandQueue collects deferred mutations during a behavior update.
type CommandQueue struct {
	cmds []Command
}

// Push appends a command.
func (q *CommandQueue) Push(c Command) {
	q.cmds = append(q.cmds, c)
}

// Drain returns the queued commands and resets the queue. The returned slice
// is valid until the next Push.
func (q *CommandQueue) Drain() []Command {
	out := q.cmds
	q.cmds = q.cmds[:0]
	return out
}

// Len returns the number of queued commands.
func (q *CommandQueue) Len() int { return len(q.cmds) }

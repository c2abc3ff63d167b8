// Package components defines ECS components for the simulation.
package components

import (
	"github.com/pthm-cable/fauna/traits"
)

// Position is a creature's world position. Y is terrain height for walkers,
// altitude for fliers, and depth for aquatics.
type Position struct {
	V Vec3
}

// Velocity is a creature's velocity.
type Velocity struct {
	V Vec3
}

// Creature holds identity, physiology and per-tick behavior state.
type Creature struct {
	// Identity
	ID         uint32
	SpeciesID  int
	Generation int
	ParentID   uint32 // 0 = no parent
	Type       traits.Type

	// Physiology
	Energy            float32
	MaxEnergy         float32
	Age               float32
	Alive             bool
	Sterile           bool
	FitnessModifier   float32
	KillCount         int32
	HuntingCooldown   float32
	MigrationCooldown float32
	ReproCooldown     float32
	Fear              float32 // [0,1]
	Facing            float32 // [-pi, pi]

	// Per-tick steering state
	WanderTarget Vec3    // Persisted wander jitter point
	MotorSteer   float32 // Last controller steer angle
	MotorSpeed   float32 // Last controller speed scale [0,1]

	// NEAT extended motor state (zero for legacy controllers)
	AttackTendency    float32
	FleeTendency      float32
	GroupCohesionBias float32
	ExploreBias       float32
	EmitAlarm         bool
	EmitMating        bool
}

// BehaviorSlots references the behavior records a creature participates in.
// All references are by id; dangling ids are treated as dissolved.
type BehaviorSlots struct {
	TerritoryID uint32 // 0 = none
	GroupID     uint32
	HuntID      uint32
	MigrationID uint32
	BondID      uint32 // Parent-child bond this creature is the child of
}

// MemoryKind classifies a remembered location.
type MemoryKind uint8

const (
	MemoryFood MemoryKind = iota
	MemoryDanger
	MemoryShelter
	MemoryMate
	MemoryWater
)

// MemoryEntry is one remembered location.
type MemoryEntry struct {
	Location   Vec3
	Kind       MemoryKind
	Strength   float32 // Decays linearly with time
	Importance float32
	Timestamp  float32 // Simulation seconds
}

// MemoryCapacity bounds the per-creature spatial memory.
const MemoryCapacity = 12

// MemoryBuffer holds a creature's bounded spatial memory.
// Fixed-size array for cache locality, same layout idea as a cell buffer.
type MemoryBuffer struct {
	Entries [MemoryCapacity]MemoryEntry
	Count   uint8
}

// Remember inserts an entry, evicting the lowest strength*importance entry
// when at capacity. Returns false if the entry lost the eviction contest.
func (m *MemoryBuffer) Remember(e MemoryEntry) bool {
	if m.Count < MemoryCapacity {
		m.Entries[m.Count] = e
		m.Count++
		return true
	}
	worst := 0
	worstScore := m.Entries[0].Strength * m.Entries[0].Importance
	for i := 1; i < int(m.Count); i++ {
		score := m.Entries[i].Strength * m.Entries[i].Importance
		if score < worstScore {
			worst = i
			worstScore = score
		}
	}
	if e.Strength*e.Importance <= worstScore {
		return false
	}
	m.Entries[worst] = e
	return true
}

// Decay reduces entry strengths linearly and drops entries that reach zero.
func (m *MemoryBuffer) Decay(dt, rate float32) {
	i := uint8(0)
	for i < m.Count {
		m.Entries[i].Strength -= rate * dt
		if m.Entries[i].Strength <= 0 {
			m.Count--
			m.Entries[i] = m.Entries[m.Count]
			continue
		}
		i++
	}
}

// Strongest returns the highest-strength entry of a kind, or nil.
func (m *MemoryBuffer) Strongest(kind MemoryKind) *MemoryEntry {
	var best *MemoryEntry
	for i := 0; i < int(m.Count); i++ {
		e := &m.Entries[i]
		if e.Kind != kind {
			continue
		}
		if best == nil || e.Strength > best.Strength {
			best = e
		}
	}
	return best
}

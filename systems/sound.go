package systems

import (
	"github.com/pthm-cable/fauna/components"
)

// SoundKind classifies an emitted sound.
type SoundKind uint8

const (
	SoundFootsteps SoundKind = iota
	SoundCall
	SoundAlarm
	SoundMating
	SoundCombat
	SoundSplash
)

func (k SoundKind) String() string {
	switch k {
	case SoundFootsteps:
		return "footsteps"
	case SoundCall:
		return "call"
	case SoundAlarm:
		return "alarm"
	case SoundMating:
		return "mating"
	case SoundCombat:
		return "combat"
	case SoundSplash:
		return "splash"
	}
	return "unknown"
}

// SoundEvent is one transient sound in the world. Intensity decays as the
// event ages; events past their TTL are pruned on the next bus update.
type SoundEvent struct {
	Position  components.Vec3
	Kind      SoundKind
	Intensity float32
	Frequency float32
	Timestamp float64
	SourceID  uint32
}

// SoundBus collects the tick's sound events and expires old ones. It is
// written by the emission phase and read by hearing; events survive at most
// TTL seconds.
type SoundBus struct {
	events []SoundEvent
	ttl    float64
	now    float64
}

// NewSoundBus creates a bus whose events live for ttl seconds.
func NewSoundBus(ttl float64) *SoundBus {
	return &SoundBus{
		events: make([]SoundEvent, 0, 128),
		ttl:    ttl,
	}
}

// Emit records a sound at the current bus time.
func (b *SoundBus) Emit(pos components.Vec3, kind SoundKind, intensity, frequency float32, sourceID uint32) {
	b.events = append(b.events, SoundEvent{
		Position:  pos,
		Kind:      kind,
		Intensity: intensity,
		Frequency: frequency,
		Timestamp: b.now,
		SourceID:  sourceID,
	})
}

// Update advances bus time and prunes expired events in place.
func (b *SoundBus) Update(dt float64) {
	b.now += dt
	kept := b.events[:0]
	for _, e := range b.events {
		if b.now-e.Timestamp < b.ttl {
			kept = append(kept, e)
		}
	}
	b.events = kept
}

// Events returns the live events. The slice is owned by the bus.
func (b *SoundBus) Events() []SoundEvent { return b.events }

// Age returns how long ago the event was emitted, in seconds.
func (b *SoundBus) Age(e *SoundEvent) float64 { return b.now - e.Timestamp }

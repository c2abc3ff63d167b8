package telemetry

import (
	"github.com/pthm-cable/fauna/traits"
)

// EventType identifies telemetry events.
type EventType string

const (
	EventBirth            EventType = "birth"
	EventDeath            EventType = "death"
	EventSpeciesEmerged   EventType = "species_emerged"
	EventSpeciesExtinct   EventType = "species_extinct"
	EventPopulationCrash  EventType = "population_crash"
	EventPredatorRecovery EventType = "predator_recovery"
	EventFirstPackHuntWin EventType = "first_pack_hunt"
	EventMassMigration    EventType = "mass_migration"
	EventEcosystemStable  EventType = "ecosystem_stable"
)

// Event is one row in the event log.
type Event struct {
	Type       EventType `csv:"type"`
	SimTimeSec float64   `csv:"sim_time"`
	CreatureID uint32    `csv:"creature_id"`
	SpeciesID  int       `csv:"species_id"`
	Kind       string    `csv:"kind"`
	Detail     string    `csv:"detail"`
}

// NewBirthEvent records a creature entering the world.
func NewBirthEvent(now float64, id uint32, ctype traits.Type, speciesID int) Event {
	return Event{
		Type:       EventBirth,
		SimTimeSec: now,
		CreatureID: id,
		SpeciesID:  speciesID,
		Kind:       traits.Get(ctype).Name,
	}
}

// NewDeathEvent records a creature leaving the world.
func NewDeathEvent(now float64, id uint32, ctype traits.Type, speciesID int) Event {
	return Event{
		Type:       EventDeath,
		SimTimeSec: now,
		CreatureID: id,
		SpeciesID:  speciesID,
		Kind:       traits.Get(ctype).Name,
	}
}

// NewSpeciesEvent records a species appearing or disappearing.
func NewSpeciesEvent(t EventType, now float64, speciesID int, name string) Event {
	return Event{
		Type:       t,
		SimTimeSec: now,
		SpeciesID:  speciesID,
		Detail:     name,
	}
}

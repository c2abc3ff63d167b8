package telemetry

import (
	"github.com/pthm-cable/fauna/genome"
	"github.com/pthm-cable/fauna/traits"
)

// Lifetime accumulates per-creature statistics from birth to death.
type Lifetime struct {
	ID         uint32
	Type       traits.Type
	SpeciesID  int
	Generation int
	BornSec    float64
	DiedSec    float64
	AgeSec     float32
	Kills      int32
	Children   int
}

// LifetimeTracker follows every living creature and finalizes a record on
// death.
type LifetimeTracker struct {
	alive    map[uint32]*Lifetime
	finished []Lifetime
}

// NewLifetimeTracker creates an empty tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{alive: make(map[uint32]*Lifetime)}
}

// Born registers a new creature.
func (t *LifetimeTracker) Born(id uint32, ctype traits.Type, speciesID, generation int, now float64) {
	t.alive[id] = &Lifetime{
		ID:         id,
		Type:       ctype,
		SpeciesID:  speciesID,
		Generation: generation,
		BornSec:    now,
	}
}

// ChildOf credits a parent with one offspring. Unknown parents are ignored;
// the parent may have died before the birth was processed.
func (t *LifetimeTracker) ChildOf(parentID uint32) {
	if lt, ok := t.alive[parentID]; ok {
		lt.Children++
	}
}

// Died finalizes the record and returns it. The second return is false when
// the creature was never registered.
func (t *LifetimeTracker) Died(id uint32, age float32, kills int32, now float64) (Lifetime, bool) {
	lt, ok := t.alive[id]
	if !ok {
		return Lifetime{}, false
	}
	delete(t.alive, id)
	lt.DiedSec = now
	lt.AgeSec = age
	lt.Kills = kills
	t.finished = append(t.finished, *lt)
	return *lt, true
}

// Drain returns the finished records accumulated since the last call.
func (t *LifetimeTracker) Drain() []Lifetime {
	out := t.finished
	t.finished = nil
	return out
}

// Living reports how many creatures the tracker is currently following.
func (t *LifetimeTracker) Living() int { return len(t.alive) }

// Recorder ties lifetime tracking, the event stream and the hall of fame
// together behind the simulation's observer hook.
type Recorder struct {
	Lifetimes *LifetimeTracker
	Hall      *HallOfFame

	events []Event
}

// NewRecorder creates a recorder with a hall of the given capacity per type.
func NewRecorder(hallSize int) *Recorder {
	return &Recorder{
		Lifetimes: NewLifetimeTracker(),
		Hall:      NewHallOfFame(hallSize),
	}
}

// CreatureBorn implements sim.Observer.
func (r *Recorder) CreatureBorn(id, parentID uint32, ctype traits.Type, speciesID, generation int, now float64) {
	r.Lifetimes.Born(id, ctype, speciesID, generation, now)
	if parentID != 0 {
		r.Lifetimes.ChildOf(parentID)
	}
	r.events = append(r.events, NewBirthEvent(now, id, ctype, speciesID))
}

// CreatureDied implements sim.Observer.
func (r *Recorder) CreatureDied(id uint32, ctype traits.Type, speciesID int, age float32, kills int32, d *genome.Diploid, now float64) {
	lt, ok := r.Lifetimes.Died(id, age, kills, now)
	r.events = append(r.events, NewDeathEvent(now, id, ctype, speciesID))
	if ok && d != nil {
		r.Hall.Consider(ctype, d, lt)
	}
}

// DrainEvents returns events recorded since the last call.
func (r *Recorder) DrainEvents() []Event {
	out := r.events
	r.events = nil
	return out
}

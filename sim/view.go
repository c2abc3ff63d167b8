package sim

import (
	"sort"

	"github.com/pthm-cable/fauna/behavior"
	"github.com/pthm-cable/fauna/components"
	"github.com/pthm-cable/fauna/systems"
)

// creatureView is the read-only population snapshot handed to the behavior
// modules. It is rebuilt at the start of every tick so all modules see
// start-of-tick state regardless of pipeline order.
type creatureView struct {
	sim    *Sim
	states map[uint32]*behavior.CreatureState
	order  []uint32 // live ids, ascending
}

func newCreatureView(s *Sim) *creatureView {
	return &creatureView{
		sim:    s,
		states: make(map[uint32]*behavior.CreatureState),
	}
}

// refresh rebuilds the snapshot from the ECS world and syncs each
// creature's behavior slot references.
func (v *creatureView) refresh() {
	for id := range v.states {
		if _, ok := v.sim.entities[id]; !ok {
			delete(v.states, id)
		}
	}
	v.order = v.order[:0]

	query := v.sim.filter.Query()
	for query.Next() {
		pos, vel, cr, slots, _ := query.Get()
		if !cr.Alive {
			continue
		}
		st := v.states[cr.ID]
		if st == nil {
			st = &behavior.CreatureState{}
			v.states[cr.ID] = st
		}
		phen := v.sim.phens[cr.ID]

		st.ID = cr.ID
		st.Type = cr.Type
		st.SpeciesID = cr.SpeciesID
		st.Position = pos.V
		st.Velocity = vel.V
		st.Facing = cr.Facing
		st.Energy = cr.Energy
		st.MaxEnergy = cr.MaxEnergy
		st.Age = cr.Age
		st.Alive = cr.Alive
		st.Fear = cr.Fear
		st.Fitness = cr.FitnessModifier + float32(cr.KillCount)
		st.Size = phen.Size
		st.MaxSpeed = phen.Speed
		st.HuntCooldown = cr.HuntingCooldown
		st.MigrationCooldown = cr.MigrationCooldown

		v.syncSlots(cr.ID, slots)
		v.order = append(v.order, cr.ID)
	}
	sort.Slice(v.order, func(i, j int) bool { return v.order[i] < v.order[j] })
}

// syncSlots mirrors the coordinator's membership records into the
// creature's slot component so inspection tools see them.
func (v *creatureView) syncSlots(id uint32, slots *components.BehaviorSlots) {
	co := v.sim.coord
	slots.TerritoryID = 0
	if t := co.Territorial.TerritoryOf(id); t != nil {
		slots.TerritoryID = t.ID
	}
	slots.GroupID = 0
	if g := co.Social.GroupOf(id); g != nil {
		slots.GroupID = g.ID
	}
	slots.HuntID = 0
	if h := co.Hunt.HuntOf(id); h != nil {
		slots.HuntID = h.ID
	}
	slots.MigrationID = 0
	if m := co.Migration.MigrationOf(id); m != nil {
		slots.MigrationID = m.ID
	}
	slots.BondID = 0
	if b := co.Care.BondOf(id); b != nil {
		slots.BondID = b.ID
	}
}

// ByID returns the snapshot for a living creature.
func (v *creatureView) ByID(id uint32) (*behavior.CreatureState, bool) {
	st, ok := v.states[id]
	return st, ok
}

// ForEach visits all living creatures in ascending id order.
func (v *creatureView) ForEach(visit func(*behavior.CreatureState)) {
	for _, id := range v.order {
		visit(v.states[id])
	}
}

// QueryNear returns the spatial entries within r of pos. The slice aliases
// the index's reusable buffer.
func (v *creatureView) QueryNear(pos components.Vec3, r float32) []systems.SpatialEntry {
	return v.sim.index.QueryRadius(pos, r)
}

// targetLookup resolves a spatial-index id to the observable state sensing
// needs.
func (s *Sim) targetLookup(id uint32) (systems.TargetInfo, bool) {
	entity, ok := s.entities[id]
	if !ok {
		return systems.TargetInfo{}, false
	}
	pos := s.posMap.Get(entity)
	vel := s.velMap.Get(entity)
	cr := s.crMap.Get(entity)
	if !cr.Alive {
		return systems.TargetInfo{}, false
	}
	phen := s.phens[id]
	maxE := cr.MaxEnergy
	if maxE <= 0 {
		maxE = 1
	}
	return systems.TargetInfo{
		Position:   pos.V,
		Velocity:   vel.V,
		SpeciesID:  cr.SpeciesID,
		Size:       phen.Size,
		Camouflage: phen.Camouflage,
		EnergyFrac: cr.Energy / maxE,
	}, true
}

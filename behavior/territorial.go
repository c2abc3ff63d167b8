package behavior

import (
	"sort"

	"github.com/pthm-cable/fauna/components"
	"github.com/pthm-cable/fauna/config"
	"github.com/pthm-cable/fauna/steering"
	"github.com/pthm-cable/fauna/traits"
)

// Territory is one owned patch of ground. Strength reflects how established
// the claim is and scales both defense and repulsion.
type Territory struct {
	ID              uint32
	OwnerID         uint32
	Center          components.Vec3
	Radius          float32
	Strength        float32 // [0,1]
	IntrusionCount  int
	EstablishedTime float64
	LastDefenseTime float64
	ResourceQuality float32
}

// Territorial manages territory establishment, reinforcement and abandonment
// for territorial creature types.
type Territorial struct {
	cfg   *config.TerritoryConfig
	phys  steering.Params
	terrs map[uint32]*Territory // keyed by owner id
	byID  map[uint32]*Territory
	next  uint32

	abandoned uint64
}

// NewTerritorial creates the module.
func NewTerritorial(cfg *config.TerritoryConfig, phys steering.Params) *Territorial {
	return &Territorial{
		cfg:   cfg,
		phys:  phys,
		terrs: make(map[uint32]*Territory),
		byID:  make(map[uint32]*Territory),
	}
}

// Update advances every territory and lets eligible owners establish new
// ones.
func (m *Territorial) Update(dt float64, now float64, view CreatureView, _ *CommandQueue) {
	radius := float32(m.cfg.Radius)

	for _, ownerID := range m.sortedOwners() {
		terr := m.terrs[ownerID]
		owner, ok := view.ByID(ownerID)
		if !ok || !owner.Alive {
			m.remove(terr)
			continue
		}

		dist := owner.Position.Sub(terr.Center).Len2D()
		if dist <= terr.Radius {
			terr.Strength += float32(m.cfg.StrengthGainRate * dt)
			if terr.Strength > 1 {
				terr.Strength = 1
			}
		} else {
			terr.Strength -= float32(m.cfg.StrengthDecay * dt)
		}

		if dist > float32(m.cfg.AbandonDistance)*terr.Radius && terr.Strength < 0.1 {
			m.remove(terr)
			m.abandoned++
			continue
		}
		if terr.Strength <= 0 {
			if now-terr.EstablishedTime > m.cfg.MaxAge {
				m.remove(terr)
				m.abandoned++
				continue
			}
			terr.Strength = 0
		}

		terr.IntrusionCount = 0
		for _, en := range view.QueryNear(terr.Center, terr.Radius) {
			if en.ID != ownerID && en.Type == owner.Type {
				terr.IntrusionCount++
			}
		}
		if terr.IntrusionCount > 0 {
			terr.LastDefenseTime = now
		}
	}

	// Establishment pass.
	view.ForEach(func(c *CreatureState) {
		if !c.Alive || !traits.Table[c.Type].IsTerritorial {
			return
		}
		if _, has := m.terrs[c.ID]; has {
			return
		}
		if c.Energy < float32(m.cfg.MinEnergy) {
			return
		}
		if m.strongOverlapNear(c.Position, radius) {
			return
		}
		m.next++
		terr := &Territory{
			ID:              m.next,
			OwnerID:         c.ID,
			Center:          c.Position,
			Radius:          radius,
			Strength:        0.1,
			EstablishedTime: now,
			ResourceQuality: 0.5,
		}
		m.terrs[c.ID] = terr
		m.byID[terr.ID] = terr
	})
}

// strongOverlapNear reports whether an established claim blocks a new
// territory at center.
func (m *Territorial) strongOverlapNear(center components.Vec3, radius float32) bool {
	for _, terr := range m.terrs {
		if terr.Strength <= 0.5 {
			continue
		}
		if terr.Center.Sub(center).Len2D() < 0.8*(terr.Radius+radius) {
			return true
		}
	}
	return false
}

// Force returns the territorial steering contribution for one creature.
func (m *Territorial) Force(c *CreatureState, view CreatureView) components.Vec3 {
	if terr, ok := m.terrs[c.ID]; ok {
		return m.ownerForce(c, terr, view)
	}
	return m.intruderForce(c)
}

func (m *Territorial) ownerForce(c *CreatureState, terr *Territory, view CreatureView) components.Vec3 {
	var nearest *CreatureState
	var nearestSq float32
	for _, en := range view.QueryNear(terr.Center, terr.Radius) {
		if en.ID == c.ID || en.Type != c.Type {
			continue
		}
		intruder, ok := view.ByID(en.ID)
		if !ok || !intruder.Alive {
			continue
		}
		distSq := intruder.Position.Sub(c.Position).LenSq2D()
		if nearest == nil || distSq < nearestSq {
			nearest = intruder
			nearestSq = distSq
		}
	}

	if nearest != nil {
		scale := terr.Strength * (1 + float32(terr.IntrusionCount)/float32(m.cfg.MaxIntrusions))
		force := steering.Pursuit(c.Position, c.Velocity, nearest.Position, nearest.Velocity, m.phys)
		return force.Scale(scale * float32(m.cfg.DefenseForce)).Truncated(m.phys.MaxForce)
	}

	// Gentle recentering keeps the owner on its claim.
	return steering.Arrive(c.Position, c.Velocity, terr.Center, terr.Radius, m.phys).Scale(0.3)
}

func (m *Territorial) intruderForce(c *CreatureState) components.Vec3 {
	var force components.Vec3
	for _, ownerID := range m.sortedOwners() {
		terr := m.terrs[ownerID]
		if terr.OwnerID == c.ID {
			continue
		}
		offset := c.Position.Sub(terr.Center)
		dist := offset.Len2D()
		if dist >= terr.Radius || dist < 1e-3 {
			continue
		}
		scale := terr.Strength * (1 - dist/terr.Radius) * float32(m.cfg.RepulsionForce)
		force = force.Add(offset.Normalized().Scale(scale))
	}
	return force.Truncated(m.phys.MaxForce)
}

// OnDeath releases the dead creature's territory.
func (m *Territorial) OnDeath(id uint32) {
	if terr, ok := m.terrs[id]; ok {
		m.remove(terr)
	}
}

func (m *Territorial) remove(terr *Territory) {
	delete(m.terrs, terr.OwnerID)
	delete(m.byID, terr.ID)
}

// sortedOwners returns owner ids in ascending order so map iteration never
// perturbs update order or force summation between runs.
func (m *Territorial) sortedOwners() []uint32 {
	ids := make([]uint32, 0, len(m.terrs))
	for id := range m.terrs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// HasTerritory reports whether a creature currently owns a territory.
func (m *Territorial) HasTerritory(id uint32) bool {
	_, ok := m.terrs[id]
	return ok
}

// TerritoryOf returns a creature's territory, or nil.
func (m *Territorial) TerritoryOf(id uint32) *Territory {
	return m.terrs[id]
}

// Count returns the number of active territories.
func (m *Territorial) Count() int { return len(m.terrs) }

// AbandonedCount returns the cumulative abandoned-territory counter.
func (m *Territorial) AbandonedCount() uint64 { return m.abandoned }

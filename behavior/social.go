package behavior

import (
	"math"
	"sort"

	"github.com/pthm-cable/fauna/components"
	"github.com/pthm-cable/fauna/config"
	"github.com/pthm-cable/fauna/steering"
	"github.com/pthm-cable/fauna/traits"
)

// Group is one social unit: herd, pack, flock or school. Members and leader
// are ids; dangling ids are pruned on update.
type Group struct {
	ID       uint32
	Kind     traits.GroupKind
	Type     traits.Type
	LeaderID uint32
	Members  []uint32
	Loyalty  map[uint32]float32
	Centroid components.Vec3
	AvgVel   components.Vec3

	lastElection float64
}

// Size returns the member count.
func (g *Group) Size() int { return len(g.Members) }

// Social manages group formation, membership, loyalty, leader elections and
// formation-keeping forces.
type Social struct {
	cfg  *config.SocialConfig
	phys steering.Params

	groups   map[uint32]*Group
	memberOf map[uint32]uint32 // creature id -> group id
	next     uint32

	neighborBuf []steering.Neighbor
}

// NewSocial creates the module.
func NewSocial(cfg *config.SocialConfig, phys steering.Params) *Social {
	return &Social{
		cfg:         cfg,
		phys:        phys,
		groups:      make(map[uint32]*Group),
		memberOf:    make(map[uint32]uint32),
		neighborBuf: make([]steering.Neighbor, 0, 32),
	}
}

// Update advances loyalty and membership, re-elects stale leaders, merges,
// splits and forms groups.
func (m *Social) Update(dt float64, now float64, view CreatureView, _ *CommandQueue) {
	for _, gid := range m.sortedIDs() {
		g := m.groups[gid]
		m.refresh(g, dt, view)
		if g.Size() < m.cfg.MinGroupSize {
			m.dissolve(g)
			continue
		}
		if _, ok := view.ByID(g.LeaderID); !ok || now-g.lastElection > m.cfg.LeaderInterval {
			m.elect(g, now, view)
		}
	}

	m.mergeGroups(view)
	m.splitGroups(now, view)
	m.formGroups(now, view)
}

// refresh prunes dead members, updates the centroid and applies loyalty gain
// and decay.
func (m *Social) refresh(g *Group, dt float64, view CreatureView) {
	var centroid, avgVel components.Vec3
	kept := g.Members[:0]

	for _, id := range g.Members {
		c, ok := view.ByID(id)
		if !ok || !c.Alive {
			delete(g.Loyalty, id)
			delete(m.memberOf, id)
			continue
		}
		kept = append(kept, id)
		centroid = centroid.Add(c.Position)
		avgVel = avgVel.Add(c.Velocity)
	}
	g.Members = kept
	if len(kept) == 0 {
		return
	}
	inv := 1 / float32(len(kept))
	g.Centroid = centroid.Scale(inv)
	g.AvgVel = avgVel.Scale(inv)

	i := 0
	for i < len(g.Members) {
		id := g.Members[i]
		c, _ := view.ByID(id)
		dist := c.Position.Sub(g.Centroid).Len2D()
		switch {
		case dist <= float32(m.cfg.FormationRadius):
			g.Loyalty[id] += float32(m.cfg.LoyaltyGain * dt)
			if g.Loyalty[id] > 1 {
				g.Loyalty[id] = 1
			}
		case dist > float32(m.cfg.BreakDistance):
			g.Loyalty[id] -= float32(m.cfg.LoyaltyDecay * dt)
		}
		if g.Loyalty[id] <= 0 {
			delete(g.Loyalty, id)
			delete(m.memberOf, id)
			g.Members[i] = g.Members[len(g.Members)-1]
			g.Members = g.Members[:len(g.Members)-1]
			continue
		}
		i++
	}
}

// elect picks the member maximizing the leadership score.
func (m *Social) elect(g *Group, now float64, view CreatureView) {
	var best uint32
	bestScore := float32(-1)
	for _, id := range g.Members {
		c, ok := view.ByID(id)
		if !ok {
			continue
		}
		score := 0.3*c.Fitness + 0.3*c.Energy/200 + 0.2*c.Size + 0.2*g.Loyalty[id]
		if score > bestScore {
			best = id
			bestScore = score
		}
	}
	if best != 0 {
		g.LeaderID = best
		g.lastElection = now
	}
}

// mergeGroups joins same-type groups whose centroids sit inside their
// combined formation footprint.
func (m *Social) mergeGroups(view CreatureView) {
	radius := float32(m.cfg.FormationRadius)
	ids := m.sortedIDs()
	for _, aid := range ids {
		a := m.groups[aid]
		if a == nil {
			continue
		}
		for _, bid := range ids {
			b := m.groups[bid]
			if b == nil || a.ID >= b.ID || a.Type != b.Type {
				continue
			}
			if a.Size()+b.Size() > m.cfg.MaxGroupSize {
				continue
			}
			if a.Centroid.Sub(b.Centroid).Len2D() > radius {
				continue
			}
			for _, id := range b.Members {
				a.Members = append(a.Members, id)
				a.Loyalty[id] = b.Loyalty[id]
				m.memberOf[id] = a.ID
			}
			b.Members = b.Members[:0]
			m.dissolve(b)
		}
	}
}

// splitGroups halves groups that grew past 1.5x the maximum size.
func (m *Social) splitGroups(now float64, view CreatureView) {
	var born []*Group
	for _, gid := range m.sortedIDs() {
		g := m.groups[gid]
		if float64(g.Size()) <= 1.5*float64(m.cfg.MaxGroupSize) {
			continue
		}
		half := g.Size() / 2
		m.next++
		ng := &Group{
			ID:      m.next,
			Kind:    g.Kind,
			Type:    g.Type,
			Loyalty: make(map[uint32]float32),
		}
		for _, id := range g.Members[half:] {
			ng.Members = append(ng.Members, id)
			ng.Loyalty[id] = g.Loyalty[id]
			delete(g.Loyalty, id)
			m.memberOf[id] = ng.ID
		}
		g.Members = g.Members[:half]
		m.elect(ng, now, view)
		born = append(born, ng)
	}
	for _, g := range born {
		m.groups[g.ID] = g
	}
}

// formGroups clusters ungrouped social creatures within the formation
// distance.
func (m *Social) formGroups(now float64, view CreatureView) {
	formDist := float32(m.cfg.FormDistance)

	view.ForEach(func(c *CreatureState) {
		if !c.Alive {
			return
		}
		kind := traits.Table[c.Type].GroupKind
		if kind == traits.Solitary {
			return
		}
		if _, grouped := m.memberOf[c.ID]; grouped {
			return
		}

		// Collect ungrouped same-type creatures around the candidate. The
		// query view is copied into ids before any further lookups.
		var ids []uint32
		for _, en := range view.QueryNear(c.Position, formDist) {
			if en.Type != c.Type {
				continue
			}
			if _, grouped := m.memberOf[en.ID]; grouped {
				continue
			}
			ids = append(ids, en.ID)
		}
		if len(ids) < m.cfg.MinGroupSize {
			return
		}
		if len(ids) > m.cfg.MaxGroupSize {
			ids = ids[:m.cfg.MaxGroupSize]
		}

		m.next++
		g := &Group{
			ID:      m.next,
			Kind:    kind,
			Type:    c.Type,
			Loyalty: make(map[uint32]float32),
		}
		for _, id := range ids {
			g.Members = append(g.Members, id)
			g.Loyalty[id] = 0.5
			m.memberOf[id] = g.ID
		}
		m.groups[g.ID] = g
		m.elect(g, now, view)
		m.refresh(g, 0, view)
	})
}

// Force returns the group-keeping steering contribution for one creature.
func (m *Social) Force(c *CreatureState, view CreatureView) components.Vec3 {
	gid, ok := m.memberOf[c.ID]
	if !ok {
		return components.Vec3{}
	}
	g := m.groups[gid]
	if g == nil {
		return components.Vec3{}
	}

	m.neighborBuf = m.neighborBuf[:0]
	role := -1
	for i, id := range g.Members {
		if id == c.ID {
			role = i
			continue
		}
		member, ok := view.ByID(id)
		if !ok {
			continue
		}
		if member.Position.Sub(c.Position).Len2D() < float32(m.cfg.FormationRadius)*2 {
			m.neighborBuf = append(m.neighborBuf, steering.Neighbor{Pos: member.Position, Vel: member.Velocity})
		}
	}

	force := steering.Separate(c.Position, c.Velocity, m.neighborBuf, m.phys).Scale(float32(m.cfg.SeparationWeight))
	force = force.Add(steering.Align(c.Velocity, m.neighborBuf, m.phys).Scale(float32(m.cfg.AlignmentWeight)))
	force = force.Add(steering.Cohesion(c.Position, c.Velocity, m.neighborBuf, m.phys).Scale(float32(m.cfg.CohesionWeight)))

	if leader, ok := view.ByID(g.LeaderID); ok && role >= 0 && c.ID != g.LeaderID {
		target := leader.Position.Add(formationOffset(g.Kind, role, leader.Velocity.Heading2D(), float32(m.cfg.FormationRadius)))
		force = force.Add(steering.Arrive(c.Position, c.Velocity, target, 2, m.phys).Scale(float32(m.cfg.FormationWeight)))
	}
	return force.Truncated(m.phys.MaxForce)
}

// goldenAngle is the herd spiral step in radians.
const goldenAngle = 2.399963

// formationOffset returns the role's slot relative to the leader for each
// group kind.
func formationOffset(kind traits.GroupKind, role int, leaderHeading, radius float32) components.Vec3 {
	spacing := radius / 4
	switch kind {
	case traits.Herd:
		// Golden-angle spiral packs members densely around the leader.
		r := spacing * float32(math.Sqrt(float64(role+1)))
		a := float32(role) * goldenAngle
		return components.FromHeading(a).Scale(r)
	case traits.Flock:
		// V formation: alternate wings behind the leader.
		side := float32(1)
		if role%2 == 1 {
			side = -1
		}
		rank := float32(role/2 + 1)
		wing := components.NormalizeAngle(leaderHeading + math.Pi + side*0.45)
		return components.FromHeading(wing).Scale(rank * spacing)
	case traits.Pack:
		// Semi-circle behind the leader.
		span := float32(math.Pi)
		a := leaderHeading + math.Pi - span/2 + span*float32(role%8)/7
		return components.FromHeading(components.NormalizeAngle(a)).Scale(spacing * 2)
	case traits.School:
		// Layered cluster: rings with vertical stagger.
		ring := role / 8
		slot := role % 8
		a := float32(slot) * (2 * math.Pi / 8)
		off := components.FromHeading(a).Scale(spacing * float32(ring+1))
		off.Y = float32(role%3-1) * spacing * 0.5
		return off
	default:
		return components.Vec3{}
	}
}

// GroupOf returns the group a creature belongs to, or nil.
func (m *Social) GroupOf(id uint32) *Group {
	if gid, ok := m.memberOf[id]; ok {
		return m.groups[gid]
	}
	return nil
}

// OnDeath removes the dead creature from its group immediately so the leader
// election on the next update sees a clean roster.
func (m *Social) OnDeath(id uint32) {
	g := m.GroupOf(id)
	if g == nil {
		return
	}
	for i, mid := range g.Members {
		if mid == id {
			g.Members[i] = g.Members[len(g.Members)-1]
			g.Members = g.Members[:len(g.Members)-1]
			break
		}
	}
	delete(g.Loyalty, id)
	delete(m.memberOf, id)
}

// Groups returns the live group count.
func (m *Social) Groups() int { return len(m.groups) }

// sortedIDs returns the group ids in ascending order so map iteration never
// perturbs the update order between runs.
func (m *Social) sortedIDs() []uint32 {
	ids := make([]uint32, 0, len(m.groups))
	for id := range m.groups {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// dissolve removes a group and unlinks any remaining members.
func (m *Social) dissolve(g *Group) {
	for _, id := range g.Members {
		delete(m.memberOf, id)
	}
	delete(m.groups, g.ID)
}

package behavior

import (
	"math"
	"sort"

	"github.com/pthm-cable/fauna/components"
	"github.com/pthm-cable/fauna/config"
	"github.com/pthm-cable/fauna/steering"
	"github.com/pthm-cable/fauna/traits"
)

// HuntPhase is the pack hunt state machine phase.
type HuntPhase uint8

const (
	HuntNone HuntPhase = iota
	HuntStalking
	HuntFlanking
	HuntChase
	HuntTakedown
	HuntCompleted
	HuntAbandoned
)

func (p HuntPhase) String() string {
	switch p {
	case HuntStalking:
		return "stalking"
	case HuntFlanking:
		return "flanking"
	case HuntChase:
		return "chase"
	case HuntTakedown:
		return "takedown"
	case HuntCompleted:
		return "completed"
	case HuntAbandoned:
		return "abandoned"
	}
	return "none"
}

// HuntRole is a hunter's assignment within the pack.
type HuntRole uint8

const (
	RoleLeader HuntRole = iota
	RoleFlanker
	RoleChaser
	RoleBlocker
	RoleAmbusher
)

// Hunt is one coordinated pack hunt. A target is in at most one hunt and a
// hunter in at most one hunt at a time.
type Hunt struct {
	ID       uint32
	GroupID  uint32
	TargetID uint32
	Phase    HuntPhase
	Hunters  []uint32
	Roles    map[uint32]HuntRole
	Fatigue  map[uint32]float32

	phaseTimer   float64
	encirclement float32
}

// Encirclement returns the last computed encirclement score in [0,1].
func (h *Hunt) Encirclement() float32 { return h.encirclement }

// PackHunt manages hunt initiation, phase transitions and per-role steering.
type PackHunt struct {
	cfg    *config.HuntConfig
	phys   steering.Params
	social *Social

	hunts    map[uint32]*Hunt
	hunterIn map[uint32]uint32 // hunter id -> hunt id
	targetOf map[uint32]uint32 // target id -> hunt id
	next     uint32

	failed    map[uint32]int // group id -> consecutive failed hunts
	completed uint64
	abandoned uint64
}

// NewPackHunt creates the module. Groups come from the social module.
func NewPackHunt(cfg *config.HuntConfig, phys steering.Params, social *Social) *PackHunt {
	return &PackHunt{
		cfg:      cfg,
		phys:     phys,
		social:   social,
		hunts:    make(map[uint32]*Hunt),
		hunterIn: make(map[uint32]uint32),
		targetOf: make(map[uint32]uint32),
		failed:   make(map[uint32]int),
	}
}

// Update initiates hunts for eligible packs and advances every active hunt.
// Initiation runs first so a hunt finishing this update cannot re-target its
// prey before the kill command is applied.
func (m *PackHunt) Update(dt float64, now float64, view CreatureView, cmds *CommandQueue) {
	m.initiate(view)
	for _, hid := range m.sortedHuntIDs() {
		m.advance(m.hunts[hid], dt, view, cmds)
	}
}

func (m *PackHunt) advance(h *Hunt, dt float64, view CreatureView, cmds *CommandQueue) {
	target, ok := view.ByID(h.TargetID)
	if !ok || !target.Alive {
		// Target gone without a takedown counts as a failure.
		m.finish(h, HuntAbandoned)
		return
	}

	// Prune dead hunters.
	kept := h.Hunters[:0]
	for _, id := range h.Hunters {
		if c, ok := view.ByID(id); ok && c.Alive {
			kept = append(kept, id)
			continue
		}
		delete(h.Roles, id)
		delete(h.Fatigue, id)
		delete(m.hunterIn, id)
	}
	h.Hunters = kept
	if len(h.Hunters) == 0 {
		m.finish(h, HuntAbandoned)
		return
	}

	m.assignRoles(h, target, view)
	h.encirclement = m.encircle(h, target, view)
	h.phaseTimer += dt

	attackRange := traits.Table[hunterType(h, view)].AttackRange
	nearestSq := m.nearestHunterSq(h, target, view)

	switch h.Phase {
	case HuntStalking:
		if h.encirclement >= 0.4 || h.phaseTimer > m.cfg.StalkDuration {
			h.Phase = HuntFlanking
			h.phaseTimer = 0
		}
	case HuntFlanking:
		if float64(h.encirclement) >= m.cfg.EncircleTarget || h.phaseTimer > m.cfg.FlankDuration {
			h.Phase = HuntChase
			h.phaseTimer = 0
		}
	case HuntChase:
		for _, id := range h.Hunters {
			h.Fatigue[id] += float32(m.cfg.FatigueRate * dt)
		}
		if nearestSq <= 4*attackRange*attackRange {
			h.Phase = HuntTakedown
			h.phaseTimer = 0
		} else if m.shouldAbort(h, nearestSq) {
			m.finish(h, HuntAbandoned)
			return
		}
	case HuntTakedown:
		if nearestSq <= attackRange*attackRange {
			m.succeed(h, target, view, cmds)
			return
		}
		if m.shouldAbort(h, nearestSq) {
			m.finish(h, HuntAbandoned)
			return
		}
	}
}

// shouldAbort applies the chase abort conditions: timer, fatigue, range and
// repeated failure.
func (m *PackHunt) shouldAbort(h *Hunt, nearestSq float32) bool {
	if h.phaseTimer > m.cfg.ChaseDuration {
		return true
	}
	allFatigued := true
	for _, id := range h.Hunters {
		if float64(h.Fatigue[id]) < m.cfg.MaxFatigue {
			allFatigued = false
			break
		}
	}
	if allFatigued {
		return true
	}
	limit := float32(1.5 * m.cfg.HuntRange)
	if nearestSq > limit*limit {
		return true
	}
	return m.failed[h.GroupID] > m.cfg.MaxFailedAttempts
}

// succeed kills the target, splits the bonus and puts the pack on cooldown.
func (m *PackHunt) succeed(h *Hunt, target *CreatureState, view CreatureView, cmds *CommandQueue) {
	cmds.Push(Command{Kind: CmdKill, ID: target.ID})

	share := float32(m.cfg.SuccessBonus) / float32(len(h.Hunters))
	var closest uint32
	closestSq := float32(math.MaxFloat32)
	for _, id := range h.Hunters {
		cmds.Push(Command{Kind: CmdAdjustEnergy, ID: id, Amount: share})
		cmds.Push(Command{Kind: CmdSetHuntCooldown, ID: id, Amount: float32(m.cfg.CooldownAfter)})
		if c, ok := view.ByID(id); ok {
			if d := c.Position.Sub(target.Position).LenSq2D(); d < closestSq {
				closest = id
				closestSq = d
			}
		}
	}
	if closest != 0 {
		cmds.Push(Command{Kind: CmdCreditKill, ID: closest})
	}

	m.failed[h.GroupID] = 0
	m.finish(h, HuntCompleted)
}

func (m *PackHunt) finish(h *Hunt, phase HuntPhase) {
	if phase == HuntCompleted {
		m.completed++
	} else {
		m.abandoned++
		m.failed[h.GroupID]++
	}
	for _, id := range h.Hunters {
		delete(m.hunterIn, id)
	}
	delete(m.targetOf, h.TargetID)
	delete(m.hunts, h.ID)
}

// initiate scores prey for every eligible pack and starts the best hunt.
func (m *PackHunt) initiate(view CreatureView) {
	huntRange := float32(m.cfg.HuntRange)

	for _, gid := range m.social.sortedIDs() {
		g := m.social.groups[gid]
		if g.Kind != traits.Pack || !traits.Table[g.Type].IsPackHunter {
			continue
		}

		// Collect off-cooldown members not already hunting.
		var hunters []uint32
		for _, id := range g.Members {
			if _, busy := m.hunterIn[id]; busy {
				continue
			}
			c, ok := view.ByID(id)
			if !ok || !c.Alive || c.HuntCooldown > 0 {
				continue
			}
			hunters = append(hunters, id)
		}
		if len(hunters) < m.cfg.MinPackSize {
			continue
		}

		best, score := m.bestPrey(g, view, huntRange)
		if best == 0 || float64(score) <= m.cfg.MinScore {
			continue
		}

		m.next++
		h := &Hunt{
			ID:       m.next,
			GroupID:  g.ID,
			TargetID: best,
			Phase:    HuntStalking,
			Hunters:  hunters,
			Roles:    make(map[uint32]HuntRole),
			Fatigue:  make(map[uint32]float32),
		}
		m.hunts[h.ID] = h
		m.targetOf[best] = h.ID
		for _, id := range hunters {
			m.hunterIn[id] = h.ID
		}
	}
}

// bestPrey scores candidates by distance, weakness and isolation.
func (m *PackHunt) bestPrey(g *Group, view CreatureView, huntRange float32) (uint32, float32) {
	var bestID uint32
	var bestScore float32

	// Copy the query view before nested queries invalidate it.
	type candidate struct {
		id   uint32
		t    traits.Type
		dist float32
	}
	var cands []candidate
	for _, en := range view.QueryNear(g.Centroid, huntRange) {
		if _, hunted := m.targetOf[en.ID]; hunted {
			continue
		}
		dx := en.X - g.Centroid.X
		dz := en.Z - g.Centroid.Z
		cands = append(cands, candidate{id: en.ID, t: en.Type, dist: float32(math.Sqrt(float64(dx*dx + dz*dz)))})
	}

	for _, cand := range cands {
		prey, ok := view.ByID(cand.id)
		if !ok || !prey.Alive {
			continue
		}
		if !traits.CanBeHuntedBy(prey.Type, g.Type, prey.Size) {
			continue
		}

		distScore := 1 - cand.dist/huntRange
		energyScore := float32(0)
		if prey.MaxEnergy > 0 {
			energyScore = 1 - prey.Energy/prey.MaxEnergy
		}
		isolation := 1 - float32(len(view.QueryNear(prey.Position, 15)))/10
		if isolation < 0 {
			isolation = 0
		}

		score := 0.4*distScore + 0.3*energyScore + 0.3*isolation
		if score > bestScore {
			bestID = cand.id
			bestScore = score
		}
	}
	return bestID, bestScore
}

// assignRoles gives the closest hunter the lead and spreads the rest over
// flank, chase, block and ambush duties.
func (m *PackHunt) assignRoles(h *Hunt, target *CreatureState, view CreatureView) {
	type ranked struct {
		id     uint32
		distSq float32
	}
	order := make([]ranked, 0, len(h.Hunters))
	for _, id := range h.Hunters {
		c, ok := view.ByID(id)
		if !ok {
			continue
		}
		order = append(order, ranked{id, c.Position.Sub(target.Position).LenSq2D()})
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].distSq != order[j].distSq {
			return order[i].distSq < order[j].distSq
		}
		return order[i].id < order[j].id
	})

	roles := [...]HuntRole{RoleLeader, RoleFlanker, RoleChaser, RoleBlocker, RoleAmbusher}
	for i, r := range order {
		if i < len(roles) {
			h.Roles[r.id] = roles[i]
		} else {
			h.Roles[r.id] = RoleFlanker
		}
	}
}

// encircle computes 1 - maxAngularGap/2pi over the hunters' bearings from
// the target.
func (m *PackHunt) encircle(h *Hunt, target *CreatureState, view CreatureView) float32 {
	bearings := make([]float64, 0, len(h.Hunters))
	for _, id := range h.Hunters {
		c, ok := view.ByID(id)
		if !ok {
			continue
		}
		off := c.Position.Sub(target.Position)
		bearings = append(bearings, float64(off.Heading2D()))
	}
	if len(bearings) < 2 {
		return 0
	}
	sort.Float64s(bearings)

	maxGap := 2*math.Pi - (bearings[len(bearings)-1] - bearings[0])
	for i := 1; i < len(bearings); i++ {
		if gap := bearings[i] - bearings[i-1]; gap > maxGap {
			maxGap = gap
		}
	}
	return float32(1 - maxGap/(2*math.Pi))
}

func (m *PackHunt) nearestHunterSq(h *Hunt, target *CreatureState, view CreatureView) float32 {
	nearest := float32(math.MaxFloat32)
	for _, id := range h.Hunters {
		c, ok := view.ByID(id)
		if !ok {
			continue
		}
		if d := c.Position.Sub(target.Position).LenSq2D(); d < nearest {
			nearest = d
		}
	}
	return nearest
}

func hunterType(h *Hunt, view CreatureView) traits.Type {
	for _, id := range h.Hunters {
		if c, ok := view.ByID(id); ok {
			return c.Type
		}
	}
	return traits.ApexPredator
}

// Force returns the hunt steering contribution for one hunter.
func (m *PackHunt) Force(c *CreatureState, view CreatureView) components.Vec3 {
	hid, ok := m.hunterIn[c.ID]
	if !ok {
		return components.Vec3{}
	}
	h := m.hunts[hid]
	if h == nil {
		return components.Vec3{}
	}
	target, ok := view.ByID(h.TargetID)
	if !ok {
		return components.Vec3{}
	}

	switch h.Phase {
	case HuntStalking:
		// Creep toward the prey without committing speed.
		return steering.Arrive(c.Position, c.Velocity, target.Position, 20, m.phys).Scale(0.4)
	case HuntFlanking:
		return steering.Seek(c.Position, c.Velocity, m.flankSlot(h, c.ID, target), m.phys)
	case HuntChase:
		switch h.Roles[c.ID] {
		case RoleBlocker:
			ahead := target.Position.Add(target.Velocity.Scale(1.5))
			return steering.Seek(c.Position, c.Velocity, ahead, m.phys)
		case RoleAmbusher:
			farAhead := target.Position.Add(target.Velocity.Scale(4))
			return steering.Seek(c.Position, c.Velocity, farAhead, m.phys)
		default:
			return steering.Pursuit(c.Position, c.Velocity, target.Position, target.Velocity, m.phys)
		}
	case HuntTakedown:
		return steering.Seek(c.Position, c.Velocity, target.Position, m.phys)
	}
	return components.Vec3{}
}

// flankSlot spreads hunters evenly on a circle around the target.
func (m *PackHunt) flankSlot(h *Hunt, hunterID uint32, target *CreatureState) components.Vec3 {
	slot := 0
	for i, id := range h.Hunters {
		if id == hunterID {
			slot = i
			break
		}
	}
	n := len(h.Hunters)
	if n == 0 {
		n = 1
	}
	angle := float32(slot) * 2 * math.Pi / float32(n)
	ring := float32(m.cfg.HuntRange) * 0.3
	return target.Position.Add(components.FromHeading(angle).Scale(ring))
}

// HuntOf returns the hunt a creature participates in as a hunter, or nil.
func (m *PackHunt) HuntOf(id uint32) *Hunt {
	if hid, ok := m.hunterIn[id]; ok {
		return m.hunts[hid]
	}
	return nil
}

// Hunted reports whether a creature is the target of an active hunt.
func (m *PackHunt) Hunted(id uint32) bool {
	_, ok := m.targetOf[id]
	return ok
}

// OnDeath removes the dead creature from any hunt bookkeeping.
func (m *PackHunt) OnDeath(id uint32) {
	if hid, ok := m.hunterIn[id]; ok {
		if h := m.hunts[hid]; h != nil {
			for i, mid := range h.Hunters {
				if mid == id {
					h.Hunters[i] = h.Hunters[len(h.Hunters)-1]
					h.Hunters = h.Hunters[:len(h.Hunters)-1]
					break
				}
			}
			delete(h.Roles, id)
			delete(h.Fatigue, id)
		}
		delete(m.hunterIn, id)
	}
}

// CountByPhase returns the number of active hunts in each phase.
func (m *PackHunt) CountByPhase() map[HuntPhase]int {
	out := make(map[HuntPhase]int, 4)
	for _, h := range m.hunts {
		out[h.Phase]++
	}
	return out
}

// Completed returns the cumulative successful-hunt counter.
func (m *PackHunt) Completed() uint64 { return m.completed }

// Abandoned returns the cumulative abandoned-hunt counter.
func (m *PackHunt) Abandoned() uint64 { return m.abandoned }

func (m *PackHunt) sortedHuntIDs() []uint32 {
	ids := make([]uint32, 0, len(m.hunts))
	for id := range m.hunts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

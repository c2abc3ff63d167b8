package behavior

import (
	"sort"

	"github.com/pthm-cable/fauna/components"
	"github.com/pthm-cable/fauna/config"
	"github.com/pthm-cable/fauna/steering"
	"github.com/pthm-cable/fauna/traits"
)

// CareStage is the parental care progression.
type CareStage uint8

const (
	StageNesting CareStage = iota
	StageNursing
	StageGuarding
	StageTeaching
	StageWeaning
)

func (s CareStage) String() string {
	switch s {
	case StageNesting:
		return "nesting"
	case StageNursing:
		return "nursing"
	case StageGuarding:
		return "guarding"
	case StageTeaching:
		return "teaching"
	case StageWeaning:
		return "weaning"
	}
	return "unknown"
}

// Bond is one parent-child care relationship. A child is dependent in at
// most one bond.
type Bond struct {
	ID           uint32
	ParentID     uint32
	ChildID      uint32
	BondStrength float32
	Stage        CareStage
	StartTime    float64
	EnergyShared float32
	IsDependent  bool
}

// ParentalCare manages bonds from birth to independence.
type ParentalCare struct {
	cfg  *config.CareConfig
	phys steering.Params

	// Stage pace per type: progress = age/duration * pace.
	pace [traits.NumTypes]float64

	bonds    map[uint32]*Bond
	byChild  map[uint32]uint32
	byParent map[uint32][]uint32
	next     uint32

	released uint64
}

// NewParentalCare creates the module.
func NewParentalCare(cfg *config.CareConfig, phys steering.Params) *ParentalCare {
	m := &ParentalCare{
		cfg:      cfg,
		phys:     phys,
		bonds:    make(map[uint32]*Bond),
		byChild:  make(map[uint32]uint32),
		byParent: make(map[uint32][]uint32),
	}
	for t := traits.Type(0); t < traits.NumTypes; t++ {
		m.pace[t] = cfg.StageMultiplier(traits.Get(t).Name)
	}
	return m
}

// OnBirth creates a bond when the parent's type provides care. Children
// already in a bond are left alone.
func (m *ParentalCare) OnBirth(parentID, childID uint32, ctype traits.Type, now float64) {
	if parentID == 0 || !traits.Table[ctype].ProvidesCare {
		return
	}
	if _, bonded := m.byChild[childID]; bonded {
		return
	}
	m.next++
	b := &Bond{
		ID:           m.next,
		ParentID:     parentID,
		ChildID:      childID,
		BondStrength: 1,
		Stage:        StageNesting,
		StartTime:    now,
		IsDependent:  true,
	}
	m.bonds[b.ID] = b
	m.byChild[childID] = b.ID
	m.byParent[parentID] = append(m.byParent[parentID], b.ID)
}

// Update advances bond stages, shares energy and releases independent
// children.
func (m *ParentalCare) Update(dt float64, now float64, view CreatureView, cmds *CommandQueue) {
	duration := m.cfg.Duration

	for _, bid := range m.sortedIDs() {
		b := m.bonds[bid]
		parent, pok := view.ByID(b.ParentID)
		child, cok := view.ByID(b.ChildID)
		if !pok || !cok || !parent.Alive || !child.Alive {
			m.release(b)
			continue
		}

		progress := float64(child.Age) / duration * m.pace[child.Type]
		switch {
		case progress < 0.2:
			b.Stage = StageNesting
		case progress < 0.5:
			b.Stage = StageNursing
		case progress < 0.75:
			b.Stage = StageGuarding
		case progress < 0.9:
			b.Stage = StageTeaching
		default:
			b.Stage = StageWeaning
			b.BondStrength -= float32(m.cfg.BondDecay * dt)
		}

		// Energy flows parent -> child when the parent can spare it and the
		// child needs it.
		parentFrac := parent.Energy / parent.MaxEnergy
		childFrac := child.Energy / child.MaxEnergy
		if parentFrac > float32(m.cfg.ShareThreshold) && childFrac < float32(m.cfg.ChildThreshold) {
			amount := float32(m.cfg.ShareRate*dt) * b.BondStrength
			if amount > 0 {
				cmds.Push(Command{Kind: CmdAdjustEnergy, ID: b.ParentID, Amount: -amount})
				cmds.Push(Command{Kind: CmdAdjustEnergy, ID: b.ChildID, Amount: amount})
				b.EnergyShared += amount
			}
		}

		if m.independent(b, child, progress) {
			m.release(b)
			m.released++
		}
	}
}

func (m *ParentalCare) independent(b *Bond, child *CreatureState, progress float64) bool {
	if float64(child.Age) >= m.cfg.IndependenceAge {
		return true
	}
	if b.BondStrength <= 0.05 {
		return true
	}
	return b.Stage == StageWeaning && progress >= 0.95
}

// Force returns the care steering contribution: parents guard their children,
// children shadow their parents.
func (m *ParentalCare) Force(c *CreatureState, view CreatureView) components.Vec3 {
	if bid, ok := m.byChild[c.ID]; ok {
		return m.childForce(m.bonds[bid], c, view)
	}

	var force components.Vec3
	for _, bid := range m.byParent[c.ID] {
		b := m.bonds[bid]
		if b == nil {
			continue
		}
		force = force.Add(m.parentForce(b, c, view))
	}
	return force.Truncated(m.phys.MaxForce)
}

func (m *ParentalCare) parentForce(b *Bond, parent *CreatureState, view CreatureView) components.Vec3 {
	child, ok := view.ByID(b.ChildID)
	if !ok {
		return components.Vec3{}
	}

	// A predator near the child overrides everything: interpose.
	threat, found := m.nearestThreat(child, view)
	if found {
		between := child.Position.Add(threat.Sub(child.Position).Scale(0.5))
		return steering.Seek(parent.Position, parent.Velocity, between, m.phys).
			Scale(float32(m.cfg.ProtectionForce) * b.BondStrength).
			Truncated(m.phys.MaxForce)
	}

	return steering.Arrive(parent.Position, parent.Velocity, child.Position, 8, m.phys).Scale(0.4)
}

func (m *ParentalCare) childForce(b *Bond, child *CreatureState, view CreatureView) components.Vec3 {
	if b == nil {
		return components.Vec3{}
	}
	parent, ok := view.ByID(b.ParentID)
	if !ok {
		return components.Vec3{}
	}

	force := steering.Seek(child.Position, child.Velocity, parent.Position, m.phys).
		Scale(float32(m.cfg.FollowForce) * b.BondStrength)
	// Small velocity match smooths the follow.
	force = force.Add(parent.Velocity.Sub(child.Velocity).Scale(0.1))
	return force.Truncated(m.phys.MaxForce)
}

// nearestThreat finds the closest predator within protection range of the
// child.
func (m *ParentalCare) nearestThreat(child *CreatureState, view CreatureView) (components.Vec3, bool) {
	var best components.Vec3
	bestSq := float32(m.cfg.ProtectionRange * m.cfg.ProtectionRange)
	found := false

	type hit struct {
		id uint32
		t  traits.Type
		x  float32
		z  float32
	}
	var hits []hit
	for _, en := range view.QueryNear(child.Position, float32(m.cfg.ProtectionRange)) {
		hits = append(hits, hit{en.ID, en.Type, en.X, en.Z})
	}
	for _, h := range hits {
		if h.id == child.ID {
			continue
		}
		if !traits.CanBeHuntedBy(child.Type, h.t, child.Size) {
			continue
		}
		dx := h.x - child.Position.X
		dz := h.z - child.Position.Z
		if d := dx*dx + dz*dz; d < bestSq {
			best = components.Vec3{X: h.x, Z: h.z}
			bestSq = d
			found = true
		}
	}
	return best, found
}

// release dissolves a bond.
func (m *ParentalCare) release(b *Bond) {
	delete(m.bonds, b.ID)
	delete(m.byChild, b.ChildID)
	siblings := m.byParent[b.ParentID]
	for i, bid := range siblings {
		if bid == b.ID {
			siblings[i] = siblings[len(siblings)-1]
			m.byParent[b.ParentID] = siblings[:len(siblings)-1]
			break
		}
	}
	if len(m.byParent[b.ParentID]) == 0 {
		delete(m.byParent, b.ParentID)
	}
}

// OnDeath dissolves every bond the dead creature participates in.
func (m *ParentalCare) OnDeath(id uint32) {
	if bid, ok := m.byChild[id]; ok {
		if b := m.bonds[bid]; b != nil {
			m.release(b)
		}
	}
	for _, bid := range append([]uint32(nil), m.byParent[id]...) {
		if b := m.bonds[bid]; b != nil {
			m.release(b)
		}
	}
}

// BondOf returns the bond a creature is the dependent child of, or nil.
func (m *ParentalCare) BondOf(childID uint32) *Bond {
	if bid, ok := m.byChild[childID]; ok {
		return m.bonds[bid]
	}
	return nil
}

// IsDependentChild reports whether a creature is under care.
func (m *ParentalCare) IsDependentChild(id uint32) bool {
	_, ok := m.byChild[id]
	return ok
}

// Count returns the number of active bonds.
func (m *ParentalCare) Count() int { return len(m.bonds) }

func (m *ParentalCare) sortedIDs() []uint32 {
	ids := make([]uint32, 0, len(m.bonds))
	for id := range m.bonds {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

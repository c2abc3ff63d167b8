package behavior

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/pthm-cable/fauna/components"
	"github.com/pthm-cable/fauna/config"
	"github.com/pthm-cable/fauna/steering"
	"github.com/pthm-cable/fauna/systems"
	"github.com/pthm-cable/fauna/traits"
	"github.com/pthm-cable/fauna/world"
)

// fakeView is an in-memory CreatureView for module tests. Queries scan
// linearly; population sizes here are tiny.
type fakeView struct {
	states map[uint32]*CreatureState
}

func newFakeView() *fakeView {
	return &fakeView{states: make(map[uint32]*CreatureState)}
}

func (v *fakeView) add(c *CreatureState) *CreatureState {
	c.Alive = true
	v.states[c.ID] = c
	return c
}

func (v *fakeView) ByID(id uint32) (*CreatureState, bool) {
	c, ok := v.states[id]
	return c, ok
}

func (v *fakeView) ForEach(visit func(*CreatureState)) {
	ids := make([]uint32, 0, len(v.states))
	for id := range v.states {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if c := v.states[id]; c.Alive {
			visit(c)
		}
	}
}

func (v *fakeView) QueryNear(pos components.Vec3, r float32) []systems.SpatialEntry {
	var out []systems.SpatialEntry
	v.ForEach(func(c *CreatureState) {
		if c.Position.Sub(pos).Len2D() <= r {
			out = append(out, systems.SpatialEntry{ID: c.ID, Type: c.Type, X: c.Position.X, Z: c.Position.Z})
		}
	})
	return out
}

// apply drains the command queue onto the fake population the way the
// orchestrator would.
func (v *fakeView) apply(t *testing.T, cmds *CommandQueue) {
	t.Helper()
	for _, cmd := range cmds.Drain() {
		c, ok := v.states[cmd.ID]
		if !ok {
			t.Fatalf("command %d targets unknown creature %d", cmd.Kind, cmd.ID)
		}
		switch cmd.Kind {
		case CmdAdjustEnergy:
			c.Energy += cmd.Amount
		case CmdKill:
			c.Alive = false
		case CmdSetHuntCooldown:
			c.HuntCooldown = cmd.Amount
		case CmdSetMigrationCooldown:
			c.MigrationCooldown = cmd.Amount
		case CmdAddFear:
			c.Fear += cmd.Amount
		case CmdCreditKill:
			c.Fitness++
		}
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	return cfg
}

func testParams(cfg *config.Config) steering.Params {
	return steering.Params{MaxSpeed: 20, MaxForce: cfg.Derived.MaxForce32}
}

func TestTerritoryEstablishment(t *testing.T) {
	cfg := testConfig(t)
	m := NewTerritorial(&cfg.Territory, testParams(cfg))
	view := newFakeView()
	var cmds CommandQueue

	view.add(&CreatureState{ID: 1, Type: traits.ApexPredator, Position: vec3(0, 0), Energy: 100})
	view.add(&CreatureState{ID: 2, Type: traits.ApexPredator, Position: vec3(300, 0), Energy: 30})

	m.Update(1, 0, view, &cmds)

	if !m.HasTerritory(1) {
		t.Fatal("well-fed territorial creature should establish a territory")
	}
	if m.HasTerritory(2) {
		t.Fatal("creature below the energy threshold should not establish")
	}
	terr := m.TerritoryOf(1)
	if terr.Strength != 0.1 {
		t.Fatalf("initial strength = %v, want 0.1", terr.Strength)
	}

	// A strong claim blocks overlapping establishment; distant ground is
	// still open.
	terr.Strength = 0.9
	view.add(&CreatureState{ID: 3, Type: traits.ApexPredator, Position: vec3(10, 0), Energy: 100})
	view.add(&CreatureState{ID: 4, Type: traits.ApexPredator, Position: vec3(-300, 0), Energy: 100})
	m.Update(1, 1, view, &cmds)

	if m.HasTerritory(3) {
		t.Fatal("establishment inside a strong claim should be blocked")
	}
	if !m.HasTerritory(4) {
		t.Fatal("establishment far from any claim should succeed")
	}
}

func TestTerritoryAbandonment(t *testing.T) {
	cfg := testConfig(t)
	m := NewTerritorial(&cfg.Territory, testParams(cfg))
	view := newFakeView()
	var cmds CommandQueue

	owner := view.add(&CreatureState{ID: 1, Type: traits.ApexPredator, Position: vec3(0, 0), Energy: 100})
	m.Update(1, 0, view, &cmds)
	if m.Count() != 1 {
		t.Fatalf("territories = %d, want 1", m.Count())
	}

	// Wander far off the claim with depleted reserves; the weak territory
	// is abandoned and nothing new is staked.
	owner.Position = vec3(200, 0)
	owner.Energy = 30
	m.Update(1, 1, view, &cmds)

	if m.Count() != 0 {
		t.Fatalf("territories after abandonment = %d, want 0", m.Count())
	}
	if m.AbandonedCount() != 1 {
		t.Fatalf("abandoned counter = %d, want 1", m.AbandonedCount())
	}
}

func TestTerritoryIntruderRepulsion(t *testing.T) {
	cfg := testConfig(t)
	m := NewTerritorial(&cfg.Territory, testParams(cfg))
	view := newFakeView()
	var cmds CommandQueue

	view.add(&CreatureState{ID: 1, Type: traits.ApexPredator, Position: vec3(0, 0), Energy: 100})
	m.Update(1, 0, view, &cmds)
	m.TerritoryOf(1).Strength = 1

	intruder := view.add(&CreatureState{ID: 2, Type: traits.Grazer, Position: vec3(10, 0), Energy: 50})
	force := m.Force(intruder, view)
	if force.X <= 0 {
		t.Fatalf("repulsion X = %v, want positive (away from center)", force.X)
	}

	outside := view.add(&CreatureState{ID: 3, Type: traits.Grazer, Position: vec3(100, 0), Energy: 50})
	if f := m.Force(outside, view); !f.IsZero() {
		t.Fatalf("force outside all territories = %v, want zero", f)
	}
}

func TestGroupFormationAndElection(t *testing.T) {
	cfg := testConfig(t)
	m := NewSocial(&cfg.Social, testParams(cfg))
	view := newFakeView()
	var cmds CommandQueue

	for i := uint32(1); i <= 4; i++ {
		view.add(&CreatureState{ID: i, Type: traits.Grazer, Position: vec3(float32(i)*3, 0), Energy: 50, Size: 1})
	}
	// Give one member an outsized leadership score.
	view.states[3].Fitness = 5

	m.Update(1, 0, view, &cmds)

	g := m.GroupOf(1)
	if g == nil {
		t.Fatal("nearby herd animals should form a group")
	}
	if g.Kind != traits.Herd {
		t.Fatalf("group kind = %v, want herd", g.Kind)
	}
	if g.Size() != 4 {
		t.Fatalf("group size = %d, want 4", g.Size())
	}
	for i := uint32(2); i <= 4; i++ {
		if m.GroupOf(i) != g {
			t.Fatalf("creature %d not in the same group", i)
		}
	}
	if g.LeaderID != 3 {
		t.Fatalf("leader = %d, want the highest-scoring member 3", g.LeaderID)
	}
}

func TestGroupDissolvesBelowMinSize(t *testing.T) {
	cfg := testConfig(t)
	m := NewSocial(&cfg.Social, testParams(cfg))
	view := newFakeView()
	var cmds CommandQueue

	for i := uint32(1); i <= 3; i++ {
		view.add(&CreatureState{ID: i, Type: traits.Grazer, Position: vec3(float32(i)*3, 0), Energy: 50})
	}
	m.Update(1, 0, view, &cmds)
	if m.Groups() != 1 {
		t.Fatalf("groups = %d, want 1", m.Groups())
	}

	view.states[1].Alive = false
	view.states[2].Alive = false
	m.Update(1, 1, view, &cmds)

	if m.Groups() != 0 {
		t.Fatalf("groups after losses = %d, want 0", m.Groups())
	}
	if m.GroupOf(3) != nil {
		t.Fatal("survivor should be ungrouped after dissolution")
	}
}

func TestGroupLoyaltyDecayDropsStragglers(t *testing.T) {
	cfg := testConfig(t)
	m := NewSocial(&cfg.Social, testParams(cfg))
	view := newFakeView()
	var cmds CommandQueue

	for i := uint32(1); i <= 4; i++ {
		view.add(&CreatureState{ID: i, Type: traits.Grazer, Position: vec3(float32(i)*2, 0), Energy: 50})
	}
	m.Update(1, 0, view, &cmds)

	// One member wanders far past the break distance; its loyalty drains
	// until it leaves.
	view.states[4].Position = vec3(120, 0)
	m.Update(6, 1, view, &cmds)

	if m.GroupOf(4) != nil {
		t.Fatal("straggler should have left the group")
	}
	g := m.GroupOf(1)
	if g == nil || g.Size() != 3 {
		t.Fatalf("remaining group size wrong: %v", g)
	}
}

func TestPackHuntLifecycle(t *testing.T) {
	cfg := testConfig(t)
	phys := testParams(cfg)
	social := NewSocial(&cfg.Social, phys)
	m := NewPackHunt(&cfg.Hunt, phys, social)
	view := newFakeView()
	var cmds CommandQueue

	hunters := []*CreatureState{
		view.add(&CreatureState{ID: 1, Type: traits.ApexPredator, Position: vec3(0, 0), Energy: 150, MaxEnergy: 200, Size: 1}),
		view.add(&CreatureState{ID: 2, Type: traits.ApexPredator, Position: vec3(2, 0), Energy: 150, MaxEnergy: 200, Size: 1}),
		view.add(&CreatureState{ID: 3, Type: traits.ApexPredator, Position: vec3(0, 2), Energy: 150, MaxEnergy: 200, Size: 1}),
	}
	view.add(&CreatureState{ID: 10, Type: traits.Grazer, Position: vec3(10, 0), Energy: 10, MaxEnergy: 100, Size: 1})

	social.Update(1, 0, view, &cmds)
	if social.GroupOf(1) == nil {
		t.Fatal("pack group should have formed")
	}

	m.Update(1, 0, view, &cmds)
	h := m.HuntOf(1)
	if h == nil {
		t.Fatal("hunt should have been initiated against the weak prey")
	}
	if h.Phase != HuntStalking {
		t.Fatalf("phase = %v, want stalking", h.Phase)
	}
	if !m.Hunted(10) {
		t.Fatal("prey should be marked hunted")
	}
	for _, c := range hunters {
		if m.HuntOf(c.ID) != h {
			t.Fatalf("hunter %d not in the hunt", c.ID)
		}
	}

	// Surround the prey: bearings pi, 0 and pi/2 leave a max gap of pi.
	hunters[0].Position = vec3(8, 0)
	hunters[1].Position = vec3(12, 0)
	hunters[2].Position = vec3(10, 2)

	m.Update(1, 1, view, &cmds)
	if h.Phase != HuntFlanking {
		t.Fatalf("phase = %v, want flanking", h.Phase)
	}
	if e := h.Encirclement(); e < 0 || e > 1 {
		t.Fatalf("encirclement %v out of [0,1]", e)
	}
	if e := h.Encirclement(); math.Abs(float64(e)-0.5) > 1e-3 {
		t.Fatalf("encirclement = %v, want 0.5 for a half circle", e)
	}

	// Ride the flank timer into the chase, then close for the takedown.
	m.Update(7, 8, view, &cmds)
	if h.Phase != HuntChase {
		t.Fatalf("phase = %v, want chase", h.Phase)
	}
	m.Update(1, 9, view, &cmds)
	if h.Phase != HuntTakedown {
		t.Fatalf("phase = %v, want takedown", h.Phase)
	}

	m.Update(1, 10, view, &cmds)
	if m.Completed() != 1 {
		t.Fatalf("completed = %d, want 1", m.Completed())
	}

	// The kill and the reward split arrive as commands.
	kills, credits := 0, 0
	var bonus float32
	for _, cmd := range cmds.Drain() {
		switch cmd.Kind {
		case CmdKill:
			kills++
			if cmd.ID != 10 {
				t.Fatalf("kill targets %d, want the prey", cmd.ID)
			}
		case CmdAdjustEnergy:
			bonus += cmd.Amount
		case CmdCreditKill:
			credits++
		}
	}
	if kills != 1 || credits != 1 {
		t.Fatalf("kills = %d credits = %d, want 1 and 1", kills, credits)
	}
	if math.Abs(float64(bonus)-cfg.Hunt.SuccessBonus) > 1e-3 {
		t.Fatalf("bonus split sums to %v, want %v", bonus, cfg.Hunt.SuccessBonus)
	}
	if m.HuntOf(1) != nil || m.Hunted(10) {
		t.Fatal("hunt bookkeeping should be cleared after the takedown")
	}
}

func TestHuntCooldownBlocksReinitiation(t *testing.T) {
	cfg := testConfig(t)
	phys := testParams(cfg)
	social := NewSocial(&cfg.Social, phys)
	m := NewPackHunt(&cfg.Hunt, phys, social)
	view := newFakeView()
	var cmds CommandQueue

	for i := uint32(1); i <= 3; i++ {
		view.add(&CreatureState{ID: i, Type: traits.ApexPredator, Position: vec3(float32(i)*2, 0), Energy: 150, MaxEnergy: 200, Size: 1, HuntCooldown: 30})
	}
	view.add(&CreatureState{ID: 10, Type: traits.Grazer, Position: vec3(10, 0), Energy: 10, MaxEnergy: 100, Size: 1})

	social.Update(1, 0, view, &cmds)
	m.Update(1, 0, view, &cmds)

	if m.HuntOf(1) != nil {
		t.Fatal("pack on cooldown should not start a hunt")
	}
}

func TestParentalCareEnergyShare(t *testing.T) {
	cfg := testConfig(t)
	m := NewParentalCare(&cfg.Care, testParams(cfg))
	view := newFakeView()
	var cmds CommandQueue

	parent := view.add(&CreatureState{ID: 1, Type: traits.Grazer, Position: vec3(0, 0), Energy: 90, MaxEnergy: 100})
	child := view.add(&CreatureState{ID: 2, Type: traits.Grazer, Position: vec3(2, 0), Energy: 10, MaxEnergy: 100})

	m.OnBirth(1, 2, traits.Grazer, 0)
	if !m.IsDependentChild(2) {
		t.Fatal("child should be bonded at birth")
	}
	b := m.BondOf(2)
	if b.Stage != StageNesting {
		t.Fatalf("stage = %v, want nesting", b.Stage)
	}

	before := parent.Energy + child.Energy
	m.Update(1, 1, view, &cmds)
	view.apply(t, &cmds)

	if b.EnergyShared <= 0 {
		t.Fatal("hungry child of a well-fed parent should receive energy")
	}
	if got := parent.Energy + child.Energy; got != before {
		t.Fatalf("energy not conserved: %v -> %v", before, got)
	}
	if child.Energy <= 10 {
		t.Fatalf("child energy = %v, want above 10", child.Energy)
	}

	// Stages track the child's age against the care duration.
	child.Age = 35
	m.Update(1, 2, view, &cmds)
	if b.Stage != StageGuarding {
		t.Fatalf("stage at mid care = %v, want guarding", b.Stage)
	}

	// Independence ends the bond.
	child.Age = float32(cfg.Care.IndependenceAge)
	m.Update(1, 3, view, &cmds)
	if m.IsDependentChild(2) {
		t.Fatal("grown child should have been released")
	}
	if m.Count() != 0 {
		t.Fatalf("bonds = %d, want 0", m.Count())
	}
}

func TestParentalCareBondEndsOnDeath(t *testing.T) {
	cfg := testConfig(t)
	m := NewParentalCare(&cfg.Care, testParams(cfg))
	view := newFakeView()

	view.add(&CreatureState{ID: 1, Type: traits.Grazer, Energy: 90, MaxEnergy: 100})
	view.add(&CreatureState{ID: 2, Type: traits.Grazer, Energy: 50, MaxEnergy: 100})
	m.OnBirth(1, 2, traits.Grazer, 0)

	m.OnDeath(1)
	if m.IsDependentChild(2) {
		t.Fatal("bond should dissolve when the parent dies")
	}

	// Non-caring types never bond.
	m.OnBirth(3, 4, traits.Parasite, 0)
	if m.Count() != 0 {
		t.Fatalf("bonds = %d, want 0 for a type without care", m.Count())
	}
}

func TestParentalCareStagePacePerType(t *testing.T) {
	cfg := testConfig(t)
	m := NewParentalCare(&cfg.Care, testParams(cfg))
	view := newFakeView()
	var cmds CommandQueue

	// Same child age for every pair; only the per-type pace differs.
	pairs := []struct {
		parent, child uint32
		ctype         traits.Type
	}{
		{1, 2, traits.ApexPredator},
		{3, 4, traits.Grazer},
		{5, 6, traits.Frugivore},
	}
	for _, p := range pairs {
		view.add(&CreatureState{ID: p.parent, Type: p.ctype, Energy: 40, MaxEnergy: 100})
		view.add(&CreatureState{ID: p.child, Type: p.ctype, Age: 36, Energy: 40, MaxEnergy: 100})
		m.OnBirth(p.parent, p.child, p.ctype, 0)
	}

	m.Update(1, 1, view, &cmds)

	// Slow developers lag behind, fast ones race ahead.
	if got := m.BondOf(2).Stage; got != StageNursing {
		t.Fatalf("apex predator stage = %v, want nursing", got)
	}
	if got := m.BondOf(4).Stage; got != StageGuarding {
		t.Fatalf("grazer stage = %v, want guarding", got)
	}
	if got := m.BondOf(6).Stage; got != StageTeaching {
		t.Fatalf("frugivore stage = %v, want teaching", got)
	}
}

func TestMigrationTriggerAndDeparture(t *testing.T) {
	cfg := testConfig(t)
	phys := testParams(cfg)
	planet := world.New(cfg, 7)
	social := NewSocial(&cfg.Social, phys)
	m := NewMigrator(&cfg.Migration, phys, social, planet)
	view := newFakeView()
	var cmds CommandQueue

	// A frightened herd migrates regardless of season.
	for i := uint32(1); i <= 3; i++ {
		view.add(&CreatureState{ID: i, Type: traits.Grazer, Position: vec3(float32(i)*3, 0), Energy: 50, Fear: 1})
	}
	social.Update(1, 0, view, &cmds)

	m.Update(1, 1, view, &cmds)
	if m.Started() != 1 {
		t.Fatalf("started = %d, want 1", m.Started())
	}
	mg := m.MigrationOf(1)
	if mg == nil || mg.Phase != MigrationPreparing {
		t.Fatalf("migration = %v, want preparing", mg)
	}
	for i := uint32(1); i <= 3; i++ {
		if m.MigrationOf(i) != mg {
			t.Fatalf("member %d not in the migration", i)
		}
	}
	if len(mg.Waypoints) != migrationWaypoints {
		t.Fatalf("waypoints = %d, want %d", len(mg.Waypoints), migrationWaypoints)
	}

	// An active migration blocks a second trigger for the same group.
	m.Update(1, 2, view, &cmds)
	if m.Started() != 1 {
		t.Fatalf("started after re-evaluation = %d, want 1", m.Started())
	}

	// The preparation timer expires into departure.
	m.Update(prepareDuration, 8, view, &cmds)
	if mg.Phase != MigrationDeparting {
		t.Fatalf("phase = %v, want departing", mg.Phase)
	}

	// Members are pulled along the route.
	c, _ := view.ByID(1)
	force := m.Force(c, view)
	toRoute := mg.CurrentWaypoint().Sub(c.Position)
	if force.Dot(toRoute) <= 0 {
		t.Fatal("migration force should point along the route")
	}

	// Walking the herd waypoint to waypoint carries the migration through
	// traveling, arrival and rest into settlement.
	now := 8.0
	for step := 0; step < 20 && mg.Phase != MigrationSettled; step++ {
		target := mg.CurrentWaypoint()
		if mg.Phase == MigrationArriving {
			target = mg.Destination
		}
		for i := uint32(1); i <= 3; i++ {
			member, _ := view.ByID(i)
			member.Position = target
		}
		now += cfg.Migration.RestDuration
		m.Update(cfg.Migration.RestDuration, now, view, &cmds)
	}
	if mg.Phase != MigrationSettled {
		t.Fatalf("phase = %v, want settled", mg.Phase)
	}

	// Settling puts every member on migration cooldown.
	view.apply(t, &cmds)
	for i := uint32(1); i <= 3; i++ {
		member, _ := view.ByID(i)
		if member.MigrationCooldown != float32(cfg.Migration.Cooldown) {
			t.Fatalf("member %d cooldown = %v, want %v", i, member.MigrationCooldown, cfg.Migration.Cooldown)
		}
	}
}

func TestCoordinatorFleeDominance(t *testing.T) {
	cfg := testConfig(t)
	planet := world.New(cfg, 7)
	co := NewCoordinator(cfg, planet, rand.New(rand.NewSource(1)))
	view := newFakeView()

	c := view.add(&CreatureState{ID: 1, Type: traits.Grazer, Position: vec3(0, 0), Energy: 50, MaxEnergy: 100, Size: 1})
	wander := vec3(1, 0)

	// Fleeing suppresses the variety drift entirely: the wander target is
	// untouched and the output tracks the flee direction.
	flee := vec3(-1, 0)
	before := wander
	force := co.Combine(c, view, flee, components.Vec3{}, &wander)
	if wander != before {
		t.Fatal("variety should not run while fleeing")
	}
	if force.X >= 0 {
		t.Fatalf("combined force X = %v, want negative (flee direction)", force.X)
	}
	if force.Len() > co.Params().MaxForce+1e-4 {
		t.Fatalf("combined force %v exceeds the force cap", force.Len())
	}

	// With no threat the variety layer jitters the wander target.
	co.Combine(c, view, components.Vec3{}, components.Vec3{}, &wander)
	if wander == before {
		t.Fatal("variety should perturb the wander target when idle")
	}
}

func TestCoordinatorFleeForceRange(t *testing.T) {
	cfg := testConfig(t)
	planet := world.New(cfg, 7)
	co := NewCoordinator(cfg, planet, rand.New(rand.NewSource(1)))

	c := &CreatureState{ID: 1, Type: traits.Grazer, Position: vec3(0, 0), Alive: true}

	near := co.FleeForce(c, vec3(10, 0), components.Vec3{})
	if near.IsZero() {
		t.Fatal("threat inside flee distance should produce a force")
	}
	if near.X >= 0 {
		t.Fatalf("flee X = %v, want negative (away from the threat)", near.X)
	}

	if far := co.FleeForce(c, vec3(100, 0), components.Vec3{}); !far.IsZero() {
		t.Fatalf("threat beyond flee distance produced %v, want zero", far)
	}
}

func vec3(x, z float32) components.Vec3 {
	return components.Vec3{X: x, Z: z}
}

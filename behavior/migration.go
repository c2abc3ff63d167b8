package behavior

import (
	"math"
	"sort"

	"github.com/pthm-cable/fauna/components"
	"github.com/pthm-cable/fauna/config"
	"github.com/pthm-cable/fauna/steering"
	"github.com/pthm-cable/fauna/traits"
	"github.com/pthm-cable/fauna/world"
)

// MigrationPhase is the migration state machine phase.
type MigrationPhase uint8

const (
	MigrationPreparing MigrationPhase = iota
	MigrationDeparting
	MigrationTraveling
	MigrationArriving
	MigrationResting
	MigrationSettled
)

func (p MigrationPhase) String() string {
	switch p {
	case MigrationPreparing:
		return "preparing"
	case MigrationDeparting:
		return "departing"
	case MigrationTraveling:
		return "traveling"
	case MigrationArriving:
		return "arriving"
	case MigrationResting:
		return "resting"
	case MigrationSettled:
		return "settled"
	}
	return "unknown"
}

// MigrationTrigger records why a migration began.
type MigrationTrigger uint8

const (
	TriggerSeasonal MigrationTrigger = iota
	TriggerScarcity
	TriggerTemperature
	TriggerBreeding
	TriggerFlocking
	TriggerPredator
)

// Migration is one route being traveled by a set of creatures.
type Migration struct {
	ID          uint32
	Trigger     MigrationTrigger
	Phase       MigrationPhase
	Members     []uint32
	Origin      components.Vec3
	Destination components.Vec3
	Waypoints   []components.Vec3

	wpIndex   int
	restTimer float64
	settledAt float64
}

// CurrentWaypoint returns the waypoint members are heading to.
func (mg *Migration) CurrentWaypoint() components.Vec3 {
	if mg.wpIndex < len(mg.Waypoints) {
		return mg.Waypoints[mg.wpIndex]
	}
	return mg.Destination
}

// migrationWaypoints is the number of route hops between origin and
// destination.
const migrationWaypoints = 5

// prepareDuration is how long a migration gathers before departing.
const prepareDuration = 5.0

// Migrator manages migration triggers, routes and travel forces.
type Migrator struct {
	cfg    *config.MigrationConfig
	phys   steering.Params
	social *Social
	planet *world.World

	migrations map[uint32]*Migration
	memberOf   map[uint32]uint32
	next       uint32

	lastSeason int
	started    uint64
}

// NewMigrator creates the module. Routes are planned against the planet's
// biome sampler.
func NewMigrator(cfg *config.MigrationConfig, phys steering.Params, social *Social, planet *world.World) *Migrator {
	return &Migrator{
		cfg:        cfg,
		phys:       phys,
		social:     social,
		planet:     planet,
		migrations: make(map[uint32]*Migration),
		memberOf:   make(map[uint32]uint32),
		lastSeason: -1,
	}
}

// Update advances every migration and evaluates triggers.
func (m *Migrator) Update(dt float64, now float64, view CreatureView, cmds *CommandQueue) {
	for _, id := range m.sortedIDs() {
		m.advance(m.migrations[id], dt, now, view, cmds)
	}

	season, progress := m.planet.SeasonProgress(now)
	seasonChanged := season != m.lastSeason && m.lastSeason >= 0
	m.lastSeason = season

	m.evaluateGroupTriggers(now, view, seasonChanged, progress)
	m.evaluateJoinTrigger(view)
}

func (m *Migrator) advance(mg *Migration, dt float64, now float64, view CreatureView, cmds *CommandQueue) {
	kept := mg.Members[:0]
	var centroid components.Vec3
	for _, id := range mg.Members {
		c, ok := view.ByID(id)
		if !ok || !c.Alive {
			delete(m.memberOf, id)
			continue
		}
		kept = append(kept, id)
		centroid = centroid.Add(c.Position)
	}
	mg.Members = kept
	if len(kept) == 0 {
		delete(m.migrations, mg.ID)
		return
	}
	centroid = centroid.Scale(1 / float32(len(kept)))
	reach := float32(m.cfg.WaypointReach)

	switch mg.Phase {
	case MigrationPreparing:
		mg.restTimer += dt
		if mg.restTimer >= prepareDuration {
			mg.Phase = MigrationDeparting
			mg.restTimer = 0
		}
	case MigrationDeparting:
		if centroid.Sub(mg.CurrentWaypoint()).Len2D() < reach*2 {
			mg.Phase = MigrationTraveling
		}
	case MigrationTraveling:
		if centroid.Sub(mg.CurrentWaypoint()).Len2D() < reach {
			mg.wpIndex++
			if mg.wpIndex >= len(mg.Waypoints) {
				mg.Phase = MigrationArriving
			}
		}
	case MigrationArriving:
		if centroid.Sub(mg.Destination).Len2D() < reach {
			mg.Phase = MigrationResting
			mg.restTimer = 0
		}
	case MigrationResting:
		mg.restTimer += dt
		if mg.restTimer >= m.cfg.RestDuration {
			mg.Phase = MigrationSettled
			mg.settledAt = now
			for _, id := range mg.Members {
				cmds.Push(Command{Kind: CmdSetMigrationCooldown, ID: id, Amount: float32(m.cfg.Cooldown)})
			}
		}
	case MigrationSettled:
		// Keep the settled record around briefly for observers, then drop it.
		if now-mg.settledAt > m.cfg.Cooldown {
			for _, id := range mg.Members {
				delete(m.memberOf, id)
			}
			delete(m.migrations, mg.ID)
		}
	}
}

// evaluateGroupTriggers starts migrations for groups under seasonal,
// scarcity, temperature or predator pressure.
func (m *Migrator) evaluateGroupTriggers(now float64, view CreatureView, seasonChanged bool, seasonProgress float64) {
	for _, gid := range m.social.sortedIDs() {
		g := m.social.groups[gid]
		if g.Size() == 0 {
			continue
		}
		if m.anyMigrating(g.Members) || m.anyOnCooldown(g.Members, view) {
			continue
		}

		trigger, ok := m.groupTrigger(g, now, view, seasonChanged, seasonProgress)
		if !ok {
			continue
		}
		m.begin(g.Members, g.Centroid, trigger, view)
	}
}

func (m *Migrator) groupTrigger(g *Group, now float64, view CreatureView, seasonChanged bool, seasonProgress float64) (MigrationTrigger, bool) {
	if seasonChanged && seasonProgress < m.cfg.SeasonalThreshold {
		return TriggerSeasonal, true
	}

	// Resource scarcity: little standing food around the group.
	foodRange := float32(60)
	if density := float64(len(m.planet.FoodSourcesNear(g.Centroid, foodRange))); density < m.cfg.ScarcityThreshold {
		return TriggerScarcity, true
	}

	// Temperature stress at the group's location.
	climate := m.planet.ClimateAt(g.Centroid, now)
	if climate.Temperature < 0.1 || climate.Temperature > 0.95 {
		return TriggerTemperature, true
	}

	// Predator pressure: sustained fear across the group. Breeding: most of
	// the group is ready to reproduce and would benefit from richer ground.
	var fear float32
	ready := 0
	for _, id := range g.Members {
		c, ok := view.ByID(id)
		if !ok {
			continue
		}
		fear += c.Fear
		if c.Energy >= traits.Table[c.Type].ReproThreshold {
			ready++
		}
	}
	if fear/float32(g.Size()) > 0.8 {
		return TriggerPredator, true
	}
	if ready*4 >= g.Size()*3 {
		return TriggerBreeding, true
	}

	return 0, false
}

// evaluateJoinTrigger lets ungrouped creatures fold into a passing migration
// of their own type.
func (m *Migrator) evaluateJoinTrigger(view CreatureView) {
	for _, id := range m.sortedIDs() {
		mg := m.migrations[id]
		if mg.Phase != MigrationTraveling || len(mg.Members) == 0 {
			continue
		}
		lead, ok := view.ByID(mg.Members[0])
		if !ok {
			continue
		}

		var joiners []uint32
		for _, en := range view.QueryNear(lead.Position, 25) {
			if en.Type != lead.Type {
				continue
			}
			if _, busy := m.memberOf[en.ID]; busy {
				continue
			}
			joiners = append(joiners, en.ID)
		}
		for _, jid := range joiners {
			c, ok := view.ByID(jid)
			if !ok || !c.Alive || c.MigrationCooldown > 0 {
				continue
			}
			mg.Members = append(mg.Members, jid)
			m.memberOf[jid] = mg.ID
		}
	}
}

// begin plans a route and creates the migration record.
func (m *Migrator) begin(members []uint32, origin components.Vec3, trigger MigrationTrigger, view CreatureView) {
	first, ok := view.ByID(members[0])
	if !ok {
		return
	}
	dest := m.pickDestination(origin, first.Type)

	m.next++
	mg := &Migration{
		ID:          m.next,
		Trigger:     trigger,
		Phase:       MigrationPreparing,
		Origin:      origin,
		Destination: dest,
		Waypoints:   m.planRoute(origin, dest, first.Type),
	}
	for _, id := range members {
		mg.Members = append(mg.Members, id)
		m.memberOf[id] = mg.ID
	}
	m.migrations[mg.ID] = mg
	m.started++
}

// pickDestination samples eight compass directions at the configured route
// distance and keeps the most hospitable point.
func (m *Migrator) pickDestination(origin components.Vec3, ctype traits.Type) components.Vec3 {
	dist := float32(m.cfg.Distance)
	best := origin
	bestScore := float32(math.Inf(-1))

	for i := 0; i < 8; i++ {
		angle := float32(i) * (2 * math.Pi / 8)
		p := origin.Add(components.FromHeading(angle).Scale(dist))
		score := m.habitability(p, ctype)
		if score > bestScore {
			best = p
			bestScore = score
		}
	}
	return best
}

// habitability scores a point by food availability and habitat match.
func (m *Migrator) habitability(p components.Vec3, ctype traits.Type) float32 {
	biome := m.planet.BiomeAt(p.X, p.Z)
	loco := traits.Table[ctype].Locomotion

	score := float32(len(m.planet.FoodSourcesNear(p, 40)))
	if biome.IsWater() {
		if loco == traits.AquaticLoc || loco == traits.Amphibious {
			score += 3
		} else if loco != traits.Aerial {
			score -= 100
		}
	} else if loco == traits.AquaticLoc {
		score -= 100
	}
	t := m.planet.TemperatureAt(p.X, p.Z)
	score -= float32(math.Abs(float64(t-0.5))) * 4
	return score
}

// planRoute interpolates waypoints between origin and destination, nudging
// each off hostile terrain.
func (m *Migrator) planRoute(origin, dest components.Vec3, ctype traits.Type) []components.Vec3 {
	loco := traits.Table[ctype].Locomotion
	wps := make([]components.Vec3, 0, migrationWaypoints)

	for i := 1; i <= migrationWaypoints; i++ {
		t := float32(i) / float32(migrationWaypoints+1)
		p := origin.Add(dest.Sub(origin).Scale(t))

		if loco == traits.Terrestrial || loco == traits.Arboreal || loco == traits.Burrowing {
			// Walkers detour around water: probe sideways for land.
			perp := components.FromHeading(dest.Sub(origin).Heading2D() + math.Pi/2)
			for step := float32(0); step <= 60 && m.planet.BiomeAt(p.X, p.Z).IsWater(); step += 15 {
				p = p.Add(perp.Scale(15))
			}
		}
		wps = append(wps, p)
	}
	return wps
}

func (m *Migrator) anyMigrating(ids []uint32) bool {
	for _, id := range ids {
		if _, ok := m.memberOf[id]; ok {
			return true
		}
	}
	return false
}

func (m *Migrator) anyOnCooldown(ids []uint32, view CreatureView) bool {
	for _, id := range ids {
		if c, ok := view.ByID(id); ok && c.MigrationCooldown > 0 {
			return true
		}
	}
	return false
}

// Force returns the migration steering contribution for one creature.
func (m *Migrator) Force(c *CreatureState, view CreatureView) components.Vec3 {
	mid, ok := m.memberOf[c.ID]
	if !ok {
		return components.Vec3{}
	}
	mg := m.migrations[mid]
	if mg == nil || mg.Phase == MigrationSettled {
		return components.Vec3{}
	}

	var target components.Vec3
	switch mg.Phase {
	case MigrationPreparing:
		target = mg.Origin
	case MigrationArriving, MigrationResting:
		target = mg.Destination
	default:
		target = mg.CurrentWaypoint()
	}

	force := steering.Seek(c.Position, c.Velocity, target, m.phys).Scale(float32(m.cfg.SpeedMultiplier))

	// Companion bias keeps the column together on the route.
	var companions []steering.Neighbor
	for _, id := range mg.Members {
		if id == c.ID {
			continue
		}
		if member, ok := view.ByID(id); ok && member.Position.Sub(c.Position).Len2D() < 30 {
			companions = append(companions, steering.Neighbor{Pos: member.Position, Vel: member.Velocity})
		}
	}
	force = force.Add(steering.Flock(c.Position, c.Velocity, companions, 0.8, 0.6, 0.4, m.phys).Scale(0.5))
	return force.Truncated(m.phys.MaxForce)
}

// MigrationOf returns the migration a creature participates in, or nil.
func (m *Migrator) MigrationOf(id uint32) *Migration {
	if mid, ok := m.memberOf[id]; ok {
		return m.migrations[mid]
	}
	return nil
}

// OnDeath removes the dead creature from its migration.
func (m *Migrator) OnDeath(id uint32) {
	mg := m.MigrationOf(id)
	if mg == nil {
		return
	}
	for i, mid := range mg.Members {
		if mid == id {
			mg.Members[i] = mg.Members[len(mg.Members)-1]
			mg.Members = mg.Members[:len(mg.Members)-1]
			break
		}
	}
	delete(m.memberOf, id)
}

// Active returns the number of unsettled migrations.
func (m *Migrator) Active() int {
	n := 0
	for _, mg := range m.migrations {
		if mg.Phase != MigrationSettled {
			n++
		}
	}
	return n
}

// Started returns the cumulative started-migration counter.
func (m *Migrator) Started() uint64 { return m.started }

func (m *Migrator) sortedIDs() []uint32 {
	ids := make([]uint32, 0, len(m.migrations))
	for id := range m.migrations {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
